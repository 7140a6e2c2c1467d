package contracts

import (
	"fmt"
	"strings"
)

// GeoLevel is one of the four aggregation levels
type GeoLevel string

const (
	GeoLevelZip    GeoLevel = "zip"
	GeoLevelCity   GeoLevel = "city"
	GeoLevelCounty GeoLevel = "county"
	GeoLevelState  GeoLevel = "state"

	// GeoLevelMetro is the demand source's native level; nothing is stored at it
	GeoLevelMetro GeoLevel = "metro"
)

// RollupLevels are the levels derived from ZIP rows
var RollupLevels = []GeoLevel{GeoLevelCity, GeoLevelCounty, GeoLevelState}

// ParseGeoLevel validates a level name from user input
func ParseGeoLevel(s string) (GeoLevel, error) {
	switch l := GeoLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case GeoLevelZip, GeoLevelCity, GeoLevelCounty, GeoLevelState:
		return l, nil
	default:
		return "", fmt.Errorf("unknown geo level %q", s)
	}
}

// GeoUnit is a geography at one level with its canonical key.
// geoKey: ZIP code, "city|ST", 5-digit county FIPS, or state code.
type GeoUnit struct {
	Level       GeoLevel `json:"level"`
	GeoKey      string   `json:"geo_key"`
	StateCode   string   `json:"state_code"`
	DisplayName string   `json:"display_name"`
}

// ZipGeo is one ZIP with its parent geographies as spelled by the source.
// ZIP is the atomic unit every rollup derives from.
type ZipGeo struct {
	ZipCode    string `json:"zip_code"`
	StateCode  string `json:"state_code"`
	CityName   string `json:"city_name"`
	CountyName string `json:"county_name"`
	CountyFIPS string `json:"county_fips"` // empty when the source row has none
}

// Unit returns the ZIP-level GeoUnit
func (z ZipGeo) Unit() GeoUnit {
	return GeoUnit{
		Level:       GeoLevelZip,
		GeoKey:      z.ZipCode,
		StateCode:   z.StateCode,
		DisplayName: z.ZipCode,
	}
}

// CityKey builds the city-level key "city|ST"
func CityKey(city, state string) string {
	return city + "|" + strings.ToUpper(state)
}

// CountyFIPSMapping maps one county name spelling to its FIPS code
type CountyFIPSMapping struct {
	StateCode  string
	CountyName string
	FIPS       string
}

// IsValidFIPS reports whether s is a 5-digit county FIPS code
func IsValidFIPS(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
