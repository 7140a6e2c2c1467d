package s4_geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/yieldmap/internal/contracts"
)

func mappings() []contracts.CountyFIPSMapping {
	return []contracts.CountyFIPSMapping{
		{StateCode: "MO", CountyName: "Saint Louis County", FIPS: "29189"},
		{StateCode: "MO", CountyName: "St. Louis city", FIPS: "29510"},
		{StateCode: "LA", CountyName: "Orleans Parish", FIPS: "22071"},
		{StateCode: "TX", CountyName: "Travis County", FIPS: "48453"},
		{StateCode: "VA", CountyName: "Franklin County", FIPS: "51067"},
		{StateCode: "VA", CountyName: "Franklin", FIPS: "51620"},
		{StateCode: "TX", CountyName: "Broken", FIPS: "48"},
	}
}

func TestCanonicalizer_Resolve(t *testing.T) {
	c := NewCanonicalizer(mappings())

	tests := []struct {
		name       string
		zip        contracts.ZipGeo
		wantFIPS   string
		wantMethod string
		wantOK     bool
	}{
		{
			name:       "own FIPS wins over name",
			zip:        contracts.ZipGeo{StateCode: "TX", CountyName: "Nowhere", CountyFIPS: "48001"},
			wantFIPS:   "48001",
			wantMethod: ResolvedByZip,
			wantOK:     true,
		},
		{
			name:       "exact mapping row",
			zip:        contracts.ZipGeo{StateCode: "TX", CountyName: "Travis County"},
			wantFIPS:   "48453",
			wantMethod: ResolvedByMapping,
			wantOK:     true,
		},
		{
			name:       "St. abbreviation falls back to normalized name",
			zip:        contracts.ZipGeo{StateCode: "mo", CountyName: "St. Louis County"},
			wantFIPS:   "29189",
			wantMethod: ResolvedByName,
			wantOK:     true,
		},
		{
			name:       "parish suffix dropped",
			zip:        contracts.ZipGeo{StateCode: "LA", CountyName: "ORLEANS"},
			wantFIPS:   "22071",
			wantMethod: ResolvedByName,
			wantOK:     true,
		},
		{
			name:       "malformed own FIPS uses the name path",
			zip:        contracts.ZipGeo{StateCode: "TX", CountyName: "Travis", CountyFIPS: "4845"},
			wantFIPS:   "48453",
			wantMethod: ResolvedByName,
			wantOK:     true,
		},
		{
			name:   "ambiguous normalized name stays unresolved",
			zip:    contracts.ZipGeo{StateCode: "VA", CountyName: "FRANKLIN COUNTY"},
			wantOK: false,
		},
		{
			name:   "wrong state",
			zip:    contracts.ZipGeo{StateCode: "CA", CountyName: "Travis County"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fips, method, ok := c.Resolve(tt.zip)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFIPS, fips)
			assert.Equal(t, tt.wantMethod, method)
		})
	}
}

func TestNormalizeCountyName(t *testing.T) {
	tests := map[string]string{
		"St. Louis County":        "saint louis",
		"Saint Louis":             "saint louis",
		"  Miami-Dade County ":    "miami dade",
		"Prince George's":         "prince georges",
		"Juneau City and Borough": "juneau",
		"Ste. Genevieve County":   "sainte genevieve",
		"Bethel Census Area":      "bethel",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeCountyName(in), in)
	}
}

func TestNormalizeCityName(t *testing.T) {
	assert.Equal(t, "saint paul", NormalizeCityName("St. Paul"))
	assert.Equal(t, "fort worth", NormalizeCityName("Ft Worth"))
	assert.Equal(t, "winston salem", NormalizeCityName("Winston-Salem"))
	assert.Equal(t, "", NormalizeCityName("  "))
}
