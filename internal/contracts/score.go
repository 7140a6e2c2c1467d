package contracts

import (
	"strconv"
	"time"
)

// ScoreRecord is the per-ZIP, per-bedroom investment score.
// Pointer fields are nil when the input is missing; derived fields are nil
// whenever DataSufficient is false.
type ScoreRecord struct {
	ZipCode      string       `json:"zip_code"`
	StateCode    string       `json:"state_code"`
	CityName     string       `json:"city_name"`
	CountyName   string       `json:"county_name"`
	CountyFIPS   string       `json:"county_fips"`
	BedroomClass BedroomClass `json:"bedroom_class"`
	FMRYear      int          `json:"fmr_year"`

	MonthlyRent   *float64 `json:"monthly_rent"`
	PropertyValue *float64 `json:"property_value"`
	TaxRate       *float64 `json:"tax_rate"`
	RentSource    string   `json:"rent_source"`

	AnnualRent       *float64 `json:"annual_rent"`
	AnnualTaxes      *float64 `json:"annual_taxes"`
	NetYield         *float64 `json:"net_yield"`
	RentToPriceRatio *float64 `json:"rent_to_price_ratio"`
	BaseScore        *float64 `json:"base_score"`

	DemandScore      *float64 `json:"demand_score"` // percentile rank, nil without demand data
	DemandMultiplier float64  `json:"demand_multiplier"`
	AdjustedScore    *float64 `json:"adjusted_score"`

	DataSufficient bool `json:"data_sufficient"`

	HomeValueVintage string    `json:"home_value_vintage"`
	TaxVintage       string    `json:"tax_vintage"`
	DemandVintage    string    `json:"demand_vintage"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Key renders the upsert key for logs and failed-range reports
func (r ScoreRecord) Key() string {
	return r.ZipCode + "/" + strconv.Itoa(int(r.BedroomClass))
}

// ScoreRollup summarizes the sufficient ScoreRecords of one city, county or state
type ScoreRollup struct {
	Level         GeoLevel     `json:"geo_level"`
	GeoKey        string       `json:"geo_key"`
	StateCode     string       `json:"state_code"`
	DisplayName   string       `json:"display_name"`
	BedroomClass  BedroomClass `json:"bedroom_class"`
	FMRYear       int          `json:"fmr_year"`
	ZipCount      int          `json:"zip_count"`       // sufficient member ZIPs
	TotalZipCount int          `json:"total_zip_count"` // all member ZIPs

	MedianScore         float64 `json:"median_score"`
	MeanScore           float64 `json:"mean_score"`
	ScoreStdDev         float64 `json:"score_std_dev"`
	MedianNetYield      float64 `json:"median_net_yield"`
	MeanNetYield        float64 `json:"mean_net_yield"`
	MedianPropertyValue float64 `json:"median_property_value"`
	MeanPropertyValue   float64 `json:"mean_property_value"`
	MedianAnnualRent    float64 `json:"median_annual_rent"`
	MeanAnnualRent      float64 `json:"mean_annual_rent"`

	HomeValueVintage string    `json:"home_value_vintage"`
	TaxVintage       string    `json:"tax_vintage"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Key renders the upsert key for logs and failed-range reports
func (r ScoreRollup) Key() string {
	return string(r.Level) + ":" + r.GeoKey + "/" + strconv.Itoa(int(r.BedroomClass))
}
