package contracts

import (
	"strconv"
	"time"
)

// YieldMoverRecord compares prior and current rent yield for one geography.
// Yields are fractions; *Pct and *Pp fields are percentages and percentage points.
type YieldMoverRecord struct {
	Level        GeoLevel     `json:"geo_level"`
	GeoKey       string       `json:"geo_key"`
	StateCode    string       `json:"state_code"`
	DisplayName  string       `json:"display_name"`
	BedroomClass BedroomClass `json:"bedroom_class"`
	FMRYear      int          `json:"fmr_year"`

	FMRCurr   float64 `json:"fmr_curr"`
	FMRPrev   float64 `json:"fmr_prev"`
	FMRYoYPct float64 `json:"fmr_yoy_pct"`

	HomeValueCurr   float64 `json:"home_value_curr"`
	HomeValuePrev   float64 `json:"home_value_prev"`
	HomeValueYoYPct float64 `json:"home_value_yoy_pct"`

	YieldCurr    float64 `json:"yield_curr"`
	YieldPrior   float64 `json:"yield_prior"`
	YieldDeltaPp float64 `json:"yield_delta_pp"`
	DivergencePp float64 `json:"divergence_pp"`

	ConstituentZipCount int `json:"constituent_zip_count"` // 1 at ZIP level

	HomeValueVintage string    `json:"home_value_vintage"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Key renders the upsert key for logs and failed-range reports
func (r YieldMoverRecord) Key() string {
	return string(r.Level) + ":" + r.GeoKey + "/" + strconv.Itoa(int(r.BedroomClass))
}
