package contracts

// DataCoverage makes silent data loss visible for one bedroom class of one run.
// GeosUsed counts ZIPs that produced a yield mover; GeosScored counts
// sufficient ScoreRecords.
type DataCoverage struct {
	BedroomClass                 BedroomClass `json:"bedroom_class"`
	TotalGeos                    int          `json:"total_geos"`
	GeosWithRent                 int          `json:"geos_with_rent"`
	GeosWithHomeValueBothPeriods int          `json:"geos_with_home_value_both_periods"`
	GeosUsed                     int          `json:"geos_used"`
	GeosScored                   int          `json:"geos_scored"`
}

// Ratio returns part/TotalGeos, 0 when there are no geographies
func (c DataCoverage) Ratio(part int) float64 {
	if c.TotalGeos == 0 {
		return 0
	}
	return float64(part) / float64(c.TotalGeos)
}
