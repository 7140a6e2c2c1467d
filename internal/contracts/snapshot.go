package contracts

import "math"

// SourceKind names one upstream metric source
type SourceKind string

const (
	SourceRent      SourceKind = "rent"       // FMR/SAFMR, annual
	SourceHomeValue SourceKind = "home_value" // ZHVI, monthly per bedroom class
	SourceTaxRate   SourceKind = "tax_rate"   // effective property tax rate, annual
	SourceDemand    SourceKind = "demand"     // ZORDI, monthly metro index
)

// BedroomClass is a bedroom count; rent uses 0..4, home value 1..5
type BedroomClass int

// BedroomAny marks sources that are not bedroom-specific
const BedroomAny BedroomClass = -1

// RentBedroomClasses are the bedroom classes scored by default
var RentBedroomClasses = []BedroomClass{0, 1, 2, 3, 4}

// IsRentClass reports whether b is a rent bedroom class
func (b BedroomClass) IsRentClass() bool {
	return b >= 0 && b <= 4
}

// HomeValueClass maps a rent class (0..4) to the home-value series (1..5).
// Studio and 1-bedroom rent both draw on the 1-bedroom series.
func (b BedroomClass) HomeValueClass() BedroomClass {
	return max(1, min(b, 5))
}

// Rent provenance tags
const (
	ProvenanceSAFMR = "safmr"
	ProvenanceFMR   = "fmr"
)

// MetricSnapshot is one raw reading from a source for one geography and period
type MetricSnapshot struct {
	SourceKind   SourceKind
	Level        GeoLevel
	GeoKey       string
	BedroomClass BedroomClass
	Period       PeriodKey
	Value        *float64 // nil when the source value is null
	Provenance   string   // rent only: safmr or fmr
}

// ValidValue returns the value when it is finite and strictly positive
func (s MetricSnapshot) ValidValue() (float64, bool) {
	if s.Value == nil {
		return 0, false
	}
	return ValidMetric(*s.Value)
}

// ValidMetric treats NaN, infinities and non-positive numbers as absent
func ValidMetric(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Vintage is the pair of periods chosen for one source and bedroom class.
// Prior is zero when the source is not compared year over year.
type Vintage struct {
	Source  SourceKind   `json:"source"`
	Bedroom BedroomClass `json:"bedroom"`
	Current PeriodKey    `json:"current"`
	Prior   PeriodKey    `json:"prior"`
}

// Float returns a pointer to v for nullable output fields
func Float(v float64) *float64 {
	return &v
}

// FloatOrNil returns nil for absent metrics
func FloatOrNil(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
