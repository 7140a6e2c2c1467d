package s1_metrics

import (
	"github.com/wonny/yieldmap/internal/contracts"
)

// ZipMetrics is every input loaded for one ZIP and rent bedroom class.
// Zero means absent; loaders never store invalid values.
type ZipMetrics struct {
	Geo     contracts.ZipGeo // CountyFIPS is canonical or empty
	Bedroom contracts.BedroomClass

	RentCurr   float64
	RentPrev   float64
	RentSource string

	HomeValueCurr float64
	HomeValuePrev float64

	TaxRate float64

	DemandRegion string
	DemandValue  float64
}

func (m ZipMetrics) HasRent() bool      { return m.RentCurr > 0 }
func (m ZipMetrics) HasHomeValue() bool { return m.HomeValueCurr > 0 }
func (m ZipMetrics) HasTax() bool       { return m.TaxRate > 0 }
func (m ZipMetrics) HasDemand() bool    { return m.DemandValue > 0 }

// HasHomeValueBothPeriods reports current and prior home value
func (m ZipMetrics) HasHomeValueBothPeriods() bool {
	return m.HomeValueCurr > 0 && m.HomeValuePrev > 0
}

// HasYieldInputs reports all four yield mover inputs
func (m ZipMetrics) HasYieldInputs() bool {
	return m.RentCurr > 0 && m.RentPrev > 0 && m.HomeValueCurr > 0 && m.HomeValuePrev > 0
}
