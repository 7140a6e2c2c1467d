package s1_metrics

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/s0_data"
	"github.com/wonny/yieldmap/internal/s0_data/vintage"
)

func f(v float64) *float64 { return &v }

func month(y, m int) contracts.PeriodKey { return contracts.PeriodKey{Year: y, Month: m} }

func safmr(zip string, year, bedroom int, v *float64) contracts.MetricSnapshot {
	return contracts.MetricSnapshot{
		SourceKind: contracts.SourceRent, Level: contracts.GeoLevelZip, GeoKey: zip,
		BedroomClass: contracts.BedroomClass(bedroom), Period: contracts.YearPeriod(year),
		Value: v, Provenance: contracts.ProvenanceSAFMR,
	}
}

func fmr(fips string, year, bedroom int, v float64) contracts.MetricSnapshot {
	return contracts.MetricSnapshot{
		SourceKind: contracts.SourceRent, Level: contracts.GeoLevelCounty, GeoKey: fips,
		BedroomClass: contracts.BedroomClass(bedroom), Period: contracts.YearPeriod(year),
		Value: f(v), Provenance: contracts.ProvenanceFMR,
	}
}

func zhvi(zip string, class int, p contracts.PeriodKey, v float64) contracts.MetricSnapshot {
	return contracts.MetricSnapshot{
		SourceKind: contracts.SourceHomeValue, Level: contracts.GeoLevelZip, GeoKey: zip,
		BedroomClass: contracts.BedroomClass(class), Period: p, Value: f(v),
	}
}

func fixture() *s0_data.MemoryRepository {
	return &s0_data.MemoryRepository{
		Zips: []contracts.ZipGeo{
			{ZipCode: "78701", StateCode: "TX", CityName: "Austin", CountyName: "Travis County", CountyFIPS: "48453"},
			{ZipCode: "75001", StateCode: "TX", CityName: "Addison", CountyName: "Dallas County", CountyFIPS: "48113"},
			{ZipCode: "78702", StateCode: "TX", CityName: "Austin", CountyName: "Travis"},
			{ZipCode: "94105", StateCode: "CA", CityName: "San Francisco", CountyName: "San Francisco", CountyFIPS: "06075"},
		},
		Rent: []contracts.MetricSnapshot{
			safmr("78701", 2025, 1, f(1500)),
			safmr("78701", 2025, 2, f(1800)),
			safmr("78701", 2025, 3, f(math.NaN())),
			safmr("78701", 2024, 2, f(1700)),
			fmr("48453", 2025, 0, 1200),
			fmr("48453", 2025, 2, 1650),
			fmr("48113", 2025, 2, 1400),
			fmr("48113", 2024, 2, 1350),
			fmr("48113", 2025, 4, -5),
		},
		HomeValue: []contracts.MetricSnapshot{
			zhvi("78701", 1, month(2025, 12), 300000),
			zhvi("78701", 1, month(2024, 12), 290000),
			zhvi("78701", 2, month(2025, 12), 400000),
			zhvi("78701", 2, month(2024, 12), 380000),
			zhvi("75001", 2, month(2025, 11), 310000), // off-vintage
			zhvi("75001", 2, month(2024, 12), 300000),
		},
		Tax: []contracts.MetricSnapshot{
			{SourceKind: contracts.SourceTaxRate, Level: contracts.GeoLevelZip, GeoKey: "78701", BedroomClass: contracts.BedroomAny, Period: contracts.YearPeriod(2024), Value: f(0.018)},
			{SourceKind: contracts.SourceTaxRate, Level: contracts.GeoLevelZip, GeoKey: "75001", BedroomClass: contracts.BedroomAny, Period: contracts.YearPeriod(2024), Value: f(0)},
		},
		Demand: []contracts.MetricSnapshot{
			{SourceKind: contracts.SourceDemand, Level: contracts.GeoLevelMetro, GeoKey: "394355", Period: month(2025, 9), Value: f(80)},
			{SourceKind: contracts.SourceDemand, Level: contracts.GeoLevelMetro, GeoKey: "395057", Period: month(2025, 9), Value: f(55)},
		},
		ZipMetro: map[string]string{"78701": "394355", "94105": "395057"},
	}
}

func vintages() *vintage.Set {
	hv := func(class int) contracts.Vintage {
		return contracts.Vintage{Source: contracts.SourceHomeValue, Bedroom: contracts.BedroomClass(class), Current: month(2025, 12), Prior: month(2024, 12)}
	}
	tax := contracts.Vintage{Source: contracts.SourceTaxRate, Bedroom: contracts.BedroomAny, Current: contracts.YearPeriod(2024), Prior: contracts.YearPeriod(2023)}
	demand := contracts.Vintage{Source: contracts.SourceDemand, Bedroom: contracts.BedroomAny, Current: month(2025, 9), Prior: month(2024, 9)}

	return &vintage.Set{
		FMRYear:   2025,
		Rent:      contracts.Vintage{Source: contracts.SourceRent, Bedroom: contracts.BedroomAny, Current: contracts.YearPeriod(2025), Prior: contracts.YearPeriod(2024)},
		HomeValue: map[contracts.BedroomClass]contracts.Vintage{1: hv(1), 2: hv(2)},
		Tax:       &tax,
		Demand:    &demand,
	}
}

func byZip(metrics []ZipMetrics) map[string]ZipMetrics {
	out := make(map[string]ZipMetrics, len(metrics))
	for _, m := range metrics {
		out[m.Geo.ZipCode] = m
	}
	return out
}

func load(t *testing.T, state string) *Dataset {
	t.Helper()
	loader := NewLoader(fixture(), nil, 2, zerolog.Nop())
	ds, err := loader.Load(context.Background(), vintages(), state, []contracts.BedroomClass{0, 1, 2, 3, 4})
	require.NoError(t, err)
	return ds
}

func TestLoad_SmallAreaPreferredPerZipYear(t *testing.T) {
	ds := load(t, "TX")

	austin := byZip(ds.Metrics[2])["78701"]
	assert.Equal(t, 1800.0, austin.RentCurr)
	assert.Equal(t, 1700.0, austin.RentPrev)
	assert.Equal(t, contracts.ProvenanceSAFMR, austin.RentSource)

	// SAFMR ZIP-year never falls back to county FMR for a missing class
	studio := byZip(ds.Metrics[0])["78701"]
	assert.False(t, studio.HasRent())
	assert.Empty(t, studio.RentSource)

	// NaN SAFMR is absent, not zero-filled from the county
	three := byZip(ds.Metrics[3])["78701"]
	assert.False(t, three.HasRent())
}

func TestLoad_CountyFallback(t *testing.T) {
	ds := load(t, "TX")

	addison := byZip(ds.Metrics[2])["75001"]
	assert.Equal(t, 1400.0, addison.RentCurr)
	assert.Equal(t, 1350.0, addison.RentPrev)
	assert.Equal(t, contracts.ProvenanceFMR, addison.RentSource)

	// negative FMR is absent
	assert.False(t, byZip(ds.Metrics[4])["75001"].HasRent())

	// no FIPS and no resolver: no county rent
	assert.False(t, byZip(ds.Metrics[2])["78702"].HasRent())
	require.Len(t, ds.UnresolvedCounty, 1)
	assert.Equal(t, "78702", ds.UnresolvedCounty[0].ZipCode)
}

func TestLoad_HomeValueRemapAndStrictVintage(t *testing.T) {
	ds := load(t, "TX")

	studio := byZip(ds.Metrics[0])["78701"]
	assert.Equal(t, 300000.0, studio.HomeValueCurr, "studio uses the 1-bed series")
	assert.True(t, studio.HasHomeValueBothPeriods())

	addison := byZip(ds.Metrics[2])["75001"]
	assert.False(t, addison.HasHomeValue(), "off-vintage row is missing, not substituted")
	assert.Equal(t, 300000.0, addison.HomeValuePrev)
	assert.False(t, addison.HasYieldInputs())

	// no class 3 vintage resolved
	assert.False(t, byZip(ds.Metrics[3])["78701"].HasHomeValue())
}

func TestLoad_TaxAndDemand(t *testing.T) {
	ds := load(t, "TX")

	austin := byZip(ds.Metrics[2])["78701"]
	assert.Equal(t, 0.018, austin.TaxRate)
	assert.Equal(t, "394355", austin.DemandRegion)
	assert.Equal(t, 80.0, austin.DemandValue)

	addison := byZip(ds.Metrics[2])["75001"]
	assert.False(t, addison.HasTax(), "zero tax rate is absent")
	assert.False(t, addison.HasDemand())

	// national distribution even with a state filter
	assert.ElementsMatch(t, []float64{80, 55}, ds.DemandValues)
}

func TestLoad_AllStatesSorted(t *testing.T) {
	ds := load(t, "")

	require.Len(t, ds.Zips, 4)
	for i := 1; i < len(ds.Zips); i++ {
		assert.Less(t, ds.Zips[i-1].ZipCode, ds.Zips[i].ZipCode)
	}
	assert.Len(t, ds.Metrics[2], 4)
}

func TestLoad_NoOptionalVintages(t *testing.T) {
	set := vintages()
	set.Tax = nil
	set.Demand = nil

	loader := NewLoader(fixture(), nil, 1, zerolog.Nop())
	ds, err := loader.Load(context.Background(), set, "TX", []contracts.BedroomClass{2})
	require.NoError(t, err)

	austin := byZip(ds.Metrics[2])["78701"]
	assert.False(t, austin.HasTax())
	assert.False(t, austin.HasDemand())
	assert.Empty(t, ds.DemandValues)
}

type staticResolver map[string]string

func (r staticResolver) CountyFIPS(z contracts.ZipGeo) (string, bool) {
	fips, ok := r[z.ZipCode]
	return fips, ok
}

func TestLoad_CountyResolver(t *testing.T) {
	resolver := staticResolver{"78701": "48453", "75001": "48113", "78702": "48453"}
	loader := NewLoader(fixture(), resolver, 4, zerolog.Nop())

	ds, err := loader.Load(context.Background(), vintages(), "TX", []contracts.BedroomClass{0})
	require.NoError(t, err)

	m := byZip(ds.Metrics[0])["78702"]
	assert.Equal(t, "48453", m.Geo.CountyFIPS)
	assert.Equal(t, 1200.0, m.RentCurr)
	assert.Equal(t, contracts.ProvenanceFMR, m.RentSource)
	assert.Empty(t, ds.UnresolvedCounty)
}
