package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/yieldmap/internal/contracts"
)

// Repository reads the upstream geography and metric tables
// ⭐ SSOT: 원천 테이블 읽기는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

var _ contracts.SourceRepository = (*Repository)(nil)

// ListStates returns every state code present in the ZIP geography
func (r *Repository) ListStates(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT state_code
		FROM geo.zip_geography
		WHERE state_code IS NOT NULL AND state_code <> ''
		ORDER BY state_code
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ListZipGeos returns the ZIP rows of one state ("" = all), ordered by ZIP
func (r *Repository) ListZipGeos(ctx context.Context, state string) ([]contracts.ZipGeo, error) {
	query := `
		SELECT
			zip_code,
			state_code,
			COALESCE(city_name, ''),
			COALESCE(county_name, ''),
			COALESCE(county_fips, '')
		FROM geo.zip_geography
		WHERE ($1 = '' OR state_code = $1)
		ORDER BY zip_code
	`

	rows, err := r.pool.Query(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("query zip geography: %w", err)
	}
	defer rows.Close()

	var zips []contracts.ZipGeo
	for rows.Next() {
		var z contracts.ZipGeo
		if err := rows.Scan(&z.ZipCode, &z.StateCode, &z.CityName, &z.CountyName, &z.CountyFIPS); err != nil {
			return nil, fmt.Errorf("scan zip geography: %w", err)
		}
		zips = append(zips, z)
	}
	return zips, rows.Err()
}

// CountyFIPSMappings returns the name→FIPS mapping table
func (r *Repository) CountyFIPSMappings(ctx context.Context) ([]contracts.CountyFIPSMapping, error) {
	query := `
		SELECT state_code, county_name, fips
		FROM geo.county_fips
		ORDER BY state_code, county_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query county fips: %w", err)
	}
	defer rows.Close()

	var out []contracts.CountyFIPSMapping
	for rows.Next() {
		var m contracts.CountyFIPSMapping
		if err := rows.Scan(&m.StateCode, &m.CountyName, &m.FIPS); err != nil {
			return nil, fmt.Errorf("scan county fips: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RentSnapshots returns SAFMR rows (ZIP level) for the ZIPs of state and
// county FMR rows (county level, keyed by FIPS) for the counties those ZIPs
// can inherit from. SAFMR-vs-FMR selection happens in the loader.
func (r *Repository) RentSnapshots(ctx context.Context, state string, years []int) ([]contracts.MetricSnapshot, error) {
	safmrQuery := `
		SELECT s.zip_code, s.fmr_year, s.bedroom_count, s.rent::float8
		FROM rent.safmr s
		JOIN geo.zip_geography g ON g.zip_code = s.zip_code
		WHERE ($1 = '' OR g.state_code = $1)
		  AND s.fmr_year = ANY($2)
	`

	// 주의: FIPS가 없는 ZIP은 이름 매핑 테이블로 연결되므로 두 경로 모두 포함
	fmrQuery := `
		SELECT f.county_fips, f.fmr_year, f.bedroom_count, f.rent::float8
		FROM rent.fmr_county f
		WHERE f.fmr_year = ANY($2)
		  AND f.county_fips IN (
			SELECT county_fips FROM geo.zip_geography
			WHERE ($1 = '' OR state_code = $1) AND county_fips IS NOT NULL
			UNION
			SELECT fips FROM geo.county_fips
			WHERE ($1 = '' OR state_code = $1)
		  )
	`

	var out []contracts.MetricSnapshot

	safmr, err := r.queryYearly(ctx, safmrQuery, contracts.GeoLevelZip, contracts.ProvenanceSAFMR, state, years)
	if err != nil {
		return nil, fmt.Errorf("query safmr: %w", err)
	}
	out = append(out, safmr...)

	fmr, err := r.queryYearly(ctx, fmrQuery, contracts.GeoLevelCounty, contracts.ProvenanceFMR, state, years)
	if err != nil {
		return nil, fmt.Errorf("query county fmr: %w", err)
	}
	out = append(out, fmr...)

	return out, nil
}

func (r *Repository) queryYearly(ctx context.Context, query string, level contracts.GeoLevel, provenance, state string, years []int) ([]contracts.MetricSnapshot, error) {
	rows, err := r.pool.Query(ctx, query, state, years)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.MetricSnapshot
	for rows.Next() {
		var (
			key     string
			year    int
			bedroom int
			value   *float64
		)
		if err := rows.Scan(&key, &year, &bedroom, &value); err != nil {
			return nil, err
		}
		out = append(out, contracts.MetricSnapshot{
			SourceKind:   contracts.SourceRent,
			Level:        level,
			GeoKey:       key,
			BedroomClass: contracts.BedroomClass(bedroom),
			Period:       contracts.YearPeriod(year),
			Value:        value,
			Provenance:   provenance,
		})
	}
	return out, rows.Err()
}

// HomeValueSnapshots returns ZHVI rows for the (class, month) pairs of each
// vintage: both Current and Prior when set.
func (r *Repository) HomeValueSnapshots(ctx context.Context, state string, vintages []contracts.Vintage) ([]contracts.MetricSnapshot, error) {
	var (
		classes []int
		months  []time.Time
	)
	for _, v := range vintages {
		for _, p := range []contracts.PeriodKey{v.Current, v.Prior} {
			if p.IsZero() {
				continue
			}
			classes = append(classes, int(v.Bedroom))
			months = append(months, p.Time())
		}
	}
	if len(classes) == 0 {
		return nil, nil
	}

	query := `
		SELECT z.zip_code, z.bedroom_count, date_trunc('month', z.month)::date, z.value::float8
		FROM market.zhvi z
		JOIN geo.zip_geography g ON g.zip_code = z.zip_code
		JOIN unnest($2::int[], $3::date[]) AS v(bedroom_count, month)
		  ON v.bedroom_count = z.bedroom_count
		 AND v.month = date_trunc('month', z.month)::date
		WHERE ($1 = '' OR g.state_code = $1)
	`

	rows, err := r.pool.Query(ctx, query, state, classes, months)
	if err != nil {
		return nil, fmt.Errorf("query zhvi: %w", err)
	}
	defer rows.Close()

	var out []contracts.MetricSnapshot
	for rows.Next() {
		var (
			zip     string
			bedroom int
			month   time.Time
			value   *float64
		)
		if err := rows.Scan(&zip, &bedroom, &month, &value); err != nil {
			return nil, fmt.Errorf("scan zhvi: %w", err)
		}
		out = append(out, contracts.MetricSnapshot{
			SourceKind:   contracts.SourceHomeValue,
			Level:        contracts.GeoLevelZip,
			GeoKey:       zip,
			BedroomClass: contracts.BedroomClass(bedroom),
			Period:       contracts.MonthPeriod(month),
			Value:        value,
		})
	}
	return out, rows.Err()
}

// TaxSnapshots returns effective tax rates (fractions) for one vintage year
func (r *Repository) TaxSnapshots(ctx context.Context, state string, vintage contracts.PeriodKey) ([]contracts.MetricSnapshot, error) {
	query := `
		SELECT t.zip_code, t.effective_rate::float8
		FROM tax.effective_rates t
		JOIN geo.zip_geography g ON g.zip_code = t.zip_code
		WHERE ($1 = '' OR g.state_code = $1)
		  AND t.vintage_year = $2
	`

	rows, err := r.pool.Query(ctx, query, state, vintage.Year)
	if err != nil {
		return nil, fmt.Errorf("query tax rates: %w", err)
	}
	defer rows.Close()

	var out []contracts.MetricSnapshot
	for rows.Next() {
		var (
			zip   string
			value *float64
		)
		if err := rows.Scan(&zip, &value); err != nil {
			return nil, fmt.Errorf("scan tax rate: %w", err)
		}
		out = append(out, contracts.MetricSnapshot{
			SourceKind:   contracts.SourceTaxRate,
			Level:        contracts.GeoLevelZip,
			GeoKey:       zip,
			BedroomClass: contracts.BedroomAny,
			Period:       contracts.YearPeriod(vintage.Year),
			Value:        value,
		})
	}
	return out, rows.Err()
}

// DemandSnapshots returns every metro region's demand reading for one month
func (r *Repository) DemandSnapshots(ctx context.Context, period contracts.PeriodKey) ([]contracts.MetricSnapshot, error) {
	query := `
		SELECT region_id, value::float8
		FROM market.zordi
		WHERE date_trunc('month', month)::date = $1
		ORDER BY region_id
	`

	rows, err := r.pool.Query(ctx, query, period.Time())
	if err != nil {
		return nil, fmt.Errorf("query zordi: %w", err)
	}
	defer rows.Close()

	var out []contracts.MetricSnapshot
	for rows.Next() {
		var (
			region string
			value  *float64
		)
		if err := rows.Scan(&region, &value); err != nil {
			return nil, fmt.Errorf("scan zordi: %w", err)
		}
		out = append(out, contracts.MetricSnapshot{
			SourceKind:   contracts.SourceDemand,
			Level:        contracts.GeoLevelMetro,
			GeoKey:       region,
			BedroomClass: contracts.BedroomAny,
			Period:       period,
			Value:        value,
		})
	}
	return out, rows.Err()
}

// ZipDemandRegions maps each ZIP of state to its demand region
func (r *Repository) ZipDemandRegions(ctx context.Context, state string) (map[string]string, error) {
	query := `
		SELECT m.zip_code, m.region_id
		FROM geo.zip_metro m
		JOIN geo.zip_geography g ON g.zip_code = m.zip_code
		WHERE ($1 = '' OR g.state_code = $1)
	`

	rows, err := r.pool.Query(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("query zip metro: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var zip, region string
		if err := rows.Scan(&zip, &region); err != nil {
			return nil, fmt.Errorf("scan zip metro: %w", err)
		}
		out[zip] = region
	}
	return out, rows.Err()
}
