package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/yieldmap/internal/contracts"
)

var _ contracts.VintageSource = (*Repository)(nil)

// 유효값: NULL, NaN, 0 이하 제외
const (
	rentLatestQuery = `
		SELECT MAX(fmr_year) FROM (
			SELECT fmr_year FROM rent.safmr
			WHERE rent > 0 AND rent <> 'NaN' AND ($1 < 0 OR bedroom_count = $1)
			UNION ALL
			SELECT fmr_year FROM rent.fmr_county
			WHERE rent > 0 AND rent <> 'NaN' AND ($1 < 0 OR bedroom_count = $1)
		) t
		WHERE ($2 = 0 OR fmr_year <= $2)
	`
	taxLatestQuery = `
		SELECT MAX(vintage_year) FROM tax.effective_rates
		WHERE effective_rate > 0 AND effective_rate <> 'NaN'
		  AND ($1 = 0 OR vintage_year <= $1)
	`
	homeValueLatestQuery = `
		SELECT MAX(date_trunc('month', month))::date FROM market.zhvi
		WHERE value > 0 AND value <> 'NaN'
		  AND ($1 < 0 OR bedroom_count = $1)
		  AND ($2::date IS NULL OR month < $2::date)
	`
	demandLatestQuery = `
		SELECT MAX(date_trunc('month', month))::date FROM market.zordi
		WHERE value > 0 AND value <> 'NaN'
		  AND ($1::date IS NULL OR month < $1::date)
	`
)

// LatestPeriod returns the most recent period for which source has any
// valid value at or before ceiling (zero ceiling = unbounded).
// found is false when the source has no usable data at all.
func (r *Repository) LatestPeriod(ctx context.Context, source contracts.SourceKind, bedroom contracts.BedroomClass, ceiling contracts.PeriodKey) (contracts.PeriodKey, bool, error) {
	switch source {
	case contracts.SourceRent, contracts.SourceTaxRate:
		query, args := rentLatestQuery, []any{int(bedroom), ceiling.Year}
		if source == contracts.SourceTaxRate {
			query, args = taxLatestQuery, []any{ceiling.Year}
		}

		var year *int
		if err := r.pool.QueryRow(ctx, query, args...).Scan(&year); err != nil {
			return contracts.PeriodKey{}, false, fmt.Errorf("latest %s vintage: %w", source, err)
		}
		if year == nil {
			return contracts.PeriodKey{}, false, nil
		}
		return contracts.YearPeriod(*year), true, nil

	case contracts.SourceHomeValue, contracts.SourceDemand:
		query, args := homeValueLatestQuery, []any{int(bedroom), ceilingEnd(ceiling)}
		if source == contracts.SourceDemand {
			query, args = demandLatestQuery, []any{ceilingEnd(ceiling)}
		}

		var month *time.Time
		if err := r.pool.QueryRow(ctx, query, args...).Scan(&month); err != nil {
			return contracts.PeriodKey{}, false, fmt.Errorf("latest %s vintage: %w", source, err)
		}
		if month == nil {
			return contracts.PeriodKey{}, false, nil
		}
		return contracts.MonthPeriod(*month), true, nil

	default:
		return contracts.PeriodKey{}, false, fmt.Errorf("unknown source %q", source)
	}
}

// ceilingEnd returns the exclusive upper bound for a monthly source:
// the first day after the ceiling period, nil when unbounded.
func ceilingEnd(ceiling contracts.PeriodKey) *time.Time {
	if ceiling.IsZero() {
		return nil
	}

	var end time.Time
	if ceiling.IsAnnual() {
		end = time.Date(ceiling.Year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	} else {
		end = ceiling.Time().AddDate(0, 1, 0)
	}
	return &end
}
