package repos

import (
	"context"
	"fmt"

	"github.com/wonny/yieldmap/internal/contracts"
)

// YieldMoverRepository writes and reads yield movers
type YieldMoverRepository struct {
	writer *BatchWriter
	db     Querier
}

// NewYieldMoverRepository creates a new repository
func NewYieldMoverRepository(writer *BatchWriter, db Querier) *YieldMoverRepository {
	return &YieldMoverRepository{writer: writer, db: db}
}

var _ contracts.YieldMoverWriter = (*YieldMoverRepository)(nil)

// UpsertYieldMovers implements contracts.YieldMoverWriter
func (r *YieldMoverRepository) UpsertYieldMovers(ctx context.Context, records []contracts.YieldMoverRecord) contracts.WriteReport {
	keys := make([]string, len(records))
	rows := make([][]any, len(records))
	for i, rec := range records {
		keys[i] = rec.Key()
		rows[i] = []any{
			string(rec.Level), rec.GeoKey, rec.StateCode, rec.DisplayName,
			int(rec.BedroomClass), rec.FMRYear,
			rec.FMRCurr, rec.FMRPrev, rec.FMRYoYPct,
			rec.HomeValueCurr, rec.HomeValuePrev, rec.HomeValueYoYPct,
			rec.YieldCurr, rec.YieldPrior, rec.YieldDeltaPp, rec.DivergencePp,
			rec.ConstituentZipCount, rec.HomeValueVintage, rec.ComputedAt,
		}
	}
	return r.writer.Write(ctx, YieldMoversTable, keys, rows)
}

// Yield mover sort columns
var yieldSorts = map[string]string{
	"divergence":  "divergence_pp",
	"yield_delta": "yield_delta_pp",
	"yield":       "yield_curr",
}

// YieldMoverFilter selects stored yield movers. Zero values mean "any".
type YieldMoverFilter struct {
	Level   contracts.GeoLevel
	State   string
	Bedroom *contracts.BedroomClass
	Year    int
	SortBy  string // divergence (default), yield_delta, yield
	Asc     bool
	Limit   int
	Offset  int
}

// YieldMoverQuery builds the SELECT for f
func YieldMoverQuery(f YieldMoverFilter) (string, []any, error) {
	sortCol := "divergence_pp"
	if f.SortBy != "" {
		col, ok := yieldSorts[f.SortBy]
		if !ok {
			return "", nil, fmt.Errorf("unknown sort %q", f.SortBy)
		}
		sortCol = col
	}

	b := YieldMoversTable.Select()
	if f.Level != "" {
		b.Where("geo_level", OpEq, string(f.Level))
	}
	if f.State != "" {
		b.Where("state_code", OpEq, f.State)
	}
	if f.Bedroom != nil {
		b.Where("bedroom_class", OpEq, int(*f.Bedroom))
	}
	if f.Year != 0 {
		b.Where("fmr_year", OpEq, f.Year)
	}
	return b.OrderBy(sortCol, !f.Asc).Page(f.Limit, f.Offset).Build()
}

// ListYieldMovers returns stored yield movers
func (r *YieldMoverRepository) ListYieldMovers(ctx context.Context, f YieldMoverFilter) ([]contracts.YieldMoverRecord, error) {
	sql, args, err := YieldMoverQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query yield movers: %w", err)
	}
	defer rows.Close()

	var out []contracts.YieldMoverRecord
	for rows.Next() {
		var (
			rec     contracts.YieldMoverRecord
			level   string
			bedroom int
		)
		if err := rows.Scan(
			&level, &rec.GeoKey, &rec.StateCode, &rec.DisplayName,
			&bedroom, &rec.FMRYear,
			&rec.FMRCurr, &rec.FMRPrev, &rec.FMRYoYPct,
			&rec.HomeValueCurr, &rec.HomeValuePrev, &rec.HomeValueYoYPct,
			&rec.YieldCurr, &rec.YieldPrior, &rec.YieldDeltaPp, &rec.DivergencePp,
			&rec.ConstituentZipCount, &rec.HomeValueVintage, &rec.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("scan yield mover: %w", err)
		}
		rec.Level = contracts.GeoLevel(level)
		rec.BedroomClass = contracts.BedroomClass(bedroom)
		out = append(out, rec)
	}
	return out, rows.Err()
}
