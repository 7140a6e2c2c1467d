package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/yieldmap/internal/contracts"
)

// Querier is the read side of pgxpool.Pool
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ScoreRepository writes and reads investment scores and their rollups
// ⭐ SSOT: 투자 점수 저장/조회는 여기서만
type ScoreRepository struct {
	writer *BatchWriter
	db     Querier
}

// NewScoreRepository creates a new repository; either side may be nil
// when only reads or only writes are needed.
func NewScoreRepository(writer *BatchWriter, db Querier) *ScoreRepository {
	return &ScoreRepository{writer: writer, db: db}
}

var _ contracts.ScoreWriter = (*ScoreRepository)(nil)

// UpsertScores implements contracts.ScoreWriter
func (r *ScoreRepository) UpsertScores(ctx context.Context, records []contracts.ScoreRecord) contracts.WriteReport {
	keys := make([]string, len(records))
	rows := make([][]any, len(records))
	for i, rec := range records {
		keys[i] = rec.Key()
		rows[i] = []any{
			rec.ZipCode, rec.StateCode, rec.CityName, rec.CountyName, rec.CountyFIPS,
			int(rec.BedroomClass), rec.FMRYear, rec.RentSource,
			rec.MonthlyRent, rec.TaxRate, rec.AnnualRent, rec.AnnualTaxes, rec.PropertyValue,
			rec.NetYield, rec.RentToPriceRatio, rec.BaseScore,
			rec.DemandScore, rec.DemandMultiplier, rec.AdjustedScore, rec.DataSufficient,
			rec.HomeValueVintage, rec.TaxVintage, rec.DemandVintage, rec.ComputedAt,
		}
	}
	return r.writer.Write(ctx, ScoresTable, keys, rows)
}

// UpsertRollups implements contracts.ScoreWriter
func (r *ScoreRepository) UpsertRollups(ctx context.Context, rollups []contracts.ScoreRollup) contracts.WriteReport {
	keys := make([]string, len(rollups))
	rows := make([][]any, len(rollups))
	for i, ro := range rollups {
		keys[i] = ro.Key()
		rows[i] = []any{
			string(ro.Level), ro.GeoKey, ro.StateCode, ro.DisplayName,
			int(ro.BedroomClass), ro.FMRYear, ro.ZipCount, ro.TotalZipCount,
			ro.MedianScore, ro.MeanScore, ro.ScoreStdDev,
			ro.MedianNetYield, ro.MeanNetYield,
			ro.MedianPropertyValue, ro.MeanPropertyValue,
			ro.MedianAnnualRent, ro.MeanAnnualRent,
			ro.HomeValueVintage, ro.TaxVintage, ro.ComputedAt,
		}
	}
	return r.writer.Write(ctx, RollupsTable, keys, rows)
}

// ScoreFilter selects stored ScoreRecords. Zero values mean "any".
type ScoreFilter struct {
	ZipCode        string
	State          string
	Bedroom        *contracts.BedroomClass
	Year           int
	SufficientOnly bool
	LatestOnly     bool // newest stored home-value and tax vintage only
	Limit          int
	Offset         int
}

// ScoreQuery builds the SELECT for f
func ScoreQuery(f ScoreFilter) (string, []any, error) {
	b := ScoresTable.Select()
	if f.ZipCode != "" {
		b.Where("zip_code", OpEq, f.ZipCode)
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
	if f.SufficientOnly {
		b.Where("data_sufficient", OpEq, true)
	}
	if f.LatestOnly {
		b.WhereLatest("home_value_vintage").WhereLatest("tax_vintage")
	}
	return b.OrderBy("adjusted_score", true).Page(f.Limit, f.Offset).Build()
}

// ListScores returns stored records ordered by adjusted score
func (r *ScoreRepository) ListScores(ctx context.Context, f ScoreFilter) ([]contracts.ScoreRecord, error) {
	sql, args, err := ScoreQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []contracts.ScoreRecord
	for rows.Next() {
		var (
			rec     contracts.ScoreRecord
			bedroom int
		)
		if err := rows.Scan(
			&rec.ZipCode, &rec.StateCode, &rec.CityName, &rec.CountyName, &rec.CountyFIPS,
			&bedroom, &rec.FMRYear, &rec.RentSource,
			&rec.MonthlyRent, &rec.TaxRate, &rec.AnnualRent, &rec.AnnualTaxes, &rec.PropertyValue,
			&rec.NetYield, &rec.RentToPriceRatio, &rec.BaseScore,
			&rec.DemandScore, &rec.DemandMultiplier, &rec.AdjustedScore, &rec.DataSufficient,
			&rec.HomeValueVintage, &rec.TaxVintage, &rec.DemandVintage, &rec.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		rec.BedroomClass = contracts.BedroomClass(bedroom)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RollupFilter selects stored rollups. Zero values mean "any".
type RollupFilter struct {
	Level      contracts.GeoLevel
	GeoKey     string
	State      string
	Bedroom    *contracts.BedroomClass
	Year       int
	LatestOnly bool
	Limit      int
	Offset     int
}

// RollupQuery builds the SELECT for f
func RollupQuery(f RollupFilter) (string, []any, error) {
	b := RollupsTable.Select()
	if f.Level != "" {
		b.Where("geo_level", OpEq, string(f.Level))
	}
	if f.GeoKey != "" {
		b.Where("geo_key", OpEq, f.GeoKey)
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
	if f.LatestOnly {
		b.WhereLatest("home_value_vintage").WhereLatest("tax_vintage")
	}
	return b.OrderBy("median_score", true).Page(f.Limit, f.Offset).Build()
}

// ListRollups returns stored rollups ordered by median score
func (r *ScoreRepository) ListRollups(ctx context.Context, f RollupFilter) ([]contracts.ScoreRollup, error) {
	sql, args, err := RollupQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query rollups: %w", err)
	}
	defer rows.Close()

	var out []contracts.ScoreRollup
	for rows.Next() {
		var (
			ro      contracts.ScoreRollup
			level   string
			bedroom int
		)
		if err := rows.Scan(
			&level, &ro.GeoKey, &ro.StateCode, &ro.DisplayName,
			&bedroom, &ro.FMRYear, &ro.ZipCount, &ro.TotalZipCount,
			&ro.MedianScore, &ro.MeanScore, &ro.ScoreStdDev,
			&ro.MedianNetYield, &ro.MeanNetYield,
			&ro.MedianPropertyValue, &ro.MeanPropertyValue,
			&ro.MedianAnnualRent, &ro.MeanAnnualRent,
			&ro.HomeValueVintage, &ro.TaxVintage, &ro.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rollup: %w", err)
		}
		ro.Level = contracts.GeoLevel(level)
		ro.BedroomClass = contracts.BedroomClass(bedroom)
		out = append(out, ro)
	}
	return out, rows.Err()
}
