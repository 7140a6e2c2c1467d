package brain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/s0_data"
	"github.com/wonny/yieldmap/internal/s0_data/vintage"
	"github.com/wonny/yieldmap/internal/scoreconfig"
	"github.com/wonny/yieldmap/pkg/logger"
)

type fakeWriters struct {
	scores  []contracts.ScoreRecord
	rollups []contracts.ScoreRollup
	yields  []contracts.YieldMoverRecord
	fail    bool
}

func (w *fakeWriters) report(table string, n int) contracts.WriteReport {
	r := contracts.WriteReport{Table: table, Rows: n, Batches: 1}
	if w.fail {
		r.FailedBatches = []contracts.FailedRange{{Rows: n, Err: "write attempts exhausted"}}
		return r
	}
	r.RowsWritten = n
	return r
}

func (w *fakeWriters) UpsertScores(_ context.Context, records []contracts.ScoreRecord) contracts.WriteReport {
	w.scores = append(w.scores, records...)
	return w.report("scores", len(records))
}

func (w *fakeWriters) UpsertRollups(_ context.Context, rollups []contracts.ScoreRollup) contracts.WriteReport {
	w.rollups = append(w.rollups, rollups...)
	return w.report("rollups", len(rollups))
}

func (w *fakeWriters) UpsertYieldMovers(_ context.Context, records []contracts.YieldMoverRecord) contracts.WriteReport {
	w.yields = append(w.yields, records...)
	return w.report("yield_movers", len(records))
}

func f(v float64) *float64 { return &v }

func snap(kind contracts.SourceKind, level contracts.GeoLevel, key string, bedroom int, p contracts.PeriodKey, v float64) contracts.MetricSnapshot {
	return contracts.MetricSnapshot{
		SourceKind: kind, Level: level, GeoKey: key,
		BedroomClass: contracts.BedroomClass(bedroom), Period: p, Value: f(v),
	}
}

// Three Texas ZIPs in two counties plus one Puerto Rico ZIP, all complete
// for bedroom class 2.
func fixture() *s0_data.MemoryRepository {
	zips := []contracts.ZipGeo{
		{ZipCode: "78701", StateCode: "TX", CityName: "Austin", CountyName: "Travis County", CountyFIPS: "48453"},
		{ZipCode: "78702", StateCode: "TX", CityName: "Austin", CountyName: "Travis County", CountyFIPS: "48453"},
		{ZipCode: "75001", StateCode: "TX", CityName: "Addison", CountyName: "Dallas County", CountyFIPS: "48113"},
		{ZipCode: "00601", StateCode: "PR", CityName: "Adjuntas", CountyName: "Adjuntas Municipio", CountyFIPS: "72001"},
	}

	repo := &s0_data.MemoryRepository{
		Zips:     zips,
		ZipMetro: map[string]string{"78701": "394355", "78702": "394355", "75001": "394514"},
	}
	y25, y24 := contracts.YearPeriod(2025), contracts.YearPeriod(2024)
	dec25, dec24 := contracts.PeriodKey{Year: 2025, Month: 12}, contracts.PeriodKey{Year: 2024, Month: 12}

	for i, z := range zips {
		step := float64(i) * 100
		repo.Rent = append(repo.Rent,
			snap(contracts.SourceRent, contracts.GeoLevelZip, z.ZipCode, 2, y25, 1800+step),
			snap(contracts.SourceRent, contracts.GeoLevelZip, z.ZipCode, 2, y24, 1700+step),
		)
		repo.HomeValue = append(repo.HomeValue,
			snap(contracts.SourceHomeValue, contracts.GeoLevelZip, z.ZipCode, 2, dec25, 400000+step*1000),
			snap(contracts.SourceHomeValue, contracts.GeoLevelZip, z.ZipCode, 2, dec24, 380000+step*1000),
		)
		repo.Tax = append(repo.Tax,
			snap(contracts.SourceTaxRate, contracts.GeoLevelZip, z.ZipCode, -1, y25, 0.018),
		)
	}
	for i := range repo.Rent {
		repo.Rent[i].Provenance = contracts.ProvenanceSAFMR
	}
	repo.Demand = []contracts.MetricSnapshot{
		snap(contracts.SourceDemand, contracts.GeoLevelMetro, "394355", -1, contracts.PeriodKey{Year: 2025, Month: 9}, 80),
		snap(contracts.SourceDemand, contracts.GeoLevelMetro, "394514", -1, contracts.PeriodKey{Year: 2025, Month: 9}, 60),
	}
	return repo
}

func newTestOrchestrator(repo *s0_data.MemoryRepository, w *fakeWriters) *Orchestrator {
	cfg := scoreconfig.Default()
	cfg.Geography.BedroomClasses = []int{2}
	return NewOrchestrator(repo, vintage.NewResolver(repo), w, w, cfg, nil, "", logger.Nop())
}

func countLevel[T any](items []T, level contracts.GeoLevel, levelOf func(T) contracts.GeoLevel) int {
	n := 0
	for _, it := range items {
		if levelOf(it) == level {
			n++
		}
	}
	return n
}

func TestRun_FullPass(t *testing.T) {
	w := &fakeWriters{}
	o := newTestOrchestrator(fixture(), w)

	result, err := o.Run(context.Background(), RunConfig{RunID: "test"})
	require.NoError(t, err)

	assert.True(t, result.ExitOK())
	assert.Equal(t, 2025, result.FMRYear)
	assert.NotEmpty(t, result.ConfigHash)
	assert.Equal(t, []string{StageVintage, StageLoad, StageScore, StageRollup, StageYield, StageWrite}, result.CompletedStages)

	require.Len(t, result.Scores, 4)
	for _, s := range result.Scores {
		assert.True(t, s.DataSufficient, s.ZipCode)
		assert.Equal(t, "2025-12", s.HomeValueVintage)
		assert.Equal(t, "2025", s.TaxVintage)
		assert.Equal(t, result.ComputedAt, s.ComputedAt)
	}

	// PR is outside the rollup allow-list
	rollupLevel := func(r contracts.ScoreRollup) contracts.GeoLevel { return r.Level }
	assert.Equal(t, 2, countLevel(result.Rollups, contracts.GeoLevelCity, rollupLevel))
	assert.Equal(t, 2, countLevel(result.Rollups, contracts.GeoLevelCounty, rollupLevel))
	assert.Equal(t, 1, countLevel(result.Rollups, contracts.GeoLevelState, rollupLevel))

	yieldLevel := func(r contracts.YieldMoverRecord) contracts.GeoLevel { return r.Level }
	assert.Equal(t, 4, countLevel(result.YieldMovers, contracts.GeoLevelZip, yieldLevel))
	assert.Equal(t, 2, countLevel(result.YieldMovers, contracts.GeoLevelCity, yieldLevel))
	assert.Equal(t, 2, countLevel(result.YieldMovers, contracts.GeoLevelCounty, yieldLevel))

	require.Len(t, result.Coverage, 1)
	assert.Equal(t, contracts.DataCoverage{
		BedroomClass:                 2,
		TotalGeos:                    4,
		GeosWithRent:                 4,
		GeosWithHomeValueBothPeriods: 4,
		GeosUsed:                     4,
		GeosScored:                   4,
	}, result.Coverage[0])
	assert.Empty(t, result.CoverageWarnings)

	assert.Len(t, w.scores, 4)
	assert.Len(t, w.rollups, 5)
	assert.Len(t, w.yields, 8)
	assert.Len(t, result.Writes, 3)
}

func TestRun_StateFilter(t *testing.T) {
	w := &fakeWriters{}
	o := newTestOrchestrator(fixture(), w)

	result, err := o.Run(context.Background(), RunConfig{State: "TX", DryRun: true})
	require.NoError(t, err)

	assert.Len(t, result.Scores, 3)
	for _, s := range result.Scores {
		assert.Equal(t, "TX", s.StateCode)
	}
}

func TestRun_DemandOnlyMovesAdjustedScore(t *testing.T) {
	withDemand, err := newTestOrchestrator(fixture(), &fakeWriters{}).Run(context.Background(), RunConfig{DryRun: true})
	require.NoError(t, err)

	repo := fixture()
	repo.Demand = nil
	withoutDemand, err := newTestOrchestrator(repo, &fakeWriters{}).Run(context.Background(), RunConfig{DryRun: true})
	require.NoError(t, err)

	require.Len(t, withoutDemand.Scores, len(withDemand.Scores))
	for i := range withDemand.Scores {
		a, b := withDemand.Scores[i], withoutDemand.Scores[i]
		assert.Equal(t, *a.BaseScore, *b.BaseScore, a.ZipCode)
		assert.Equal(t, 1.0, b.DemandMultiplier)
		assert.Nil(t, b.DemandScore)
	}
	assert.Contains(t, withoutDemand.Vintages.Missing, string(contracts.SourceDemand))
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	w := &fakeWriters{}
	o := newTestOrchestrator(fixture(), w)

	result, err := o.Run(context.Background(), RunConfig{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.ExitOK())
	assert.NotEmpty(t, result.Scores)
	assert.Empty(t, result.Writes)
	assert.Empty(t, w.scores)
	assert.Empty(t, w.yields)
	assert.NotContains(t, result.CompletedStages, StageWrite)
}

func TestRun_OnlyYield(t *testing.T) {
	w := &fakeWriters{}
	o := newTestOrchestrator(fixture(), w)

	result, err := o.Run(context.Background(), RunConfig{Only: OnlyYield})
	require.NoError(t, err)

	assert.True(t, result.ExitOK())
	assert.Empty(t, result.Scores)
	assert.Empty(t, w.scores)
	assert.Len(t, w.yields, 8)
	assert.Zero(t, result.Coverage[0].GeosScored)
	assert.Equal(t, 4, result.Coverage[0].GeosUsed)
}

func TestRun_NoRentVintageFails(t *testing.T) {
	repo := fixture()
	repo.Rent = nil
	o := newTestOrchestrator(repo, &fakeWriters{})

	result, err := o.Run(context.Background(), RunConfig{})

	require.Error(t, err)
	assert.ErrorIs(t, err, vintage.ErrNoVintage)
	assert.False(t, result.ExitOK())
	assert.Empty(t, result.CompletedStages)
}

func TestRun_ExplicitYearWithoutData(t *testing.T) {
	o := newTestOrchestrator(fixture(), &fakeWriters{})

	_, err := o.Run(context.Background(), RunConfig{Year: 2019})

	assert.ErrorIs(t, err, vintage.ErrNoVintage)
}

func TestRun_AllWritesFailedIsNotOK(t *testing.T) {
	w := &fakeWriters{fail: true}
	o := newTestOrchestrator(fixture(), w)

	result, err := o.Run(context.Background(), RunConfig{})

	require.NoError(t, err)
	assert.False(t, result.ExitOK())
	assert.Len(t, result.Failures, 3)
}

func TestRun_MissingHomeValueStillScoresInsufficient(t *testing.T) {
	repo := fixture()
	repo.HomeValue = nil
	w := &fakeWriters{}
	o := newTestOrchestrator(repo, w)

	result, err := o.Run(context.Background(), RunConfig{})
	require.NoError(t, err)

	require.Len(t, result.Scores, 4)
	for _, s := range result.Scores {
		assert.False(t, s.DataSufficient)
		assert.Nil(t, s.AdjustedScore)
	}
	// no sufficient members, no rollups; no yield inputs, no movers
	assert.Empty(t, result.Rollups)
	assert.Empty(t, result.YieldMovers)
	assert.False(t, result.ExitOK())
	assert.Contains(t, result.Failures[0], StageYield)
	assert.NotEmpty(t, result.CoverageWarnings)
}

func TestRunConfig_Validate(t *testing.T) {
	assert.NoError(t, RunConfig{}.Validate())
	assert.NoError(t, RunConfig{Only: OnlyScores, Year: 2025}.Validate())
	assert.Error(t, RunConfig{Only: "everything"}.Validate())
	assert.Error(t, RunConfig{Year: -1}.Validate())
}

func TestGenerateRunID(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^run_\d{8}_\d{6}_[0-9a-f]{8}$`, a)
}
