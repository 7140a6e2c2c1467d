package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/s0_data/quality"
	"github.com/wonny/yieldmap/internal/s0_data/vintage"
	"github.com/wonny/yieldmap/internal/s1_metrics"
	"github.com/wonny/yieldmap/internal/s3_score"
	"github.com/wonny/yieldmap/internal/s4_geo"
	"github.com/wonny/yieldmap/internal/s5_yield"
	"github.com/wonny/yieldmap/internal/scoreconfig"
	"github.com/wonny/yieldmap/pkg/logger"
	"github.com/wonny/yieldmap/pkg/metrics"
)

// Artifact selection for a run
const (
	OnlyAll    = "all"
	OnlyScores = "scores"
	OnlyYield  = "yield"
)

// Stage names, used for logs, metrics and failures
const (
	StageVintage = "S0:Vintage"
	StageLoad    = "S1:Metrics"
	StageScore   = "S3:Score"
	StageRollup  = "S4:Rollup"
	StageYield   = "S5:Yield"
	StageWrite   = "S6:Write"
)

// Orchestrator coordinates one batch pass
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	source   contracts.SourceRepository
	resolver *vintage.Resolver
	scores   contracts.ScoreWriter
	yields   contracts.YieldMoverWriter

	cfg        *scoreconfig.Config
	thresholds quality.Thresholds
	metrics    *metrics.RunMetrics
	pushURL    string

	logger *logger.Logger
}

// NewOrchestrator creates a new orchestrator. runMetrics may be nil.
func NewOrchestrator(
	source contracts.SourceRepository,
	resolver *vintage.Resolver,
	scores contracts.ScoreWriter,
	yields contracts.YieldMoverWriter,
	cfg *scoreconfig.Config,
	runMetrics *metrics.RunMetrics,
	pushURL string,
	logger *logger.Logger,
) *Orchestrator {
	if runMetrics == nil {
		runMetrics = metrics.New()
	}
	return &Orchestrator{
		source:     source,
		resolver:   resolver,
		scores:     scores,
		yields:     yields,
		cfg:        cfg,
		thresholds: quality.DefaultThresholds(),
		metrics:    runMetrics,
		pushURL:    pushURL,
		logger:     logger,
	}
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID  string
	Year   int    // 0 = latest FMR year
	State  string // "" = every state
	Only   string // all, scores, yield
	DryRun bool   // compute and report without writing
}

func (c RunConfig) scores() bool { return c.Only == "" || c.Only == OnlyAll || c.Only == OnlyScores }
func (c RunConfig) yield() bool  { return c.Only == "" || c.Only == OnlyAll || c.Only == OnlyYield }

// Validate checks the run flags
func (c RunConfig) Validate() error {
	switch c.Only {
	case "", OnlyAll, OnlyScores, OnlyYield:
	default:
		return fmt.Errorf("only must be one of all, scores, yield (got %q)", c.Only)
	}
	if c.Year < 0 {
		return fmt.Errorf("year must be >= 0 (got %d)", c.Year)
	}
	return nil
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID      string
	FMRYear    int
	State      string
	ConfigHash string
	ComputedAt time.Time
	Vintages   *vintage.Set

	Scores      []contracts.ScoreRecord
	Rollups     []contracts.ScoreRollup
	YieldMovers []contracts.YieldMoverRecord

	Coverage         []contracts.DataCoverage
	CoverageWarnings []quality.Warning
	UnresolvedCounty int

	Writes []contracts.WriteReport

	CompletedStages []string
	Failures        []string // stages that produced no output
	Error           error
	Duration        time.Duration
}

// ExitOK reports full or partial success. Coverage warnings and individual
// failed write batches do not fail a run; a stage with no output does.
func (r *RunResult) ExitOK() bool {
	return r.Error == nil && len(r.Failures) == 0
}

func (r *RunResult) fail(stage, reason string) {
	r.Failures = append(r.Failures, fmt.Sprintf("%s: %s", stage, reason))
}

// Run executes one pass: S0 → S1 → S3/S4 → S5 → write
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if config.RunID == "" {
		config.RunID = GenerateRunID()
	}
	result := &RunResult{
		RunID:           config.RunID,
		State:           config.State,
		ComputedAt:      startTime.UTC().Truncate(time.Second),
		CompletedStages: make([]string, 0),
	}
	if err := config.Validate(); err != nil {
		result.Error = err
		return result, err
	}

	hash, err := scoreconfig.Hash(o.cfg)
	if err != nil {
		result.Error = fmt.Errorf("hash scoring config: %w", err)
		return result, result.Error
	}
	result.ConfigHash = hash

	log := o.logger.WithRun(config.RunID)
	log.WithFields(map[string]interface{}{
		"year":        config.Year,
		"state":       config.State,
		"only":        config.Only,
		"dry_run":     config.DryRun,
		"config_id":   o.cfg.Meta.ConfigID,
		"config_hash": hash,
	}).Info("Starting pipeline run")

	bedrooms := o.cfg.Geography.Bedrooms()

	// S0: Vintage resolution
	stageStart := time.Now()
	set, err := o.resolver.ResolveRun(ctx, config.Year, bedrooms)
	if err != nil {
		result.Error = fmt.Errorf("%s failed: %w", StageVintage, err)
		return o.finish(ctx, log, result, startTime)
	}
	result.Vintages = set
	result.FMRYear = set.FMRYear
	o.stageDone(result, StageVintage, stageStart)

	// S1: Metric loading
	stageStart = time.Now()
	ds, err := o.load(ctx, set, config.State, bedrooms)
	if err != nil {
		result.Error = fmt.Errorf("%s failed: %w", StageLoad, err)
		return o.finish(ctx, log, result, startTime)
	}
	result.UnresolvedCounty = len(ds.UnresolvedCounty)
	if len(ds.Zips) == 0 {
		result.fail(StageLoad, "no ZIPs loaded")
		return o.finish(ctx, log, result, startTime)
	}
	o.stageDone(result, StageLoad, stageStart)

	coverage := quality.NewCoverageBuilder(bedrooms)
	for _, b := range bedrooms {
		for _, m := range ds.Metrics[b] {
			coverage.AddGeo(b, m.HasRent(), m.HasHomeValueBothPeriods())
		}
	}

	// S2/S3: Percentile ranking + score composition, S4: rollups
	if config.scores() {
		o.runScores(ds, bedrooms, coverage, result)
	}

	// S5: Yield movers
	if config.yield() {
		o.runYield(ds, bedrooms, coverage, result)
	}

	result.Coverage = coverage.Results()
	result.CoverageWarnings = quality.Evaluate(result.Coverage, o.thresholds)
	quality.Report(log.Component("coverage"), result.Coverage, result.CoverageWarnings)
	for _, c := range result.Coverage {
		b := int(c.BedroomClass)
		o.metrics.SetCoverage(b, "total", c.TotalGeos)
		o.metrics.SetCoverage(b, "with_rent", c.GeosWithRent)
		o.metrics.SetCoverage(b, "with_home_value_both", c.GeosWithHomeValueBothPeriods)
		o.metrics.SetCoverage(b, "used", c.GeosUsed)
		o.metrics.SetCoverage(b, "scored", c.GeosScored)
	}

	// S6: Write (skip if dry run)
	if !config.DryRun {
		stageStart = time.Now()
		o.write(ctx, config, result)
		o.stageDone(result, StageWrite, stageStart)
	} else {
		log.Info("Skipping S6:Write (dry run mode)")
	}

	return o.finish(ctx, log, result, startTime)
}

func (o *Orchestrator) load(ctx context.Context, set *vintage.Set, state string, bedrooms []contracts.BedroomClass) (*s1_metrics.Dataset, error) {
	mappings, err := o.source.CountyFIPSMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("county mappings: %w", err)
	}
	canon := s4_geo.NewCanonicalizer(mappings)

	loader := s1_metrics.NewLoader(o.source, canon, o.cfg.Loading.Parallelism, o.logger.Zerolog())
	return loader.Load(ctx, set, state, bedrooms)
}

func (o *Orchestrator) runScores(ds *s1_metrics.Dataset, bedrooms []contracts.BedroomClass, coverage *quality.CoverageBuilder, result *RunResult) {
	stageStart := time.Now()
	composer := s3_score.NewComposer(s3_score.ParamsFrom(o.cfg), o.logger.Zerolog())
	for _, b := range bedrooms {
		records := composer.Compose(ds, b, result.ComputedAt)
		sufficient := 0
		for _, r := range records {
			if r.DataSufficient {
				sufficient++
			}
		}
		coverage.AddScored(b, sufficient)
		result.Scores = append(result.Scores, records...)
	}
	o.metrics.AddComputed("scores", len(result.Scores))
	if len(result.Scores) == 0 {
		result.fail(StageScore, "no score records")
		return
	}
	o.stageDone(result, StageScore, stageStart)

	stageStart = time.Now()
	aggregator := s4_geo.NewAggregator(o.cfg.Geography.AllowSet(), o.logger.Zerolog())
	for _, b := range bedrooms {
		var records []contracts.ScoreRecord
		for _, r := range result.Scores {
			if r.BedroomClass == b {
				records = append(records, r)
			}
		}
		result.Rollups = append(result.Rollups, aggregator.Aggregate(records, result.ComputedAt)...)
	}
	o.metrics.AddComputed("rollups", len(result.Rollups))
	// 롤업이 없어도 실패는 아님 (예: 허용 목록 밖의 주만 실행)
	o.stageDone(result, StageRollup, stageStart)
}

func (o *Orchestrator) runYield(ds *s1_metrics.Dataset, bedrooms []contracts.BedroomClass, coverage *quality.CoverageBuilder, result *RunResult) {
	stageStart := time.Now()
	calc := s5_yield.NewCalculator(o.cfg.Geography.AllowSet(), o.logger.Zerolog())
	for _, b := range bedrooms {
		records := calc.Calculate(ds, b, result.ComputedAt)
		coverage.AddUsed(b, s5_yield.UsedZips(records))
		result.YieldMovers = append(result.YieldMovers, records...)
	}
	o.metrics.AddComputed("yield_movers", len(result.YieldMovers))
	if len(result.YieldMovers) == 0 {
		result.fail(StageYield, "no ZIP has all four yield inputs")
		return
	}
	o.stageDone(result, StageYield, stageStart)
}

func (o *Orchestrator) write(ctx context.Context, config RunConfig, result *RunResult) {
	record := func(report contracts.WriteReport) {
		result.Writes = append(result.Writes, report)
		if report.NothingWritten() {
			result.fail(StageWrite, fmt.Sprintf("no rows written to %s", report.Table))
		}
	}

	if config.scores() && len(result.Scores) > 0 {
		record(o.scores.UpsertScores(ctx, result.Scores))
		if len(result.Rollups) > 0 {
			record(o.scores.UpsertRollups(ctx, result.Rollups))
		}
	}
	if config.yield() && len(result.YieldMovers) > 0 {
		record(o.yields.UpsertYieldMovers(ctx, result.YieldMovers))
	}
}

func (o *Orchestrator) stageDone(result *RunResult, stage string, start time.Time) {
	o.metrics.ObserveStage(stage, time.Since(start))
	result.CompletedStages = append(result.CompletedStages, stage)
}

func (o *Orchestrator) finish(ctx context.Context, log *logger.Logger, result *RunResult, startTime time.Time) (*RunResult, error) {
	result.Duration = time.Since(startTime)

	if result.ExitOK() {
		o.metrics.MarkSuccess(time.Now())
	}
	if o.pushURL != "" {
		if err := o.metrics.Push(ctx, o.pushURL, "yieldmap_score_pipeline"); err != nil {
			log.WithError(err).Warn("metrics push failed")
		}
	}

	fields := map[string]interface{}{
		"fmr_year":     result.FMRYear,
		"duration":     result.Duration.Seconds(),
		"stages":       len(result.CompletedStages),
		"scores":       len(result.Scores),
		"rollups":      len(result.Rollups),
		"yield_movers": len(result.YieldMovers),
	}
	for _, w := range result.Writes {
		if len(w.FailedBatches) > 0 || w.Aborted {
			log.WithFields(map[string]interface{}{
				"table":          w.Table,
				"rows_written":   w.RowsWritten,
				"rows":           w.Rows,
				"failed_batches": len(w.FailedBatches),
				"aborted":        w.Aborted,
			}).Warn("Partial write")
		}
	}

	switch {
	case result.Error != nil:
		log.WithFields(fields).WithError(result.Error).Error("Pipeline run failed")
		return result, result.Error
	case len(result.Failures) > 0:
		fields["failures"] = result.Failures
		log.WithFields(fields).Error("Pipeline run produced no output for some stages")
	default:
		log.WithFields(fields).Info("Pipeline run completed successfully")
	}
	return result, nil
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s_%s", time.Now().UTC().Format("20060102_150405"), uuid.NewString()[:8])
}
