package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/yieldmap/internal/brain"
	"github.com/wonny/yieldmap/pkg/logger"
)

// Runner runs one pipeline pass (brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// ScorePipelineJob recomputes scores and yield movers for the latest FMR year
// ⭐ SSOT: 점수 배치 스케줄은 이 Job에서만
type ScorePipelineJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger
}

// NewScorePipelineJob creates a new score pipeline job
func NewScorePipelineJob(runner Runner, schedule string, log *logger.Logger) *ScorePipelineJob {
	if schedule == "" {
		schedule = "0 0 3 * * *"
	}
	return &ScorePipelineJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScorePipelineJob) Name() string {
	return "score_pipeline"
}

// Schedule returns the cron schedule (daily at 03:00 UTC by default)
func (j *ScorePipelineJob) Schedule() string {
	return j.schedule
}

// Run executes one full pass over every state
func (j *ScorePipelineJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled score pipeline")

	result, err := j.runner.Run(ctx, brain.RunConfig{Only: brain.OnlyAll})
	if err != nil {
		return fmt.Errorf("score pipeline: %w", err)
	}
	if !result.ExitOK() {
		return fmt.Errorf("score pipeline run %s: %w", result.RunID, errors.New(strings.Join(result.Failures, "; ")))
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"fmr_year":     result.FMRYear,
		"scores":       len(result.Scores),
		"rollups":      len(result.Rollups),
		"yield_movers": len(result.YieldMovers),
		"warnings":     len(result.CoverageWarnings),
	}).Info("Score pipeline completed")

	return nil
}
