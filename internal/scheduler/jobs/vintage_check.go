package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/s0_data/vintage"
	"github.com/wonny/yieldmap/pkg/logger"
)

// VintageCheckJob logs the vintages the next pass would use, so a source
// that stopped refreshing shows up before the nightly run.
type VintageCheckJob struct {
	resolver *vintage.Resolver
	bedrooms []contracts.BedroomClass
	logger   *logger.Logger
}

// NewVintageCheckJob creates a new vintage check job
func NewVintageCheckJob(resolver *vintage.Resolver, bedrooms []contracts.BedroomClass, log *logger.Logger) *VintageCheckJob {
	return &VintageCheckJob{
		resolver: resolver,
		bedrooms: bedrooms,
		logger:   log,
	}
}

// Name returns the job name
func (j *VintageCheckJob) Name() string {
	return "vintage_check"
}

// Schedule returns the cron schedule (every 6 hours)
func (j *VintageCheckJob) Schedule() string {
	return "0 30 */6 * * *"
}

// Run resolves the latest vintages
func (j *VintageCheckJob) Run(ctx context.Context) error {
	set, err := j.resolver.ResolveRun(ctx, 0, j.bedrooms)
	if err != nil {
		return fmt.Errorf("resolve vintages: %w", err)
	}

	fields := map[string]interface{}{
		"fmr_year": set.FMRYear,
		"missing":  set.Missing,
	}
	if len(set.Missing) > 0 {
		j.logger.WithFields(fields).Warn("Some sources have no vintage")
		return nil
	}
	j.logger.WithFields(fields).Info("Vintages available")
	return nil
}
