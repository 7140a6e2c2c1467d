package commands

import (
	"fmt"
	"time"

	"github.com/wonny/yieldmap/internal/brain"
	"github.com/wonny/yieldmap/internal/data/repos"
	"github.com/wonny/yieldmap/internal/s0_data"
	"github.com/wonny/yieldmap/internal/s0_data/vintage"
	"github.com/wonny/yieldmap/internal/scoreconfig"
	"github.com/wonny/yieldmap/pkg/config"
	"github.com/wonny/yieldmap/pkg/database"
	"github.com/wonny/yieldmap/pkg/logger"
	"github.com/wonny/yieldmap/pkg/metrics"
	"github.com/wonny/yieldmap/pkg/redis"
)

// app holds the wired dependencies shared by commands
type app struct {
	cfg     *config.Config
	scoring *scoreconfig.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	metrics *metrics.RunMetrics
}

// newApp loads config, logger, database and Redis
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if scoringConfig != "" {
		cfg.ScoringConfigPath = scoringConfig
	}

	log := logger.New(cfg)

	scoring, _, err := scoreconfig.Load(cfg.ScoringConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rc, err := redis.New(cfg)
	if err != nil {
		// 캐시 없이도 동작함
		log.WithError(err).Warn("Redis unavailable, vintage cache disabled")
		rc = nil
	}

	return &app{
		cfg:     cfg,
		scoring: scoring,
		log:     log,
		db:      db,
		redis:   rc,
		metrics: metrics.New(),
	}, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.db.Close()
}

func (a *app) resolver(source *s0_data.Repository) *vintage.Resolver {
	opts := []vintage.Option{vintage.WithLogger(a.log.Zerolog())}
	if a.redis != nil && a.redis.Enabled() {
		opts = append(opts, vintage.WithCache(redis.NewCache(a.redis, "yieldmap"), a.cfg.VintageCacheTTL))
	}
	return vintage.NewResolver(source, opts...)
}

func (a *app) orchestrator() *brain.Orchestrator {
	source := s0_data.NewRepository(a.db.Pool)

	writer := repos.NewBatchWriter(
		repos.NewPoolExecutor(a.db.Pool),
		repos.WriterConfigFrom(a.scoring),
		a.metrics,
		a.log.Zerolog(),
	)

	pushURL := ""
	if a.cfg.MetricsEnabled {
		pushURL = a.cfg.MetricsPushgateway
	}

	return brain.NewOrchestrator(
		source,
		a.resolver(source),
		repos.NewScoreRepository(writer, a.db.Pool),
		repos.NewYieldMoverRepository(writer, a.db.Pool),
		a.scoring,
		a.metrics,
		pushURL,
		a.log,
	)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
