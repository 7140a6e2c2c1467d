package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/scoreconfig"
)

// ErrWriteExhausted marks a batch that failed every attempt
var ErrWriteExhausted = errors.New("write attempts exhausted")

// Executor writes one batch of rows atomically
type Executor interface {
	ExecBatch(ctx context.Context, sql string, rows [][]any) error
}

// PoolExecutor sends each batch as a pgx.Batch inside one transaction
type PoolExecutor struct {
	pool *pgxpool.Pool
}

// NewPoolExecutor creates a new executor
func NewPoolExecutor(pool *pgxpool.Pool) *PoolExecutor {
	return &PoolExecutor{pool: pool}
}

// ExecBatch implements Executor
func (e *PoolExecutor) ExecBatch(ctx context.Context, sql string, rows [][]any) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(sql, args...)
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// Observer receives write counters (pkg/metrics.RunMetrics)
type Observer interface {
	AddWritten(table string, n int)
	IncRetry(table string)
	IncBatchFailed(table string)
}

type nopObserver struct{}

func (nopObserver) AddWritten(string, int) {}
func (nopObserver) IncRetry(string)        {}
func (nopObserver) IncBatchFailed(string)  {}

// WriterConfig bounds batch size, retries and pacing
type WriterConfig struct {
	BatchSize        int
	MaxAttempts      int
	InitialBackoff   time.Duration
	BatchesPerSecond float64 // 0 = unlimited
}

// WriterConfigFrom extracts the output settings from the run config
func WriterConfigFrom(cfg *scoreconfig.Config) WriterConfig {
	return WriterConfig{
		BatchSize:        cfg.Output.BatchSize,
		MaxAttempts:      cfg.Output.MaxAttempts,
		InitialBackoff:   cfg.Output.InitialBackoff,
		BatchesPerSecond: cfg.Output.BatchesPerSecond,
	}
}

// BatchWriter upserts rows in bounded batches. A failing batch is retried
// with exponential backoff, then reported as a failed key range while the
// remaining batches continue. Cancellation stops between batches.
// ⭐ SSOT: 출력 쓰기는 여기서만
type BatchWriter struct {
	exec     Executor
	cfg      WriterConfig
	limiter  *rate.Limiter
	observer Observer
	logger   zerolog.Logger
}

// NewBatchWriter creates a new writer; observer may be nil
func NewBatchWriter(exec Executor, cfg WriterConfig, observer Observer, logger zerolog.Logger) *BatchWriter {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 500
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if observer == nil {
		observer = nopObserver{}
	}

	w := &BatchWriter{
		exec:     exec,
		cfg:      cfg,
		observer: observer,
		logger:   logger.With().Str("component", "batch_writer").Logger(),
	}
	if cfg.BatchesPerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.BatchesPerSecond), 1)
	}
	return w
}

// Write upserts rows into table. keys[i] identifies rows[i] in reports.
func (w *BatchWriter) Write(ctx context.Context, table Table, keys []string, rows [][]any) contracts.WriteReport {
	report := contracts.WriteReport{Table: table.Name, Rows: len(rows)}
	sql := table.UpsertSQL()

	for start := 0; start < len(rows); start += w.cfg.BatchSize {
		end := min(start+w.cfg.BatchSize, len(rows))

		if ctx.Err() != nil {
			report.Aborted = true
			break
		}
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				report.Aborted = true
				break
			}
		}

		report.Batches++
		err := w.writeBatch(ctx, table, sql, rows[start:end])
		if err == nil {
			report.RowsWritten += end - start
			w.observer.AddWritten(table.Name, end-start)
			continue
		}

		if ctx.Err() != nil {
			report.Aborted = true
			break
		}

		failed := contracts.FailedRange{
			FirstKey: keys[start],
			LastKey:  keys[end-1],
			Rows:     end - start,
			Err:      err.Error(),
		}
		report.FailedBatches = append(report.FailedBatches, failed)
		w.observer.IncBatchFailed(table.Name)
		w.logger.Error().
			Err(err).
			Str("table", table.Name).
			Str("first_key", failed.FirstKey).
			Str("last_key", failed.LastKey).
			Int("rows", failed.Rows).
			Msg("batch not written; continuing")
	}

	w.logger.Info().
		Str("table", table.Name).
		Int("rows", report.Rows).
		Int("rows_written", report.RowsWritten).
		Int("batches", report.Batches).
		Int("failed_batches", len(report.FailedBatches)).
		Bool("aborted", report.Aborted).
		Msg("upsert finished")

	return report
}

func (w *BatchWriter) writeBatch(ctx context.Context, table Table, sql string, rows [][]any) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = w.cfg.InitialBackoff
	if eb.InitialInterval <= 0 {
		eb.InitialInterval = time.Millisecond
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := w.exec.ExecBatch(ctx, sql, rows)
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(w.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			w.observer.IncRetry(table.Name)
			w.logger.Warn().Err(err).Str("table", table.Name).Dur("retry_in", next).Msg("batch write failed, retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("%w after %d attempts: %v", ErrWriteExhausted, w.cfg.MaxAttempts, err)
	}
	return nil
}
