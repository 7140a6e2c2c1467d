package contracts

import "context"

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// SourceRepository reads the upstream metric tables.
// State filters are optional; "" means all states.
type SourceRepository interface {
	ListStates(ctx context.Context) ([]string, error)
	ListZipGeos(ctx context.Context, state string) ([]ZipGeo, error)
	CountyFIPSMappings(ctx context.Context) ([]CountyFIPSMapping, error)

	// RentSnapshots returns rent rows for the ZIPs of state, SAFMR preferred per ZIP
	// and county FMR inherited otherwise. Provenance is set on each row.
	RentSnapshots(ctx context.Context, state string, years []int) ([]MetricSnapshot, error)
	// HomeValueSnapshots returns ZHVI rows for the listed (class, month) vintages
	HomeValueSnapshots(ctx context.Context, state string, vintages []Vintage) ([]MetricSnapshot, error)
	TaxSnapshots(ctx context.Context, state string, vintage PeriodKey) ([]MetricSnapshot, error)
	// DemandSnapshots returns metro-level rows nationally
	DemandSnapshots(ctx context.Context, period PeriodKey) ([]MetricSnapshot, error)
	ZipDemandRegions(ctx context.Context, state string) (map[string]string, error)
}

// VintageSource finds the latest period with at least one valid value
type VintageSource interface {
	LatestPeriod(ctx context.Context, source SourceKind, bedroom BedroomClass, ceiling PeriodKey) (PeriodKey, bool, error)
}

// ScoreWriter persists ScoreRecords and their rollups
type ScoreWriter interface {
	UpsertScores(ctx context.Context, records []ScoreRecord) WriteReport
	UpsertRollups(ctx context.Context, rollups []ScoreRollup) WriteReport
}

// YieldMoverWriter persists YieldMoverRecords
type YieldMoverWriter interface {
	UpsertYieldMovers(ctx context.Context, records []YieldMoverRecord) WriteReport
}

// FailedRange is a batch that was not written after all retries
type FailedRange struct {
	FirstKey string `json:"first_key"`
	LastKey  string `json:"last_key"`
	Rows     int    `json:"rows"`
	Err      string `json:"error"`
}

// WriteReport summarizes one batched upsert
type WriteReport struct {
	Table         string        `json:"table"`
	Rows          int           `json:"rows"`
	RowsWritten   int           `json:"rows_written"`
	Batches       int           `json:"batches"`
	FailedBatches []FailedRange `json:"failed_batches,omitempty"`
	Aborted       bool          `json:"aborted"` // context cancelled between batches
}

// NothingWritten reports that rows were offered but none were committed
func (r WriteReport) NothingWritten() bool {
	return r.Rows > 0 && r.RowsWritten == 0
}
