package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetrics_Counters(t *testing.T) {
	m := New()

	m.AddComputed("scores", 10)
	m.AddComputed("scores", 5)
	m.AddWritten("investment_scores", 12)
	m.IncBatchFailed("investment_scores")
	m.IncRetry("investment_scores")
	m.IncRetry("investment_scores")

	assert.Equal(t, 15.0, testutil.ToFloat64(m.recordsComputed.WithLabelValues("scores")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.rowsWritten.WithLabelValues("investment_scores")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchesFailed.WithLabelValues("investment_scores")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.writeRetries.WithLabelValues("investment_scores")))
}

func TestRunMetrics_CoverageAndSuccess(t *testing.T) {
	m := New()

	m.SetCoverage(2, "geos_with_rent", 900)
	m.MarkSuccess(time.Unix(1700000000, 0))
	m.ObserveStage("load", 2*time.Second)

	assert.Equal(t, 900.0, testutil.ToFloat64(m.coverage.WithLabelValues("2", "geos_with_rent")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastSuccess))
}

func TestRunMetrics_Handler(t *testing.T) {
	m := New()
	m.AddComputed("yield_movers", 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `yieldmap_records_computed_total{artifact="yield_movers"} 3`))
}

func TestRunMetrics_PushWithoutGateway(t *testing.T) {
	assert.NoError(t, New().Push(context.Background(), "", "yieldmap"))
}
