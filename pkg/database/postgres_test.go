package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/yieldmap/pkg/config"
)

func TestSchema_DeclaresOutputTables(t *testing.T) {
	ddl := Schema()

	for _, table := range []string{
		"output.investment_scores",
		"output.investment_score_rollups",
		"output.yield_movers",
	} {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table)
	}

	// upsert 대상 키
	assert.Contains(t, ddl, "PRIMARY KEY (zip_code, bedroom_class, fmr_year)")
	assert.Equal(t, 2, strings.Count(ddl, "PRIMARY KEY (geo_level, geo_key, bedroom_class, fmr_year)"))
}

func TestNewAndApplySchema(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, db.ApplySchema(ctx))
	// 두 번 실행해도 안전해야 함
	require.NoError(t, db.ApplySchema(ctx))

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Stats.MaxConns, int32(0))
}
