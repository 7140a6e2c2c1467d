package s0_data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/yieldmap/internal/contracts"
)

func TestCeilingEnd(t *testing.T) {
	assert.Nil(t, ceilingEnd(contracts.PeriodKey{}))

	annual := ceilingEnd(contracts.YearPeriod(2025))
	require.NotNil(t, annual)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), *annual)

	monthly := ceilingEnd(contracts.PeriodKey{Year: 2025, Month: 12})
	require.NotNil(t, monthly)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), *monthly)
}

// Integration: requires DATABASE_URL with the source schemas loaded
func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewRepository(pool)

	states, err := repo.ListStates(ctx)
	require.NoError(t, err)
	if len(states) == 0 {
		t.Skip("geo.zip_geography is empty")
	}

	zips, err := repo.ListZipGeos(ctx, states[0])
	require.NoError(t, err)
	for _, z := range zips {
		assert.Equal(t, states[0], z.StateCode)
	}

	year, found, err := repo.LatestPeriod(ctx, contracts.SourceRent, contracts.BedroomAny, contracts.PeriodKey{})
	require.NoError(t, err)
	if found {
		assert.True(t, year.IsAnnual())
	}
}
