package scoreconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/yieldmap/internal/contracts"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 300.0, cfg.Score.Cap)
	assert.Equal(t, 0.05, cfg.Score.ReferenceNetYield)
	assert.Len(t, cfg.Geography.AllowedStates, 51)
	assert.Equal(t, []contracts.BedroomClass{0, 1, 2, 3, 4}, cfg.Geography.Bedrooms())

	allow := cfg.Geography.AllowSet()
	assert.True(t, allow["DC"])
	assert.False(t, allow["PR"])
	assert.False(t, allow["GU"])
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
score:
  cap: 250
output:
  batch_size: 100
  initial_backoff: 250ms
`))
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.Score.Cap)
	assert.Equal(t, 0.05, cfg.Score.ReferenceNetYield)
	assert.Equal(t, 100, cfg.Output.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Output.InitialBackoff)
	assert.Equal(t, 4, cfg.Output.MaxAttempts)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("score:\n  capp: 250\n"))
	assert.Error(t, err)
}

func TestParse_ValidationError(t *testing.T) {
	_, err := Parse([]byte("geography:\n  bedroom_classes: [1, 7]\n"))
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "geography.bedroom_classes", verr.Field)
}

func TestLoad(t *testing.T) {
	cfg, raw, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("demand:\n  sensitivity: 0.1\n"), 0o644))

	cfg, raw, err = Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, 0.1, cfg.Demand.Sensitivity)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_RepoConfig(t *testing.T) {
	path := "../../config/scoring.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, _, err := Load(path)
	require.NoError(t, err)

	// 저장소 설정 = 기본값
	want, _ := Hash(Default())
	got, _ := Hash(cfg)
	assert.Equal(t, want, got)
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, err := Hash(Default())
	require.NoError(t, err)

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.Score.Cap = 200
	h3, _ := Hash(changed)
	assert.NotEqual(t, h1, h3)
}
