package cortex_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/cortex"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := cortex.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 72*time.Hour, cfg.HalfLife)
	assert.Equal(t, 5, cfg.DefaultK)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortica.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
half_life: 90m
tone_windows: [2, 10, 0]
default_k: 8
token_budget_default: 512
eviction_floor: 0.05
reinforce_on_recall: true
`), 0o600))

	cfg, err := cortex.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.HalfLife)
	assert.Equal(t, []int{2, 10, 0}, cfg.ToneWindows)
	assert.Equal(t, 8, cfg.DefaultK)
	assert.Equal(t, 512, cfg.TokenBudget)
	assert.InDelta(t, 0.05, cfg.EvictionFloor, 1e-12)
	assert.True(t, cfg.ReinforceOnRecall)
	assert.False(t, cfg.RecencyAnnotations, "unset keys keep defaults")
	assert.Zero(t, cfg.ReinforceSimilarity)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"negative k":       "default_k: -1",
		"zero half life":   "half_life: 0s",
		"floor above one":  "eviction_floor: 1.5",
		"negative window":  "tone_windows: [-2]",
		"negative budget":  "token_budget_default: -10",
		"similarity range": "reinforce_similarity: 2",
		"malformed yaml":   "default_k: [",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := cortex.ParseConfig([]byte(body))
			assert.True(t, core.IsValidation(err), "got %v", err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := cortex.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
