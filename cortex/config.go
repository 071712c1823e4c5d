package cortex

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/memory"
	"github.com/becomeliminal/cortica-go/tone"
)

// Config holds the tunables of a Cortex. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// HalfLife is the decay time constant of memory strength.
	HalfLife time.Duration `yaml:"half_life" json:"half_life"`

	// ToneWindows lists the windows reported in tone summaries, as sample
	// counts. 0 means every sample.
	ToneWindows []int `yaml:"tone_windows" json:"tone_windows"`

	// DefaultK is the number of memories returned when a query asks for none.
	DefaultK int `yaml:"default_k" json:"default_k"`

	// TokenBudget is the context prompt budget used when a call passes 0.
	TokenBudget int `yaml:"token_budget_default" json:"token_budget_default"`

	// EvictionFloor, when positive, removes memories whose strength drops
	// below it. Eviction only runs as part of Remember.
	EvictionFloor float64 `yaml:"eviction_floor" json:"eviction_floor"`

	// ReinforceSimilarity, when positive, makes Remember reinforce an
	// existing memory at least this similar instead of storing a duplicate.
	ReinforceSimilarity float64 `yaml:"reinforce_similarity" json:"reinforce_similarity"`

	// ReinforceOnRecall resets the decay of every memory a Query returns.
	ReinforceOnRecall bool `yaml:"reinforce_on_recall" json:"reinforce_on_recall"`

	// RecencyAnnotations adds "(N min ago)" to context prompt bullets.
	RecencyAnnotations bool `yaml:"recency_annotations" json:"recency_annotations"`
}

func DefaultConfig() Config {
	return Config{
		HalfLife:    memory.DefaultHalfLife,
		ToneWindows: []int{3, 0},
		DefaultK:    5,
		TokenBudget: 256,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	const op = "Config.Validate"

	switch {
	case c.HalfLife <= 0:
		return core.Validationf(op, "half_life must be positive, got %s", c.HalfLife)
	case c.DefaultK < 1:
		return core.Validationf(op, "default_k must be >= 1, got %d", c.DefaultK)
	case c.TokenBudget < 0:
		return core.Validationf(op, "token_budget_default must be >= 0, got %d", c.TokenBudget)
	case c.EvictionFloor < 0 || c.EvictionFloor > 1:
		return core.Validationf(op, "eviction_floor must be within [0, 1], got %g", c.EvictionFloor)
	case c.ReinforceSimilarity < 0 || c.ReinforceSimilarity > 1:
		return core.Validationf(op, "reinforce_similarity must be within [0, 1], got %g", c.ReinforceSimilarity)
	}
	for _, w := range c.ToneWindows {
		if w < 0 {
			return core.Validationf(op, "tone_windows must be >= 0, got %d", w)
		}
	}
	return nil
}

func (c Config) windows() []tone.Window {
	out := make([]tone.Window, len(c.ToneWindows))
	for i, n := range c.ToneWindows {
		out[i] = tone.Last(n)
	}
	return out
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, core.Validationf("cortex.ParseConfig", "decode config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}
