package scoreconfig

import (
	"fmt"
	"strings"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Score ===
	if cfg.Score.Cap <= 0 {
		return ValidationError{"score.cap", "must be > 0"}
	}
	if cfg.Score.ReferenceNetYield <= 0 || cfg.Score.ReferenceNetYield >= 1 {
		return ValidationError{"score.reference_net_yield", "must be in (0, 1)"}
	}

	// === Demand ===
	if cfg.Demand.Sensitivity < 0 {
		return ValidationError{"demand.sensitivity", "must be >= 0"}
	}
	if cfg.Demand.MultiplierMin <= 0 || cfg.Demand.MultiplierMin > 1 {
		return ValidationError{"demand.multiplier_min", "must be in (0, 1]"}
	}
	if cfg.Demand.MultiplierMax < 1 {
		return ValidationError{"demand.multiplier_max", "must be >= 1"}
	}

	// === Geography ===
	if len(cfg.Geography.BedroomClasses) == 0 {
		return ValidationError{"geography.bedroom_classes", "required"}
	}
	seen := make(map[int]bool)
	for _, b := range cfg.Geography.BedroomClasses {
		if b < 0 || b > 4 {
			return ValidationError{"geography.bedroom_classes", fmt.Sprintf("class %d outside 0..4", b)}
		}
		if seen[b] {
			return ValidationError{"geography.bedroom_classes", fmt.Sprintf("duplicate class %d", b)}
		}
		seen[b] = true
	}
	if len(cfg.Geography.AllowedStates) == 0 {
		return ValidationError{"geography.allowed_states", "required"}
	}
	for _, s := range cfg.Geography.AllowedStates {
		if len(strings.TrimSpace(s)) != 2 {
			return ValidationError{"geography.allowed_states", fmt.Sprintf("invalid state code %q", s)}
		}
	}

	// === Loading / Output ===
	if cfg.Loading.Parallelism < 1 {
		return ValidationError{"loading.parallelism", "must be >= 1"}
	}
	// 65535 bind parameters per statement
	if cfg.Output.BatchSize < 1 || cfg.Output.BatchSize > 5000 {
		return ValidationError{"output.batch_size", "must be in [1, 5000]"}
	}
	if cfg.Output.MaxAttempts < 1 {
		return ValidationError{"output.max_attempts", "must be >= 1"}
	}
	if cfg.Output.InitialBackoff < 0 {
		return ValidationError{"output.initial_backoff", "must be >= 0"}
	}
	if cfg.Output.BatchesPerSecond < 0 {
		return ValidationError{"output.batches_per_second", "must be >= 0 (0 = unlimited)"}
	}

	return nil
}
