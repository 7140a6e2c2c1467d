package scoreconfig

import (
	"strings"
	"time"

	"github.com/wonny/yieldmap/internal/contracts"
)

// Config는 투자 점수 배치의 전체 파라미터
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Score     Score     `yaml:"score" json:"score"`
	Demand    Demand    `yaml:"demand" json:"demand"`
	Geography Geography `yaml:"geography" json:"geography"`
	Loading   Loading   `yaml:"loading" json:"loading"`
	Output    Output    `yaml:"output" json:"output"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Score S3: base score
type Score struct {
	Cap               float64 `yaml:"cap" json:"cap"`                                 // applied before and after the multiplier
	ReferenceNetYield float64 `yaml:"reference_net_yield" json:"reference_net_yield"` // net yield that scores 100
}

// Demand S3: demand multiplier
type Demand struct {
	Sensitivity   float64 `yaml:"sensitivity" json:"sensitivity"`
	MultiplierMin float64 `yaml:"multiplier_min" json:"multiplier_min"`
	MultiplierMax float64 `yaml:"multiplier_max" json:"multiplier_max"`
}

// Geography S1/S4: bedroom classes and rollup allow-list
type Geography struct {
	BedroomClasses []int    `yaml:"bedroom_classes" json:"bedroom_classes"`
	AllowedStates  []string `yaml:"allowed_states" json:"allowed_states"`
}

type Loading struct {
	Parallelism int `yaml:"parallelism" json:"parallelism"` // concurrent state loads
}

// Output 배치 쓰기
type Output struct {
	BatchSize        int           `yaml:"batch_size" json:"batch_size"`
	MaxAttempts      int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff   time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	BatchesPerSecond float64       `yaml:"batches_per_second" json:"batches_per_second"`
}

// Bedrooms returns the configured classes as contracts values
func (g Geography) Bedrooms() []contracts.BedroomClass {
	out := make([]contracts.BedroomClass, 0, len(g.BedroomClasses))
	for _, b := range g.BedroomClasses {
		out = append(out, contracts.BedroomClass(b))
	}
	return out
}

// AllowSet returns the allow-list keyed by upper-case state code
func (g Geography) AllowSet() map[string]bool {
	set := make(map[string]bool, len(g.AllowedStates))
	for _, s := range g.AllowedStates {
		set[strings.ToUpper(s)] = true
	}
	return set
}

// StatesAndDC is the default rollup allow-list: the 50 states plus DC
var StatesAndDC = []string{
	"AK", "AL", "AR", "AZ", "CA", "CO", "CT", "DC", "DE", "FL",
	"GA", "HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA",
	"MD", "ME", "MI", "MN", "MO", "MS", "MT", "NC", "ND", "NE",
	"NH", "NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VA", "VT", "WA", "WI", "WV",
	"WY",
}

// Default returns the reference parameters
func Default() *Config {
	return &Config{
		Meta: Meta{ConfigID: "yieldmap_default", Version: "1"},
		Score: Score{
			Cap:               300,
			ReferenceNetYield: 0.05,
		},
		Demand: Demand{
			Sensitivity:   0.20,
			MultiplierMin: 0.90,
			MultiplierMax: 1.10,
		},
		Geography: Geography{
			BedroomClasses: []int{0, 1, 2, 3, 4},
			AllowedStates:  append([]string(nil), StatesAndDC...),
		},
		Loading: Loading{Parallelism: 8},
		Output: Output{
			BatchSize:        500,
			MaxAttempts:      4,
			InitialBackoff:   500 * time.Millisecond,
			BatchesPerSecond: 20,
		},
	}
}
