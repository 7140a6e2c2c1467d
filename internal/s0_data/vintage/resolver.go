// Package vintage picks the single as-of period each source contributes to a run.
package vintage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/pkg/redis"
)

// ErrNoVintage means a source has no usable data at or before the ceiling
var ErrNoVintage = errors.New("no vintage available")

// Cache stores resolved vintages between runs
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Resolver resolves source vintages
// ⭐ SSOT: vintage 결정은 여기서만
type Resolver struct {
	source contracts.VintageSource
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithCache enables caching; ttl <= 0 disables it
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.cache = cache
			r.ttl = ttl
		}
	}
}

// WithLogger sets the component logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger.With().Str("component", "vintage").Logger()
	}
}

// NewResolver creates a new resolver
func NewResolver(source contracts.VintageSource, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the latest period of source for bedroom at or before
// ceiling, paired with the period one year earlier.
func (r *Resolver) Resolve(ctx context.Context, source contracts.SourceKind, bedroom contracts.BedroomClass, ceiling contracts.PeriodKey) (contracts.Vintage, error) {
	key := redis.VintageKey(string(source), int(bedroom), ceiling.String())

	if r.cache != nil {
		var cached contracts.Vintage
		found, err := r.cache.Get(ctx, key, &cached)
		if err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("vintage cache read failed")
		} else if found {
			return cached, nil
		}
	}

	latest, found, err := r.source.LatestPeriod(ctx, source, bedroom, ceiling)
	if err != nil {
		return contracts.Vintage{}, fmt.Errorf("resolve %s vintage: %w", source, err)
	}
	if !found {
		return contracts.Vintage{}, fmt.Errorf("%w: source=%s bedroom=%d ceiling=%s", ErrNoVintage, source, bedroom, ceiling)
	}

	v := contracts.Vintage{
		Source:  source,
		Bedroom: bedroom,
		Current: latest,
		Prior:   latest.Prior(),
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, v, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("vintage cache write failed")
		}
	}

	return v, nil
}

// Set is every vintage one run uses. Absent sources are nil / missing keys.
type Set struct {
	FMRYear   int
	Rent      contracts.Vintage
	HomeValue map[contracts.BedroomClass]contracts.Vintage // keyed by home-value class
	Tax       *contracts.Vintage
	Demand    *contracts.Vintage
	Missing   []string // "source" or "source/class" with no vintage
}

// HomeValueFor returns the home-value vintage a rent class draws on
func (s *Set) HomeValueFor(rentClass contracts.BedroomClass) (contracts.Vintage, bool) {
	v, ok := s.HomeValue[rentClass.HomeValueClass()]
	return v, ok
}

// HomeValueList returns the home-value vintages ordered by class
func (s *Set) HomeValueList() []contracts.Vintage {
	out := make([]contracts.Vintage, 0, len(s.HomeValue))
	for _, v := range s.HomeValue {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bedroom < out[j].Bedroom })
	return out
}

// ResolveRun resolves every source for one FMR year. year 0 selects the
// latest rent year. Monthly sources are capped at December of that year and
// tax at the year itself, so reruns of past years never see later data.
// Only a missing rent vintage fails the run.
func (r *Resolver) ResolveRun(ctx context.Context, year int, rentClasses []contracts.BedroomClass) (*Set, error) {
	rent, err := r.Resolve(ctx, contracts.SourceRent, contracts.BedroomAny, contracts.YearPeriod(year))
	if err != nil {
		return nil, err
	}
	if year != 0 && rent.Current.Year != year {
		return nil, fmt.Errorf("%w: source=rent year=%d (latest %s)", ErrNoVintage, year, rent.Current)
	}

	set := &Set{
		FMRYear:   rent.Current.Year,
		Rent:      rent,
		HomeValue: make(map[contracts.BedroomClass]contracts.Vintage),
	}
	monthCeiling := contracts.PeriodKey{Year: set.FMRYear, Month: 12}

	seen := make(map[contracts.BedroomClass]bool)
	for _, rc := range rentClasses {
		hc := rc.HomeValueClass()
		if seen[hc] {
			continue
		}
		seen[hc] = true

		v, err := r.Resolve(ctx, contracts.SourceHomeValue, hc, monthCeiling)
		if errors.Is(err, ErrNoVintage) {
			set.Missing = append(set.Missing, fmt.Sprintf("%s/%d", contracts.SourceHomeValue, hc))
			continue
		}
		if err != nil {
			return nil, err
		}
		set.HomeValue[hc] = v
	}

	tax, err := r.Resolve(ctx, contracts.SourceTaxRate, contracts.BedroomAny, contracts.YearPeriod(set.FMRYear))
	switch {
	case errors.Is(err, ErrNoVintage):
		set.Missing = append(set.Missing, string(contracts.SourceTaxRate))
	case err != nil:
		return nil, err
	default:
		set.Tax = &tax
	}

	demand, err := r.Resolve(ctx, contracts.SourceDemand, contracts.BedroomAny, monthCeiling)
	switch {
	case errors.Is(err, ErrNoVintage):
		set.Missing = append(set.Missing, string(contracts.SourceDemand))
	case err != nil:
		return nil, err
	default:
		set.Demand = &demand
	}

	r.logger.Info().
		Int("fmr_year", set.FMRYear).
		Str("tax", vintageString(set.Tax)).
		Str("demand", vintageString(set.Demand)).
		Int("home_value_classes", len(set.HomeValue)).
		Strs("missing", set.Missing).
		Msg("vintages resolved")

	return set, nil
}

func vintageString(v *contracts.Vintage) string {
	if v == nil {
		return ""
	}
	return v.Current.String()
}
