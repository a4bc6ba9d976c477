package geocode

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/roadaudit/internal/geometry"
)

const (
	// defaultMinScore is the minimum backend confidence for a candidate
	// to be accepted.
	defaultMinScore = 65.0

	// defaultRateLimit paces queries at roughly the interval the public
	// geocoders tolerate.
	defaultRateLimit = 3.0

	defaultCacheTTL = 24 * time.Hour
)

// Cascade resolves intersections by walking the planned query list and,
// for each query, the providers in order. The first candidate that meets
// the confidence threshold and lies inside the boundary wins.
type Cascade struct {
	providers []Provider

	minScore float64
	county   string
	state    string
	towns    []string

	limiter *rate.Limiter

	cacheEnabled bool
	cacheTTL     time.Duration
	mu           sync.Mutex
	cache        map[string]cacheEntry
}

type cacheEntry struct {
	match    *Match
	storedAt time.Time
}

// CascadeOption configures the Cascade.
type CascadeOption func(*Cascade)

// WithLocale sets the county and state appended to every query.
func WithLocale(county, state string) CascadeOption {
	return func(c *Cascade) {
		c.county = county
		c.state = state
	}
}

// WithTowns sets the town names used for per-town query expansion.
func WithTowns(towns []string) CascadeOption {
	return func(c *Cascade) { c.towns = towns }
}

// WithMinScore overrides the candidate confidence threshold.
func WithMinScore(score float64) CascadeOption {
	return func(c *Cascade) { c.minScore = score }
}

// WithRateLimit sets the queries-per-second pacing across all providers.
func WithRateLimit(rps float64) CascadeOption {
	return func(c *Cascade) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithCacheEnabled enables or disables the per-query result cache.
func WithCacheEnabled(enabled bool) CascadeOption {
	return func(c *Cascade) { c.cacheEnabled = enabled }
}

// WithCacheTTL sets how long cached query results stay valid.
func WithCacheTTL(ttl time.Duration) CascadeOption {
	return func(c *Cascade) { c.cacheTTL = ttl }
}

// NewCascade creates a Cascade over the providers, tried in order.
func NewCascade(providers []Provider, opts ...CascadeOption) *Cascade {
	c := &Cascade{
		providers:    providers,
		minScore:     defaultMinScore,
		limiter:      rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		cacheEnabled: true,
		cacheTTL:     defaultCacheTTL,
		cache:        make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves a road/cross-street intersection to a point inside the
// boundary. A nil point with a nil error means no acceptable candidate;
// an error is returned only when the context ends.
func (c *Cascade) Geocode(ctx context.Context, road, cross string, loc geometry.Locator) (*geometry.Point, error) {
	m, err := c.Resolve(ctx, road, cross, loc)
	if err != nil || m == nil {
		return nil, err
	}
	p := m.Point
	return &p, nil
}

// Resolve is Geocode with the full match details: the accepted candidate,
// the query that produced it, and the backend it came from.
func (c *Cascade) Resolve(ctx context.Context, road, cross string, loc geometry.Locator) (*Match, error) {
	for _, q := range CandidateQueries(road, cross, c.county, c.state, c.towns) {
		m, err := c.resolveQuery(ctx, q, loc)
		if err != nil {
			return nil, err
		}
		if m != nil {
			zap.L().Debug("geocode: intersection resolved",
				zap.String("road", road),
				zap.String("cross", cross),
				zap.String("query", q),
				zap.String("source", m.Source),
				zap.Float64("score", m.Score),
			)
			return m, nil
		}
	}
	zap.L().Debug("geocode: no acceptable candidate",
		zap.String("road", road),
		zap.String("cross", cross),
	)
	return nil, nil
}

func (c *Cascade) resolveQuery(ctx context.Context, query string, loc geometry.Locator) (*Match, error) {
	if m, hit := c.cached(query); hit {
		return m, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		candidates, err := p.Lookup(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Debug("geocode: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		for _, cand := range candidates {
			if cand.Score < c.minScore {
				continue
			}
			if !loc.Contains(cand.Point) {
				continue
			}
			m := &Match{Candidate: cand, Query: query, Source: p.Name()}
			c.store(query, m)
			return m, nil
		}
	}

	c.store(query, nil)
	return nil, nil
}

func (c *Cascade) cached(query string) (*Match, bool) {
	if !c.cacheEnabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[query]
	if !ok {
		return nil, false
	}
	if time.Since(e.storedAt) > c.cacheTTL {
		delete(c.cache, query)
		return nil, false
	}
	return e.match, true
}

func (c *Cascade) store(query string, m *Match) {
	if !c.cacheEnabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[query] = cacheEntry{match: m, storedAt: time.Now()}
}
