package routing

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/roadaudit/internal/geometry"
)

// Chain tries routing providers in order until one returns a route.
type Chain struct {
	providers []Provider
	limiter   *rate.Limiter
}

// ChainOption configures the Chain.
type ChainOption func(*Chain)

// WithRateLimit paces requests across all providers at rps per second.
func WithRateLimit(rps float64) ChainOption {
	return func(c *Chain) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewChain creates a Chain over the providers, tried in order.
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{providers: providers}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Route returns the first provider's route between the points along with
// its distance in meters. A nil route with a nil error means every
// provider missed; an error is returned only when the context ends.
func (c *Chain) Route(ctx context.Context, from, to geometry.Point) (geometry.Route, float64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		res, err := p.Route(ctx, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			zap.L().Debug("routing: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if res != nil && len(res.Route) >= 2 {
			return res.Route, res.DistanceMeters, nil
		}
	}
	return nil, 0, nil
}
