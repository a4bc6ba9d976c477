// Package geocode resolves road intersections ("CR 44 & Main St") to
// coordinates by cascading over geocoding backends with a planned list of
// query variations. Backends are pluggable; the cascade owns query
// planning, candidate acceptance, rate limiting, and caching.
package geocode

import (
	"context"

	"github.com/sells-group/roadaudit/internal/geometry"
)

// Candidate is one scored location returned by a backend for a query.
type Candidate struct {
	Point   geometry.Point
	Score   float64
	Address string
}

// Provider is a single geocoding backend resolving one free-text query
// into scored candidates. An empty slice with a nil error means no match.
type Provider interface {
	Name() string
	Available() bool
	Lookup(ctx context.Context, query string) ([]Candidate, error)
}

// Match is an accepted candidate along with the query that produced it.
type Match struct {
	Candidate
	Query  string
	Source string
}
