// Package audit drives validation passes over routed segments: it surveys
// per-point containment against the county boundary, buckets severity,
// and coordinates endpoint repair and clipping until each segment reaches
// a terminal status.
package audit

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roadaudit/internal/geometry"
	"github.com/sells-group/roadaudit/internal/segment"
)

// Containment is the per-point result of checking a route against the
// boundary, with aggregate counts.
type Containment struct {
	Inside  []bool
	Outside int
}

// Total is the number of surveyed points.
func (c Containment) Total() int { return len(c.Inside) }

// OutsidePct is the percentage of points outside the boundary.
func (c Containment) OutsidePct() float64 {
	if len(c.Inside) == 0 {
		return 0
	}
	return float64(c.Outside) / float64(len(c.Inside)) * 100
}

// Severity buckets the containment result.
func (c Containment) Severity() segment.Severity {
	return segment.ClassifySeverity(c.Outside, len(c.Inside))
}

// Survey checks every route point against the locator.
func Survey(route geometry.Route, loc geometry.Locator) Containment {
	c := Containment{Inside: make([]bool, len(route))}
	for i, p := range route {
		if loc.Contains(p) {
			c.Inside[i] = true
		} else {
			c.Outside++
		}
	}
	return c
}

// surveyMany surveys the given segments with bounded parallelism. The
// containment test is pure and the boundary is read-only, so concurrent
// scanning is safe; the state machine itself still runs one route at a
// time.
func surveyMany(ctx context.Context, segs []*segment.Segment, loc geometry.Locator, concurrency int) ([]Containment, error) {
	out := make([]Containment, len(segs))
	if concurrency < 1 {
		concurrency = 1
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, s := range segs {
		i, s := i, s
		eg.Go(func() error {
			out[i] = Survey(s.Route, loc)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
