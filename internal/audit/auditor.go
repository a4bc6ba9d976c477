package audit

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/roadaudit/internal/clip"
	"github.com/sells-group/roadaudit/internal/geometry"
	"github.com/sells-group/roadaudit/internal/resilience"
	"github.com/sells-group/roadaudit/internal/segment"
)

const (
	// defaultMinSeparation is the minimum L1 distance (degrees) between a
	// repaired segment's endpoints. Anything closer is a collapsed geocode
	// and the repair is rejected.
	defaultMinSeparation = 0.001

	// highDetourRatio marks repaired routes whose road distance exceeds
	// the straight-line distance by this factor. The fix is kept but the
	// segment carries a QA flag for manual review.
	highDetourRatio = 6.0

	// edgeTolerance treats points this close to the boundary outline
	// (degrees) as inside when judging a clipped route. Clip crossings
	// sit exactly on a ring edge, where the even-odd test is ambiguous.
	edgeTolerance = 1e-9

	defaultCallTimeout     = 15 * time.Second
	defaultScanConcurrency = 4
)

// QA flags written onto segments for manual review.
const (
	FlagHighDetour = "HIGH_DETOUR"
	FlagZeroLength = "ZERO_LENGTH"
)

// TransitionEvent describes one status change made during a pass. The
// store subscribes to these to build the audit trail.
type TransitionEvent struct {
	SegmentID string
	RoadName  string
	From      segment.RouteStatus
	To        segment.RouteStatus
	Severity  segment.Severity

	OutsideBefore int
	OutsideAfter  int

	// Total is the point count of the route OutsideAfter was measured
	// on; transitions that replace the geometry report the new route's.
	Total int
}

// Auditor runs validation passes over segments against one boundary.
type Auditor struct {
	boundary *geometry.Boundary
	locator  geometry.Locator

	repair RepairProvider
	router RoutingProvider

	minSeparation   float64
	callTimeout     time.Duration
	retry           resilience.RetryConfig
	reopen          bool
	scanConcurrency int

	limiter       *rate.Limiter
	repairBreaker *resilience.Breaker
	routerBreaker *resilience.Breaker

	onTransition func(TransitionEvent)
	log          *zap.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithProviders attaches the repair and routing upstreams. Without them
// flagged segments go straight to the clip fallback.
func WithProviders(rp RepairProvider, rt RoutingProvider) Option {
	return func(a *Auditor) {
		a.repair = rp
		a.router = rt
	}
}

// WithLocator overrides the containment test, e.g. with an r-tree indexed
// locator for boundaries with many polygons.
func WithLocator(loc geometry.Locator) Option {
	return func(a *Auditor) { a.locator = loc }
}

// WithMinSeparation overrides the collapsed-endpoint threshold (degrees).
func WithMinSeparation(deg float64) Option {
	return func(a *Auditor) { a.minSeparation = deg }
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(a *Auditor) { a.callTimeout = d }
}

// WithRetryConfig overrides the provider-call retry settings.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(a *Auditor) { a.retry = cfg }
}

// WithRateLimit caps provider calls at r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(a *Auditor) { a.limiter = rate.NewLimiter(rate.Limit(r), burst) }
}

// WithReopen re-processes segments already in FIXED, CLIPPED, or
// STILL_FLAGGED. CLEAN segments are never re-opened.
func WithReopen() Option {
	return func(a *Auditor) { a.reopen = true }
}

// WithScanConcurrency bounds the parallel containment scan.
func WithScanConcurrency(n int) Option {
	return func(a *Auditor) { a.scanConcurrency = n }
}

// WithTransitionHook registers a callback invoked for every status change.
func WithTransitionHook(fn func(TransitionEvent)) Option {
	return func(a *Auditor) { a.onTransition = fn }
}

// New creates an auditor for the boundary.
func New(b *geometry.Boundary, opts ...Option) *Auditor {
	a := &Auditor{
		boundary:        b,
		locator:         b,
		minSeparation:   defaultMinSeparation,
		callTimeout:     defaultCallTimeout,
		retry:           resilience.DefaultRetryConfig(),
		scanConcurrency: defaultScanConcurrency,
		repairBreaker:   resilience.NewBreaker("geocoder", 0, 0),
		routerBreaker:   resilience.NewBreaker("router", 0, 0),
		log:             zap.L(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit runs one pass over the segments and returns the resulting status
// for each, in input order. Segments already in a terminal state are
// skipped (unless the auditor was built WithReopen, which re-opens
// everything except CLEAN), so running the same pass twice performs no
// further transitions.
//
// A zero-point route is an invariant violation at this boundary: there is
// nothing to survey, so it must never classify as CLEAN. Callers hold back
// unrouted segments; Audit rejects them with an error.
func (a *Auditor) Audit(ctx context.Context, segs []*segment.Segment) ([]segment.RouteStatus, error) {
	for _, s := range segs {
		if len(s.Route) == 0 {
			return nil, eris.Errorf("audit: segment %s (%s) has a zero-point route", s.ID, s.RoadName)
		}
	}

	surveys, err := surveyMany(ctx, segs, a.locator, a.scanConcurrency)
	if err != nil {
		return nil, eris.Wrap(err, "audit: containment scan")
	}

	statuses := make([]segment.RouteStatus, len(segs))
	for i, s := range segs {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "audit: pass interrupted")
		}
		statuses[i] = a.auditOne(ctx, s, surveys[i])
	}
	return statuses, nil
}

func (a *Auditor) skip(s *segment.Segment) bool {
	if s.Status == segment.StatusClean {
		return true
	}
	return s.Status.Terminal() && !a.reopen
}

func (a *Auditor) auditOne(ctx context.Context, s *segment.Segment, before Containment) segment.RouteStatus {
	if a.skip(s) {
		return s.Status
	}

	sev := before.Severity()
	if sev == segment.SeverityClean {
		a.transition(s, segment.StatusClean, sev, before.Outside, 0, before.Total())
		return s.Status
	}

	prev := s.Status
	a.transition(s, segment.StatusFlagged, sev, before.Outside, before.Outside, before.Total())
	a.log.Info("audit: segment flagged",
		zap.String("segment", s.ID),
		zap.String("road", s.RoadName),
		zap.String("severity", string(sev)),
		zap.Int("outside", before.Outside),
		zap.Int("total", before.Total()),
	)

	if s.ZeroLength(a.minSeparation) && s.QAFlag == "" {
		s.QAFlag = FlagZeroLength
	}

	if route, after, ok := a.attemptRepair(ctx, s, before); ok {
		s.SetRoute(route)
		if s.DetourRatio >= highDetourRatio {
			s.QAFlag = FlagHighDetour
		} else if s.QAFlag == FlagZeroLength {
			s.QAFlag = ""
		}
		a.transition(s, segment.StatusFixed, sev, before.Outside, after.Outside, after.Total())
		return s.Status
	}

	clipped, err := clip.Clip(s.Route, a.boundary)
	if err != nil {
		a.log.Warn("audit: clip failed", zap.String("segment", s.ID), zap.Error(err))
		a.transition(s, segment.StatusStillFlagged, sev, before.Outside, before.Outside, before.Total())
		return s.Status
	}

	afterOutside := a.outsideCount(clipped)
	switch {
	case afterOutside < before.Outside:
		s.SetRoute(clipped)
		a.transition(s, segment.StatusClipped, sev, before.Outside, afterOutside, len(clipped))
	case prev == segment.StatusClipped:
		// Re-opened segment whose clip was already applied; nothing
		// further to gain, keep the clipped geometry.
		s.Status = segment.StatusClipped
	default:
		a.transition(s, segment.StatusStillFlagged, sev, before.Outside, before.Outside, before.Total())
	}
	return s.Status
}

// attemptRepair re-geocodes both endpoints and re-routes between them.
// The repair is accepted only when the new route strictly reduces the
// outside-point count.
func (a *Auditor) attemptRepair(ctx context.Context, s *segment.Segment, before Containment) (geometry.Route, Containment, bool) {
	if a.repair == nil || a.router == nil {
		return nil, Containment{}, false
	}

	from, ok := a.callGeocode(ctx, s, s.From)
	if !ok {
		return nil, Containment{}, false
	}
	to, ok := a.callGeocode(ctx, s, s.To)
	if !ok {
		return nil, Containment{}, false
	}

	if geometry.SeparationL1(*from, *to) <= a.minSeparation {
		a.log.Info("audit: repair rejected, endpoints collapsed",
			zap.String("segment", s.ID),
			zap.String("road", s.RoadName),
		)
		return nil, Containment{}, false
	}

	route, distMeters, ok := a.callRoute(ctx, s, *from, *to)
	if !ok || len(route) < 2 {
		return nil, Containment{}, false
	}

	after := Survey(route, a.locator)
	if after.Outside >= before.Outside {
		a.log.Info("audit: repair did not improve containment",
			zap.String("segment", s.ID),
			zap.Int("outside_before", before.Outside),
			zap.Int("outside_after", after.Outside),
		)
		return nil, Containment{}, false
	}

	a.log.Info("audit: repair accepted",
		zap.String("segment", s.ID),
		zap.Float64("route_km", distMeters/1000),
		zap.Int("outside_before", before.Outside),
		zap.Int("outside_after", after.Outside),
	)
	return route, after, true
}

func (a *Auditor) callGeocode(ctx context.Context, s *segment.Segment, cross string) (*geometry.Point, bool) {
	if !a.repairBreaker.Allow() {
		return nil, false
	}
	if err := a.wait(ctx); err != nil {
		return nil, false
	}

	p, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*geometry.Point, error) {
		ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
		return a.repair.Geocode(ctx, s.RoadName, cross, a.locator)
	})
	a.repairBreaker.Record(err)
	if err != nil {
		a.log.Warn("audit: geocode failed",
			zap.String("segment", s.ID),
			zap.String("cross", cross),
			zap.Error(err),
		)
		return nil, false
	}
	return p, p != nil
}

func (a *Auditor) callRoute(ctx context.Context, s *segment.Segment, from, to geometry.Point) (geometry.Route, float64, bool) {
	if !a.routerBreaker.Allow() {
		return nil, 0, false
	}
	if err := a.wait(ctx); err != nil {
		return nil, 0, false
	}

	type result struct {
		route geometry.Route
		dist  float64
	}
	res, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (result, error) {
		ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
		route, dist, err := a.router.Route(ctx, from, to)
		return result{route, dist}, err
	})
	a.routerBreaker.Record(err)
	if err != nil {
		a.log.Warn("audit: routing failed", zap.String("segment", s.ID), zap.Error(err))
		return nil, 0, false
	}
	return res.route, res.dist, res.route != nil
}

// outsideCount counts route points outside the boundary, forgiving
// points that sit on the outline itself.
func (a *Auditor) outsideCount(route geometry.Route) int {
	n := 0
	for _, p := range route {
		if a.locator.Contains(p) {
			continue
		}
		if a.boundary.DistanceToOutline(p) <= edgeTolerance {
			continue
		}
		n++
	}
	return n
}

func (a *Auditor) wait(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	return a.limiter.Wait(ctx)
}

func (a *Auditor) transition(s *segment.Segment, to segment.RouteStatus, sev segment.Severity, outBefore, outAfter, total int) {
	from := s.Status
	s.Status = to
	if a.onTransition != nil {
		a.onTransition(TransitionEvent{
			SegmentID:     s.ID,
			RoadName:      s.RoadName,
			From:          from,
			To:            to,
			Severity:      sev,
			OutsideBefore: outBefore,
			OutsideAfter:  outAfter,
			Total:         total,
		})
	}
}
