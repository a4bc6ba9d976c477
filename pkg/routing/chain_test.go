package routing

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadaudit/internal/geometry"
)

type scriptedRouter struct {
	name      string
	available bool
	calls     int
	fn        func(from, to geometry.Point) (*Result, error)
}

func (r *scriptedRouter) Name() string    { return r.name }
func (r *scriptedRouter) Available() bool { return r.available }
func (r *scriptedRouter) Route(_ context.Context, from, to geometry.Point) (*Result, error) {
	r.calls++
	return r.fn(from, to)
}

func TestChainFirstProviderWins(t *testing.T) {
	want := geometry.Route{{Lng: 0, Lat: 0}, {Lng: 0.5, Lat: 0.2}, {Lng: 1, Lat: 1}}
	first := &scriptedRouter{name: "osrm", available: true, fn: func(_, _ geometry.Point) (*Result, error) {
		return &Result{Route: want, DistanceMeters: 180000}, nil
	}}
	second := &scriptedRouter{name: "valhalla", available: true, fn: func(_, _ geometry.Point) (*Result, error) {
		t.Fatal("second provider must not be called")
		return nil, nil
	}}

	route, dist, err := NewChain([]Provider{first, second}).Route(
		context.Background(), geometry.Point{}, geometry.Point{Lng: 1, Lat: 1})
	require.NoError(t, err)
	assert.Equal(t, want, route)
	assert.Equal(t, 180000.0, dist)
}

func TestChainFallsThroughErrorsAndMisses(t *testing.T) {
	broken := &scriptedRouter{name: "osrm", available: true, fn: func(_, _ geometry.Point) (*Result, error) {
		return nil, eris.New("504 gateway timeout")
	}}
	noRoute := &scriptedRouter{name: "valhalla", available: true, fn: func(_, _ geometry.Point) (*Result, error) {
		return nil, nil
	}}
	chain := NewChain([]Provider{broken, noRoute, StraightLine{}})

	from := geometry.Point{Lng: 0, Lat: 0}
	to := geometry.Point{Lng: 0, Lat: 1}
	route, dist, err := chain.Route(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, geometry.Route{from, to}, route)
	assert.InDelta(t, 111194, dist, 100, "one degree of latitude in meters")
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, noRoute.calls)
}

func TestChainAllMiss(t *testing.T) {
	miss := &scriptedRouter{name: "osrm", available: true, fn: func(_, _ geometry.Point) (*Result, error) {
		return nil, nil
	}}
	route, dist, err := NewChain([]Provider{miss}).Route(
		context.Background(), geometry.Point{}, geometry.Point{Lng: 1, Lat: 1})
	require.NoError(t, err)
	assert.Nil(t, route)
	assert.Zero(t, dist)
}

func TestChainSkipsUnavailable(t *testing.T) {
	offline := &scriptedRouter{name: "osrm", available: false, fn: func(_, _ geometry.Point) (*Result, error) {
		t.Fatal("unavailable provider must not be called")
		return nil, nil
	}}
	route, _, err := NewChain([]Provider{offline, StraightLine{}}).Route(
		context.Background(), geometry.Point{}, geometry.Point{Lng: 1, Lat: 0})
	require.NoError(t, err)
	assert.Len(t, route, 2)
}
