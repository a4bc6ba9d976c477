package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadaudit/internal/geofile"
	"github.com/sells-group/roadaudit/internal/geometry"
	"github.com/sells-group/roadaudit/internal/segment"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	inside := segment.New("1", "CR 44", "Main St", "Oak Ave", nil)
	inside.SetRoute(geometry.Route{{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}})
	inside.Status = segment.StatusClean

	crossing := segment.New("2", "SR 19", "First St", "Second St", nil)
	crossing.SetRoute(geometry.Route{{Lng: 5, Lat: 5}, {Lng: 15, Lat: 5}})
	crossing.Status = segment.StatusFlagged

	path := filepath.Join(t.TempDir(), "inventory.geojson")
	require.NoError(t, geofile.WriteSegments(path, []*segment.Segment{inside, crossing}))

	b, err := geometry.NewBoundary("Lake County", []geometry.Polygon{{
		Outer: geometry.Ring{
			{Lng: 0, Lat: 0}, {Lng: 10, Lat: 0}, {Lng: 10, Lat: 10}, {Lng: 0, Lat: 10},
		},
	}})
	require.NoError(t, err)

	ts := httptest.NewServer(New(path, WithBoundary(b)).Router())
	t.Cleanup(ts.Close)
	return ts, path
}

func doJSON(t *testing.T, method, url string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestListSegments(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/segments")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0]["segment_id"])
	assert.Equal(t, "CLEAN", got[0]["status"])
}

func TestGetSegment(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/segments/2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SR 19", body["road_name"])
	assert.Len(t, body["route"], 2)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/segments/99")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteSegment(t *testing.T) {
	ts, path := newTestServer(t)

	resp, body := doJSON(t, http.MethodDelete, ts.URL+"/api/segments/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", body["deleted"])
	assert.Equal(t, float64(1), body["remaining"])

	segs, err := geofile.ReadSegments(path)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "2", segs[0].ID)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/segments/1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBackupAndUndo(t *testing.T) {
	ts, path := newTestServer(t)

	// Undo with no backup.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/undo")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/backup")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/segments/2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/undo")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["restored"])

	segs, err := geofile.ReadSegments(path)
	require.NoError(t, err)
	assert.Len(t, segs, 2)
}

func TestReclipSegment(t *testing.T) {
	ts, path := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/segments/2/reclip")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["changed"])
	assert.Equal(t, float64(2), body["points_before"])
	assert.Equal(t, float64(2), body["points_after"])

	segs, err := geofile.ReadSegments(path)
	require.NoError(t, err)
	var reclipped *segment.Segment
	for _, s := range segs {
		if s.ID == "2" {
			reclipped = s
		}
	}
	require.NotNil(t, reclipped)
	assert.Equal(t, segment.StatusClipped, reclipped.Status)
	assert.Equal(t, geometry.Route{{Lng: 5, Lat: 5}, {Lng: 10, Lat: 5}}, reclipped.Route)
}

func TestReclipUnchangedRouteKeepsStatus(t *testing.T) {
	ts, path := newTestServer(t)

	// Segment 1 is fully inside; Clip returns it unchanged.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/segments/1/reclip")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["changed"])

	segs, err := geofile.ReadSegments(path)
	require.NoError(t, err)
	for _, s := range segs {
		if s.ID == "1" {
			assert.Equal(t, segment.StatusClean, s.Status, "untrimmed route must keep its status")
		}
	}
}

func TestReclipWithoutBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.geojson")
	require.NoError(t, geofile.WriteSegments(path, nil))
	ts := httptest.NewServer(New(path).Router())
	t.Cleanup(ts.Close)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/segments/1/reclip")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
