// Package store persists audit runs and their per-segment transition
// events, giving each pass a durable trail that the report and the API
// server read back.
package store

import (
	"context"
	"time"

	"github.com/sells-group/roadaudit/internal/audit"
)

// Run is one audit pass over a boundary's segment inventory.
type Run struct {
	ID         string
	Boundary   string
	Segments   int
	Summary    string // JSON report summary, set when the run finishes
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Event is one recorded status transition within a run.
type Event struct {
	ID        string
	RunID     string
	SegmentID string
	RoadName  string

	FromStatus string
	ToStatus   string
	Severity   string

	OutsideBefore int
	OutsideAfter  int
	Total         int

	At time.Time
}

// Store records audit runs and their events.
type Store interface {
	Migrate(ctx context.Context) error

	CreateRun(ctx context.Context, boundary string, segments int) (*Run, error)
	FinishRun(ctx context.Context, runID, summary string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	AppendEvent(ctx context.Context, runID string, ev audit.TransitionEvent) error
	ListEvents(ctx context.Context, runID string) ([]Event, error)

	Close() error
}
