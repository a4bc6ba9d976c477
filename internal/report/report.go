// Package report aggregates the outcome of an audit pass into a summary
// suitable for logging, the run store, and a YAML artifact next to the
// output GeoJSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roadaudit/internal/segment"
)

// Summary is the aggregate result of one audit pass. StillFlagged lists
// the segments the pass could neither repair nor clip, one line each,
// so a reviewer can work through them without reopening the GeoJSON.
type Summary struct {
	Boundary     string         `yaml:"boundary" json:"boundary"`
	Segments     int            `yaml:"segments" json:"segments"`
	ByStatus     map[string]int `yaml:"by_status" json:"by_status"`
	BySeverity   map[string]int `yaml:"by_severity,omitempty" json:"by_severity,omitempty"`
	QAFlags      map[string]int `yaml:"qa_flags,omitempty" json:"qa_flags,omitempty"`
	StillFlagged []string       `yaml:"still_flagged,omitempty" json:"still_flagged,omitempty"`
	RouteKM      float64        `yaml:"route_km" json:"route_km"`
	GeneratedAt  time.Time      `yaml:"generated_at" json:"generated_at"`
}

// Build aggregates the segments into a summary.
func Build(boundary string, segs []*segment.Segment) Summary {
	s := Summary{
		Boundary:    boundary,
		Segments:    len(segs),
		ByStatus:    make(map[string]int),
		QAFlags:     make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}
	for _, seg := range segs {
		s.ByStatus[string(seg.Status)]++
		if seg.QAFlag != "" {
			s.QAFlags[seg.QAFlag]++
		}
		if seg.Status == segment.StatusStillFlagged {
			s.StillFlagged = append(s.StillFlagged,
				fmt.Sprintf("%s %s (%s to %s)", seg.ID, seg.RoadName, seg.From, seg.To))
		}
		s.RouteKM += seg.RouteKM
	}
	return s
}

// CountSeverity records one flagged-severity observation, typically fed
// from the auditor's transition hook.
func (s *Summary) CountSeverity(sev segment.Severity) {
	if s.BySeverity == nil {
		s.BySeverity = make(map[string]int)
	}
	s.BySeverity[string(sev)]++
}

// JSON renders the summary for the run store.
func (s Summary) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", eris.Wrap(err, "report: encode summary")
	}
	return string(data), nil
}

// WriteYAML writes the summary as a YAML artifact.
func (s Summary) WriteYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "report: encode summary")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

// Log emits the summary through the global logger, statuses in stable order.
func (s Summary) Log() {
	statuses := make([]string, 0, len(s.ByStatus))
	for status := range s.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	fields := []zap.Field{
		zap.String("boundary", s.Boundary),
		zap.Int("segments", s.Segments),
		zap.Float64("route_km", s.RouteKM),
	}
	for _, status := range statuses {
		fields = append(fields, zap.Int(status, s.ByStatus[status]))
	}
	zap.L().Info("audit summary", fields...)
}
