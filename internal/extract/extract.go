// Package extract pulls road-segment inventories out of county CMS Excel
// workbooks. Each county publishes a slightly different layout, described
// by a SheetMapping; the output is the uniform segment model.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/roadaudit/internal/segment"
)

// SheetMapping describes where one county's workbook keeps its columns.
// Column indices are zero-based. When SpanCol is >= 0 the sheet uses a
// combined "Alabama Ave to Sheeler Ave" column instead of FromCol/ToCol.
type SheetMapping struct {
	Sheet    string
	SkipRows int
	RoadCol  int
	FromCol  int
	ToCol    int
	SpanCol  int
}

// spanRe splits a combined endpoint description on the first " to ".
var spanRe = regexp.MustCompile(`(?i)\s+to\s+`)

// headerWords are cell values that mark a repeated header row inside the
// data region. Some county sheets restate their headers mid-file.
var headerWords = map[string]struct{}{
	"ROADWAY": {}, "ROAD": {}, "ON STREET": {}, "STREET": {}, "FROM": {}, "TO": {},
}

// FromXLSX extracts segments from a county workbook.
func FromXLSX(path string, m SheetMapping) ([]*segment.Segment, error) {
	rows, err := readXLSX(path, m.Sheet, m.SkipRows)
	if err != nil {
		return nil, err
	}
	segs := FromRows(rows, m)
	zap.L().Info("extract: workbook processed",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("segments", len(segs)),
	)
	return segs, nil
}

// FromRows converts raw sheet rows into segments, skipping blank and
// header-like rows and deduplicating on road|from|to. Segment IDs are
// assigned sequentially from 1.
func FromRows(rows [][]string, m SheetMapping) []*segment.Segment {
	var segs []*segment.Segment
	seen := make(map[string]struct{})

	for _, row := range rows {
		road := cleanCell(cell(row, m.RoadCol))
		if road == "" || headerLike(road) {
			continue
		}

		var from, to string
		if m.SpanCol >= 0 {
			var ok bool
			from, to, ok = splitSpan(cleanCell(cell(row, m.SpanCol)))
			if !ok {
				continue
			}
		} else {
			from = cleanCell(cell(row, m.FromCol))
			to = cleanCell(cell(row, m.ToCol))
		}
		if from == "" || to == "" {
			continue
		}

		key := road + "|" + from + "|" + to
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		segs = append(segs, segment.New(strconv.Itoa(len(segs)+1), road, from, to, nil))
	}
	return segs
}

// splitSpan parses "Alabama Ave to Sheeler Ave" into its endpoints.
func splitSpan(s string) (string, string, bool) {
	parts := spanRe.Split(s, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	from := strings.TrimSpace(parts[0])
	to := strings.TrimSpace(parts[1])
	return from, to, from != "" && to != ""
}

// cleanCell normalizes a cell to NFC and collapses internal whitespace.
func cleanCell(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func headerLike(road string) bool {
	_, ok := headerWords[strings.ToUpper(road)]
	return ok
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
