package geocode

import (
	"fmt"
	"strings"
)

// SimplifyRoad strips parenthetical aliases ("CR 44 (Old Hwy 441)") and
// slash alternates ("SR 19/Main St"), keeping the primary name.
func SimplifyRoad(road string) string {
	if i := strings.Index(road, "("); i >= 0 {
		return strings.TrimSpace(road[:i])
	}
	if i := strings.Index(road, "/"); i >= 0 {
		return strings.TrimSpace(road[:i])
	}
	return strings.TrimSpace(road)
}

// CandidateQueries plans the ordered query list for resolving one
// intersection endpoint. Most-specific first:
//
//  1. road & cross in the county
//  2. simplified road & cross, when simplification changes the name
//  3. cross & road (reversed)
//  4. cross street alone in the county
//  5. road & cross per town
//
// Duplicates are dropped, preserving first position.
func CandidateQueries(road, cross, county, state string, towns []string) []string {
	locale := county + ", " + state

	queries := []string{
		fmt.Sprintf("%s & %s, %s", road, cross, locale),
	}
	if simple := SimplifyRoad(road); simple != road {
		queries = append(queries, fmt.Sprintf("%s & %s, %s", simple, cross, locale))
	}
	queries = append(queries,
		fmt.Sprintf("%s & %s, %s", cross, road, locale),
		fmt.Sprintf("%s, %s", cross, locale),
	)
	for _, town := range towns {
		queries = append(queries, fmt.Sprintf("%s & %s, %s, %s", road, cross, town, state))
	}

	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
