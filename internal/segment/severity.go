package segment

// Severity buckets how much of a route lies outside the boundary.
type Severity string

const (
	SeverityClean    Severity = "CLEAN"
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeveritySevere   Severity = "SEVERE"
)

// Severity thresholds as percentages of route points outside the boundary.
const (
	minorPctThreshold  = 5.0
	severePctThreshold = 25.0
)

// ClassifySeverity buckets a containment result. Rules:
//   - CLEAN: zero outside points
//   - MINOR: <=5% outside
//   - MODERATE: 5-25% outside
//   - SEVERE: >25% outside
func ClassifySeverity(outside, total int) Severity {
	if outside <= 0 || total <= 0 {
		return SeverityClean
	}
	pct := float64(outside) / float64(total) * 100
	switch {
	case pct <= minorPctThreshold:
		return SeverityMinor
	case pct <= severePctThreshold:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}
