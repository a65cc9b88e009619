// Package assessment implements the deterministic academic-risk classifier.
// It is a leaf domain package: pure functions over student attributes, no
// storage, no I/O, no dependencies beyond the shared kernel.
package assessment

// ══════════════════════════════════════════════════════════════════════════════
// RISK LEVEL
// ══════════════════════════════════════════════════════════════════════════════

// RiskLevel is the coarse bucket derived from a risk score.
// Levels are totally ordered: LOW < MODERATE < HIGH < CRITICAL.
type RiskLevel string

const (
	// LevelLow - standard support, no flags raised.
	LevelLow RiskLevel = "LOW"

	// LevelModerate - proactive monitoring recommended.
	LevelModerate RiskLevel = "MODERATE"

	// LevelHigh - flag for immediate attention.
	LevelHigh RiskLevel = "HIGH"

	// LevelCritical - treat as an emergency.
	LevelCritical RiskLevel = "CRITICAL"
)

// IsValid checks that the level is one of the four known buckets.
func (l RiskLevel) IsValid() bool {
	switch l {
	case LevelLow, LevelModerate, LevelHigh, LevelCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the level.
func (l RiskLevel) String() string {
	return string(l)
}

// Rank returns the position of the level in the total order (LOW=0 ... CRITICAL=3).
// Unknown levels rank below LOW so that comparisons degrade conservatively.
func (l RiskLevel) Rank() int {
	switch l {
	case LevelLow:
		return 0
	case LevelModerate:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l is at or above the given level in the total order.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// Score thresholds for level assignment, evaluated highest-first against the
// rounded score.
//
// ThresholdLow is carried over from the original scoring tables but is
// unreachable: LevelFromScore falls through to LOW for anything below
// ThresholdModerate, so the 0.30 boundary never participates in branching.
// It stays here for compatibility with the published constant set.
const (
	ThresholdCritical = 0.90
	ThresholdHigh     = 0.80
	ThresholdModerate = 0.60
	ThresholdLow      = 0.30
)

// LevelFromScore maps a rounded risk score onto a RiskLevel.
// The caller is responsible for rounding first (see Classify): rounding before
// thresholding can shift a borderline score across a boundary, and the order
// sum -> cap -> round -> compare is part of the compatibility contract.
func LevelFromScore(rounded float64) RiskLevel {
	switch {
	case rounded >= ThresholdCritical:
		return LevelCritical
	case rounded >= ThresholdHigh:
		return LevelHigh
	case rounded >= ThresholdModerate:
		return LevelModerate
	default:
		return LevelLow
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PERFORMANCE RATING
// ══════════════════════════════════════════════════════════════════════════════

// PerformanceRating is the teacher-assigned overall performance bucket.
type PerformanceRating string

const (
	// PerformanceBelowAverage contributes the full performance weight.
	PerformanceBelowAverage PerformanceRating = "Below Average"

	// PerformanceAverage contributes a reduced weight.
	PerformanceAverage PerformanceRating = "Average"

	// PerformanceAboveAverage contributes nothing and is never flagged.
	PerformanceAboveAverage PerformanceRating = "Above Average"

	// PerformanceExcellent contributes nothing and is never flagged.
	PerformanceExcellent PerformanceRating = "Excellent"
)

// IsValid checks that the rating is one of the recognized buckets.
// Unrecognized ratings are still scored (they contribute zero weight),
// so validity is informational, not a precondition.
func (p PerformanceRating) IsValid() bool {
	switch p {
	case PerformanceBelowAverage, PerformanceAverage,
		PerformanceAboveAverage, PerformanceExcellent:
		return true
	default:
		return false
	}
}

// String returns the string representation of the rating.
func (p PerformanceRating) String() string {
	return string(p)
}
