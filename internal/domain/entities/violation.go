package entities

import (
	"sort"
	"time"
)

// ViolationType categorizes a continuity violation.
type ViolationType string

const (
	ViolationPowerInconsistency     ViolationType = "power_inconsistency"
	ViolationCharacterContradiction ViolationType = "character_contradiction"
	ViolationTimelineError          ViolationType = "timeline_error"
	ViolationStyleIssue             ViolationType = "style_issue"
)

// Severity grades how badly a violation breaks continuity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities for sorting and comparison; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Violation is a single detected continuity problem. All fields except
// AISuggestion are deterministic for a given input; AISuggestion is filled
// only when the optional enhancement call completes within its budget.
type Violation struct {
	Type             ViolationType     `json:"type"`
	Severity         Severity          `json:"severity"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	AffectedElements []string          `json:"affected_elements"`
	SuggestedFixes   []string          `json:"suggested_fixes"`
	Examples         map[string]string `json:"examples,omitempty"`
	CrossReferences  []string          `json:"cross_references,omitempty"`
	AISuggestion     string            `json:"ai_suggestion,omitempty"`
}

// Report is the result of one continuity check. It is a derived view,
// regenerated on demand, never a source of truth.
type Report struct {
	CharacterID     string      `json:"character_id,omitempty"`
	TotalViolations int         `json:"total_violations"`
	CriticalCount   int         `json:"critical_count"`
	HighCount       int         `json:"high_count"`
	MediumCount     int         `json:"medium_count"`
	LowCount        int         `json:"low_count"`
	Violations      []Violation `json:"violations"`
	// Enhanced records whether the optional AI enrichment completed within
	// its budget for this report.
	Enhanced  bool      `json:"enhanced,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// NewReport builds a report with violations ordered worst-first (severity,
// then type, then title) and the per-severity counts filled in.
func NewReport(characterID string, violations []Violation, checkedAt time.Time) *Report {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Severity.Rank() != violations[j].Severity.Rank() {
			return violations[i].Severity.Rank() > violations[j].Severity.Rank()
		}
		if violations[i].Type != violations[j].Type {
			return violations[i].Type < violations[j].Type
		}
		return violations[i].Title < violations[j].Title
	})

	r := &Report{
		CharacterID:     characterID,
		TotalViolations: len(violations),
		Violations:      violations,
		CheckedAt:       checkedAt,
	}
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityHigh:
			r.HighCount++
		case SeverityMedium:
			r.MediumCount++
		case SeverityLow:
			r.LowCount++
		}
	}
	return r
}

// MaxSeverity returns the worst severity present, or "" for a clean report.
func (r *Report) MaxSeverity() Severity {
	if len(r.Violations) == 0 {
		return ""
	}
	return r.Violations[0].Severity
}
