// ABOUTME: Entity model for analyses, hypotheses, and issues.
// ABOUTME: Defines lifecycle statuses, evidence entries, and derived counters.

package insights

import (
	"fmt"
	"time"
)

// AnalysisStatus is the lifecycle state of an analysis container.
type AnalysisStatus string

const (
	AnalysisActive    AnalysisStatus = "ACTIVE"
	AnalysisCompleted AnalysisStatus = "COMPLETED"
	AnalysisArchived  AnalysisStatus = "ARCHIVED"
)

// ParseAnalysisStatus validates a raw status string.
func ParseAnalysisStatus(s string) (AnalysisStatus, error) {
	switch AnalysisStatus(s) {
	case AnalysisActive, AnalysisCompleted, AnalysisArchived:
		return AnalysisStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown analysis status %q", s)}
}

// HypothesisStatus is the lifecycle state of a hypothesis.
type HypothesisStatus string

const (
	HypothesisTesting   HypothesisStatus = "TESTING"
	HypothesisValidated HypothesisStatus = "VALIDATED"
	HypothesisRejected  HypothesisStatus = "REJECTED"
)

// ParseHypothesisStatus validates a raw status string.
func ParseHypothesisStatus(s string) (HypothesisStatus, error) {
	switch HypothesisStatus(s) {
	case HypothesisTesting, HypothesisValidated, HypothesisRejected:
		return HypothesisStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown hypothesis status %q", s)}
}

// Terminal reports whether the status is a conclusion state.
func (s HypothesisStatus) Terminal() bool {
	return s == HypothesisValidated || s == HypothesisRejected
}

// IssueStatus is the lifecycle state of an issue.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "OPEN"
	IssueInProgress IssueStatus = "IN_PROGRESS"
	IssueResolved   IssueStatus = "RESOLVED"
	IssueRejected   IssueStatus = "REJECTED"
)

// ParseIssueStatus validates a raw status string.
func ParseIssueStatus(s string) (IssueStatus, error) {
	switch IssueStatus(s) {
	case IssueOpen, IssueInProgress, IssueResolved, IssueRejected:
		return IssueStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown issue status %q", s)}
}

// Severity ranks an issue's impact.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// ParseSeverity validates a raw severity string.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s), nil
	}
	return "", &ValidationError{Field: "severity", Reason: fmt.Sprintf("unknown severity %q", s)}
}

// Evidence ties a hypothesis to one trace with a rationale and a
// supports/refutes verdict.
type Evidence struct {
	TraceID   string `yaml:"trace_id" json:"trace_id"`
	Rationale string `yaml:"rationale" json:"rationale"`
	Supports  bool   `yaml:"supports" json:"supports"`
}

// IssueEvidence ties an issue to one demonstrating trace.
type IssueEvidence struct {
	TraceID   string `yaml:"trace_id" json:"trace_id"`
	Rationale string `yaml:"rationale" json:"rationale"`
}

// Analysis is the root document of one investigation container.
type Analysis struct {
	RunID       string         `yaml:"-" json:"run_id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Status      AnalysisStatus `yaml:"status" json:"status"`
	CreatedAt   time.Time      `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `yaml:"updated_at" json:"updated_at"`
	Metadata    map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Hypothesis is a falsifiable statement under investigation, with its
// accumulated evidence.
type Hypothesis struct {
	ID          string           `yaml:"hypothesis_id" json:"hypothesis_id"`
	Statement   string           `yaml:"statement" json:"statement"`
	TestingPlan string           `yaml:"testing_plan,omitempty" json:"testing_plan,omitempty"`
	Rationale   string           `yaml:"rationale,omitempty" json:"rationale,omitempty"`
	Status      HypothesisStatus `yaml:"status" json:"status"`
	Evidence    []Evidence       `yaml:"evidence" json:"evidence"`
	Metrics     map[string]any   `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	CreatedAt   time.Time        `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `yaml:"updated_at" json:"updated_at"`
	Metadata    map[string]any   `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// EvidenceCount returns the number of evidence entries.
func (h *Hypothesis) EvidenceCount() int { return len(h.Evidence) }

// SupportsCount returns the number of supporting evidence entries.
func (h *Hypothesis) SupportsCount() int {
	n := 0
	for _, ev := range h.Evidence {
		if ev.Supports {
			n++
		}
	}
	return n
}

// RefutesCount returns the number of refuting evidence entries.
func (h *Hypothesis) RefutesCount() int { return h.EvidenceCount() - h.SupportsCount() }

// TraceCount returns the number of distinct traces cited as evidence.
func (h *Hypothesis) TraceCount() int {
	seen := make(map[string]struct{}, len(h.Evidence))
	for _, ev := range h.Evidence {
		seen[ev.TraceID] = struct{}{}
	}
	return len(seen)
}

// Issue is a confirmed, experiment-scoped problem backed by evidence.
type Issue struct {
	ID           string          `yaml:"issue_id" json:"issue_id"`
	Title        string          `yaml:"title" json:"title"`
	Description  string          `yaml:"description,omitempty" json:"description,omitempty"`
	Severity     Severity        `yaml:"severity" json:"severity"`
	Status       IssueStatus     `yaml:"status" json:"status"`
	SourceRunID  string          `yaml:"source_run_id,omitempty" json:"source_run_id,omitempty"`
	HypothesisID string          `yaml:"hypothesis_id,omitempty" json:"hypothesis_id,omitempty"`
	Evidence     []IssueEvidence `yaml:"evidence" json:"evidence"`
	Assessments  []string        `yaml:"assessments,omitempty" json:"assessments,omitempty"`
	Resolution   string          `yaml:"resolution,omitempty" json:"resolution,omitempty"`
	CreatedAt    time.Time       `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `yaml:"updated_at" json:"updated_at"`
	Metadata     map[string]any  `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// TraceCount returns the number of distinct traces cited as evidence.
func (i *Issue) TraceCount() int {
	seen := make(map[string]struct{}, len(i.Evidence))
	for _, ev := range i.Evidence {
		seen[ev.TraceID] = struct{}{}
	}
	return len(seen)
}

// AnalysisSummary is the listing row for an analysis container.
type AnalysisSummary struct {
	RunID           string         `json:"run_id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Status          AnalysisStatus `json:"status"`
	HypothesisCount int            `json:"hypothesis_count"`
	ValidatedCount  int            `json:"validated_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// HypothesisSummary is the listing row for a hypothesis. Evidence bodies
// are omitted; only the derived counters survive.
type HypothesisSummary struct {
	ID            string           `json:"hypothesis_id"`
	Statement     string           `json:"statement"`
	Status        HypothesisStatus `json:"status"`
	EvidenceCount int              `json:"evidence_count"`
	TraceCount    int              `json:"trace_count"`
	SupportsCount int              `json:"supports_count"`
	RefutesCount  int              `json:"refutes_count"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// IssueSummary is the listing row for an issue.
type IssueSummary struct {
	ID          string      `json:"issue_id"`
	Title       string      `json:"title"`
	Severity    Severity    `json:"severity"`
	Status      IssueStatus `json:"status"`
	TraceCount  int         `json:"trace_count"`
	SourceRunID string      `json:"source_run_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Summarize produces the listing row for a hypothesis.
func (h *Hypothesis) Summarize() HypothesisSummary {
	return HypothesisSummary{
		ID:            h.ID,
		Statement:     h.Statement,
		Status:        h.Status,
		EvidenceCount: h.EvidenceCount(),
		TraceCount:    h.TraceCount(),
		SupportsCount: h.SupportsCount(),
		RefutesCount:  h.RefutesCount(),
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}
}

// Summarize produces the listing row for an issue.
func (i *Issue) Summarize() IssueSummary {
	return IssueSummary{
		ID:          i.ID,
		Title:       i.Title,
		Severity:    i.Severity,
		Status:      i.Status,
		TraceCount:  i.TraceCount(),
		SourceRunID: i.SourceRunID,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}
