package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kadirpekel/quorum/pkg/review"
)

func sampleIterations() []review.IterationExport {
	return []review.IterationExport{
		{
			Number:   1,
			Artifact: "# TITLE\nDraft one",
			Critiques: []review.Critique{
				{CriticName: "technical", Text: "VERDICT: NEEDS REVISION\n1. Missing constraints."},
			},
			MergedDecision: review.MergedDecision{
				SummaryText:       "BOARD DECISION\nNeeds another pass.",
				SeverityBreakdown: map[review.Severity]int{review.SeverityHigh: 2},
			},
			Confidence:      0.61,
			ConfidenceLevel: "LOW",
			Rejected:        true,
			CreatedAt:       "2026-08-29T10:00:00Z",
		},
		{
			Number:   2,
			Artifact: "# TITLE\nDraft two, revised",
			Critiques: []review.Critique{
				{CriticName: "technical", Text: "VERDICT: APPROVE"},
			},
			MergedDecision: review.MergedDecision{
				SummaryText:       "BOARD DECISION\nShip it.",
				SeverityBreakdown: map[review.Severity]int{review.SeverityLow: 1},
			},
			Confidence:      0.88,
			ConfidenceLevel: "HIGH",
			Approved:        true,
			CreatedAt:       "2026-08-29T10:10:00Z",
		},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleIterations())

	if summary.TotalIterations != 2 || summary.ApprovedIterations != 1 {
		t.Errorf("iterations = (%d total, %d approved), want (2, 1)",
			summary.TotalIterations, summary.ApprovedIterations)
	}
	if summary.TotalIssues != 3 {
		t.Errorf("TotalIssues = %d, want 3", summary.TotalIssues)
	}
	if summary.FinalConfidence != 0.88 || summary.FinalLevel != "HIGH" {
		t.Errorf("final = (%v, %s), want (0.88, HIGH)", summary.FinalConfidence, summary.FinalLevel)
	}
	if summary.SeverityBreakdown["HIGH"] != 2 {
		t.Errorf("HIGH = %d, want 2", summary.SeverityBreakdown["HIGH"])
	}
}

func TestSummarizeCountsFailures(t *testing.T) {
	summary := Summarize([]review.IterationExport{{Number: 1, Error: "generation failed"}})
	if summary.FailedIterations != 1 {
		t.Errorf("FailedIterations = %d, want 1", summary.FailedIterations)
	}
}

func TestGenerateMarkdown(t *testing.T) {
	info := SessionInfo{
		SessionID:    "abc-123",
		Title:        "Payment flow review",
		Requirements: "Design the payment flow.",
		Critics:      []string{"technical", "security"},
		Provider:     "anthropic",
		CreatedAt:    time.Now(),
	}

	out, err := Generate(info, sampleIterations(), FormatMarkdown)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, want := range []string{
		"# Review Board Final Report",
		"**Session:** Payment flow review",
		"**Reviewers:** technical, security",
		"### Iteration 1",
		"### Iteration 2",
		"**Human Gate:** Rejected",
		"**Human Gate:** Approved",
		"Draft two, revised",
		"**Final Confidence:** 0.88 (HIGH)",
		"**Report End**",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown report missing %q", want)
		}
	}
}

func TestGenerateMarkdownPreviewsLongArtifacts(t *testing.T) {
	iterations := sampleIterations()
	iterations[0].Artifact = strings.Repeat("long artifact text ", 100)

	out, err := Generate(SessionInfo{}, iterations, FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "...") {
		t.Error("long artifacts should be previewed with an ellipsis")
	}
}

func TestGenerateJSON(t *testing.T) {
	out, err := Generate(SessionInfo{Title: "t"}, sampleIterations(), FormatJSON)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var parsed struct {
		SessionInfo SessionInfo              `json:"session_info"`
		Iterations  []review.IterationExport `json:"iterations"`
		Summary     Summary                  `json:"summary"`
		Metadata    struct {
			ReportVersion string `json:"report_version"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if parsed.Metadata.ReportVersion != "1.0" {
		t.Errorf("report_version = %q, want 1.0", parsed.Metadata.ReportVersion)
	}
	if len(parsed.Iterations) != 2 {
		t.Errorf("iterations = %d, want 2", len(parsed.Iterations))
	}
	if parsed.Summary.FinalLevel != "HIGH" {
		t.Errorf("FinalLevel = %q, want HIGH", parsed.Summary.FinalLevel)
	}
}

func TestGenerateUnknownFormat(t *testing.T) {
	if _, err := Generate(SessionInfo{}, nil, Format("pdf")); err == nil {
		t.Error("unknown formats must fail")
	}
}

func TestGenerateEmptyHistoryMarkdown(t *testing.T) {
	out, err := Generate(SessionInfo{}, nil, FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "**Total Iterations:** 0") {
		t.Error("empty history should still render a header")
	}
}
