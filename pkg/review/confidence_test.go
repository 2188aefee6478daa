package review

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func approvingCritique() string {
	return strings.Join([]string{
		"VERDICT: APPROVE",
		"",
		"FINDINGS:",
		"1. The document is clear and the structure is solid throughout.",
		"",
		"SUGGESTED IMPROVEMENTS:",
		"- Nothing substantial, the draft is in good shape.",
	}, "\n")
}

func severeCritique() string {
	return strings.Join([]string{
		"VERDICT: REJECT",
		"",
		"FINDINGS:",
		"1. [Severity: CRITICAL] The design has a fundamental data loss problem.",
		"2. [Severity: CRITICAL] Secrets are exposed in the error path.",
		"3. [Severity: HIGH] Missing input validation on every endpoint.",
		"",
		"SUGGESTED IMPROVEMENTS:",
		"- Rework the persistence layer.",
	}, "\n")
}

func recordsFor(texts ...string) []CritiqueRecord {
	records := make([]CritiqueRecord, len(texts))
	for i, text := range texts {
		analysis, _ := ParseCritique(text)
		records[i] = CritiqueRecord{
			CriticName:     "critic",
			RawText:        text,
			Verdict:        analysis.Verdict,
			SeverityCounts: analysis.SeverityCounts,
			Improvement:    analysis.Improvement,
		}
	}
	return records
}

func TestComputeConfidenceEmpty(t *testing.T) {
	score := computeConfidence(nil, false)
	if score.Value != 0.5 {
		t.Errorf("empty panel score = %v, want 0.5", score.Value)
	}
	if score.Level != ConfidenceLow {
		t.Errorf("empty panel level = %v, want %v", score.Level, ConfidenceLow)
	}
}

func TestComputeConfidenceDeterministic(t *testing.T) {
	texts := []string{approvingCritique(), severeCritique(), approvingCritique()}
	first := computeConfidence(texts, false)
	for i := 0; i < 10; i++ {
		again := computeConfidence(texts, false)
		if again.Value != first.Value {
			t.Fatalf("run %d: score %v differs from first run %v", i, again.Value, first.Value)
		}
	}
}

func TestComputeConfidenceUnanimousApprovalScoresHigh(t *testing.T) {
	texts := []string{approvingCritique(), approvingCritique(), approvingCritique()}
	score := computeConfidence(texts, false)

	if score.Agreement != 1.0 {
		t.Errorf("Agreement = %v, want 1.0 for identical critiques", score.Agreement)
	}
	if score.Value < 0.9 {
		t.Errorf("score = %v, want >= 0.9 for unanimous clean approval", score.Value)
	}
}

func TestComputeConfidenceSplitPanelLandsMidBand(t *testing.T) {
	revision := strings.Join([]string{
		"VERDICT: NEEDS_REVISION",
		"",
		"FINDINGS:",
		"1. [Severity: HIGH] The failover section never states a recovery deadline.",
		"",
		"SUGGESTED IMPROVEMENTS:",
		"- Add a recovery time objective to the failover section.",
	}, "\n")

	score := computeConfidence([]string{approvingCritique(), approvingCritique(), revision}, false)

	if score.Agreement >= 1.0 || score.Agreement <= 0 {
		t.Errorf("Agreement = %v, want a partial value for a 2-of-3 split", score.Agreement)
	}
	switch score.Level {
	case ConfidenceMedium, ConfidenceHigh:
	default:
		t.Errorf("level = %v (score %v), want MEDIUM or HIGH for a 2-of-3 approval with one HIGH issue", score.Level, score.Value)
	}
}

func TestComputeConfidenceSevereFindingsScoreLow(t *testing.T) {
	severe := computeConfidence([]string{severeCritique(), severeCritique()}, false)
	clean := computeConfidence([]string{approvingCritique(), approvingCritique()}, false)
	if severe.Value >= clean.Value {
		t.Errorf("severe score %v should be below clean score %v", severe.Value, clean.Value)
	}
	if severe.Severity >= clean.Severity {
		t.Errorf("severity signal %v should be below clean %v", severe.Severity, clean.Severity)
	}
}

func TestComputeConfidenceWithinBounds(t *testing.T) {
	inputs := [][]string{
		{severeCritique()},
		{approvingCritique()},
		{severeCritique(), approvingCritique(), "garbage text with no structure"},
	}
	for _, texts := range inputs {
		score := computeConfidence(texts, false)
		if score.Value < 0 || score.Value > 1 {
			t.Errorf("score %v outside [0, 1]", score.Value)
		}
	}
}

func TestComputeConfidenceImprovementRaisesScore(t *testing.T) {
	tracked := strings.Join([]string{
		"VERDICT: APPROVE",
		"",
		"IMPROVEMENT TRACKING:",
		"- FIXED: token storage is now encrypted",
		"- FIXED: rollback step documented",
		"- FIXED: rate limiting section added",
	}, "\n")

	withTracking := computeConfidence([]string{tracked, tracked}, true)
	withoutPrior := computeConfidence([]string{tracked, tracked}, false)

	if !withTracking.Improved {
		t.Fatal("expected improvement tracking to engage")
	}
	if withTracking.Improvement <= 0.5 {
		t.Errorf("Improvement = %v, want > 0.5 for net fixes", withTracking.Improvement)
	}
	if withoutPrior.Improved {
		t.Error("improvement tracking must not engage without a prior iteration")
	}
	if withTracking.Value < withoutPrior.Value-1e-9 {
		t.Errorf("score with net fixes = %v, want >= %v for the same critique body", withTracking.Value, withoutPrior.Value)
	}
}

func TestImprovementSignalSaturation(t *testing.T) {
	manyFixes := strings.Repeat("- FIXED: issue resolved\n", 10)
	if got := improvementSignal([]string{manyFixes}); got != 1.0 {
		t.Errorf("improvementSignal = %v, want saturation at 1.0", got)
	}

	manyMisses := "NEW FINDINGS:\n" + strings.Repeat("1. [Severity: CRITICAL] regression\n", 20) +
		strings.Repeat("- NOT ADDRESSED: old issue\n", 10)
	if got := improvementSignal([]string{manyMisses}); got != 0.0 {
		t.Errorf("improvementSignal = %v, want floor at 0.0", got)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       ConfidenceLevel
	}{
		{0.95, ConfidenceVeryHigh},
		{0.90, ConfidenceVeryHigh},
		{0.82, ConfidenceHigh},
		{0.81, ConfidenceMedium},
		{0.70, ConfidenceMedium},
		{0.50, ConfidenceLow},
		{0.49, ConfidenceVeryLow},
		{0.0, ConfidenceVeryLow},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.confidence); got != tt.want {
			t.Errorf("LevelFor(%v) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestScorerDegradedRationale(t *testing.T) {
	scorer := NewScorer(ScorerConfig{Provider: failingProvider{errors.New("backend down")}})
	records := recordsFor(approvingCritique())

	score := scorer.Score(context.Background(), "artifact", records, false)
	if !score.Degraded {
		t.Error("expected degraded score when the rationale call fails")
	}
	if score.Rationale == "" {
		t.Error("expected fallback rationale text")
	}
	if score.Value != computeConfidence([]string{approvingCritique()}, false).Value {
		t.Error("rationale failure must not change the numeric score")
	}
}

func TestScorerWithoutProvider(t *testing.T) {
	scorer := NewScorer(ScorerConfig{})
	score := scorer.Score(context.Background(), "artifact", recordsFor(approvingCritique()), false)
	if score.Degraded {
		t.Error("no provider configured is not a degradation")
	}
	if score.Rationale == "" {
		t.Error("expected signal-derived rationale")
	}
}
