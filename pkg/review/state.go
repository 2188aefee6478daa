// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package review implements the iterative review workflow: a generator
// produces an artifact, a panel of critics evaluates it in parallel, the
// critiques are merged into a board decision, a confidence score is
// computed, and a human approves the iteration before the next one may
// start.
package review

import (
	"time"
)

// Verdict is a critic's overall judgement of an artifact.
type Verdict string

const (
	VerdictApprove       Verdict = "APPROVE"
	VerdictNeedsRevision Verdict = "NEEDS_REVISION"
	VerdictReject        Verdict = "REJECT"
	VerdictUnparseable   Verdict = "UNPARSEABLE"
)

// Severity buckets findings by impact.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists all buckets from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// ImprovementMarks are the per-critic counts of issue-tracking markers a
// critic emits on iterations after the first (FIXED / PARTIALLY FIXED /
// NOT ADDRESSED, plus severities of newly reported findings).
type ImprovementMarks struct {
	Fixed          int `json:"fixed"`
	PartiallyFixed int `json:"partially_fixed"`
	NotAddressed   int `json:"not_addressed"`
	NewCritical    int `json:"new_critical"`
	NewHigh        int `json:"new_high"`
}

// Net is the improvement balance: fixes reward, regressions penalize.
func (m ImprovementMarks) Net() float64 {
	return float64(m.Fixed)*1.0 +
		float64(m.PartiallyFixed)*0.5 -
		float64(m.NotAddressed)*0.3 -
		float64(m.NewCritical)*0.4 -
		float64(m.NewHigh)*0.2
}

// CritiqueRecord is one critic's output for one iteration. Records are
// ephemeral: they are produced by the Executor, consumed by the
// Aggregator and the Scorer, and only their formatted text survives
// inside IterationState.
type CritiqueRecord struct {
	CriticName     string
	RawText        string
	Verdict        Verdict
	SeverityCounts map[Severity]int
	Improvement    *ImprovementMarks
	Err            error
}

// Failed reports whether the critic's capability call errored out.
func (r CritiqueRecord) Failed() bool {
	return r.Err != nil
}

// Critique is the persisted form of a critic's output inside an
// IterationState: name plus formatted text (or an error marker).
type Critique struct {
	CriticName string `json:"critic_name"`
	Text       string `json:"text"`
	Failed     bool   `json:"failed,omitempty"`
}

// MergedDecision is the unified board decision produced by the
// Aggregator from all critique records of one iteration.
type MergedDecision struct {
	ConsensusIssues   []string         `json:"consensus_issues"`
	UniqueIssues      []string         `json:"unique_issues"`
	Conflicts         []string         `json:"conflicts"`
	RequiredChanges   []string         `json:"required_changes"`
	SeverityBreakdown map[Severity]int `json:"severity_breakdown"`
	SummaryText       string           `json:"summary_text"`

	// Degraded is set when the synthesis call failed and the decision
	// was assembled by the deterministic fallback instead.
	Degraded bool `json:"degraded,omitempty"`
}

// IterationState is the immutable record of one full review cycle.
// History is append-only: past entries never change except for the
// approval/rejection flags set through the engine.
type IterationState struct {
	Number         int            `json:"iteration_number"`
	Artifact       string         `json:"artifact"`
	Critiques      []Critique     `json:"critiques"`
	MergedDecision MergedDecision `json:"merged_decision"`
	Confidence     float64        `json:"confidence"`
	Rationale      string         `json:"rationale,omitempty"`
	Approved       bool           `json:"approved"`
	Rejected       bool           `json:"rejected,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`

	// Error holds the whole-iteration failure descriptor. When set the
	// iteration is terminal-failed and Confidence is zero.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the iteration terminated with an error.
func (s IterationState) Failed() bool {
	return s.Error != ""
}

// MeetsThreshold reports whether the iteration's confidence reaches the
// finalization threshold.
func (s IterationState) MeetsThreshold(threshold float64) bool {
	return !s.Failed() && s.Confidence >= threshold
}

// CritiqueText returns the persisted critique text for a critic name.
func (s IterationState) CritiqueText(criticName string) (string, bool) {
	for _, c := range s.Critiques {
		if c.CriticName == criticName {
			return c.Text, true
		}
	}
	return "", false
}

// ConfidenceLevel is a banded, human-readable label for a confidence
// score.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceMedium   ConfidenceLevel = "MEDIUM"
	ConfidenceLow      ConfidenceLevel = "LOW"
	ConfidenceVeryLow  ConfidenceLevel = "VERY_LOW"
)

// LevelFor maps a confidence score onto its band.
func LevelFor(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.90:
		return ConfidenceVeryHigh
	case confidence >= 0.82:
		return ConfidenceHigh
	case confidence >= 0.70:
		return ConfidenceMedium
	case confidence >= 0.50:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}
