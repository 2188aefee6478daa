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

package review

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/kadirpekel/quorum/pkg/metrics"
	"github.com/kadirpekel/quorum/pkg/provider"
)

const boardChairRole = `You are the Board Chair of a review board.

You have received feedback from multiple specialized reviewers about the same content.
Your job is to synthesize their feedback into a unified, actionable recommendation.

Your task:

1. Identify Common Issues: What do multiple reviewers agree on?
2. Detect Conflicts: Where do reviewers disagree? How should we resolve?
3. Prioritize Changes: What must be fixed vs what's optional?
4. Assess Risks: What are the biggest concerns?
5. Highlight Strengths: What did reviewers approve?

Provide your unified board decision in this format:

BOARD DECISION
==============

CONSENSUS ISSUES (mentioned by 2+ reviewers):
- [Priority: CRITICAL/HIGH/MEDIUM/LOW] Issue description

UNIQUE CONCERNS:
- [Reviewer: Name] Concern description

CONFLICTING OPINIONS:
- Conflict: Description
- Resolution: Recommended approach

REQUIRED CHANGES:
1. [Priority: CRITICAL] Change description with rationale
2. [Priority: HIGH] Change description with rationale

OPTIONAL IMPROVEMENTS:
1. [Priority: MEDIUM] Improvement description

IDENTIFIED STRENGTHS:
- Strength 1

RISK ASSESSMENT:
- [Risk Level: HIGH/MEDIUM/LOW] Risk description

RECOMMENDATION:
[APPROVE / APPROVE WITH CHANGES / NEEDS MAJOR REVISION / REJECT]

Be concise, specific, and actionable. Focus on creating a clear action plan.`

// Aggregator merges the panel's critiques into one board decision. The
// narrative summary is synthesized by a provider call; the structured
// fields (consensus, conflicts, severity breakdown) are always computed
// deterministically so the decision is useful even when the synthesis
// call fails.
type Aggregator struct {
	provider    provider.Provider
	temperature float64
	maxTokens   int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Provider synthesizes the narrative summary. Nil disables
	// synthesis; every decision uses the deterministic fallback.
	Provider    provider.Provider
	Temperature float64 // default 0.3, low for consistency
	MaxTokens   int     // default 2000
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// NewAggregator creates an Aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Aggregator{
		provider:    cfg.Provider,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Aggregate merges the critique records of one iteration. Failed
// records contribute nothing; an all-failed or empty panel yields a
// degraded decision that says so.
func (a *Aggregator) Aggregate(ctx context.Context, records []CritiqueRecord) MergedDecision {
	usable := make([]CritiqueRecord, 0, len(records))
	for _, r := range records {
		if !r.Failed() && strings.TrimSpace(r.RawText) != "" {
			usable = append(usable, r)
		}
	}

	decision := MergedDecision{
		ConsensusIssues:   consensusIssues(usable),
		UniqueIssues:      uniqueIssues(usable),
		Conflicts:         detectConflicts(usable),
		SeverityBreakdown: severityBreakdown(usable),
	}

	if len(usable) == 0 {
		decision.SummaryText = "No reviewer feedback available. Cannot aggregate."
		decision.Degraded = true
		return decision
	}

	summary, err := a.synthesize(ctx, usable)
	if err != nil {
		a.logger.Warn("board synthesis failed, using fallback aggregation", "error", err)
		a.metrics.AggregationDegraded()
		summary = fallbackSummary(usable)
		decision.Degraded = true
	}
	decision.SummaryText = summary
	decision.RequiredChanges = extractRequiredChanges(summary)
	if len(decision.RequiredChanges) == 0 {
		decision.RequiredChanges = topFindings(usable, 10)
	}
	return decision
}

func (a *Aggregator) synthesize(ctx context.Context, records []CritiqueRecord) (string, error) {
	if a.provider == nil {
		return "", fmt.Errorf("no synthesis provider configured")
	}

	var b strings.Builder
	b.WriteString("REVIEWER FEEDBACK:\n\n")
	for _, r := range records {
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", r.CriticName, r.RawText)
	}

	text, err := a.provider.Invoke(ctx, boardChairRole, b.String(), provider.Limits{
		MaxOutputTokens: a.maxTokens,
		Temperature:     a.temperature,
	})
	if err != nil && !provider.IsKind(err, provider.KindTruncated) {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("synthesis returned empty output")
	}
	return text, nil
}

// fallbackSummary assembles a board decision from deterministic rules
// when synthesis is unavailable.
func fallbackSummary(records []CritiqueRecord) string {
	var lines []string

	lines = append(lines,
		"BOARD DECISION (Fallback Mode)",
		strings.Repeat("=", 50),
		"",
		fmt.Sprintf("TOTAL REVIEWERS: %d", len(records)),
		"")

	var approvals, rejections, revisions int
	for _, r := range records {
		switch r.Verdict {
		case VerdictApprove:
			approvals++
		case VerdictReject:
			rejections++
		case VerdictNeedsRevision:
			revisions++
		}
	}

	lines = append(lines,
		"VERDICT SUMMARY:",
		fmt.Sprintf("- Approvals: %d", approvals),
		fmt.Sprintf("- Needs Revision: %d", revisions),
		fmt.Sprintf("- Rejections: %d", rejections),
		"")

	var issues []string
	for _, r := range records {
		for _, f := range extractFindings(r.RawText) {
			issues = append(issues, fmt.Sprintf("[%s] %s", r.CriticName, f))
		}
	}
	if len(issues) > 0 {
		lines = append(lines, "ALL IDENTIFIED ISSUES:")
		if len(issues) > 15 {
			issues = issues[:15]
		}
		lines = append(lines, issues...)
		lines = append(lines, "")
	}

	switch {
	case rejections*2 > len(records):
		lines = append(lines, "RECOMMENDATION: NEEDS MAJOR REVISION")
	case approvals*2 > len(records):
		lines = append(lines, "RECOMMENDATION: APPROVE WITH MINOR CHANGES")
	default:
		lines = append(lines, "RECOMMENDATION: NEEDS REVISION")
	}

	return strings.Join(lines, "\n")
}

// detectConflicts reports critics whose verdicts oppose each other.
func detectConflicts(records []CritiqueRecord) []string {
	var approving, rejecting []string
	for _, r := range records {
		switch r.Verdict {
		case VerdictApprove:
			approving = append(approving, r.CriticName)
		case VerdictReject:
			rejecting = append(rejecting, r.CriticName)
		}
	}
	if len(approving) == 0 || len(rejecting) == 0 {
		return nil
	}
	return []string{fmt.Sprintf(
		"Verdict conflict: %d reviewer(s) approve (%s), while %d reject (%s)",
		len(approving), strings.Join(approving, ", "),
		len(rejecting), strings.Join(rejecting, ", "))}
}

var wordRe = regexp.MustCompile(`\b\w{4,}\b`)

// consensusIssues finds recurring terms mentioned by two or more
// critics, most widely shared first.
func consensusIssues(records []CritiqueRecord) []string {
	if len(records) < 2 {
		return nil
	}

	mentions := make(map[string]map[string]bool)
	for _, r := range records {
		for _, w := range wordRe.FindAllString(strings.ToLower(r.RawText), -1) {
			if mentions[w] == nil {
				mentions[w] = make(map[string]bool)
			}
			mentions[w][r.CriticName] = true
		}
	}

	type shared struct {
		word  string
		count int
	}
	var items []shared
	for w, critics := range mentions {
		if len(critics) >= 2 && !stopword(w) {
			items = append(items, shared{w, len(critics)})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].word < items[j].word
	})
	if len(items) > 10 {
		items = items[:10]
	}

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = fmt.Sprintf("%s (mentioned by %d reviewers)", it.word, it.count)
	}
	return out
}

// uniqueIssues collects findings raised by exactly one critic.
func uniqueIssues(records []CritiqueRecord) []string {
	seen := make(map[string][]int)
	findings := make([][]string, len(records))
	for i, r := range records {
		findings[i] = extractFindings(r.RawText)
		for _, f := range findings[i] {
			key := normalizeFinding(f)
			seen[key] = append(seen[key], i)
		}
	}

	var out []string
	for i, r := range records {
		for _, f := range findings[i] {
			if len(seen[normalizeFinding(f)]) == 1 {
				out = append(out, fmt.Sprintf("[%s] %s", r.CriticName, f))
			}
		}
	}
	if len(out) > 15 {
		out = out[:15]
	}
	return out
}

func normalizeFinding(f string) string {
	return strings.Join(strings.Fields(strings.ToLower(f)), " ")
}

func severityBreakdown(records []CritiqueRecord) map[Severity]int {
	breakdown := make(map[Severity]int, len(Severities))
	for _, sev := range Severities {
		breakdown[sev] = 0
	}
	for _, r := range records {
		for sev, n := range r.SeverityCounts {
			breakdown[sev] += n
		}
	}
	return breakdown
}

func topFindings(records []CritiqueRecord, limit int) []string {
	var out []string
	for _, r := range records {
		out = append(out, extractFindings(r.RawText)...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// extractRequiredChanges pulls the REQUIRED CHANGES section out of a
// synthesized board decision.
func extractRequiredChanges(summary string) []string {
	var changes []string
	inSection := false

	for _, line := range strings.Split(summary, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(strings.ToUpper(trimmed), "REQUIRED CHANGES") {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		// Next section header ends the block.
		if trimmed != "" && trimmed == strings.ToUpper(trimmed) && strings.Contains(trimmed, ":") {
			break
		}
		if trimmed == "" {
			continue
		}
		if c := trimmed[0]; c == '-' || c == '*' || (c >= '0' && c <= '9') {
			changes = append(changes, trimmed)
		}
	}
	return changes
}

// stopword filters structural template words out of consensus mining.
func stopword(w string) bool {
	switch w {
	case "severity", "critical", "high", "medium", "low", "verdict",
		"findings", "finding", "suggested", "improvements", "approve",
		"needs", "revision", "reject", "with", "that", "this", "have",
		"from", "should", "could", "would", "will", "been", "were",
		"which", "there", "their", "about", "more", "some", "also":
		return true
	}
	return false
}
