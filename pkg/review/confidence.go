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
	"strings"

	"github.com/kadirpekel/quorum/pkg/metrics"
	"github.com/kadirpekel/quorum/pkg/provider"
)

// DefaultConfidenceThreshold is the minimum score at which an iteration
// is considered ready for finalization.
const DefaultConfidenceThreshold = 0.82

// Score is the convergence assessment for one iteration. Value is
// computed deterministically from the critique texts; Rationale is an
// optional narrative produced by a provider call.
type Score struct {
	Value     float64
	Level     ConfidenceLevel
	Rationale string

	// Signal breakdown, each in [0, 1].
	Agreement   float64
	Sentiment   float64
	Severity    float64
	Quality     float64
	Improvement float64

	// Improved is set when improvement tracking contributed to the
	// score (iteration 2+ with tracking markers present).
	Improved bool

	// Degraded is set when the rationale call failed and a canned
	// rationale was substituted. The numeric score is unaffected.
	Degraded bool
}

// Scorer computes confidence scores from critique records. The number
// is a pure function of the critique texts so identical inputs always
// score identically.
type Scorer struct {
	provider    provider.Provider
	temperature float64
	maxTokens   int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// ScorerConfig configures a Scorer.
type ScorerConfig struct {
	// Provider writes the score rationale. Nil skips the call; the
	// rationale is then derived from the signal breakdown.
	Provider    provider.Provider
	Temperature float64 // default 0.3
	MaxTokens   int     // default 500
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// NewScorer creates a Scorer.
func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scorer{
		provider:    cfg.Provider,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Score computes the confidence for an iteration. hadPrior reports
// whether a previous iteration's critiques were shown to the critics;
// improvement tracking only weighs in when hadPrior is set and the
// critiques actually carry tracking markers.
func (s *Scorer) Score(ctx context.Context, artifact string, records []CritiqueRecord, hadPrior bool) Score {
	texts := usableTexts(records)
	score := computeConfidence(texts, hadPrior)

	rationale, err := s.rationale(ctx, artifact, records, score)
	if err != nil {
		s.logger.Warn("score rationale call failed, using signal summary", "error", err)
		s.metrics.ScoringDegraded()
		rationale = signalRationale(score)
		score.Degraded = true
	}
	score.Rationale = rationale
	return score
}

func usableTexts(records []CritiqueRecord) []string {
	texts := make([]string, 0, len(records))
	for _, r := range records {
		if !r.Failed() && strings.TrimSpace(r.RawText) != "" {
			texts = append(texts, r.RawText)
		}
	}
	return texts
}

// computeConfidence is the deterministic scoring model. Without prior
// feedback the signals weigh agreement 40%, sentiment 25%, severity
// 25%, quality 10%. With improvement tracking present the weights
// shift to 30/20/20/10 plus improvement 20%.
func computeConfidence(texts []string, hadPrior bool) Score {
	if len(texts) == 0 {
		return Score{Value: 0.5, Level: LevelFor(0.5)}
	}

	score := Score{
		Agreement: agreementRatio(texts),
		Sentiment: sentimentConsistency(texts),
		Severity:  severitySignal(texts),
		Quality:   feedbackQuality(texts),
	}

	if hadPrior && hasImprovementTracking(texts) {
		score.Improved = true
		score.Improvement = improvementSignal(texts)
		score.Value = score.Agreement*0.30 +
			score.Sentiment*0.20 +
			score.Severity*0.20 +
			score.Quality*0.10 +
			score.Improvement*0.20
	} else {
		score.Value = score.Agreement*0.40 +
			score.Sentiment*0.25 +
			score.Severity*0.25 +
			score.Quality*0.10
	}

	score.Value = clamp01(score.Value)
	score.Level = LevelFor(score.Value)
	return score
}

// agreementRatio blends verdict agreement (70%) with keyword overlap
// (30%). A single critic agrees with itself perfectly.
func agreementRatio(texts []string) float64 {
	if len(texts) < 2 {
		return 1.0
	}

	verdictCounts := make(map[Verdict]int)
	for _, t := range texts {
		analysis, _ := ParseCritique(t)
		verdictCounts[analysis.Verdict]++
	}
	most := 0
	for _, n := range verdictCounts {
		if n > most {
			most = n
		}
	}
	verdictAgreement := float64(most) / float64(len(texts))

	allWords := make(map[string]bool)
	wordSets := make([]map[string]bool, 0, len(texts))
	for _, t := range texts {
		set := make(map[string]bool)
		for _, w := range wordRe.FindAllString(strings.ToLower(t), -1) {
			set[w] = true
			allWords[w] = true
		}
		wordSets = append(wordSets, set)
	}

	keywordOverlap := 0.5
	if len(allWords) > 0 {
		common := 0
	outer:
		for w := range wordSets[0] {
			for _, set := range wordSets[1:] {
				if !set[w] {
					continue outer
				}
			}
			common++
		}
		keywordOverlap = float64(common) / float64(len(allWords))
	}

	return verdictAgreement*0.7 + keywordOverlap*0.3
}

var (
	positiveKeywords = []string{"good", "excellent", "strong", "clear", "well", "approve", "solid"}
	negativeKeywords = []string{"issue", "problem", "error", "missing", "unclear", "weak", "reject", "critical"}
)

// sentimentConsistency scores how similarly the critics lean. Low
// variance in positive and negative keyword counts means the panel
// reads the artifact the same way.
func sentimentConsistency(texts []string) float64 {
	if len(texts) == 0 {
		return 0.5
	}

	positives := make([]float64, len(texts))
	negatives := make([]float64, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		for _, w := range positiveKeywords {
			if strings.Contains(lower, w) {
				positives[i]++
			}
		}
		for _, w := range negativeKeywords {
			if strings.Contains(lower, w) {
				negatives[i]++
			}
		}
	}

	const maxVariance = 10.0
	posConsistency := 1.0 - min1(variance(positives)/maxVariance)
	negConsistency := 1.0 - min1(variance(negatives)/maxVariance)
	return (posConsistency + negConsistency) / 2
}

// severitySignal inverts the weighted count of severity markers. Five
// critical findings per critic is the worst case.
func severitySignal(texts []string) float64 {
	var critical, high, medium, low int
	for _, t := range texts {
		upper := strings.ToUpper(t)
		critical += strings.Count(upper, "CRITICAL")
		high += strings.Count(upper, "HIGH")
		medium += strings.Count(upper, "MEDIUM")
		low += strings.Count(upper, "LOW")
	}
	if critical+high+medium+low == 0 {
		return 1.0
	}

	penalty := float64(critical)*1.0 + float64(high)*0.6 + float64(medium)*0.3 + float64(low)*0.1
	avgPenalty := penalty / float64(len(texts))
	const maxPenalty = 5.0
	return 1.0 - min1(avgPenalty/maxPenalty)
}

// feedbackQuality rewards critiques that are well sized and carry the
// expected structure (verdict, findings, suggestions).
func feedbackQuality(texts []string) float64 {
	if len(texts) == 0 {
		return 0.0
	}

	total := 0.0
	for _, t := range texts {
		length := len(t)
		var lengthScore float64
		switch {
		case length < 50:
			lengthScore = float64(length) / 50
		case length > 2000:
			over := float64(length-2000) / 2000
			if over > 0.5 {
				over = 0.5
			}
			lengthScore = 1.0 - over
		default:
			lengthScore = 1.0
		}

		upper := strings.ToUpper(t)
		structureScore := 0.0
		if strings.Contains(upper, "VERDICT") || strings.Contains(upper, "APPROVE") || strings.Contains(upper, "REJECT") {
			structureScore += 0.4
		}
		if strings.Contains(upper, "FINDING") || strings.Contains(upper, "ISSUE") {
			structureScore += 0.3
		}
		if strings.Contains(upper, "SUGGEST") || strings.Contains(upper, "RECOMMEND") {
			structureScore += 0.3
		}

		total += lengthScore*0.4 + structureScore*0.6
	}
	return total / float64(len(texts))
}

func hasImprovementTracking(texts []string) bool {
	markers := []string{"FIXED:", "PARTIALLY FIXED:", "NOT ADDRESSED:", "IMPROVEMENT TRACKING"}
	for _, t := range texts {
		upper := strings.ToUpper(t)
		for _, m := range markers {
			if strings.Contains(upper, m) {
				return true
			}
		}
	}
	return false
}

// improvementSignal maps the net fixed-versus-regressed balance onto
// [0, 1], where 0.5 means no net change and five net fixes saturate at
// 1.0.
func improvementSignal(texts []string) float64 {
	var net float64
	for _, t := range texts {
		if marks, ok := parseImprovementMarks(strings.ToUpper(t)); ok {
			net += marks.Net()
		}
	}

	const maxImprovement = 5.0
	switch {
	case net >= maxImprovement:
		return 1.0
	case net <= -maxImprovement:
		return 0.0
	default:
		return 0.5 + net/(2*maxImprovement)
	}
}

const scoringRole = `You are an expert evaluator assessing the quality and readiness of reviewed content.

Analyze the content and feedback to determine:
1. Overall quality of the content
2. Severity and quantity of issues raised
3. Whether the content is ready for approval

Respond with 2-3 sentences explaining the current quality and readiness. Do not include a numeric score.`

var scoringContentLimit = 1000

func (s *Scorer) rationale(ctx context.Context, artifact string, records []CritiqueRecord, score Score) (string, error) {
	if s.provider == nil {
		return signalRationale(score), nil
	}

	var b strings.Builder
	b.WriteString("PRESENTER CONTENT:\n")
	if len(artifact) > scoringContentLimit {
		artifact = artifact[:scoringContentLimit]
	}
	b.WriteString(artifact)
	b.WriteString("\n\nREVIEWER FEEDBACK SUMMARY:\n")
	for _, r := range records {
		if r.Failed() {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(r.CriticName))
		findings := extractFindings(r.RawText)
		if len(findings) > 5 {
			findings = findings[:5]
		}
		for i, f := range findings {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, f)
		}
	}
	fmt.Fprintf(&b, "\nComputed confidence: %.2f (%s)\n", score.Value, score.Level)

	text, err := s.provider.Invoke(ctx, scoringRole, b.String(), provider.Limits{
		MaxOutputTokens: s.maxTokens,
		Temperature:     s.temperature,
	})
	if err != nil && !provider.IsKind(err, provider.KindTruncated) {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("rationale call returned empty output")
	}
	return text, nil
}

// signalRationale derives a rationale sentence from the signal
// breakdown when no provider narrative is available.
func signalRationale(score Score) string {
	var driver string
	switch {
	case score.Severity < 0.5:
		driver = "severe findings dominate the reviews"
	case score.Agreement < 0.5:
		driver = "reviewers disagree on the verdict"
	case score.Improved && score.Improvement >= 0.7:
		driver = "prior issues are largely resolved"
	case score.Value >= DefaultConfidenceThreshold:
		driver = "reviewers broadly agree and few severe issues remain"
	default:
		driver = "moderate issues remain across the reviews"
	}
	return fmt.Sprintf("Confidence %.2f (%s): %s.", score.Value, score.Level, driver)
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(values))
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
