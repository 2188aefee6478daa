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

// Package report renders review session reports in Markdown and JSON.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kadirpekel/quorum/pkg/review"
)

// Format selects the report output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// SessionInfo carries the session metadata printed in report headers.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	Requirements string    `json:"requirements"`
	Critics      []string  `json:"critics"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary is the high-level session digest.
type Summary struct {
	TotalIterations    int            `json:"total_iterations"`
	ApprovedIterations int            `json:"approved_iterations"`
	FailedIterations   int            `json:"failed_iterations"`
	FinalConfidence    float64        `json:"final_confidence"`
	FinalLevel         string         `json:"final_level"`
	TotalIssues        int            `json:"total_issues"`
	SeverityBreakdown  map[string]int `json:"severity_breakdown"`
}

// Summarize computes the session digest over an iteration history.
func Summarize(iterations []review.IterationExport) Summary {
	summary := Summary{
		TotalIterations:   len(iterations),
		SeverityBreakdown: make(map[string]int),
	}
	for _, it := range iterations {
		if it.Approved {
			summary.ApprovedIterations++
		}
		if it.Error != "" {
			summary.FailedIterations++
		}
		for sev, n := range it.MergedDecision.SeverityBreakdown {
			summary.SeverityBreakdown[string(sev)] += n
			summary.TotalIssues += n
		}
	}
	if len(iterations) > 0 {
		last := iterations[len(iterations)-1]
		summary.FinalConfidence = last.Confidence
		summary.FinalLevel = last.ConfidenceLevel
	}
	return summary
}

// Generate renders a full session report.
func Generate(info SessionInfo, iterations []review.IterationExport, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return generateJSON(info, iterations)
	case FormatMarkdown, "":
		return generateMarkdown(info, iterations), nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", format)
	}
}

const artifactPreviewLimit = 500

func generateMarkdown(info SessionInfo, iterations []review.IterationExport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Review Board Final Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n---\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Session Information\n\n")
	title := info.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "**Session:** %s\n", title)
	if info.SessionID != "" {
		fmt.Fprintf(&b, "**Session ID:** %s\n", info.SessionID)
	}
	fmt.Fprintf(&b, "**Total Iterations:** %d\n", len(iterations))
	if len(info.Critics) > 0 {
		fmt.Fprintf(&b, "**Reviewers:** %s\n", strings.Join(info.Critics, ", "))
	}
	if info.Provider != "" {
		fmt.Fprintf(&b, "**Provider:** %s\n", strings.ToUpper(info.Provider))
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## Original Requirements\n\n")
	if info.Requirements != "" {
		b.WriteString(info.Requirements)
	} else {
		b.WriteString("No requirements specified")
	}
	b.WriteString("\n\n---\n\n")

	b.WriteString("## Iteration History\n\n")
	for _, it := range iterations {
		fmt.Fprintf(&b, "### Iteration %d\n\n", it.Number)

		if it.Error != "" {
			fmt.Fprintf(&b, "**Status:** Failed (%s)\n\n", it.Error)
		}

		b.WriteString("#### Generated Output\n\n```\n")
		b.WriteString(preview(it.Artifact, artifactPreviewLimit))
		b.WriteString("\n```\n\n")

		if len(it.Critiques) > 0 {
			b.WriteString("#### Reviewer Feedback\n\n")
			for _, c := range it.Critiques {
				status := "Reviewed"
				if c.Failed {
					status = "Failed"
				}
				fmt.Fprintf(&b, "**%s** (%s)\n\n", c.CriticName, status)
				fmt.Fprintf(&b, "%s\n\n", c.Text)
			}
		}

		if it.MergedDecision.SummaryText != "" {
			b.WriteString("#### Board Decision\n\n")
			b.WriteString(it.MergedDecision.SummaryText)
			b.WriteString("\n\n")
		}

		b.WriteString("#### Confidence\n\n")
		fmt.Fprintf(&b, "**Score:** %.2f (%s)\n\n", it.Confidence, it.ConfidenceLevel)
		if it.Rationale != "" {
			fmt.Fprintf(&b, "**Reasoning:** %s\n\n", it.Rationale)
		}
		status := "Pending"
		switch {
		case it.Approved:
			status = "Approved"
		case it.Rejected:
			status = "Rejected"
		}
		fmt.Fprintf(&b, "**Human Gate:** %s\n\n---\n\n", status)
	}

	if len(iterations) > 0 {
		last := iterations[len(iterations)-1]
		b.WriteString("## Final Summary\n\n")
		b.WriteString("### Final Output\n\n")
		b.WriteString(last.Artifact)
		b.WriteString("\n\n")

		summary := Summarize(iterations)
		b.WriteString("### Quality Metrics\n\n")
		fmt.Fprintf(&b, "**Total Issues Identified:** %d\n", summary.TotalIssues)
		fmt.Fprintf(&b, "**Final Confidence:** %.2f (%s)\n", summary.FinalConfidence, summary.FinalLevel)
		fmt.Fprintf(&b, "**Approved Iterations:** %d of %d\n", summary.ApprovedIterations, summary.TotalIterations)

		if summary.TotalIssues > 0 {
			b.WriteString("\n**Severity Breakdown:**\n")
			for _, sev := range review.Severities {
				if n := summary.SeverityBreakdown[string(sev)]; n > 0 {
					fmt.Fprintf(&b, "- %s: %d\n", sev, n)
				}
			}
		}
	}

	b.WriteString("\n---\n\n**Report End**\n")
	return b.String()
}

type jsonReport struct {
	SessionInfo SessionInfo              `json:"session_info"`
	Iterations  []review.IterationExport `json:"iterations"`
	Summary     Summary                  `json:"summary"`
	Metadata    jsonReportMetadata       `json:"metadata"`
}

type jsonReportMetadata struct {
	GeneratedAt   string `json:"generated_at"`
	ReportVersion string `json:"report_version"`
}

func generateJSON(info SessionInfo, iterations []review.IterationExport) (string, error) {
	r := jsonReport{
		SessionInfo: info,
		Iterations:  iterations,
		Summary:     Summarize(iterations),
		Metadata: jsonReportMetadata{
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
			ReportVersion: "1.0",
		},
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report serialization failed: %w", err)
	}
	return string(data), nil
}

func preview(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
