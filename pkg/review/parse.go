package review

import (
	"regexp"
	"strings"
)

// Analysis is the structured signal extracted from one critique's prose.
// Extraction is best-effort: critics answer in free text, so every
// consumer must treat an unparseable critique as a defined default, not
// an error.
type Analysis struct {
	Verdict        Verdict
	SeverityCounts map[Severity]int
	Improvement    *ImprovementMarks
	Findings       []string
}

var (
	severityMarkerRe = regexp.MustCompile(`(?i)\[severity:\s*(critical|high|medium|low)`)
	priorityMarkerRe = regexp.MustCompile(`(?i)\[priority:\s*(critical|high|medium|low)`)
	findingLineRe    = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s+(.{10,})$`)
)

// ParseCritique extracts verdict, severity counts, finding lines, and
// improvement-tracking markers from critique text. The second return is
// false when the text carries no recognizable structure at all; the
// Analysis then holds VerdictUnparseable and zero counts.
func ParseCritique(text string) (Analysis, bool) {
	analysis := Analysis{
		Verdict:        VerdictUnparseable,
		SeverityCounts: make(map[Severity]int),
	}
	if strings.TrimSpace(text) == "" {
		return analysis, false
	}

	upper := strings.ToUpper(text)

	analysis.Verdict = parseVerdict(upper)
	analysis.SeverityCounts = countSeverities(upper)
	analysis.Findings = extractFindings(text)
	if marks, ok := parseImprovementMarks(upper); ok {
		analysis.Improvement = &marks
	}

	parsed := analysis.Verdict != VerdictUnparseable ||
		len(analysis.Findings) > 0 ||
		totalCount(analysis.SeverityCounts) > 0 ||
		analysis.Improvement != nil
	return analysis, parsed
}

// parseVerdict scans uppercased text for verdict keywords. APPROVE only
// counts when REJECT is absent, since "do not reject" style phrasing is
// rare but "approve after fixing" plus a REJECT quote is common.
func parseVerdict(upper string) Verdict {
	switch {
	case strings.Contains(upper, "NEEDS REVISION") || strings.Contains(upper, "NEEDS_REVISION"):
		return VerdictNeedsRevision
	case strings.Contains(upper, "REJECT"):
		return VerdictReject
	case strings.Contains(upper, "APPROVE"):
		return VerdictApprove
	default:
		return VerdictUnparseable
	}
}

// countSeverities counts explicit [Severity: X] markers when present,
// otherwise falls back to bare severity-word occurrences.
func countSeverities(upper string) map[Severity]int {
	counts := make(map[Severity]int)

	markers := severityMarkerRe.FindAllStringSubmatch(upper, -1)
	markers = append(markers, priorityMarkerRe.FindAllStringSubmatch(upper, -1)...)
	if len(markers) > 0 {
		for _, m := range markers {
			counts[Severity(strings.ToUpper(m[1]))]++
		}
		return counts
	}

	for _, sev := range Severities {
		if n := strings.Count(upper, string(sev)); n > 0 {
			counts[sev] = n
		}
	}
	return counts
}

// extractFindings pulls bullet/numbered lines out of the FINDINGS
// section when one exists, otherwise out of the whole text.
func extractFindings(text string) []string {
	lines := strings.Split(text, "\n")

	start, end := 0, len(lines)
	for i, line := range lines {
		upper := strings.ToUpper(strings.TrimSpace(line))
		if strings.HasPrefix(upper, "FINDINGS") {
			start = i + 1
			for j := start; j < len(lines); j++ {
				section := strings.ToUpper(strings.TrimSpace(lines[j]))
				if strings.HasPrefix(section, "SUGGESTED IMPROVEMENTS") ||
					strings.HasPrefix(section, "NEW FINDINGS") ||
					strings.HasPrefix(section, "IMPROVEMENT TRACKING") {
					end = j
					break
				}
			}
			break
		}
	}

	var findings []string
	for _, line := range lines[start:end] {
		if m := findingLineRe.FindStringSubmatch(line); m != nil {
			findings = append(findings, strings.TrimSpace(m[1]))
		}
	}
	return findings
}

// parseImprovementMarks counts the issue-tracking markers critics emit
// on iterations after the first. New-finding severities only count
// inside the NEW FINDINGS section so fixed issues are not re-penalized.
func parseImprovementMarks(upper string) (ImprovementMarks, bool) {
	marks := ImprovementMarks{
		PartiallyFixed: strings.Count(upper, "PARTIALLY FIXED:") + strings.Count(upper, "PARTIALLY_FIXED:"),
		NotAddressed:   strings.Count(upper, "NOT ADDRESSED:") + strings.Count(upper, "NOT_ADDRESSED:"),
	}
	// FIXED: also matches inside PARTIALLY FIXED:, so subtract the overlap.
	marks.Fixed = strings.Count(upper, "FIXED:") - marks.PartiallyFixed

	if idx := strings.Index(upper, "NEW FINDINGS"); idx >= 0 {
		section := upper[idx:]
		for _, m := range severityMarkerRe.FindAllStringSubmatch(section, -1) {
			switch Severity(strings.ToUpper(m[1])) {
			case SeverityCritical:
				marks.NewCritical++
			case SeverityHigh:
				marks.NewHigh++
			}
		}
	}

	present := marks.Fixed > 0 || marks.PartiallyFixed > 0 || marks.NotAddressed > 0 ||
		strings.Contains(upper, "IMPROVEMENT TRACKING")
	return marks, present
}

func totalCount(counts map[Severity]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
