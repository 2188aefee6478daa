package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/quorum/pkg/provider"
)

// failingProvider errors on every call.
type failingProvider struct {
	err error
}

func (p failingProvider) Name() string { return "failing" }

func (p failingProvider) Invoke(ctx context.Context, role, input string, limits provider.Limits) (string, error) {
	return "", p.err
}

// scriptedProvider routes calls by role content, mirroring the panel's
// shape: the writer, the reviewers, the board chair, the evaluator.
type scriptedProvider struct {
	artifact  string
	critiques map[string]string // critic role fragment -> critique
	board     string
	rationale string
	failRoles map[string]error // role fragment -> error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Invoke(ctx context.Context, role, input string, limits provider.Limits) (string, error) {
	for fragment, err := range p.failRoles {
		if fragment != "" && contains(role, fragment) {
			return "", err
		}
	}
	for fragment, critique := range p.critiques {
		if contains(role, fragment) {
			return critique, nil
		}
	}
	switch {
	case contains(role, "Board Chair"):
		return p.board, nil
	case contains(role, "expert evaluator"):
		return p.rationale, nil
	default:
		return p.artifact, nil
	}
}

func contains(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}

// critiqueText builds a minimal parseable critique.
func critiqueText(verdict string, findings ...string) string {
	lines := []string{"VERDICT: " + verdict, "", "FINDINGS:"}
	for i, f := range findings {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, f))
	}
	lines = append(lines, "", "SUGGESTED IMPROVEMENTS:", "- Tighten the summary.")
	return strings.Join(lines, "\n")
}
