// Package testutils provides testing utilities for the quorum workflow.
package testutils

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/kadirpekel/quorum/pkg/builder"
	"github.com/kadirpekel/quorum/pkg/config"
	"github.com/kadirpekel/quorum/pkg/provider"
	"github.com/kadirpekel/quorum/pkg/review"
)

// TestConfig returns a minimal valid configuration for testing
func TestConfig() *config.Config {
	cfg := &config.Config{
		Provider: config.ProviderConfig{
			Type: config.ProviderMock,
		},
		Critics: []config.CriticConfig{
			{Name: "technical"},
			{Name: "clarity"},
		},
	}
	cfg.PreProcess()
	cfg.SetDefaults()
	return cfg
}

// TestCriticConfig returns a minimal valid critic configuration for testing
func TestCriticConfig(name string) config.CriticConfig {
	cc := config.CriticConfig{Name: name, Role: name}
	cc.SetDefaults()
	return cc
}

// TestEngine builds an engine wired to the given provider, ready to
// run iterations against the mock panel in TestConfig.
func TestEngine(p provider.Provider, requirements string) (*review.Engine, error) {
	return builder.NewEngine(TestConfig()).
		WithRequirements(requirements).
		WithProvider(p).
		Build()
}

// TestContext returns a context with timeout for testing
func TestContext() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	// Note: We don't call cancel here because this is a test utility
	// that returns a context for immediate use. The context will be
	// automatically cancelled when the timeout expires.
	_ = cancel // Explicitly ignore to satisfy linter
	return ctx
}

// TestContextWithTimeout returns a context with custom timeout for testing
func TestContextWithTimeout(timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	_ = cancel // Explicitly ignore to satisfy linter
	return ctx
}

// CritiqueText builds a parseable critique for tests.
func CritiqueText(verdict string, findings ...string) string {
	lines := []string{"VERDICT: " + verdict, "", "FINDINGS:"}
	for i, f := range findings {
		lines = append(lines, numbered(i+1)+" "+f)
	}
	lines = append(lines, "", "SUGGESTED IMPROVEMENTS:", "- Tighten the summary.")
	return strings.Join(lines, "\n")
}

// TrackedCritiqueText builds a critique carrying improvement tracking
// markers for iteration 2+ tests.
func TrackedCritiqueText(verdict string, fixed, notAddressed int, newFindings ...string) string {
	lines := []string{"VERDICT: " + verdict, "", "IMPROVEMENT TRACKING:"}
	for i := 0; i < fixed; i++ {
		lines = append(lines, "- FIXED: prior issue resolved")
	}
	for i := 0; i < notAddressed; i++ {
		lines = append(lines, "- NOT ADDRESSED: prior issue remains")
	}
	if len(newFindings) > 0 {
		lines = append(lines, "", "NEW FINDINGS:")
		for i, f := range newFindings {
			lines = append(lines, numbered(i+1)+" "+f)
		}
	}
	return strings.Join(lines, "\n")
}

func numbered(n int) string {
	return strconv.Itoa(n) + "."
}
