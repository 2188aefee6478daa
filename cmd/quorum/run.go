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

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kadirpekel/quorum/pkg/builder"
	"github.com/kadirpekel/quorum/pkg/config"
	"github.com/kadirpekel/quorum/pkg/metrics"
	"github.com/kadirpekel/quorum/pkg/provider"
	"github.com/kadirpekel/quorum/pkg/report"
	"github.com/kadirpekel/quorum/pkg/review"
	"github.com/kadirpekel/quorum/pkg/session"
)

// RunCmd runs an interactive review session.
type RunCmd struct {
	Requirements     string   `arg:"" optional:"" help:"Problem statement to review."`
	RequirementsFile string   `name:"requirements-file" help:"Read the problem statement from a file." type:"path"`
	ContextFiles     []string `name:"context-file" help:"Supporting documents summarized into the first draft." type:"path"`

	// Zero-config options
	Provider  string   `help:"Capability provider (openai, anthropic, mock)."`
	Model     string   `help:"Model name."`
	APIKey    string   `name:"api-key" help:"API key (defaults to environment variable)."`
	Reviewers []string `help:"Reviewer roles for the panel (technical, clarity, security, business, ux)."`

	// Output options
	Title        string `help:"Session title used in the report."`
	ReportFormat string `name:"report-format" help:"Final report format: markdown, json." default:"markdown" enum:"markdown,json"`
	Output       string `short:"o" help:"Write the final report to a file (default stdout)." type:"path"`
	HistoryOut   string `name:"history-out" help:"Write the full iteration history JSON to a file." type:"path"`

	// Observability options
	MetricsPort int `name:"metrics-port" help:"Serve prometheus metrics on this port (0 = disabled)."`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	requirements, err := c.resolveRequirements()
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig(cli.Config)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if c.MetricsPort > 0 {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		go serveMetrics(c.MetricsPort, reg)
	}

	summaries, err := summarizeContextFiles(c.ContextFiles)
	if err != nil {
		return err
	}

	engine, err := builder.NewEngine(cfg).
		WithRequirements(requirements).
		WithFileSummaries(summaries...).
		WithMetrics(m).
		Build()
	if err != nil {
		return err
	}

	sessions := session.InMemoryService()
	sess, err := sessions.Create(ctx, &session.CreateRequest{
		Title:        c.Title,
		Requirements: requirements,
		Engine:       engine,
	})
	if err != nil {
		return err
	}
	slog.Info("Session created", "session_id", sess.ID(), "provider", cfg.Provider.Type, "reviewers", len(cfg.Critics))

	if err := c.gateLoop(ctx, sess); err != nil {
		return err
	}
	return c.emitOutputs(cfg, sess)
}

// gateLoop runs iterations until the session finalizes, the iteration
// ceiling is hit, or the user quits.
func (c *RunCmd) gateLoop(ctx context.Context, sess *session.Session) error {
	engine := sess.Engine()
	stdin := bufio.NewScanner(os.Stdin)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		state, err := engine.RunIteration(ctx)
		if err != nil {
			return err
		}
		sess.Touch()
		printIteration(state, engine.Threshold())

		if state.Failed() {
			if !engine.CanRunNext() {
				fmt.Println("\nNo iterations remaining.")
				return nil
			}
			if !promptYesNo(stdin, "Iteration failed. Retry with a new iteration? [y/N] ") {
				return nil
			}
			continue
		}

		switch promptDecision(stdin) {
		case "a":
			if err := engine.Approve(state.Number); err != nil {
				return err
			}
			sess.Touch()
			if engine.ReadyForFinalization() {
				if promptYesNo(stdin, fmt.Sprintf("Confidence %.2f meets the threshold. Finalize? [y/N] ", state.Confidence)) {
					if _, err := engine.Finalize(); err != nil {
						return err
					}
					fmt.Println("\nSession finalized.")
					return nil
				}
			}
			if !engine.CanRunNext() {
				if promptYesNo(stdin, "Iteration limit reached. Finalize with the approved result? [y/N] ") {
					if _, err := engine.Finalize(); err != nil {
						return err
					}
					fmt.Println("\nSession finalized.")
				}
				return nil
			}
		case "r":
			if err := engine.Reject(state.Number); err != nil {
				return err
			}
			sess.Touch()
			if !engine.CanRunNext() {
				fmt.Println("\nNo iterations remaining.")
				return nil
			}
		case "q":
			return nil
		}
	}
}

func (c *RunCmd) resolveRequirements() (string, error) {
	if c.Requirements != "" && c.RequirementsFile != "" {
		return "", fmt.Errorf("give the problem statement as an argument or via --requirements-file, not both")
	}
	if c.RequirementsFile != "" {
		data, err := os.ReadFile(c.RequirementsFile)
		if err != nil {
			return "", fmt.Errorf("failed to read requirements file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if strings.TrimSpace(c.Requirements) == "" {
		return "", fmt.Errorf("a problem statement is required")
	}
	return c.Requirements, nil
}

// loadConfig loads configuration from file or creates zero-config with
// CLI overrides applied.
func (c *RunCmd) loadConfig(configPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		slog.Info("Loaded configuration", "path", configPath)
	} else {
		cfg, err = config.ZeroConfig()
		if err != nil {
			return nil, err
		}
		slog.Info("Using zero-config mode")
	}

	if c.Provider != "" {
		cfg.Provider.Type = config.ProviderType(c.Provider)
	}
	if c.Model != "" {
		cfg.Provider.Model = c.Model
	}
	if c.APIKey != "" {
		cfg.Provider.APIKey = c.APIKey
	}
	if len(c.Reviewers) > 0 {
		cfg.Critics = nil
		for _, role := range c.Reviewers {
			cfg.Critics = append(cfg.Critics, config.CriticConfig{Name: role})
		}
	}
	return config.ProcessConfigPipeline(cfg)
}

func (c *RunCmd) emitOutputs(cfg *config.Config, sess *session.Session) error {
	engine := sess.Engine()
	history := engine.History()
	if len(history) == 0 {
		return nil
	}

	exports := make([]review.IterationExport, len(history))
	for i, s := range history {
		exports[i] = review.ExportIteration(s)
	}

	criticNames := make([]string, len(cfg.Critics))
	for i, cc := range cfg.Critics {
		criticNames[i] = cc.Name
	}
	text, err := report.Generate(report.SessionInfo{
		SessionID:    sess.ID(),
		Title:        sess.Title(),
		Requirements: sess.Requirements(),
		Critics:      criticNames,
		Provider:     string(cfg.Provider.Type),
		CreatedAt:    sess.CreatedAt(),
	}, exports, report.Format(c.ReportFormat))
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		slog.Info("Report written", "path", c.Output)
	} else {
		fmt.Println()
		fmt.Println(text)
	}

	if c.HistoryOut != "" {
		data, err := engine.MarshalHistory()
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.HistoryOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}
		slog.Info("History written", "path", c.HistoryOut)
	}
	return nil
}

// summarizeContextFiles digests supporting documents into short
// summaries for the first draft.
func summarizeContextFiles(paths []string) ([]string, error) {
	var summaries []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read context file %q: %w", path, err)
		}
		text := string(data)
		tokens := provider.CountTokens(text)
		digest := provider.TruncateToBudget(text, 200)
		summaries = append(summaries, fmt.Sprintf("%s (%d tokens): %s", path, tokens, digest))
	}
	return summaries, nil
}

func serveMetrics(port int, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	slog.Info("Metrics endpoint ready", "addr", addr+"/metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Metrics server stopped", "error", err)
	}
}

func printIteration(state review.IterationState, threshold float64) {
	fmt.Printf("\n=== Iteration %d ===\n\n", state.Number)

	if state.Failed() {
		fmt.Printf("Iteration failed: %s\n", state.Error)
		return
	}

	fmt.Println(state.Artifact)

	fmt.Println("\n--- Reviewer feedback ---")
	for _, c := range state.Critiques {
		fmt.Printf("\n[%s]\n%s\n", c.CriticName, c.Text)
	}

	if state.MergedDecision.SummaryText != "" {
		fmt.Println("\n--- Board decision ---")
		fmt.Println(state.MergedDecision.SummaryText)
	}

	level := review.LevelFor(state.Confidence)
	fmt.Printf("\nConfidence: %.2f (%s, threshold %.2f)\n", state.Confidence, level, threshold)
	if state.Rationale != "" {
		fmt.Printf("Rationale: %s\n", state.Rationale)
	}
}

func promptDecision(stdin *bufio.Scanner) string {
	for {
		fmt.Print("\n[a]pprove, [r]eject, or [q]uit? ")
		if !stdin.Scan() {
			return "q"
		}
		switch strings.ToLower(strings.TrimSpace(stdin.Text())) {
		case "a", "approve":
			return "a"
		case "r", "reject":
			return "r"
		case "q", "quit":
			return "q"
		}
	}
}

func promptYesNo(stdin *bufio.Scanner, prompt string) bool {
	fmt.Print(prompt)
	if !stdin.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(stdin.Text()))
	return answer == "y" || answer == "yes"
}
