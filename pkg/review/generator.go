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

	"github.com/kadirpekel/quorum/pkg/provider"
)

const generatorRole = "professional technical writer"

const initialPromptTemplate = `You are a professional technical writer tasked with creating a clear, comprehensive problem summary.

USER REQUIREMENTS:
%s

%sYour task is to analyze these requirements and create a structured problem summary that will be reviewed by multiple expert reviewers.

Generate a response in the following format:

# TITLE
[A clear, concise title for this problem/project]

## EXECUTIVE SUMMARY
[2-3 sentences summarizing the core problem and proposed solution]

## DETAILED DESCRIPTION
[Comprehensive description of the problem, context, and current situation]

## KEY REQUIREMENTS
[Bulleted list of specific requirements]

## CONSTRAINTS
[Any technical, business, or resource constraints]

## OPEN QUESTIONS
[Questions that need to be answered]

Be thorough, clear, and professional. This summary will be used by reviewers to provide feedback.`

const refinementPromptTemplate = `You are a professional technical writer refining a problem summary based on reviewer feedback.

PREVIOUS VERSION:
%s

APPROVED REVIEWER FEEDBACK:
%s

Your task is to revise the problem summary to address the feedback while maintaining the same structure (TITLE, EXECUTIVE SUMMARY, DETAILED DESCRIPTION, KEY REQUIREMENTS, CONSTRAINTS, OPEN QUESTIONS).

Address all feedback points while maintaining clarity and professionalism.`

// Generator produces the artifact for each iteration: an initial
// draft from the raw requirements, then refinements from the previous
// artifact plus the approved feedback.
type Generator struct {
	provider    provider.Provider
	temperature float64
	maxTokens   int
	inputBudget int
	logger      *slog.Logger
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Provider    provider.Provider
	Temperature float64 // default 0.7
	MaxTokens   int     // default 3000
	InputBudget int     // token cap for prompt context, 0 disables truncation
	Logger      *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("generator: provider is required")
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 3000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{
		provider:    cfg.Provider,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		inputBudget: cfg.InputBudget,
		logger:      cfg.Logger,
	}, nil
}

// GenerateInput carries everything the generator needs for one call.
type GenerateInput struct {
	// Requirements is the user's original problem statement.
	Requirements string

	// FileSummaries are optional digests of supporting documents,
	// included only in the initial draft.
	FileSummaries []string

	// PreviousArtifact and Feedback trigger refinement when both are
	// set. Feedback must come from an approved iteration only.
	PreviousArtifact string
	Feedback         []string
}

// Generate produces a new artifact. Truncated provider output is kept
// as a usable partial artifact.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (string, error) {
	if strings.TrimSpace(in.Requirements) == "" && in.PreviousArtifact == "" {
		return "", fmt.Errorf("generator: requirements are required")
	}

	var input string
	if in.PreviousArtifact != "" && len(in.Feedback) > 0 {
		var fb strings.Builder
		for _, f := range in.Feedback {
			fb.WriteString("- ")
			fb.WriteString(f)
			fb.WriteString("\n")
		}
		input = fmt.Sprintf(refinementPromptTemplate, g.budget(in.PreviousArtifact), fb.String())
	} else {
		input = fmt.Sprintf(initialPromptTemplate, in.Requirements, fileContext(in.FileSummaries))
	}

	text, err := g.provider.Invoke(ctx, generatorRole, g.budget(input), provider.Limits{
		MaxOutputTokens: g.maxTokens,
		Temperature:     g.temperature,
	})
	if err != nil && !provider.IsKind(err, provider.KindTruncated) {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if err != nil {
		g.logger.Warn("generated artifact truncated by provider")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("generation failed: provider returned empty output")
	}
	return text, nil
}

func (g *Generator) budget(text string) string {
	if g.inputBudget <= 0 {
		return text
	}
	truncated := provider.TruncateToBudget(text, g.inputBudget)
	if len(truncated) < len(text) {
		g.logger.Debug("prompt context truncated to token budget", "budget", g.inputBudget)
	}
	return truncated
}

func fileContext(summaries []string) string {
	if len(summaries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("UPLOADED FILES CONTEXT:\n")
	for i, s := range summaries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\n")
	return b.String()
}
