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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/quorum/pkg/metrics"
	"github.com/kadirpekel/quorum/pkg/provider"
)

// Executor fans critique calls out to the panel. All critics receive
// the same artifact and run concurrently, bounded by MaxConcurrent.
// A critic failure never aborts the panel; it produces a failed
// record.
type Executor struct {
	provider      provider.Provider
	critics       []CriticSpec
	maxConcurrent int
	criticTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	Provider      provider.Provider
	Critics       []CriticSpec
	MaxConcurrent int
	CriticTimeout time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("executor: provider is required")
	}
	if len(cfg.Critics) == 0 {
		return nil, fmt.Errorf("executor: at least one critic is required")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.CriticTimeout <= 0 {
		cfg.CriticTimeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Executor{
		provider:      cfg.Provider,
		critics:       cfg.Critics,
		maxConcurrent: cfg.MaxConcurrent,
		criticTimeout: cfg.CriticTimeout,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}, nil
}

// Execute runs every critic against the artifact. priorCritiques maps
// critic name to that critic's text from the previous iteration; pass
// nil on the first iteration. Results come back in the panel's
// configured order regardless of completion order.
func (e *Executor) Execute(ctx context.Context, artifact string, priorCritiques map[string]string) []CritiqueRecord {
	records := make([]CritiqueRecord, len(e.critics))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxConcurrent)

	for i, critic := range e.critics {
		group.Go(func() error {
			records[i] = e.runCritic(groupCtx, critic, artifact, priorCritiques[critic.Name])
			// Failures are captured in the record; never propagate so
			// the rest of the panel keeps running.
			return nil
		})
	}
	_ = group.Wait()

	return records
}

func (e *Executor) runCritic(ctx context.Context, critic CriticSpec, artifact, priorCritique string) CritiqueRecord {
	record := CritiqueRecord{CriticName: critic.Name}

	callCtx, cancel := context.WithTimeout(ctx, e.criticTimeout)
	defer cancel()

	start := time.Now()
	text, err := e.provider.Invoke(callCtx, critic.RolePrompt(priorCritique), ReviewInput(artifact), provider.Limits{
		MaxOutputTokens: critic.MaxTokens,
		Temperature:     critic.Temperature,
	})
	elapsed := time.Since(start)

	if err != nil && !provider.IsKind(err, provider.KindTruncated) {
		e.logger.Warn("critic failed", "critic", critic.Name, "duration", elapsed, "error", err)
		e.metrics.CriticFailed(critic.Name)
		record.Verdict = VerdictUnparseable
		record.Err = err
		return record
	}
	if err != nil {
		// Truncated output is still reviewable; keep the partial text.
		e.logger.Warn("critique truncated", "critic", critic.Name, "duration", elapsed)
	}

	record.RawText = text
	analysis, parsed := ParseCritique(text)
	if !parsed {
		e.logger.Warn("critique unparseable", "critic", critic.Name)
	}
	record.Verdict = analysis.Verdict
	record.SeverityCounts = analysis.SeverityCounts
	record.Improvement = analysis.Improvement

	e.logger.Debug("critique complete",
		"critic", critic.Name,
		"verdict", record.Verdict,
		"duration", elapsed)
	return record
}
