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

// Package builder assembles review engines from configuration.
package builder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/quorum/pkg/config"
	"github.com/kadirpekel/quorum/pkg/metrics"
	"github.com/kadirpekel/quorum/pkg/provider"
	"github.com/kadirpekel/quorum/pkg/review"
)

// EngineBuilder provides a fluent API for building review engines.
//
// Example:
//
//	engine, err := builder.NewEngine(cfg).
//	    WithRequirements("Design a rate limiter for the public API").
//	    WithLogger(logger).
//	    Build()
type EngineBuilder struct {
	cfg           *config.Config
	requirements  string
	fileSummaries []string
	prov          provider.Provider
	providers     *provider.Registry
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// NewEngine creates an engine builder from a processed config.
func NewEngine(cfg *config.Config) *EngineBuilder {
	return &EngineBuilder{cfg: cfg, providers: provider.NewRegistry()}
}

// Providers returns the registry of providers wired during Build.
func (b *EngineBuilder) Providers() *provider.Registry {
	return b.providers
}

// WithRequirements sets the problem statement the session reviews.
func (b *EngineBuilder) WithRequirements(requirements string) *EngineBuilder {
	b.requirements = requirements
	return b
}

// WithFileSummaries attaches supporting-document digests to the first
// draft.
func (b *EngineBuilder) WithFileSummaries(summaries ...string) *EngineBuilder {
	b.fileSummaries = append(b.fileSummaries, summaries...)
	return b
}

// WithProvider overrides the provider built from config. Useful for
// injecting scripted providers in tests.
func (b *EngineBuilder) WithProvider(p provider.Provider) *EngineBuilder {
	b.prov = p
	return b
}

// WithLogger sets the logger for all workflow components.
func (b *EngineBuilder) WithLogger(logger *slog.Logger) *EngineBuilder {
	b.logger = logger
	return b
}

// WithMetrics wires workflow counters.
func (b *EngineBuilder) WithMetrics(m *metrics.Metrics) *EngineBuilder {
	b.metrics = m
	return b
}

// Build assembles the engine.
func (b *EngineBuilder) Build() (*review.Engine, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("builder: config is required")
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	prov := b.prov
	if prov == nil {
		p, err := b.providers.CreateFromConfig(string(b.cfg.Provider.Type), &b.cfg.Provider)
		if err != nil {
			return nil, fmt.Errorf("builder: %w", err)
		}
		prov = p
	} else if _, exists := b.providers.Get(prov.Name()); !exists {
		if err := b.providers.RegisterProvider(prov.Name(), prov); err != nil {
			return nil, fmt.Errorf("builder: %w", err)
		}
	}

	critics, err := review.CriticsFromConfig(b.cfg.Critics)
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}

	generator, err := review.NewGenerator(review.GeneratorConfig{
		Provider: prov,
		Logger:   b.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}

	executor, err := review.NewExecutor(review.ExecutorConfig{
		Provider:      prov,
		Critics:       critics,
		MaxConcurrent: b.cfg.Workflow.MaxConcurrentCritics,
		CriticTimeout: time.Duration(b.cfg.Workflow.CriticTimeout) * time.Second,
		Logger:        b.logger,
		Metrics:       b.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}

	aggregator := review.NewAggregator(review.AggregatorConfig{
		Provider: prov,
		Logger:   b.logger,
		Metrics:  b.metrics,
	})

	scorer := review.NewScorer(review.ScorerConfig{
		Provider: prov,
		Logger:   b.logger,
		Metrics:  b.metrics,
	})

	return review.NewEngine(review.EngineConfig{
		Generator:           generator,
		Executor:            executor,
		Aggregator:          aggregator,
		Scorer:              scorer,
		Requirements:        b.requirements,
		FileSummaries:       b.fileSummaries,
		MaxIterations:       b.cfg.Workflow.MaxIterations,
		ConfidenceThreshold: b.cfg.Workflow.ConfidenceThreshold,
		Logger:              b.logger,
		Metrics:             b.metrics,
	})
}
