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
	"sync"
	"time"

	"github.com/kadirpekel/quorum/pkg/metrics"
)

// DefaultMaxIterations caps how many review cycles one session may run.
const DefaultMaxIterations = 10

// Engine drives the iterative review workflow. Each call to
// RunIteration performs one full cycle (generate, critique, aggregate,
// score) and appends the result to the history; the human gate then
// decides through Approve or Reject before the next cycle may start.
//
// Engine is safe for concurrent use. RunIteration holds the engine
// lock for the whole cycle, so at most one iteration is ever in
// flight.
type Engine struct {
	mu sync.Mutex

	generator  *Generator
	executor   *Executor
	aggregator *Aggregator
	scorer     *Scorer

	requirements  string
	fileSummaries []string
	maxIterations int
	threshold     float64

	history   []IterationState
	finalized bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Generator  *Generator
	Executor   *Executor
	Aggregator *Aggregator
	Scorer     *Scorer

	// Requirements is the user's problem statement driving the first
	// draft.
	Requirements string

	// FileSummaries are optional supporting-document digests for the
	// first draft.
	FileSummaries []string

	MaxIterations       int     // default 10
	ConfidenceThreshold float64 // default 0.82

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("engine: generator is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("engine: executor is required")
	}
	if cfg.Aggregator == nil {
		return nil, fmt.Errorf("engine: aggregator is required")
	}
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("engine: scorer is required")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		generator:     cfg.Generator,
		executor:      cfg.Executor,
		aggregator:    cfg.Aggregator,
		scorer:        cfg.Scorer,
		requirements:  cfg.Requirements,
		fileSummaries: cfg.FileSummaries,
		maxIterations: cfg.MaxIterations,
		threshold:     cfg.ConfidenceThreshold,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		now:           time.Now,
	}, nil
}

// RunIteration performs one complete review cycle and appends it to
// the history. Preconditions are checked in order: the session must
// not be finalized, the iteration ceiling must not be reached, and the
// latest iteration must have been decided (approved, rejected, or
// failed). A pipeline failure is not an error return: the iteration is
// recorded as failed with its error descriptor and still gates on the
// human decision like any other iteration.
func (e *Engine) RunIteration(ctx context.Context) (IterationState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finalized {
		return IterationState{}, &SessionFinalizedError{}
	}
	if len(e.history) >= e.maxIterations {
		return IterationState{}, &CapacityExceededError{Limit: e.maxIterations}
	}
	if latest := e.latestLocked(); latest != nil && !latest.Approved && !latest.Rejected && !latest.Failed() {
		return IterationState{}, &ApprovalPendingError{Iteration: latest.Number}
	}

	number := len(e.history) + 1
	state := IterationState{
		Number:    number,
		CreatedAt: e.now(),
	}
	e.logger.Info("starting iteration", "iteration", number)

	input := e.generateInputLocked()
	artifact, err := e.generator.Generate(ctx, input)
	if err != nil {
		state.Error = fmt.Sprintf("generation failed: %v", err)
		e.logger.Error("iteration failed", "iteration", number, "error", err)
		e.metrics.IterationCompleted(true)
		e.history = append(e.history, state)
		return state, nil
	}
	state.Artifact = artifact

	records := e.executor.Execute(ctx, artifact, e.priorCritiquesLocked())
	state.Critiques = persistCritiques(records)
	if allFailed(records) {
		state.Error = "all critics failed"
		e.logger.Error("iteration failed", "iteration", number, "error", state.Error)
		e.metrics.IterationCompleted(true)
		e.history = append(e.history, state)
		return state, nil
	}

	state.MergedDecision = e.aggregator.Aggregate(ctx, records)

	hadPrior := len(e.priorCritiquesLocked()) > 0
	score := e.scorer.Score(ctx, artifact, records, hadPrior)
	state.Confidence = score.Value
	state.Rationale = score.Rationale

	e.metrics.IterationCompleted(false)
	e.logger.Info("iteration complete",
		"iteration", number,
		"confidence", fmt.Sprintf("%.2f", score.Value),
		"level", score.Level,
		"degraded", state.MergedDecision.Degraded || score.Degraded)

	e.history = append(e.history, state)
	return state, nil
}

// Approve marks an iteration as approved by the human gate. Only the
// latest iteration can be approved, and approving it twice is a no-op.
func (e *Engine) Approve(iteration int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	latest := e.latestLocked()
	if latest == nil {
		return &InvalidTransitionError{Op: "approve", Iteration: iteration, Reason: "no iterations have run"}
	}
	if iteration != latest.Number {
		return &InvalidTransitionError{Op: "approve", Iteration: iteration, Reason: fmt.Sprintf("only the latest iteration (%d) can be approved", latest.Number)}
	}
	if latest.Rejected {
		return &InvalidTransitionError{Op: "approve", Iteration: iteration, Reason: "iteration was rejected"}
	}
	if latest.Failed() {
		return &InvalidTransitionError{Op: "approve", Iteration: iteration, Reason: "iteration failed"}
	}
	if latest.Approved {
		return nil
	}
	latest.Approved = true
	e.logger.Info("iteration approved", "iteration", iteration)
	return nil
}

// Reject marks an iteration as rejected. Only the latest iteration can
// be rejected; the next RunIteration then redoes the cycle under a new
// iteration number, which still counts against the ceiling.
func (e *Engine) Reject(iteration int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	latest := e.latestLocked()
	if latest == nil {
		return &InvalidTransitionError{Op: "reject", Iteration: iteration, Reason: "no iterations have run"}
	}
	if iteration != latest.Number {
		return &InvalidTransitionError{Op: "reject", Iteration: iteration, Reason: fmt.Sprintf("only the latest iteration (%d) can be rejected", latest.Number)}
	}
	if latest.Approved {
		return &InvalidTransitionError{Op: "reject", Iteration: iteration, Reason: "iteration was already approved"}
	}
	if latest.Rejected {
		return nil
	}
	latest.Rejected = true
	e.logger.Info("iteration rejected", "iteration", iteration)
	return nil
}

// Finalize closes the session. The latest iteration must be approved;
// the confidence threshold is advisory and does not block an explicit
// human finalization.
func (e *Engine) Finalize() (IterationState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finalized {
		return IterationState{}, &SessionFinalizedError{}
	}
	latest := e.latestLocked()
	if latest == nil {
		return IterationState{}, &InvalidTransitionError{Op: "finalize", Reason: "no iterations have run"}
	}
	if !latest.Approved {
		return IterationState{}, &InvalidTransitionError{Op: "finalize", Iteration: latest.Number, Reason: "latest iteration is not approved"}
	}
	e.finalized = true
	e.logger.Info("session finalized", "iteration", latest.Number, "confidence", fmt.Sprintf("%.2f", latest.Confidence))
	return *latest, nil
}

// History returns a copy of all iteration states in order.
func (e *Engine) History() []IterationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]IterationState, len(e.history))
	copy(out, e.history)
	return out
}

// Latest returns the most recent iteration state, if any.
func (e *Engine) Latest() (IterationState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if latest := e.latestLocked(); latest != nil {
		return *latest, true
	}
	return IterationState{}, false
}

// IsFinalized reports whether the session has been closed.
func (e *Engine) IsFinalized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finalized
}

// ReadyForFinalization reports whether the latest iteration is approved
// and its confidence meets the threshold.
func (e *Engine) ReadyForFinalization() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	latest := e.latestLocked()
	return latest != nil && latest.Approved && latest.MeetsThreshold(e.threshold)
}

// CanRunNext reports whether another iteration may start right now.
func (e *Engine) CanRunNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalized || len(e.history) >= e.maxIterations {
		return false
	}
	latest := e.latestLocked()
	return latest == nil || latest.Approved || latest.Rejected || latest.Failed()
}

// Remaining reports how many iterations are left before the ceiling.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxIterations - len(e.history)
}

// Threshold returns the configured confidence threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Reset discards all history and reopens the session. The original
// requirements are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
	e.finalized = false
	e.logger.Info("engine reset")
}

func (e *Engine) latestLocked() *IterationState {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// generateInputLocked builds the generator input. Only approved
// iterations feed the refinement path: a rejected or failed iteration
// contributes neither its artifact nor its feedback.
func (e *Engine) generateInputLocked() GenerateInput {
	in := GenerateInput{
		Requirements:  e.requirements,
		FileSummaries: e.fileSummaries,
	}
	approved := e.latestApprovedLocked()
	if approved == nil {
		return in
	}
	in.PreviousArtifact = approved.Artifact
	in.Feedback = approved.MergedDecision.RequiredChanges
	if len(in.Feedback) == 0 && approved.MergedDecision.SummaryText != "" {
		in.Feedback = []string{approved.MergedDecision.SummaryText}
	}
	return in
}

// priorCritiquesLocked maps critic name to that critic's text from the
// latest approved iteration, for improvement tracking.
func (e *Engine) priorCritiquesLocked() map[string]string {
	approved := e.latestApprovedLocked()
	if approved == nil {
		return nil
	}
	prior := make(map[string]string, len(approved.Critiques))
	for _, c := range approved.Critiques {
		if !c.Failed && c.Text != "" {
			prior[c.CriticName] = c.Text
		}
	}
	return prior
}

func (e *Engine) latestApprovedLocked() *IterationState {
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].Approved {
			return &e.history[i]
		}
	}
	return nil
}

func persistCritiques(records []CritiqueRecord) []Critique {
	out := make([]Critique, len(records))
	for i, r := range records {
		out[i] = Critique{
			CriticName: r.CriticName,
			Text:       r.RawText,
			Failed:     r.Failed(),
		}
		if r.Failed() {
			out[i].Text = fmt.Sprintf("[critic failed: %v]", r.Err)
		}
	}
	return out
}

func allFailed(records []CritiqueRecord) bool {
	for _, r := range records {
		if !r.Failed() {
			return false
		}
	}
	return len(records) > 0
}
