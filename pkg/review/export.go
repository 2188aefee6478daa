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
	"encoding/json"
	"fmt"
	"time"
)

// HistoryExport is the portable form of a session's full history.
type HistoryExport struct {
	ExportedAt string            `json:"exported_at"`
	Threshold  float64           `json:"confidence_threshold"`
	Finalized  bool              `json:"finalized"`
	Iterations []IterationExport `json:"iterations"`
}

// IterationExport is the portable form of one iteration. Timestamps
// are RFC 3339 strings so exports are readable and stable across
// machines.
type IterationExport struct {
	Number          int            `json:"iteration_number"`
	Artifact        string         `json:"artifact"`
	Critiques       []Critique     `json:"critiques"`
	MergedDecision  MergedDecision `json:"merged_decision"`
	Confidence      float64        `json:"confidence"`
	ConfidenceLevel string         `json:"confidence_level"`
	Rationale       string         `json:"rationale,omitempty"`
	Approved        bool           `json:"approved"`
	Rejected        bool           `json:"rejected,omitempty"`
	CreatedAt       string         `json:"created_at"`
	Error           string         `json:"error,omitempty"`
}

// ExportIteration converts an IterationState to its portable form.
func ExportIteration(s IterationState) IterationExport {
	return IterationExport{
		Number:          s.Number,
		Artifact:        s.Artifact,
		Critiques:       s.Critiques,
		MergedDecision:  s.MergedDecision,
		Confidence:      s.Confidence,
		ConfidenceLevel: string(LevelFor(s.Confidence)),
		Rationale:       s.Rationale,
		Approved:        s.Approved,
		Rejected:        s.Rejected,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
		Error:           s.Error,
	}
}

// ImportIteration converts a portable iteration back to state.
func ImportIteration(e IterationExport) (IterationState, error) {
	createdAt, err := time.Parse(time.RFC3339, e.CreatedAt)
	if err != nil {
		return IterationState{}, fmt.Errorf("iteration %d: bad created_at: %w", e.Number, err)
	}
	return IterationState{
		Number:         e.Number,
		Artifact:       e.Artifact,
		Critiques:      e.Critiques,
		MergedDecision: e.MergedDecision,
		Confidence:     e.Confidence,
		Rationale:      e.Rationale,
		Approved:       e.Approved,
		Rejected:       e.Rejected,
		CreatedAt:      createdAt,
		Error:          e.Error,
	}, nil
}

// MarshalHistory serializes the engine's history to JSON.
func (e *Engine) MarshalHistory() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	export := HistoryExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Threshold:  e.threshold,
		Finalized:  e.finalized,
		Iterations: make([]IterationExport, len(e.history)),
	}
	for i, s := range e.history {
		export.Iterations[i] = ExportIteration(s)
	}
	return json.MarshalIndent(export, "", "  ")
}

// UnmarshalHistory replaces the engine's history with a previously
// exported one. Iteration numbers must be contiguous from 1.
func (e *Engine) UnmarshalHistory(data []byte) error {
	var export HistoryExport
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	history := make([]IterationState, len(export.Iterations))
	for i, ie := range export.Iterations {
		if ie.Number != i+1 {
			return fmt.Errorf("history is not contiguous: position %d holds iteration %d", i+1, ie.Number)
		}
		state, err := ImportIteration(ie)
		if err != nil {
			return err
		}
		history[i] = state
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(history) > e.maxIterations {
		return &CapacityExceededError{Limit: e.maxIterations}
	}
	e.history = history
	e.finalized = export.Finalized
	return nil
}
