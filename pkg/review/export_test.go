package review

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRoundTrip(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 10)

	first, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	require.NoError(t, engine.Reject(first.Number))
	second, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	require.NoError(t, engine.Approve(second.Number))

	data, err := engine.MarshalHistory()
	require.NoError(t, err)

	var export HistoryExport
	require.NoError(t, json.Unmarshal(data, &export))
	require.Len(t, export.Iterations, 2)
	assert.True(t, export.Iterations[0].Rejected)
	assert.True(t, export.Iterations[1].Approved)
	assert.NotEmpty(t, export.Iterations[1].ConfidenceLevel)

	restored := newTestEngine(t, approvalPanel(), 10)
	require.NoError(t, restored.UnmarshalHistory(data))

	history := restored.History()
	require.Len(t, history, 2)
	assert.Equal(t, second.Artifact, history[1].Artifact)
	assert.Equal(t, second.Confidence, history[1].Confidence)
	assert.True(t, history[1].Approved)
	assert.False(t, restored.IsFinalized())

	// The restored session resumes exactly where the export stopped.
	third, err := restored.RunIteration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, third.Number)
}

func TestUnmarshalHistoryRejectsGaps(t *testing.T) {
	data := []byte(`{"iterations":[
		{"iteration_number":1,"artifact":"a","created_at":"2026-08-29T10:00:00Z"},
		{"iteration_number":3,"artifact":"b","created_at":"2026-08-29T10:05:00Z"}
	]}`)

	engine := newTestEngine(t, approvalPanel(), 10)
	err := engine.UnmarshalHistory(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not contiguous")
}

func TestUnmarshalHistoryRejectsBadTimestamp(t *testing.T) {
	data := []byte(`{"iterations":[{"iteration_number":1,"artifact":"a","created_at":"yesterday"}]}`)
	engine := newTestEngine(t, approvalPanel(), 10)
	assert.Error(t, engine.UnmarshalHistory(data))
}

func TestUnmarshalHistoryEnforcesCapacity(t *testing.T) {
	export := HistoryExport{Iterations: make([]IterationExport, 3)}
	for i := range export.Iterations {
		export.Iterations[i] = IterationExport{
			Number:    i + 1,
			Artifact:  "a",
			CreatedAt: "2026-08-29T10:00:00Z",
		}
	}
	data, err := json.Marshal(export)
	require.NoError(t, err)

	engine := newTestEngine(t, approvalPanel(), 2)
	err = engine.UnmarshalHistory(data)
	var capacity *CapacityExceededError
	require.ErrorAs(t, err, &capacity)
}

func TestExportIterationLevels(t *testing.T) {
	state := IterationState{Number: 1, Confidence: 0.91}
	assert.Equal(t, string(ConfidenceVeryHigh), ExportIteration(state).ConfidenceLevel)

	state.Confidence = 0.55
	assert.Equal(t, string(ConfidenceLow), ExportIteration(state).ConfidenceLevel)
}
