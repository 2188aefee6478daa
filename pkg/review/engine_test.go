package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/quorum/pkg/provider"
)

func newTestEngine(t *testing.T, p provider.Provider, maxIterations int) *Engine {
	t.Helper()

	gen, err := NewGenerator(GeneratorConfig{Provider: p})
	require.NoError(t, err)
	exec, err := NewExecutor(ExecutorConfig{Provider: p, Critics: panelOf("alpha", "beta")})
	require.NoError(t, err)

	engine, err := NewEngine(EngineConfig{
		Generator:     gen,
		Executor:      exec,
		Aggregator:    NewAggregator(AggregatorConfig{Provider: p}),
		Scorer:        NewScorer(ScorerConfig{}),
		Requirements:  "Design a session-scoped rate limiter.",
		MaxIterations: maxIterations,
	})
	require.NoError(t, err)
	return engine
}

func approvalPanel() *scriptedProvider {
	return &scriptedProvider{
		artifact: "TITLE: Rate Limiter Design\n\nEXECUTIVE SUMMARY:\nA token bucket per session.",
		critiques: map[string]string{
			"alpha reviewer": critiqueText("APPROVE", "Solid approach, nothing blocking."),
			"beta reviewer":  critiqueText("APPROVE", "Clear and complete."),
		},
		board:     "BOARD DECISION\n\nREQUIRED CHANGES:\n1. Document the refill interval.\n\nRECOMMENDATION: APPROVE WITH CHANGES",
		rationale: "Reviewers agree the design is sound.",
	}
}

func TestRunIterationRequiresDecisionBeforeNext(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 10)

	first, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.False(t, first.Failed())

	_, err = engine.RunIteration(context.Background())
	var pending *ApprovalPendingError
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, 1, pending.Iteration)

	require.NoError(t, engine.Approve(1))
	second, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)
}

func TestApproveRules(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 10)

	var invalid *InvalidTransitionError
	require.ErrorAs(t, engine.Approve(1), &invalid, "approving before any iteration ran")

	_, err := engine.RunIteration(context.Background())
	require.NoError(t, err)

	assert.ErrorAs(t, engine.Approve(7), &invalid, "only the latest iteration is approvable")
	require.NoError(t, engine.Approve(1))
	assert.NoError(t, engine.Approve(1), "approving twice is a no-op")
	assert.ErrorAs(t, engine.Reject(1), &invalid, "an approved iteration cannot be rejected")
}

func TestRejectStartsNewIterationNumber(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 10)

	_, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	require.NoError(t, engine.Reject(1))
	assert.NoError(t, engine.Reject(1), "rejecting twice is a no-op")
	assert.ErrorAs(t, engine.Approve(1), new(*InvalidTransitionError), "a rejected iteration cannot be approved")

	next, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, next.Number, "rejection redoes the cycle under a fresh number")
	assert.Len(t, engine.History(), 2, "the rejected iteration stays in history")
}

func TestIterationCeiling(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 2)

	for i := 1; i <= 2; i++ {
		state, err := engine.RunIteration(context.Background())
		require.NoError(t, err)
		if i < 2 {
			require.NoError(t, engine.Reject(state.Number))
		}
	}
	assert.Equal(t, 0, engine.Remaining())
	assert.False(t, engine.CanRunNext())

	require.NoError(t, engine.Reject(2))
	_, err := engine.RunIteration(context.Background())
	var capacity *CapacityExceededError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, 2, capacity.Limit)
}

func TestFinalizeRequiresApproval(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 10)

	_, err := engine.Finalize()
	assert.ErrorAs(t, err, new(*InvalidTransitionError), "finalize with no iterations")

	_, err = engine.RunIteration(context.Background())
	require.NoError(t, err)
	_, err = engine.Finalize()
	assert.ErrorAs(t, err, new(*InvalidTransitionError), "finalize without approval")

	require.NoError(t, engine.Approve(1))
	final, err := engine.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 1, final.Number)
	assert.True(t, engine.IsFinalized())

	_, err = engine.RunIteration(context.Background())
	assert.ErrorAs(t, err, new(*SessionFinalizedError), "a finalized session accepts no more work")
	_, err = engine.Finalize()
	assert.ErrorAs(t, err, new(*SessionFinalizedError), "finalize is terminal")
}

func TestGenerationFailureRecordsFailedIteration(t *testing.T) {
	engine := newTestEngine(t, failingProvider{err: errors.New("upstream down")}, 10)

	state, err := engine.RunIteration(context.Background())
	require.NoError(t, err, "a pipeline failure is recorded, not returned")
	assert.True(t, state.Failed())
	assert.Contains(t, state.Error, "generation failed")
	assert.Zero(t, state.Confidence)

	assert.ErrorAs(t, engine.Approve(1), new(*InvalidTransitionError), "a failed iteration cannot be approved")

	// The failed iteration does not block the gate; a retry starts
	// iteration 2 without an explicit decision.
	next, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, next.Number)
}

func TestAllCriticsFailedRecordsFailedIteration(t *testing.T) {
	p := approvalPanel()
	p.failRoles = map[string]error{
		"alpha reviewer": errors.New("timeout"),
		"beta reviewer":  errors.New("timeout"),
	}
	engine := newTestEngine(t, p, 10)

	state, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Failed())
	assert.Equal(t, "all critics failed", state.Error)
	assert.Len(t, state.Critiques, 2, "failure placeholders are persisted per critic")
}

func TestOnlyApprovedFeedbackReachesGenerator(t *testing.T) {
	p := approvalPanel()
	var generatorInputs []string
	rec := &recordingProvider{}
	rec.respond = func(role, input string) string {
		if contains(role, "alpha reviewer") || contains(role, "beta reviewer") ||
			contains(role, "Board Chair") || contains(role, "expert evaluator") {
			text, _ := p.Invoke(context.Background(), role, input, provider.Limits{})
			return text
		}
		generatorInputs = append(generatorInputs, input)
		return p.artifact
	}
	engine := newTestEngine(t, rec, 10)

	_, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	require.NoError(t, engine.Reject(1))

	_, err = engine.RunIteration(context.Background())
	require.NoError(t, err)

	require.Len(t, generatorInputs, 2)
	assert.NotContains(t, generatorInputs[1], "PREVIOUS VERSION",
		"rejected feedback must not feed the next draft")

	require.NoError(t, engine.Approve(2))
	_, err = engine.RunIteration(context.Background())
	require.NoError(t, err)
	require.Len(t, generatorInputs, 3)
	assert.Contains(t, generatorInputs[2], "Document the refill interval",
		"approved board changes drive the refinement prompt")
}

func TestReadyForFinalization(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 10)
	assert.False(t, engine.ReadyForFinalization())

	state, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	require.NoError(t, engine.Approve(state.Number))

	ready := engine.ReadyForFinalization()
	assert.Equal(t, state.Confidence >= engine.Threshold(), ready,
		"readiness couples approval with the confidence threshold")
}

func TestResetClearsHistory(t *testing.T) {
	engine := newTestEngine(t, approvalPanel(), 10)

	_, err := engine.RunIteration(context.Background())
	require.NoError(t, err)
	require.NoError(t, engine.Approve(1))
	_, err = engine.Finalize()
	require.NoError(t, err)

	engine.Reset()
	assert.Empty(t, engine.History())
	assert.False(t, engine.IsFinalized())
	_, err = engine.RunIteration(context.Background())
	assert.NoError(t, err)
}
