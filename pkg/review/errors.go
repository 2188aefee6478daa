package review

import (
	"errors"
	"fmt"
)

// ApprovalPendingError is returned when an iteration is requested while
// the previous one is still awaiting the human approval decision. No
// state is mutated.
type ApprovalPendingError struct {
	Iteration int // iteration still pending approval
}

func (e *ApprovalPendingError) Error() string {
	return fmt.Sprintf("iteration %d is awaiting approval; approve or reject it before running the next iteration", e.Iteration)
}

// InvalidTransitionError is returned for approval/rejection/finalization
// requests that the current state machine position does not permit.
type InvalidTransitionError struct {
	Op        string // operation attempted (approve, reject, finalize)
	Iteration int    // target iteration, zero when not applicable
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	if e.Iteration > 0 {
		return fmt.Sprintf("cannot %s iteration %d: %s", e.Op, e.Iteration, e.Reason)
	}
	return fmt.Sprintf("cannot %s: %s", e.Op, e.Reason)
}

// SessionFinalizedError is returned when an operation is attempted on a
// finalized session.
type SessionFinalizedError struct{}

func (e *SessionFinalizedError) Error() string {
	return "session is finalized; no further iterations are accepted"
}

// CapacityExceededError is returned when the iteration ceiling has been
// reached. The history is left untouched.
type CapacityExceededError struct {
	Limit int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("maximum iterations (%d) reached", e.Limit)
}

// IsApprovalPending reports whether err is an ApprovalPendingError.
func IsApprovalPending(err error) bool {
	var target *ApprovalPendingError
	return errors.As(err, &target)
}

// IsCapacityExceeded reports whether err is a CapacityExceededError.
func IsCapacityExceeded(err error) bool {
	var target *CapacityExceededError
	return errors.As(err, &target)
}

// IsSessionFinalized reports whether err is a SessionFinalizedError.
func IsSessionFinalized(err error) bool {
	var target *SessionFinalizedError
	return errors.As(err, &target)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}
