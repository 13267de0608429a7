package domain

import "time"

// Transition is one audited move of a workflow between statuses.
type Transition struct {
	From   WorkflowStatus `json:"from"`
	To     WorkflowStatus `json:"to"`
	Reason string         `json:"reason,omitempty"`
	At     time.Time      `json:"at"`
}

// forward maps every step to the only step it may advance to.
var forward = map[WorkflowStatus]WorkflowStatus{
	StatusInitiated:        StatusEligibilityCheck,
	StatusEligibilityCheck: StatusQuoteGeneration,
	StatusQuoteGeneration:  StatusCrossSell,
	StatusCrossSell:        StatusEnrollment,
	StatusEnrollment:       StatusCompleted,
}

// NextStatus returns the forward successor of s, if any.
func NextStatus(s WorkflowStatus) (WorkflowStatus, bool) {
	next, ok := forward[s]
	return next, ok
}

// CanTransition reports whether moving from -> to is a legal forward move or a failure.
// Leaving failed is only possible through a resume and is checked by CanResume.
func CanTransition(from, to WorkflowStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	next, ok := forward[from]
	return ok && next == to
}

// CanResume reports whether a failed workflow may re-enter the given step.
func CanResume(from, to WorkflowStatus) bool {
	if from != StatusFailed {
		return false
	}
	_, ok := forward[to]
	return ok
}
