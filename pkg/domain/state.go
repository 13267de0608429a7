package domain

import "time"

// WorkflowStatus is the step a workflow instance is positioned at.
// For non-terminal values it names the step that the next Advance executes.
type WorkflowStatus string

const (
	StatusInitiated        WorkflowStatus = "initiated"
	StatusEligibilityCheck WorkflowStatus = "eligibility_check"
	StatusQuoteGeneration  WorkflowStatus = "quote_generation"
	StatusCrossSell        WorkflowStatus = "cross_sell"
	StatusEnrollment       WorkflowStatus = "enrollment"
	StatusCompleted        WorkflowStatus = "completed"
	StatusFailed           WorkflowStatus = "failed"
)

// Terminal reports whether no further Advance is possible without a Resume.
func (s WorkflowStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepError is one entry of the workflow error log.
type StepError struct {
	Step      WorkflowStatus `json:"step"`
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
}

// WorkflowState is the snapshot of one consumer's run through the enrollment state machine.
// It is mutated only by the runtime, which always works on a clone.
type WorkflowState struct {
	WorkflowID string         `json:"workflow_id"`
	ConsumerID string         `json:"consumer_id"`
	ProductID  string         `json:"product_id"`
	Current    WorkflowStatus `json:"current_state"`

	// FailedStep is the step that moved the workflow to failed; Resume returns to it.
	FailedStep WorkflowStatus `json:"failed_step,omitempty"`

	Quote               *Quote      `json:"quote,omitempty"`
	CrossSellCandidates []string    `json:"cross_sell_candidates"`
	Enrollment          *Enrollment `json:"enrollment,omitempty"`
	Acknowledged        []string    `json:"acknowledged,omitempty"`

	Errors  []StepError  `json:"errors"`
	History []Transition `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkflowState creates a workflow positioned at initiated.
func NewWorkflowState(workflowID, consumerID, productID string, now time.Time) *WorkflowState {
	return &WorkflowState{
		WorkflowID:          workflowID,
		ConsumerID:          consumerID,
		ProductID:           productID,
		Current:             StatusInitiated,
		CrossSellCandidates: []string{},
		Errors:              []StepError{},
		History:             []Transition{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Clone returns a deep copy safe for independent mutation.
func (s *WorkflowState) Clone() *WorkflowState {
	if s == nil {
		return nil
	}
	next := *s
	if s.Quote != nil {
		q := *s.Quote
		q.Details = cloneStrings(s.Quote.Details)
		next.Quote = &q
	}
	if s.Enrollment != nil {
		e := *s.Enrollment
		e.NextSteps = append([]string(nil), s.Enrollment.NextSteps...)
		next.Enrollment = &e
	}
	next.CrossSellCandidates = append([]string{}, s.CrossSellCandidates...)
	next.Acknowledged = append([]string(nil), s.Acknowledged...)
	next.Errors = append([]StepError{}, s.Errors...)
	next.History = append([]Transition{}, s.History...)
	return &next
}

// Path returns the sequence of statuses visited, starting at initiated.
func (s *WorkflowState) Path() []WorkflowStatus {
	path := []WorkflowStatus{StatusInitiated}
	for _, t := range s.History {
		path = append(path, t.To)
	}
	return path
}

func cloneStrings(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
