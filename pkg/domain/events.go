package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition   EventType = "transition"
	EventProviderCall EventType = "provider_call"
	EventEligibility  EventType = "eligibility"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	WorkflowID string    `json:"workflow_id,omitempty"`
}

// TransitionEvent is emitted after a workflow transition is committed.
type TransitionEvent struct {
	EventBase
	From   WorkflowStatus `json:"from"`
	To     WorkflowStatus `json:"to"`
	Reason string         `json:"reason,omitempty"`
}

// ProviderCallEvent is emitted after every provider attempt, retries included.
type ProviderCallEvent struct {
	EventBase
	ProviderID string        `json:"provider_id"`
	Op         string        `json:"op"`
	Attempt    int           `json:"attempt"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// EligibilityEvent is emitted after a product eligibility evaluation.
type EligibilityEvent struct {
	EventBase
	ProductID string `json:"product_id"`
	Eligible  bool   `json:"eligible"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition   func(context.Context, *TransitionEvent)
	OnProviderCall func(context.Context, *ProviderCallEvent)
	OnEligibility  func(context.Context, *EligibilityEvent)
}
