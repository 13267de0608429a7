package runtime

import (
	"fmt"
	"strings"
)

// ResumePolicy decides where Resume sends a failed workflow.
type ResumePolicy string

const (
	// ResumeFailedStep re-enters the step that failed and keeps earlier results.
	ResumeFailedStep ResumePolicy = "failed_step"
	// ResumeRestart starts over from initiated, discarding step results.
	ResumeRestart ResumePolicy = "restart"
)

// ParseResumePolicy accepts "failed_step" (or empty) and "restart".
func ParseResumePolicy(s string) (ResumePolicy, error) {
	switch ResumePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ResumeFailedStep:
		return ResumeFailedStep, nil
	case ResumeRestart:
		return ResumeRestart, nil
	default:
		return ResumeFailedStep, fmt.Errorf("unknown resume policy %q", s)
	}
}
