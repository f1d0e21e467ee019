package core

import (
	"fmt"

	"github.com/google/uuid"
)

// PlanIntent is an ordered, finite sequence of steps produced by a planner
// for a multi-step horizon, identified by a plan id.
type PlanIntent struct {
	PlanID string       `json:"plan_id"`
	Steps  []ActionStep `json:"steps"`
}

// NewPlanIntent builds a plan with a fresh id.
func NewPlanIntent(steps ...ActionStep) *PlanIntent {
	return &PlanIntent{PlanID: NewPlanID(), Steps: steps}
}

// NewPlanID returns a unique plan identifier.
func NewPlanID() string {
	return "plan-" + uuid.NewString()
}

// Empty reports whether the plan has no steps. Empty plans are never
// adopted for execution.
func (p *PlanIntent) Empty() bool {
	return p == nil || len(p.Steps) == 0
}

// Validate checks the plan id and every step.
func (p *PlanIntent) Validate() error {
	if p == nil {
		return fmt.Errorf("nil plan")
	}
	if p.PlanID == "" {
		return fmt.Errorf("plan missing plan_id")
	}
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
