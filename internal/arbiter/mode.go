package arbiter

import "fmt"

// ModeKind identifies which control strategy the arbiter is running.
type ModeKind int

const (
	// ModeFastPlan selects one action per tick with the synchronous
	// fast planner while waiting for background reasoning.
	ModeFastPlan ModeKind = iota
	// ModeExecutingPlan steps through an adopted background plan.
	ModeExecutingPlan
	// ModeFallback runs the infallible behavior tree after the fast
	// planner failed.
	ModeFallback
)

// ControlMode is the arbiter's current strategy plus, while executing a
// plan, the index of the next step to hand out.
type ControlMode struct {
	Kind      ModeKind
	StepIndex int
}

// FastPlan returns the fast-planner mode.
func FastPlan() ControlMode { return ControlMode{Kind: ModeFastPlan} }

// ExecutingPlan returns the plan-execution mode positioned at step.
func ExecutingPlan(step int) ControlMode {
	return ControlMode{Kind: ModeExecutingPlan, StepIndex: step}
}

// Fallback returns the fallback mode.
func Fallback() ControlMode { return ControlMode{Kind: ModeFallback} }

func (m ControlMode) String() string {
	switch m.Kind {
	case ModeFastPlan:
		return "fast_plan"
	case ModeExecutingPlan:
		return fmt.Sprintf("executing_plan[%d]", m.StepIndex)
	case ModeFallback:
		return "fallback"
	default:
		return fmt.Sprintf("unknown(%d)", int(m.Kind))
	}
}

// label is the low-cardinality form used for metrics, without the step
// index.
func (m ControlMode) label() string {
	switch m.Kind {
	case ModeFastPlan:
		return "fast_plan"
	case ModeExecutingPlan:
		return "executing_plan"
	case ModeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}
