package core

import "fmt"

// ActionKind identifies one of the closed set of atomic agent actions.
type ActionKind string

const (
	ActionMoveTo     ActionKind = "move_to"
	ActionAttack     ActionKind = "attack"
	ActionTakeCover  ActionKind = "take_cover"
	ActionReload     ActionKind = "reload"
	ActionThrowSmoke ActionKind = "throw_smoke"
	ActionWait       ActionKind = "wait"
)

// ActionStep is one atomic game action. Immutable once constructed;
// only the fields relevant to Kind are meaningful.
type ActionStep struct {
	Kind     ActionKind `json:"kind"`
	X        int        `json:"x,omitempty"`
	Y        int        `json:"y,omitempty"`
	Target   string     `json:"target,omitempty"`
	Stance   string     `json:"stance,omitempty"`
	Duration float64    `json:"duration,omitempty"`
}

// MoveTo returns a movement step toward grid position (x, y).
func MoveTo(x, y int) ActionStep {
	return ActionStep{Kind: ActionMoveTo, X: x, Y: y}
}

// Attack returns an attack step against the given target id.
func Attack(target, stance string) ActionStep {
	return ActionStep{Kind: ActionAttack, Target: target, Stance: stance}
}

// TakeCover returns a step moving the agent into cover at (x, y).
func TakeCover(x, y int) ActionStep {
	return ActionStep{Kind: ActionTakeCover, X: x, Y: y}
}

// Reload returns a weapon reload step.
func Reload() ActionStep {
	return ActionStep{Kind: ActionReload}
}

// ThrowSmoke returns a smoke-grenade step targeting (x, y).
func ThrowSmoke(x, y int) ActionStep {
	return ActionStep{Kind: ActionThrowSmoke, X: x, Y: y}
}

// Wait returns an idle step for the given duration in seconds.
func Wait(duration float64) ActionStep {
	return ActionStep{Kind: ActionWait, Duration: duration}
}

// Validate checks that the step's kind is known and its payload is usable.
// Plans coming back from the reasoning backend are validated step by step
// before adoption.
func (a ActionStep) Validate() error {
	switch a.Kind {
	case ActionMoveTo, ActionTakeCover, ActionThrowSmoke:
		return nil
	case ActionAttack:
		if a.Target == "" {
			return fmt.Errorf("attack step missing target")
		}
		return nil
	case ActionReload:
		return nil
	case ActionWait:
		if a.Duration < 0 {
			return fmt.Errorf("wait step has negative duration %v", a.Duration)
		}
		return nil
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

func (a ActionStep) String() string {
	switch a.Kind {
	case ActionMoveTo, ActionTakeCover, ActionThrowSmoke:
		return fmt.Sprintf("%s(%d,%d)", a.Kind, a.X, a.Y)
	case ActionAttack:
		return fmt.Sprintf("attack(%s)", a.Target)
	case ActionWait:
		return fmt.Sprintf("wait(%.1fs)", a.Duration)
	default:
		return string(a.Kind)
	}
}
