// Package events publishes per-tick decision events so external tooling
// can observe what the arbiters chose without touching the tick loop.
package events

import (
	"time"

	"github.com/tickwise/cortex/internal/arbiter"
	"github.com/tickwise/cortex/internal/core"
)

// DecisionEvent records one arbiter decision.
type DecisionEvent struct {
	AgentID   string           `json:"agent_id"`
	T         float64          `json:"t"`
	Mode      string           `json:"mode"`
	PlanID    string           `json:"plan_id,omitempty"`
	Action    core.ActionStep  `json:"action"`
	Counters  arbiter.Counters `json:"counters"`
	Timestamp time.Time        `json:"timestamp"`
}

// Bus is the decision-event publishing surface. Publish must not block
// the caller for longer than a network write; slow consumers lose
// events rather than stalling the simulation.
type Bus interface {
	Publish(ev DecisionEvent) error
	Close() error
}
