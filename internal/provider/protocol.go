// Package provider is the boundary to the reasoning backend: a slow,
// possibly-failing planner (typically an LLM) invoked off the tick thread
// for deep multi-step plans.
package provider

import (
	"context"
	"errors"

	"github.com/tickwise/cortex/internal/core"
)

// ErrMalformedPlan is returned when the backend responds but its output
// cannot be parsed into a valid plan.
var ErrMalformedPlan = errors.New("malformed plan in backend response")

// PlanProvider generates a multi-step plan from a world snapshot. A call
// may take seconds and may fail; implementations must be safe for
// concurrent use from many in-flight requests.
type PlanProvider interface {
	GeneratePlan(ctx context.Context, snap *core.WorldSnapshot) (*core.PlanIntent, error)
	Name() string
}

// ChatMessage is one turn of a chat-completion exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
