package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tickwise/cortex/internal/core"
)

// Mock is a configurable in-memory PlanProvider for tests and the demo
// CLI. Safe for concurrent use.
type Mock struct {
	mu    sync.Mutex
	plan  *core.PlanIntent
	err   error
	delay time.Duration
	calls int
}

// NewMock returns a mock that fails until configured with a plan.
func NewMock() *Mock {
	return &Mock{err: errors.New("mock provider has no plan configured")}
}

func (m *Mock) Name() string { return "mock" }

// WithPlan makes subsequent calls return a copy of plan.
func (m *Mock) WithPlan(plan *core.PlanIntent) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plan = plan
	m.err = nil
	return m
}

// WithError makes subsequent calls fail with err.
func (m *Mock) WithError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plan = nil
	m.err = err
	return m
}

// WithDelay makes each call sleep for d (or until ctx is done) before
// returning, simulating inference latency.
func (m *Mock) WithDelay(d time.Duration) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Calls reports how many times GeneratePlan has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) GeneratePlan(ctx context.Context, snap *core.WorldSnapshot) (*core.PlanIntent, error) {
	m.mu.Lock()
	m.calls++
	plan, err, delay := m.plan, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := *plan
	out.Steps = append([]core.ActionStep(nil), plan.Steps...)
	return &out, nil
}
