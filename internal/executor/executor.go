// Package executor dispatches background plan-generation requests against
// the reasoning backend and hands back non-blocking task handles.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tickwise/cortex/internal/core"
	"github.com/tickwise/cortex/internal/metrics"
	"github.com/tickwise/cortex/internal/provider"
	"github.com/tickwise/cortex/internal/task"
	"github.com/tickwise/cortex/internal/tracing"
)

// Executor owns a shared reasoning-backend handle and a worker pool, and
// turns snapshots into background plan requests. Safe to share across
// arbiters; each call creates exactly one unit of background work.
type Executor struct {
	provider provider.PlanProvider
	pool     *Pool
	timeout  time.Duration
	tracer   trace.Tracer
	metrics  *metrics.Metrics
}

// New creates an executor over the given provider and pool.
func New(p provider.PlanProvider, pool *Pool) *Executor {
	return &Executor{
		provider: p,
		pool:     pool,
		tracer:   otel.Tracer("cortex/executor"),
		metrics:  metrics.Default(),
	}
}

// WithRequestTimeout sets a per-request deadline. Zero means no deadline.
func (e *Executor) WithRequestTimeout(d time.Duration) *Executor {
	e.timeout = d
	return e
}

// RequestTimeout returns the configured per-request deadline.
func (e *Executor) RequestTimeout() time.Duration {
	return e.timeout
}

// GeneratePlanAsync clones the snapshot, dispatches the backend call onto
// the worker pool, and immediately returns a non-blocking handle. It never
// runs the backend call on the caller's goroutine.
func (e *Executor) GeneratePlanAsync(snap *core.WorldSnapshot) *task.Task[*core.PlanIntent] {
	return e.GeneratePlanAsyncWithTimeout(snap, e.timeout)
}

// GeneratePlanAsyncWithTimeout is GeneratePlanAsync with a per-call
// deadline, for callers that need a tighter or looser budget than the
// executor default.
func (e *Executor) GeneratePlanAsyncWithTimeout(snap *core.WorldSnapshot, timeout time.Duration) *task.Task[*core.PlanIntent] {
	clone := snap.Clone()
	return task.RunWithTimeout(context.Background(), timeout, func(ctx context.Context) (*core.PlanIntent, error) {
		return e.generate(ctx, clone)
	})
}

// GeneratePlanSync is the blocking variant, for tests and tooling only,
// never on the tick path.
func (e *Executor) GeneratePlanSync(ctx context.Context, snap *core.WorldSnapshot) (*core.PlanIntent, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.generate(ctx, snap.Clone())
}

func (e *Executor) generate(ctx context.Context, snap *core.WorldSnapshot) (*core.PlanIntent, error) {
	ctx, span := e.tracer.Start(ctx, "cortex.generate_plan",
		trace.WithAttributes(
			attribute.String("agent.id", snap.AgentID),
			attribute.String("provider", e.provider.Name()),
			attribute.Float64("snapshot.t", snap.T),
		))
	defer span.End()

	if err := e.pool.Acquire(ctx); err != nil {
		span.SetStatus(codes.Error, "pool acquire cancelled")
		return nil, fmt.Errorf("waiting for worker slot: %w", err)
	}
	defer e.pool.Release()

	start := time.Now()
	plan, err := e.provider.GeneratePlan(ctx, snap)
	elapsed := time.Since(start)
	e.metrics.RecordBackendRequest(e.provider.Name(), err == nil, elapsed.Seconds())
	tracing.RecordPlanRequestTime(float64(elapsed.Microseconds()) / 1000)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan generation failed")
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}
	span.SetAttributes(attribute.Int("plan.steps", len(plan.Steps)))
	return plan, nil
}
