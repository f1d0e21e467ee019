// Package arbiter decides, once per simulation tick, which control
// strategy drives an agent: stepping through a plan produced by the
// reasoning backend, asking the fast planner for a single action, or
// falling back to the behavior tree. Update never blocks on the backend.
package arbiter

import (
	"log"
	"time"

	"github.com/tickwise/cortex/internal/core"
	"github.com/tickwise/cortex/internal/executor"
	"github.com/tickwise/cortex/internal/metrics"
	"github.com/tickwise/cortex/internal/planner"
	"github.com/tickwise/cortex/internal/task"
	"github.com/tickwise/cortex/internal/tracing"
)

// DefaultCooldown is the minimum simulation time between background
// plan requests for one agent.
const DefaultCooldown = 15 * time.Second

// Counters is a snapshot of the arbiter's monotonic counters. All
// counters only ever increase.
type Counters struct {
	ModeTransitions         uint64 `json:"mode_transitions"`
	BackgroundRequests      uint64 `json:"background_requests"`
	BackgroundSuccesses     uint64 `json:"background_successes"`
	BackgroundFailures      uint64 `json:"background_failures"`
	FastPlanActions         uint64 `json:"fast_plan_actions"`
	BackgroundStepsExecuted uint64 `json:"background_steps_executed"`
}

// Arbiter is the per-agent decision core. It is single-owner: all
// methods must be called from the tick goroutine. The only concurrency
// is the background task it polls, which is safe by the task contract.
type Arbiter struct {
	exec     *executor.Executor
	fast     planner.Planner
	fallback planner.Planner

	mode           ControlMode
	plan           *core.PlanIntent
	pending        *task.Task[*core.PlanIntent]
	cooldownSecs   float64
	requestTimeout time.Duration
	// Simulation time of the last dispatch, seeded one cooldown in the
	// past so the first Update may dispatch immediately.
	lastRequestTime float64

	counters Counters
	shared   *metrics.Metrics
}

// New creates an arbiter in fast-plan mode with the default cooldown.
func New(exec *executor.Executor, fast, fallback planner.Planner) *Arbiter {
	a := &Arbiter{
		exec:     exec,
		fast:     fast,
		fallback: fallback,
		mode:     FastPlan(),
		shared:   metrics.Default(),
	}
	a.setCooldown(DefaultCooldown)
	return a
}

// WithCooldown overrides the minimum simulation time between background
// requests.
func (a *Arbiter) WithCooldown(d time.Duration) *Arbiter {
	a.setCooldown(d)
	return a
}

// WithRequestTimeout sets a per-request deadline for this arbiter's
// background requests, overriding the executor default. Zero keeps the
// executor's setting.
func (a *Arbiter) WithRequestTimeout(d time.Duration) *Arbiter {
	a.requestTimeout = d
	return a
}

func (a *Arbiter) setCooldown(d time.Duration) {
	a.cooldownSecs = d.Seconds()
	a.lastRequestTime = -a.cooldownSecs
}

// Mode returns the current control mode.
func (a *Arbiter) Mode() ControlMode { return a.mode }

// IsBackgroundActive reports whether a background request is in flight.
func (a *Arbiter) IsBackgroundActive() bool {
	return a.pending != nil && !a.pending.IsFinished()
}

// PlanID returns the id of the plan currently being executed, or "".
func (a *Arbiter) PlanID() string {
	if a.plan == nil {
		return ""
	}
	return a.plan.PlanID
}

// Metrics returns a copy of the arbiter's counters.
func (a *Arbiter) Metrics() Counters { return a.counters }

// Update runs one decision cycle for the given snapshot and always
// returns an executable action. The priority order is fixed: absorb any
// finished background result, then execute the adopted plan, then the
// fast planner, then the fallback tree.
func (a *Arbiter) Update(snap *core.WorldSnapshot) core.ActionStep {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		a.shared.RecordUpdate(snap.AgentID, elapsed.Seconds())
		tracing.RecordDecisionLatency(float64(elapsed.Microseconds()) / 1000)
	}()

	a.pollBackground(snap)

	// Executing a plan short-circuits before the dispatch check: a new
	// request is only ever raised from fast-plan or fallback mode.
	if a.mode.Kind == ModeExecutingPlan {
		if step, ok := a.nextPlanStep(snap); ok {
			return step
		}
	}

	a.maybeDispatch(snap)

	step, err := a.fast.NextAction(snap)
	if err == nil {
		a.transition(snap, FastPlan())
		a.counters.FastPlanActions++
		a.shared.FastPlanActions.WithLabelValues(snap.AgentID).Inc()
		return step
	}

	log.Printf("arbiter[%s]: fast planner failed, engaging fallback: %v", snap.AgentID, err)
	a.transition(snap, Fallback())
	step, _ = a.fallback.NextAction(snap)
	return step
}

// pollBackground consumes a finished background result, adopting the
// plan on success and counting a failure otherwise. A pending result is
// left alone.
func (a *Arbiter) pollBackground(snap *core.WorldSnapshot) {
	if a.pending == nil {
		return
	}
	res, ok := a.pending.TryRecv()
	if !ok {
		return
	}
	a.pending = nil

	if res.Err != nil {
		a.counters.BackgroundFailures++
		a.shared.BackgroundResult.WithLabelValues(snap.AgentID, "failure").Inc()
		tracing.RecordPlanRejected()
		log.Printf("arbiter[%s]: background plan failed: %v", snap.AgentID, res.Err)
		return
	}
	if res.Value.Empty() {
		a.counters.BackgroundFailures++
		a.shared.BackgroundResult.WithLabelValues(snap.AgentID, "failure").Inc()
		tracing.RecordPlanRejected()
		log.Printf("arbiter[%s]: background plan %s was empty, discarding", snap.AgentID, res.Value.PlanID)
		return
	}

	a.counters.BackgroundSuccesses++
	a.shared.BackgroundResult.WithLabelValues(snap.AgentID, "success").Inc()
	tracing.RecordPlanAdopted()
	a.plan = res.Value
	a.transition(snap, ExecutingPlan(0))
	log.Printf("arbiter[%s]: adopted plan %s with %d steps", snap.AgentID, a.plan.PlanID, len(a.plan.Steps))
}

// maybeDispatch starts a new background request when none is in flight
// and the cooldown has elapsed. Requests are never queued.
func (a *Arbiter) maybeDispatch(snap *core.WorldSnapshot) {
	if a.pending != nil {
		return
	}
	if snap.T-a.lastRequestTime < a.cooldownSecs {
		return
	}
	a.lastRequestTime = snap.T
	a.counters.BackgroundRequests++
	a.shared.BackgroundRequest.WithLabelValues(snap.AgentID).Inc()
	if a.requestTimeout > 0 {
		a.pending = a.exec.GeneratePlanAsyncWithTimeout(snap, a.requestTimeout)
	} else {
		a.pending = a.exec.GeneratePlanAsync(snap)
	}
}

// nextPlanStep hands out the current plan step and advances the index in
// the same call. Handing out the final step transitions back to
// fast-plan mode so the next Update replans.
func (a *Arbiter) nextPlanStep(snap *core.WorldSnapshot) (core.ActionStep, bool) {
	idx := a.mode.StepIndex
	if a.plan == nil || idx >= len(a.plan.Steps) {
		// Executing mode without a usable plan drops to the fast
		// planner on this same tick.
		a.plan = nil
		a.transition(snap, FastPlan())
		return core.ActionStep{}, false
	}

	step := a.plan.Steps[idx]
	a.counters.BackgroundStepsExecuted++
	a.shared.PlanStepsExecuted.WithLabelValues(snap.AgentID).Inc()

	if idx+1 >= len(a.plan.Steps) {
		log.Printf("arbiter[%s]: plan %s complete", snap.AgentID, a.plan.PlanID)
		a.plan = nil
		a.transition(snap, FastPlan())
	} else {
		a.mode.StepIndex = idx + 1
	}
	return step, true
}

// transition switches modes, counting and logging only when the mode
// kind actually changes. Step-index advances within a plan are not
// transitions.
func (a *Arbiter) transition(snap *core.WorldSnapshot, to ControlMode) {
	if a.mode.Kind == to.Kind {
		a.mode = to
		return
	}
	from := a.mode
	a.mode = to
	a.counters.ModeTransitions++
	a.shared.RecordModeTransition(snap.AgentID, from.label(), to.label())
	log.Printf("arbiter[%s]: mode %s -> %s", snap.AgentID, from, to)
}

// TransitionToPlan force-adopts a plan, bypassing the background path.
// Exists for tests and tooling.
func (a *Arbiter) TransitionToPlan(snap *core.WorldSnapshot, plan *core.PlanIntent) {
	if plan.Empty() {
		return
	}
	a.plan = plan
	a.transition(snap, ExecutingPlan(0))
}

// Close cancels any in-flight background request.
func (a *Arbiter) Close() {
	if a.pending != nil {
		a.pending.Cancel()
		a.pending = nil
	}
}
