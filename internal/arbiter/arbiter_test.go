package arbiter

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickwise/cortex/internal/core"
	"github.com/tickwise/cortex/internal/executor"
	"github.com/tickwise/cortex/internal/provider"
)

// scriptedPlanner returns a fixed step or error, switchable mid-test.
type scriptedPlanner struct {
	step core.ActionStep
	err  error
}

func (s *scriptedPlanner) NextAction(*core.WorldSnapshot) (core.ActionStep, error) {
	return s.step, s.err
}

func (s *scriptedPlanner) Name() string { return "scripted" }

func snapAt(t float64) *core.WorldSnapshot {
	return &core.WorldSnapshot{
		T:       t,
		AgentID: "agent-1",
		Me:      core.AgentState{Pos: core.IVec2{X: 1, Y: 1}, Health: 100, Ammo: 5},
	}
}

func threePlan() *core.PlanIntent {
	return core.NewPlanIntent(
		core.MoveTo(3, 3),
		core.ThrowSmoke(6, 6),
		core.Attack("e1", "standing"),
	)
}

// newArbiter wires an arbiter over a mock backend with a long cooldown,
// so each test controls exactly when requests happen.
func newArbiter(mock *provider.Mock) (*Arbiter, *scriptedPlanner, *scriptedPlanner) {
	fast := &scriptedPlanner{step: core.MoveTo(2, 2)}
	fallback := &scriptedPlanner{step: core.Wait(1.0)}
	exec := executor.New(mock, executor.NewPool(1))
	a := New(exec, fast, fallback).WithCooldown(time.Hour)
	return a, fast, fallback
}

func waitBackgroundDone(t *testing.T, a *Arbiter) {
	t.Helper()
	require.NotNil(t, a.pending, "expected an in-flight background request")
	require.Eventually(t, a.pending.IsFinished, time.Second, time.Millisecond)
}

func TestFastPlanWhileBackgroundPending(t *testing.T) {
	mock := provider.NewMock().WithPlan(threePlan()).WithDelay(100 * time.Millisecond)
	a, fast, _ := newArbiter(mock)
	defer a.Close()

	step := a.Update(snapAt(0))

	assert.Equal(t, fast.step, step, "pending background work must not block the fast planner")
	assert.Equal(t, ModeFastPlan, a.Mode().Kind)
	assert.True(t, a.IsBackgroundActive())
	c := a.Metrics()
	assert.Equal(t, uint64(1), c.BackgroundRequests)
	assert.Equal(t, uint64(1), c.FastPlanActions)
}

func TestAdoptsPlanAndExecutesToCompletion(t *testing.T) {
	plan := threePlan()
	mock := provider.NewMock().WithPlan(plan).WithDelay(10 * time.Millisecond)
	a, fast, _ := newArbiter(mock)
	defer a.Close()

	a.Update(snapAt(0)) // dispatch
	waitBackgroundDone(t, a)

	// Adoption tick already hands out the first step.
	step := a.Update(snapAt(1))
	assert.Equal(t, plan.Steps[0], step)
	assert.Equal(t, ExecutingPlan(1), a.Mode())

	step = a.Update(snapAt(2))
	assert.Equal(t, plan.Steps[1], step)
	assert.Equal(t, ExecutingPlan(2), a.Mode())

	// Final step is handed out and the mode flips in the same call.
	step = a.Update(snapAt(3))
	assert.Equal(t, plan.Steps[2], step)
	assert.Equal(t, ModeFastPlan, a.Mode().Kind)

	step = a.Update(snapAt(4))
	assert.Equal(t, fast.step, step)

	c := a.Metrics()
	assert.Equal(t, uint64(1), c.BackgroundSuccesses)
	assert.Equal(t, uint64(3), c.BackgroundStepsExecuted)
	assert.Equal(t, uint64(2), c.ModeTransitions, "fast->executing and executing->fast")
	assert.Equal(t, uint64(2), c.FastPlanActions)
}

func TestBackgroundFailureKeepsMode(t *testing.T) {
	mock := provider.NewMock().WithError(errors.New("backend unreachable"))
	a, fast, _ := newArbiter(mock)
	defer a.Close()

	a.Update(snapAt(0))
	waitBackgroundDone(t, a)

	step := a.Update(snapAt(1))
	assert.Equal(t, fast.step, step)
	assert.Equal(t, ModeFastPlan, a.Mode().Kind)
	c := a.Metrics()
	assert.Equal(t, uint64(1), c.BackgroundFailures)
	assert.Zero(t, c.BackgroundSuccesses)
}

func TestEmptyPlanIsNeverAdopted(t *testing.T) {
	mock := provider.NewMock().WithPlan(core.NewPlanIntent())
	a, _, _ := newArbiter(mock)
	defer a.Close()

	a.Update(snapAt(0))
	waitBackgroundDone(t, a)

	a.Update(snapAt(1))
	assert.Equal(t, ModeFastPlan, a.Mode().Kind)
	c := a.Metrics()
	assert.Equal(t, uint64(1), c.BackgroundFailures, "an empty plan counts as a failure")
	assert.Zero(t, c.BackgroundSuccesses)
	assert.Zero(t, c.BackgroundStepsExecuted)
}

func TestTimeoutCountsOnce(t *testing.T) {
	mock := provider.NewMock().WithPlan(threePlan()).WithDelay(time.Second)
	fast := &scriptedPlanner{step: core.MoveTo(2, 2)}
	fallback := &scriptedPlanner{step: core.Wait(1.0)}
	exec := executor.New(mock, executor.NewPool(1))
	a := New(exec, fast, fallback).
		WithCooldown(time.Hour).
		WithRequestTimeout(20 * time.Millisecond)
	defer a.Close()

	a.Update(snapAt(0))
	time.Sleep(40 * time.Millisecond)

	a.Update(snapAt(1))
	assert.Equal(t, uint64(1), a.Metrics().BackgroundFailures)
	assert.False(t, a.IsBackgroundActive())

	// The stale handle must not report again on later ticks.
	a.Update(snapAt(2))
	a.Update(snapAt(3))
	assert.Equal(t, uint64(1), a.Metrics().BackgroundFailures)
}

func TestFallbackWhenFastPlannerFails(t *testing.T) {
	mock := provider.NewMock().WithPlan(threePlan()).WithDelay(time.Second)
	a, fast, fallback := newArbiter(mock)
	defer a.Close()

	fast.err = errors.New("no viable action")
	step := a.Update(snapAt(0))

	assert.Equal(t, fallback.step, step)
	assert.Equal(t, ModeFallback, a.Mode().Kind)

	// Recovery flips straight back to fast-plan mode.
	fast.err = nil
	step = a.Update(snapAt(1))
	assert.Equal(t, fast.step, step)
	assert.Equal(t, ModeFastPlan, a.Mode().Kind)
	assert.Equal(t, uint64(2), a.Metrics().ModeTransitions)
}

func TestCooldownGatesDispatch(t *testing.T) {
	mock := provider.NewMock().WithError(errors.New("down"))
	fast := &scriptedPlanner{step: core.MoveTo(2, 2)}
	fallback := &scriptedPlanner{step: core.Wait(1.0)}
	exec := executor.New(mock, executor.NewPool(1))
	a := New(exec, fast, fallback).WithCooldown(10 * time.Second)
	defer a.Close()

	a.Update(snapAt(0)) // first dispatch is immediate
	waitBackgroundDone(t, a)

	a.Update(snapAt(5)) // within cooldown, result consumed, no redispatch
	assert.Equal(t, uint64(1), a.Metrics().BackgroundRequests)
	assert.False(t, a.IsBackgroundActive())

	a.Update(snapAt(10)) // cooldown elapsed
	assert.Equal(t, uint64(2), a.Metrics().BackgroundRequests)
}

func TestSingleOutstandingRequest(t *testing.T) {
	mock := provider.NewMock().WithPlan(threePlan()).WithDelay(time.Second)
	fast := &scriptedPlanner{step: core.MoveTo(2, 2)}
	fallback := &scriptedPlanner{step: core.Wait(1.0)}
	exec := executor.New(mock, executor.NewPool(2))
	a := New(exec, fast, fallback).WithCooldown(0)
	defer a.Close()

	// Zero cooldown would allow a dispatch every tick, but a request in
	// flight must suppress new ones.
	a.Update(snapAt(0))
	a.Update(snapAt(1))
	a.Update(snapAt(2))
	assert.Equal(t, uint64(1), a.Metrics().BackgroundRequests)
}

func TestNoDispatchWhileExecutingPlan(t *testing.T) {
	mock := provider.NewMock().WithPlan(threePlan()).WithDelay(time.Second)
	fast := &scriptedPlanner{step: core.MoveTo(2, 2)}
	fallback := &scriptedPlanner{step: core.Wait(1.0)}
	exec := executor.New(mock, executor.NewPool(1))
	a := New(exec, fast, fallback).WithCooldown(0)
	defer a.Close()

	plan := core.NewPlanIntent(core.MoveTo(1, 1), core.Reload())
	a.TransitionToPlan(snapAt(10), plan)

	// Zero cooldown would permit a dispatch on every tick, but plan
	// execution must suppress new requests entirely.
	step := a.Update(snapAt(10))
	assert.Equal(t, plan.Steps[0], step)
	assert.Zero(t, a.Metrics().BackgroundRequests)
	assert.False(t, a.IsBackgroundActive())

	// The final step is handed out on the same tick the mode flips, so
	// no dispatch happens yet either.
	step = a.Update(snapAt(11))
	assert.Equal(t, plan.Steps[1], step)
	assert.Zero(t, a.Metrics().BackgroundRequests)

	// Back in fast-plan mode, dispatch resumes.
	a.Update(snapAt(12))
	assert.Equal(t, uint64(1), a.Metrics().BackgroundRequests)
}

// requireMonotonic asserts that no counter moved backward between two
// snapshots.
func requireMonotonic(t *testing.T, prev, cur Counters) {
	t.Helper()
	if cur.ModeTransitions < prev.ModeTransitions ||
		cur.BackgroundRequests < prev.BackgroundRequests ||
		cur.BackgroundSuccesses < prev.BackgroundSuccesses ||
		cur.BackgroundFailures < prev.BackgroundFailures ||
		cur.FastPlanActions < prev.FastPlanActions ||
		cur.BackgroundStepsExecuted < prev.BackgroundStepsExecuted {
		t.Fatalf("counters went backward: %+v -> %+v", prev, cur)
	}
}

func TestUpdateSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	mock := provider.NewMock().WithPlan(threePlan()).WithDelay(2 * time.Millisecond)
	fast := &scriptedPlanner{step: core.MoveTo(2, 2)}
	fallback := &scriptedPlanner{step: core.Wait(1.0)}
	exec := executor.New(mock, executor.NewPool(2))
	a := New(exec, fast, fallback).WithCooldown(50 * time.Millisecond)
	defer a.Close()

	prev := a.Metrics()
	prevActive := a.IsBackgroundActive()
	simTime := 0.0
	for i := 0; i < 300; i++ {
		simTime += 0.01
		// Occasional planner failures and backend errors keep every
		// branch of the update cycle in play.
		fast.err = nil
		if rng.Intn(10) == 0 {
			fast.err = errors.New("no viable action")
		}
		if rng.Intn(20) == 0 {
			mock.WithError(errors.New("backend flake"))
		} else {
			mock.WithPlan(threePlan())
		}
		if rng.Intn(5) == 0 {
			time.Sleep(3 * time.Millisecond)
		}

		step := a.Update(snapAt(simTime))
		if err := step.Validate(); err != nil {
			t.Fatalf("update %d returned invalid step: %v", i, err)
		}

		cur := a.Metrics()
		requireMonotonic(t, prev, cur)

		// A request in flight can only appear alongside a dispatch.
		active := a.IsBackgroundActive()
		if active && !prevActive && cur.BackgroundRequests == prev.BackgroundRequests {
			t.Fatalf("update %d: background became active without a dispatch", i)
		}
		// An arbiter that stayed in plan execution for the whole update
		// cannot have dispatched.
		if cur.BackgroundRequests > prev.BackgroundRequests &&
			cur.ModeTransitions == prev.ModeTransitions &&
			a.Mode().Kind == ModeExecutingPlan {
			t.Fatalf("update %d: dispatched while executing a plan", i)
		}

		prev = cur
		prevActive = active
	}

	final := a.Metrics()
	if final.BackgroundRequests == 0 {
		t.Error("sequence never dispatched a background request")
	}
	if final.BackgroundSuccesses+final.BackgroundFailures > final.BackgroundRequests {
		t.Errorf("results (%d) exceed requests (%d)",
			final.BackgroundSuccesses+final.BackgroundFailures, final.BackgroundRequests)
	}
}

func TestTransitionToPlan(t *testing.T) {
	mock := provider.NewMock()
	a, _, _ := newArbiter(mock)
	defer a.Close()

	plan := core.NewPlanIntent(core.Reload(), core.Attack("e1", "standing"))
	a.TransitionToPlan(snapAt(0), plan)
	require.Equal(t, ExecutingPlan(0), a.Mode())

	step := a.Update(snapAt(1))
	assert.Equal(t, plan.Steps[0], step)
	assert.Equal(t, uint64(1), a.Metrics().BackgroundStepsExecuted)

	// Empty plans are rejected here too.
	b, _, _ := newArbiter(provider.NewMock())
	defer b.Close()
	b.TransitionToPlan(snapAt(0), core.NewPlanIntent())
	assert.Equal(t, ModeFastPlan, b.Mode().Kind)
}

func TestCloseCancelsInFlightRequest(t *testing.T) {
	mock := provider.NewMock().WithPlan(threePlan()).WithDelay(10 * time.Second)
	a, _, _ := newArbiter(mock)

	a.Update(snapAt(0))
	require.True(t, a.IsBackgroundActive())
	a.Close()
	assert.False(t, a.IsBackgroundActive())
}

func TestModeStrings(t *testing.T) {
	assert.Equal(t, "fast_plan", FastPlan().String())
	assert.Equal(t, "executing_plan[2]", ExecutingPlan(2).String())
	assert.Equal(t, "fallback", Fallback().String())
}
