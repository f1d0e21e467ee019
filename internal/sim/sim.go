// Package sim runs a headless tick loop over a set of agents, each
// driven by its own arbiter against a shared reasoning backend.
package sim

import (
	"context"
	"log"
	"time"

	"github.com/tickwise/cortex/internal/arbiter"
	"github.com/tickwise/cortex/internal/config"
	"github.com/tickwise/cortex/internal/core"
	"github.com/tickwise/cortex/internal/events"
	"github.com/tickwise/cortex/internal/executor"
	"github.com/tickwise/cortex/internal/planner/btree"
	"github.com/tickwise/cortex/internal/planner/goap"
	"github.com/tickwise/cortex/internal/tracing"
)

// agentRuntime pairs one agent's world with its decision core.
type agentRuntime struct {
	world *agentWorld
	arb   *arbiter.Arbiter
}

// Sim owns the tick loop. Create with New, run with Run.
type Sim struct {
	cfg    *config.Config
	bus    events.Bus
	agents []*agentRuntime
	ticks  uint64
	closed bool
}

// Option customizes a Sim.
type Option func(*Sim)

// WithBus publishes every decision to the given bus.
func WithBus(bus events.Bus) Option {
	return func(s *Sim) { s.bus = bus }
}

// New builds the simulation: one arbiter per agent, all sharing the
// executor. Worlds are seeded deterministically from seed.
func New(cfg *config.Config, exec *executor.Executor, seed int64, opts ...Option) *Sim {
	s := &Sim{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	for i := 0; i < cfg.Sim.Agents; i++ {
		fast := goap.New()
		fallback := btree.New()
		arb := arbiter.New(exec, fast, fallback).WithCooldown(cfg.Cooldown())
		s.agents = append(s.agents, &agentRuntime{
			world: newAgentWorld(i, seed),
			arb:   arb,
		})
	}
	tracing.AddActiveAgents(int64(len(s.agents)))
	return s
}

// Ticks reports how many ticks have run.
func (s *Sim) Ticks() uint64 { return s.ticks }

// Counters returns the aggregated arbiter counters across all agents.
func (s *Sim) Counters() arbiter.Counters {
	var total arbiter.Counters
	for _, a := range s.agents {
		c := a.arb.Metrics()
		total.ModeTransitions += c.ModeTransitions
		total.BackgroundRequests += c.BackgroundRequests
		total.BackgroundSuccesses += c.BackgroundSuccesses
		total.BackgroundFailures += c.BackgroundFailures
		total.FastPlanActions += c.FastPlanActions
		total.BackgroundStepsExecuted += c.BackgroundStepsExecuted
	}
	return total
}

// Run ticks until ctx is done or the configured duration elapses.
func (s *Sim) Run(ctx context.Context) error {
	interval := s.cfg.TickInterval()
	dt := interval.Seconds()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.close()

	var deadline <-chan time.Time
	if s.cfg.Sim.Duration > 0 {
		timer := time.NewTimer(time.Duration(s.cfg.Sim.Duration * float64(time.Second)))
		defer timer.Stop()
		deadline = timer.C
	}

	log.Printf("sim: starting %d agents at %.1f Hz", len(s.agents), s.cfg.Sim.TickHz)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			log.Printf("sim: duration elapsed after %d ticks", s.ticks)
			return nil
		case <-ticker.C:
			s.Step(dt)
		}
	}
}

// Step advances every agent by one tick. Exposed so tests can drive the
// loop without wall-clock timing.
func (s *Sim) Step(dt float64) {
	s.ticks++
	tracing.RecordTicks(1)
	for _, a := range s.agents {
		a.world.advance(dt)
		snap := a.world.snapshot()
		step := a.arb.Update(snap)
		a.world.apply(step)
		s.publish(snap, a.arb, step)
	}
}

func (s *Sim) publish(snap *core.WorldSnapshot, arb *arbiter.Arbiter, step core.ActionStep) {
	if s.bus == nil {
		return
	}
	ev := events.DecisionEvent{
		AgentID:   snap.AgentID,
		T:         snap.T,
		Mode:      arb.Mode().String(),
		PlanID:    arb.PlanID(),
		Action:    step,
		Counters:  arb.Metrics(),
		Timestamp: time.Now(),
	}
	if err := s.bus.Publish(ev); err != nil {
		log.Printf("sim: failed to publish decision for %s: %v", snap.AgentID, err)
	}
}

func (s *Sim) close() {
	if s.closed {
		return
	}
	s.closed = true
	tracing.AddActiveAgents(-int64(len(s.agents)))
	for _, a := range s.agents {
		a.arb.Close()
	}
}
