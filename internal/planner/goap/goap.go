// Package goap implements the fast planner: a goal-directed A* search
// over a compact boolean world state. The search space is a handful of
// facts and actions, so it always terminates well inside one tick.
package goap

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/tickwise/cortex/internal/core"
	"github.com/tickwise/cortex/internal/planner"
)

// WorldState is a set of boolean facts about the agent's situation.
type WorldState map[string]bool

// Satisfies reports whether every fact desired holds in s.
func (s WorldState) Satisfies(desired WorldState) bool {
	for fact, want := range desired {
		if s[fact] != want {
			return false
		}
	}
	return true
}

// apply returns a copy of s with the effects applied.
func (s WorldState) apply(effects WorldState) WorldState {
	out := make(WorldState, len(s)+len(effects))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range effects {
		out[k] = v
	}
	return out
}

// key returns a canonical representation for the closed set.
func (s WorldState) key() string {
	facts := make([]string, 0, len(s))
	for k, v := range s {
		facts = append(facts, fmt.Sprintf("%s=%t", k, v))
	}
	sort.Strings(facts)
	return strings.Join(facts, ",")
}

// Action is one planning operator: applicable when its preconditions hold,
// transforming the state by its effects at the given cost. Build turns the
// abstract operator into a concrete step for the snapshot at hand.
type Action struct {
	Name          string
	Cost          float64
	Preconditions WorldState
	Effects       WorldState
	Build         func(snap *core.WorldSnapshot) core.ActionStep
}

// Planner is a deterministic A* GOAP planner.
type Planner struct {
	actions       []Action
	maxIterations int
}

// New creates a planner with the default tactical action library.
func New() *Planner {
	return &Planner{
		actions:       defaultActions(),
		maxIterations: 10000,
	}
}

// NewWithActions creates a planner with a custom action library.
func NewWithActions(actions []Action) *Planner {
	return &Planner{actions: actions, maxIterations: 10000}
}

func (p *Planner) Name() string { return "goap" }

// NextAction derives the current world state, picks a goal, searches for
// the cheapest plan, and returns its first step.
func (p *Planner) NextAction(snap *core.WorldSnapshot) (core.ActionStep, error) {
	state := DeriveState(snap)
	goal := selectGoal(state)

	if state.Satisfies(goal) {
		// Nothing to do; hold position.
		return core.Wait(0.5), nil
	}

	path := p.plan(state, goal)
	if len(path) == 0 {
		return core.ActionStep{}, fmt.Errorf("%w: goal %v unreachable", planner.ErrNoViableAction, goal)
	}
	for _, a := range p.actions {
		if a.Name == path[0] {
			return a.Build(snap), nil
		}
	}
	return core.ActionStep{}, fmt.Errorf("%w: action %q missing from library", planner.ErrNoViableAction, path[0])
}

// node is one A* search node.
type node struct {
	state WorldState
	path  []string
	gCost float64
	hCost float64
}

func (n *node) fCost() float64 { return n.gCost + n.hCost }

type nodeHeap []*node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].fCost() < h[j].fCost() }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)         { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// plan runs A* from start to goal and returns the action names of the
// cheapest plan, or nil if the goal is unreachable.
func (p *Planner) plan(start, goal WorldState) []string {
	open := &nodeHeap{{state: start, hCost: heuristic(start, goal)}}
	heap.Init(open)
	closed := make(map[string]bool)

	for iter := 0; open.Len() > 0 && iter < p.maxIterations; iter++ {
		current := heap.Pop(open).(*node)
		if current.state.Satisfies(goal) {
			return current.path
		}

		key := current.state.key()
		if closed[key] {
			continue
		}
		closed[key] = true

		for _, a := range p.actions {
			if !current.state.Satisfies(a.Preconditions) {
				continue
			}
			next := current.state.apply(a.Effects)
			if closed[next.key()] {
				continue
			}
			path := make([]string, len(current.path)+1)
			copy(path, current.path)
			path[len(current.path)] = a.Name
			heap.Push(open, &node{
				state: next,
				path:  path,
				gCost: current.gCost + a.Cost,
				hCost: heuristic(next, goal),
			})
		}
	}
	return nil
}

// heuristic counts unsatisfied goal facts (admissible: each action fixes
// at least one fact at cost >= 1).
func heuristic(state, goal WorldState) float64 {
	var n float64
	for fact, want := range goal {
		if state[fact] != want {
			n++
		}
	}
	return n
}
