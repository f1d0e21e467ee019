// Package btree implements the fallback planner as a behavior tree. It is
// the planner of last resort: NextAction never returns an error, because
// the tree's final leaf always succeeds with a wait.
package btree

import (
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/tickwise/cortex/internal/core"
)

const lowHealth = 30

// Planner walks a fixed priority tree each call: survive first, keep the
// weapon loaded, engage what is visible, otherwise push to the objective.
type Planner struct {
	root bt.Node

	// Per-call scratch, written by the leaves. NextAction is synchronous
	// and the planner is not shared across goroutines, so no locking.
	snap     *core.WorldSnapshot
	decision core.ActionStep
}

// New builds the fallback behavior tree.
func New() *Planner {
	p := &Planner{}
	p.root = bt.New(
		bt.Selector,
		bt.New(p.takeCoverUnderFire),
		bt.New(p.reloadWhenEmpty),
		bt.New(p.engageVisibleEnemy),
		bt.New(p.moveToObjective),
		bt.New(p.idle),
	)
	return p
}

func (p *Planner) Name() string { return "btree" }

// NextAction ticks the tree once and returns the decision the winning
// leaf recorded. The error is always nil.
func (p *Planner) NextAction(snap *core.WorldSnapshot) (core.ActionStep, error) {
	p.snap = snap
	p.decision = core.Wait(1.0)
	// The idle leaf guarantees the selector succeeds, so the tick result
	// is ignored.
	_, _ = p.root.Tick()
	return p.decision, nil
}

// takeCoverUnderFire succeeds when health is critical and a cover spot
// exists that the agent is not already holding.
func (p *Planner) takeCoverUnderFire([]bt.Node) (bt.Status, error) {
	if p.snap.Me.Health > lowHealth || len(p.snap.Enemies) == 0 {
		return bt.Failure, nil
	}
	cover, ok := nearestPOI(p.snap, "cover")
	if !ok || cover.Pos == p.snap.Me.Pos {
		return bt.Failure, nil
	}
	p.decision = core.TakeCover(cover.Pos.X, cover.Pos.Y)
	return bt.Success, nil
}

func (p *Planner) reloadWhenEmpty([]bt.Node) (bt.Status, error) {
	if p.snap.Me.Ammo > 0 {
		return bt.Failure, nil
	}
	p.decision = core.Reload()
	return bt.Success, nil
}

func (p *Planner) engageVisibleEnemy([]bt.Node) (bt.Status, error) {
	if p.snap.Me.Ammo == 0 {
		return bt.Failure, nil
	}
	enemy, ok := nearestEnemy(p.snap)
	if !ok {
		return bt.Failure, nil
	}
	p.decision = core.Attack(enemy.ID, "standing")
	return bt.Success, nil
}

func (p *Planner) moveToObjective([]bt.Node) (bt.Status, error) {
	obj, ok := nearestPOI(p.snap, "objective")
	if !ok || obj.Pos == p.snap.Me.Pos {
		return bt.Failure, nil
	}
	p.decision = core.MoveTo(obj.Pos.X, obj.Pos.Y)
	return bt.Success, nil
}

// idle is the terminal leaf; it always succeeds so the selector can
// never fail.
func (p *Planner) idle([]bt.Node) (bt.Status, error) {
	p.decision = core.Wait(1.0)
	return bt.Success, nil
}

func manhattan(a, b core.IVec2) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func nearestEnemy(snap *core.WorldSnapshot) (core.EnemyState, bool) {
	best := -1
	bestDist := 0
	for i, e := range snap.Enemies {
		d := manhattan(snap.Me.Pos, e.Pos)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return core.EnemyState{}, false
	}
	return snap.Enemies[best], true
}

func nearestPOI(snap *core.WorldSnapshot, kind string) (core.PointOfInterest, bool) {
	best := -1
	bestDist := 0
	for i, poi := range snap.POIs {
		if poi.Kind != kind {
			continue
		}
		d := manhattan(snap.Me.Pos, poi.Pos)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return core.PointOfInterest{}, false
	}
	return snap.POIs[best], true
}
