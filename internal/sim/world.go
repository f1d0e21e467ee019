package sim

import (
	"fmt"
	"math/rand"

	"github.com/tickwise/cortex/internal/core"
)

const (
	gridSize     = 32
	magazineSize = 12
	enemySpawnHP = 60
)

// agentWorld is the mutable synthetic world for one agent. Snapshot
// projects it into the immutable form the arbiter consumes.
type agentWorld struct {
	id      string
	t       float64
	me      core.AgentState
	enemies []core.EnemyState
	pois    []core.PointOfInterest
	rng     *rand.Rand
	kills   int
}

func newAgentWorld(index int, seed int64) *agentWorld {
	rng := rand.New(rand.NewSource(seed + int64(index)))
	w := &agentWorld{
		id:  fmt.Sprintf("agent-%d", index),
		rng: rng,
		me: core.AgentState{
			Pos:       core.IVec2{X: rng.Intn(gridSize), Y: rng.Intn(gridSize)},
			Health:    100,
			Ammo:      magazineSize,
			Morale:    1.0,
			Cooldowns: map[string]float64{},
		},
		pois: []core.PointOfInterest{
			{Pos: core.IVec2{X: rng.Intn(gridSize), Y: rng.Intn(gridSize)}, Kind: "cover"},
			{Pos: core.IVec2{X: gridSize - 1, Y: gridSize - 1}, Kind: "objective"},
		},
	}
	return w
}

// snapshot projects the world state at the current tick.
func (w *agentWorld) snapshot() *core.WorldSnapshot {
	s := &core.WorldSnapshot{
		T:         w.t,
		AgentID:   w.id,
		Me:        w.me,
		Enemies:   w.enemies,
		POIs:      w.pois,
		Objective: "reach_extraction",
	}
	return s.Clone()
}

// advance moves simulation time forward and spawns the occasional enemy.
func (w *agentWorld) advance(dt float64) {
	w.t += dt
	for k, v := range w.me.Cooldowns {
		if v > 0 {
			w.me.Cooldowns[k] = v - dt
		}
	}
	// Sparse random contacts keep the fast planner and backend busy.
	if len(w.enemies) == 0 && w.rng.Float64() < 0.01 {
		w.enemies = append(w.enemies, core.EnemyState{
			ID:       fmt.Sprintf("%s-hostile-%d", w.id, w.kills+len(w.enemies)),
			Pos:      core.IVec2{X: w.rng.Intn(gridSize), Y: w.rng.Intn(gridSize)},
			HP:       enemySpawnHP,
			LastSeen: w.t,
		})
	}
}

// apply executes one action against the world.
func (w *agentWorld) apply(step core.ActionStep) {
	switch step.Kind {
	case core.ActionMoveTo, core.ActionTakeCover:
		w.me.Pos = stepToward(w.me.Pos, core.IVec2{X: step.X, Y: step.Y})
	case core.ActionAttack:
		if w.me.Ammo == 0 {
			return
		}
		w.me.Ammo--
		for i := range w.enemies {
			if w.enemies[i].ID != step.Target {
				continue
			}
			w.enemies[i].HP -= 20
			if w.enemies[i].HP <= 0 {
				w.enemies = append(w.enemies[:i], w.enemies[i+1:]...)
				w.kills++
			}
			return
		}
	case core.ActionReload:
		w.me.Ammo = magazineSize
	case core.ActionThrowSmoke:
		w.me.Cooldowns["throw_smoke"] = 10
	case core.ActionWait:
		// no-op
	}
}

// stepToward moves one grid cell toward the target, axis by axis.
func stepToward(from, to core.IVec2) core.IVec2 {
	next := from
	switch {
	case to.X > from.X:
		next.X++
	case to.X < from.X:
		next.X--
	case to.Y > from.Y:
		next.Y++
	case to.Y < from.Y:
		next.Y--
	}
	return next
}
