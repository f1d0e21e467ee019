package goap

import "github.com/tickwise/cortex/internal/core"

// Fact names used by the default action library.
const (
	FactThreat      = "threat"
	FactInCover     = "in_cover"
	FactLoaded      = "loaded"
	FactSmokeOut    = "smoke_out"
	FactAtObjective = "at_objective"
)

const coverRadius = 2

// DeriveState projects a snapshot onto the boolean fact space the
// planner searches over.
func DeriveState(snap *core.WorldSnapshot) WorldState {
	state := WorldState{
		FactThreat:      len(snap.Enemies) > 0,
		FactLoaded:      snap.Me.Ammo > 0,
		FactSmokeOut:    snap.Me.Cooldowns["throw_smoke"] > 0,
		FactInCover:     false,
		FactAtObjective: false,
	}
	if cover, ok := nearestPOI(snap, "cover"); ok {
		state[FactInCover] = manhattan(snap.Me.Pos, cover.Pos) <= coverRadius
	}
	if obj, ok := objectivePOI(snap); ok {
		state[FactAtObjective] = snap.Me.Pos == obj.Pos
	}
	return state
}

// selectGoal picks the most pressing goal for the derived state:
// eliminate visible threats first, otherwise push to the objective.
func selectGoal(state WorldState) WorldState {
	if state[FactThreat] {
		return WorldState{FactThreat: false}
	}
	return WorldState{FactAtObjective: true}
}

// defaultActions is the tactical operator library. Costs are relative;
// the search prefers cheap direct engagement but falls back to reloading
// or repositioning when preconditions demand it.
func defaultActions() []Action {
	return []Action{
		{
			Name:          "engage",
			Cost:          2,
			Preconditions: WorldState{FactThreat: true, FactLoaded: true},
			Effects:       WorldState{FactThreat: false},
			Build: func(snap *core.WorldSnapshot) core.ActionStep {
				if e, ok := nearestEnemy(snap); ok {
					return core.Attack(e.ID, "standing")
				}
				return core.Wait(0.5)
			},
		},
		{
			Name:          "engage_from_cover",
			Cost:          1,
			Preconditions: WorldState{FactThreat: true, FactLoaded: true, FactInCover: true},
			Effects:       WorldState{FactThreat: false},
			Build: func(snap *core.WorldSnapshot) core.ActionStep {
				if e, ok := nearestEnemy(snap); ok {
					return core.Attack(e.ID, "crouched")
				}
				return core.Wait(0.5)
			},
		},
		{
			Name:          "take_cover",
			Cost:          1,
			Preconditions: WorldState{FactInCover: false},
			Effects:       WorldState{FactInCover: true},
			Build: func(snap *core.WorldSnapshot) core.ActionStep {
				if c, ok := nearestPOI(snap, "cover"); ok {
					return core.TakeCover(c.Pos.X, c.Pos.Y)
				}
				return core.TakeCover(snap.Me.Pos.X, snap.Me.Pos.Y)
			},
		},
		{
			Name:          "reload",
			Cost:          1,
			Preconditions: WorldState{FactLoaded: false},
			Effects:       WorldState{FactLoaded: true},
			Build: func(*core.WorldSnapshot) core.ActionStep {
				return core.Reload()
			},
		},
		{
			Name:          "throw_smoke",
			Cost:          3,
			Preconditions: WorldState{FactThreat: true, FactSmokeOut: false},
			Effects:       WorldState{FactSmokeOut: true, FactInCover: true},
			Build: func(snap *core.WorldSnapshot) core.ActionStep {
				if e, ok := nearestEnemy(snap); ok {
					return core.ThrowSmoke(e.Pos.X, e.Pos.Y)
				}
				return core.ThrowSmoke(snap.Me.Pos.X, snap.Me.Pos.Y)
			},
		},
		{
			Name:          "advance_to_objective",
			Cost:          2,
			Preconditions: WorldState{FactThreat: false, FactAtObjective: false},
			Effects:       WorldState{FactAtObjective: true},
			Build: func(snap *core.WorldSnapshot) core.ActionStep {
				if obj, ok := objectivePOI(snap); ok {
					return core.MoveTo(obj.Pos.X, obj.Pos.Y)
				}
				return core.Wait(1.0)
			},
		},
	}
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
	for i, p := range snap.POIs {
		if p.Kind != kind {
			continue
		}
		d := manhattan(snap.Me.Pos, p.Pos)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return core.PointOfInterest{}, false
	}
	return snap.POIs[best], true
}

func objectivePOI(snap *core.WorldSnapshot) (core.PointOfInterest, bool) {
	return nearestPOI(snap, "objective")
}
