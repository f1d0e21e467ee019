package core

// IVec2 is an integer grid position.
type IVec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AgentState describes the deciding agent at snapshot time.
type AgentState struct {
	Pos       IVec2              `json:"pos"`
	Health    int                `json:"health"`
	Ammo      int                `json:"ammo"`
	Morale    float64            `json:"morale"`
	Cooldowns map[string]float64 `json:"cooldowns,omitempty"`
}

// EnemyState describes one visible hostile entity.
type EnemyState struct {
	ID       string  `json:"id"`
	Pos      IVec2   `json:"pos"`
	HP       int     `json:"hp"`
	Cover    string  `json:"cover"`
	LastSeen float64 `json:"last_seen"`
}

// PointOfInterest marks a tactically relevant position (cover spot,
// objective marker, pickup).
type PointOfInterest struct {
	Pos  IVec2  `json:"pos"`
	Kind string `json:"kind"`
}

// WorldSnapshot is an immutable description of everything the planners
// need at one instant of simulation time. It crosses the background-task
// boundary by value, so it must stay cheap to clone.
type WorldSnapshot struct {
	T         float64           `json:"t"`
	AgentID   string            `json:"agent_id"`
	Me        AgentState        `json:"me"`
	Enemies   []EnemyState      `json:"enemies,omitempty"`
	POIs      []PointOfInterest `json:"pois,omitempty"`
	Obstacles []IVec2           `json:"obstacles,omitempty"`
	Objective string            `json:"objective,omitempty"`
}

// Clone returns a deep copy safe to hand to a background goroutine.
func (s *WorldSnapshot) Clone() *WorldSnapshot {
	out := *s
	if s.Me.Cooldowns != nil {
		out.Me.Cooldowns = make(map[string]float64, len(s.Me.Cooldowns))
		for k, v := range s.Me.Cooldowns {
			out.Me.Cooldowns[k] = v
		}
	}
	if s.Enemies != nil {
		out.Enemies = append([]EnemyState(nil), s.Enemies...)
	}
	if s.POIs != nil {
		out.POIs = append([]PointOfInterest(nil), s.POIs...)
	}
	if s.Obstacles != nil {
		out.Obstacles = append([]IVec2(nil), s.Obstacles...)
	}
	return &out
}
