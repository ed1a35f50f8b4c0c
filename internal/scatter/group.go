package scatter

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Entity is one animated item: where it lives on the tree and how far it
// flies when exploded.
type Entity struct {
	ID      string
	Home    r3.Vec
	Scatter r3.Vec
	// Phase offsets the drift so entities do not bob in unison.
	Phase float64
}

// Transform is the rendered position of one entity.
type Transform struct {
	ID       string `json:"id"`
	Position r3.Vec `json:"position"`
}

// Group is a set of entities sharing one animator.
type Group struct {
	Name     string
	Entities []Entity
	Animator Animator
	// Drift is the amplitude of the floating motion at full explosion.
	Drift float64
	// HideAbove hides the group once progress exceeds it. Zero never hides.
	HideAbove float64
}

// NewGroup creates an assembled group with the default rates.
func NewGroup(name string, entities []Entity) *Group {
	return &Group{Name: name, Entities: entities, Animator: NewAnimator()}
}

// Update steps the group's animator.
func (g *Group) Update(dt float64, exploded bool) {
	g.Animator.Update(dt, exploded)
}

// Progress returns the shared explode progress.
func (g *Group) Progress() float64 {
	return g.Animator.Progress
}

// Visible reports whether the group should be drawn.
func (g *Group) Visible() bool {
	return g.HideAbove == 0 || g.Animator.Progress <= g.HideAbove
}

// Position returns the rendered position of e at time t seconds.
func (g *Group) Position(e Entity, t float64) r3.Vec {
	p := g.Animator.Progress
	pos := r3.Add(e.Home, r3.Scale(p, e.Scatter))
	if g.Drift == 0 || p == 0 {
		return pos
	}
	drift := r3.Vec{
		X: math.Sin(t*0.5 + e.Phase),
		Y: math.Cos(t*0.7 + e.Phase),
		Z: math.Sin(t*0.3 + e.Phase),
	}
	return r3.Add(pos, r3.Scale(g.Drift*p, drift))
}

// Transforms returns every entity's rendered position at time t seconds.
func (g *Group) Transforms(t float64) []Transform {
	out := make([]Transform, len(g.Entities))
	for i, e := range g.Entities {
		out[i] = Transform{ID: e.ID, Position: g.Position(e, t)}
	}
	return out
}

// State is the per-frame summary of a group sent to the renderer.
type State struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	Visible  bool    `json:"visible"`
}

// State summarises the group.
func (g *Group) State() State {
	return State{Name: g.Name, Progress: g.Progress(), Visible: g.Visible()}
}
