// Package layout computes the static placement of everything hung on or
// around the tree: photo slots on the spiral, ornaments and presents scattered
// with collision avoidance, and the particles that fill the tree volume.
package layout

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lumiere-studio/lumiere/internal/spiral"
)

// Photos are kept off the apex and the base of the spiral.
const (
	PhotoStartT = 0.08
	PhotoEndT   = 0.92
)

// PlaceholderKind selects the generated artwork shown in an empty slot.
type PlaceholderKind string

const (
	PlaceholderSnowflake PlaceholderKind = "snowflake"
	PlaceholderBell      PlaceholderKind = "bell"
	PlaceholderTree      PlaceholderKind = "tree"
)

// PlaceholderKinds lists the placeholder kinds in the order they are assigned.
var PlaceholderKinds = []PlaceholderKind{PlaceholderSnowflake, PlaceholderBell, PlaceholderTree}

// PhotoPlacement is one evenly spaced position on the spiral.
type PhotoPlacement struct {
	T        float64
	Position r3.Vec
	Yaw      float64
}

// GeneratePhotoPositions returns n placements with t evenly spaced over
// [PhotoStartT, PhotoEndT], endpoints inclusive. A single placement sits at
// the midpoint.
func GeneratePhotoPositions(cfg spiral.Config, n int) []PhotoPlacement {
	if n <= 0 {
		return nil
	}

	placements := make([]PhotoPlacement, n)
	for i := 0; i < n; i++ {
		t := (PhotoStartT + PhotoEndT) / 2
		if n > 1 {
			t = PhotoStartT + float64(i)/float64(n-1)*(PhotoEndT-PhotoStartT)
		}

		pos := cfg.Point(t)
		placements[i] = PhotoPlacement{
			T:        t,
			Position: pos,
			Yaw:      spiral.Facing(pos),
		}
	}
	return placements
}

// Slot is a photo slot on the tree. Position and Yaw are fixed for the
// lifetime of the slot.
type Slot struct {
	ID          string
	Index       int
	Position    r3.Vec
	Yaw         float64
	Placeholder PlaceholderKind
}

// NewSlots creates n slots along the spiral with fresh ids and round-robin
// placeholder kinds.
func NewSlots(cfg spiral.Config, n int) []Slot {
	placements := GeneratePhotoPositions(cfg, n)

	slots := make([]Slot, len(placements))
	for i, p := range placements {
		slots[i] = Slot{
			ID:          uuid.NewString(),
			Index:       i,
			Position:    p.Position,
			Yaw:         p.Yaw,
			Placeholder: PlaceholderKinds[i%len(PlaceholderKinds)],
		}
	}
	return slots
}

// SlotPositions returns the centre of every slot.
func SlotPositions(slots []Slot) []r3.Vec {
	positions := make([]r3.Vec, len(slots))
	for i, s := range slots {
		positions[i] = s.Position
	}
	return positions
}
