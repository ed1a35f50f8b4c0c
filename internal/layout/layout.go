package layout

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lumiere-studio/lumiere/internal/spiral"
)

// LightStringSegments is the resolution of the light-string polyline.
const LightStringSegments = 400

// Layout is the full static arrangement of the scene. It is computed once at
// startup and again only when the configured photo count changes.
type Layout struct {
	Seed         uint64
	Tree         spiral.Config
	Slots        []Slot
	PhotoScatter map[string]r3.Vec
	Ornaments    []Ornament
	Presents     []Present
	Particles    []Particle
	Tinsel       []Tinsel
	LightString  []r3.Vec
}

// Generate builds a layout for photoCount slots. Everything but the slot ids
// is reproducible from seed.
func Generate(tree spiral.Config, cfg ScatterConfig, photoCount int, seed uint64) *Layout {
	slots := NewSlots(tree, photoCount)
	photos := SlotPositions(slots)

	// Independent streams keep one group's count from shifting another's draws.
	return &Layout{
		Seed:         seed,
		Tree:         tree,
		Slots:        slots,
		PhotoScatter: PhotoScatter(slots, cfg, rand.NewPCG(seed, 1)),
		Ornaments:    PlaceOrnaments(tree, photos, cfg, rand.NewPCG(seed, 2)),
		Presents:     PlacePresents(tree, photos, cfg, rand.NewPCG(seed, 3)),
		Particles:    PlaceTreeParticles(tree, cfg, rand.NewPCG(seed, 4)),
		Tinsel:       PlaceTinsel(tree, cfg, rand.NewPCG(seed, 5)),
		LightString:  tree.Samples(LightStringSegments),
	}
}
