package layout

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lumiere-studio/lumiere/internal/spiral"
)

// Decoration colours.
const (
	ColorGold = "#f2e24e"
	ColorRed  = "#ff421c"
)

// PresentColors is the palette presents are wrapped in.
var PresentColors = []string{"#D32F2F", "#388E3C", "#1976D2", "#7B1FA2", "#FBC02D", "#E64A19"}

// ScatterConfig tunes the rejection-sampled decorations. Tests shrink the
// counts and attempts to keep runs small.
type ScatterConfig struct {
	OrnamentCount      int     `toml:"ornament_count"`
	HeightBias         float64 `toml:"height_bias"`
	RadiusMin          float64 `toml:"radius_min"`
	RadiusMax          float64 `toml:"radius_max"`
	OrnamentSeparation float64 `toml:"ornament_separation"`
	PhotoClearance     float64 `toml:"photo_clearance"`
	MaxAttempts        int     `toml:"max_attempts"`

	PresentCount      int     `toml:"present_count"`
	PresentRingInner  float64 `toml:"present_ring_inner"`
	PresentRingWidth  float64 `toml:"present_ring_width"`
	PresentSeparation float64 `toml:"present_separation"`

	ParticleCount int     `toml:"particle_count"`
	ParticleBias  float64 `toml:"particle_bias"`

	// Tinsel puffs TinselPerPoint points around each of TinselPoints+1
	// evenly spaced light-string samples.
	TinselPoints    int     `toml:"tinsel_points"`
	TinselPerPoint  int     `toml:"tinsel_per_point"`
	TinselRadiusMin float64 `toml:"tinsel_radius_min"`
	TinselRadiusMax float64 `toml:"tinsel_radius_max"`
	TinselScatter   float64 `toml:"tinsel_scatter"`

	// Explode displacement magnitude range for decorations.
	ScatterMin float64 `toml:"scatter_min"`
	ScatterMax float64 `toml:"scatter_max"`

	// Photos scatter into a box in front of the default camera.
	FrontCenter r3.Vec `toml:"-"`
	FrontExtent r3.Vec `toml:"-"`
}

// DefaultScatterConfig returns the decoration density used by the scene.
func DefaultScatterConfig() ScatterConfig {
	return ScatterConfig{
		OrnamentCount:      80,
		HeightBias:         2.0,
		RadiusMin:          0.8,
		RadiusMax:          0.95,
		OrnamentSeparation: 0.6,
		PhotoClearance:     1.2,
		MaxAttempts:        30,

		PresentCount:      20,
		PresentRingInner:  1,
		PresentRingWidth:  4,
		PresentSeparation: 1.6,

		ParticleCount: 10000,
		ParticleBias:  1.2,

		TinselPoints:    1200,
		TinselPerPoint:  12,
		TinselRadiusMin: 0.05,
		TinselRadiusMax: 0.25,
		TinselScatter:   15,

		ScatterMin: 12,
		ScatterMax: 20,

		FrontCenter: r3.Vec{X: 0, Y: 0, Z: 14},
		FrontExtent: r3.Vec{X: 8, Y: 5, Z: 4},
	}
}

// Ornament is a bauble hung inside the branches.
type Ornament struct {
	Position r3.Vec
	Scatter  r3.Vec
	Scale    float64
	Yaw      float64
	Color    string
}

// Present is a wrapped box on the floor around the tree.
type Present struct {
	Position r3.Vec
	Scatter  r3.Vec
	Scale    float64
	Yaw      float64
	Color    string
}

// Particle is one needle cluster of the tree body.
type Particle struct {
	Position r3.Vec
	Scatter  r3.Vec
	Rotation r3.Vec
	Scale    float64
	// Shade is the normalized height used for the base-to-top colour gradient.
	Shade float64
}

// Tinsel is one glowing point of the fluff around the light string.
type Tinsel struct {
	Position r3.Vec
	Scatter  r3.Vec
	// Glow mixes the light-string colour towards white.
	Glow       float64
	Brightness float64
}

// sampler draws from gonum distributions backed by one shared source so a
// layout is reproducible from its seed.
type sampler struct {
	src rand.Source
}

func (s sampler) uniform(min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: s.src}.Rand()
}

func (s sampler) angle() float64 {
	return s.uniform(0, 2*math.Pi)
}

func (s sampler) pick(n int) int {
	i := int(s.uniform(0, float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

// scatterVector points away from the origin with a random magnitude.
func (s sampler) scatterVector(home r3.Vec, min, max float64) r3.Vec {
	dir := r3.Vec{Y: 1}
	if r3.Norm(home) > 1e-9 {
		dir = r3.Unit(home)
	}
	return r3.Scale(s.uniform(min, max), dir)
}

// clearOf reports whether p is further than sep from every point in others.
func clearOf(p r3.Vec, others []r3.Vec, sep float64) bool {
	for _, o := range others {
		if r3.Norm(r3.Sub(p, o)) <= sep {
			return false
		}
	}
	return true
}

// PlaceOrnaments rejection-samples ornament positions inside the tree volume.
// Heights are biased towards the base by HeightBias. A candidate is accepted
// only if it clears every photo by PhotoClearance and every placed ornament by
// OrnamentSeparation; after MaxAttempts the ornament is skipped, so fewer than
// OrnamentCount ornaments may be returned.
func PlaceOrnaments(tree spiral.Config, photos []r3.Vec, cfg ScatterConfig, src rand.Source) []Ornament {
	s := sampler{src: src}
	ornaments := make([]Ornament, 0, cfg.OrnamentCount)
	placed := make([]r3.Vec, 0, cfg.OrnamentCount)

	for i := 0; i < cfg.OrnamentCount; i++ {
		for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
			h := math.Pow(s.uniform(0, 1), cfg.HeightBias)
			maxRadius := tree.RadiusBottom * (1 - h)
			r := maxRadius * s.uniform(cfg.RadiusMin, cfg.RadiusMax)
			theta := s.angle()

			candidate := r3.Vec{
				X: r * math.Cos(theta),
				Y: h*tree.Height - tree.Height/2,
				Z: r * math.Sin(theta),
			}

			if !clearOf(candidate, photos, cfg.PhotoClearance) || !clearOf(candidate, placed, cfg.OrnamentSeparation) {
				continue
			}

			color := ColorGold
			if s.uniform(0, 1) > 0.5 {
				color = ColorRed
			}

			ornaments = append(ornaments, Ornament{
				Position: candidate,
				Scatter:  s.scatterVector(candidate, cfg.ScatterMin, cfg.ScatterMax),
				Scale:    s.uniform(0.15, 0.30),
				Yaw:      s.angle(),
				Color:    color,
			})
			placed = append(placed, candidate)
			break
		}
	}

	return ornaments
}

// PlacePresents scatters presents on a ring around the base of the tree using
// the same bounded rejection sampling as ornaments.
func PlacePresents(tree spiral.Config, photos []r3.Vec, cfg ScatterConfig, src rand.Source) []Present {
	s := sampler{src: src}
	presents := make([]Present, 0, cfg.PresentCount)
	placed := make([]r3.Vec, 0, cfg.PresentCount)

	inner := tree.RadiusBottom + cfg.PresentRingInner

	for i := 0; i < cfg.PresentCount; i++ {
		for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
			theta := s.angle()
			r := inner + s.uniform(0, cfg.PresentRingWidth)

			candidate := r3.Vec{
				X: math.Cos(theta) * r,
				Y: -tree.Height / 2,
				Z: math.Sin(theta) * r,
			}

			if !clearOf(candidate, photos, cfg.PhotoClearance) || !clearOf(candidate, placed, cfg.PresentSeparation) {
				continue
			}

			// Presents fly outwards along the floor, not down through it.
			outward := r3.Vec{X: candidate.X, Z: candidate.Z}

			presents = append(presents, Present{
				Position: candidate,
				Scatter:  s.scatterVector(outward, cfg.ScatterMin, cfg.ScatterMax),
				Scale:    s.uniform(0.6, 1.4),
				Yaw:      s.angle(),
				Color:    PresentColors[s.pick(len(PresentColors))],
			})
			placed = append(placed, candidate)
			break
		}
	}

	return presents
}

// PlaceTreeParticles fills the cone volume. Particles do not collide; they are
// the tree body itself.
func PlaceTreeParticles(tree spiral.Config, cfg ScatterConfig, src rand.Source) []Particle {
	s := sampler{src: src}
	particles := make([]Particle, cfg.ParticleCount)

	for i := range particles {
		yNorm := math.Pow(s.uniform(0, 1), cfg.ParticleBias)
		rMax := tree.RadiusBottom * (1 - yNorm)
		r := math.Sqrt(s.uniform(0, 1)) * rMax
		theta := s.angle()

		pos := r3.Vec{
			X: r * math.Cos(theta),
			Y: yNorm*tree.Height - tree.Height/2,
			Z: r * math.Sin(theta),
		}

		particles[i] = Particle{
			Position: pos,
			Scatter:  s.scatterVector(pos, cfg.ScatterMin*0.75, cfg.ScatterMax*0.75),
			Rotation: r3.Vec{X: s.uniform(0, math.Pi), Y: s.uniform(0, math.Pi), Z: s.uniform(0, math.Pi)},
			Scale:    s.uniform(0.5, 1.0),
			Shade:    yNorm,
		}
	}

	return particles
}

// PlaceTinsel scatters fluff points in a small shell around evenly spaced
// samples of the light string. Each point explodes straight away from the
// origin by TinselScatter.
func PlaceTinsel(tree spiral.Config, cfg ScatterConfig, src rand.Source) []Tinsel {
	if cfg.TinselPoints <= 0 || cfg.TinselPerPoint <= 0 {
		return nil
	}
	s := sampler{src: src}
	points := tree.Samples(cfg.TinselPoints)
	tinsel := make([]Tinsel, 0, len(points)*cfg.TinselPerPoint)

	for _, pt := range points {
		for j := 0; j < cfg.TinselPerPoint; j++ {
			r := s.uniform(cfg.TinselRadiusMin, cfg.TinselRadiusMax)
			theta := s.angle()
			phi := s.uniform(0, math.Pi)
			pos := r3.Add(pt, r3.Vec{
				X: r * math.Sin(phi) * math.Cos(theta),
				Y: r * math.Sin(phi) * math.Sin(theta),
				Z: r * math.Cos(phi),
			})

			dir := r3.Vec{Y: 1}
			if r3.Norm(pos) > 1e-9 {
				dir = r3.Unit(pos)
			}
			tinsel = append(tinsel, Tinsel{
				Position:   pos,
				Scatter:    r3.Scale(cfg.TinselScatter, dir),
				Glow:       s.uniform(0, 0.5),
				Brightness: s.uniform(0.8, 1.2),
			})
		}
	}
	return tinsel
}

// PhotoScatter returns, per slot id, the displacement that carries a photo from
// its home on the spiral to a random point in front of the default camera.
func PhotoScatter(slots []Slot, cfg ScatterConfig, src rand.Source) map[string]r3.Vec {
	s := sampler{src: src}
	out := make(map[string]r3.Vec, len(slots))

	for _, slot := range slots {
		target := r3.Vec{
			X: cfg.FrontCenter.X + s.uniform(-cfg.FrontExtent.X, cfg.FrontExtent.X),
			Y: cfg.FrontCenter.Y + s.uniform(-cfg.FrontExtent.Y, cfg.FrontExtent.Y),
			Z: cfg.FrontCenter.Z + s.uniform(-cfg.FrontExtent.Z, cfg.FrontExtent.Z),
		}
		out[slot.ID] = r3.Sub(target, slot.Position)
	}

	return out
}
