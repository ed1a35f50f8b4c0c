package api

import (
	"net/http"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lumiere-studio/lumiere/internal/layout"
	"github.com/lumiere-studio/lumiere/internal/scene"
)

// LayoutHandler serves the static scene layout. The renderer loads it once
// and again whenever the seq it was built for changes.
type LayoutHandler struct {
	scene *scene.Scene
}

// NewLayoutHandler creates a new LayoutHandler.
func NewLayoutHandler(sc *scene.Scene) *LayoutHandler {
	return &LayoutHandler{scene: sc}
}

type treeResponse struct {
	Height       float64 `json:"height"`
	RadiusBottom float64 `json:"radiusBottom"`
	RadiusOffset float64 `json:"radiusOffset"`
	Loops        float64 `json:"loops"`
}

type slotResponse struct {
	ID          string                 `json:"id"`
	Index       int                    `json:"index"`
	Position    r3.Vec                 `json:"position"`
	Yaw         float64                `json:"yaw"`
	Placeholder layout.PlaceholderKind `json:"placeholder"`
	Scatter     r3.Vec                 `json:"scatter"`
}

type decorationResponse struct {
	Position r3.Vec  `json:"position"`
	Scatter  r3.Vec  `json:"scatter"`
	Scale    float64 `json:"scale"`
	Yaw      float64 `json:"yaw"`
	Color    string  `json:"color"`
}

type particleResponse struct {
	Position r3.Vec  `json:"position"`
	Scatter  r3.Vec  `json:"scatter"`
	Rotation r3.Vec  `json:"rotation"`
	Scale    float64 `json:"scale"`
	Shade    float64 `json:"shade"`
}

type tinselResponse struct {
	Position   r3.Vec  `json:"position"`
	Scatter    r3.Vec  `json:"scatter"`
	Glow       float64 `json:"glow"`
	Brightness float64 `json:"brightness"`
}

type layoutResponse struct {
	Seed        uint64               `json:"seed"`
	Tree        treeResponse         `json:"tree"`
	Slots       []slotResponse       `json:"slots"`
	Ornaments   []decorationResponse `json:"ornaments"`
	Presents    []decorationResponse `json:"presents"`
	Particles   []particleResponse   `json:"particles"`
	Tinsel      []tinselResponse     `json:"tinsel"`
	LightString []r3.Vec             `json:"lightString"`
}

func toLayoutResponse(l *layout.Layout) layoutResponse {
	resp := layoutResponse{
		Seed: l.Seed,
		Tree: treeResponse{
			Height:       l.Tree.Height,
			RadiusBottom: l.Tree.RadiusBottom,
			RadiusOffset: l.Tree.RadiusOffset,
			Loops:        l.Tree.Loops,
		},
		Slots:       make([]slotResponse, len(l.Slots)),
		Ornaments:   make([]decorationResponse, len(l.Ornaments)),
		Presents:    make([]decorationResponse, len(l.Presents)),
		Particles:   make([]particleResponse, len(l.Particles)),
		Tinsel:      make([]tinselResponse, len(l.Tinsel)),
		LightString: l.LightString,
	}
	for i, s := range l.Slots {
		resp.Slots[i] = slotResponse{
			ID:          s.ID,
			Index:       s.Index,
			Position:    s.Position,
			Yaw:         s.Yaw,
			Placeholder: s.Placeholder,
			Scatter:     l.PhotoScatter[s.ID],
		}
	}
	for i, o := range l.Ornaments {
		resp.Ornaments[i] = decorationResponse{Position: o.Position, Scatter: o.Scatter, Scale: o.Scale, Yaw: o.Yaw, Color: o.Color}
	}
	for i, p := range l.Presents {
		resp.Presents[i] = decorationResponse{Position: p.Position, Scatter: p.Scatter, Scale: p.Scale, Yaw: p.Yaw, Color: p.Color}
	}
	for i, p := range l.Particles {
		resp.Particles[i] = particleResponse{Position: p.Position, Scatter: p.Scatter, Rotation: p.Rotation, Scale: p.Scale, Shade: p.Shade}
	}
	for i, p := range l.Tinsel {
		resp.Tinsel[i] = tinselResponse{Position: p.Position, Scatter: p.Scatter, Glow: p.Glow, Brightness: p.Brightness}
	}
	return resp
}

// ServeHTTP handles GET /api/layout.
func (h *LayoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, toLayoutResponse(h.scene.Layout()))
}
