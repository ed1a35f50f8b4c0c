// Package diag renders diagnostic plots of a generated layout.
package diag

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lumiere-studio/lumiere/internal/layout"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	photoColor    = color.RGBA{R: 0xf5, G: 0xd0, B: 0x6f, A: 0xff}
	ornamentColor = color.RGBA{R: 0xc0, G: 0x39, B: 0x2b, A: 0xff}
	presentColor  = color.RGBA{R: 0x27, G: 0xae, B: 0x60, A: 0xff}
	lightColor    = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// PlotLayout saves a top-down view of l to path. The format follows the
// file extension (.png, .svg, .pdf).
func PlotLayout(l *layout.Layout, path string) error {
	if l == nil {
		return errors.New("nil layout")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Layout seed %d (%d photos)", l.Seed, len(l.Slots))
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"
	p.Add(plotter.NewGrid())

	if len(l.LightString) > 1 {
		line, err := plotter.NewLine(topDown(l.LightString))
		if err != nil {
			return fmt.Errorf("light string: %w", err)
		}
		line.Color = lightColor
		line.Width = vg.Points(0.5)
		p.Add(line)
		p.Legend.Add("lights", line)
	}

	photos := make([]r3.Vec, len(l.Slots))
	for i, s := range l.Slots {
		photos[i] = s.Position
	}
	ornaments := make([]r3.Vec, len(l.Ornaments))
	for i, o := range l.Ornaments {
		ornaments[i] = o.Position
	}
	presents := make([]r3.Vec, len(l.Presents))
	for i, pr := range l.Presents {
		presents[i] = pr.Position
	}

	groups := []struct {
		name   string
		points []r3.Vec
		color  color.Color
		shape  draw.GlyphDrawer
		radius vg.Length
	}{
		{"ornaments", ornaments, ornamentColor, draw.CircleGlyph{}, vg.Points(2)},
		{"presents", presents, presentColor, draw.BoxGlyph{}, vg.Points(3)},
		{"photos", photos, photoColor, draw.SquareGlyph{}, vg.Points(4)},
	}
	for _, g := range groups {
		if len(g.points) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(topDown(g.points))
		if err != nil {
			return fmt.Errorf("%s: %w", g.name, err)
		}
		sc.GlyphStyle.Color = g.color
		sc.GlyphStyle.Shape = g.shape
		sc.GlyphStyle.Radius = g.radius
		p.Add(sc)
		p.Legend.Add(g.name, sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

// topDown projects points onto the ground plane.
func topDown(points []r3.Vec) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, v := range points {
		xys[i] = plotter.XY{X: v.X, Y: v.Z}
	}
	return xys
}
