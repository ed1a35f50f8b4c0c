// Package imaging produces the images shown on photo slots: placeholder
// artwork for empty slots and square, WebP-encoded versions of uploads.
package imaging

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/lumiere-studio/lumiere/internal/layout"
)

// Placeholder artwork is drawn on a 512 unit canvas centred on the origin and
// scaled to the requested size.
const artSize = 512

var (
	gradientInner = color.NRGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	gradientOuter = color.NRGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	iconWhite     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	clapperGray   = color.NRGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}
)

// pen draws art-space shapes onto a rasterizer.
type pen struct {
	z     *vector.Rasterizer
	scale float32
	// origin in art space
	ox, oy float64
}

func newPen(size int) *pen {
	return &pen{
		z:     vector.NewRasterizer(size, size),
		scale: float32(size) / artSize,
		ox:    artSize / 2,
		oy:    artSize / 2,
	}
}

func (p *pen) pt(x, y float64) (float32, float32) {
	return float32(x+p.ox) * p.scale, float32(y+p.oy) * p.scale
}

func (p *pen) moveTo(x, y float64) { p.z.MoveTo(p.pt(x, y)) }
func (p *pen) lineTo(x, y float64) { p.z.LineTo(p.pt(x, y)) }

func (p *pen) cubeTo(x1, y1, x2, y2, x3, y3 float64) {
	ax, ay := p.pt(x1, y1)
	bx, by := p.pt(x2, y2)
	cx, cy := p.pt(x3, y3)
	p.z.CubeTo(ax, ay, bx, by, cx, cy)
}

func (p *pen) close() { p.z.ClosePath() }

// polygon adds a closed polygon.
func (p *pen) polygon(pts [][2]float64) {
	p.moveTo(pts[0][0], pts[0][1])
	for _, q := range pts[1:] {
		p.lineTo(q[0], q[1])
	}
	p.close()
}

// arc adds the closed ellipse segment between angles from and to, rotated by
// rot radians.
func (p *pen) arc(cx, cy, rx, ry, rot, from, to float64) {
	const segments = 48
	sin, cos := math.Sincos(rot)
	pts := make([][2]float64, 0, segments+1)
	for i := 0; i <= segments; i++ {
		a := from + (to-from)*float64(i)/segments
		x, y := rx*math.Cos(a), ry*math.Sin(a)
		pts = append(pts, [2]float64{cx + x*cos - y*sin, cy + x*sin + y*cos})
	}
	p.polygon(pts)
}

func (p *pen) circle(cx, cy, r float64) {
	p.arc(cx, cy, r, r, 0, 0, 2*math.Pi)
}

// stroke adds a line segment of width w with round caps.
func (p *pen) stroke(x0, y0, x1, y1, w float64) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		p.circle(x0, y0, w/2)
		return
	}
	nx, ny := -dy/l*w/2, dx/l*w/2
	p.polygon([][2]float64{
		{x0 - nx, y0 - ny},
		{x1 - nx, y1 - ny},
		{x1 + nx, y1 + ny},
		{x0 + nx, y0 + ny},
	})
	p.circle(x0, y0, w/2)
	p.circle(x1, y1, w/2)
}

// fill paints everything added since the last fill and clears the path.
// Shapes must share a winding direction; opposite windings cancel, which the
// border uses to cut its inner edge.
func (p *pen) fill(dst draw.Image, c color.Color) {
	p.z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
	b := dst.Bounds()
	p.z.Reset(b.Dx(), b.Dy())
}

// Placeholder renders the artwork for an empty slot: a dark radial gradient
// with a white border and a white icon for kind.
func Placeholder(kind layout.PlaceholderKind, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	radialGradient(img)

	p := newPen(size)

	// Border: an 8 unit frame inset by 20.
	p.polygon([][2]float64{{-240, -240}, {240, -240}, {240, 240}, {-240, 240}})
	p.polygon([][2]float64{{-232, -232}, {-232, 232}, {232, 232}, {232, -232}})
	p.fill(img, iconWhite)

	switch kind {
	case layout.PlaceholderBell:
		drawBell(p, img)
	case layout.PlaceholderTree:
		drawTree(p, img)
	default:
		drawSnowflake(p, img)
	}
	return img
}

func radialGradient(img *image.NRGBA) {
	b := img.Bounds()
	scale := float64(b.Dx()) / artSize
	inner, outer := 50*scale, 400*scale
	c := float64(b.Dx()) / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c)
			t := math.Max(0, math.Min(1, (d-inner)/(outer-inner)))
			img.SetNRGBA(x, y, mix(gradientInner, gradientOuter, t))
		}
	}
}

func mix(a, b color.NRGBA, t float64) color.NRGBA {
	l := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: 0xff}
}

func drawSnowflake(p *pen, img *image.NRGBA) {
	for i := 0; i < 6; i++ {
		sin, cos := math.Sincos(math.Pi / 3 * float64(i))
		rot := func(x, y float64) (float64, float64) {
			return x*cos - y*sin, x*sin + y*cos
		}
		seg := func(x0, y0, x1, y1, w float64) {
			ax, ay := rot(x0, y0)
			bx, by := rot(x1, y1)
			p.stroke(ax, ay, bx, by, w)
		}

		seg(0, 0, 0, -135, 14)
		seg(0, -50, -35, -85, 10)
		seg(0, -50, 35, -85, 10)
		seg(0, -95, -30, -125, 10)
		seg(0, -95, 30, -125, 10)
	}
	p.circle(0, 0, 10)
	p.fill(img, iconWhite)
}

func drawBell(p *pen, img *image.NRGBA) {
	p.moveTo(0, -100)
	p.cubeTo(90, -100, 90, 80, 130, 130)
	p.lineTo(-130, 130)
	p.cubeTo(-90, 80, -90, -100, 0, -100)
	p.close()
	p.fill(img, iconWhite)

	p.arc(0, 130, 30, 30, 0, 0, math.Pi)
	p.fill(img, clapperGray)

	p.arc(-40, -110, 40, 25, -math.Pi/4, 0, 2*math.Pi)
	p.arc(40, -110, 40, 25, math.Pi/4, 0, 2*math.Pi)
	p.circle(0, -110, 15)
	p.fill(img, iconWhite)
}

func drawTree(p *pen, img *image.NRGBA) {
	p.polygon([][2]float64{{-30, 120}, {30, 120}, {30, 180}, {-30, 180}})

	tier := func(base, width, height float64) {
		p.polygon([][2]float64{{0, base - height}, {width, base}, {-width, base}})
	}
	tier(130, 110, 100)
	tier(60, 90, 90)
	tier(-10, 70, 80)

	// Five-point star above the top tier.
	const spikes, outer, inner = 5, 25.0, 10.0
	star := make([][2]float64, 0, 2*spikes)
	rot := math.Pi / 2 * 3
	for i := 0; i < spikes; i++ {
		star = append(star, [2]float64{math.Cos(rot) * outer, -100 + math.Sin(rot)*outer})
		rot += math.Pi / spikes
		star = append(star, [2]float64{math.Cos(rot) * inner, -100 + math.Sin(rot)*inner})
		rot += math.Pi / spikes
	}
	p.polygon(star)
	p.fill(img, iconWhite)
}
