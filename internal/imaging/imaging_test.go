package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumiere-studio/lumiere/internal/layout"
)

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xf000 && g > 0xf000 && b > 0xf000
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPlaceholder(t *testing.T) {
	for _, kind := range layout.PlaceholderKinds {
		t.Run(string(kind), func(t *testing.T) {
			img := Placeholder(kind, 512)
			require.Equal(t, image.Rect(0, 0, 512, 512), img.Bounds())

			assert.True(t, isWhite(img.At(256, 256)), "icon covers the centre")
			assert.True(t, isWhite(img.At(20, 256)), "border on the left edge")
			assert.True(t, isWhite(img.At(256, 491)), "border on the bottom edge")

			corner := img.NRGBAAt(2, 2)
			assert.LessOrEqual(t, corner.B, gradientInner.B)
			assert.GreaterOrEqual(t, corner.B, gradientOuter.B)
			assert.False(t, isWhite(img.At(40, 40)), "inside the border is background")
		})
	}
}

func TestPlaceholderKindsDiffer(t *testing.T) {
	snow := Placeholder(layout.PlaceholderSnowflake, 128)
	bell := Placeholder(layout.PlaceholderBell, 128)
	tree := Placeholder(layout.PlaceholderTree, 128)

	assert.NotEqual(t, snow.Pix, bell.Pix)
	assert.NotEqual(t, bell.Pix, tree.Pix)
	assert.NotEqual(t, snow.Pix, tree.Pix)
}

func TestPadSquare(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}

	t.Run("landscape is padded", func(t *testing.T) {
		out := PadSquare(solid(200, 100, red), FrameColor)
		require.Equal(t, image.Rect(0, 0, 200, 200), out.Bounds())
		assert.Equal(t, FrameColor, out.NRGBAAt(100, 10))
		assert.Equal(t, red, out.NRGBAAt(100, 100))
		assert.Equal(t, FrameColor, out.NRGBAAt(100, 190))
	})

	t.Run("portrait is cropped", func(t *testing.T) {
		src := solid(100, 200, red)
		blue := color.NRGBA{B: 0xff, A: 0xff}
		src.SetNRGBA(0, 50, blue)

		out := PadSquare(src, FrameColor)
		require.Equal(t, image.Rect(0, 0, 100, 100), out.Bounds())
		assert.Equal(t, blue, out.NRGBAAt(0, 0))
		assert.Equal(t, red, out.NRGBAAt(50, 99))
	})

	t.Run("square is unchanged", func(t *testing.T) {
		out := PadSquare(solid(64, 64, red), FrameColor)
		assert.Equal(t, red, out.NRGBAAt(0, 0))
		assert.Equal(t, red, out.NRGBAAt(63, 63))
	})
}

func TestFit(t *testing.T) {
	img := solid(400, 100, color.NRGBA{G: 0xff, A: 0xff})

	out := Fit(img, 200)
	assert.Equal(t, image.Rect(0, 0, 200, 50), out.Bounds())

	assert.Same(t, img, Fit(img, 1000).(*image.NRGBA))
	assert.Same(t, img, Fit(img, 0).(*image.NRGBA))
}

func TestNormalize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(300, 150, color.NRGBA{R: 0x80, A: 0xff})))

	data, err := Normalize(buf.Bytes(), 100)
	require.NoError(t, err)

	img, format, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("definitely not an image")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Normalize([]byte("nope"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPlaceholdersCache(t *testing.T) {
	p := NewPlaceholders(64)

	first, err := p.WebP(layout.PlaceholderBell)
	require.NoError(t, err)
	second, err := p.WebP(layout.PlaceholderBell)
	require.NoError(t, err)
	assert.Same(t, &first[0], &second[0], "second call is served from the cache")

	img, format, err := Decode(bytes.NewReader(first))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 64, img.Bounds().Dx())
}
