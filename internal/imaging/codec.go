package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/webp"

	"github.com/lumiere-studio/lumiere/internal/layout"
)

// ErrUnsupportedFormat is returned for data that is not a PNG, JPEG, GIF or
// WebP image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// MimeWebP is the content type of every image this package encodes.
const MimeWebP = "image/webp"

// Decode reads an image and reports its format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupportedFormat
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return nil
}

// Normalize turns uploaded bytes into the stored form: scaled to at most
// maxSize, padded square on the frame colour, encoded as WebP.
func Normalize(data []byte, maxSize int) ([]byte, error) {
	img, _, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := EncodeWebP(&buf, PadSquare(Fit(img, maxSize), FrameColor)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Placeholders caches the encoded placeholder artwork per kind.
type Placeholders struct {
	size int

	mu    sync.Mutex
	cache map[layout.PlaceholderKind][]byte
}

// NewPlaceholders creates a cache rendering at size pixels.
func NewPlaceholders(size int) *Placeholders {
	return &Placeholders{size: size, cache: make(map[layout.PlaceholderKind][]byte)}
}

// WebP returns the encoded placeholder for kind.
func (p *Placeholders) WebP(kind layout.PlaceholderKind) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if data, ok := p.cache[kind]; ok {
		return data, nil
	}

	var buf bytes.Buffer
	if err := EncodeWebP(&buf, Placeholder(kind, p.size)); err != nil {
		return nil, err
	}
	p.cache[kind] = buf.Bytes()
	return p.cache[kind], nil
}
