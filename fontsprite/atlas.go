package fontsprite

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"

	// Atlas formats decodable through image.Decode.
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrGlyphSize is returned when glyph cell dimensions do not fit the
// atlas image.
var ErrGlyphSize = errors.New("fontsprite: invalid glyph size")

// Atlas is a decoded font sprite sheet divided into fixed-size glyph
// cells. Pixels are stored as RGBA with the bottom row first, matching
// the texture orientation the glyph shader expects.
type Atlas struct {
	pixels []byte
	width  int
	height int

	glyphWidth  int
	glyphHeight int
	columns     int
	rows        int
}

// DecodeAtlas reads an atlas image (PNG or BMP) and divides it into
// glyphWidth by glyphHeight cells.
func DecodeAtlas(r io.Reader, glyphWidth, glyphHeight int) (*Atlas, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("fontsprite: decode atlas: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if glyphWidth <= 0 || glyphHeight <= 0 || glyphWidth > width || glyphHeight > height {
		return nil, fmt.Errorf("%w: %dx%d cells in %dx%d %s image",
			ErrGlyphSize, glyphWidth, glyphHeight, width, height, format)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	// Flip rows so row 0 of the pixel data is the bottom of the image.
	pixels := make([]byte, len(rgba.Pix))
	rowLen := rgba.Stride
	for y := 0; y < height; y++ {
		src := rgba.Pix[y*rowLen : y*rowLen+width*4]
		dst := pixels[(height-1-y)*width*4:]
		copy(dst, src)
	}

	return &Atlas{
		pixels:      pixels,
		width:       width,
		height:      height,
		glyphWidth:  glyphWidth,
		glyphHeight: glyphHeight,
		columns:     width / glyphWidth,
		rows:        height / glyphHeight,
	}, nil
}

// Pixels returns the RGBA pixel data, bottom row first.
func (a *Atlas) Pixels() []byte { return a.pixels }

// Width returns the atlas width in pixels.
func (a *Atlas) Width() int { return a.width }

// Height returns the atlas height in pixels.
func (a *Atlas) Height() int { return a.height }

// GlyphWidth returns the width of a single glyph cell.
func (a *Atlas) GlyphWidth() int { return a.glyphWidth }

// GlyphHeight returns the height of a single glyph cell.
func (a *Atlas) GlyphHeight() int { return a.glyphHeight }

// Columns returns the number of glyph columns in the atlas.
func (a *Atlas) Columns() int { return a.columns }

// Rows returns the number of glyph rows in the atlas.
func (a *Atlas) Rows() int { return a.rows }
