package fontsprite

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/encoding/charmap"

	"github.com/gogpu/ssbo"
)

// ErrNilAtlas is returned when a FontSprite is created without an atlas.
var ErrNilAtlas = errors.New("fontsprite: nil atlas")

// defaultCapacity is the initial character capacity when the config
// leaves it unset.
const defaultCapacity = 32

// fallbackGlyph replaces runes outside code page 437.
const fallbackGlyph = '?'

// Config holds FontSprite creation parameters.
type Config struct {
	// Binding is the storage buffer binding index for the text block.
	Binding uint32

	// Capacity is the initial character capacity. Zero means 32.
	Capacity int
}

// FontSprite draws monospace text from a glyph atlas. The text block
// lives in a shader storage buffer that grows as longer strings are
// set.
//
// FontSprite is safe for concurrent use.
type FontSprite struct {
	mu    sync.Mutex
	store *ssbo.Store
	atlas *Atlas

	capacity int
	length   int
}

// New creates a FontSprite drawing glyphs from atlas. The storage
// buffer is allocated for cfg.Capacity characters and bound at
// cfg.Binding.
func New(device ssbo.Device, atlas *Atlas, cfg Config) (*FontSprite, error) {
	if atlas == nil {
		return nil, ErrNilAtlas
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	raw, err := inputDeclaration(capacity)
	if err != nil {
		return nil, err
	}
	store, err := ssbo.NewStore(device, raw, cfg.Binding)
	if err != nil {
		return nil, err
	}

	f := &FontSprite{
		store:    store,
		atlas:    atlas,
		capacity: capacity,
	}
	if err := f.writeHeader(); err != nil {
		_ = store.Release()
		return nil, err
	}
	if err := f.SetChromaKey(ssbo.Vec4{1, 1, 1, 1}); err != nil {
		_ = store.Release()
		return nil, err
	}
	if err := f.SetTextColor(ssbo.Vec4{0, 0, 0, 1}); err != nil {
		_ = store.Release()
		return nil, err
	}
	return f, nil
}

// inputDeclaration builds the text block declaration: glyph and
// texture metrics, chroma key and text colour, then one uint32 per
// character.
func inputDeclaration(capacity int) (*ssbo.RawLayout, error) {
	raw := ssbo.NewRawLayout()
	for _, name := range []string{"glyphWidth", "glyphHeight", "textureWidth", "textureHeight"} {
		if err := raw.AddScalar(name, ssbo.TypeUint32); err != nil {
			return nil, err
		}
	}
	if err := raw.AddScalar("chromaKey", ssbo.TypeVec4f); err != nil {
		return nil, err
	}
	if err := raw.AddScalar("textColor", ssbo.TypeVec4f); err != nil {
		return nil, err
	}
	chars, err := raw.AddArray("characters")
	if err != nil {
		return nil, err
	}
	if err := chars.SetScalar(ssbo.TypeUint32, capacity); err != nil {
		return nil, err
	}
	return raw, nil
}

// writeHeader uploads the glyph and texture metrics.
func (f *FontSprite) writeHeader() error {
	values := []struct {
		name  string
		value ssbo.Uint32
	}{
		{"glyphWidth", ssbo.Uint32(f.atlas.GlyphWidth())},
		{"glyphHeight", ssbo.Uint32(f.atlas.GlyphHeight())},
		{"textureWidth", ssbo.Uint32(f.atlas.Width())},
		{"textureHeight", ssbo.Uint32(f.atlas.Height())},
	}
	layout := f.store.Layout()
	for _, v := range values {
		elem, err := layout.Scalar(v.name)
		if err != nil {
			return err
		}
		if err := f.store.WriteScalar(elem, v.value); err != nil {
			return err
		}
	}
	return nil
}

// SetText uploads text as code page 437 glyph indices. Runes outside
// the code page are replaced with '?'. When text exceeds the current
// capacity, the buffer grows to len(text) plus half the old capacity.
func (f *FontSprite) SetText(text string) error {
	chars := encodeText(text)

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(chars) > f.capacity {
		newCap := len(chars) + f.capacity/2
		raw, err := inputDeclaration(newCap)
		if err != nil {
			return err
		}
		if err := f.store.Grow(raw); err != nil {
			return fmt.Errorf("fontsprite: grow text buffer: %w", err)
		}
		f.capacity = newCap
	}

	arr, err := f.store.Layout().Array("characters")
	if err != nil {
		return err
	}
	for i, c := range chars {
		slot, err := arr.ScalarAt(i)
		if err != nil {
			return err
		}
		if err := f.store.WriteScalar(slot, ssbo.Uint32(c)); err != nil {
			return err
		}
	}
	f.length = len(chars)
	return nil
}

// SetTextColor uploads the text foreground colour.
func (f *FontSprite) SetTextColor(c ssbo.Vec4) error {
	return f.writeVec4("textColor", c)
}

// SetChromaKey uploads the atlas background colour that the shader
// treats as transparent.
func (f *FontSprite) SetChromaKey(c ssbo.Vec4) error {
	return f.writeVec4("chromaKey", c)
}

func (f *FontSprite) writeVec4(name string, c ssbo.Vec4) error {
	elem, err := f.store.Layout().Scalar(name)
	if err != nil {
		return err
	}
	return f.store.WriteScalar(elem, c)
}

// Len returns the number of characters currently set, one instance per
// glyph quad.
func (f *FontSprite) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.length
}

// Capacity returns the current character capacity of the buffer.
func (f *FontSprite) Capacity() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.capacity
}

// Store returns the backing storage buffer store, for hosts assembling
// bind groups.
func (f *FontSprite) Store() *ssbo.Store { return f.store }

// Atlas returns the glyph atlas.
func (f *FontSprite) Atlas() *Atlas { return f.atlas }

// Release frees the storage buffer. The FontSprite must not be used
// afterwards.
func (f *FontSprite) Release() error {
	return f.store.Release()
}

// encodeText maps runes to code page 437 glyph indices.
func encodeText(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.CodePage437.EncodeRune(r)
		if !ok {
			b = fallbackGlyph
		}
		out = append(out, b)
	}
	return out
}
