// Package fontsprite renders monospace bitmap text from a glyph atlas
// texture, using a shader storage block for the per-draw text data.
//
// A FontSprite owns an ssbo.Store whose layout carries the glyph cell
// metrics, the chroma key and text colour, and one uint32 per
// character. SetText uploads a string as code page 437 glyph indices
// and grows the backing buffer when the text outruns its capacity, so
// callers can render text of any length through a single binding.
//
// Atlas images are decoded with the standard image registry (PNG and
// BMP decoders are registered by this package) and flipped to the
// bottom-up row order the glyph shader samples.
package fontsprite
