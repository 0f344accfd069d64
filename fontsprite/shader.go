package fontsprite

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// glyphShaderWGSL draws one quad per character instance. The vertex
// stage advances each quad by one glyph width; the fragment stage maps
// the character's code page index to its atlas cell, keys out the
// background colour, and fills with the text colour.
const glyphShaderWGSL = `
struct TextBlock {
    glyph_width: u32,
    glyph_height: u32,
    texture_width: u32,
    texture_height: u32,
    chroma_key: vec4<f32>,
    text_color: vec4<f32>,
    characters: array<u32>,
}

struct Uniforms {
    projection: mat4x4<f32>,
    transform: mat4x4<f32>,
}

@group(0) @binding(0) var<storage, read> text: TextBlock;
@group(0) @binding(1) var atlas: texture_2d<f32>;
@group(0) @binding(2) var atlas_sampler: sampler;
@group(0) @binding(3) var<uniform> uniforms: Uniforms;

struct VSOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) @interpolate(flat) character: u32,
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32,
           @builtin(instance_index) ii: u32) -> VSOut {
    var corners = array<vec2<f32>, 6>(
        vec2<f32>(0.0, 0.0),
        vec2<f32>(1.0, 0.0),
        vec2<f32>(0.0, 1.0),
        vec2<f32>(1.0, 0.0),
        vec2<f32>(1.0, 1.0),
        vec2<f32>(0.0, 1.0),
    );
    let corner = corners[vi];
    let gw = f32(text.glyph_width);
    let gh = f32(text.glyph_height);
    let local = vec2<f32>((f32(ii) + corner.x) * gw, corner.y * gh);

    var out: VSOut;
    out.position = uniforms.projection * uniforms.transform * vec4<f32>(local, 0.0, 1.0);
    out.uv = corner;
    out.character = text.characters[ii];
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    let columns = text.texture_width / text.glyph_width;
    let col = in.character % columns;
    let row = in.character / columns;
    let cell = vec2<f32>(f32(text.glyph_width), f32(text.glyph_height));
    let origin = vec2<f32>(f32(col), f32(row)) * cell;
    let size = vec2<f32>(f32(text.texture_width), f32(text.texture_height));
    let uv = (origin + in.uv * cell) / size;

    let texel = textureSample(atlas, atlas_sampler, uv);
    if (all(texel == text.chroma_key)) {
        discard;
    }
    return text.text_color;
}
`

var (
	spirvOnce sync.Once
	spirvCode []uint32
	spirvErr  error
)

// ShaderSPIRV compiles the glyph shader to SPIR-V words for HAL shader
// module creation. The compiled code is cached after the first call.
func ShaderSPIRV() ([]uint32, error) {
	spirvOnce.Do(func() {
		spirvBytes, err := naga.Compile(glyphShaderWGSL)
		if err != nil {
			spirvErr = fmt.Errorf("fontsprite: compile glyph shader: %w", err)
			return
		}

		// SPIR-V is little-endian 32-bit words.
		spirvCode = make([]uint32, len(spirvBytes)/4)
		for i := range spirvCode {
			spirvCode[i] = uint32(spirvBytes[i*4]) |
				uint32(spirvBytes[i*4+1])<<8 |
				uint32(spirvBytes[i*4+2])<<16 |
				uint32(spirvBytes[i*4+3])<<24
		}
	})
	return spirvCode, spirvErr
}
