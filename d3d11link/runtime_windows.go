//go:build windows

package d3d11link

import "github.com/prismfx/effectc/effectir"

// Runtime is the set of collaborators the host application supplies to
// the linker (spec §1, §5: "the runtime owns the uniform byte arena,
// the texture registry ... the sampler-state cache ... and
// constant-buffer list. The linker only appends; it never mutates
// existing entries"). d3d11link never constructs a Runtime itself.
type Runtime struct {
	Device  *Device
	Context *DeviceContext

	// Backbuffer* and Depth* are bound, not allocated, when a texture's
	// name carries the COLOR or DEPTH semantic (spec §4.4 step 3).
	BackbufferLinear *ShaderResourceView
	BackbufferSRGB   *ShaderResourceView
	BackbufferRTV    *RenderTargetView
	DepthSRV         *ShaderResourceView
	FramebufferW     int32
	FramebufferH     int32

	// UniformArena is the host-owned byte arena uniforms are offset
	// into; Link grows it by appending (spec §4.4 step 5).
	UniformArena []byte

	// Textures is the runtime's texture registry, keyed by the IR's
	// unique texture name (spec §4.4 step 3: "if one with the same
	// unique name already exists in the runtime, reuse it").
	Textures map[string]*runtimeTexture

	// Samplers is the runtime's sampler-state cache keyed by the
	// FNV-1a hash of the D3D11_SAMPLER_DESC (spec §4.4 step 4, §6).
	Samplers map[uint32]*SamplerState

	uniformBuffer *Buffer
}

// runtimeTexture is one entry in the runtime's texture registry: the
// GPU resource plus its cached views. RTVs are created lazily (spec
// §4.4 step 6: "create RTVs lazily and cache on the texture").
type runtimeTexture struct {
	desc      effectir.TextureDescriptor
	tex       *Texture2D // nil for COLOR/DEPTH-bound (foreign) textures
	srvLinear *ShaderResourceView
	srvSRGB   *ShaderResourceView
	rtv       *RenderTargetView
	foreign   bool
}

// NewRuntime constructs a Runtime around host-owned device handles. The
// caller retains ownership of device/context/backbuffer views; d3d11link
// never releases them.
func NewRuntime(device *Device, ctx *DeviceContext) *Runtime {
	return &Runtime{
		Device:   device,
		Context:  ctx,
		Textures: make(map[string]*runtimeTexture),
		Samplers: make(map[uint32]*SamplerState),
	}
}
