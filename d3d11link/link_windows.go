//go:build windows

package d3d11link

import (
	"fmt"

	"github.com/prismfx/effectc/effectir"
)

// DXGI_FORMAT values used by the linker; only the subset effectir.TextureFormat
// can express is needed here.
var dxgiFormat = [...]uint32{
	effectir.FormatUnknown:        0,
	effectir.FormatRGBA8Unorm:     28, // DXGI_FORMAT_R8G8B8A8_UNORM
	effectir.FormatRGBA8UnormSRGB: 29, // DXGI_FORMAT_R8G8B8A8_UNORM_SRGB
	effectir.FormatRGBA16Float:    10, // DXGI_FORMAT_R16G16B16A16_FLOAT
	effectir.FormatRGBA32Float:    2,  // DXGI_FORMAT_R32G32B32A32_FLOAT
	effectir.FormatR8Unorm:        61, // DXGI_FORMAT_R8_UNORM
	effectir.FormatR16Float:       54, // DXGI_FORMAT_R16_FLOAT
	effectir.FormatR32Float:       41, // DXGI_FORMAT_R32_FLOAT
	effectir.FormatRG16Float:      34, // DXGI_FORMAT_R16G16_FLOAT
	effectir.FormatRG32Float:      16, // DXGI_FORMAT_R32G32_FLOAT
	effectir.FormatD24UnormS8Uint: 45, // DXGI_FORMAT_D24_UNORM_S8_UINT
	effectir.FormatD32Float:       40, // DXGI_FORMAT_D32_FLOAT
}

// srgbFormat returns the sRGB-variant format of f, or f unchanged if f
// has no sRGB variant (spec §4.4 step 4: "deduplicating when the format
// has no sRGB variant").
func srgbFormat(f effectir.TextureFormat) effectir.TextureFormat {
	if f == effectir.FormatRGBA8Unorm {
		return effectir.FormatRGBA8UnormSRGB
	}
	return f
}

const (
	bindShaderResource = 0x08 // D3D11_BIND_SHADER_RESOURCE
	bindRenderTarget   = 0x20 // D3D11_BIND_RENDER_TARGET
	bindConstantBuffer = 0x04 // D3D11_BIND_CONSTANT_BUFFER
	usageDefault       = 0
	usageDynamic       = 2
	cpuAccessWrite     = 0x10000
	miscGenerateMips   = 0x01 // D3D11_RESOURCE_MISC_GENERATE_MIPS
	srvDimTexture2D    = 4    // D3D11_SRV_DIMENSION_TEXTURE2D
)

// CompiledEntry is one compiled HLSL entry point's SM5.0 bytecode.
type CompiledEntry struct {
	Name     string
	Bytecode []byte
}

// CompiledPass is a pass's resolved GPU-side state: compiled shaders,
// pipeline state objects, and resolved render-target/shader-resource
// bindings, ready for the runtime to dispatch a draw.
type CompiledPass struct {
	Name            string
	VertexBytecode  []byte
	PixelBytecode   []byte
	Blend           *BlendState
	DepthStencil    *DepthStencilState
	RenderTargets   []*RenderTargetView
	ShaderResources map[string]*ShaderResourceView // nulled for RT/SRV hazards
	ViewportW       int32
	ViewportH       int32
	ClearRTs        bool
}

// CompiledTechnique is a technique's compiled passes plus its GPU timing
// queries (spec §4.4 step 6: "create timestamp and disjoint queries for
// per-technique GPU timing").
type CompiledTechnique struct {
	Name           string
	Passes         []CompiledPass
	TimestampBegin *Query
	TimestampEnd   *Query
	Disjoint       *Query
}

// Effect is the linker's output: ready-to-dispatch technique objects
// plus the uniform constant buffer backing the module's $Globals block.
type Effect struct {
	Techniques    []CompiledTechnique
	UniformBuffer *Buffer
	UniformSize   uint32
}

// Link compiles m's HLSL entry points and allocates the GPU resources
// spec §4.4 describes, appending to rt's registries. On failure the
// returned error's text is the whole accumulated log (every error and
// warning recorded so far), the multiline human-readable report spec §6
// requires, matching the codegen backends' (nil, error) WriteResult
// shape rather than duplicating an ErrorLog return value here.
func Link(m *effectir.Module, hlslSource string, rt *Runtime) (*Effect, error) {
	var log effectir.ErrorLog

	compiler, err := loadCompiler()
	if err != nil {
		log.Errorf(effectir.ErrEnvironment, "%s", err)
		return nil, fmt.Errorf("d3d11link: %s", log.String())
	}
	defer compiler.release()

	entries := collectEntryPoints(m)
	compiled := make(map[string]*CompiledEntry, len(entries))
	for _, name := range entries {
		bc, cerr := compiler.compile([]byte(hlslSource), name, entryTarget(m, name))
		if cerr != nil {
			log.Errorf(effectir.ErrBackend, "entry point %q: %s", name, cerr)
			continue
		}
		compiled[name] = &CompiledEntry{Name: name, Bytecode: bc}
	}
	if log.Failed {
		return nil, fmt.Errorf("d3d11link: %s", log.String())
	}

	for _, tex := range m.Textures {
		if err := linkTexture(rt, tex, &log); err != nil {
			return nil, fmt.Errorf("d3d11link: %s", log.String())
		}
	}

	for _, samp := range m.Samplers {
		if _, err := linkSampler(rt, samp, &log); err != nil {
			continue
		}
	}

	arenaBase := uint32(len(rt.UniformArena))
	uniformSize := layoutUniformArena(rt, m.Uniforms)
	uniformBuf, err := rt.Device.CreateBuffer(&bufferDesc{
		ByteWidth:      uniformSize,
		Usage:          usageDynamic,
		BindFlags:      bindConstantBuffer,
		CPUAccessFlags: cpuAccessWrite,
	}, rt.UniformArena[arenaBase:arenaBase+uniformSize])
	if err != nil {
		log.Errorf(effectir.ErrDevice, "create uniform buffer: %s", err)
		return nil, fmt.Errorf("d3d11link: %s", log.String())
	}
	rt.uniformBuffer = uniformBuf

	effect := &Effect{UniformBuffer: uniformBuf, UniformSize: uniformSize}
	for _, tech := range m.Techniques {
		ct, terr := linkTechnique(rt, m, tech, compiled, &log)
		if terr != nil {
			continue
		}
		effect.Techniques = append(effect.Techniques, ct)
	}

	if log.Failed {
		return nil, fmt.Errorf("d3d11link: %s", log.String())
	}
	return effect, nil
}

// collectEntryPoints gathers every vertex/pixel entry referenced by any
// pass, once each, in technique then pass order, a pass's vertex entry
// before its pixel entry.
func collectEntryPoints(m *effectir.Module) []string {
	seen := make(map[string]bool)
	var order []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}
	for _, tech := range m.Techniques {
		for _, pass := range tech.Passes {
			add(pass.VertexEntry)
			add(pass.PixelEntry)
		}
	}
	return order
}

// entryTarget picks the SM5.0 target profile for name by checking
// whether it is referenced as a vertex or pixel entry anywhere in m.
func entryTarget(m *effectir.Module, name string) string {
	for _, tech := range m.Techniques {
		for _, pass := range tech.Passes {
			if pass.VertexEntry == name {
				return "vs_5_0"
			}
			if pass.PixelEntry == name {
				return "ps_5_0"
			}
		}
	}
	return "ps_5_0"
}

// isBackbufferSemantic reports whether name names the runtime's
// backbuffer (spec §4.4 step 3: "Semantics COLOR and DEPTH bind the
// runtime's backbuffer or depth SRV ... without allocating").
func isBackbufferSemantic(name string) bool { return name == "COLOR" }
func isDepthSemantic(name string) bool      { return name == "DEPTH" }

func linkTexture(rt *Runtime, t effectir.TextureDescriptor, log *effectir.ErrorLog) error {
	if existing, ok := rt.Textures[t.Name]; ok {
		if existing.foreign {
			return nil
		}
		if !existing.desc.SameDimensions(t) {
			log.Errorf(effectir.ErrIR, "texture %q redeclared with mismatching dimensions", t.Name)
			return fmt.Errorf("mismatched texture %q", t.Name)
		}
		return nil
	}

	if isBackbufferSemantic(t.Name) {
		rt.Textures[t.Name] = &runtimeTexture{desc: t, foreign: true,
			srvLinear: rt.BackbufferLinear, srvSRGB: rt.BackbufferSRGB, rtv: rt.BackbufferRTV}
		return nil
	}
	if isDepthSemantic(t.Name) {
		rt.Textures[t.Name] = &runtimeTexture{desc: t, foreign: true, srvLinear: rt.DepthSRV, srvSRGB: rt.DepthSRV}
		return nil
	}

	tex, err := rt.Device.CreateTexture2D(&texture2DDesc{
		Width: uint32(t.Width), Height: uint32(t.Height),
		MipLevels: uint32(t.MipLevels), ArraySize: 1,
		Format:        dxgiFormat[t.Format],
		SampleCount:   1,
		Usage:         usageDefault,
		BindFlags:     bindShaderResource | bindRenderTarget,
		MiscFlags:     miscGenerateMips,
	})
	if err != nil {
		log.Errorf(effectir.ErrDevice, "create texture %q: %s", t.Name, err)
		return err
	}

	linear, err := rt.Device.CreateShaderResourceView(tex, &srvDescTex2D{
		Format: dxgiFormat[t.Format], ViewDimension: srvDimTexture2D, MipLevels: uint32(t.MipLevels),
	})
	if err != nil {
		log.Errorf(effectir.ErrDevice, "create SRV for %q: %s", t.Name, err)
		return err
	}

	srgbFmt := dxgiFormat[srgbFormat(t.Format)]
	srgbView := linear
	if srgbFmt != dxgiFormat[t.Format] {
		srgbView, err = rt.Device.CreateShaderResourceView(tex, &srvDescTex2D{
			Format: srgbFmt, ViewDimension: srvDimTexture2D, MipLevels: uint32(t.MipLevels),
		})
		if err != nil {
			log.Errorf(effectir.ErrDevice, "create sRGB SRV for %q: %s", t.Name, err)
			return err
		}
	}

	rt.Textures[t.Name] = &runtimeTexture{desc: t, tex: tex, srvLinear: linear, srvSRGB: srgbView}
	return nil
}

// rtvFor lazily creates and caches the RTV for a non-foreign texture
// (spec §4.4 step 6).
func rtvFor(rt *Runtime, name string, log *effectir.ErrorLog) (*RenderTargetView, error) {
	entry, ok := rt.Textures[name]
	if !ok {
		log.Errorf(effectir.ErrIR, "render target %q does not resolve to a declared texture", name)
		return nil, fmt.Errorf("unresolved render target %q", name)
	}
	if entry.foreign {
		return entry.rtv, nil
	}
	if entry.rtv != nil {
		return entry.rtv, nil
	}
	view, err := rt.Device.CreateRenderTargetView(entry.tex)
	if err != nil {
		log.Warnf(effectir.ErrDevice, "create RTV for %q: %s (pass skipped)", name, err)
		return nil, err
	}
	entry.rtv = view
	return view, nil
}

func linkSampler(rt *Runtime, s effectir.SamplerDescriptor, log *effectir.ErrorLog) (*SamplerState, error) {
	desc := buildSamplerDesc(s)
	state, err := rt.internSampler(&desc)
	if err != nil {
		log.Warnf(effectir.ErrDevice, "create sampler %q: %s (pass skipped)", s.Name, err)
		return nil, err
	}
	return state, nil
}

// align16 rounds n up to the next multiple of 16 (spec §4.4 step 5:
// "padded to 16 bytes per buffer").
func align16(n uint32) uint32 { return (n + 15) &^ 15 }

// layoutUniformArena assigns each uniform a byte offset starting at the
// arena's current size, copies its initializer (or zero) into the
// arena, and grows the arena by the block size (spec §4.4 step 5).
// Returns the final 16-byte-rounded buffer size.
func layoutUniformArena(rt *Runtime, uniforms []effectir.UniformDescriptor) uint32 {
	base := uint32(len(rt.UniformArena))
	size := uint32(0)
	for i := range uniforms {
		u := &uniforms[i]
		size = maxu32(size, u.Offset+u.Size)
	}
	total := align16(size)
	rt.UniformArena = append(rt.UniformArena, make([]byte, total)...)
	for i := range uniforms {
		u := &uniforms[i]
		if u.Initializer == nil {
			continue
		}
		dst := rt.UniformArena[base+u.Offset : base+u.Offset+u.Size]
		copyConstantBytes(dst, *u.Initializer)
	}
	return total
}

func copyConstantBytes(dst []byte, c effectir.Constant) {
	n := len(dst) / 4
	if n > len(c.Lanes) {
		n = len(c.Lanes)
	}
	for i := 0; i < n; i++ {
		lane := c.Lanes[i]
		dst[i*4+0] = byte(lane)
		dst[i*4+1] = byte(lane >> 8)
		dst[i*4+2] = byte(lane >> 16)
		dst[i*4+3] = byte(lane >> 24)
	}
}

func linkTechnique(rt *Runtime, m *effectir.Module, tech effectir.Technique,
	compiled map[string]*CompiledEntry, log *effectir.ErrorLog) (CompiledTechnique, error) {

	ct := CompiledTechnique{Name: tech.Name}

	tsBegin, err := rt.Device.CreateQuery(&queryDesc{Query: 2}) // D3D11_QUERY_TIMESTAMP
	if err == nil {
		ct.TimestampBegin = tsBegin
	}
	tsEnd, err := rt.Device.CreateQuery(&queryDesc{Query: 2})
	if err == nil {
		ct.TimestampEnd = tsEnd
	}
	disjoint, err := rt.Device.CreateQuery(&queryDesc{Query: 3}) // D3D11_QUERY_TIMESTAMP_DISJOINT
	if err == nil {
		ct.Disjoint = disjoint
	}

	for _, pass := range tech.Passes {
		cp, perr := linkPass(rt, m, pass, compiled, log)
		if perr != nil {
			continue
		}
		ct.Passes = append(ct.Passes, cp)
	}
	return ct, nil
}

func linkPass(rt *Runtime, m *effectir.Module, pass effectir.Pass,
	compiled map[string]*CompiledEntry, log *effectir.ErrorLog) (CompiledPass, error) {

	cp := CompiledPass{Name: pass.Name, ClearRTs: pass.ClearRTs}
	if e := compiled[pass.VertexEntry]; e != nil {
		cp.VertexBytecode = e.Bytecode
	}
	if e := compiled[pass.PixelEntry]; e != nil {
		cp.PixelBytecode = e.Bytecode
	}

	blend, err := buildBlendState(rt, pass.Blend)
	if err != nil {
		log.Warnf(effectir.ErrDevice, "pass %q: create blend state: %s (pass skipped)", pass.Name, err)
		return cp, err
	}
	cp.Blend = blend

	depth, err := buildDepthStencilState(rt, pass.Stencil)
	if err != nil {
		log.Warnf(effectir.ErrDevice, "pass %q: create depth-stencil state: %s (pass skipped)", pass.Name, err)
		return cp, err
	}
	cp.DepthStencil = depth

	rts := pass.ActiveRenderTargets()
	viewportW, viewportH := pass.ViewportW, pass.ViewportH
	haveFirst := false
	for _, name := range rts {
		entry, ok := rt.Textures[name]
		if !ok {
			log.Errorf(effectir.ErrIR, "pass %q: render target %q is undeclared", pass.Name, name)
			return cp, fmt.Errorf("unresolved RT %q", name)
		}
		if !entry.foreign {
			if !haveFirst {
				if viewportW == 0 {
					viewportW = entry.desc.Width
				}
				if viewportH == 0 {
					viewportH = entry.desc.Height
				}
				haveFirst = true
			} else if entry.desc.Width != viewportW || entry.desc.Height != viewportH {
				log.Errorf(effectir.ErrIR, "pass %q: render target %q is %dx%d, expected %dx%d",
					pass.Name, name, entry.desc.Width, entry.desc.Height, viewportW, viewportH)
			}
		}
		view, rerr := rtvFor(rt, name, log)
		if rerr != nil {
			return cp, rerr
		}
		cp.RenderTargets = append(cp.RenderTargets, view)
	}
	if viewportW == 0 {
		viewportW = rt.FramebufferW
	}
	if viewportH == 0 {
		viewportH = rt.FramebufferH
	}
	cp.ViewportW, cp.ViewportH = viewportW, viewportH

	cp.ShaderResources = resolveShaderResources(rt, m, pass, rts)
	return cp, nil
}

// resolveShaderResources binds every texture's SRV (linear or sRGB per
// pass.SRGBWrite) except one that is also an RT of this pass, which is
// nulled to avoid a read/write hazard (spec §4.4 step 6).
func resolveShaderResources(rt *Runtime, m *effectir.Module, pass effectir.Pass, activeRTs []string) map[string]*ShaderResourceView {
	rtSet := make(map[string]bool, len(activeRTs))
	for _, name := range activeRTs {
		rtSet[name] = true
	}
	out := make(map[string]*ShaderResourceView, len(m.Textures))
	for _, t := range m.Textures {
		if rtSet[t.Name] {
			out[t.Name] = nil
			continue
		}
		entry, ok := rt.Textures[t.Name]
		if !ok {
			continue
		}
		if pass.SRGBWrite {
			out[t.Name] = entry.srvSRGB
		} else {
			out[t.Name] = entry.srvLinear
		}
	}
	return out
}

var blendFactorTable = [...]uint32{
	effectir.BlendZero: 1, effectir.BlendOne: 2, effectir.BlendSrcColor: 3,
	effectir.BlendInvSrcColor: 4, effectir.BlendSrcAlpha: 5, effectir.BlendInvSrcAlpha: 6,
	effectir.BlendDestAlpha: 7, effectir.BlendInvDestAlpha: 8, effectir.BlendDestColor: 9,
	effectir.BlendInvDestColor: 10,
}

var blendOpTable = [...]uint32{
	effectir.BlendOpAdd: 1, effectir.BlendOpSubtract: 2, effectir.BlendOpRevSubtract: 3,
	effectir.BlendOpMin: 4, effectir.BlendOpMax: 5,
}

func buildBlendState(rt *Runtime, bs effectir.BlendState) (*BlendState, error) {
	var desc blendDesc
	rtDesc := &desc.RT[0]
	rtDesc.BlendEnable = boolToUint32(bs.Enable)
	rtDesc.SrcBlend = blendFactorTable[bs.SrcBlend]
	rtDesc.DestBlend = blendFactorTable[bs.DstBlend]
	rtDesc.BlendOp = blendOpTable[bs.BlendOp]
	rtDesc.SrcBlendAlpha = blendFactorTable[bs.SrcBlendA]
	rtDesc.DestBlendAlpha = blendFactorTable[bs.DstBlendA]
	rtDesc.BlendOpAlpha = blendOpTable[bs.BlendOpA]
	rtDesc.RenderTargetWriteMask = uint8(bs.WriteMask)
	return rt.Device.CreateBlendState(&desc)
}

var compareFuncTable = [...]uint32{
	effectir.CompareNever: 1, effectir.CompareLess: 2, effectir.CompareEqual: 3,
	effectir.CompareLessEqual: 4, effectir.CompareGreater: 5, effectir.CompareNotEqual: 6,
	effectir.CompareGreaterEqual: 7, effectir.CompareAlways: 8,
}

var stencilOpTable = [...]uint32{
	effectir.StencilKeep: 1, effectir.StencilZero: 2, effectir.StencilReplace: 3,
	effectir.StencilIncrSat: 4, effectir.StencilDecrSat: 5, effectir.StencilInvert: 6,
	effectir.StencilIncr: 7, effectir.StencilDecr: 8,
}

func stencilOpDesc(f effectir.StencilFace) depthStencilOpDesc {
	return depthStencilOpDesc{
		StencilFailOp:      stencilOpTable[f.Fail],
		StencilDepthFailOp: stencilOpTable[f.DepthFail],
		StencilPassOp:      stencilOpTable[f.Pass],
		StencilFunc:        compareFuncTable[f.Func],
	}
}

func buildDepthStencilState(rt *Runtime, ss effectir.StencilState) (*DepthStencilState, error) {
	desc := depthStencilDesc{
		DepthEnable:      boolToUint32(ss.DepthEnable),
		DepthWriteMask:   boolToUint32(ss.DepthWrite),
		DepthFunc:        compareFuncTable[ss.DepthFunc],
		StencilEnable:    boolToUint32(ss.StencilEnable),
		StencilReadMask:  ss.StencilReadMask,
		StencilWriteMask: ss.StencilWriteMask,
		FrontFace:        stencilOpDesc(ss.FrontFace),
		BackFace:         stencilOpDesc(ss.BackFace),
	}
	return rt.Device.CreateDepthStencilState(&desc)
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
