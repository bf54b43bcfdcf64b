package effectc

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/prismfx/effectc/effectir"
)

// TestCompile_EmptyEffect covers spec §8 scenario 1: no uniforms, no
// passes. HLSL output is empty; SPIR-V output is header + capabilities
// + memory model + GLSL.std.450 import, 0 entry points, id bound >= 1.
func TestCompile_EmptyEffect(t *testing.T) {
	m := effectir.NewModule()

	hlslResult, _, err := Compile(m, Options{Target: TargetHLSL, Validate: true})
	if err != nil {
		t.Fatalf("hlsl compile: %v", err)
	}
	if hlslResult.HLSL != "" {
		t.Errorf("expected empty HLSL output, got %q", hlslResult.HLSL)
	}

	spirvResult, _, err := Compile(m, Options{Target: TargetSPIRV, Validate: true})
	if err != nil {
		t.Fatalf("spirv compile: %v", err)
	}
	if len(spirvResult.SPIRV) < 20 {
		t.Fatalf("expected at least a header, got %d bytes", len(spirvResult.SPIRV))
	}
	magic := binary.LittleEndian.Uint32(spirvResult.SPIRV[0:4])
	if magic != 0x07230203 {
		t.Errorf("expected SPIR-V magic, got 0x%x", magic)
	}
	idBound := binary.LittleEndian.Uint32(spirvResult.SPIRV[12:16])
	if idBound < 1 {
		t.Errorf("expected id bound >= 1, got %d", idBound)
	}
}

// TestCompile_SingleUniform covers spec §8 scenario 2 in simplified
// form: a module with a single float4 uniform compiles to a non-empty
// SPIR-V binary.
func TestCompile_SingleUniform(t *testing.T) {
	m := effectir.NewModule()
	m.DefineUniform(effectir.UniformDescriptor{
		Name: "c",
		Type: effectir.Type{Base: effectir.BaseFloat, Rows: 4, Cols: 1},
	})

	result, compileLog, err := Compile(m, Options{Target: TargetSPIRV})
	if err != nil {
		t.Fatalf("compile: %v (%s)", err, compileLog.String())
	}
	if len(result.SPIRV) == 0 {
		t.Fatal("expected non-empty SPIR-V output")
	}
}

// TestCompile_HLSLTextureAndSampler covers spec §8 scenario 4 in
// simplified form: a texture and sampler round-trip into HLSL
// declarations.
func TestCompile_HLSLTextureAndSampler(t *testing.T) {
	m := effectir.NewModule()
	m.DefineTexture(effectir.TextureDescriptor{Name: "SceneColor", Width: 1920, Height: 1080, MipLevels: 1, Format: effectir.FormatRGBA8Unorm}, &effectir.ErrorLog{})
	m.DefineSampler(effectir.SamplerDescriptor{Name: "LinearSampler", Filter: effectir.FilterLinear})

	result, log, err := Compile(m, Options{Target: TargetHLSL})
	if err != nil {
		t.Fatalf("compile: %v (%s)", err, log.String())
	}
	if !strings.Contains(result.HLSL, "SceneColor") {
		t.Errorf("expected HLSL output to declare SceneColor, got %q", result.HLSL)
	}
	if !strings.Contains(result.HLSL, "LinearSampler") {
		t.Errorf("expected HLSL output to declare LinearSampler, got %q", result.HLSL)
	}
}

// TestCompile_FailsValidationOnUnknownRenderTarget ensures a Module
// that fails effectir.Validate is rejected before lowering (spec §7
// category 1).
func TestCompile_FailsValidationOnUnknownRenderTarget(t *testing.T) {
	m := effectir.NewModule()
	m.DefineFunction(effectir.FunctionDescriptor{Name: "PSMain"})
	pass := effectir.Pass{Name: "p0", PixelEntry: "PSMain"}
	pass.RenderTargets[0] = "DoesNotExist"
	m.DefineTechnique(effectir.Technique{Name: "t0", Passes: []effectir.Pass{pass}})

	_, log, err := Compile(m, Options{Target: TargetSPIRV, Validate: true})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !log.Failed {
		t.Error("expected the error log to be marked failed")
	}
}

func TestParseTarget(t *testing.T) {
	if tgt, err := ParseTarget("spirv"); err != nil || tgt != TargetSPIRV {
		t.Errorf("ParseTarget(spirv) = %v, %v", tgt, err)
	}
	if tgt, err := ParseTarget("hlsl"); err != nil || tgt != TargetHLSL {
		t.Errorf("ParseTarget(hlsl) = %v, %v", tgt, err)
	}
	if _, err := ParseTarget("msl"); err == nil {
		t.Error("expected ParseTarget(msl) to fail")
	}
}
