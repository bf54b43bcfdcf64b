package effectir

import "testing"

func TestDefineTexture_MergeOnMatchingDimensions(t *testing.T) {
	m := NewModule()
	var log ErrorLog

	h1 := m.DefineTexture(TextureDescriptor{Name: "ColorBuffer", Width: 1920, Height: 1080, MipLevels: 1, Format: FormatRGBA8Unorm}, &log)
	h2 := m.DefineTexture(TextureDescriptor{Name: "ColorBuffer", Width: 1920, Height: 1080, MipLevels: 1, Format: FormatRGBA8Unorm}, &log)

	if log.Failed {
		t.Fatalf("expected no error, got: %s", log.String())
	}
	if h1 != h2 {
		t.Errorf("expected matching redeclaration to reuse handle %d, got %d", h1, h2)
	}
	if len(m.Textures) != 1 {
		t.Errorf("expected 1 texture after merge, got %d", len(m.Textures))
	}
}

func TestDefineTexture_ConflictOnMismatch(t *testing.T) {
	m := NewModule()
	var log ErrorLog

	m.DefineTexture(TextureDescriptor{Name: "ColorBuffer", Width: 1920, Height: 1080, MipLevels: 1, Format: FormatRGBA8Unorm}, &log)
	m.DefineTexture(TextureDescriptor{Name: "ColorBuffer", Width: 1280, Height: 720, MipLevels: 1, Format: FormatRGBA8Unorm}, &log)

	if !log.Failed {
		t.Fatal("expected a hard error for mismatching texture redeclaration")
	}
}

func TestValidate_RenderTargetSizeMismatch(t *testing.T) {
	m := NewModule()
	var log ErrorLog
	m.DefineTexture(TextureDescriptor{Name: "A", Width: 640, Height: 480, MipLevels: 1}, &log)
	m.DefineTexture(TextureDescriptor{Name: "B", Width: 320, Height: 240, MipLevels: 1}, &log)
	m.DefineFunction(FunctionDescriptor{Name: "VSMain"})
	m.DefineFunction(FunctionDescriptor{Name: "PSMain"})

	pass := Pass{Name: "p0", VertexEntry: "VSMain", PixelEntry: "PSMain"}
	pass.RenderTargets[0] = "A"
	pass.RenderTargets[1] = "B"
	m.DefineTechnique(Technique{Name: "t0", Passes: []Pass{pass}})

	errs := Validate(m)
	if len(errs) == 0 {
		t.Fatal("expected a render-target size mismatch error")
	}
}

func TestValidate_UnknownRenderTarget(t *testing.T) {
	m := NewModule()
	m.DefineFunction(FunctionDescriptor{Name: "PSMain"})
	pass := Pass{Name: "p0", PixelEntry: "PSMain"}
	pass.RenderTargets[0] = "DoesNotExist"
	m.DefineTechnique(Technique{Name: "t0", Passes: []Pass{pass}})

	errs := Validate(m)
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(errs), errs)
	}
}

func TestValidate_EmptyEffectIsValid(t *testing.T) {
	m := NewModule()
	if errs := Validate(m); len(errs) != 0 {
		t.Errorf("expected no errors for an empty effect, got %v", errs)
	}
}

func TestDefineConstant_InternsTypeAndDedupsValue(t *testing.T) {
	m := NewModule()
	vecTy := Type{Base: BaseFloat, Rows: 4, Cols: 1}

	h1 := m.DefineConstant(Constant{Type: vecTy, Lanes: [16]uint32{0x3f800000, 0, 0, 0x3f800000}})
	h2 := m.DefineConstant(Constant{Type: vecTy, Lanes: [16]uint32{0x3f800000, 0, 0, 0x3f800000}})

	if h1 != h2 {
		t.Errorf("expected identical constant to dedup to the same handle, got %d and %d", h1, h2)
	}
	if m.Types.Count() != 1 {
		t.Errorf("expected the constant's type to be interned once, got %d", m.Types.Count())
	}
}
