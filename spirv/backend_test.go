package spirv

import (
	"encoding/binary"
	"testing"

	"github.com/prismfx/effectc/effectir"
)

func TestBackend_EmptyModuleHasValidHeader(t *testing.T) {
	b := NewBackend(DefaultOptions())
	result, err := b.WriteResult()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin := result.([]byte)
	if len(bin) < 20 {
		t.Fatalf("expected at least a 5-word header, got %d bytes", len(bin))
	}
	magic := binary.LittleEndian.Uint32(bin[0:4])
	if magic != MagicNumber {
		t.Errorf("expected magic number 0x%x, got 0x%x", MagicNumber, magic)
	}
}

func TestBackend_TypeInterningDeduplicates(t *testing.T) {
	b := NewBackend(DefaultOptions())
	f32 := effectir.Type{Base: effectir.BaseFloat, Rows: 1, Cols: 1}
	id1 := b.typeID(f32)
	id2 := b.typeID(f32)
	if id1 != id2 {
		t.Errorf("expected the same scalar float type to intern to one id, got %d and %d", id1, id2)
	}

	vec4 := effectir.Type{Base: effectir.BaseFloat, Rows: 4, Cols: 1}
	vecID := b.typeID(vec4)
	if vecID == id1 {
		t.Errorf("vec4<f32> must not share an id with f32")
	}
}

func TestBackend_DefineUniformAssignsIncreasingOffsets(t *testing.T) {
	b := NewBackend(DefaultOptions())
	scalar := effectir.Type{Base: effectir.BaseFloat, Rows: 1, Cols: 1}
	vec4 := effectir.Type{Base: effectir.BaseFloat, Rows: 4, Cols: 1}

	blockA, idxA := b.DefineUniform(effectir.UniformDescriptor{Name: "opacity", Type: scalar})
	blockB, idxB := b.DefineUniform(effectir.UniformDescriptor{Name: "tint", Type: vec4})

	if blockA != blockB {
		t.Errorf("expected both uniforms to share one $Globals block id, got %d and %d", blockA, blockB)
	}
	if idxA != 0 || idxB != 1 {
		t.Errorf("expected sequential member indices 0,1, got %d,%d", idxA, idxB)
	}
	if b.uniforms[1].desc.Offset == 0 {
		t.Errorf("expected the second member (a vec4, 16-byte aligned) to not land at offset 0")
	}
}

func TestBackend_DefineTextureAssignsDistinctBindings(t *testing.T) {
	b := NewBackend(DefaultOptions())
	h1 := b.DefineTexture(effectir.TextureDescriptor{Name: "ColorBuffer", Width: 1920, Height: 1080})
	h2 := b.DefineTexture(effectir.TextureDescriptor{Name: "DepthBuffer", Width: 1920, Height: 1080})

	if b.textures[h1].binding == b.textures[h2].binding {
		t.Errorf("expected distinct binding slots, both got %d", b.textures[h1].binding)
	}
}

func TestBackend_SimpleFunctionRoundTrips(t *testing.T) {
	b := NewBackend(DefaultOptions())
	f32 := effectir.Type{Base: effectir.BaseFloat, Rows: 1, Cols: 1}

	fn := b.DefineFunction(effectir.FunctionDescriptor{Name: "PSMain", Return: f32})
	b.EnterFunction(fn)
	entry := b.EnterBlock()
	_ = entry
	one := b.EmitConstant(effectir.Constant{Type: f32, Lanes: [16]uint32{0x3f800000}})
	v := effectir.ValueID(one)
	b.LeaveBlockAndReturn(&v)
	b.LeaveFunction()

	b.CreateEntryPoint(fn, true)

	result, err := b.WriteResult()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin := result.([]byte)
	if len(bin)%4 != 0 {
		t.Errorf("expected a whole number of 32-bit words, got %d bytes", len(bin))
	}
	bound := binary.LittleEndian.Uint32(bin[12:16])
	if bound < 2 {
		t.Errorf("expected an id bound greater than 1, got %d", bound)
	}
}
