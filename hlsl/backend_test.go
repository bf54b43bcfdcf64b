package hlsl

import (
	"strings"
	"testing"

	"github.com/prismfx/effectc/codegen"
	"github.com/prismfx/effectc/effectir"
)

func TestWriteResult_StructAndGlobalsDecl(t *testing.T) {
	b := NewBackend(Options{})
	b.DefineStruct(effectir.StructDescriptor{
		Name: "VSOutput",
		Members: []effectir.StructMember{
			{Name: "pos", Type: effectir.Type{Base: effectir.BaseFloat, Rows: 4, Cols: 1}, Semantic: "SV_POSITION"},
			{Name: "uv", Type: effectir.Type{Base: effectir.BaseFloat, Rows: 2, Cols: 1}, Semantic: "TEXCOORD0"},
		},
	})
	b.DefineUniform(effectir.UniformDescriptor{Name: "tint", Type: effectir.Type{Base: effectir.BaseFloat, Rows: 4, Cols: 1}})

	out, err := b.WriteResult()
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	src := out.(string)
	if !strings.Contains(src, "struct VSOutput") {
		t.Errorf("expected struct declaration, got %q", src)
	}
	if !strings.Contains(src, "SV_POSITION") {
		t.Errorf("expected struct member semantic preserved, got %q", src)
	}
	if !strings.Contains(src, "cbuffer") || !strings.Contains(src, "tint") {
		t.Errorf("expected cbuffer declaration with tint member, got %q", src)
	}
}

func TestEmitBinaryOp_RendersInfixToken(t *testing.T) {
	b := NewBackend(Options{})
	fn := b.DefineFunction(effectir.FunctionDescriptor{Name: "PSMain", Return: effectir.Type{Base: effectir.BaseFloat, Rows: 1, Cols: 1}})
	b.EnterFunction(fn)
	b.EnterBlock()

	ft := effectir.Type{Base: effectir.BaseFloat, Rows: 1, Cols: 1}
	lhs := b.EmitConstant(effectir.Constant{})
	rhs := b.EmitConstant(effectir.Constant{})
	b.EmitBinaryOp(codegen.BinAdd, lhs, rhs, ft)
	b.LeaveBlockAndReturn(nil)
	b.LeaveFunction()

	out, err := b.WriteResult()
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	src := out.(string)
	if !strings.Contains(src, "+") {
		t.Errorf("expected an infix + token in generated body, got %q", src)
	}
}

func TestEmitIf_AppliesControlAttribute(t *testing.T) {
	b := NewBackend(Options{})
	fn := b.DefineFunction(effectir.FunctionDescriptor{Name: "PSMain"})
	b.EnterFunction(fn)
	entry := b.EnterBlock()
	thenBlk := b.EnterBlock()
	mergeBlk := b.EnterBlock()

	b.SetBlock(entry)
	cond := b.EmitConstant(effectir.Constant{})
	b.EmitIf(mergeBlk, codegen.ControlFlatten)
	b.LeaveBlockAndBranchConditional(cond, thenBlk, mergeBlk)

	b.SetBlock(thenBlk)
	b.LeaveBlockAndBranch(mergeBlk)

	b.SetBlock(mergeBlk)
	b.LeaveBlockAndReturn(nil)
	b.LeaveFunction()

	out, err := b.WriteResult()
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	src := out.(string)
	if !strings.Contains(src, "[flatten] if") {
		t.Errorf("expected a [flatten] if statement, got %q", src)
	}
}

func TestEmitPhi_SplicesAssignmentIntoPredecessors(t *testing.T) {
	b := NewBackend(Options{})
	fn := b.DefineFunction(effectir.FunctionDescriptor{Name: "PSMain"})
	b.EnterFunction(fn)
	entry := b.EnterBlock()
	left := b.EnterBlock()
	right := b.EnterBlock()
	merge := b.EnterBlock()

	ft := effectir.Type{Base: effectir.BaseFloat, Rows: 1, Cols: 1}

	b.SetBlock(entry)
	cond := b.EmitConstant(effectir.Constant{})
	b.LeaveBlockAndBranchConditional(cond, left, right)

	b.SetBlock(left)
	a := b.EmitConstant(effectir.Constant{})
	b.LeaveBlockAndBranch(merge)

	b.SetBlock(right)
	c := b.EmitConstant(effectir.Constant{})
	b.LeaveBlockAndBranch(merge)

	b.SetBlock(merge)
	b.EmitPhi(ft, []effectir.ValueID{a, c}, []effectir.BlockHandle{left, right})
	b.LeaveBlockAndReturn(nil)
	b.LeaveFunction()

	out, err := b.WriteResult()
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	src := out.(string)
	if !strings.Contains(src, PhiTempPrefix) {
		t.Errorf("expected a phi temp declaration, got %q", src)
	}
	// The phi assignment must appear in both predecessor blocks, before
	// their goto to the merge block.
	if strings.Count(src, "=") < 2 {
		t.Errorf("expected an assignment spliced into each predecessor, got %q", src)
	}
}

func TestEmitCallIntrinsic_SampleTexture(t *testing.T) {
	b := NewBackend(Options{})
	b.DefineTexture(effectir.TextureDescriptor{Name: "SceneColor", Width: 64, Height: 64, MipLevels: 1, Format: effectir.FormatRGBA8Unorm})
	b.DefineSampler(effectir.SamplerDescriptor{Name: "LinearSampler"})

	fn := b.DefineFunction(effectir.FunctionDescriptor{Name: "PSMain", Return: effectir.Type{Base: effectir.BaseFloat, Rows: 4, Cols: 1}})
	b.EnterFunction(fn)
	b.EnterBlock()

	tex := b.EmitLoad(effectir.Expression{Base: effectir.ValueID(1)})
	samp := b.EmitLoad(effectir.Expression{Base: effectir.ValueID(2)})
	uv := b.EmitConstant(effectir.Constant{})
	b.EmitCallIntrinsic(codegen.IntrinsicSampleTexture, []effectir.ValueID{tex, samp, uv}, effectir.Type{Base: effectir.BaseFloat, Rows: 4, Cols: 1})
	b.LeaveBlockAndReturn(nil)
	b.LeaveFunction()

	out, err := b.WriteResult()
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if !strings.Contains(out.(string), ".Sample(") {
		t.Errorf("expected a .Sample( call, got %q", out.(string))
	}
}
