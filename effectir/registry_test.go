package effectir

import "testing"

func TestTypeTable_ScalarDeduplication(t *testing.T) {
	tt := NewTypeTable()

	f1 := tt.Intern(Type{Base: BaseFloat, Rows: 1, Cols: 1})
	f2 := tt.Intern(Type{Base: BaseFloat, Rows: 1, Cols: 1})

	if f1 != f2 {
		t.Errorf("expected same handle for identical scalar types, got %d and %d", f1, f2)
	}
	if tt.Count() != 1 {
		t.Errorf("expected 1 type, got %d", tt.Count())
	}
}

func TestTypeTable_DistinctShapes(t *testing.T) {
	tt := NewTypeTable()

	scalar := tt.Intern(Type{Base: BaseFloat, Rows: 1, Cols: 1})
	vec4 := tt.Intern(Type{Base: BaseFloat, Rows: 4, Cols: 1})
	mat4 := tt.Intern(Type{Base: BaseFloat, Rows: 4, Cols: 4})
	unsizedArr := tt.Intern(Type{Base: BaseFloat, Rows: 1, Cols: 1, ArrayLen: ArrayLenUnsized})

	handles := []TypeHandle{scalar, vec4, mat4, unsizedArr}
	for i := 0; i < len(handles); i++ {
		for j := i + 1; j < len(handles); j++ {
			if handles[i] == handles[j] {
				t.Errorf("expected distinct handles, got %d == %d (indices %d,%d)", handles[i], handles[j], i, j)
			}
		}
	}
}

func TestTypeTable_StructIdentityMatters(t *testing.T) {
	tt := NewTypeTable()

	a := tt.Intern(Type{Base: BaseStruct, HasStruct: true, Struct: 0})
	b := tt.Intern(Type{Base: BaseStruct, HasStruct: true, Struct: 1})
	aAgain := tt.Intern(Type{Base: BaseStruct, HasStruct: true, Struct: 0})

	if a == b {
		t.Errorf("structs with different identity must not share a type handle")
	}
	if a != aAgain {
		t.Errorf("same struct identity must intern to the same handle")
	}
}

func TestConstantTable_Dedup(t *testing.T) {
	ct := NewConstantTable()

	floatTy := Type{Base: BaseFloat, Rows: 1, Cols: 1}
	c1 := Constant{Type: floatTy, Lanes: [16]uint32{0x3f800000}}
	c2 := Constant{Type: floatTy, Lanes: [16]uint32{0x3f800000}}
	c3 := Constant{Type: floatTy, Lanes: [16]uint32{0x40000000}}

	h1 := ct.Intern(c1)
	h2 := ct.Intern(c2)
	h3 := ct.Intern(c3)

	if h1 != h2 {
		t.Errorf("identical constants must intern to the same handle, got %d and %d", h1, h2)
	}
	if h1 == h3 {
		t.Errorf("constants with different bit patterns must not share a handle")
	}
	if ct.Count() != 2 {
		t.Errorf("expected 2 distinct constants, got %d", ct.Count())
	}
}

func TestConstantTable_DifferentTypeSameBits(t *testing.T) {
	ct := NewConstantTable()

	asFloat := Constant{Type: Type{Base: BaseFloat, Rows: 1, Cols: 1}, Lanes: [16]uint32{1}}
	asInt := Constant{Type: Type{Base: BaseInt, Rows: 1, Cols: 1}, Lanes: [16]uint32{1}}

	h1 := ct.Intern(asFloat)
	h2 := ct.Intern(asInt)

	if h1 == h2 {
		t.Errorf("constants with the same bits but different types must not share a handle")
	}
}

func TestConstantTable_RecursiveArrayElements(t *testing.T) {
	ct := NewConstantTable()

	floatTy := Type{Base: BaseFloat, Rows: 1, Cols: 1}
	arrTy := Type{Base: BaseFloat, Rows: 1, Cols: 1, ArrayLen: 2}
	a := Constant{Type: arrTy, Elements: []Constant{
		{Type: floatTy, Lanes: [16]uint32{0x3f800000}},
		{Type: floatTy, Lanes: [16]uint32{0x40000000}},
	}}
	b := Constant{Type: arrTy, Elements: []Constant{
		{Type: floatTy, Lanes: [16]uint32{0x3f800000}},
		{Type: floatTy, Lanes: [16]uint32{0x40000000}},
	}}
	c := Constant{Type: arrTy, Elements: []Constant{
		{Type: floatTy, Lanes: [16]uint32{0x3f800000}},
		{Type: floatTy, Lanes: [16]uint32{0x40400000}},
	}}

	if ct.Intern(a) != ct.Intern(b) {
		t.Error("arrays with identical elements must intern to the same handle")
	}
	if ct.Intern(a) == ct.Intern(c) {
		t.Error("arrays differing in one element must not share a handle")
	}
}
