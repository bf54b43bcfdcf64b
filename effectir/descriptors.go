package effectir

// StructMember is one named, typed field of a struct, with an optional
// HLSL-style semantic (e.g. "SV_POSITION", "TEXCOORD0").
type StructMember struct {
	Name     string
	Type     Type
	Semantic string
}

// StructDescriptor describes a struct type's members in declaration
// order.
type StructDescriptor struct {
	Name    string // optional display name
	Members []StructMember
}

// Parameter is one function argument.
type Parameter struct {
	Name     string
	Type     Type
	Semantic string
}

// FunctionDescriptor is a function's signature. The body is not stored
// as IR data: the frontend drives it into a Generator imperatively,
// block by block, via codegen.Generator's enter_block/emit_*/
// leave_block_and_* calls. EntryBlock identifies the first
// block of that imperative sequence once it has been emitted.
//
// The frontend is responsible for ensuring every selection has a single
// merge block and every loop has a single header/continue/merge block
// effectir never forms a cycle
// between blocks itself; loops are expressed as forward label
// references patched at termination time by the backend.
type FunctionDescriptor struct {
	Name           string
	Params         []Parameter
	Return         Type
	ReturnSemantic string
	EntryBlock     BlockHandle
}

// TextureFormat enumerates the backend-neutral texture pixel formats
// known to the compiler.
type TextureFormat uint8

// Texture formats.
const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8Unorm
	FormatRGBA8UnormSRGB
	FormatRGBA16Float
	FormatRGBA32Float
	FormatR8Unorm
	FormatR16Float
	FormatR32Float
	FormatRG16Float
	FormatRG32Float
	FormatD24UnormS8Uint
	FormatD32Float
)

// Variant is a tagged annotation value (a key->variant map).
type Variant struct {
	Kind    VariantKind
	Int     int64
	Float   float64
	Bool    bool
	String  string
}

// VariantKind tags which field of a Variant holds the value.
type VariantKind uint8

const (
	VariantInt VariantKind = iota
	VariantFloat
	VariantBool
	VariantString
)

// BindingPoint is a backend-neutral binding set/slot pair.
type BindingPoint struct {
	Set  uint32
	Slot uint32
}

// FilterMode is a sampler minification/magnification filter.
type FilterMode uint8

const (
	FilterPoint FilterMode = iota
	FilterLinear
	FilterAnisotropic
)

// AddressMode is a sampler texture-coordinate wrap mode.
type AddressMode uint8

const (
	AddressWrap AddressMode = iota
	AddressClamp
	AddressMirror
	AddressBorder
)

// SamplerDescriptor describes a sampler resource.
type SamplerDescriptor struct {
	Name        string
	Binding     BindingPoint
	Filter      FilterMode
	AddressU    AddressMode
	AddressV    AddressMode
	AddressW    AddressMode
	MinLOD      float32
	MaxLOD      float32
	MaxAniso    uint32
	Annotations map[string]Variant
}

// TextureDescriptor describes a texture resource.
type TextureDescriptor struct {
	Name        string
	Binding     BindingPoint
	Width       int32
	Height      int32
	MipLevels   int32
	Format      TextureFormat
	Annotations map[string]Variant
}

// SameDimensions reports whether t and o agree on the fields that make
// a redeclaration a merge rather than a conflict.
func (t TextureDescriptor) SameDimensions(o TextureDescriptor) bool {
	return t.Width == o.Width && t.Height == o.Height &&
		t.MipLevels == o.MipLevels && t.Format == o.Format
}

// UniformDescriptor describes one member of the module's uniform block.
// Offset and Size are computed by the backend during layout;
// Initializer, if non-nil, is the constant used to seed the runtime
// arena.
type UniformDescriptor struct {
	Name        string
	Type        Type
	Offset      uint32
	Size        uint32
	Initializer *Constant
	Annotations map[string]Variant
}
