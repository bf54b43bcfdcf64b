package spirv

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/prismfx/effectc/codegen"
	"github.com/prismfx/effectc/effectir"
)

// resourceBinding is a declared texture or sampler's SPIR-V-side state.
type resourceBinding struct {
	varID      uint32
	pointerTy  uint32
	binding    uint32
	name       string
}

// uniformLayout is one $Globals member once offset/size are assigned.
type uniformLayout struct {
	desc   effectir.UniformDescriptor
	typeID uint32
}

// blockBuf buffers one basic block's instructions until the owning
// function is flushed, since a block's final word-stream position is
// only known once every forward branch inside the function has been
// recorded: loops are expressed by forward label references.
type blockBuf struct {
	id         uint32
	instrs     []Instruction
	terminated bool
}

// fnState is the in-progress state of one function body between
// EnterFunction and LeaveFunction.
type fnState struct {
	desc       effectir.FunctionDescriptor
	funcTypeID uint32
	funcID     uint32
	paramIDs   []uint32
	locals     []Instruction // OpVariable, Function storage class
	blocks     []*blockBuf
	byHandle   map[effectir.BlockHandle]*blockBuf
	cur        *blockBuf
}

type ptrKey struct {
	base    uint32
	storage StorageClass
}

// Backend lowers an effectir program into a SPIR-V binary module. It
// implements codegen.Generator.
type Backend struct {
	opts Options
	mb   *ModuleBuilder
	log  effectir.ErrorLog

	typeIDs    map[effectir.Type]uint32
	ptrTypeIDs map[ptrKey]uint32
	constIDs   map[string]uint32

	structs  []effectir.StructDescriptor
	structTy []uint32 // SPIR-V struct type id per StructHandle, built lazily

	textures []resourceBinding
	samplers []resourceBinding
	nextBind uint32

	globalsVarID uint32
	globalsPtrTy uint32
	uniforms     []uniformLayout
	uniformCur   uint32

	functions []*fnState
	curFn     *fnState

	// valueTypes/valueStorage record, for every SPIR-V id this backend
	// has produced, enough bookkeeping to resolve later access chains
	// without re-deriving it from scratch.
	valueTypes   map[uint32]effectir.Type
	valueStorage map[uint32]StorageClass

	entryPoints []entryPointInfo
	extSetID    uint32

	// semanticLocations/nextAutoLocation assign stage-interface semantics
	// with no explicit COLORn/SV_TARGETn/TEXCOORDn number a monotonically
	// increasing Location, starting at 10, keyed by the semantic string
	// so repeat use of the same semantic reuses the same location.
	semanticLocations map[string]uint32
	nextAutoLocation  uint32

	// debugStringIDs interns OpString ids by source path for OpLine debug
	// info (spec §4.2 "Debug").
	debugStringIDs map[string]uint32
}

type entryPointInfo struct {
	model      ExecutionModel
	funcID     uint32
	name       string
	interfaces []uint32
}

var _ codegen.Generator = (*Backend)(nil)

// NewBackend constructs an empty Backend ready to receive define_*/emit_*
// calls.
func NewBackend(opts Options) *Backend {
	return &Backend{
		opts:              opts,
		mb:                NewModuleBuilder(opts.Version),
		typeIDs:           make(map[effectir.Type]uint32),
		ptrTypeIDs:        make(map[ptrKey]uint32),
		constIDs:          make(map[string]uint32),
		valueTypes:        make(map[uint32]effectir.Type),
		valueStorage:      make(map[uint32]StorageClass),
		nextBind:          0,
		semanticLocations: make(map[string]uint32),
		nextAutoLocation:  10,
		debugStringIDs:    make(map[string]uint32),
	}
}

// Log returns the accumulating diagnostic log.
func (b *Backend) Log() *effectir.ErrorLog { return &b.log }

// --- type and constant interning -----------------------------------------

func (b *Backend) voidType() uint32 {
	key := effectir.Type{Base: effectir.BaseVoid}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.mb.AddTypeVoid()
	b.typeIDs[key] = id
	return id
}

// typeID interns t and returns its SPIR-V type id, building it (and any
// component types it needs) on first use.
func (b *Backend) typeID(t effectir.Type) uint32 {
	key := t
	key.Qualifiers = 0 // qualifiers affect layout/decoration, not shape
	if id, ok := b.typeIDs[key]; ok {
		return id
	}

	var id uint32
	switch {
	case t.Base == effectir.BaseVoid:
		id = b.mb.AddTypeVoid()
	case t.Base == effectir.BaseStruct:
		id = b.structTypeID(t.Struct)
	case t.Base == effectir.BaseTexture:
		sampled := b.typeID(effectir.Type{Base: effectir.BaseFloat, Rows: 1, Cols: 1})
		id = b.mb.AllocID()
		ib := NewInstructionBuilder()
		ib.AddWord(sampled)
		ib.AddWord(1) // Dim2D
		ib.AddWord(0) // not depth
		ib.AddWord(0) // not arrayed
		ib.AddWord(0) // not multisampled
		ib.AddWord(1) // sampled = 1 (used with sampler)
		ib.AddWord(uint32(ImageFormatUnknown))
		b.mb.types = append(b.mb.types, Instruction{Opcode: OpTypeImage, Words: append([]uint32{id}, ib.words...)})
	case t.Base == effectir.BaseSampler:
		id = b.mb.AllocID()
		b.mb.types = append(b.mb.types, Instruction{Opcode: OpTypeSampler, Words: []uint32{id}})
	case t.IsArray():
		elem := t
		elem.ArrayLen = 0
		elemID := b.typeID(elem)
		if t.ArrayLen == effectir.ArrayLenUnsized {
			id = b.mb.AllocID()
			ib := NewInstructionBuilder()
			ib.AddWord(id)
			ib.AddWord(elemID)
			b.mb.types = append(b.mb.types, ib.Build(OpTypeRuntimeArray))
		} else {
			lenConst := b.mb.AddConstant(b.typeID(effectir.Type{Base: effectir.BaseUint, Rows: 1, Cols: 1}), uint32(t.ArrayLen))
			id = b.mb.AddTypeArray(elemID, lenConst)
		}
	case t.IsMatrix():
		colType := b.typeID(effectir.Type{Base: t.Base, Rows: t.Rows, Cols: 1})
		id = b.mb.AddTypeMatrix(colType, uint32(t.Cols))
	case t.IsVector():
		compType := b.typeID(effectir.Type{Base: t.Base, Rows: 1, Cols: 1})
		id = b.mb.AddTypeVector(compType, uint32(t.Rows))
	default: // scalar
		switch t.Base {
		case effectir.BaseBool:
			id = b.mb.AddTypeBool()
		case effectir.BaseFloat:
			id = b.mb.AddTypeFloat(32)
		case effectir.BaseInt:
			id = b.mb.AddTypeInt(32, true)
		case effectir.BaseUint:
			id = b.mb.AddTypeInt(32, false)
		default:
			id = b.mb.AddTypeVoid()
		}
	}

	if t.Pointer {
		storage := StorageClassFunction
		if t.IsInput {
			storage = StorageClassInput
		} else if t.IsOutput {
			storage = StorageClassOutput
		}
		base := t
		base.Pointer = false
		baseID := b.typeID(base)
		id = b.pointerType(baseID, storage)
	}

	b.typeIDs[key] = id
	return id
}

func (b *Backend) pointerType(base uint32, storage StorageClass) uint32 {
	k := ptrKey{base: base, storage: storage}
	if id, ok := b.ptrTypeIDs[k]; ok {
		return id
	}
	id := b.mb.AddTypePointer(storage, base)
	b.ptrTypeIDs[k] = id
	return id
}

func (b *Backend) structTypeID(h effectir.StructHandle) uint32 {
	idx := int(h)
	if idx < 0 || idx >= len(b.structs) {
		b.log.Errorf(effectir.ErrBackend, "reference to undeclared struct handle %d", h)
		return b.voidType()
	}
	if b.structTy[idx] != 0 {
		return b.structTy[idx]
	}
	desc := b.structs[idx]
	memberIDs := make([]uint32, len(desc.Members))
	for i, m := range desc.Members {
		memberIDs[i] = b.typeID(m.Type)
	}
	id := b.mb.AddTypeStruct(memberIDs...)
	for i, m := range desc.Members {
		if m.Name != "" {
			b.mb.AddMemberName(id, uint32(i), m.Name)
		}
	}
	b.structTy[idx] = id
	return id
}

func constantKey(c effectir.Constant) string {
	var sb strings.Builder
	writeConstantKey(&sb, c)
	return sb.String()
}

func writeConstantKey(sb *strings.Builder, c effectir.Constant) {
	fmt.Fprintf(sb, "%v|%v|%s", c.Type, c.Lanes, c.String)
	for _, e := range c.Elements {
		sb.WriteString("|e:")
		writeConstantKey(sb, e)
	}
}

// EmitConstant interns c by exact type equality plus bit pattern (plus,
// for arrays, recursive element equality) and returns its SPIR-V id,
// building the constant's instructions only on first use.
func (b *Backend) EmitConstant(c effectir.Constant) effectir.ValueID {
	key := constantKey(c)
	if id, ok := b.constIDs[key]; ok {
		return effectir.ValueID(id)
	}
	id := b.emitConstantValue(c)
	b.constIDs[key] = id
	return effectir.ValueID(id)
}

// emitConstantValue builds c's SPIR-V constant instructions per spec
// §4.2: scalars emit OpConstant (OpConstantTrue/False for bool);
// vectors, matrices, and arrays decompose into their column/component
// constituents — emitted through EmitConstant so identical constituents
// across different composites dedupe — then recompose via
// OpConstantComposite; a struct or array with no supplied elements
// emits OpConstantNull.
func (b *Backend) emitConstantValue(c effectir.Constant) uint32 {
	t := c.Type
	tyID := b.typeID(t)

	switch {
	case t.Base == effectir.BaseVoid:
		b.log.Errorf(effectir.ErrBackend, "emit_constant called with a void type")
		return 0
	case t.Base == effectir.BaseString:
		b.log.Errorf(effectir.ErrBackend, "string constants have no SPIR-V value representation")
		return b.mb.AddConstantNull(tyID)
	case t.Base == effectir.BaseStruct:
		if len(c.Elements) == 0 {
			return b.mb.AddConstantNull(tyID)
		}
		constituents := make([]uint32, len(c.Elements))
		for i, e := range c.Elements {
			constituents[i] = uint32(b.EmitConstant(e))
		}
		return b.mb.AddConstantComposite(tyID, constituents...)
	case t.IsArray():
		if len(c.Elements) == 0 {
			return b.mb.AddConstantNull(tyID)
		}
		elemType := t
		elemType.ArrayLen = 0
		constituents := make([]uint32, len(c.Elements))
		for i, e := range c.Elements {
			e.Type = elemType
			constituents[i] = uint32(b.EmitConstant(e))
		}
		return b.mb.AddConstantComposite(tyID, constituents...)
	case t.IsMatrix():
		colType := effectir.Type{Base: t.Base, Rows: t.Rows, Cols: 1}
		cols := make([]uint32, t.Cols)
		for col := range cols {
			var colConst effectir.Constant
			colConst.Type = colType
			copy(colConst.Lanes[:], c.Lanes[col*int(t.Rows):])
			cols[col] = uint32(b.EmitConstant(colConst))
		}
		return b.mb.AddConstantComposite(tyID, cols...)
	case t.IsVector():
		scalarType := effectir.Type{Base: t.Base, Rows: 1, Cols: 1}
		comps := make([]uint32, t.Rows)
		for i := range comps {
			var scalar effectir.Constant
			scalar.Type = scalarType
			scalar.Lanes[0] = c.Lanes[i]
			comps[i] = uint32(b.EmitConstant(scalar))
		}
		return b.mb.AddConstantComposite(tyID, comps...)
	case t.Base == effectir.BaseBool:
		return b.mb.AddConstantBool(tyID, c.Lanes[0] != 0)
	default: // scalar int/uint/float
		return b.mb.AddConstant(tyID, c.Lanes[0])
	}
}

// --- resource and function declaration ------------------------------------

// DefineStruct registers a struct shape; its SPIR-V OpTypeStruct is
// built lazily the first time a Type referencing it is interned.
func (b *Backend) DefineStruct(s effectir.StructDescriptor) effectir.StructHandle {
	b.structs = append(b.structs, s)
	b.structTy = append(b.structTy, 0)
	return effectir.StructHandle(len(b.structs) - 1)
}

func (b *Backend) allocBinding() uint32 {
	bnd := b.nextBind
	b.nextBind++
	return bnd
}

// DefineTexture declares a sampled-image resource at descriptor set 1
// with a monotonically increasing binding index.
func (b *Backend) DefineTexture(t effectir.TextureDescriptor) effectir.TextureHandle {
	imgType := b.typeID(effectir.Type{Base: effectir.BaseTexture})
	ptrTy := b.pointerType(imgType, StorageClassUniformConstant)
	varID := b.mb.AddVariable(ptrTy, StorageClassUniformConstant)
	binding := b.allocBinding()
	b.mb.AddDecorate(varID, DecorationDescriptorSet, 1)
	b.mb.AddDecorate(varID, DecorationBinding, binding)
	if t.Name != "" {
		b.mb.AddName(varID, t.Name)
	}
	b.textures = append(b.textures, resourceBinding{varID: varID, pointerTy: ptrTy, binding: binding, name: t.Name})
	b.valueStorage[varID] = StorageClassUniformConstant
	return effectir.TextureHandle(len(b.textures) - 1)
}

// DefineSampler declares a sampler resource sharing the binding space
// used by DefineTexture.
func (b *Backend) DefineSampler(s effectir.SamplerDescriptor) effectir.SamplerHandle {
	sampTy := b.typeID(effectir.Type{Base: effectir.BaseSampler})
	ptrTy := b.pointerType(sampTy, StorageClassUniformConstant)
	varID := b.mb.AddVariable(ptrTy, StorageClassUniformConstant)
	binding := b.allocBinding()
	b.mb.AddDecorate(varID, DecorationDescriptorSet, 1)
	b.mb.AddDecorate(varID, DecorationBinding, binding)
	if s.Name != "" {
		b.mb.AddName(varID, s.Name)
	}
	b.samplers = append(b.samplers, resourceBinding{varID: varID, pointerTy: ptrTy, binding: binding, name: s.Name})
	b.valueStorage[varID] = StorageClassUniformConstant
	return effectir.SamplerHandle(len(b.samplers) - 1)
}

// std140Layout advances cursor past one member of type t and returns
// its (offset, size), rounding vec3/vec4 and array/matrix strides up
// to 16-byte alignment as std140 requires.
func std140Layout(t effectir.Type, cursor *uint32) (offset, size uint32) {
	align := uint32(4)
	switch {
	case t.IsArray() || t.IsMatrix():
		align = 16
	case t.Rows >= 3:
		align = 16
	case t.Rows == 2:
		align = 8
	}
	*cursor = (*cursor + align - 1) / align * align
	offset = *cursor

	switch {
	case t.IsArray():
		n := t.ArrayLen
		if n < 0 {
			n = 1
		}
		size = uint32(n) * 16
	case t.IsMatrix():
		size = uint32(t.Cols) * 16
	default:
		size = uint32(t.ComponentCount()) * 4
		if align == 16 {
			size = 16
		}
	}
	*cursor += size
	return offset, size
}

// DefineUniform appends u to the module's single $Globals block,
// assigning it a std140-equivalent offset, and returns the block's
// value id and the member's index within it.
func (b *Backend) DefineUniform(u effectir.UniformDescriptor) (effectir.ValueID, int) {
	if b.globalsVarID == 0 {
		b.globalsVarID = b.mb.AllocID()
	}
	offset, size := std140Layout(u.Type, &b.uniformCur)
	u.Offset = offset
	u.Size = size
	b.uniforms = append(b.uniforms, uniformLayout{desc: u, typeID: b.typeID(u.Type)})
	return effectir.ValueID(b.globalsVarID), len(b.uniforms) - 1
}

// finalizeGlobals builds the $Globals struct type and backing variable
// once every uniform has been declared. Called from WriteResult.
func (b *Backend) finalizeGlobals() {
	if b.globalsVarID == 0 || len(b.uniforms) == 0 {
		return
	}
	memberIDs := make([]uint32, len(b.uniforms))
	for i, m := range b.uniforms {
		memberIDs[i] = m.typeID
	}
	structID := b.mb.AddTypeStruct(memberIDs...)
	b.mb.AddDecorate(structID, DecorationBlock)
	for i, m := range b.uniforms {
		b.mb.AddMemberDecorate(structID, uint32(i), DecorationOffset, m.desc.Offset)
		if m.desc.Name != "" {
			b.mb.AddMemberName(structID, uint32(i), m.desc.Name)
		}
	}
	ptrTy := b.pointerType(structID, StorageClassUniform)
	// The variable id was pre-allocated at the first DefineUniform call
	// so access chains built earlier could already reference it.
	ib := NewInstructionBuilder()
	ib.AddWord(ptrTy)
	ib.AddWord(b.globalsVarID)
	ib.AddWord(uint32(StorageClassUniform))
	b.mb.globalVars = append(b.mb.globalVars, ib.Build(OpVariable))
	b.mb.AddDecorate(b.globalsVarID, DecorationDescriptorSet, 0)
	b.mb.AddDecorate(b.globalsVarID, DecorationBinding, 0)
	b.mb.AddName(b.globalsVarID, "$Globals")
	b.globalsPtrTy = ptrTy
	b.valueStorage[b.globalsVarID] = StorageClassUniform
}

// DefineVariable declares a function-local variable. It must be called
// while a function is current (between EnterFunction/LeaveFunction).
func (b *Backend) DefineVariable(name string, t effectir.Type) effectir.ValueID {
	if b.curFn == nil {
		b.log.Errorf(effectir.ErrBackend, "define_variable %q outside a function body", name)
		return 0
	}
	ptrTy := b.pointerType(b.typeID(t), StorageClassFunction)
	id := b.mb.AllocID()
	ib := NewInstructionBuilder()
	ib.AddWord(ptrTy)
	ib.AddWord(id)
	ib.AddWord(uint32(StorageClassFunction))
	b.curFn.locals = append(b.curFn.locals, ib.Build(OpVariable))
	if name != "" {
		b.mb.AddName(id, name)
	}
	b.valueTypes[id] = t
	b.valueStorage[id] = StorageClassFunction
	return effectir.ValueID(id)
}

// DefineParameter returns the id already assigned to the named
// parameter of the function currently being entered.
func (b *Backend) DefineParameter(name string, t effectir.Type, semantic string) effectir.ValueID {
	if b.curFn == nil {
		b.log.Errorf(effectir.ErrBackend, "define_parameter %q outside a function body", name)
		return 0
	}
	for i, p := range b.curFn.desc.Params {
		if p.Name == name {
			return effectir.ValueID(b.curFn.paramIDs[i])
		}
	}
	b.log.Errorf(effectir.ErrBackend, "parameter %q not declared on function %q", name, b.curFn.desc.Name)
	return 0
}

// DefineFunction forward-declares f's signature (OpTypeFunction and a
// reserved function id) without emitting a body; EnterFunction/
// LeaveFunction later fill the body in.
func (b *Backend) DefineFunction(f effectir.FunctionDescriptor) effectir.FunctionHandle {
	retTy := b.typeID(f.Return)
	paramTys := make([]uint32, len(f.Params))
	for i, p := range f.Params {
		paramTys[i] = b.typeID(p.Type)
	}
	fnTypeID := b.mb.AddTypeFunction(retTy, paramTys...)
	fnID := b.mb.AllocID()
	if f.Name != "" {
		b.mb.AddName(fnID, f.Name)
	}
	st := &fnState{desc: f, funcTypeID: fnTypeID, funcID: fnID, byHandle: make(map[effectir.BlockHandle]*blockBuf)}
	b.functions = append(b.functions, st)
	return effectir.FunctionHandle(len(b.functions) - 1)
}

// DefineTechnique records a technique; SPIR-V modules are per-entry
// point, so techniques only influence which functions become entry
// points via CreateEntryPoint (performed by the caller).
func (b *Backend) DefineTechnique(t effectir.Technique) int { return 0 }

// entryBuilder accumulates a stage-entry glue function's body while it
// is being assembled: Function-storage OpVariable declarations (which
// SPIR-V requires to precede all other instructions in a function's
// first block), the straight-line instructions that follow them, and
// the interface variable ids the finished OpEntryPoint must list.
type entryBuilder struct {
	locals     []Instruction
	stmts      []Instruction
	interfaces []uint32
}

func (eb *entryBuilder) local(i Instruction) { eb.locals = append(eb.locals, i) }
func (eb *entryBuilder) emit(i Instruction)  { eb.stmts = append(eb.stmts, i) }

// builtinFor maps an HLSL-style system-value semantic to its SPIR-V
// BuiltIn decoration, per spec §4.2: SV_POSITION is FragCoord read as a
// pixel-stage input and Position written as a vertex-stage output;
// SV_POINTSIZE/SV_DEPTH/SV_VERTEXID map directly. ok is false for an
// ordinary (non-system-value) semantic.
func builtinFor(semantic string, isOutput bool) (BuiltIn, bool) {
	switch strings.ToUpper(semantic) {
	case "SV_POSITION":
		if isOutput {
			return BuiltInPosition, true
		}
		return BuiltInFragCoord, true
	case "SV_POINTSIZE":
		return BuiltInPointSize, true
	case "SV_DEPTH":
		return BuiltInFragDepth, true
	case "SV_VERTEXID", "VERTEXID":
		return BuiltInVertexID, true
	default:
		return 0, false
	}
}

// explicitLocation parses a COLORn/SV_TARGETn/TEXCOORDn semantic into
// its trailing numeric location, with ok=false for anything else
// (including a bare prefix with no digits).
func explicitLocation(semantic string) (uint32, bool) {
	up := strings.ToUpper(semantic)
	for _, prefix := range []string{"SV_TARGET", "COLOR", "TEXCOORD"} {
		if !strings.HasPrefix(up, prefix) {
			continue
		}
		suffix := up[len(prefix):]
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			return 0, false
		}
		return uint32(n), true
	}
	return 0, false
}

// autoLocation assigns semantic a monotonically increasing Location
// starting at 10, reusing the same location for every subsequent lookup
// of the same semantic string.
func (b *Backend) autoLocation(semantic string) uint32 {
	if loc, ok := b.semanticLocations[semantic]; ok {
		return loc
	}
	loc := b.nextAutoLocation
	b.nextAutoLocation++
	b.semanticLocations[semantic] = loc
	return loc
}

// addInterpolationDecorations attaches the NoPerspective/Centroid/Flat
// decoration q calls for, per spec §4.2.
func (b *Backend) addInterpolationDecorations(varID uint32, q effectir.Qualifier) {
	if q.Has(effectir.QualNoInterpolation) {
		b.mb.AddDecorate(varID, DecorationFlat)
		return
	}
	if q.Has(effectir.QualNoPerspective) {
		b.mb.AddDecorate(varID, DecorationNoPerspective)
	}
	if q.Has(effectir.QualCentroid) {
		b.mb.AddDecorate(varID, DecorationCentroid)
	}
}

// declareIfaceVar declares a fresh Input or Output interface variable
// of type t, decorates it with semantic's BuiltIn or Location (explicit
// or auto-assigned) plus any interpolation qualifier, records it on eb
// for the entry point's interface list, and returns its id.
func (b *Backend) declareIfaceVar(eb *entryBuilder, t effectir.Type, semantic string, isOutput bool) uint32 {
	storage := StorageClassInput
	if isOutput {
		storage = StorageClassOutput
	}
	varTy := t
	varTy.Pointer, varTy.IsInput, varTy.IsOutput = false, false, false
	ptrTy := b.pointerType(b.typeID(varTy), storage)
	id := b.mb.AddVariable(ptrTy, storage)
	eb.interfaces = append(eb.interfaces, id)

	if builtin, ok := builtinFor(semantic, isOutput); ok {
		b.mb.AddDecorate(id, DecorationBuiltIn, uint32(builtin))
	} else if loc, ok := explicitLocation(semantic); ok {
		b.mb.AddDecorate(id, DecorationLocation, loc)
	} else {
		b.mb.AddDecorate(id, DecorationLocation, b.autoLocation(semantic))
	}
	b.addInterpolationDecorations(id, t.Qualifiers)
	return id
}

func (b *Backend) functionLocal(eb *entryBuilder, t effectir.Type) uint32 {
	ptrTy := b.pointerType(b.typeID(t), StorageClassFunction)
	id := b.mb.AllocID()
	ib := NewInstructionBuilder()
	ib.AddWord(ptrTy)
	ib.AddWord(id)
	ib.AddWord(uint32(StorageClassFunction))
	eb.local(ib.Build(OpVariable))
	return id
}

func (b *Backend) emitLoadFrom(eb *entryBuilder, resultTy, ptr uint32) uint32 {
	id := b.mb.AllocID()
	ib := NewInstructionBuilder()
	ib.AddWord(resultTy)
	ib.AddWord(id)
	ib.AddWord(ptr)
	eb.emit(ib.Build(OpLoad))
	return id
}

func (b *Backend) emitStoreTo(eb *entryBuilder, ptr, value uint32) {
	ib := NewInstructionBuilder()
	ib.AddWord(ptr)
	ib.AddWord(value)
	eb.emit(ib.Build(OpStore))
}

// wireEntryInput turns one user-function input parameter into a value
// ready to pass to OpFunctionCall: a struct parameter's members are
// each read from their own interface variable then assembled with
// OpCompositeConstruct; anything else is read from its single interface
// variable directly. Either way the result is copied through a
// Function-storage local before use, per spec §4.2.
func (b *Backend) wireEntryInput(eb *entryBuilder, t effectir.Type, semantic string) uint32 {
	var value uint32
	if t.Base == effectir.BaseStruct && t.HasStruct {
		idx := int(t.Struct)
		if idx < 0 || idx >= len(b.structs) {
			b.log.Errorf(effectir.ErrBackend, "entry point parameter references undeclared struct handle %d", t.Struct)
			return 0
		}
		desc := b.structs[idx]
		constituents := make([]uint32, len(desc.Members))
		for i, m := range desc.Members {
			ifaceID := b.declareIfaceVar(eb, m.Type, m.Semantic, false)
			constituents[i] = b.emitLoadFrom(eb, b.typeID(m.Type), ifaceID)
		}
		resultID := b.mb.AllocID()
		ib := NewInstructionBuilder()
		ib.AddWord(b.typeID(t))
		ib.AddWord(resultID)
		for _, c := range constituents {
			ib.AddWord(c)
		}
		eb.emit(ib.Build(OpCompositeConstruct))
		value = resultID
	} else {
		ifaceID := b.declareIfaceVar(eb, t, semantic, false)
		value = b.emitLoadFrom(eb, b.typeID(t), ifaceID)
	}

	localID := b.functionLocal(eb, t)
	b.emitStoreTo(eb, localID, value)
	return b.emitLoadFrom(eb, b.typeID(t), localID)
}

// wireEntryOutput copies value (the user function's return, or one
// output parameter) through a Function-storage local and writes it out:
// a struct return is decomposed via OpCompositeExtract into one store
// per member's own interface variable; anything else stores directly.
func (b *Backend) wireEntryOutput(eb *entryBuilder, t effectir.Type, semantic string, value uint32) {
	localID := b.functionLocal(eb, t)
	b.emitStoreTo(eb, localID, value)
	loaded := b.emitLoadFrom(eb, b.typeID(t), localID)

	if t.Base == effectir.BaseStruct && t.HasStruct {
		idx := int(t.Struct)
		if idx < 0 || idx >= len(b.structs) {
			b.log.Errorf(effectir.ErrBackend, "entry point return references undeclared struct handle %d", t.Struct)
			return
		}
		desc := b.structs[idx]
		for i, m := range desc.Members {
			extractID := b.mb.AllocID()
			ib := NewInstructionBuilder()
			ib.AddWord(b.typeID(m.Type))
			ib.AddWord(extractID)
			ib.AddWord(loaded)
			ib.AddWord(uint32(i))
			eb.emit(ib.Build(OpCompositeExtract))
			ifaceID := b.declareIfaceVar(eb, m.Type, m.Semantic, true)
			b.emitStoreTo(eb, ifaceID, extractID)
		}
		return
	}
	ifaceID := b.declareIfaceVar(eb, t, semantic, true)
	b.emitStoreTo(eb, ifaceID, loaded)
}

// CreateEntryPoint synthesizes the glue function spec §4.2 describes: a
// void-returning wrapper that reads every input parameter from its
// stage-interface variable(s), calls fn, writes its return (if any) back
// out, and returns. The wrapper — not fn itself — is what OpEntryPoint
// names, with every interface variable it touched listed on it.
func (b *Backend) CreateEntryPoint(fn effectir.FunctionHandle, isPixelStage bool) effectir.FunctionHandle {
	idx := int(fn)
	if idx < 0 || idx >= len(b.functions) {
		b.log.Errorf(effectir.ErrBackend, "create_entry_point on unknown function handle %d", fn)
		return fn
	}
	target := b.functions[idx]
	model := ExecutionModelVertex
	if isPixelStage {
		model = ExecutionModelFragment
	}

	eb := &entryBuilder{}
	voidTy := b.voidType()

	args := make([]uint32, len(target.desc.Params))
	for i, p := range target.desc.Params {
		args[i] = b.wireEntryInput(eb, p.Type, p.Semantic)
	}

	callWords := append([]uint32{target.funcID}, args...)
	callResultID := b.mb.AllocID()
	callIB := NewInstructionBuilder()
	callIB.AddWord(b.typeID(target.desc.Return))
	callIB.AddWord(callResultID)
	for _, w := range callWords {
		callIB.AddWord(w)
	}
	eb.emit(callIB.Build(OpFunctionCall))

	if target.desc.Return.Base != effectir.BaseVoid {
		b.wireEntryOutput(eb, target.desc.Return, target.desc.ReturnSemantic, callResultID)
	}

	wrapperTypeID := b.mb.AddTypeFunction(voidTy)
	wrapperID := b.mb.AllocID()
	b.mb.AddName(wrapperID, target.desc.Name+"_main")

	fnIB := NewInstructionBuilder()
	fnIB.AddWord(voidTy)
	fnIB.AddWord(wrapperID)
	fnIB.AddWord(uint32(FunctionControlNone))
	fnIB.AddWord(wrapperTypeID)
	b.mb.AppendFunctionInstruction(fnIB.Build(OpFunction))

	labelID := b.mb.AllocID()
	labelIB := NewInstructionBuilder()
	labelIB.AddWord(labelID)
	b.mb.AppendFunctionInstruction(labelIB.Build(OpLabel))

	for _, instr := range eb.locals {
		b.mb.AppendFunctionInstruction(instr)
	}
	for _, instr := range eb.stmts {
		b.mb.AppendFunctionInstruction(instr)
	}
	b.mb.AppendFunctionInstruction(NewInstructionBuilder().Build(OpReturn))
	b.mb.AppendFunctionInstruction(NewInstructionBuilder().Build(OpFunctionEnd))

	b.entryPoints = append(b.entryPoints, entryPointInfo{
		model:      model,
		funcID:     wrapperID,
		name:       target.desc.Name,
		interfaces: eb.interfaces,
	})
	return fn
}

// --- function body construction -------------------------------------------

// EnterFunction begins body construction for fn, allocating one id per
// declared parameter; the OpFunction and OpFunctionParameter
// instructions themselves are emitted later, by LeaveFunction.
func (b *Backend) EnterFunction(fn effectir.FunctionHandle) {
	idx := int(fn)
	if idx < 0 || idx >= len(b.functions) {
		b.log.Errorf(effectir.ErrBackend, "enter_function on unknown function handle %d", fn)
		return
	}
	st := b.functions[idx]
	st.paramIDs = make([]uint32, len(st.desc.Params))
	for i, p := range st.desc.Params {
		id := b.mb.AllocID()
		st.paramIDs[i] = id
		b.valueTypes[id] = p.Type
		if p.Name != "" {
			b.mb.AddName(id, p.Name)
		}
	}
	b.curFn = st
}

// LeaveFunction closes the function body and flushes its blocks, in
// declaration order, into the module's functions section.
func (b *Backend) LeaveFunction() {
	st := b.curFn
	if st == nil {
		return
	}
	b.mb.AppendFunctionInstruction(func() Instruction {
		ib := NewInstructionBuilder()
		ib.AddWord(b.typeID(st.desc.Return))
		ib.AddWord(st.funcID)
		ib.AddWord(uint32(FunctionControlNone))
		ib.AddWord(st.funcTypeID)
		return ib.Build(OpFunction)
	}())
	for _, pid := range st.paramIDs {
		ib := NewInstructionBuilder()
		var pt effectir.Type
		pt = b.valueTypes[pid]
		ib.AddWord(b.typeID(pt))
		ib.AddWord(pid)
		b.mb.AppendFunctionInstruction(ib.Build(OpFunctionParameter))
	}

	for i, blk := range st.blocks {
		ib := NewInstructionBuilder()
		ib.AddWord(blk.id)
		b.mb.AppendFunctionInstruction(ib.Build(OpLabel))
		if i == 0 {
			for _, local := range st.locals {
				b.mb.AppendFunctionInstruction(local)
			}
		}
		for _, instr := range blk.instrs {
			b.mb.AppendFunctionInstruction(instr)
		}
		if !blk.terminated {
			b.mb.AppendFunctionInstruction(NewInstructionBuilder().Build(OpReturn))
		}
	}
	b.mb.AppendFunctionInstruction(NewInstructionBuilder().Build(OpFunctionEnd))
	b.curFn = nil
}

// EnterBlock allocates a new block id and makes it current.
func (b *Backend) EnterBlock() effectir.BlockHandle {
	if b.curFn == nil {
		b.log.Errorf(effectir.ErrBackend, "enter_block outside a function body")
		return 0
	}
	id := b.mb.AllocID()
	blk := &blockBuf{id: id}
	b.curFn.blocks = append(b.curFn.blocks, blk)
	handle := effectir.BlockHandle(id)
	b.curFn.byHandle[handle] = blk
	b.curFn.cur = blk
	return handle
}

// SetBlock makes an already-entered block current again (used when the
// frontend revisits a forward-declared block, e.g. a loop header).
func (b *Backend) SetBlock(h effectir.BlockHandle) {
	if b.curFn == nil {
		return
	}
	if blk, ok := b.curFn.byHandle[h]; ok {
		b.curFn.cur = blk
		return
	}
	blk := &blockBuf{id: uint32(h)}
	b.curFn.blocks = append(b.curFn.blocks, blk)
	b.curFn.byHandle[h] = blk
	b.curFn.cur = blk
}

func (b *Backend) blockID(h effectir.BlockHandle) uint32 {
	if b.curFn != nil {
		if blk, ok := b.curFn.byHandle[h]; ok {
			return blk.id
		}
	}
	return uint32(h)
}

func (b *Backend) append(instr Instruction) {
	if b.curFn == nil || b.curFn.cur == nil {
		b.log.Errorf(effectir.ErrBackend, "instruction emitted with no current block")
		return
	}
	b.curFn.cur.instrs = append(b.curFn.cur.instrs, instr)
}

func (b *Backend) terminate(instr Instruction) {
	b.append(instr)
	if b.curFn != nil && b.curFn.cur != nil {
		b.curFn.cur.terminated = true
	}
}

// emit allocates a result id, builds [resultType, resultID, words...]
// for opcode, appends it to the current block, and returns the id.
func (b *Backend) emit(opcode OpCode, resultType uint32, words ...uint32) uint32 {
	id := b.mb.AllocID()
	ib := NewInstructionBuilder()
	ib.AddWord(resultType)
	ib.AddWord(id)
	for _, w := range words {
		ib.AddWord(w)
	}
	b.append(ib.Build(opcode))
	return id
}

// LeaveBlockAndBranch terminates the current block with OpBranch.
func (b *Backend) LeaveBlockAndBranch(target effectir.BlockHandle) {
	ib := NewInstructionBuilder()
	ib.AddWord(b.blockID(target))
	b.terminate(ib.Build(OpBranch))
}

// LeaveBlockAndBranchConditional terminates the current block with
// OpBranchConditional.
func (b *Backend) LeaveBlockAndBranchConditional(cond effectir.ValueID, trueTarget, falseTarget effectir.BlockHandle) {
	ib := NewInstructionBuilder()
	ib.AddWord(uint32(cond))
	ib.AddWord(b.blockID(trueTarget))
	ib.AddWord(b.blockID(falseTarget))
	b.terminate(ib.Build(OpBranchConditional))
}

// LeaveBlockAndSwitch terminates the current block with OpSwitch.
func (b *Backend) LeaveBlockAndSwitch(selector effectir.ValueID, def effectir.BlockHandle, cases map[int32]effectir.BlockHandle) {
	ib := NewInstructionBuilder()
	ib.AddWord(uint32(selector))
	ib.AddWord(b.blockID(def))
	keys := make([]int32, 0, len(cases))
	for k := range cases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		ib.AddWord(uint32(k))
		ib.AddWord(b.blockID(cases[k]))
	}
	b.terminate(ib.Build(OpSwitch))
}

// LeaveBlockAndReturn terminates the current block with OpReturn or
// OpReturnValue.
func (b *Backend) LeaveBlockAndReturn(value *effectir.ValueID) {
	if value == nil {
		b.terminate(NewInstructionBuilder().Build(OpReturn))
		return
	}
	ib := NewInstructionBuilder()
	ib.AddWord(uint32(*value))
	b.terminate(ib.Build(OpReturnValue))
}

// LeaveBlockAndKill terminates the current block with OpKill (pixel
// shader discard).
func (b *Backend) LeaveBlockAndKill() {
	b.terminate(NewInstructionBuilder().Build(OpKill))
}

func selectionControl(f codegen.ControlFlag) SelectionControl {
	switch f {
	case codegen.ControlFlatten:
		return SelectionControlFlatten
	case codegen.ControlDontFlatten:
		return SelectionControlDontFlatten
	default:
		return SelectionControlNone
	}
}

func loopControl(f codegen.ControlFlag) LoopControl {
	switch f {
	case codegen.ControlUnroll:
		return LoopControlUnroll
	case codegen.ControlDontUnroll:
		return LoopControlDontUnroll
	default:
		return LoopControlNone
	}
}

// EmitIf attaches OpSelectionMerge to the current block, naming merge
// as the block both branches rejoin at.
func (b *Backend) EmitIf(merge effectir.BlockHandle, flags codegen.ControlFlag) {
	ib := NewInstructionBuilder()
	ib.AddWord(b.blockID(merge))
	ib.AddWord(uint32(selectionControl(flags)))
	b.append(ib.Build(OpSelectionMerge))
}

// EmitLoop attaches OpLoopMerge to the current (header) block.
func (b *Backend) EmitLoop(merge, continueBlock effectir.BlockHandle, flags codegen.ControlFlag) {
	ib := NewInstructionBuilder()
	ib.AddWord(b.blockID(merge))
	ib.AddWord(b.blockID(continueBlock))
	ib.AddWord(uint32(loopControl(flags)))
	b.append(ib.Build(OpLoopMerge))
}

// EmitSwitch attaches OpSelectionMerge ahead of an OpSwitch terminator.
func (b *Backend) EmitSwitch(merge effectir.BlockHandle, flags codegen.ControlFlag) {
	ib := NewInstructionBuilder()
	ib.AddWord(b.blockID(merge))
	ib.AddWord(uint32(selectionControl(flags)))
	b.append(ib.Build(OpSelectionMerge))
}

// --- expression emission ---------------------------------------------------

// EmitUnaryOp emits the float or signed-int variant of op depending on
// t's base tag.
func (b *Backend) EmitUnaryOp(op codegen.UnaryOp, operand effectir.ValueID, t effectir.Type) effectir.ValueID {
	resultTy := b.typeID(t)
	var opcode OpCode
	switch op {
	case codegen.UnaryNegate:
		if t.Base == effectir.BaseFloat {
			opcode = OpFNegate
		} else {
			opcode = OpSNegate
		}
	case codegen.UnaryNot:
		opcode = OpLogicalNot
	case codegen.UnaryBitNot:
		opcode = OpNot
	default:
		opcode = OpFNegate
	}
	id := b.emit(opcode, resultTy, uint32(operand))
	b.valueTypes[id] = t
	return effectir.ValueID(id)
}

// binaryOpcode resolves op to the SPIR-V opcode appropriate for t's
// base tag (float/signed/unsigned/logical variants).
func binaryOpcode(op codegen.BinaryOp, t effectir.Type) OpCode {
	f := t.Base == effectir.BaseFloat
	u := t.Base == effectir.BaseUint
	bl := t.Base == effectir.BaseBool
	switch op {
	case codegen.BinAdd:
		if f {
			return OpFAdd
		}
		return OpIAdd
	case codegen.BinSub:
		if f {
			return OpFSub
		}
		return OpISub
	case codegen.BinMul:
		if f {
			return OpFMul
		}
		return OpIMul
	case codegen.BinDiv:
		if f {
			return OpFDiv
		}
		if u {
			return OpUDiv
		}
		return OpSDiv
	case codegen.BinMod:
		if f {
			return OpFMod
		}
		if u {
			return OpUMod
		}
		return OpSMod
	case codegen.BinAnd:
		return OpBitwiseAnd
	case codegen.BinOr:
		return OpBitwiseOr
	case codegen.BinXor:
		return OpBitwiseXor
	case codegen.BinShl:
		return OpShiftLeftLogical
	case codegen.BinShr:
		if u {
			return OpShiftRightLogical
		}
		return OpShiftRightArithmetic
	case codegen.BinLogicalAnd:
		return OpLogicalAnd
	case codegen.BinLogicalOr:
		return OpLogicalOr
	case codegen.BinLess:
		if f {
			return OpFOrdLessThan
		}
		if u {
			return OpULessThan
		}
		return OpSLessThan
	case codegen.BinGreater:
		if f {
			return OpFOrdGreaterThan
		}
		if u {
			return OpUGreaterThan
		}
		return OpSGreaterThan
	case codegen.BinLessEqual:
		if f {
			return OpFOrdLessThanEqual
		}
		if u {
			return OpULessThanEqual
		}
		return OpSLessThanEqual
	case codegen.BinGreaterEqual:
		if f {
			return OpFOrdGreaterThanEqual
		}
		if u {
			return OpUGreaterThanEqual
		}
		return OpSGreaterThanEqual
	case codegen.BinEqual:
		if f {
			return OpFOrdEqual
		}
		if bl {
			return OpLogicalEqual
		}
		return OpIEqual
	case codegen.BinNotEqual:
		if f {
			return OpFOrdNotEqual
		}
		if bl {
			return OpLogicalNotEqual
		}
		return OpINotEqual
	default:
		return OpFAdd
	}
}

// EmitBinaryOp emits the operand-type-appropriate opcode for op.
func (b *Backend) EmitBinaryOp(op codegen.BinaryOp, lhs, rhs effectir.ValueID, t effectir.Type) effectir.ValueID {
	compareOps := map[codegen.BinaryOp]bool{
		codegen.BinLess: true, codegen.BinGreater: true, codegen.BinLessEqual: true,
		codegen.BinGreaterEqual: true, codegen.BinEqual: true, codegen.BinNotEqual: true,
	}
	operandType := t
	if compareOps[op] {
		operandType = b.valueTypes[uint32(lhs)]
	}
	opcode := binaryOpcode(op, operandType)
	resultTy := b.typeID(t)
	id := b.emit(opcode, resultTy, uint32(lhs), uint32(rhs))
	b.valueTypes[id] = t
	return effectir.ValueID(id)
}

// EmitTernaryOp emits OpSelect.
func (b *Backend) EmitTernaryOp(cond, whenTrue, whenFalse effectir.ValueID, t effectir.Type) effectir.ValueID {
	id := b.mb.AddSelect(b.typeID(t), uint32(cond), uint32(whenTrue), uint32(whenFalse))
	b.valueTypes[id] = t
	return effectir.ValueID(id)
}

// EmitPhi emits OpPhi with one (value, parent block) operand pair per
// incoming edge, pairing values[i] with preds[i]; a value with no
// matching entry in preds is emitted without a parent block operand.
func (b *Backend) EmitPhi(t effectir.Type, values []effectir.ValueID, preds []effectir.BlockHandle) effectir.ValueID {
	resultTy := b.typeID(t)
	ops := make([]uint32, 0, len(values)*2)
	for i, v := range values {
		ops = append(ops, uint32(v))
		if i < len(preds) {
			ops = append(ops, b.blockID(preds[i]))
		}
	}
	id := b.emit(OpPhi, resultTy, ops...)
	b.valueTypes[id] = t
	return effectir.ValueID(id)
}

// EmitCall emits OpFunctionCall.
func (b *Backend) EmitCall(fn effectir.FunctionHandle, args []effectir.ValueID) effectir.ValueID {
	idx := int(fn)
	if idx < 0 || idx >= len(b.functions) {
		b.log.Errorf(effectir.ErrBackend, "call to unknown function handle %d", fn)
		return 0
	}
	st := b.functions[idx]
	words := make([]uint32, 0, len(args)+1)
	words = append(words, st.funcID)
	for _, a := range args {
		words = append(words, uint32(a))
	}
	id := b.emit(OpFunctionCall, b.typeID(st.desc.Return), words...)
	b.valueTypes[id] = st.desc.Return
	return effectir.ValueID(id)
}

// intrinsicGLSL maps an IntrinsicID to its GLSL.std.450 instruction
// number, for the common case of a direct 1:1 mapping.
var intrinsicGLSL = map[codegen.IntrinsicID]uint32{
	codegen.IntrinsicAbs:         GLSLstd450FAbs,
	codegen.IntrinsicClamp:       GLSLstd450FClamp,
	codegen.IntrinsicMin:         GLSLstd450FMin,
	codegen.IntrinsicMax:         GLSLstd450FMax,
	codegen.IntrinsicCross:       GLSLstd450Cross,
	codegen.IntrinsicNormalize:   GLSLstd450Normalize,
	codegen.IntrinsicLength:      GLSLstd450Length,
	codegen.IntrinsicDistance:    GLSLstd450Distance,
	codegen.IntrinsicReflect:     GLSLstd450Reflect,
	codegen.IntrinsicRefract:     GLSLstd450Refract,
	codegen.IntrinsicPow:         GLSLstd450Pow,
	codegen.IntrinsicExp:         GLSLstd450Exp,
	codegen.IntrinsicExp2:        GLSLstd450Exp2,
	codegen.IntrinsicLog:         GLSLstd450Log,
	codegen.IntrinsicLog2:        GLSLstd450Log2,
	codegen.IntrinsicSqrt:        GLSLstd450Sqrt,
	codegen.IntrinsicRsqrt:       GLSLstd450InverseSqrt,
	codegen.IntrinsicSin:         GLSLstd450Sin,
	codegen.IntrinsicCos:         GLSLstd450Cos,
	codegen.IntrinsicTan:         GLSLstd450Tan,
	codegen.IntrinsicFloor:       GLSLstd450Floor,
	codegen.IntrinsicCeil:        GLSLstd450Ceil,
	codegen.IntrinsicFrac:        GLSLstd450Fract,
	codegen.IntrinsicRound:       GLSLstd450Round,
	codegen.IntrinsicTrunc:       GLSLstd450Trunc,
	codegen.IntrinsicSign:        GLSLstd450FSign,
	codegen.IntrinsicStep:        GLSLstd450Step,
	codegen.IntrinsicSmoothstep:  GLSLstd450SmoothStep,
	codegen.IntrinsicSaturate:    GLSLstd450FClamp,
}

// extInstImportName is the name the GLSL.std.450 import is registered
// under; EmitCallIntrinsic lazily imports it on first use.
const extInstImportName = "GLSL.std.450"

func (b *Backend) extInstSet() uint32 {
	if b.extSetID == 0 {
		b.extSetID = b.mb.AddExtInstImport(extInstImportName)
	}
	return b.extSetID
}

// EmitCallIntrinsic dispatches a shared intrinsic id to a direct SPIR-V
// opcode (OpDot for dot) or a GLSL.std.450 extended instruction (FMix
// for lerp, intrinsicGLSL for the rest). An id with neither mapping
// (mul and the texture-sample intrinsics among them) is logged as a
// backend error and yields id 0.
func (b *Backend) EmitCallIntrinsic(id codegen.IntrinsicID, args []effectir.ValueID, t effectir.Type) effectir.ValueID {
	resultTy := b.typeID(t)
	switch id {
	case codegen.IntrinsicDot:
		rid := b.emit(OpDot, resultTy, uint32(args[0]), uint32(args[1]))
		b.valueTypes[rid] = t
		return effectir.ValueID(rid)
	case codegen.IntrinsicLerp:
		ext := b.extInstSet()
		words := []uint32{ext, GLSLstd450FMix, uint32(args[0]), uint32(args[1]), uint32(args[2])}
		rid := b.emit(OpExtInst, resultTy, words...)
		b.valueTypes[rid] = t
		return effectir.ValueID(rid)
	default:
		extOp, ok := intrinsicGLSL[id]
		if !ok {
			b.log.Errorf(effectir.ErrBackend, "intrinsic id %d has no SPIR-V mapping", id)
			return 0
		}
		words := []uint32{b.extInstSet(), extOp}
		for _, a := range args {
			words = append(words, uint32(a))
		}
		rid := b.emit(OpExtInst, resultTy, words...)
		b.valueTypes[rid] = t
		return effectir.ValueID(rid)
	}
}

// EmitConstruct emits OpCompositeConstruct.
func (b *Backend) EmitConstruct(t effectir.Type, components []effectir.ValueID) effectir.ValueID {
	words := make([]uint32, len(components))
	for i, c := range components {
		words[i] = uint32(c)
	}
	id := b.emit(OpCompositeConstruct, b.typeID(t), words...)
	b.valueTypes[id] = t
	return effectir.ValueID(id)
}

// --- access chain load/store ----------------------------------------------

// resolveChainPointer folds chain's leading OpIndex run into a single
// OpAccessChain and returns the resulting pointer id, or
// (id, false) when the base is already a plain rvalue with no pointer
// to chase.
func (b *Backend) resolveChainPointer(chain effectir.Expression) (ptr uint32, isPointer bool) {
	n := chain.LeadingIndexRun()
	base := uint32(chain.Base)
	if n == 0 {
		if chain.IsLValue {
			return base, true
		}
		return base, false
	}
	storage := b.valueStorage[base]
	indices := make([]uint32, n)
	var lastTargetTy effectir.Type
	for i := 0; i < n; i++ {
		indices[i] = uint32(chain.Ops[i].IndexValue)
		lastTargetTy = chain.Ops[i].IndexTarget
	}
	ptrTy := b.pointerType(b.typeID(lastTargetTy), storage)
	id := b.mb.AddAccessChain(ptrTy, base, indices...)
	b.valueStorage[id] = storage
	return id, true
}

// applyTrailingOps applies chain.Ops[from:] (casts and swizzles, the
// portion after any leading index run) to a loaded rvalue.
func (b *Backend) applyTrailingOps(chain effectir.Expression, from int, value uint32) uint32 {
	cur := value
	for i := from; i < len(chain.Ops); i++ {
		op := chain.Ops[i]
		switch op.Kind {
		case effectir.OpCast:
			cur = b.emitConversion(op.CastFrom, op.CastTo, cur)
		case effectir.OpSwizzle:
			n := op.SwizzleLen()
			components := make([]uint32, n)
			for j := 0; j < n; j++ {
				components[j] = uint32(op.SwizzleComponents[j])
			}
			resultTy := b.typeID(chain.Type)
			if n == 1 {
				cur = b.emit(OpCompositeExtract, resultTy, cur, components[0])
			} else {
				cur = b.mb.AddVectorShuffle(resultTy, cur, cur, components)
			}
		}
	}
	return cur
}

// emitConversion lowers a cast access-op to the opcode matching the
// from/to base tag pair.
func (b *Backend) emitConversion(from, to effectir.Type, value uint32) uint32 {
	resultTy := b.typeID(to)
	switch {
	case from.Base == effectir.BaseFloat && to.Base == effectir.BaseInt:
		return b.emit(OpConvertFToS, resultTy, value)
	case from.Base == effectir.BaseFloat && to.Base == effectir.BaseUint:
		return b.emit(OpConvertFToU, resultTy, value)
	case from.Base == effectir.BaseInt && to.Base == effectir.BaseFloat:
		return b.emit(OpConvertSToF, resultTy, value)
	case from.Base == effectir.BaseUint && to.Base == effectir.BaseFloat:
		return b.emit(OpConvertUToF, resultTy, value)
	case from.Base == effectir.BaseInt && to.Base == effectir.BaseUint,
		from.Base == effectir.BaseUint && to.Base == effectir.BaseInt:
		return b.emit(OpBitcast, resultTy, value)
	default:
		return value
	}
}

// stringID interns an OpString for path, building it only on first use.
func (b *Backend) stringID(path string) uint32 {
	if id, ok := b.debugStringIDs[path]; ok {
		return id
	}
	id := b.mb.AddString(path)
	b.debugStringIDs[path] = id
	return id
}

// emitLine emits OpLine ahead of the instructions that follow in the
// current block, when loc carries a source path and opts.Debug is set
// (spec §4.2 "Debug": "Each location with a non-empty source path emits
// an OpString ... and a preceding OpLine").
func (b *Backend) emitLine(loc effectir.SourceLocation) {
	if !b.opts.Debug || loc.Empty() {
		return
	}
	ib := NewInstructionBuilder()
	ib.AddWord(b.stringID(loc.Path))
	ib.AddWord(loc.Line)
	ib.AddWord(loc.Column)
	b.append(ib.Build(OpLine))
}

// EmitLoad resolves chain to a pointer (if any), issues OpLoad, and
// applies any trailing cast/swizzle ops.
func (b *Backend) EmitLoad(chain effectir.Expression) effectir.ValueID {
	b.emitLine(chain.Location)
	n := chain.LeadingIndexRun()
	ptr, isPointer := b.resolveChainPointer(chain)
	var value uint32
	if isPointer {
		loadTy := chain.Type
		if n < len(chain.Ops) {
			// The pointee type is whatever the index run produced;
			// trailing ops refine it further after the load.
			loadTy = chain.Ops[n-1].IndexTarget
			if n == 0 {
				loadTy = chain.Type
			}
		}
		value = b.emit(OpLoad, b.typeID(loadTy), ptr)
	} else {
		value = ptr
	}
	value = b.applyTrailingOps(chain, n, value)
	b.valueTypes[value] = chain.Type
	return effectir.ValueID(value)
}

// EmitStore resolves chain to a pointer and issues OpStore. A chain
// with trailing swizzle ops (a partial-component write) first loads
// the destination, shuffles the new value in, then stores the merged
// vector back — SPIR-V has no direct masked-store instruction.
func (b *Backend) EmitStore(chain effectir.Expression, value effectir.ValueID, valueType effectir.Type) {
	b.emitLine(chain.Location)
	n := chain.LeadingIndexRun()
	ptr, isPointer := b.resolveChainPointer(chain)
	if !isPointer {
		b.log.Errorf(effectir.ErrBackend, "store target is not an lvalue")
		return
	}
	if n == len(chain.Ops) {
		b.mb.AddStore(ptr, uint32(value))
		return
	}
	// Trailing swizzle: merge into the existing vector.
	destTy := chain.Ops[n-1].IndexTarget
	existing := b.emit(OpLoad, b.typeID(destTy), ptr)
	op := chain.Ops[len(chain.Ops)-1]
	width := destTy.ComponentCount()
	components := make([]uint32, width)
	for i := 0; i < width; i++ {
		components[i] = uint32(i)
	}
	for i := 0; i < op.SwizzleLen(); i++ {
		components[op.SwizzleComponents[i]] = uint32(width) + uint32(i)
	}
	merged := b.mb.AddVectorShuffle(b.typeID(destTy), existing, uint32(value), components)
	b.mb.AddStore(ptr, merged)
}

// --- serialization ----------------------------------------------------------

// WriteResult finalizes the $Globals block and entry points and
// serializes the module to its SPIR-V binary word stream.
func (b *Backend) WriteResult() (any, error) {
	if b.log.Failed {
		return nil, fmt.Errorf("spirv: %s", b.log.String())
	}
	b.finalizeGlobals()

	b.mb.AddCapability(CapabilityShader)
	for _, cap := range b.opts.Capabilities {
		b.mb.AddCapability(cap)
	}
	b.mb.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)
	for _, ep := range b.entryPoints {
		b.mb.AddEntryPoint(ep.model, ep.funcID, ep.name, ep.interfaces)
		if ep.model == ExecutionModelFragment {
			b.mb.AddExecutionMode(ep.funcID, ExecutionModeOriginUpperLeft)
		}
	}

	return b.mb.Build(), nil
}
