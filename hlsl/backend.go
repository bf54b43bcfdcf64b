// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prismfx/effectc/codegen"
	"github.com/prismfx/effectc/effectir"
)

// resourceBinding is one declared texture or sampler and its assigned
// register slot.
type resourceBinding struct {
	name    string
	binding uint32
}

// uniformMember is one member of the module's single cbuffer, named and
// laid out the way the SPIR-V backend lays out its $Globals block.
type uniformMember struct {
	desc effectir.UniformDescriptor
}

// structInfo is a declared struct's HLSL name and member shape.
type structInfo struct {
	name    string
	members []effectir.StructMember
}

// valueInfo is what an effectir.ValueID resolves to in generated HLSL
// text: an identifier, or a fuller expression inlined wherever the id
// is referenced.
type valueInfo struct {
	expr string
	typ  effectir.Type
}

// blockInfo is one basic block's accumulated statement lines. Lines are
// kept separately (rather than joined into one string.Builder) so a
// later EmitPhi call can splice an assignment in before an
// already-recorded terminator.
type blockInfo struct {
	handle effectir.BlockHandle
	label  string
	lines  []string

	terminated bool
	// pendingAttr holds a [flatten]/[unroll]-style attribute queued by
	// EmitIf/EmitLoop/EmitSwitch for the branch statement that
	// terminates this block.
	pendingAttr string
}

// funcInfo tracks one function's signature and body while it is being
// built and after.
type funcInfo struct {
	desc     effectir.FunctionDescriptor
	name     string
	paramIDs []effectir.ValueID
	locals   []string // "Type name;" declarations hoisted above block 0
	blocks   []*blockInfo
	byHandle map[effectir.BlockHandle]*blockInfo
	cur      *blockInfo
}

// Backend implements codegen.Generator, lowering the same imperative
// call sequence spirv.Backend consumes into HLSL source text instead of
// a SPIR-V binary.
type Backend struct {
	opts  Options
	namer *namer
	log   effectir.ErrorLog

	nextValue  int32
	values     map[effectir.ValueID]valueInfo
	constLanes map[effectir.ValueID]uint32

	structs []structInfo

	textures []resourceBinding
	samplers []resourceBinding

	uniforms   []uniformMember
	uniformCur uint32
	globalsID  effectir.ValueID
	globalsUsed bool

	funcs []*funcInfo
	curFn *funcInfo

	entryPoints []effectir.FunctionHandle
	techniques  []effectir.Technique
}

// NewBackend creates an HLSL backend ready to receive define_*/emit_*
// calls.
func NewBackend(opts Options) *Backend {
	return &Backend{
		opts:       opts,
		namer:      newNamer(),
		values:     make(map[effectir.ValueID]valueInfo),
		constLanes: make(map[effectir.ValueID]uint32),
	}
}

var _ codegen.Generator = (*Backend)(nil)

func (b *Backend) allocValue() effectir.ValueID {
	b.nextValue++
	return effectir.ValueID(b.nextValue)
}

// Log returns the accumulating diagnostic log.
func (b *Backend) Log() *effectir.ErrorLog { return &b.log }

// --- resource and function declaration ------------------------------------

// DefineStruct registers a struct shape and assigns it a unique HLSL
// name.
func (b *Backend) DefineStruct(s effectir.StructDescriptor) effectir.StructHandle {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("_struct%d", len(b.structs))
	}
	name = b.namer.call(name)
	b.structs = append(b.structs, structInfo{name: name, members: s.Members})
	return effectir.StructHandle(len(b.structs) - 1)
}

// DefineTexture declares a Texture2D resource, binding it to the next
// free t-register.
func (b *Backend) DefineTexture(t effectir.TextureDescriptor) effectir.TextureHandle {
	id := b.allocValue()
	name := t.Name
	if name == "" {
		name = fmt.Sprintf("_tex%d", len(b.textures))
	}
	name = b.namer.call(name)
	binding := uint32(len(b.textures))
	b.textures = append(b.textures, resourceBinding{name: name, binding: binding})
	b.values[id] = valueInfo{expr: name, typ: effectir.Type{Base: effectir.BaseTexture}}
	return effectir.TextureHandle(id)
}

// DefineSampler declares a SamplerState resource, binding it to the
// next free s-register.
func (b *Backend) DefineSampler(s effectir.SamplerDescriptor) effectir.SamplerHandle {
	id := b.allocValue()
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("_samp%d", len(b.samplers))
	}
	name = b.namer.call(name)
	binding := uint32(len(b.samplers))
	b.samplers = append(b.samplers, resourceBinding{name: name, binding: binding})
	b.values[id] = valueInfo{expr: name, typ: effectir.Type{Base: effectir.BaseSampler}}
	return effectir.SamplerHandle(id)
}

// hlslLayout advances cursor past one member of type t and returns its
// (offset, size). HLSL constant-buffer packing follows the same
// 16-byte-vector rule as SPIR-V's std140: a member never straddles a
// 16-byte boundary, so vec3/vec4, arrays, and matrices always start a
// new one.
func hlslLayout(t effectir.Type, cursor *uint32) (offset, size uint32) {
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

// DefineUniform appends u to the module's single $Globals cbuffer,
// assigning it an offset, and returns the cbuffer's id and the member's
// index within it.
func (b *Backend) DefineUniform(u effectir.UniformDescriptor) (effectir.ValueID, int) {
	if !b.globalsUsed {
		b.globalsID = b.allocValue()
		b.globalsUsed = true
	}
	offset, size := hlslLayout(u.Type, &b.uniformCur)
	u.Offset = offset
	u.Size = size
	if u.Name == "" {
		u.Name = fmt.Sprintf("_uniform%d", len(b.uniforms))
	}
	u.Name = b.namer.call(u.Name)
	b.uniforms = append(b.uniforms, uniformMember{desc: u})
	return b.globalsID, len(b.uniforms) - 1
}

// DefineVariable declares a function-local variable, hoisted above the
// function's first block the way C requires.
func (b *Backend) DefineVariable(name string, t effectir.Type) effectir.ValueID {
	if b.curFn == nil {
		b.log.Errorf(effectir.ErrBackend, "define_variable %q outside a function body", name)
		return 0
	}
	if name == "" {
		name = "_var"
	}
	ename := b.namer.call(name)
	b.curFn.locals = append(b.curFn.locals, fmt.Sprintf("%s %s;", b.typeName(t), ename))
	id := b.allocValue()
	b.values[id] = valueInfo{expr: ename, typ: t}
	return id
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
			return b.curFn.paramIDs[i]
		}
	}
	b.log.Errorf(effectir.ErrBackend, "parameter %q not declared on function %q", name, b.curFn.desc.Name)
	return 0
}

// DefineFunction forward-declares f's signature and reserves a name for
// it; EnterFunction/LeaveFunction later fill the body in.
func (b *Backend) DefineFunction(f effectir.FunctionDescriptor) effectir.FunctionHandle {
	name := f.Name
	if name == "" {
		name = fmt.Sprintf("_fn%d", len(b.funcs))
	}
	name = b.namer.call(name)
	b.funcs = append(b.funcs, &funcInfo{desc: f, name: name, byHandle: make(map[effectir.BlockHandle]*blockInfo)})
	return effectir.FunctionHandle(len(b.funcs) - 1)
}

// DefineTechnique records a technique for later reference by the D3D11
// effect linker; HLSL source text itself carries no technique/pass
// structure.
func (b *Backend) DefineTechnique(t effectir.Technique) int {
	b.techniques = append(b.techniques, t)
	return len(b.techniques) - 1
}

// CreateEntryPoint is a no-op for HLSL: the function's own parameter
// and return semantics, already attached via DefineParameter and
// FunctionDescriptor.ReturnSemantic, are all an HLSL entry point needs.
func (b *Backend) CreateEntryPoint(fn effectir.FunctionHandle, isPixelStage bool) effectir.FunctionHandle {
	b.entryPoints = append(b.entryPoints, fn)
	return fn
}

// --- function body construction -------------------------------------------

// EnterFunction begins body construction for fn, allocating an id for
// each declared parameter up front so DefineParameter and later
// expression emission can both reference them.
func (b *Backend) EnterFunction(fn effectir.FunctionHandle) {
	idx := int(fn)
	if idx < 0 || idx >= len(b.funcs) {
		b.log.Errorf(effectir.ErrBackend, "enter_function on unknown function handle %d", fn)
		return
	}
	fi := b.funcs[idx]
	fi.paramIDs = make([]effectir.ValueID, len(fi.desc.Params))
	for i, p := range fi.desc.Params {
		id := b.allocValue()
		fi.paramIDs[i] = id
		b.values[id] = valueInfo{expr: b.namer.call(p.Name), typ: p.Type}
	}
	b.curFn = fi
}

// LeaveFunction closes the function body. HLSL text needs no reordering
// at this point: unlike SPIR-V's word stream, statements are already in
// their final textual position as they were written.
func (b *Backend) LeaveFunction() {
	b.curFn = nil
}

func (b *Backend) labelFor(h effectir.BlockHandle) string {
	return fmt.Sprintf("block_%d", int32(h))
}

// EnterBlock allocates a new block and makes it current.
func (b *Backend) EnterBlock() effectir.BlockHandle {
	if b.curFn == nil {
		b.log.Errorf(effectir.ErrBackend, "enter_block outside a function body")
		return 0
	}
	h := effectir.BlockHandle(b.allocValue())
	blk := &blockInfo{handle: h, label: b.labelFor(h)}
	b.curFn.blocks = append(b.curFn.blocks, blk)
	b.curFn.byHandle[h] = blk
	b.curFn.cur = blk
	return h
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
	blk := &blockInfo{handle: h, label: b.labelFor(h)}
	b.curFn.blocks = append(b.curFn.blocks, blk)
	b.curFn.byHandle[h] = blk
	b.curFn.cur = blk
}

func (b *Backend) writeStmt(line string) {
	if b.curFn == nil || b.curFn.cur == nil {
		b.log.Errorf(effectir.ErrBackend, "statement emitted with no current block")
		return
	}
	b.curFn.cur.lines = append(b.curFn.cur.lines, line)
}

func (b *Backend) terminate(line string) {
	b.writeStmt(line)
	if b.curFn != nil && b.curFn.cur != nil {
		b.curFn.cur.terminated = true
	}
}

// insertBeforeTerminator splices line into block h just before its
// recorded terminator (or appends it, if the block has none yet). Used
// by EmitPhi to assign the phi's temp in a predecessor block that was
// already closed out by the time the merge block calls EmitPhi.
func (b *Backend) insertBeforeTerminator(h effectir.BlockHandle, line string) {
	if b.curFn == nil {
		return
	}
	blk, ok := b.curFn.byHandle[h]
	if !ok {
		blk = &blockInfo{handle: h, label: b.labelFor(h)}
		b.curFn.blocks = append(b.curFn.blocks, blk)
		b.curFn.byHandle[h] = blk
	}
	if blk.terminated && len(blk.lines) > 0 {
		idx := len(blk.lines) - 1
		blk.lines = append(blk.lines[:idx], append([]string{line}, blk.lines[idx:]...)...)
		return
	}
	blk.lines = append(blk.lines, line)
}

// LeaveBlockAndBranch terminates the current block with an unconditional
// goto.
func (b *Backend) LeaveBlockAndBranch(target effectir.BlockHandle) {
	b.consumeAttr()
	b.terminate(fmt.Sprintf("goto %s;", b.labelFor(target)))
}

// LeaveBlockAndBranchConditional terminates the current block with an
// if/else pair of gotos, carrying any [flatten]/[branch] attribute
// queued by a preceding EmitIf.
func (b *Backend) LeaveBlockAndBranchConditional(cond effectir.ValueID, trueTarget, falseTarget effectir.BlockHandle) {
	attr := b.consumeAttr()
	line := fmt.Sprintf("if (%s) { goto %s; } else { goto %s; }",
		b.valueExprText(cond), b.labelFor(trueTarget), b.labelFor(falseTarget))
	if attr != "" {
		line = attr + " " + line
	}
	b.terminate(line)
}

// LeaveBlockAndSwitch terminates the current block with a switch whose
// every case is a goto to the case's target block.
func (b *Backend) LeaveBlockAndSwitch(selector effectir.ValueID, def effectir.BlockHandle, cases map[int32]effectir.BlockHandle) {
	attr := b.consumeAttr()
	keys := make([]int32, 0, len(cases))
	for k := range cases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var sb strings.Builder
	if attr != "" {
		sb.WriteString(attr)
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "switch (%s) {", b.valueExprText(selector))
	for _, k := range keys {
		fmt.Fprintf(&sb, " case %d: goto %s;", k, b.labelFor(cases[k]))
	}
	fmt.Fprintf(&sb, " default: goto %s; }", b.labelFor(def))
	b.terminate(sb.String())
}

// LeaveBlockAndReturn terminates the current block with return or
// return <value>.
func (b *Backend) LeaveBlockAndReturn(value *effectir.ValueID) {
	if value == nil {
		b.terminate("return;")
		return
	}
	b.terminate(fmt.Sprintf("return %s;", b.valueExprText(*value)))
}

// LeaveBlockAndKill terminates the current block with discard (pixel
// shader kill).
func (b *Backend) LeaveBlockAndKill() {
	b.terminate("discard;")
}

func controlAttr(f codegen.ControlFlag) string {
	switch f {
	case codegen.ControlFlatten:
		return "[flatten]"
	case codegen.ControlDontFlatten:
		return "[branch]"
	case codegen.ControlUnroll:
		return "[unroll]"
	case codegen.ControlDontUnroll:
		return "[loop]"
	default:
		return ""
	}
}

func (b *Backend) consumeAttr() string {
	if b.curFn == nil || b.curFn.cur == nil {
		return ""
	}
	a := b.curFn.cur.pendingAttr
	b.curFn.cur.pendingAttr = ""
	return a
}

// EmitIf queues an attribute for the conditional branch that closes the
// current block.
func (b *Backend) EmitIf(merge effectir.BlockHandle, flags codegen.ControlFlag) {
	b.queueAttr(flags)
}

// EmitLoop queues an attribute for the branch that closes the current
// (header) block.
func (b *Backend) EmitLoop(merge, continueBlock effectir.BlockHandle, flags codegen.ControlFlag) {
	b.queueAttr(flags)
}

// EmitSwitch queues an attribute for the switch that closes the current
// block.
func (b *Backend) EmitSwitch(merge effectir.BlockHandle, flags codegen.ControlFlag) {
	b.queueAttr(flags)
}

func (b *Backend) queueAttr(flags codegen.ControlFlag) {
	if attr := controlAttr(flags); attr != "" && b.curFn != nil && b.curFn.cur != nil {
		b.curFn.cur.pendingAttr = attr
	}
}

// --- expression emission ---------------------------------------------------

func (b *Backend) valueExprText(id effectir.ValueID) string {
	if v, ok := b.values[id]; ok {
		return v.expr
	}
	return fmt.Sprintf("_v%d", id)
}

// emitNamedExpr declares a new local of type t initialized to expr and
// returns the id assigned to it, matching how naga-derived HLSL writers
// bind every SSA value to its own named temporary rather than nesting
// expressions arbitrarily deep.
func (b *Backend) emitNamedExpr(t effectir.Type, expr string) effectir.ValueID {
	id := b.allocValue()
	name := b.namer.call(fmt.Sprintf("_e%d", id))
	b.writeStmt(fmt.Sprintf("%s %s = %s;", b.typeName(t), name, expr))
	b.values[id] = valueInfo{expr: name, typ: t}
	return id
}

// EmitConstant renders c inline as an HLSL expression — a literal for
// scalars, a T(...) constructor call recursively built from its lanes
// for vectors and matrices, or a brace-init {...} list of its elements
// for arrays; literals need no named temporary.
func (b *Backend) EmitConstant(c effectir.Constant) effectir.ValueID {
	t := c.Type
	lit := b.constantExpr(c, t)
	id := b.allocValue()
	if t.IsScalar() {
		b.constLanes[id] = c.Lanes[0]
	}
	b.values[id] = valueInfo{expr: lit, typ: t}
	return id
}

// constantExpr renders c (already resolved to type t) as an HLSL
// expression. Arrays use brace-init lists; matrices and vectors use a
// T(...) constructor call whose arguments are each lane/element's own
// constantExpr; everything else is a scalar literal via formatConstant.
func (b *Backend) constantExpr(c effectir.Constant, t effectir.Type) string {
	switch {
	case t.IsArray():
		elemType := t
		elemType.ArrayLen = 0
		parts := make([]string, len(c.Elements))
		for i, e := range c.Elements {
			e.Type = elemType
			parts[i] = b.constantExpr(e, elemType)
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case t.IsMatrix():
		colType := effectir.Type{Base: t.Base, Rows: t.Rows, Cols: 1}
		parts := make([]string, t.Cols)
		for col := range parts {
			var colConst effectir.Constant
			colConst.Type = colType
			copy(colConst.Lanes[:], c.Lanes[col*int(t.Rows):])
			parts[col] = b.constantExpr(colConst, colType)
		}
		return fmt.Sprintf("%s(%s)", b.typeName(t), strings.Join(parts, ", "))
	case t.IsVector():
		scalarType := effectir.Type{Base: t.Base, Rows: 1, Cols: 1}
		parts := make([]string, t.Rows)
		for i := range parts {
			parts[i] = formatConstant(effectir.Constant{Type: scalarType, Lanes: [16]uint32{c.Lanes[i]}}, scalarType)
		}
		return fmt.Sprintf("%s(%s)", b.typeName(t), strings.Join(parts, ", "))
	default:
		return formatConstant(c, t)
	}
}

// EmitUnaryOp emits a prefix unary expression, or for the
// increment/decrement variants, a standalone ++/-- statement against
// operand's own storage.
func (b *Backend) EmitUnaryOp(op codegen.UnaryOp, operand effectir.ValueID, t effectir.Type) effectir.ValueID {
	operandExpr := b.valueExprText(operand)
	if token, ok := unaryPrefix(op); ok {
		return b.emitNamedExpr(t, token+operandExpr)
	}
	switch op {
	case codegen.UnaryPreIncrement:
		b.writeStmt(fmt.Sprintf("++%s;", operandExpr))
		return b.aliasValue(operand, t)
	case codegen.UnaryPreDecrement:
		b.writeStmt(fmt.Sprintf("--%s;", operandExpr))
		return b.aliasValue(operand, t)
	case codegen.UnaryPostIncrement:
		id := b.emitNamedExpr(t, operandExpr)
		b.writeStmt(fmt.Sprintf("++%s;", operandExpr))
		return id
	case codegen.UnaryPostDecrement:
		id := b.emitNamedExpr(t, operandExpr)
		b.writeStmt(fmt.Sprintf("--%s;", operandExpr))
		return id
	default:
		return b.emitNamedExpr(t, operandExpr)
	}
}

func (b *Backend) aliasValue(operand effectir.ValueID, t effectir.Type) effectir.ValueID {
	id := b.allocValue()
	b.values[id] = valueInfo{expr: b.valueExprText(operand), typ: t}
	return id
}

// EmitBinaryOp emits a parenthesized infix expression bound to a new
// named temporary.
func (b *Backend) EmitBinaryOp(op codegen.BinaryOp, lhs, rhs effectir.ValueID, t effectir.Type) effectir.ValueID {
	expr := fmt.Sprintf("(%s %s %s)", b.valueExprText(lhs), binaryToken(op), b.valueExprText(rhs))
	return b.emitNamedExpr(t, expr)
}

// EmitTernaryOp emits HLSL's ?: conditional expression.
func (b *Backend) EmitTernaryOp(cond, whenTrue, whenFalse effectir.ValueID, t effectir.Type) effectir.ValueID {
	expr := fmt.Sprintf("(%s ? %s : %s)", b.valueExprText(cond), b.valueExprText(whenTrue), b.valueExprText(whenFalse))
	return b.emitNamedExpr(t, expr)
}

// EmitPhi lowers an SSA phi to a pre-declared mutable local, assigned
// conditionally in each incoming block: the local is hoisted to the
// function's declarations, and one assignment statement is spliced into
// each predecessor block just before its terminating branch.
func (b *Backend) EmitPhi(t effectir.Type, values []effectir.ValueID, preds []effectir.BlockHandle) effectir.ValueID {
	id := b.allocValue()
	name := b.namer.call(fmt.Sprintf("%s%d", PhiTempPrefix, id))
	if b.curFn != nil {
		b.curFn.locals = append(b.curFn.locals, fmt.Sprintf("%s %s;", b.typeName(t), name))
	}
	for i, v := range values {
		if i >= len(preds) {
			break
		}
		b.insertBeforeTerminator(preds[i], fmt.Sprintf("%s = %s;", name, b.valueExprText(v)))
	}
	b.values[id] = valueInfo{expr: name, typ: t}
	return id
}

// EmitCall emits a call to a previously defined function.
func (b *Backend) EmitCall(fn effectir.FunctionHandle, args []effectir.ValueID) effectir.ValueID {
	idx := int(fn)
	if idx < 0 || idx >= len(b.funcs) {
		b.log.Errorf(effectir.ErrBackend, "emit_call to unknown function handle %d", fn)
		return 0
	}
	target := b.funcs[idx]
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = b.valueExprText(a)
	}
	expr := fmt.Sprintf("%s(%s)", target.name, strings.Join(parts, ", "))
	return b.emitNamedExpr(target.desc.Return, expr)
}

// EmitCallIntrinsic dispatches a shared intrinsic id to its HLSL
// spelling: mul() and the texture-sample intrinsics have
// argument-shape-specific call syntax and are handled directly; every
// other intrinsic is an ordinary one-to-one function call from
// intrinsicNames.
func (b *Backend) EmitCallIntrinsic(id codegen.IntrinsicID, args []effectir.ValueID, t effectir.Type) effectir.ValueID {
	switch id {
	case codegen.IntrinsicMul:
		if len(args) < 2 {
			b.log.Errorf(effectir.ErrBackend, "mul needs two operands")
			return b.emitNamedExpr(t, "0")
		}
		return b.emitNamedExpr(t, fmt.Sprintf("mul(%s, %s)", b.valueExprText(args[0]), b.valueExprText(args[1])))
	case codegen.IntrinsicSampleTexture:
		if len(args) < 3 {
			b.log.Errorf(effectir.ErrBackend, "sample_texture needs texture, sampler, and coordinate operands")
			return b.emitNamedExpr(t, "0")
		}
		expr := fmt.Sprintf("%s.Sample(%s, %s)", b.valueExprText(args[0]), b.valueExprText(args[1]), b.valueExprText(args[2]))
		return b.emitNamedExpr(t, expr)
	case codegen.IntrinsicSampleTextureLevel:
		if len(args) < 4 {
			b.log.Errorf(effectir.ErrBackend, "sample_texture_level needs texture, sampler, coordinate, and lod operands")
			return b.emitNamedExpr(t, "0")
		}
		expr := fmt.Sprintf("%s.SampleLevel(%s, %s, %s)",
			b.valueExprText(args[0]), b.valueExprText(args[1]), b.valueExprText(args[2]), b.valueExprText(args[3]))
		return b.emitNamedExpr(t, expr)
	default:
		name, ok := intrinsicNames[id]
		if !ok {
			b.log.Errorf(effectir.ErrBackend, "intrinsic id %d has no HLSL mapping", id)
			return b.emitNamedExpr(t, "0")
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = b.valueExprText(a)
		}
		return b.emitNamedExpr(t, fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", ")))
	}
}

// EmitConstruct emits a type constructor call, e.g. float4(a, b, c, d).
func (b *Backend) EmitConstruct(t effectir.Type, components []effectir.ValueID) effectir.ValueID {
	parts := make([]string, len(components))
	for i, c := range components {
		parts[i] = b.valueExprText(c)
	}
	return b.emitNamedExpr(t, fmt.Sprintf("%s(%s)", b.typeName(t), strings.Join(parts, ", ")))
}

// --- access chain load/store ----------------------------------------------

func swizzleSuffix(op effectir.AccessOp) string {
	const letters = "xyzw"
	n := op.SwizzleLen()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		c := op.SwizzleComponents[i]
		if c >= 0 && int(c) < len(letters) {
			sb.WriteByte(letters[c])
		}
	}
	return sb.String()
}

// resolveConstIndex returns the literal value of a constant previously
// returned by EmitConstant, or -1 if id doesn't name one. Used to turn a
// $Globals member-select index back into the member's declared name.
func (b *Backend) resolveConstIndex(id effectir.ValueID) int {
	if v, ok := b.constLanes[id]; ok {
		return int(v)
	}
	return -1
}

// chainExpr renders chain as an HLSL lvalue/rvalue expression: cbuffer
// member selects resolve to the member's name directly (HLSL accesses
// cbuffer members as plain globals, with no block-qualifying prefix),
// other indexing becomes a subscript, casts an explicit conversion, and
// swizzles a .component suffix.
func (b *Backend) chainExpr(chain effectir.Expression) string {
	text := b.valueExprText(chain.Base)
	for _, op := range chain.Ops {
		switch op.Kind {
		case effectir.OpIndex:
			if b.globalsUsed && chain.Base == b.globalsID {
				if idx := b.resolveConstIndex(op.IndexValue); idx >= 0 && idx < len(b.uniforms) {
					text = b.uniforms[idx].desc.Name
					continue
				}
			}
			text = fmt.Sprintf("%s[%s]", text, b.valueExprText(op.IndexValue))
		case effectir.OpSwizzle:
			text = fmt.Sprintf("%s.%s", text, swizzleSuffix(op))
		case effectir.OpCast:
			text = fmt.Sprintf("(%s)(%s)", b.typeName(op.CastTo), text)
		}
	}
	return text
}

// emitLineDirective writes a #line directive ahead of the next statement
// when loc carries a source path and Debug is enabled, matching the
// spirv backend's OpLine emission for the same effectir.Expression.Location
// field.
func (b *Backend) emitLineDirective(loc effectir.SourceLocation) {
	if !b.opts.Debug || loc.Empty() {
		return
	}
	b.writeStmt(fmt.Sprintf("#line %d %q", loc.Line, loc.Path))
}

// EmitLoad renders chain to an expression string and binds it to a new
// value id; no statement is needed since HLSL access expressions are
// side-effect free, beyond an optional #line directive.
func (b *Backend) EmitLoad(chain effectir.Expression) effectir.ValueID {
	b.emitLineDirective(chain.Location)
	id := b.allocValue()
	b.values[id] = valueInfo{expr: b.chainExpr(chain), typ: chain.Type}
	return id
}

// EmitStore renders chain as an assignment target and emits the
// assignment statement.
func (b *Backend) EmitStore(chain effectir.Expression, value effectir.ValueID, valueType effectir.Type) {
	b.emitLineDirective(chain.Location)
	b.writeStmt(fmt.Sprintf("%s = %s;", b.chainExpr(chain), b.valueExprText(value)))
}

// --- serialization ----------------------------------------------------------

func (b *Backend) structDecl(s structInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s\n{\n", s.name)
	for _, m := range s.members {
		sem := ""
		if m.Semantic != "" {
			sem = " : " + m.Semantic
		}
		fmt.Fprintf(&sb, "\t%s %s%s;\n", b.typeName(m.Type), m.Name, sem)
	}
	sb.WriteString("};\n")
	return sb.String()
}

func (b *Backend) globalsDecl() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cbuffer %s : register(b0)\n{\n", GlobalsCBufferEscape)
	for _, u := range b.uniforms {
		fmt.Fprintf(&sb, "\t%s %s;\n", b.typeName(u.desc.Type), u.desc.Name)
	}
	sb.WriteString("};\n")
	return sb.String()
}

func (b *Backend) functionSignature(fi *funcInfo) string {
	params := make([]string, len(fi.desc.Params))
	for i, p := range fi.desc.Params {
		pname := p.Name
		if i < len(fi.paramIDs) {
			pname = b.valueExprText(fi.paramIDs[i])
		}
		sem := ""
		if p.Semantic != "" {
			sem = " : " + p.Semantic
		}
		params[i] = fmt.Sprintf("%s %s%s", b.typeName(p.Type), pname, sem)
	}
	ret := ""
	if fi.desc.ReturnSemantic != "" {
		ret = " : " + fi.desc.ReturnSemantic
	}
	return fmt.Sprintf("%s %s(%s)%s", b.typeName(fi.desc.Return), fi.name, strings.Join(params, ", "), ret)
}

func (b *Backend) functionBody(fi *funcInfo) string {
	var sb strings.Builder
	sb.WriteString(b.functionSignature(fi))
	sb.WriteString("\n{\n")
	for _, l := range fi.locals {
		sb.WriteString("\t")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	multiBlock := len(fi.blocks) > 1
	for _, blk := range fi.blocks {
		if multiBlock {
			sb.WriteString(blk.label)
			sb.WriteString(":;\n")
		}
		for _, l := range blk.lines {
			sb.WriteString("\t")
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// WriteResult serializes every declared struct, the $Globals cbuffer,
// texture/sampler bindings, and function body into one HLSL source
// string.
func (b *Backend) WriteResult() (any, error) {
	if b.log.Failed {
		return nil, fmt.Errorf("hlsl: %s", b.log.String())
	}

	var sb strings.Builder
	for _, s := range b.structs {
		sb.WriteString(b.structDecl(s))
		sb.WriteString("\n")
	}
	if b.globalsUsed {
		sb.WriteString(b.globalsDecl())
		sb.WriteString("\n")
	}
	for i, t := range b.textures {
		fmt.Fprintf(&sb, "Texture2D %s : register(t%d);\n", t.name, i)
	}
	for i, s := range b.samplers {
		fmt.Fprintf(&sb, "SamplerState %s : register(s%d);\n", s.name, i)
	}
	if len(b.textures)+len(b.samplers) > 0 {
		sb.WriteString("\n")
	}
	for _, fi := range b.funcs {
		sb.WriteString(b.functionBody(fi))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
