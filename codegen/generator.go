package codegen

import "github.com/prismfx/effectc/effectir"

// UnaryOp enumerates the unary operators a frontend may request via
// emit_unary_op.
type UnaryOp uint8

// Unary operators.
const (
	UnaryNegate UnaryOp = iota
	UnaryNot
	UnaryBitNot
	UnaryPreIncrement
	UnaryPreDecrement
	UnaryPostIncrement
	UnaryPostDecrement
)

// BinaryOp enumerates the binary operators a frontend may request via
// emit_binary_op. The concrete opcode/token chosen for an operator
// depends on the operand type: float uses F-variants, signed int uses
// S-variants, unsigned uses U-variants, bool uses logical ops.
type BinaryOp uint8

// Binary operators.
const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinAnd // bitwise
	BinOr  // bitwise
	BinXor
	BinShl
	BinShr
	BinLogicalAnd
	BinLogicalOr
	BinLess
	BinGreater
	BinLessEqual
	BinGreaterEqual
	BinEqual
	BinNotEqual
)

// ControlFlag is a selection/loop optimization hint passed to
// EmitIf/EmitLoop/EmitSwitch.
type ControlFlag uint8

// Control flags.
const (
	ControlNone ControlFlag = iota
	ControlFlatten
	ControlDontFlatten
	ControlUnroll
	ControlDontUnroll
)

// IntrinsicID identifies a shared intrinsic function; each backend
// carries its own spelling table keyed by this id, since the generated
// spelling (an HLSL intrinsic call vs. a GLSL.std.450 ext-inst) differs
// per backend.
type IntrinsicID uint16

// Intrinsics shared by both backends.
const (
	IntrinsicAbs IntrinsicID = iota
	IntrinsicSaturate
	IntrinsicClamp
	IntrinsicLerp
	IntrinsicMin
	IntrinsicMax
	IntrinsicDot
	IntrinsicCross
	IntrinsicNormalize
	IntrinsicLength
	IntrinsicDistance
	IntrinsicReflect
	IntrinsicRefract
	IntrinsicPow
	IntrinsicExp
	IntrinsicExp2
	IntrinsicLog
	IntrinsicLog2
	IntrinsicSqrt
	IntrinsicRsqrt
	IntrinsicSin
	IntrinsicCos
	IntrinsicTan
	IntrinsicFloor
	IntrinsicCeil
	IntrinsicFrac
	IntrinsicRound
	IntrinsicTrunc
	IntrinsicSign
	IntrinsicStep
	IntrinsicSmoothstep
	IntrinsicDdx
	IntrinsicDdy
	IntrinsicFwidth
	IntrinsicMul
	IntrinsicSampleTexture
	IntrinsicSampleTextureLevel
)

// SemanticBuiltin names the HLSL system-value semantics the generator
// recognizes and lowers to SPIR-V BuiltIn decorations or HLSL
// semantics for entry-point parameters and return values.
type SemanticBuiltin uint8

// Recognized semantic builtins.
const (
	SemanticNone SemanticBuiltin = iota
	SemanticPosition                 // SV_POSITION
	SemanticPointSize                // SV_POINTSIZE
	SemanticDepth                    // SV_DEPTH
	SemanticVertexID                 // SV_VERTEXID / VERTEXID
)

// Generator is the backend-neutral lowering interface a frontend
// invokes while it walks its own AST. Both spirv.Backend and
// hlsl.Backend implement it.
type Generator interface {
	// Entity definition. Each returns an id the frontend uses to refer
	// to the entity in later calls.
	DefineStruct(s effectir.StructDescriptor) effectir.StructHandle
	DefineTexture(t effectir.TextureDescriptor) effectir.TextureHandle
	DefineSampler(s effectir.SamplerDescriptor) effectir.SamplerHandle
	// DefineUniform lays the value out inside the module's uniform
	// block and returns the block's id; the caller addresses the
	// member by index thereafter.
	DefineUniform(u effectir.UniformDescriptor) (block effectir.ValueID, memberIndex int)
	DefineVariable(name string, t effectir.Type) effectir.ValueID
	DefineParameter(name string, t effectir.Type, semantic string) effectir.ValueID
	DefineFunction(f effectir.FunctionDescriptor) effectir.FunctionHandle
	DefineTechnique(t effectir.Technique) int

	// CreateEntryPoint wraps a user function as a stage entry. For
	// SPIR-V this builds interface variables and a load/call/store
	// wrapper; for HLSL it is a no-op that returns func unchanged.
	CreateEntryPoint(fn effectir.FunctionHandle, isPixelStage bool) effectir.FunctionHandle

	// Expression emission.
	EmitConstant(c effectir.Constant) effectir.ValueID
	EmitUnaryOp(op UnaryOp, operand effectir.ValueID, t effectir.Type) effectir.ValueID
	EmitBinaryOp(op BinaryOp, lhs, rhs effectir.ValueID, t effectir.Type) effectir.ValueID
	EmitTernaryOp(cond, whenTrue, whenFalse effectir.ValueID, t effectir.Type) effectir.ValueID
	EmitPhi(t effectir.Type, values []effectir.ValueID, preds []effectir.BlockHandle) effectir.ValueID
	EmitCall(fn effectir.FunctionHandle, args []effectir.ValueID) effectir.ValueID
	EmitCallIntrinsic(id IntrinsicID, args []effectir.ValueID, t effectir.Type) effectir.ValueID
	EmitConstruct(t effectir.Type, components []effectir.ValueID) effectir.ValueID

	// Access-chain load/store.
	EmitLoad(chain effectir.Expression) effectir.ValueID
	EmitStore(chain effectir.Expression, value effectir.ValueID, valueType effectir.Type)

	// Block lifecycle.
	SetBlock(b effectir.BlockHandle)
	EnterBlock() effectir.BlockHandle
	LeaveBlockAndBranch(target effectir.BlockHandle)
	LeaveBlockAndBranchConditional(cond effectir.ValueID, trueTarget, falseTarget effectir.BlockHandle)
	LeaveBlockAndSwitch(selector effectir.ValueID, def effectir.BlockHandle, cases map[int32]effectir.BlockHandle)
	LeaveBlockAndReturn(value *effectir.ValueID)
	LeaveBlockAndKill()

	// Structure hints for structured control flow.
	EmitIf(merge effectir.BlockHandle, flags ControlFlag)
	EmitLoop(merge, continueBlock effectir.BlockHandle, flags ControlFlag)
	EmitSwitch(merge effectir.BlockHandle, flags ControlFlag)

	// Function scope.
	EnterFunction(f effectir.FunctionHandle)
	LeaveFunction()

	// WriteResult serializes the completed module. Kind/shape is
	// backend-specific: spirv.Backend returns a []byte word stream,
	// hlsl.Backend returns a string.
	WriteResult() (any, error)

	// Log returns the accumulating diagnostic log.
	Log() *effectir.ErrorLog
}
