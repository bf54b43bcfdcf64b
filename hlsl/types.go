// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"

	"github.com/prismfx/effectc/effectir"

	"github.com/prismfx/effectc/codegen"
)

// Options configures the HLSL backend. Shader Model 5.0 is the only
// target: it is what the D3D11 effect compiler's d3dcompiler DLL
// consumes, and the text emitted here never uses a SM6-only construct.
type Options struct {
	// EntryPointPrefix is not read by this backend: CreateEntryPoint
	// returns the user function unchanged and no wrapper functions are
	// synthesized, so no emitted name carries this prefix.
	EntryPointPrefix string

	// Debug emits a #line directive ahead of any load/store whose
	// effectir.Expression carries a non-empty source location.
	Debug bool
}

// DefaultOptions returns the zero-value Options, which is valid as-is.
func DefaultOptions() Options {
	return Options{}
}

// scalarName returns the HLSL spelling of a scalar base tag.
func scalarName(base effectir.BaseTag) string {
	switch base {
	case effectir.BaseBool:
		return "bool"
	case effectir.BaseInt:
		return "int"
	case effectir.BaseUint:
		return "uint"
	case effectir.BaseFloat:
		return "float"
	case effectir.BaseVoid:
		return "void"
	default:
		return "float"
	}
}

// typeName renders t as an HLSL type spelling: a scalar keyword, a
// vectorN/matrixRxC shorthand, or a struct name, with an optional
// trailing array suffix.
func (b *Backend) typeName(t effectir.Type) string {
	var base string
	switch {
	case t.Base == effectir.BaseStruct && t.HasStruct:
		base = b.structName(t.Struct)
	case t.Base == effectir.BaseTexture:
		base = "Texture2D"
	case t.Base == effectir.BaseSampler:
		base = "SamplerState"
	case t.IsMatrix():
		base = fmt.Sprintf("%s%dx%d", scalarName(t.Base), t.Rows, t.Cols)
	case t.IsVector():
		base = fmt.Sprintf("%s%d", scalarName(t.Base), t.Rows)
	default:
		base = scalarName(t.Base)
	}
	if t.IsArray() && t.ArrayLen > 0 {
		return fmt.Sprintf("%s[%d]", base, t.ArrayLen)
	}
	return base
}

// structName returns the name assigned to struct h, falling back to a
// synthesized name if it was declared anonymously.
func (b *Backend) structName(h effectir.StructHandle) string {
	idx := int(h)
	if idx < 0 || idx >= len(b.structs) {
		return fmt.Sprintf("_struct%d", idx)
	}
	return b.structs[idx].name
}

// binaryToken returns the infix HLSL operator token for op. HLSL, unlike
// SPIR-V, has one spelling per operator regardless of the operand's base
// tag: implicit scalar/vector promotion and overload resolution handle
// the rest.
func binaryToken(op codegen.BinaryOp) string {
	switch op {
	case codegen.BinAdd:
		return "+"
	case codegen.BinSub:
		return "-"
	case codegen.BinMul:
		return "*"
	case codegen.BinDiv:
		return "/"
	case codegen.BinMod:
		return "%"
	case codegen.BinAnd:
		return "&"
	case codegen.BinOr:
		return "|"
	case codegen.BinXor:
		return "^"
	case codegen.BinShl:
		return "<<"
	case codegen.BinShr:
		return ">>"
	case codegen.BinLogicalAnd:
		return "&&"
	case codegen.BinLogicalOr:
		return "||"
	case codegen.BinLess:
		return "<"
	case codegen.BinGreater:
		return ">"
	case codegen.BinLessEqual:
		return "<="
	case codegen.BinGreaterEqual:
		return ">="
	case codegen.BinEqual:
		return "=="
	case codegen.BinNotEqual:
		return "!="
	default:
		return "+"
	}
}

// unaryPrefix returns the HLSL prefix token for a pure unary operator,
// and ok=false for the increment/decrement variants, which need
// statement-level handling rather than a plain expression prefix.
func unaryPrefix(op codegen.UnaryOp) (token string, ok bool) {
	switch op {
	case codegen.UnaryNegate:
		return "-", true
	case codegen.UnaryNot:
		return "!", true
	case codegen.UnaryBitNot:
		return "~", true
	default:
		return "", false
	}
}

// intrinsicNames maps a shared intrinsic id to its HLSL spelling for
// the intrinsics that are ordinary one-to-one function calls. Mul and
// the texture-sample intrinsics need argument-shape-specific handling
// and are dispatched separately in EmitCallIntrinsic.
var intrinsicNames = map[codegen.IntrinsicID]string{
	codegen.IntrinsicAbs:         "abs",
	codegen.IntrinsicSaturate:    "saturate",
	codegen.IntrinsicClamp:       "clamp",
	codegen.IntrinsicLerp:        "lerp",
	codegen.IntrinsicMin:         "min",
	codegen.IntrinsicMax:         "max",
	codegen.IntrinsicDot:         "dot",
	codegen.IntrinsicCross:       "cross",
	codegen.IntrinsicNormalize:   "normalize",
	codegen.IntrinsicLength:      "length",
	codegen.IntrinsicDistance:    "distance",
	codegen.IntrinsicReflect:     "reflect",
	codegen.IntrinsicRefract:     "refract",
	codegen.IntrinsicPow:         "pow",
	codegen.IntrinsicExp:         "exp",
	codegen.IntrinsicExp2:        "exp2",
	codegen.IntrinsicLog:         "log",
	codegen.IntrinsicLog2:        "log2",
	codegen.IntrinsicSqrt:        "sqrt",
	codegen.IntrinsicRsqrt:       "rsqrt",
	codegen.IntrinsicSin:         "sin",
	codegen.IntrinsicCos:         "cos",
	codegen.IntrinsicTan:         "tan",
	codegen.IntrinsicFloor:       "floor",
	codegen.IntrinsicCeil:        "ceil",
	codegen.IntrinsicFrac:        "frac",
	codegen.IntrinsicRound:       "round",
	codegen.IntrinsicTrunc:       "trunc",
	codegen.IntrinsicSign:        "sign",
	codegen.IntrinsicStep:        "step",
	codegen.IntrinsicSmoothstep: "smoothstep",
	codegen.IntrinsicDdx:         "ddx",
	codegen.IntrinsicDdy:         "ddy",
	codegen.IntrinsicFwidth:      "fwidth",
}

// formatConstant renders a scalar constant c as an HLSL literal.
// Vectors, matrices, and arrays are decomposed into their own scalar
// constants by Backend.constantExpr before reaching here.
func formatConstant(c effectir.Constant, t effectir.Type) string {
	switch t.Base {
	case effectir.BaseBool:
		if c.BoolLane(0) {
			return "true"
		}
		return "false"
	case effectir.BaseInt:
		return fmt.Sprintf("%d", c.AsInt(0))
	case effectir.BaseUint:
		return fmt.Sprintf("%du", c.AsUint(0))
	default:
		return formatFloat(c.AsFloat(0))
	}
}

// formatFloat renders f as an HLSL float literal, always carrying a
// decimal point or exponent so it is never mistaken for an integer.
func formatFloat(f float32) string {
	s := fmt.Sprintf("%g", f)
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			return s
		}
	}
	return s + ".0"
}
