// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package hlsl lowers an effectir.Module into HLSL source text targeting
// Shader Model 5.0, the model the D3D11 effect compiler consumes.
//
// Backend implements codegen.Generator the same way spirv.Backend does:
// a frontend drives it imperatively, define_* calls declare resources and
// assign register bindings, emit_* calls append statements to the
// current block's string buffer, and WriteResult joins every function
// and resource declaration into one source string.
//
//	backend := hlsl.NewBackend(hlsl.DefaultOptions())
//	// frontend calls backend.DefineFunction, backend.EmitBinaryOp, ...
//	result, err := backend.WriteResult()
//	source := result.(string)
//
// Unlike SPIR-V, HLSL has no forward-reference restriction on block
// labels, so statements are appended directly to their enclosing
// function's buffer as they are emitted rather than buffered until
// LeaveFunction. Structured control flow (if/while/switch) is emitted
// as real HLSL syntax guided by the ControlFlag attributes the frontend
// supplies, and SSA phi nodes are lowered to a pre-declared mutable
// local assigned in each incoming block, since HLSL has no phi
// instruction.
//
// # Register binding
//
// HLSL binds resources to numbered registers:
//
//	cbuffer _Globals : register(b0)  // the single uniform block
//	Texture2D : register(t#)         // textures
//	SamplerState : register(s#)      // samplers
//
// DefineTexture and DefineSampler assign these slots in declaration
// order.
package hlsl
