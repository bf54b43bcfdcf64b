// Package spirv lowers an effectir.Module into a SPIR-V binary module.
//
// Backend implements codegen.Generator. A frontend drives it
// imperatively: define_* calls intern types/constants and declare
// resources, emit_* calls append instructions to the current block,
// and WriteResult assembles the finished word stream through
// ModuleBuilder.
//
//	backend := spirv.NewBackend(spirv.DefaultOptions())
//	// frontend calls backend.DefineFunction, backend.EmitBinaryOp, ...
//	result, err := backend.WriteResult()
//	binary := result.([]byte)
//
// ModuleBuilder is the low-level word-stream assembler: it allocates
// ids and appends instructions to the section they belong in,
// regardless of call order, then serializes sections in the fixed
// order the SPIR-V specification requires (capabilities, extensions,
// ext-inst imports, memory model, entry points, execution modes, debug
// strings/names, annotations, types/constants/globals, functions).
package spirv
