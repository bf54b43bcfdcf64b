// Package codegen defines the backend-neutral contract a frontend uses
// to lower an effect into a compiled module.
//
// A frontend never builds a static effectir expression tree for a
// function body; it drives a Generator imperatively while it walks its
// own AST/CFG, one define_*/emit_*/enter_block call at a time. Two
// concrete Generators exist: the spirv package's Backend and the hlsl
// package's Backend. Dispatch is an ordinary
// Go interface rather than runtime inheritance — concrete backends are
// interchangeable variants implementing the same method set.
package codegen
