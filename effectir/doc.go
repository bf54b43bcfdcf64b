// Package effectir defines the intermediate representation consumed by the
// effect compiler's backends.
//
// The IR is produced by an external, out-of-scope frontend (a parser and
// semantic analyzer for a post-processing effect language) and is already
// fully typed: every expression's type has been resolved, every access
// chain's operations are known, and every technique/pass/resource
// descriptor is complete. effectir carries no parser and no type
// inference — it only describes the shape of a compiled module so that
// the codegen package and its SPIR-V/HLSL backends can walk it.
//
// # Structure
//
// A Module contains:
//   - Types: interned value types (scalar through 4x4 matrix, struct,
//     texture, sampler, array)
//   - Constants: interned constant values, keyed by type + bit pattern
//   - Structs, Textures, Samplers, Uniforms: resource descriptors
//   - Functions: signatures only; bodies are not stored, a frontend
//     drives them block by block through codegen.Generator
//   - Techniques: ordered passes referencing vertex/pixel entry functions
//
// # Translation pipeline
//
//	Frontend (out of scope) → effectir.Module → codegen.Generator → spirv | hlsl
package effectir
