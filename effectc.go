// Package effectc is the façade that ties effectir, codegen, and the
// spirv/hlsl backends together: given a complete effectir.Module it
// drives the declarative parts of the IR (structs, textures, samplers,
// uniforms, functions, techniques) into the requested backend and
// returns the compiled artifact.
//
// effectc never builds function bodies itself — per spec §1 the
// frontend that walks a typed expression tree and issues enter_block/
// emit_*/leave_block_and_* calls is out of scope. For a function with
// no frontend-driven body, Compile synthesizes the minimal valid one
// (enter a single block, return the function's zero value) so that a
// module with only declarative content — the common case for a
// compiled fixture with no attached frontend — still lowers to a
// complete, structurally valid module. A real frontend drives richer
// bodies directly through the same codegen.Generator Compile builds.
package effectc

import (
	"fmt"

	"github.com/prismfx/effectc/codegen"
	"github.com/prismfx/effectc/effectir"
	"github.com/prismfx/effectc/hlsl"
	"github.com/prismfx/effectc/spirv"
)

// Target selects which backend Compile lowers a Module into.
type Target uint8

// Targets.
const (
	TargetSPIRV Target = iota
	TargetHLSL
)

// String renders t for flag parsing and diagnostics.
func (t Target) String() string {
	switch t {
	case TargetSPIRV:
		return "spirv"
	case TargetHLSL:
		return "hlsl"
	default:
		return "unknown"
	}
}

// ParseTarget parses the -target flag value.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "spirv":
		return TargetSPIRV, nil
	case "hlsl":
		return TargetHLSL, nil
	default:
		return 0, fmt.Errorf("unknown target %q (want spirv or hlsl)", s)
	}
}

// Options configures a Compile call.
type Options struct {
	Target Target
	Debug  bool
	// Validate runs effectir.Validate before lowering; a module that
	// fails validation is not lowered (spec §7 category 1).
	Validate bool
}

// Result is the backend-neutral output of a successful Compile.
// Exactly one of SPIRV/HLSL is populated, matching opts.Target.
type Result struct {
	SPIRV []byte
	HLSL  string
}

// Compile lowers m into the backend selected by opts.Target. The
// returned ErrorLog is always non-nil and contains every accumulated
// diagnostic (spec §6: "a multiline human-readable log with prefixed
// error:/warning: lines"); err is non-nil only when the log's Failed
// flag is set, mirroring the codegen.Generator.WriteResult contract.
func Compile(m *effectir.Module, opts Options) (*Result, *effectir.ErrorLog, error) {
	if opts.Validate {
		if errs := effectir.Validate(m); len(errs) > 0 {
			var log effectir.ErrorLog
			for _, e := range errs {
				log.Errorf(effectir.ErrIR, "%s", e)
			}
			return nil, &log, fmt.Errorf("effectc: %s", log.String())
		}
	}

	var gen codegen.Generator
	switch opts.Target {
	case TargetSPIRV:
		spirvOpts := spirv.DefaultOptions()
		spirvOpts.Debug = opts.Debug
		gen = spirv.NewBackend(spirvOpts)
	case TargetHLSL:
		hlslOpts := hlsl.DefaultOptions()
		hlslOpts.Debug = opts.Debug
		gen = hlsl.NewBackend(hlslOpts)
	default:
		var log effectir.ErrorLog
		log.Errorf(effectir.ErrBackend, "unknown target %v", opts.Target)
		return nil, &log, fmt.Errorf("effectc: %s", log.String())
	}

	lowerModule(gen, m)

	out, err := gen.WriteResult()
	log := gen.Log()
	if err != nil {
		return nil, log, fmt.Errorf("effectc: %w", err)
	}

	res := &Result{}
	switch v := out.(type) {
	case []byte:
		res.SPIRV = v
	case string:
		res.HLSL = v
	default:
		return nil, log, fmt.Errorf("effectc: backend returned unexpected result type %T", out)
	}
	return res, log, nil
}

// lowerModule replays m's declarative entities into gen in the order
// spec §5 requires: textures, samplers, uniforms, then the functions
// and techniques that reference them. Struct definitions precede all
// of these since textures/uniforms may reference struct types.
func lowerModule(gen codegen.Generator, m *effectir.Module) {
	for _, s := range m.Structs {
		gen.DefineStruct(s)
	}
	for _, c := range m.Constants.All() {
		gen.EmitConstant(c)
	}
	for _, t := range m.Textures {
		gen.DefineTexture(t)
	}
	for _, s := range m.Samplers {
		gen.DefineSampler(s)
	}
	for _, u := range m.Uniforms {
		gen.DefineUniform(u)
	}

	entryNames := collectEntryNames(m)
	for _, f := range m.Functions {
		handle := gen.DefineFunction(f)
		lowerFunctionBody(gen, handle, f)
		if entryNames[f.Name] != 0 {
			gen.CreateEntryPoint(handle, entryNames[f.Name] == pixelEntry)
		}
	}
	for _, t := range m.Techniques {
		gen.DefineTechnique(t)
	}
}

type entryKind uint8

const (
	notEntry entryKind = iota
	vertexEntry
	pixelEntry
)

// collectEntryNames classifies every function referenced as a vertex or
// pixel entry by any pass. A function referenced as both (unusual, but
// not forbidden by the IR) is treated as a pixel entry, since that is
// the stage CreateEntryPoint's is_pixel_stage flag most often gates
// (interface-variable direction is derived from the function's own
// parameter/return qualifiers either way).
func collectEntryNames(m *effectir.Module) map[string]entryKind {
	out := make(map[string]entryKind)
	for _, tech := range m.Techniques {
		for _, pass := range tech.Passes {
			if pass.VertexEntry != "" {
				if out[pass.VertexEntry] == notEntry {
					out[pass.VertexEntry] = vertexEntry
				}
			}
			if pass.PixelEntry != "" {
				out[pass.PixelEntry] = pixelEntry
			}
		}
	}
	return out
}

// lowerFunctionBody synthesizes the minimal valid body for a function
// with no frontend-driven CFG: a single block that returns the
// function's zero value (or nothing, for void). A real frontend would
// instead call EnterFunction/EnterBlock/emit_*/leave_block_and_* itself
// and never reach this path for that function.
func lowerFunctionBody(gen codegen.Generator, handle effectir.FunctionHandle, f effectir.FunctionDescriptor) {
	gen.EnterFunction(handle)
	gen.EnterBlock()
	if f.Return.Base == effectir.BaseVoid {
		gen.LeaveBlockAndReturn(nil)
	} else {
		zero := gen.EmitConstant(effectir.Constant{Type: f.Return})
		gen.LeaveBlockAndReturn(&zero)
	}
	gen.LeaveFunction()
}
