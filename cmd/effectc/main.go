// Command effectc is the effect compiler CLI.
//
// Usage:
//
//	effectc [options] <input.json>
//
// Examples:
//
//	effectc effect.json                        # Compile to SPIR-V, stdout
//	effectc -target=hlsl effect.json            # Compile to HLSL
//	effectc -o effect.spv -target=spirv effect.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	effectc "github.com/prismfx/effectc"
	"github.com/prismfx/effectc/effectir"
)

var (
	output      = flag.String("o", "", "output file (default: stdout)")
	target      = flag.String("target", "spirv", "backend target: spirv or hlsl")
	debugFlag   = flag.Bool("debug", false, "include debug info")
	validate    = flag.Bool("validate", true, "validate IR before lowering")
	versionFlag = flag.Bool("version", false, "print version")
)

// fixture is the JSON-encoded interchange format a frontend hands the
// compiler: the declarative entity lists of an effectir.Module, plus
// the module's constant pool. Types are not part of the fixture — they
// are interned from each constant's own Type field and from every
// other entity's declared types as the backend lowers them, never
// supplied standalone (see effectir/doc.go's translation pipeline).
type fixture struct {
	Structs    []effectir.StructDescriptor  `json:"structs"`
	Constants  []effectir.Constant          `json:"constants"`
	Textures   []effectir.TextureDescriptor `json:"textures"`
	Samplers   []effectir.SamplerDescriptor `json:"samplers"`
	Uniforms   []effectir.UniformDescriptor `json:"uniforms"`
	Functions  []effectir.FunctionDescriptor `json:"functions"`
	Techniques []effectir.Technique         `json:"techniques"`
}

func (f fixture) toModule() *effectir.Module {
	m := effectir.NewModule()
	for _, s := range f.Structs {
		m.DefineStruct(s)
	}
	for _, c := range f.Constants {
		m.DefineConstant(c)
	}
	var log effectir.ErrorLog
	for _, t := range f.Textures {
		m.DefineTexture(t, &log)
	}
	for _, s := range f.Samplers {
		m.DefineSampler(s)
	}
	for _, u := range f.Uniforms {
		m.DefineUniform(u)
	}
	for _, fn := range f.Functions {
		m.DefineFunction(fn)
	}
	for _, t := range f.Techniques {
		m.DefineTechnique(t)
	}
	return m
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("effectc version %s\n", version())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}
	inputPath := args[0]

	tgt, err := effectc.ParseTarget(*target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing fixture: %v\n", err)
		os.Exit(1)
	}

	result, log, err := effectc.Compile(fx.toModule(), effectc.Options{
		Target:   tgt,
		Debug:    *debugFlag,
		Validate: *validate,
	})
	if !log.Empty() {
		fmt.Fprint(os.Stderr, log.String())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation error: %v\n", err)
		os.Exit(1)
	}

	var data []byte
	if tgt == effectc.TargetHLSL {
		data = []byte(result.HLSL)
	} else {
		data = result.SPIRV
	}

	if *output != "" {
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully compiled %s to %s (%d bytes)\n", inputPath, *output, len(data))
		return
	}
	if _, err := os.Stdout.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: effectc [options] <input.json>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  effectc effect.json                  Compile to SPIR-V on stdout\n")
	fmt.Fprintf(os.Stderr, "  effectc -target=hlsl effect.json      Compile to HLSL text\n")
	fmt.Fprintf(os.Stderr, "  effectc -o effect.spv effect.json     Compile to file\n")
}
