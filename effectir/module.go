package effectir

// Module is the complete compiled-unit input to a backend: interned
// types and constants, resource descriptors, function descriptors, and
// techniques. Descriptors are appended during lowering and frozen at
// write_result.
type Module struct {
	Types     *TypeTable
	Constants *ConstantTable

	Structs   []StructDescriptor
	Textures  []TextureDescriptor
	Samplers  []SamplerDescriptor
	Uniforms  []UniformDescriptor
	Functions []FunctionDescriptor
	Techniques []Technique
}

// NewModule returns an empty Module with initialized interning tables.
func NewModule() *Module {
	return &Module{
		Types:     NewTypeTable(),
		Constants: NewConstantTable(),
	}
}

// DefineStruct appends a struct descriptor and returns its handle.
func (m *Module) DefineStruct(s StructDescriptor) StructHandle {
	m.Structs = append(m.Structs, s)
	return StructHandle(len(m.Structs) - 1)
}

// DefineFunction appends a function descriptor and returns its handle.
func (m *Module) DefineFunction(f FunctionDescriptor) FunctionHandle {
	m.Functions = append(m.Functions, f)
	return FunctionHandle(len(m.Functions) - 1)
}

// DefineSampler appends a sampler descriptor and returns its handle.
func (m *Module) DefineSampler(s SamplerDescriptor) SamplerHandle {
	m.Samplers = append(m.Samplers, s)
	return SamplerHandle(len(m.Samplers) - 1)
}

// FindTexture returns the index of a texture already declared under
// name, or -1 if none exists (texture names are globally
// unique within a module").
func (m *Module) FindTexture(name string) int {
	for i, t := range m.Textures {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// DefineTexture implements the merge-or-conflict rule: a
// redeclaration of an existing name with matching dimensions reuses the
// existing handle; a redeclaration with mismatching dimensions is a
// hard error reported to log and the original handle is returned
// unchanged so compilation can continue.
func (m *Module) DefineTexture(t TextureDescriptor, log *ErrorLog) TextureHandle {
	if i := m.FindTexture(t.Name); i >= 0 {
		existing := m.Textures[i]
		if !existing.SameDimensions(t) {
			log.Errorf(ErrIR, "texture %q redeclared with mismatching dimensions: "+
				"have (%dx%d, mips=%d, fmt=%d), got (%dx%d, mips=%d, fmt=%d)",
				t.Name, existing.Width, existing.Height, existing.MipLevels, existing.Format,
				t.Width, t.Height, t.MipLevels, t.Format)
		}
		return TextureHandle(i)
	}
	m.Textures = append(m.Textures, t)
	return TextureHandle(len(m.Textures) - 1)
}

// DefineUniform appends a uniform descriptor and returns its handle.
// Layout (Offset/Size) is assigned by the backend during
// define_uniform, not here.
func (m *Module) DefineUniform(u UniformDescriptor) UniformHandle {
	m.Uniforms = append(m.Uniforms, u)
	return UniformHandle(len(m.Uniforms) - 1)
}

// DefineTechnique appends a technique and returns its index.
func (m *Module) DefineTechnique(t Technique) int {
	m.Techniques = append(m.Techniques, t)
	return len(m.Techniques) - 1
}

// DefineConstant interns c into the module's constant table, and its
// resolved type into the module's type table, returning c's handle. Per
// spec §3, constants are interned by type+bit-pattern: a frontend (or a
// declarative fixture with no frontend attached) calls this for every
// constant literal it declares, and repeated declarations of an
// identical constant collapse to one handle.
func (m *Module) DefineConstant(c Constant) ConstantHandle {
	m.Types.Intern(c.Type)
	return m.Constants.Intern(c)
}
