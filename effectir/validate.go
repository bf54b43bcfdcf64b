package effectir

import "fmt"

// ValidationError is one IR-level problem found by Validate. It
// satisfies the error interface and carries enough context (function,
// pass, render target) to report structural diagnostics.
type ValidationError struct {
	Message   string
	Function  string
	Technique string
	Pass      string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.Technique != "" && e.Pass != "":
		return fmt.Sprintf("technique %q, pass %q: %s", e.Technique, e.Pass, e.Message)
	case e.Function != "":
		return fmt.Sprintf("function %q: %s", e.Function, e.Message)
	default:
		return e.Message
	}
}

// Validate checks a Module for its IR-level invariants: every pass's
// render targets must agree on (Width, Height) when more than one is
// bound, every render-target name must resolve to a declared texture,
// and referenced entry-point functions must exist. It
// accumulates every problem found rather than stopping at the first.
func Validate(m *Module) []ValidationError {
	var errs []ValidationError

	funcByName := make(map[string]bool, len(m.Functions))
	for _, f := range m.Functions {
		funcByName[f.Name] = true
	}

	for _, tech := range m.Techniques {
		for _, pass := range tech.Passes {
			errs = append(errs, validatePass(m, tech, pass, funcByName)...)
		}
	}
	return errs
}

func validatePass(m *Module, tech Technique, pass Pass, funcByName map[string]bool) []ValidationError {
	var errs []ValidationError

	if pass.VertexEntry != "" && !funcByName[pass.VertexEntry] {
		errs = append(errs, ValidationError{
			Technique: tech.Name, Pass: pass.Name,
			Message: fmt.Sprintf("vertex entry %q is not a declared function", pass.VertexEntry),
		})
	}
	if pass.PixelEntry != "" && !funcByName[pass.PixelEntry] {
		errs = append(errs, ValidationError{
			Technique: tech.Name, Pass: pass.Name,
			Message: fmt.Sprintf("pixel entry %q is not a declared function", pass.PixelEntry),
		})
	}

	var firstW, firstH int32
	haveFirst := false
	for _, name := range pass.ActiveRenderTargets() {
		idx := m.FindTexture(name)
		if idx < 0 {
			errs = append(errs, ValidationError{
				Technique: tech.Name, Pass: pass.Name,
				Message: fmt.Sprintf("render target %q does not resolve to a declared texture", name),
			})
			continue
		}
		tex := m.Textures[idx]
		if !haveFirst {
			firstW, firstH = tex.Width, tex.Height
			haveFirst = true
			continue
		}
		if tex.Width != firstW || tex.Height != firstH {
			errs = append(errs, ValidationError{
				Technique: tech.Name, Pass: pass.Name,
				Message: fmt.Sprintf("render target %q is %dx%d, expected %dx%d to match other bound targets",
					name, tex.Width, tex.Height, firstW, firstH),
			})
		}
	}
	return errs
}
