//go:build !windows

package d3d11link

import "github.com/prismfx/effectc/effectir"

// Link always fails on non-Windows platforms: the vendor HLSL compiler
// and the D3D11 device API are Windows-only.
func Link(m *effectir.Module, hlslSource string, rt *Runtime) (*Effect, error) {
	return nil, ErrUnsupportedPlatform
}

// Runtime is an opaque placeholder on non-Windows builds.
type Runtime struct{}

// Effect is an opaque placeholder on non-Windows builds.
type Effect struct{}
