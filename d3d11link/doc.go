// Package d3d11link implements the D3D11 effect linker of spec §4.4: it
// consumes a compiled effectir.Module plus HLSL text, invokes the vendor
// HLSL compiler, and allocates GPU resources (textures, SRVs, RTVs,
// samplers, constant buffers, depth-stencil and blend states, timing
// queries) on a runtime-provided device.
//
// The D3D device, swap chain, and depth tracking are external
// collaborators (spec §1): d3d11link never creates a device itself. A
// Runtime value supplies the device handle, backbuffer views, uniform
// byte arena, and texture registry the linker appends to.
//
// Linking only runs on Windows; on every other platform Link returns
// ErrUnsupportedPlatform.
package d3d11link

import "errors"

// ErrUnsupportedPlatform is returned by Link on non-Windows platforms.
var ErrUnsupportedPlatform = errors.New("d3d11link: D3D11 effect linking is only available on windows")
