//go:build windows

package d3d11link

import (
	"hash/fnv"
	"unsafe"

	"github.com/prismfx/effectc/effectir"
)

// filterTable/addressTable map the backend-neutral enums of spec §3 to
// the D3D11 integer encodings (D3D11_FILTER_*, D3D11_TEXTURE_ADDRESS_*).
var filterTable = [...]uint32{
	effectir.FilterPoint:       0x00, // D3D11_FILTER_MIN_MAG_MIP_POINT
	effectir.FilterLinear:      0x15, // D3D11_FILTER_MIN_MAG_MIP_LINEAR
	effectir.FilterAnisotropic: 0x55, // D3D11_FILTER_ANISOTROPIC
}

var addressTable = [...]uint32{
	effectir.AddressWrap:   1, // D3D11_TEXTURE_ADDRESS_WRAP
	effectir.AddressClamp:  3, // D3D11_TEXTURE_ADDRESS_CLAMP
	effectir.AddressMirror: 2, // D3D11_TEXTURE_ADDRESS_MIRROR
	effectir.AddressBorder: 4, // D3D11_TEXTURE_ADDRESS_BORDER
}

func buildSamplerDesc(s effectir.SamplerDescriptor) samplerDesc {
	return samplerDesc{
		Filter:        filterTable[s.Filter],
		AddressU:      addressTable[s.AddressU],
		AddressV:      addressTable[s.AddressV],
		AddressW:      addressTable[s.AddressW],
		MaxAnisotropy: maxu32(s.MaxAniso, 1),
		MinLOD:        s.MinLOD,
		MaxLOD:        s.MaxLOD,
	}
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// hashSamplerDesc computes the FNV-1a 32-bit hash of the raw
// D3D11_SAMPLER_DESC byte layout (spec §6: "Sampler descriptor hash.
// FNV-1a 32-bit over the raw 52-byte D3D11_SAMPLER_DESC layout;
// collisions are benign"). The desc struct here is exactly 52 bytes.
func hashSamplerDesc(d *samplerDesc) uint32 {
	raw := unsafe.Slice((*byte)(unsafe.Pointer(d)), unsafe.Sizeof(*d))
	h := fnv.New32a()
	h.Write(raw)
	return h.Sum32()
}

// internSampler returns a cached SamplerState for desc, creating one on
// first use (spec §4.4 step 4: "hash the full SAMPLER_DESC ... and
// intern").
func (rt *Runtime) internSampler(desc *samplerDesc) (*SamplerState, error) {
	key := hashSamplerDesc(desc)
	if s, ok := rt.Samplers[key]; ok {
		return s, nil
	}
	s, err := rt.Device.CreateSamplerState(desc)
	if err != nil {
		return nil, err
	}
	rt.Samplers[key] = s
	return s, nil
}
