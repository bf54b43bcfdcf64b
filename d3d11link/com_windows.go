//go:build windows

package d3d11link

import (
	"syscall"
	"unsafe"
)

// ErrorCode wraps a non-success HRESULT returned by a D3D11 call,
// stringified as hexadecimal per spec §7 category 3.
type ErrorCode struct {
	Name string
	Code uint32
}

func (e ErrorCode) Error() string {
	return e.Name + ": HRESULT 0x" + hex32(e.Code)
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = digits[v&0xf]
		v >>= 4
	}
	return string(b[:])
}

type iUnknownVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

func comRelease(obj unsafe.Pointer, vtbl *iUnknownVtbl) {
	if obj == nil {
		return
	}
	syscall.Syscall(vtbl.Release, 1, uintptr(obj), 0, 0)
}

// --- ID3D11Device --------------------------------------------------------

type deviceVtbl struct {
	iUnknownVtbl
	CreateBuffer                         uintptr
	CreateTexture1D                      uintptr
	CreateTexture2D                      uintptr
	CreateTexture3D                      uintptr
	CreateShaderResourceView             uintptr
	CreateUnorderedAccessView            uintptr
	CreateRenderTargetView               uintptr
	CreateDepthStencilView               uintptr
	CreateInputLayout                    uintptr
	CreateVertexShader                   uintptr
	CreateGeometryShader                 uintptr
	CreateGeometryShaderWithStreamOutput uintptr
	CreatePixelShader                    uintptr
	CreateHullShader                     uintptr
	CreateDomainShader                   uintptr
	CreateComputeShader                  uintptr
	CreateClassLinkage                   uintptr
	CreateBlendState                     uintptr
	CreateDepthStencilState              uintptr
	CreateRasterizerState                uintptr
	CreateSamplerState                   uintptr
	CreateQuery                          uintptr
}

// Device is a thin wrapper over an externally-supplied *ID3D11Device COM
// pointer. d3d11link never creates one itself (spec §1: the device is an
// external collaborator) — a Runtime is constructed around a pointer the
// host application already owns.
type Device struct {
	ptr  unsafe.Pointer
	vtbl *deviceVtbl
}

// NewDevice wraps a raw ID3D11Device COM pointer obtained by the host
// application (e.g. via D3D11CreateDeviceAndSwapChain).
func NewDevice(ptr unsafe.Pointer) *Device {
	return &Device{ptr: ptr, vtbl: *(**deviceVtbl)(ptr)}
}

// Texture2D wraps an ID3D11Texture2D.
type Texture2D struct{ ptr unsafe.Pointer }

// ShaderResourceView wraps an ID3D11ShaderResourceView.
type ShaderResourceView struct{ ptr unsafe.Pointer }

// RenderTargetView wraps an ID3D11RenderTargetView.
type RenderTargetView struct{ ptr unsafe.Pointer }

// SamplerState wraps an ID3D11SamplerState.
type SamplerState struct{ ptr unsafe.Pointer }

// Buffer wraps an ID3D11Buffer (used here only for the dynamic uniform
// constant buffer).
type Buffer struct{ ptr unsafe.Pointer }

// BlendState wraps an ID3D11BlendState.
type BlendState struct{ ptr unsafe.Pointer }

// DepthStencilState wraps an ID3D11DepthStencilState.
type DepthStencilState struct{ ptr unsafe.Pointer }

// Query wraps an ID3D11Query (timestamp/disjoint timing queries).
type Query struct{ ptr unsafe.Pointer }

// texture2DDesc mirrors D3D11_TEXTURE2D_DESC.
type texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// CreateTexture2D creates a 2-D texture resource per desc. Initial data
// is never supplied here: effect textures are either backbuffer-backed
// or render targets.
func (d *Device) CreateTexture2D(desc *texture2DDesc) (*Texture2D, error) {
	var tex unsafe.Pointer
	r, _, _ := syscall.Syscall6(d.vtbl.CreateTexture2D, 4,
		uintptr(d.ptr), uintptr(unsafe.Pointer(desc)), 0, uintptr(unsafe.Pointer(&tex)), 0, 0)
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateTexture2D", Code: uint32(r)}
	}
	return &Texture2D{ptr: tex}, nil
}

// srvDescTex2D mirrors D3D11_SHADER_RESOURCE_VIEW_DESC for a 2-D texture.
type srvDescTex2D struct {
	Format          uint32
	ViewDimension   uint32
	MostDetailedMip uint32
	MipLevels       uint32
}

// CreateShaderResourceView creates an SRV over a 2-D texture resource.
func (d *Device) CreateShaderResourceView(res *Texture2D, desc *srvDescTex2D) (*ShaderResourceView, error) {
	var view unsafe.Pointer
	r, _, _ := syscall.Syscall6(d.vtbl.CreateShaderResourceView, 4,
		uintptr(d.ptr), uintptr(res.ptr), uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&view)), 0, 0)
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateShaderResourceView", Code: uint32(r)}
	}
	return &ShaderResourceView{ptr: view}, nil
}

// CreateRenderTargetView creates an RTV over a 2-D texture resource.
func (d *Device) CreateRenderTargetView(res *Texture2D) (*RenderTargetView, error) {
	var view unsafe.Pointer
	r, _, _ := syscall.Syscall6(d.vtbl.CreateRenderTargetView, 4,
		uintptr(d.ptr), uintptr(res.ptr), 0, uintptr(unsafe.Pointer(&view)), 0, 0)
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateRenderTargetView", Code: uint32(r)}
	}
	return &RenderTargetView{ptr: view}, nil
}

// samplerDesc mirrors D3D11_SAMPLER_DESC (52-byte layout, spec §6).
type samplerDesc struct {
	Filter         uint32
	AddressU       uint32
	AddressV       uint32
	AddressW       uint32
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc uint32
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// CreateSamplerState creates a sampler state object from desc.
func (d *Device) CreateSamplerState(desc *samplerDesc) (*SamplerState, error) {
	var s unsafe.Pointer
	r, _, _ := syscall.Syscall(d.vtbl.CreateSamplerState, 3,
		uintptr(d.ptr), uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&s)))
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateSamplerState", Code: uint32(r)}
	}
	return &SamplerState{ptr: s}, nil
}

// bufferDesc mirrors D3D11_BUFFER_DESC.
type bufferDesc struct {
	ByteWidth           uint32
	Usage               uint32
	BindFlags           uint32
	CPUAccessFlags      uint32
	MiscFlags           uint32
	StructureByteStride uint32
}

type subresourceData struct {
	pSysMem          unsafe.Pointer
	sysMemPitch      uint32
	sysMemSlicePitch uint32
}

// CreateBuffer creates a buffer, optionally seeded with initial data.
func (d *Device) CreateBuffer(desc *bufferDesc, data []byte) (*Buffer, error) {
	var init *subresourceData
	if len(data) > 0 {
		init = &subresourceData{pSysMem: unsafe.Pointer(&data[0])}
	}
	var buf unsafe.Pointer
	r, _, _ := syscall.Syscall6(d.vtbl.CreateBuffer, 4,
		uintptr(d.ptr), uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(init)), uintptr(unsafe.Pointer(&buf)), 0, 0)
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateBuffer", Code: uint32(r)}
	}
	return &Buffer{ptr: buf}, nil
}

// blendDesc mirrors D3D11_BLEND_DESC with all eight per-render-target
// entries; the linker fills only RT[0] (spec §4.4 step 6 builds one
// BlendState per pass, not per render target).
type blendDesc struct {
	AlphaToCoverageEnable  uint32
	IndependentBlendEnable uint32
	RT [8]struct {
		BlendEnable           uint32
		SrcBlend              uint32
		DestBlend             uint32
		BlendOp               uint32
		SrcBlendAlpha         uint32
		DestBlendAlpha        uint32
		BlendOpAlpha          uint32
		RenderTargetWriteMask uint8
		_pad                  [3]byte
	}
}

// CreateBlendState creates a blend state object from desc.
func (d *Device) CreateBlendState(desc *blendDesc) (*BlendState, error) {
	var s unsafe.Pointer
	r, _, _ := syscall.Syscall(d.vtbl.CreateBlendState, 3,
		uintptr(d.ptr), uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&s)))
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateBlendState", Code: uint32(r)}
	}
	return &BlendState{ptr: s}, nil
}

// depthStencilOpDesc mirrors D3D11_DEPTH_STENCILOP_DESC.
type depthStencilOpDesc struct {
	StencilFailOp      uint32
	StencilDepthFailOp uint32
	StencilPassOp      uint32
	StencilFunc        uint32
}

// depthStencilDesc mirrors D3D11_DEPTH_STENCIL_DESC.
type depthStencilDesc struct {
	DepthEnable      uint32
	DepthWriteMask   uint32
	DepthFunc        uint32
	StencilEnable    uint32
	StencilReadMask  uint8
	StencilWriteMask uint8
	_pad             [2]byte
	FrontFace        depthStencilOpDesc
	BackFace         depthStencilOpDesc
}

// CreateDepthStencilState creates a depth/stencil state object from desc.
func (d *Device) CreateDepthStencilState(desc *depthStencilDesc) (*DepthStencilState, error) {
	var s unsafe.Pointer
	r, _, _ := syscall.Syscall(d.vtbl.CreateDepthStencilState, 3,
		uintptr(d.ptr), uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&s)))
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateDepthStencilState", Code: uint32(r)}
	}
	return &DepthStencilState{ptr: s}, nil
}

// queryDesc mirrors D3D11_QUERY_DESC.
type queryDesc struct {
	Query     uint32
	MiscFlags uint32
}

// CreateQuery creates a timestamp or timestamp-disjoint query.
func (d *Device) CreateQuery(desc *queryDesc) (*Query, error) {
	var q unsafe.Pointer
	r, _, _ := syscall.Syscall(d.vtbl.CreateQuery, 3,
		uintptr(d.ptr), uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&q)))
	if r != 0 {
		return nil, ErrorCode{Name: "ID3D11Device::CreateQuery", Code: uint32(r)}
	}
	return &Query{ptr: q}, nil
}

// --- ID3D11DeviceContext (Map/Unmap only; draw submission is the
// runtime's responsibility, not the linker's) -----------------------------

type deviceContextVtbl struct {
	iUnknownVtbl
	GetDevice                uintptr
	GetPrivateData           uintptr
	SetPrivateData           uintptr
	SetPrivateDataInterface  uintptr
	VSSetConstantBuffers     uintptr
	PSSetShaderResources     uintptr
	PSSetShader              uintptr
	PSSetSamplers            uintptr
	VSSetShader              uintptr
	DrawIndexed              uintptr
	Draw                     uintptr
	Map                      uintptr
	Unmap                    uintptr
}

// DeviceContext wraps the device's immediate context, used only to map
// the dynamic uniform constant buffer for initial upload.
type DeviceContext struct {
	ptr  unsafe.Pointer
	vtbl *deviceContextVtbl
}

// NewDeviceContext wraps a raw ID3D11DeviceContext COM pointer.
func NewDeviceContext(ptr unsafe.Pointer) *DeviceContext {
	return &DeviceContext{ptr: ptr, vtbl: *(**deviceContextVtbl)(ptr)}
}

type mappedSubresource struct {
	pData      unsafe.Pointer
	RowPitch   uint32
	DepthPitch uint32
}

const mapWriteDiscard = 4 // D3D11_MAP_WRITE_DISCARD

// UpdateBuffer maps buf for write-discard and copies data into it,
// seeding the dynamic constant buffer from the uniform arena.
func (c *DeviceContext) UpdateBuffer(buf *Buffer, data []byte) error {
	var mapped mappedSubresource
	r, _, _ := syscall.Syscall6(c.vtbl.Map, 6,
		uintptr(c.ptr), uintptr(buf.ptr), 0, mapWriteDiscard, 0, uintptr(unsafe.Pointer(&mapped)))
	if r != 0 {
		return ErrorCode{Name: "ID3D11DeviceContext::Map", Code: uint32(r)}
	}
	if len(data) > 0 {
		dst := unsafe.Slice((*byte)(mapped.pData), len(data))
		copy(dst, data)
	}
	syscall.Syscall6(c.vtbl.Unmap, 3, uintptr(c.ptr), uintptr(buf.ptr), 0, 0, 0, 0)
	return nil
}
