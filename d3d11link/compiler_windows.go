//go:build windows

package d3d11link

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// compilerLib loads d3dcompiler_47.dll, falling back to
// d3dcompiler_43.dll, per spec §4.4 step 1 ("prefer version 47, fall
// back to 43; if neither loads, fail with a user-facing message").
// Its handle is scoped to one Link call and freed on every return path.
type compilerLib struct {
	dll        *windows.LazyDLL
	d3DCompile *windows.LazyProc
}

var compilerVersions = []string{"d3dcompiler_47.dll", "d3dcompiler_43.dll"}

func loadCompiler() (*compilerLib, error) {
	for _, name := range compilerVersions {
		dll := windows.NewLazySystemDLL(name)
		if err := dll.Load(); err != nil {
			continue
		}
		proc := dll.NewProc("D3DCompile")
		if err := proc.Find(); err != nil {
			continue
		}
		return &compilerLib{dll: dll, d3DCompile: proc}, nil
	}
	return nil, errors.New("d3d11link: no d3dcompiler_47.dll or d3dcompiler_43.dll found")
}

// release frees the library handle taken by loadCompiler.
func (c *compilerLib) release() {
	if c == nil || c.dll == nil {
		return
	}
	_ = windows.FreeLibrary(windows.Handle(c.dll.Handle()))
}

type blob struct {
	vtbl *blobVtbl
}

type blobVtbl struct {
	iUnknownVtbl
	GetBufferPointer uintptr
	GetBufferSize    uintptr
}

func (b *blob) bytes() []byte {
	if b == nil {
		return nil
	}
	ptr, _, _ := syscall.Syscall(b.vtbl.GetBufferPointer, 1, uintptr(unsafe.Pointer(b)), 0, 0)
	size, _, _ := syscall.Syscall(b.vtbl.GetBufferSize, 1, uintptr(unsafe.Pointer(b)), 0, 0)
	if ptr == 0 || size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(size)))
	return out
}

const (
	compileEnableStrictness = 1 << 11 // D3DCOMPILE_ENABLE_STRICTNESS
)

// compile invokes D3DCompile with SM5.0 strictness enabled (spec §4.4
// step 2: "compile to 5_0 bytecode with strictness enabled").
func (c *compilerLib) compile(source []byte, entryPoint, target string) ([]byte, error) {
	var sourcePtr uintptr
	if len(source) > 0 {
		sourcePtr = uintptr(unsafe.Pointer(&source[0]))
	}
	entryBytes := append([]byte(entryPoint), 0)
	targetBytes := append([]byte(target), 0)

	var output, errBlob *blob
	ret, _, _ := c.d3DCompile.Call(
		sourcePtr,
		uintptr(len(source)),
		0, // source name
		0, // defines
		1, // D3D_COMPILE_STANDARD_FILE_INCLUDE
		uintptr(unsafe.Pointer(&entryBytes[0])),
		uintptr(unsafe.Pointer(&targetBytes[0])),
		compileEnableStrictness,
		0, // effect flags
		uintptr(unsafe.Pointer(&output)),
		uintptr(unsafe.Pointer(&errBlob)),
	)
	if ret == 0 {
		return output.bytes(), nil
	}
	if msg := errBlob.bytes(); len(msg) > 0 {
		return nil, errors.New(string(msg))
	}
	return nil, ErrorCode{Name: "D3DCompile", Code: uint32(ret)}
}
