//go:build windows

package gl

import (
	"math"
	"syscall"
	"unsafe"
)

// openGL calls resolved addresses directly. The amd64 Windows trampoline
// mirrors the first four arguments into XMM registers, so float32 bits
// passed as uintptr arrive where the callee expects them.
type openGL struct {
	p procs
}

func (gl *openGL) call(proc int, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(gl.p[proc], args...)
	return r
}

func (gl *openGL) ClearColor(r, g, b, a float32) {
	gl.call(procClearColor, f32(r), f32(g), f32(b), f32(a))
}

func (gl *openGL) Clear(mask uint32) {
	gl.call(procClear, uintptr(mask))
}

func (gl *openGL) Viewport(x, y, width, height int32) {
	gl.call(procViewport, uintptr(x), uintptr(y), uintptr(width), uintptr(height))
}

func (gl *openGL) Enable(cap uint32) {
	gl.call(procEnable, uintptr(cap))
}

func (gl *openGL) Disable(cap uint32) {
	gl.call(procDisable, uintptr(cap))
}

func (gl *openGL) Scissor(x, y, width, height int32) {
	gl.call(procScissor, uintptr(x), uintptr(y), uintptr(width), uintptr(height))
}

func (gl *openGL) Finish() {
	gl.call(procFinish)
}

func (gl *openGL) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	gl.call(procReadPixels, uintptr(x), uintptr(y), uintptr(width), uintptr(height), uintptr(format), uintptr(xtype), uintptr(pixels))
}

func (gl *openGL) GetString(name uint32) string {
	ptr := gl.call(procGetString, uintptr(name))
	return gostring((*byte)(unsafe.Pointer(ptr)))
}

func bind(p procs) (OpenGL, error) {
	return &openGL{p: p}, nil
}

func f32(v float32) uintptr {
	return uintptr(math.Float32bits(v))
}
