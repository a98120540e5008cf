//go:build linux || darwin

package gl

import (
	"unsafe"

	"github.com/ebitengine/purego"
)

type openGL struct {
	clearColor func(float32, float32, float32, float32)
	clear      func(uint32)
	viewport   func(int32, int32, int32, int32)
	enable     func(uint32)
	disable    func(uint32)
	scissor    func(int32, int32, int32, int32)
	finish     func()
	readPixels func(int32, int32, int32, int32, uint32, uint32, unsafe.Pointer)
	getString  func(uint32) *byte
}

func (gl *openGL) ClearColor(r, g, b, a float32) {
	gl.clearColor(r, g, b, a)
}

func (gl *openGL) Clear(mask uint32) {
	gl.clear(mask)
}

func (gl *openGL) Viewport(x, y, width, height int32) {
	gl.viewport(x, y, width, height)
}

func (gl *openGL) Enable(cap uint32) {
	gl.enable(cap)
}

func (gl *openGL) Disable(cap uint32) {
	gl.disable(cap)
}

func (gl *openGL) Scissor(x, y, width, height int32) {
	gl.scissor(x, y, width, height)
}

func (gl *openGL) Finish() {
	gl.finish()
}

func (gl *openGL) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	gl.readPixels(x, y, width, height, format, xtype, pixels)
}

func (gl *openGL) GetString(name uint32) string {
	return gostring(gl.getString(name))
}

func bind(p procs) (OpenGL, error) {
	gl := &openGL{}
	purego.RegisterFunc(&gl.clearColor, p[procClearColor])
	purego.RegisterFunc(&gl.clear, p[procClear])
	purego.RegisterFunc(&gl.viewport, p[procViewport])
	purego.RegisterFunc(&gl.enable, p[procEnable])
	purego.RegisterFunc(&gl.disable, p[procDisable])
	purego.RegisterFunc(&gl.scissor, p[procScissor])
	purego.RegisterFunc(&gl.finish, p[procFinish])
	purego.RegisterFunc(&gl.readPixels, p[procReadPixels])
	purego.RegisterFunc(&gl.getString, p[procGetString])
	return gl, nil
}
