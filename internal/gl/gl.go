// Package gl binds the handful of OpenGL 1.x entry points the demo draws
// with. Entry points are resolved through the display that owns the current
// context, so the same code serves GLX, WGL, CGL and GLFW contexts.
package gl

import (
	"fmt"
	"strings"
	"unsafe"
)

const (
	// ColorBufferBit is a mask used with Clear to clear the color buffer.
	ColorBufferBit = 0x00004000

	// ScissorTest restricts Clear to the box set with Scissor.
	ScissorTest = 0x0C11

	// RGBA is a pixel format representing red/green/blue/alpha.
	RGBA = 0x1908

	// UnsignedByte is a pixel data type indicating 8-bit unsigned values.
	UnsignedByte = 0x1401

	// GetString parameters.
	Vendor   = 0x1F00
	Renderer = 0x1F01
	Version  = 0x1F02
)

// OpenGL is the subset of OpenGL used for drawing and screenshots. All methods
// act on the context current on the calling thread.
type OpenGL interface {
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	Viewport(x, y, width, height int32)
	Enable(cap uint32)
	Disable(cap uint32)

	// Scissor sets the box, in window coordinates with the origin at the
	// bottom left, that ScissorTest restricts drawing to.
	Scissor(x, y, width, height int32)

	// Finish blocks until previously issued commands have completed.
	Finish()

	// ReadPixels reads a block of pixels from the framebuffer into client memory.
	ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer)

	// GetString returns a string describing a GL property, or "" when the
	// name is not recognized or no context is current.
	GetString(name uint32) string
}

// Resolver returns the address of a GL entry point, or 0 if it is missing.
type Resolver func(name string) uintptr

var procNames = [...]string{
	"glClearColor",
	"glClear",
	"glViewport",
	"glEnable",
	"glDisable",
	"glScissor",
	"glFinish",
	"glReadPixels",
	"glGetString",
}

// procs holds resolved addresses, in procNames order.
type procs [len(procNames)]uintptr

const (
	procClearColor = iota
	procClear
	procViewport
	procEnable
	procDisable
	procScissor
	procFinish
	procReadPixels
	procGetString
)

// Load resolves every entry point and binds them. A context must be current.
func Load(resolve Resolver) (OpenGL, error) {
	p, err := resolveProcs(resolve)
	if err != nil {
		return nil, err
	}
	return bind(p)
}

func resolveProcs(resolve Resolver) (procs, error) {
	var p procs
	var missing []string
	for i, name := range procNames {
		p[i] = resolve(name)
		if p[i] == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return p, fmt.Errorf("gl: missing entry points: %s", strings.Join(missing, ", "))
	}
	return p, nil
}

func gostring(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var b []byte
	for p := ptr; *p != 0; p = (*byte)(unsafe.Add(unsafe.Pointer(p), 1)) {
		b = append(b, *p)
	}
	return string(b)
}
