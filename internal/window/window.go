package window

import "fmt"

// WindowID identifies a platform window for as long as the window exists.
// Backends never hand out the same id twice within a process.
type WindowID uint64

func (id WindowID) String() string {
	return fmt.Sprintf("window#%d", uint64(id))
}

// Config describes a surface to open.
type Config struct {
	Title  string
	Width  uint32
	Height uint32
}

// EventLoop owns the platform connection and every surface created from it.
//
// All methods must be called from the thread that called Open. Backends lock
// the OS thread for the lifetime of the loop.
type EventLoop interface {
	// NewSurface opens a window with a double-buffered GL context and makes
	// that context current.
	NewSurface(cfg Config) (Surface, error)

	// Pump drains the events that are available right now and hands them to
	// handle in arrival order, followed by a RedrawRequested for every surface
	// that asked for one. It never waits for new input.
	Pump(handle func(Event)) error

	// Close releases the platform connection. Surfaces must be closed first.
	Close()
}

// Surface is a single window plus the GL context bound to it.
type Surface interface {
	ID() WindowID

	// MakeCurrent binds the surface's context to the calling thread.
	MakeCurrent() error

	// SwapBuffers presents the back buffer.
	SwapBuffers() error

	// RequestRedraw schedules a RedrawRequested for the next Pump.
	RequestRedraw()

	// ProcAddress resolves a GL entry point for this surface's context.
	// It returns 0 when the symbol is unknown.
	ProcAddress(name string) uintptr

	// Scale reports the content scale of the screen the surface lives on.
	Scale() float32

	// Close destroys the context and the window.
	Close()
}
