//go:build !js

package native

import (
	"github.com/tinyrange/glwin/display"
	"github.com/tinyrange/glwin/internal/window"
)

// Display is one open window and the state observed for it during the most
// recent update cycle. Only the owning Instance mutates it.
type Display struct {
	surface window.Surface

	size            display.Size
	redrawRequested bool
	closeRequested  bool

	mouseEvents []display.MouseEvent
	cursorX     float64
	cursorY     float64
}

var _ display.Display = (*Display)(nil)

func newDisplay(surface window.Surface, width, height uint32) *Display {
	return &Display{
		surface: surface,
		size:    display.Size{Width: width, Height: height},
	}
}

func (d *Display) Size() display.Size {
	return d.size
}

// IsRedrawRequested reports whether the platform presented this display
// during the last cycle and is ready for a new frame.
func (d *Display) IsRedrawRequested() bool {
	return d.redrawRequested
}

// ShouldClose reports whether the user asked to close the window. The
// instance drops such displays in the same cycle, so the flag is only seen
// through a *Display retained from an earlier lookup.
func (d *Display) ShouldClose() bool {
	return d.closeRequested
}

// MouseEvents returns a copy of the left-button and cursor events of the
// last cycle.
func (d *Display) MouseEvents() []display.MouseEvent {
	if len(d.mouseEvents) == 0 {
		return nil
	}
	return append([]display.MouseEvent(nil), d.mouseEvents...)
}

// CursorPosition returns the last known cursor position in window pixels.
func (d *Display) CursorPosition() (x, y float64) {
	return d.cursorX, d.cursorY
}

func (d *Display) Listen(l display.EventListener) {
	display.Notify(l, d.size, d.mouseEvents)
}

// MakeCurrent binds the display's GL context to the calling thread.
func (d *Display) MakeCurrent() error {
	return d.surface.MakeCurrent()
}

// ProcAddress resolves a GL entry point for the display's context.
func (d *Display) ProcAddress(name string) uintptr {
	return d.surface.ProcAddress(name)
}

// Scale reports the content scale of the screen hosting the display.
func (d *Display) Scale() float32 {
	return d.surface.Scale()
}

func (d *Display) resetCycle() {
	d.redrawRequested = false
	d.mouseEvents = d.mouseEvents[:0]
}

func (d *Display) press(button display.Button) {
	d.mouseEvents = append(d.mouseEvents, display.Pressed(d.cursorX, d.cursorY, button))
}

func (d *Display) release(button display.Button) {
	d.mouseEvents = append(d.mouseEvents, display.Released(d.cursorX, d.cursorY, button))
}

// moveCursor records a move unless the position is unchanged; some platforms
// repeat the same coordinates.
func (d *Display) moveCursor(x, y float64) {
	if x == d.cursorX && y == d.cursorY {
		return
	}
	d.cursorX, d.cursorY = x, y
	d.mouseEvents = append(d.mouseEvents, display.Moved(x, y))
}
