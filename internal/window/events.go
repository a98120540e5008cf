package window

// Event is a raw, platform-neutral window event. Every event names the
// window it belongs to.
type Event interface {
	WindowID() WindowID
}

// ElementState is the state of a button or key.
type ElementState int

const (
	Pressed ElementState = iota
	Released
)

func (s ElementState) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

type RedrawRequested struct {
	Window WindowID
}

type Resized struct {
	Window        WindowID
	Width, Height uint32
}

type CloseRequested struct {
	Window WindowID
}

// MouseInput reports a button transition. Platforms do not attach the cursor
// position; consumers track it from CursorMoved.
type MouseInput struct {
	Window WindowID
	State  ElementState
	Button Button
}

type CursorMoved struct {
	Window WindowID
	X, Y   float64
}

type CursorEntered struct {
	Window WindowID
}

type CursorLeft struct {
	Window WindowID
}

type Focused struct {
	Window  WindowID
	Focused bool
}

type KeyInput struct {
	Window WindowID
	Code   uint32
	State  ElementState
}

type Destroyed struct {
	Window WindowID
}

func (e RedrawRequested) WindowID() WindowID { return e.Window }
func (e Resized) WindowID() WindowID         { return e.Window }
func (e CloseRequested) WindowID() WindowID  { return e.Window }
func (e MouseInput) WindowID() WindowID      { return e.Window }
func (e CursorMoved) WindowID() WindowID     { return e.Window }
func (e CursorEntered) WindowID() WindowID   { return e.Window }
func (e CursorLeft) WindowID() WindowID      { return e.Window }
func (e Focused) WindowID() WindowID         { return e.Window }
func (e KeyInput) WindowID() WindowID        { return e.Window }
func (e Destroyed) WindowID() WindowID       { return e.Window }
