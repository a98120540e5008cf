package display

import "fmt"

// Button identifies a mouse button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	default:
		return "none"
	}
}

// MouseEventKind tags a MouseEvent.
type MouseEventKind int

const (
	MousePressed MouseEventKind = iota
	MouseReleased
	MouseMoved
)

func (k MouseEventKind) String() string {
	switch k {
	case MousePressed:
		return "pressed"
	case MouseReleased:
		return "released"
	case MouseMoved:
		return "moved"
	default:
		return fmt.Sprintf("MouseEventKind(%d)", int(k))
	}
}

// MouseEvent is a normalized pointer event. Moved events carry ButtonNone.
type MouseEvent struct {
	Kind   MouseEventKind
	X, Y   float64
	Button Button
}

// Pressed returns a press of button at (x, y).
func Pressed(x, y float64, button Button) MouseEvent {
	return MouseEvent{Kind: MousePressed, X: x, Y: y, Button: button}
}

// Released returns a release of button at (x, y).
func Released(x, y float64, button Button) MouseEvent {
	return MouseEvent{Kind: MouseReleased, X: x, Y: y, Button: button}
}

// Moved returns a cursor move to (x, y).
func Moved(x, y float64) MouseEvent {
	return MouseEvent{Kind: MouseMoved, X: x, Y: y}
}

func (e MouseEvent) String() string {
	if e.Kind == MouseMoved {
		return fmt.Sprintf("moved(%g, %g)", e.X, e.Y)
	}
	return fmt.Sprintf("%s(%g, %g, %s)", e.Kind, e.X, e.Y, e.Button)
}
