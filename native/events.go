//go:build !js

package native

import "github.com/tinyrange/glwin/internal/window"

// Raw platform events, as handed to the observer of
// TryUpdateDirectEventCallback before normalization.
type (
	RawEvent     = window.Event
	WindowID     = window.WindowID
	ElementState = window.ElementState
	MouseButton  = window.Button

	RedrawRequested = window.RedrawRequested
	Resized         = window.Resized
	CloseRequested  = window.CloseRequested
	MouseInput      = window.MouseInput
	CursorMoved     = window.CursorMoved
	CursorEntered   = window.CursorEntered
	CursorLeft      = window.CursorLeft
	Focused         = window.Focused
	KeyInput        = window.KeyInput
	Destroyed       = window.Destroyed
)

const (
	Pressed  = window.Pressed
	Released = window.Released

	MouseButtonLeft   = window.ButtonLeft
	MouseButtonRight  = window.ButtonRight
	MouseButtonMiddle = window.ButtonMiddle
	MouseButtonOther  = window.ButtonOther
)
