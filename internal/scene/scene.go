// Package scene holds the demo's per-display state. It only sees what
// display.Display.Listen pushes, so it works unchanged on every backend.
package scene

import (
	"github.com/tinyrange/glwin/display"
)

// MaxMarks bounds how many clicks a scene remembers.
const MaxMarks = 64

// MarkSize is the edge length of a click mark in pixels.
const MarkSize = 12

type Point struct {
	X, Y float64
}

// Rect is a box in GL window coordinates, origin at the bottom left.
type Rect struct {
	X, Y, Width, Height int32
}

type Scene struct {
	display.NopListener

	size     display.Size
	cursor   Point
	dragging bool
	marks    []Point
}

var _ display.EventListener = (*Scene)(nil)

func New() *Scene {
	return &Scene{}
}

func (s *Scene) OnResized(width, height uint32) {
	s.size = display.Size{Width: width, Height: height}
}

func (s *Scene) OnMouseOperated(ev display.MouseEvent) {
	s.cursor = Point{ev.X, ev.Y}
	switch ev.Kind {
	case display.MousePressed:
		s.dragging = true
		s.mark(s.cursor)
	case display.MouseReleased:
		s.dragging = false
	case display.MouseMoved:
		if s.dragging {
			s.mark(s.cursor)
		}
	}
}

func (s *Scene) mark(p Point) {
	if len(s.marks) == MaxMarks {
		copy(s.marks, s.marks[1:])
		s.marks = s.marks[:MaxMarks-1]
	}
	s.marks = append(s.marks, p)
}

func (s *Scene) Size() display.Size {
	return s.size
}

func (s *Scene) Cursor() Point {
	return s.cursor
}

func (s *Scene) Dragging() bool {
	return s.dragging
}

// Marks returns the remembered clicks, oldest first.
func (s *Scene) Marks() []Point {
	return append([]Point(nil), s.marks...)
}

// MarkRects returns a box per mark, flipped into GL window coordinates and
// clipped to the current size. Marks entirely outside are skipped.
func (s *Scene) MarkRects() []Rect {
	w, h := int32(s.size.Width), int32(s.size.Height)
	rects := make([]Rect, 0, len(s.marks))
	for _, m := range s.marks {
		x0 := int32(m.X) - MarkSize/2
		y0 := h - int32(m.Y) - MarkSize/2
		x1, y1 := x0+MarkSize, y0+MarkSize

		x0, y0 = max(x0, 0), max(y0, 0)
		x1, y1 = min(x1, w), min(y1, h)
		if x0 >= x1 || y0 >= y1 {
			continue
		}
		rects = append(rects, Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0})
	}
	return rects
}
