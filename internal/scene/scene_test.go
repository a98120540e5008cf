package scene

import (
	"testing"

	"github.com/tinyrange/glwin/display"
)

func TestScene_TracksSizeFromNotify(t *testing.T) {
	s := New()
	display.Notify(s, display.Size{Width: 640, Height: 480}, nil)
	if s.Size() != (display.Size{Width: 640, Height: 480}) {
		t.Fatalf("expected 640x480, got %s", s.Size())
	}

	display.Notify(s, display.Size{Width: 800, Height: 600}, nil)
	if s.Size() != (display.Size{Width: 800, Height: 600}) {
		t.Fatalf("expected the latest size, got %s", s.Size())
	}
}

func TestScene_PressMarksAndDragExtends(t *testing.T) {
	s := New()
	display.Notify(s, display.Size{Width: 100, Height: 100}, []display.MouseEvent{
		display.Moved(10, 10),
		display.Pressed(10, 10, display.ButtonLeft),
		display.Moved(20, 10),
		display.Released(20, 10, display.ButtonLeft),
		display.Moved(30, 30),
	})

	marks := s.Marks()
	want := []Point{{10, 10}, {20, 10}}
	if len(marks) != len(want) {
		t.Fatalf("expected %v, got %v", want, marks)
	}
	for i := range want {
		if marks[i] != want[i] {
			t.Fatalf("mark %d: expected %v, got %v", i, want[i], marks[i])
		}
	}
	if s.Dragging() {
		t.Fatalf("expected drag to end on release")
	}
	if s.Cursor() != (Point{30, 30}) {
		t.Fatalf("expected cursor at (30, 30), got %v", s.Cursor())
	}
}

func TestScene_MarksAreBounded(t *testing.T) {
	s := New()
	for i := 0; i < MaxMarks+5; i++ {
		s.OnMouseOperated(display.Pressed(float64(i), 0, display.ButtonLeft))
	}
	marks := s.Marks()
	if len(marks) != MaxMarks {
		t.Fatalf("expected %d marks, got %d", MaxMarks, len(marks))
	}
	if marks[0].X != 5 || marks[len(marks)-1].X != MaxMarks+4 {
		t.Fatalf("expected oldest marks dropped, got first %v last %v", marks[0], marks[len(marks)-1])
	}
}

func TestScene_MarkRects(t *testing.T) {
	s := New()
	s.OnResized(100, 50)
	s.OnMouseOperated(display.Pressed(50, 10, display.ButtonLeft))
	s.OnMouseOperated(display.Released(50, 10, display.ButtonLeft))
	s.OnMouseOperated(display.Pressed(2, 48, display.ButtonLeft))
	s.OnMouseOperated(display.Released(2, 48, display.ButtonLeft))
	s.OnMouseOperated(display.Pressed(500, 500, display.ButtonLeft))

	got := s.MarkRects()
	want := []Rect{
		{X: 44, Y: 34, Width: MarkSize, Height: MarkSize},
		{X: 0, Y: 0, Width: 8, Height: 8},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rect %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
