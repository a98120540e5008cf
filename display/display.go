// Package display defines the contract shared by every windowing backend.
//
// A client is written once against Instance and Display and then compiled
// for a backend: package native on desktop targets, package web when
// building for js/wasm. Backends are chosen by import and build target, never
// at run time.
//
// The polling model is a single-threaded loop:
//
//	id, err := inst.CreateDisplay()
//	if err != nil {
//		log.Fatalf("create display: %v", err)
//	}
//	for inst.TryUpdate() {
//		d, ok := inst.TryGetDisplay(id)
//		if !ok {
//			continue
//		}
//		if d.IsRedrawRequested() {
//			// draw
//		}
//	}
//
// Flags and event queues on a Display describe the most recent TryUpdate
// call only; they are reset at the start of the next one.
package display

import "fmt"

// Instance owns a set of displays and the platform event loop behind them.
type Instance[ID comparable, D Display] interface {
	// CreateDisplay opens a surface with the backend's default size.
	CreateDisplay() (ID, error)

	// CreateDisplayWithSize opens a surface with the given size in pixels.
	CreateDisplayWithSize(width, height uint32) (ID, error)

	// TryGetDisplay returns the display for id, or false when the id is
	// unknown or its surface has closed.
	TryGetDisplay(id ID) (D, bool)

	// TryUpdate runs one update cycle and reports whether any display is
	// still open.
	TryUpdate() bool
}

// Display is a read-only view of one surface's state for the current cycle.
type Display interface {
	Size() Size
	IsRedrawRequested() bool
	ShouldClose() bool

	// MouseEvents returns the mouse events observed during the current cycle
	// in chronological order.
	MouseEvents() []MouseEvent

	// Listen pushes the current size and then every queued mouse event into l.
	Listen(l EventListener)
}

// Size is a surface size in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
