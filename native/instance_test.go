//go:build !js

package native

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tinyrange/glwin/display"
	"github.com/tinyrange/glwin/internal/window"
	"github.com/tinyrange/glwin/internal/window/windowtest"
)

func newTestInstance(t *testing.T, opts ...Option) (*Instance, *windowtest.Loop) {
	t.Helper()
	loop := windowtest.New()
	base := []Option{
		withEventLoop(loop),
		WithFrameInterval(0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	inst, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	t.Cleanup(inst.Close)
	return inst, loop
}

func mustCreate(t *testing.T, inst *Instance, w, h uint32) ID {
	t.Helper()
	id, err := inst.CreateDisplayWithSize(w, h)
	if err != nil {
		t.Fatalf("create display: %v", err)
	}
	return id
}

func mustGet(t *testing.T, inst *Instance, id ID) *Display {
	t.Helper()
	d, ok := inst.TryGetDisplay(id)
	if !ok {
		t.Fatalf("display %s not found", id)
	}
	return d
}

func TestCreateDisplayWithSize_RoundTrip(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 320, 200)

	d := mustGet(t, inst, id)
	if got := d.Size(); got != (display.Size{Width: 320, Height: 200}) {
		t.Fatalf("expected 320x200, got %s", got)
	}
	if d.IsRedrawRequested() || d.ShouldClose() || len(d.MouseEvents()) != 0 {
		t.Fatalf("expected fresh display to have no transient state")
	}

	s := loop.Surface(id.Window())
	if s == nil || s.Config.Width != 320 || s.Config.Height != 200 {
		t.Fatalf("expected surface opened at 320x200, got %+v", s)
	}
	if s.Config.Title != DefaultTitle {
		t.Fatalf("expected default title %q, got %q", DefaultTitle, s.Config.Title)
	}
	if !s.Current {
		t.Fatalf("expected context to be current after creation")
	}
}

func TestCreateDisplay_DefaultSize(t *testing.T) {
	inst, _ := newTestInstance(t)
	id, err := inst.CreateDisplay()
	if err != nil {
		t.Fatalf("create display: %v", err)
	}
	if got := mustGet(t, inst, id).Size(); got != (display.Size{Width: 1280, Height: 960}) {
		t.Fatalf("expected 1280x960, got %s", got)
	}
}

func TestCreateDisplay_OptionsOverrideDefaults(t *testing.T) {
	inst, loop := newTestInstance(t, WithDefaultSize(800, 600), WithTitle("demo"))
	id, err := inst.CreateDisplay()
	if err != nil {
		t.Fatalf("create display: %v", err)
	}
	s := loop.Surface(id.Window())
	if s.Config.Width != 800 || s.Config.Height != 600 || s.Config.Title != "demo" {
		t.Fatalf("unexpected surface config %+v", s.Config)
	}
}

func TestCreateDisplay_SurfaceFailurePropagates(t *testing.T) {
	inst, loop := newTestInstance(t)
	loop.FailSurface = errors.New("glXCreateContext failed")

	_, err := inst.CreateDisplay()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "glXCreateContext failed") {
		t.Fatalf("expected wrapped platform error, got %v", err)
	}
	if inst.Len() != 0 {
		t.Fatalf("expected no display registered, got %d", inst.Len())
	}
}

func TestCreateDisplay_RejectsZeroSize(t *testing.T) {
	inst, loop := newTestInstance(t)
	if _, err := inst.CreateDisplayWithSize(0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if len(loop.Surfaces()) != 0 {
		t.Fatalf("expected no surface to be opened")
	}
}

func TestTryGetDisplay_UnknownID(t *testing.T) {
	inst, _ := newTestInstance(t)
	if _, ok := inst.TryGetDisplay(ID{window: 42}); ok {
		t.Fatalf("expected lookup miss for unknown id")
	}
}

func TestTryUpdate_ResizeKeepsLatest(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)
	w := id.Window()

	loop.Queue(
		window.Resized{Window: w, Width: 700, Height: 500},
		window.Resized{Window: w, Width: 710, Height: 510},
		window.Resized{Window: w, Width: 1024, Height: 768},
	)
	if !inst.TryUpdate() {
		t.Fatalf("expected TryUpdate to report open displays")
	}
	if got := mustGet(t, inst, id).Size(); got != (display.Size{Width: 1024, Height: 768}) {
		t.Fatalf("expected 1024x768, got %s", got)
	}

	// Size persists across cycles without resize events.
	inst.TryUpdate()
	if got := mustGet(t, inst, id).Size(); got != (display.Size{Width: 1024, Height: 768}) {
		t.Fatalf("expected size to persist, got %s", got)
	}
}

func TestTryUpdate_RedrawIsPerCycle(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)
	s := loop.Surface(id.Window())

	loop.Queue(window.RedrawRequested{Window: id.Window()})
	inst.TryUpdate()
	if !mustGet(t, inst, id).IsRedrawRequested() {
		t.Fatalf("expected redraw requested in the cycle that delivered it")
	}
	if s.Swaps != 1 {
		t.Fatalf("expected one buffer swap, got %d", s.Swaps)
	}

	inst.TryUpdate()
	if mustGet(t, inst, id).IsRedrawRequested() {
		t.Fatalf("expected redraw flag to reset on the next cycle")
	}
	if s.Swaps != 1 {
		t.Fatalf("expected no extra swap, got %d", s.Swaps)
	}
}

func TestTryUpdate_RequestsRedrawForLiveDisplays(t *testing.T) {
	inst, loop := newTestInstance(t)
	loop.AutoRedraw = true
	a := mustCreate(t, inst, 100, 100)
	b := mustCreate(t, inst, 100, 100)

	inst.TryUpdate()
	if mustGet(t, inst, a).IsRedrawRequested() {
		t.Fatalf("expected no redraw before one was requested")
	}
	for _, id := range []ID{a, b} {
		if got := loop.Surface(id.Window()).Redraws; got != 1 {
			t.Fatalf("expected one redraw request for %s, got %d", id, got)
		}
	}

	inst.TryUpdate()
	for _, id := range []ID{a, b} {
		if !mustGet(t, inst, id).IsRedrawRequested() {
			t.Fatalf("expected redraw for %s on the following cycle", id)
		}
	}
}

func TestTryUpdate_MouseMoveDedupe(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)
	w := id.Window()

	loop.Queue(window.CursorMoved{Window: w, X: 5, Y: 5}, window.CursorMoved{Window: w, X: 5, Y: 5})
	inst.TryUpdate()
	got := mustGet(t, inst, id).MouseEvents()
	if len(got) != 1 || got[0] != display.Moved(5, 5) {
		t.Fatalf("expected a single moved(5, 5), got %v", got)
	}

	loop.Queue(window.CursorMoved{Window: w, X: 5, Y: 5}, window.CursorMoved{Window: w, X: 6, Y: 5})
	inst.TryUpdate()
	got = mustGet(t, inst, id).MouseEvents()
	// The cursor is already at (5, 5) from the previous cycle.
	if len(got) != 1 || got[0] != display.Moved(6, 5) {
		t.Fatalf("expected only moved(6, 5), got %v", got)
	}

	loop.Queue(window.CursorMoved{Window: w, X: 1, Y: 1}, window.CursorMoved{Window: w, X: 2, Y: 1})
	inst.TryUpdate()
	got = mustGet(t, inst, id).MouseEvents()
	if len(got) != 2 || got[0] != display.Moved(1, 1) || got[1] != display.Moved(2, 1) {
		t.Fatalf("expected two moves, got %v", got)
	}
}

func TestTryUpdate_ButtonsUseLastCursorPosition(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)
	w := id.Window()

	loop.Queue(
		window.MouseInput{Window: w, State: window.Pressed, Button: window.ButtonLeft},
		window.CursorMoved{Window: w, X: 10, Y: 20},
		window.MouseInput{Window: w, State: window.Released, Button: window.ButtonLeft},
		window.MouseInput{Window: w, State: window.Pressed, Button: window.ButtonRight},
	)
	inst.TryUpdate()

	want := []display.MouseEvent{
		display.Pressed(0, 0, display.ButtonLeft),
		display.Moved(10, 20),
		display.Released(10, 20, display.ButtonLeft),
	}
	got := mustGet(t, inst, id).MouseEvents()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	x, y := mustGet(t, inst, id).CursorPosition()
	if x != 10 || y != 20 {
		t.Fatalf("expected cursor at (10, 20), got (%v, %v)", x, y)
	}
}

func TestTryUpdate_MouseEventsClearedEachCycle(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)

	loop.Queue(window.CursorMoved{Window: id.Window(), X: 3, Y: 4})
	inst.TryUpdate()
	if n := len(mustGet(t, inst, id).MouseEvents()); n != 1 {
		t.Fatalf("expected one event, got %d", n)
	}

	inst.TryUpdate()
	if n := len(mustGet(t, inst, id).MouseEvents()); n != 0 {
		t.Fatalf("expected events to clear on the next cycle, got %d", n)
	}
}

func TestMouseEvents_ReturnsCopy(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)

	loop.Queue(window.CursorMoved{Window: id.Window(), X: 3, Y: 4})
	inst.TryUpdate()

	d := mustGet(t, inst, id)
	events := d.MouseEvents()
	events[0] = display.Moved(99, 99)
	if got := d.MouseEvents()[0]; got != display.Moved(3, 4) {
		t.Fatalf("expected display state to be unaffected, got %v", got)
	}
}

func TestTryUpdate_CloseRemovesDisplay(t *testing.T) {
	inst, loop := newTestInstance(t)
	a := mustCreate(t, inst, 640, 480)
	b := mustCreate(t, inst, 640, 480)
	retained := mustGet(t, inst, a)

	loop.Queue(
		window.CloseRequested{Window: a.Window()},
		// Late events for a closed window are dropped.
		window.CursorMoved{Window: a.Window(), X: 1, Y: 1},
	)
	if !inst.TryUpdate() {
		t.Fatalf("expected TryUpdate to stay true while %s is open", b)
	}
	if _, ok := inst.TryGetDisplay(a); ok {
		t.Fatalf("expected %s to be gone", a)
	}
	if !retained.ShouldClose() {
		t.Fatalf("expected retained display to report ShouldClose")
	}
	if !loop.Surface(a.Window()).Closed {
		t.Fatalf("expected surface of %s to be destroyed in the same cycle", a)
	}
	if len(retained.MouseEvents()) != 0 {
		t.Fatalf("expected no events routed after close, got %v", retained.MouseEvents())
	}

	loop.Queue(window.CloseRequested{Window: b.Window()})
	if inst.TryUpdate() {
		t.Fatalf("expected TryUpdate to return false once no displays remain")
	}
	if inst.Err() != nil {
		t.Fatalf("expected clean shutdown, got %v", inst.Err())
	}
}

func TestTryUpdate_DisplaysAreIndependent(t *testing.T) {
	inst, loop := newTestInstance(t)
	a := mustCreate(t, inst, 100, 100)
	b := mustCreate(t, inst, 200, 200)

	loop.Queue(
		window.CursorMoved{Window: a.Window(), X: 1, Y: 1},
		window.Resized{Window: b.Window(), Width: 300, Height: 300},
		window.RedrawRequested{Window: a.Window()},
		window.MouseInput{Window: b.Window(), State: window.Pressed, Button: window.ButtonLeft},
	)
	inst.TryUpdate()

	da, db := mustGet(t, inst, a), mustGet(t, inst, b)
	if da.Size() != (display.Size{Width: 100, Height: 100}) || db.Size() != (display.Size{Width: 300, Height: 300}) {
		t.Fatalf("unexpected sizes %s and %s", da.Size(), db.Size())
	}
	if !da.IsRedrawRequested() || db.IsRedrawRequested() {
		t.Fatalf("expected redraw only on %s", a)
	}
	if got := da.MouseEvents(); len(got) != 1 || got[0] != display.Moved(1, 1) {
		t.Fatalf("unexpected events on %s: %v", a, got)
	}
	if got := db.MouseEvents(); len(got) != 1 || got[0] != display.Pressed(0, 0, display.ButtonLeft) {
		t.Fatalf("unexpected events on %s: %v", b, got)
	}
}

func TestTryUpdateDirectEventCallback_SeesEveryEvent(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)
	w := id.Window()

	sent := []window.Event{
		window.KeyInput{Window: w, Code: 38, State: window.Pressed},
		window.Focused{Window: w, Focused: true},
		window.CursorMoved{Window: w, X: 1, Y: 2},
		window.MouseInput{Window: w, State: window.Pressed, Button: window.ButtonMiddle},
		window.Resized{Window: 999, Width: 1, Height: 1},
		window.Destroyed{Window: w},
	}
	loop.Queue(sent...)

	var seen []RawEvent
	var sizeAtObserve display.Size
	inst.TryUpdateDirectEventCallback(func(ev RawEvent) {
		seen = append(seen, ev)
		if _, ok := ev.(CursorMoved); ok {
			sizeAtObserve = mustGet(t, inst, id).Size()
		}
	})

	if len(seen) != len(sent) {
		t.Fatalf("expected %d raw events, got %d", len(sent), len(seen))
	}
	for i := range sent {
		if seen[i] != sent[i] {
			t.Fatalf("event %d: expected %#v, got %#v", i, sent[i], seen[i])
		}
	}
	if sizeAtObserve != (display.Size{Width: 640, Height: 480}) {
		t.Fatalf("expected observer to run before routing, got %s", sizeAtObserve)
	}
	if got := mustGet(t, inst, id).MouseEvents(); len(got) != 1 {
		t.Fatalf("expected only the cursor move to be normalized, got %v", got)
	}
}

func TestTryUpdate_SwapFailureIsFatal(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)
	loop.Surface(id.Window()).FailSwap = errors.New("device lost")

	loop.Queue(window.RedrawRequested{Window: id.Window()})
	if inst.TryUpdate() {
		t.Fatalf("expected TryUpdate to fail")
	}
	if err := inst.Err(); err == nil || !strings.Contains(err.Error(), "device lost") {
		t.Fatalf("expected swap error, got %v", err)
	}

	pumps := loop.Pumps()
	if inst.TryUpdate() {
		t.Fatalf("expected TryUpdate to stay false after a fatal error")
	}
	if loop.Pumps() != pumps {
		t.Fatalf("expected no further pumping after a fatal error")
	}
}

func TestTryUpdate_FrameInterval(t *testing.T) {
	var slept []time.Duration
	inst, _ := newTestInstance(t, WithFrameInterval(DefaultFrameInterval), withSleep(func(d time.Duration) {
		slept = append(slept, d)
	}))
	mustCreate(t, inst, 10, 10)

	inst.TryUpdate()
	inst.TryUpdate()
	if len(slept) != 2 || slept[0] != 16*time.Millisecond {
		t.Fatalf("expected two 16ms pauses, got %v", slept)
	}
}

func TestTryUpdate_ZeroFrameIntervalDoesNotSleep(t *testing.T) {
	slept := false
	inst, _ := newTestInstance(t, withSleep(func(time.Duration) { slept = true }))
	mustCreate(t, inst, 10, 10)
	inst.TryUpdate()
	if slept {
		t.Fatalf("expected no pause with a zero interval")
	}
}

func TestTryUpdate_NoDisplays(t *testing.T) {
	inst, _ := newTestInstance(t)
	if inst.TryUpdate() {
		t.Fatalf("expected false with no displays")
	}
}

func TestListen_PushesSizeAndEvents(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)
	w := id.Window()

	loop.Queue(
		window.Resized{Window: w, Width: 800, Height: 600},
		window.CursorMoved{Window: w, X: 4, Y: 2},
		window.MouseInput{Window: w, State: window.Pressed, Button: window.ButtonLeft},
	)
	inst.TryUpdate()

	l := &recordingListener{}
	d := mustGet(t, inst, id)
	d.Listen(l)
	if l.size != (display.Size{Width: 800, Height: 600}) {
		t.Fatalf("expected 800x600, got %s", l.size)
	}
	if len(l.events) != 2 || l.events[1] != display.Pressed(4, 2, display.ButtonLeft) {
		t.Fatalf("unexpected events %v", l.events)
	}

	// Listening does not consume state.
	if len(d.MouseEvents()) != 2 {
		t.Fatalf("expected events to remain readable after Listen")
	}
}

type recordingListener struct {
	display.NopListener
	size   display.Size
	events []display.MouseEvent
}

func (l *recordingListener) OnResized(w, h uint32) {
	l.size = display.Size{Width: w, Height: h}
}

func (l *recordingListener) OnMouseOperated(ev display.MouseEvent) {
	l.events = append(l.events, ev)
}

func TestDisplay_ContextPassThrough(t *testing.T) {
	inst, loop := newTestInstance(t)
	a := mustCreate(t, inst, 10, 10)
	b := mustCreate(t, inst, 10, 10)

	da := mustGet(t, inst, a)
	if err := da.MakeCurrent(); err != nil {
		t.Fatalf("make current: %v", err)
	}
	if !loop.Surface(a.Window()).Current || loop.Surface(b.Window()).Current {
		t.Fatalf("expected only %s to be current", a)
	}
	if da.ProcAddress("glClear") == 0 {
		t.Fatalf("expected glClear to resolve")
	}
	if da.ProcAddress("bogus") != 0 {
		t.Fatalf("expected unknown symbol to resolve to 0")
	}
	if da.Scale() != 1 {
		t.Fatalf("expected scale 1, got %v", da.Scale())
	}
}

func TestClose_ReleasesEverything(t *testing.T) {
	inst, loop := newTestInstance(t)
	a := mustCreate(t, inst, 10, 10)
	inst.Close()

	if !loop.Closed() || !loop.Surface(a.Window()).Closed {
		t.Fatalf("expected loop and surface to be closed")
	}
	if inst.TryUpdate() {
		t.Fatalf("expected TryUpdate to be false after Close")
	}
	if _, err := inst.CreateDisplay(); err == nil {
		t.Fatalf("expected CreateDisplay to fail after Close")
	}
	inst.Close()
}

// End to end: resize then close a single display.
func TestEndToEnd_ResizeThenClose(t *testing.T) {
	inst, loop := newTestInstance(t)
	id := mustCreate(t, inst, 640, 480)

	loop.Queue(window.Resized{Window: id.Window(), Width: 800, Height: 600})
	if !inst.TryUpdate() {
		t.Fatalf("expected display to remain open")
	}
	if got := mustGet(t, inst, id).Size(); got != (display.Size{Width: 800, Height: 600}) {
		t.Fatalf("expected 800x600, got %s", got)
	}

	loop.Queue(window.CloseRequested{Window: id.Window()})
	if inst.TryUpdate() {
		t.Fatalf("expected TryUpdate to return false after the last close")
	}
	if _, ok := inst.TryGetDisplay(id); ok {
		t.Fatalf("expected lookup to miss after close")
	}
}

func TestID_NotReusedAfterClose(t *testing.T) {
	inst, loop := newTestInstance(t)
	a := mustCreate(t, inst, 10, 10)
	loop.Queue(window.CloseRequested{Window: a.Window()})
	inst.TryUpdate()

	b := mustCreate(t, inst, 10, 10)
	if a == b {
		t.Fatalf("expected a fresh id, got %s twice", a)
	}
	if _, ok := inst.TryGetDisplay(a); ok {
		t.Fatalf("expected old id to stay unknown")
	}
}
