//go:build linux && !glfw

package window

import (
	"testing"
	"unsafe"
)

// stubGLX replaces the X11 and GLX entry points used by x11Surface.Close and
// restores them when the test ends.
func stubGLX(t *testing.T, current *uintptr) (unbinds, destroyed *int) {
	t.Helper()
	getCurrent, makeCurrent, destroyContext := glxGetCurrentContext, glxMakeCurrent, glxDestroyContext
	destroyWindow, flush := xDestroyWindow, xFlush
	t.Cleanup(func() {
		glxGetCurrentContext, glxMakeCurrent, glxDestroyContext = getCurrent, makeCurrent, destroyContext
		xDestroyWindow, xFlush = destroyWindow, flush
	})

	unbinds, destroyed = new(int), new(int)
	glxGetCurrentContext = func() uintptr { return *current }
	glxMakeCurrent = func(_, _, ctx uintptr) int32 {
		if ctx == 0 {
			*unbinds++
		}
		*current = ctx
		return 1
	}
	glxDestroyContext = func(uintptr, uintptr) { *destroyed++ }
	xDestroyWindow = func(uintptr, uintptr) int32 { return 1 }
	xFlush = func(uintptr) int32 { return 1 }
	return unbinds, destroyed
}

func newStubSurfaces(l *x11Loop, n int) []*x11Surface {
	var out []*x11Surface
	for i := 0; i < n; i++ {
		s := &x11Surface{loop: l, id: l.ids.allocate(), window: uintptr(0x100 + i), ctx: uintptr(0x200 + i)}
		l.surfaces[s.window] = s
		out = append(out, s)
	}
	return out
}

func TestX11SurfaceClose_KeepsOtherContextCurrent(t *testing.T) {
	l := &x11Loop{display: 1, surfaces: make(map[uintptr]*x11Surface)}
	surfaces := newStubSurfaces(l, 2)
	a, b := surfaces[0], surfaces[1]

	current := b.ctx
	unbinds, destroyed := stubGLX(t, &current)

	a.Close()
	if *unbinds != 0 {
		t.Fatalf("expected the live context to stay bound, got %d unbinds", *unbinds)
	}
	if current != b.ctx {
		t.Fatalf("expected %#x current, got %#x", b.ctx, current)
	}
	if *destroyed != 1 || a.ctx != 0 || a.window != 0 {
		t.Fatalf("expected closed surface to release its context and window")
	}
	if _, ok := l.surfaces[0x100]; ok {
		t.Fatalf("expected closed surface to leave the loop")
	}
}

func TestX11SurfaceClose_UnbindsOwnContext(t *testing.T) {
	l := &x11Loop{display: 1, surfaces: make(map[uintptr]*x11Surface)}
	a := newStubSurfaces(l, 1)[0]

	current := a.ctx
	unbinds, _ := stubGLX(t, &current)

	a.Close()
	if *unbinds != 1 || current != 0 {
		t.Fatalf("expected own context to be released, got %d unbinds and %#x current", *unbinds, current)
	}

	// Closing twice is a no-op.
	a.Close()
	if *unbinds != 1 {
		t.Fatalf("expected no further unbinds, got %d", *unbinds)
	}
}

func TestX11Translate_DestroyNotify(t *testing.T) {
	l := &x11Loop{display: 1, surfaces: make(map[uintptr]*x11Surface)}
	s := newStubSurfaces(l, 1)[0]

	var buf [192]byte
	ev := (*xDestroyWindowEvent)(unsafe.Pointer(&buf[0]))
	ev.Type = xDestroyNotify
	ev.Event = s.window
	ev.Window = s.window
	if got := l.translate(unsafe.Pointer(&buf[0])); got != (Destroyed{Window: s.id}) {
		t.Fatalf("expected Destroyed for %s, got %#v", s.id, got)
	}

	// A window the loop already forgot is not reported.
	ev.Window = 0x999
	if got := l.translate(unsafe.Pointer(&buf[0])); got != nil {
		t.Fatalf("expected nothing for an unknown window, got %#v", got)
	}
}

func TestX11Translate_ExposeBecomesRedraw(t *testing.T) {
	l := &x11Loop{display: 1, surfaces: make(map[uintptr]*x11Surface)}
	s := newStubSurfaces(l, 1)[0]

	var buf [192]byte
	ev := (*xExposeEvent)(unsafe.Pointer(&buf[0]))
	ev.Type = xExpose
	ev.Window = s.window
	ev.Count = 1
	if got := l.translate(unsafe.Pointer(&buf[0])); got != nil {
		t.Fatalf("expected expose to produce no direct event, got %#v", got)
	}
	// Two final exposes in one drain collapse into one redraw.
	ev.Count = 0
	l.translate(unsafe.Pointer(&buf[0]))
	l.translate(unsafe.Pointer(&buf[0]))

	var got []Event
	l.redraw.flush(func(e Event) { got = append(got, e) })
	if len(got) != 1 || got[0] != (RedrawRequested{Window: s.id}) {
		t.Fatalf("expected one RedrawRequested for %s, got %v", s.id, got)
	}
}
