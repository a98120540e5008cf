//go:build glfw && !js

package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwLoop is the portable backend selected with -tags glfw. GLFW delivers
// events through per-window callbacks during PollEvents; the loop queues
// them so Pump can hand them out in order.
type glfwLoop struct {
	ids      idAllocator
	surfaces map[*glfw.Window]*glfwSurface
	redraw   redrawQueue
	pending  []Event
	closed   bool
}

type glfwSurface struct {
	loop   *glfwLoop
	id     WindowID
	window *glfw.Window
}

func Open() (EventLoop, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	return &glfwLoop{surfaces: make(map[*glfw.Window]*glfwSurface)}, nil
}

func (l *glfwLoop) NewSurface(cfg Config) (Surface, error) {
	if l.closed {
		return nil, errors.New("event loop is closed")
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)

	win, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("glfw create window: %w", err)
	}
	win.MakeContextCurrent()

	s := &glfwSurface{loop: l, id: l.ids.allocate(), window: win}
	l.surfaces[win] = s
	s.installCallbacks()
	l.redraw.push(s.id)
	return s, nil
}

func (s *glfwSurface) installCallbacks() {
	l, id := s.loop, s.id
	emit := func(e Event) { l.pending = append(l.pending, e) }

	s.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		emit(Resized{Window: id, Width: uint32(width), Height: uint32(height)})
	})
	s.window.SetCloseCallback(func(w *glfw.Window) {
		// The owner decides when the window goes away.
		w.SetShouldClose(false)
		emit(CloseRequested{Window: id})
	})
	s.window.SetRefreshCallback(func(*glfw.Window) {
		l.redraw.push(id)
	})
	s.window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		state := Pressed
		if action == glfw.Release {
			state = Released
		}
		emit(MouseInput{Window: id, State: state, Button: glfwButton(button)})
	})
	s.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		emit(CursorMoved{Window: id, X: x, Y: y})
	})
	s.window.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if entered {
			emit(CursorEntered{Window: id})
		} else {
			emit(CursorLeft{Window: id})
		}
	})
	s.window.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		emit(Focused{Window: id, Focused: focused})
	})
	s.window.SetKeyCallback(func(_ *glfw.Window, _ glfw.Key, scancode int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Repeat {
			return
		}
		state := Pressed
		if action == glfw.Release {
			state = Released
		}
		emit(KeyInput{Window: id, Code: uint32(scancode), State: state})
	})
}

func glfwButton(b glfw.MouseButton) Button {
	switch b {
	case glfw.MouseButtonLeft:
		return ButtonLeft
	case glfw.MouseButtonRight:
		return ButtonRight
	case glfw.MouseButtonMiddle:
		return ButtonMiddle
	default:
		return ButtonOther
	}
}

func (l *glfwLoop) Pump(handle func(Event)) error {
	if l.closed {
		return errors.New("event loop is closed")
	}
	glfw.PollEvents()

	pending := l.pending
	l.pending = nil
	for _, e := range pending {
		handle(e)
	}
	l.redraw.flush(handle)
	return nil
}

func (l *glfwLoop) Close() {
	if l.closed {
		return
	}
	for _, s := range l.surfaces {
		s.Close()
	}
	l.closed = true
	glfw.Terminate()
	runtime.UnlockOSThread()
}

func (s *glfwSurface) ID() WindowID {
	return s.id
}

func (s *glfwSurface) MakeCurrent() error {
	if s.window == nil {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	s.window.MakeContextCurrent()
	return nil
}

func (s *glfwSurface) SwapBuffers() error {
	if s.window == nil {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	s.window.SwapBuffers()
	return nil
}

func (s *glfwSurface) RequestRedraw() {
	if s.window != nil {
		s.loop.redraw.push(s.id)
	}
}

func (s *glfwSurface) ProcAddress(name string) uintptr {
	return uintptr(glfw.GetProcAddress(name))
}

func (s *glfwSurface) Scale() float32 {
	if s.window == nil {
		return 1.0
	}
	x, _ := s.window.GetContentScale()
	return x
}

func (s *glfwSurface) Close() {
	if s.window == nil {
		return
	}
	delete(s.loop.surfaces, s.window)
	s.window.Destroy()
	s.window = nil
	s.loop.redraw.forget(s.id)
}
