//go:build !js

// Package native implements display.Instance on desktop platforms.
//
// The Instance pumps the platform event loop once per TryUpdate, routing
// every event to the display that owns its window. Redraw, resize, close,
// left-button and cursor events are normalized; everything else is only
// visible through TryUpdateDirectEventCallback.
//
// The observer sees the platform layer's typed events, not raw OS messages.
// Expose and paint notifications arrive folded into RedrawRequested, window
// destruction as Destroyed, and messages for windows the instance does not
// own are dropped before translation.
//
// An Instance is not safe for concurrent use. Create it, and call every
// method, from the same goroutine; the platform loop pins that goroutine to
// its OS thread.
package native

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyrange/glwin/display"
	"github.com/tinyrange/glwin/internal/window"
)

// ID names a display. IDs are never reused after their window closes.
type ID struct {
	window window.WindowID
}

// Window returns the platform window id, for matching raw events.
func (id ID) Window() WindowID {
	return id.window
}

func (id ID) String() string {
	return id.window.String()
}

type Instance struct {
	loop     window.EventLoop
	displays map[ID]*Display
	opts     *options
	log      *slog.Logger
	err      error
	closed   bool
}

var _ display.Instance[ID, *Display] = (*Instance)(nil)

// New opens the platform event loop.
func New(opts ...Option) (*Instance, error) {
	o := applyOptions(opts)

	loop := o.loop
	if loop == nil {
		var err error
		if loop, err = window.Open(); err != nil {
			return nil, fmt.Errorf("open event loop: %w", err)
		}
	}

	return &Instance{
		loop:     loop,
		displays: make(map[ID]*Display),
		opts:     o,
		log:      o.logger,
	}, nil
}

// CreateDisplay opens a window of the default size, 1280x960 unless changed
// with WithDefaultSize.
func (i *Instance) CreateDisplay() (ID, error) {
	return i.CreateDisplayWithSize(i.opts.width, i.opts.height)
}

// CreateDisplayWithSize opens a window with a current GL context. Failures
// are not retried.
func (i *Instance) CreateDisplayWithSize(width, height uint32) (ID, error) {
	if i.closed {
		return ID{}, errors.New("create display: instance is closed")
	}
	if width == 0 || height == 0 {
		return ID{}, fmt.Errorf("create display: invalid size %dx%d", width, height)
	}

	surface, err := i.loop.NewSurface(window.Config{
		Title:  i.opts.title,
		Width:  width,
		Height: height,
	})
	if err != nil {
		return ID{}, fmt.Errorf("create display: %w", err)
	}

	id := ID{window: surface.ID()}
	i.displays[id] = newDisplay(surface, width, height)
	i.log.Info("display created", "id", id, "width", width, "height", height)
	return id, nil
}

// TryGetDisplay looks up a live display.
func (i *Instance) TryGetDisplay(id ID) (*Display, bool) {
	d, ok := i.displays[id]
	return d, ok
}

// Len returns the number of open displays.
func (i *Instance) Len() int {
	return len(i.displays)
}

// TryUpdate runs one update cycle. It returns false once every display has
// closed, or after a fatal platform error reported by Err.
func (i *Instance) TryUpdate() bool {
	return i.TryUpdateDirectEventCallback(nil)
}

// TryUpdateDirectEventCallback is TryUpdate with an observer that sees every
// translated platform event for an owned window, including those the
// instance ignores, before it is routed.
func (i *Instance) TryUpdateDirectEventCallback(observe func(RawEvent)) bool {
	if i.err != nil || i.closed {
		return false
	}

	for _, d := range i.displays {
		d.resetCycle()
	}

	err := i.loop.Pump(func(ev window.Event) {
		if observe != nil {
			observe(ev)
		}
		if i.err == nil {
			i.route(ev)
		}
	})
	if err != nil && i.err == nil {
		i.err = fmt.Errorf("pump events: %w", err)
	}
	if i.err != nil {
		i.log.Error("update failed", "err", i.err)
		return false
	}

	for _, d := range i.displays {
		d.surface.RequestRedraw()
	}
	if i.opts.frameInterval > 0 {
		i.opts.sleep(i.opts.frameInterval)
	}
	return len(i.displays) > 0
}

func (i *Instance) route(ev window.Event) {
	id := ID{window: ev.WindowID()}
	d, ok := i.displays[id]
	if !ok {
		return
	}

	switch e := ev.(type) {
	case window.RedrawRequested:
		if err := d.surface.SwapBuffers(); err != nil {
			i.err = fmt.Errorf("swap buffers for %s: %w", id, err)
			return
		}
		d.redrawRequested = true
	case window.Resized:
		d.size = display.Size{Width: e.Width, Height: e.Height}
	case window.CloseRequested:
		i.remove(id, d)
	case window.MouseInput:
		if e.Button != window.ButtonLeft {
			return
		}
		if e.State == window.Pressed {
			d.press(display.ButtonLeft)
		} else {
			d.release(display.ButtonLeft)
		}
	case window.CursorMoved:
		d.moveCursor(e.X, e.Y)
	default:
		i.log.Debug("event ignored", "id", id, "event", fmt.Sprintf("%T", ev))
	}
}

// remove destroys the display's window in the same cycle it is dropped from
// the map.
func (i *Instance) remove(id ID, d *Display) {
	d.closeRequested = true
	delete(i.displays, id)
	d.surface.Close()
	i.log.Info("display closed", "id", id, "remaining", len(i.displays))
}

// Err returns the error that stopped TryUpdate, if any.
func (i *Instance) Err() error {
	return i.err
}

// Close destroys every remaining display and releases the event loop.
func (i *Instance) Close() {
	if i.closed {
		return
	}
	for id, d := range i.displays {
		delete(i.displays, id)
		d.surface.Close()
	}
	i.loop.Close()
	i.closed = true
}
