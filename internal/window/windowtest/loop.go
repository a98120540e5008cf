// Package windowtest provides a scripted window.EventLoop for exercising
// event routing without a display server.
package windowtest

import (
	"errors"
	"fmt"

	"github.com/tinyrange/glwin/internal/window"
)

// Loop is an in-memory window.EventLoop. Events queued with Queue are handed
// out by the next Pump, in order, followed by a RedrawRequested for every
// surface whose RequestRedraw was called when AutoRedraw is set.
type Loop struct {
	// AutoRedraw makes RequestRedraw behave like a real platform, which
	// answers every request on the following pump.
	AutoRedraw bool

	// FailSurface, when set, is returned by the next NewSurface call.
	FailSurface error

	nextID   window.WindowID
	queued   []window.Event
	redraws  []window.WindowID
	surfaces map[window.WindowID]*Surface
	created  []*Surface
	pumps    int
	closed   bool
}

// New returns an empty loop.
func New() *Loop {
	return &Loop{surfaces: make(map[window.WindowID]*Surface)}
}

func (l *Loop) NewSurface(cfg window.Config) (window.Surface, error) {
	if l.closed {
		return nil, errors.New("event loop is closed")
	}
	if err := l.FailSurface; err != nil {
		l.FailSurface = nil
		return nil, err
	}
	l.nextID++
	s := &Surface{loop: l, id: l.nextID, Config: cfg, Current: true}
	for _, other := range l.surfaces {
		other.Current = false
	}
	l.surfaces[s.id] = s
	l.created = append(l.created, s)
	return s, nil
}

// Queue schedules events for the next Pump.
func (l *Loop) Queue(events ...window.Event) {
	l.queued = append(l.queued, events...)
}

func (l *Loop) Pump(handle func(window.Event)) error {
	if l.closed {
		return errors.New("event loop is closed")
	}
	l.pumps++

	queued := l.queued
	l.queued = nil
	for _, e := range queued {
		handle(e)
	}

	redraws := l.redraws
	l.redraws = nil
	for _, id := range redraws {
		if _, ok := l.surfaces[id]; ok {
			handle(window.RedrawRequested{Window: id})
		}
	}
	return nil
}

func (l *Loop) Close() {
	for _, s := range l.surfaces {
		s.Close()
	}
	l.closed = true
}

// Pumps reports how many times Pump ran.
func (l *Loop) Pumps() int {
	return l.pumps
}

// Closed reports whether Close was called.
func (l *Loop) Closed() bool {
	return l.closed
}

// Surface returns the surface created with the given id, open or closed.
func (l *Loop) Surface(id window.WindowID) *Surface {
	for _, s := range l.created {
		if s.id == id {
			return s
		}
	}
	return nil
}

// Surfaces returns every surface created so far, in creation order.
func (l *Loop) Surfaces() []*Surface {
	return append([]*Surface(nil), l.created...)
}

// Surface records what the core did with a window.
type Surface struct {
	loop *Loop
	id   window.WindowID

	Config   window.Config
	Current  bool
	Swaps    int
	Redraws  int
	Closed   bool
	ScaleVal float32

	// FailSwap, when set, is returned by every SwapBuffers call.
	FailSwap error
}

func (s *Surface) ID() window.WindowID {
	return s.id
}

func (s *Surface) MakeCurrent() error {
	if s.Closed {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	for _, other := range s.loop.surfaces {
		other.Current = false
	}
	s.Current = true
	return nil
}

func (s *Surface) SwapBuffers() error {
	if s.Closed {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	if s.FailSwap != nil {
		return s.FailSwap
	}
	s.Swaps++
	return nil
}

func (s *Surface) RequestRedraw() {
	if s.Closed {
		return
	}
	s.Redraws++
	if s.loop.AutoRedraw {
		s.loop.redraws = append(s.loop.redraws, s.id)
	}
}

// ProcAddress returns a non-zero fake address for names starting with "gl".
func (s *Surface) ProcAddress(name string) uintptr {
	if len(name) < 2 || name[:2] != "gl" {
		return 0
	}
	return uintptr(0x1000 + len(name))
}

func (s *Surface) Scale() float32 {
	if s.ScaleVal == 0 {
		return 1
	}
	return s.ScaleVal
}

func (s *Surface) Close() {
	if s.Closed {
		return
	}
	s.Closed = true
	s.Current = false
	delete(s.loop.surfaces, s.id)
}
