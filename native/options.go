//go:build !js

package native

import (
	"log/slog"
	"time"

	"github.com/tinyrange/glwin/internal/window"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 960
	DefaultTitle  = "glwin"

	// DefaultFrameInterval caps polling at roughly 60 updates per second.
	// It is a fixed pause, not derived from the monitor's refresh rate.
	DefaultFrameInterval = 16 * time.Millisecond
)

// Option configures an Instance.
type Option func(*options)

type options struct {
	title         string
	width, height uint32
	frameInterval time.Duration
	logger        *slog.Logger

	loop  window.EventLoop
	sleep func(time.Duration)
}

// WithTitle sets the window title used for new displays.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithDefaultSize sets the size CreateDisplay uses.
func WithDefaultSize(width, height uint32) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithFrameInterval sets the pause at the end of every TryUpdate. Zero
// disables it.
func WithFrameInterval(d time.Duration) Option {
	return func(o *options) {
		o.frameInterval = d
	}
}

// WithLogger sets the logger for lifecycle and diagnostic messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func withEventLoop(loop window.EventLoop) Option {
	return func(o *options) {
		o.loop = loop
	}
}

func withSleep(sleep func(time.Duration)) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		title:         DefaultTitle,
		width:         DefaultWidth,
		height:        DefaultHeight,
		frameInterval: DefaultFrameInterval,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
