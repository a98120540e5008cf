//go:build js && wasm

// Package web implements display.Instance on a browser canvas.
//
// The page must already contain the canvas element. There is exactly one
// display for the lifetime of the program, and the browser's frame loop
// (requestAnimationFrame) drives drawing, so TryUpdate never reports new
// events.
package web

import (
	"errors"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/tinyrange/glwin/display"
)

const (
	DefaultCanvasID    = "canvas"
	DefaultContextType = "webgl2"
)

type Option func(*options)

type options struct {
	canvasID    string
	contextType string
	logger      *slog.Logger
	document    js.Value
}

// WithCanvasID selects the canvas element by id.
func WithCanvasID(id string) Option {
	return func(o *options) {
		o.canvasID = id
	}
}

// WithContextType sets the context requested with getContext, such as
// "webgl2" or "webgl".
func WithContextType(kind string) Option {
	return func(o *options) {
		o.contextType = kind
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func withDocument(doc js.Value) Option {
	return func(o *options) {
		o.document = doc
	}
}

// ID is the id of the canvas element backing a display.
type ID struct {
	id string
}

func (id ID) String() string {
	return id.id
}

type Instance struct {
	opts    *options
	log     *slog.Logger
	display *Display
}

var _ display.Instance[ID, *Display] = (*Instance)(nil)

func New(opts ...Option) *Instance {
	o := &options{
		canvasID:    DefaultCanvasID,
		contextType: DefaultContextType,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.document.IsUndefined() {
		o.document = js.Global().Get("document")
	}
	return &Instance{opts: o, log: o.logger}
}

// CreateDisplay binds the canvas and its rendering context at the canvas's
// current size. Later calls return the same display.
func (i *Instance) CreateDisplay() (ID, error) {
	return i.create(nil)
}

// CreateDisplayWithSize is CreateDisplay that also sets the canvas's
// drawing-buffer size.
func (i *Instance) CreateDisplayWithSize(width, height uint32) (ID, error) {
	if width == 0 || height == 0 {
		return ID{}, fmt.Errorf("create display: invalid size %dx%d", width, height)
	}
	return i.create(&display.Size{Width: width, Height: height})
}

func (i *Instance) create(size *display.Size) (ID, error) {
	id := ID{id: i.opts.canvasID}
	if i.display != nil {
		if size != nil {
			i.display.resize(*size)
		}
		return id, nil
	}

	doc := i.opts.document
	if doc.IsUndefined() || doc.IsNull() {
		return ID{}, errors.New("create display: no document")
	}
	canvas := doc.Call("getElementById", id.id)
	if canvas.IsNull() || canvas.IsUndefined() {
		return ID{}, fmt.Errorf("create display: no element with id %q", id.id)
	}
	if size != nil {
		canvas.Set("width", size.Width)
		canvas.Set("height", size.Height)
	}
	ctx := canvas.Call("getContext", i.opts.contextType)
	if ctx.IsNull() || ctx.IsUndefined() {
		return ID{}, fmt.Errorf("create display: %s is not supported by %q", i.opts.contextType, id.id)
	}

	i.display = &Display{canvas: canvas, ctx: ctx}
	i.log.Info("display created", "id", id, "context", i.opts.contextType, "size", i.display.Size())
	return id, nil
}

func (i *Instance) TryGetDisplay(id ID) (*Display, bool) {
	if i.display == nil || id.id != i.opts.canvasID {
		return nil, false
	}
	return i.display, true
}

// TryUpdate does nothing and returns false; the browser owns the loop.
func (i *Instance) TryUpdate() bool {
	return false
}

// Display is the canvas and its rendering context.
type Display struct {
	canvas js.Value
	ctx    js.Value
}

var _ display.Display = (*Display)(nil)

// Size reads the canvas's drawing-buffer size.
func (d *Display) Size() display.Size {
	return display.Size{
		Width:  uint32(d.canvas.Get("width").Int()),
		Height: uint32(d.canvas.Get("height").Int()),
	}
}

// IsRedrawRequested is always true: a canvas can be drawn at any time.
func (d *Display) IsRedrawRequested() bool {
	return true
}

func (d *Display) ShouldClose() bool {
	return false
}

// MouseEvents is always empty; input is left to DOM listeners.
func (d *Display) MouseEvents() []display.MouseEvent {
	return nil
}

func (d *Display) Listen(l display.EventListener) {
	display.Notify(l, d.Size(), nil)
}

// Canvas returns the HTMLCanvasElement.
func (d *Display) Canvas() js.Value {
	return d.canvas
}

// Context returns the rendering context, a WebGL2RenderingContext by default.
func (d *Display) Context() js.Value {
	return d.ctx
}

func (d *Display) resize(size display.Size) {
	d.canvas.Set("width", size.Width)
	d.canvas.Set("height", size.Height)
}
