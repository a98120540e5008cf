//go:build darwin && !glfw

// Cocoa + NSOpenGL without cgo, using purego. The loop keeps control of the
// run loop so callers can drive rendering manually.
package window

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

// NS geometry mirrors (keep alignment explicit).
type NSPoint struct {
	X float64
	Y float64
}

type NSSize struct {
	W float64
	H float64
}

type NSRect struct {
	Origin NSPoint
	Size   NSSize
}

// Cocoa constants (subset).
const (
	nsApplicationActivationPolicyRegular = 0

	nsWindowStyleTitled      = 1 << 0
	nsWindowStyleClosable    = 1 << 1
	nsWindowStyleMiniaturize = 1 << 2
	nsWindowStyleResizable   = 1 << 3

	nsBackingStoreBuffered = 2

	nsEventMaskAny = ^uint(0)

	nsEventTypeLeftMouseDown     = 1
	nsEventTypeLeftMouseUp       = 2
	nsEventTypeRightMouseDown    = 3
	nsEventTypeRightMouseUp      = 4
	nsEventTypeMouseMoved        = 5
	nsEventTypeLeftMouseDragged  = 6
	nsEventTypeRightMouseDragged = 7
	nsEventTypeMouseEntered      = 8
	nsEventTypeMouseExited       = 9
	nsEventTypeKeyDown           = 10
	nsEventTypeKeyUp             = 11
	nsEventTypeOtherMouseDown    = 25
	nsEventTypeOtherMouseUp      = 26
	nsEventTypeOtherMouseDragged = 27

	// NSOpenGL pixel format attributes.
	nsOpenGLPFAAccelerated       = 73
	nsOpenGLPFADoubleBuffer      = 5
	nsOpenGLPFAColorSize         = 8
	nsOpenGLPFADepthSize         = 12
	nsOpenGLPFAOpenGLProfile     = 99
	nsOpenGLProfileVersionLegacy = 0x1000

	nsOpenGLCPSwapInterval = 222
)

var (
	initOnce sync.Once
	initErr  error

	openGLFramework uintptr

	// CoreFoundation.
	cfRunLoopRunInMode func(uintptr, float64, bool) int32
	cfDefaultMode      uintptr

	// Cached selectors.
	selAlloc                 objc.SEL
	selInit                  objc.SEL
	selRelease               objc.SEL
	selClose                 objc.SEL
	selSharedApplication     objc.SEL
	selNextEventMatchingMask objc.SEL
	selSetActivationPolicy   objc.SEL
	selFinishLaunching       objc.SEL
	selStringWithUTF8String  objc.SEL
	selInitWithContentRect   objc.SEL
	selMakeKeyAndOrderFront  objc.SEL
	selSetTitle              objc.SEL
	selSetAcceptsMouseMoved  objc.SEL
	selSetReleasedWhenClosed objc.SEL
	selCenter                objc.SEL
	selContentView           objc.SEL
	selBounds                objc.SEL
	selConvertRectToBacking  objc.SEL
	selIsVisible             objc.SEL
	selIsMiniaturized        objc.SEL
	selIsHidden              objc.SEL
	selIsKeyWindow           objc.SEL
	selSendEvent             objc.SEL
	selFlushBuffer           objc.SEL
	selUpdate                objc.SEL
	selSetView               objc.SEL
	selMakeCurrentContext    objc.SEL
	selClearCurrentContext   objc.SEL
	selInitWithAttributes    objc.SEL
	selInitWithFormat        objc.SEL
	selSetValuesForParameter objc.SEL
	selBackingScaleFactor    objc.SEL
	selType                  objc.SEL
	selWindow                objc.SEL
	selLocationInWindow      objc.SEL
	selKeyCode               objc.SEL
)

type cocoaLoop struct {
	app  objc.ID
	pool objc.ID

	ids      idAllocator
	surfaces map[objc.ID]*cocoaSurface
	redraw   redrawQueue
}

type cocoaSurface struct {
	loop   *cocoaLoop
	id     WindowID
	window objc.ID
	view   objc.ID
	ctx    objc.ID

	width, height uint32
	focused       bool
	closeSignaled bool
}

// Open boots NSApplication once and returns a loop that owns its event queue.
func Open() (EventLoop, error) {
	runtime.LockOSThread()
	if err := ensureRuntime(); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	app := objc.ID(objc.GetClass("NSApplication")).Send(selSharedApplication)
	if app == 0 {
		runtime.UnlockOSThread()
		return nil, errors.New("nsapplication unavailable")
	}
	app.Send(selSetActivationPolicy, nsApplicationActivationPolicyRegular)
	app.Send(selFinishLaunching)

	pool := objc.ID(objc.GetClass("NSAutoreleasePool")).Send(selAlloc)
	pool = pool.Send(selInit)

	return &cocoaLoop{
		app:      app,
		pool:     pool,
		surfaces: make(map[objc.ID]*cocoaSurface),
	}, nil
}

func (l *cocoaLoop) NewSurface(cfg Config) (Surface, error) {
	if l.app == 0 {
		return nil, errors.New("event loop is closed")
	}
	s := &cocoaSurface{loop: l, id: l.ids.allocate()}
	if err := s.makeWindow(cfg); err != nil {
		return nil, err
	}
	if err := s.makeGLContext(); err != nil {
		s.window.Send(selRelease)
		return nil, err
	}
	s.width, s.height = s.backingSize()
	l.surfaces[s.window] = s
	// Cocoa has no initial expose, so the first frame is requested here.
	l.redraw.push(s.id)
	return s, nil
}

// Pump drains one slice of the run loop without blocking, forwards every
// pending NSEvent to the application and then diffs window state that Cocoa
// only reports through delegates.
func (l *cocoaLoop) Pump(handle func(Event)) error {
	if l.app == 0 {
		return errors.New("event loop is closed")
	}

	cfRunLoopRunInMode(cfDefaultMode, 0, true)
	for {
		ev := objc.Send[objc.ID](l.app, selNextEventMatchingMask, nsEventMaskAny, objc.ID(0), objc.ID(cfDefaultMode), true)
		if ev == 0 {
			break
		}
		if e := l.translate(ev); e != nil {
			handle(e)
		}
		l.app.Send(selSendEvent, ev)
	}

	for _, s := range l.surfaces {
		s.diff(handle)
	}
	l.redraw.flush(handle)
	return nil
}

func (l *cocoaLoop) translate(ev objc.ID) Event {
	s, ok := l.surfaces[objc.Send[objc.ID](ev, selWindow)]
	if !ok {
		return nil
	}

	switch t := objc.Send[uint](ev, selType); t {
	case nsEventTypeLeftMouseDown, nsEventTypeRightMouseDown, nsEventTypeOtherMouseDown:
		return MouseInput{Window: s.id, State: Pressed, Button: cocoaButton(t)}
	case nsEventTypeLeftMouseUp, nsEventTypeRightMouseUp, nsEventTypeOtherMouseUp:
		return MouseInput{Window: s.id, State: Released, Button: cocoaButton(t)}
	case nsEventTypeMouseMoved, nsEventTypeLeftMouseDragged, nsEventTypeRightMouseDragged, nsEventTypeOtherMouseDragged:
		x, y := s.toBacking(objc.Send[NSPoint](ev, selLocationInWindow))
		return CursorMoved{Window: s.id, X: x, Y: y}
	case nsEventTypeMouseEntered:
		return CursorEntered{Window: s.id}
	case nsEventTypeMouseExited:
		return CursorLeft{Window: s.id}
	case nsEventTypeKeyDown, nsEventTypeKeyUp:
		state := Pressed
		if t == nsEventTypeKeyUp {
			state = Released
		}
		return KeyInput{Window: s.id, Code: uint32(objc.Send[uint16](ev, selKeyCode)), State: state}
	}
	return nil
}

func cocoaButton(eventType uint) Button {
	switch eventType {
	case nsEventTypeLeftMouseDown, nsEventTypeLeftMouseUp:
		return ButtonLeft
	case nsEventTypeRightMouseDown, nsEventTypeRightMouseUp:
		return ButtonRight
	default:
		return ButtonOther
	}
}

func (l *cocoaLoop) Close() {
	if l.app == 0 {
		return
	}
	for _, s := range l.surfaces {
		s.Close()
	}
	if l.pool != 0 {
		l.pool.Send(selRelease)
		l.pool = 0
	}
	l.app = 0
	runtime.UnlockOSThread()
}

// diff reports resize, focus and close transitions since the previous pump.
func (s *cocoaSurface) diff(handle func(Event)) {
	v := s.pollVisibility()
	if v.closed() {
		if !s.closeSignaled {
			s.closeSignaled = true
			handle(CloseRequested{Window: s.id})
		}
		return
	}
	if !v.shown() {
		return
	}

	if w, h := s.backingSize(); w != s.width || h != s.height {
		s.width, s.height = w, h
		s.ctx.Send(selUpdate)
		handle(Resized{Window: s.id, Width: w, Height: h})
		s.loop.redraw.push(s.id)
	}

	if focused := objc.Send[bool](s.window, selIsKeyWindow); focused != s.focused {
		s.focused = focused
		handle(Focused{Window: s.id, Focused: focused})
	}
}

func (s *cocoaSurface) pollVisibility() visibility {
	return visibility{
		Visible:      objc.Send[bool](s.window, selIsVisible),
		Miniaturized: objc.Send[bool](s.window, selIsMiniaturized),
		AppHidden:    objc.Send[bool](s.loop.app, selIsHidden),
	}
}

func (s *cocoaSurface) ID() WindowID {
	return s.id
}

func (s *cocoaSurface) MakeCurrent() error {
	if s.ctx == 0 {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	s.ctx.Send(selMakeCurrentContext)
	return nil
}

// SwapBuffers presents the back buffer.
func (s *cocoaSurface) SwapBuffers() error {
	if s.ctx == 0 {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	s.ctx.Send(selFlushBuffer)
	return nil
}

func (s *cocoaSurface) RequestRedraw() {
	if s.window != 0 {
		s.loop.redraw.push(s.id)
	}
}

func (s *cocoaSurface) ProcAddress(name string) uintptr {
	addr, err := purego.Dlsym(openGLFramework, name)
	if err != nil {
		return 0
	}
	return addr
}

func (s *cocoaSurface) Scale() float32 {
	if s.window == 0 {
		return 1.0
	}
	return float32(objc.Send[float64](s.window, selBackingScaleFactor))
}

// Close tears down the GL context and window.
func (s *cocoaSurface) Close() {
	if s.ctx != 0 {
		objc.ID(objc.GetClass("NSOpenGLContext")).Send(selClearCurrentContext)
		s.ctx.Send(selRelease)
		s.ctx = 0
	}
	if s.window != 0 {
		delete(s.loop.surfaces, s.window)
		if !s.closeSignaled {
			s.window.Send(selClose)
		}
		s.window.Send(selRelease)
		s.window = 0
		s.view = 0
	}
	s.loop.redraw.forget(s.id)
}

func (s *cocoaSurface) makeWindow(cfg Config) error {
	frame := NSRect{
		Origin: NSPoint{X: 100, Y: 100},
		Size:   NSSize{W: float64(cfg.Width), H: float64(cfg.Height)},
	}

	style := uint(nsWindowStyleTitled | nsWindowStyleClosable | nsWindowStyleMiniaturize | nsWindowStyleResizable)
	backing := uint(nsBackingStoreBuffered)

	win := objc.ID(objc.GetClass("NSWindow")).Send(selAlloc)
	win = win.Send(selInitWithContentRect, frame, style, backing, false)
	if win == 0 {
		return errors.New("failed to create nswindow")
	}

	win.Send(selCenter)
	win.Send(selSetAcceptsMouseMoved, 1)
	win.Send(selSetReleasedWhenClosed, 0)
	win.Send(selSetTitle, nsString(cfg.Title))
	win.Send(selMakeKeyAndOrderFront, objc.ID(0))

	s.window = win
	s.view = win.Send(selContentView)
	if s.view == 0 {
		win.Send(selRelease)
		s.window = 0
		return errors.New("window missing content view")
	}
	return nil
}

func (s *cocoaSurface) makeGLContext() error {
	attrs := []uint32{
		nsOpenGLPFAAccelerated,
		nsOpenGLPFADoubleBuffer,
		nsOpenGLPFAColorSize, 24,
		nsOpenGLPFADepthSize, 24,
		nsOpenGLPFAOpenGLProfile, nsOpenGLProfileVersionLegacy,
		0,
	}

	pf := objc.ID(objc.GetClass("NSOpenGLPixelFormat")).Send(selAlloc)
	pf = pf.Send(selInitWithAttributes, unsafe.Pointer(&attrs[0]))
	if pf == 0 {
		return errors.New("failed to create pixel format")
	}
	defer pf.Send(selRelease)

	ctx := objc.ID(objc.GetClass("NSOpenGLContext")).Send(selAlloc)
	ctx = ctx.Send(selInitWithFormat, pf, objc.ID(0))
	if ctx == 0 {
		return errors.New("failed to create gl context")
	}

	ctx.Send(selSetView, s.view)
	ctx.Send(selMakeCurrentContext)

	// Enable vsync.
	swap := int32(1)
	ctx.Send(selSetValuesForParameter, unsafe.Pointer(&swap), nsOpenGLCPSwapInterval)

	s.ctx = ctx
	return nil
}

// backingSize returns the content view's pixel dimensions, accounting for
// Retina scale.
func (s *cocoaSurface) backingSize() (uint32, uint32) {
	if s.view == 0 {
		return 0, 0
	}
	bounds := objc.Send[NSRect](s.view, selBounds)
	backing := objc.Send[NSRect](s.view, selConvertRectToBacking, bounds)
	return uint32(backing.Size.W), uint32(backing.Size.H)
}

// toBacking converts a bottom-left window point into top-left backing pixels.
func (s *cocoaSurface) toBacking(p NSPoint) (float64, float64) {
	rect := NSRect{Origin: p}
	backing := objc.Send[NSRect](s.view, selConvertRectToBacking, rect)
	return backing.Origin.X, float64(s.height) - backing.Origin.Y
}

func ensureRuntime() error {
	initOnce.Do(func() {
		if err := loadObjc(); err != nil {
			initErr = err
			return
		}
		loadSelectors()
	})
	return initErr
}

func loadObjc() error {
	// Load libobjc and AppKit so the symbols are available.
	if _, err := purego.Dlopen("/usr/lib/libobjc.A.dylib", purego.RTLD_GLOBAL); err != nil {
		return fmt.Errorf("load libobjc: %w", err)
	}
	if _, err := purego.Dlopen("/System/Library/Frameworks/AppKit.framework/AppKit", purego.RTLD_GLOBAL); err != nil {
		return fmt.Errorf("load AppKit: %w", err)
	}
	gl, err := purego.Dlopen("/System/Library/Frameworks/OpenGL.framework/OpenGL", purego.RTLD_GLOBAL|purego.RTLD_LAZY)
	if err != nil {
		return fmt.Errorf("load OpenGL: %w", err)
	}
	openGLFramework = gl

	cf, err := purego.Dlopen("/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation", purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("load CoreFoundation: %w", err)
	}

	purego.RegisterLibFunc(&cfRunLoopRunInMode, cf, "CFRunLoopRunInMode")
	ptr, err := purego.Dlsym(cf, "kCFRunLoopDefaultMode")
	if err != nil {
		return err
	}
	// Dlsym returns the address of the CFStringRef variable; read its value.
	cfDefaultMode = *(*uintptr)(unsafe.Pointer(ptr))

	return nil
}

func loadSelectors() {
	selAlloc = objc.RegisterName("alloc")
	selInit = objc.RegisterName("init")
	selRelease = objc.RegisterName("release")
	selClose = objc.RegisterName("close")
	selSharedApplication = objc.RegisterName("sharedApplication")
	selNextEventMatchingMask = objc.RegisterName("nextEventMatchingMask:untilDate:inMode:dequeue:")
	selSetActivationPolicy = objc.RegisterName("setActivationPolicy:")
	selFinishLaunching = objc.RegisterName("finishLaunching")
	selStringWithUTF8String = objc.RegisterName("stringWithUTF8String:")
	selInitWithContentRect = objc.RegisterName("initWithContentRect:styleMask:backing:defer:")
	selMakeKeyAndOrderFront = objc.RegisterName("makeKeyAndOrderFront:")
	selSetTitle = objc.RegisterName("setTitle:")
	selSetAcceptsMouseMoved = objc.RegisterName("setAcceptsMouseMovedEvents:")
	selSetReleasedWhenClosed = objc.RegisterName("setReleasedWhenClosed:")
	selCenter = objc.RegisterName("center")
	selContentView = objc.RegisterName("contentView")
	selBounds = objc.RegisterName("bounds")
	selConvertRectToBacking = objc.RegisterName("convertRectToBacking:")
	selIsVisible = objc.RegisterName("isVisible")
	selIsMiniaturized = objc.RegisterName("isMiniaturized")
	selIsHidden = objc.RegisterName("isHidden")
	selIsKeyWindow = objc.RegisterName("isKeyWindow")
	selSendEvent = objc.RegisterName("sendEvent:")
	selFlushBuffer = objc.RegisterName("flushBuffer")
	selUpdate = objc.RegisterName("update")
	selSetView = objc.RegisterName("setView:")
	selMakeCurrentContext = objc.RegisterName("makeCurrentContext")
	selClearCurrentContext = objc.RegisterName("clearCurrentContext")
	selInitWithAttributes = objc.RegisterName("initWithAttributes:")
	selInitWithFormat = objc.RegisterName("initWithFormat:shareContext:")
	selSetValuesForParameter = objc.RegisterName("setValues:forParameter:")
	selBackingScaleFactor = objc.RegisterName("backingScaleFactor")
	selType = objc.RegisterName("type")
	selWindow = objc.RegisterName("window")
	selLocationInWindow = objc.RegisterName("locationInWindow")
	selKeyCode = objc.RegisterName("keyCode")
}

func nsString(v string) objc.ID {
	return objc.ID(objc.GetClass("NSString")).Send(selStringWithUTF8String, v+"\x00")
}
