//go:build linux && !glfw

package window

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	glxRGBA         = 4
	glxDoubleBuffer = 5
	glxDepthSize    = 12
	glxNone         = 0

	inputOutput = 1

	keyPressMask        = 1 << 0
	keyReleaseMask      = 1 << 1
	buttonPressMask     = 1 << 2
	buttonReleaseMask   = 1 << 3
	enterWindowMask     = 1 << 4
	leaveWindowMask     = 1 << 5
	pointerMotionMask   = 1 << 6
	exposureMask        = 1 << 15
	structureNotifyMask = 1 << 17
	focusChangeMask     = 1 << 21

	surfaceEventMask = keyPressMask | keyReleaseMask | buttonPressMask | buttonReleaseMask |
		enterWindowMask | leaveWindowMask | pointerMotionMask | exposureMask |
		structureNotifyMask | focusChangeMask

	xKeyPress        = 2
	xKeyRelease      = 3
	xButtonPress     = 4
	xButtonRelease   = 5
	xMotionNotify    = 6
	xEnterNotify     = 7
	xLeaveNotify     = 8
	xFocusIn         = 9
	xFocusOut        = 10
	xExpose          = 12
	xDestroyNotify   = 17
	xConfigureNotify = 22
	xClientMessage   = 33

	cwBorderPixel = 1 << 3
	cwEventMask   = 1 << 11
	cwColormap    = 1 << 13
)

type XVisualInfo struct {
	Visual       uintptr
	VisualID     uint
	Screen       int32
	Depth        int32
	Class        int32
	RedMask      uint64
	GreenMask    uint64
	BlueMask     uint64
	ColormapSize int32
	BitsPerRGB   int32
	MapEntries   int32
	pad          int32
}

// The event structs below mirror the LP64 Xlib layouts. Only the leading
// fields that the loop reads are declared.

type xAnyEvent struct {
	Type      int32
	Serial    uint64
	SendEvent int32
	Display   uintptr
	Window    uintptr
}

// xInputEvent covers XKeyEvent, XButtonEvent and XMotionEvent, which share
// their layout up to the detail field (keycode or button).
type xInputEvent struct {
	Type       int32
	Serial     uint64
	SendEvent  int32
	Display    uintptr
	Window     uintptr
	Root       uintptr
	Subwindow  uintptr
	Time       uint64
	X, Y       int32
	XRoot      int32
	YRoot      int32
	State      uint32
	Detail     uint32
	SameScreen int32
}

type xExposeEvent struct {
	Type      int32
	Serial    uint64
	SendEvent int32
	Display   uintptr
	Window    uintptr
	X, Y      int32
	Width     int32
	Height    int32
	Count     int32
}

type xConfigureEvent struct {
	Type        int32
	Serial      uint64
	SendEvent   int32
	Display     uintptr
	Event       uintptr
	Window      uintptr
	X, Y        int32
	Width       int32
	Height      int32
	BorderWidth int32
}

type xDestroyWindowEvent struct {
	Type      int32
	Serial    uint64
	SendEvent int32
	Display   uintptr
	Event     uintptr
	Window    uintptr
}

type xclientMessage struct {
	Type        int32
	Serial      uint64
	SendEvent   int32
	Display     uintptr
	Window      uintptr
	MessageType uintptr
	Format      int32
	Data        [5]uint64
}

type xSetWindowAttributes struct {
	BackgroundPixmap uintptr
	BackgroundPixel  uint64
	BorderPixmap     uint64
	BorderPixel      uint64
	BitGravity       int32
	WinGravity       int32
	BackingStore     int32
	BackingPlanes    uint64
	BackingPixel     uint64
	SaveUnder        int32
	EventMask        int64
	DoNotPropagate   int64
	OverrideRedirect int32
	Colormap         uintptr
	Cursor           uintptr
}

var (
	x11lib uintptr
	gllib  uintptr

	xOpenDisplay           func(*byte) uintptr
	xDefaultScreen         func(uintptr) int32
	xRootWindow            func(uintptr, int32) uintptr
	xCreateColormap        func(uintptr, uintptr, uintptr, int32) uintptr
	xFreeColormap          func(uintptr, uintptr) int32
	xCreateWindow          func(uintptr, uintptr, int32, int32, uint32, uint32, uint32, int32, uint32, uintptr, uint64, unsafe.Pointer) uintptr
	xMapWindow             func(uintptr, uintptr) int32
	xStoreName             func(uintptr, uintptr, *byte) int32
	xInternAtom            func(uintptr, *byte, int32) uintptr
	xSetWMProtocols        func(uintptr, uintptr, *uintptr, int32) int32
	xSelectInput           func(uintptr, uintptr, int64)
	xPending               func(uintptr) int32
	xNextEvent             func(uintptr, unsafe.Pointer)
	xFlush                 func(uintptr) int32
	xFree                  func(unsafe.Pointer) int32
	xDestroyWindow         func(uintptr, uintptr) int32
	xCloseDisplay          func(uintptr) int32
	xDisplayWidth          func(uintptr, int32) int32
	xDisplayWidthMM        func(uintptr, int32) int32
	xResourceManagerString func(uintptr) *byte

	glxChooseVisual      func(uintptr, int32, *int32) *XVisualInfo
	glxCreateContext     func(uintptr, *XVisualInfo, uintptr, int32) uintptr
	glxMakeCurrent       func(uintptr, uintptr, uintptr) int32
	glxSwapBuffers       func(uintptr, uintptr)
	glxDestroyContext    func(uintptr, uintptr)
	glxGetCurrentContext func() uintptr
	glxGetProcAddressARB func(*byte) uintptr
)

type x11Loop struct {
	display  uintptr
	screen   int32
	root     uintptr
	visual   *XVisualInfo
	colormap uintptr
	wmDelete uintptr
	scale    float32

	ids      idAllocator
	surfaces map[uintptr]*x11Surface
	redraw   redrawQueue
}

type x11Surface struct {
	loop   *x11Loop
	id     WindowID
	window uintptr
	ctx    uintptr
	width  uint32
	height uint32
}

// Open connects to the X server named by $DISPLAY and prepares a GLX visual
// shared by every surface of the loop.
func Open() (EventLoop, error) {
	runtime.LockOSThread()
	if err := ensureLibs(); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	dpy := xOpenDisplay(nil)
	if dpy == 0 {
		runtime.UnlockOSThread()
		return nil, errors.New("XOpenDisplay failed")
	}

	screen := xDefaultScreen(dpy)
	root := xRootWindow(dpy, screen)

	attrs := []int32{glxRGBA, glxDoubleBuffer, glxDepthSize, 24, glxNone}
	visual := glxChooseVisual(dpy, screen, &attrs[0])
	if visual == nil {
		xCloseDisplay(dpy)
		runtime.UnlockOSThread()
		return nil, errors.New("glXChooseVisual failed")
	}

	return &x11Loop{
		display:  dpy,
		screen:   screen,
		root:     root,
		visual:   visual,
		colormap: xCreateColormap(dpy, root, visual.Visual, 0),
		wmDelete: xInternAtom(dpy, cString("WM_DELETE_WINDOW"), 0),
		scale:    calculateScale(dpy, screen),
		surfaces: make(map[uintptr]*x11Surface),
	}, nil
}

func (l *x11Loop) NewSurface(cfg Config) (Surface, error) {
	if l.display == 0 {
		return nil, errors.New("event loop is closed")
	}

	var swa xSetWindowAttributes
	swa.Colormap = l.colormap
	swa.EventMask = surfaceEventMask

	win := xCreateWindow(
		l.display, l.root,
		0, 0,
		cfg.Width, cfg.Height,
		0,
		l.visual.Depth,
		inputOutput,
		l.visual.Visual,
		cwBorderPixel|cwColormap|cwEventMask,
		unsafe.Pointer(&swa),
	)
	if win == 0 {
		return nil, errors.New("XCreateWindow failed")
	}
	xSelectInput(l.display, win, swa.EventMask)
	xStoreName(l.display, win, cString(cfg.Title))
	wmDelete := l.wmDelete
	xSetWMProtocols(l.display, win, &wmDelete, 1)
	xMapWindow(l.display, win)

	ctx := glxCreateContext(l.display, l.visual, 0, 1)
	if ctx == 0 {
		xDestroyWindow(l.display, win)
		return nil, errors.New("glXCreateContext failed")
	}
	if glxMakeCurrent(l.display, win, ctx) == 0 {
		glxDestroyContext(l.display, ctx)
		xDestroyWindow(l.display, win)
		return nil, errors.New("glXMakeCurrent failed")
	}

	s := &x11Surface{
		loop:   l,
		id:     l.ids.allocate(),
		window: win,
		ctx:    ctx,
		width:  cfg.Width,
		height: cfg.Height,
	}
	l.surfaces[win] = s
	return s, nil
}

func (l *x11Loop) Pump(handle func(Event)) error {
	if l.display == 0 {
		return errors.New("event loop is closed")
	}

	for xPending(l.display) > 0 {
		var ev [192]byte
		xNextEvent(l.display, unsafe.Pointer(&ev[0]))
		if e := l.translate(unsafe.Pointer(&ev[0])); e != nil {
			handle(e)
		}
	}
	l.redraw.flush(handle)
	return nil
}

// translate maps an XEvent onto a raw event, updating cached surface state
// along the way. Events for unknown windows yield nil.
func (l *x11Loop) translate(p unsafe.Pointer) Event {
	hdr := (*xAnyEvent)(p)

	// ConfigureNotify and DestroyNotify report the affected window after the
	// event window.
	switch hdr.Type {
	case xConfigureNotify:
		ce := (*xConfigureEvent)(p)
		s, ok := l.surfaces[ce.Window]
		if !ok {
			return nil
		}
		w, h := uint32(ce.Width), uint32(ce.Height)
		if w == s.width && h == s.height {
			return nil
		}
		s.width, s.height = w, h
		return Resized{Window: s.id, Width: w, Height: h}
	case xDestroyNotify:
		s, ok := l.surfaces[(*xDestroyWindowEvent)(p).Window]
		if !ok {
			// Surfaces forget their window before destroying it.
			return nil
		}
		return Destroyed{Window: s.id}
	}

	s, ok := l.surfaces[hdr.Window]
	if !ok {
		return nil
	}

	switch hdr.Type {
	case xKeyPress, xKeyRelease:
		ke := (*xInputEvent)(p)
		state := Pressed
		if hdr.Type == xKeyRelease {
			state = Released
		}
		return KeyInput{Window: s.id, Code: ke.Detail, State: state}
	case xButtonPress, xButtonRelease:
		be := (*xInputEvent)(p)
		state := Pressed
		if hdr.Type == xButtonRelease {
			state = Released
		}
		return MouseInput{Window: s.id, State: state, Button: x11Button(be.Detail)}
	case xMotionNotify:
		me := (*xInputEvent)(p)
		return CursorMoved{Window: s.id, X: float64(me.X), Y: float64(me.Y)}
	case xEnterNotify:
		return CursorEntered{Window: s.id}
	case xLeaveNotify:
		return CursorLeft{Window: s.id}
	case xFocusIn, xFocusOut:
		return Focused{Window: s.id, Focused: hdr.Type == xFocusIn}
	case xExpose:
		if (*xExposeEvent)(p).Count == 0 {
			l.redraw.push(s.id)
		}
		return nil
	case xClientMessage:
		cm := (*xclientMessage)(p)
		if cm.Format == 32 && cm.Data[0] == uint64(l.wmDelete) {
			return CloseRequested{Window: s.id}
		}
	}
	return nil
}

func x11Button(detail uint32) Button {
	switch detail {
	case 1:
		return ButtonLeft
	case 2:
		return ButtonMiddle
	case 3:
		return ButtonRight
	default:
		return ButtonOther
	}
}

func (l *x11Loop) Close() {
	if l.display == 0 {
		return
	}
	for _, s := range l.surfaces {
		s.Close()
	}
	if l.colormap != 0 {
		xFreeColormap(l.display, l.colormap)
		l.colormap = 0
	}
	if l.visual != nil {
		xFree(unsafe.Pointer(l.visual))
		l.visual = nil
	}
	xCloseDisplay(l.display)
	l.display = 0
	runtime.UnlockOSThread()
}

func (s *x11Surface) ID() WindowID {
	return s.id
}

func (s *x11Surface) MakeCurrent() error {
	if s.window == 0 {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	if glxMakeCurrent(s.loop.display, s.window, s.ctx) == 0 {
		return fmt.Errorf("%s: glXMakeCurrent failed", s.id)
	}
	return nil
}

func (s *x11Surface) SwapBuffers() error {
	if s.window == 0 {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	glxSwapBuffers(s.loop.display, s.window)
	return nil
}

func (s *x11Surface) RequestRedraw() {
	if s.window != 0 {
		s.loop.redraw.push(s.id)
	}
}

func (s *x11Surface) ProcAddress(name string) uintptr {
	if addr := glxGetProcAddressARB(cString(name)); addr != 0 {
		return addr
	}
	addr, err := purego.Dlsym(gllib, name)
	if err != nil {
		return 0
	}
	return addr
}

func (s *x11Surface) Scale() float32 {
	return s.loop.scale
}

func (s *x11Surface) Close() {
	l := s.loop
	if s.ctx != 0 {
		// Another display's context may be current; leave it bound.
		if glxGetCurrentContext() == s.ctx {
			glxMakeCurrent(l.display, 0, 0)
		}
		glxDestroyContext(l.display, s.ctx)
		s.ctx = 0
	}
	if s.window != 0 {
		delete(l.surfaces, s.window)
		xDestroyWindow(l.display, s.window)
		xFlush(l.display)
		s.window = 0
	}
	l.redraw.forget(s.id)
}

// calculateScale picks the first available source: toolkit environment
// variables, Xft.dpi from the resource database, then physical screen size.
func calculateScale(dpy uintptr, screen int32) float32 {
	if scale := envScale(); scale > 0 {
		return scale
	}
	if xResourceManagerString != nil {
		if dpi := parseXftDPI(gostring(xResourceManagerString(dpy))); dpi > 0 {
			return roundScale(dpi / 96.0)
		}
	}
	if scale := dpiScale(xDisplayWidth(dpy, screen), xDisplayWidthMM(dpy, screen)); scale > 0 {
		return scale
	}
	return 1.0
}

func ensureLibs() error {
	var err error
	if x11lib == 0 {
		x11lib, err = purego.Dlopen("libX11.so.6", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			return fmt.Errorf("load libX11: %w", err)
		}
		registerX11()
	}
	if gllib == 0 {
		gllib, err = purego.Dlopen("libGL.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			return fmt.Errorf("load libGL: %w", err)
		}
		registerGLX()
	}
	return nil
}

func registerX11() {
	purego.RegisterLibFunc(&xOpenDisplay, x11lib, "XOpenDisplay")
	purego.RegisterLibFunc(&xDefaultScreen, x11lib, "XDefaultScreen")
	purego.RegisterLibFunc(&xRootWindow, x11lib, "XRootWindow")
	purego.RegisterLibFunc(&xCreateColormap, x11lib, "XCreateColormap")
	purego.RegisterLibFunc(&xFreeColormap, x11lib, "XFreeColormap")
	purego.RegisterLibFunc(&xCreateWindow, x11lib, "XCreateWindow")
	purego.RegisterLibFunc(&xMapWindow, x11lib, "XMapWindow")
	purego.RegisterLibFunc(&xStoreName, x11lib, "XStoreName")
	purego.RegisterLibFunc(&xInternAtom, x11lib, "XInternAtom")
	purego.RegisterLibFunc(&xSetWMProtocols, x11lib, "XSetWMProtocols")
	purego.RegisterLibFunc(&xSelectInput, x11lib, "XSelectInput")
	purego.RegisterLibFunc(&xPending, x11lib, "XPending")
	purego.RegisterLibFunc(&xNextEvent, x11lib, "XNextEvent")
	purego.RegisterLibFunc(&xFlush, x11lib, "XFlush")
	purego.RegisterLibFunc(&xFree, x11lib, "XFree")
	purego.RegisterLibFunc(&xDestroyWindow, x11lib, "XDestroyWindow")
	purego.RegisterLibFunc(&xCloseDisplay, x11lib, "XCloseDisplay")
	purego.RegisterLibFunc(&xDisplayWidth, x11lib, "XDisplayWidth")
	purego.RegisterLibFunc(&xDisplayWidthMM, x11lib, "XDisplayWidthMM")
	// Optional: older servers ship without the resource manager helper.
	if _, err := purego.Dlsym(x11lib, "XResourceManagerString"); err == nil {
		purego.RegisterLibFunc(&xResourceManagerString, x11lib, "XResourceManagerString")
	} else {
		xResourceManagerString = nil
	}
}

func registerGLX() {
	purego.RegisterLibFunc(&glxChooseVisual, gllib, "glXChooseVisual")
	purego.RegisterLibFunc(&glxCreateContext, gllib, "glXCreateContext")
	purego.RegisterLibFunc(&glxMakeCurrent, gllib, "glXMakeCurrent")
	purego.RegisterLibFunc(&glxSwapBuffers, gllib, "glXSwapBuffers")
	purego.RegisterLibFunc(&glxDestroyContext, gllib, "glXDestroyContext")
	purego.RegisterLibFunc(&glxGetCurrentContext, gllib, "glXGetCurrentContext")
	purego.RegisterLibFunc(&glxGetProcAddressARB, gllib, "glXGetProcAddressARB")
}

func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

func gostring(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var bytes []byte
	for p := ptr; *p != 0; p = (*byte)(unsafe.Add(unsafe.Pointer(p), 1)) {
		bytes = append(bytes, *p)
	}
	return string(bytes)
}
