//go:build windows && !glfw

package window

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	csOwnDC   = 0x0020
	csHRedraw = 0x0002
	csVRedraw = 0x0001

	wsOverlappedWindow = 0x00CF0000
	wsClipSiblings     = 0x04000000
	wsClipChildren     = 0x02000000
	swShow             = 5

	wmSetFocus    = 0x0007
	wmKillFocus   = 0x0008
	wmSize        = 0x0005
	wmPaint       = 0x000F
	wmClose       = 0x0010
	wmDestroy     = 0x0002
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208

	pmRemove = 0x0001

	pfdTypeRGBA      = 0
	pfdMainPlane     = 0
	pfdDrawToWindow  = 0x00000004
	pfdSupportOpenGL = 0x00000020
	pfdDoubleBuffer  = 0x00000001

	cwUseDefault = 0x80000000
)

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type msg struct {
	hwnd     windows.HWND
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type point struct {
	x int32
	y int32
}

// Mirrors PIXELFORMATDESCRIPTOR (must be 40 bytes).
type pixelFormatDescriptor struct {
	nSize           uint16
	nVersion        uint16
	dwFlags         uint32
	iPixelType      byte
	cColorBits      byte
	cRedBits        byte
	cRedShift       byte
	cGreenBits      byte
	cGreenShift     byte
	cBlueBits       byte
	cBlueShift      byte
	cAlphaBits      byte
	cAlphaShift     byte
	cAccumBits      byte
	cAccumRedBits   byte
	cAccumGreenBits byte
	cAccumBlueBits  byte
	cAccumAlphaBits byte
	cDepthBits      byte
	cStencilBits    byte
	cAuxBuffers     byte
	iLayerType      byte
	bReserved       byte
	dwLayerMask     uint32
	dwVisibleMask   uint32
	dwDamageMask    uint32
}

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	opengl32 = windows.NewLazySystemDLL("opengl32.dll")

	procRegisterClassEx  = user32.NewProc("RegisterClassExW")
	procCreateWindowEx   = user32.NewProc("CreateWindowExW")
	procDefWindowProc    = user32.NewProc("DefWindowProcW")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procUpdateWindow     = user32.NewProc("UpdateWindow")
	procValidateRect     = user32.NewProc("ValidateRect")
	procPeekMessage      = user32.NewProc("PeekMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessage  = user32.NewProc("DispatchMessageW")
	procGetDC            = user32.NewProc("GetDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procLoadCursor       = user32.NewProc("LoadCursorW")
	procGetDpiForWindow  = user32.NewProc("GetDpiForWindow")

	procChoosePixelFormat   = gdi32.NewProc("ChoosePixelFormat")
	procDescribePixelFormat = gdi32.NewProc("DescribePixelFormat")
	procSetPixelFormat      = gdi32.NewProc("SetPixelFormat")
	procSwapBuffers         = gdi32.NewProc("SwapBuffers")

	procWglCreateContext  = opengl32.NewProc("wglCreateContext")
	procWglMakeCurrent    = opengl32.NewProc("wglMakeCurrent")
	procWglDeleteContext  = opengl32.NewProc("wglDeleteContext")
	procWglGetProcAddress = opengl32.NewProc("wglGetProcAddress")
)

var (
	// Unique per process to avoid CS_OWNDC collisions.
	windowClassName = fmt.Sprintf("GlwinWindow_%d", os.Getpid())
	windowClass     = windows.StringToUTF16Ptr(windowClassName)

	classOnce sync.Once
	classErr  error

	// wndProc has no user pointer to hand back, so the one live loop is
	// reachable through this variable.
	activeLoop *win32Loop
)

type win32Loop struct {
	ids      idAllocator
	surfaces map[windows.HWND]*win32Surface
	redraw   redrawQueue
	pending  []Event
	closed   bool
}

type win32Surface struct {
	loop *win32Loop
	id   WindowID
	hwnd windows.HWND
	hdc  windows.Handle
	ctx  windows.Handle

	width, height uint32
}

// Open registers the window class and returns the process's event loop.
// Only one loop may be open at a time.
func Open() (EventLoop, error) {
	if activeLoop != nil {
		return nil, errors.New("an event loop is already open")
	}
	if unsafe.Sizeof(pixelFormatDescriptor{}) != 40 {
		return nil, fmt.Errorf(
			"PIXELFORMATDESCRIPTOR size mismatch: got %d, want 40",
			unsafe.Sizeof(pixelFormatDescriptor{}),
		)
	}

	runtime.LockOSThread()
	classOnce.Do(func() { classErr = registerWindowClass() })
	if classErr != nil {
		runtime.UnlockOSThread()
		return nil, classErr
	}

	l := &win32Loop{surfaces: make(map[windows.HWND]*win32Surface)}
	activeLoop = l
	return l, nil
}

func (l *win32Loop) NewSurface(cfg Config) (Surface, error) {
	if l.closed {
		return nil, errors.New("event loop is closed")
	}

	hwnd, hdc, err := createWindow(cfg)
	if err != nil {
		return nil, err
	}
	if err := setPixelFormat(hdc); err != nil {
		procReleaseDC.Call(uintptr(hwnd), uintptr(hdc))
		procDestroyWindow.Call(uintptr(hwnd))
		return nil, err
	}
	ctx, err := createGLContext(hdc)
	if err != nil {
		procReleaseDC.Call(uintptr(hwnd), uintptr(hdc))
		procDestroyWindow.Call(uintptr(hwnd))
		return nil, err
	}

	s := &win32Surface{
		loop:   l,
		id:     l.ids.allocate(),
		hwnd:   hwnd,
		hdc:    hdc,
		ctx:    ctx,
		width:  cfg.Width,
		height: cfg.Height,
	}
	l.surfaces[hwnd] = s

	// Show only after pixel format + context are established. ShowWindow
	// sends WM_SIZE and WM_PAINT, which now find the registered surface.
	procShowWindow.Call(uintptr(hwnd), swShow)
	procUpdateWindow.Call(uintptr(hwnd))
	return s, nil
}

func (l *win32Loop) Pump(handle func(Event)) error {
	if l.closed {
		return errors.New("event loop is closed")
	}

	var m msg
	for {
		ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if ret == 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}

	// Messages sent directly to wndProc (outside the queue) land here too.
	pending := l.pending
	l.pending = nil
	for _, e := range pending {
		handle(e)
	}
	l.redraw.flush(handle)
	return nil
}

func (l *win32Loop) Close() {
	if l.closed {
		return
	}
	for _, s := range l.surfaces {
		s.Close()
	}
	l.closed = true
	if activeLoop == l {
		activeLoop = nil
	}
	runtime.UnlockOSThread()
}

// handleMessage turns a window message into a queued event. It reports
// whether the message was consumed.
func (l *win32Loop) handleMessage(hwnd windows.HWND, message uint32, wParam, lParam uintptr) bool {
	s, ok := l.surfaces[hwnd]
	if !ok {
		return false
	}

	switch message {
	case wmClose:
		// Destruction is left to the owner of the surface.
		l.pending = append(l.pending, CloseRequested{Window: s.id})
		return true
	case wmDestroy:
		l.pending = append(l.pending, Destroyed{Window: s.id})
	case wmPaint:
		procValidateRect.Call(uintptr(hwnd), 0)
		l.redraw.push(s.id)
		return true
	case wmSize:
		w, h := uint32(lParam&0xffff), uint32((lParam>>16)&0xffff)
		if w != s.width || h != s.height {
			s.width, s.height = w, h
			l.pending = append(l.pending, Resized{Window: s.id, Width: w, Height: h})
		}
	case wmMouseMove:
		x, y := int16(lParam&0xffff), int16((lParam>>16)&0xffff)
		l.pending = append(l.pending, CursorMoved{Window: s.id, X: float64(x), Y: float64(y)})
	case wmLButtonDown, wmRButtonDown, wmMButtonDown:
		l.pending = append(l.pending, MouseInput{Window: s.id, State: Pressed, Button: win32Button(message)})
	case wmLButtonUp, wmRButtonUp, wmMButtonUp:
		l.pending = append(l.pending, MouseInput{Window: s.id, State: Released, Button: win32Button(message)})
	case wmKeyDown, wmKeyUp:
		state := Pressed
		if message == wmKeyUp {
			state = Released
		}
		l.pending = append(l.pending, KeyInput{Window: s.id, Code: uint32(wParam), State: state})
	case wmSetFocus, wmKillFocus:
		l.pending = append(l.pending, Focused{Window: s.id, Focused: message == wmSetFocus})
	}
	return false
}

func win32Button(message uint32) Button {
	switch message {
	case wmLButtonDown, wmLButtonUp:
		return ButtonLeft
	case wmRButtonDown, wmRButtonUp:
		return ButtonRight
	default:
		return ButtonMiddle
	}
}

func wndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	if l := activeLoop; l != nil && l.handleMessage(windows.HWND(hwnd), uint32(message), wParam, lParam) {
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(hwnd, message, wParam, lParam)
	return ret
}

func (s *win32Surface) ID() WindowID {
	return s.id
}

func (s *win32Surface) MakeCurrent() error {
	if s.ctx == 0 {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	if ret, _, err := procWglMakeCurrent.Call(uintptr(s.hdc), uintptr(s.ctx)); ret == 0 {
		return fmt.Errorf("%s: wglMakeCurrent: %w", s.id, err)
	}
	return nil
}

func (s *win32Surface) SwapBuffers() error {
	if s.hdc == 0 {
		return fmt.Errorf("%s: surface is closed", s.id)
	}
	if ret, _, err := procSwapBuffers.Call(uintptr(s.hdc)); ret == 0 {
		return fmt.Errorf("%s: SwapBuffers: %w", s.id, err)
	}
	return nil
}

func (s *win32Surface) RequestRedraw() {
	if s.hwnd != 0 {
		s.loop.redraw.push(s.id)
	}
}

// ProcAddress asks WGL first and falls back to opengl32.dll, which exports
// the GL 1.1 entry points that wglGetProcAddress refuses to resolve.
func (s *win32Surface) ProcAddress(name string) uintptr {
	cname, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0
	}
	addr, _, _ := procWglGetProcAddress.Call(uintptr(unsafe.Pointer(cname)))
	switch int(addr) {
	case 0, 1, 2, 3, -1:
	default:
		return addr
	}
	if err := opengl32.Load(); err != nil {
		return 0
	}
	addr, err = windows.GetProcAddress(windows.Handle(opengl32.Handle()), name)
	if err != nil {
		return 0
	}
	return addr
}

func (s *win32Surface) Scale() float32 {
	if s.hwnd == 0 || procGetDpiForWindow.Find() != nil {
		return 1.0
	}
	dpi, _, _ := procGetDpiForWindow.Call(uintptr(s.hwnd))
	if dpi == 0 {
		return 1.0
	}
	return roundScale(float32(dpi) / 96.0)
}

func (s *win32Surface) Close() {
	if s.ctx != 0 {
		procWglMakeCurrent.Call(uintptr(s.hdc), 0)
		procWglDeleteContext.Call(uintptr(s.ctx))
		s.ctx = 0
	}
	if s.hdc != 0 && s.hwnd != 0 {
		procReleaseDC.Call(uintptr(s.hwnd), uintptr(s.hdc))
		s.hdc = 0
	}
	if s.hwnd != 0 {
		delete(s.loop.surfaces, s.hwnd)
		procDestroyWindow.Call(uintptr(s.hwnd))
		s.hwnd = 0
	}
	s.loop.redraw.forget(s.id)
}

func registerWindowClass() error {
	const idcArrow = 32512
	cursor, _, _ := procLoadCursor.Call(0, uintptr(idcArrow))

	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return fmt.Errorf("GetModuleHandleEx: %w", err)
	}

	wc := wndClassEx{
		cbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
		style:         csOwnDC | csHRedraw | csVRedraw,
		lpfnWndProc:   windows.NewCallback(wndProc),
		hInstance:     module,
		hCursor:       windows.Handle(cursor),
		lpszClassName: windowClass,
	}
	if ret, _, err := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc))); ret == 0 {
		return fmt.Errorf("RegisterClassExW %s: %w", windowClassName, err)
	}
	return nil
}

func createWindow(cfg Config) (windows.HWND, windows.Handle, error) {
	titlePtr, err := windows.UTF16PtrFromString(cfg.Title)
	if err != nil {
		return 0, 0, err
	}

	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return 0, 0, fmt.Errorf("GetModuleHandleEx: %w", err)
	}

	style := uint32(wsOverlappedWindow | wsClipSiblings | wsClipChildren)
	ret, _, err := procCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(windowClass)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(style),
		cwUseDefault,
		cwUseDefault,
		uintptr(cfg.Width),
		uintptr(cfg.Height),
		0,
		0,
		uintptr(module),
		0,
	)
	hwnd := windows.HWND(ret)
	if hwnd == 0 {
		return 0, 0, fmt.Errorf("CreateWindowExW: %w", err)
	}

	dc, _, err := procGetDC.Call(uintptr(hwnd))
	if dc == 0 {
		procDestroyWindow.Call(uintptr(hwnd))
		return 0, 0, fmt.Errorf("GetDC: %w", err)
	}
	return hwnd, windows.Handle(dc), nil
}

// setPixelFormat prefers ChoosePixelFormat and falls back to enumerating
// every format when the driver's pick lacks double-buffered RGBA.
func setPixelFormat(hdc windows.Handle) error {
	desired := pixelFormatDescriptor{
		nSize:        uint16(unsafe.Sizeof(pixelFormatDescriptor{})),
		nVersion:     1,
		dwFlags:      pfdDrawToWindow | pfdSupportOpenGL | pfdDoubleBuffer,
		iPixelType:   pfdTypeRGBA,
		cColorBits:   24,
		cDepthBits:   24,
		cStencilBits: 8,
		iLayerType:   pfdMainPlane,
	}

	describe := func(index uintptr, pfd *pixelFormatDescriptor) uintptr {
		ret, _, _ := procDescribePixelFormat.Call(uintptr(hdc), index, unsafe.Sizeof(*pfd), uintptr(unsafe.Pointer(pfd)))
		return ret
	}

	var chosen pixelFormatDescriptor
	index, _, _ := procChoosePixelFormat.Call(uintptr(hdc), uintptr(unsafe.Pointer(&desired)))
	if index == 0 || describe(index, &chosen) == 0 || !usablePixelFormat(chosen, desired) {
		index = 0
		count := describe(1, &chosen)
		for i := uintptr(1); i <= count; i++ {
			if describe(i, &chosen) != 0 && usablePixelFormat(chosen, desired) {
				index = i
				break
			}
		}
		if index == 0 {
			return errors.New("failed to find a suitable OpenGL pixel format")
		}
	}

	if ret, _, err := procSetPixelFormat.Call(uintptr(hdc), index, uintptr(unsafe.Pointer(&chosen))); ret == 0 {
		return fmt.Errorf("SetPixelFormat(%d): %w", index, err)
	}
	return nil
}

func usablePixelFormat(pfd, desired pixelFormatDescriptor) bool {
	const requiredFlags = pfdDrawToWindow | pfdSupportOpenGL | pfdDoubleBuffer
	return pfd.dwFlags&requiredFlags == requiredFlags &&
		pfd.iPixelType == pfdTypeRGBA &&
		pfd.iLayerType == pfdMainPlane &&
		pfd.cColorBits >= desired.cColorBits &&
		pfd.cDepthBits >= desired.cDepthBits
}

func createGLContext(hdc windows.Handle) (windows.Handle, error) {
	ctx, _, err := procWglCreateContext.Call(uintptr(hdc))
	if ctx == 0 {
		return 0, fmt.Errorf("wglCreateContext: %w", err)
	}
	if ret, _, err := procWglMakeCurrent.Call(uintptr(hdc), ctx); ret == 0 {
		procWglDeleteContext.Call(ctx)
		return 0, fmt.Errorf("wglMakeCurrent: %w", err)
	}
	return windows.Handle(ctx), nil
}
