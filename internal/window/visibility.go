package window

// visibility is what a backend can poll about a window whose close it does
// not get a direct callback for.
type visibility struct {
	Visible      bool
	Miniaturized bool
	AppHidden    bool
}

// closed reports whether an invisible window was closed by the user rather
// than minimized or hidden with its application. Surfaces never order their
// windows out themselves, so any other invisible window was closed.
func (v visibility) closed() bool {
	return !v.Visible && !v.Miniaturized && !v.AppHidden
}

// shown reports whether the window is on screen and worth diffing.
func (v visibility) shown() bool {
	return v.Visible
}
