package display

// EventListener receives a display's state in push style. Embed NopListener
// to implement only the callbacks you need.
type EventListener interface {
	OnResized(width, height uint32)
	OnMouseOperated(ev MouseEvent)
}

// NopListener ignores every callback.
type NopListener struct{}

func (NopListener) OnResized(uint32, uint32)   {}
func (NopListener) OnMouseOperated(MouseEvent) {}

// Notify delivers size and then events, in order, to l. Backends implement
// Display.Listen with it so every backend pushes in the same order.
func Notify(l EventListener, size Size, events []MouseEvent) {
	if l == nil {
		return
	}
	l.OnResized(size.Width, size.Height)
	for _, ev := range events {
		l.OnMouseOperated(ev)
	}
}
