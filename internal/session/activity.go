package session

import "sync"

// EventKind names a kind of user interaction.
type EventKind string

const (
	PointerDown EventKind = "pointerdown"
	PointerMove EventKind = "pointermove"
	KeyDown     EventKind = "keydown"
	Scroll      EventKind = "scroll"
	TouchStart  EventKind = "touchstart"
	Click       EventKind = "click"
)

// QualifyingEvents are the interactions that postpone the inactivity
// deadline.
var QualifyingEvents = []EventKind{PointerDown, PointerMove, KeyDown, Scroll, TouchStart, Click}

// ActivitySource delivers user interaction events.  Subscribe registers
// fn for one kind of event and returns the function that removes it.
type ActivitySource interface {
	Subscribe(kind EventKind, fn func()) (unsubscribe func())
}

// ActivityHub is an in-process ActivitySource.  Front ends call Emit for
// every interaction they observe.
type ActivityHub struct {
	mu        sync.Mutex
	next      uint64
	listeners map[EventKind]map[uint64]func()
}

// NewActivityHub returns an empty hub.
func NewActivityHub() *ActivityHub {
	return &ActivityHub{listeners: make(map[EventKind]map[uint64]func())}
}

// Subscribe implements ActivitySource.  The returned function is safe to
// call more than once.
func (h *ActivityHub) Subscribe(kind EventKind, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	if h.listeners[kind] == nil {
		h.listeners[kind] = make(map[uint64]func())
	}
	h.listeners[kind][id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners[kind], id)
	}
}

// Emit notifies every listener of kind.  Listeners run on the caller's
// goroutine, outside the hub lock.
func (h *ActivityHub) Emit(kind EventKind) {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.listeners[kind]))
	for _, fn := range h.listeners[kind] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Listeners returns the number of listeners registered for kind.
func (h *ActivityHub) Listeners(kind EventKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[kind])
}
