package synth

// EventDetail carries the data of user interaction events.
type EventDetail struct {
	ClientX, ClientY float64 // pointer position, for mouse events
	DeltaX, DeltaY   float64 // for wheel events
	Button           int     // mouse button
	Key              string  // for keyboard events
	Value            string  // value of input-like targets
}

// Event is a synthetic event, dispatched to synthetic nodes.
type Event struct {
	Type    string
	Bubbles bool
	Detail  EventDetail
	Native  any // the native event the synthetic event has been created from

	target    *Node
	current   *Node
	stopped   bool
	prevented bool
}

// Events which do not bubble up to ancestors.
var nonBubbling = map[string]bool{
	"mouseenter": true,
	"mouseleave": true,
	"focus":      true,
	"blur":       true,
	"load":       true,
	"resize":     true,
}

// NewEvent creates an event of type typ.
func NewEvent(typ string, detail EventDetail) *Event {
	return &Event{
		Type:    typ,
		Bubbles: !nonBubbling[typ],
		Detail:  detail,
	}
}

// Target returns the node the event has been dispatched to.
func (e *Event) Target() *Node { return e.target }

// CurrentTarget returns the node whose listeners are currently called.
func (e *Event) CurrentTarget() *Node { return e.current }

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// PropagationStopped returns true if a listener stopped propagation.
func (e *Event) PropagationStopped() bool { return e.stopped }

// PreventDefault marks the default action of the event as canceled.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented returns true if a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Listener is a function called for events dispatched to a node.
type Listener func(*Event)

type listenerEntry struct {
	fn Listener
}

// AddEventListener registers l for events of type typ. The returned function
// removes the listener.
func (n *Node) AddEventListener(typ string, l Listener) (remove func()) {
	if l == nil {
		return func() {}
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*listenerEntry)
	}
	entry := &listenerEntry{fn: l}
	n.listeners[typ] = append(n.listeners[typ], entry)
	return func() {
		entries := n.listeners[typ]
		for i, e := range entries {
			if e == entry {
				n.listeners[typ] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// DispatchEvent dispatches e to n. Listeners of n are called first, then, for
// bubbling events, the listeners of n's ancestors, until a listener stops
// propagation. DispatchEvent returns false if a listener prevented the
// default action.
func (n *Node) DispatchEvent(e *Event) bool {
	if e == nil {
		return true
	}
	e.target = n
	for p := n; p != nil; p = p.Parent() {
		e.current = p
		p.callListeners(e)
		if e.stopped || !e.Bubbles {
			break
		}
	}
	e.current = nil
	tracer().Debugf("dispatched %s to %s, prevented=%v", e.Type, n, e.prevented)
	return !e.prevented
}

func (n *Node) callListeners(e *Event) {
	entries := n.listeners[e.Type]
	if len(entries) == 0 {
		return
	}
	snapshot := make([]*listenerEntry, len(entries))
	copy(snapshot, entries)
	for _, entry := range snapshot {
		entry.fn(e)
	}
}
