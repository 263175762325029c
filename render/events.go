package render

import (
	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
)

// NoticeKind is the kind of an outward notification.
type NoticeKind int8

// Kinds of notices.
const (
	NativeEvent NoticeKind = iota + 1 // a native event has been dispatched
)

func (k NoticeKind) String() string {
	if k == NativeEvent {
		return "NativeEvent"
	}
	return "NoticeKind(?)"
}

// Notice reports a native event which has been dispatched to a synthetic
// node.
type Notice struct {
	Kind     NoticeKind
	SourceID synth.ID
	Event    *synth.Event
}

type noticeSub struct {
	fn func(Notice)
}

// EventFactory creates the synthetic event for a native event captured at
// the projection of target. Returning nil drops the event.
type EventFactory func(native *surface.NativeEvent, target *synth.Node) *synth.Event

// DefaultEventFactory copies the type and the details of a native event.
func DefaultEventFactory(native *surface.NativeEvent, target *synth.Node) *synth.Event {
	e := synth.NewEvent(native.Type, synth.EventDetail{
		ClientX: native.ClientX,
		ClientY: native.ClientY,
		DeltaX:  native.DeltaX,
		DeltaY:  native.DeltaY,
		Button:  native.Button,
		Key:     native.Key,
		Value:   target.Value(),
	})
	e.Native = native
	return e
}

// OnNativeEvent registers fn to receive a notice for every native event
// dispatched to a synthetic node. The returned function cancels the
// subscription.
func (r *Renderer) OnNativeEvent(fn func(Notice)) (cancel func()) {
	sub := &noticeSub{fn: fn}
	r.noticeSubs = append(r.noticeSubs, sub)
	return func() {
		for i, s := range r.noticeSubs {
			if s == sub {
				r.noticeSubs = append(r.noticeSubs[:i], r.noticeSubs[i+1:]...)
				return
			}
		}
	}
}

// onNativeEvent is the listener installed at the surface. It may be called
// from any goroutine, so everything except resolving and acting on the
// native event is posted to the scheduler. Events at nodes which are not
// projections of synthetic nodes are left alone.
func (r *Renderer) onNativeEvent(e *surface.NativeEvent) {
	if e == nil {
		return
	}
	if e.Type == "resize" || e.Target == nil {
		r.sched.Post(r.requestRecompute)
		return
	}
	if _, ok := r.nodes.Resolve(e.Target); !ok {
		tracer().Debugf("%s event for unknown native node", e.Type)
		return
	}
	if e.StopPropagation != nil {
		e.StopPropagation()
	}
	if e.Type == "submit" && e.PreventDefault != nil {
		e.PreventDefault()
	}
	r.sched.Post(func() {
		r.dispatchNative(e)
	})
}

// dispatchNative resolves the target of a native event, dispatches a
// synthetic event to it and notifies subscribers.
func (r *Renderer) dispatchNative(e *surface.NativeEvent) {
	entry, ok := r.nodes.Resolve(e.Target)
	if !ok {
		tracer().Debugf("%s event for unknown native node", e.Type)
		return
	}
	node := entry.Synthetic
	if node.IsTextInput() {
		if v, ok := r.surf.Value(entry.Native); ok {
			node.SetValue(v)
		}
	}
	ev := r.factory(e, node)
	if ev == nil {
		return
	}
	node.DispatchEvent(ev)
	notice := Notice{Kind: NativeEvent, SourceID: node.ID(), Event: ev}
	subs := make([]*noticeSub, len(r.noticeSubs))
	copy(subs, r.noticeSubs)
	for _, sub := range subs {
		sub.fn(notice)
	}
}
