package render

import (
	"github.com/npillmayer/sdom/registry"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
)

// PaintedInfo is a snapshot of the geometry and resolved styles of the
// projected elements. Elements which are not displayed have no entry in
// Rects.
type PaintedInfo struct {
	Rects        map[synth.ID]surface.Rect
	Styles       map[synth.ID]*style.PropertyMap
	DocumentSize surface.Size
	Scroll       surface.Point
}

type paintSub struct {
	fn func(PaintedInfo)
}

// OnPaint registers fn to receive every PaintedInfo published. The returned
// function cancels the subscription.
func (r *Renderer) OnPaint(fn func(PaintedInfo)) (cancel func()) {
	sub := &paintSub{fn: fn}
	r.paintSubs = append(r.paintSubs, sub)
	return func() {
		for i, s := range r.paintSubs {
			if s == sub {
				r.paintSubs = append(r.paintSubs[:i], r.paintSubs[i+1:]...)
				return
			}
		}
	}
}

// Painted returns the PaintedInfo published last.
func (r *Renderer) Painted() (PaintedInfo, bool) {
	if r.painted == nil {
		return PaintedInfo{}, false
	}
	return *r.painted, true
}

// ScrollTo scrolls the surface to p, as if the synthetic window had been
// scrolled, and requests a recompute.
func (r *Renderer) ScrollTo(p surface.Point) {
	if err := r.surf.ScrollTo(p); err != nil {
		r.diag(surface.Traced("scroll", err))
	}
	r.requestRecompute()
}

// requestRecompute schedules a recompute at the end of the current
// recompute window, opening a new window if none is open.
func (r *Renderer) requestRecompute() {
	if r.recompute != nil {
		return
	}
	r.recompute = r.sched.AfterFunc(r.interval, func() {
		r.recompute = nil
		r.recomputePainted()
	})
}

func (r *Renderer) cancelRecompute() {
	if r.recompute != nil {
		r.recompute()
		r.recompute = nil
	}
}

// recomputePainted samples the surface and publishes the result.
func (r *Renderer) recomputePainted() {
	if !r.surf.Ready() || r.state != Steady || r.stale.Load() {
		return
	}
	info := PaintedInfo{
		Rects:  make(map[synth.ID]surface.Rect),
		Styles: make(map[synth.ID]*style.PropertyMap),
	}
	r.nodes.Each(func(e registry.Entry[surface.Node, *synth.Node]) {
		if e.Synthetic.NodeType() != synth.ElementNode {
			return
		}
		rect, err := r.surf.BoundingRect(e.Native)
		if err != nil {
			tracer().Errorf("cannot get bounding rect of %s: %v", e.Synthetic, err)
		} else if !rect.IsZero() {
			info.Rects[e.ID] = rect
		}
		kvs, err := r.surf.ComputedStyle(e.Native)
		if err != nil {
			tracer().Errorf("cannot get style of %s: %v", e.Synthetic, err)
			return
		}
		info.Styles[e.ID] = style.FromKeyValues(kvs)
	})
	info.DocumentSize = r.surf.ContentSize()
	info.Scroll = r.surf.ScrollOffset()
	r.painted = &info
	tracer().Debugf("publishing painted info for %d elements", len(info.Styles))
	subs := make([]*paintSub, len(r.paintSubs))
	copy(subs, r.paintSubs)
	for _, sub := range subs {
		sub.fn(info)
	}
}
