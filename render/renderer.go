/*
Package render projects a synthetic document into a native rendering surface
and keeps the projection in sync.

A Renderer subscribes to the mutations of a synth.Document and translates
each of them into the minimal operation on the surface, maintaining a
registry which maps synthetic nodes and stylesheets to their native
counterparts. Stylesheets are projected into style elements of their own and
re-synchronised wholesale whenever one of their rules changes.

After every render pass the renderer samples geometry and resolved styles
from the surface, which acts as a layout oracle, and publishes them as
PaintedInfo. Sampling is coalesced: requests arriving within the recompute
interval result in a single recompute.

Native interaction is proxied back: events captured by the surface are
resolved to synthetic nodes, dispatched as synthetic events and reported to
subscribers as a Notice.

All work of a renderer runs on a Scheduler. Documents have to be edited from
functions running on the renderer's scheduler.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package render

import (
	"sync/atomic"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/sdom/config"
	"github.com/npillmayer/sdom/registry"
	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
)

// tracer traces with key 'sdom.render'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.render")
}

// State is the lifecycle state of a renderer.
type State int8

// A renderer is uninitialized until its surface is ready, then renders the
// document once and patches it from then on. Re-initialisation of the
// surface resets the renderer.
const (
	Uninitialized State = iota
	InitialRender
	Steady
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case InitialRender:
		return "InitialRender"
	case Steady:
		return "Steady"
	}
	return "State(?)"
}

// Diagnostics receives errors which the renderer skipped over, e.g.
// attributes or CSS rules rejected by the surface.
type Diagnostics func(error)

// nativeSheet is the native counterpart of a synthetic stylesheet.
type nativeSheet struct {
	elem  surface.Node
	sheet surface.StyleSheet
}

// Renderer projects a synthetic document into a surface.
type Renderer struct {
	doc      *synth.Document
	surf     surface.Surface
	sched    Scheduler
	nodes    *registry.Registry[surface.Node, *synth.Node]
	sheets   *registry.Registry[*nativeSheet, *synth.StyleSheet]
	state    State
	interval time.Duration
	classes  []string
	factory  EventFactory
	diag     Diagnostics

	unsubscribe   func()
	renderPending bool        // a render pass has been posted
	stale         atomic.Bool // the surface signaled readiness again, registries are outdated
	recompute     func()      // cancels a pending recompute, nil if none
	painted       *PaintedInfo
	paintSubs     []*paintSub
	noticeSubs    []*noticeSub
}

// Option configures a renderer.
type Option func(*Renderer)

// WithScheduler sets the scheduler a renderer runs on. The default is a
// new Loop.
func WithScheduler(s Scheduler) Option {
	return func(r *Renderer) {
		r.sched = s
	}
}

// WithRecomputeInterval sets the window in which requests to re-sample the
// surface are coalesced.
func WithRecomputeInterval(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithEventFactory sets the factory for synthetic events created from
// native ones.
func WithEventFactory(f EventFactory) Option {
	return func(r *Renderer) {
		if f != nil {
			r.factory = f
		}
	}
}

// WithDiagnostics sets the sink for skipped errors. The default traces them.
func WithDiagnostics(d Diagnostics) Option {
	return func(r *Renderer) {
		if d != nil {
			r.diag = d
		}
	}
}

// WithEventClasses sets the native event types to listen to.
func WithEventClasses(classes ...string) Option {
	return func(r *Renderer) {
		if len(classes) > 0 {
			r.classes = classes
		}
	}
}

// WithConfig applies the render section of a configuration.
func WithConfig(cfg *config.Config) Option {
	return func(r *Renderer) {
		if cfg == nil {
			return
		}
		WithRecomputeInterval(cfg.Render.RecomputeInterval)(r)
		WithEventClasses(cfg.Render.EventClasses...)(r)
	}
}

// New creates a renderer projecting doc into surf. The renderer is inactive
// until Start is called.
func New(doc *synth.Document, surf surface.Surface, opts ...Option) *Renderer {
	r := &Renderer{
		doc:      doc,
		surf:     surf,
		nodes:    registry.New[surface.Node, *synth.Node]("nodes"),
		sheets:   registry.New[*nativeSheet, *synth.StyleSheet]("stylesheets"),
		interval: config.DefaultRecomputeInterval,
		classes:  surface.DefaultEventClasses,
		factory:  DefaultEventFactory,
		diag: func(err error) {
			tracer().Errorf("render: %v", err)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sched == nil {
		r.sched = NewLoop()
	}
	return r
}

// Start subscribes the renderer to its document and surface. Start has to
// be called on the renderer's scheduler. If the surface is already ready,
// the initial render is scheduled immediately.
func (r *Renderer) Start() {
	if r.unsubscribe != nil {
		return
	}
	r.unsubscribe = r.doc.Subscribe(r.handleMutation)
	r.surf.OnReady(func() {
		r.stale.Store(true)
		r.sched.Post(r.initialize)
	})
	if r.surf.Ready() {
		r.sched.Post(r.initialize)
	}
}

// Close unsubscribes the renderer from its document and cancels pending
// work. The projection is left in place.
func (r *Renderer) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	r.surf.OnReady(nil)
	r.cancelRecompute()
}

// State returns the lifecycle state of the renderer.
func (r *Renderer) State() State {
	return r.state
}

// Scheduler returns the scheduler the renderer runs on.
func (r *Renderer) Scheduler() Scheduler {
	return r.sched
}

// NativeNode returns the native node a synthetic node has been projected to.
func (r *Renderer) NativeNode(id synth.ID) (surface.Node, bool) {
	e, ok := r.nodes.Lookup(id)
	return e.Native, ok
}

// SyntheticNode returns the synthetic node a native node is the projection
// of.
func (r *Renderer) SyntheticNode(native surface.Node) (*synth.Node, bool) {
	e, ok := r.nodes.Resolve(native)
	return e.Synthetic, ok
}

// initialize (re-)initializes the projection after the surface signaled
// readiness.
func (r *Renderer) initialize() {
	if r.unsubscribe == nil {
		return // closed
	}
	if r.state != Uninitialized {
		tracer().Infof("surface re-initialized, resetting renderer")
	}
	r.stale.Store(false)
	r.reset()
	if err := r.surf.Listen(r.classes, r.onNativeEvent); err != nil {
		r.diag(surface.Traced("listen", err))
	}
	r.initialRender()
	r.state = Steady
	r.requestRender()
}

// reset clears the registries and the projected stylesheets.
func (r *Renderer) reset() {
	r.cancelRecompute()
	r.nodes.Clear()
	r.sheets.Clear()
	r.renderPending = false
	r.state = Uninitialized
	if err := r.surf.Reset(); err != nil {
		r.diag(surface.Traced("reset", err))
	}
}

// initialRender registers all stylesheets of the document and materializes
// the document into the content container.
func (r *Renderer) initialRender() {
	r.state = InitialRender
	tracer().Infof("initial render")
	for i, sheet := range r.doc.StyleSheets() {
		r.registerStyleSheet(sheet, i)
	}
	root, ok := r.materialize(r.doc.Root())
	if !ok {
		return
	}
	if err := r.surf.MountRoot(root); err != nil {
		r.diag(surface.Traced("mount", err))
	}
}

// handleMutation is the subscriber for document mutations.
func (r *Renderer) handleMutation(m synth.Mutation) {
	if r.state != Steady || r.stale.Load() {
		// the next initial render will pick up the document's state
		return
	}
	r.patch(m)
	r.requestRender()
}

// requestRender requests a render pass. Requests while a pass is pending are
// absorbed. Requests before the surface is ready are dropped, as initialize
// renders anyway.
func (r *Renderer) requestRender() {
	if !r.surf.Ready() || r.state != Steady {
		return
	}
	if r.renderPending {
		return
	}
	r.renderPending = true
	r.sched.Post(r.render)
}

// render runs a render pass. The surface renders itself, so a pass only
// schedules sampling of the outcome.
func (r *Renderer) render() {
	if !r.renderPending {
		return // reset in between
	}
	r.renderPending = false
	r.requestRecompute()
}
