/*
Package rodsurface implements a native surface on a page of a headless
browser, driven through the Chrome DevTools protocol by go-rod.

On opening, a small JavaScript runtime is installed into the page. It mounts
a style container and a content container, and keeps a table of the native
nodes it has created, addressed by integer handles. Every surface operation
is a single evaluation of a runtime function. Native events are captured at
the content container, stopped there, and sent back through a CDP runtime
binding.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package rodsurface

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
)

// tracer traces with key 'sdom.surface'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.surface")
}

//go:embed runtime.js
var runtimeJS string

// bindingName is the name of the CDP binding events are reported through.
const bindingName = "__sdom_event"

const blankPage = `<!DOCTYPE html><html><head></head><body></body></html>`

// Handle is a native node of a rodsurface. Handles are valid until the
// surface is reset or reloaded.
type Handle int

// Surface is a native surface on a rod page. Operations are safe to call
// from one goroutine at a time; events are delivered on a goroutine of the
// surface.
type Surface struct {
	page    *rod.Page
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	mu      sync.Mutex
	ready   bool
	onReady func()
	handler surface.EventHandler
}

// Option configures a surface.
type Option func(*Surface)

// WithTimeout limits the duration of each operation on the page.
func WithTimeout(d time.Duration) Option {
	return func(s *Surface) {
		s.timeout = d
	}
}

// Open installs the runtime into page, replacing the page's content, and
// returns a ready surface. Cancelling ctx detaches the surface from the page.
func Open(ctx context.Context, page *rod.Page, opts ...Option) (*Surface, error) {
	s := &Surface{page: page}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		s.cancel()
		return nil, fmt.Errorf("rodsurface: add binding: %w", err)
	}
	go page.Context(s.ctx).EachEvent(s.onBinding)()
	if err := s.install(); err != nil {
		s.cancel()
		return nil, err
	}
	s.setReady()
	return s, nil
}

// install replaces the page content by a blank document and evaluates the
// runtime.
func (s *Surface) install() error {
	if err := s.page.Context(s.ctx).SetDocumentContent(blankPage); err != nil {
		return fmt.Errorf("rodsurface: set document content: %w", err)
	}
	if _, err := s.page.Context(s.ctx).Eval(runtimeJS, bindingName); err != nil {
		return fmt.Errorf("rodsurface: install runtime: %w", err)
	}
	tracer().Infof("rodsurface runtime installed")
	return nil
}

func (s *Surface) setReady() {
	s.mu.Lock()
	s.ready = true
	f := s.onReady
	s.mu.Unlock()
	if f != nil {
		f()
	}
}

// Reload reloads the page and re-installs the runtime. All handles and
// listeners are discarded. Ready callbacks are called after reloading.
func (s *Surface) Reload() error {
	s.mu.Lock()
	s.ready = false
	s.handler = nil
	s.mu.Unlock()
	if err := s.page.Context(s.ctx).Reload(); err != nil {
		return fmt.Errorf("rodsurface: reload: %w", err)
	}
	if err := s.page.Context(s.ctx).WaitLoad(); err != nil {
		tracer().Errorf("rodsurface: wait for load: %v", err)
	}
	if err := s.install(); err != nil {
		return err
	}
	s.setReady()
	return nil
}

// Close detaches the surface from its page. The page stays open.
func (s *Surface) Close() {
	s.mu.Lock()
	s.ready = false
	s.handler = nil
	s.mu.Unlock()
	s.cancel()
}

// Page returns the page of s.
func (s *Surface) Page() *rod.Page {
	return s.page
}

// --- Calling the runtime ---------------------------------------------------

// result is the envelope every runtime function returns.
type result struct {
	OK   bool            `json:"ok"`
	V    json.RawMessage `json:"v"`
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
}

func (r result) err(op string) error {
	if r.OK {
		return nil
	}
	var sentinel error
	switch r.Code {
	case "node":
		sentinel = surface.ErrNoSuchNode
	case "attr":
		sentinel = surface.ErrInvalidAttribute
	case "rule":
		sentinel = surface.ErrRuleRejected
	default:
		return fmt.Errorf("rodsurface: %s: %s", op, r.Msg)
	}
	return fmt.Errorf("rodsurface: %s: %s: %w", op, r.Msg, sentinel)
}

// call evaluates runtime function op and decodes its value into v, if v is
// non-nil.
func (s *Surface) call(v any, op string, args ...any) error {
	if !s.Ready() {
		return surface.ErrNotReady
	}
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	args = append([]any{op}, args...)
	res, err := s.page.Context(ctx).Eval(`(op, ...args) => window.__sdom.call(op, ...args)`, args...)
	if err != nil {
		return fmt.Errorf("rodsurface: %s: %w", op, err)
	}
	var r result
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &r); err != nil {
		return fmt.Errorf("rodsurface: %s: decode result: %w", op, err)
	}
	if err := r.err(op); err != nil {
		return err
	}
	if v != nil && len(r.V) > 0 {
		if err := json.Unmarshal(r.V, v); err != nil {
			return fmt.Errorf("rodsurface: %s: decode value: %w", op, err)
		}
	}
	return nil
}

func asHandle(n surface.Node) (Handle, error) {
	h, ok := n.(Handle)
	if !ok || h <= 0 {
		return 0, fmt.Errorf("rodsurface: %v: %w", n, surface.ErrNoSuchNode)
	}
	return h, nil
}

func (s *Surface) create(op string, args ...any) (surface.Node, error) {
	var h Handle
	if err := s.call(&h, op, args...); err != nil {
		return nil, err
	}
	return h, nil
}

// on calls a runtime function taking the handle of n as its first argument.
func (s *Surface) on(op string, n surface.Node, args ...any) error {
	h, err := asHandle(n)
	if err != nil {
		return err
	}
	return s.call(nil, op, append([]any{h}, args...)...)
}

// --- Node creation and edits -----------------------------------------------

// CreateElement is part of interface surface.Surface.
func (s *Surface) CreateElement(ns synth.Namespace, tag string) (surface.Node, error) {
	uri := ""
	if ns == synth.SVGNamespace {
		uri = synth.SVGNamespaceURI
	}
	return s.create("createElement", uri, tag)
}

// CreateText is part of interface surface.Surface.
func (s *Surface) CreateText(data string) (surface.Node, error) {
	return s.create("createText", data)
}

// CreateComment is part of interface surface.Surface.
func (s *Surface) CreateComment(data string) (surface.Node, error) {
	return s.create("createComment", data)
}

// SetAttribute is part of interface surface.Surface.
func (s *Surface) SetAttribute(n surface.Node, name, value string) error {
	return s.on("setAttribute", n, name, value)
}

// RemoveAttribute is part of interface surface.Surface.
func (s *Surface) RemoveAttribute(n surface.Node, name string) error {
	return s.on("removeAttribute", n, name)
}

// SetClassName is part of interface surface.Surface.
func (s *Surface) SetClassName(n surface.Node, class string) error {
	return s.on("setClassName", n, class)
}

// SetText is part of interface surface.Surface.
func (s *Surface) SetText(n surface.Node, data string) error {
	return s.on("setText", n, data)
}

// InsertChild is part of interface surface.Surface.
func (s *Surface) InsertChild(parent, child surface.Node, index int) error {
	c, err := asHandle(child)
	if err != nil {
		return err
	}
	return s.on("insertChild", parent, c, index)
}

// RemoveChild is part of interface surface.Surface.
func (s *Surface) RemoveChild(parent, child surface.Node) error {
	c, err := asHandle(child)
	if err != nil {
		return err
	}
	return s.on("removeChild", parent, c)
}

// Hide is part of interface surface.Surface.
func (s *Surface) Hide(n surface.Node) error {
	return s.on("hide", n)
}

// MountRoot is part of interface surface.Surface.
func (s *Surface) MountRoot(n surface.Node) error {
	return s.on("mountRoot", n)
}

// Value is part of interface surface.Surface.
func (s *Surface) Value(n surface.Node) (string, bool) {
	h, err := asHandle(n)
	if err != nil {
		return "", false
	}
	var v *string
	if err := s.call(&v, "value", h); err != nil {
		tracer().Errorf("rodsurface: %v", err)
		return "", false
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

// Reset is part of interface surface.Surface.
func (s *Surface) Reset() error {
	return s.call(nil, "reset")
}

// OnReady is part of interface surface.Surface.
func (s *Surface) OnReady(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReady = f
}

// Ready is part of interface surface.Surface.
func (s *Surface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// --- Stylesheets -----------------------------------------------------------

// StyleElementCount is part of interface surface.Surface.
func (s *Surface) StyleElementCount() int {
	var n int
	if err := s.call(&n, "styleElementCount"); err != nil {
		tracer().Errorf("rodsurface: %v", err)
	}
	return n
}

// InsertStyleElement is part of interface surface.Surface. The stylesheet
// handle of a style element is the handle of the element.
func (s *Surface) InsertStyleElement(index int, cssText string) (surface.Node, surface.StyleSheet, error) {
	var h Handle
	if err := s.call(&h, "insertStyleElement", index, cssText); err != nil {
		return nil, nil, err
	}
	return h, h, nil
}

// RemoveStyleElement is part of interface surface.Surface.
func (s *Surface) RemoveStyleElement(n surface.Node) error {
	return s.on("removeStyleElement", n)
}

// RuleCount is part of interface surface.Surface.
func (s *Surface) RuleCount(sheet surface.StyleSheet) int {
	h, err := asHandle(sheet)
	if err != nil {
		return 0
	}
	var n int
	if err := s.call(&n, "ruleCount", h); err != nil {
		tracer().Errorf("rodsurface: %v", err)
	}
	return n
}

// DeleteRule is part of interface surface.Surface.
func (s *Surface) DeleteRule(sheet surface.StyleSheet, index int) error {
	return s.on("deleteRule", sheet, index)
}

// InsertRule is part of interface surface.Surface.
func (s *Surface) InsertRule(sheet surface.StyleSheet, ruleText string, index int) error {
	return s.on("insertRule", sheet, ruleText, index)
}

// --- Geometry --------------------------------------------------------------

// BoundingRect is part of interface surface.Surface.
func (s *Surface) BoundingRect(n surface.Node) (surface.Rect, error) {
	h, err := asHandle(n)
	if err != nil {
		return surface.Rect{}, err
	}
	var r struct{ Left, Top, Width, Height float64 }
	if err := s.call(&r, "boundingRect", h); err != nil {
		return surface.Rect{}, err
	}
	return surface.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}, nil
}

// ComputedStyle is part of interface surface.Surface.
func (s *Surface) ComputedStyle(n surface.Node) ([]style.KeyValue, error) {
	h, err := asHandle(n)
	if err != nil {
		return nil, err
	}
	var pairs [][2]string
	if err := s.call(&pairs, "computedStyle", h); err != nil {
		return nil, err
	}
	if pairs == nil {
		return nil, nil
	}
	kvs := make([]style.KeyValue, 0, len(pairs))
	for _, p := range pairs {
		kvs = append(kvs, style.KeyValue{Key: p[0], Value: style.Property(p[1])})
	}
	return kvs, nil
}

// ContentSize is part of interface surface.Surface.
func (s *Surface) ContentSize() surface.Size {
	var sz struct{ Width, Height float64 }
	if err := s.call(&sz, "contentSize"); err != nil {
		tracer().Errorf("rodsurface: %v", err)
	}
	return surface.Size{Width: sz.Width, Height: sz.Height}
}

// ScrollOffset is part of interface surface.Surface.
func (s *Surface) ScrollOffset() surface.Point {
	var p struct{ X, Y float64 }
	if err := s.call(&p, "scrollOffset"); err != nil {
		tracer().Errorf("rodsurface: %v", err)
	}
	return surface.Point{X: p.X, Y: p.Y}
}

// ScrollTo is part of interface surface.Surface.
func (s *Surface) ScrollTo(p surface.Point) error {
	return s.call(nil, "scrollTo", p.X, p.Y)
}

// --- Events ----------------------------------------------------------------

// Listen is part of interface surface.Surface. Events targeting nodes of
// the surface are stopped and, for submit events, prevented inside the page
// before they are reported.
func (s *Surface) Listen(classes []string, handler surface.EventHandler) error {
	if classes == nil {
		classes = []string{}
	}
	if err := s.call(nil, "listen", classes); err != nil {
		return err
	}
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
	return nil
}

// eventPayload is the JSON sent by the runtime for each captured event.
type eventPayload struct {
	Type    string  `json:"type"`
	Target  Handle  `json:"target"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	DeltaX  float64 `json:"deltaX"`
	DeltaY  float64 `json:"deltaY"`
	Button  int     `json:"button"`
	Key     string  `json:"key"`
}

// decodeEvent converts a binding payload into a native event. Events of the
// window and events outside of nodes of the surface have a nil target.
func decodeEvent(payload string) (*surface.NativeEvent, error) {
	var p eventPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, err
	}
	if p.Type == "" {
		return nil, errors.New("event without type")
	}
	e := &surface.NativeEvent{
		Type:    p.Type,
		ClientX: p.ClientX,
		ClientY: p.ClientY,
		DeltaX:  p.DeltaX,
		DeltaY:  p.DeltaY,
		Button:  p.Button,
		Key:     p.Key,
	}
	if p.Target > 0 {
		e.Target = p.Target
	}
	return e, nil
}

func (s *Surface) onBinding(e *proto.RuntimeBindingCalled) {
	if e.Name != bindingName {
		return
	}
	ev, err := decodeEvent(e.Payload)
	if err != nil {
		tracer().Errorf("rodsurface: cannot decode event: %v", err)
		return
	}
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

var _ surface.Surface = &Surface{}
