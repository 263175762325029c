/*
Package memsurface implements an in-memory rendering surface.

The surface keeps its native document as an HTML parse tree of package
golang.org/x/net/html. Styles are resolved from the rules of the surface's
style elements, matched with cascadia, and layout is approximated by a
simple block-stacking oracle. The surface is deterministic and is meant for
tests and for hosts without a browser.

A surface has to be loaded before it signals readiness; reloading clears the
document and signals readiness again, just as a navigating browser frame
would.

Surfaces are not safe for concurrent use.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package memsurface

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tracer traces with key 'sdom.surface'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.surface")
}

// Surface is an in-memory rendering surface. Native nodes are *html.Node.
type Surface struct {
	root      *html.Node // the document
	styles    *html.Node // container for style elements
	content   *html.Node // container for content
	sheets    map[*html.Node]*sheet
	values    map[*html.Node]string // value properties of input-like elements
	ready     bool
	onReady   func()
	classes   map[string]bool
	handler   surface.EventHandler
	viewport  surface.Size
	scroll    surface.Point
	layout    map[*html.Node]surface.Rect // cached, nil if outdated
	computed  map[*html.Node]*style.PropertyMap
	docHeight float64
}

// Option configures a surface.
type Option func(*Surface)

// WithViewport sets the viewport size of a surface. The default is 800×600.
func WithViewport(width, height float64) Option {
	return func(s *Surface) {
		s.viewport = surface.Size{Width: width, Height: height}
	}
}

// New creates an in-memory surface, which has not yet been loaded.
func New(opts ...Option) *Surface {
	s := &Surface{
		viewport: surface.Size{Width: 800, Height: 600},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initDocument()
	return s
}

// initDocument creates the mount layout: a style container followed by a
// content container.
func (s *Surface) initDocument() {
	s.root = &html.Node{Type: html.DocumentNode}
	h := element("html")
	body := element("body")
	s.styles = element("span")
	s.content = element("div")
	s.root.AppendChild(h)
	h.AppendChild(body)
	body.AppendChild(s.styles)
	body.AppendChild(s.content)
	s.sheets = make(map[*html.Node]*sheet)
	s.values = make(map[*html.Node]string)
	s.scroll = surface.Point{}
	s.invalidate()
}

func element(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// Load completes loading of the surface and signals readiness.
func (s *Surface) Load() {
	tracer().Infof("memsurface loaded")
	s.ready = true
	if s.onReady != nil {
		s.onReady()
	}
}

// Reload discards the document, including installed listeners, and signals
// readiness again.
func (s *Surface) Reload() {
	tracer().Infof("memsurface reloading")
	s.ready = false
	s.handler = nil
	s.classes = nil
	s.initDocument()
	s.Load()
}

// OnReady is part of interface surface.Surface.
func (s *Surface) OnReady(f func()) {
	s.onReady = f
}

// Ready is part of interface surface.Surface.
func (s *Surface) Ready() bool {
	return s.ready
}

// Reset is part of interface surface.Surface.
func (s *Surface) Reset() error {
	for _, c := range []*html.Node{s.styles, s.content} {
		for c.FirstChild != nil {
			c.RemoveChild(c.FirstChild)
		}
	}
	s.sheets = make(map[*html.Node]*sheet)
	s.values = make(map[*html.Node]string)
	s.invalidate()
	return nil
}

// Content returns the content container.
func (s *Surface) Content() *html.Node {
	return s.content
}

// StyleContainer returns the container of style elements.
func (s *Surface) StyleContainer() *html.Node {
	return s.styles
}

// HTML renders the content container.
func (s *Surface) HTML() string {
	var b bytes.Buffer
	for c := s.content.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			tracer().Errorf("cannot render content: %v", err)
		}
	}
	return b.String()
}

// --- Nodes -----------------------------------------------------------------

func asNode(n surface.Node) (*html.Node, error) {
	h, ok := n.(*html.Node)
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: %v", surface.ErrNoSuchNode, n)
	}
	return h, nil
}

// CreateElement is part of interface surface.Surface.
func (s *Surface) CreateElement(ns synth.Namespace, tag string) (surface.Node, error) {
	if tag == "" {
		return nil, fmt.Errorf("memsurface: cannot create element without tag name")
	}
	e := element(tag)
	if ns == synth.SVGNamespace {
		e.Namespace = "svg"
	}
	return e, nil
}

// CreateText is part of interface surface.Surface.
func (s *Surface) CreateText(data string) (surface.Node, error) {
	return &html.Node{Type: html.TextNode, Data: data}, nil
}

// CreateComment is part of interface surface.Surface.
func (s *Surface) CreateComment(data string) (surface.Node, error) {
	return &html.Node{Type: html.CommentNode, Data: data}, nil
}

// SetAttribute is part of interface surface.Surface. Attribute names have to
// be valid XML names.
func (s *Surface) SetAttribute(n surface.Node, name, value string) error {
	h, err := asNode(n)
	if err != nil {
		return err
	}
	if !isXMLName(name) {
		return fmt.Errorf("%w: %q", surface.ErrInvalidAttribute, name)
	}
	setAttr(h, name, value)
	if name == "value" && isInput(h) {
		s.values[h] = value
	}
	s.invalidate()
	return nil
}

// RemoveAttribute is part of interface surface.Surface.
func (s *Surface) RemoveAttribute(n surface.Node, name string) error {
	h, err := asNode(n)
	if err != nil {
		return err
	}
	for i, a := range h.Attr {
		if a.Key == name {
			h.Attr = append(h.Attr[:i], h.Attr[i+1:]...)
			break
		}
	}
	s.invalidate()
	return nil
}

// SetClassName is part of interface surface.Surface.
func (s *Surface) SetClassName(n surface.Node, class string) error {
	return s.SetAttribute(n, "class", class)
}

// SetText is part of interface surface.Surface.
func (s *Surface) SetText(n surface.Node, data string) error {
	h, err := asNode(n)
	if err != nil {
		return err
	}
	if h.Type != html.TextNode && h.Type != html.CommentNode {
		return fmt.Errorf("%w: cannot set text of element %s", surface.ErrNoSuchNode, h.Data)
	}
	h.Data = data
	s.invalidate()
	return nil
}

// InsertChild is part of interface surface.Surface. Indices beyond the
// number of children append the child.
func (s *Surface) InsertChild(parent, child surface.Node, index int) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	ch, err := asNode(child)
	if err != nil {
		return err
	}
	if ch.Parent != nil {
		ch.Parent.RemoveChild(ch)
	}
	ref := p.FirstChild
	for i := 0; ref != nil && i < index; i++ {
		ref = ref.NextSibling
	}
	if index < 0 {
		ref = nil
	}
	p.InsertBefore(ch, ref)
	s.invalidate()
	return nil
}

// RemoveChild is part of interface surface.Surface.
func (s *Surface) RemoveChild(parent, child surface.Node) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	ch, err := asNode(child)
	if err != nil {
		return err
	}
	if ch.Parent != p {
		return fmt.Errorf("%w: not a child of %s", surface.ErrNoSuchNode, p.Data)
	}
	p.RemoveChild(ch)
	s.invalidate()
	return nil
}

// Hide is part of interface surface.Surface. Hidden elements are marked
// with the HTML attribute "hidden".
func (s *Surface) Hide(n surface.Node) error {
	h, err := asNode(n)
	if err != nil {
		return err
	}
	setAttr(h, "hidden", "")
	s.invalidate()
	return nil
}

// MountRoot is part of interface surface.Surface.
func (s *Surface) MountRoot(n surface.Node) error {
	h, err := asNode(n)
	if err != nil {
		return err
	}
	for s.content.FirstChild != nil {
		s.content.RemoveChild(s.content.FirstChild)
	}
	if h.Parent != nil {
		h.Parent.RemoveChild(h)
	}
	s.content.AppendChild(h)
	s.invalidate()
	return nil
}

// Value is part of interface surface.Surface.
func (s *Surface) Value(n surface.Node) (string, bool) {
	h, err := asNode(n)
	if err != nil || !isInput(h) {
		return "", false
	}
	if v, ok := s.values[h]; ok {
		return v, true
	}
	if h.Data == "textarea" {
		return textOf(h), true
	}
	v, _ := attr(h, "value")
	return v, true
}

// SetValue simulates typing into an input-like element: it changes the
// element's value property, leaving its attributes untouched.
func (s *Surface) SetValue(n *html.Node, value string) {
	if isInput(n) {
		s.values[n] = value
	}
}

// --- Helpers ---------------------------------------------------------------

func isInput(h *html.Node) bool {
	return h != nil && h.Type == html.ElementNode && (h.Data == "input" || h.Data == "textarea")
}

func attr(h *html.Node, key string) (string, bool) {
	for _, a := range h.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(h *html.Node, key, value string) {
	for i, a := range h.Attr {
		if a.Key == key {
			h.Attr[i].Val = value
			return
		}
	}
	h.Attr = append(h.Attr, html.Attribute{Key: key, Val: value})
}

func textOf(h *html.Node) string {
	var b bytes.Buffer
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// isXMLName checks the production Name of XML 1.0, restricted to the
// characters we expect in attribute names.
func isXMLName(name string) bool {
	if name == "" {
		return false
	}
	r, size := utf8.DecodeRuneInString(name)
	if !(unicode.IsLetter(r) || r == '_' || r == ':') {
		return false
	}
	for _, r := range name[size:] {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

func (s *Surface) invalidate() {
	s.layout = nil
}

var _ surface.Surface = &Surface{}
