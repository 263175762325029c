/*
Package surface defines the contract of a native rendering surface.

A surface is the document a synthetic DOM is projected into: an embedded
browser frame, a headless browser page or an in-memory stand-in. The
projector in package render talks to surfaces through interface Surface
only, and treats layout as an opaque oracle: bounding rectangles and
resolved styles are read back from the surface, never computed.

Native nodes are opaque handles. Implementations choose the handle type,
but handles must be comparable, as they are indexed by the projector to
resolve native events to synthetic nodes.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package surface

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/synth"
)

// tracer traces with key 'sdom.surface'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.surface")
}

// ErrInvalidAttribute is returned by surfaces which reject an attribute,
// e.g., for an attribute name which is not a valid XML name.
var ErrInvalidAttribute = errors.New("surface: invalid attribute")

// ErrRuleRejected is returned by surfaces which reject a CSS rule.
var ErrRuleRejected = errors.New("surface: CSS rule rejected")

// ErrNotReady is returned for operations on a surface which has not
// completed loading.
var ErrNotReady = errors.New("surface: not ready")

// ErrNoSuchNode is returned for operations on unknown or stale handles.
var ErrNoSuchNode = errors.New("surface: no such node")

// Node is an opaque handle of a native node. Handles must be comparable.
type Node any

// StyleSheet is an opaque handle of a native stylesheet.
type StyleSheet any

// Rect is a bounding rectangle, in CSS pixels, relative to the viewport.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// IsZero returns true if all components of r are zero.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Size is the extent of a document.
type Size struct {
	Width, Height float64
}

// Point is a scroll offset.
type Point struct {
	X, Y float64
}

// NativeEvent is an event captured from a surface.
type NativeEvent struct {
	Type    string
	Target  Node // innermost native node the event has been dispatched to
	ClientX float64
	ClientY float64
	DeltaX  float64
	DeltaY  float64
	Button  int
	Key     string

	// StopPropagation and PreventDefault are set by the surface; calling
	// them acts on the native event.
	StopPropagation func()
	PreventDefault  func()
}

// EventHandler receives native events captured by a surface.
type EventHandler func(*NativeEvent)

// Surface is a native document synthetic nodes can be projected into.
// Surfaces are not required to be safe for concurrent use.
type Surface interface {
	// Node creation
	CreateElement(ns synth.Namespace, tag string) (Node, error)
	CreateText(data string) (Node, error)
	CreateComment(data string) (Node, error)

	// Node edits
	SetAttribute(n Node, name, value string) error // may return ErrInvalidAttribute
	RemoveAttribute(n Node, name string) error
	SetClassName(n Node, class string) error
	SetText(n Node, data string) error // text and comment nodes
	InsertChild(parent, child Node, index int) error
	RemoveChild(parent, child Node) error
	Hide(n Node) error

	// MountRoot attaches n as the root of the content container.
	MountRoot(n Node) error

	// Style elements live in a container of their own, separate from the
	// content.
	StyleElementCount() int
	InsertStyleElement(index int, cssText string) (Node, StyleSheet, error)
	RemoveStyleElement(n Node) error
	RuleCount(sheet StyleSheet) int
	DeleteRule(sheet StyleSheet, index int) error
	InsertRule(sheet StyleSheet, ruleText string, index int) error // may return ErrRuleRejected

	// Geometry and resolved styles
	BoundingRect(n Node) (Rect, error)
	ComputedStyle(n Node) ([]style.KeyValue, error)
	ContentSize() Size
	ScrollOffset() Point
	ScrollTo(p Point) error

	// Input
	Value(n Node) (string, bool) // value of input-like elements

	// Listen installs a root-level listener for the given event classes,
	// replacing previously installed listeners. Resize events of the
	// surface are reported with type "resize" and a nil target.
	Listen(classes []string, handler EventHandler) error

	// OnReady registers a callback which is called whenever the surface has
	// completed (re-)loading. Earlier callbacks are replaced.
	OnReady(func())
	Ready() bool

	// Reset clears the content and style containers.
	Reset() error
}

// DefaultEventClasses are the native event types the projector listens to.
var DefaultEventClasses = []string{
	"click", "dblclick", "submit",
	"mousedown", "mouseenter", "mouseleave", "mousemove", "mouseout",
	"mouseover", "mouseup", "mousewheel",
	"keydown", "keypress", "keyup",
}

// Traced wraps an error returned by a surface operation with the operation's
// name and traces it. It returns nil for a nil error.
func Traced(op string, err error) error {
	if err == nil {
		return nil
	}
	tracer().Errorf("surface operation %s failed: %v", op, err)
	return fmt.Errorf("%s: %w", op, err)
}
