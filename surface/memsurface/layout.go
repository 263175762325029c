package memsurface

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/npillmayer/sdom/css"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/surface"
	"golang.org/x/net/html"
)

// Metrics of the layout oracle, in CSS pixels.
const (
	lineHeight = 16.0
	charWidth  = 8.0
)

// --- Layout ----------------------------------------------------------------

// BoundingRect is part of interface surface.Surface. Nodes which are not
// displayed, or are not part of the content, report a zero rectangle.
func (s *Surface) BoundingRect(n surface.Node) (surface.Rect, error) {
	h, err := asNode(n)
	if err != nil {
		return surface.Rect{}, err
	}
	s.doLayout()
	r, ok := s.layout[h]
	if !ok {
		return surface.Rect{}, nil
	}
	r.Left -= s.scroll.X
	r.Top -= s.scroll.Y
	return r, nil
}

// ContentSize is part of interface surface.Surface.
func (s *Surface) ContentSize() surface.Size {
	s.doLayout()
	w := s.viewport.Width
	for _, r := range s.layout {
		w = max(w, r.Left+r.Width)
	}
	return surface.Size{Width: w, Height: s.docHeight}
}

// ScrollOffset is part of interface surface.Surface.
func (s *Surface) ScrollOffset() surface.Point {
	return s.scroll
}

// ScrollTo is part of interface surface.Surface. Offsets are clamped to the
// scrollable area.
func (s *Surface) ScrollTo(p surface.Point) error {
	size := s.ContentSize()
	p.X = clamp(p.X, 0, size.Width-s.viewport.Width)
	p.Y = clamp(p.Y, 0, size.Height-s.viewport.Height)
	s.scroll = p
	return nil
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(x, max(lo, hi)))
}

// style of an element, cached for a layout pass.
func (s *Surface) styleOf(h *html.Node) *style.PropertyMap {
	if pmap, ok := s.computed[h]; ok {
		return pmap
	}
	pmap := s.computedStyle(h)
	s.computed[h] = pmap
	return pmap
}

func (s *Surface) doLayout() {
	if s.layout != nil {
		return
	}
	tracer().Debugf("memsurface: layout")
	s.layout = make(map[*html.Node]surface.Rect)
	s.computed = make(map[*html.Node]*style.PropertyMap)
	s.docHeight = s.layoutNode(s.content, 0, 0, s.viewport.Width)
}

// layoutNode places h with its top left corner at (x,y), given the
// available width, and returns the height h occupies in the flow.
func (s *Surface) layoutNode(h *html.Node, x, y, avail float64) float64 {
	switch h.Type {
	case html.TextNode:
		text := strings.TrimSpace(h.Data)
		if text == "" {
			return 0
		}
		lines := strings.Count(text, "\n") + 1
		r := surface.Rect{Left: x, Top: y, Width: min(avail, charWidth*float64(len(text))),
			Height: lineHeight * float64(lines)}
		s.layout[h] = r
		return r.Height
	case html.ElementNode:
	default:
		return 0
	}
	pmap := s.styleOf(h)
	display, _ := pmap.Property("display")
	if mode, _ := css.ParseDisplay(display); mode.Contains(css.DisplayNone) {
		return 0
	}
	mtop, mleft, mbottom := px(pmap, "margin-top"), px(pmap, "margin-left"), px(pmap, "margin-bottom")
	r := surface.Rect{Left: x + mleft, Top: y + mtop, Width: avail - mleft}
	if w, ok := dimension(pmap, "width"); ok {
		r.Width = w
	}
	pos := css.PositionFromStyles(pmap)
	dx, dy := pos.Shift()
	r.Left += dx
	r.Top += dy
	var height float64
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		height += s.layoutNode(c, r.Left, r.Top+height, r.Width)
	}
	r.Height = height
	if hh, ok := dimension(pmap, "height"); ok {
		r.Height = hh
	}
	s.layout[h] = r
	if !pos.InFlow() {
		return 0
	}
	return mtop + r.Height + mbottom
}

// dimension returns a fixed dimension property in CSS pixels.
func dimension(pmap *style.PropertyMap, key string) (float64, bool) {
	p, ok := pmap.Property(key)
	if !ok {
		return 0, false
	}
	d, err := css.ParseDimen(p)
	if err != nil {
		return 0, false
	}
	return d.Px()
}

func px(pmap *style.PropertyMap, key string) float64 {
	x, _ := dimension(pmap, key)
	return x
}

// --- Events ----------------------------------------------------------------

// Listen is part of interface surface.Surface.
func (s *Surface) Listen(classes []string, handler surface.EventHandler) error {
	s.classes = make(map[string]bool, len(classes))
	for _, c := range classes {
		s.classes[c] = true
	}
	s.handler = handler
	return nil
}

// Fire dispatches a native event to the installed listener, as if it had
// been captured at the root of the document. It reports whether the event
// was delivered and whether the listener stopped its propagation or
// prevented its default action.
func (s *Surface) Fire(e *surface.NativeEvent) (delivered, stopped, prevented bool) {
	if s.handler == nil || !(s.classes[e.Type] || e.Type == "resize") {
		return false, false, false
	}
	e.StopPropagation = func() { stopped = true }
	e.PreventDefault = func() { prevented = true }
	s.handler(e)
	return true, stopped, prevented
}

// Click fires a click event at the center of the bounding rectangle of h.
func (s *Surface) Click(h *html.Node) (delivered, stopped, prevented bool) {
	r, _ := s.BoundingRect(h)
	return s.Fire(&surface.NativeEvent{
		Type:    "click",
		Target:  h,
		ClientX: r.Left + r.Width/2,
		ClientY: r.Top + r.Height/2,
	})
}

// Resize changes the viewport and reports a resize event.
func (s *Surface) Resize(width, height float64) {
	s.viewport = surface.Size{Width: width, Height: height}
	s.invalidate()
	s.Fire(&surface.NativeEvent{Type: "resize"})
}

// Query returns all content nodes matching a CSS selector.
func (s *Surface) Query(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	return cascadia.QueryAll(s.content, sel), nil
}

// QueryOne returns the first content node matching a CSS selector, or nil.
func (s *Surface) QueryOne(selector string) *html.Node {
	nodes, err := s.Query(selector)
	if err != nil || len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}
