package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/sdom/config"
	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/surface/memsurface"
	"github.com/npillmayer/sdom/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const testDoc = `<html><head><style>p { color: red; }</style></head><body><div id="main"><p>Hello</p>   <input value="x"><button>Go</button></div><style>div { height: 40px; }</style></body></html>`

type fixture struct {
	doc   *synth.Document
	surf  *memsurface.Surface
	r     *Renderer
	sched *ManualScheduler
	diags []error
}

func setup(t *testing.T, src string, surfOpts []memsurface.Option, opts ...Option) *fixture {
	t.Helper()
	doc, err := synth.ParseHTML(strings.NewReader(src), synth.WithIDs(synth.SequentialIDs("n")))
	require.NoError(t, err)
	f := &fixture{
		doc:   doc,
		surf:  memsurface.New(surfOpts...),
		sched: NewManualScheduler(time.Unix(0, 0)),
	}
	opts = append([]Option{
		WithScheduler(f.sched),
		WithDiagnostics(func(err error) { f.diags = append(f.diags, err) }),
	}, opts...)
	f.r = New(doc, f.surf, opts...)
	f.r.Start()
	f.surf.Load()
	f.sched.RunPending()
	return f
}

func (f *fixture) find(attr, value string) *synth.Node {
	for _, n := range f.doc.Descendants() {
		if n.NodeType() != synth.ElementNode {
			continue
		}
		if attr == "" && n.TagName() == value {
			return n
		}
		if v, ok := n.Attribute(attr); attr != "" && ok && v == value {
			return n
		}
	}
	return nil
}

func (f *fixture) native(t *testing.T, n *synth.Node) *html.Node {
	t.Helper()
	native, ok := f.r.NativeNode(n.ID())
	require.True(t, ok, "%s has not been projected", n)
	return native.(*html.Node)
}

func nativeAttr(h *html.Node, key string) (string, bool) {
	for _, a := range h.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// assertAligned checks that the native sub-tree of n has the same shape as
// n, node by node.
func (f *fixture) assertAligned(t *testing.T, n *synth.Node) {
	t.Helper()
	h := f.native(t, n)
	var natives []*html.Node
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		natives = append(natives, c)
	}
	children := n.ChildNodes()
	require.Len(t, natives, len(children), "children of %s", n)
	for i, ch := range children {
		s, ok := f.r.SyntheticNode(natives[i])
		require.True(t, ok, "native child %d of %s is not registered", i, n)
		assert.Same(t, ch, s)
		f.assertAligned(t, ch)
	}
}

// assertConsistent checks both registries against the document.
func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	nodes := f.doc.Descendants()
	assert.Equal(t, len(nodes), f.r.nodes.Len())
	for _, n := range nodes {
		native := f.native(t, n)
		s, ok := f.r.SyntheticNode(native)
		require.True(t, ok)
		assert.Same(t, n, s)
	}
	sheets := f.doc.StyleSheets()
	assert.Equal(t, len(sheets), f.r.sheets.Len())
	require.Equal(t, len(sheets), f.surf.StyleElementCount())
	elem := f.surf.StyleContainer().FirstChild
	for _, sheet := range sheets {
		e, ok := f.r.sheets.Lookup(sheet.ID())
		require.True(t, ok, "stylesheet %s has not been projected", sheet.ID())
		assert.Equal(t, surface.Node(elem), e.Native.elem, "stylesheet order")
		elem = elem.NextSibling
	}
}

func TestInitialRender(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	assert.Equal(t, Steady, f.r.State())
	f.assertConsistent(t)
	f.assertAligned(t, f.doc.Root())
	assert.Equal(t, f.native(t, f.doc.Root()), f.surf.Content().FirstChild)
	head := f.native(t, f.find("", "head"))
	assert.Equal(t, "span", head.Data)
	_, hidden := nativeAttr(head, "hidden")
	assert.True(t, hidden, "head must be projected as hidden placeholder")
	assert.Equal(t, "span", f.native(t, f.find("", "body")).Data)
	main := f.native(t, f.find("id", "main"))
	assert.Equal(t, "div", main.Data)
	ws := main.FirstChild.NextSibling // text between <p> and <input>
	assert.Equal(t, html.TextNode, ws.Type)
	assert.Equal(t, "", ws.Data, "whitespace-only text must be projected empty")
	assert.Empty(t, f.diags)
}

func TestRenderIsDeferredUntilReady(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	doc := synth.NewDocument(synth.WithIDs(synth.SequentialIDs("n")))
	surf := memsurface.New()
	sched := NewManualScheduler(time.Unix(0, 0))
	r := New(doc, surf, WithScheduler(sched))
	r.Start()
	div := doc.CreateElement("div")
	require.NoError(t, doc.AppendChild(div))
	sched.RunPending()
	assert.Equal(t, Uninitialized, r.State())
	assert.Nil(t, surf.Content().FirstChild)
	surf.Load()
	sched.RunPending()
	assert.Equal(t, Steady, r.State())
	_, ok := r.NativeNode(div.ID())
	assert.True(t, ok, "edits before readiness must be rendered on ready")
}

func TestPatchTreeEdits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	main := f.find("id", "main")
	p := f.find("", "p")
	// insert a sub-tree
	ul := f.doc.CreateElement("ul")
	for _, s := range []string{"a", "b"} {
		li := f.doc.CreateElement("li")
		require.NoError(t, li.AppendChild(f.doc.CreateTextNode(s)))
		require.NoError(t, ul.AppendChild(li))
	}
	require.NoError(t, main.InsertChildAt(1, ul))
	f.assertConsistent(t)
	f.assertAligned(t, main)
	// move
	require.NoError(t, main.MoveChild(p, 3))
	f.assertAligned(t, main)
	// attributes
	ul.SetAttribute("class", "list")
	ul.SetAttribute("title", "two\nlines")
	nul := f.native(t, ul)
	class, _ := nativeAttr(nul, "class")
	assert.Equal(t, "list", class)
	title, _ := nativeAttr(nul, "title")
	assert.Equal(t, "two lines", title)
	ul.RemoveAttribute("title")
	_, ok := nativeAttr(nul, "title")
	assert.False(t, ok)
	// text
	txt := ul.ChildAt(0).ChildAt(0)
	txt.SetData("changed")
	assert.Equal(t, "changed", f.native(t, txt).Data)
	txt.SetData("  ")
	assert.Equal(t, "", f.native(t, txt).Data)
	// removal
	require.NoError(t, main.RemoveChild(ul))
	f.assertConsistent(t)
	f.assertAligned(t, main)
	_, ok = f.r.NativeNode(txt.ID())
	assert.False(t, ok, "removed nodes must be unregistered")
	// edits of detached nodes are skipped
	txt.SetData("detached")
	ul.SetAttribute("id", "gone")
	f.assertConsistent(t)
	// re-insertion projects the current state
	require.NoError(t, main.AppendChild(ul))
	f.assertAligned(t, main)
	assert.Equal(t, "detached", f.native(t, txt).Data)
	assert.Empty(t, f.diags)
}

func TestInsertFragment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	main := f.find("id", "main")
	frag, err := f.doc.ParseFragment(strings.NewReader(`<em>1</em><strong>2</strong>`))
	require.NoError(t, err)
	require.NoError(t, main.InsertChildAt(0, frag))
	f.assertConsistent(t)
	f.assertAligned(t, main)
	assert.Equal(t, "em", f.native(t, main.ChildAt(0)).Data)
}

func TestInvalidAttributeIsReported(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	main := f.find("id", "main")
	main.SetAttribute("on click", "x")
	main.SetAttribute("title", "ok")
	require.Len(t, f.diags, 1)
	assert.True(t, errors.Is(f.diags[0], surface.ErrInvalidAttribute))
	title, _ := nativeAttr(f.native(t, main), "title")
	assert.Equal(t, "ok", title, "node must continue after a rejected attribute")
}

func TestStyleSheetOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	body := f.find("", "body")
	style := f.doc.ParseStyleSheet("span { color: green; }")
	require.NoError(t, body.InsertChildAt(0, style))
	f.assertConsistent(t)
	e, ok := f.r.sheets.Lookup(style.StyleSheet().ID())
	require.True(t, ok)
	assert.Equal(t, []string{"span"}, f.surf.RuleSelectors(e.Native.sheet))
	// a wrapper holding a stylesheet
	div := f.doc.CreateElement("div")
	require.NoError(t, div.AppendChild(f.doc.ParseStyleSheet("b { color: blue; }")))
	require.NoError(t, f.find("", "head").InsertChildAt(0, div))
	f.assertConsistent(t)
	assert.Equal(t, 4, f.surf.StyleElementCount())
}

func TestMovedStyleSheetOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, `<html><head></head><body><style>p { color: red; }</style><div><p>x</p></div><style>p { color: blue; }</style></body></html>`, nil)
	p := f.find("", "p")
	color := func() string {
		f.sched.Advance(time.Second)
		painted, ok := f.r.Painted()
		require.True(t, ok)
		c, _ := painted.Styles[p.ID()].Property("color")
		return c.String()
	}
	assert.Equal(t, "rgb(0, 0, 255)", color())
	sheets := f.doc.StyleSheets()
	require.Len(t, sheets, 2)
	var second *synth.Node
	for _, n := range f.doc.Descendants() {
		if n.StyleSheet() == sheets[1] {
			second = n
		}
	}
	require.NotNil(t, second)
	require.NoError(t, f.find("", "body").MoveChild(second, 0))
	f.assertConsistent(t)
	f.assertAligned(t, f.doc.Root())
	assert.Equal(t, "rgb(255, 0, 0)", color(), "moved stylesheet must lose the cascade")
	// moving a wrapper carries its stylesheet along
	div := f.doc.CreateElement("div")
	require.NoError(t, f.find("", "body").AppendChild(div))
	require.NoError(t, div.AppendChild(f.doc.ParseStyleSheet("p { color: green; }")))
	f.assertConsistent(t)
	require.NoError(t, f.find("", "body").MoveChild(div, 0))
	f.assertConsistent(t)
	assert.Equal(t, "rgb(255, 0, 0)", color())
	assert.Empty(t, f.diags)
}

func TestRemovedStyleSheetCleanup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	root := f.find("", "html")
	head := f.find("", "head")
	sheet := f.doc.StyleSheets()[0]
	e, ok := f.r.sheets.Lookup(sheet.ID())
	require.True(t, ok)
	elem := e.Native.elem.(*html.Node)
	require.NoError(t, root.RemoveChild(head))
	assert.Equal(t, 1, f.surf.StyleElementCount())
	assert.False(t, f.r.sheets.Contains(sheet.ID()))
	assert.Nil(t, elem.Parent, "native style element must be removed")
	f.assertConsistent(t)
	// edits of the removed stylesheet are skipped
	_, err := sheet.InsertRule("a { color: blue; }", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.surf.StyleElementCount())
	// re-inserting the head registers the stylesheet in front
	require.NoError(t, root.InsertChildAt(0, head))
	f.assertConsistent(t)
	e, _ = f.r.sheets.Lookup(sheet.ID())
	assert.Equal(t, []string{"a", "p"}, f.surf.RuleSelectors(e.Native.sheet))
	assert.Empty(t, f.diags)
}

func TestResyncResilience(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	sheet := f.doc.StyleSheets()[1]
	_, err := sheet.InsertRule("p { margin: 0; }", 1)
	require.NoError(t, err)
	_, err = sheet.InsertRule("span { color: blue; }", 2)
	require.NoError(t, err)
	_, err = sheet.InsertRule("a:-moz-any-link { color: blue; }", 1)
	require.NoError(t, err)
	e, _ := f.r.sheets.Lookup(sheet.ID())
	assert.Equal(t, []string{"div", "p", "span"}, f.surf.RuleSelectors(e.Native.sheet))
	require.Len(t, f.diags, 1)
	assert.True(t, errors.Is(f.diags[0], surface.ErrRuleRejected))
	// declaration edits resync the owning stylesheet
	sheet.Rule(0).SetDeclaration("height", "50px")
	f.sched.Advance(time.Second)
	painted, ok := f.r.Painted()
	require.True(t, ok)
	main := f.find("id", "main")
	h, _ := painted.Styles[main.ID()].Property("height")
	assert.Equal(t, "50px", h.String())
	assert.Equal(t, 50.0, painted.Rects[main.ID()].Height)
}

func TestUnprojectedStyleSheetIsSkipped(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	detached := f.doc.ParseStyleSheet("a { color: red; }")
	_, err := detached.StyleSheet().InsertRule("b { color: red; }", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.surf.StyleElementCount())
	assert.Empty(t, f.diags)
}

func TestIdempotentReRender(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	before := f.surf.HTML()
	nodes, sheets := f.r.nodes.Len(), f.r.sheets.Len()
	f.surf.Reload()
	f.sched.RunPending()
	assert.Equal(t, Steady, f.r.State())
	assert.Equal(t, before, f.surf.HTML())
	assert.Equal(t, nodes, f.r.nodes.Len())
	assert.Equal(t, sheets, f.r.sheets.Len())
	f.assertConsistent(t)
	f.assertAligned(t, f.doc.Root())
}

func TestRenderRequestsAreAbsorbed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	published := 0
	f.r.OnPaint(func(PaintedInfo) { published++ })
	before := f.surf.HTML()
	nodes := f.r.nodes.Len()
	f.r.requestRender()
	f.r.requestRender()
	queued, _ := f.sched.Pending()
	assert.Equal(t, 1, queued, "a pending render pass must absorb further requests")
	assert.Equal(t, 1, f.sched.RunPending())
	assert.Equal(t, before, f.surf.HTML())
	assert.Equal(t, nodes, f.r.nodes.Len())
	f.assertConsistent(t)
	f.sched.Advance(config.DefaultRecomputeInterval)
	assert.Equal(t, 1, published)
}

func TestMutationDuringReload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	main := f.find("id", "main")
	old := f.native(t, main)
	f.surf.Reload()
	main.SetAttribute("title", "during reload")
	_, ok := nativeAttr(old, "title")
	assert.False(t, ok, "outdated native nodes must not be patched")
	f.sched.RunPending()
	assert.Equal(t, Steady, f.r.State())
	f.assertConsistent(t)
	title, _ := nativeAttr(f.native(t, main), "title")
	assert.Equal(t, "during reload", title)
	assert.Empty(t, f.diags)
}

func TestEventRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	var notices []Notice
	f.r.OnNativeEvent(func(n Notice) { notices = append(notices, n) })
	main, button := f.find("id", "main"), f.find("", "button")
	var bubbled *synth.Event
	main.AddEventListener("click", func(e *synth.Event) { bubbled = e })
	//
	delivered, stopped, prevented := f.surf.Click(f.native(t, button))
	assert.True(t, delivered)
	assert.True(t, stopped, "native propagation must be stopped")
	assert.False(t, prevented)
	f.sched.RunPending()
	require.Len(t, notices, 1)
	assert.Equal(t, NativeEvent, notices[0].Kind)
	assert.Equal(t, button.ID(), notices[0].SourceID)
	require.NotNil(t, bubbled, "click must bubble to synthetic ancestors")
	assert.Same(t, button, bubbled.Target())
	// typing is written back to the synthetic input
	input := f.find("", "input")
	nativeInput := f.native(t, input)
	f.surf.SetValue(nativeInput, "typed")
	f.surf.Fire(&surface.NativeEvent{Type: "keyup", Target: nativeInput, Key: "d"})
	f.sched.RunPending()
	require.Len(t, notices, 2)
	assert.Equal(t, "typed", input.Value())
	assert.Equal(t, "typed", notices[1].Event.Detail.Value)
	assert.Equal(t, "d", notices[1].Event.Detail.Key)
	// submit is prevented
	_, _, prevented = f.surf.Fire(&surface.NativeEvent{Type: "submit", Target: f.native(t, button)})
	assert.True(t, prevented)
	f.sched.RunPending()
	assert.Len(t, notices, 3)
	// events at unprojected nodes are dropped and propagate natively
	_, stopped, _ = f.surf.Fire(&surface.NativeEvent{Type: "click", Target: f.surf.Content()})
	assert.False(t, stopped, "propagation of foreign events must not be stopped")
	f.sched.RunPending()
	assert.Len(t, notices, 3)
}

func TestCustomEventFactory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil, WithEventFactory(func(e *surface.NativeEvent, _ *synth.Node) *synth.Event {
		if e.Type == "mousemove" {
			return nil
		}
		return synth.NewEvent("x-"+e.Type, synth.EventDetail{})
	}))
	var notices []Notice
	f.r.OnNativeEvent(func(n Notice) { notices = append(notices, n) })
	button := f.native(t, f.find("", "button"))
	f.surf.Fire(&surface.NativeEvent{Type: "mousemove", Target: button})
	f.surf.Click(button)
	f.sched.RunPending()
	require.Len(t, notices, 1)
	assert.Equal(t, "x-click", notices[0].Event.Type)
}

func TestCoalescedRecompute(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, []memsurface.Option{memsurface.WithViewport(800, 20)})
	published := 0
	var last PaintedInfo
	f.r.OnPaint(func(info PaintedInfo) {
		published++
		last = info
	})
	f.sched.Advance(config.DefaultRecomputeInterval)
	require.Equal(t, 1, published, "initial render must be published")
	main := f.find("id", "main")
	assert.Equal(t, 40.0, last.Rects[main.ID()].Height)
	assert.Equal(t, 800.0, last.Rects[main.ID()].Width)
	_, ok := last.Rects[f.find("", "head").ID()]
	assert.False(t, ok, "hidden elements must not have a rectangle")
	//
	for i := 0; i < 10; i++ {
		main.SetAttribute("data-n", strings.Repeat("x", i))
	}
	f.sched.RunPending()
	f.sched.Advance(config.DefaultRecomputeInterval - time.Millisecond)
	assert.Equal(t, 1, published)
	f.sched.Advance(time.Millisecond)
	assert.Equal(t, 2, published, "ten mutations must result in one recompute")
	f.sched.Advance(time.Second)
	assert.Equal(t, 2, published)
	// resize and scrolling trigger a recompute
	f.surf.Resize(800, 10)
	f.sched.Advance(config.DefaultRecomputeInterval)
	assert.Equal(t, 3, published)
	f.r.ScrollTo(surface.Point{Y: 10})
	f.sched.Advance(config.DefaultRecomputeInterval)
	assert.Equal(t, 4, published)
	assert.Equal(t, surface.Point{Y: 10}, last.Scroll)
	assert.Equal(t, -10.0, last.Rects[main.ID()].Top, "rectangles are relative to the viewport")
}

func TestClose(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.render")
	defer teardown()
	//
	f := setup(t, testDoc, nil)
	f.r.Close()
	main := f.find("id", "main")
	main.SetAttribute("title", "after close")
	_, ok := nativeAttr(f.native(t, main), "title")
	assert.False(t, ok)
	f.sched.Advance(time.Second)
	_, painted := f.r.Painted()
	assert.False(t, painted)
}
