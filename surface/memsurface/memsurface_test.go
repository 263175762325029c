package memsurface

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustElement(t *testing.T, s *Surface, tag string) *html.Node {
	t.Helper()
	n, err := s.CreateElement(synth.HTMLNamespace, tag)
	require.NoError(t, err)
	return n.(*html.Node)
}

func lookup(kvs []style.KeyValue, key string) style.Property {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value
		}
	}
	return style.NullStyle
}

func TestLoadAndReload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.surface")
	defer teardown()
	//
	s := New()
	calls := 0
	s.OnReady(func() { calls++ })
	assert.False(t, s.Ready())
	s.Load()
	assert.True(t, s.Ready())
	div := mustElement(t, s, "div")
	require.NoError(t, s.MountRoot(div))
	require.NoError(t, s.Listen([]string{"click"}, func(*surface.NativeEvent) {}))
	s.Reload()
	assert.Equal(t, 2, calls)
	assert.Nil(t, s.Content().FirstChild, "reload must discard content")
	delivered, _, _ := s.Fire(&surface.NativeEvent{Type: "click"})
	assert.False(t, delivered, "reload must discard listeners")
}

func TestNodeEdits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.surface")
	defer teardown()
	//
	s := New()
	div := mustElement(t, s, "div")
	a, b := mustElement(t, s, "a"), mustElement(t, s, "b")
	txt, _ := s.CreateText("hello")
	require.NoError(t, s.MountRoot(div))
	require.NoError(t, s.InsertChild(div, a, 0))
	require.NoError(t, s.InsertChild(div, b, 0))
	require.NoError(t, s.InsertChild(div, txt, 99))
	require.NoError(t, s.SetClassName(a, "link"))
	require.NoError(t, s.SetText(txt, "world"))
	assert.Equal(t, `<div><b></b><a class="link"></a>world</div>`, s.HTML())
	require.NoError(t, s.InsertChild(div, a, 0)) // move
	assert.Equal(t, `<div><a class="link"></a><b></b>world</div>`, s.HTML())
	require.NoError(t, s.RemoveChild(div, b))
	assert.ErrorIs(t, s.RemoveChild(div, b), surface.ErrNoSuchNode)
	assert.ErrorIs(t, s.SetAttribute(a, "1nvalid", "x"), surface.ErrInvalidAttribute)
	assert.ErrorIs(t, s.SetAttribute(a, "on click", "x"), surface.ErrInvalidAttribute)
	assert.ErrorIs(t, s.SetText(a, "x"), surface.ErrNoSuchNode)
	require.NoError(t, s.RemoveAttribute(a, "class"))
	assert.Equal(t, `<div><a></a>world</div>`, s.HTML())
	assert.Equal(t, a, s.QueryOne("div > a"))
}

func TestInputValue(t *testing.T) {
	s := New()
	in := mustElement(t, s, "input")
	require.NoError(t, s.SetAttribute(in, "value", "initial"))
	v, ok := s.Value(in)
	assert.True(t, ok)
	assert.Equal(t, "initial", v)
	s.SetValue(in, "typed")
	v, _ = s.Value(in)
	assert.Equal(t, "typed", v)
	a, _ := attr(in, "value")
	assert.Equal(t, "initial", a, "typing must not change the attribute")
	_, ok = s.Value(mustElement(t, s, "div"))
	assert.False(t, ok)
}

func TestStyleRules(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.surface")
	defer teardown()
	//
	s := New()
	_, sheet, err := s.InsertStyleElement(0, "p { color: red; } a:-moz-any-link { color: blue; }")
	require.NoError(t, err)
	assert.Equal(t, 1, s.RuleCount(sheet), "unsupported selector must be dropped from seed text")
	assert.ErrorIs(t, s.InsertRule(sheet, "a:-moz-any-link { color: blue; }", 0), surface.ErrRuleRejected)
	assert.ErrorIs(t, s.InsertRule(sheet, "p { color: red; } b { color: blue; }", 0), surface.ErrRuleRejected)
	assert.ErrorIs(t, s.InsertRule(sheet, "div { color: red; }", 5), surface.ErrRuleRejected)
	require.NoError(t, s.InsertRule(sheet, "div { color: green; }", 1))
	assert.Equal(t, []string{"p", "div"}, s.RuleSelectors(sheet))
	require.NoError(t, s.DeleteRule(sheet, 0))
	assert.Equal(t, 1, s.RuleCount(sheet))
	assert.Error(t, s.DeleteRule(sheet, 1))
	elem2, _, err := s.InsertStyleElement(0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, s.StyleElementCount())
	assert.Equal(t, elem2, s.StyleContainer().FirstChild)
	require.NoError(t, s.RemoveStyleElement(elem2))
	assert.Equal(t, 1, s.StyleElementCount())
}

func TestComputedStyle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.surface")
	defer teardown()
	//
	s := New()
	_, _, err := s.InsertStyleElement(0, `
		#x { color: blue; }
		div { color: red; width: 100px; }
		.strong { font-weight: bold !important; }
	`)
	require.NoError(t, err)
	div, span := mustElement(t, s, "div"), mustElement(t, s, "span")
	require.NoError(t, s.SetAttribute(div, "id", "x"))
	require.NoError(t, s.SetAttribute(span, "style", "font-weight: normal"))
	require.NoError(t, s.SetClassName(span, "strong"))
	require.NoError(t, s.MountRoot(div))
	require.NoError(t, s.InsertChild(div, span, 0))
	//
	cs, err := s.ComputedStyle(div)
	require.NoError(t, err)
	assert.Equal(t, style.Property("rgb(0, 0, 255)"), lookup(cs, "color"), "id selector must win")
	assert.Equal(t, style.Property("100px"), lookup(cs, "width"))
	assert.Equal(t, style.Property("block"), lookup(cs, "display"))
	cs, _ = s.ComputedStyle(span)
	assert.Equal(t, style.Property("rgb(0, 0, 255)"), lookup(cs, "color"), "color must be inherited")
	assert.Equal(t, style.Property("bold"), lookup(cs, "font-weight"), "important must beat inline")
	assert.Equal(t, style.Property("inline"), lookup(cs, "display"))
	assert.Equal(t, style.NullStyle, lookup(cs, "width"), "width must not be inherited")
	require.NoError(t, s.Hide(span))
	cs, _ = s.ComputedStyle(span)
	assert.Equal(t, style.Property("none"), lookup(cs, "display"))
	txt, _ := s.CreateText("x")
	cs, err = s.ComputedStyle(txt)
	assert.NoError(t, err)
	assert.Nil(t, cs)
}

func TestLayout(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.surface")
	defer teardown()
	//
	s := New(WithViewport(800, 20))
	root := mustElement(t, s, "div")
	first, second := mustElement(t, s, "div"), mustElement(t, s, "div")
	hidden := mustElement(t, s, "div")
	require.NoError(t, s.SetAttribute(first, "style", "height: 20px"))
	require.NoError(t, s.SetAttribute(second, "style", "height: 30px; position: relative; left: 5px"))
	require.NoError(t, s.SetAttribute(hidden, "style", "display: none; height: 10px"))
	require.NoError(t, s.MountRoot(root))
	for i, c := range []*html.Node{first, hidden, second} {
		require.NoError(t, s.InsertChild(root, c, i))
	}
	r, err := s.BoundingRect(first)
	require.NoError(t, err)
	assert.Equal(t, surface.Rect{Left: 0, Top: 0, Width: 800, Height: 20}, r)
	r, _ = s.BoundingRect(second)
	assert.Equal(t, surface.Rect{Left: 5, Top: 20, Width: 800, Height: 30}, r)
	r, _ = s.BoundingRect(hidden)
	assert.True(t, r.IsZero(), "undisplayed elements must have an empty rectangle")
	assert.Equal(t, 50.0, s.ContentSize().Height)
	//
	require.NoError(t, s.ScrollTo(surface.Point{Y: 100}))
	assert.Equal(t, surface.Point{Y: 30}, s.ScrollOffset(), "scrolling must be clamped")
	r, _ = s.BoundingRect(second)
	assert.Equal(t, -10.0, r.Top)
}

func TestEvents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.surface")
	defer teardown()
	//
	s := New()
	btn := mustElement(t, s, "button")
	require.NoError(t, s.MountRoot(btn))
	var seen []*surface.NativeEvent
	require.NoError(t, s.Listen([]string{"click"}, func(e *surface.NativeEvent) {
		seen = append(seen, e)
		if e.Type == "click" {
			e.PreventDefault()
		}
	}))
	delivered, stopped, prevented := s.Click(btn)
	assert.True(t, delivered)
	assert.False(t, stopped)
	assert.True(t, prevented)
	delivered, _, _ = s.Fire(&surface.NativeEvent{Type: "keydown", Target: btn})
	assert.False(t, delivered, "event classes not listened to must not be delivered")
	s.Resize(400, 300)
	require.Len(t, seen, 2)
	assert.Equal(t, btn, seen[0].Target)
	assert.Equal(t, "resize", seen[1].Type)
	assert.Nil(t, seen[1].Target)
}
