package synth

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestEventBubbling(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.synth")
	defer teardown()
	//
	doc := NewDocument()
	outer, inner := doc.CreateElement("div"), doc.CreateElement("button")
	outer.AppendChild(inner)
	doc.AppendChild(outer)
	var trace []string
	inner.AddEventListener("click", func(e *Event) {
		trace = append(trace, "inner")
	})
	outer.AddEventListener("click", func(e *Event) {
		if e.Target() != inner || e.CurrentTarget() != outer {
			t.Errorf("unexpected targets %v / %v", e.Target(), e.CurrentTarget())
		}
		trace = append(trace, "outer")
	})
	inner.DispatchEvent(NewEvent("click", EventDetail{ClientX: 3}))
	if got := strings.Join(trace, " "); got != "inner outer" {
		t.Errorf("expected click to bubble inner→outer, have '%s'", got)
	}
}

func TestStopPropagationAndPreventDefault(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.synth")
	defer teardown()
	//
	doc := NewDocument()
	form, input := doc.CreateElement("form"), doc.CreateElement("input")
	form.AppendChild(input)
	called := 0
	form.AddEventListener("submit", func(e *Event) { called++ })
	remove := input.AddEventListener("submit", func(e *Event) {
		e.StopPropagation()
		e.PreventDefault()
	})
	if input.DispatchEvent(NewEvent("submit", EventDetail{})) {
		t.Error("expected default action to be prevented")
	}
	if called != 0 {
		t.Errorf("expected propagation to stop at input, form listener called %d times", called)
	}
	remove()
	if !input.DispatchEvent(NewEvent("submit", EventDetail{})) {
		t.Error("expected default action not to be prevented after listener removal")
	}
	if called != 1 {
		t.Errorf("expected form listener to be called once, was called %d times", called)
	}
}

func TestNonBubblingEvents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.synth")
	defer teardown()
	//
	doc := NewDocument()
	outer, inner := doc.CreateElement("div"), doc.CreateElement("span")
	outer.AppendChild(inner)
	outer.AddEventListener("mouseenter", func(e *Event) {
		t.Error("mouseenter must not bubble")
	})
	inner.DispatchEvent(NewEvent("mouseenter", EventDetail{}))
}
