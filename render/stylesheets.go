package render

import (
	"fmt"

	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
)

// registerStyleSheet projects a stylesheet into a native style element,
// inserted at position index among the style elements. A negative index
// selects the position of the stylesheet in the document's order of
// stylesheets, counting projected stylesheets only. Registering a stylesheet
// twice does nothing.
func (r *Renderer) registerStyleSheet(sheet *synth.StyleSheet, index int) {
	if r.sheets.Contains(sheet.ID()) {
		return
	}
	if index < 0 {
		index = r.styleSheetIndex(sheet)
	}
	if cnt := r.surf.StyleElementCount(); index > cnt {
		index = cnt
	}
	elem, native, err := r.surf.InsertStyleElement(index, sheet.PreviewCSSText())
	if err != nil {
		r.diag(surface.Traced("insert style element", err))
		return
	}
	tracer().Debugf("registered stylesheet %s at %d", sheet.ID(), index)
	r.sheets.Register(sheet.ID(), &nativeSheet{elem: elem, sheet: native}, sheet)
}

// styleSheetIndex returns the number of projected stylesheets preceding
// sheet in the document.
func (r *Renderer) styleSheetIndex(sheet *synth.StyleSheet) int {
	n := 0
	for _, s := range r.doc.StyleSheets() {
		if s == sheet {
			break
		}
		if r.sheets.Contains(s.ID()) {
			n++
		}
	}
	return n
}

// unregisterStyleSheet removes the native style element of a stylesheet.
func (r *Renderer) unregisterStyleSheet(sheet *synth.StyleSheet) {
	entry, ok := r.sheets.Lookup(sheet.ID())
	if !ok {
		return
	}
	r.sheets.Unregister(sheet.ID())
	if err := r.surf.RemoveStyleElement(entry.Native.elem); err != nil {
		r.diag(surface.Traced("remove style element", err))
	}
	tracer().Debugf("unregistered stylesheet %s", sheet.ID())
}

// reorderStyleSheets re-projects the stylesheets owned by nodes in the
// sub-tree of moved, so that the style elements follow the document's order
// of stylesheets again.
func (r *Renderer) reorderStyleSheets(moved *synth.Node) {
	var sheets []*synth.StyleSheet
	for _, n := range moved.Descendants() {
		if sheet := n.StyleSheet(); sheet != nil && r.sheets.Contains(sheet.ID()) {
			sheets = append(sheets, sheet)
		}
	}
	for _, sheet := range sheets {
		r.unregisterStyleSheet(sheet)
	}
	for _, sheet := range sheets {
		r.registerStyleSheet(sheet, -1)
	}
}

// resync replaces all native rules of a projected stylesheet by the preview
// texts of the synthetic rules. Rules rejected by the surface are reported
// and skipped.
func (r *Renderer) resync(sheet *synth.StyleSheet) {
	entry, ok := r.sheets.Lookup(sheet.ID())
	if !ok {
		return
	}
	native := entry.Native.sheet
	for cnt := r.surf.RuleCount(native); cnt > 0; cnt-- {
		if err := r.surf.DeleteRule(native, cnt-1); err != nil {
			r.diag(surface.Traced("delete rule", err))
			break
		}
	}
	inserted := 0
	for _, rule := range sheet.Rules() {
		text := rule.PreviewCSSText()
		if err := r.surf.InsertRule(native, text, inserted); err != nil {
			r.diag(fmt.Errorf("rule %q of stylesheet %s skipped: %w", text, sheet.ID(), err))
			continue
		}
		inserted++
	}
	tracer().Debugf("resynced stylesheet %s with %d rules", sheet.ID(), inserted)
}
