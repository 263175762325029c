package render

import (
	"fmt"

	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
)

// patch applies a single mutation to the surface.
//
// A mutation is node-addressable if its target is registered as a node.
// Otherwise, if the target is a stylesheet, rule or declaration, the owning
// stylesheet is re-synchronised. Anything else is skipped.
func (r *Renderer) patch(m synth.Mutation) {
	target, ok := r.nodes.Lookup(m.TargetID())
	if !ok {
		r.patchStyleSheet(m)
		return
	}
	tracer().Debugf("patch %v", m)
	switch m := m.(type) {
	case synth.InsertChild:
		r.insertChild(target.Native, m.Child, m.Index)
	case synth.RemoveChild:
		r.removeChild(target.Native, m.Child)
	case synth.MoveChild:
		child, ok := r.nodes.Lookup(m.Child.ID())
		if !ok {
			tracer().Debugf("moved child %s has not been projected", m.Child)
			return
		}
		if err := r.surf.InsertChild(target.Native, child.Native, m.To); err != nil {
			r.diag(surface.Traced("move child", err))
		}
		r.reorderStyleSheets(m.Child)
	case synth.AttributeChange:
		r.applyAttribute(m.Target, target.Native, m.Name)
	case synth.TextChange:
		data := m.Data
		if m.Target.NodeType() == synth.TextNode {
			data = textData(data)
		}
		if err := r.surf.SetText(target.Native, data); err != nil {
			r.diag(surface.Traced("set text", err))
		}
	default:
		tracer().Debugf("ignoring mutation %T", m)
	}
}

// patchStyleSheet handles mutations which are not node-addressable.
func (r *Renderer) patchStyleSheet(m synth.Mutation) {
	var obj synth.CSSObject
	if c, ok := m.(synth.StyleRuleChange); ok {
		obj = c.Target
	} else if o, ok := r.doc.LookupCSS(m.TargetID()); ok {
		obj = o
	}
	if obj == nil {
		tracer().Debugf("skipping mutation for unknown target %s", m.TargetID())
		return
	}
	sheet := synth.OwningStyleSheet(obj)
	if sheet == nil || !r.sheets.Contains(sheet.ID()) {
		tracer().Debugf("skipping mutation for unprojected stylesheet of %s", m.TargetID())
		return
	}
	r.resync(sheet)
}

// insertChild materializes the sub-tree of child, registers the stylesheets
// owned by nodes within it and inserts it into parent.
func (r *Renderer) insertChild(parent surface.Node, child *synth.Node, index int) {
	native, ok := r.materialize(child)
	if !ok {
		return
	}
	for _, n := range child.Descendants() {
		if sheet := n.StyleSheet(); sheet != nil {
			r.registerStyleSheet(sheet, -1)
		}
	}
	if err := r.surf.InsertChild(parent, native, index); err != nil {
		r.diag(surface.Traced("insert child", err))
	}
}

// removeChild unregisters the stylesheets owned by nodes in the sub-tree of
// child, unregisters the sub-tree's nodes and removes the native child.
func (r *Renderer) removeChild(parent surface.Node, child *synth.Node) {
	for _, n := range child.Descendants() {
		if sheet := n.StyleSheet(); sheet != nil {
			r.unregisterStyleSheet(sheet)
		}
	}
	entry, ok := r.nodes.Lookup(child.ID())
	cnt := r.nodes.UnregisterTree(child.ID(), r.childIDs)
	tracer().Debugf("unregistered %d nodes", cnt)
	if !ok {
		return
	}
	if err := r.surf.RemoveChild(parent, entry.Native); err != nil {
		r.diag(fmt.Errorf("remove child %s: %w", child, err))
	}
}
