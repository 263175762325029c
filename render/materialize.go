package render

import (
	"fmt"
	"strings"

	"github.com/npillmayer/sdom/surface"
	"github.com/npillmayer/sdom/synth"
)

// Some HTML elements must not be projected as they are: document-level
// elements cannot live inside the content container, and elements with
// side-effects (loading, scripting, styling) are replaced by inert
// placeholders. Stylesheets are projected separately.
var nativeTags = map[string]string{
	"html":   "span",
	"body":   "span",
	"iframe": "span",
	"head":   "span",
	"style":  "span",
	"link":   "span",
	"script": "span",
}

var hiddenTags = map[string]bool{
	"head":   true,
	"style":  true,
	"link":   true,
	"script": true,
}

// nativeTag returns the tag an element is projected as and whether it is
// projected as a hidden placeholder.
func nativeTag(n *synth.Node) (string, bool) {
	if n.Namespace() != synth.HTMLNamespace {
		return n.TagName(), false
	}
	tag := n.TagName()
	if t, ok := nativeTags[tag]; ok {
		return t, hiddenTags[tag]
	}
	return tag, false
}

// textData returns the projected character data of a text node.
// Whitespace-only text is projected as empty text.
func textData(data string) string {
	if strings.TrimSpace(data) == "" {
		return ""
	}
	return data
}

// materialize creates the native sub-tree for n, registers each of its nodes
// and returns the native root. Nodes which cannot be created are skipped,
// together with their sub-trees.
func (r *Renderer) materialize(n *synth.Node) (surface.Node, bool) {
	native, err := r.createNative(n)
	if err != nil {
		r.diag(fmt.Errorf("cannot materialize %s: %w", n, err))
		return nil, false
	}
	r.nodes.Register(n.ID(), native, n)
	if n.NodeType() == synth.ElementNode {
		for _, a := range n.Attributes() {
			r.applyAttribute(n, native, a.Name)
		}
	}
	i := 0
	for _, ch := range n.ChildNodes() {
		c, ok := r.materialize(ch)
		if !ok {
			continue
		}
		if err := r.surf.InsertChild(native, c, i); err != nil {
			r.diag(surface.Traced("insert child", err))
			continue
		}
		i++
	}
	return native, true
}

func (r *Renderer) createNative(n *synth.Node) (surface.Node, error) {
	switch n.NodeType() {
	case synth.ElementNode:
		tag, hidden := nativeTag(n)
		native, err := r.surf.CreateElement(n.Namespace(), tag)
		if err != nil {
			return nil, err
		}
		if hidden {
			if err := r.surf.Hide(native); err != nil {
				r.diag(surface.Traced("hide", err))
			}
		}
		return native, nil
	case synth.TextNode:
		return r.surf.CreateText(textData(n.Data()))
	case synth.CommentNode:
		return r.surf.CreateComment(n.Data())
	case synth.DocumentNode, synth.DocumentFragmentNode:
		return r.surf.CreateElement(synth.HTMLNamespace, "span")
	}
	return nil, fmt.Errorf("unknown node type %s", n.NodeType())
}

// applyAttribute projects the current value of an attribute of element n.
// Attributes rejected by the surface are reported and skipped.
func (r *Renderer) applyAttribute(n *synth.Node, native surface.Node, name string) {
	var err error
	if _, ok := n.Attribute(name); !ok {
		err = r.surf.RemoveAttribute(native, name)
	} else if name == "class" {
		err = r.surf.SetClassName(native, n.PreviewAttribute(name))
	} else {
		err = r.surf.SetAttribute(native, name, n.PreviewAttribute(name))
	}
	if err != nil {
		r.diag(fmt.Errorf("attribute %q of %s skipped: %w", name, n, err))
	}
}

// childIDs reports the children of a synthetic node, for unregistering
// sub-trees.
func (r *Renderer) childIDs(id synth.ID) []synth.ID {
	n, ok := r.doc.Lookup(id)
	if !ok {
		return nil
	}
	children := n.ChildNodes()
	ids := make([]synth.ID, len(children))
	for i, ch := range children {
		ids[i] = ch.ID()
	}
	return ids
}
