package synth

import (
	"fmt"
	"strings"

	"github.com/npillmayer/sdom/tree"
)

// NodeType is the W3C type of a synthetic node.
type NodeType uint8

// Node types, numbered as in the W3C DOM.
const (
	ElementNode          NodeType = 1
	TextNode             NodeType = 3
	CommentNode          NodeType = 8
	DocumentNode         NodeType = 9
	DocumentFragmentNode NodeType = 11
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "#text"
	case CommentNode:
		return "#comment"
	case DocumentNode:
		return "#document"
	case DocumentFragmentNode:
		return "#document-fragment"
	}
	return fmt.Sprintf("nodetype(%d)", uint8(t))
}

// Namespace is the namespace of an element.
type Namespace uint8

// Supported element namespaces.
const (
	HTMLNamespace Namespace = iota
	SVGNamespace
)

// Namespace URIs.
const (
	HTMLNamespaceURI = "http://www.w3.org/1999/xhtml"
	SVGNamespaceURI  = "http://www.w3.org/2000/svg"
)

// URI returns the namespace URI.
func (ns Namespace) URI() string {
	if ns == SVGNamespace {
		return SVGNamespaceURI
	}
	return HTMLNamespaceURI
}

// Attr is an attribute of an element.
type Attr struct {
	Name  string
	Value string
}

// Node is the building block of a synthetic document.
type Node struct {
	tree.Node[*Node]           // we build on top of general purpose tree
	doc              *Document // owner document, never nil
	id               ID
	nodeType         NodeType
	parent           ID // non-owning, resolved through the document index
	ns               Namespace
	tag              string
	attrs            []Attr
	data             string      // text and comments
	value            string      // input-like elements
	sheet            *StyleSheet // <style> elements
	listeners        map[string][]*listenerEntry
}

func newNode(doc *Document, t NodeType) *Node {
	n := &Node{doc: doc, nodeType: t}
	n.Payload = n // Payload will always reference the node itself
	n.id = doc.nextID()
	doc.nodes.put(n.id, n)
	return n
}

// fromTree gets the synthetic node from a generic tree node.
func fromTree(tn *tree.Node[*Node]) *Node {
	if tn == nil {
		return nil
	}
	return tn.Payload
}

// ID returns the node's identifier.
func (n *Node) ID() ID { return n.id }

// NodeType returns the W3C type of the node.
func (n *Node) NodeType() NodeType { return n.nodeType }

// OwnerDocument returns the document which created the node.
func (n *Node) OwnerDocument() *Document { return n.doc }

// Namespace returns the namespace of an element.
func (n *Node) Namespace() Namespace { return n.ns }

// TagName returns the lower-case local name of an element, or "" for other
// node types.
func (n *Node) TagName() string { return n.tag }

// NodeName returns the node name as defined by the W3C DOM.
func (n *Node) NodeName() string {
	if n.nodeType == ElementNode {
		return n.tag
	}
	return n.nodeType.String()
}

// Data returns the character data of text and comment nodes.
func (n *Node) Data() string { return n.data }

// Value returns the value property of input-like elements.
func (n *Node) Value() string { return n.value }

// SetValue sets the value property of an input-like element. The value
// property is not an attribute, therefore no mutation is reported.
func (n *Node) SetValue(v string) { n.value = v }

// StyleSheet returns the stylesheet owned by a <style> element, or nil.
func (n *Node) StyleSheet() *StyleSheet { return n.sheet }

// ParentID returns the ID of the parent node, or "" for detached nodes.
func (n *Node) ParentID() ID { return n.parent }

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	return n.doc.nodes.get(n.parent)
}

// ChildNodes returns the children of a node.
func (n *Node) ChildNodes() []*Node {
	tchildren := n.Children()
	children := make([]*Node, len(tchildren))
	for i, ch := range tchildren {
		children[i] = fromTree(ch)
	}
	return children
}

// ChildAt returns the child at position i, or nil.
func (n *Node) ChildAt(i int) *Node {
	ch, _ := n.Child(i)
	return fromTree(ch)
}

// IndexOf returns the position of ch among the children of n, or -1.
func (n *Node) IndexOf(ch *Node) int {
	if ch == nil {
		return -1
	}
	return n.IndexOfChild(&ch.Node)
}

// Contains returns true if other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent() {
		if p == n {
			return true
		}
	}
	return false
}

// TextContent returns the concatenated character data of n and all its
// descendents.
func (n *Node) TextContent() string {
	if n.nodeType == TextNode || n.nodeType == CommentNode {
		return n.data
	}
	var b strings.Builder
	_ = tree.TopDown(&n.Node, func(tn *tree.Node[*Node], _ int) error {
		if ch := fromTree(tn); ch.nodeType == TextNode {
			b.WriteString(ch.data)
		}
		return nil
	})
	return b.String()
}

// Descendants returns n and all its descendants in document order.
func (n *Node) Descendants() []*Node {
	tnodes := tree.Collect(&n.Node, tree.Whatever[*Node]())
	nodes := make([]*Node, len(tnodes))
	for i, tn := range tnodes {
		nodes[i] = fromTree(tn)
	}
	return nodes
}

func (n *Node) String() string {
	switch n.nodeType {
	case ElementNode:
		return fmt.Sprintf("<%s #%s>", n.tag, n.id)
	case TextNode, CommentNode:
		return fmt.Sprintf("%s #%s %q", n.nodeType, n.id, shorten(n.data, 20))
	}
	return fmt.Sprintf("%s #%s", n.nodeType, n.id)
}

// IsTextInput returns true for elements which accept typed user input.
func (n *Node) IsTextInput() bool {
	return n.nodeType == ElementNode && (n.tag == "input" || n.tag == "textarea")
}

// --- Attributes ------------------------------------------------------------

// Attributes returns a copy of the attributes of an element, in order.
func (n *Node) Attributes() []Attr {
	attrs := make([]Attr, len(n.attrs))
	copy(attrs, n.attrs)
	return attrs
}

// Attribute returns the value of an attribute and whether it is set.
func (n *Node) Attribute(name string) (string, bool) {
	name = n.normalizeAttrName(name)
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// PreviewAttribute returns the value of an attribute in a form suitable
// for a visual preview. Line breaks, which may be present while an
// attribute is being edited, are folded into spaces.
func (n *Node) PreviewAttribute(name string) string {
	v, _ := n.Attribute(name)
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(v)
}

// SetAttribute sets an attribute of an element. Setting an attribute to its
// current value is a no-op.
func (n *Node) SetAttribute(name, value string) {
	if n.nodeType != ElementNode {
		return
	}
	name = n.normalizeAttrName(name)
	for i, a := range n.attrs {
		if a.Name == name {
			if a.Value == value {
				return
			}
			n.attrs[i].Value = value
			n.doc.emit(AttributeChange{Target: n, Name: name, Value: value, OldValue: a.Value})
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
	n.doc.emit(AttributeChange{Target: n, Name: name, Value: value})
}

// RemoveAttribute removes an attribute from an element, if present.
func (n *Node) RemoveAttribute(name string) {
	name = n.normalizeAttrName(name)
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			n.doc.emit(AttributeChange{Target: n, Name: name, OldValue: a.Value, Removed: true})
			return
		}
	}
}

func (n *Node) normalizeAttrName(name string) string {
	if n.ns == HTMLNamespace {
		return strings.ToLower(name)
	}
	return name
}

// SetData sets the character data of a text or comment node.
func (n *Node) SetData(data string) {
	if n.nodeType != TextNode && n.nodeType != CommentNode {
		return
	}
	if n.data == data {
		return
	}
	old := n.data
	n.data = data
	n.doc.emit(TextChange{Target: n, Data: data, OldData: old})
	if p := n.Parent(); p != nil {
		p.refreshStyleSheet()
	}
}

// --- Tree edits ------------------------------------------------------------

// AppendChild appends ch to the children of n.
func (n *Node) AppendChild(ch *Node) error {
	return n.InsertChildAt(n.ChildCount(), ch)
}

// InsertChildAt inserts ch as a child of n at position i. Positions beyond
// the end of the children list append ch. If ch currently has a parent, it
// is removed from there first. Inserting a document fragment inserts the
// fragment's children instead.
func (n *Node) InsertChildAt(i int, ch *Node) error {
	if err := n.checkInsert(ch); err != nil {
		return err
	}
	if ch.nodeType == DocumentFragmentNode {
		for k, fch := range ch.ChildNodes() {
			if err := n.InsertChildAt(i+k, fch); err != nil {
				return err
			}
		}
		return nil
	}
	if p := ch.Parent(); p != nil {
		if err := p.RemoveChild(ch); err != nil {
			return err
		}
	}
	if i < 0 || i > n.ChildCount() {
		i = n.ChildCount()
	}
	n.Node.InsertChildAt(i, &ch.Node)
	ch.parent = n.id
	tracer().Debugf("insert %s into %s at %d", ch, n, i)
	n.doc.emit(InsertChild{Parent: n, Child: ch, Index: i})
	n.refreshStyleSheet()
	return nil
}

func (n *Node) checkInsert(ch *Node) error {
	if ch == nil {
		return fmt.Errorf("%w: cannot insert nil", ErrHierarchy)
	}
	if ch.doc != n.doc {
		return ErrWrongDocument
	}
	switch n.nodeType {
	case ElementNode, DocumentNode, DocumentFragmentNode:
	default:
		return fmt.Errorf("%w: %s cannot have children", ErrHierarchy, n.nodeType)
	}
	if ch.nodeType == DocumentNode {
		return fmt.Errorf("%w: cannot insert a document", ErrHierarchy)
	}
	if ch.Contains(n) {
		return fmt.Errorf("%w: %s is an ancestor of %s", ErrHierarchy, ch, n)
	}
	return nil
}

// RemoveChild removes ch from the children of n. The removed node keeps its
// own sub-tree and may be re-inserted later.
func (n *Node) RemoveChild(ch *Node) error {
	if ch == nil || ch.parent != n.id {
		return ErrNotAChild
	}
	inx := n.Node.RemoveChild(&ch.Node)
	if inx < 0 {
		return ErrNotAChild
	}
	ch.parent = ""
	tracer().Debugf("remove %s from %s at %d", ch, n, inx)
	n.doc.emit(RemoveChild{Parent: n, Child: ch, Index: inx})
	n.refreshStyleSheet()
	return nil
}

// MoveChild moves child ch of n to position to. Position to is interpreted
// after ch has been taken out of the list of children.
func (n *Node) MoveChild(ch *Node, to int) error {
	if ch == nil || ch.parent != n.id {
		return ErrNotAChild
	}
	if to < 0 || to >= n.ChildCount() {
		to = n.ChildCount() - 1
	}
	from := n.Node.MoveChild(&ch.Node, to)
	if from < 0 {
		return ErrNotAChild
	}
	if from == to {
		return nil
	}
	n.doc.emit(MoveChild{Parent: n, Child: ch, From: from, To: to})
	n.refreshStyleSheet()
	return nil
}

// refreshStyleSheet re-parses the stylesheet of a <style> element after its
// text content changed.
func (n *Node) refreshStyleSheet() {
	if n.sheet == nil {
		return
	}
	n.sheet.ReplaceText(n.TextContent())
}

func shorten(s string, l int) string {
	if len(s) <= l {
		return s
	}
	return s[:l] + "…"
}
