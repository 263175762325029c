package synth

import (
	"strings"
	"sync"
)

// Document is the root of a synthetic DOM. It creates nodes and stylesheets,
// assigns their IDs, and reports every edit to its subscribers.
type Document struct {
	*Node
	nextID      IDGenerator
	nodes       *index[Node]
	sheets      *index[StyleSheet]
	rules       *index[Rule]
	decls       *index[Declaration]
	mu          sync.Mutex // guards subscribers
	subscribers []*subscription
}

// Option configures a new document.
type Option func(*Document)

// WithIDs sets the ID generator of a document. The default generator
// produces UUIDs.
func WithIDs(gen IDGenerator) Option {
	return func(doc *Document) {
		if gen != nil {
			doc.nextID = gen
		}
	}
}

// NewDocument creates an empty synthetic document.
func NewDocument(opts ...Option) *Document {
	doc := &Document{
		nextID: UUIDs(),
		nodes:  newIndex[Node](),
		sheets: newIndex[StyleSheet](),
		rules:  newIndex[Rule](),
		decls:  newIndex[Declaration](),
	}
	for _, opt := range opts {
		opt(doc)
	}
	doc.Node = newNode(doc, DocumentNode)
	return doc
}

// Root returns the document node.
func (doc *Document) Root() *Node {
	return doc.Node
}

// CreateElement creates a detached HTML element.
func (doc *Document) CreateElement(tag string) *Node {
	return doc.CreateElementNS(HTMLNamespace, tag)
}

// CreateElementNS creates a detached element in a given namespace. Creating
// a <style> element creates its stylesheet as well.
func (doc *Document) CreateElementNS(ns Namespace, tag string) *Node {
	n := newNode(doc, ElementNode)
	n.ns = ns
	n.tag = tag
	if ns == HTMLNamespace {
		n.tag = strings.ToLower(tag)
		if n.tag == "style" {
			n.sheet = newStyleSheet(doc, n.id)
		}
	}
	return n
}

// CreateTextNode creates a detached text node.
func (doc *Document) CreateTextNode(data string) *Node {
	n := newNode(doc, TextNode)
	n.data = data
	return n
}

// CreateComment creates a detached comment node.
func (doc *Document) CreateComment(data string) *Node {
	n := newNode(doc, CommentNode)
	n.data = data
	return n
}

// CreateDocumentFragment creates an empty document fragment.
func (doc *Document) CreateDocumentFragment() *Node {
	return newNode(doc, DocumentFragmentNode)
}

// Lookup finds a node of the document by ID. Nodes are found as long as they
// are reachable, whether attached to the document or not.
func (doc *Document) Lookup(id ID) (*Node, bool) {
	n := doc.nodes.get(id)
	return n, n != nil
}

// LookupCSS finds a stylesheet, rule or declaration of the document by ID.
func (doc *Document) LookupCSS(id ID) (CSSObject, bool) {
	if sheet := doc.sheets.get(id); sheet != nil {
		return sheet, true
	}
	if rule := doc.rules.get(id); rule != nil {
		return rule, true
	}
	if decl := doc.decls.get(id); decl != nil {
		return decl, true
	}
	return nil, false
}

// StyleSheets returns the stylesheets of the <style> elements attached to the
// document, in document order.
func (doc *Document) StyleSheets() []*StyleSheet {
	var sheets []*StyleSheet
	for _, n := range doc.Descendants() {
		if n.sheet != nil {
			sheets = append(sheets, n.sheet)
		}
	}
	return sheets
}

// --- Subscriptions ---------------------------------------------------------

// Subscriber receives the mutations of a document.
type Subscriber func(Mutation)

type subscription struct {
	fn Subscriber
}

// Subscribe registers a subscriber for all future mutations of the document.
// Mutations are delivered synchronously, in the order edits happen. The
// returned function cancels the subscription.
func (doc *Document) Subscribe(fn Subscriber) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	sub := &subscription{fn: fn}
	doc.mu.Lock()
	doc.subscribers = append(doc.subscribers, sub)
	doc.mu.Unlock()
	return func() {
		doc.mu.Lock()
		defer doc.mu.Unlock()
		for i, s := range doc.subscribers {
			if s == sub {
				doc.subscribers = append(doc.subscribers[:i], doc.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (doc *Document) emit(m Mutation) {
	doc.mu.Lock()
	subs := make([]*subscription, len(doc.subscribers))
	copy(subs, doc.subscribers)
	doc.mu.Unlock()
	for _, sub := range subs {
		sub.fn(m)
	}
}
