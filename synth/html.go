package synth

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// ParseHTML parses an HTML document and builds a synthetic document from it.
func ParseHTML(r io.Reader, opts ...Option) (*Document, error) {
	h, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("synth: cannot parse HTML: %w", err)
	}
	return FromHTML(h, opts...)
}

// FromHTML builds a synthetic document from an HTML parse tree. If h is not
// a document node, h becomes the only child of the synthetic document.
// Doctype nodes are dropped.
func FromHTML(h *html.Node, opts ...Option) (*Document, error) {
	doc := NewDocument(opts...)
	if h == nil {
		return doc, nil
	}
	if h.Type == html.DocumentNode {
		for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
			if err := doc.appendHTML(doc.Node, ch); err != nil {
				return nil, err
			}
		}
		return doc, nil
	}
	if err := doc.appendHTML(doc.Node, h); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFragment parses an HTML fragment in the context of a <body> element
// and returns it as a detached document fragment of doc.
func (doc *Document) ParseFragment(r io.Reader) (*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body"}
	hnodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("synth: cannot parse HTML fragment: %w", err)
	}
	frag := doc.CreateDocumentFragment()
	for _, h := range hnodes {
		if err := doc.appendHTML(frag, h); err != nil {
			return nil, err
		}
	}
	return frag, nil
}

func (doc *Document) appendHTML(parent *Node, h *html.Node) error {
	var n *Node
	switch h.Type {
	case html.ElementNode:
		ns := HTMLNamespace
		if h.Namespace == "svg" {
			ns = SVGNamespace
		}
		n = doc.CreateElementNS(ns, h.Data)
		for _, a := range h.Attr {
			n.SetAttribute(a.Key, a.Val)
			if a.Key == "value" && n.IsTextInput() {
				n.value = a.Val
			}
		}
		if n.tag == "textarea" {
			n.value = textOf(h)
		}
	case html.TextNode:
		n = doc.CreateTextNode(h.Data)
	case html.CommentNode:
		n = doc.CreateComment(h.Data)
	default:
		return nil
	}
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		if err := doc.appendHTML(n, ch); err != nil {
			return err
		}
	}
	return parent.AppendChild(n)
}

func textOf(h *html.Node) string {
	var s string
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.TextNode {
			s += ch.Data
		}
	}
	return s
}
