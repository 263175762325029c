/*
Package synth implements the synthetic DOM: an editable document model which
mirrors the structure of an HTML/CSS source document, independent of any live
browser document.

Overview

A synthetic Document is a tree of Nodes (elements, text, comments, document
fragments) plus the stylesheets owned by its <style> elements. Every edit to
the tree or to a stylesheet is reported as a fine-grained Mutation to the
document's subscribers, in the order the edits happen. Consumers (e.g., the
projector in package render) are expected to react to mutations incrementally
instead of re-walking the tree.

Nodes build on the general purpose tree of package tree, composing a generic
tree node into every synthetic node. Parent links are not owned: a node
stores the ID of its parent and resolves it through the document's index, which
in turn references nodes weakly.

Stylesheets are parsed with douceur, but parsing is tolerant: text which
cannot be parsed is kept as a raw rule, so that every stylesheet, rule and
declaration has a preview text, even while an edit is syntactically
incomplete.

Synthetic documents are not safe for concurrent use. They are meant to be
edited from the event loop which drives the projector.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package synth

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'sdom.synth'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.synth")
}

// ErrHierarchy is returned for tree edits which would produce an invalid tree,
// e.g., inserting a node into one of its own descendants.
var ErrHierarchy = errors.New("synth: invalid node hierarchy")

// ErrNotAChild is returned if a node is expected to be a child of a parent
// node, but isn't.
var ErrNotAChild = errors.New("synth: node is not a child of this parent")

// ErrWrongDocument is returned if nodes of different documents are mixed.
var ErrWrongDocument = errors.New("synth: node belongs to another document")

// ErrIndexOutOfRange is returned for stylesheet rule positions which do
// not exist.
var ErrIndexOutOfRange = errors.New("synth: index out of range")
