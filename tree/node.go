package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sync"
)

/*
We manage a tree of mutable nodes. Each nodes carries a payload of type parameter T.
Nodes maintain an ordered slice of children, but no link to their parent:
parent links are owned by the clients, which usually resolve them through an
index of their own. This keeps ownership strictly top-down.
*/

// Node is the base type our tree is built of.
type Node[T comparable] struct {
	children childrenSlice[T] // mutex-protected slice of children nodes
	Payload  T                // nodes may carry a payload of arbitrary type
}

// NewNode creates a new tree node with a given payload.
func NewNode[T comparable](payload T) *Node[T] {
	return &Node[T]{Payload: payload}
}

func (node *Node[T]) String() string {
	return fmt.Sprintf("(Node #ch=%d %v)", node.ChildCount(), node.Payload)
}

// AppendChild appends a child node at the end of the children list.
// It returns the parent node to allow for chaining.
//
// This operation is concurrency-safe.
func (node *Node[T]) AppendChild(ch *Node[T]) *Node[T] {
	if ch != nil {
		node.children.insertAt(-1, ch)
	}
	return node
}

// InsertChildAt inserts a child node at position i, shifting children at
// later positions. Positions beyond the end of the children list (or negative
// ones) append the child.
// It returns the parent node to allow for chaining.
//
// This operation is concurrency-safe.
func (node *Node[T]) InsertChildAt(i int, ch *Node[T]) *Node[T] {
	if ch != nil {
		node.children.insertAt(i, ch)
	}
	return node
}

// RemoveChild removes ch from the children of node. It returns the position
// ch has been found at, or -1 if ch is not a child of node.
//
// This operation is concurrency-safe.
func (node *Node[T]) RemoveChild(ch *Node[T]) int {
	if ch == nil {
		return -1
	}
	return node.children.remove(ch)
}

// RemoveChildAt removes the child at position i and returns it.
// If i is out of range, nil is returned.
func (node *Node[T]) RemoveChildAt(i int) *Node[T] {
	return node.children.removeAt(i)
}

// MoveChild moves ch to position to within the children of node. Position to
// is interpreted after ch has been taken out of the list. It returns the
// previous position of ch, or -1 if ch is not a child of node (in which case
// nothing is moved).
func (node *Node[T]) MoveChild(ch *Node[T], to int) int {
	from := node.children.remove(ch)
	if from < 0 {
		return -1
	}
	node.children.insertAt(to, ch)
	return from
}

// ChildCount returns the number of children-nodes for a node
// (concurrency-safe).
func (node *Node[T]) ChildCount() int {
	return node.children.length()
}

// Child is a concurrency-safe way to get a children-node of a node.
func (node *Node[T]) Child(n int) (*Node[T], bool) {
	ch := node.children.child(n)
	return ch, ch != nil
}

// Children returns a copy of the slice of children of a node.
func (node *Node[T]) Children() []*Node[T] {
	return node.children.asSlice()
}

// IndexOfChild returns the index of a child within the list of children
// of its parent, or -1.
func (node *Node[T]) IndexOfChild(ch *Node[T]) int {
	return node.children.indexOf(ch)
}

// --- Slices of concurrency-safe sets of children ----------------------

type childrenSlice[T comparable] struct {
	sync.RWMutex
	slice []*Node[T]
}

func (chs *childrenSlice[T]) length() int {
	chs.RLock()
	defer chs.RUnlock()
	return len(chs.slice)
}

func (chs *childrenSlice[T]) insertAt(i int, child *Node[T]) {
	chs.Lock()
	defer chs.Unlock()
	if i < 0 || i >= len(chs.slice) {
		chs.slice = append(chs.slice, child)
		return
	}
	chs.slice = append(chs.slice, nil)   // make room for one child
	copy(chs.slice[i+1:], chs.slice[i:]) // shift i+1..n
	chs.slice[i] = child
}

func (chs *childrenSlice[T]) remove(node *Node[T]) int {
	chs.Lock()
	defer chs.Unlock()
	for i, ch := range chs.slice {
		if ch == node {
			chs.slice = append(chs.slice[:i], chs.slice[i+1:]...)
			return i
		}
	}
	return -1
}

func (chs *childrenSlice[T]) removeAt(i int) *Node[T] {
	chs.Lock()
	defer chs.Unlock()
	if i < 0 || i >= len(chs.slice) {
		return nil
	}
	ch := chs.slice[i]
	chs.slice = append(chs.slice[:i], chs.slice[i+1:]...)
	return ch
}

func (chs *childrenSlice[T]) indexOf(node *Node[T]) int {
	chs.RLock()
	defer chs.RUnlock()
	for i, ch := range chs.slice {
		if ch == node {
			return i
		}
	}
	return -1
}

func (chs *childrenSlice[T]) child(n int) *Node[T] {
	chs.RLock()
	defer chs.RUnlock()
	if n < 0 || n >= len(chs.slice) {
		return nil
	}
	return chs.slice[n]
}

func (chs *childrenSlice[T]) asSlice() []*Node[T] {
	chs.RLock()
	defer chs.RUnlock()
	children := make([]*Node[T], len(chs.slice))
	copy(children, chs.slice)
	return children
}
