package tree

import "errors"

// ErrSkipChildren may be returned by an Action to prevent a traversal from
// descending into the children of the current node.
var ErrSkipChildren = errors.New("skip children")

// Action is a function type to operate on tree nodes during a traversal.
// depth is 0 for the start node of the traversal.
type Action[T comparable] func(n *Node[T], depth int) error

// Predicate is a function type to match against nodes of a tree.
type Predicate[T comparable] func(n *Node[T]) bool

// Whatever is a predicate to match anything (see type Predicate).
func Whatever[T comparable]() Predicate[T] {
	return func(*Node[T]) bool {
		return true
	}
}

// TopDown traverses a (sub-)tree starting at (and including) node. Parents
// are always processed before their children, and children in order.
//
// If the action returns ErrSkipChildren, the children of the current node
// are not visited. Any other error stops the traversal and is returned.
func TopDown[T comparable](node *Node[T], action Action[T]) error {
	if node == nil {
		return nil
	}
	err := topDown(node, 0, action)
	if errors.Is(err, ErrSkipChildren) {
		return nil
	}
	return err
}

func topDown[T comparable](node *Node[T], depth int, action Action[T]) error {
	if err := action(node, depth); err != nil {
		return err
	}
	for _, ch := range node.Children() {
		err := topDown(ch, depth+1, action)
		if err != nil && !errors.Is(err, ErrSkipChildren) {
			return err
		}
	}
	return nil
}

// BottomUp traverses a (sub)-tree starting at node, processing children
// before their parents. The start node is processed last.
func BottomUp[T comparable](node *Node[T], action Action[T]) error {
	if node == nil {
		return nil
	}
	return bottomUp(node, 0, action)
}

func bottomUp[T comparable](node *Node[T], depth int, action Action[T]) error {
	for _, ch := range node.Children() {
		if err := bottomUp(ch, depth+1, action); err != nil {
			return err
		}
	}
	return action(node, depth)
}

// Collect returns all nodes of the sub-tree starting at (and including)
// node which match predicate, in document order.
func Collect[T comparable](node *Node[T], predicate Predicate[T]) []*Node[T] {
	var selection []*Node[T]
	_ = TopDown(node, func(n *Node[T], _ int) error {
		if predicate(n) {
			selection = append(selection, n)
		}
		return nil
	})
	return selection
}
