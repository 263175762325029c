package tree

import (
	"strings"
	"testing"
)

func TestInsertAndRemoveChildren(t *testing.T) {
	root := NewNode("root")
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	root.AppendChild(a).AppendChild(c)
	root.InsertChildAt(1, b)
	if got := payloads(root); got != "a b c" {
		t.Fatalf("expected children 'a b c', have '%s'", got)
	}
	if inx := root.RemoveChild(b); inx != 1 {
		t.Errorf("expected b to be removed from position 1, was %d", inx)
	}
	if got := payloads(root); got != "a c" {
		t.Errorf("expected children 'a c' after removal, have '%s'", got)
	}
	if inx := root.RemoveChild(b); inx != -1 {
		t.Errorf("expected removal of non-child to return -1, is %d", inx)
	}
}

func TestInsertBeyondEndAppends(t *testing.T) {
	root := NewNode("root")
	root.AppendChild(NewNode("a"))
	root.InsertChildAt(17, NewNode("z"))
	root.InsertChildAt(-1, NewNode("y"))
	if got := payloads(root); got != "a z y" {
		t.Errorf("expected children 'a z y', have '%s'", got)
	}
}

func TestMoveChild(t *testing.T) {
	root := NewNode("root")
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	root.AppendChild(a).AppendChild(b).AppendChild(c)
	if from := root.MoveChild(a, 2); from != 0 {
		t.Errorf("expected a to move from position 0, was %d", from)
	}
	if got := payloads(root); got != "b c a" {
		t.Errorf("expected children 'b c a', have '%s'", got)
	}
	root.MoveChild(c, 0)
	if got := payloads(root); got != "c b a" {
		t.Errorf("expected children 'c b a', have '%s'", got)
	}
}

func TestTopDownOrderAndSkip(t *testing.T) {
	root := NewNode("r")
	a, b := NewNode("a"), NewNode("b")
	a.AppendChild(NewNode("a1")).AppendChild(NewNode("a2"))
	b.AppendChild(NewNode("b1"))
	root.AppendChild(a).AppendChild(b)
	var visited []string
	err := TopDown(root, func(n *Node[string], depth int) error {
		visited = append(visited, n.Payload)
		if n.Payload == "b" {
			return ErrSkipChildren
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(visited, " "); got != "r a a1 a2 b" {
		t.Errorf("unexpected top-down order: %s", got)
	}
	var post []string
	_ = BottomUp(root, func(n *Node[string], depth int) error {
		post = append(post, n.Payload)
		return nil
	})
	if got := strings.Join(post, " "); got != "a1 a2 a b1 b r" {
		t.Errorf("unexpected bottom-up order: %s", got)
	}
}

func TestCollect(t *testing.T) {
	root := NewNode("r")
	root.AppendChild(NewNode("x1")).AppendChild(NewNode("y"))
	ch, _ := root.Child(1)
	ch.AppendChild(NewNode("x2"))
	xs := Collect(root, func(n *Node[string]) bool {
		return strings.HasPrefix(n.Payload, "x")
	})
	if len(xs) != 2 || xs[0].Payload != "x1" || xs[1].Payload != "x2" {
		t.Errorf("expected to collect x1 and x2, have %v", xs)
	}
}

func payloads(n *Node[string]) string {
	var s []string
	for _, ch := range n.Children() {
		s = append(s, ch.Payload)
	}
	return strings.Join(s, " ")
}
