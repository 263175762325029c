package synth

import "fmt"

// Mutation is a fine-grained change record of a synthetic document.
//
// Mutation is a closed sum type with variants
//
//	InsertChild | RemoveChild | MoveChild | AttributeChange | TextChange | StyleRuleChange
//
// Consumers are expected to switch on the concrete type and to ignore
// variants they do not know about.
type Mutation interface {
	TargetID() ID // ID of the object the mutation applies to
	isMutation()
}

// InsertChild reports that Child has been inserted into Parent at Index.
type InsertChild struct {
	Parent *Node
	Child  *Node
	Index  int
}

// RemoveChild reports that Child has been removed from Parent. Index is the
// position Child had before removal.
type RemoveChild struct {
	Parent *Node
	Child  *Node
	Index  int
}

// MoveChild reports that Child has been moved within the children of Parent.
type MoveChild struct {
	Parent *Node
	Child  *Node
	From   int
	To     int
}

// AttributeChange reports a change of an element's attribute. Removed is set
// if the attribute has been removed.
type AttributeChange struct {
	Target   *Node
	Name     string
	Value    string
	OldValue string
	Removed  bool
}

// TextChange reports a change of the character data of a text or comment
// node.
type TextChange struct {
	Target  *Node
	Data    string
	OldData string
}

// StyleRuleOp is the kind of change a StyleRuleChange reports.
type StyleRuleOp uint8

// Kinds of stylesheet changes.
const (
	RuleInserted StyleRuleOp = iota
	RuleDeleted
	RuleReplaced    // the whole text of a stylesheet has been replaced
	SelectorChanged // the selector of a rule has been changed
	DeclarationSet  // a declaration has been added or changed
	DeclarationRemoved
)

func (op StyleRuleOp) String() string {
	switch op {
	case RuleInserted:
		return "rule-inserted"
	case RuleDeleted:
		return "rule-deleted"
	case RuleReplaced:
		return "rule-replaced"
	case SelectorChanged:
		return "selector-changed"
	case DeclarationSet:
		return "declaration-set"
	case DeclarationRemoved:
		return "declaration-removed"
	}
	return fmt.Sprintf("style-op(%d)", uint8(op))
}

// StyleRuleChange reports a change of a stylesheet, a rule or a declaration.
// Target is the changed object, Index the position of an inserted or deleted
// rule, if applicable.
type StyleRuleChange struct {
	Target CSSObject
	Op     StyleRuleOp
	Index  int
}

func (m InsertChild) TargetID() ID     { return m.Parent.ID() }
func (m RemoveChild) TargetID() ID     { return m.Parent.ID() }
func (m MoveChild) TargetID() ID       { return m.Parent.ID() }
func (m AttributeChange) TargetID() ID { return m.Target.ID() }
func (m TextChange) TargetID() ID      { return m.Target.ID() }
func (m StyleRuleChange) TargetID() ID { return m.Target.ID() }

func (InsertChild) isMutation()     {}
func (RemoveChild) isMutation()     {}
func (MoveChild) isMutation()       {}
func (AttributeChange) isMutation() {}
func (TextChange) isMutation()      {}
func (StyleRuleChange) isMutation() {}

func (m InsertChild) String() string {
	return fmt.Sprintf("insert(%s ← %s @%d)", m.Parent, m.Child, m.Index)
}

func (m RemoveChild) String() string {
	return fmt.Sprintf("remove(%s → %s @%d)", m.Parent, m.Child, m.Index)
}

func (m MoveChild) String() string {
	return fmt.Sprintf("move(%s: %s %d→%d)", m.Parent, m.Child, m.From, m.To)
}

func (m AttributeChange) String() string {
	if m.Removed {
		return fmt.Sprintf("attr(%s: -%s)", m.Target, m.Name)
	}
	return fmt.Sprintf("attr(%s: %s=%q)", m.Target, m.Name, m.Value)
}

func (m TextChange) String() string {
	return fmt.Sprintf("text(%s)", m.Target)
}

func (m StyleRuleChange) String() string {
	return fmt.Sprintf("css(%s #%s @%d)", m.Op, m.Target.ID(), m.Index)
}

var _ Mutation = InsertChild{}
var _ Mutation = RemoveChild{}
var _ Mutation = MoveChild{}
var _ Mutation = AttributeChange{}
var _ Mutation = TextChange{}
var _ Mutation = StyleRuleChange{}
