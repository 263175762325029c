package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ErrSyntax is returned if a rule text handed to InsertRule does not denote
// exactly one rule.
var ErrSyntax = errors.New("synth: CSS syntax error")

// CSSObject is implemented by stylesheets, rules and declarations.
type CSSObject interface {
	ID() ID
	ParentStyleSheet() *StyleSheet // nil for detached objects
	ParentRule() *Rule             // nil for stylesheets and top-level rules
	PreviewCSSText() string        // CSS text, possibly incomplete
}

// OwningStyleSheet finds the stylesheet a CSS object belongs to, walking from
// declarations to their rule and from rules to their stylesheet. It returns
// nil if obj is not (or no longer) part of a stylesheet.
func OwningStyleSheet(obj CSSObject) *StyleSheet {
	switch o := obj.(type) {
	case nil:
		return nil
	case *StyleSheet:
		return o
	case *Declaration:
		if o == nil || o.rule == nil {
			return nil
		}
		return OwningStyleSheet(o.rule)
	case *Rule:
		if o == nil {
			return nil
		}
		for r := o; r != nil; r = r.parent {
			if r.sheet != nil {
				return r.sheet
			}
		}
		return nil
	}
	return obj.ParentStyleSheet()
}

// --- Stylesheets -----------------------------------------------------------

// StyleSheet is the stylesheet of a <style> element.
type StyleSheet struct {
	doc    *Document
	id     ID
	owner  ID     // the <style> element
	text   string // source text of the last ReplaceText
	edited bool   // rules changed since the last ReplaceText
	rules  []*Rule
}

func newStyleSheet(doc *Document, owner ID) *StyleSheet {
	sheet := &StyleSheet{doc: doc, id: doc.nextID(), owner: owner}
	doc.sheets.put(sheet.id, sheet)
	return sheet
}

// ID returns the stylesheet's identifier.
func (sheet *StyleSheet) ID() ID { return sheet.id }

// OwnerNode returns the ID of the <style> element owning the stylesheet.
func (sheet *StyleSheet) OwnerNode() ID { return sheet.owner }

// ParentStyleSheet returns the stylesheet itself.
func (sheet *StyleSheet) ParentStyleSheet() *StyleSheet { return sheet }

// ParentRule returns nil.
func (sheet *StyleSheet) ParentRule() *Rule { return nil }

// Rules returns the top-level rules of the stylesheet, in order.
func (sheet *StyleSheet) Rules() []*Rule {
	rules := make([]*Rule, len(sheet.rules))
	copy(rules, sheet.rules)
	return rules
}

// Rule returns the top-level rule at position i, or nil.
func (sheet *StyleSheet) Rule(i int) *Rule {
	if i < 0 || i >= len(sheet.rules) {
		return nil
	}
	return sheet.rules[i]
}

// Len returns the number of top-level rules.
func (sheet *StyleSheet) Len() int { return len(sheet.rules) }

// PreviewCSSText returns the text of all rules, one per line.
func (sheet *StyleSheet) PreviewCSSText() string {
	texts := make([]string, len(sheet.rules))
	for i, r := range sheet.rules {
		texts[i] = r.PreviewCSSText()
	}
	return strings.Join(texts, "\n")
}

// ReplaceText replaces all rules of the stylesheet by the rules parsed from
// text. Text which cannot be parsed is kept as a single raw rule.
func (sheet *StyleSheet) ReplaceText(text string) {
	if text == sheet.text && !sheet.edited {
		return
	}
	sheet.text, sheet.edited = text, false
	for _, r := range sheet.rules {
		r.detach()
	}
	sheet.rules = sheet.parse(text)
	tracer().Debugf("stylesheet #%s re-parsed, %d rules", sheet.id, len(sheet.rules))
	sheet.doc.emit(StyleRuleChange{Target: sheet, Op: RuleReplaced, Index: -1})
}

// InsertRule parses text as a single rule and inserts it at position index.
// A negative index appends the rule. Text which cannot be parsed is inserted
// as a raw rule; text containing no or more than one rule is an error.
func (sheet *StyleSheet) InsertRule(text string, index int) (*Rule, error) {
	if index > len(sheet.rules) {
		return nil, fmt.Errorf("cannot insert rule at %d: %w", index, ErrIndexOutOfRange)
	}
	if index < 0 {
		index = len(sheet.rules)
	}
	rules := sheet.parse(text)
	if len(rules) != 1 {
		for _, r := range rules {
			r.detach()
		}
		return nil, fmt.Errorf("%d rules in %q: %w", len(rules), shorten(text, 40), ErrSyntax)
	}
	r := rules[0]
	sheet.rules = append(sheet.rules, nil)
	copy(sheet.rules[index+1:], sheet.rules[index:])
	sheet.rules[index] = r
	sheet.edited = true
	sheet.doc.emit(StyleRuleChange{Target: sheet, Op: RuleInserted, Index: index})
	return r, nil
}

// DeleteRule removes the top-level rule at position index.
func (sheet *StyleSheet) DeleteRule(index int) error {
	if index < 0 || index >= len(sheet.rules) {
		return fmt.Errorf("cannot delete rule %d: %w", index, ErrIndexOutOfRange)
	}
	r := sheet.rules[index]
	sheet.rules = append(sheet.rules[:index], sheet.rules[index+1:]...)
	r.detach()
	sheet.edited = true
	sheet.doc.emit(StyleRuleChange{Target: sheet, Op: RuleDeleted, Index: index})
	return nil
}

func (sheet *StyleSheet) parse(text string) []*Rule {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parsed, err := parser.Parse(text)
	if err != nil {
		tracer().Debugf("keeping unparsable CSS as raw rule: %v", err)
		r := sheet.newRule(nil)
		r.raw = strings.TrimSpace(text)
		return []*Rule{r}
	}
	rules := make([]*Rule, len(parsed.Rules))
	for i, pr := range parsed.Rules {
		rules[i] = sheet.adopt(pr, nil)
	}
	return rules
}

// adopt converts a douceur rule into a synthetic rule.
func (sheet *StyleSheet) adopt(pr *css.Rule, parent *Rule) *Rule {
	r := sheet.newRule(parent)
	r.kind = StyleRule
	r.selector = pr.Prelude
	if pr.Kind == css.AtRule {
		r.kind = AtRule
		r.name = pr.Name
	}
	for _, pd := range pr.Declarations {
		r.decls = append(r.decls, sheet.doc.newDeclaration(r, pd.Property, pd.Value, pd.Important))
	}
	for _, nested := range pr.Rules {
		r.rules = append(r.rules, sheet.adopt(nested, r))
	}
	return r
}

func (sheet *StyleSheet) newRule(parent *Rule) *Rule {
	r := &Rule{id: sheet.doc.nextID(), doc: sheet.doc, parent: parent}
	if parent == nil {
		r.sheet = sheet
	}
	sheet.doc.rules.put(r.id, r)
	return r
}

// --- Rules -----------------------------------------------------------------

// RuleKind distinguishes style rules from at-rules.
type RuleKind uint8

// Kinds of rules.
const (
	StyleRule RuleKind = iota
	AtRule
)

// Rule is a rule of a stylesheet. At-rules may contain nested rules.
type Rule struct {
	doc      *Document
	id       ID
	kind     RuleKind
	name     string // at-rule name, e.g. "@media"
	selector string // selector text or at-rule prelude
	decls    []*Declaration
	rules    []*Rule
	raw      string      // set for text which did not parse
	sheet    *StyleSheet // set for top-level rules
	parent   *Rule       // set for nested rules
}

// ID returns the rule's identifier.
func (r *Rule) ID() ID { return r.id }

// Kind returns the kind of the rule.
func (r *Rule) Kind() RuleKind { return r.kind }

// Name returns the name of an at-rule.
func (r *Rule) Name() string { return r.name }

// SelectorText returns the selector of a style rule or the prelude of an
// at-rule.
func (r *Rule) SelectorText() string { return r.selector }

// IsRaw returns true if the rule text could not be parsed.
func (r *Rule) IsRaw() bool { return r.raw != "" }

// ParentStyleSheet returns the stylesheet of a top-level rule.
func (r *Rule) ParentStyleSheet() *StyleSheet { return r.sheet }

// ParentRule returns the enclosing rule of a nested rule.
func (r *Rule) ParentRule() *Rule { return r.parent }

// Declarations returns the declarations of a rule, in order.
func (r *Rule) Declarations() []*Declaration {
	decls := make([]*Declaration, len(r.decls))
	copy(decls, r.decls)
	return decls
}

// Rules returns the nested rules of an at-rule.
func (r *Rule) Rules() []*Rule {
	rules := make([]*Rule, len(r.rules))
	copy(rules, r.rules)
	return rules
}

// Declaration returns the declaration for a property, or nil.
func (r *Rule) Declaration(property string) *Declaration {
	for _, d := range r.decls {
		if d.property == property {
			return d
		}
	}
	return nil
}

// PreviewCSSText returns the CSS text of the rule on a single line.
func (r *Rule) PreviewCSSText() string {
	if r.raw != "" {
		return r.raw
	}
	var b strings.Builder
	if r.kind == AtRule {
		b.WriteString(r.name)
		if r.selector != "" {
			b.WriteByte(' ')
		}
	}
	b.WriteString(r.selector)
	if r.kind == AtRule && len(r.decls) == 0 && len(r.rules) == 0 {
		b.WriteByte(';')
		return b.String()
	}
	b.WriteString(" {")
	for _, d := range r.decls {
		b.WriteByte(' ')
		b.WriteString(d.PreviewCSSText())
	}
	for _, nested := range r.rules {
		b.WriteByte(' ')
		b.WriteString(nested.PreviewCSSText())
	}
	b.WriteString(" }")
	return b.String()
}

// SetSelectorText changes the selector of a style rule.
func (r *Rule) SetSelectorText(selector string) {
	selector = strings.TrimSpace(selector)
	if selector == r.selector || r.raw != "" {
		return
	}
	r.selector = selector
	r.doc.emit(StyleRuleChange{Target: r, Op: SelectorChanged, Index: -1})
}

// SetDeclaration adds or changes the declaration for property. A value
// ending in "!important" marks the declaration as important.
func (r *Rule) SetDeclaration(property, value string) *Declaration {
	value = strings.TrimSpace(value)
	important := false
	if v, ok := strings.CutSuffix(value, "!important"); ok {
		value, important = strings.TrimSpace(v), true
	}
	d := r.Declaration(property)
	if d == nil {
		d = r.doc.newDeclaration(r, property, value, important)
		r.decls = append(r.decls, d)
	} else if d.value == value && d.important == important {
		return d
	} else {
		d.value, d.important = value, important
	}
	r.doc.emit(StyleRuleChange{Target: d, Op: DeclarationSet, Index: -1})
	return d
}

// RemoveDeclaration removes the declaration for property, if present.
func (r *Rule) RemoveDeclaration(property string) {
	for i, d := range r.decls {
		if d.property == property {
			r.decls = append(r.decls[:i], r.decls[i+1:]...)
			d.rule = nil
			r.doc.emit(StyleRuleChange{Target: r, Op: DeclarationRemoved, Index: i})
			return
		}
	}
}

func (r *Rule) detach() {
	r.sheet = nil
	r.parent = nil
}

// --- Declarations ----------------------------------------------------------

// Declaration is a property/value pair of a rule.
type Declaration struct {
	id        ID
	property  string
	value     string
	important bool
	rule      *Rule
}

func (doc *Document) newDeclaration(r *Rule, property, value string, important bool) *Declaration {
	d := &Declaration{
		id:        doc.nextID(),
		property:  strings.TrimSpace(property),
		value:     value,
		important: important,
		rule:      r,
	}
	doc.decls.put(d.id, d)
	return d
}

// ID returns the declaration's identifier.
func (d *Declaration) ID() ID { return d.id }

// Property returns the property name, e.g. "margin-top".
func (d *Declaration) Property() string { return d.property }

// Value returns the property value, e.g. "15px".
func (d *Declaration) Value() string { return d.value }

// IsImportant returns true if the declaration is marked "!important".
func (d *Declaration) IsImportant() bool { return d.important }

// ParentRule returns the rule containing the declaration.
func (d *Declaration) ParentRule() *Rule { return d.rule }

// ParentStyleSheet returns the stylesheet containing the declaration.
func (d *Declaration) ParentStyleSheet() *StyleSheet {
	return OwningStyleSheet(d)
}

// PreviewCSSText returns the declaration as CSS text.
func (d *Declaration) PreviewCSSText() string {
	if d.important {
		return fmt.Sprintf("%s: %s !important;", d.property, d.value)
	}
	return fmt.Sprintf("%s: %s;", d.property, d.value)
}

var _ CSSObject = &StyleSheet{}
var _ CSSObject = &Rule{}
var _ CSSObject = &Declaration{}

// ParseStyleSheet creates a detached <style> element holding text. The
// element owns the stylesheet parsed from text.
func (doc *Document) ParseStyleSheet(text string) *Node {
	n := doc.CreateElement("style")
	if err := n.AppendChild(doc.CreateTextNode(text)); err != nil {
		tracer().Errorf("cannot create style element: %v", err)
	}
	return n
}
