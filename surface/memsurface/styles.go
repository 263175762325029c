package memsurface

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	douceur "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/npillmayer/sdom/css"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/surface"
	"golang.org/x/net/html"
)

// sheet is the native stylesheet of a style element.
type sheet struct {
	elem  *html.Node
	rules []*rule
}

// rule is a parsed CSS rule. At-rules are kept, but do not take part in the
// cascade.
type rule struct {
	prelude   string
	selectors cascadia.SelectorGroup
	decls     []*douceur.Declaration
}

// parseRule parses the text of exactly one CSS rule.
func parseRule(text string) (*rule, error) {
	ss, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", surface.ErrRuleRejected, err)
	}
	if ss == nil || len(ss.Rules) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one rule in %q", surface.ErrRuleRejected, text)
	}
	return compileRule(ss.Rules[0])
}

func compileRule(r *douceur.Rule) (*rule, error) {
	rl := &rule{prelude: r.Prelude, decls: r.Declarations}
	if r.Kind == douceur.AtRule {
		rl.prelude = strings.TrimSpace(r.Name + " " + r.Prelude)
		return rl, nil
	}
	group, err := cascadia.ParseGroupWithPseudoElements(r.Prelude)
	if err != nil {
		return nil, fmt.Errorf("%w: selector %q: %v", surface.ErrRuleRejected, r.Prelude, err)
	}
	rl.selectors = group
	return rl, nil
}

// specificity returns the highest specificity of the selectors of rl
// matching h, or false if none matches. Selectors of pseudo-elements never
// match elements.
func (rl *rule) specificity(h *html.Node) (cascadia.Specificity, bool) {
	var weight cascadia.Specificity
	matched := false
	for _, sel := range rl.selectors {
		if sel.PseudoElement() != "" || !sel.Match(h) {
			continue
		}
		if s := sel.Specificity(); !matched || weight.Less(s) {
			weight = s
		}
		matched = true
	}
	return weight, matched
}

// --- Style elements --------------------------------------------------------

// StyleElementCount is part of interface surface.Surface.
func (s *Surface) StyleElementCount() int {
	n := 0
	for c := s.styles.FirstChild; c != nil; c = c.NextSibling {
		n++
	}
	return n
}

// InsertStyleElement is part of interface surface.Surface. Rules of the seed
// text which cannot be parsed are dropped, as browsers do.
func (s *Surface) InsertStyleElement(index int, cssText string) (surface.Node, surface.StyleSheet, error) {
	elem := element("style")
	elem.AppendChild(&html.Node{Type: html.TextNode, Data: cssText})
	sh := &sheet{elem: elem}
	if ss, err := parser.Parse(cssText); err != nil {
		tracer().Debugf("memsurface: dropping unparsable stylesheet text: %v", err)
	} else if ss != nil {
		for _, r := range ss.Rules {
			rl, err := compileRule(r)
			if err != nil {
				tracer().Debugf("memsurface: dropping rule: %v", err)
				continue
			}
			sh.rules = append(sh.rules, rl)
		}
	}
	if err := s.InsertChild(s.styles, elem, index); err != nil {
		return nil, nil, err
	}
	s.sheets[elem] = sh
	return elem, sh, nil
}

// RemoveStyleElement is part of interface surface.Surface.
func (s *Surface) RemoveStyleElement(n surface.Node) error {
	h, err := asNode(n)
	if err != nil {
		return err
	}
	if err := s.RemoveChild(s.styles, h); err != nil {
		return err
	}
	delete(s.sheets, h)
	return nil
}

func asSheet(sh surface.StyleSheet) (*sheet, error) {
	x, ok := sh.(*sheet)
	if !ok || x == nil {
		return nil, fmt.Errorf("%w: not a stylesheet: %v", surface.ErrNoSuchNode, sh)
	}
	return x, nil
}

// RuleCount is part of interface surface.Surface.
func (s *Surface) RuleCount(sh surface.StyleSheet) int {
	x, err := asSheet(sh)
	if err != nil {
		return 0
	}
	return len(x.rules)
}

// RuleSelectors returns the selector texts of the rules of a stylesheet, in
// order. For at-rules, the at-keyword and the prelude is returned.
func (s *Surface) RuleSelectors(sh surface.StyleSheet) []string {
	x, err := asSheet(sh)
	if err != nil {
		return nil
	}
	sels := make([]string, len(x.rules))
	for i, rl := range x.rules {
		sels[i] = rl.prelude
	}
	return sels
}

// DeleteRule is part of interface surface.Surface.
func (s *Surface) DeleteRule(sh surface.StyleSheet, index int) error {
	x, err := asSheet(sh)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(x.rules) {
		return fmt.Errorf("memsurface: rule index %d out of range [0,%d)", index, len(x.rules))
	}
	x.rules = append(x.rules[:index], x.rules[index+1:]...)
	s.invalidate()
	return nil
}

// InsertRule is part of interface surface.Surface. Rules with syntax errors
// or selectors which cannot be compiled are rejected with ErrRuleRejected.
func (s *Surface) InsertRule(sh surface.StyleSheet, ruleText string, index int) error {
	x, err := asSheet(sh)
	if err != nil {
		return err
	}
	if index < 0 || index > len(x.rules) {
		return fmt.Errorf("%w: rule index %d out of range [0,%d]", surface.ErrRuleRejected,
			index, len(x.rules))
	}
	rl, err := parseRule(ruleText)
	if err != nil {
		return err
	}
	x.rules = append(x.rules, nil)
	copy(x.rules[index+1:], x.rules[index:])
	x.rules[index] = rl
	s.invalidate()
	return nil
}

// --- Cascade ---------------------------------------------------------------

// matchedDecl is a declaration of a rule matching an element.
type matchedDecl struct {
	decl   *douceur.Declaration
	weight cascadia.Specificity
}

// localStyles collects the styles set for an element by the rules of all
// style elements and by its inline style. The result is nil for
// non-elements.
func (s *Surface) localStyles(h *html.Node) *style.PropertyMap {
	if h == nil || h.Type != html.ElementNode {
		return nil
	}
	var matched []matchedDecl // in document order
	for c := s.styles.FirstChild; c != nil; c = c.NextSibling {
		sh := s.sheets[c]
		if sh == nil {
			continue
		}
		for _, rl := range sh.rules {
			weight, ok := rl.specificity(h)
			if !ok {
				continue
			}
			for _, d := range rl.decls {
				matched = append(matched, matchedDecl{decl: d, weight: weight})
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].weight.Less(matched[j].weight)
	})
	pmap := style.NewPropertyMap()
	var inline []*douceur.Declaration
	if text, ok := attr(h, "style"); ok && strings.TrimSpace(text) != "" {
		// braces terminate a final declaration without ';'
		if decls, err := parser.ParseDeclarations("{" + text + "}"); err == nil {
			inline = decls
		} else {
			tracer().Debugf("memsurface: ignoring inline style %q: %v", text, err)
		}
	}
	// normal declarations first, then inline, then !important ones
	for _, m := range matched {
		if !m.decl.Important {
			pmap.Add(strings.ToLower(m.decl.Property), style.Property(m.decl.Value))
		}
	}
	for _, d := range inline {
		pmap.Add(strings.ToLower(d.Property), style.Property(d.Value))
	}
	for _, m := range matched {
		if m.decl.Important {
			pmap.Add(strings.ToLower(m.decl.Property), style.Property(m.decl.Value))
		}
	}
	if _, hidden := attr(h, "hidden"); hidden {
		pmap.Add("display", "none")
	}
	return pmap
}

// styled adapts native nodes to css.Styled.
type styled struct {
	s     *Surface
	h     *html.Node
	pmap  *style.PropertyMap
	ready bool
}

func (s *Surface) styledNode(h *html.Node) *styled {
	return &styled{s: s, h: h}
}

func (sn *styled) Styles() *style.PropertyMap {
	if !sn.ready {
		sn.pmap = sn.s.localStyles(sn.h)
		sn.ready = true
	}
	return sn.pmap
}

func (sn *styled) StyledParent() css.Styled {
	p := sn.h.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return sn.s.styledNode(p)
}

func (sn *styled) DefaultStyle(key string) style.Property {
	return style.GetUserAgentDefaultProperty(sn.h, key)
}

var _ css.Styled = &styled{}

// alwaysComputed are the keys every computed style reports.
var alwaysComputed = []string{"display", "position", "visibility"}

// computedStyle resolves the style of an element, including inherited
// properties and user-agent defaults.
func (s *Surface) computedStyle(h *html.Node) *style.PropertyMap {
	if h == nil || h.Type != html.ElementNode {
		return nil
	}
	keys := make(map[string]bool)
	for _, k := range alwaysComputed {
		keys[k] = true
	}
	sn := s.styledNode(h)
	for _, kv := range sn.Styles().All() {
		keys[kv.Key] = true
	}
	for p := h.Parent; p != nil && p.Type == html.ElementNode; p = p.Parent {
		for _, kv := range s.localStyles(p).All() {
			if style.IsCascading(kv.Key) {
				keys[kv.Key] = true
			}
		}
	}
	computed := style.NewPropertyMap()
	for k := range keys {
		p, err := css.GetProperty(sn, k)
		if err != nil || p == style.NullStyle {
			continue
		}
		if strings.Contains(k, "color") {
			if c := p.Color(); c != nil {
				p = style.Property(style.ColorString(c))
			}
		}
		computed.Add(k, p)
	}
	return computed
}

// ComputedStyle is part of interface surface.Surface. Properties are
// ordered by key. For non-element nodes, nil is returned.
func (s *Surface) ComputedStyle(n surface.Node) ([]style.KeyValue, error) {
	h, err := asNode(n)
	if err != nil {
		return nil, err
	}
	return s.computedStyle(h).All(), nil
}
