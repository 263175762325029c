package css

import (
	"fmt"

	"github.com/npillmayer/sdom/style"
)

// Styled is a node of a tree of styled nodes, e.g. a node of a rendering
// surface which resolves styles for its elements.
type Styled interface {
	Styles() *style.PropertyMap             // locally resolved styles, may be nil
	StyledParent() Styled                   // nil for the root
	DefaultStyle(key string) style.Property // user-agent default for key
}

// GetCascadedProperty gets the value of a property. The search cascades to
// parent property maps, if available.
//
// Clients will usually call GetProperty(…) instead as this will respect
// CSS semantics for inherited properties.
//
// The call to GetCascadedProperty will flag an error if the style property
// isn't found in any ancestor's property map and the root has no default for
// it.
func GetCascadedProperty(node Styled, key string) (style.Property, error) {
	var last Styled
	for ; node != nil; node = node.StyledParent() {
		p := GetLocalProperty(node.Styles(), key)
		if p != style.NullStyle && !p.IsInherit() {
			return p, nil
		}
		last = node
	}
	if last != nil {
		if p := last.DefaultStyle(key); p != style.NullStyle {
			return p, nil
		}
	}
	return style.NullStyle, fmt.Errorf("cannot find ancestor with property %s", key)
}

// GetProperty gets the value of a property. If the property is not set
// locally on the style node and the property is inheritable, he search
// cascades to parent property maps, if available.
func GetProperty(node Styled, key string) (style.Property, error) {
	if node == nil {
		return style.NullStyle, fmt.Errorf("cannot get property %s of nil node", key)
	}
	p := GetLocalProperty(node.Styles(), key)
	if p.IsInherit() || (p == style.NullStyle && style.IsCascading(key)) {
		if parent := node.StyledParent(); parent != nil {
			return GetCascadedProperty(parent, key)
		}
	}
	if p == style.NullStyle || p.IsInitial() || p.IsInherit() {
		p = node.DefaultStyle(key)
	}
	return p, nil
}

// GetLocalProperty returns a style property value, if it is set locally
// for a styled node's property map. No cascading is performed.
func GetLocalProperty(pmap *style.PropertyMap, key string) style.Property {
	groupname := style.GroupNameFromPropertyKey(key)
	group := pmap.Group(groupname)
	if group == nil {
		return style.NullStyle
	}
	p, _ := group.Get(key)
	return p
}
