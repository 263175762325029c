package css

import (
	"strings"

	"github.com/npillmayer/sdom/style"
)

// Positioning is a value of the CSS position property.
type Positioning uint8

// Values of property `position`. Sticky positioning is not supported.
const (
	PositionUnset Positioning = iota
	PositionStatic
	PositionRelative
	PositionAbsolute
	PositionFixed
)

var positioningNames = map[Positioning]string{
	PositionUnset:    "unset",
	PositionStatic:   "static",
	PositionRelative: "relative",
	PositionAbsolute: "absolute",
	PositionFixed:    "fixed",
}

func (p Positioning) String() string {
	if s, ok := positioningNames[p]; ok {
		return s
	}
	return "Positioning(?)"
}

// PositionT is the position of an element, together with the offsets of
// positioned elements.
type PositionT struct {
	offsets []PositionOffset
	kind    Positioning
}

// PositionOffset is an offset of a positioned element in one direction.
type PositionOffset struct {
	Dim DimenT
	Dir PosDir
}

// PosDir is either Top, Right, Bottom or Left.
type PosDir uint8

// Directions of offsets.
const (
	Top PosDir = iota
	Right
	Bottom
	Left
)

var offsetKeys = [4]string{"top", "right", "bottom", "left"}

// NormalizeOffsets spreads offsets into a slice of four, indexed by
// direction. Missing directions are `auto`, invalid ones are dropped.
func NormalizeOffsets(offsets []PositionOffset) []PositionOffset {
	norm := make([]PositionOffset, 4)
	for i := Top; i <= Left; i++ {
		norm[i] = PositionOffset{Dim: Auto(), Dir: i}
	}
	for _, o := range offsets {
		if o.Dir <= Left {
			norm[o.Dir] = o
		}
	}
	return norm
}

// Position interprets a value of property `position`. Unknown values yield
// an unset position.
func Position(p style.Property) PositionT {
	switch strings.ToLower(strings.TrimSpace(p.String())) {
	case "static":
		return PositionT{kind: PositionStatic}
	case "relative":
		return Positioned(PositionRelative, nil)
	case "absolute":
		return Positioned(PositionAbsolute, nil)
	case "fixed":
		return Positioned(PositionFixed, nil)
	}
	return PositionT{}
}

// Positioned creates a position of the given kind with (possibly partial)
// offsets. Offsets of unset or static positions are ignored.
func Positioned(kind Positioning, offsets []PositionOffset) PositionT {
	if kind <= PositionStatic {
		return PositionT{kind: kind}
	}
	return PositionT{kind: kind, offsets: NormalizeOffsets(offsets)}
}

// PositionFromStyles reads the position of an element from its resolved
// style, including the offsets of positioned elements. Offsets which cannot
// be interpreted are treated as `auto`.
func PositionFromStyles(pmap *style.PropertyMap) PositionT {
	p, _ := pmap.Property("position")
	pos := Position(p)
	if !pos.IsPositioned() {
		return pos
	}
	var offsets []PositionOffset
	for dir, key := range offsetKeys {
		v, ok := pmap.Property(key)
		if !ok {
			continue
		}
		d, err := ParseDimen(v)
		if err != nil {
			tracer().Debugf("ignoring %s offset: %v", key, err)
			continue
		}
		offsets = append(offsets, PositionOffset{Dim: d, Dir: PosDir(dir)})
	}
	return Positioned(pos.kind, offsets)
}

// Kind returns the kind of positioning.
func (p PositionT) Kind() Positioning {
	return p.kind
}

// Offsets returns the normalized offsets of a positioned element, or nil
// for static and unset positions.
func (p PositionT) Offsets() []PositionOffset {
	return p.offsets
}

// Shift returns the displacement of a positioned element in CSS pixels, as
// given by its fixed left and top offsets. Other offsets do not contribute.
func (p PositionT) Shift() (dx, dy float64) {
	if !p.IsPositioned() {
		return 0, 0
	}
	dx, _ = p.offsets[Left].Dim.Px()
	dy, _ = p.offsets[Top].Dim.Px()
	return dx, dy
}

// IsPositioned is true for relative, absolute and fixed positions.
func (p PositionT) IsPositioned() bool {
	return p.kind > PositionStatic
}

// InFlow is false for elements taken out of the normal flow.
func (p PositionT) InFlow() bool {
	return p.kind != PositionAbsolute && p.kind != PositionFixed
}

// IsRelative returns true if p represents a relative position.
func (p PositionT) IsRelative() bool {
	return p.kind == PositionRelative
}

// IsAbsolute returns true if p represents an absolute position.
func (p PositionT) IsAbsolute() bool {
	return p.kind == PositionAbsolute
}

// IsFixed returns true if p represents a fixed position.
func (p PositionT) IsFixed() bool {
	return p.kind == PositionFixed
}
