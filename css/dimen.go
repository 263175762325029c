package css

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/tyse/core/dimen"
	. "github.com/npillmayer/tyse/core/percent"
)

const (
	dimenNone uint32 = 0

	dimenAbsolute uint32 = 0x0001
	dimenAuto     uint32 = 0x0002
	dimenInherit  uint32 = 0x0003
	dimenInitial  uint32 = 0x0004
	kindMask      uint32 = 0x000f

	// Flags for content dependent dimensions
	DimenContentMax uint32 = 0x0010
	DimenContentMin uint32 = 0x0020
	DimenContentFit uint32 = 0x0030
	contentMask     uint32 = 0x00f0

	dimenEM      uint32 = 0x0100
	dimenEX      uint32 = 0x0200
	dimenCH      uint32 = 0x0300
	dimenREM     uint32 = 0x0400
	dimenVW      uint32 = 0x0500
	dimenVH      uint32 = 0x0600
	dimenVMIN    uint32 = 0x0700
	dimenVMAX    uint32 = 0x0800
	dimenPercent uint32 = 0x0900
	relativeMask uint32 = 0xff00
)

// PX is a CSS pixel, defined as 0.75 printer's points.
const PX dimen.DU = dimen.PT * 3 / 4

// ErrUnit is returned for dimension values with a unit we cannot handle.
var ErrUnit = errors.New("css: unsupported dimension")

// DimenT is an option type for CSS dimensions.
type DimenT struct {
	d       dimen.DU
	percent Percent
	flags   uint32
}

// Auto creates a CSS dimension of value `auto`.
func Auto() DimenT {
	return DimenT{flags: dimenAuto}
}

// Inherit creates a CSS dimension of value `inherit`.
func Inherit() DimenT {
	return DimenT{flags: dimenInherit}
}

// Initial creates a CSS dimension of value `initial`.
func Initial() DimenT {
	return DimenT{flags: dimenInitial}
}

// JustDimen creates a CSS dimension with a fixed value of x.
func JustDimen(x dimen.DU) DimenT {
	return DimenT{d: x, flags: dimenAbsolute}
}

// Pixels creates a CSS dimension of n CSS pixels.
func Pixels(n float64) DimenT {
	return JustDimen(dimen.DU(n * float64(PX)))
}

// Percentage creates a CSS dimension with a %-relative value.
func Percentage(n Percent) DimenT {
	return DimenT{percent: n, flags: dimenPercent}
}

// fontRelative creates a CSS dimension relative to the font size; x holds
// the factor, scaled by dimen.PT.
func fontRelative(x dimen.DU, unit uint32) DimenT {
	return DimenT{d: x, flags: unit}
}

var absoluteUnits = map[string]float64{
	"px": float64(PX),
	"pt": float64(dimen.PT),
	"pc": 12 * float64(dimen.PT),
	"in": 72 * float64(dimen.PT),
	"cm": 72 / 2.54 * float64(dimen.PT),
	"mm": 72 / 25.4 * float64(dimen.PT),
}

var relativeUnits = map[string]uint32{
	"em":   dimenEM,
	"ex":   dimenEX,
	"ch":   dimenCH,
	"rem":  dimenREM,
	"vw":   dimenVW,
	"vh":   dimenVH,
	"vmin": dimenVMIN,
	"vmax": dimenVMAX,
}

// ParseDimen interprets a style property as a CSS dimension, e.g. "12px",
// "50%" or "auto". An empty property is reported as `auto`.
func ParseDimen(p style.Property) (DimenT, error) {
	s := strings.ToLower(strings.TrimSpace(p.String()))
	switch s {
	case "", "auto":
		return Auto(), nil
	case "inherit":
		return Inherit(), nil
	case "initial":
		return Initial(), nil
	case "0":
		return JustDimen(0), nil
	case "max-content":
		return DimenT{flags: DimenContentMax}, nil
	case "min-content":
		return DimenT{flags: DimenContentMin}, nil
	case "fit-content":
		return DimenT{flags: DimenContentFit}, nil
	}
	if n, ok := strings.CutSuffix(s, "%"); ok {
		x, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return Auto(), fmt.Errorf("%w: %q", ErrUnit, s)
		}
		return Percentage(FromInt(x)), nil
	}
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+'
	})
	if i <= 0 {
		return Auto(), fmt.Errorf("%w: %q", ErrUnit, s)
	}
	x, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Auto(), fmt.Errorf("%w: %q", ErrUnit, s)
	}
	unit := s[i:]
	if f, ok := absoluteUnits[unit]; ok {
		return JustDimen(dimen.DU(x * f)), nil
	}
	if flag, ok := relativeUnits[unit]; ok {
		return fontRelative(dimen.DU(x*float64(dimen.PT)), flag), nil
	}
	return Auto(), fmt.Errorf("%w: %q", ErrUnit, s)
}

// IsAuto returns true for dimension `auto`.
func (d DimenT) IsAuto() bool {
	return d.flags&kindMask == dimenAuto
}

// IsAbsolute returns true for fixed dimensions.
func (d DimenT) IsAbsolute() bool {
	return d.flags&kindMask == dimenAbsolute
}

// IsPercent returns true for %-relative dimensions.
func (d DimenT) IsPercent() bool {
	return d.flags&relativeMask == dimenPercent
}

// Px returns a fixed dimension in CSS pixels. For other kinds of
// dimensions, false is returned.
func (d DimenT) Px() (float64, bool) {
	if !d.IsAbsolute() {
		return 0, false
	}
	return float64(d.d) / float64(PX), true
}
