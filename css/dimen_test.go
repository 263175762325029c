package css_test

import (
	"errors"
	"testing"

	"github.com/npillmayer/sdom/css"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/tyse/core/dimen"
	"github.com/npillmayer/tyse/core/percent"
)

func TestDimenKinds(t *testing.T) {
	ten := css.JustDimen(dimen.PT * 10)
	if !ten.IsAbsolute() || ten.IsAuto() {
		t.Errorf("expected JustDimen(10pt) to be a fixed value, isn't: %#v", ten)
	}
	if px, ok := css.Pixels(12).Px(); !ok || px != 12 {
		t.Errorf("expected Pixels(12) to be 12px, is %v", px)
	}
	if !css.Auto().IsAuto() {
		t.Errorf("expected dimen auto to be auto")
	}
	pcnt := css.Percentage(percent.FromInt(80))
	if !pcnt.IsPercent() || pcnt.IsAbsolute() {
		t.Errorf("expected Percentage(80) to be a percentage value, isn't: %#v", pcnt)
	}
	if _, ok := pcnt.Px(); ok {
		t.Errorf("expected percentage to have no pixel value")
	}
}

func TestParseDimen(t *testing.T) {
	for _, tc := range []struct {
		in string
		px float64
		ok bool
	}{
		{"12px", 12, true},
		{"0", 0, true},
		{"  3PX ", 3, true},
		{"auto", 0, false},
		{"2em", 0, false},
	} {
		d, err := css.ParseDimen(style.Property(tc.in))
		if err != nil {
			t.Errorf("unexpected error for %q: %v", tc.in, err)
			continue
		}
		px, ok := d.Px()
		if ok != tc.ok || px != tc.px {
			t.Errorf("expected %q to be (%v,%v) pixels, is (%v,%v)", tc.in, tc.px, tc.ok, px, ok)
		}
	}
	if d, _ := css.ParseDimen("50%"); !d.IsPercent() {
		t.Errorf("expected 50%% to be a percentage, isn't: %#v", d)
	}
	if _, err := css.ParseDimen("12furlongs"); !errors.Is(err, css.ErrUnit) {
		t.Errorf("expected unknown unit to be rejected, error is %v", err)
	}
}
