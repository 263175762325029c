/*
Package css interprets CSS property values.

CSS properties are plentyful and some of them are complicated.
This package trys to shield clients from the cumbersome handling of
CSS properties resulting of (1) the textual nature of CSS properties
and (2) the semantics of computing style attributes for a given node.

Dimensions, display modes and positions are parsed from resolved property
values and queried with predicates, e.g. DimenT.Px or PositionT.InFlow.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package css

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'sdom.css'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.css")
}
