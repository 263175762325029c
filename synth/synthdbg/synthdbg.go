/*
Package synthdbg implements helpers to debug a synthetic DOM tree.

Print renders a tree as indented text, ToGraphViz as a GraphViz digraph,
optionally decorated with resolved styles as published by a renderer.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package synthdbg

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"text/template"

	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/synth"
	tp "github.com/xlab/treeprint"
)

// Print returns the tree under n as indented text, one node per line.
func Print(n *synth.Node) string {
	if n == nil {
		return "<nil>\n"
	}
	p := tp.NewWithRoot(label(n))
	for _, ch := range n.ChildNodes() {
		ppt(p, ch)
	}
	return p.String()
}

func ppt(p tp.Tree, n *synth.Node) {
	children := n.ChildNodes()
	if len(children) == 0 {
		p.AddNode(label(n))
		return
	}
	branch := p.AddBranch(label(n))
	for _, ch := range children {
		ppt(branch, ch)
	}
}

func label(n *synth.Node) string {
	if n.NodeType() != synth.ElementNode {
		return n.String()
	}
	var b strings.Builder
	b.WriteString(n.String())
	for _, a := range n.Attributes() {
		fmt.Fprintf(&b, " %s=%q", a.Name, a.Value)
	}
	return b.String()
}

// Parameters for GraphViz drawing.
type graphParamsType struct {
	Fontname       string
	StyleGroups    []string
	NodeTmpl       *template.Template
	EdgeTmpl       *template.Template
	StylegroupTmpl *template.Template
	PgedgeTmpl     *template.Template
	PgpgTmpl       *template.Template
}

var defaultGroups = []string{
	style.PGDisplay,
	style.PGDimension,
	style.PGColor,
}

// ToGraphViz outputs a diagram for the tree under n in GraphViz (DOT)
// format. If styles is non-nil, the style groups listed in styleGroups of
// each node's property map are drawn next to the node. If styleGroups is
// nil, Display, Dimension and Color are drawn.
func ToGraphViz(n *synth.Node, w io.Writer, styles map[synth.ID]*style.PropertyMap,
	styleGroups []string) error {
	//
	gparams := graphParamsType{Fontname: "Helvetica", StyleGroups: styleGroups}
	if styleGroups == nil {
		gparams.StyleGroups = defaultGroups
	}
	gparams.NodeTmpl = template.Must(template.New("synthnode").Funcs(
		template.FuncMap{
			"shortstring": shortText,
		}).Parse(synthNodeTmpl))
	gparams.EdgeTmpl = template.Must(template.New("synthedge").Parse(synthEdgeTmpl))
	gparams.StylegroupTmpl = template.Must(template.New("stylegroup").Parse(styleGroupTmpl))
	gparams.PgedgeTmpl = template.Must(template.New("pgedge").Parse(pgEdgeTmpl))
	gparams.PgpgTmpl = template.Must(template.New("pgpgedge").Parse(pgpgEdgeTmpl))
	tmpl := template.Must(template.New("synth").Parse(graphHeadTmpl))
	if err := tmpl.Execute(w, gparams); err != nil {
		return err
	}
	g := &grapher{w: w, params: &gparams, styles: styles, names: make(map[synth.ID]string)}
	if err := g.nodes(n); err != nil {
		return err
	}
	_, err := w.Write([]byte("}\n"))
	return err
}

// Dotty is a helper for testing. It creates a GraphViz image of the tree
// under n and writes it to an SVG file in the current folder, choosing a
// unique file name. Errors fail the test.
func Dotty(n *synth.Node, styles map[synth.ID]*style.PropertyMap, t *testing.T) {
	tmpfile, err := os.CreateTemp(".", "synth.*.dot")
	if err != nil {
		t.Error(err)
		return
	}
	defer func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}()
	t.Logf("writing synthetic DOM digraph to %s", tmpfile.Name())
	if err := ToGraphViz(n, tmpfile, styles, nil); err != nil {
		t.Error(err)
		return
	}
	outOption := fmt.Sprintf("-o%s.svg", tmpfile.Name())
	cmd := exec.Command("dot", "-Tsvg", outOption, tmpfile.Name())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Error(err.Error())
	}
}

type grapher struct {
	w      io.Writer
	params *graphParamsType
	styles map[synth.ID]*style.PropertyMap
	names  map[synth.ID]string
}

type node struct {
	N    *synth.Node
	Name string
}

type edge struct {
	N1, N2 node
}

type pgedge struct {
	Name      string
	PropGroup *style.PropertyGroup
}

func (g *grapher) name(n *synth.Node) string {
	name := g.names[n.ID()]
	if name == "" {
		name = fmt.Sprintf("node%05d", len(g.names)+1)
		g.names[n.ID()] = name
	}
	return name
}

func (g *grapher) nodes(n *synth.Node) error {
	if err := g.params.NodeTmpl.Execute(g.w, &node{n, g.name(n)}); err != nil {
		return err
	}
	if err := g.nodeStyles(n); err != nil {
		return err
	}
	for _, ch := range n.ChildNodes() {
		if err := g.nodes(ch); err != nil {
			return err
		}
		e := edge{node{n, g.name(n)}, node{ch, g.name(ch)}}
		if err := g.params.EdgeTmpl.Execute(g.w, e); err != nil {
			return err
		}
	}
	return nil
}

func (g *grapher) nodeStyles(n *synth.Node) error {
	pmap := g.styles[n.ID()]
	if pmap == nil {
		return nil
	}
	var prev *style.PropertyGroup
	for _, s := range g.params.StyleGroups {
		pg := pmap.Group(s)
		if pg == nil {
			continue
		}
		if err := g.params.StylegroupTmpl.Execute(g.w, pg); err != nil {
			return err
		}
		var err error
		if prev == nil {
			err = g.params.PgedgeTmpl.Execute(g.w, pgedge{g.name(n), pg})
		} else {
			err = g.params.PgpgTmpl.Execute(g.w, []*style.PropertyGroup{prev, pg})
		}
		if err != nil {
			return err
		}
		prev = pg
	}
	return nil
}

func shortText(n *synth.Node) string {
	data := n.Data()
	s := "\"\\\""
	if len(data) > 10 {
		s += data[:10] + "...\\\"\""
	} else {
		s += data + "\\\"\""
	}
	s = strings.Replace(s, "\n", `\\n`, -1)
	s = strings.Replace(s, "\t", `\\t`, -1)
	s = strings.Replace(s, " ", "␣", -1)
	return s
}

// --- Templates --------------------------------------------------------

const graphHeadTmpl = `digraph g {
  graph [labelloc="t" label="" splines=true overlap=false rankdir = "LR"];
  graph [fontname = "{{ .Fontname }}" fontsize=14] ;
   node [fontname = "{{ .Fontname }}" fontsize=14] ;
   edge [fontname = "{{ .Fontname }}" fontsize=14] ;
`

const synthNodeTmpl = `{{ if eq .N.NodeName "#text" "#comment" }}
{{ .Name }}	[ label={{ shortstring .N }} shape=box style=filled fillcolor=grey95 fontname="Courier" fontsize=11.0 ] ;
{{ else }}
{{ .Name }}	[ label={{ printf "%q" .N.NodeName }} shape=ellipse style=filled fillcolor=lightblue3 ] ;
{{ end }}
`

const synthEdgeTmpl = `{{ .N1.Name }} -> {{ .N2.Name }} [weight=1] ;
`

const styleGroupTmpl = `{{ printf "pg%p" . }} [ style="filled" penwidth=1 fillcolor="ivory3" shape="Mrecord" fontsize=12
    label=<<table border="0" cellborder="0" cellpadding="2" cellspacing="0" bgcolor="ivory3">
      <tr><td bgcolor="azure4" align="center" colspan="2"><font color="white">{{ .Name }}</font></td></tr>
      {{ range .Properties }}
      <tr><td align="right">{{ .Key }}:</td><td>{{ .Value }}</td></tr>
      {{ else }}
      <tr><td colspan="2">no styles</td></tr>
      {{ end }}
    </table>> ] ;
`

const pgEdgeTmpl = `{{ .Name }} -> {{ printf "pg%p" .PropGroup }} [dir=none weight=1 style="dashed"] ;
`

const pgpgEdgeTmpl = `{{ index . 0 | printf "pg%p" }} -> {{ index . 1 | printf "pg%p" }} [dir=none weight=1 style="dashed"] ;
`
