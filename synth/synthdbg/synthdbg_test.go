package synthdbg

import (
	"bytes"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/sdom/style"
	"github.com/npillmayer/sdom/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T) *synth.Document {
	t.Helper()
	doc, err := synth.ParseHTML(strings.NewReader(`<html><body><p class="x">Hello World</p></body></html>`),
		synth.WithIDs(synth.SequentialIDs("n")))
	require.NoError(t, err)
	return doc
}

func TestPrint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.synth")
	defer teardown()
	//
	doc := parse(t)
	out := Print(doc.Root())
	t.Logf("\n%s", out)
	assert.Contains(t, out, `class="x"`)
	assert.Contains(t, out, `"Hello World"`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "#document"), "root must be printed first")
	assert.Equal(t, "<nil>\n", Print(nil))
}

func TestGraphViz(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.synth")
	defer teardown()
	//
	doc := parse(t)
	var p *synth.Node
	for _, n := range doc.Descendants() {
		if n.TagName() == "p" {
			p = n
		}
	}
	require.NotNil(t, p)
	styles := map[synth.ID]*style.PropertyMap{
		p.ID(): style.FromKeyValues([]style.KeyValue{
			{Key: "display", Value: "block"},
			{Key: "color", Value: "rgb(255, 0, 0)"},
		}),
	}
	var buf bytes.Buffer
	require.NoError(t, ToGraphViz(doc.Root(), &buf, styles, nil))
	dot := buf.String()
	assert.True(t, strings.HasPrefix(dot, "digraph g {"))
	assert.True(t, strings.HasSuffix(dot, "}\n"))
	assert.Contains(t, dot, `label="p"`)
	assert.Contains(t, dot, "rgb(255, 0, 0)")
	assert.Contains(t, dot, `Hello␣Worl...`)
	assert.Equal(t, len(doc.Descendants())-1, strings.Count(dot, "[weight=1]"), "one edge per child")
}
