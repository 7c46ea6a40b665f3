package mcts

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

type dotNode struct {
	ID     int
	Move   string
	Visits uint32
	Prior  float32
	Mean   float32
	State  string
}

// ToDot renders the tree in the graphviz dot format. The state of each node is printed with %s.
func (t *Tree[S]) ToDot() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}

	var buf bytes.Buffer
	for _, n := range t.nodes {
		move := "root"
		if !n.IsRoot() {
			move = fmt.Sprintf("%d", n.move)
		}
		state := html.EscapeString(strings.TrimRight(fmt.Sprintf("%s", any(n.state)), "\n"))
		dn := dotNode{
			ID:     n.ID(),
			Move:   move,
			Visits: n.visits,
			Prior:  n.prior,
			Mean:   n.Mean(),
			State:  strings.ReplaceAll(state, "\n", `<BR ALIGN="LEFT"/>`),
		}

		buf.Reset()
		if err := tmpl.Execute(&buf, dn); err != nil {
			return "", errors.WithStack(err)
		}
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		if err := g.AddNode("G", nodeName(n.id), attrs); err != nil {
			return "", errors.WithStack(err)
		}
		if !n.IsRoot() {
			if err := g.AddEdge(nodeName(n.parent), nodeName(n.id), true, nil); err != nil {
				return "", errors.WithStack(err)
			}
		}
	}
	return g.String(), nil
}

func nodeName(n naughty) string { return fmt.Sprintf("n%d", n) }

const tmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Node ID</TD><TD>{{.ID}}</TD></TR>
<TR><TD>Move</TD><TD>{{.Move}}</TD></TR>
<TR><TD>Visits</TD><TD>{{.Visits}}</TD></TR>
<TR><TD>Prior</TD><TD>{{printf "%.3f" .Prior}}</TD></TR>
<TR><TD>Mean</TD><TD>{{printf "%.3f" .Mean}}</TD></TR>
<TR><TD>State</TD><TD>{{.State}}</TD></TR>
</TABLE>
>`

var tmpl *template.Template

func init() {
	tmpl = template.Must(template.New("name").Parse(tmplRaw))
}
