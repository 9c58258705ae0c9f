package chartfile

import (
	"fmt"
	"strings"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// GenerateDOT converts a chart to Graphviz DOT format. Composite states
// become clusters holding an invisible anchor node that edges attach to.
func GenerateDOT(c *chart.Statechart, title string) string {
	var sb strings.Builder

	sb.WriteString("digraph Statechart {\n")
	sb.WriteString("    compound=true;\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [fontname=\"Helvetica\", fontsize=11];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("\n")

	if title != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(title)))
		sb.WriteString("\n")
	}

	// Node names follow pre-order position so they stay stable for a given tree.
	names := make(map[chart.ID]string)
	c.Walk(func(s chart.State, depth int) {
		names[s.ID] = fmt.Sprintf("s%d", len(names))
	})

	d := &dotWriter{c: c, sb: &sb, names: names}
	d.state(c.RootState(), 1)
	sb.WriteString("\n")

	for _, t := range c.Transitions() {
		src, ok := c.State(t.Src)
		if !ok {
			continue
		}
		dst, ok := c.State(t.Dst)
		if !ok {
			continue
		}
		var attrs []string
		if ev, ok := c.Event(t.Event); ok {
			attrs = append(attrs, fmt.Sprintf("label=\"%s\"", escapeDOT(ev.Name)))
		}
		if src.IsComposite() {
			attrs = append(attrs, "ltail="+clusterName(names[src.ID]))
		}
		if dst.IsComposite() {
			attrs = append(attrs, "lhead="+clusterName(names[dst.ID]))
		}
		sb.WriteString(fmt.Sprintf("    %s -> %s", d.node(src), d.node(dst)))
		if len(attrs) > 0 {
			sb.WriteString(" [" + strings.Join(attrs, ", ") + "]")
		}
		sb.WriteString(";\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}

type dotWriter struct {
	c     *chart.Statechart
	sb    *strings.Builder
	names map[chart.ID]string
	inits int
}

// node returns the DOT node an edge to or from s attaches to.
func (d *dotWriter) node(s chart.State) string {
	if s.IsComposite() {
		return d.names[s.ID] + "_anchor"
	}
	return d.names[s.ID]
}

func (d *dotWriter) state(s chart.State, depth int) {
	indent := strings.Repeat("    ", depth)
	name := d.names[s.ID]

	if !s.IsComposite() {
		shape := "box, style=rounded"
		if s.Kind == chart.KindPseudo {
			shape = "box, style=\"rounded,dashed\""
		}
		d.sb.WriteString(fmt.Sprintf("%s%s [label=\"%s\", shape=%s];\n", indent, name, escapeDOT(s.Name), shape))
		return
	}

	d.sb.WriteString(fmt.Sprintf("%ssubgraph %s {\n", indent, clusterName(name)))
	d.sb.WriteString(fmt.Sprintf("%s    label=\"%s\";\n", indent, escapeDOT(s.Name)))
	d.sb.WriteString(fmt.Sprintf("%s    style=rounded;\n", indent))
	d.sb.WriteString(fmt.Sprintf("%s    %s_anchor [shape=point, style=invis];\n", indent, name))

	if first, ok := d.c.State(s.Initial); ok {
		start := fmt.Sprintf("init%d", d.inits)
		d.inits++
		d.sb.WriteString(fmt.Sprintf("%s    %s [shape=point, width=0.12];\n", indent, start))
		edge := fmt.Sprintf("%s    %s -> %s", indent, start, d.node(first))
		if first.IsComposite() {
			edge += " [lhead=" + clusterName(d.names[first.ID]) + "]"
		}
		d.sb.WriteString(edge + ";\n")
	}

	for _, cid := range s.Children {
		if child, ok := d.c.State(cid); ok {
			d.state(child, depth+1)
		}
	}
	d.sb.WriteString(indent + "}\n")
}

func clusterName(node string) string {
	return "cluster_" + node
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "<", "\\<")
	s = strings.ReplaceAll(s, ">", "\\>")
	return s
}
