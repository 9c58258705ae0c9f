package chartfile

import (
	"fmt"
	"io"
	"strings"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

const pumlHeader = `@startuml

!define COMPOSITE_STATE_COLOR #FFD700
!define NORMAL_STATE_COLOR #90EE90
!define PSEUDO_STATE_COLOR #FFA07A

skinparam state {
    BackgroundColor<<composite>> COMPOSITE_STATE_COLOR
    BackgroundColor<<normal>> NORMAL_STATE_COLOR
    BackgroundColor<<pseudo>> PSEUDO_STATE_COLOR
    BorderColor Black
    FontColor Black
}

`

// GeneratePlantUML renders a chart as a PlantUML state diagram. The output
// depends only on the chart contents, so equal charts give equal text.
func GeneratePlantUML(c *chart.Statechart) string {
	var sb strings.Builder
	sb.WriteString(pumlHeader)

	aliases := pumlAliases(c)
	writePumlState(&sb, c, aliases, c.RootState(), 0)

	for _, t := range c.Transitions() {
		src, ok := c.State(t.Src)
		if !ok {
			continue
		}
		dst, ok := c.State(t.Dst)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s --> %s", aliases[src.ID], aliases[dst.ID]))
		if ev, ok := c.Event(t.Event); ok {
			sb.WriteString(" : " + ev.Name)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("@enduml\n")
	return sb.String()
}

// WritePlantUML writes the PlantUML form of a chart to w.
func WritePlantUML(w io.Writer, c *chart.Statechart) error {
	_, err := io.WriteString(w, GeneratePlantUML(c))
	return err
}

func writePumlState(sb *strings.Builder, c *chart.Statechart, aliases map[chart.ID]string, s chart.State, depth int) {
	indent := strings.Repeat("    ", depth)
	id := aliases[s.ID]

	if c.IsInitial(s.ID) {
		sb.WriteString(fmt.Sprintf("%s[*] --> %s\n", indent, id))
	}

	if !s.IsComposite() {
		sb.WriteString(fmt.Sprintf("%sstate \"%s\" as %s <<%s>>\n", indent, pumlLabel(s.Name), id, s.Kind))
		return
	}

	sb.WriteString(fmt.Sprintf("%sstate \"%s\" as %s <<composite>> {\n", indent, pumlLabel(s.Name), id))
	for _, cid := range s.Children {
		if child, ok := c.State(cid); ok {
			writePumlState(sb, c, aliases, child, depth+1)
		}
	}
	sb.WriteString(indent + "}\n")
}

// pumlAliases gives every state a distinct diagram identifier in tree order.
// A name whose identifier is already taken gets a _2, _3, ... suffix.
func pumlAliases(c *chart.Statechart) map[chart.ID]string {
	aliases := make(map[chart.ID]string)
	taken := make(map[string]bool)
	c.Walk(func(s chart.State, depth int) {
		base := pumlID(s.Name)
		alias := base
		for n := 2; taken[alias]; n++ {
			alias = fmt.Sprintf("%s_%d", base, n)
		}
		taken[alias] = true
		aliases[s.ID] = alias
	})
	return aliases
}

func pumlID(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

func pumlLabel(name string) string {
	return strings.ReplaceAll(name, "\"", "'")
}
