package chart

import "fmt"

// IntegrityWarning describes a transition whose source, target or event does
// not resolve. It is informational; the transition is left in place.
type IntegrityWarning struct {
	Transition Transition
	Summary    string
}

func (w IntegrityWarning) Error() string {
	return "illegal transition: " + w.Summary
}

// LegalityCheck returns every transition with an unresolved reference, in
// collection order. Charts built only through the editing operations never
// produce warnings; imported charts may.
func (c *Statechart) LegalityCheck() []IntegrityWarning {
	var warnings []IntegrityWarning
	for _, t := range c.transitions {
		src, srcOK := c.states[t.Src]
		dst, dstOK := c.states[t.Dst]
		ev, evOK := c.Event(t.Event)
		if srcOK && dstOK && evOK {
			continue
		}

		var srcName, dstName string
		if srcOK {
			srcName = src.Name
		}
		if dstOK {
			dstName = dst.Name
		}
		warnings = append(warnings, IntegrityWarning{
			Transition: *t,
			Summary:    fmt.Sprintf("%s --> %s, event:%s", srcName, dstName, ev.Name),
		})
	}
	return warnings
}
