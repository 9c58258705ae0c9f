package chartfile

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// WriteStatesCSV writes one row per state in tree order.
func WriteStatesCSV(w io.Writer, c *chart.Statechart) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"path", "name", "type", "description", "min time lock", "max time lock", "on entry", "on during", "on exit"}); err != nil {
		return err
	}
	var werr error
	c.Walk(func(s chart.State, depth int) {
		if werr != nil {
			return
		}
		werr = cw.Write([]string{
			c.Path(s.ID),
			s.Name,
			string(s.Kind),
			s.Description,
			optInt(s.MinTimeLock),
			optInt(s.MaxTimeLock),
			s.OnEntry,
			s.OnDuring,
			s.OnExit,
		})
	})
	if werr != nil {
		return werr
	}
	cw.Flush()
	return cw.Error()
}

// WriteEventsCSV writes one row per event.
func WriteEventsCSV(w io.Writer, c *chart.Statechart) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "guard"}); err != nil {
		return err
	}
	for _, e := range c.Events() {
		if err := cw.Write([]string{e.Name, e.Guard}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransitionsCSV writes one row per transition. Unresolved references
// are left blank.
func WriteTransitionsCSV(w io.Writer, c *chart.Statechart) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target", "event"}); err != nil {
		return err
	}
	for _, t := range c.Transitions() {
		row := make([]string, 3)
		if s, ok := c.State(t.Src); ok {
			row[0] = c.Path(s.ID)
		}
		if s, ok := c.State(t.Dst); ok {
			row[1] = c.Path(s.ID)
		}
		if e, ok := c.Event(t.Event); ok {
			row[2] = e.Name
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
