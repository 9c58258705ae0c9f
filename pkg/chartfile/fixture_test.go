package chartfile

import (
	"testing"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// buildFixture returns R { A (initial), B { C (initial) } } with event "go"
// and transitions A -> B, C -> A.
func buildFixture(t *testing.T) *chart.Statechart {
	t.Helper()
	c := chart.New("fixture", "R", chart.WithAllocator(chart.SequentialAllocator("id")))
	c.Preamble = []string{"int counter;"}

	a, err := c.AddState(c.Root(), chart.StateSpec{Kind: chart.KindNormal, Name: "A", OnEntry: "counter = 0;"})
	if err != nil {
		t.Fatalf("add A: %v", err)
	}
	b, err := c.AddState(c.Root(), chart.StateSpec{Kind: chart.KindComposite, Name: "B", Description: "outer"})
	if err != nil {
		t.Fatalf("add B: %v", err)
	}
	cc, err := c.AddState(b, chart.StateSpec{
		Kind:        chart.KindPseudo,
		Name:        "C",
		MinTimeLock: chart.IntPtr(1),
		MaxTimeLock: chart.IntPtr(5),
	})
	if err != nil {
		t.Fatalf("add C: %v", err)
	}
	if err := c.ChangeInitialState(c.Root(), a); err != nil {
		t.Fatalf("initial A: %v", err)
	}
	if err := c.ChangeInitialState(b, cc); err != nil {
		t.Fatalf("initial C: %v", err)
	}

	goID, err := c.AddEvent("go", "counter > 3")
	if err != nil {
		t.Fatalf("add event: %v", err)
	}
	if _, err := c.AddTransition(chart.Triple{Src: a, Dst: b, Event: goID}); err != nil {
		t.Fatalf("A -> B: %v", err)
	}
	if _, err := c.AddTransition(chart.Triple{Src: cc, Dst: a, Event: goID}); err != nil {
		t.Fatalf("C -> A: %v", err)
	}
	return c
}

// describe flattens a chart into comparable lines independent of IDs.
func describe(c *chart.Statechart) []string {
	var out []string
	c.Walk(func(s chart.State, depth int) {
		line := c.Path(s.ID) + " " + string(s.Kind)
		if c.IsInitial(s.ID) {
			line += " initial"
		}
		line += " entry=" + s.OnEntry + " desc=" + s.Description + " lock=" + optInt(s.MinTimeLock) + "/" + optInt(s.MaxTimeLock)
		out = append(out, line)
	})
	for _, e := range c.Events() {
		out = append(out, "event "+e.Name+" ["+e.Guard+"]")
	}
	for _, tr := range c.Transitions() {
		src, _ := c.State(tr.Src)
		dst, _ := c.State(tr.Dst)
		ev, _ := c.Event(tr.Event)
		out = append(out, "edge "+src.Name+" -> "+dst.Name+" : "+ev.Name)
	}
	return out
}

func sameLines(t *testing.T, want, got []string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("got %d lines, want %d\ngot:  %q\nwant: %q", len(got), len(want), got, want)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
