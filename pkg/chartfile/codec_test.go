package chartfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

func TestJSONRoundTrip(t *testing.T) {
	c := buildFixture(t)

	for _, pretty := range []bool{false, true} {
		data, err := ToJSON(c, pretty)
		if err != nil {
			t.Fatalf("ToJSON: %v", err)
		}
		back, err := ParseJSON(data)
		if err != nil {
			t.Fatalf("ParseJSON: %v", err)
		}
		if back.Name != "fixture" {
			t.Errorf("name = %q", back.Name)
		}
		if len(back.Preamble) != 1 || back.Preamble[0] != "int counter;" {
			t.Errorf("preamble = %q", back.Preamble)
		}
		sameLines(t, describe(c), describe(back))
		if w := back.LegalityCheck(); len(w) != 0 {
			t.Errorf("unexpected warnings: %v", w)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := buildFixture(t)

	data, err := ToYAML(c)
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	if !strings.Contains(string(data), "root state:") {
		t.Errorf("missing root state key:\n%s", data)
	}
	back, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	sameLines(t, describe(c), describe(back))
}

func TestJSONSchemaKeys(t *testing.T) {
	data, err := ToJSON(buildFixture(t), false)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, key := range []string{`"root state"`, `"min time lock":1`, `"on entry"`, `"initial":"A"`, `"target":"B"`, `"guard":"counter \u003e 3"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("output lacks %s:\n%s", key, data)
		}
	}
}

func TestParseDanglingEventYieldsOneWarning(t *testing.T) {
	doc := `{
  "name": "dangling",
  "root state": {
    "name": "R",
    "initial": "A",
    "states": [
      {"name": "A", "transitions": [{"event": "go", "target": "B"}]},
      {"name": "B", "transitions": [{"event": "missing", "target": "A"}]}
    ]
  },
  "events": [{"name": "go"}]
}`
	c, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got := len(c.Transitions()); got != 2 {
		t.Fatalf("transitions = %d, want 2", got)
	}
	warnings := c.LegalityCheck()
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if warnings[0].Summary != "B --> A, event:" {
		t.Errorf("summary = %q", warnings[0].Summary)
	}
}

func TestParseUnknownTargetIsDangling(t *testing.T) {
	doc := `{"name":"x","root state":{"name":"R","states":[{"name":"A","transitions":[{"event":"go","target":"nowhere"}]}]},"events":[{"name":"go"}]}`
	c, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	warnings := c.LegalityCheck()
	if len(warnings) != 1 || warnings[0].Summary != "A --> , event:go" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseKindInference(t *testing.T) {
	doc := `{"name":"x","root state":{"name":"R","states":[{"name":"P","states":[{"name":"Q"}]},{"name":"L"}]}}`
	c, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	p, _ := c.StateByName("P")
	l, _ := c.StateByName("L")
	if !p.IsComposite() {
		t.Errorf("P kind = %s, want composite", p.Kind)
	}
	if l.IsComposite() {
		t.Errorf("L kind = %s, want normal", l.Kind)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"duplicate state", `{"name":"x","root state":{"name":"R","states":[{"name":"A"},{"name":"A"}]}}`},
		{"duplicate event", `{"name":"x","root state":{"name":"R"},"events":[{"name":"e"},{"name":"e"}]}`},
		{"unknown initial", `{"name":"x","root state":{"name":"R","initial":"Z","states":[{"name":"A"}]}}`},
		{"initial not a child", `{"name":"x","root state":{"name":"R","initial":"C","states":[{"name":"B","states":[{"name":"C"}]}]}}`},
		{"children under leaf", `{"name":"x","root state":{"name":"R","states":[{"name":"A","type":"normal","states":[{"name":"B"}]}]}}`},
		{"leaf root", `{"name":"x","root state":{"name":"R","type":"pseudo"}}`},
		{"unknown type", `{"name":"x","root state":{"name":"R","states":[{"name":"A","type":"history"}]}}`},
		{"nameless state", `{"name":"x","root state":{"name":"R","states":[{"type":"normal"}]}}`},
		{"min lock above max", `{"name":"x","root state":{"name":"R","states":[{"name":"A","min time lock":9,"max time lock":1}]}}`},
		{"negative lock", `{"name":"x","root state":{"name":"R","states":[{"name":"A","max time lock":-1}]}}`},
		{"bad root lock", `{"name":"x","root state":{"name":"R","min time lock":-3}}`},
		{"nameless event", `{"name":"x","root state":{"name":"R"},"events":[{"name":""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.doc))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := ParseJSON([]byte(`{"name":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if _, err := ParseYAML([]byte("name: [unclosed")); err == nil {
		t.Error("expected error for broken YAML")
	}
}

func TestExportRequiresName(t *testing.T) {
	c := buildFixture(t)
	c.Name = ""
	if _, err := ToJSON(c, true); !errors.Is(err, ErrUnnamed) {
		t.Errorf("ToJSON err = %v, want ErrUnnamed", err)
	}
	if _, err := ToYAML(c); !errors.Is(err, ErrUnnamed) {
		t.Errorf("ToYAML err = %v, want ErrUnnamed", err)
	}
}

func TestRoundTripGroupsTransitionsBySource(t *testing.T) {
	c := chart.New("order", "R")
	a, _ := c.AddState(chart.None, chart.StateSpec{Kind: chart.KindNormal, Name: "A"})
	b, _ := c.AddState(chart.None, chart.StateSpec{Kind: chart.KindNormal, Name: "B"})
	ev, _ := c.AddEvent("go", "")
	// Added B -> A first; the document stores transitions under their
	// source, so they come back in tree order of the source.
	for _, tr := range []chart.Triple{{Src: b, Dst: a, Event: ev}, {Src: a, Dst: b, Event: ev}} {
		if _, err := c.AddTransition(tr); err != nil {
			t.Fatal(err)
		}
	}

	data, err := ToJSON(c, false)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, tr := range back.Transitions() {
		src, _ := back.State(tr.Src)
		dst, _ := back.State(tr.Dst)
		got = append(got, src.Name+"->"+dst.Name)
	}
	sameLines(t, []string{"A->B", "B->A"}, got)

	again, err := ParseJSON(mustJSON(t, back))
	if err != nil {
		t.Fatal(err)
	}
	if GeneratePlantUML(again) != GeneratePlantUML(back) {
		t.Error("a reloaded chart should export stably")
	}
}

func mustJSON(t *testing.T, c *chart.Statechart) []byte {
	t.Helper()
	data, err := ToJSON(c, false)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
