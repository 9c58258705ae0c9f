// Package chartfile reads and writes statecharts and exports them as
// diagrams and reports.
package chartfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// ErrMalformed is wrapped by every decoding error caused by the document
// content rather than its syntax.
var ErrMalformed = errors.New("malformed chart document")

// ErrUnnamed is returned when exporting a chart without a name.
var ErrUnnamed = errors.New("chart name must not be empty")

// document is the on-disk shape shared by the JSON and YAML codecs.
type document struct {
	Name      string     `json:"name" yaml:"name"`
	Preamble  []string   `json:"preamble,omitempty" yaml:"preamble,omitempty"`
	RootState stateDoc   `json:"root state" yaml:"root state"`
	Events    []eventDoc `json:"events,omitempty" yaml:"events,omitempty"`
}

type stateDoc struct {
	Name        string          `json:"name" yaml:"name"`
	Type        string          `json:"type,omitempty" yaml:"type,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	MinTimeLock *int            `json:"min time lock,omitempty" yaml:"min time lock,omitempty"`
	MaxTimeLock *int            `json:"max time lock,omitempty" yaml:"max time lock,omitempty"`
	OnEntry     string          `json:"on entry,omitempty" yaml:"on entry,omitempty"`
	OnDuring    string          `json:"on during,omitempty" yaml:"on during,omitempty"`
	OnExit      string          `json:"on exit,omitempty" yaml:"on exit,omitempty"`
	Initial     string          `json:"initial,omitempty" yaml:"initial,omitempty"`
	States      []stateDoc      `json:"states,omitempty" yaml:"states,omitempty"`
	Transitions []transitionDoc `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

type transitionDoc struct {
	Event  string `json:"event" yaml:"event"`
	Target string `json:"target" yaml:"target"`
}

type eventDoc struct {
	Name  string `json:"name" yaml:"name"`
	Guard string `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// toDocument converts a chart into its document form. Transitions are
// stored under their source state; a transition whose source no longer
// exists cannot be placed and is left out.
func toDocument(c *chart.Statechart) (*document, error) {
	if c.Name == "" {
		return nil, ErrUnnamed
	}

	doc := &document{
		Name:     c.Name,
		Preamble: c.Preamble,
	}
	doc.RootState = stateToDoc(c, c.RootState())
	for _, e := range c.Events() {
		doc.Events = append(doc.Events, eventDoc{Name: e.Name, Guard: e.Guard})
	}
	return doc, nil
}

func stateToDoc(c *chart.Statechart, s chart.State) stateDoc {
	sd := stateDoc{
		Name:        s.Name,
		Type:        string(s.Kind),
		Description: s.Description,
		MinTimeLock: s.MinTimeLock,
		MaxTimeLock: s.MaxTimeLock,
		OnEntry:     s.OnEntry,
		OnDuring:    s.OnDuring,
		OnExit:      s.OnExit,
	}
	if s.IsComposite() {
		if first, ok := c.State(s.Initial); ok {
			sd.Initial = first.Name
		}
		for _, id := range s.Children {
			if child, ok := c.State(id); ok {
				sd.States = append(sd.States, stateToDoc(c, child))
			}
		}
	}
	for _, t := range c.TransitionsFrom(s.ID) {
		td := transitionDoc{}
		if dst, ok := c.State(t.Dst); ok {
			td.Target = dst.Name
		}
		if ev, ok := c.Event(t.Event); ok {
			td.Event = ev.Name
		}
		sd.Transitions = append(sd.Transitions, td)
	}
	return sd
}

type pendingTransition struct {
	src    chart.ID
	event  string
	target string
}

type decoder struct {
	loader  *chart.Loader
	states  map[string]chart.ID
	events  map[string]chart.ID
	pending []pendingTransition
	initial []pendingInitial
}

type pendingInitial struct {
	composite chart.ID
	child     string
}

// fromDocument rebuilds a chart. Transition targets and events that do not
// resolve become dangling references for LegalityCheck to report.
func fromDocument(doc *document, opts ...chart.Option) (*chart.Statechart, error) {
	root := doc.RootState
	if root.Type != "" && root.Type != string(chart.KindComposite) {
		return nil, fmt.Errorf("%w: root state %q must be composite, got %q", ErrMalformed, root.Name, root.Type)
	}
	spec, err := docToSpec(root)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		loader: chart.NewLoader(doc.Name, doc.Preamble, spec, opts...),
		states: make(map[string]chart.ID),
		events: make(map[string]chart.ID),
	}

	for _, ed := range doc.Events {
		if strings.TrimSpace(ed.Name) == "" {
			return nil, fmt.Errorf("%w: event without a name", ErrMalformed)
		}
		if _, dup := d.events[ed.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate event %q", ErrMalformed, ed.Name)
		}
		d.events[ed.Name] = d.loader.AddEvent(ed.Name, ed.Guard)
	}

	d.states[root.Name] = d.loader.Root()
	if err := d.addBody(d.loader.Root(), root); err != nil {
		return nil, err
	}

	c := d.loader.Chart()
	for _, pi := range d.initial {
		child, ok := d.states[pi.child]
		if !ok {
			return nil, fmt.Errorf("%w: initial state %q not found", ErrMalformed, pi.child)
		}
		if err := d.loader.SetInitial(pi.composite, child); err != nil {
			return nil, fmt.Errorf("%w: initial state %q: %v", ErrMalformed, pi.child, err)
		}
	}

	for _, p := range d.pending {
		dst, ok := d.states[p.target]
		if !ok {
			dst = d.loader.Unbound()
		}
		ev, ok := d.events[p.event]
		if !ok {
			ev = d.loader.Unbound()
		}
		d.loader.AddTransition(chart.Triple{Src: p.src, Dst: dst, Event: ev})
	}
	return c, nil
}

// addBody records the transitions and initial child of an already created
// state and creates its children.
func (d *decoder) addBody(id chart.ID, sd stateDoc) error {
	for _, td := range sd.Transitions {
		d.pending = append(d.pending, pendingTransition{src: id, event: td.Event, target: td.Target})
	}
	if sd.Initial != "" {
		d.initial = append(d.initial, pendingInitial{composite: id, child: sd.Initial})
	}
	for _, child := range sd.States {
		spec, err := docToSpec(child)
		if err != nil {
			return err
		}
		if _, dup := d.states[child.Name]; dup {
			return fmt.Errorf("%w: duplicate state %q", ErrMalformed, child.Name)
		}
		cid, err := d.loader.AddState(id, spec)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		d.states[child.Name] = cid
		if err := d.addBody(cid, child); err != nil {
			return err
		}
	}
	return nil
}

func docToSpec(sd stateDoc) (chart.StateSpec, error) {
	if sd.Name == "" {
		return chart.StateSpec{}, fmt.Errorf("%w: state without a name", ErrMalformed)
	}
	kind := chart.KindNormal
	switch {
	case sd.Type != "":
		k, err := chart.ParseKind(sd.Type)
		if err != nil {
			return chart.StateSpec{}, fmt.Errorf("%w: state %q: %v", ErrMalformed, sd.Name, err)
		}
		kind = k
	case len(sd.States) > 0:
		kind = chart.KindComposite
	}
	if kind != chart.KindComposite && (len(sd.States) > 0 || sd.Initial != "") {
		return chart.StateSpec{}, fmt.Errorf("%w: %s state %q cannot have children", ErrMalformed, kind, sd.Name)
	}
	spec := chart.StateSpec{
		Kind:        kind,
		Name:        sd.Name,
		Description: sd.Description,
		MinTimeLock: sd.MinTimeLock,
		MaxTimeLock: sd.MaxTimeLock,
		OnEntry:     sd.OnEntry,
		OnDuring:    sd.OnDuring,
		OnExit:      sd.OnExit,
	}
	if err := spec.Validate(); err != nil {
		return chart.StateSpec{}, fmt.Errorf("%w: state %q: %v", ErrMalformed, sd.Name, err)
	}
	return spec, nil
}
