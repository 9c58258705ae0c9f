package chart

import "fmt"

// Loader assembles a chart from decoded data. It keeps the tree and the
// parent index consistent but skips the name and reference checks of the
// editing operations, so imported transitions may dangle until a
// LegalityCheck reports them.
type Loader struct {
	c *Statechart
}

// NewLoader starts a chart whose root has the given attributes. The root is
// always composite.
func NewLoader(name string, preamble []string, root StateSpec, opts ...Option) *Loader {
	c := New(name, root.Name, opts...)
	if preamble != nil {
		c.Preamble = append([]string{}, preamble...)
	}
	root.Kind = KindComposite
	r := c.states[c.root]
	r.StateSpec = root
	r.MinTimeLock = copyInt(root.MinTimeLock)
	r.MaxTimeLock = copyInt(root.MaxTimeLock)
	return &Loader{c: c}
}

// Root returns the identifier of the root state.
func (l *Loader) Root() ID {
	return l.c.root
}

// AddState appends a state under parent. The parent must be composite and
// the attributes must pass StateSpec.Validate; name uniqueness is left to
// the caller.
func (l *Loader) AddState(parent ID, spec StateSpec) (ID, error) {
	if err := spec.Validate(); err != nil {
		return None, fmt.Errorf("state %q: %w", spec.Name, err)
	}
	p, ok := l.c.states[parent]
	if !ok {
		return None, fmt.Errorf("%w: parent state %s", ErrNotFound, parent)
	}
	if !p.IsComposite() {
		return None, fmt.Errorf("%w: %q cannot own %q", ErrNotComposite, p.Name, spec.Name)
	}
	s := &State{StateSpec: spec, ID: l.c.ids.New()}
	s.MinTimeLock = copyInt(spec.MinTimeLock)
	s.MaxTimeLock = copyInt(spec.MaxTimeLock)
	l.c.attach(parent, s)
	return s.ID, nil
}

// SetInitial marks child as the initial state of composite.
func (l *Loader) SetInitial(composite, child ID) error {
	return l.c.ChangeInitialState(composite, child)
}

// AddEvent appends an event without checking its name.
func (l *Loader) AddEvent(name, guard string) ID {
	e := &Event{ID: l.c.ids.New(), Name: name, Guard: guard}
	l.c.events = append(l.c.events, e)
	return e.ID
}

// AddTransition appends a transition without resolving its references.
func (l *Loader) AddTransition(key Triple) ID {
	t := &Transition{ID: l.c.ids.New(), Src: key.Src, Dst: key.Dst, Event: key.Event}
	l.c.transitions = append(l.c.transitions, t)
	return t.ID
}

// Unbound returns a fresh identifier that names nothing in the chart. It
// stands in for references the decoded data could not resolve.
func (l *Loader) Unbound() ID {
	return l.c.ids.New()
}

// Chart returns the assembled chart.
func (l *Loader) Chart() *Statechart {
	return l.c
}
