package chart

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Statechart is the aggregate root of a chart. It owns every state, event
// and transition, and keeps the parent index in step with the children of
// each composite. All mutation goes through its methods.
type Statechart struct {
	Name     string
	Preamble []string

	ids         *Allocator
	root        ID
	states      map[ID]*State
	order       []ID
	parents     map[ID]ID
	events      []*Event
	transitions []*Transition
}

// Option configures a new chart.
type Option func(*Statechart)

// WithAllocator sets the identifier source of the chart.
func WithAllocator(a *Allocator) Option {
	return func(c *Statechart) {
		c.ids = a
	}
}

// New creates a chart whose root is an empty composite state named rootName.
func New(name, rootName string, opts ...Option) *Statechart {
	c := &Statechart{
		Name:     name,
		Preamble: make([]string, 0),
		ids:      NewAllocator(),
		states:   make(map[ID]*State),
		parents:  make(map[ID]ID),
	}
	for _, opt := range opts {
		opt(c)
	}

	root := &State{
		StateSpec: StateSpec{Kind: KindComposite, Name: rootName},
		ID:        c.ids.New(),
	}
	c.root = root.ID
	c.states[root.ID] = root
	c.order = append(c.order, root.ID)
	c.parents[root.ID] = None
	return c
}

// Root returns the identifier of the root state.
func (c *Statechart) Root() ID {
	return c.root
}

// RootState returns a copy of the root state.
func (c *Statechart) RootState() State {
	return *c.states[c.root].clone()
}

// State returns a copy of the state with the given id.
func (c *Statechart) State(id ID) (State, bool) {
	s, ok := c.states[id]
	if !ok {
		return State{}, false
	}
	return *s.clone(), true
}

// HasState reports whether id names a live state.
func (c *Statechart) HasState(id ID) bool {
	_, ok := c.states[id]
	return ok
}

// StateByName looks a state up by its exact name.
func (c *Statechart) StateByName(name string) (State, bool) {
	for _, id := range c.order {
		if s := c.states[id]; s.Name == name {
			return *s.clone(), true
		}
	}
	return State{}, false
}

// States returns copies of all states in insertion order.
func (c *Statechart) States() []State {
	result := make([]State, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, *c.states[id].clone())
	}
	return result
}

// NumStates returns the number of live states, root included.
func (c *Statechart) NumStates() int {
	return len(c.order)
}

// Parent returns the owning composite of a state. The root has no parent.
func (c *Statechart) Parent(id ID) (ID, bool) {
	p, ok := c.parents[id]
	if !ok || p == None {
		return None, false
	}
	return p, true
}

// Children returns the direct children of a composite in stored order.
func (c *Statechart) Children(id ID) []ID {
	s, ok := c.states[id]
	if !ok {
		return nil
	}
	return append([]ID(nil), s.Children...)
}

// IsInitial reports whether the state is marked as the initial child of its
// parent. The root is always the entry of the chart.
func (c *Statechart) IsInitial(id ID) bool {
	if id == c.root {
		return true
	}
	p, ok := c.Parent(id)
	if !ok {
		return false
	}
	return c.states[p].Initial == id
}

// Path returns the names from the root down to the state, joined by ".".
func (c *Statechart) Path(id ID) string {
	var names []string
	for cur := id; cur != None; cur = c.parents[cur] {
		s, ok := c.states[cur]
		if !ok {
			return ""
		}
		names = append(names, s.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ".")
}

// Walk visits the state tree in pre-order starting at the root, children in
// stored order. depth is 0 for the root.
func (c *Statechart) Walk(fn func(s State, depth int)) {
	type item struct {
		id    ID
		depth int
	}
	stack := []item{{c.root, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s, ok := c.states[top.id]
		if !ok {
			continue
		}
		fn(*s.clone(), top.depth)
		for i := len(s.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{s.Children[i], top.depth + 1})
		}
	}
}

// Event returns a copy of the event with the given id.
func (c *Statechart) Event(id ID) (Event, bool) {
	if i := c.eventIndex(id); i >= 0 {
		return *c.events[i], true
	}
	return Event{}, false
}

// EventByName looks an event up by its exact name.
func (c *Statechart) EventByName(name string) (Event, bool) {
	for _, e := range c.events {
		if e.Name == name {
			return *e, true
		}
	}
	return Event{}, false
}

// Events returns copies of all events in insertion order.
func (c *Statechart) Events() []Event {
	result := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		result = append(result, *e)
	}
	return result
}

// Transition returns a copy of the transition with the given id.
func (c *Statechart) Transition(id ID) (Transition, bool) {
	for _, t := range c.transitions {
		if t.ID == id {
			return *t, true
		}
	}
	return Transition{}, false
}

// FindTransition returns the transition matching the triple.
func (c *Statechart) FindTransition(key Triple) (Transition, bool) {
	if i := c.transitionIndex(key); i >= 0 {
		return *c.transitions[i], true
	}
	return Transition{}, false
}

// Transitions returns copies of all transitions in insertion order.
func (c *Statechart) Transitions() []Transition {
	result := make([]Transition, 0, len(c.transitions))
	for _, t := range c.transitions {
		result = append(result, *t)
	}
	return result
}

// TransitionsFrom returns the transitions leaving a state, in insertion order.
func (c *Statechart) TransitionsFrom(id ID) []Transition {
	var result []Transition
	for _, t := range c.transitions {
		if t.Src == id {
			result = append(result, *t)
		}
	}
	return result
}

// Clone returns a deep copy of the chart. The copy shares the identifier
// allocator so entities created on either side never collide.
func (c *Statechart) Clone() *Statechart {
	cp := &Statechart{
		Name:        c.Name,
		Preamble:    append([]string{}, c.Preamble...),
		ids:         c.ids,
		root:        c.root,
		states:      make(map[ID]*State, len(c.states)),
		order:       append([]ID(nil), c.order...),
		parents:     make(map[ID]ID, len(c.parents)),
		events:      make([]*Event, 0, len(c.events)),
		transitions: make([]*Transition, 0, len(c.transitions)),
	}
	for id, s := range c.states {
		cp.states[id] = s.clone()
	}
	for id, p := range c.parents {
		cp.parents[id] = p
	}
	for _, e := range c.events {
		ev := *e
		cp.events = append(cp.events, &ev)
	}
	for _, t := range c.transitions {
		tr := *t
		cp.transitions = append(cp.transitions, &tr)
	}
	return cp
}

// Equal reports whether two charts hold the same entities under the same
// identifiers, in the same order.
func (c *Statechart) Equal(o *Statechart) bool {
	if c.Name != o.Name || c.root != o.root ||
		!slices.Equal(c.Preamble, o.Preamble) ||
		!slices.Equal(c.order, o.order) ||
		!maps.Equal(c.parents, o.parents) {
		return false
	}
	if !slices.EqualFunc(c.events, o.events, func(a, b *Event) bool { return *a == *b }) {
		return false
	}
	if !slices.EqualFunc(c.transitions, o.transitions, func(a, b *Transition) bool { return *a == *b }) {
		return false
	}
	if len(c.states) != len(o.states) {
		return false
	}
	for id, s := range c.states {
		other, ok := o.states[id]
		if !ok || !s.equal(other) {
			return false
		}
	}
	return true
}

// String returns a short summary of the chart.
func (c *Statechart) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Statechart: %s\n", c.Name))
	sb.WriteString(fmt.Sprintf("  Root: %s\n", c.states[c.root].Name))
	sb.WriteString(fmt.Sprintf("  States: %d\n", len(c.order)))
	sb.WriteString(fmt.Sprintf("  Events: %d\n", len(c.events)))
	sb.WriteString(fmt.Sprintf("  Transitions: %d\n", len(c.transitions)))
	return sb.String()
}

func (c *Statechart) eventIndex(id ID) int {
	for i, e := range c.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c *Statechart) transitionIndex(key Triple) int {
	for i, t := range c.transitions {
		if t.Triple() == key {
			return i
		}
	}
	return -1
}

func (c *Statechart) stateNameTaken(name string, except ID) bool {
	for id, s := range c.states {
		if id != except && s.Name == name {
			return true
		}
	}
	return false
}

func (c *Statechart) eventNameTaken(name string, except ID) bool {
	for _, e := range c.events {
		if e.ID != except && e.Name == name {
			return true
		}
	}
	return false
}
