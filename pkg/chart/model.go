// Package chart provides the statechart model and the editing operations
// that keep it consistent.
package chart

import (
	"fmt"
	"slices"
)

// Kind is the variant of a state.
type Kind string

const (
	KindNormal    Kind = "normal"
	KindPseudo    Kind = "pseudo"
	KindComposite Kind = "composite"
)

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindNormal, KindPseudo, KindComposite:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// StateSpec holds the editable attributes of a state.
type StateSpec struct {
	Kind        Kind
	Name        string
	Description string
	MinTimeLock *int
	MaxTimeLock *int
	OnEntry     string
	OnDuring    string
	OnExit      string
}

// State is a node of the state tree. Children and Initial are only
// meaningful for composites.
type State struct {
	StateSpec
	ID       ID
	Children []ID
	Initial  ID
}

// IsComposite reports whether the state may own children.
func (s State) IsComposite() bool {
	return s.Kind == KindComposite
}

// Spec returns the editable attributes of the state.
func (s State) Spec() StateSpec {
	return s.StateSpec
}

func (s *State) clone() *State {
	cp := *s
	cp.MinTimeLock = copyInt(s.MinTimeLock)
	cp.MaxTimeLock = copyInt(s.MaxTimeLock)
	if s.Children != nil {
		cp.Children = append([]ID(nil), s.Children...)
	}
	return &cp
}

func (s *State) equal(o *State) bool {
	return s.ID == o.ID && s.Kind == o.Kind && s.Name == o.Name &&
		s.Description == o.Description &&
		intEqual(s.MinTimeLock, o.MinTimeLock) && intEqual(s.MaxTimeLock, o.MaxTimeLock) &&
		s.OnEntry == o.OnEntry && s.OnDuring == o.OnDuring && s.OnExit == o.OnExit &&
		slices.Equal(s.Children, o.Children) && s.Initial == o.Initial
}

// Event is a named trigger with an optional guard expression.
type Event struct {
	ID    ID
	Name  string
	Guard string
}

// Triple is the (source, destination, event) key of a transition.
type Triple struct {
	Src   ID
	Dst   ID
	Event ID
}

// Transition is a directed, event-labelled edge between two states.
type Transition struct {
	ID    ID
	Src   ID
	Dst   ID
	Event ID
}

// Triple returns the duplicate-detection key of the transition.
func (t Transition) Triple() Triple {
	return Triple{Src: t.Src, Dst: t.Dst, Event: t.Event}
}

// IntPtr returns a pointer to v, for filling time locks.
func IntPtr(v int) *int {
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
