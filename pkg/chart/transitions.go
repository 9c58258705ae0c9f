package chart

import "fmt"

// AddTransition creates a transition. Both states and the event must exist
// and no transition with the same triple may already exist.
func (c *Statechart) AddTransition(key Triple) (ID, error) {
	const op = "add transition"
	if err := c.resolveTriple(key); err != nil {
		return None, reject(op, err)
	}
	if c.transitionIndex(key) >= 0 {
		return None, reject(op, ErrDuplicateTransition)
	}

	t := &Transition{ID: c.ids.New(), Src: key.Src, Dst: key.Dst, Event: key.Event}
	c.transitions = append(c.transitions, t)
	return t.ID, nil
}

// EditTransition retargets the transition matching old so that it matches
// next. The transition keeps its identifier and position.
func (c *Statechart) EditTransition(old, next Triple) error {
	const op = "edit transition"
	i := c.transitionIndex(old)
	if i < 0 {
		return reject(op, fmt.Errorf("%w: transition", ErrNotFound))
	}
	if next == old {
		return nil
	}
	if err := c.resolveTriple(next); err != nil {
		return reject(op, err)
	}
	if c.transitionIndex(next) >= 0 {
		return reject(op, ErrDuplicateTransition)
	}

	t := c.transitions[i]
	t.Src, t.Dst, t.Event = next.Src, next.Dst, next.Event
	return nil
}

// DelTransition removes the transition matching the triple, if any.
func (c *Statechart) DelTransition(key Triple) {
	if i := c.transitionIndex(key); i >= 0 {
		c.transitions = append(c.transitions[:i], c.transitions[i+1:]...)
	}
}

// DropTransition removes a transition by identifier. It is meant for
// cleaning up after a legality check, where triples may not resolve.
func (c *Statechart) DropTransition(id ID) {
	c.removeTransitions(func(t *Transition) bool { return t.ID == id })
}

func (c *Statechart) resolveTriple(key Triple) error {
	if _, ok := c.states[key.Src]; !ok {
		return fmt.Errorf("%w: source state %s", ErrNotFound, key.Src)
	}
	if _, ok := c.states[key.Dst]; !ok {
		return fmt.Errorf("%w: target state %s", ErrNotFound, key.Dst)
	}
	if c.eventIndex(key.Event) < 0 {
		return fmt.Errorf("%w: event %s", ErrNotFound, key.Event)
	}
	return nil
}

func (c *Statechart) removeTransitions(match func(*Transition) bool) {
	kept := c.transitions[:0]
	for _, t := range c.transitions {
		if !match(t) {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(c.transitions); i++ {
		c.transitions[i] = nil
	}
	c.transitions = kept
}
