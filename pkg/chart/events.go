package chart

import (
	"fmt"
	"strings"
)

// AddEvent creates an event. The name must be non-empty and not used by any
// other event of the chart.
func (c *Statechart) AddEvent(name, guard string) (ID, error) {
	const op = "add event"
	if strings.TrimSpace(name) == "" {
		return None, reject(op, ErrEmptyName)
	}
	if c.eventNameTaken(name, None) {
		return None, reject(op, fmt.Errorf("%w: event %q", ErrDuplicateName, name))
	}

	e := &Event{ID: c.ids.New(), Name: name, Guard: guard}
	c.events = append(c.events, e)
	return e.ID, nil
}

// EditEvent renames an event and replaces its guard. Transitions keep
// referring to the same event.
func (c *Statechart) EditEvent(id ID, name, guard string) error {
	const op = "edit event"
	i := c.eventIndex(id)
	if i < 0 {
		return reject(op, fmt.Errorf("%w: event %s", ErrNotFound, id))
	}
	if strings.TrimSpace(name) == "" {
		return reject(op, ErrEmptyName)
	}
	if c.eventNameTaken(name, id) {
		return reject(op, fmt.Errorf("%w: event %q", ErrDuplicateName, name))
	}

	c.events[i].Name = name
	c.events[i].Guard = guard
	return nil
}

// DelEvent removes an event together with every transition it labels.
// Removing an unknown event does nothing.
func (c *Statechart) DelEvent(id ID) {
	i := c.eventIndex(id)
	if i < 0 {
		return
	}
	c.events = append(c.events[:i], c.events[i+1:]...)
	c.removeTransitions(func(t *Transition) bool { return t.Event == id })
}
