package chart

import (
	"fmt"
	"strings"
)

// AddState creates a state as the last child of parent. An empty parent
// places the state at the top level, directly under the root.
func (c *Statechart) AddState(parent ID, spec StateSpec) (ID, error) {
	const op = "add state"
	if parent == None {
		parent = c.root
	}
	p, ok := c.states[parent]
	if !ok {
		return None, reject(op, fmt.Errorf("%w: parent state %s", ErrNotFound, parent))
	}
	if !p.IsComposite() {
		return None, reject(op, fmt.Errorf("%w: parent %q", ErrNotComposite, p.Name))
	}
	if err := c.checkSpec(spec, None); err != nil {
		return None, reject(op, err)
	}

	s := &State{StateSpec: spec, ID: c.ids.New()}
	s.MinTimeLock = copyInt(spec.MinTimeLock)
	s.MaxTimeLock = copyInt(spec.MaxTimeLock)
	c.attach(parent, s)
	return s.ID, nil
}

// EditState replaces the attributes and kind of a state in place. The state
// keeps its identifier and tree position; a composite that stays composite
// keeps its children and initial child.
func (c *Statechart) EditState(id ID, spec StateSpec) error {
	const op = "edit state"
	old, ok := c.states[id]
	if !ok {
		return reject(op, fmt.Errorf("%w: state %s", ErrNotFound, id))
	}
	if err := c.checkSpec(spec, id); err != nil {
		return reject(op, err)
	}
	if id == c.root && spec.Kind != KindComposite {
		return reject(op, fmt.Errorf("%w: root must be composite", ErrRootState))
	}
	if len(old.Children) > 0 && spec.Kind != KindComposite {
		return reject(op, fmt.Errorf("%w: %q", ErrHasChildren, old.Name))
	}

	next := &State{StateSpec: spec, ID: id}
	next.MinTimeLock = copyInt(spec.MinTimeLock)
	next.MaxTimeLock = copyInt(spec.MaxTimeLock)
	if spec.Kind == KindComposite {
		next.Children = old.Children
		next.Initial = old.Initial
	}
	c.states[id] = next
	return nil
}

// DelState removes a state, all of its descendants and every transition
// touching any of them. The root cannot be deleted; unknown ids are ignored.
func (c *Statechart) DelState(id ID) error {
	if id == c.root {
		return reject("delete state", ErrRootState)
	}
	if _, ok := c.states[id]; !ok {
		return nil
	}

	if p, ok := c.states[c.parents[id]]; ok {
		p.Children = removeID(p.Children, id)
		if p.Initial == id {
			p.Initial = None
		}
	}

	removed := make(map[ID]struct{})
	work := []ID{id}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		s, ok := c.states[cur]
		if !ok {
			continue
		}
		removed[cur] = struct{}{}
		delete(c.parents, cur)
		delete(c.states, cur)
		work = append(work, s.Children...)
	}

	c.removeTransitions(func(t *Transition) bool {
		_, src := removed[t.Src]
		_, dst := removed[t.Dst]
		return src || dst
	})
	kept := c.order[:0]
	for _, sid := range c.order {
		if _, gone := removed[sid]; !gone {
			kept = append(kept, sid)
		}
	}
	c.order = kept
	return nil
}

// ChangeInitialState marks child as the initial state of composite. child
// must be a direct child of composite.
func (c *Statechart) ChangeInitialState(composite, child ID) error {
	const op = "change initial state"
	p, ok := c.states[composite]
	if !ok {
		return reject(op, fmt.Errorf("%w: state %s", ErrNotFound, composite))
	}
	if !p.IsComposite() {
		return reject(op, fmt.Errorf("%w: %q", ErrNotComposite, p.Name))
	}
	if _, ok := c.states[child]; !ok || c.parents[child] != composite {
		return reject(op, fmt.Errorf("%w of %q", ErrNotChild, p.Name))
	}
	p.Initial = child
	return nil
}

// SetInitial marks a state as the initial child of its own parent.
func (c *Statechart) SetInitial(id ID) error {
	if id == c.root {
		return reject("set initial state", ErrRootState)
	}
	if _, ok := c.states[id]; !ok {
		return reject("set initial state", fmt.Errorf("%w: state %s", ErrNotFound, id))
	}
	return c.ChangeInitialState(c.parents[id], id)
}

func (c *Statechart) attach(parent ID, s *State) {
	c.states[s.ID] = s
	c.order = append(c.order, s.ID)
	c.parents[s.ID] = parent
	if p, ok := c.states[parent]; ok {
		p.Children = append(p.Children, s.ID)
	}
}

// Validate checks the attributes that do not depend on the rest of the
// chart: a known kind, a non-empty name and consistent time locks.
func (spec StateSpec) Validate() error {
	if _, err := ParseKind(string(spec.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(spec.Name) == "" {
		return ErrEmptyName
	}
	return checkTimeLocks(spec.MinTimeLock, spec.MaxTimeLock)
}

// checkSpec validates the attributes of a state named for id (None when the
// state is new).
func (c *Statechart) checkSpec(spec StateSpec, id ID) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if c.stateNameTaken(spec.Name, id) {
		return fmt.Errorf("%w: state %q", ErrDuplicateName, spec.Name)
	}
	return nil
}

func checkTimeLocks(min, max *int) error {
	if min != nil && *min < 0 {
		return fmt.Errorf("%w: min %d is negative", ErrTimeLock, *min)
	}
	if max != nil && *max < 0 {
		return fmt.Errorf("%w: max %d is negative", ErrTimeLock, *max)
	}
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("%w: min %d exceeds max %d", ErrTimeLock, *min, *max)
	}
	return nil
}

func removeID(ids []ID, id ID) []ID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
