package chart

// DefaultUndoLevels is the number of snapshots a History keeps by default.
const DefaultUndoLevels = 50

// History holds undo and redo snapshots of a chart.
type History struct {
	limit int
	undo  []*Statechart
	redo  []*Statechart
}

// NewHistory returns a history keeping at most limit undo snapshots.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultUndoLevels
	}
	return &History{limit: limit}
}

// Push records a snapshot of c before it is modified and clears the redo
// stack.
func (h *History) Push(c *Statechart) {
	h.undo = append(h.undo, c.Clone())
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// Undo returns the previous snapshot, saving current for redo.
func (h *History) Undo(current *Statechart) (*Statechart, bool) {
	if len(h.undo) == 0 {
		return current, false
	}
	h.redo = append(h.redo, current.Clone())
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return prev, true
}

// Redo returns the snapshot undone last, saving current for undo.
func (h *History) Redo(current *Statechart) (*Statechart, bool) {
	if len(h.redo) == 0 {
		return current, false
	}
	h.undo = append(h.undo, current.Clone())
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return next, true
}

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
