package chart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normal(name string) StateSpec {
	return StateSpec{Kind: KindNormal, Name: name}
}

func composite(name string) StateSpec {
	return StateSpec{Kind: KindComposite, Name: name}
}

// newRAB builds root R with normal children A and B.
func newRAB(t *testing.T) (*Statechart, ID, ID) {
	t.Helper()
	c := New("test", "R", WithAllocator(SequentialAllocator("id")))
	a, err := c.AddState(c.Root(), normal("A"))
	require.NoError(t, err)
	b, err := c.AddState(c.Root(), normal("B"))
	require.NoError(t, err)
	return c, a, b
}

func TestNewChartHasCompositeRoot(t *testing.T) {
	c := New("chart", "R")
	root := c.RootState()
	assert.Equal(t, KindComposite, root.Kind)
	assert.Equal(t, "R", root.Name)
	assert.Equal(t, 1, c.NumStates())
	_, hasParent := c.Parent(c.Root())
	assert.False(t, hasParent)
	assert.True(t, c.IsInitial(c.Root()))
}

func TestEventAndTransitionDuplicates(t *testing.T) {
	c, a, b := newRAB(t)

	goID, err := c.AddEvent("go", "count>0")
	require.NoError(t, err)

	_, err = c.AddEvent("go", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Len(t, c.Events(), 1)

	_, err = c.AddTransition(Triple{a, b, goID})
	require.NoError(t, err)

	_, err = c.AddTransition(Triple{a, b, goID})
	assert.ErrorIs(t, err, ErrDuplicateTransition)
	assert.Len(t, c.Transitions(), 1)
}

func TestAddEventRejectsEmptyName(t *testing.T) {
	c := New("chart", "R")
	_, err := c.AddEvent("", "g")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = c.AddEvent("   ", "g")
	assert.ErrorIs(t, err, ErrEmptyName)
	assert.Empty(t, c.Events())
}

func TestEventNamesAreCaseSensitive(t *testing.T) {
	c := New("chart", "R")
	_, err := c.AddEvent("go", "")
	require.NoError(t, err)
	_, err = c.AddEvent("Go", "")
	assert.NoError(t, err)
}

func TestEditEvent(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")
	stopID, _ := c.AddEvent("stop", "")
	trID, err := c.AddTransition(Triple{a, b, goID})
	require.NoError(t, err)

	t.Run("rename to own name", func(t *testing.T) {
		assert.NoError(t, c.EditEvent(goID, "go", "n>1"))
		ev, _ := c.Event(goID)
		assert.Equal(t, "n>1", ev.Guard)
	})

	t.Run("collision with another event", func(t *testing.T) {
		err := c.EditEvent(goID, "stop", "")
		assert.ErrorIs(t, err, ErrDuplicateName)
		ev, _ := c.Event(goID)
		assert.Equal(t, "go", ev.Name)
	})

	t.Run("unknown event", func(t *testing.T) {
		err := c.EditEvent("nope", "x", "")
		assert.ErrorIs(t, err, ErrRejected)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rename keeps transitions", func(t *testing.T) {
		require.NoError(t, c.EditEvent(goID, "start", ""))
		tr, ok := c.Transition(trID)
		require.True(t, ok)
		assert.Equal(t, goID, tr.Event)
		ev, ok := c.EventByName("start")
		require.True(t, ok)
		assert.Equal(t, goID, ev.ID)
	})

	_ = stopID
}

func TestDelEventCascades(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")
	backID, _ := c.AddEvent("back", "")
	_, err := c.AddTransition(Triple{a, b, goID})
	require.NoError(t, err)
	_, err = c.AddTransition(Triple{b, a, backID})
	require.NoError(t, err)
	_, err = c.AddTransition(Triple{b, b, goID})
	require.NoError(t, err)

	c.DelEvent(goID)
	assert.Len(t, c.Events(), 1)
	require.Len(t, c.Transitions(), 1)
	assert.Equal(t, backID, c.Transitions()[0].Event)

	// second call is a no-op
	c.DelEvent(goID)
	assert.Len(t, c.Events(), 1)
	assert.Len(t, c.Transitions(), 1)
}

func TestAddTransitionRejectsUnresolved(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")

	tests := []struct {
		name string
		key  Triple
	}{
		{"missing source", Triple{"x", b, goID}},
		{"missing target", Triple{a, "x", goID}},
		{"missing event", Triple{a, b, "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AddTransition(tt.key)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, err, ErrRejected)
		})
	}
	assert.Empty(t, c.Transitions())
}

func TestEditTransition(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")
	stopID, _ := c.AddEvent("stop", "")
	id1, _ := c.AddTransition(Triple{a, b, goID})
	_, err := c.AddTransition(Triple{b, a, goID})
	require.NoError(t, err)

	err = c.EditTransition(Triple{a, b, stopID}, Triple{a, a, stopID})
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.EditTransition(Triple{a, b, goID}, Triple{b, a, goID})
	assert.ErrorIs(t, err, ErrDuplicateTransition)

	assert.NoError(t, c.EditTransition(Triple{a, b, goID}, Triple{a, b, goID}))

	require.NoError(t, c.EditTransition(Triple{a, b, goID}, Triple{a, a, stopID}))
	tr, ok := c.Transition(id1)
	require.True(t, ok)
	assert.Equal(t, Triple{a, a, stopID}, tr.Triple())
	assert.Equal(t, id1, c.Transitions()[0].ID, "position preserved")
}

func TestDelTransitionIdempotent(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")
	_, err := c.AddTransition(Triple{a, b, goID})
	require.NoError(t, err)

	c.DelTransition(Triple{a, b, goID})
	assert.Empty(t, c.Transitions())
	c.DelTransition(Triple{a, b, goID})
	assert.Empty(t, c.Transitions())
}

func TestAddStateChecks(t *testing.T) {
	c, a, _ := newRAB(t)

	_, err := c.AddState(c.Root(), normal("A"))
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = c.AddState(c.Root(), normal(""))
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = c.AddState(a, normal("child"))
	assert.ErrorIs(t, err, ErrNotComposite)

	_, err = c.AddState("missing", normal("child"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.AddState(c.Root(), StateSpec{Kind: "weird", Name: "W"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = c.AddState(c.Root(), StateSpec{Kind: KindNormal, Name: "T", MinTimeLock: IntPtr(5), MaxTimeLock: IntPtr(2)})
	assert.ErrorIs(t, err, ErrTimeLock)

	_, err = c.AddState(c.Root(), StateSpec{Kind: KindNormal, Name: "T", MinTimeLock: IntPtr(-1)})
	assert.ErrorIs(t, err, ErrTimeLock)

	assert.Equal(t, 3, c.NumStates())
}

func TestAddStateTopLevelGoesUnderRoot(t *testing.T) {
	c := New("chart", "R")
	id, err := c.AddState(None, normal("A"))
	require.NoError(t, err)
	p, ok := c.Parent(id)
	require.True(t, ok)
	assert.Equal(t, c.Root(), p)
	assert.Equal(t, []ID{id}, c.Children(c.Root()))
	assert.Equal(t, "R.A", c.Path(id))
}

func TestDelStateRemovesEdgesAndIndex(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")
	_, err := c.AddTransition(Triple{a, b, goID})
	require.NoError(t, err)
	_, err = c.AddTransition(Triple{b, a, goID})
	require.NoError(t, err)
	_, err = c.AddTransition(Triple{b, b, goID})
	require.NoError(t, err)

	require.NoError(t, c.DelState(a))

	for _, tr := range c.Transitions() {
		assert.NotEqual(t, a, tr.Src)
		assert.NotEqual(t, a, tr.Dst)
	}
	assert.Len(t, c.Transitions(), 1)
	assert.NotContains(t, c.Children(c.Root()), a)
	_, ok := c.Parent(a)
	assert.False(t, ok)
	assert.False(t, c.HasState(a))

	// idempotent
	require.NoError(t, c.DelState(a))
	assert.Len(t, c.Transitions(), 1)
	assert.Equal(t, 2, c.NumStates())
}

func TestDelStateCascadesSubtree(t *testing.T) {
	c, a, _ := newRAB(t)
	p, err := c.AddState(c.Root(), composite("P"))
	require.NoError(t, err)
	q, err := c.AddState(p, composite("Q"))
	require.NoError(t, err)
	leaf, err := c.AddState(q, normal("L"))
	require.NoError(t, err)
	other, err := c.AddState(p, normal("O"))
	require.NoError(t, err)
	require.NoError(t, c.SetInitial(p))

	goID, _ := c.AddEvent("go", "")
	_, err = c.AddTransition(Triple{a, leaf, goID})
	require.NoError(t, err)
	_, err = c.AddTransition(Triple{other, a, goID})
	require.NoError(t, err)
	keep, err := c.AddTransition(Triple{a, a, goID})
	require.NoError(t, err)

	require.NoError(t, c.DelState(p))

	for _, id := range []ID{p, q, leaf, other} {
		assert.False(t, c.HasState(id))
		_, ok := c.Parent(id)
		assert.False(t, ok)
	}
	require.Len(t, c.Transitions(), 1)
	assert.Equal(t, keep, c.Transitions()[0].ID)
	assert.Equal(t, None, c.RootState().Initial, "initial cleared with the deleted child")
	assert.Equal(t, 3, c.NumStates())
	assert.Empty(t, c.LegalityCheck())
}

func TestDelRootRejected(t *testing.T) {
	c, _, _ := newRAB(t)
	err := c.DelState(c.Root())
	assert.ErrorIs(t, err, ErrRootState)
	assert.Equal(t, 3, c.NumStates())
}

func TestChangeInitialState(t *testing.T) {
	c, a, b := newRAB(t)

	require.NoError(t, c.ChangeInitialState(c.Root(), a))
	require.NoError(t, c.ChangeInitialState(c.Root(), b))
	assert.Equal(t, b, c.RootState().Initial)
	assert.True(t, c.IsInitial(b))
	assert.False(t, c.IsInitial(a))
}

func TestChangeInitialStateLocality(t *testing.T) {
	c, a, _ := newRAB(t)
	p, _ := c.AddState(c.Root(), composite("P"))
	x, _ := c.AddState(p, normal("X"))
	require.NoError(t, c.ChangeInitialState(c.Root(), a))

	err := c.ChangeInitialState(c.Root(), x)
	assert.ErrorIs(t, err, ErrNotChild)
	err = c.ChangeInitialState(a, x)
	assert.ErrorIs(t, err, ErrNotComposite)

	require.NoError(t, c.ChangeInitialState(p, x))
	assert.Equal(t, a, c.RootState().Initial)
	ps, _ := c.State(p)
	assert.Equal(t, x, ps.Initial)

	err = c.SetInitial(c.Root())
	assert.ErrorIs(t, err, ErrRootState)
}

func TestEditStateKindChanges(t *testing.T) {
	c, a, _ := newRAB(t)

	t.Run("leaf to composite", func(t *testing.T) {
		spec := composite("A")
		spec.Description = "now composite"
		require.NoError(t, c.EditState(a, spec))
		s, ok := c.State(a)
		require.True(t, ok)
		assert.Equal(t, KindComposite, s.Kind)
		assert.Equal(t, a, s.ID)
		assert.Contains(t, c.Children(c.Root()), a)
		p, _ := c.Parent(a)
		assert.Equal(t, c.Root(), p)
	})

	child, err := c.AddState(a, normal("A1"))
	require.NoError(t, err)
	require.NoError(t, c.ChangeInitialState(a, child))

	t.Run("composite with children to normal", func(t *testing.T) {
		err := c.EditState(a, normal("A"))
		assert.ErrorIs(t, err, ErrHasChildren)
		s, _ := c.State(a)
		assert.Equal(t, KindComposite, s.Kind)
	})

	t.Run("composite rename keeps children", func(t *testing.T) {
		require.NoError(t, c.EditState(a, composite("Alpha")))
		s, _ := c.State(a)
		assert.Equal(t, []ID{child}, s.Children)
		assert.Equal(t, child, s.Initial)
	})

	t.Run("root must stay composite", func(t *testing.T) {
		err := c.EditState(c.Root(), normal("R"))
		assert.ErrorIs(t, err, ErrRootState)
	})

	t.Run("rename collision", func(t *testing.T) {
		err := c.EditState(child, normal("B"))
		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.NoError(t, c.EditState(child, normal("A1")))
	})
}

func TestRejectionLeavesChartUnchanged(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")
	_, _ = c.AddTransition(Triple{a, b, goID})
	before := c.Clone()

	_, _ = c.AddEvent("go", "")
	_ = c.EditEvent(goID, "", "")
	_, _ = c.AddTransition(Triple{a, b, goID})
	_, _ = c.AddState(a, normal("Z"))
	_ = c.EditState(b, StateSpec{Kind: KindNormal, Name: "B", MinTimeLock: IntPtr(3), MaxTimeLock: IntPtr(1)})
	_ = c.DelState(c.Root())
	_ = c.ChangeInitialState(a, b)

	assert.Equal(t, before.States(), c.States())
	assert.Equal(t, before.Events(), c.Events())
	assert.Equal(t, before.Transitions(), c.Transitions())
}

func TestRejectedErrorMessage(t *testing.T) {
	c := New("chart", "R")
	_, err := c.AddEvent("", "")
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "add event", rej.Op)
	assert.Equal(t, "add event: name must not be empty", err.Error())
}

func TestWalkPreOrder(t *testing.T) {
	c := New("chart", "R")
	p, _ := c.AddState(None, composite("P"))
	_, _ = c.AddState(p, normal("P1"))
	_, _ = c.AddState(p, normal("P2"))
	_, _ = c.AddState(None, normal("Q"))

	var names []string
	var depths []int
	c.Walk(func(s State, depth int) {
		names = append(names, s.Name)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"R", "P", "P1", "P2", "Q"}, names)
	assert.Equal(t, []int{0, 1, 2, 2, 1}, depths)
}

func TestCloneIsIndependent(t *testing.T) {
	c, a, b := newRAB(t)
	goID, _ := c.AddEvent("go", "")
	_, _ = c.AddTransition(Triple{a, b, goID})
	cp := c.Clone()

	require.NoError(t, c.DelState(a))
	require.NoError(t, c.EditEvent(goID, "went", ""))

	assert.True(t, cp.HasState(a))
	assert.Len(t, cp.Transitions(), 1)
	ev, _ := cp.Event(goID)
	assert.Equal(t, "go", ev.Name)
	assert.Contains(t, cp.Children(cp.Root()), a)
}

func TestStateAccessorsReturnCopies(t *testing.T) {
	c, a, _ := newRAB(t)
	root := c.RootState()
	root.Children[0] = "tampered"
	assert.Equal(t, a, c.Children(c.Root())[0])
}

func TestEqualTracksEveryEdit(t *testing.T) {
	c, a, b := newRAB(t)
	goID, err := c.AddEvent("go", "")
	require.NoError(t, err)
	_, err = c.AddTransition(Triple{a, b, goID})
	require.NoError(t, err)

	cp := c.Clone()
	assert.True(t, c.Equal(cp))

	c.DropTransition("missing")
	require.NoError(t, c.DelState("missing"))
	require.NoError(t, c.EditState(a, specOf(t, c, a)))
	assert.True(t, c.Equal(cp), "no-op edits must leave the chart equal")

	spec := specOf(t, c, a)
	spec.MaxTimeLock = IntPtr(3)
	require.NoError(t, c.EditState(a, spec))
	assert.False(t, c.Equal(cp))

	c = cp.Clone()
	require.NoError(t, c.EditEvent(goID, "go", "x > 1"))
	assert.False(t, c.Equal(cp))

	c = cp.Clone()
	require.NoError(t, c.ChangeInitialState(c.Root(), b))
	assert.False(t, c.Equal(cp))

	c = cp.Clone()
	c.DelTransition(Triple{a, b, goID})
	assert.False(t, c.Equal(cp))
}

func specOf(t *testing.T, c *Statechart, id ID) StateSpec {
	t.Helper()
	s, ok := c.State(id)
	require.True(t, ok)
	return s.Spec()
}

func TestStateSpecValidate(t *testing.T) {
	assert.NoError(t, StateSpec{Kind: KindNormal, Name: "A", MinTimeLock: IntPtr(1), MaxTimeLock: IntPtr(1)}.Validate())
	assert.ErrorIs(t, StateSpec{Kind: KindNormal, Name: "A", MinTimeLock: IntPtr(9), MaxTimeLock: IntPtr(1)}.Validate(), ErrTimeLock)
	assert.ErrorIs(t, StateSpec{Kind: KindNormal, Name: "A", MaxTimeLock: IntPtr(-2)}.Validate(), ErrTimeLock)
	assert.ErrorIs(t, StateSpec{Kind: KindNormal, Name: " "}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, StateSpec{Name: "A"}.Validate(), ErrUnknownKind)
}
