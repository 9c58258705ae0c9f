// Command fcstmedit is a TUI editor for statecharts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/fcstm-toolkit/internal/config"
	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
	"github.com/ha1tch/fcstm-toolkit/pkg/chartfile"
)

// Editor holds all editor state
type Editor struct {
	screen      tcell.Screen
	chart       *chart.Statechart
	filename    string
	modified    bool
	mode        Mode
	message     string
	messageType MessageType
	log         *slog.Logger

	// Tree view
	rows   []treeRow
	cursor int
	scroll int

	history *chart.History

	// Input state
	inputBuffer string
	inputPrompt string
	inputAction func(string)

	// Pick list state
	pickTitle    string
	pickItems    []string
	pickSelected int
	pickAction   func(int)

	quitArmed bool

	// Message flash state
	messageFlashStart int64 // Unix milliseconds when message was shown
}

// treeRow is one line of the tree view.
type treeRow struct {
	id    chart.ID
	depth int
}

// Mode represents editor mode
type Mode int

const (
	ModeTree Mode = iota
	ModeInput
	ModePick
	ModeHelp
)

// MessageType for status messages
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
	MsgWarning                    // Warnings, flash
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logOut, closeLog := openLog()
	defer closeLog()

	ed := newEditor(cfg, cfg.Logger(logOut))

	if len(os.Args) > 1 {
		if err := ed.open(os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	screen.Clear()
	ed.screen = screen

	ed.run()
	screen.Fini()
}

// openLog sends editor logs to a file in the temp directory, since the
// terminal belongs to the editor while it runs.
func openLog() (io.Writer, func()) {
	f, err := os.OpenFile(filepath.Join(os.TempDir(), "fcstmedit.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}

func newEditor(cfg config.Config, log *slog.Logger) *Editor {
	ed := &Editor{
		chart:   chart.New("untitled", "Root"),
		history: chart.NewHistory(cfg.UndoLevels),
		log:     log,
	}
	ed.refreshRows()
	return ed
}

// open loads path, or starts a new chart named after it when it does not
// exist yet.
func (ed *Editor) open(path string) error {
	ed.filename = path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		ed.chart = chart.New(name, name)
		ed.modified = true
		ed.refreshRows()
		ed.showMessage("New file: "+path, MsgInfo)
		return nil
	}

	c, err := chartfile.ReadFile(context.Background(), path)
	if err != nil {
		return err
	}
	ed.chart = c
	ed.modified = false
	ed.cursor = 0
	ed.refreshRows()
	if w := c.LegalityCheck(); len(w) > 0 {
		ed.showMessage(fmt.Sprintf("%d illegal transitions (c to list)", len(w)), MsgWarning)
	}
	ed.log.Info("chart opened", "path", path, "states", c.NumStates())
	return nil
}

func (ed *Editor) run() {
	// Periodic refresh while a message is flashing
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if ed.message != "" && ed.messageFlashStart > 0 {
				elapsed := time.Now().UnixMilli() - ed.messageFlashStart
				if elapsed >= 0 && elapsed < 700 {
					ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
				}
			}
		}
	}()

	for {
		ed.render()

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			ed.screen.Sync()
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
		case *tcell.EventInterrupt:
			// Refresh for flash animation
		}
	}
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlS {
		ed.save()
		return false
	}

	switch ed.mode {
	case ModeTree:
		return ed.handleTreeKey(ev)
	case ModeInput:
		return ed.handleInputKey(ev)
	case ModePick:
		return ed.handlePickKey(ev)
	case ModeHelp:
		ed.mode = ModeTree
	}
	return false
}

func (ed *Editor) handleTreeKey(ev *tcell.EventKey) bool {
	if ev.Key() != tcell.KeyRune || ev.Rune() != 'q' {
		ed.quitArmed = false
	}

	switch ev.Key() {
	case tcell.KeyUp:
		ed.moveCursor(-1)
		return false
	case tcell.KeyDown:
		ed.moveCursor(1)
		return false
	case tcell.KeyHome:
		ed.cursor = 0
		return false
	case tcell.KeyEnd:
		ed.cursor = len(ed.rows) - 1
		return false
	case tcell.KeyLeft:
		if p, ok := ed.chart.Parent(ed.selected()); ok {
			ed.selectID(p)
		}
		return false
	case tcell.KeyRight:
		if kids := ed.chart.Children(ed.selected()); len(kids) > 0 {
			ed.selectID(kids[0])
		}
		return false
	case tcell.KeyDelete:
		ed.deleteSelected()
		return false
	case tcell.KeyCtrlZ:
		ed.undo()
		return false
	case tcell.KeyCtrlY:
		ed.redo()
		return false
	case tcell.KeyEscape:
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'a':
		ed.addState()
	case 'e':
		ed.renameSelected()
	case 't':
		ed.cycleKind()
	case 'i':
		ed.setInitial()
	case 'd':
		ed.deleteSelected()
	case 'E':
		ed.addEvent()
	case 'T':
		ed.startAddTransition()
	case 'x':
		ed.startDeleteTransition()
	case 'u':
		ed.undo()
	case 'r':
		ed.redo()
	case 's':
		ed.save()
	case 'c':
		ed.runCheck()
	case '?':
		ed.mode = ModeHelp
	case 'q':
		if ed.modified && !ed.quitArmed {
			ed.quitArmed = true
			ed.showMessage("Unsaved changes: press q again to quit", MsgWarning)
			return false
		}
		return true
	}
	return false
}

func (ed *Editor) handleInputKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.mode = ModeTree
	case tcell.KeyEnter:
		action := ed.inputAction
		text := ed.inputBuffer
		ed.inputBuffer = ""
		ed.mode = ModeTree
		if action != nil {
			action(text)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(ed.inputBuffer); len(r) > 0 {
			ed.inputBuffer = string(r[:len(r)-1])
		}
	case tcell.KeyRune:
		ed.inputBuffer += string(ev.Rune())
	}
	return false
}

func (ed *Editor) handlePickKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.mode = ModeTree
	case tcell.KeyUp:
		if ed.pickSelected > 0 {
			ed.pickSelected--
		}
	case tcell.KeyDown:
		if ed.pickSelected < len(ed.pickItems)-1 {
			ed.pickSelected++
		}
	case tcell.KeyEnter:
		action := ed.pickAction
		idx := ed.pickSelected
		ed.mode = ModeTree
		if action != nil && idx >= 0 && idx < len(ed.pickItems) {
			action(idx)
		}
	}
	return false
}

// prompt opens the input box with an initial value.
func (ed *Editor) prompt(label, initial string, action func(string)) {
	ed.inputPrompt = label
	ed.inputBuffer = initial
	ed.inputAction = action
	ed.mode = ModeInput
}

// pick opens a selection list.
func (ed *Editor) pick(title string, items []string, action func(int)) {
	ed.pickTitle = title
	ed.pickItems = items
	ed.pickSelected = 0
	ed.pickAction = action
	ed.mode = ModePick
}

// Tree navigation

func (ed *Editor) refreshRows() {
	ed.rows = ed.rows[:0]
	ed.chart.Walk(func(s chart.State, depth int) {
		ed.rows = append(ed.rows, treeRow{id: s.ID, depth: depth})
	})
	if ed.cursor >= len(ed.rows) {
		ed.cursor = len(ed.rows) - 1
	}
	if ed.cursor < 0 {
		ed.cursor = 0
	}
}

func (ed *Editor) moveCursor(delta int) {
	ed.cursor += delta
	if ed.cursor < 0 {
		ed.cursor = 0
	}
	if ed.cursor >= len(ed.rows) {
		ed.cursor = len(ed.rows) - 1
	}
}

func (ed *Editor) selected() chart.ID {
	if ed.cursor < 0 || ed.cursor >= len(ed.rows) {
		return ed.chart.Root()
	}
	return ed.rows[ed.cursor].id
}

func (ed *Editor) selectID(id chart.ID) {
	for i, r := range ed.rows {
		if r.id == id {
			ed.cursor = i
			return
		}
	}
}

// Editing

// apply runs one engine operation with an undo snapshot taken first. A
// rejected operation, or one that changed nothing, leaves the chart, the
// history and the modified flag as they were.
func (ed *Editor) apply(done string, op func(c *chart.Statechart) error) bool {
	before := ed.chart.Clone()
	if err := op(ed.chart); err != nil {
		ed.showMessage(err.Error(), MsgError)
		ed.log.Debug("edit rejected", "reason", err)
		return false
	}
	if ed.chart.Equal(before) {
		ed.showMessage("Nothing changed", MsgInfo)
		return false
	}
	ed.history.Push(before)
	ed.modified = true
	ed.refreshRows()
	ed.showMessage(done, MsgSuccess)
	ed.log.Debug("edit applied", "what", done)
	return true
}

// addState adds a state under the selected composite, or next to the
// selected leaf.
func (ed *Editor) addState() {
	parent := ed.selected()
	if s, ok := ed.chart.State(parent); ok && !s.IsComposite() {
		parent, _ = ed.chart.Parent(parent)
	}
	ed.prompt("New state: ", "", func(name string) {
		var id chart.ID
		ok := ed.apply("Added state: "+name, func(c *chart.Statechart) error {
			var err error
			id, err = c.AddState(parent, chart.StateSpec{Kind: chart.KindNormal, Name: name})
			return err
		})
		if ok {
			ed.selectID(id)
		}
	})
}

func (ed *Editor) renameSelected() {
	s, ok := ed.chart.State(ed.selected())
	if !ok {
		return
	}
	ed.prompt("Rename: ", s.Name, func(name string) {
		spec := s.Spec()
		spec.Name = name
		ed.apply("Renamed to "+name, func(c *chart.Statechart) error {
			return c.EditState(s.ID, spec)
		})
	})
}

// nextKind is the order t cycles through.
func nextKind(k chart.Kind) chart.Kind {
	switch k {
	case chart.KindNormal:
		return chart.KindPseudo
	case chart.KindPseudo:
		return chart.KindComposite
	}
	return chart.KindNormal
}

func (ed *Editor) cycleKind() {
	s, ok := ed.chart.State(ed.selected())
	if !ok {
		return
	}
	spec := s.Spec()
	spec.Kind = nextKind(s.Kind)
	ed.apply(fmt.Sprintf("%s is now %s", s.Name, spec.Kind), func(c *chart.Statechart) error {
		return c.EditState(s.ID, spec)
	})
}

func (ed *Editor) setInitial() {
	id := ed.selected()
	s, _ := ed.chart.State(id)
	ed.apply("Initial state: "+s.Name, func(c *chart.Statechart) error {
		return c.SetInitial(id)
	})
}

func (ed *Editor) deleteSelected() {
	id := ed.selected()
	s, _ := ed.chart.State(id)
	ed.apply("Deleted state: "+s.Name, func(c *chart.Statechart) error {
		return c.DelState(id)
	})
}

func (ed *Editor) addEvent() {
	ed.prompt("New event: ", "", func(name string) {
		ed.prompt("Guard (optional): ", "", func(guard string) {
			ed.apply("Added event: "+name, func(c *chart.Statechart) error {
				_, err := c.AddEvent(name, guard)
				return err
			})
		})
	})
}

func (ed *Editor) startAddTransition() {
	src := ed.selected()
	events := ed.chart.Events()
	if len(events) == 0 {
		ed.showMessage("Add an event first (press E)", MsgError)
		return
	}

	states := ed.chart.States()
	targets := make([]string, len(states))
	for i, s := range states {
		targets[i] = ed.chart.Path(s.ID)
	}
	ed.pick("Target state", targets, func(ti int) {
		dst := states[ti].ID
		names := make([]string, len(events))
		for i, e := range events {
			names[i] = e.Name
		}
		ed.pick("Event", names, func(ei int) {
			key := chart.Triple{Src: src, Dst: dst, Event: events[ei].ID}
			ed.apply("Added transition on "+events[ei].Name, func(c *chart.Statechart) error {
				_, err := c.AddTransition(key)
				return err
			})
		})
	})
}

func (ed *Editor) startDeleteTransition() {
	out := ed.chart.TransitionsFrom(ed.selected())
	if len(out) == 0 {
		ed.showMessage("No transitions from this state", MsgInfo)
		return
	}
	items := make([]string, len(out))
	for i, t := range out {
		items[i] = ed.transitionLabel(t)
	}
	ed.pick("Delete transition", items, func(i int) {
		id := out[i].ID
		ed.apply("Deleted transition", func(c *chart.Statechart) error {
			c.DropTransition(id)
			return nil
		})
	})
}

func (ed *Editor) transitionLabel(t chart.Transition) string {
	dst, event := "?", "?"
	if s, ok := ed.chart.State(t.Dst); ok {
		dst = s.Name
	}
	if e, ok := ed.chart.Event(t.Event); ok {
		event = e.Name
	}
	return fmt.Sprintf("-> %s : %s", dst, event)
}

func (ed *Editor) undo() {
	prev, ok := ed.history.Undo(ed.chart)
	if !ok {
		ed.showMessage("Nothing to undo", MsgInfo)
		return
	}
	ed.chart = prev
	ed.modified = true
	ed.refreshRows()
	ed.showMessage("Undo", MsgInfo)
}

func (ed *Editor) redo() {
	next, ok := ed.history.Redo(ed.chart)
	if !ok {
		ed.showMessage("Nothing to redo", MsgInfo)
		return
	}
	ed.chart = next
	ed.modified = true
	ed.refreshRows()
	ed.showMessage("Redo", MsgInfo)
}

func (ed *Editor) runCheck() {
	warnings := ed.chart.LegalityCheck()
	if len(warnings) == 0 {
		ed.showMessage("Chart is legal", MsgSuccess)
		return
	}
	items := make([]string, len(warnings))
	for i, w := range warnings {
		items[i] = w.Summary
	}
	ed.pick(fmt.Sprintf("%d illegal transitions (Enter drops one)", len(warnings)), items, func(i int) {
		id := warnings[i].Transition.ID
		ed.apply("Dropped illegal transition", func(c *chart.Statechart) error {
			c.DropTransition(id)
			return nil
		})
	})
}

// File operations

func (ed *Editor) save() {
	if ed.filename == "" {
		ed.prompt("Save as: ", ed.chart.Name+".json", func(path string) {
			if path == "" {
				return
			}
			ed.filename = path
			ed.save()
		})
		return
	}
	if err := chartfile.WriteFile(context.Background(), ed.filename, ed.chart); err != nil {
		ed.showMessage(err.Error(), MsgError)
		ed.log.Error("save failed", "path", ed.filename, "err", err)
		return
	}
	ed.modified = false
	ed.showMessage("Saved "+filepath.Base(ed.filename), MsgSuccess)
	ed.log.Info("chart saved", "path", ed.filename, "states", ed.chart.NumStates())
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
	ed.messageFlashStart = time.Now().UnixMilli()
	if ed.screen != nil {
		ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}
