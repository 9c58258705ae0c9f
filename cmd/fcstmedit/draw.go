package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleMenuSel    = tcell.StyleDefault.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
	styleComposite  = tcell.StyleDefault.Foreground(tcell.ColorGold).Bold(true)
	styleNormal     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	stylePseudo     = tcell.StyleDefault.Foreground(tcell.ColorLightSalmon)
	styleInitial    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleTrans      = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleIllegal    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleSidebar    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSidebarH   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgWarning = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleInput      = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleBorder     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

const sidebarWidth = 36

// render draws a frame and makes it visible.
func (ed *Editor) render() {
	ed.draw()
	ed.screen.Show()
}

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()

	ed.drawTree(w-sidebarWidth, h-2)
	ed.drawSidebar(w, h-2)

	switch ed.mode {
	case ModeInput:
		ed.drawInputBox(w, h)
	case ModePick:
		ed.drawPickList(w, h)
	case ModeHelp:
		ed.drawHelp(w, h)
	}

	ed.drawStatusBar(w, h)
}

func kindStyle(k chart.Kind) tcell.Style {
	switch k {
	case chart.KindComposite:
		return styleComposite
	case chart.KindPseudo:
		return stylePseudo
	}
	return styleNormal
}

func kindTag(k chart.Kind) string {
	switch k {
	case chart.KindComposite:
		return "[C]"
	case chart.KindPseudo:
		return "[P]"
	}
	return "[N]"
}

func (ed *Editor) drawTree(w, h int) {
	if ed.cursor < ed.scroll {
		ed.scroll = ed.cursor
	}
	if ed.cursor >= ed.scroll+h {
		ed.scroll = ed.cursor - h + 1
	}

	for i := ed.scroll; i < len(ed.rows) && i-ed.scroll < h; i++ {
		row := ed.rows[i]
		s, ok := ed.chart.State(row.id)
		if !ok {
			continue
		}
		y := i - ed.scroll
		x := 1 + row.depth*2

		if row.id != ed.chart.Root() && ed.chart.IsInitial(row.id) {
			ed.drawString(x-2, y, "→", styleInitial)
		}
		style := kindStyle(s.Kind)
		if i == ed.cursor {
			style = styleMenuSel
		}
		ed.drawString(x, y, truncate(kindTag(s.Kind)+" "+s.Name, w-x-1), style)
	}

	for y := 0; y < h; y++ {
		ed.screen.SetContent(w, y, '│', nil, styleBorder)
	}
}

func (ed *Editor) drawSidebar(w, h int) {
	x := w - sidebarWidth + 2
	y := 0
	width := sidebarWidth - 3

	ed.drawString(x, y, truncate(ed.chart.Name, width), styleSidebarH)
	y += 2

	sel, ok := ed.chart.State(ed.selected())
	if ok {
		ed.drawString(x, y, truncate(ed.chart.Path(sel.ID), width), styleSidebarH)
		y++
		if sel.Description != "" {
			ed.drawString(x, y, truncate("  "+sel.Description, width), styleSidebar)
			y++
		}
		if sel.MinTimeLock != nil || sel.MaxTimeLock != nil {
			ed.drawString(x, y, truncate(fmt.Sprintf("  lock %s..%s", lockText(sel.MinTimeLock), lockText(sel.MaxTimeLock)), width), styleSidebar)
			y++
		}
		for _, t := range ed.chart.TransitionsFrom(sel.ID) {
			if y >= h {
				return
			}
			ed.drawString(x, y, truncate("  "+ed.transitionLabel(t), width), styleTrans)
			y++
		}
		y++
	}

	ed.drawString(x, y, "Events:", styleSidebarH)
	y++
	for _, e := range ed.chart.Events() {
		if y >= h-2 {
			ed.drawString(x, y, "  ...", styleSidebar)
			break
		}
		line := "  " + e.Name
		if e.Guard != "" {
			line += " [" + e.Guard + "]"
		}
		ed.drawString(x, y, truncate(line, width), styleSidebar)
		y++
	}

	if n := len(ed.chart.LegalityCheck()); n > 0 && y < h {
		ed.drawString(x, h-1, fmt.Sprintf("%d illegal transitions", n), styleIllegal)
	}
}

func lockText(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}

func (ed *Editor) drawStatusBar(w, h int) {
	y := h - 1

	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	fileInfo := "[New]"
	if ed.filename != "" {
		fileInfo = filepath.Base(ed.filename)
	}
	if ed.modified {
		fileInfo += " *"
	}
	undo, redo := ed.history.Depth()
	fileInfo += fmt.Sprintf("  undo:%d redo:%d", undo, redo)
	ed.drawString(1, y, fileInfo, styleStatus)

	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess:
			style = styleMsgSuccess
		case MsgWarning:
			style = styleMsgWarning
		}
		if ed.messageType != MsgInfo && flashInverted(time.Now().UnixMilli()-ed.messageFlashStart) {
			style = style.Reverse(true)
		}
		msg := truncate(ed.message, w/2)
		ed.drawString(w-len([]rune(msg))-2, y, msg, style)
	}

	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.drawString(1, y, ed.helpString(), styleHelp)
}

// flashInverted reports whether a message shown elapsed milliseconds ago is
// in an inverted phase: normal, inverted, normal, inverted, then steady.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= 500 {
		return false
	}
	phase := elapsed / 125
	return phase == 1 || phase == 3
}

func (ed *Editor) drawInputBox(w, h int) {
	boxW := 50
	boxH := 3
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	ed.drawBox(boxX, boxY, boxW, boxH, styleInput)
	ed.drawString(boxX+2, boxY+1, ed.inputPrompt, styleInput)
	ed.drawString(boxX+2+len([]rune(ed.inputPrompt)), boxY+1, ed.inputBuffer+"_", styleInput)
}

func (ed *Editor) drawPickList(w, h int) {
	boxW := 50
	visible := len(ed.pickItems)
	if visible > h-8 {
		visible = h - 8
	}
	if visible < 1 {
		visible = 1
	}
	boxH := visible + 4
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	ed.drawBox(boxX, boxY, boxW, boxH, styleDefault)
	ed.drawString(boxX+2, boxY+1, truncate(ed.pickTitle, boxW-4), styleSidebarH)

	start := 0
	if ed.pickSelected >= visible {
		start = ed.pickSelected - visible + 1
	}
	for i := start; i < len(ed.pickItems) && i-start < visible; i++ {
		style := styleSidebar
		if i == ed.pickSelected {
			style = styleMenuSel
		}
		line := fmt.Sprintf(" %-*s", boxW-5, truncate(ed.pickItems[i], boxW-5))
		ed.drawString(boxX+2, boxY+3+i-start, line, style)
	}
}

var helpLines = []string{
	"↑/↓        move selection",
	"←/→        parent / first child",
	"a          add state",
	"e          rename state",
	"t          cycle kind (normal, pseudo, composite)",
	"i          make initial state of its parent",
	"d, Del     delete state and its subtree",
	"E          add event",
	"T          add transition from selected state",
	"x          delete a transition from selected state",
	"u, Ctrl+Z  undo",
	"r, Ctrl+Y  redo",
	"s, Ctrl+S  save",
	"c          legality check",
	"q          quit",
}

func (ed *Editor) drawHelp(w, h int) {
	boxW := 56
	boxH := len(helpLines) + 4
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2
	ed.drawBox(boxX, boxY, boxW, boxH, styleDefault)
	ed.drawString(boxX+2, boxY+1, "Keys", styleSidebarH)
	for i, line := range helpLines {
		ed.drawString(boxX+2, boxY+3+i, line, styleSidebar)
	}
}

func (ed *Editor) drawBox(x, y, w, h int, style tcell.Style) {
	ed.screen.SetContent(x, y, '┌', nil, styleBorder)
	ed.screen.SetContent(x+w-1, y, '┐', nil, styleBorder)
	ed.screen.SetContent(x, y+h-1, '└', nil, styleBorder)
	ed.screen.SetContent(x+w-1, y+h-1, '┘', nil, styleBorder)

	for i := x + 1; i < x+w-1; i++ {
		ed.screen.SetContent(i, y, '─', nil, styleBorder)
		ed.screen.SetContent(i, y+h-1, '─', nil, styleBorder)
	}
	for i := y + 1; i < y+h-1; i++ {
		ed.screen.SetContent(x, i, '│', nil, styleBorder)
		ed.screen.SetContent(x+w-1, i, '│', nil, styleBorder)
	}
	for row := y + 1; row < y+h-1; row++ {
		for col := x + 1; col < x+w-1; col++ {
			ed.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func (ed *Editor) drawString(x, y int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		ed.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func (ed *Editor) helpString() string {
	switch ed.mode {
	case ModeInput:
		return "Type text  Enter:Confirm  Esc:Cancel"
	case ModePick:
		return "↑↓:Select  Enter:Confirm  Esc:Cancel"
	case ModeHelp:
		return "Any key:Close"
	}
	return "a:Add  e:Rename  t:Kind  i:Initial  d:Delete  E:Event  T:Transition  u/r:Undo/Redo  s:Save  c:Check  ?:Help  q:Quit"
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 {
		return ""
	}
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
