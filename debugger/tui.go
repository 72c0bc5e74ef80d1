package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"rv32emu/vm"
)

// TUI is the terminal front end: a register grid, a disassembly pane, a
// console-output pane, and a command line, wired up with tcell/tview the
// way a curses-style debugger front end is built.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Layout   *tview.Flex

	RegisterView *tview.TextView
	DisasmView   *tview.TextView
	ConsoleView  *tview.TextView
	StatusView   *tview.TextView
	CommandInput *tview.InputField
}

func NewTUI(d *Debugger) *TUI {
	return newTUI(d, tview.NewApplication())
}

// NewTUIWithScreen lets tests drive the TUI against a simulation screen
// instead of a real terminal.
func NewTUIWithScreen(d *Debugger, screen tcell.Screen) *TUI {
	return newTUI(d, tview.NewApplication().SetScreen(screen))
}

func newTUI(d *Debugger, app *tview.Application) *TUI {
	t := &TUI{Debugger: d, App: app}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.Refresh()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.DisasmView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.DisasmView.SetBorder(true).SetTitle(" Disassembly ")

	t.ConsoleView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.ConsoleView.SetBorder(true).SetTitle(" Console ")

	t.StatusView = tview.NewTextView().SetDynamicColors(true)
	t.StatusView.SetBorder(true).SetTitle(" Status ")

	t.CommandInput = tview.NewInputField().SetLabel("(cmd) ")
	t.CommandInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			t.runCommand(t.CommandInput.GetText())
			t.CommandInput.SetText("")
		}
	})
}

func (t *TUI) buildLayout() {
	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 0, 1, false).
		AddItem(t.StatusView, 5, 0, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.DisasmView, 0, 2, false).
		AddItem(t.ConsoleView, 0, 1, false)

	body := tview.NewFlex().
		AddItem(left, 40, 0, false).
		AddItem(right, 0, 1, false)

	t.Layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(t.CommandInput, 1, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Rune() {
		case 's':
			t.Debugger.Step()
			t.Refresh()
			return nil
		case 'c':
			t.Debugger.Continue(0)
			t.Refresh()
			return nil
		case 'r':
			_ = t.Debugger.Reset()
			t.Refresh()
			return nil
		case 'q':
			t.App.Stop()
			return nil
		}
		return ev
	})
}

func (t *TUI) runCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	switch {
	case cmd == "step" || cmd == "s":
		t.Debugger.Step()
	case cmd == "continue" || cmd == "c":
		t.Debugger.Continue(0)
	case cmd == "reset" || cmd == "r":
		_ = t.Debugger.Reset()
	case strings.HasPrefix(cmd, "break "):
		var addr uint32
		if _, err := fmt.Sscanf(strings.TrimPrefix(cmd, "break "), "0x%x", &addr); err == nil {
			t.Debugger.ToggleBreakpoint(addr)
		}
	case strings.HasPrefix(cmd, "watch "):
		var addr uint32
		if _, err := fmt.Sscanf(strings.TrimPrefix(cmd, "watch "), "0x%x", &addr); err == nil {
			t.Debugger.Watchpoints.Add(addr)
		}
	case strings.HasPrefix(cmd, "save "):
		_ = t.Debugger.SaveSession(strings.TrimPrefix(cmd, "save "))
	case strings.HasPrefix(cmd, "load "):
		_ = t.Debugger.LoadSession(strings.TrimPrefix(cmd, "load "))
	case cmd == "quit" || cmd == "q":
		t.App.Stop()
	}
	t.Refresh()
}

// Refresh redraws every panel from the Machine's current StateDump. The
// core holds no prior snapshot to diff against; change highlighting, if
// any, is the host's job, not implemented here.
func (t *TUI) Refresh() {
	m := t.Debugger.Machine()
	dump := m.DumpState()

	var regs strings.Builder
	for i := uint32(0); i < 32; i++ {
		fmt.Fprintf(&regs, "%s\n", RegisterLine(m, i))
	}
	t.RegisterView.SetText(regs.String())

	status := fmt.Sprintf("pc=0x%08x priv=%s mpp=%s\ncycle=%d instret=%d\nlast=%v",
		dump.PC, dump.Priv, dump.MPP, dump.Cycle, dump.Instret, t.Debugger.LastResult.Kind)
	t.StatusView.SetText(status)

	t.ConsoleView.SetText(t.Debugger.ConsoleOutput())

	t.DisasmView.SetText(t.disasmAround(dump.PC))
}

func (t *TUI) disasmAround(pc uint32) string {
	return disasmAround(t.Debugger, pc)
}

// disasmAround renders a small window of decoded instructions around pc,
// shared by the TUI and the fyne GUI so both front ends list the same
// instructions the same way.
func disasmAround(d *Debugger, pc uint32) string {
	var b strings.Builder
	mem := d.Machine().Mem
	for i := -4; i <= 8; i++ {
		addr := uint32(int64(pc) + int64(i*4))
		word, err := mem.ReadInstruction(addr)
		if err != nil {
			continue
		}
		dec := vm.Decode(word)
		marker := "  "
		if addr == pc {
			marker = "->"
		}
		if d.Breakpoints[addr] {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s %08x: %s\n", marker, addr, dec.Op)
	}
	return b.String()
}

func (t *TUI) Run() error {
	return t.App.SetRoot(t.Layout, true).SetFocus(t.CommandInput).Run()
}

// RunTUI starts the terminal front end over the given debugger session.
func RunTUI(d *Debugger) error {
	return NewTUI(d).Run()
}
