package debugger

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// GUI is the desktop front end built on fyne, offered alongside the
// terminal TUI as a second view over the same Debugger.
type GUI struct {
	Debugger *Debugger
	App      fyne.App
	Window   fyne.Window

	RegisterView  *widget.TextGrid
	DisasmView    *widget.TextGrid
	ConsoleOutput *widget.TextGrid
	StatusLabel   *widget.Label
	Toolbar       *widget.Toolbar

	dark bool
}

func RunGUI(d *Debugger) error {
	g := newGUI(d)
	g.Window.ShowAndRun()
	return nil
}

func newGUI(d *Debugger) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("RV32I Emulator Debugger")

	g := &GUI{Debugger: d, App: myApp, Window: myWindow, dark: true}
	g.initializeViews()
	g.setupToolbar()
	g.buildLayout()
	g.Refresh()

	myWindow.Resize(fyne.NewSize(1200, 800))
	return g
}

func (g *GUI) initializeViews() {
	g.RegisterView = widget.NewTextGrid()
	g.DisasmView = widget.NewTextGrid()
	g.ConsoleOutput = widget.NewTextGrid()
	g.StatusLabel = widget.NewLabel("")
}

func (g *GUI) setupToolbar() {
	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaPlayIcon(), func() {
			g.Debugger.Continue(0)
			g.Refresh()
		}),
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() {
			g.Debugger.Step()
			g.Refresh()
		}),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() {
			_ = g.Debugger.Reset()
			g.Refresh()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.VisibilityIcon(), func() {
			g.toggleTheme()
		}),
		widget.NewToolbarAction(theme.DocumentIcon(), func() {
			g.showAssemblerDump()
		}),
	)
}

func (g *GUI) buildLayout() {
	left := container.NewVBox(widget.NewLabel("Registers"), g.RegisterView)
	right := container.NewVSplit(
		container.NewVBox(widget.NewLabel("Disassembly"), g.DisasmView),
		container.NewVBox(widget.NewLabel("Console"), g.ConsoleOutput),
	)
	body := container.NewHSplit(left, right)
	body.Offset = 0.3

	layout := container.NewBorder(g.Toolbar, g.StatusLabel, nil, nil, body)
	g.Window.SetContent(layout)
}

func (g *GUI) toggleTheme() {
	g.dark = !g.dark
	if g.dark {
		g.App.Settings().SetTheme(theme.DarkTheme())
	} else {
		g.App.Settings().SetTheme(theme.LightTheme())
	}
}

// showAssemblerDump pops up the listing produced at assemble time, the
// same text the session API returns as CreateSessionResponse.Dump.
func (g *GUI) showAssemblerDump() {
	dump := g.Debugger.Program.Output.Dump
	if dump == "" {
		dump = "(no listing available)"
	}
	grid := widget.NewTextGrid()
	grid.SetText(dump)
	scroll := container.NewScroll(grid)
	scroll.SetMinSize(fyne.NewSize(600, 500))
	d := dialog.NewCustom("Assembler Listing", "Close", scroll, g.Window)
	d.Show()
}

func (g *GUI) Refresh() {
	m := g.Debugger.Machine()
	dump := m.DumpState()

	var regs strings.Builder
	for i := uint32(0); i < 32; i++ {
		fmt.Fprintf(&regs, "%s\n", RegisterLine(m, i))
	}
	g.RegisterView.SetText(regs.String())
	g.DisasmView.SetText(g.disasmAround(dump.PC))
	g.ConsoleOutput.SetText(g.Debugger.ConsoleOutput())
	g.StatusLabel.SetText(fmt.Sprintf("pc=0x%08x priv=%s cycle=%d instret=%d last=%v",
		dump.PC, dump.Priv, dump.Cycle, dump.Instret, g.Debugger.LastResult.Kind))
}

func (g *GUI) disasmAround(pc uint32) string {
	return disasmAround(g.Debugger, pc)
}
