package dcc

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

// monitorPin is a Pin that also remembers its last level, so the monitor has
// something to render; it wraps a real Pin and forwards every call to it.
type monitorPin struct {
	inner Pin
	high  bool
}

func (p *monitorPin) SetHigh() { p.high = true; p.inner.SetHigh() }
func (p *monitorPin) SetLow()  { p.high = false; p.inner.SetLow() }

type monitorModel struct {
	gen *Generator
	cmd *Commander

	pinA, pinB *monitorPin
	ticks      int
	error      error
}

func (m monitorModel) Init() tea.Cmd { return nil }

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case " ", "j":
			m.gen.Step()
			m.ticks++
		case "l":
			m.cmd.Loop()
		}
	}
	return m, nil
}

func (m monitorModel) status() string {
	current := m.gen.Current()
	dump := "<none>"
	if current != nil {
		dump = spew.Sdump(*current)
	}
	return fmt.Sprintf(
		"ticks: %d\nstate: %s\npin A: %v\npin B: %v\nqueue depth: %d\n\ncurrent packet:\n%s",
		m.ticks, m.gen.State(), m.pinA.high, m.pinB.high, m.cmd.queue.Len(), dump,
	)
}

func (m monitorModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.status())
}

// Monitor launches an interactive single-stepping TUI over gen and cmd:
// space/j advances the generator by one Step (see Generator.Step), l runs one commander
// background tick, q quits. Adapted from the CPU emulator's bubbletea
// debugger, generalized from a memory/register dump to the packet/queue/pin
// state relevant here.
func Monitor(gen *Generator, cmd *Commander) error {
	pinA := &monitorPin{inner: gen.PinA}
	pinB := &monitorPin{inner: gen.PinB}
	gen.PinA = pinA
	gen.PinB = pinB

	_, err := tea.NewProgram(monitorModel{gen: gen, cmd: cmd, pinA: pinA, pinB: pinB}).Run()
	return err
}
