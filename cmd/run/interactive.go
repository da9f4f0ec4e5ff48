package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-embed/driver"
	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/runner"
	"github.com/wippyai/wasm-embed/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	exportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	entryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	filename string
	binary   []byte
	exports  []string
	entry    string
	inputs   []textinput.Model
	focusIdx int
	exitCode int32
	stdout   string
	stderr   string
	state    modelState
}

type modelState int

const (
	stateConfigure modelState = iota
	stateRunning
	stateShowResult
)

const (
	inputArgs = iota
	inputEnv
	numInputs
)

func newInteractiveModel(filename string) *interactiveModel {
	m := &interactiveModel{
		filename: filename,
		state:    stateConfigure,
	}

	m.inputs = make([]textinput.Model, numInputs)
	args := textinput.New()
	args.Prompt = "args: "
	args.Placeholder = "comma-separated"
	args.Width = 40
	args.Focus()
	m.inputs[inputArgs] = args

	env := textinput.New()
	env.Prompt = "env:  "
	env.Placeholder = "KEY=VAL,KEY2=VAL2 (empty inherits host)"
	env.Width = 40
	m.inputs[inputEnv] = env

	return m
}

type loadedMsg struct {
	err     error
	binary  []byte
	exports []string
	entry   string
}

type ranMsg struct {
	exitCode int32
	stdout   string
	stderr   string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	ctx := context.Background()

	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}

	eng, err := engine.New(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	defer eng.Close(ctx)

	compiled, err := eng.Compile(ctx, data)
	if err != nil {
		return loadedMsg{err: err}
	}
	defer compiled.Close(ctx)

	exports := engine.ExportNames(compiled)

	entry := "(none)"
	for _, name := range exports {
		if name == driver.CommandEntry {
			entry = driver.CommandEntry
			break
		}
		if name == driver.ReactorEntry {
			entry = driver.ReactorEntry
		}
	}

	return loadedMsg{binary: data, exports: exports, entry: entry}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateConfigure || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "enter":
			switch m.state {
			case stateConfigure:
				if m.binary != nil {
					m.state = stateRunning
					return m, m.runModule
				}

			case stateShowResult:
				m.state = stateConfigure
				m.stdout = ""
				m.stderr = ""
			}

		case "tab":
			if m.state == stateConfigure {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			if m.state == stateShowResult {
				m.state = stateConfigure
				m.stdout = ""
				m.stderr = ""
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.binary = msg.binary
		m.exports = msg.exports
		m.entry = msg.entry

	case ranMsg:
		m.exitCode = msg.exitCode
		m.stdout = msg.stdout
		m.stderr = msg.stderr
		m.state = stateShowResult
	}

	if m.state == stateConfigure {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) runModule() tea.Msg {
	outR, outW, err := os.Pipe()
	if err != nil {
		return ranMsg{exitCode: runner.ExitSentinel, stderr: err.Error()}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return ranMsg{exitCode: runner.ExitSentinel, stderr: err.Error()}
	}

	// Drain both pipes while the guest runs: output past the pipe buffer
	// would otherwise block fd_write and wedge the call.
	outDone := make(chan []byte, 1)
	errDone := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(outR)
		outR.Close()
		outDone <- data
	}()
	go func() {
		data, _ := io.ReadAll(errR)
		errR.Close()
		errDone <- data
	}()

	opts := runner.Options{
		Binary:   m.binary,
		StdinFD:  session.UnboundFD,
		StdoutFD: int(outW.Fd()),
		StderrFD: int(errW.Fd()),
	}
	if v := m.inputs[inputArgs].Value(); v != "" {
		opts.Args = strings.Split(v, ",")
	}
	if v := m.inputs[inputEnv].Value(); v != "" {
		opts.Env = parseEnv(v)
	}

	code := runner.Execute(context.Background(), opts)

	outW.Close()
	errW.Close()
	stdout := <-outDone
	stderr := <-errDone

	return ranMsg{exitCode: code, stdout: string(stdout), stderr: string(stderr)}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.binary == nil {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Embed"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateConfigure:
		b.WriteString("Entry point: ")
		b.WriteString(entryStyle.Render(m.entry))
		b.WriteString("\n\nExports:\n")
		for _, name := range m.exports {
			b.WriteString("  ")
			b.WriteString(exportStyle.Render(name))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		for i := range m.inputs {
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter run • ctrl+c quit"))

	case stateRunning:
		b.WriteString("Running...")

	case stateShowResult:
		b.WriteString("Exit code: ")
		if m.exitCode == 0 {
			b.WriteString(okStyle.Render("0"))
		} else {
			b.WriteString(errorStyle.Render(fmt.Sprintf("%d", m.exitCode)))
		}
		b.WriteString("\n")
		if m.stdout != "" {
			b.WriteString("\n--- stdout ---\n")
			b.WriteString(m.stdout)
		}
		if m.stderr != "" {
			b.WriteString("\n--- stderr ---\n")
			b.WriteString(errorStyle.Render(m.stderr))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter run again • q quit"))
	}

	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
