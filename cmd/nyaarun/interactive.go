package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nyaavm/nyaavm/internal/asm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateShowResult
)

type interactiveModel struct {
	filename string
	mod      *asm.Module
	maxDepth int
	names    []string
	selected int
	state    modelState
	output   string
	exit     string
	err      error
}

func newInteractiveModel(filename string, mod *asm.Module, maxDepth int) *interactiveModel {
	names := make([]string, 0, len(mod.Blob.Functions))
	for _, fn := range mod.Blob.Functions {
		names = append(names, fn.Name)
	}
	sort.Strings(names)
	return &interactiveModel{filename: filename, mod: mod, maxDepth: maxDepth, names: names, state: stateSelectFunc}
}

func (m *interactiveModel) Init() tea.Cmd { return nil }

type callResultMsg struct {
	exit   string
	output string
	err    error
}

func (m *interactiveModel) callFunction() tea.Msg {
	name := m.names[m.selected]
	entryMod := &asm.Module{Externs: m.mod.Externs, Blob: m.mod.Blob}
	entryMod.Blob.Entry = name

	var out bytes.Buffer
	v, err := buildVM(entryMod, m.maxDepth, &out)
	if err != nil {
		return callResultMsg{err: err}
	}
	kind, runErr := v.Run(context.Background())
	return callResultMsg{exit: string(kind), output: out.String(), err: runErr}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.names)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.names) == 0 {
					return m, nil
				}
				return m, m.callFunction
			case stateShowResult:
				m.state = stateSelectFunc
				m.output, m.exit, m.err = "", "", nil
			}

		case "esc":
			if m.state == stateShowResult {
				m.state = stateSelectFunc
				m.output, m.exit, m.err = "", "", nil
			}
		}

	case callResultMsg:
		m.output = msg.output
		m.exit = msg.exit
		m.err = msg.err
		m.state = stateShowResult
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("nyaarun"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.names) == 0 {
			b.WriteString("No functions assembled.\n")
			break
		}
		b.WriteString("Select a function to run:\n\n")
		for i, name := range m.names {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + funcStyle.Render(name)))
			} else {
				b.WriteString(cursor + funcStyle.Render(name))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateShowResult:
		name := m.names[m.selected]
		fmt.Fprintf(&b, "Ran %s\n\n", funcStyle.Render(name))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render("Exit: " + m.exit))
		}
		if m.output != "" {
			b.WriteString("\n\n--- output ---\n")
			b.WriteString(m.output)
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(filename string, mod *asm.Module, maxDepth int) error {
	p := tea.NewProgram(newInteractiveModel(filename, mod, maxDepth), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
