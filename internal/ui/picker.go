package ui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	pickerCursor      = "> "
	pickerFooter      = "up/down or j/k to move, enter to choose, esc or q to cancel"
	pickerRunTemplate = "run picker: %w"
	noChoice          = -1
)

// TerminalSelector shows a full-screen list on a terminal.
type TerminalSelector struct {
	input  io.Reader
	output io.Writer
}

// NewTerminalSelector constructs a TerminalSelector over the provided streams.
func NewTerminalSelector(input io.Reader, output io.Writer) *TerminalSelector {
	return &TerminalSelector{input: input, output: output}
}

// Select runs the picker until the operator chooses or cancels.
func (selector *TerminalSelector) Select(title string, options []string) (int, bool, error) {
	if len(options) == 0 {
		return 0, false, nil
	}
	program := tea.NewProgram(newPickerModel(title, options), tea.WithInput(selector.input), tea.WithOutput(selector.output))
	finalModel, runError := program.Run()
	if runError != nil {
		return 0, false, fmt.Errorf(pickerRunTemplate, runError)
	}
	picked, isPicker := finalModel.(pickerModel)
	if !isPicker || picked.chosen == noChoice {
		return 0, false, nil
	}
	return picked.chosen, true, nil
}

type pickerModel struct {
	title   string
	options []string
	cursor  int
	chosen  int
	done    bool
}

func newPickerModel(title string, options []string) pickerModel {
	return pickerModel{title: title, options: options, chosen: noChoice}
}

func (model pickerModel) Init() tea.Cmd {
	return nil
}

func (model pickerModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	keyMessage, isKey := message.(tea.KeyMsg)
	if !isKey {
		return model, nil
	}

	switch keyMessage.String() {
	case "up", "k":
		if model.cursor > 0 {
			model.cursor--
		}
	case "down", "j":
		if model.cursor < len(model.options)-1 {
			model.cursor++
		}
	case "home", "g":
		model.cursor = 0
	case "end", "G":
		model.cursor = len(model.options) - 1
	case "enter":
		model.chosen = model.cursor
		model.done = true
		return model, tea.Quit
	case "esc", "q", "ctrl+c":
		model.chosen = noChoice
		model.done = true
		return model, tea.Quit
	}
	return model, nil
}

func (model pickerModel) View() string {
	if model.done {
		return ""
	}

	var view strings.Builder
	view.WriteString(pickerTitleStyle.Render(model.title))
	view.WriteString("\n")
	for index, option := range model.options {
		if index == model.cursor {
			view.WriteString(pickerSelectedStyle.Render(pickerCursor + option))
		} else {
			view.WriteString(pickerOptionStyle.Render(option))
		}
		view.WriteString("\n")
	}
	view.WriteString(pickerFooterStyle.Render(pickerFooter))
	view.WriteString("\n")
	return view.String()
}
