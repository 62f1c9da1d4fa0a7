package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	selectOptionTemplate  = "  %d) %s\n"
	selectPromptTemplate  = "Choose 1-%d (empty cancels): "
	selectCancelAnswer    = "q"
	selectTitleTerminator = "\n"
)

// Selector asks the operator to pick one option. Returning false means the operator cancelled.
type Selector interface {
	Select(title string, options []string) (int, bool, error)
}

// Select lists the options with numbers and reads the chosen number. An empty answer, q or
// closed input cancels; out-of-range answers are asked again.
func (prompter *IOConfirmationPrompter) Select(title string, options []string) (int, bool, error) {
	if len(options) == 0 {
		return 0, false, nil
	}

	var listing strings.Builder
	listing.WriteString(title)
	listing.WriteString(selectTitleTerminator)
	for index, option := range options {
		fmt.Fprintf(&listing, selectOptionTemplate, index+1, option)
	}
	prompt := fmt.Sprintf(selectPromptTemplate, len(options))
	listing.WriteString(prompt)

	question := listing.String()
	for {
		response, readError := prompter.ask(question)
		if readError != nil {
			return 0, false, readError
		}
		if len(response) == 0 || strings.EqualFold(response, selectCancelAnswer) {
			return 0, false, nil
		}
		if number, parseError := strconv.Atoi(response); parseError == nil && number >= 1 && number <= len(options) {
			return number - 1, true, nil
		}
		question = prompt
	}
}

// NewSelector returns the full-screen picker when both streams are terminals and the line
// prompter otherwise.
func NewSelector(input io.Reader, output io.Writer, prompter *IOConfirmationPrompter) Selector {
	inputFile, inputIsFile := input.(*os.File)
	outputFile, outputIsFile := output.(*os.File)
	if inputIsFile && outputIsFile && isTerminal(inputFile) && isTerminal(outputFile) {
		return NewTerminalSelector(input, output)
	}
	return prompter
}

func isTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// DecliningSelector cancels every selection. Non-interactive machines use it so checkout skips
// and diverged branches stay pending.
type DecliningSelector struct{}

// Select always cancels.
func (DecliningSelector) Select(string, []string) (int, bool, error) {
	return 0, false, nil
}
