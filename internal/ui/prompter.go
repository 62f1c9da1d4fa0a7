package ui

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/temirov/ingit/internal/repos/shared"
)

// IOConfirmationPrompter reads [a/N/y] answers from an io.Reader.
type IOConfirmationPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets y/yes as confirmation and a/all as confirmation for
// every remaining prompt. Anything else, including closed input, declines.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (shared.ConfirmationResult, error) {
	response, readError := prompter.ask(prompt)
	if readError != nil {
		return shared.ConfirmationResult{}, readError
	}

	switch strings.ToLower(response) {
	case "y", "yes":
		return shared.ConfirmationResult{Confirmed: true}, nil
	case "a", "all":
		return shared.ConfirmationResult{Confirmed: true, ApplyToAll: true}, nil
	default:
		return shared.ConfirmationResult{}, nil
	}
}

func (prompter *IOConfirmationPrompter) ask(prompt string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) {
		return "", readError
	}
	return strings.TrimSpace(response), nil
}
