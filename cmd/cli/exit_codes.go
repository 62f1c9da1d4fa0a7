package cli

import (
	"errors"

	"github.com/temirov/ingit/internal/repos/inventory"
)

// Process exit codes.
const (
	ExitSuccess             = 0
	ExitFailure             = 1
	ExitConfigurationFailed = 2
	ExitSelectorFailed      = 3
)

// ErrRepositoriesFailed reports that at least one repository in the batch failed. The report
// already lists the failures, so Run does not print it again.
var ErrRepositoriesFailed = errors.New("one or more repositories failed")

// ExitCode maps a command error to the process exit code.
func ExitCode(executionError error) int {
	switch {
	case executionError == nil:
		return ExitSuccess
	case errors.Is(executionError, inventory.ErrConfigurationUnavailable):
		return ExitConfigurationFailed
	case errors.Is(executionError, inventory.ErrSelectorFailed):
		return ExitSelectorFailed
	default:
		return ExitFailure
	}
}
