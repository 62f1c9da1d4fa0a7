package shared

import (
	"context"
	"io/fs"
	"time"

	"github.com/temirov/ingit/internal/execshell"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem exposes filesystem operations required by repository services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
}

// ConfirmationResult captures the outcome of a user confirmation prompt.
type ConfirmationResult struct {
	Confirmed  bool
	ApplyToAll bool
}

// ConfirmationPrompter collects user confirmations prior to mutating actions.
type ConfirmationPrompter interface {
	Confirm(prompt string) (ConfirmationResult, error)
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteShell(executionContext context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}
