package remotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/ingit/internal/repos/gitstate"
	"github.com/temirov/ingit/internal/repos/shared"
)

const (
	renamePromptTemplate = "Rename remote '%s' to '%s' in '%s'? [a/N/y] "
	setURLPromptTemplate = "Change URL of remote '%s' in '%s' from %s to %s? [a/N/y] "
	removePromptTemplate = "Remove remote '%s' (%s) from '%s'? [a/N/y] "
	addPromptTemplate    = "Add remote '%s' (%s) to '%s'? [a/N/y] "
	renamedMessage       = "REPAIR-REMOTE-DONE: %s renamed remote %s to %s\n"
	urlChangedMessage    = "REPAIR-REMOTE-DONE: %s remote %s now %s\n"
	removedMessage       = "REPAIR-REMOTE-DONE: %s removed remote %s\n"
	addedMessage         = "REPAIR-REMOTE-DONE: %s added remote %s %s\n"
	declinedMessage      = "REPAIR-REMOTE-SKIP: user declined for %s remote %s\n"
	failureMessage       = "REPAIR-REMOTE-SKIP: %s remote %s (error: %v)\n"
	repairFailedTemplate = "%s remote %s: %w"
	renameActionLabel    = "rename"
	setURLActionLabel    = "set-url"
	removeActionLabel    = "remove"
	addActionLabel       = "add"
)

// GitManager applies remote configuration changes.
type GitManager interface {
	SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	RenameRemote(executionContext context.Context, repositoryPath string, currentName string, newName string) error
	RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error
}

// Options configures a repair run for one working copy.
type Options struct {
	RepositoryPath string
	Drift          []gitstate.RemoteDrift
	AssumeYes      bool
}

// Dependencies captures collaborators required to repair remotes.
type Dependencies struct {
	GitManager GitManager
	Prompter   shared.ConfirmationPrompter
	Reporter   shared.Reporter
}

// Result counts the repairs applied and declined.
type Result struct {
	Applied  int
	Declined int
}

// Executor reconciles on-disk remotes with the registry, one confirmed change at a time.
type Executor struct {
	dependencies Dependencies
}

// NewExecutor constructs an Executor from the provided dependencies.
func NewExecutor(dependencies Dependencies) *Executor {
	return &Executor{dependencies: dependencies}
}

// Execute proposes a fix for every drift entry. Disk-side changes (renames, URL updates and
// removals) run before additions; a registry-only remote satisfied by a rename is not added again.
func (executor *Executor) Execute(executionContext context.Context, options Options) (Result, error) {
	result := Result{}
	renamedTargets := make(map[string]struct{})
	var failures []error

	apply := func(action string, remote string, prompt string, change func() error, doneMessage string, doneArguments ...any) bool {
		if !options.AssumeYes && executor.dependencies.Prompter != nil {
			confirmation, promptError := executor.dependencies.Prompter.Confirm(prompt)
			if promptError != nil {
				failures = append(failures, fmt.Errorf(repairFailedTemplate, action, remote, promptError))
				return false
			}
			if !confirmation.Confirmed {
				result.Declined++
				executor.printfOutput(declinedMessage, action, remote)
				return false
			}
		}
		if changeError := change(); changeError != nil {
			executor.printfOutput(failureMessage, action, remote, changeError)
			failures = append(failures, fmt.Errorf(repairFailedTemplate, action, remote, changeError))
			return false
		}
		result.Applied++
		executor.printfOutput(doneMessage, doneArguments...)
		return true
	}

	path := options.RepositoryPath
	manager := executor.dependencies.GitManager
	for _, drift := range options.Drift {
		switch {
		case drift.Kind == gitstate.DriftDiskOnly && len(drift.RenameTo) > 0:
			renamed := apply(renameActionLabel, drift.Remote,
				fmt.Sprintf(renamePromptTemplate, drift.Remote, drift.RenameTo, path),
				func() error { return manager.RenameRemote(executionContext, path, drift.Remote, drift.RenameTo) },
				renamedMessage, path, drift.Remote, drift.RenameTo)
			if renamed {
				renamedTargets[drift.RenameTo] = struct{}{}
			}
		case drift.Kind == gitstate.DriftDiskOnly:
			apply(removeActionLabel, drift.Remote,
				fmt.Sprintf(removePromptTemplate, drift.Remote, drift.DiskURL, path),
				func() error { return manager.RemoveRemote(executionContext, path, drift.Remote) },
				removedMessage, path, drift.Remote)
		case drift.Kind == gitstate.DriftURLMismatch:
			apply(setURLActionLabel, drift.Remote,
				fmt.Sprintf(setURLPromptTemplate, drift.Remote, path, drift.DiskURL, drift.RegistryURL),
				func() error { return manager.SetRemoteURL(executionContext, path, drift.Remote, drift.RegistryURL) },
				urlChangedMessage, path, drift.Remote, drift.RegistryURL)
		}
	}

	for _, drift := range options.Drift {
		if drift.Kind != gitstate.DriftRegistryOnly {
			continue
		}
		if _, renamed := renamedTargets[drift.Remote]; renamed {
			continue
		}
		apply(addActionLabel, drift.Remote,
			fmt.Sprintf(addPromptTemplate, drift.Remote, drift.RegistryURL, path),
			func() error { return manager.AddRemote(executionContext, path, drift.Remote, drift.RegistryURL) },
			addedMessage, path, drift.Remote, drift.RegistryURL)
	}

	return result, errors.Join(failures...)
}

// Execute performs the repair using transient executor state.
func Execute(executionContext context.Context, dependencies Dependencies, options Options) (Result, error) {
	return NewExecutor(dependencies).Execute(executionContext, options)
}

func (executor *Executor) printfOutput(format string, arguments ...any) {
	if executor.dependencies.Reporter == nil {
		return
	}
	executor.dependencies.Reporter.Printf(format, arguments...)
}
