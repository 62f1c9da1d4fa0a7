package inventory

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/resolver"
)

const (
	currentDirectoryConstant       = "."
	registerAbsolutePathTemplate   = "resolve %s: %w"
	registerDescribeTemplate       = "register %s: %w"
	registerSaveTemplate           = "save %s: %w"
	repositoryRegisteredLogMessage = "repository registered"
	repositoryNameLogField         = "repository"
	repositoryPathLogField         = "path"
	dryRunLogField                 = "dry_run"
)

// ErrSessionRequired indicates that registration was attempted without an open session.
var ErrSessionRequired = errors.New("register requires an open session")

// RegisterOptions describe one registration.
type RegisterOptions struct {
	// Path is any path inside the working copy; empty means the current directory.
	Path   string
	Tags   []string
	DryRun bool
}

// RegisterResult reports the entry that was (or would be) added.
type RegisterResult struct {
	Entry registry.RepositoryEntry
	// ResolvedPath is the working-copy root on disk.
	ResolvedPath string
	// Patch is the JSON merge patch turning the saved registry into the updated one.
	Patch []byte
	Saved bool
}

// Register reads the working copy containing options.Path, stores its path relative to the machine
// root when possible and inserts it into the main registry in name order.
func (session *Session) Register(options RegisterOptions) (RegisterResult, error) {
	if session == nil {
		return RegisterResult{}, ErrSessionRequired
	}

	requestedPath := strings.TrimSpace(options.Path)
	if len(requestedPath) == 0 {
		requestedPath = currentDirectoryConstant
	}
	absolutePath, absoluteError := filepath.Abs(session.dependencies.Expander.Expand(requestedPath))
	if absoluteError != nil {
		return RegisterResult{}, fmt.Errorf(registerAbsolutePathTemplate, requestedPath, absoluteError)
	}

	workingCopy, describeError := session.dependencies.Inspector.DescribeWorkingCopy(absolutePath)
	if describeError != nil {
		return RegisterResult{}, fmt.Errorf(registerDescribeTemplate, absolutePath, describeError)
	}

	entry := registry.RepositoryEntry{
		Name:    workingCopy.Name,
		Path:    resolver.DeriveStoredPath(workingCopy.Root, workingCopy.Name, session.Machine, session.dependencies.Expander),
		Remotes: workingCopy.Remotes,
		Tags:    uniqueTags(options.Tags),
	}

	updated := session.Registry
	updated.Repositories = append([]registry.RepositoryEntry(nil), session.Registry.Repositories...)
	if insertError := registry.InsertRepository(&updated, entry); insertError != nil {
		return RegisterResult{}, fmt.Errorf(registerDescribeTemplate, workingCopy.Root, insertError)
	}

	patch, patchError := registry.DescribeRegistryChange(session.Registry, updated)
	if patchError != nil {
		return RegisterResult{}, patchError
	}
	result := RegisterResult{Entry: entry, ResolvedPath: workingCopy.Root, Patch: patch}

	if !options.DryRun {
		if saveError := registry.SaveRepositoryRegistry(session.RegistryPath, updated); saveError != nil {
			return RegisterResult{}, fmt.Errorf(registerSaveTemplate, session.RegistryPath, saveError)
		}
		session.Registry = updated
		session.RegisteredPaths = append(session.RegisteredPaths, workingCopy.Root)
		result.Saved = true
	}

	session.dependencies.Logger.Info(
		repositoryRegisteredLogMessage,
		zap.String(repositoryNameLogField, entry.Name),
		zap.String(repositoryPathLogField, workingCopy.Root),
		zap.Bool(dryRunLogField, options.DryRun),
	)
	return result, nil
}

func uniqueTags(tags []string) []string {
	unique := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if len(trimmed) == 0 {
			continue
		}
		if _, duplicate := seen[trimmed]; duplicate {
			continue
		}
		seen[trimmed] = struct{}{}
		unique = append(unique, trimmed)
	}
	return unique
}
