// Package resolver turns registry entries into absolute working-copy paths for the active machine
// and derives the stored form of a path when a repository is registered.
package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/discovery"
)

const (
	defaultPathKeyConstant                    = ""
	parentDirectoryConstant                   = ".."
	currentDirectoryConstant                  = "."
	unresolvableTemplateConstant              = "%w: repo %q: %s"
	relativePathWithoutRootReasonConstant     = "relative path %q but machine has no repos_path"
	missingPathMapEntryReasonTemplateConstant = "no path recorded for machine %s"
	implicitPathWithoutRootReasonConstant     = "no path recorded and machine has no repos_path"
	machineNamesSeparatorConstant             = ", "
	unnamedMachineLabelConstant               = "(default)"
)

// ErrUnresolvable marks a repository whose path cannot be determined on the active machine.
var ErrUnresolvable = errors.New("unresolvable repository path")

// PathExpander expands $VAR references and a leading tilde.
type PathExpander interface {
	Expand(path string) string
}

// LivenessInspector classifies a path on disk.
type LivenessInspector interface {
	Liveness(path string) discovery.Liveness
}

// ResolvedRepository pairs an entry with its location on the active machine.
type ResolvedRepository struct {
	Entry    registry.RepositoryEntry
	Path     string
	Liveness discovery.Liveness
	// Err is set, wrapping ErrUnresolvable, when Path could not be determined.
	Err error
}

// Name returns the registered repository name.
func (repository ResolvedRepository) Name() string {
	return repository.Entry.Name
}

// Unresolvable reports whether the path could not be determined.
func (repository ResolvedRepository) Unresolvable() bool {
	return repository.Err != nil
}

// IsWorkingCopy reports whether the resolved path holds a working copy.
func (repository ResolvedRepository) IsWorkingCopy() bool {
	return repository.Err == nil && repository.Liveness == discovery.LivenessWorkingCopy
}

// ResolvePath computes the absolute path of entry on machine.
func ResolvePath(entry registry.RepositoryEntry, machine registry.Machine, expander PathExpander) (string, error) {
	root, hasRoot := machineRoot(machine, expander)

	switch {
	case entry.Path != nil:
		return resolveStoredPath(entry.Name, *entry.Path, root, hasRoot, expander)
	case entry.Paths != nil:
		for _, key := range pathLookupKeys(machine) {
			if storedPath, found := entry.Paths[key]; found {
				return resolveStoredPath(entry.Name, storedPath, root, hasRoot, expander)
			}
		}
		return "", unresolvable(entry.Name, fmt.Sprintf(missingPathMapEntryReasonTemplateConstant, describeMachine(machine)))
	case hasRoot:
		return filepath.Join(root, entry.Name), nil
	default:
		return "", unresolvable(entry.Name, implicitPathWithoutRootReasonConstant)
	}
}

// DeriveStoredPath returns the value to record for a working copy at absolutePath: nil when the
// path is the implicit root/name, a root-relative path when it lies under the root, and the
// absolute path otherwise.
func DeriveStoredPath(absolutePath string, name string, machine registry.Machine, expander PathExpander) *string {
	cleanedPath := filepath.Clean(absolutePath)
	root, hasRoot := machineRoot(machine, expander)
	if !hasRoot {
		return &cleanedPath
	}

	if cleanedPath == filepath.Join(root, name) {
		return nil
	}

	relativePath, relativeError := filepath.Rel(root, cleanedPath)
	if relativeError != nil || relativePath == currentDirectoryConstant || relativePath == parentDirectoryConstant || strings.HasPrefix(relativePath, parentDirectoryConstant+string(filepath.Separator)) {
		return &cleanedPath
	}
	return &relativePath
}

// Resolve resolves every entry and attaches liveness. Unresolvable entries carry their error and
// are never inspected.
func Resolve(entries []registry.RepositoryEntry, machine registry.Machine, expander PathExpander, inspector LivenessInspector) []ResolvedRepository {
	resolved := make([]ResolvedRepository, 0, len(entries))
	for _, entry := range entries {
		resolvedPath, resolveError := ResolvePath(entry, machine, expander)
		if resolveError != nil {
			resolved = append(resolved, ResolvedRepository{Entry: entry, Err: resolveError})
			continue
		}
		resolved = append(resolved, ResolvedRepository{Entry: entry, Path: resolvedPath, Liveness: inspector.Liveness(resolvedPath)})
	}
	return resolved
}

// MachineRoot returns the expanded, absolute repositories root of machine.
func MachineRoot(machine registry.Machine, expander PathExpander) (string, bool) {
	return machineRoot(machine, expander)
}

func machineRoot(machine registry.Machine, expander PathExpander) (string, bool) {
	if machine.RepositoriesRoot == nil {
		return "", false
	}
	root := expander.Expand(strings.TrimSpace(*machine.RepositoriesRoot))
	if len(root) == 0 {
		return "", false
	}
	if absoluteRoot, absoluteError := filepath.Abs(root); absoluteError == nil {
		return absoluteRoot, true
	}
	return filepath.Clean(root), true
}

func resolveStoredPath(name string, storedPath string, root string, hasRoot bool, expander PathExpander) (string, error) {
	expandedPath := expander.Expand(storedPath)
	if filepath.IsAbs(expandedPath) {
		return filepath.Clean(expandedPath), nil
	}
	if !hasRoot {
		return "", unresolvable(name, fmt.Sprintf(relativePathWithoutRootReasonConstant, storedPath))
	}
	return filepath.Join(root, expandedPath), nil
}

func pathLookupKeys(machine registry.Machine) []string {
	keys := make([]string, 0, len(machine.Names)+2)
	if len(machine.ActiveName) > 0 {
		keys = append(keys, machine.ActiveName)
	}
	keys = append(keys, machine.Names...)
	return append(keys, defaultPathKeyConstant)
}

func describeMachine(machine registry.Machine) string {
	labels := make([]string, 0, len(machine.Names))
	for _, name := range machine.Names {
		if len(name) == 0 {
			labels = append(labels, unnamedMachineLabelConstant)
			continue
		}
		labels = append(labels, fmt.Sprintf("%q", name))
	}
	return strings.Join(labels, machineNamesSeparatorConstant)
}

func unresolvable(name string, reason string) error {
	return fmt.Errorf(unresolvableTemplateConstant, ErrUnresolvable, name, reason)
}
