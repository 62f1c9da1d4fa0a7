package registry

import "strings"

const (
	// DocumentVersion is written into every document ingit saves.
	DocumentVersion = "1"
	// DefaultRepositoriesRoot is the root assigned to newly registered machines.
	DefaultRepositoriesRoot = "~"

	runtimeDescriptionConstant  = "ingit runtime configuration file"
	registryDescriptionConstant = "ingit repositories configuration file"
)

// Machine describes one host an operator runs ingit on.
type Machine struct {
	// Names holds hostname aliases; the empty string marks the default machine.
	Names []string
	// RepositoriesRoot is the directory implicit repository paths derive from; nil disables derivation.
	RepositoriesRoot *string
	// Interactive enables prompts; nil means interactive.
	Interactive *bool
	// ActiveName is the hostname the machine was selected for. It is not persisted.
	ActiveName string

	singleName bool
}

// IsInteractive reports whether prompts are allowed on this machine.
func (machine Machine) IsInteractive() bool {
	return machine.Interactive == nil || *machine.Interactive
}

// Matches reports whether the machine lists the name.
func (machine Machine) Matches(name string) bool {
	for _, candidate := range machine.Names {
		if candidate == name {
			return true
		}
	}
	return false
}

// RepositoryEntry is one registered working copy.
type RepositoryEntry struct {
	Name string
	// Path is an explicit path, absolute or relative to the machine root.
	Path *string
	// Paths maps machine names, or the empty default key, to paths.
	Paths   map[string]string
	Remotes RemoteSet
	Tags    []string
	// Fragment is the repos.d file the entry was read from; empty for the main registry.
	Fragment string
}

// StoredPaths returns the path strings recorded for the entry.
func (entry RepositoryEntry) StoredPaths() []string {
	if entry.Path != nil {
		return []string{*entry.Path}
	}
	paths := make([]string, 0, len(entry.Paths))
	for _, key := range sortedKeys(entry.Paths) {
		paths = append(paths, entry.Paths[key])
	}
	return paths
}

// RuntimeDocument is the parsed runtime configuration.
type RuntimeDocument struct {
	Description string
	Version     string
	Machines    []Machine
}

// RegistryDocument is the parsed repository registry.
type RegistryDocument struct {
	Description  string
	Version      string
	Repositories []RepositoryEntry
}

// DefaultRuntimeDocument returns the document synthesized when none exists.
func DefaultRuntimeDocument() RuntimeDocument {
	return RuntimeDocument{Description: runtimeDescriptionConstant, Version: DocumentVersion, Machines: []Machine{}}
}

// DefaultRegistryDocument returns the registry synthesized when none exists.
func DefaultRegistryDocument() RegistryDocument {
	return RegistryDocument{Description: registryDescriptionConstant, Version: DocumentVersion, Repositories: []RepositoryEntry{}}
}

// DefaultMachine returns the entry registered for a new hostname.
func DefaultMachine(hostname string) Machine {
	repositoriesRoot := DefaultRepositoriesRoot
	interactive := true
	return Machine{
		Names:            []string{hostname},
		RepositoriesRoot: &repositoriesRoot,
		Interactive:      &interactive,
		ActiveName:       hostname,
		singleName:       true,
	}
}

func normalizedName(name string) string {
	return strings.ToLower(name)
}
