package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
	variablePrefixConstant          = "$"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves environment variables.
type EnvironmentLookup func(name string) (string, bool)

// Expander applies $VAR and ~ expansion to path strings.
type Expander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewExpander constructs an Expander backed by the process environment.
func NewExpander() *Expander {
	return NewExpanderWithProviders(os.UserHomeDir, os.LookupEnv)
}

// NewExpanderWithProviders constructs an Expander with custom lookups; nil arguments fall back to the process environment.
func NewExpanderWithProviders(homeDirectoryProvider HomeDirectoryProvider, environmentLookup EnvironmentLookup) *Expander {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return &Expander{homeDirectoryProvider: homeDirectoryProvider, environmentLookup: environmentLookup}
}

// Expand substitutes environment variables, then resolves a leading tilde to the home directory.
// Unknown variables are left in place.
func (expander *Expander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expandedPath := candidatePath
	if strings.Contains(expandedPath, variablePrefixConstant) {
		expandedPath = os.Expand(expandedPath, func(variableName string) string {
			if value, found := expander.environmentLookup(variableName); found {
				return value
			}
			return variablePrefixConstant + variableName
		})
	}

	return expander.expandHome(expandedPath)
}

func (expander *Expander) expandHome(candidatePath string) string {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	resolvedHomeDirectory := expander.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == tildeSymbolConstant {
		return resolvedHomeDirectory
	}

	for _, prefix := range []string{tildeForwardSlashPrefixConstant, tildeWithPathSeparatorPrefix} {
		if strings.HasPrefix(candidatePath, prefix) {
			return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(candidatePath, prefix))
		}
	}

	return candidatePath
}

func (expander *Expander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
