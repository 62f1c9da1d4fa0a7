package pathutils

import (
	"path/filepath"
	"strings"
)

// PathExpander expands $VAR references and a leading tilde.
type PathExpander interface {
	Expand(candidatePath string) string
}

// RepositoryPathSanitizer normalizes resolved repository paths into unique absolute paths.
type RepositoryPathSanitizer struct {
	expander PathExpander
}

// NewRepositoryPathSanitizer constructs a RepositoryPathSanitizer; a nil expander uses the process environment.
func NewRepositoryPathSanitizer(expander PathExpander) *RepositoryPathSanitizer {
	if expander == nil {
		expander = NewExpander()
	}
	return &RepositoryPathSanitizer{expander: expander}
}

// Sanitize trims whitespace, expands variables and the home directory, makes paths absolute and
// drops blanks and duplicates while keeping the first occurrence order.
func (sanitizer *RepositoryPathSanitizer) Sanitize(candidatePaths []string) []string {
	sanitizedPaths := make([]string, 0, len(candidatePaths))
	seenPaths := make(map[string]struct{}, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		trimmedCandidate := strings.TrimSpace(candidatePath)
		if len(trimmedCandidate) == 0 {
			continue
		}

		absolutePath := canonicalizePath(sanitizer.expander.Expand(trimmedCandidate))
		if _, seen := seenPaths[absolutePath]; seen {
			continue
		}
		seenPaths[absolutePath] = struct{}{}
		sanitizedPaths = append(sanitizedPaths, absolutePath)
	}

	if len(sanitizedPaths) == 0 {
		return nil
	}
	return sanitizedPaths
}

func canonicalizePath(path string) string {
	cleanedPath := filepath.Clean(path)
	absolutePath, absoluteError := filepath.Abs(cleanedPath)
	if absoluteError == nil {
		return absolutePath
	}
	return cleanedPath
}
