package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/shared"
)

const (
	openWorkingCopyErrorTemplateConstant   = "open working copy %s: %w"
	readWorkingCopyConfigTemplateConstant  = "read git configuration of %s: %w"
	resolveWorkingCopyRootTemplateConstant = "resolve working tree of %s: %w"
)

// Liveness classifies a resolved path on disk.
type Liveness string

// Supported liveness values.
const (
	LivenessWorkingCopy    Liveness = "working-copy"
	LivenessNotWorkingCopy Liveness = "exists-not-working-copy"
	LivenessMissing        Liveness = "missing"
)

// ErrNotWorkingCopy indicates that a directory is not inside a git working copy.
var ErrNotWorkingCopy = errors.New("not a git working copy")

// WorkingCopy describes a working copy found on disk.
type WorkingCopy struct {
	Root    string
	Name    string
	Remotes registry.RemoteSet
}

// Inspector examines directories with go-git without invoking the git executable.
type Inspector struct {
	fileSystem shared.FileSystem
}

// NewInspector constructs an Inspector over the provided file system.
func NewInspector(fileSystem shared.FileSystem) *Inspector {
	return &Inspector{fileSystem: fileSystem}
}

// Liveness reports whether path is missing, a plain directory or a working copy.
func (inspector *Inspector) Liveness(path string) Liveness {
	information, statError := inspector.fileSystem.Stat(path)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return LivenessMissing
		}
		return LivenessNotWorkingCopy
	}
	if !information.IsDir() {
		return LivenessNotWorkingCopy
	}
	if _, openError := git.PlainOpen(path); openError != nil {
		return LivenessNotWorkingCopy
	}
	return LivenessWorkingCopy
}

// DescribeWorkingCopy opens the working copy containing path. Remotes are ordered with the
// remote tracked by the checked-out branch first and the rest by name.
func (inspector *Inspector) DescribeWorkingCopy(path string) (WorkingCopy, error) {
	repository, openError := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		if errors.Is(openError, git.ErrRepositoryNotExists) {
			return WorkingCopy{}, fmt.Errorf(openWorkingCopyErrorTemplateConstant, path, ErrNotWorkingCopy)
		}
		return WorkingCopy{}, fmt.Errorf(openWorkingCopyErrorTemplateConstant, path, openError)
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return WorkingCopy{}, fmt.Errorf(resolveWorkingCopyRootTemplateConstant, path, worktreeError)
	}
	root := worktree.Filesystem.Root()
	if absoluteRoot, absoluteError := inspector.fileSystem.Abs(root); absoluteError == nil {
		root = absoluteRoot
	}

	configuration, configurationError := repository.Config()
	if configurationError != nil {
		return WorkingCopy{}, fmt.Errorf(readWorkingCopyConfigTemplateConstant, path, configurationError)
	}

	defaultRemote := ""
	if head, headError := repository.Storer.Reference(plumbing.HEAD); headError == nil && head.Type() == plumbing.SymbolicReference {
		if branch, tracked := configuration.Branches[head.Target().Short()]; tracked {
			defaultRemote = branch.Remote
		}
	}

	remoteNames := make([]string, 0, len(configuration.Remotes))
	for remoteName := range configuration.Remotes {
		remoteNames = append(remoteNames, remoteName)
	}
	sort.SliceStable(remoteNames, func(first int, second int) bool {
		if (remoteNames[first] == defaultRemote) != (remoteNames[second] == defaultRemote) {
			return remoteNames[first] == defaultRemote
		}
		return remoteNames[first] < remoteNames[second]
	})

	remotes := registry.RemoteSet{}
	for _, remoteName := range remoteNames {
		urls := configuration.Remotes[remoteName].URLs
		if len(urls) == 0 {
			continue
		}
		remotes.Set(remoteName, urls[0])
	}

	return WorkingCopy{Root: root, Name: filepath.Base(root), Remotes: remotes}, nil
}
