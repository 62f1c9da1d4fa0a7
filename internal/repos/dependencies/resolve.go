package dependencies

import (
	"time"

	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/filesystem"
	"github.com/temirov/ingit/internal/repos/shared"
)

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveInspector returns the provided inspector or one backed by fileSystem.
func ResolveInspector(existing *discovery.Inspector, fileSystem shared.FileSystem) *discovery.Inspector {
	if existing != nil {
		return existing
	}
	return discovery.NewInspector(ResolveFileSystem(fileSystem))
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default that
// reports command events to observer.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor.WithObserver(observer), nil
}

// ResolveGitRepositoryManager constructs a repository manager over executor bounded by timeout.
func ResolveGitRepositoryManager(executor shared.GitExecutor, timeout time.Duration) (*gitrepo.RepositoryManager, error) {
	manager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return nil, managerError
	}
	if timeout <= 0 {
		return manager, nil
	}
	return manager.WithTimeout(timeout), nil
}
