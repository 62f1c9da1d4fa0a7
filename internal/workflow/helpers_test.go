package workflow_test

import (
	"context"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/resolver"
	"github.com/temirov/ingit/internal/repos/shared"
	"github.com/temirov/ingit/internal/workflow"
)

const shellCallPrefix = "sh: "

type scriptedResponse struct {
	output   string
	stderr   string
	exitCode int
	timeout  bool
}

type recordedCall struct {
	arguments string
	directory string
	timeout   time.Duration
}

type scriptedExecutor struct {
	mutex     sync.Mutex
	responses map[string]scriptedResponse
	calls     []recordedCall
}

func newScriptedExecutor(responses map[string]scriptedResponse) *scriptedExecutor {
	if responses == nil {
		responses = map[string]scriptedResponse{}
	}
	return &scriptedExecutor{responses: responses}
}

func (executor *scriptedExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.respond(execshell.CommandGit, strings.Join(details.Arguments, " "), details)
}

func (executor *scriptedExecutor) ExecuteShell(_ context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.respond(execshell.CommandShell, shellCallPrefix+commandLine, details)
}

func (executor *scriptedExecutor) respond(name execshell.CommandName, key string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.calls = append(executor.calls, recordedCall{arguments: key, directory: details.WorkingDirectory, timeout: details.Timeout})

	response := executor.responses[key]
	command := execshell.ShellCommand{Name: name, Details: details}
	result := execshell.ExecutionResult{StandardOutput: response.output, StandardError: response.stderr, ExitCode: response.exitCode}
	switch {
	case response.timeout:
		return result, execshell.CommandTimeoutError{Command: command, Timeout: details.Timeout}
	case response.exitCode != 0:
		return result, execshell.CommandFailedError{Command: command, Result: result}
	}
	return result, nil
}

func (executor *scriptedExecutor) arguments() []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	arguments := make([]string, 0, len(executor.calls))
	for _, call := range executor.calls {
		arguments = append(arguments, call.arguments)
	}
	return arguments
}

type fakeDirEntry struct {
	name string
}

func (entry fakeDirEntry) Name() string               { return entry.name }
func (entry fakeDirEntry) IsDir() bool                { return false }
func (entry fakeDirEntry) Type() fs.FileMode          { return 0 }
func (entry fakeDirEntry) Info() (fs.FileInfo, error) { return nil, fs.ErrNotExist }

type fakeFileSystem struct {
	mutex       sync.Mutex
	directories map[string][]string
	created     []string
}

func (fileSystem *fakeFileSystem) Stat(string) (fs.FileInfo, error) {
	return nil, fs.ErrNotExist
}

func (fileSystem *fakeFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	names, exists := fileSystem.directories[path]
	if !exists {
		return nil, fs.ErrNotExist
	}
	entries := make([]fs.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, fakeDirEntry{name: name})
	}
	return entries, nil
}

func (fileSystem *fakeFileSystem) Abs(path string) (string, error) {
	return path, nil
}

func (fileSystem *fakeFileSystem) MkdirAll(path string, _ fs.FileMode) error {
	fileSystem.mutex.Lock()
	defer fileSystem.mutex.Unlock()
	fileSystem.created = append(fileSystem.created, path)
	return nil
}

type scriptedPrompter struct {
	answers []shared.ConfirmationResult
	prompts []string
}

func (prompter *scriptedPrompter) Confirm(prompt string) (shared.ConfirmationResult, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	if len(prompter.answers) == 0 {
		return shared.ConfirmationResult{}, nil
	}
	answer := prompter.answers[0]
	prompter.answers = prompter.answers[1:]
	return answer, nil
}

func newTestEnvironment(testInstance *testing.T, executor *scriptedExecutor, fileSystem shared.FileSystem, gate *workflow.ConfirmationGate) *workflow.Environment {
	testInstance.Helper()
	runner, runnerError := workflow.NewPlanRunner(executor, time.Minute)
	require.NoError(testInstance, runnerError)
	manager, managerError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, managerError)
	if fileSystem == nil {
		fileSystem = &fakeFileSystem{}
	}
	return &workflow.Environment{
		Plans:         runner,
		Repositories:  manager,
		FileSystem:    fileSystem,
		Confirmations: gate,
	}
}

func resolvedRepository(name string, path string, liveness discovery.Liveness, remotes ...registry.Remote) resolver.ResolvedRepository {
	return resolver.ResolvedRepository{
		Entry:    registry.RepositoryEntry{Name: name, Remotes: registry.NewRemoteSet(remotes...)},
		Path:     path,
		Liveness: liveness,
	}
}
