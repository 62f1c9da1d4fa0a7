package gitrepo_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/gitrepo"
)

const testRepositoryPathConstant = "/work/alpha"

type scriptedResponse struct {
	output   string
	exitCode int
}

type scriptedGitExecutor struct {
	responses map[string]scriptedResponse
	calls     []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.calls = append(executor.calls, details)
	response := executor.responses[strings.Join(details.Arguments, " ")]
	result := execshell.ExecutionResult{StandardOutput: response.output, ExitCode: response.exitCode}
	if response.exitCode != 0 {
		return result, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details}, Result: result}
	}
	return result, nil
}

func newScriptedManager(testInstance *testing.T, responses map[string]scriptedResponse) (*gitrepo.RepositoryManager, *scriptedGitExecutor) {
	testInstance.Helper()
	executor := &scriptedGitExecutor{responses: responses}
	manager, managerError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, managerError)
	return manager, executor
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	manager, managerError := gitrepo.NewRepositoryManager(nil)
	require.Nil(testInstance, manager)
	require.ErrorIs(testInstance, managerError, gitrepo.ErrExecutorNotConfigured)
}

func TestRepositoryManagerResolveHead(testInstance *testing.T) {
	testCases := []struct {
		name             string
		responses        map[string]scriptedResponse
		expectedBranch   string
		expectedCommit   string
		expectedDetached bool
	}{
		{
			name: "attached",
			responses: map[string]scriptedResponse{
				"symbolic-ref --quiet --short HEAD": {output: "main\n"},
				"rev-parse --verify --quiet HEAD":   {output: "abc123\n"},
			},
			expectedBranch: "main",
			expectedCommit: "abc123",
		},
		{
			name: "detached",
			responses: map[string]scriptedResponse{
				"symbolic-ref --quiet --short HEAD": {exitCode: 1},
				"rev-parse --verify --quiet HEAD":   {output: "def456\n"},
			},
			expectedCommit:   "def456",
			expectedDetached: true,
		},
		{
			name: "unborn",
			responses: map[string]scriptedResponse{
				"symbolic-ref --quiet --short HEAD": {output: "main\n"},
				"rev-parse --verify --quiet HEAD":   {exitCode: 1},
			},
			expectedBranch: "main",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, _ := newScriptedManager(testInstance, testCase.responses)
			head, headError := manager.ResolveHead(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, headError)
			require.Equal(testInstance, testCase.expectedBranch, head.Branch)
			require.Equal(testInstance, testCase.expectedCommit, head.Commit)
			require.Equal(testInstance, testCase.expectedDetached, head.Detached())
		})
	}
}

func TestRepositoryManagerSurfacesUnexpectedExitCodes(testInstance *testing.T) {
	manager, _ := newScriptedManager(testInstance, map[string]scriptedResponse{
		"symbolic-ref --quiet --short HEAD": {exitCode: 128},
	})
	_, branchError := manager.GetCurrentBranch(context.Background(), testRepositoryPathConstant)

	exitCode, exited := execshell.ExitCode(branchError)
	require.True(testInstance, exited)
	require.Equal(testInstance, 128, exitCode)
}

func TestRepositoryManagerListsReferences(testInstance *testing.T) {
	manager, _ := newScriptedManager(testInstance, map[string]scriptedResponse{
		"for-each-ref --format=%(refname:short)%09%(upstream:short)%09%(upstream:remotename) refs/heads": {
			output: "main\torigin/main\torigin\nfeature\t\t\n",
		},
		"for-each-ref --format=%(refname)%09%(symref) refs/remotes": {
			output: "refs/remotes/origin/HEAD\trefs/remotes/origin/main\nrefs/remotes/origin/main\t\nrefs/remotes/team/upstream/topic/x\t\n",
		},
		"for-each-ref --format=%(refname:short) refs/tags": {output: "v1.0.0\nv1.1.0\n"},
	})

	localBranches, localError := manager.ListLocalBranches(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, localError)
	require.Equal(testInstance, []gitrepo.LocalBranch{
		{Name: "main", Upstream: "origin/main", UpstreamRemote: "origin"},
		{Name: "feature"},
	}, localBranches)

	remoteBranches, remoteError := manager.ListRemoteBranches(context.Background(), testRepositoryPathConstant, []string{"origin", "team/upstream"})
	require.NoError(testInstance, remoteError)
	require.Equal(testInstance, []gitrepo.RemoteBranch{
		{Remote: "origin", Name: "main"},
		{Remote: "team/upstream", Name: "topic/x"},
	}, remoteBranches)
	require.Equal(testInstance, "team/upstream/topic/x", remoteBranches[1].ShortName())

	tags, tagError := manager.ListTags(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, tagError)
	require.Equal(testInstance, []string{"v1.0.0", "v1.1.0"}, tags)
}

func TestRepositoryManagerCountsAndLogs(testInstance *testing.T) {
	manager, _ := newScriptedManager(testInstance, map[string]scriptedResponse{
		"rev-list --count origin/main..main":        {output: "3\n"},
		"rev-list --count main..origin/main":        {output: "not-a-number\n"},
		"log --pretty=oneline origin/main..main":    {output: "a1 first\na2 second\n"},
		"merge-base --is-ancestor main origin/main": {exitCode: 1},
	})

	ahead, aheadError := manager.CountCommits(context.Background(), testRepositoryPathConstant, "origin/main", "main")
	require.NoError(testInstance, aheadError)
	require.Equal(testInstance, 3, ahead)

	_, parseError := manager.CountCommits(context.Background(), testRepositoryPathConstant, "main", "origin/main")
	require.Error(testInstance, parseError)

	entries, logError := manager.LogRange(context.Background(), testRepositoryPathConstant, "origin/main", "main")
	require.NoError(testInstance, logError)
	require.Equal(testInstance, []string{"a1 first", "a2 second"}, entries)

	isAncestor, ancestorError := manager.IsAncestor(context.Background(), testRepositoryPathConstant, "main", "origin/main")
	require.NoError(testInstance, ancestorError)
	require.False(testInstance, isAncestor)
}

func TestRepositoryManagerStatusAndRemotes(testInstance *testing.T) {
	manager, executor := newScriptedManager(testInstance, map[string]scriptedResponse{
		"status --short --branch --ignored": {output: "## main...origin/main [ahead 1]\n M tracked.go\n?? new.txt\n!! build/\n"},
		"remote -v": {output: "origin\thttps://example.com/alpha.git (fetch)\norigin\tgit@example.com:alpha.git (push)\nbackup\tC:\\mirror\\alpha (fetch)\n"},
	})
	timedManager := manager.WithTimeout(5 * time.Second)

	status, statusError := timedManager.Status(context.Background(), testRepositoryPathConstant, true)
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, "main...origin/main [ahead 1]", status.BranchHeader)
	require.Equal(testInstance, []string{" M tracked.go"}, status.Changes)
	require.Equal(testInstance, []string{"new.txt"}, status.Untracked)
	require.Equal(testInstance, []string{"build/"}, status.Ignored)
	require.True(testInstance, status.Dirty())
	require.Equal(testInstance, 5*time.Second, executor.calls[0].Timeout)
	require.Equal(testInstance, testRepositoryPathConstant, executor.calls[0].WorkingDirectory)

	remotes, remotesError := manager.ListRemotes(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, remotesError)
	require.Equal(testInstance, []string{"origin", "backup"}, remotes.Names())
	backupURL, found := remotes.Lookup("backup")
	require.True(testInstance, found)
	require.Equal(testInstance, `C:\mirror\alpha`, backupURL)
}

func TestParseShortStatusCleanTree(testInstance *testing.T) {
	status := gitrepo.ParseShortStatus("## main\n")
	require.False(testInstance, status.Dirty())
	require.Equal(testInstance, "main", status.BranchHeader)
}

func TestRepositoryManagerMutations(testInstance *testing.T) {
	manager, executor := newScriptedManager(testInstance, map[string]scriptedResponse{})
	executionContext := context.Background()

	require.NoError(testInstance, manager.Checkout(executionContext, testRepositoryPathConstant, "--track", "origin/feature"))
	require.NoError(testInstance, manager.MergeFastForward(executionContext, testRepositoryPathConstant, "origin/main"))
	require.NoError(testInstance, manager.MergeWithLog(executionContext, testRepositoryPathConstant, "origin/main"))
	require.NoError(testInstance, manager.ResetHard(executionContext, testRepositoryPathConstant, "origin/main"))
	require.NoError(testInstance, manager.RebaseInteractive(executionContext, testRepositoryPathConstant, "origin/main"))
	require.NoError(testInstance, manager.AddRemote(executionContext, testRepositoryPathConstant, "backup", "https://example.com/b.git"))
	require.NoError(testInstance, manager.RenameRemote(executionContext, testRepositoryPathConstant, "backup", "mirror"))
	require.NoError(testInstance, manager.SetRemoteURL(executionContext, testRepositoryPathConstant, "mirror", "https://example.com/c.git"))
	require.NoError(testInstance, manager.RemoveRemote(executionContext, testRepositoryPathConstant, "mirror"))

	recordedCommands := make([]string, 0, len(executor.calls))
	for _, call := range executor.calls {
		recordedCommands = append(recordedCommands, strings.Join(call.Arguments, " "))
	}
	require.Equal(testInstance, []string{
		"checkout --track origin/feature",
		"merge --ff-only origin/main",
		"merge --log origin/main",
		"reset --hard origin/main",
		"rebase --interactive origin/main",
		"remote add backup https://example.com/b.git",
		"remote rename backup mirror",
		"remote set-url mirror https://example.com/c.git",
		"remote remove mirror",
	}, recordedCommands)
	require.True(testInstance, executor.calls[4].AttachTerminal)
	require.False(testInstance, executor.calls[0].AttachTerminal)
}

func TestRepositoryManagerRequiresPath(testInstance *testing.T) {
	manager, executor := newScriptedManager(testInstance, map[string]scriptedResponse{})
	_, statusError := manager.Status(context.Background(), "", false)
	require.ErrorIs(testInstance, statusError, gitrepo.ErrRepositoryPathRequired)
	require.Empty(testInstance, executor.calls)
}

func TestEquivalentRemoteURLs(testInstance *testing.T) {
	testCases := []struct {
		name     string
		first    string
		second   string
		expected bool
	}{
		{name: "ssh_and_https", first: "git@github.com:temirov/ingit.git", second: "https://github.com/temirov/ingit.git", expected: true},
		{name: "case_insensitive", first: "https://GitHub.com/Temirov/ingit", second: "https://github.com/temirov/ingit.git", expected: true},
		{name: "different_owner", first: "https://github.com/temirov/ingit.git", second: "https://github.com/other/ingit.git"},
		{name: "unparseable", first: "/srv/git/ingit", second: "/srv/git/ingit"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, gitrepo.EquivalentRemoteURLs(testCase.first, testCase.second))
		})
	}
}
