package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForFetchIncludesRemoteAndReferences(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"fetch", "--prune", "origin", "feature"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Fetching feature from origin in /workspace/repo", message)
}

func TestBuildStartedMessageForFetchWithoutRemoteUsesAllRemotesLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"fetch", "--prune"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Fetching from all remotes in /workspace/repo", message)
}

func TestCommandMessageFormatterStages(t *testing.T) {
	formatter := CommandMessageFormatter{}
	testCases := []struct {
		name     string
		command  ShellCommand
		build    func(command ShellCommand) string
		expected string
	}{
		{
			name:     "clone_started",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"clone", "--recursive", "--origin", "upstream", "https://example.com/a.git", "/work/a"}}},
			build:    formatter.BuildStartedMessage,
			expected: "Cloning https://example.com/a.git into /work/a in current directory",
		},
		{
			name:     "push_success",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"push", "origin", "main:main"}, WorkingDirectory: "/work/a"}},
			build:    formatter.BuildSuccessMessage,
			expected: "Pushed main:main to origin in /work/a",
		},
		{
			name:    "checkout_failure",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "feature"}, WorkingDirectory: "/work/a"}},
			build: func(command ShellCommand) string {
				return formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1, StandardError: "pathspec did not match\n"})
			},
			expected: "Failed to check out feature in /work/a (exit code 1: pathspec did not match)",
		},
		{
			name:     "gc_started_without_subject",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"gc", "--aggressive", "--prune"}, WorkingDirectory: "/work/a"}},
			build:    formatter.BuildStartedMessage,
			expected: "Collecting garbage in /work/a",
		},
		{
			name:     "remote_rename_started",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"remote", "rename", "origin", "upstream"}, WorkingDirectory: "/work/a"}},
			build:    formatter.BuildStartedMessage,
			expected: "Renaming remote origin to upstream in /work/a",
		},
		{
			name:     "remote_listing_success",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"remote", "-v"}, WorkingDirectory: "/work/a"}},
			build:    formatter.BuildSuccessMessage,
			expected: "Listed remotes in /work/a",
		},
		{
			name:    "shell_execution_failure",
			command: ShellCommand{Name: CommandShell, Details: CommandDetails{Arguments: []string{"-c", "make"}, WorkingDirectory: "/work/a"}},
			build: func(command ShellCommand) string {
				return formatter.BuildExecutionFailureMessage(command, errors.New("boom"))
			},
			expected: "sh -c make (in /work/a) failed: boom",
		},
		{
			name:     "unknown_subcommand_generic",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"describe", "--tags"}}},
			build:    formatter.BuildStartedMessage,
			expected: "Running git describe --tags",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, testCase.build(testCase.command))
		})
	}
}
