package execshell_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ingit/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testGitWrapperCaseNameConstant               = "git_wrapper"
	testShellWrapperCaseNameConstant             = "shell_wrapper"
	testShellCommandLineConstant                 = "make test"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New("runner failure"),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner)
			require.NoError(testInstance, creationError)

			commandDetails := execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant}
			executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), commandDetails)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			require.Len(testInstance, observerLogs.All(), testCase.expectedLogCount)
		})
	}
}

func TestShellExecutorWrappersSetCommandNames(testInstance *testing.T) {
	observerCore, _ := observer.New(zap.DebugLevel)
	logger := zap.New(observerCore)

	testCases := []struct {
		name            string
		invoke          func(executor *execshell.ShellExecutor) error
		expectedCommand execshell.CommandName
	}{
		{
			name: testGitWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandGit,
		},
		{
			name: testShellWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteShell(context.Background(), testShellCommandLineConstant, execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandShell,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{
				executionResult: execshell.ExecutionResult{ExitCode: 1},
			}

			executor, creationError := execshell.NewShellExecutor(logger, recordingRunner)
			require.NoError(testInstance, creationError)

			executionError := testCase.invoke(executor)
			require.Error(testInstance, executionError)
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			recordedCommand := recordingRunner.recordedCommands[0]
			require.Equal(testInstance, testCase.expectedCommand, recordedCommand.Name)
		})
	}
}

func TestShellExecutorShellWrapperPassesCommandLine(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteShell(context.Background(), testShellCommandLineConstant, execshell.CommandDetails{WorkingDirectory: testWorkingDirectoryConstant})
	require.NoError(testInstance, executionError)
	require.Len(testInstance, recordingRunner.recordedCommands, 1)
	require.Equal(testInstance, []string{"-c", testShellCommandLineConstant}, recordingRunner.recordedCommands[0].Details.Arguments)
	require.Equal(testInstance, testWorkingDirectoryConstant, recordingRunner.recordedCommands[0].Details.WorkingDirectory)
}

type blockingCommandRunner struct{}

func (blockingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	<-executionContext.Done()
	return execshell.ExecutionResult{}, executionContext.Err()
}

func TestShellExecutorTimeoutProducesTimeoutError(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), blockingCommandRunner{})
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteShell(context.Background(), "sleep 10", execshell.CommandDetails{Timeout: 20 * time.Millisecond})
	require.Error(testInstance, executionError)

	var timeoutError execshell.CommandTimeoutError
	require.ErrorAs(testInstance, executionError, &timeoutError)
	require.ErrorIs(testInstance, executionError, context.DeadlineExceeded)
	require.Equal(testInstance, 20*time.Millisecond, timeoutError.Timeout)
	require.Len(testInstance, observerLogs.All(), 2)
}

func TestExitCodeExtraction(testInstance *testing.T) {
	failure := execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 3}}
	exitCode, found := execshell.ExitCode(fmt.Errorf("wrapped: %w", failure))
	require.True(testInstance, found)
	require.Equal(testInstance, 3, exitCode)

	_, found = execshell.ExitCode(errors.New("other"))
	require.False(testInstance, found)
}

type recordingObserver struct {
	started   int
	completed int
	failed    int
}

func (recorder *recordingObserver) CommandStarted(execshell.ShellCommand) { recorder.started++ }

func (recorder *recordingObserver) CommandCompleted(execshell.ShellCommand, execshell.ExecutionResult) {
	recorder.completed++
}

func (recorder *recordingObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	recorder.failed++
}

func TestShellExecutorNotifiesObserver(testInstance *testing.T) {
	runner := &recordingCommandRunner{executionError: errors.New("not found")}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, creationError)

	events := &recordingObserver{}
	_, executionError := executor.WithObserver(events).ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"status"}})
	require.Error(testInstance, executionError)
	require.Equal(testInstance, 1, events.started)
	require.Equal(testInstance, 0, events.completed)
	require.Equal(testInstance, 1, events.failed)
}
