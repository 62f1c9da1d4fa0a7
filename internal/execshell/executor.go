package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor requires a logger"
	commandRunnerNotConfiguredMessageConstant = "shell executor requires a command runner"
	commandFailedTemplateConstant             = "%s exited with code %d%s"
	commandExecutionFailedTemplateConstant    = "%s could not be executed: %v"
	commandTimedOutTemplateConstant           = "%s timed out after %s"
	commandStartedLogMessageConstant          = "executing command"
	commandCompletedLogMessageConstant        = "command completed"
	commandFailedLogMessageConstant           = "command failed"
	commandAbortedLogMessageConstant          = "command aborted"
	logFieldCommandConstant                   = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldTimeoutConstant                   = "timeout"
	logFieldDurationConstant                  = "duration"
	shellCommandFlagConstant                  = "-c"
)

// CommandName identifies an executable supported by the executor.
type CommandName string

// Supported executables.
const (
	CommandGit   CommandName = "git"
	CommandShell CommandName = "sh"
)

// CommandDetails describes a single invocation of an external tool.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	// Timeout bounds the invocation; zero means no limit beyond the caller context.
	Timeout time.Duration
	// AttachTerminal connects the process to the operator's terminal instead of capturing output.
	AttachTerminal bool
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner starts processes.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates a missing logger dependency.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates a missing runner dependency.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a process that exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

func (failure CommandFailedError) Error() string {
	standardErrorSuffix := ""
	if trimmed := strings.TrimSpace(failure.Result.StandardError); len(trimmed) > 0 {
		standardErrorSuffix = ": " + trimmed
	}
	return fmt.Sprintf(commandFailedTemplateConstant, describeCommand(failure.Command), failure.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, describeCommand(failure.Command), failure.Cause)
}

func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// CommandTimeoutError reports a process terminated because its timeout elapsed.
type CommandTimeoutError struct {
	Command ShellCommand
	Timeout time.Duration
}

func (failure CommandTimeoutError) Error() string {
	return fmt.Sprintf(commandTimedOutTemplateConstant, describeCommand(failure.Command), failure.Timeout)
}

func (failure CommandTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// ExitCode extracts the exit code of a CommandFailedError, reporting false for other errors.
func ExitCode(executionError error) (int, bool) {
	var failedError CommandFailedError
	if !errors.As(executionError, &failedError) {
		return 0, false
	}
	return failedError.Result.ExitCode, true
}

// ShellExecutor runs external tools, logging each invocation and notifying an observer.
type ShellExecutor struct {
	logger   *zap.Logger
	runner   CommandRunner
	observer CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner, observer: noopCommandEventObserver{}}, nil
}

// WithObserver returns a copy of the executor reporting lifecycle events to observer.
func (executor *ShellExecutor) WithObserver(observer CommandEventObserver) *ShellExecutor {
	duplicate := *executor
	if observer == nil {
		observer = noopCommandEventObserver{}
	}
	duplicate.observer = observer
	return &duplicate
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteShell runs a shell command line with the provided details.
func (executor *ShellExecutor) ExecuteShell(executionContext context.Context, commandLine string, details CommandDetails) (ExecutionResult, error) {
	details.Arguments = []string{shellCommandFlagConstant, commandLine}
	return executor.Execute(executionContext, ShellCommand{Name: CommandShell, Details: details})
}

// Execute runs the command, translating non-zero exits, runner failures and timeouts into typed errors.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	invocationContext := executionContext
	if command.Details.Timeout > 0 {
		var cancel context.CancelFunc
		invocationContext, cancel = context.WithTimeout(executionContext, command.Details.Timeout)
		defer cancel()
	}

	executor.observer.CommandStarted(command)
	executor.logger.Debug(commandStartedLogMessageConstant, executor.commandFields(command)...)

	startedAt := time.Now()
	result, runError := executor.runner.Run(invocationContext, command)
	duration := time.Since(startedAt)

	if command.Details.Timeout > 0 && errors.Is(invocationContext.Err(), context.DeadlineExceeded) && executionContext.Err() == nil {
		timeoutError := CommandTimeoutError{Command: command, Timeout: command.Details.Timeout}
		executor.observer.CommandExecutionFailed(command, timeoutError)
		executor.logger.Warn(commandAbortedLogMessageConstant, append(executor.commandFields(command), zap.Duration(logFieldTimeoutConstant, command.Details.Timeout), zap.Error(timeoutError))...)
		return ExecutionResult{}, timeoutError
	}

	if runError != nil {
		executionError := CommandExecutionError{Command: command, Cause: runError}
		executor.observer.CommandExecutionFailed(command, executionError)
		executor.logger.Warn(commandAbortedLogMessageConstant, append(executor.commandFields(command), zap.Error(runError))...)
		return ExecutionResult{}, executionError
	}

	executor.observer.CommandCompleted(command, result)

	if result.ExitCode != 0 {
		executor.logger.Debug(commandFailedLogMessageConstant, append(executor.commandFields(command), zap.Int(logFieldExitCodeConstant, result.ExitCode), zap.Duration(logFieldDurationConstant, duration))...)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: result}
	}

	executor.logger.Debug(commandCompletedLogMessageConstant, append(executor.commandFields(command), zap.Duration(logFieldDurationConstant, duration))...)
	return result, nil
}

func (executor *ShellExecutor) commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
}

func describeCommand(command ShellCommand) string {
	parts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(parts, " ")
}
