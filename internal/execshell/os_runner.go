package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"
)

const (
	environmentAssignmentTemplateConstant = "%s=%s"
	// processWaitDelay bounds how long Run waits for inherited pipes to close after cancellation.
	processWaitDelay = 2 * time.Second
)

// OSCommandRunner executes commands using os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command. Non-zero exits are reported through the result, not the error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)
	configureProcessGroup(executable)
	executable.WaitDelay = processWaitDelay

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		environmentKeys := make([]string, 0, len(command.Details.EnvironmentVariables))
		for environmentKey := range command.Details.EnvironmentVariables {
			environmentKeys = append(environmentKeys, environmentKey)
		}
		sort.Strings(environmentKeys)

		mergedEnvironment := append([]string{}, os.Environ()...)
		for _, environmentKey := range environmentKeys {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, command.Details.EnvironmentVariables[environmentKey]))
		}
		executable.Env = mergedEnvironment
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer

	if command.Details.AttachTerminal {
		executable.Stdin = os.Stdin
		executable.Stdout = os.Stdout
		executable.Stderr = os.Stderr
	} else {
		executable.Stdout = &standardOutputBuffer
		executable.Stderr = &standardErrorBuffer
		if len(command.Details.StandardInput) > 0 {
			executable.Stdin = bytes.NewReader(command.Details.StandardInput)
		}
	}

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}
