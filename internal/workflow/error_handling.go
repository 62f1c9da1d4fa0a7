package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/repos/resolver"
)

const (
	timedOutTemplate   = "%s timed out after %s"
	exitCodeTemplate   = "%s failed with exit code %d"
	standardErrorJoint = ": "
)

func failedOutcome(repository resolver.ResolvedRepository, failure error) Outcome {
	return Outcome{
		Repository: repository.Name(),
		Path:       repository.Path,
		Status:     OutcomeFailed,
		Message:    describeFailure(failure),
		Err:        failure,
	}
}

func skippedOutcome(repository resolver.ResolvedRepository, message string) Outcome {
	return Outcome{Repository: repository.Name(), Path: repository.Path, Status: OutcomeSkipped, Message: message}
}

func succeededOutcome(repository resolver.ResolvedRepository, message string) Outcome {
	return Outcome{Repository: repository.Name(), Path: repository.Path, Status: OutcomeSucceeded, Message: message}
}

// planOutcome converts a plan result; any failed step fails the repository.
func planOutcome(repository resolver.ResolvedRepository, result PlanResult, message string) Outcome {
	outcome := succeededOutcome(repository, message)
	if planError := result.Err(); planError != nil {
		outcome = failedOutcome(repository, planError)
		for _, step := range result.Steps {
			if step.Failed() {
				outcome.Message = describeFailure(step.Err)
				break
			}
		}
	}
	outcome.Steps = result.Steps
	return outcome
}

// describeFailure renders tool errors as one line for reports.
func describeFailure(failure error) string {
	var timeoutError execshell.CommandTimeoutError
	if errors.As(failure, &timeoutError) {
		return fmt.Sprintf(timedOutTemplate, timeoutError.Command.Name, timeoutError.Timeout)
	}
	var failedError execshell.CommandFailedError
	if errors.As(failure, &failedError) {
		message := fmt.Sprintf(exitCodeTemplate, failedError.Command.Name, failedError.Result.ExitCode)
		if trimmed := strings.TrimSpace(failedError.Result.StandardError); len(trimmed) > 0 {
			lines := strings.Split(trimmed, "\n")
			message += standardErrorJoint + strings.TrimSpace(lines[len(lines)-1])
		}
		return message
	}
	return failure.Error()
}
