package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/repos/shared"
)

const (
	planRunnerExecutorMissingMessage = "plan runner requires a git executor"
	stepFailedTemplate               = "%s: %w"
	shellStepMissingCommandMessage   = "shell step requires a command line"
)

// ErrPlanRunnerNotConfigured indicates a plan runner without an executor.
var ErrPlanRunnerNotConfigured = errors.New(planRunnerExecutorMissingMessage)

// StepPolicy decides whether a failing step stops the plan.
type StepPolicy int

// Step policies.
const (
	AbortOnFailure StepPolicy = iota
	ContinueOnFailure
)

// Step is one external tool invocation of a plan.
type Step struct {
	Description string
	Command     execshell.CommandName
	// Arguments holds git arguments, or a single command line for shell steps.
	Arguments []string
	Policy    StepPolicy
	// WorkingDirectory overrides the plan's directory for this step.
	WorkingDirectory string
	// Timeout overrides the runner's default timeout for this step.
	Timeout time.Duration
}

// Plan is an ordered list of steps executed in one directory.
type Plan struct {
	WorkingDirectory string
	Steps            []Step
}

// StepResult records the execution of a single step.
type StepResult struct {
	Step   Step
	Result execshell.ExecutionResult
	Err    error
}

// Failed reports whether the step returned an error.
func (result StepResult) Failed() bool {
	return result.Err != nil
}

// PlanResult records every executed step. Aborted is set when an abort-policy step failed.
type PlanResult struct {
	Steps   []StepResult
	Aborted bool
}

// Err joins the errors of all failed steps.
func (result PlanResult) Err() error {
	var failures []error
	for _, step := range result.Steps {
		if step.Failed() {
			failures = append(failures, fmt.Errorf(stepFailedTemplate, step.Step.Description, step.Err))
		}
	}
	return errors.Join(failures...)
}

// PlanRunner executes plans through the shared git executor.
type PlanRunner struct {
	executor shared.GitExecutor
	timeout  time.Duration
}

// NewPlanRunner constructs a PlanRunner; timeout bounds every step that does not set its own.
func NewPlanRunner(executor shared.GitExecutor, timeout time.Duration) (*PlanRunner, error) {
	if executor == nil {
		return nil, ErrPlanRunnerNotConfigured
	}
	return &PlanRunner{executor: executor, timeout: timeout}, nil
}

// RunPlan executes the steps in order and stops at the first failing abort-policy step.
func (runner *PlanRunner) RunPlan(executionContext context.Context, plan Plan) PlanResult {
	result := PlanResult{}
	for _, step := range plan.Steps {
		stepResult := runner.runStep(executionContext, plan, step)
		result.Steps = append(result.Steps, stepResult)
		if stepResult.Failed() && step.Policy == AbortOnFailure {
			result.Aborted = true
			break
		}
	}
	return result
}

func (runner *PlanRunner) runStep(executionContext context.Context, plan Plan, step Step) StepResult {
	details := execshell.CommandDetails{
		WorkingDirectory: plan.WorkingDirectory,
		Timeout:          runner.timeout,
	}
	if len(step.WorkingDirectory) > 0 {
		details.WorkingDirectory = step.WorkingDirectory
	}
	if step.Timeout > 0 {
		details.Timeout = step.Timeout
	}

	if step.Command == execshell.CommandShell {
		if len(step.Arguments) == 0 {
			return StepResult{Step: step, Err: errors.New(shellStepMissingCommandMessage)}
		}
		executionResult, executionError := runner.executor.ExecuteShell(executionContext, step.Arguments[0], details)
		return StepResult{Step: step, Result: executionResult, Err: executionError}
	}

	details.Arguments = append([]string(nil), step.Arguments...)
	executionResult, executionError := runner.executor.ExecuteGit(executionContext, details)
	return StepResult{Step: step, Result: executionResult, Err: executionError}
}
