package workflow

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/gitstate"
	"github.com/temirov/ingit/internal/repos/refselect"
	"github.com/temirov/ingit/internal/repos/remotes"
	"github.com/temirov/ingit/internal/repos/resolver"
	"github.com/temirov/ingit/internal/repos/shared"
)

const (
	executorEnvironmentMissingMessage = "workflow executor requires an environment"
	missingMessage                    = "path does not exist"
	notWorkingCopyMessage             = "not a git working copy"
	batchStartedLogMessage            = "batch started"
	batchFinishedLogMessage           = "batch finished"
	repositoryProcessedLogMessage     = "repository processed"
	repositoryFailedLogMessage        = "repository failed"
	repositoryUnresolvableLogMessage  = "repository path cannot be resolved"
	runIdentifierFailedLogMessage     = "run identifier unavailable"
	logFieldRunIDConstant             = "run_id"
	logFieldCommandConstant           = "command"
	logFieldRepositoryConstant        = "repository"
	logFieldPathConstant              = "path"
	logFieldStatusConstant            = "status"
	logFieldRepositoriesConstant      = "repositories"
	logFieldParallelismConstant       = "parallelism"
	logFieldFailedConstant            = "failed"
)

// ErrEnvironmentNotConfigured indicates an executor built without collaborators.
var ErrEnvironmentNotConfigured = errors.New(executorEnvironmentMissingMessage)

// Requirement states what must exist on disk before an action runs.
type Requirement int

// Action requirements.
const (
	// RequireWorkingCopy skips missing paths and directories that are not git working copies.
	RequireWorkingCopy Requirement = iota
	// RequireDirectory skips missing paths only.
	RequireDirectory
	// RequireNothing hands every resolvable repository to the action.
	RequireNothing
)

// RepositoryOperations is the subset of gitrepo.RepositoryManager used by actions.
type RepositoryOperations interface {
	refselect.GitOperations
	gitstate.GitQueries
	remotes.GitManager
}

// StatusInspector snapshots a repository.
type StatusInspector interface {
	Inspect(executionContext context.Context, repository resolver.ResolvedRepository, options gitstate.InspectOptions) gitstate.Status
}

// Environment exposes shared dependencies for actions.
type Environment struct {
	Plans         *PlanRunner
	Repositories  RepositoryOperations
	Inspector     StatusInspector
	FileSystem    shared.FileSystem
	Confirmations *ConfirmationGate
	Output        io.Writer
	Logger        *zap.Logger
}

// Action is a command applied to one repository at a time.
type Action interface {
	Name() string
	Requirement() Requirement
	// Interactive actions talk to the operator on every repository and always run sequentially.
	Interactive() bool
	// RequestsConfirmation reports whether the action asks the confirmation gate before mutating.
	RequestsConfirmation() bool
	Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome
}

// RunOptions tunes a batch run.
type RunOptions struct {
	Parallelism int
	Sequential  bool
}

// Executor applies an action across repositories and aggregates a Report.
type Executor struct {
	environment *Environment
	identifiers *RunIdentifiers
}

// NewExecutor constructs an Executor.
func NewExecutor(environment *Environment, identifiers *RunIdentifiers) (*Executor, error) {
	if environment == nil {
		return nil, ErrEnvironmentNotConfigured
	}
	if environment.Logger == nil {
		environment.Logger = zap.NewNop()
	}
	if identifiers == nil {
		identifiers = NewRunIdentifiers(nil)
	}
	return &Executor{environment: environment, identifiers: identifiers}, nil
}

// Run applies the action to every repository. Failures never stop the other repositories and
// outcomes keep the input order.
func (executor *Executor) Run(executionContext context.Context, repositories []resolver.ResolvedRepository, action Action, options RunOptions) Report {
	logger := executor.environment.Logger
	runID, identifierError := executor.identifiers.Next()
	if identifierError != nil {
		logger.Warn(runIdentifierFailedLogMessage, zap.Error(identifierError))
	}
	logger = logger.With(zap.String(logFieldRunIDConstant, runID), zap.String(logFieldCommandConstant, action.Name()))

	report := Report{RunID: runID, Command: action.Name(), Outcomes: make([]Outcome, len(repositories))}
	parallelism := executor.parallelism(action, options)
	logger.Info(batchStartedLogMessage, zap.Int(logFieldRepositoriesConstant, len(repositories)), zap.Int(logFieldParallelismConstant, parallelism))

	if parallelism == 1 {
		for index, repository := range repositories {
			report.Outcomes[index] = executor.apply(executionContext, logger, action, repository)
		}
	} else {
		var group errgroup.Group
		group.SetLimit(parallelism)
		for index, repository := range repositories {
			group.Go(func() error {
				report.Outcomes[index] = executor.apply(executionContext, logger, action, repository)
				return nil
			})
		}
		_ = group.Wait()
	}

	logger.Info(batchFinishedLogMessage, zap.Int(logFieldFailedConstant, report.Count(OutcomeFailed)))
	return report
}

func (executor *Executor) parallelism(action Action, options RunOptions) int {
	if options.Sequential || action.Interactive() {
		return 1
	}
	if action.RequestsConfirmation() && executor.environment.Confirmations.Prompts() {
		return 1
	}
	if options.Parallelism < 1 {
		return 1
	}
	return options.Parallelism
}

func (executor *Executor) apply(executionContext context.Context, logger *zap.Logger, action Action, repository resolver.ResolvedRepository) Outcome {
	outcome, handled := precheck(action.Requirement(), repository)
	if !handled {
		if contextError := executionContext.Err(); contextError != nil {
			outcome = failedOutcome(repository, contextError)
		} else {
			outcome = action.Apply(executionContext, executor.environment, repository)
		}
	}
	if len(outcome.Repository) == 0 {
		outcome.Repository = repository.Name()
	}
	if len(outcome.Path) == 0 {
		outcome.Path = repository.Path
	}

	fields := []zap.Field{
		zap.String(logFieldRepositoryConstant, outcome.Repository),
		zap.String(logFieldPathConstant, outcome.Path),
		zap.String(logFieldStatusConstant, string(outcome.Status)),
	}
	switch outcome.Status {
	case OutcomeFailed:
		logger.Warn(repositoryFailedLogMessage, append(fields, zap.Error(outcome.Err))...)
	case OutcomeUnresolvable:
		logger.Warn(repositoryUnresolvableLogMessage, append(fields, zap.Error(outcome.Err))...)
	default:
		logger.Debug(repositoryProcessedLogMessage, fields...)
	}
	return outcome
}

func precheck(requirement Requirement, repository resolver.ResolvedRepository) (Outcome, bool) {
	if repository.Unresolvable() {
		return Outcome{Status: OutcomeUnresolvable, Message: repository.Err.Error(), Err: repository.Err}, true
	}
	switch requirement {
	case RequireWorkingCopy:
		switch repository.Liveness {
		case discovery.LivenessMissing:
			return Outcome{Status: OutcomeMissing, Message: missingMessage}, true
		case discovery.LivenessNotWorkingCopy:
			return Outcome{Status: OutcomeSkipped, Message: notWorkingCopyMessage}, true
		}
	case RequireDirectory:
		if repository.Liveness == discovery.LivenessMissing {
			return Outcome{Status: OutcomeMissing, Message: missingMessage}, true
		}
	}
	return Outcome{}, false
}
