package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/gitstate"
	"github.com/temirov/ingit/internal/repos/refselect"
	"github.com/temirov/ingit/internal/repos/remotes"
	"github.com/temirov/ingit/internal/repos/resolver"
	"github.com/temirov/ingit/internal/repos/shared"
)

// Command names as reported in a Report.
const (
	CommandClone    = "clone"
	CommandInit     = "init"
	CommandFetch    = "fetch"
	CommandPush     = "push"
	CommandGC       = "gc"
	CommandForeach  = "foreach"
	CommandStatus   = "status"
	CommandCheckout = "checkout"
	CommandMerge    = "merge"
)

const (
	alreadyInitialisedMessage   = "already initialised"
	declinedMessage             = "declined by operator"
	directoryNotEmptyMessage    = "directory exists and is not empty"
	directoryExistsMessage      = "directory exists but is not a git working copy"
	clonedMessageTemplate       = "cloned from %s"
	initialisedMessage          = "initialised"
	fetchedMessageTemplate      = "fetched %s"
	pushedMessageTemplate       = "pushed %s"
	nothingToPushMessage        = "no branch with a tracking branch"
	collectedMessage            = "garbage collected"
	commandCompletedMessage     = "command completed"
	cleanMessage                = "clean"
	changedMessage              = "has changes"
	remotesRepairedTemplate     = "%d remote changes applied, %d declined"
	checkedOutTemplate          = "checked out %s"
	alreadyCheckedOutTemplate   = "already on %s"
	cancelledMessage            = "cancelled by operator"
	dirtyWorkingTreeMessage     = "working tree has changes"
	pendingBranchesTemplate     = "%d branches left pending"
	mergedBranchesTemplate      = "%d branches updated"
	upToDateMessage             = "up to date"
	clonePromptTemplate         = "Execute \"git clone %s --recursive --origin=%s %s\"? [a/N/y] "
	initPromptTemplate          = "Execute \"git init %s\"? [a/N/y] "
	directoryPermissions        = 0o755
	listSeparator               = ", "
	directoryCreationTemplate   = "create %s: %w"
	directoryInspectionTemplate = "inspect %s: %w"
)

var (
	// ErrDirectoryNotEmpty indicates a clone target that holds unrelated files.
	ErrDirectoryNotEmpty = errors.New(directoryNotEmptyMessage)
	// ErrDirectoryExists indicates an init target that already exists.
	ErrDirectoryExists = errors.New(directoryExistsMessage)
)

type baseAction struct {
	name        string
	requirement Requirement
}

func (action baseAction) Name() string {
	return action.name
}

func (action baseAction) Requirement() Requirement {
	return action.requirement
}

func (action baseAction) Interactive() bool {
	return false
}

func (action baseAction) RequestsConfirmation() bool {
	return false
}

// CloneAction clones missing repositories from their default remote.
type CloneAction struct {
	baseAction
}

// NewCloneAction constructs a CloneAction.
func NewCloneAction() CloneAction {
	return CloneAction{baseAction{name: CommandClone, requirement: RequireNothing}}
}

// RequestsConfirmation is always true; every clone is confirmed.
func (CloneAction) RequestsConfirmation() bool {
	return true
}

// Apply skips working copies and entries without remotes, refuses non-empty directories and clones otherwise.
func (CloneAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	switch repository.Liveness {
	case discovery.LivenessWorkingCopy:
		return skippedOutcome(repository, alreadyInitialisedMessage)
	case discovery.LivenessNotWorkingCopy:
		entries, readError := environment.FileSystem.ReadDir(repository.Path)
		if readError != nil {
			return failedOutcome(repository, fmt.Errorf(directoryInspectionTemplate, repository.Path, readError))
		}
		if len(entries) > 0 {
			return failedOutcome(repository, ErrDirectoryNotEmpty)
		}
	}

	plan, planError := ClonePlan(repository.Path, repository.Entry.Remotes)
	if errors.Is(planError, ErrNoRemotes) {
		return skippedOutcome(repository, noRemotesMessage)
	}
	if planError != nil {
		return failedOutcome(repository, planError)
	}
	defaultRemote, _ := repository.Entry.Remotes.Default()

	if outcome, confirmed := confirm(environment, repository, fmt.Sprintf(clonePromptTemplate, defaultRemote.URL, defaultRemote.Name, repository.Path)); !confirmed {
		return outcome
	}
	if mkdirError := environment.FileSystem.MkdirAll(filepath.Dir(repository.Path), directoryPermissions); mkdirError != nil {
		return failedOutcome(repository, fmt.Errorf(directoryCreationTemplate, filepath.Dir(repository.Path), mkdirError))
	}
	return planOutcome(repository, environment.Plans.RunPlan(executionContext, plan), fmt.Sprintf(clonedMessageTemplate, defaultRemote.Name))
}

// InitAction creates empty repositories with the registered remotes.
type InitAction struct {
	baseAction
}

// NewInitAction constructs an InitAction.
func NewInitAction() InitAction {
	return InitAction{baseAction{name: CommandInit, requirement: RequireNothing}}
}

// RequestsConfirmation is always true; every init is confirmed.
func (InitAction) RequestsConfirmation() bool {
	return true
}

// Apply skips working copies and refuses any existing directory.
func (InitAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	switch repository.Liveness {
	case discovery.LivenessWorkingCopy:
		return skippedOutcome(repository, alreadyInitialisedMessage)
	case discovery.LivenessNotWorkingCopy:
		return failedOutcome(repository, ErrDirectoryExists)
	}

	if outcome, confirmed := confirm(environment, repository, fmt.Sprintf(initPromptTemplate, repository.Path)); !confirmed {
		return outcome
	}
	if mkdirError := environment.FileSystem.MkdirAll(filepath.Dir(repository.Path), directoryPermissions); mkdirError != nil {
		return failedOutcome(repository, fmt.Errorf(directoryCreationTemplate, filepath.Dir(repository.Path), mkdirError))
	}
	return planOutcome(repository, environment.Plans.RunPlan(executionContext, InitPlan(repository.Path, repository.Entry.Remotes)), initialisedMessage)
}

// FetchAction fetches the tracking remote, or every remote.
type FetchAction struct {
	baseAction
	All bool
}

// NewFetchAction constructs a FetchAction.
func NewFetchAction(all bool) FetchAction {
	return FetchAction{baseAction: baseAction{name: CommandFetch, requirement: RequireWorkingCopy}, All: all}
}

// Apply fetches with pruning.
func (action FetchAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	head, branches, remoteNames, queryError := branchState(executionContext, environment, repository.Path)
	if queryError != nil {
		return failedOutcome(repository, queryError)
	}
	selected := FetchRemotes(head, branches, remoteNames, action.All)
	plan, planError := FetchPlan(repository.Path, selected)
	if errors.Is(planError, ErrNoRemotes) {
		return skippedOutcome(repository, noRemotesMessage)
	}
	return planOutcome(repository, environment.Plans.RunPlan(executionContext, plan), fmt.Sprintf(fetchedMessageTemplate, strings.Join(selected, listSeparator)))
}

// PushAction pushes the current branch, or every tracked branch.
type PushAction struct {
	baseAction
	All bool
}

// NewPushAction constructs a PushAction.
func NewPushAction(all bool) PushAction {
	return PushAction{baseAction: baseAction{name: CommandPush, requirement: RequireWorkingCopy}, All: all}
}

// Apply pushes to the tracking branches.
func (action PushAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	head, branches, remoteNames, queryError := branchState(executionContext, environment, repository.Path)
	if queryError != nil {
		return failedOutcome(repository, queryError)
	}
	targets, targetError := PushTargets(head, branches, remoteNames, action.All)
	switch {
	case errors.Is(targetError, ErrDetachedHead), errors.Is(targetError, ErrNoRemotes):
		return skippedOutcome(repository, targetError.Error())
	case targetError != nil:
		return failedOutcome(repository, targetError)
	case len(targets) == 0:
		return skippedOutcome(repository, nothingToPushMessage)
	}

	refspecs := make([]string, 0, len(targets))
	for _, target := range targets {
		refspecs = append(refspecs, target.Remote+" "+target.Refspec())
	}
	return planOutcome(repository, environment.Plans.RunPlan(executionContext, PushPlan(repository.Path, targets)), fmt.Sprintf(pushedMessageTemplate, strings.Join(refspecs, listSeparator)))
}

// GCAction runs aggressive garbage collection.
type GCAction struct {
	baseAction
}

// NewGCAction constructs a GCAction.
func NewGCAction() GCAction {
	return GCAction{baseAction{name: CommandGC, requirement: RequireWorkingCopy}}
}

// Apply collects garbage.
func (GCAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	return planOutcome(repository, environment.Plans.RunPlan(executionContext, GCPlan(repository.Path)), collectedMessage)
}

// ForeachAction runs a shell command in every existing repository directory.
type ForeachAction struct {
	baseAction
	CommandLine string
	Timeout     time.Duration
}

// NewForeachAction constructs a ForeachAction; a zero timeout falls back to the runner default.
func NewForeachAction(commandLine string, timeout time.Duration) ForeachAction {
	return ForeachAction{baseAction: baseAction{name: CommandForeach, requirement: RequireDirectory}, CommandLine: commandLine, Timeout: timeout}
}

// Apply runs the command line.
func (action ForeachAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	plan := ForeachPlan(repository.Path, action.CommandLine, action.Timeout)
	return planOutcome(repository, environment.Plans.RunPlan(executionContext, plan), commandCompletedMessage)
}

// StatusAction inspects working copies and optionally reconciles remote drift.
type StatusAction struct {
	baseAction
	IncludeIgnored bool
	RepairRemotes  bool
}

// NewStatusAction constructs a StatusAction.
func NewStatusAction(includeIgnored bool, repairRemotes bool) StatusAction {
	return StatusAction{baseAction: baseAction{name: CommandStatus, requirement: RequireWorkingCopy}, IncludeIgnored: includeIgnored, RepairRemotes: repairRemotes}
}

// RequestsConfirmation is true when drift repair is enabled.
func (action StatusAction) RequestsConfirmation() bool {
	return action.RepairRemotes
}

// Apply snapshots the repository. Drift repair re-inspects after any applied change.
func (action StatusAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	options := gitstate.InspectOptions{IncludeIgnored: action.IncludeIgnored}
	status := environment.Inspector.Inspect(executionContext, repository, options)
	if status.State == gitstate.StateToolError {
		outcome := failedOutcome(repository, status.Err)
		outcome.GitStatus = &status
		return outcome
	}

	message := cleanMessage
	if action.RepairRemotes && status.HasDrift() {
		repairResult, repairError := remotes.Execute(executionContext, remotes.Dependencies{
			GitManager: environment.Repositories,
			Prompter:   environment.Confirmations,
			Reporter:   shared.NewWriterReporter(environment.Output),
		}, remotes.Options{RepositoryPath: repository.Path, Drift: status.Drift})
		if repairResult.Applied > 0 {
			status = environment.Inspector.Inspect(executionContext, repository, options)
		}
		if repairError != nil {
			outcome := failedOutcome(repository, repairError)
			outcome.GitStatus = &status
			return outcome
		}
		message = fmt.Sprintf(remotesRepairedTemplate, repairResult.Applied, repairResult.Declined)
	} else if statusNeedsAttention(status) {
		message = changedMessage
	}

	outcome := succeededOutcome(repository, message)
	outcome.GitStatus = &status
	return outcome
}

func statusNeedsAttention(status gitstate.Status) bool {
	if status.Dirty || status.HasDrift() {
		return true
	}
	for _, branch := range status.Branches {
		if branch.NeedsPush() || branch.NeedsMerge() {
			return true
		}
	}
	return false
}

// CheckoutAction lets the operator pick a reference per repository.
type CheckoutAction struct {
	baseAction
	Chooser refselect.CandidateChooser
}

// NewCheckoutAction constructs a CheckoutAction.
func NewCheckoutAction(chooser refselect.CandidateChooser) CheckoutAction {
	return CheckoutAction{baseAction: baseAction{name: CommandCheckout, requirement: RequireWorkingCopy}, Chooser: chooser}
}

// Interactive is always true.
func (CheckoutAction) Interactive() bool {
	return true
}

// Apply runs the checkout service.
func (action CheckoutAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	result, checkoutError := refselect.NewCheckoutService(environment.Repositories).Checkout(executionContext, repository.Name(), repository.Path, action.Chooser)
	switch {
	case checkoutError != nil:
		return failedOutcome(repository, checkoutError)
	case result.Cancelled:
		return skippedOutcome(repository, cancelledMessage)
	case result.Plan.NoOp:
		return skippedOutcome(repository, fmt.Sprintf(alreadyCheckedOutTemplate, result.Plan.Candidate.Label()))
	}
	return succeededOutcome(repository, fmt.Sprintf(checkedOutTemplate, result.Plan.Candidate.Label()))
}

// MergeAction synchronizes local branches with their tracking branches.
type MergeAction struct {
	baseAction
	Chooser refselect.RemediationChooser
}

// NewMergeAction constructs a MergeAction.
func NewMergeAction(chooser refselect.RemediationChooser) MergeAction {
	return MergeAction{baseAction: baseAction{name: CommandMerge, requirement: RequireWorkingCopy}, Chooser: chooser}
}

// Interactive is always true.
func (MergeAction) Interactive() bool {
	return true
}

// Apply runs the merge state machine.
func (action MergeAction) Apply(executionContext context.Context, environment *Environment, repository resolver.ResolvedRepository) Outcome {
	result, mergeError := refselect.NewMergeService(environment.Repositories, environment.Logger).Merge(executionContext, repository.Name(), repository.Path, action.Chooser)
	var outcome Outcome
	switch {
	case mergeError != nil:
		outcome = failedOutcome(repository, mergeError)
	case result.SkippedDirty:
		outcome = skippedOutcome(repository, dirtyWorkingTreeMessage)
	case result.Pending():
		outcome = skippedOutcome(repository, fmt.Sprintf(pendingBranchesTemplate, countBranches(result, refselect.BranchPending)))
	default:
		updated := len(result.Branches) - countBranches(result, refselect.BranchNeedsPush)
		if updated == 0 {
			outcome = succeededOutcome(repository, upToDateMessage)
		} else {
			outcome = succeededOutcome(repository, fmt.Sprintf(mergedBranchesTemplate, updated))
		}
	}
	outcome.Merge = &result
	return outcome
}

func countBranches(result refselect.MergeResult, action refselect.BranchAction) int {
	count := 0
	for _, branch := range result.Branches {
		if branch.Action == action {
			count++
		}
	}
	return count
}

func branchState(executionContext context.Context, environment *Environment, path string) (gitrepo.HeadState, []gitrepo.LocalBranch, []string, error) {
	head, headError := environment.Repositories.ResolveHead(executionContext, path)
	if headError != nil {
		return gitrepo.HeadState{}, nil, nil, headError
	}
	branches, branchesError := environment.Repositories.ListLocalBranches(executionContext, path)
	if branchesError != nil {
		return gitrepo.HeadState{}, nil, nil, branchesError
	}
	remoteSet, remotesError := environment.Repositories.ListRemotes(executionContext, path)
	if remotesError != nil {
		return gitrepo.HeadState{}, nil, nil, remotesError
	}
	return head, branches, remoteSet.Names(), nil
}

func confirm(environment *Environment, repository resolver.ResolvedRepository, prompt string) (Outcome, bool) {
	if environment.Confirmations == nil {
		return Outcome{}, true
	}
	result, promptError := environment.Confirmations.Confirm(prompt)
	if promptError != nil {
		return failedOutcome(repository, promptError), false
	}
	if !result.Confirmed {
		return skippedOutcome(repository, declinedMessage), false
	}
	return Outcome{}, true
}
