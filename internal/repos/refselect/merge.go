package refselect

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/repos/gitstate"
)

const (
	cleanCheckFailureTemplateConstant  = "check working tree: %w"
	branchSyncFailureTemplateConstant  = "compare branches: %w"
	ancestryFailureTemplateConstant    = "compare %s with %s: %w"
	remediationFailureTemplateConstant = "choose remediation for %s: %w"
	applyFailureTemplateConstant       = "%s %s onto %s: %w"
	restoreFailureTemplateConstant     = "restore %s: %w"
	unknownRemediationTemplateConstant = "unknown remediation %q"
	restoreStartedMessageConstant      = "restoring original checkout"
	branchMergedMessageConstant        = "branch synchronized"
	logFieldRepositoryConstant         = "repository"
	logFieldBranchConstant             = "branch"
	logFieldActionConstant             = "action"
	fastForwardVerbConstant            = "fast-forward"
	mergeVerbConstant                  = "merge"
	rebaseVerbConstant                 = "rebase"
	resetVerbConstant                  = "reset"
)

// Remediation is the operator's answer for a branch that cannot fast-forward.
type Remediation string

// Remediation choices.
const (
	RemediationPending           Remediation = "pending"
	RemediationMergeWithLog      Remediation = "merge"
	RemediationInteractiveRebase Remediation = "rebase"
	RemediationHardReset         Remediation = "reset"
)

// RemediationRequest describes a diverged branch.
type RemediationRequest struct {
	Repository string
	Branch     gitstate.BranchSync
}

// RemediationChooser asks the operator how to reconcile a diverged branch. Nothing is chosen automatically.
type RemediationChooser interface {
	ChooseRemediation(request RemediationRequest) (Remediation, error)
}

// BranchAction records what happened to one branch.
type BranchAction string

// Branch actions.
const (
	BranchFastForwarded BranchAction = "fast-forwarded"
	BranchMerged        BranchAction = "merged"
	BranchRebased       BranchAction = "rebased"
	BranchReset         BranchAction = "reset"
	BranchPending       BranchAction = "pending"
	BranchNeedsPush     BranchAction = "needs-push"
)

// BranchOutcome pairs a branch with its action.
type BranchOutcome struct {
	Branch gitstate.BranchSync
	Action BranchAction
}

// MergeResult summarizes a merge run over one repository.
type MergeResult struct {
	// SkippedDirty is set when the working tree had changes and nothing was touched.
	SkippedDirty bool
	Branches     []BranchOutcome
}

// Pending reports whether any branch still awaits remediation.
func (result MergeResult) Pending() bool {
	for _, outcome := range result.Branches {
		if outcome.Action == BranchPending {
			return true
		}
	}
	return false
}

// MergeService brings local branches up to date with their tracking branches.
type MergeService struct {
	operations GitOperations
	logger     *zap.Logger
}

// NewMergeService constructs a MergeService.
func NewMergeService(operations GitOperations, logger *zap.Logger) *MergeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergeService{operations: operations, logger: logger}
}

// Merge walks every branch that differs from its tracking branch. Fast-forwards are applied
// directly; diverged branches are handed to the chooser. The original checkout is restored before
// returning, even on failure.
func (service *MergeService) Merge(executionContext context.Context, repository string, path string, chooser RemediationChooser) (result MergeResult, mergeError error) {
	clean, cleanError := service.operations.CheckCleanWorktree(executionContext, path)
	if cleanError != nil {
		return MergeResult{}, fmt.Errorf(cleanCheckFailureTemplateConstant, cleanError)
	}
	if !clean {
		return MergeResult{SkippedDirty: true}, nil
	}

	originalHead, headError := service.operations.ResolveHead(executionContext, path)
	if headError != nil {
		return MergeResult{}, fmt.Errorf(inventoryFailureTemplateConstant, headError)
	}

	branches, syncError := gitstate.BranchSyncs(executionContext, service.operations, path)
	if syncError != nil {
		return MergeResult{}, fmt.Errorf(branchSyncFailureTemplateConstant, syncError)
	}

	checkedOut := originalHead.Branch
	defer func() {
		if restoreError := service.restore(executionContext, repository, path, originalHead, checkedOut); restoreError != nil {
			mergeError = errors.Join(mergeError, restoreError)
		}
	}()

	for _, branch := range branches {
		if !branch.TrackingExists || (!branch.NeedsPush() && !branch.NeedsMerge()) {
			continue
		}
		if !branch.NeedsMerge() {
			result.Branches = append(result.Branches, BranchOutcome{Branch: branch, Action: BranchNeedsPush})
			continue
		}

		if checkedOut != branch.Name {
			if checkoutError := service.operations.Checkout(executionContext, path, branch.Name); checkoutError != nil {
				return result, fmt.Errorf(checkoutFailureTemplateConstant, branch.Name, checkoutError)
			}
			checkedOut = branch.Name
		}

		action, actionError := service.synchronize(executionContext, repository, path, branch, chooser)
		if actionError != nil {
			return result, actionError
		}
		service.logger.Info(branchMergedMessageConstant, zap.String(logFieldRepositoryConstant, repository), zap.String(logFieldBranchConstant, branch.Name), zap.String(logFieldActionConstant, string(action)))
		result.Branches = append(result.Branches, BranchOutcome{Branch: branch, Action: action})
	}
	return result, nil
}

func (service *MergeService) synchronize(executionContext context.Context, repository string, path string, branch gitstate.BranchSync, chooser RemediationChooser) (BranchAction, error) {
	fastForward, ancestryError := service.operations.IsAncestor(executionContext, path, branch.Name, branch.Tracking)
	if ancestryError != nil {
		return "", fmt.Errorf(ancestryFailureTemplateConstant, branch.Name, branch.Tracking, ancestryError)
	}
	if fastForward {
		if mergeError := service.operations.MergeFastForward(executionContext, path, branch.Tracking); mergeError != nil {
			return "", fmt.Errorf(applyFailureTemplateConstant, fastForwardVerbConstant, branch.Name, branch.Tracking, mergeError)
		}
		return BranchFastForwarded, nil
	}

	remediation, chooserError := chooser.ChooseRemediation(RemediationRequest{Repository: repository, Branch: branch})
	if chooserError != nil {
		return "", fmt.Errorf(remediationFailureTemplateConstant, branch.Name, chooserError)
	}

	switch remediation {
	case RemediationPending, "":
		return BranchPending, nil
	case RemediationMergeWithLog:
		if mergeError := service.operations.MergeWithLog(executionContext, path, branch.Tracking); mergeError != nil {
			return "", fmt.Errorf(applyFailureTemplateConstant, mergeVerbConstant, branch.Name, branch.Tracking, mergeError)
		}
		return BranchMerged, nil
	case RemediationInteractiveRebase:
		if rebaseError := service.operations.RebaseInteractive(executionContext, path, branch.Tracking); rebaseError != nil {
			return "", fmt.Errorf(applyFailureTemplateConstant, rebaseVerbConstant, branch.Name, branch.Tracking, rebaseError)
		}
		return BranchRebased, nil
	case RemediationHardReset:
		if resetError := service.operations.ResetHard(executionContext, path, branch.Tracking); resetError != nil {
			return "", fmt.Errorf(applyFailureTemplateConstant, resetVerbConstant, branch.Name, branch.Tracking, resetError)
		}
		return BranchReset, nil
	default:
		return "", fmt.Errorf(unknownRemediationTemplateConstant, remediation)
	}
}

func (service *MergeService) restore(executionContext context.Context, repository string, path string, originalHead gitrepo.HeadState, checkedOut string) error {
	if checkedOut == originalHead.Branch {
		return nil
	}

	service.logger.Debug(restoreStartedMessageConstant, zap.String(logFieldRepositoryConstant, repository))
	target := originalHead.Branch
	arguments := []string{target}
	if originalHead.Detached() {
		target = originalHead.Commit
		arguments = []string{detachFlagConstant, target}
	}
	if checkoutError := service.operations.Checkout(executionContext, path, arguments...); checkoutError != nil {
		return fmt.Errorf(restoreFailureTemplateConstant, target, checkoutError)
	}
	return nil
}
