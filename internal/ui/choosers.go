package ui

import (
	"fmt"

	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/repos/refselect"
)

const (
	referenceTitleTemplate        = "Check out in %s (currently %s):"
	detachedHeadTemplate          = "detached at %s"
	unbornHeadLabel               = "no commits"
	referenceOptionTemplate       = "%s (%s)"
	currentReferenceTemplate      = "%s (%s, current)"
	remediationTitleTemplate      = "%s: %s diverged from %s (%d ahead, %d behind). How should it be reconciled?"
	remediationMergeTemplate      = "merge --log %s"
	remediationRebaseTemplate     = "rebase --interactive %s"
	remediationResetTemplate      = "reset --hard %s (drops %d local commits)"
	remediationPendingOption      = "leave pending"
	shortCommitLength             = 12
	referenceChooserErrorTemplate = "choose reference for %s: %w"
)

// ReferenceChooser asks the operator which reference to check out.
type ReferenceChooser struct {
	selector Selector
}

// NewReferenceChooser constructs a ReferenceChooser backed by selector.
func NewReferenceChooser(selector Selector) *ReferenceChooser {
	return &ReferenceChooser{selector: selector}
}

// ChooseReference implements refselect.CandidateChooser.
func (chooser *ReferenceChooser) ChooseReference(repository string, current gitrepo.HeadState, candidates []refselect.RefCandidate) (refselect.RefCandidate, bool, error) {
	if len(candidates) == 0 {
		return refselect.RefCandidate{}, false, nil
	}

	options := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		template := referenceOptionTemplate
		if candidate.Kind == refselect.CandidateLocalBranch && !current.Detached() && candidate.Name == current.Branch {
			template = currentReferenceTemplate
		}
		options = append(options, fmt.Sprintf(template, candidate.Label(), candidate.Kind))
	}

	index, chosen, selectError := chooser.selector.Select(fmt.Sprintf(referenceTitleTemplate, repository, describeHead(current)), options)
	if selectError != nil {
		return refselect.RefCandidate{}, false, fmt.Errorf(referenceChooserErrorTemplate, repository, selectError)
	}
	if !chosen {
		return refselect.RefCandidate{}, false, nil
	}
	return candidates[index], true, nil
}

// RemediationPicker asks the operator how to reconcile a branch that cannot fast-forward.
type RemediationPicker struct {
	selector Selector
}

// NewRemediationPicker constructs a RemediationPicker backed by selector.
func NewRemediationPicker(selector Selector) *RemediationPicker {
	return &RemediationPicker{selector: selector}
}

// ChooseRemediation implements refselect.RemediationChooser. Cancelling leaves the branch pending.
func (picker *RemediationPicker) ChooseRemediation(request refselect.RemediationRequest) (refselect.Remediation, error) {
	branch := request.Branch
	remediations := []refselect.Remediation{
		refselect.RemediationMergeWithLog,
		refselect.RemediationInteractiveRebase,
		refselect.RemediationHardReset,
		refselect.RemediationPending,
	}
	options := []string{
		fmt.Sprintf(remediationMergeTemplate, branch.Tracking),
		fmt.Sprintf(remediationRebaseTemplate, branch.Tracking),
		fmt.Sprintf(remediationResetTemplate, branch.Tracking, branch.Ahead),
		remediationPendingOption,
	}

	title := fmt.Sprintf(remediationTitleTemplate, request.Repository, branch.Name, branch.Tracking, branch.Ahead, branch.Behind)
	index, chosen, selectError := picker.selector.Select(title, options)
	if selectError != nil {
		return refselect.RemediationPending, selectError
	}
	if !chosen {
		return refselect.RemediationPending, nil
	}
	return remediations[index], nil
}

func describeHead(head gitrepo.HeadState) string {
	if !head.Detached() {
		return head.Branch
	}
	if len(head.Commit) == 0 {
		return unbornHeadLabel
	}
	commit := head.Commit
	if len(commit) > shortCommitLength {
		commit = commit[:shortCommitLength]
	}
	return fmt.Sprintf(detachedHeadTemplate, commit)
}
