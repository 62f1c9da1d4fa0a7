// Package refselect lets an operator pick a branch or tag to check out and walks local branches
// through fast-forward or operator-chosen remediation against their tracking branches.
package refselect

import (
	"github.com/temirov/ingit/internal/gitrepo"
)

const (
	remoteHeadNameConstant      = "HEAD"
	remoteFetchHeadNameConstant = "FETCH_HEAD"
	remoteSeparatorConstant     = "/"
	tagReferencePrefixConstant  = "refs/tags/"
	detachFlagConstant          = "--detach"
	trackFlagConstant           = "--track"
)

// CandidateKind classifies a selectable reference.
type CandidateKind string

// Candidate kinds in presentation order.
const (
	CandidateLocalBranch  CandidateKind = "local-branch"
	CandidateRemoteBranch CandidateKind = "remote-branch"
	CandidateTag          CandidateKind = "tag"
)

// RefCandidate is a reference the operator may check out.
type RefCandidate struct {
	Kind CandidateKind
	Name string
	// Remote is set for remote branches only.
	Remote string
}

// Label renders the candidate the way git names it.
func (candidate RefCandidate) Label() string {
	if candidate.Kind == CandidateRemoteBranch {
		return candidate.Remote + remoteSeparatorConstant + candidate.Name
	}
	return candidate.Name
}

// Inventory lists the references of a working copy.
type Inventory struct {
	Head           gitrepo.HeadState
	LocalBranches  []gitrepo.LocalBranch
	RemoteBranches []gitrepo.RemoteBranch
	Tags           []string
}

// HasLocalBranch reports whether a local branch with the name exists.
func (inventory Inventory) HasLocalBranch(name string) bool {
	for _, branch := range inventory.LocalBranches {
		if branch.Name == name {
			return true
		}
	}
	return false
}

// BuildCandidates lists local branches, remote branches that no local branch tracks, and tags.
// A remote branch sharing a local branch's name is listed unless the local branch tracks it.
func BuildCandidates(inventory Inventory) []RefCandidate {
	candidates := make([]RefCandidate, 0, len(inventory.LocalBranches)+len(inventory.RemoteBranches)+len(inventory.Tags))
	seen := make(map[RefCandidate]struct{})
	appendUnique := func(candidate RefCandidate) {
		if _, duplicate := seen[candidate]; duplicate {
			return
		}
		seen[candidate] = struct{}{}
		candidates = append(candidates, candidate)
	}

	trackedReferences := make(map[string]struct{}, len(inventory.LocalBranches))
	for _, branch := range inventory.LocalBranches {
		appendUnique(RefCandidate{Kind: CandidateLocalBranch, Name: branch.Name})
		if len(branch.Upstream) > 0 {
			trackedReferences[branch.Upstream] = struct{}{}
		}
	}

	for _, branch := range inventory.RemoteBranches {
		if branch.Name == remoteHeadNameConstant || branch.Name == remoteFetchHeadNameConstant {
			continue
		}
		if _, tracked := trackedReferences[branch.ShortName()]; tracked {
			continue
		}
		appendUnique(RefCandidate{Kind: CandidateRemoteBranch, Name: branch.Name, Remote: branch.Remote})
	}

	for _, tag := range inventory.Tags {
		appendUnique(RefCandidate{Kind: CandidateTag, Name: tag})
	}
	return candidates
}

// CheckoutPlan is the git checkout invocation for a candidate.
type CheckoutPlan struct {
	Candidate RefCandidate
	// Arguments follow "git checkout"; empty for a no-op.
	Arguments []string
	// Attached reports whether HEAD ends up on a branch.
	Attached bool
	NoOp     bool
}

// PlanCheckout maps a candidate to checkout arguments.
func PlanCheckout(candidate RefCandidate, inventory Inventory) CheckoutPlan {
	plan := CheckoutPlan{Candidate: candidate}
	switch candidate.Kind {
	case CandidateLocalBranch:
		plan.Attached = true
		if !inventory.Head.Detached() && inventory.Head.Branch == candidate.Name {
			plan.NoOp = true
			return plan
		}
		plan.Arguments = []string{candidate.Name}
	case CandidateRemoteBranch:
		if inventory.HasLocalBranch(candidate.Name) {
			plan.Arguments = []string{detachFlagConstant, candidate.Label()}
			return plan
		}
		plan.Attached = true
		plan.Arguments = []string{trackFlagConstant, candidate.Label()}
	case CandidateTag:
		plan.Arguments = []string{detachFlagConstant, tagReferencePrefixConstant + candidate.Name}
	}
	return plan
}
