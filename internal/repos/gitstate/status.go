// Package gitstate synthesizes a fresh, read-only snapshot of a working copy: the checked-out
// branch, ahead/behind counts against tracking branches, dirtiness and remote drift against the
// registry.
package gitstate

import (
	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/resolver"
)

// State classifies how far inspection got.
type State string

// Inspection states.
const (
	StateInspected      State = "inspected"
	StateMissing        State = "missing"
	StateUnresolvable   State = "unresolvable"
	StateNotWorkingCopy State = "not-working-copy"
	StateToolError      State = "tool-error"
)

// BranchSync compares a local branch with its tracking branch.
type BranchSync struct {
	Name     string
	Tracking string
	// TrackingExists is false when the configured tracking branch has no local ref.
	TrackingExists bool
	Ahead          int
	Behind         int
}

// NeedsPush reports whether the branch has commits missing from its tracking branch.
func (branch BranchSync) NeedsPush() bool {
	return branch.Ahead > 0
}

// NeedsMerge reports whether the tracking branch has commits missing from the branch.
func (branch BranchSync) NeedsMerge() bool {
	return branch.Behind > 0
}

// LogPreview holds abbreviated one-line logs for the checked-out branch.
type LogPreview struct {
	NotPushed []string
	NotMerged []string
}

// Status is a snapshot of one repository. It is never cached.
type Status struct {
	Repository string
	Path       string
	State      State
	Err        error

	Branch   string
	Detached bool
	Commit   string
	Branches []BranchSync

	Dirty       bool
	StatusLines []string
	Untracked   []string
	Ignored     []string

	Drift   []RemoteDrift
	Preview LogPreview
}

// InspectOptions tunes a single inspection.
type InspectOptions struct {
	IncludeIgnored bool
}

// HasDrift reports whether the working copy's remotes differ from the registry.
func (status Status) HasDrift() bool {
	return len(status.Drift) > 0
}

// Current returns the sync entry of the checked-out branch.
func (status Status) Current() (BranchSync, bool) {
	if status.Detached {
		return BranchSync{}, false
	}
	for _, branch := range status.Branches {
		if branch.Name == status.Branch {
			return branch, true
		}
	}
	return BranchSync{}, false
}

func shortCircuitState(repository resolver.ResolvedRepository) (State, bool) {
	switch {
	case repository.Unresolvable():
		return StateUnresolvable, true
	case repository.Liveness == discovery.LivenessMissing:
		return StateMissing, true
	case repository.Liveness == discovery.LivenessNotWorkingCopy:
		return StateNotWorkingCopy, true
	default:
		return "", false
	}
}
