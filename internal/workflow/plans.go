package workflow

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/registry"
)

const (
	noRemotesMessage             = "no remotes configured"
	detachedHeadMessage          = "not on any branch"
	cloneDescriptionTemplate     = "clone %s into %s"
	initDescriptionTemplate      = "init %s"
	addRemoteDescriptionTemplate = "add remote %s"
	fetchDescriptionTemplate     = "fetch %s"
	pushDescriptionTemplate      = "push to %s"
	gcDescription                = "collect garbage"
	foreachDescriptionTemplate   = "run %q"
	refspecTemplate              = "%s:%s"
	remoteBranchSeparator        = "/"
)

var (
	// ErrNoRemotes indicates a plan that needs at least one remote.
	ErrNoRemotes = errors.New(noRemotesMessage)
	// ErrDetachedHead indicates a plan that needs a checked-out branch.
	ErrDetachedHead = errors.New(detachedHeadMessage)
)

// PushTarget maps a local branch onto a remote. An empty TrackingBranch pushes under the same name.
type PushTarget struct {
	Remote         string
	Branch         string
	TrackingBranch string
}

// Refspec renders the target as a git push refspec.
func (target PushTarget) Refspec() string {
	if len(target.TrackingBranch) == 0 {
		return target.Branch
	}
	return fmt.Sprintf(refspecTemplate, target.Branch, target.TrackingBranch)
}

// ClonePlan clones the default remote under its own name, then adds and fetches the other remotes.
// The additional remotes never abort the plan.
func ClonePlan(path string, remotes registry.RemoteSet) (Plan, error) {
	entries := remotes.Entries()
	if len(entries) == 0 {
		return Plan{}, ErrNoRemotes
	}
	defaultRemote := entries[0]
	plan := Plan{WorkingDirectory: path}
	plan.Steps = append(plan.Steps, Step{
		Description:      fmt.Sprintf(cloneDescriptionTemplate, defaultRemote.URL, path),
		Command:          execshell.CommandGit,
		Arguments:        []string{"clone", "--recursive", "--origin", defaultRemote.Name, defaultRemote.URL, path},
		Policy:           AbortOnFailure,
		WorkingDirectory: filepath.Dir(path),
	})
	for _, remote := range entries[1:] {
		plan.Steps = append(plan.Steps,
			Step{
				Description: fmt.Sprintf(addRemoteDescriptionTemplate, remote.Name),
				Command:     execshell.CommandGit,
				Arguments:   []string{"remote", "add", remote.Name, remote.URL},
				Policy:      ContinueOnFailure,
			},
			Step{
				Description: fmt.Sprintf(fetchDescriptionTemplate, remote.Name),
				Command:     execshell.CommandGit,
				Arguments:   []string{"fetch", "--prune", remote.Name},
				Policy:      ContinueOnFailure,
			},
		)
	}
	return plan, nil
}

// InitPlan creates an empty repository and adds every registered remote.
func InitPlan(path string, remotes registry.RemoteSet) Plan {
	plan := Plan{WorkingDirectory: path}
	plan.Steps = append(plan.Steps, Step{
		Description:      fmt.Sprintf(initDescriptionTemplate, path),
		Command:          execshell.CommandGit,
		Arguments:        []string{"init", path},
		Policy:           AbortOnFailure,
		WorkingDirectory: filepath.Dir(path),
	})
	for _, remote := range remotes.Entries() {
		plan.Steps = append(plan.Steps, Step{
			Description: fmt.Sprintf(addRemoteDescriptionTemplate, remote.Name),
			Command:     execshell.CommandGit,
			Arguments:   []string{"remote", "add", remote.Name, remote.URL},
			Policy:      AbortOnFailure,
		})
	}
	return plan
}

// FetchRemotes picks the remote of the current branch's tracking branch. Every remote is fetched
// when all is set, the head is detached or the branch tracks nothing.
func FetchRemotes(head gitrepo.HeadState, branches []gitrepo.LocalBranch, remoteNames []string, all bool) []string {
	if !all && !head.Detached() {
		for _, branch := range branches {
			if branch.Name == head.Branch && len(branch.UpstreamRemote) > 0 {
				return []string{branch.UpstreamRemote}
			}
		}
	}
	return append([]string(nil), remoteNames...)
}

// FetchPlan fetches each remote with pruning; one unreachable remote does not stop the others.
func FetchPlan(path string, remoteNames []string) (Plan, error) {
	if len(remoteNames) == 0 {
		return Plan{}, ErrNoRemotes
	}
	plan := Plan{WorkingDirectory: path}
	for _, remoteName := range remoteNames {
		plan.Steps = append(plan.Steps, Step{
			Description: fmt.Sprintf(fetchDescriptionTemplate, remoteName),
			Command:     execshell.CommandGit,
			Arguments:   []string{"fetch", "--prune", remoteName},
			Policy:      ContinueOnFailure,
		})
	}
	return plan, nil
}

// PushTargets lists what to push. Without all only the current branch is pushed and a detached
// head yields ErrDetachedHead; with all every branch that has a tracking branch is pushed. A branch
// without a tracking branch goes to the default remote under its own name.
func PushTargets(head gitrepo.HeadState, branches []gitrepo.LocalBranch, remoteNames []string, all bool) ([]PushTarget, error) {
	if len(remoteNames) == 0 {
		return nil, ErrNoRemotes
	}
	if all {
		targets := make([]PushTarget, 0, len(branches))
		for _, branch := range branches {
			if len(branch.UpstreamRemote) == 0 {
				continue
			}
			targets = append(targets, trackedPushTarget(branch))
		}
		return targets, nil
	}

	if head.Detached() {
		return nil, ErrDetachedHead
	}
	for _, branch := range branches {
		if branch.Name == head.Branch && len(branch.UpstreamRemote) > 0 {
			return []PushTarget{trackedPushTarget(branch)}, nil
		}
	}
	return []PushTarget{{Remote: remoteNames[0], Branch: head.Branch}}, nil
}

func trackedPushTarget(branch gitrepo.LocalBranch) PushTarget {
	return PushTarget{
		Remote:         branch.UpstreamRemote,
		Branch:         branch.Name,
		TrackingBranch: strings.TrimPrefix(branch.Upstream, branch.UpstreamRemote+remoteBranchSeparator),
	}
}

// PushPlan groups targets per remote, one push per remote in order of first appearance.
func PushPlan(path string, targets []PushTarget) Plan {
	plan := Plan{WorkingDirectory: path}
	remoteOrder := make([]string, 0)
	refspecs := make(map[string][]string)
	for _, target := range targets {
		if _, seen := refspecs[target.Remote]; !seen {
			remoteOrder = append(remoteOrder, target.Remote)
		}
		refspecs[target.Remote] = append(refspecs[target.Remote], target.Refspec())
	}
	for _, remoteName := range remoteOrder {
		plan.Steps = append(plan.Steps, Step{
			Description: fmt.Sprintf(pushDescriptionTemplate, remoteName),
			Command:     execshell.CommandGit,
			Arguments:   append([]string{"push", remoteName}, refspecs[remoteName]...),
			Policy:      ContinueOnFailure,
		})
	}
	return plan
}

// GCPlan runs aggressive garbage collection.
func GCPlan(path string) Plan {
	return Plan{WorkingDirectory: path, Steps: []Step{{
		Description: gcDescription,
		Command:     execshell.CommandGit,
		Arguments:   []string{"gc", "--aggressive", "--prune"},
		Policy:      AbortOnFailure,
	}}}
}

// ForeachPlan runs an arbitrary shell command line in the repository directory.
func ForeachPlan(path string, commandLine string, timeout time.Duration) Plan {
	return Plan{WorkingDirectory: path, Steps: []Step{{
		Description: fmt.Sprintf(foreachDescriptionTemplate, commandLine),
		Command:     execshell.CommandShell,
		Arguments:   []string{commandLine},
		Policy:      AbortOnFailure,
		Timeout:     timeout,
	}}}
}
