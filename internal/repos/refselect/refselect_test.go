package refselect_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/refselect"
)

const (
	testRepositoryNameConstant = "alpha"
	testRepositoryPathConstant = "/work/alpha"
)

type fakeGitOperations struct {
	head           gitrepo.HeadState
	clean          bool
	localBranches  []gitrepo.LocalBranch
	remoteBranches []gitrepo.RemoteBranch
	tags           []string
	remotes        registry.RemoteSet
	existingRefs   map[string]bool
	counts         map[string]int
	ancestors      map[string]bool
	failingCommand string
	commands       []string
}

func (operations *fakeGitOperations) ResolveHead(context.Context, string) (gitrepo.HeadState, error) {
	return operations.head, nil
}

func (operations *fakeGitOperations) ListLocalBranches(context.Context, string) ([]gitrepo.LocalBranch, error) {
	return operations.localBranches, nil
}

func (operations *fakeGitOperations) ListRemoteBranches(context.Context, string, []string) ([]gitrepo.RemoteBranch, error) {
	return operations.remoteBranches, nil
}

func (operations *fakeGitOperations) ListTags(context.Context, string) ([]string, error) {
	return operations.tags, nil
}

func (operations *fakeGitOperations) ListRemotes(context.Context, string) (registry.RemoteSet, error) {
	return operations.remotes, nil
}

func (operations *fakeGitOperations) ReferenceExists(_ context.Context, _ string, reference string) (bool, error) {
	return operations.existingRefs[reference], nil
}

func (operations *fakeGitOperations) CountCommits(_ context.Context, _ string, from string, to string) (int, error) {
	return operations.counts[from+".."+to], nil
}

func (operations *fakeGitOperations) CheckCleanWorktree(context.Context, string) (bool, error) {
	return operations.clean, nil
}

func (operations *fakeGitOperations) IsAncestor(_ context.Context, _ string, ancestor string, descendant string) (bool, error) {
	return operations.ancestors[ancestor+".."+descendant], nil
}

func (operations *fakeGitOperations) Checkout(_ context.Context, _ string, arguments ...string) error {
	return operations.record("checkout " + strings.Join(arguments, " "))
}

func (operations *fakeGitOperations) MergeFastForward(_ context.Context, _ string, reference string) error {
	return operations.record("merge --ff-only " + reference)
}

func (operations *fakeGitOperations) MergeWithLog(_ context.Context, _ string, reference string) error {
	return operations.record("merge --log " + reference)
}

func (operations *fakeGitOperations) RebaseInteractive(_ context.Context, _ string, reference string) error {
	return operations.record("rebase --interactive " + reference)
}

func (operations *fakeGitOperations) ResetHard(_ context.Context, _ string, reference string) error {
	return operations.record("reset --hard " + reference)
}

func (operations *fakeGitOperations) record(command string) error {
	operations.commands = append(operations.commands, command)
	if command == operations.failingCommand {
		return errors.New("git failed")
	}
	return nil
}

type fixedCandidateChooser struct {
	label      string
	cancel     bool
	candidates []refselect.RefCandidate
}

func (chooser *fixedCandidateChooser) ChooseReference(_ string, _ gitrepo.HeadState, candidates []refselect.RefCandidate) (refselect.RefCandidate, bool, error) {
	chooser.candidates = candidates
	if chooser.cancel {
		return refselect.RefCandidate{}, false, nil
	}
	for _, candidate := range candidates {
		if candidate.Label() == chooser.label {
			return candidate, true, nil
		}
	}
	return refselect.RefCandidate{}, false, errors.New("candidate not offered")
}

type scriptedRemediationChooser struct {
	answers  map[string]refselect.Remediation
	requests []refselect.RemediationRequest
}

func (chooser *scriptedRemediationChooser) ChooseRemediation(request refselect.RemediationRequest) (refselect.Remediation, error) {
	chooser.requests = append(chooser.requests, request)
	return chooser.answers[request.Branch.Name], nil
}

func testInventory() refselect.Inventory {
	return refselect.Inventory{
		Head: gitrepo.HeadState{Branch: "main", Commit: "c1"},
		LocalBranches: []gitrepo.LocalBranch{
			{Name: "main", Upstream: "origin/main", UpstreamRemote: "origin"},
			{Name: "topic"},
		},
		RemoteBranches: []gitrepo.RemoteBranch{
			{Remote: "origin", Name: "main"},
			{Remote: "origin", Name: "HEAD"},
			{Remote: "origin", Name: "FETCH_HEAD"},
			{Remote: "origin", Name: "topic"},
			{Remote: "upstream", Name: "release"},
			{Remote: "upstream", Name: "release"},
		},
		Tags: []string{"v1.0.0"},
	}
}

func TestBuildCandidates(testInstance *testing.T) {
	expected := []refselect.RefCandidate{
		{Kind: refselect.CandidateLocalBranch, Name: "main"},
		{Kind: refselect.CandidateLocalBranch, Name: "topic"},
		{Kind: refselect.CandidateRemoteBranch, Name: "topic", Remote: "origin"},
		{Kind: refselect.CandidateRemoteBranch, Name: "release", Remote: "upstream"},
		{Kind: refselect.CandidateTag, Name: "v1.0.0"},
	}
	if difference := cmp.Diff(expected, refselect.BuildCandidates(testInventory())); len(difference) > 0 {
		testInstance.Fatalf("unexpected candidates (-want +got):\n%s", difference)
	}
}

func TestPlanCheckout(testInstance *testing.T) {
	testCases := []struct {
		name              string
		candidate         refselect.RefCandidate
		expectedArguments []string
		expectedAttached  bool
		expectedNoOp      bool
	}{
		{
			name:             "current_branch_is_noop",
			candidate:        refselect.RefCandidate{Kind: refselect.CandidateLocalBranch, Name: "main"},
			expectedAttached: true,
			expectedNoOp:     true,
		},
		{
			name:              "local_branch",
			candidate:         refselect.RefCandidate{Kind: refselect.CandidateLocalBranch, Name: "topic"},
			expectedArguments: []string{"topic"},
			expectedAttached:  true,
		},
		{
			name:              "remote_branch_without_local",
			candidate:         refselect.RefCandidate{Kind: refselect.CandidateRemoteBranch, Name: "release", Remote: "upstream"},
			expectedArguments: []string{"--track", "upstream/release"},
			expectedAttached:  true,
		},
		{
			name:              "remote_branch_colliding_with_local",
			candidate:         refselect.RefCandidate{Kind: refselect.CandidateRemoteBranch, Name: "topic", Remote: "origin"},
			expectedArguments: []string{"--detach", "origin/topic"},
		},
		{
			name:              "tag",
			candidate:         refselect.RefCandidate{Kind: refselect.CandidateTag, Name: "v1.0.0"},
			expectedArguments: []string{"--detach", "refs/tags/v1.0.0"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			plan := refselect.PlanCheckout(testCase.candidate, testInventory())
			require.Equal(testInstance, testCase.expectedArguments, plan.Arguments)
			require.Equal(testInstance, testCase.expectedAttached, plan.Attached)
			require.Equal(testInstance, testCase.expectedNoOp, plan.NoOp)
		})
	}
}

func TestCheckoutService(testInstance *testing.T) {
	testCases := []struct {
		name             string
		chooser          *fixedCandidateChooser
		expectedCommands []string
		expectCancelled  bool
	}{
		{
			name:             "tracks_remote_branch",
			chooser:          &fixedCandidateChooser{label: "upstream/release"},
			expectedCommands: []string{"checkout --track upstream/release"},
		},
		{
			name:            "cancelled",
			chooser:         &fixedCandidateChooser{cancel: true},
			expectCancelled: true,
		},
		{
			name:    "current_branch_noop",
			chooser: &fixedCandidateChooser{label: "main"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			inventory := testInventory()
			operations := &fakeGitOperations{
				head:           inventory.Head,
				localBranches:  inventory.LocalBranches,
				remoteBranches: inventory.RemoteBranches,
				tags:           inventory.Tags,
			}

			result, checkoutError := refselect.NewCheckoutService(operations).Checkout(context.Background(), testRepositoryNameConstant, testRepositoryPathConstant, testCase.chooser)
			require.NoError(testInstance, checkoutError)
			require.Equal(testInstance, testCase.expectCancelled, result.Cancelled)
			require.Equal(testInstance, testCase.expectedCommands, operations.commands)
			require.Len(testInstance, testCase.chooser.candidates, 5)
		})
	}
}

func TestMergeService(testInstance *testing.T) {
	trackedBranches := []gitrepo.LocalBranch{
		{Name: "main", Upstream: "origin/main", UpstreamRemote: "origin"},
		{Name: "feature", Upstream: "origin/feature", UpstreamRemote: "origin"},
		{Name: "docs", Upstream: "origin/docs", UpstreamRemote: "origin"},
		{Name: "local-only"},
	}
	existingRefs := map[string]bool{
		"refs/remotes/origin/main":    true,
		"refs/remotes/origin/feature": true,
		"refs/remotes/origin/docs":    true,
	}

	testCases := []struct {
		name             string
		operations       *fakeGitOperations
		answers          map[string]refselect.Remediation
		expectedActions  map[string]refselect.BranchAction
		expectedCommands []string
		expectError      bool
		expectPending    bool
	}{
		{
			name:       "dirty_tree_skipped",
			operations: &fakeGitOperations{clean: false, head: gitrepo.HeadState{Branch: "main"}},
		},
		{
			name: "fast_forward_restores_original_branch",
			operations: &fakeGitOperations{
				clean:         true,
				head:          gitrepo.HeadState{Branch: "main", Commit: "c1"},
				localBranches: trackedBranches,
				existingRefs:  existingRefs,
				counts:        map[string]int{"feature..origin/feature": 2, "origin/docs..docs": 1},
				ancestors:     map[string]bool{"feature..origin/feature": true},
			},
			expectedActions: map[string]refselect.BranchAction{
				"feature": refselect.BranchFastForwarded,
				"docs":    refselect.BranchNeedsPush,
			},
			expectedCommands: []string{"checkout feature", "merge --ff-only origin/feature", "checkout main"},
		},
		{
			name: "diverged_branches_use_chosen_remediation",
			operations: &fakeGitOperations{
				clean:         true,
				head:          gitrepo.HeadState{Branch: "main", Commit: "c1"},
				localBranches: trackedBranches,
				existingRefs:  existingRefs,
				counts: map[string]int{
					"main..origin/main":       1,
					"origin/main..main":       1,
					"feature..origin/feature": 3,
					"origin/feature..feature": 2,
					"docs..origin/docs":       1,
					"origin/docs..docs":       4,
				},
			},
			answers: map[string]refselect.Remediation{
				"main":    refselect.RemediationMergeWithLog,
				"feature": refselect.RemediationInteractiveRebase,
				"docs":    refselect.RemediationHardReset,
			},
			expectedActions: map[string]refselect.BranchAction{
				"main":    refselect.BranchMerged,
				"feature": refselect.BranchRebased,
				"docs":    refselect.BranchReset,
			},
			expectedCommands: []string{
				"merge --log origin/main",
				"checkout feature",
				"rebase --interactive origin/feature",
				"checkout docs",
				"reset --hard origin/docs",
				"checkout main",
			},
		},
		{
			name: "unanswered_branch_left_pending",
			operations: &fakeGitOperations{
				clean:         true,
				head:          gitrepo.HeadState{Branch: "main", Commit: "c1"},
				localBranches: trackedBranches[:1],
				existingRefs:  existingRefs,
				counts:        map[string]int{"main..origin/main": 1, "origin/main..main": 1},
			},
			answers:          map[string]refselect.Remediation{},
			expectedActions:  map[string]refselect.BranchAction{"main": refselect.BranchPending},
			expectedCommands: nil,
			expectPending:    true,
		},
		{
			name: "failure_still_restores_detached_head",
			operations: &fakeGitOperations{
				clean:          true,
				head:           gitrepo.HeadState{Commit: "c9"},
				localBranches:  trackedBranches[:1],
				existingRefs:   existingRefs,
				counts:         map[string]int{"main..origin/main": 1},
				ancestors:      map[string]bool{"main..origin/main": true},
				failingCommand: "merge --ff-only origin/main",
			},
			expectedCommands: []string{"checkout main", "merge --ff-only origin/main", "checkout --detach c9"},
			expectError:      true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			chooser := &scriptedRemediationChooser{answers: testCase.answers}
			result, mergeError := refselect.NewMergeService(testCase.operations, zap.NewNop()).Merge(context.Background(), testRepositoryNameConstant, testRepositoryPathConstant, chooser)

			if testCase.expectError {
				require.Error(testInstance, mergeError)
			} else {
				require.NoError(testInstance, mergeError)
			}
			require.Equal(testInstance, testCase.expectedCommands, testCase.operations.commands)
			require.Equal(testInstance, testCase.expectPending, result.Pending())

			if !testCase.operations.clean {
				require.True(testInstance, result.SkippedDirty)
				return
			}
			actions := make(map[string]refselect.BranchAction, len(result.Branches))
			for _, outcome := range result.Branches {
				actions[outcome.Branch.Name] = outcome.Action
			}
			if testCase.expectedActions != nil {
				require.Equal(testInstance, testCase.expectedActions, actions)
			}
		})
	}
}
