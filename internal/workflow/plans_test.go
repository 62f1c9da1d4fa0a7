package workflow_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/workflow"
)

func TestClonePlanAddsAdditionalRemotes(testInstance *testing.T) {
	remotes := registry.NewRemoteSet(
		registry.Remote{Name: "upstream", URL: "https://example.com/upstream.git"},
		registry.Remote{Name: "fork", URL: "git@example.com:fork.git"},
	)

	plan, planError := workflow.ClonePlan("/work/project", remotes)
	require.NoError(testInstance, planError)

	require.Equal(testInstance, "/work/project", plan.WorkingDirectory)
	require.Len(testInstance, plan.Steps, 3)
	require.Equal(testInstance, []string{"clone", "--recursive", "--origin", "upstream", "https://example.com/upstream.git", "/work/project"}, plan.Steps[0].Arguments)
	require.Equal(testInstance, "/work", plan.Steps[0].WorkingDirectory)
	require.Equal(testInstance, workflow.AbortOnFailure, plan.Steps[0].Policy)
	require.Equal(testInstance, []string{"remote", "add", "fork", "git@example.com:fork.git"}, plan.Steps[1].Arguments)
	require.Equal(testInstance, []string{"fetch", "--prune", "fork"}, plan.Steps[2].Arguments)
	require.Equal(testInstance, workflow.ContinueOnFailure, plan.Steps[1].Policy)
	require.Equal(testInstance, workflow.ContinueOnFailure, plan.Steps[2].Policy)
}

func TestClonePlanRequiresRemote(testInstance *testing.T) {
	_, planError := workflow.ClonePlan("/work/project", registry.RemoteSet{})
	require.ErrorIs(testInstance, planError, workflow.ErrNoRemotes)
}

func TestInitPlanAddsEveryRemote(testInstance *testing.T) {
	plan := workflow.InitPlan("/work/project", registry.NewRemoteSet(
		registry.Remote{Name: "origin", URL: "https://example.com/a.git"},
		registry.Remote{Name: "mirror", URL: "https://mirror.example.com/a.git"},
	))

	arguments := make([][]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		arguments = append(arguments, step.Arguments)
	}
	require.Equal(testInstance, [][]string{
		{"init", "/work/project"},
		{"remote", "add", "origin", "https://example.com/a.git"},
		{"remote", "add", "mirror", "https://mirror.example.com/a.git"},
	}, arguments)
}

func TestFetchRemotes(testInstance *testing.T) {
	branches := []gitrepo.LocalBranch{
		{Name: "main", Upstream: "origin/main", UpstreamRemote: "origin"},
		{Name: "feature", Upstream: "fork/feature", UpstreamRemote: "fork"},
		{Name: "scratch"},
	}
	remoteNames := []string{"origin", "fork"}

	testCases := []struct {
		name     string
		head     gitrepo.HeadState
		all      bool
		expected []string
	}{
		{name: "tracking_remote", head: gitrepo.HeadState{Branch: "feature", Commit: "abc"}, expected: []string{"fork"}},
		{name: "all_flag", head: gitrepo.HeadState{Branch: "feature", Commit: "abc"}, all: true, expected: []string{"origin", "fork"}},
		{name: "untracked_branch", head: gitrepo.HeadState{Branch: "scratch", Commit: "abc"}, expected: []string{"origin", "fork"}},
		{name: "detached_head", head: gitrepo.HeadState{Commit: "abc"}, expected: []string{"origin", "fork"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, workflow.FetchRemotes(testCase.head, branches, remoteNames, testCase.all))
		})
	}
}

func TestPushTargets(testInstance *testing.T) {
	branches := []gitrepo.LocalBranch{
		{Name: "main", Upstream: "origin/main", UpstreamRemote: "origin"},
		{Name: "topic", Upstream: "origin/feature/topic", UpstreamRemote: "origin"},
		{Name: "fix", Upstream: "fork/fix", UpstreamRemote: "fork"},
		{Name: "scratch"},
	}
	remoteNames := []string{"origin", "fork"}

	testCases := []struct {
		name          string
		head          gitrepo.HeadState
		all           bool
		expected      []workflow.PushTarget
		expectedError error
	}{
		{
			name:     "current_branch",
			head:     gitrepo.HeadState{Branch: "topic", Commit: "abc"},
			expected: []workflow.PushTarget{{Remote: "origin", Branch: "topic", TrackingBranch: "feature/topic"}},
		},
		{
			name:     "untracked_goes_to_default_remote",
			head:     gitrepo.HeadState{Branch: "scratch", Commit: "abc"},
			expected: []workflow.PushTarget{{Remote: "origin", Branch: "scratch"}},
		},
		{
			name: "all_tracked_branches",
			head: gitrepo.HeadState{Commit: "abc"},
			all:  true,
			expected: []workflow.PushTarget{
				{Remote: "origin", Branch: "main", TrackingBranch: "main"},
				{Remote: "origin", Branch: "topic", TrackingBranch: "feature/topic"},
				{Remote: "fork", Branch: "fix", TrackingBranch: "fix"},
			},
		},
		{
			name:          "detached_head",
			head:          gitrepo.HeadState{Commit: "abc"},
			expectedError: workflow.ErrDetachedHead,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			targets, targetError := workflow.PushTargets(testCase.head, branches, remoteNames, testCase.all)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, targetError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, targetError)
			if diff := cmp.Diff(testCase.expected, targets); diff != "" {
				testInstance.Fatalf("unexpected push targets (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPushTargetsWithoutRemotes(testInstance *testing.T) {
	_, targetError := workflow.PushTargets(gitrepo.HeadState{Branch: "main"}, nil, nil, false)
	require.ErrorIs(testInstance, targetError, workflow.ErrNoRemotes)
}

func TestPushPlanGroupsTargetsPerRemote(testInstance *testing.T) {
	plan := workflow.PushPlan("/work/project", []workflow.PushTarget{
		{Remote: "origin", Branch: "main", TrackingBranch: "main"},
		{Remote: "fork", Branch: "fix", TrackingBranch: "bugfix"},
		{Remote: "origin", Branch: "topic", TrackingBranch: "feature/topic"},
		{Remote: "origin", Branch: "scratch"},
	})

	require.Len(testInstance, plan.Steps, 2)
	require.Equal(testInstance, []string{"push", "origin", "main:main", "topic:feature/topic", "scratch"}, plan.Steps[0].Arguments)
	require.Equal(testInstance, []string{"push", "fork", "fix:bugfix"}, plan.Steps[1].Arguments)
}

func TestForeachPlanCarriesTimeout(testInstance *testing.T) {
	plan := workflow.ForeachPlan("/work/project", "make test", 30*time.Second)

	require.Len(testInstance, plan.Steps, 1)
	require.Equal(testInstance, execshell.CommandShell, plan.Steps[0].Command)
	require.Equal(testInstance, []string{"make test"}, plan.Steps[0].Arguments)
	require.Equal(testInstance, 30*time.Second, plan.Steps[0].Timeout)
}

func TestGCPlan(testInstance *testing.T) {
	plan := workflow.GCPlan("/work/project")
	require.Equal(testInstance, []string{"gc", "--aggressive", "--prune"}, plan.Steps[0].Arguments)
}
