package ui_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/inventory"
	"github.com/temirov/ingit/internal/repos/resolver"
	"github.com/temirov/ingit/internal/ui"
	"github.com/temirov/ingit/internal/workflow"
)

func sampleSummary() workflow.Summary {
	return workflow.Summary{
		Repositories: []resolver.ResolvedRepository{
			{Entry: registry.RepositoryEntry{Name: "alpha", Tags: []string{"work", "go"}}, Path: "/home/code/alpha", Liveness: discovery.LivenessWorkingCopy},
			{Entry: registry.RepositoryEntry{Name: "beta"}, Path: "/home/code/beta", Liveness: discovery.LivenessMissing},
			{Entry: registry.RepositoryEntry{Name: "gamma"}, Err: errors.New("no path for machine laptop")},
		},
		Initialised:       1,
		RegisteredLive:    []string{"alpha"},
		RegisteredMissing: []string{"beta"},
		Root:              "/home/code",
		Partition: &discovery.RootPartition{
			UnregisteredRepositories: []string{"/home/code/stray"},
			NonVersionedFolders:      []string{"/home/code/notes", "/home/code/tmp"},
		},
	}
}

func TestRenderSummaryTable(testInstance *testing.T) {
	testCases := []struct {
		name             string
		summary          workflow.Summary
		expectedContains []string
		expectedMissing  []string
	}{
		{
			name:    "full_overview",
			summary: sampleSummary(),
			expectedContains: []string{
				"All registered projects (3):\n",
				"NAME", "PATH", "STATE", "TAGS",
				"working-copy", "missing", "unresolvable", "work, go",
				"1 of them are initialised (2 not).\n",
				"There are 1 unregistered repositories in /home/code:\n  /home/code/stray\n",
				"There are 2 not versioned folders in /home/code:\n  /home/code/notes\n  /home/code/tmp\n",
			},
		},
		{
			name:             "filtered_without_partition",
			summary:          workflow.Summary{Filtered: true},
			expectedContains: []string{"Registered projects matching given conditions (0):\n"},
			expectedMissing:  []string{"NAME", "initialised", "There are"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var output strings.Builder
			require.NoError(testInstance, ui.NewReportRenderer(&output, ui.OutputTable).RenderSummary(testCase.summary))
			for _, expected := range testCase.expectedContains {
				require.Contains(testInstance, output.String(), expected)
			}
			for _, unexpected := range testCase.expectedMissing {
				require.NotContains(testInstance, output.String(), unexpected)
			}
		})
	}
}

func TestRenderSummaryJSON(testInstance *testing.T) {
	var output strings.Builder
	require.NoError(testInstance, ui.NewReportRenderer(&output, ui.OutputJSON).RenderSummary(sampleSummary()))

	var document struct {
		Headline     string `json:"headline"`
		Initialised  int    `json:"initialised"`
		Repositories []struct {
			Name  string   `json:"name"`
			State string   `json:"state"`
			Tags  []string `json:"tags"`
			Error string   `json:"error"`
		} `json:"repositories"`
		RegisteredMissing        []string `json:"registered_missing"`
		UnregisteredRepositories []string `json:"unregistered_repositories"`
		NonVersionedFolders      []string `json:"non_versioned_folders"`
	}
	require.NoError(testInstance, json.Unmarshal([]byte(output.String()), &document))
	require.Equal(testInstance, "All registered projects (3):", document.Headline)
	require.Equal(testInstance, 1, document.Initialised)
	require.Equal(testInstance, []string{"beta"}, document.RegisteredMissing)
	require.Equal(testInstance, []string{"/home/code/stray"}, document.UnregisteredRepositories)
	require.Len(testInstance, document.NonVersionedFolders, 2)
	require.Len(testInstance, document.Repositories, 3)
	require.Equal(testInstance, []string{}, document.Repositories[1].Tags)
	require.Equal(testInstance, "unresolvable", document.Repositories[2].State)
	require.Equal(testInstance, "no path for machine laptop", document.Repositories[2].Error)
}

func TestRenderRegistration(testInstance *testing.T) {
	entry := registry.RepositoryEntry{Name: "delta", Tags: []string{"work"}}
	patch := []byte(`{"delta":{"tags":["work"]}}`)

	testCases := []struct {
		name     string
		format   ui.OutputFormat
		result   inventory.RegisterResult
		expected string
	}{
		{
			name:     "saved",
			format:   ui.OutputTable,
			result:   inventory.RegisterResult{Entry: entry, ResolvedPath: "/home/code/delta", Patch: patch, Saved: true},
			expected: "REGISTERED: delta at /home/code/delta\n",
		},
		{
			name:     "dry_run_prints_patch",
			format:   ui.OutputTable,
			result:   inventory.RegisterResult{Entry: entry, ResolvedPath: "/home/code/delta", Patch: patch},
			expected: "DRY-RUN: would register delta at /home/code/delta\n" + string(patch) + "\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var output strings.Builder
			require.NoError(testInstance, ui.NewReportRenderer(&output, testCase.format).RenderRegistration(testCase.result))
			require.Equal(testInstance, testCase.expected, output.String())
		})
	}
}

func TestRenderRegistrationYAML(testInstance *testing.T) {
	var output strings.Builder
	result := inventory.RegisterResult{
		Entry:        registry.RepositoryEntry{Name: "delta", Tags: []string{"work"}},
		ResolvedPath: "/home/code/delta",
		Saved:        true,
	}
	require.NoError(testInstance, ui.NewReportRenderer(&output, ui.OutputYAML).RenderRegistration(result))
	require.Contains(testInstance, output.String(), "name: delta\n")
	require.Contains(testInstance, output.String(), "saved: true\n")
	require.Contains(testInstance, output.String(), "  - work\n")
}
