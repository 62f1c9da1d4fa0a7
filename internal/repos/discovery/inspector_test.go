package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/filesystem"
)

const (
	testOriginURLConstant   = "https://example.com/origin/project.git"
	testUpstreamURLConstant = "https://example.com/upstream/project.git"
	testBackupURLConstant   = "ssh://backup.example.com/project.git"
)

func TestInspectorLiveness(testInstance *testing.T) {
	workspace := testInstance.TempDir()
	workingCopyPath := filepath.Join(workspace, "repository")
	initializeRepository(testInstance, workingCopyPath)

	plainDirectory := filepath.Join(workspace, "plain")
	require.NoError(testInstance, os.MkdirAll(plainDirectory, 0o755))

	regularFile := filepath.Join(workspace, "file.txt")
	require.NoError(testInstance, os.WriteFile(regularFile, []byte("content"), 0o644))

	testCases := []struct {
		name     string
		path     string
		expected discovery.Liveness
	}{
		{name: "working_copy", path: workingCopyPath, expected: discovery.LivenessWorkingCopy},
		{name: "plain_directory", path: plainDirectory, expected: discovery.LivenessNotWorkingCopy},
		{name: "regular_file", path: regularFile, expected: discovery.LivenessNotWorkingCopy},
		{name: "missing", path: filepath.Join(workspace, "absent"), expected: discovery.LivenessMissing},
	}

	inspector := discovery.NewInspector(filesystem.OSFileSystem{})
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, inspector.Liveness(testCase.path))
		})
	}
}

func TestInspectorDescribeWorkingCopyOrdersTrackedRemoteFirst(testInstance *testing.T) {
	workingCopyPath := filepath.Join(testInstance.TempDir(), "project")
	repository := initializeRepository(testInstance, workingCopyPath)

	for remoteName, remoteURL := range map[string]string{
		"origin":   testOriginURLConstant,
		"upstream": testUpstreamURLConstant,
		"backup":   testBackupURLConstant,
	} {
		_, createError := repository.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{remoteURL}})
		require.NoError(testInstance, createError)
	}

	symbolicHead, symbolicError := repository.Storer.Reference(plumbing.HEAD)
	require.NoError(testInstance, symbolicError)
	branchName := symbolicHead.Target().Short()
	require.NoError(testInstance, repository.CreateBranch(&gitconfig.Branch{
		Name:   branchName,
		Remote: "upstream",
		Merge:  plumbing.NewBranchReferenceName(branchName),
	}))

	nestedDirectory := filepath.Join(workingCopyPath, "nested", "deeper")
	require.NoError(testInstance, os.MkdirAll(nestedDirectory, 0o755))

	inspector := discovery.NewInspector(filesystem.OSFileSystem{})
	workingCopy, describeError := inspector.DescribeWorkingCopy(nestedDirectory)
	require.NoError(testInstance, describeError)

	expectedRoot, evalError := filepath.EvalSymlinks(workingCopyPath)
	require.NoError(testInstance, evalError)
	actualRoot, actualEvalError := filepath.EvalSymlinks(workingCopy.Root)
	require.NoError(testInstance, actualEvalError)
	require.Equal(testInstance, expectedRoot, actualRoot)
	require.Equal(testInstance, "project", workingCopy.Name)
	require.Equal(testInstance, []string{"upstream", "backup", "origin"}, workingCopy.Remotes.Names())
	upstreamURL, found := workingCopy.Remotes.Lookup("upstream")
	require.True(testInstance, found)
	require.Equal(testInstance, testUpstreamURLConstant, upstreamURL)
}

func TestInspectorDescribeWorkingCopyWithoutTrackingSortsRemotes(testInstance *testing.T) {
	workingCopyPath := filepath.Join(testInstance.TempDir(), "untracked")
	repository := initializeRepository(testInstance, workingCopyPath)
	for remoteName, remoteURL := range map[string]string{"upstream": testUpstreamURLConstant, "origin": testOriginURLConstant} {
		_, createError := repository.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{remoteURL}})
		require.NoError(testInstance, createError)
	}

	workingCopy, describeError := discovery.NewInspector(filesystem.OSFileSystem{}).DescribeWorkingCopy(workingCopyPath)
	require.NoError(testInstance, describeError)
	require.Equal(testInstance, []string{"origin", "upstream"}, workingCopy.Remotes.Names())
}

func TestInspectorDescribeWorkingCopyRejectsPlainDirectory(testInstance *testing.T) {
	plainDirectory := testInstance.TempDir()

	_, describeError := discovery.NewInspector(filesystem.OSFileSystem{}).DescribeWorkingCopy(plainDirectory)
	require.ErrorIs(testInstance, describeError, discovery.ErrNotWorkingCopy)
}

func TestInspectorPartitionRoot(testInstance *testing.T) {
	root := testInstance.TempDir()
	registeredPath := filepath.Join(root, "registered")
	initializeRepository(testInstance, registeredPath)
	unregisteredPath := filepath.Join(root, "stray")
	initializeRepository(testInstance, unregisteredPath)
	plainPath := filepath.Join(root, "notes")
	require.NoError(testInstance, os.MkdirAll(plainPath, 0o755))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0o644))

	partition, partitionError := discovery.NewInspector(filesystem.OSFileSystem{}).PartitionRoot(root, []string{registeredPath + string(filepath.Separator)})
	require.NoError(testInstance, partitionError)
	require.Equal(testInstance, []string{unregisteredPath}, partition.UnregisteredRepositories)
	require.Equal(testInstance, []string{plainPath}, partition.NonVersionedFolders)
}

func TestInspectorPartitionRootReportsMissingRoot(testInstance *testing.T) {
	_, partitionError := discovery.NewInspector(filesystem.OSFileSystem{}).PartitionRoot(filepath.Join(testInstance.TempDir(), "absent"), nil)
	require.Error(testInstance, partitionError)
}

func initializeRepository(testInstance *testing.T, path string) *git.Repository {
	testInstance.Helper()
	repository, initError := git.PlainInit(path, false)
	require.NoError(testInstance, initError)
	return repository
}
