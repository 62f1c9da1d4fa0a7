package registry_test

import (
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ingit/internal/registry"
)

func TestInsertRepositoryKeepsCaseInsensitiveOrder(testInstance *testing.T) {
	testCases := []struct {
		name          string
		existing      []string
		inserted      string
		expectedNames []string
		expectError   bool
	}{
		{name: "empty_registry", existing: nil, inserted: "ingit", expectedNames: []string{"ingit"}},
		{name: "middle", existing: []string{"alpha", "Gamma"}, inserted: "beta", expectedNames: []string{"alpha", "beta", "Gamma"}},
		{name: "front", existing: []string{"beta"}, inserted: "Alpha", expectedNames: []string{"Alpha", "beta"}},
		{name: "end", existing: []string{"alpha"}, inserted: "zeta", expectedNames: []string{"alpha", "zeta"}},
		{name: "duplicate_ignoring_case", existing: []string{"Ingit"}, inserted: "ingit", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			document := registry.DefaultRegistryDocument()
			for _, name := range testCase.existing {
				document.Repositories = append(document.Repositories, registry.RepositoryEntry{Name: name})
			}

			insertError := registry.InsertRepository(&document, registry.RepositoryEntry{Name: testCase.inserted})
			if testCase.expectError {
				require.ErrorIs(testInstance, insertError, registry.ErrDuplicateRepository)
				require.Len(testInstance, document.Repositories, len(testCase.existing))
				return
			}

			require.NoError(testInstance, insertError)
			names := make([]string, 0, len(document.Repositories))
			for _, entry := range document.Repositories {
				names = append(names, entry.Name)
			}
			require.Equal(testInstance, testCase.expectedNames, names)
		})
	}
}

func TestDescribeRegistryChangeReportsInsertedRepository(testInstance *testing.T) {
	before := registry.DefaultRegistryDocument()
	require.NoError(testInstance, registry.InsertRepository(&before, registry.RepositoryEntry{Name: "alpha"}))

	after := registry.DefaultRegistryDocument()
	after.Repositories = append(after.Repositories, before.Repositories...)
	require.NoError(testInstance, registry.InsertRepository(&after, registry.RepositoryEntry{
		Name:    "beta",
		Remotes: registry.NewRemoteSet(registry.Remote{Name: "origin", URL: "git@example.com:beta.git"}),
		Tags:    []string{"work"},
	}))

	patch, describeError := registry.DescribeRegistryChange(before, after)
	require.NoError(testInstance, describeError)
	require.Contains(testInstance, string(patch), `"beta"`)
	require.Contains(testInstance, string(patch), "git@example.com:beta.git")
	require.NotContains(testInstance, string(patch), `"description"`)

	unchanged, unchangedError := registry.DescribeRegistryChange(before, before)
	require.NoError(testInstance, unchangedError)
	require.JSONEq(testInstance, `{}`, string(unchanged))
}

func TestRemoteSetSetReplacesInPlace(testInstance *testing.T) {
	remotes := registry.NewRemoteSet(registry.Remote{Name: "origin", URL: "a"}, registry.Remote{Name: "upstream", URL: "b"})
	remotes.Set("origin", "c")
	remotes.Set("mirror", "d")

	require.Equal(testInstance, []registry.Remote{{Name: "origin", URL: "c"}, {Name: "upstream", URL: "b"}, {Name: "mirror", URL: "d"}}, remotes.Entries())
	url, found := remotes.Lookup("upstream")
	require.True(testInstance, found)
	require.Equal(testInstance, "b", url)
	require.Equal(testInstance, map[string]string{"origin": "c", "upstream": "b", "mirror": "d"}, remotes.Map())
}

func TestRemoteSetDecodesNamedURLs(testInstance *testing.T) {
	testCases := []struct {
		name            string
		content         string
		expectedEntries []registry.Remote
		errorFragment   string
	}{
		{name: "single", content: `{"github": "git@github.com:x/ingit.git"}`, expectedEntries: []registry.Remote{{Name: "github", URL: "git@github.com:x/ingit.git"}}},
		{name: "ordered", content: `{"b": "2", "a": "1"}`, expectedEntries: []registry.Remote{{Name: "b", URL: "2"}, {Name: "a", URL: "1"}}},
		{name: "null", content: `null`, expectedEntries: nil},
		{name: "url_not_string", content: `{"origin": 7}`, errorFragment: "origin"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var set registry.RemoteSet
			decodeError := json.Unmarshal([]byte(testCase.content), &set)
			if len(testCase.errorFragment) > 0 {
				require.ErrorContains(testInstance, decodeError, testCase.errorFragment)
				return
			}
			require.NoError(testInstance, decodeError)
			require.Equal(testInstance, testCase.expectedEntries, set.Entries())
		})
	}
}
