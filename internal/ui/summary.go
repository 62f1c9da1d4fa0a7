package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/temirov/ingit/internal/repos/inventory"
	"github.com/temirov/ingit/internal/repos/resolver"
	"github.com/temirov/ingit/internal/workflow"
)

const (
	summarySubject                 = "summary"
	registrationSubject            = "register"
	headerName                     = "NAME"
	headerPath                     = "PATH"
	headerState                    = "STATE"
	headerTags                     = "TAGS"
	unresolvableState              = "unresolvable"
	tagSeparator                   = ", "
	unregisteredRepositoriesHeader = "There are %d unregistered repositories in %s:\n"
	nonVersionedFoldersHeader      = "There are %d not versioned folders in %s:\n"
	listedEntryTemplate            = "  %s\n"
	registeredTemplate             = "REGISTERED: %s at %s\n"
	dryRunTemplate                 = "DRY-RUN: would register %s at %s\n"
)

type summaryDocument struct {
	Headline                 string               `json:"headline" yaml:"headline"`
	Filtered                 bool                 `json:"filtered" yaml:"filtered"`
	Repositories             []repositoryDocument `json:"repositories" yaml:"repositories"`
	Initialised              int                  `json:"initialised" yaml:"initialised"`
	RegisteredLive           []string             `json:"registered_live" yaml:"registered_live"`
	RegisteredMissing        []string             `json:"registered_missing" yaml:"registered_missing"`
	Root                     string               `json:"root,omitempty" yaml:"root,omitempty"`
	UnregisteredRepositories []string             `json:"unregistered_repositories,omitempty" yaml:"unregistered_repositories,omitempty"`
	NonVersionedFolders      []string             `json:"non_versioned_folders,omitempty" yaml:"non_versioned_folders,omitempty"`
}

type repositoryDocument struct {
	Name  string   `json:"name" yaml:"name"`
	Path  string   `json:"path,omitempty" yaml:"path,omitempty"`
	State string   `json:"state" yaml:"state"`
	Tags  []string `json:"tags" yaml:"tags"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type registrationDocument struct {
	Name   string   `json:"name" yaml:"name"`
	Path   string   `json:"path" yaml:"path"`
	Tags   []string `json:"tags" yaml:"tags"`
	Saved  bool     `json:"saved" yaml:"saved"`
	Change string   `json:"change" yaml:"change"`
}

// RenderSummary writes the registry overview.
func (renderer *ReportRenderer) RenderSummary(summary workflow.Summary) error {
	if renderer.format == OutputJSON || renderer.format == OutputYAML {
		return renderer.encode(summarySubject, newSummaryDocument(summary))
	}

	var output strings.Builder
	output.WriteString(summary.Headline())
	output.WriteString("\n")

	if len(summary.Repositories) > 0 {
		writer := newTableWriter()
		writer.AppendHeader(table.Row{headerName, headerPath, headerState, headerTags})
		for _, repository := range summary.Repositories {
			writer.AppendRow(table.Row{repository.Name(), repository.Path, describeRepositoryState(repository), strings.Join(repository.Entry.Tags, tagSeparator)})
		}
		output.WriteString(writer.Render())
		output.WriteString("\n")
	}

	if line := summary.InitialisedLine(); len(line) > 0 {
		output.WriteString(line)
		output.WriteString("\n")
	}

	if summary.Partition != nil {
		writeListing(&output, unregisteredRepositoriesHeader, summary.Root, summary.Partition.UnregisteredRepositories)
		writeListing(&output, nonVersionedFoldersHeader, summary.Root, summary.Partition.NonVersionedFolders)
	}

	if _, writeError := io.WriteString(renderer.writer, output.String()); writeError != nil {
		return fmt.Errorf(renderErrorTemplate, summarySubject, writeError)
	}
	return nil
}

// RenderRegistration writes the outcome of register, including the registry change as a JSON merge patch.
func (renderer *ReportRenderer) RenderRegistration(result inventory.RegisterResult) error {
	if renderer.format == OutputJSON || renderer.format == OutputYAML {
		return renderer.encode(registrationSubject, registrationDocument{
			Name:   result.Entry.Name,
			Path:   result.ResolvedPath,
			Tags:   result.Entry.Tags,
			Saved:  result.Saved,
			Change: string(result.Patch),
		})
	}

	template := registeredTemplate
	if !result.Saved {
		template = dryRunTemplate
	}
	var output strings.Builder
	fmt.Fprintf(&output, template, result.Entry.Name, result.ResolvedPath)
	if !result.Saved && len(result.Patch) > 0 {
		output.Write(result.Patch)
		output.WriteString("\n")
	}
	if _, writeError := io.WriteString(renderer.writer, output.String()); writeError != nil {
		return fmt.Errorf(renderErrorTemplate, registrationSubject, writeError)
	}
	return nil
}

func newSummaryDocument(summary workflow.Summary) summaryDocument {
	document := summaryDocument{
		Headline:          summary.Headline(),
		Filtered:          summary.Filtered,
		Repositories:      make([]repositoryDocument, 0, len(summary.Repositories)),
		Initialised:       summary.Initialised,
		RegisteredLive:    nonNilStrings(summary.RegisteredLive),
		RegisteredMissing: nonNilStrings(summary.RegisteredMissing),
		Root:              summary.Root,
	}
	for _, repository := range summary.Repositories {
		entry := repositoryDocument{
			Name:  repository.Name(),
			Path:  repository.Path,
			State: describeRepositoryState(repository),
			Tags:  nonNilStrings(repository.Entry.Tags),
		}
		if repository.Err != nil {
			entry.Error = repository.Err.Error()
		}
		document.Repositories = append(document.Repositories, entry)
	}
	if summary.Partition != nil {
		document.UnregisteredRepositories = summary.Partition.UnregisteredRepositories
		document.NonVersionedFolders = summary.Partition.NonVersionedFolders
	}
	return document
}

func describeRepositoryState(repository resolver.ResolvedRepository) string {
	if repository.Unresolvable() {
		return unresolvableState
	}
	return string(repository.Liveness)
}

func writeListing(output *strings.Builder, headerTemplate string, root string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(output, headerTemplate, len(entries), root)
	for _, entry := range entries {
		fmt.Fprintf(output, listedEntryTemplate, entry)
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
