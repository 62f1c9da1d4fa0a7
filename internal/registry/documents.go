package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

const (
	readDocumentErrorTemplateConstant    = "read %s: %w"
	writeDocumentErrorTemplateConstant   = "write %s: %w"
	encodeDocumentErrorTemplateConstant  = "encode %s: %w"
	listFragmentsErrorTemplateConstant   = "list registry fragments in %s: %w"
	machineNameConflictTemplateConstant  = "machine %d must set exactly one of name and names"
	pathConflictTemplateConstant         = "both path and paths set for repo %q"
	duplicateRepositoryTemplateConstant  = "repo %q is registered more than once"
	fragmentFileExtensionConstant        = ".json"
	documentIndentConstant               = "  "
	documentDirectoryPermissionsConstant = 0o755
	documentFilePermissionsConstant      = 0o644
	temporaryFileSuffixConstant          = ".tmp"
	documentTrailingNewlineConstant      = '\n'
)

type machineRecord struct {
	Name        *string  `json:"name,omitzero"`
	Names       []string `json:"names,omitzero"`
	ReposPath   *string  `json:"repos_path"`
	Interactive *bool    `json:"interactive,omitzero"`
}

type runtimeRecord struct {
	Description   string          `json:"description"`
	Version       any             `json:"version,omitzero"`
	LegacyVersion any             `json:"ingit-version,omitzero"`
	Machines      []machineRecord `json:"machines"`
}

type repositoryRecord struct {
	Name    string            `json:"name"`
	Path    *string           `json:"path,omitzero"`
	Paths   map[string]string `json:"paths,omitzero"`
	Remotes RemoteSet         `json:"remotes"`
	Tags    []string          `json:"tags"`
}

type registryRecord struct {
	Description   string             `json:"description"`
	Version       any                `json:"version,omitzero"`
	LegacyVersion any                `json:"ingit-version,omitzero"`
	Repositories  []repositoryRecord `json:"repos"`
}

// LoadRuntimeConfiguration reads the runtime document. A missing file yields DefaultRuntimeDocument.
func LoadRuntimeConfiguration(path string) (RuntimeDocument, error) {
	content, found, readError := readDocument(path)
	if readError != nil {
		return RuntimeDocument{}, readError
	}
	if !found {
		return DefaultRuntimeDocument(), nil
	}

	if validationError := runtimeDocumentSchema.validate(path, content); validationError != nil {
		return RuntimeDocument{}, validationError
	}

	var record runtimeRecord
	if decodeError := json.Unmarshal(content, &record); decodeError != nil {
		return RuntimeDocument{}, newConfigInvalidError(path, malformedDocumentTemplateConstant, decodeError)
	}

	document := RuntimeDocument{
		Description: record.Description,
		Version:     describeVersion(record.Version, record.LegacyVersion),
		Machines:    make([]Machine, 0, len(record.Machines)),
	}
	for machineIndex, machine := range record.Machines {
		if (machine.Name == nil) == (machine.Names == nil) {
			return RuntimeDocument{}, newConfigInvalidError(path, machineNameConflictTemplateConstant, machineIndex)
		}
		converted := Machine{RepositoriesRoot: machine.ReposPath, Interactive: machine.Interactive}
		if machine.Name != nil {
			converted.Names = []string{*machine.Name}
			converted.singleName = true
		} else {
			converted.Names = append([]string{}, machine.Names...)
		}
		document.Machines = append(document.Machines, converted)
	}
	return document, nil
}

// SaveRuntimeConfiguration writes the runtime document with stable key ordering.
func SaveRuntimeConfiguration(path string, document RuntimeDocument) error {
	record := runtimeRecord{
		Description: document.Description,
		Version:     DocumentVersion,
		Machines:    make([]machineRecord, 0, len(document.Machines)),
	}
	for _, machine := range document.Machines {
		converted := machineRecord{ReposPath: machine.RepositoriesRoot, Interactive: machine.Interactive}
		if machine.singleName && len(machine.Names) == 1 {
			name := machine.Names[0]
			converted.Name = &name
		} else {
			converted.Names = append([]string{}, machine.Names...)
		}
		record.Machines = append(record.Machines, converted)
	}
	return writeDocument(path, record)
}

// LoadRepositoryRegistry reads the registry at path. When fragmentsDirectory is not empty, the
// repos of every *.json file in it are read first, in file name order. A missing registry yields
// DefaultRegistryDocument.
func LoadRepositoryRegistry(path string, fragmentsDirectory string) (RegistryDocument, error) {
	document := DefaultRegistryDocument()

	fragmentPaths, listError := listFragments(fragmentsDirectory)
	if listError != nil {
		return RegistryDocument{}, listError
	}
	for _, fragmentPath := range fragmentPaths {
		fragment, fragmentError := loadRegistryFile(fragmentPath, fragmentPath)
		if fragmentError != nil {
			return RegistryDocument{}, fragmentError
		}
		document.Repositories = append(document.Repositories, fragment.Repositories...)
	}

	mainRegistry, mainError := loadRegistryFile(path, "")
	if mainError != nil {
		return RegistryDocument{}, mainError
	}
	document.Description = mainRegistry.Description
	document.Version = mainRegistry.Version
	document.Repositories = append(document.Repositories, mainRegistry.Repositories...)

	seenNames := make(map[string]struct{}, len(document.Repositories))
	for _, entry := range document.Repositories {
		normalized := normalizedName(entry.Name)
		if _, seen := seenNames[normalized]; seen {
			return RegistryDocument{}, newConfigInvalidError(path, duplicateRepositoryTemplateConstant, entry.Name)
		}
		seenNames[normalized] = struct{}{}
	}
	return document, nil
}

// SaveRepositoryRegistry writes the entries that belong to the main registry with stable key
// ordering: document keys, entry keys and path map keys are fixed or sorted, remotes keep their order.
func SaveRepositoryRegistry(path string, document RegistryDocument) error {
	return writeDocument(path, registryRecordFor(document))
}

// EncodeRepositoryRegistry renders the main registry entries exactly as SaveRepositoryRegistry writes them.
func EncodeRepositoryRegistry(document RegistryDocument) ([]byte, error) {
	return encodeDocument(registryRecordFor(document))
}

func registryRecordFor(document RegistryDocument) registryRecord {
	record := registryRecord{
		Description:  document.Description,
		Version:      DocumentVersion,
		Repositories: make([]repositoryRecord, 0, len(document.Repositories)),
	}
	for _, entry := range document.Repositories {
		if len(entry.Fragment) > 0 {
			continue
		}
		record.Repositories = append(record.Repositories, repositoryRecord{
			Name:    entry.Name,
			Path:    entry.Path,
			Paths:   entry.Paths,
			Remotes: entry.Remotes,
			Tags:    append([]string{}, entry.Tags...),
		})
	}
	return record
}

func loadRegistryFile(path string, fragment string) (RegistryDocument, error) {
	content, found, readError := readDocument(path)
	if readError != nil {
		return RegistryDocument{}, readError
	}
	if !found {
		return DefaultRegistryDocument(), nil
	}

	if validationError := registryDocumentSchema.validate(path, content); validationError != nil {
		return RegistryDocument{}, validationError
	}

	var record registryRecord
	if decodeError := json.Unmarshal(content, &record); decodeError != nil {
		return RegistryDocument{}, newConfigInvalidError(path, malformedDocumentTemplateConstant, decodeError)
	}

	document := RegistryDocument{
		Description:  record.Description,
		Version:      describeVersion(record.Version, record.LegacyVersion),
		Repositories: make([]RepositoryEntry, 0, len(record.Repositories)),
	}
	for _, repository := range record.Repositories {
		if repository.Path != nil && repository.Paths != nil {
			return RegistryDocument{}, newConfigInvalidError(path, pathConflictTemplateConstant, repository.Name)
		}
		document.Repositories = append(document.Repositories, RepositoryEntry{
			Name:     repository.Name,
			Path:     repository.Path,
			Paths:    repository.Paths,
			Remotes:  repository.Remotes,
			Tags:     append([]string{}, repository.Tags...),
			Fragment: fragment,
		})
	}
	return document, nil
}

func listFragments(fragmentsDirectory string) ([]string, error) {
	if len(strings.TrimSpace(fragmentsDirectory)) == 0 {
		return nil, nil
	}
	directoryEntries, readError := os.ReadDir(fragmentsDirectory)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(listFragmentsErrorTemplateConstant, fragmentsDirectory, readError)
	}

	fragmentPaths := make([]string, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() || filepath.Ext(directoryEntry.Name()) != fragmentFileExtensionConstant {
			continue
		}
		fragmentPaths = append(fragmentPaths, filepath.Join(fragmentsDirectory, directoryEntry.Name()))
	}
	sort.Strings(fragmentPaths)
	return fragmentPaths, nil
}

func readDocument(path string) ([]byte, bool, error) {
	content, readError := os.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf(readDocumentErrorTemplateConstant, path, readError)
	}
	return content, true, nil
}

func encodeDocument(record any) ([]byte, error) {
	encoded, encodeError := json.Marshal(record, json.Deterministic(true), jsontext.WithIndent(documentIndentConstant))
	if encodeError != nil {
		return nil, encodeError
	}
	return append(encoded, documentTrailingNewlineConstant), nil
}

func writeDocument(path string, record any) error {
	encoded, encodeError := encodeDocument(record)
	if encodeError != nil {
		return fmt.Errorf(encodeDocumentErrorTemplateConstant, path, encodeError)
	}

	if mkdirError := os.MkdirAll(filepath.Dir(path), documentDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(writeDocumentErrorTemplateConstant, path, mkdirError)
	}
	temporaryPath := path + temporaryFileSuffixConstant
	if writeError := os.WriteFile(temporaryPath, encoded, documentFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeDocumentErrorTemplateConstant, path, writeError)
	}
	if renameError := os.Rename(temporaryPath, path); renameError != nil {
		return fmt.Errorf(writeDocumentErrorTemplateConstant, path, renameError)
	}
	return nil
}

func describeVersion(candidates ...any) string {
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		return strings.TrimSpace(fmt.Sprint(candidate))
	}
	return ""
}

func sortedKeys(mapping map[string]string) []string {
	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
