package registry

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

const (
	duplicateRepositoryNameTemplateConstant = "%w: %q"
	describeChangeErrorTemplateConstant     = "describe registry change: %w"
)

// InsertRepository inserts the entry before the first repository whose lower-cased name sorts
// after it. Names are compared case-insensitively; a duplicate yields ErrDuplicateRepository.
func InsertRepository(document *RegistryDocument, entry RepositoryEntry) error {
	normalized := normalizedName(entry.Name)
	insertionIndex := -1
	for index, existing := range document.Repositories {
		existingName := normalizedName(existing.Name)
		if existingName == normalized {
			return fmt.Errorf(duplicateRepositoryNameTemplateConstant, ErrDuplicateRepository, existing.Name)
		}
		if insertionIndex < 0 && existingName > normalized {
			insertionIndex = index
		}
	}
	if insertionIndex < 0 {
		insertionIndex = len(document.Repositories)
	}

	document.Repositories = append(document.Repositories, RepositoryEntry{})
	copy(document.Repositories[insertionIndex+1:], document.Repositories[insertionIndex:])
	document.Repositories[insertionIndex] = entry
	return nil
}

// DescribeRegistryChange returns the JSON merge patch turning the saved form of before into after.
func DescribeRegistryChange(before RegistryDocument, after RegistryDocument) ([]byte, error) {
	original, originalError := EncodeRepositoryRegistry(before)
	if originalError != nil {
		return nil, fmt.Errorf(describeChangeErrorTemplateConstant, originalError)
	}
	modified, modifiedError := EncodeRepositoryRegistry(after)
	if modifiedError != nil {
		return nil, fmt.Errorf(describeChangeErrorTemplateConstant, modifiedError)
	}
	patch, patchError := jsonpatch.CreateMergePatch(original, modified)
	if patchError != nil {
		return nil, fmt.Errorf(describeChangeErrorTemplateConstant, patchError)
	}
	return patch, nil
}
