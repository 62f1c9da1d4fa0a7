package registry

import (
	"errors"
	"fmt"
)

const (
	configInvalidMessageConstant            = "invalid configuration"
	configInvalidTemplateConstant           = "invalid configuration %s: %s"
	duplicateRepositoryMessageConstant      = "repository already registered"
	machineNotFoundMessageConstant          = "no matching machine"
	machineAlreadyRegisteredMessageConstant = "machine already registered"
)

var (
	// ErrConfigInvalid marks a structurally or semantically invalid document.
	ErrConfigInvalid = errors.New(configInvalidMessageConstant)
	// ErrDuplicateRepository indicates that a repository with the same name already exists.
	ErrDuplicateRepository = errors.New(duplicateRepositoryMessageConstant)
	// ErrMachineNotFound indicates that no machine entry matches the hostname.
	ErrMachineNotFound = errors.New(machineNotFoundMessageConstant)
	// ErrMachineAlreadyRegistered indicates that a machine entry already matches the hostname.
	ErrMachineAlreadyRegistered = errors.New(machineAlreadyRegisteredMessageConstant)
)

// ConfigInvalidError names the document and the invariant it violates.
type ConfigInvalidError struct {
	Path      string
	Violation string
}

func (invalid *ConfigInvalidError) Error() string {
	return fmt.Sprintf(configInvalidTemplateConstant, invalid.Path, invalid.Violation)
}

func (invalid *ConfigInvalidError) Unwrap() error {
	return ErrConfigInvalid
}

func newConfigInvalidError(path string, violationTemplate string, arguments ...any) error {
	return &ConfigInvalidError{Path: path, Violation: fmt.Sprintf(violationTemplate, arguments...)}
}
