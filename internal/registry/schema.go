package registry

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaDirectoryConstant           = "schemas/"
	runtimeSchemaFileNameConstant     = "runtime.schema.json"
	registrySchemaFileNameConstant    = "registry.schema.json"
	schemaLoadErrorTemplateConstant   = "load schema %s: %w"
	malformedDocumentTemplateConstant = "malformed JSON: %v"
	schemaViolationTemplateConstant   = "%s: %s"
	documentRootLocationConstant      = "(root)"
	violationSeparatorConstant        = "; "
)

//go:embed schemas/*.json
var schemaFiles embed.FS

type documentSchema struct {
	fileName string
	once     sync.Once
	schema   *jsonschema.Schema
	err      error
}

var (
	runtimeDocumentSchema  = &documentSchema{fileName: runtimeSchemaFileNameConstant}
	registryDocumentSchema = &documentSchema{fileName: registrySchemaFileNameConstant}
)

func (documentSchema *documentSchema) compiled() (*jsonschema.Schema, error) {
	documentSchema.once.Do(func() {
		content, readError := schemaFiles.ReadFile(schemaDirectoryConstant + documentSchema.fileName)
		if readError != nil {
			documentSchema.err = fmt.Errorf(schemaLoadErrorTemplateConstant, documentSchema.fileName, readError)
			return
		}
		compiler := jsonschema.NewCompiler()
		if addError := compiler.AddResource(documentSchema.fileName, bytes.NewReader(content)); addError != nil {
			documentSchema.err = fmt.Errorf(schemaLoadErrorTemplateConstant, documentSchema.fileName, addError)
			return
		}
		documentSchema.schema, documentSchema.err = compiler.Compile(documentSchema.fileName)
	})
	return documentSchema.schema, documentSchema.err
}

// validate checks the raw document against the schema, reporting every leaf violation.
func (documentSchema *documentSchema) validate(path string, content []byte) error {
	var document any
	if decodeError := json.Unmarshal(content, &document); decodeError != nil {
		return newConfigInvalidError(path, malformedDocumentTemplateConstant, decodeError)
	}

	schema, schemaError := documentSchema.compiled()
	if schemaError != nil {
		return schemaError
	}

	validationError := schema.Validate(document)
	if validationError == nil {
		return nil
	}

	var schemaViolation *jsonschema.ValidationError
	if !errors.As(validationError, &schemaViolation) {
		return newConfigInvalidError(path, "%v", validationError)
	}
	return &ConfigInvalidError{Path: path, Violation: strings.Join(collectViolations(schemaViolation), violationSeparatorConstant)}
}

func collectViolations(validationError *jsonschema.ValidationError) []string {
	if len(validationError.Causes) == 0 {
		location := strings.TrimPrefix(validationError.InstanceLocation, "/")
		if len(location) == 0 {
			location = documentRootLocationConstant
		}
		return []string{fmt.Sprintf(schemaViolationTemplateConstant, location, validationError.Message)}
	}

	violations := make([]string, 0, len(validationError.Causes))
	for _, cause := range validationError.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	sort.Strings(violations)
	return violations
}
