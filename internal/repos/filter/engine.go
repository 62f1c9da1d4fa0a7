// Package filter narrows registry entries with a regular expression and a sandboxed predicate
// expression. Filtering reads entry metadata only.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/temirov/ingit/internal/registry"
)

const (
	predicateNodeBudgetConstant               = 512
	invalidRegexTemplateConstant              = "%w %q: %v"
	predicateCompileFailureTemplateConstant   = "predicate %q: %v"
	predicateRuntimeFailureTemplateConstant   = "predicate %q failed for repo %q: %v"
	predicateResultNotBooleanTemplateConstant = "returned %T, expected bool"
)

var allowedPredicateBuiltins = []string{"len", "lower", "upper", "hasPrefix", "hasSuffix", "keys", "values"}

// ErrInvalidRegex indicates that the regex selector does not compile.
var ErrInvalidRegex = errors.New("invalid regex")

// PredicateEvalError reports a predicate that failed to compile or evaluate.
type PredicateEvalError struct {
	Expression string
	// Repository is empty for compile failures.
	Repository string
	Err        error
}

// Error describes the failure.
func (predicateError *PredicateEvalError) Error() string {
	if len(predicateError.Repository) == 0 {
		return fmt.Sprintf(predicateCompileFailureTemplateConstant, predicateError.Expression, predicateError.Err)
	}
	return fmt.Sprintf(predicateRuntimeFailureTemplateConstant, predicateError.Expression, predicateError.Repository, predicateError.Err)
}

// Unwrap exposes the underlying failure.
func (predicateError *PredicateEvalError) Unwrap() error {
	return predicateError.Err
}

// Selectors holds the raw selector strings; empty strings disable a selector.
type Selectors struct {
	Regex     string
	Predicate string
}

// Engine applies compiled selectors to registry entries.
type Engine struct {
	pattern    *regexp.Regexp
	predicate  *vm.Program
	expression string
}

type predicateEnvironment struct {
	Name    string            `expr:"name"`
	Tags    []string          `expr:"tags"`
	Path    string            `expr:"path"`
	Remotes map[string]string `expr:"remotes"`
}

// NewEngine compiles the selectors.
func NewEngine(selectors Selectors) (*Engine, error) {
	engine := &Engine{expression: strings.TrimSpace(selectors.Predicate)}

	if len(selectors.Regex) > 0 {
		pattern, compileError := regexp.Compile(selectors.Regex)
		if compileError != nil {
			return nil, fmt.Errorf(invalidRegexTemplateConstant, ErrInvalidRegex, selectors.Regex, compileError)
		}
		engine.pattern = pattern
	}

	if len(engine.expression) > 0 {
		options := []expr.Option{
			expr.Env(predicateEnvironment{}),
			expr.AsBool(),
			expr.DisableAllBuiltins(),
			expr.MaxNodes(predicateNodeBudgetConstant),
		}
		for _, builtinName := range allowedPredicateBuiltins {
			options = append(options, expr.EnableBuiltin(builtinName))
		}
		program, compileError := expr.Compile(engine.expression, options...)
		if compileError != nil {
			return nil, &PredicateEvalError{Expression: engine.expression, Err: compileError}
		}
		engine.predicate = program
	}

	return engine, nil
}

// Active reports whether any selector is set.
func (engine *Engine) Active() bool {
	return engine.pattern != nil || engine.predicate != nil
}

// Apply returns the entries accepted by the predicate and then the regex, in input order.
func (engine *Engine) Apply(entries []registry.RepositoryEntry) ([]registry.RepositoryEntry, error) {
	if !engine.Active() {
		return entries, nil
	}

	selected := make([]registry.RepositoryEntry, 0, len(entries))
	for _, entry := range entries {
		accepted, evaluationError := engine.evaluatePredicate(entry)
		if evaluationError != nil {
			return nil, evaluationError
		}
		if !accepted || !engine.matchesPattern(entry) {
			continue
		}
		selected = append(selected, entry)
	}
	return selected, nil
}

func (engine *Engine) evaluatePredicate(entry registry.RepositoryEntry) (bool, error) {
	if engine.predicate == nil {
		return true, nil
	}

	result, runError := expr.Run(engine.predicate, newPredicateEnvironment(entry))
	if runError != nil {
		return false, &PredicateEvalError{Expression: engine.expression, Repository: entry.Name, Err: runError}
	}
	accepted, isBoolean := result.(bool)
	if !isBoolean {
		return false, &PredicateEvalError{
			Expression: engine.expression,
			Repository: entry.Name,
			Err:        fmt.Errorf(predicateResultNotBooleanTemplateConstant, result),
		}
	}
	return accepted, nil
}

func (engine *Engine) matchesPattern(entry registry.RepositoryEntry) bool {
	if engine.pattern == nil {
		return true
	}

	candidates := []string{entry.Name}
	candidates = append(candidates, entry.Tags...)
	candidates = append(candidates, storedPathStrings(entry)...)
	candidates = append(candidates, entry.Remotes.Names()...)
	for _, candidate := range candidates {
		if engine.pattern.MatchString(candidate) {
			return true
		}
	}
	return false
}

func newPredicateEnvironment(entry registry.RepositoryEntry) predicateEnvironment {
	tags := entry.Tags
	if tags == nil {
		tags = []string{}
	}
	return predicateEnvironment{
		Name:    entry.Name,
		Tags:    tags,
		Path:    storedPathStrings(entry)[0],
		Remotes: entry.Remotes.Map(),
	}
}

// storedPathStrings never returns an empty slice; implicit paths are the empty string.
func storedPathStrings(entry registry.RepositoryEntry) []string {
	paths := entry.StoredPaths()
	if len(paths) == 0 {
		return []string{""}
	}
	return paths
}
