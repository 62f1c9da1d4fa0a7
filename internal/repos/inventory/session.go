package inventory

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/filter"
	"github.com/temirov/ingit/internal/repos/resolver"
	"github.com/temirov/ingit/internal/repos/shared"
	pathutils "github.com/temirov/ingit/internal/utils/path"
)

const (
	registerMachinePromptTemplate    = "No machine in %s matches %q. Register it? [a/N/y] "
	machineRegisteredMessageTemplate = "MACHINE-REGISTERED: %s in %s\n"
	saveRuntimeErrorTemplate         = "%w: save %s: %w"
	classifiedErrorTemplate          = "%w: %w"
	sessionOpenedLogMessage          = "session opened"
	machineRegisteredLogMessage      = "machine registered"
	hostnameLogField                 = "hostname"
	runtimeConfigurationLogField     = "runtime_config"
	registryLogField                 = "registry"
	registeredLogField               = "registered"
	selectedLogField                 = "selected"
)

var (
	// ErrConfigurationUnavailable marks failures to load the runtime or registry document or to select a machine.
	ErrConfigurationUnavailable = errors.New("configuration unavailable")
	// ErrSelectorFailed marks regex or predicate failures.
	ErrSelectorFailed = errors.New("selector failed")
	// ErrDependenciesNotConfigured indicates that Open was called without required collaborators.
	ErrDependenciesNotConfigured = errors.New("inventory dependencies not configured")
)

// Inspector classifies paths and describes working copies.
type Inspector interface {
	resolver.LivenessInspector
	DescribeWorkingCopy(path string) (discovery.WorkingCopy, error)
}

// Options configure how a session is opened.
type Options struct {
	RuntimeConfigurationPath string
	RegistryPath             string
	// FragmentsDirectory lists extra registry files; empty disables fragments.
	FragmentsDirectory string
	Hostname           string
	Selectors          filter.Selectors
	// InteractiveOverride replaces the machine's interactive flag when set.
	InteractiveOverride *bool
	AssumeYes           bool
}

// Dependencies are the collaborators a session needs.
type Dependencies struct {
	Expander  resolver.PathExpander
	Inspector Inspector
	Prompter  shared.ConfirmationPrompter
	Output    io.Writer
	Logger    *zap.Logger
}

// Session is the configuration snapshot of one invocation: the documents, the active machine and
// the selected repositories resolved against it.
type Session struct {
	RuntimeConfigurationPath string
	RegistryPath             string
	Runtime                  registry.RuntimeDocument
	Registry                 registry.RegistryDocument
	Machine                  registry.Machine
	// Root is the expanded repositories root; empty when the machine has none.
	Root     string
	Selected []resolver.ResolvedRepository
	// Filtered is set when a selector was given.
	Filtered bool
	// RegisteredPaths holds the resolved path of every registered repository.
	RegisteredPaths []string

	interactiveOverride *bool
	dependencies        Dependencies
}

// Open loads both documents, selects the machine for the hostname, applies the selectors and
// resolves the surviving entries. When no machine matches, registering one is offered.
func Open(options Options, dependencies Dependencies) (*Session, error) {
	if dependencies.Expander == nil || dependencies.Inspector == nil {
		return nil, ErrDependenciesNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}

	engine, engineError := filter.NewEngine(options.Selectors)
	if engineError != nil {
		return nil, fmt.Errorf(classifiedErrorTemplate, ErrSelectorFailed, engineError)
	}

	runtimeDocument, runtimeError := registry.LoadRuntimeConfiguration(options.RuntimeConfigurationPath)
	if runtimeError != nil {
		return nil, fmt.Errorf(classifiedErrorTemplate, ErrConfigurationUnavailable, runtimeError)
	}

	session := &Session{
		RuntimeConfigurationPath: options.RuntimeConfigurationPath,
		RegistryPath:             options.RegistryPath,
		Runtime:                  runtimeDocument,
		Filtered:                 engine.Active(),
		interactiveOverride:      options.InteractiveOverride,
		dependencies:             dependencies,
	}

	machine, machineError := session.selectMachine(options)
	if machineError != nil {
		return nil, machineError
	}
	session.Machine = machine
	if root, hasRoot := resolver.MachineRoot(machine, dependencies.Expander); hasRoot {
		session.Root = root
	}

	registryDocument, registryError := registry.LoadRepositoryRegistry(options.RegistryPath, options.FragmentsDirectory)
	if registryError != nil {
		return nil, fmt.Errorf(classifiedErrorTemplate, ErrConfigurationUnavailable, registryError)
	}
	session.Registry = registryDocument

	registeredPaths := make([]string, 0, len(registryDocument.Repositories))
	for _, entry := range registryDocument.Repositories {
		if resolvedPath, resolveError := resolver.ResolvePath(entry, machine, dependencies.Expander); resolveError == nil {
			registeredPaths = append(registeredPaths, resolvedPath)
		}
	}
	session.RegisteredPaths = pathutils.NewRepositoryPathSanitizer(dependencies.Expander).Sanitize(registeredPaths)

	selectedEntries, applyError := engine.Apply(registryDocument.Repositories)
	if applyError != nil {
		return nil, fmt.Errorf(classifiedErrorTemplate, ErrSelectorFailed, applyError)
	}
	session.Selected = resolver.Resolve(selectedEntries, machine, dependencies.Expander, dependencies.Inspector)

	dependencies.Logger.Debug(
		sessionOpenedLogMessage,
		zap.String(hostnameLogField, options.Hostname),
		zap.String(runtimeConfigurationLogField, options.RuntimeConfigurationPath),
		zap.String(registryLogField, options.RegistryPath),
		zap.Int(registeredLogField, len(registryDocument.Repositories)),
		zap.Int(selectedLogField, len(session.Selected)),
	)
	return session, nil
}

// Interactive reports whether prompts are allowed, honoring the --interactive override.
func (session *Session) Interactive() bool {
	if session.interactiveOverride != nil {
		return *session.interactiveOverride
	}
	return session.Machine.IsInteractive()
}

// ConfirmationPolicy combines --yes with the interactive flag.
func (session *Session) ConfirmationPolicy(assumeYes bool) shared.ConfirmationPolicy {
	return shared.ConfirmationPolicyFor(assumeYes, session.Interactive())
}

func (session *Session) selectMachine(options Options) (registry.Machine, error) {
	machine, selectError := registry.SelectMachine(session.Runtime.Machines, options.Hostname)
	if selectError == nil {
		return machine, nil
	}
	if !errors.Is(selectError, registry.ErrMachineNotFound) {
		return registry.Machine{}, fmt.Errorf(classifiedErrorTemplate, ErrConfigurationUnavailable, selectError)
	}

	confirmed, confirmError := session.confirmMachineRegistration(options)
	if confirmError != nil {
		return registry.Machine{}, fmt.Errorf(classifiedErrorTemplate, ErrConfigurationUnavailable, confirmError)
	}
	if !confirmed {
		return registry.Machine{}, fmt.Errorf(classifiedErrorTemplate, ErrConfigurationUnavailable, selectError)
	}

	registered, registerError := registry.RegisterMachine(&session.Runtime, options.Hostname)
	if registerError != nil {
		return registry.Machine{}, fmt.Errorf(classifiedErrorTemplate, ErrConfigurationUnavailable, registerError)
	}
	if saveError := registry.SaveRuntimeConfiguration(session.RuntimeConfigurationPath, session.Runtime); saveError != nil {
		return registry.Machine{}, fmt.Errorf(saveRuntimeErrorTemplate, ErrConfigurationUnavailable, session.RuntimeConfigurationPath, saveError)
	}

	session.dependencies.Logger.Info(machineRegisteredLogMessage, zap.String(hostnameLogField, options.Hostname))
	if session.dependencies.Output != nil {
		fmt.Fprintf(session.dependencies.Output, machineRegisteredMessageTemplate, options.Hostname, session.RuntimeConfigurationPath)
	}
	return registered, nil
}

// confirmMachineRegistration registers without asking under --yes, asks on interactive runs and
// refuses otherwise.
func (session *Session) confirmMachineRegistration(options Options) (bool, error) {
	if options.AssumeYes {
		return true, nil
	}
	interactive := options.InteractiveOverride == nil || *options.InteractiveOverride
	if !interactive || session.dependencies.Prompter == nil {
		return false, nil
	}
	result, promptError := session.dependencies.Prompter.Confirm(fmt.Sprintf(registerMachinePromptTemplate, session.RuntimeConfigurationPath, options.Hostname))
	if promptError != nil {
		return false, promptError
	}
	return result.Confirmed, nil
}
