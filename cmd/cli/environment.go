package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/repos/dependencies"
	"github.com/temirov/ingit/internal/repos/filter"
	"github.com/temirov/ingit/internal/repos/gitstate"
	"github.com/temirov/ingit/internal/repos/inventory"
	"github.com/temirov/ingit/internal/repos/shared"
	"github.com/temirov/ingit/internal/ui"
	"github.com/temirov/ingit/internal/utils"
	"github.com/temirov/ingit/internal/utils/flags"
	"github.com/temirov/ingit/internal/workflow"
)

const (
	batchFailedTemplateConstant = "%w: %d of %d"
	settingsFileLogField        = "settings_file"
	sessionReadyLogMessage      = "session ready"
)

// commandEnvironment bundles what a subcommand needs once the documents are loaded.
type commandEnvironment struct {
	session  *inventory.Session
	renderer *ui.ReportRenderer
}

func (application *Application) prepare(command *cobra.Command) (commandEnvironment, error) {
	renderer, rendererError := application.reportRenderer(command)
	if rendererError != nil {
		return commandEnvironment{}, rendererError
	}
	session, sessionError := application.openSession(command)
	if sessionError != nil {
		return commandEnvironment{}, sessionError
	}
	return commandEnvironment{session: session, renderer: renderer}, nil
}

func (application *Application) openSession(command *cobra.Command) (*inventory.Session, error) {
	hostname, hostnameError := application.hostname()
	if hostnameError != nil {
		return nil, fmt.Errorf(hostnameErrorTemplateConstant, hostnameError)
	}

	options := inventory.Options{
		RuntimeConfigurationPath: application.expander.Expand(application.documentPath(command, flags.RuntimeConfigurationFlagName, application.documentFlags.RuntimeConfigurationPath, application.configuration.Tools.Ingit.RuntimeConfig)),
		RegistryPath:             application.expander.Expand(application.documentPath(command, flags.RegistryFlagName, application.documentFlags.RegistryPath, application.configuration.Tools.Ingit.Registry)),
		FragmentsDirectory:       application.expander.Expand(application.configuration.Tools.Ingit.RegistryFragments),
		Hostname:                 hostname,
		Selectors:                filter.Selectors{Regex: application.selectorFlags.Regex, Predicate: application.selectorFlags.Predicate},
		AssumeYes:                application.executionFlags.AssumeYes,
	}
	if application.persistentFlagChanged(command, interactiveFlagNameConstant) {
		interactive := application.interactiveFlagValue
		options.InteractiveOverride = &interactive
	}

	session, openError := inventory.Open(options, inventory.Dependencies{
		Expander:  application.expander,
		Inspector: dependencies.ResolveInspector(nil, nil),
		Prompter:  application.prompter,
		Output:    command.OutOrStdout(),
		Logger:    application.logger,
	})
	if openError != nil {
		return nil, openError
	}

	settingsFile, _ := application.commandContextAccessor.ConfigurationFilePath(command.Context())
	application.logger.Debug(sessionReadyLogMessage, zap.String(settingsFileLogField, settingsFile))
	return session, nil
}

// runBatch applies the action built for the session to every selected repository and renders the report.
func (application *Application) runBatch(command *cobra.Command, buildAction func(*inventory.Session) workflow.Action) error {
	environment, prepareError := application.prepare(command)
	if prepareError != nil {
		return prepareError
	}

	executor, executorError := application.newExecutor(command, environment.session)
	if executorError != nil {
		return executorError
	}

	report := executor.Run(command.Context(), environment.session.Selected, buildAction(environment.session), workflow.RunOptions{Parallelism: application.jobs(command)})
	if renderError := environment.renderer.RenderReport(report); renderError != nil {
		return renderError
	}
	if report.Failed() {
		return fmt.Errorf(batchFailedTemplateConstant, ErrRepositoriesFailed, report.Count(workflow.OutcomeFailed), len(report.Outcomes))
	}
	return nil
}

func (application *Application) newExecutor(command *cobra.Command, session *inventory.Session) (*workflow.Executor, error) {
	var observer execshell.CommandEventObserver
	if application.humanReadableLoggingEnabled() {
		observer = ui.NewConsoleCommandEventLogger(application.consoleLogger)
	}

	gitExecutor, executorError := dependencies.ResolveGitExecutor(nil, application.logger, observer)
	if executorError != nil {
		return nil, executorError
	}
	timeout := application.gitTimeout()
	repositoryManager, managerError := dependencies.ResolveGitRepositoryManager(gitExecutor, timeout)
	if managerError != nil {
		return nil, managerError
	}
	planRunner, planRunnerError := workflow.NewPlanRunner(gitExecutor, timeout)
	if planRunnerError != nil {
		return nil, planRunnerError
	}

	environment := &workflow.Environment{
		Plans:         planRunner,
		Repositories:  repositoryManager,
		Inspector:     gitstate.NewSynthesizer(repositoryManager, application.logger),
		FileSystem:    dependencies.ResolveFileSystem(nil),
		Confirmations: workflow.NewConfirmationGate(application.prompter, session.ConfirmationPolicy(application.executionFlags.AssumeYes)),
		Output:        utils.NewFlushingWriter(command.OutOrStdout()),
		Logger:        application.logger,
	}
	return workflow.NewExecutor(environment, workflow.NewRunIdentifiers(shared.SystemClock{}))
}

// operatorSelector returns the picker for checkout and merge; non-interactive sessions decline every choice.
func (application *Application) operatorSelector(session *inventory.Session) ui.Selector {
	if session == nil || !session.Interactive() {
		return ui.DecliningSelector{}
	}
	return application.selector
}

func (application *Application) reportRenderer(command *cobra.Command) (*ui.ReportRenderer, error) {
	outputValue := application.configuration.Tools.Ingit.Output
	if application.persistentFlagChanged(command, outputFlagNameConstant) {
		outputValue = application.outputFlagValue
	}
	format, formatError := ui.ParseOutputFormat(outputValue)
	if formatError != nil {
		return nil, formatError
	}
	return ui.NewReportRenderer(command.OutOrStdout(), format), nil
}

func (application *Application) documentPath(command *cobra.Command, flagName string, flagValue string, configuredValue string) string {
	if application.persistentFlagChanged(command, flagName) || len(strings.TrimSpace(configuredValue)) == 0 {
		return flagValue
	}
	return configuredValue
}

func (application *Application) jobs(command *cobra.Command) int {
	jobs := application.configuration.Tools.Ingit.Jobs
	if application.persistentFlagChanged(command, jobsFlagNameConstant) {
		jobs = application.jobsFlagValue
	}
	if jobs < 1 {
		return 1
	}
	return jobs
}

func (application *Application) gitTimeout() time.Duration {
	if application.configuration.Tools.Ingit.GitTimeout <= 0 {
		return defaultGitTimeout
	}
	return application.configuration.Tools.Ingit.GitTimeout
}

func (application *Application) hostname() (string, error) {
	if trimmed := strings.TrimSpace(application.hostnameFlagValue); len(trimmed) > 0 {
		return trimmed, nil
	}
	return application.hostnameProvider()
}
