package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/repos/inventory"
	"github.com/temirov/ingit/internal/ui"
	"github.com/temirov/ingit/internal/utils"
	"github.com/temirov/ingit/internal/utils/flags"
	pathutils "github.com/temirov/ingit/internal/utils/path"
)

const (
	applicationNameConstant                 = "ingit"
	applicationShortDescriptionConstant     = "Registry-driven git across many repositories"
	applicationLongDescriptionConstant      = "ingit keeps a registry of git repositories with per-machine locations and runs clone, init, fetch, push, checkout, merge, gc, status and arbitrary commands across a filtered selection of them."
	settingsFlagNameConstant                = "settings"
	settingsFlagUsageConstant               = "Optional path to an application settings file (YAML)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	hostnameFlagNameConstant                = "hostname"
	hostnameFlagUsageConstant               = "Machine name used to select the active machine (defaults to the host name)."
	interactiveFlagNameConstant             = "interactive"
	interactiveFlagUsageConstant            = "Override the machine's interactive setting."
	jobsFlagNameConstant                    = "jobs"
	jobsFlagUsageConstant                   = "Number of repositories processed in parallel by non-interactive commands."
	outputFlagNameConstant                  = "output"
	outputFlagUsageConstant                 = "Report format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogFileConfigKeyConstant          = commonConfigurationKeyConstant + ".log_file"
	ingitConfigurationKeyConstant           = "tools.ingit"
	runtimeConfigKeyConstant                = ingitConfigurationKeyConstant + ".runtime_config"
	registryConfigKeyConstant               = ingitConfigurationKeyConstant + ".registry"
	registryFragmentsConfigKeyConstant      = ingitConfigurationKeyConstant + ".registry_fragments"
	jobsConfigKeyConstant                   = ingitConfigurationKeyConstant + ".jobs"
	gitTimeoutConfigKeyConstant             = ingitConfigurationKeyConstant + ".git_timeout"
	outputConfigKeyConstant                 = ingitConfigurationKeyConstant + ".output"
	defaultRuntimeConfigurationPath         = "~/.ingit_config.json"
	defaultRegistryPath                     = "~/.ingit_repos.json"
	defaultRegistryFragmentsDirectory       = "~/.ingit_repos.d"
	defaultJobs                             = 4
	defaultGitTimeout                       = 10 * time.Minute
	environmentPrefixConstant               = "INGIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationSearchPathConstant         = "."
	xdgConfigHomeEnvironmentConstant        = "XDG_CONFIG_HOME"
	userConfigDirectoryConstant             = ".config"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	settingsLoadErrorTemplateConstant       = "%w: unable to load settings: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	hostnameErrorTemplateConstant           = "unable to determine host name: %w"
	errorOutputTemplateConstant             = "%v\n"
	developmentVersionConstant              = "(devel)"
	unknownVersionConstant                  = "dev"
)

// ApplicationConfiguration describes the persisted settings for the CLI.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// ApplicationToolsConfiguration holds per-tool settings.
type ApplicationToolsConfiguration struct {
	Ingit IngitConfiguration `mapstructure:"ingit"`
}

// IngitConfiguration holds document locations and execution defaults.
type IngitConfiguration struct {
	RuntimeConfig     string        `mapstructure:"runtime_config"`
	Registry          string        `mapstructure:"registry"`
	RegistryFragments string        `mapstructure:"registry_fragments"`
	Jobs              int           `mapstructure:"jobs"`
	GitTimeout        time.Duration `mapstructure:"git_timeout"`
	Output            string        `mapstructure:"output"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	settingsFilePath       string
	logLevelFlagValue      string
	logFormatFlagValue     string
	hostnameFlagValue      string
	interactiveFlagValue   bool
	executionFlags         *flags.ExecutionFlagValues
	jobsFlagValue          int
	outputFlagValue        string
	documentFlags          *flags.DocumentFlagValues
	selectorFlags          *flags.SelectorFlagValues
	commandContextAccessor utils.CommandContextAccessor
	expander               *pathutils.Expander
	prompter               *ui.IOConfirmationPrompter
	selector               ui.Selector
	hostnameProvider       func() (string, error)
}

// NewApplication assembles a fully wired CLI application reading answers from input and writing
// reports to output and diagnostics to errorOutput.
func NewApplication(input io.Reader, output io.Writer, errorOutput io.Writer) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	prompter := ui.NewIOConfirmationPrompter(input, output)
	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactoryWithWriter(errorOutput),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		expander:               pathutils.NewExpander(),
		prompter:               prompter,
		selector:               ui.NewSelector(input, output, prompter),
		hostnameProvider:       os.Hostname,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetIn(input)
	cobraCommand.SetOut(output)
	cobraCommand.SetErr(errorOutput)

	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.settingsFilePath, settingsFlagNameConstant, "", settingsFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	flags.AddChoiceFlag(persistentFlags, &application.logFormatFlagValue, logFormatFlagNameConstant, "", []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}, logFormatFlagUsageConstant)
	persistentFlags.StringVar(&application.hostnameFlagValue, hostnameFlagNameConstant, "", hostnameFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.interactiveFlagValue, interactiveFlagNameConstant, "", true, interactiveFlagUsageConstant)
	persistentFlags.IntVar(&application.jobsFlagValue, jobsFlagNameConstant, defaultJobs, jobsFlagUsageConstant)
	flags.AddChoiceFlag(persistentFlags, &application.outputFlagValue, outputFlagNameConstant, string(ui.OutputTable), []string{string(ui.OutputTable), string(ui.OutputJSON), string(ui.OutputYAML)}, outputFlagUsageConstant)

	application.documentFlags = flags.BindDocumentFlags(cobraCommand, flags.DocumentFlagValues{
		RuntimeConfigurationPath: defaultRuntimeConfigurationPath,
		RegistryPath:             defaultRegistryPath,
	})
	application.selectorFlags = flags.BindSelectorFlags(cobraCommand)
	application.executionFlags = flags.BindExecutionFlags(cobraCommand, flags.ExecutionDefaults{}, flags.ExecutionFlagDefinitions{
		AssumeYes: flags.ExecutionFlagDefinition{Name: flags.AssumeYesFlagName, Usage: flags.AssumeYesFlagUsage, Shorthand: flags.AssumeYesFlagShorthand, Enabled: true},
	})

	cobraCommand.AddCommand(application.buildCommands()...)
	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Run executes the CLI with the provided process arguments (program name first) and returns the exit code.
func Run(arguments []string, input io.Reader, output io.Writer, errorOutput io.Writer) int {
	application := NewApplication(input, output, errorOutput)
	commandArguments := []string{}
	if len(arguments) > 1 {
		commandArguments = flags.NormalizeToggleArguments(arguments[1:])
	}
	application.rootCommand.SetArgs(commandArguments)

	executionError := application.Execute()
	if executionError != nil && !errors.Is(executionError, ErrRepositoriesFailed) {
		fmt.Fprintf(errorOutput, errorOutputTemplateConstant, executionError)
	}
	return ExitCode(executionError)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:    string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:   string(utils.LogFormatConsole),
		commonLogFileConfigKeyConstant:     "",
		runtimeConfigKeyConstant:           defaultRuntimeConfigurationPath,
		registryConfigKeyConstant:          defaultRegistryPath,
		registryFragmentsConfigKeyConstant: defaultRegistryFragmentsDirectory,
		jobsConfigKeyConstant:              defaultJobs,
		gitTimeoutConfigKeyConstant:        defaultGitTimeout.String(),
		outputConfigKeyConstant:            string(ui.OutputTable),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.settingsFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(settingsLoadErrorTemplateConstant, inventory.ErrConfigurationUnavailable, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		application.expander.Expand(application.configuration.Common.LogFile),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if syncError := syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return syncLoggerInstance(application.consoleLogger)
}

func syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func configurationSearchPaths() []string {
	searchPaths := []string{configurationSearchPathConstant}
	if configHome, found := os.LookupEnv(xdgConfigHomeEnvironmentConstant); found && len(strings.TrimSpace(configHome)) > 0 {
		return append(searchPaths, filepath.Join(configHome, applicationNameConstant))
	}
	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, userConfigDirectoryConstant, applicationNameConstant))
	}
	return searchPaths
}

func resolveVersion() string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available || len(buildInformation.Main.Version) == 0 || buildInformation.Main.Version == developmentVersionConstant {
		return unknownVersionConstant
	}
	return buildInformation.Main.Version
}
