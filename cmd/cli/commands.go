package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/ingit/internal/repos/dependencies"
	"github.com/temirov/ingit/internal/repos/inventory"
	"github.com/temirov/ingit/internal/ui"
	"github.com/temirov/ingit/internal/utils/flags"
	"github.com/temirov/ingit/internal/workflow"
)

const (
	summaryCommandShort   = "Show registered repositories and the state of the machine root"
	registerCommandUse    = "register [PATH]"
	registerCommandShort  = "Add the working copy at PATH (default: current directory) to the registry"
	foreachCommandUse     = "foreach COMMAND [ARG...]"
	foreachCommandShort   = "Run a shell command in every selected repository"
	cloneCommandShort     = "Clone selected repositories that are not on disk yet"
	initCommandShort      = "Create empty repositories with their registered remotes"
	fetchCommandShort     = "Fetch the tracking remote of every selected repository"
	checkoutCommandShort  = "Pick a branch or tag to check out in every selected repository"
	mergeCommandShort     = "Fast-forward local branches to their tracking branches"
	pushCommandShort      = "Push the current branch to its tracking branch"
	gcCommandShort        = "Run aggressive garbage collection"
	statusCommandShort    = "Report branch, working tree and remote state"
	tagsFlagName          = "tags"
	tagsFlagUsage         = "Tags stored with the repository (comma separated or repeated)"
	allFlagName           = "all"
	fetchAllFlagUsage     = "Fetch every remote instead of the tracking remote"
	pushAllFlagUsage      = "Push every branch that has a tracking branch"
	ignoredFlagName       = "ignored"
	ignoredFlagUsage      = "Include ignored files"
	repairFlagName        = "repair-remotes"
	repairFlagUsage       = "Offer to reconcile remotes that drifted from the registry"
	timeoutFlagName       = "timeout"
	timeoutFlagUsage      = "Seconds before the command is stopped (0 uses the configured git timeout)"
	commandLineSeparator  = " "
	shellQuote            = "'"
	escapedShellQuote     = `'\''`
	safeShellPunctuation  = "-_./=:,+@%"
	currentDirectoryValue = "."
)

func (application *Application) buildCommands() []*cobra.Command {
	return []*cobra.Command{
		application.summaryCommand(),
		application.registerCommand(),
		application.foreachCommand(),
		application.batchCommand(workflow.CommandClone, cloneCommandShort, func(*inventory.Session) workflow.Action {
			return workflow.NewCloneAction()
		}),
		application.batchCommand(workflow.CommandInit, initCommandShort, func(*inventory.Session) workflow.Action {
			return workflow.NewInitAction()
		}),
		application.fetchCommand(),
		application.batchCommand(workflow.CommandCheckout, checkoutCommandShort, func(session *inventory.Session) workflow.Action {
			return workflow.NewCheckoutAction(ui.NewReferenceChooser(application.operatorSelector(session)))
		}),
		application.batchCommand(workflow.CommandMerge, mergeCommandShort, func(session *inventory.Session) workflow.Action {
			return workflow.NewMergeAction(ui.NewRemediationPicker(application.operatorSelector(session)))
		}),
		application.pushCommand(),
		application.batchCommand(workflow.CommandGC, gcCommandShort, func(*inventory.Session) workflow.Action {
			return workflow.NewGCAction()
		}),
		application.statusCommand(),
	}
}

func (application *Application) batchCommand(name string, short string, buildAction func(*inventory.Session) workflow.Action) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runBatch(command, buildAction)
		},
	}
}

func (application *Application) summaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: summaryCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, prepareError := application.prepare(command)
			if prepareError != nil {
				return prepareError
			}
			session := environment.session
			summary, summaryError := workflow.Summarize(workflow.SummaryRequest{
				Selected:        session.Selected,
				Filtered:        session.Filtered,
				RegisteredPaths: session.RegisteredPaths,
				Root:            session.Root,
			}, dependencies.ResolveInspector(nil, nil))
			if renderError := environment.renderer.RenderSummary(summary); renderError != nil {
				return renderError
			}
			return summaryError
		},
	}
}

func (application *Application) registerCommand() *cobra.Command {
	var tags []string
	var executionFlags *flags.ExecutionFlagValues

	command := &cobra.Command{
		Use:   registerCommandUse,
		Short: registerCommandShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, prepareError := application.prepare(command)
			if prepareError != nil {
				return prepareError
			}
			path := currentDirectoryValue
			if len(arguments) == 1 {
				path = arguments[0]
			}
			result, registerError := environment.session.Register(inventory.RegisterOptions{Path: path, Tags: tags, DryRun: executionFlags.DryRun})
			if registerError != nil {
				return registerError
			}
			return environment.renderer.RenderRegistration(result)
		},
	}
	command.Flags().StringSliceVar(&tags, tagsFlagName, nil, tagsFlagUsage)
	executionFlags = flags.BindExecutionFlags(command, flags.ExecutionDefaults{}, flags.ExecutionFlagDefinitions{
		DryRun: flags.ExecutionFlagDefinition{Name: flags.DryRunFlagName, Usage: flags.DryRunFlagUsage, Enabled: true},
	})
	return command
}

func (application *Application) foreachCommand() *cobra.Command {
	var timeoutSeconds int

	command := &cobra.Command{
		Use:   foreachCommandUse,
		Short: foreachCommandShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			commandLine := buildShellCommandLine(arguments)
			timeout := application.gitTimeout()
			if timeoutSeconds > 0 {
				timeout = time.Duration(timeoutSeconds) * time.Second
			}
			return application.runBatch(command, func(*inventory.Session) workflow.Action {
				return workflow.NewForeachAction(commandLine, timeout)
			})
		},
	}
	command.Flags().IntVar(&timeoutSeconds, timeoutFlagName, 0, timeoutFlagUsage)
	return command
}

// buildShellCommandLine passes a single argument through as a shell command line and
// quotes each word when several are given so their boundaries survive the shell.
func buildShellCommandLine(arguments []string) string {
	if len(arguments) == 1 {
		return arguments[0]
	}
	quotedArguments := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		quotedArguments = append(quotedArguments, quoteShellWord(argument))
	}
	return strings.Join(quotedArguments, commandLineSeparator)
}

func quoteShellWord(word string) string {
	if len(word) > 0 && strings.IndexFunc(word, isUnsafeShellRune) < 0 {
		return word
	}
	return shellQuote + strings.ReplaceAll(word, shellQuote, escapedShellQuote) + shellQuote
}

func isUnsafeShellRune(character rune) bool {
	switch {
	case character >= 'a' && character <= 'z', character >= 'A' && character <= 'Z', character >= '0' && character <= '9':
		return false
	case strings.ContainsRune(safeShellPunctuation, character):
		return false
	default:
		return true
	}
}

func (application *Application) fetchCommand() *cobra.Command {
	var all bool
	command := application.batchCommand(workflow.CommandFetch, fetchCommandShort, func(*inventory.Session) workflow.Action {
		return workflow.NewFetchAction(all)
	})
	command.Flags().BoolVar(&all, allFlagName, false, fetchAllFlagUsage)
	return command
}

func (application *Application) pushCommand() *cobra.Command {
	var all bool
	command := application.batchCommand(workflow.CommandPush, pushCommandShort, func(*inventory.Session) workflow.Action {
		return workflow.NewPushAction(all)
	})
	command.Flags().BoolVar(&all, allFlagName, false, pushAllFlagUsage)
	return command
}

func (application *Application) statusCommand() *cobra.Command {
	var includeIgnored bool
	var repairRemotes bool
	command := application.batchCommand(workflow.CommandStatus, statusCommandShort, func(*inventory.Session) workflow.Action {
		return workflow.NewStatusAction(includeIgnored, repairRemotes)
	})
	command.Flags().BoolVar(&includeIgnored, ignoredFlagName, false, ignoredFlagUsage)
	command.Flags().BoolVar(&repairRemotes, repairFlagName, false, repairFlagUsage)
	return command
}
