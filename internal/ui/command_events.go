package ui

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/ingit/internal/execshell"
)

// queryGitSubcommands never change a working copy; their events are narrated at debug level.
var queryGitSubcommands = map[string]struct{}{
	"status":       {},
	"rev-list":     {},
	"rev-parse":    {},
	"log":          {},
	"for-each-ref": {},
	"symbolic-ref": {},
	"merge-base":   {},
}

// ConsoleCommandEventLogger renders command lifecycle events using a zap logger configured for human-readable output.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: execshell.CommandMessageFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver by logging command start notifications.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Log(progressLevel(command), eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements execshell.CommandEventObserver by logging command completion notifications.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Log(progressLevel(command), eventLogger.formatter.BuildSuccessMessage(command))
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, result))
}

// CommandExecutionFailed implements execshell.CommandEventObserver by logging unexpected execution failures.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}

func progressLevel(command execshell.ShellCommand) zapcore.Level {
	if command.Name != execshell.CommandGit || len(command.Details.Arguments) == 0 {
		return zapcore.InfoLevel
	}
	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	if _, query := queryGitSubcommands[subcommand]; query {
		return zapcore.DebugLevel
	}
	if subcommand == "remote" && !isRemoteMutation(command.Details.Arguments[1:]) {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func isRemoteMutation(arguments []string) bool {
	for _, argument := range arguments {
		switch strings.TrimSpace(argument) {
		case "add", "rename", "set-url", "remove":
			return true
		}
	}
	return false
}
