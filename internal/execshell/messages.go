package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	describedStartTemplateConstant          = "%s %s in %s"
	describedSuccessTemplateConstant        = "%s %s in %s"
	describedFailureTemplateConstant        = "Failed to %s %s in %s (exit code %d%s)"
	describedExecutionFailureTemplateConst  = "Unable to %s %s in %s: %s"
	subjectlessStartTemplateConstant        = "%s in %s"
	subjectlessFailureTemplateConstant      = "Failed to %s in %s (exit code %d%s)"
	subjectlessExecutionFailureTemplate     = "Unable to %s in %s: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	commandArgumentsJoinSeparatorConstant   = " "
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	allRemotesLabelConstant                 = "all remotes"
	flagPrefixConstant                      = "-"
	intoSeparatorConstant                   = " into "
	toSeparatorConstant                     = " to "
	fromSeparatorConstant                   = "from "
	rangeSeparatorConstant                  = ", "
	remoteAddActionConstant                 = "add"
	remoteRenameActionConstant              = "rename"
	remoteSetURLActionConstant              = "set-url"
	remoteRemoveActionConstant              = "remove"
	remoteVerboseFlagConstant               = "-v"
)

// gitMessageVerbs phrases one git subcommand in three grammatical forms.
type gitMessageVerbs struct {
	progressive string
	past        string
	infinitive  string
	subject     func(arguments []string) string
}

var gitMessageCatalog = map[string]gitMessageVerbs{
	"clone":        {progressive: "Cloning", past: "Cloned", infinitive: "clone", subject: describeCloneSubject},
	"init":         {progressive: "Initializing", past: "Initialized", infinitive: "initialize", subject: describeFirstOperand},
	"fetch":        {progressive: "Fetching", past: "Fetched", infinitive: "fetch", subject: describeFetchSubject},
	"push":         {progressive: "Pushing", past: "Pushed", infinitive: "push", subject: describePushSubject},
	"checkout":     {progressive: "Checking out", past: "Checked out", infinitive: "check out", subject: describeFirstOperand},
	"merge":        {progressive: "Merging", past: "Merged", infinitive: "merge", subject: describeFirstOperand},
	"rebase":       {progressive: "Rebasing onto", past: "Rebased onto", infinitive: "rebase onto", subject: describeFirstOperand},
	"reset":        {progressive: "Resetting to", past: "Reset to", infinitive: "reset to", subject: describeFirstOperand},
	"gc":           {progressive: "Collecting garbage", past: "Collected garbage", infinitive: "collect garbage"},
	"status":       {progressive: "Reviewing working tree status", past: "Reviewed working tree status", infinitive: "review working tree status"},
	"rev-list":     {progressive: "Counting commits", past: "Counted commits", infinitive: "count commits", subject: describeFirstOperand},
	"log":          {progressive: "Reading log of", past: "Read log of", infinitive: "read log of", subject: describeFirstOperand},
	"for-each-ref": {progressive: "Listing references", past: "Listed references", infinitive: "list references", subject: describeFirstOperand},
	"symbolic-ref": {progressive: "Identifying current branch", past: "Identified current branch", infinitive: "identify current branch"},
	"merge-base":   {progressive: "Comparing", past: "Compared", infinitive: "compare", subject: describeOperandPair},
	"rev-parse":    {progressive: "Resolving", past: "Resolved", infinitive: "resolve", subject: describeFirstOperand},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	if subcommand == "remote" {
		return formatter.describeRemoteMessage(command, result, failure, stage)
	}

	verbs, known := gitMessageCatalog[subcommand]
	if !known {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subject := ""
	if verbs.subject != nil {
		subject = verbs.subject(command.Details.Arguments[1:])
	}
	return formatter.describe(verbs, subject, command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describe(verbs gitMessageVerbs, subject string, command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)

	if len(subject) == 0 {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(subjectlessStartTemplateConstant, verbs.progressive, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(subjectlessStartTemplateConstant, verbs.past, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(subjectlessFailureTemplateConstant, verbs.infinitive, workingDirectory, result.ExitCode, standardErrorSuffix)
		default:
			return fmt.Sprintf(subjectlessExecutionFailureTemplate, verbs.infinitive, workingDirectory, formatter.describeFailure(failure))
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(describedStartTemplateConstant, verbs.progressive, subject, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(describedSuccessTemplateConstant, verbs.past, subject, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(describedFailureTemplateConstant, verbs.infinitive, subject, workingDirectory, result.ExitCode, standardErrorSuffix)
	default:
		return fmt.Sprintf(describedExecutionFailureTemplateConst, verbs.infinitive, subject, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	operands := nonFlagArguments(command.Details.Arguments[1:])
	if len(operands) == 0 || containsArgument(command.Details.Arguments, remoteVerboseFlagConstant) {
		verbs := gitMessageVerbs{progressive: "Listing remotes", past: "Listed remotes", infinitive: "list remotes"}
		return formatter.describe(verbs, "", command, result, failure, stage)
	}

	action := operands[0]
	arguments := operands[1:]
	var verbs gitMessageVerbs
	subject := strings.Join(arguments, commandArgumentsJoinSeparatorConstant)
	switch action {
	case remoteAddActionConstant:
		verbs = gitMessageVerbs{progressive: "Adding remote", past: "Added remote", infinitive: "add remote"}
	case remoteRenameActionConstant:
		verbs = gitMessageVerbs{progressive: "Renaming remote", past: "Renamed remote", infinitive: "rename remote"}
		subject = strings.Join(arguments, toSeparatorConstant)
	case remoteSetURLActionConstant:
		verbs = gitMessageVerbs{progressive: "Updating remote", past: "Updated remote", infinitive: "update remote"}
		subject = strings.Join(arguments, toSeparatorConstant)
	case remoteRemoveActionConstant:
		verbs = gitMessageVerbs{progressive: "Removing remote", past: "Removed remote", infinitive: "remove remote"}
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	return formatter.describe(verbs, subject, command, result, failure, stage)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := describeCommand(command)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func describeFirstOperand(arguments []string) string {
	operands := nonFlagArguments(arguments)
	if len(operands) == 0 {
		return ""
	}
	return operands[0]
}

func describeOperandPair(arguments []string) string {
	return strings.Join(nonFlagArguments(arguments), rangeSeparatorConstant)
}

func describeCloneSubject(arguments []string) string {
	operands := nonFlagArguments(skipFlagValues(arguments, "--origin"))
	switch len(operands) {
	case 0:
		return ""
	case 1:
		return operands[0]
	default:
		return operands[0] + intoSeparatorConstant + operands[1]
	}
}

func describeFetchSubject(arguments []string) string {
	operands := nonFlagArguments(arguments)
	switch len(operands) {
	case 0:
		return fromSeparatorConstant + allRemotesLabelConstant
	case 1:
		return fromSeparatorConstant + operands[0]
	default:
		return strings.Join(operands[1:], rangeSeparatorConstant) + " " + fromSeparatorConstant + operands[0]
	}
}

func describePushSubject(arguments []string) string {
	operands := nonFlagArguments(arguments)
	if len(operands) < 2 {
		return strings.Join(operands, commandArgumentsJoinSeparatorConstant)
	}
	return strings.Join(operands[1:], rangeSeparatorConstant) + toSeparatorConstant + operands[0]
}

func nonFlagArguments(arguments []string) []string {
	operands := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 || strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			continue
		}
		operands = append(operands, trimmedArgument)
	}
	return operands
}

func skipFlagValues(arguments []string, flagsWithValues ...string) []string {
	filtered := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		if containsArgument(flagsWithValues, arguments[index]) {
			index++
			continue
		}
		filtered = append(filtered, arguments[index])
	}
	return filtered
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
