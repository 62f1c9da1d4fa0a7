package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/ingit/internal/execshell"
	"github.com/temirov/ingit/internal/registry"
)

const (
	requiredValueMessageConstant          = "value required"
	executorNotConfiguredMessageConstant  = "repository manager requires a git executor"
	repositoryPathRequiredMessageConstant = "repository path required"
	parseCommitCountTemplateConstant      = "parse commit count %q: %w"
	fieldSeparatorConstant                = "\t"
	lineSeparatorConstant                 = "\n"
	remoteReferencesPrefixConstant        = "refs/remotes/"
	remoteHeadSuffixConstant              = "/HEAD"
	remoteListingFetchMarkerConstant      = "(fetch)"
	statusBranchHeaderPrefixConstant      = "## "
	statusUntrackedPrefixConstant         = "?? "
	statusIgnoredPrefixConstant           = "!! "
	statusPathOffsetConstant              = 3
	rangeSeparatorConstant                = ".."
	gitStatusSubcommandConstant           = "status"
	gitSymbolicRefSubcommandConstant      = "symbolic-ref"
	gitRevParseSubcommandConstant         = "rev-parse"
	gitRevListSubcommandConstant          = "rev-list"
	gitForEachRefSubcommandConstant       = "for-each-ref"
	gitRemoteSubcommandConstant           = "remote"
	gitLogSubcommandConstant              = "log"
	gitMergeBaseSubcommandConstant        = "merge-base"
	gitCheckoutSubcommandConstant         = "checkout"
	gitMergeSubcommandConstant            = "merge"
	gitRebaseSubcommandConstant           = "rebase"
	gitResetSubcommandConstant            = "reset"
	gitShortFlagConstant                  = "--short"
	gitQuietFlagConstant                  = "--quiet"
	gitVerifyFlagConstant                 = "--verify"
	gitCountFlagConstant                  = "--count"
	gitBranchFlagConstant                 = "--branch"
	gitIgnoredFlagConstant                = "--ignored"
	gitPorcelainFlagConstant              = "--porcelain"
	gitVerboseFlagConstant                = "-v"
	gitOnelineFormatConstant              = "--pretty=oneline"
	gitIsAncestorFlagConstant             = "--is-ancestor"
	gitFastForwardOnlyFlagConstant        = "--ff-only"
	gitLogFlagConstant                    = "--log"
	gitInteractiveFlagConstant            = "--interactive"
	gitHardFlagConstant                   = "--hard"
	gitHeadReferenceConstant              = "HEAD"
	gitLocalBranchesNamespaceConstant     = "refs/heads"
	gitRemoteBranchesNamespaceConstant    = "refs/remotes"
	gitTagsNamespaceConstant              = "refs/tags"
	gitLocalBranchFormatConstant          = "--format=%(refname:short)%09%(upstream:short)%09%(upstream:remotename)"
	gitRemoteBranchFormatConstant         = "--format=%(refname)%09%(symref)"
	gitTagFormatConstant                  = "--format=%(refname:short)"
	gitRemoteAddActionConstant            = "add"
	gitRemoteRenameActionConstant         = "rename"
	gitRemoteSetURLActionConstant         = "set-url"
	gitRemoteRemoveActionConstant         = "remove"
	falseExitCodeConstant                 = 1
)

var (
	// ErrExecutorNotConfigured indicates that no git executor was supplied.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrRepositoryPathRequired indicates an empty repository path.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// HeadState describes what HEAD points at.
type HeadState struct {
	// Branch is empty when HEAD is detached.
	Branch string
	// Commit is empty for an unborn branch.
	Commit string
}

// Detached reports whether HEAD is detached.
func (state HeadState) Detached() bool {
	return len(state.Branch) == 0
}

// LocalBranch is a branch under refs/heads with its configured upstream.
type LocalBranch struct {
	Name string
	// Upstream is the short tracking reference, e.g. origin/main; empty when untracked.
	Upstream       string
	UpstreamRemote string
}

// RemoteBranch is a branch under refs/remotes.
type RemoteBranch struct {
	Remote string
	Name   string
}

// ShortName returns remote/name.
func (branch RemoteBranch) ShortName() string {
	return branch.Remote + "/" + branch.Name
}

// WorkingTreeStatus is parsed from short status output.
type WorkingTreeStatus struct {
	BranchHeader string
	// Changes holds short status lines for tracked modifications.
	Changes   []string
	Untracked []string
	Ignored   []string
}

// Dirty reports whether tracked files changed or untracked files exist.
func (status WorkingTreeStatus) Dirty() bool {
	return len(status.Changes) > 0 || len(status.Untracked) > 0
}

// RepositoryManager issues git queries and mutations against working copies.
type RepositoryManager struct {
	executor GitExecutor
	timeout  time.Duration
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// WithTimeout bounds every git invocation issued by the manager.
func (manager *RepositoryManager) WithTimeout(timeout time.Duration) *RepositoryManager {
	return &RepositoryManager{executor: manager.executor, timeout: timeout}
}

// CheckCleanWorktree reports whether the working tree has no changes or untracked files.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	output, executionError := manager.output(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(output)) == 0, nil
}

// GetCurrentBranch returns the checked-out branch name, or an empty string when HEAD is detached.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	output, found, executionError := manager.outputUnlessFalse(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, gitHeadReferenceConstant)
	if executionError != nil || !found {
		return "", executionError
	}
	return strings.TrimSpace(output), nil
}

// ResolveHead returns the current branch and commit.
func (manager *RepositoryManager) ResolveHead(executionContext context.Context, repositoryPath string) (HeadState, error) {
	branch, branchError := manager.GetCurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return HeadState{}, branchError
	}
	commit, _, commitError := manager.resolveReference(executionContext, repositoryPath, gitHeadReferenceConstant)
	if commitError != nil {
		return HeadState{}, commitError
	}
	return HeadState{Branch: branch, Commit: commit}, nil
}

// ReferenceExists reports whether the reference resolves to an object.
func (manager *RepositoryManager) ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error) {
	_, exists, resolveError := manager.resolveReference(executionContext, repositoryPath, reference)
	return exists, resolveError
}

// ListLocalBranches returns local branches with their upstreams.
func (manager *RepositoryManager) ListLocalBranches(executionContext context.Context, repositoryPath string) ([]LocalBranch, error) {
	output, executionError := manager.output(executionContext, repositoryPath, gitForEachRefSubcommandConstant, gitLocalBranchFormatConstant, gitLocalBranchesNamespaceConstant)
	if executionError != nil {
		return nil, executionError
	}

	branches := make([]LocalBranch, 0)
	for _, line := range splitLines(output) {
		fields := strings.Split(line, fieldSeparatorConstant)
		branch := LocalBranch{Name: fields[0]}
		if len(fields) > 1 {
			branch.Upstream = fields[1]
		}
		if len(fields) > 2 {
			branch.UpstreamRemote = fields[2]
		}
		branches = append(branches, branch)
	}
	return branches, nil
}

// ListRemoteBranches returns remote-tracking branches, excluding symbolic references such as origin/HEAD.
func (manager *RepositoryManager) ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteNames []string) ([]RemoteBranch, error) {
	output, executionError := manager.output(executionContext, repositoryPath, gitForEachRefSubcommandConstant, gitRemoteBranchFormatConstant, gitRemoteBranchesNamespaceConstant)
	if executionError != nil {
		return nil, executionError
	}

	branches := make([]RemoteBranch, 0)
	for _, line := range splitLines(output) {
		fields := strings.Split(line, fieldSeparatorConstant)
		if len(fields) > 1 && len(fields[1]) > 0 {
			continue
		}
		reference := strings.TrimPrefix(fields[0], remoteReferencesPrefixConstant)
		if strings.HasSuffix(reference, remoteHeadSuffixConstant) {
			continue
		}
		if branch, parsed := splitRemoteReference(reference, remoteNames); parsed {
			branches = append(branches, branch)
		}
	}
	return branches, nil
}

// ListTags returns tag names.
func (manager *RepositoryManager) ListTags(executionContext context.Context, repositoryPath string) ([]string, error) {
	output, executionError := manager.output(executionContext, repositoryPath, gitForEachRefSubcommandConstant, gitTagFormatConstant, gitTagsNamespaceConstant)
	if executionError != nil {
		return nil, executionError
	}
	return splitLines(output), nil
}

// CountCommits counts the commits reachable from to but not from from.
func (manager *RepositoryManager) CountCommits(executionContext context.Context, repositoryPath string, from string, to string) (int, error) {
	output, executionError := manager.output(executionContext, repositoryPath, gitRevListSubcommandConstant, gitCountFlagConstant, from+rangeSeparatorConstant+to)
	if executionError != nil {
		return 0, executionError
	}
	trimmed := strings.TrimSpace(output)
	count, parseError := strconv.Atoi(trimmed)
	if parseError != nil {
		return 0, fmt.Errorf(parseCommitCountTemplateConstant, trimmed, parseError)
	}
	return count, nil
}

// LogRange returns one-line log entries reachable from to but not from from.
func (manager *RepositoryManager) LogRange(executionContext context.Context, repositoryPath string, from string, to string) ([]string, error) {
	output, executionError := manager.output(executionContext, repositoryPath, gitLogSubcommandConstant, gitOnelineFormatConstant, from+rangeSeparatorConstant+to)
	if executionError != nil {
		return nil, executionError
	}
	return splitLines(output), nil
}

// Status returns the parsed short status, optionally listing ignored paths.
func (manager *RepositoryManager) Status(executionContext context.Context, repositoryPath string, includeIgnored bool) (WorkingTreeStatus, error) {
	arguments := []string{gitStatusSubcommandConstant, gitShortFlagConstant, gitBranchFlagConstant}
	if includeIgnored {
		arguments = append(arguments, gitIgnoredFlagConstant)
	}
	output, executionError := manager.output(executionContext, repositoryPath, arguments...)
	if executionError != nil {
		return WorkingTreeStatus{}, executionError
	}
	return ParseShortStatus(output), nil
}

// ParseShortStatus parses `git status --short --branch` output.
func ParseShortStatus(output string) WorkingTreeStatus {
	status := WorkingTreeStatus{}
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(line, statusBranchHeaderPrefixConstant):
			status.BranchHeader = strings.TrimPrefix(line, statusBranchHeaderPrefixConstant)
		case strings.HasPrefix(line, statusUntrackedPrefixConstant):
			status.Untracked = append(status.Untracked, line[statusPathOffsetConstant:])
		case strings.HasPrefix(line, statusIgnoredPrefixConstant):
			status.Ignored = append(status.Ignored, line[statusPathOffsetConstant:])
		default:
			status.Changes = append(status.Changes, line)
		}
	}
	return status
}

// ListRemotes returns configured remotes with their fetch URLs in git's listing order.
func (manager *RepositoryManager) ListRemotes(executionContext context.Context, repositoryPath string) (registry.RemoteSet, error) {
	output, executionError := manager.output(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitVerboseFlagConstant)
	if executionError != nil {
		return registry.RemoteSet{}, executionError
	}

	remotes := registry.RemoteSet{}
	for _, line := range splitLines(output) {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[len(fields)-1] != remoteListingFetchMarkerConstant {
			continue
		}
		remotes.Set(fields[0], strings.Join(fields[1:len(fields)-1], " "))
	}
	return remotes, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (manager *RepositoryManager) IsAncestor(executionContext context.Context, repositoryPath string, ancestor string, descendant string) (bool, error) {
	_, isAncestor, executionError := manager.outputUnlessFalse(executionContext, repositoryPath, gitMergeBaseSubcommandConstant, gitIsAncestorFlagConstant, ancestor, descendant)
	return isAncestor, executionError
}

// SetRemoteURL updates the URL of an existing remote.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	return manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteSetURLActionConstant, remoteName, remoteURL)
}

// AddRemote configures a new remote.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	return manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddActionConstant, remoteName, remoteURL)
}

// RenameRemote renames a configured remote.
func (manager *RepositoryManager) RenameRemote(executionContext context.Context, repositoryPath string, currentName string, newName string) error {
	return manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteRenameActionConstant, currentName, newName)
}

// RemoveRemote deletes a configured remote.
func (manager *RepositoryManager) RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	return manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteRemoveActionConstant, remoteName)
}

// Checkout runs git checkout with the provided arguments.
func (manager *RepositoryManager) Checkout(executionContext context.Context, repositoryPath string, arguments ...string) error {
	return manager.run(executionContext, repositoryPath, append([]string{gitCheckoutSubcommandConstant}, arguments...)...)
}

// MergeFastForward fast-forwards the current branch to the reference.
func (manager *RepositoryManager) MergeFastForward(executionContext context.Context, repositoryPath string, reference string) error {
	return manager.run(executionContext, repositoryPath, gitMergeSubcommandConstant, gitFastForwardOnlyFlagConstant, reference)
}

// MergeWithLog merges the reference, recording one-line commit summaries in the merge message.
func (manager *RepositoryManager) MergeWithLog(executionContext context.Context, repositoryPath string, reference string) error {
	return manager.run(executionContext, repositoryPath, gitMergeSubcommandConstant, gitLogFlagConstant, reference)
}

// RebaseInteractive starts an interactive rebase onto the reference, attached to the terminal.
func (manager *RepositoryManager) RebaseInteractive(executionContext context.Context, repositoryPath string, reference string) error {
	if len(repositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRebaseSubcommandConstant, gitInteractiveFlagConstant, reference},
		WorkingDirectory: repositoryPath,
		AttachTerminal:   true,
	})
	return executionError
}

// ResetHard resets the current branch and working tree to the reference.
func (manager *RepositoryManager) ResetHard(executionContext context.Context, repositoryPath string, reference string) error {
	return manager.run(executionContext, repositoryPath, gitResetSubcommandConstant, gitHardFlagConstant, reference)
}

func (manager *RepositoryManager) resolveReference(executionContext context.Context, repositoryPath string, reference string) (string, bool, error) {
	output, found, executionError := manager.outputUnlessFalse(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, reference)
	if executionError != nil || !found {
		return "", false, executionError
	}
	return strings.TrimSpace(output), true, nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) error {
	_, executionError := manager.output(executionContext, repositoryPath, arguments...)
	return executionError
}

func (manager *RepositoryManager) output(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	if len(repositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}
	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		Timeout:          manager.timeout,
	})
	if executionError != nil {
		return "", executionError
	}
	return result.StandardOutput, nil
}

// outputUnlessFalse treats exit code 1 as a negative answer rather than a failure.
func (manager *RepositoryManager) outputUnlessFalse(executionContext context.Context, repositoryPath string, arguments ...string) (string, bool, error) {
	output, executionError := manager.output(executionContext, repositoryPath, arguments...)
	if executionError != nil {
		if exitCode, exited := execshell.ExitCode(executionError); exited && exitCode == falseExitCodeConstant {
			return "", false, nil
		}
		return "", false, executionError
	}
	return output, true, nil
}

func splitLines(output string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		trimmed := strings.TrimRight(line, "\r")
		if len(strings.TrimSpace(trimmed)) == 0 {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

// splitRemoteReference prefers the longest known remote name so remotes containing slashes resolve correctly.
func splitRemoteReference(reference string, remoteNames []string) (RemoteBranch, bool) {
	bestRemote := ""
	for _, remoteName := range remoteNames {
		if strings.HasPrefix(reference, remoteName+"/") && len(remoteName) > len(bestRemote) {
			bestRemote = remoteName
		}
	}
	if len(bestRemote) == 0 {
		separatorIndex := strings.Index(reference, "/")
		if separatorIndex <= 0 {
			return RemoteBranch{}, false
		}
		bestRemote = reference[:separatorIndex]
	}
	return RemoteBranch{Remote: bestRemote, Name: strings.TrimPrefix(reference, bestRemote+"/")}, true
}
