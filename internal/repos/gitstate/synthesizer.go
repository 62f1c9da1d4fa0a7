package gitstate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/registry"
	"github.com/temirov/ingit/internal/repos/resolver"
)

const (
	inspectionStartedMessageConstant       = "inspecting repository"
	inspectionFailedMessageConstant        = "repository inspection failed"
	logFieldRepositoryConstant             = "repository"
	logFieldPathConstant                   = "path"
	queryFailedTemplateConstant            = "%s: %w"
	queryHeadConstant                      = "resolve HEAD"
	queryBranchesConstant                  = "list branches"
	queryTrackingTemplateConstant          = "verify tracking branch %s"
	queryCountTemplateConstant             = "count commits %s..%s"
	queryLogTemplateConstant               = "read log %s..%s"
	queryStatusConstant                    = "read status"
	queryRemotesConstant                   = "list remotes"
	remoteTrackingReferencesPrefixConstant = "refs/remotes/"
)

// BranchQueries lists branches and compares them with their tracking branches.
type BranchQueries interface {
	ListLocalBranches(executionContext context.Context, repositoryPath string) ([]gitrepo.LocalBranch, error)
	ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error)
	CountCommits(executionContext context.Context, repositoryPath string, from string, to string) (int, error)
}

// GitQueries is the read-only subset of gitrepo.RepositoryManager used for inspection.
type GitQueries interface {
	BranchQueries
	ResolveHead(executionContext context.Context, repositoryPath string) (gitrepo.HeadState, error)
	LogRange(executionContext context.Context, repositoryPath string, from string, to string) ([]string, error)
	Status(executionContext context.Context, repositoryPath string, includeIgnored bool) (gitrepo.WorkingTreeStatus, error)
	ListRemotes(executionContext context.Context, repositoryPath string) (registry.RemoteSet, error)
}

// Synthesizer builds Status snapshots.
type Synthesizer struct {
	queries GitQueries
	logger  *zap.Logger
}

// NewSynthesizer constructs a Synthesizer.
func NewSynthesizer(queries GitQueries, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{queries: queries, logger: logger}
}

// Inspect snapshots the repository. Repositories that are missing, unresolvable or not working
// copies short-circuit without invoking git; any failing git query yields StateToolError.
func (synthesizer *Synthesizer) Inspect(executionContext context.Context, repository resolver.ResolvedRepository, options InspectOptions) Status {
	status := Status{Repository: repository.Name(), Path: repository.Path}
	if state, shortCircuit := shortCircuitState(repository); shortCircuit {
		status.State = state
		status.Err = repository.Err
		return status
	}

	synthesizer.logger.Debug(inspectionStartedMessageConstant, zap.String(logFieldRepositoryConstant, status.Repository), zap.String(logFieldPathConstant, status.Path))
	if inspectionError := synthesizer.inspect(executionContext, repository, options, &status); inspectionError != nil {
		synthesizer.logger.Warn(inspectionFailedMessageConstant, zap.String(logFieldRepositoryConstant, status.Repository), zap.Error(inspectionError))
		status.State = StateToolError
		status.Err = inspectionError
		return status
	}
	status.State = StateInspected
	return status
}

func (synthesizer *Synthesizer) inspect(executionContext context.Context, repository resolver.ResolvedRepository, options InspectOptions, status *Status) error {
	path := repository.Path

	head, headError := synthesizer.queries.ResolveHead(executionContext, path)
	if headError != nil {
		return fmt.Errorf(queryFailedTemplateConstant, queryHeadConstant, headError)
	}
	status.Branch = head.Branch
	status.Detached = head.Detached()
	status.Commit = head.Commit

	branches, branchesError := BranchSyncs(executionContext, synthesizer.queries, path)
	if branchesError != nil {
		return branchesError
	}
	status.Branches = branches

	if current, found := status.Current(); found && current.TrackingExists {
		preview, previewError := synthesizer.preview(executionContext, path, current)
		if previewError != nil {
			return previewError
		}
		status.Preview = preview
	}

	workingTree, statusError := synthesizer.queries.Status(executionContext, path, options.IncludeIgnored)
	if statusError != nil {
		return fmt.Errorf(queryFailedTemplateConstant, queryStatusConstant, statusError)
	}
	status.Dirty = workingTree.Dirty()
	status.StatusLines = workingTree.Changes
	status.Untracked = workingTree.Untracked
	status.Ignored = workingTree.Ignored

	diskRemotes, remotesError := synthesizer.queries.ListRemotes(executionContext, path)
	if remotesError != nil {
		return fmt.Errorf(queryFailedTemplateConstant, queryRemotesConstant, remotesError)
	}
	status.Drift = CompareRemotes(repository.Entry.Remotes, diskRemotes)
	return nil
}

// BranchSyncs reports ahead/behind counts for every local branch; counts are computed only when
// the tracking branch exists locally.
func BranchSyncs(executionContext context.Context, queries BranchQueries, path string) ([]BranchSync, error) {
	localBranches, listError := queries.ListLocalBranches(executionContext, path)
	if listError != nil {
		return nil, fmt.Errorf(queryFailedTemplateConstant, queryBranchesConstant, listError)
	}

	syncs := make([]BranchSync, 0, len(localBranches))
	for _, localBranch := range localBranches {
		branchSync := BranchSync{Name: localBranch.Name, Tracking: localBranch.Upstream}
		if len(localBranch.Upstream) == 0 {
			syncs = append(syncs, branchSync)
			continue
		}

		exists, verifyError := queries.ReferenceExists(executionContext, path, remoteTrackingReferencesPrefixConstant+localBranch.Upstream)
		if verifyError != nil {
			return nil, fmt.Errorf(queryFailedTemplateConstant, fmt.Sprintf(queryTrackingTemplateConstant, localBranch.Upstream), verifyError)
		}
		branchSync.TrackingExists = exists
		if exists {
			ahead, aheadError := queries.CountCommits(executionContext, path, localBranch.Upstream, localBranch.Name)
			if aheadError != nil {
				return nil, fmt.Errorf(queryFailedTemplateConstant, fmt.Sprintf(queryCountTemplateConstant, localBranch.Upstream, localBranch.Name), aheadError)
			}
			behind, behindError := queries.CountCommits(executionContext, path, localBranch.Name, localBranch.Upstream)
			if behindError != nil {
				return nil, fmt.Errorf(queryFailedTemplateConstant, fmt.Sprintf(queryCountTemplateConstant, localBranch.Name, localBranch.Upstream), behindError)
			}
			branchSync.Ahead = ahead
			branchSync.Behind = behind
		}
		syncs = append(syncs, branchSync)
	}
	return syncs, nil
}

func (synthesizer *Synthesizer) preview(executionContext context.Context, path string, current BranchSync) (LogPreview, error) {
	preview := LogPreview{}
	if current.NeedsPush() {
		notPushed, logError := synthesizer.queries.LogRange(executionContext, path, current.Tracking, current.Name)
		if logError != nil {
			return LogPreview{}, fmt.Errorf(queryFailedTemplateConstant, fmt.Sprintf(queryLogTemplateConstant, current.Tracking, current.Name), logError)
		}
		preview.NotPushed = AbbreviateLog(notPushed)
	}
	if current.NeedsMerge() {
		notMerged, logError := synthesizer.queries.LogRange(executionContext, path, current.Name, current.Tracking)
		if logError != nil {
			return LogPreview{}, fmt.Errorf(queryFailedTemplateConstant, fmt.Sprintf(queryLogTemplateConstant, current.Name, current.Tracking), logError)
		}
		preview.NotMerged = AbbreviateLog(notMerged)
	}
	return preview, nil
}
