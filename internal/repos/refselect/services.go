package refselect

import (
	"context"
	"fmt"

	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/registry"
)

const (
	inventoryFailureTemplateConstant = "read references: %w"
	chooserFailureTemplateConstant   = "choose reference: %w"
	checkoutFailureTemplateConstant  = "check out %s: %w"
)

// GitOperations is the subset of gitrepo.RepositoryManager used for checkout and merge.
type GitOperations interface {
	ResolveHead(executionContext context.Context, repositoryPath string) (gitrepo.HeadState, error)
	ListLocalBranches(executionContext context.Context, repositoryPath string) ([]gitrepo.LocalBranch, error)
	ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteNames []string) ([]gitrepo.RemoteBranch, error)
	ListTags(executionContext context.Context, repositoryPath string) ([]string, error)
	ListRemotes(executionContext context.Context, repositoryPath string) (registry.RemoteSet, error)
	ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error)
	CountCommits(executionContext context.Context, repositoryPath string, from string, to string) (int, error)
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	IsAncestor(executionContext context.Context, repositoryPath string, ancestor string, descendant string) (bool, error)
	Checkout(executionContext context.Context, repositoryPath string, arguments ...string) error
	MergeFastForward(executionContext context.Context, repositoryPath string, reference string) error
	MergeWithLog(executionContext context.Context, repositoryPath string, reference string) error
	RebaseInteractive(executionContext context.Context, repositoryPath string, reference string) error
	ResetHard(executionContext context.Context, repositoryPath string, reference string) error
}

// CandidateChooser asks the operator for a reference. Returning false cancels the checkout.
type CandidateChooser interface {
	ChooseReference(repository string, current gitrepo.HeadState, candidates []RefCandidate) (RefCandidate, bool, error)
}

// LoadInventory collects the references of the working copy at path.
func LoadInventory(executionContext context.Context, operations GitOperations, path string) (Inventory, error) {
	head, headError := operations.ResolveHead(executionContext, path)
	if headError != nil {
		return Inventory{}, fmt.Errorf(inventoryFailureTemplateConstant, headError)
	}
	localBranches, localError := operations.ListLocalBranches(executionContext, path)
	if localError != nil {
		return Inventory{}, fmt.Errorf(inventoryFailureTemplateConstant, localError)
	}
	remotes, remotesError := operations.ListRemotes(executionContext, path)
	if remotesError != nil {
		return Inventory{}, fmt.Errorf(inventoryFailureTemplateConstant, remotesError)
	}
	remoteBranches, remoteError := operations.ListRemoteBranches(executionContext, path, remotes.Names())
	if remoteError != nil {
		return Inventory{}, fmt.Errorf(inventoryFailureTemplateConstant, remoteError)
	}
	tags, tagsError := operations.ListTags(executionContext, path)
	if tagsError != nil {
		return Inventory{}, fmt.Errorf(inventoryFailureTemplateConstant, tagsError)
	}
	return Inventory{Head: head, LocalBranches: localBranches, RemoteBranches: remoteBranches, Tags: tags}, nil
}

// CheckoutResult records what a checkout did.
type CheckoutResult struct {
	Cancelled bool
	Plan      CheckoutPlan
}

// CheckoutService drives interactive checkouts.
type CheckoutService struct {
	operations GitOperations
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(operations GitOperations) *CheckoutService {
	return &CheckoutService{operations: operations}
}

// Checkout lists candidates, asks the chooser and applies the resulting plan.
func (service *CheckoutService) Checkout(executionContext context.Context, repository string, path string, chooser CandidateChooser) (CheckoutResult, error) {
	inventory, inventoryError := LoadInventory(executionContext, service.operations, path)
	if inventoryError != nil {
		return CheckoutResult{}, inventoryError
	}

	candidate, chosen, chooserError := chooser.ChooseReference(repository, inventory.Head, BuildCandidates(inventory))
	if chooserError != nil {
		return CheckoutResult{}, fmt.Errorf(chooserFailureTemplateConstant, chooserError)
	}
	if !chosen {
		return CheckoutResult{Cancelled: true}, nil
	}

	plan := PlanCheckout(candidate, inventory)
	if plan.NoOp {
		return CheckoutResult{Plan: plan}, nil
	}
	if checkoutError := service.operations.Checkout(executionContext, path, plan.Arguments...); checkoutError != nil {
		return CheckoutResult{Plan: plan}, fmt.Errorf(checkoutFailureTemplateConstant, candidate.Label(), checkoutError)
	}
	return CheckoutResult{Plan: plan}, nil
}
