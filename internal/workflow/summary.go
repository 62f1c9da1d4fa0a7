package workflow

import (
	"fmt"

	"github.com/temirov/ingit/internal/repos/discovery"
	"github.com/temirov/ingit/internal/repos/resolver"
)

const (
	allRegisteredTemplate     = "All registered projects (%d):"
	matchingTemplate          = "Registered projects matching given conditions (%d):"
	allInitialisedMessage     = "All of them are initialised."
	partlyInitialisedTemplate = "%d of them are initialised (%d not)."
	partitionFailedTemplate   = "partition %s: %w"
)

// RootPartitioner splits a repositories root into unregistered working copies and plain folders.
type RootPartitioner interface {
	PartitionRoot(root string, registeredPaths []string) (discovery.RootPartition, error)
}

// SummaryRequest describes the repositories to summarize.
type SummaryRequest struct {
	Selected []resolver.ResolvedRepository
	// Filtered is set when selectors removed some registered repositories.
	Filtered bool
	// RegisteredPaths holds the resolved paths of every registered repository, selected or not.
	RegisteredPaths []string
	// Root is the machine's repositories root; empty disables the partition.
	Root string
}

// Summary is the registry overview for the active machine.
type Summary struct {
	Filtered          bool
	Repositories      []resolver.ResolvedRepository
	Initialised       int
	RegisteredLive    []string
	RegisteredMissing []string
	Root              string
	Partition         *discovery.RootPartition
}

// Summarize counts initialised repositories and partitions the machine root.
func Summarize(request SummaryRequest, partitioner RootPartitioner) (Summary, error) {
	summary := Summary{Filtered: request.Filtered, Repositories: request.Selected, Root: request.Root}
	for _, repository := range request.Selected {
		switch {
		case repository.IsWorkingCopy():
			summary.Initialised++
			summary.RegisteredLive = append(summary.RegisteredLive, repository.Name())
		case !repository.Unresolvable() && repository.Liveness == discovery.LivenessMissing:
			summary.RegisteredMissing = append(summary.RegisteredMissing, repository.Name())
		}
	}

	if len(request.Root) == 0 || partitioner == nil {
		return summary, nil
	}
	partition, partitionError := partitioner.PartitionRoot(request.Root, request.RegisteredPaths)
	if partitionError != nil {
		return summary, fmt.Errorf(partitionFailedTemplate, request.Root, partitionError)
	}
	summary.Partition = &partition
	return summary, nil
}

// Headline introduces the repository listing.
func (summary Summary) Headline() string {
	if summary.Filtered {
		return fmt.Sprintf(matchingTemplate, len(summary.Repositories))
	}
	return fmt.Sprintf(allRegisteredTemplate, len(summary.Repositories))
}

// InitialisedLine reports how many listed repositories exist as working copies; empty when none are listed.
func (summary Summary) InitialisedLine() string {
	total := len(summary.Repositories)
	if total == 0 {
		return ""
	}
	if summary.Initialised == total {
		return allInitialisedMessage
	}
	return fmt.Sprintf(partlyInitialisedTemplate, summary.Initialised, total-summary.Initialised)
}
