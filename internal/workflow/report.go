package workflow

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/temirov/ingit/internal/repos/gitstate"
	"github.com/temirov/ingit/internal/repos/refselect"
	"github.com/temirov/ingit/internal/repos/shared"
)

const runIdentifierErrorTemplate = "generate run identifier: %w"

// OutcomeStatus classifies the result for one repository.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeSucceeded    OutcomeStatus = "succeeded"
	OutcomeSkipped      OutcomeStatus = "skipped"
	OutcomeFailed       OutcomeStatus = "failed"
	OutcomeMissing      OutcomeStatus = "missing"
	OutcomeUnresolvable OutcomeStatus = "unresolvable"
)

// Outcome is the per-repository entry of a Report.
type Outcome struct {
	Repository string
	Path       string
	Status     OutcomeStatus
	Message    string
	Err        error
	Steps      []StepResult

	// GitStatus is set by status inspections.
	GitStatus *gitstate.Status
	// Merge is set by merge runs.
	Merge *refselect.MergeResult
}

// Report aggregates the outcomes of one batch run in input order.
type Report struct {
	RunID    string
	Command  string
	Outcomes []Outcome
}

// Failed reports whether any repository failed.
func (report Report) Failed() bool {
	return report.Count(OutcomeFailed) > 0
}

// Count returns the number of outcomes with the given status.
func (report Report) Count(status OutcomeStatus) int {
	count := 0
	for _, outcome := range report.Outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}

// RunIdentifiers issues monotonic ULIDs.
type RunIdentifiers struct {
	mutex   sync.Mutex
	clock   shared.Clock
	entropy *ulid.MonotonicEntropy
}

// NewRunIdentifiers constructs a generator reading time from clock.
func NewRunIdentifiers(clock shared.Clock) *RunIdentifiers {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &RunIdentifiers{clock: clock, entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a new identifier.
func (identifiers *RunIdentifiers) Next() (string, error) {
	identifiers.mutex.Lock()
	defer identifiers.mutex.Unlock()
	identifier, generationError := ulid.New(ulid.Timestamp(identifiers.clock.Now().UTC()), identifiers.entropy)
	if generationError != nil {
		return "", fmt.Errorf(runIdentifierErrorTemplate, generationError)
	}
	return identifier.String(), nil
}
