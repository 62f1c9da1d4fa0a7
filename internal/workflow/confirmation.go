package workflow

import (
	"errors"
	"sync"

	"github.com/temirov/ingit/internal/repos/shared"
)

const promptUnavailableMessage = "confirmation required but no prompter is configured"

// ErrPromptUnavailable indicates a confirmation that cannot be asked.
var ErrPromptUnavailable = errors.New(promptUnavailableMessage)

// ConfirmationGate applies the confirmation policy in front of a prompter. Once the operator
// answers "all", later confirmations of the run are granted without asking.
type ConfirmationGate struct {
	mutex      sync.Mutex
	prompter   shared.ConfirmationPrompter
	policy     shared.ConfirmationPolicy
	applyToAll bool
}

// NewConfirmationGate constructs a gate.
func NewConfirmationGate(prompter shared.ConfirmationPrompter, policy shared.ConfirmationPolicy) *ConfirmationGate {
	return &ConfirmationGate{prompter: prompter, policy: policy}
}

// Confirm asks the operator unless the policy or an earlier answer already grants the change.
func (gate *ConfirmationGate) Confirm(prompt string) (shared.ConfirmationResult, error) {
	gate.mutex.Lock()
	defer gate.mutex.Unlock()

	if gate.policy.ShouldAssumeYes() || gate.applyToAll {
		return shared.ConfirmationResult{Confirmed: true, ApplyToAll: gate.applyToAll}, nil
	}
	if gate.prompter == nil {
		return shared.ConfirmationResult{}, ErrPromptUnavailable
	}

	result, promptError := gate.prompter.Confirm(prompt)
	if promptError != nil {
		return shared.ConfirmationResult{}, promptError
	}
	if result.Confirmed && result.ApplyToAll {
		gate.applyToAll = true
	}
	return result, nil
}

// Prompts reports whether a Confirm call may still reach the operator.
func (gate *ConfirmationGate) Prompts() bool {
	if gate == nil {
		return false
	}
	gate.mutex.Lock()
	defer gate.mutex.Unlock()
	return gate.policy.ShouldPrompt() && !gate.applyToAll
}
