package shared

// ConfirmationPolicy specifies how executors should handle user confirmations.
type ConfirmationPolicy int

const (
	// ConfirmationPrompt indicates the executor should prompt the user.
	ConfirmationPrompt ConfirmationPolicy = iota
	// ConfirmationAssumeYes indicates the executor should continue without prompting.
	ConfirmationAssumeYes
)

// ConfirmationPolicyFor derives the policy from --yes and the machine's interactive flag.
// Non-interactive machines never prompt.
func ConfirmationPolicyFor(assumeYes bool, interactive bool) ConfirmationPolicy {
	if assumeYes || !interactive {
		return ConfirmationAssumeYes
	}
	return ConfirmationPrompt
}

// ShouldPrompt reports whether the executor must prompt the user.
func (policy ConfirmationPolicy) ShouldPrompt() bool {
	return policy != ConfirmationAssumeYes
}

// ShouldAssumeYes reports whether prompting can be skipped.
func (policy ConfirmationPolicy) ShouldAssumeYes() bool {
	return policy == ConfirmationAssumeYes
}
