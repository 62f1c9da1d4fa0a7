// Package flags binds the shared ingit flags (document locations, selectors, execution toggles) to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	DryRun    bool
	AssumeYes bool
}

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	DryRun    ExecutionFlagDefinition
	AssumeYes ExecutionFlagDefinition
}

// ExecutionFlagValues receives the parsed execution flags.
type ExecutionFlagValues struct {
	DryRun    bool
	AssumeYes bool
}

// BindExecutionFlags attaches the enabled execution flags to the command using persistent scope.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) *ExecutionFlagValues {
	values := &ExecutionFlagValues{DryRun: defaults.DryRun, AssumeYes: defaults.AssumeYes}
	if command == nil {
		return values
	}

	persistentFlagSet := command.PersistentFlags()

	bindBoolFlag(persistentFlagSet, &values.DryRun, definitions.DryRun, defaults.DryRun)
	bindBoolFlag(persistentFlagSet, &values.AssumeYes, definitions.AssumeYes, defaults.AssumeYes)
	return values
}

func bindBoolFlag(flagSet *pflag.FlagSet, target *bool, definition ExecutionFlagDefinition, defaultValue bool) {
	if flagSet == nil {
		return
	}
	if !definition.Enabled {
		return
	}
	if len(definition.Name) == 0 {
		return
	}

	flagSet.BoolVarP(target, definition.Name, definition.Shorthand, defaultValue, definition.Usage)
}
