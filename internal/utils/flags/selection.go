package flags

import "github.com/spf13/cobra"

const (
	// RuntimeConfigurationFlagName exposes the runtime document flag name.
	RuntimeConfigurationFlagName = "config"
	// RuntimeConfigurationFlagUsage describes the runtime document flag purpose.
	RuntimeConfigurationFlagUsage = "Path to the runtime configuration document listing machines"
	// RegistryFlagName exposes the repository registry flag name.
	RegistryFlagName = "repos"
	// RegistryFlagUsage describes the repository registry flag purpose.
	RegistryFlagUsage = "Path to the repository registry document"
	// RegexFlagName exposes the repository regex selector flag name.
	RegexFlagName = "regex"
	// RegexFlagShorthand provides the shorthand for the regex selector flag.
	RegexFlagShorthand = "r"
	// RegexFlagUsage describes the regex selector flag purpose.
	RegexFlagUsage = "Select repositories whose name, tags, path or remote names match the expression"
	// PredicateFlagName exposes the repository predicate selector flag name.
	PredicateFlagName = "predicate"
	// PredicateFlagShorthand provides the shorthand for the predicate selector flag.
	PredicateFlagShorthand = "p"
	// PredicateFlagUsage describes the predicate selector flag purpose.
	PredicateFlagUsage = "Select repositories for which the boolean expression over repo holds"
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Preview changes without writing them"
	// AssumeYesFlagName exposes the shared assume-yes flag name.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand provides the shorthand for the assume-yes flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the shared assume-yes flag purpose.
	AssumeYesFlagUsage = "Automatically confirm prompts"
)

// DocumentFlagValues stores the locations of the runtime and registry documents.
type DocumentFlagValues struct {
	RuntimeConfigurationPath string
	RegistryPath             string
}

// BindDocumentFlags attaches the persistent document location flags to the provided command.
func BindDocumentFlags(command *cobra.Command, defaults DocumentFlagValues) *DocumentFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	persistentFlagSet := command.PersistentFlags()
	persistentFlagSet.StringVar(&values.RuntimeConfigurationPath, RuntimeConfigurationFlagName, defaults.RuntimeConfigurationPath, RuntimeConfigurationFlagUsage)
	persistentFlagSet.StringVar(&values.RegistryPath, RegistryFlagName, defaults.RegistryPath, RegistryFlagUsage)
	return &values
}

// SelectorFlagValues stores repository selection expressions.
type SelectorFlagValues struct {
	Regex     string
	Predicate string
}

// BindSelectorFlags attaches the persistent repository selector flags to the provided command.
func BindSelectorFlags(command *cobra.Command) *SelectorFlagValues {
	values := &SelectorFlagValues{}
	if command == nil {
		return values
	}

	persistentFlagSet := command.PersistentFlags()
	persistentFlagSet.StringVarP(&values.Regex, RegexFlagName, RegexFlagShorthand, "", RegexFlagUsage)
	persistentFlagSet.StringVarP(&values.Predicate, PredicateFlagName, PredicateFlagShorthand, "", PredicateFlagUsage)
	return values
}
