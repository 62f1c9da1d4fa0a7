// Package ui renders command results and talks to the operator.
//
// ReportRenderer prints batch reports, summaries and registrations as tables, JSON or YAML.
// IOConfirmationPrompter and TerminalSelector answer the [a/N/y] confirmations and the
// reference and remediation pickers, and ConsoleCommandEventLogger narrates git invocations.
package ui
