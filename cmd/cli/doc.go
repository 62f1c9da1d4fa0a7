// Package cli constructs the ingit command-line interface: the Cobra command hierarchy, the
// settings loader, structured logging and the mapping from command errors to exit codes.
package cli
