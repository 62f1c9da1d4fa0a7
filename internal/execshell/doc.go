// Package execshell runs git and shell commands on behalf of ingit.
//
// ShellExecutor wraps a CommandRunner with per-invocation timeouts, structured
// logging and lifecycle events, and converts non-zero exits, start failures and
// timeouts into typed errors that callers classify as per-repository tool errors.
package execshell
