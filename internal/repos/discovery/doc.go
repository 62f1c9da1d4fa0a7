// Package discovery inspects directories on disk with go-git: whether a path holds a working
// copy, what remotes a working copy declares, and how a repositories root splits into registered,
// unregistered and non-versioned folders.
package discovery
