// Package gitrepo issues git queries and mutations against working copies.
//
// RepositoryManager wraps a git executor with typed helpers for branches, remotes, status and
// commit ranges. Remote URL helpers parse ssh and https remotes so drift reports can tell a
// protocol change from a different repository.
package gitrepo
