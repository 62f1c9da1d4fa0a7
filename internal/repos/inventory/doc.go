// Package inventory opens the per-invocation view of the registry: it loads the runtime and
// registry documents, picks the active machine, applies the selectors and resolves the selected
// repositories. It also registers new working copies.
package inventory
