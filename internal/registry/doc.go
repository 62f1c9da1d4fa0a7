// Package registry loads, validates and persists the two ingit documents: the runtime document
// listing machines and the repository registry.
package registry
