package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSFileSystem implements shared.FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir lists directory entries sorted by name.
func (OSFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}
