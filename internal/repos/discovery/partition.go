package discovery

import (
	"fmt"
	"path/filepath"
	"sort"
)

const readRootDirectoryErrorTemplateConstant = "read repositories root %s: %w"

// RootPartition splits the immediate children of a repositories root.
type RootPartition struct {
	UnregisteredRepositories []string
	NonVersionedFolders      []string
}

// PartitionRoot lists the directories directly under root that are not among registeredPaths,
// separated into working copies and plain folders. Hidden entries are ignored.
func (inspector *Inspector) PartitionRoot(root string, registeredPaths []string) (RootPartition, error) {
	entries, readError := inspector.fileSystem.ReadDir(root)
	if readError != nil {
		return RootPartition{}, fmt.Errorf(readRootDirectoryErrorTemplateConstant, root, readError)
	}

	registered := make(map[string]struct{}, len(registeredPaths))
	for _, registeredPath := range registeredPaths {
		registered[filepath.Clean(registeredPath)] = struct{}{}
	}

	partition := RootPartition{}
	for _, entry := range entries {
		if !entry.IsDir() || len(entry.Name()) == 0 || entry.Name()[0] == '.' {
			continue
		}
		childPath := filepath.Join(root, entry.Name())
		if _, known := registered[childPath]; known {
			continue
		}
		if inspector.Liveness(childPath) == LivenessWorkingCopy {
			partition.UnregisteredRepositories = append(partition.UnregisteredRepositories, childPath)
			continue
		}
		partition.NonVersionedFolders = append(partition.NonVersionedFolders, childPath)
	}

	sort.Strings(partition.UnregisteredRepositories)
	sort.Strings(partition.NonVersionedFolders)
	return partition, nil
}
