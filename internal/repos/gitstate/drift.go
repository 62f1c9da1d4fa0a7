package gitstate

import (
	"strings"

	"github.com/temirov/ingit/internal/gitrepo"
	"github.com/temirov/ingit/internal/registry"
)

// DriftKind classifies a remote mismatch.
type DriftKind string

// Drift kinds.
const (
	DriftRegistryOnly DriftKind = "registry-only"
	DriftDiskOnly     DriftKind = "disk-only"
	DriftURLMismatch  DriftKind = "url-mismatch"
)

// RemoteDrift describes one remote whose registry and on-disk configuration disagree.
type RemoteDrift struct {
	Remote      string
	Kind        DriftKind
	RegistryURL string
	DiskURL     string
	// RenamedFrom names the disk-only remote carrying this registry-only remote's URL.
	RenamedFrom string
	// RenameTo names the registry-only remote carrying this disk-only remote's URL.
	RenameTo string
	// SameRepository marks a URL mismatch that only changes the protocol.
	SameRepository bool
}

// CompareRemotes lists remote drift: registry-ordered entries first, then disk-only remotes in disk order.
func CompareRemotes(registered registry.RemoteSet, onDisk registry.RemoteSet) []RemoteDrift {
	drift := make([]RemoteDrift, 0)

	for _, remote := range registered.Entries() {
		diskURL, present := onDisk.Lookup(remote.Name)
		switch {
		case !present:
			drift = append(drift, RemoteDrift{Remote: remote.Name, Kind: DriftRegistryOnly, RegistryURL: remote.URL})
		case normalizeRemoteURL(diskURL) != normalizeRemoteURL(remote.URL):
			drift = append(drift, RemoteDrift{
				Remote:         remote.Name,
				Kind:           DriftURLMismatch,
				RegistryURL:    remote.URL,
				DiskURL:        diskURL,
				SameRepository: gitrepo.EquivalentRemoteURLs(remote.URL, diskURL),
			})
		}
	}

	for _, remote := range onDisk.Entries() {
		if _, registeredRemote := registered.Lookup(remote.Name); registeredRemote {
			continue
		}
		drift = append(drift, RemoteDrift{Remote: remote.Name, Kind: DriftDiskOnly, DiskURL: remote.URL})
	}

	annotateRenames(drift)
	return drift
}

func annotateRenames(drift []RemoteDrift) {
	for diskIndex := range drift {
		if drift[diskIndex].Kind != DriftDiskOnly {
			continue
		}
		for registryIndex := range drift {
			candidate := &drift[registryIndex]
			if candidate.Kind != DriftRegistryOnly || len(candidate.RenamedFrom) > 0 {
				continue
			}
			if normalizeRemoteURL(candidate.RegistryURL) == normalizeRemoteURL(drift[diskIndex].DiskURL) {
				candidate.RenamedFrom = drift[diskIndex].Remote
				drift[diskIndex].RenameTo = candidate.Remote
				break
			}
		}
	}
}

func normalizeRemoteURL(url string) string {
	return strings.ReplaceAll(url, `\`, "/")
}
