package registry

import (
	"errors"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

const (
	remotesNotObjectMessageConstant    = "remotes must be an object of name to URL"
	remoteURLNotStringTemplateConstant = "remote %q URL must be a string"
)

// Remote is a named remote URL.
type Remote struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RemoteSet is a name to URL mapping that preserves insertion order. The first remote is the default one.
type RemoteSet struct {
	remotes []Remote
}

// NewRemoteSet constructs a RemoteSet; later duplicates replace the URL of earlier names in place.
func NewRemoteSet(remotes ...Remote) RemoteSet {
	set := RemoteSet{}
	for _, remote := range remotes {
		set.Set(remote.Name, remote.URL)
	}
	return set
}

// Set adds the remote, or updates its URL in place when the name exists.
func (set *RemoteSet) Set(name string, url string) {
	for index := range set.remotes {
		if set.remotes[index].Name == name {
			set.remotes[index].URL = url
			return
		}
	}
	set.remotes = append(set.remotes, Remote{Name: name, URL: url})
}

// Lookup returns the URL for the named remote.
func (set RemoteSet) Lookup(name string) (string, bool) {
	for _, remote := range set.remotes {
		if remote.Name == name {
			return remote.URL, true
		}
	}
	return "", false
}

// Default returns the first configured remote.
func (set RemoteSet) Default() (Remote, bool) {
	if len(set.remotes) == 0 {
		return Remote{}, false
	}
	return set.remotes[0], true
}

// Entries returns the remotes in insertion order.
func (set RemoteSet) Entries() []Remote {
	return append([]Remote(nil), set.remotes...)
}

// Names returns the remote names in insertion order.
func (set RemoteSet) Names() []string {
	names := make([]string, 0, len(set.remotes))
	for _, remote := range set.remotes {
		names = append(names, remote.Name)
	}
	return names
}

// Map returns an unordered copy of the remotes.
func (set RemoteSet) Map() map[string]string {
	mapping := make(map[string]string, len(set.remotes))
	for _, remote := range set.remotes {
		mapping[remote.Name] = remote.URL
	}
	return mapping
}

// Len reports the number of remotes.
func (set RemoteSet) Len() int {
	return len(set.remotes)
}

// MarshalJSONTo encodes the remotes as an object, keeping insertion order.
func (set RemoteSet) MarshalJSONTo(encoder *jsontext.Encoder) error {
	if writeError := encoder.WriteToken(jsontext.BeginObject); writeError != nil {
		return writeError
	}
	for _, remote := range set.remotes {
		if writeError := encoder.WriteToken(jsontext.String(remote.Name)); writeError != nil {
			return writeError
		}
		if writeError := encoder.WriteToken(jsontext.String(remote.URL)); writeError != nil {
			return writeError
		}
	}
	return encoder.WriteToken(jsontext.EndObject)
}

// UnmarshalJSONFrom decodes an object of name to URL, keeping document order.
func (set *RemoteSet) UnmarshalJSONFrom(decoder *jsontext.Decoder) error {
	openingToken, readError := decoder.ReadToken()
	if readError != nil {
		return readError
	}
	switch openingToken.Kind() {
	case 'n':
		set.remotes = nil
		return nil
	case '{':
	default:
		return errors.New(remotesNotObjectMessageConstant)
	}

	remotes := make([]Remote, 0)
	for decoder.PeekKind() != '}' {
		nameToken, nameError := decoder.ReadToken()
		if nameError != nil {
			return nameError
		}
		// A token is only valid until the next read.
		remoteName := nameToken.String()
		urlToken, urlError := decoder.ReadToken()
		if urlError != nil {
			return urlError
		}
		if urlToken.Kind() != '"' {
			return fmt.Errorf(remoteURLNotStringTemplateConstant, remoteName)
		}
		remotes = append(remotes, Remote{Name: remoteName, URL: urlToken.String()})
	}
	if _, closingError := decoder.ReadToken(); closingError != nil {
		return closingError
	}

	set.remotes = remotes
	return nil
}
