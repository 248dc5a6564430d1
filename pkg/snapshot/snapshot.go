package snapshot

import (
	"sort"
)

// Snapshot maps full node paths to their payload. A nil payload is encoded as null.
type Snapshot map[string][]byte

// Paths returns the snapshot keys sorted ascending.
func (s Snapshot) Paths() []string {
	ret := make([]string, 0, len(s))
	for path := range s {
		ret = append(ret, path)
	}
	sort.Strings(ret)
	return ret
}

// Equal reports whether both snapshots hold the same paths and payloads,
// telling nil payloads apart from empty ones.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s) != len(o) {
		return false
	}
	for path, value := range s {
		other, ok := o[path]
		if !ok || (value == nil) != (other == nil) || string(value) != string(other) {
			return false
		}
	}
	return true
}
