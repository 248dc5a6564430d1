package tree

import (
	"sort"
	"strings"
)

// ExclusionSet holds full node paths whose branches a walk skips.
// Paths are matched exactly, "/a" skips "/a/b" through its branch but never "/ab".
type ExclusionSet map[string]struct{}

func NewExclusionSet(paths ...string) ExclusionSet {
	ret := make(ExclusionSet, len(paths))
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			ret[path] = struct{}{}
		}
	}
	return ret
}

// ParseExclusions reads a comma separated list of paths.
func ParseExclusions(v string) ExclusionSet {
	return NewExclusionSet(strings.Split(v, ",")...)
}

func (e ExclusionSet) Contains(path string) bool {
	_, ok := e[path]
	return ok
}

func (e ExclusionSet) Paths() []string {
	ret := make([]string, 0, len(e))
	for path := range e {
		ret = append(ret, path)
	}
	sort.Strings(ret)
	return ret
}
