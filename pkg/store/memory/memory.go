package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/foomo/zkdump/pkg/store"
	"github.com/pkg/errors"
)

// Store in-memory node tree
type (
	Store struct {
		mu     sync.Mutex
		nodes  map[string]*node
		faults map[fault]error
		calls  map[string]int
	}
	node struct {
		value    []byte
		children map[string]struct{}
	}
	fault struct {
		op   string
		path string
	}
)

const (
	OpChildren = "children"
	OpRead     = "read"
	OpExists   = "exists"
	OpCreate   = "create"
	OpWrite    = "write"
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New() *Store {
	return &Store{
		nodes: map[string]*node{
			"/": {children: map[string]struct{}{}},
		},
		faults: map[fault]error{},
		calls:  map[string]int{},
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// FailOn makes every op call on path fail with err.
func (s *Store) FailOn(op, path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[fault{op: op, path: clean(path)}] = err
}

// Calls returns how often op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ResetCalls clears the call counters.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

// Value returns the payload of path and whether it exists.
func (s *Store) Value(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[clean(path)]
	if !ok {
		return nil, false
	}
	return n.value, true
}

// Paths returns all node paths except the root, sorted.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]string, 0, len(s.nodes))
	for p := range s.nodes {
		if p != "/" {
			ret = append(ret, p)
		}
	}
	sort.Strings(ret)
	return ret
}

func (s *Store) Children(path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path = clean(path)
	if err := s.enter(OpChildren, path); err != nil {
		return nil, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return nil, store.NewStoreError(OpChildren, path, store.ErrNoNode)
	}
	ret := make([]string, 0, len(n.children))
	for name := range n.children {
		ret = append(ret, name)
	}
	return ret, nil
}

func (s *Store) Read(path string) ([]byte, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path = clean(path)
	if err := s.enter(OpRead, path); err != nil {
		return nil, 0, err
	}
	n, ok := s.nodes[path]
	if !ok {
		return nil, 0, store.NewStoreError(OpRead, path, store.ErrNoNode)
	}
	return n.value, len(n.children), nil
}

func (s *Store) Exists(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path = clean(path)
	if err := s.enter(OpExists, path); err != nil {
		return false, err
	}
	_, ok := s.nodes[path]
	return ok, nil
}

func (s *Store) Create(path string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path = clean(path)
	if err := s.enter(OpCreate, path); err != nil {
		return err
	}
	if path == "/" || !strings.HasPrefix(path, "/") {
		return store.NewStoreError(OpCreate, path, errors.New("invalid path"))
	}
	if _, ok := s.nodes[path]; ok {
		return store.NewStoreError(OpCreate, path, errors.New("node already exists"))
	}
	parent := "/"
	for _, name := range strings.Split(path[1:], "/") {
		if name == "" {
			return store.NewStoreError(OpCreate, path, errors.New("invalid path"))
		}
		child := strings.TrimSuffix(parent, "/") + "/" + name
		if _, ok := s.nodes[child]; !ok {
			s.nodes[child] = &node{children: map[string]struct{}{}}
			s.nodes[parent].children[name] = struct{}{}
		}
		parent = child
	}
	s.nodes[path].value = value
	return nil
}

func (s *Store) Write(path string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path = clean(path)
	if err := s.enter(OpWrite, path); err != nil {
		return err
	}
	n, ok := s.nodes[path]
	if !ok {
		return store.NewStoreError(OpWrite, path, store.ErrNoNode)
	}
	n.value = value
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Store) enter(op, path string) error {
	s.calls[op]++
	if err, ok := s.faults[fault{op: op, path: path}]; ok {
		return store.NewStoreError(op, path, err)
	}
	return nil
}

func clean(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
