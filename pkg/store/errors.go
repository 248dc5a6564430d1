package store

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoNode is matched by errors for paths that do not exist.
	ErrNoNode = errors.New("node does not exist")
	// ErrSessionLost is matched by errors after which the session can not recover.
	ErrSessionLost = errors.New("session lost")
)

type (
	// StoreError is returned by every failing primitive.
	StoreError struct {
		Op   string
		Path string
		Err  error
	}
	// ConnectionError is returned when a session can not reach or keep the connected state.
	ConnectionError struct {
		Servers []string
		Err     error
	}
)

// NewStoreError wraps err for the given operation and path. A nil err returns nil.
func NewStoreError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Path: path, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %v failed: %s", e.Servers, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsNoNode reports whether err indicates a missing node.
func IsNoNode(err error) bool {
	return errors.Is(err, ErrNoNode)
}

// IsSessionLost reports whether err indicates an unrecoverable session.
func IsSessionLost(err error) bool {
	return errors.Is(err, ErrSessionLost)
}
