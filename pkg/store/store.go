package store

import (
	"context"
)

// Store is the set of synchronous primitives the walker and the reconciler need.
// A nil value means the node has no payload, which is distinct from an empty one.
type Store interface {
	// Children lists the child names of path.
	// Returns an error matching ErrNoNode if path does not exist.
	Children(path string) ([]string, error)

	// Read returns the payload of path and its current child count.
	Read(path string) (value []byte, childCount int, err error)

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// Create creates path with value, creating any missing parents with a nil payload.
	Create(path string, value []byte) error

	// Write overwrites the payload of an existing path.
	Write(path string, value []byte) error
}

// Session is a Store bound to a live connection.
type Session interface {
	Store

	// AwaitConnected blocks until the session is connected or fails with a *ConnectionError.
	AwaitConnected(ctx context.Context) error

	// Events returns connection state transitions. It is closed by Close.
	Events() <-chan StateEvent

	Close() error
}
