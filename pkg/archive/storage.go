package archive

import (
	"context"
)

// Storage defines the contract for snapshot file backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data under key, replacing any previous content.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves the data stored under key.
	// Returns an error matching os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns keys starting with prefix, sorted descending (newest first for timestamped keys).
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Location returns a human readable location of key for log output.
	Location(key string) string

	// Close releases any resources held by the backend.
	Close() error
}
