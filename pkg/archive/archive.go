package archive

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	SnapshotSuffix = ".zk.json"
	historyInfix   = ".zk-"
	historySuffix  = ".json"
)

// fixed width and free of colons, keys sort chronologically
const historyTimeLayout = "2006-01-02T15-04-05.000000000Z"

type (
	// Archive persists snapshot files and keeps a bounded history of timestamped copies
	Archive struct {
		l            *zap.Logger
		storage      Storage
		historyLimit int
		now          func() time.Time
		mu           sync.Mutex
	}
	Option func(*Archive)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithHistoryLimit keeps up to v timestamped copies next to the current snapshot, 0 disables them.
func WithHistoryLimit(v int) Option {
	return func(o *Archive) {
		o.historyLimit = v
	}
}

func withClock(v func() time.Time) Option {
	return func(o *Archive) {
		o.now = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, storage Storage, opts ...Option) *Archive {
	inst := &Archive{
		l:       l.Named("archive"),
		storage: storage,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// SnapshotKey returns the key of the current snapshot of server.
func SnapshotKey(server string) string {
	return server + SnapshotSuffix
}

// Save writes data as the current snapshot of server and returns its key.
func (a *Archive) Save(ctx context.Context, server string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := SnapshotKey(server)
	if err := a.storage.Write(ctx, key, data); err != nil {
		return "", errors.Wrapf(err, "failed to write snapshot %q", key)
	}

	if a.historyLimit <= 0 {
		return key, nil
	}

	historyKey := server + historyInfix + a.now().UTC().Format(historyTimeLayout) + historySuffix
	a.l.Debug("writing history copy", zap.String("key", historyKey))
	if err := a.storage.Write(ctx, historyKey, data); err != nil {
		return "", errors.Wrapf(err, "failed to write snapshot history %q", historyKey)
	}

	if err := a.cleanup(ctx, server); err != nil {
		return "", errors.Wrap(err, "failed to clean up snapshot history")
	}

	return key, nil
}

// Load reads the snapshot stored under key.
func (a *Archive) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := a.storage.Read(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read snapshot %q", a.storage.Location(key))
	}
	return data, nil
}

// History returns the timestamped copies of server, newest first.
func (a *Archive) History(ctx context.Context, server string) ([]string, error) {
	prefix := server + historyInfix
	keys, err := a.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, historySuffix) {
			ret = append(ret, key)
		}
	}
	return ret, nil
}

func (a *Archive) Location(key string) string {
	return a.storage.Location(key)
}

func (a *Archive) Close() error {
	return a.storage.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (a *Archive) cleanup(ctx context.Context, server string) error {
	keys, err := a.History(ctx, server)
	if err != nil {
		return err
	}
	if len(keys) <= a.historyLimit {
		return nil
	}
	for _, key := range keys[a.historyLimit:] {
		a.l.Debug("removing outdated snapshot", zap.String("key", key))
		if err := a.storage.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "could not remove %q", key)
		}
	}
	return nil
}
