package tree

import (
	"sort"
	"strings"

	"github.com/foomo/zkdump/pkg/metrics"
	"github.com/foomo/zkdump/pkg/snapshot"
	"github.com/foomo/zkdump/pkg/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	// Walker exports a branch of a store into a snapshot
	Walker struct {
		l          *zap.Logger
		store      store.Store
		exclusions ExclusionSet
	}
	WalkerOption func(*Walker)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WalkerWithExclusions(v ExclusionSet) WalkerOption {
	return func(o *Walker) {
		o.exclusions = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewWalker(l *zap.Logger, s store.Store, opts ...WalkerOption) *Walker {
	inst := &Walker{
		l:          l.Named("walker"),
		store:      s,
		exclusions: ExclusionSet{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Walk records every node below root, depth first and parents before children.
// The root itself is neither recorded nor matched against the exclusions.
// A missing root yields an empty snapshot. Any other store error aborts the walk.
func (w *Walker) Walk(root string) (snapshot.Snapshot, error) {
	ret := snapshot.Snapshot{}
	if err := w.walk(strings.TrimSuffix(root, "/"), ret); err != nil {
		return nil, errors.Wrapf(err, "failed to walk %q", root)
	}
	w.l.Info("walk done", zap.String("root", root), zap.Int("nodes", len(ret)))
	return ret, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (w *Walker) walk(path string, dst snapshot.Snapshot) error {
	children, err := w.store.Children(path)
	if store.IsNoNode(err) {
		w.l.Debug("branch does not exist", zap.String("path", path))
		return nil
	} else if err != nil {
		return err
	}
	sort.Strings(children)

	w.l.Debug("visiting node", zap.String("path", path), zap.Int("children", len(children)))

	for _, name := range children {
		childPath := path + "/" + name
		if w.exclusions.Contains(childPath) {
			w.l.Info("skipping excluded branch", zap.String("path", childPath))
			metrics.NodesExcludedCounter.WithLabelValues().Inc()
			continue
		}

		value, childCount, err := w.store.Read(childPath)
		if err != nil {
			return err
		}
		dst[childPath] = value
		metrics.NodesDumpedCounter.WithLabelValues().Inc()

		if childCount > 0 {
			if err := w.walk(childPath, dst); err != nil {
				return err
			}
		}
	}
	return nil
}
