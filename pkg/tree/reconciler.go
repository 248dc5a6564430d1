package tree

import (
	"github.com/foomo/zkdump/pkg/metrics"
	"github.com/foomo/zkdump/pkg/snapshot"
	"github.com/foomo/zkdump/pkg/store"
	"go.uber.org/zap"
)

// Reconciler restores a snapshot into a store, creating missing nodes and overwriting existing ones
type Reconciler struct {
	l     *zap.Logger
	store store.Store
}

func NewReconciler(l *zap.Logger, s store.Store) *Reconciler {
	return &Reconciler{
		l:     l.Named("reconciler"),
		store: s,
	}
}

// Reconcile applies every node of snap in path order. A failing node is recorded
// and the next one is attempted. Only a lost session stops the run early, in which
// case the partial report is returned together with a *store.ConnectionError.
func (r *Reconciler) Reconcile(snap snapshot.Snapshot) (*Report, error) {
	report := &Report{Total: len(snap)}
	for _, path := range snap.Paths() {
		res := r.apply(path, snap[path])
		report.add(res)

		if res.Err == nil {
			metrics.NodesRestoredCounter.WithLabelValues(res.Op.metricLabel()).Inc()
			continue
		}

		metrics.NodesFailedCounter.WithLabelValues(res.Op.metricLabel()).Inc()
		r.l.Error("failed to restore node",
			zap.String("path", path),
			zap.String("op", string(res.Op)),
			zap.Error(res.Err),
		)
		if store.IsSessionLost(res.Err) {
			return report, &store.ConnectionError{Err: res.Err}
		}
	}
	return report, nil
}

func (r *Reconciler) apply(path string, value []byte) Result {
	exists, err := r.store.Exists(path)
	if err != nil {
		return Result{Path: path, Op: OpExists, Err: err}
	}
	if !exists {
		r.l.Info("creating node", zap.String("path", path))
		return Result{Path: path, Op: OpCreate, Err: r.store.Create(path, value)}
	}
	r.l.Info("updating node", zap.String("path", path))
	return Result{Path: path, Op: OpUpdate, Err: r.store.Write(path, value)}
}
