package tree_test

import (
	"testing"

	"github.com/foomo/zkdump/pkg/metrics"
	"github.com/foomo/zkdump/pkg/snapshot"
	"github.com/foomo/zkdump/pkg/store"
	"github.com/foomo/zkdump/pkg/store/memory"
	"github.com/foomo/zkdump/pkg/tree"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestReconciler_CreateThenUpdate(t *testing.T) {
	s := memory.New()
	r := tree.NewReconciler(zaptest.NewLogger(t), s)

	report, err := r.Reconcile(snapshot.Snapshot{"/x/y/z": []byte("v")})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, []string{"/x/y/z"}, report.Created)
	assert.Empty(t, report.Updated)

	// parents are materialized
	assert.Equal(t, []string{"/x", "/x/y", "/x/y/z"}, s.Paths())
	value, ok := s.Value("/x/y/z")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	s.ResetCalls()
	report, err = r.Reconcile(snapshot.Snapshot{"/x/y/z": []byte("w")})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, []string{"/x/y/z"}, report.Updated)
	assert.Empty(t, report.Created)
	assert.Equal(t, 0, s.Calls(memory.OpCreate))

	value, _ = s.Value("/x/y/z")
	assert.Equal(t, []byte("w"), value)
}

func TestReconciler_NullValue(t *testing.T) {
	s := newTestStore(t, snapshot.Snapshot{"/a": []byte("1")})
	r := tree.NewReconciler(zaptest.NewLogger(t), s)

	report, err := r.Reconcile(snapshot.Snapshot{"/a": nil, "/b": nil})
	require.NoError(t, err)
	assert.True(t, report.OK())

	value, ok := s.Value("/a")
	require.True(t, ok)
	assert.Nil(t, value)
	_, ok = s.Value("/b")
	assert.True(t, ok)
}

func TestReconciler_PartialFailure(t *testing.T) {
	boom := errors.New("boom")
	s := memory.New()
	s.FailOn(memory.OpCreate, "/y", boom)
	r := tree.NewReconciler(zaptest.NewLogger(t), s)

	report, err := r.Reconcile(snapshot.Snapshot{
		"/y": []byte("v1"),
		"/z": []byte("v2"),
	})
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, []string{"/y"}, report.FailedPaths())
	assert.Equal(t, tree.OpCreate, report.Failed[0].Op)
	assert.True(t, errors.Is(report.Failed[0].Err, boom))
	assert.Equal(t, []string{"/z"}, report.Created)

	value, ok := s.Value("/z")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), value)

	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "/y")
}

func TestReconciler_ExistsFailure(t *testing.T) {
	boom := errors.New("boom")
	s := memory.New()
	s.FailOn(memory.OpExists, "/a", boom)
	r := tree.NewReconciler(zaptest.NewLogger(t), s)

	report, err := r.Reconcile(snapshot.Snapshot{"/a": nil, "/b": nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, report.FailedPaths())
	assert.Equal(t, tree.OpExists, report.Failed[0].Op)
	assert.Equal(t, []string{"/b"}, report.Created)
}

func TestReconciler_SessionLostStops(t *testing.T) {
	s := memory.New()
	s.FailOn(memory.OpWrite, "/b", errors.Wrap(store.ErrSessionLost, "zk: session has been expired by the server"))
	require.NoError(t, s.Create("/b", nil))
	r := tree.NewReconciler(zaptest.NewLogger(t), s)

	report, err := r.Reconcile(snapshot.Snapshot{"/a": nil, "/b": nil, "/c": nil})
	require.Error(t, err)
	var connErr *store.ConnectionError
	assert.True(t, errors.As(err, &connErr))

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, []string{"/a"}, report.Created)
	assert.Equal(t, []string{"/b"}, report.FailedPaths())
	_, ok := s.Value("/c")
	assert.False(t, ok)
}

func TestReconciler_Metrics(t *testing.T) {
	created := testutil.ToFloat64(metrics.NodesRestoredCounter.WithLabelValues(metrics.OperationCreate))
	updated := testutil.ToFloat64(metrics.NodesRestoredCounter.WithLabelValues(metrics.OperationUpdate))
	failed := testutil.ToFloat64(metrics.NodesFailedCounter.WithLabelValues(metrics.OperationExists))

	s := newTestStore(t, snapshot.Snapshot{"/u": []byte("old")})
	s.FailOn(memory.OpExists, "/e", errors.New("boom"))

	report, err := tree.NewReconciler(zaptest.NewLogger(t), s).Reconcile(snapshot.Snapshot{
		"/c": []byte("new"),
		"/e": []byte("x"),
		"/u": []byte("v"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/e"}, report.FailedPaths())

	assert.InDelta(t, created+1, testutil.ToFloat64(metrics.NodesRestoredCounter.WithLabelValues(metrics.OperationCreate)), 0)
	assert.InDelta(t, updated+1, testutil.ToFloat64(metrics.NodesRestoredCounter.WithLabelValues(metrics.OperationUpdate)), 0)
	assert.InDelta(t, failed+1, testutil.ToFloat64(metrics.NodesFailedCounter.WithLabelValues(metrics.OperationExists)), 0)
}

func TestReport_ErrNil(t *testing.T) {
	report := &tree.Report{}
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Empty(t, report.FailedPaths())
}

func TestReconciler_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("restoring twice is idempotent and the second run only updates", prop.ForAll(
		func(paths []string) bool {
			snap := snapshot.Snapshot{}
			for _, path := range paths {
				snap[path] = []byte(path)
			}
			s := memory.New()
			r := tree.NewReconciler(zap.NewNop(), s)

			first, err := r.Reconcile(snap)
			if err != nil || !first.OK() {
				return false
			}
			after := s.Paths()

			s.ResetCalls()
			second, err := r.Reconcile(snap)
			if err != nil || !second.OK() {
				return false
			}
			if s.Calls(memory.OpCreate) != 0 || len(second.Updated) != len(snap) {
				return false
			}
			if len(after) != len(s.Paths()) {
				return false
			}
			for path, value := range snap {
				stored, _ := s.Value(path)
				if string(stored) != string(value) {
					return false
				}
			}
			return true
		},
		genTree(),
	))

	properties.Property("a single failing node does not block the others", prop.ForAll(
		func(paths []string, victim int) bool {
			snap := snapshot.Snapshot{}
			for _, path := range paths {
				snap[path] = []byte(path)
			}
			sorted := snap.Paths()
			failing := sorted[victim%len(sorted)]

			s := memory.New()
			s.FailOn(memory.OpCreate, failing, errors.New("boom"))
			report, err := tree.NewReconciler(zap.NewNop(), s).Reconcile(snap)
			if err != nil {
				return false
			}
			if len(report.Failed) != 1 || report.Failed[0].Path != failing {
				return false
			}
			return len(report.Created)+len(report.Updated) == len(snap)-1
		},
		genTree().SuchThat(func(paths []string) bool { return len(paths) > 0 }),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
