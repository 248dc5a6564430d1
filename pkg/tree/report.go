package tree

import (
	"github.com/foomo/zkdump/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Op is the branch a restore took for a node
type Op string

const (
	OpExists Op = "exists"
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

func (o Op) metricLabel() string {
	switch o {
	case OpExists:
		return metrics.OperationExists
	case OpCreate:
		return metrics.OperationCreate
	case OpUpdate:
		return metrics.OperationUpdate
	default:
		return string(o)
	}
}

type (
	// Result of applying a single node
	Result struct {
		Path string
		Op   Op
		Err  error
	}
	// Failure of a single node with its cause
	Failure struct {
		Path string
		Op   Op
		Err  error
	}
	// Report of a restore run
	Report struct {
		Total   int
		Created []string
		Updated []string
		Failed  []Failure
	}
)

// OK reports whether every node was applied.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// FailedPaths returns the failed paths in attempt order.
func (r *Report) FailedPaths() []string {
	ret := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ret = append(ret, f.Path)
	}
	return ret
}

// Err combines all failure causes, nil if there are none.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failed {
		err = multierr.Append(err, errors.Wrapf(f.Err, "%s %s", f.Op, f.Path))
	}
	return err
}

func (r *Report) add(res Result) {
	switch {
	case res.Err != nil:
		r.Failed = append(r.Failed, Failure(res))
	case res.Op == OpCreate:
		r.Created = append(r.Created, res.Path)
	case res.Op == OpUpdate:
		r.Updated = append(r.Updated, res.Path)
	}
}
