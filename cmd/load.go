package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/foomo/zkdump/pkg/archive"
	"github.com/foomo/zkdump/pkg/metrics"
	"github.com/foomo/zkdump/pkg/snapshot"
	"github.com/foomo/zkdump/pkg/store"
	"github.com/foomo/zkdump/pkg/tree"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrPartialRestore is returned by load when at least one node could not be applied
var ErrPartialRestore = errors.New("some nodes were not restored")

func NewLoadCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:     "load",
		Short:   "Loads zookeeper nodes and their values from a dump file",
		Long:    "Loads zookeeper nodes and their values from a dump file. Existing nodes are updated, missing nodes are created.",
		Example: "  zkdump load -s testsrv -p 2181 -f testsrv.zk.json",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSession(v); err != nil {
				return err
			}
			if fileFlag(v) == "" {
				return fmt.Errorf("parameter --file is mandatory")
			}
			return validateStorage(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			l := zap.L().Named("load").With(zap.String("run_id", uuid.New().String()))
			return observeRun(l, v, "load", func() error {
				return runLoad(cmd.Context(), l, v, cmd.OutOrStdout())
			})
		},
	}

	flags := cmd.Flags()
	addSessionFlags(flags, v)
	addFileFlag(flags, v)
	addStorageFlags(flags, v)
	addMetricsTextfileFlag(flags, v)

	return cmd
}

func runLoad(ctx context.Context, l *zap.Logger, v *viper.Viper, out io.Writer) error {
	data, err := readSnapshotFile(ctx, l, v)
	if err != nil {
		return err
	}
	metrics.SnapshotBytesGauge.WithLabelValues("load").Set(float64(len(data)))

	snap, err := snapshot.Decode(data)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %q", fileFlag(v))
	}
	l.Info("nodes read from dump file",
		zap.Int("nodes", len(snap)),
		zap.String("fingerprint", snapshot.Fingerprint(data)),
	)
	_, _ = fmt.Fprintf(out, "%d nodes read from dump file %s\n", len(snap), fileFlag(v))

	var report *tree.Report
	err = withSession(ctx, l, v, func(s store.Store) error {
		var err error
		report, err = tree.NewReconciler(l, s).Reconcile(snap)
		return err
	})
	if report != nil {
		printReport(out, serverFlag(v), report)
	}
	if err != nil {
		return err
	}
	if !report.OK() {
		return errors.Wrapf(ErrPartialRestore, "%d of %d nodes failed", len(report.Failed), report.Total)
	}
	return nil
}

// readSnapshotFile reads --file from the configured storage. On the filesystem the
// file's directory is the storage root, on blob storage the file is the key.
func readSnapshotFile(ctx context.Context, l *zap.Logger, v *viper.Viper) (data []byte, err error) {
	dir, key := filepath.Dir(fileFlag(v)), filepath.Base(fileFlag(v))
	if storageTypeFlag(v) == "blob" {
		dir, key = "", fileFlag(v)
	}

	storage, err := createStorage(ctx, v, l, dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage")
	}
	a := archive.New(l, storage)
	defer func() {
		err = multierr.Append(err, a.Close())
	}()

	return a.Load(ctx, key)
}

func printReport(out io.Writer, server string, report *tree.Report) {
	if report.OK() {
		_, _ = fmt.Fprintf(out, "%d nodes were successfully created on host %s (%d created, %d updated)\n",
			report.Total, server, len(report.Created), len(report.Updated))
		return
	}
	_, _ = fmt.Fprintf(out, "Following nodes were not created on host %s (%d of %d):\n", server, len(report.Failed), report.Total)
	for _, f := range report.Failed {
		_, _ = fmt.Fprintf(out, "  %s (%s): %s\n", f.Path, f.Op, f.Err)
	}
}
