package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

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

func NewDumpCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:     "dump",
		Short:   "Dumps zookeeper nodes and their values to a json file",
		Example: "  zkdump dump -s testsrv -p 2181 -b /startbranch -e /branch/subbranch,/branch/not/export/me/please",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSession(v); err != nil {
				return err
			}
			if _, err := snapshot.ParseInvalidUTF8Policy(invalidUTF8Flag(v)); err != nil {
				return err
			}
			return validateStorage(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			l := zap.L().Named("dump").With(zap.String("run_id", uuid.New().String()))
			return observeRun(l, v, "dump", func() error {
				return runDump(cmd.Context(), l, v, cmd.OutOrStdout())
			})
		},
	}

	flags := cmd.Flags()
	addSessionFlags(flags, v)
	addBranchFlag(flags, v)
	addExcludeFlag(flags, v)
	addOutputDirFlag(flags, v)
	addHistoryLimitFlag(flags, v)
	addInvalidUTF8Flag(flags, v)
	addStorageFlags(flags, v)
	addMetricsTextfileFlag(flags, v)

	return cmd
}

func runDump(ctx context.Context, l *zap.Logger, v *viper.Viper, out io.Writer) (err error) {
	policy, err := snapshot.ParseInvalidUTF8Policy(invalidUTF8Flag(v))
	if err != nil {
		return err
	}
	exclusions := tree.ParseExclusions(excludeFlag(v))
	branch := branchFlag(v)

	l.Info("dumping nodes",
		zap.String("server", serverFlag(v)),
		zap.String("branch", branch),
		zap.Strings("exclude", exclusions.Paths()),
	)

	var snap snapshot.Snapshot
	if err := withSession(ctx, l, v, func(s store.Store) error {
		var err error
		snap, err = tree.NewWalker(l, s, tree.WalkerWithExclusions(exclusions)).Walk(branch)
		return err
	}); err != nil {
		return err
	}

	var skipped int
	data, err := snapshot.Encode(snap,
		snapshot.EncodeWithInvalidUTF8Policy(policy),
		snapshot.EncodeWithSkipped(func(path string) {
			skipped++
			l.Warn("skipping node with a value that is not valid UTF-8", zap.String("path", path))
		}),
	)
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}
	metrics.SnapshotBytesGauge.WithLabelValues("dump").Set(float64(len(data)))

	storage, err := createStorage(ctx, v, l, outputDirFlag(v))
	if err != nil {
		return errors.Wrap(err, "failed to create storage")
	}
	a := archive.New(l, storage, archive.WithHistoryLimit(historyLimitFlag(v)))
	defer func() {
		err = multierr.Append(err, a.Close())
	}()

	key, err := a.Save(ctx, serverFlag(v), data)
	if err != nil {
		return err
	}

	stored := len(snap) - skipped
	l.Info("snapshot stored",
		zap.Int("nodes", stored),
		zap.Int("skipped", skipped),
		zap.String("location", a.Location(key)),
		zap.String("fingerprint", snapshot.Fingerprint(data)),
	)
	_, _ = fmt.Fprintf(out, "%d nodes successfully stored in file %s\n", stored, a.Location(key))
	if skipped > 0 {
		_, _ = fmt.Fprintf(out, "%d nodes skipped, their values are not valid UTF-8\n", skipped)
	}
	return nil
}

// observeRun records the run duration and writes the metrics textfile if configured
func observeRun(l *zap.Logger, v *viper.Viper, command string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RunDuration.WithLabelValues(command, status).Observe(time.Since(start).Seconds())

	if filename := metricsTextfileFlag(v); filename != "" {
		if errMetrics := metrics.WriteTextfile(filename); errMetrics != nil {
			l.Warn("failed to write metrics textfile", zap.String("file", filename), zap.Error(errMetrics))
		}
	}
	return err
}
