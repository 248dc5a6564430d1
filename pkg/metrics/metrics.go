package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "zkdump"

	metricLabelOperation = "operation"
	metricLabelCommand   = "command"
	metricLabelStatus    = "status"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationExists = "exists"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// NodesDumpedCounter counts the nodes recorded by a walk
	NodesDumpedCounter = newCounterVec(
		"nodes_dumped_count",
		"Number of nodes recorded into a snapshot",
	)
	// NodesExcludedCounter counts the branches skipped by the exclusion set
	NodesExcludedCounter = newCounterVec(
		"nodes_excluded_count",
		"Number of branches skipped because they are excluded",
	)
	// NodesRestoredCounter counts the nodes applied by a restore
	NodesRestoredCounter = newCounterVec(
		"nodes_restored_count",
		"Number of nodes successfully created or updated",
		metricLabelOperation,
	)
	// NodesFailedCounter counts the nodes a restore could not apply
	NodesFailedCounter = newCounterVec(
		"nodes_failed_count",
		"Number of nodes that failed to restore",
		metricLabelOperation,
	)
	// RunDuration observe the duration of each dump or load run
	RunDuration = newSummaryVec(
		"run_duration_seconds",
		"Duration in seconds of a dump or load run",
		metricLabelCommand, metricLabelStatus,
	)
	// SnapshotBytesGauge keeps the size of the last written or read snapshot
	SnapshotBytesGauge = newGaugeVec(
		"snapshot_bytes",
		"Size of the last snapshot in bytes",
		metricLabelCommand,
	)
)

// WriteTextfile writes all registered metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer)
}

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
