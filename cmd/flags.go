package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "console", "log format (console, json)")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func serverFlag(v *viper.Viper) string {
	return v.GetString("server")
}

func addServerFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringP("server", "s", "", "zookeeper host, comma separated for an ensemble (required)")
	_ = v.BindPFlag("server", flags.Lookup("server"))
	_ = v.BindEnv("server", "ZKDUMP_SERVER")
}

func portFlag(v *viper.Viper) int {
	return v.GetInt("port")
}

func addPortFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.IntP("port", "p", 2181, "zookeeper port")
	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindEnv("port", "ZKDUMP_PORT")
}

func branchFlag(v *viper.Viper) string {
	return v.GetString("branch")
}

func addBranchFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringP("branch", "b", "", "root branch for reading, defaults to the whole tree")
	_ = v.BindPFlag("branch", flags.Lookup("branch"))
	_ = v.BindEnv("branch", "ZKDUMP_BRANCH")
}

func excludeFlag(v *viper.Viper) string {
	return v.GetString("exclude")
}

func addExcludeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringP("exclude", "e", "", "comma separated list of full branch paths to exclude")
	_ = v.BindPFlag("exclude", flags.Lookup("exclude"))
	_ = v.BindEnv("exclude", "ZKDUMP_EXCLUDE")
}

func fileFlag(v *viper.Viper) string {
	return v.GetString("file")
}

func addFileFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringP("file", "f", "", "dump file created by the dump command (required)")
	_ = v.BindPFlag("file", flags.Lookup("file"))
	_ = v.BindEnv("file", "ZKDUMP_FILE")
}

func outputDirFlag(v *viper.Viper) string {
	return v.GetString("output.dir")
}

func addOutputDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringP("output-dir", "o", ".", "directory to write the dump file to")
	_ = v.BindPFlag("output.dir", flags.Lookup("output-dir"))
	_ = v.BindEnv("output.dir", "ZKDUMP_OUTPUT_DIR")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 0, "Number of timestamped dump copies to keep, 0 keeps none")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "ZKDUMP_HISTORY_LIMIT")
}

func invalidUTF8Flag(v *viper.Viper) string {
	return v.GetString("invalid_utf8")
}

func addInvalidUTF8Flag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("invalid-utf8", "fail", "what to do with node values that are not valid UTF-8 (fail, skip)")
	_ = v.BindPFlag("invalid_utf8", flags.Lookup("invalid-utf8"))
	_ = v.BindEnv("invalid_utf8", "ZKDUMP_INVALID_UTF8")
}

func sessionTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("session.timeout")
}

func addSessionTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("session-timeout", 10*time.Second, "zookeeper session timeout")
	_ = v.BindPFlag("session.timeout", flags.Lookup("session-timeout"))
	_ = v.BindEnv("session.timeout", "ZKDUMP_SESSION_TIMEOUT")
}

func connectTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("connect.timeout")
}

func addConnectTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("connect-timeout", 15*time.Second, "Time to wait for the session to connect")
	_ = v.BindPFlag("connect.timeout", flags.Lookup("connect-timeout"))
	_ = v.BindEnv("connect.timeout", "ZKDUMP_CONNECT_TIMEOUT")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "filesystem", "Storage backend for dump files (filesystem, blob)")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "ZKDUMP_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Bucket URL for blob storage (gs://, s3://, azblob://, file://)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "ZKDUMP_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Key prefix for blob storage")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "ZKDUMP_STORAGE_BLOB_PREFIX")
}

func metricsTextfileFlag(v *viper.Viper) string {
	return v.GetString("metrics.textfile")
}

func addMetricsTextfileFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("metrics-textfile", "", "Write prometheus metrics to this file after the run")
	_ = v.BindPFlag("metrics.textfile", flags.Lookup("metrics-textfile"))
	_ = v.BindEnv("metrics.textfile", "ZKDUMP_METRICS_TEXTFILE")
}

func addSessionFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addServerFlag(flags, v)
	addPortFlag(flags, v)
	addSessionTimeoutFlag(flags, v)
	addConnectTimeoutFlag(flags, v)
}

func addStorageFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addStorageTypeFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
}
