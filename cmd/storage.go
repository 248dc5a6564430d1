package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/foomo/zkdump/pkg/archive"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// createStorage creates a storage backend based on the configuration,
// dir is used by the filesystem backend
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger, dir string) (archive.Storage, error) {
	storageType := storageTypeFlag(v)
	blobBucket := storageBlobBucketFlag(v)
	blobPrefix := storageBlobPrefixFlag(v)

	if storageType != "blob" && (blobBucket != "" || blobPrefix != "") {
		l.Warn("blob storage flags are set but storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
			zap.String("blob-prefix", blobPrefix),
		)
	}

	switch storageType {
	case "blob":
		l.Debug("using blob storage",
			zap.String("bucket", blobBucket),
			zap.String("prefix", blobPrefix),
			zap.String("provider", detectBlobProvider(blobBucket)),
		)
		return archive.NewBlobStorage(ctx, blobBucket, blobPrefix)
	case "filesystem", "":
		l.Debug("using filesystem storage", zap.String("dir", dir))
		return archive.NewFilesystemStorage(dir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (supported: filesystem, blob)", storageType)
	}
}

// validateStorage checks the storage flags before anything is touched
func validateStorage(v *viper.Viper) error {
	switch storageTypeFlag(v) {
	case "filesystem", "":
		return nil
	case "blob":
		bucket := storageBlobBucketFlag(v)
		if bucket == "" {
			return fmt.Errorf("blob bucket URL is required when storage-type is 'blob' (supported schemes: %s)", strings.Join(archive.SupportedBlobSchemes, ", "))
		}
		if !archive.IsSupportedBlobURL(bucket) {
			return fmt.Errorf("unsupported blob storage URL scheme in %q; supported schemes: %s", bucket, strings.Join(archive.SupportedBlobSchemes, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unknown storage type: %s (supported: filesystem, blob)", storageTypeFlag(v))
	}
}

// detectBlobProvider returns a human-readable provider name from the URL scheme
func detectBlobProvider(bucketURL string) string {
	switch {
	case strings.HasPrefix(bucketURL, "gs://"):
		return "Google Cloud Storage"
	case strings.HasPrefix(bucketURL, "s3://"):
		return "AWS S3"
	case strings.HasPrefix(bucketURL, "azblob://"):
		return "Azure Blob Storage"
	case strings.HasPrefix(bucketURL, "file://"):
		return "Local filesystem"
	default:
		return "unknown"
	}
}
