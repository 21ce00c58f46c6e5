// Package storage fetches plugin payloads from an S3 bucket when the
// installer ships without them.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

// Client provides S3 storage operations
type Client struct {
	s3Client *s3.Client
	bucket   string
}

// NewClient creates a new S3 client for anonymous access
func NewClient(ctx context.Context, bucket, region string) (*Client, error) {
	slog.Info("s3_client_init", "bucket", bucket, "region", region)

	// Payload buckets are public-read
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		slog.Error("aws_config_load_failed", "error", err)
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return &Client{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
	}, nil
}

// DownloadResult contains download metadata
type DownloadResult struct {
	LocalPath string
	SHA256    string
	Size      int64
}

// Download writes the object at s3Key to localPath and computes its SHA256.
// Objects larger than maxSize are rejected when maxSize is positive.
func (c *Client) Download(ctx context.Context, s3Key, localPath string, maxSize int64) (*DownloadResult, error) {
	slog.Info("s3_download_start", "bucket", c.bucket, "s3_key", s3Key)

	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(s3Key),
	})
	if err != nil {
		slog.Error("s3_get_object_failed", "s3_key", s3Key, "error", err)
		return nil, errors.Wrap(err, "failed to get object from S3")
	}
	defer result.Body.Close()

	if maxSize > 0 && result.ContentLength != nil && *result.ContentLength > maxSize {
		slog.Error("s3_object_too_large", "s3_key", s3Key, "size", *result.ContentLength, "max_size", maxSize)
		return nil, errors.Newf(errors.KindIOFailure, "download payload", "object %s is %d bytes, limit is %d",
			s3Key, *result.ContentLength, maxSize)
	}

	f, err := os.Create(localPath)
	if err != nil {
		slog.Error("local_file_creation_failed", "path", localPath, "error", err)
		return nil, errors.Wrap(err, "failed to create local file")
	}
	defer f.Close()

	hash := sha256.New()
	writer := io.MultiWriter(f, hash)

	body := io.Reader(result.Body)
	if maxSize > 0 {
		body = io.LimitReader(result.Body, maxSize+1)
	}

	size, err := io.Copy(writer, body)
	if err != nil {
		slog.Error("s3_download_failed", "s3_key", s3Key, "error", err)
		return nil, errors.Wrap(err, "failed to download file")
	}
	if maxSize > 0 && size > maxSize {
		slog.Error("s3_object_too_large", "s3_key", s3Key, "max_size", maxSize)
		return nil, errors.Newf(errors.KindIOFailure, "download payload", "object %s exceeds %d bytes", s3Key, maxSize)
	}

	checksum := hex.EncodeToString(hash.Sum(nil))

	slog.Info("s3_download_complete",
		"s3_key", s3Key,
		"size_kb", size/1024,
		"local_path", localPath,
		"sha256", checksum[:16]+"...",
	)

	return &DownloadResult{
		LocalPath: localPath,
		SHA256:    checksum,
		Size:      size,
	}, nil
}

// Exists checks if an object exists in S3
func (c *Client) Exists(ctx context.Context, s3Key string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(s3Key),
	})
	if err != nil {
		var notFound *types.NotFound
		if stderrors.As(err, &notFound) {
			slog.Info("s3_object_not_found", "s3_key", s3Key)
			return false, nil
		}
		slog.Error("s3_head_object_failed", "s3_key", s3Key, "error", err)
		return false, errors.Wrap(err, "failed to check object existence")
	}

	slog.Info("s3_object_exists", "s3_key", s3Key)
	return true, nil
}
