package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"govreposcrape/config"
	"govreposcrape/retry"
)

// ErrNotFound reports that no summary exists for the requested repository.
var ErrNotFound = errors.New("summary not found")

// R2Client stores summaries in Cloudflare R2 through the S3-compatible API.
type R2Client struct {
	mc     *minio.Client
	bucket string
	log    *zap.Logger
}

// NewR2Client validates the R2 credential set and builds a client.
func NewR2Client(cfg config.R2Config, log *zap.Logger) (*R2Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	// R2 uses the fixed "auto" region; setting it skips the bucket
	// location lookup the SDK would otherwise issue.
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize R2 client: %w", err)
	}

	return &R2Client{mc: mc, bucket: cfg.Bucket, log: log}, nil
}

// parseEndpoint splits an endpoint URL into the host form the S3 client
// expects. A bare host is accepted and assumed HTTPS.
func parseEndpoint(raw string) (endpoint string, secure bool, err error) {
	if !strings.Contains(raw, "://") {
		return raw, true, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("invalid R2_ENDPOINT: %w", err)
	}
	return u.Host, u.Scheme != "http", nil
}

// ObjectKey returns the summary path for a repository.
func ObjectKey(owner, repo string) string {
	return fmt.Sprintf("gitingest/%s/%s/summary.txt", owner, repo)
}

// Upload upserts the summary with its metadata, retrying transient failures.
// The S3 API lowercases user metadata keys, so they are stored lowercase from
// the start.
func (c *R2Client) Upload(ctx context.Context, owner, repo, content string, meta Metadata) bool {
	key := ObjectKey(owner, repo)

	err := retry.Do(ctx, c.log, "r2-upload", func() error {
		_, err := c.mc.PutObject(ctx, c.bucket, key, strings.NewReader(content), int64(len(content)),
			minio.PutObjectOptions{
				ContentType: "text/plain",
				UserMetadata: map[string]string{
					"pushedat":    meta.PushedAt,
					"url":         meta.URL,
					"processedat": meta.ProcessedAt,
				},
			})
		return err
	}, retry.DefaultAttempts, retry.DefaultDelays)

	if err != nil {
		c.log.Error("R2 upload failed after all retries",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.String("key", key),
			zap.Error(err))
		return false
	}

	c.log.Info("uploaded summary to R2",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.String("key", key),
		zap.Int("size_bytes", len(content)))
	return true
}

// GetSummary retrieves a stored summary. A missing object returns
// ErrNotFound.
func (c *R2Client) GetSummary(ctx context.Context, owner, repo string) (string, error) {
	key := ObjectKey(owner, repo)

	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve summary for %s/%s: %w", owner, repo, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: %s/%s", ErrNotFound, owner, repo)
		}
		return "", fmt.Errorf("failed to retrieve summary for %s/%s: %w", owner, repo, err)
	}
	return string(data), nil
}
