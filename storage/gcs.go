package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"govreposcrape/config"
	"govreposcrape/retry"
	"govreposcrape/truncate"
)

// GCSClient stores summaries in Google Cloud Storage for Vertex AI Search
// ingestion. One markdown object per repository at {owner}/{repo}.md.
type GCSClient struct {
	bucket *gcs.BucketHandle
	name   string
	log    *zap.Logger
}

// NewGCSClient builds a client. On Cloud Run the service account comes from
// the metadata server; elsewhere a credentials file path is required. Extra
// options let tests point the client at a local server.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig, log *zap.Logger, extra ...option.ClientOption) (*GCSClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, extra...)

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
	}

	return &GCSClient{
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
		log:    log,
	}, nil
}

// GCSObjectPath returns the per-repository object name.
func GCSObjectPath(owner, repo string) string {
	return fmt.Sprintf("%s/%s.md", owner, repo)
}

// Upload upserts the summary as markdown. An existing object whose pushedAt
// metadata already matches is left untouched and counted as success. The
// index backend rejects large documents, so content is bounded to the index
// limit before writing. GCS is the flakier backend here; it gets the longer
// retry schedule.
func (c *GCSClient) Upload(ctx context.Context, owner, repo, content string, meta Metadata) bool {
	path := GCSObjectPath(owner, repo)
	obj := c.bucket.Object(path)

	attrs, err := obj.Attrs(ctx)
	switch {
	case err == nil:
		if existing := attrs.Metadata["pushedAt"]; existing != "" && existing == meta.PushedAt {
			c.log.Info("skipping upload, object already up to date",
				zap.String("owner", owner),
				zap.String("repo", repo),
				zap.String("pushed_at", existing))
			return true
		}
	case errors.Is(err, gcs.ErrObjectNotExist):
		// New object, continue with upload.
	default:
		c.log.Warn("could not check existing object",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Error(err))
	}

	text := truncate.ForIndex(content)

	err = retry.Do(ctx, c.log, "gcs-upload", func() error {
		return c.writeObject(ctx, obj, owner, repo, text, meta)
	}, retry.SlowAttempts, retry.SlowDelays)

	if err != nil {
		c.log.Error("GCS upload failed after all retries",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.String("path", path),
			zap.Error(err))
		return false
	}

	c.log.Info("uploaded summary to GCS",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.String("bucket", c.name),
		zap.String("path", path),
		zap.Int("size_bytes", len(text)))
	return true
}

func (c *GCSClient) writeObject(ctx context.Context, obj *gcs.ObjectHandle, owner, repo, text string, meta Metadata) error {
	w := obj.NewWriter(ctx)
	// Content is bounded to the index limit, so a single-request upload
	// beats the resumable protocol's extra round trips.
	w.ChunkSize = 0
	w.ContentType = "text/markdown; charset=utf-8"
	w.Metadata = map[string]string{
		"org":         owner,
		"repo":        repo,
		"url":         meta.URL,
		"pushedAt":    meta.PushedAt,
		"processedAt": meta.ProcessedAt,
		"size":        strconv.Itoa(len(text)),
	}

	if _, err := w.Write([]byte(text)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
