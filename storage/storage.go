// Package storage provides the object-store clients that persist summaries.
// Uploads are idempotent upserts keyed by owner/repo; clients swallow their
// own failures to a boolean so a storage outage never aborts the batch.
package storage

import "context"

// Metadata travels with every uploaded summary.
type Metadata struct {
	Owner       string
	Repo        string
	URL         string
	PushedAt    string
	ProcessedAt string
}

// Uploader is the narrow interface the processor depends on. Upload returns
// true on success, possibly after the client's own retries.
type Uploader interface {
	Upload(ctx context.Context, owner, repo, content string, meta Metadata) bool
}
