// Package processor runs the per-item state machine: summarize under a hard
// timeout, truncate, upload. A repository failure never propagates as an
// error; the processor always hands a result back so the batch can continue.
package processor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"govreposcrape/models"
	"govreposcrape/retry"
	"govreposcrape/storage"
	"govreposcrape/summarize"
	"govreposcrape/truncate"
)

// DefaultTimeout is the hard wall-clock bound on a single summarization.
const DefaultTimeout = 5 * time.Minute

// Processor turns one repository descriptor into an uploaded summary.
type Processor struct {
	Engine summarize.Engine
	// Store is nil when uploads are disabled (missing credentials); the item
	// still counts as processed but Uploaded stays false.
	Store   storage.Uploader
	Timeout time.Duration
	// Attempts and Delays override the summarizer retry schedule; zero
	// values select the package defaults.
	Attempts int
	Delays   []time.Duration
	Log      *zap.Logger

	// Now is stubbed in tests.
	Now func() time.Time
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Processor) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

func (p *Processor) attempts() int {
	if p.Attempts > 0 {
		return p.Attempts
	}
	return retry.DefaultAttempts
}

func (p *Processor) delays() []time.Duration {
	if len(p.Delays) > 0 {
		return p.Delays
	}
	return retry.DefaultDelays
}

// Process runs the full summarize-truncate-upload cycle for one repository.
func (p *Processor) Process(ctx context.Context, repo models.RepositoryDescriptor) models.ProcessingResult {
	start := p.now()

	p.Log.Info("processing repository", zap.String("repo_url", repo.URL))

	// The timeout must be disarmed on every exit path; cancel is deferred
	// before the first suspension point.
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	raw, err := retry.DoValue(ctx, p.Log, "summarize", func() (any, error) {
		return p.Engine.Ingest(ctx, repo.URL)
	}, p.attempts(), p.delays())

	duration := p.now().Sub(start).Seconds()

	if err != nil {
		kind := classify(ctx, err)
		p.Log.Error("processing failed",
			zap.String("repo_url", repo.URL),
			zap.String("kind", kind),
			zap.Float64("duration_seconds", duration),
			zap.Error(err))
		return models.ProcessingResult{
			RepoURL:  repo.URL,
			Error:    err.Error(),
			Kind:     kind,
			Duration: duration,
		}
	}

	summary := truncate.Summary(summarize.ExtractSummary(raw, p.Log))

	p.Log.Info("summary generated",
		zap.String("repo_url", repo.URL),
		zap.Float64("duration_seconds", duration),
		zap.Int("summary_length", len(summary)))

	result := models.ProcessingResult{
		RepoURL:  repo.URL,
		Success:  true,
		Summary:  summary,
		Duration: duration,
	}

	if p.Store != nil {
		result.Uploaded = p.upload(ctx, repo, summary)
		if !result.Uploaded {
			// Upload failure does not flip the overall outcome; it only
			// prevents the cache marker from being written.
			result.Kind = models.FailureUploadError
		}
	}

	return result
}

func (p *Processor) upload(ctx context.Context, repo models.RepositoryDescriptor, summary string) bool {
	owner, name, ok := repo.OwnerName()
	if !ok {
		p.Log.Error("invalid repository URL format, skipping upload",
			zap.String("repo_url", repo.URL))
		return false
	}

	return p.Store.Upload(ctx, owner, name, summary, storage.Metadata{
		Owner:       owner,
		Repo:        name,
		URL:         repo.URL,
		PushedAt:    repo.PushedAt,
		ProcessedAt: p.now().UTC().Format(time.RFC3339),
	})
}

func classify(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return models.FailureTimeout
	case errors.Is(err, summarize.ErrUnavailable):
		return models.FailureSummarizerUnavailable
	default:
		return models.FailureSummarizerError
	}
}
