// Package runner drives the processor over one worker's partition: strictly
// in partition order, one item at a time. Parallelism comes from running
// multiple worker processes with distinct offsets, never from intra-process
// concurrency.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"govreposcrape/cache"
	"govreposcrape/models"
	"govreposcrape/partition"
)

// DefaultCheckpointPath is where the shutdown snapshot lands. Nothing reads
// it back; it is an operational breadcrumb for whoever inspects a killed
// container.
const DefaultCheckpointPath = "/tmp/orchestrator-state.json"

// progressInterval is how many processed items separate progress logs.
const progressInterval = 100

// Fetcher supplies the feed snapshot for the run.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.RepositoryDescriptor, error)
}

// ItemProcessor handles a single repository. Implementations never return an
// error; failures are carried inside the result.
type ItemProcessor interface {
	Process(ctx context.Context, repo models.RepositoryDescriptor) models.ProcessingResult
}

// Runner orchestrates one worker's run end to end.
type Runner struct {
	Feed  Fetcher
	Cache cache.Client
	Proc  ItemProcessor

	BatchSize int
	Offset    int
	// Limit caps the number of items processed when positive; testing aid.
	Limit  int
	DryRun bool

	CheckpointPath string
	Log            *zap.Logger

	// Now is stubbed in tests.
	Now func() time.Time

	shutdown atomic.Bool
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RequestShutdown flags the runner to stop after the in-flight item. Safe to
// call from a signal-handling goroutine; the checkpoint write happens in the
// runner's own control flow, never in signal context.
func (r *Runner) RequestShutdown() {
	r.shutdown.Store(true)
}

// ShutdownRequested reports whether a termination signal arrived.
func (r *Runner) ShutdownRequested() bool {
	return r.shutdown.Load()
}

// Run executes the pipeline: fetch, partition, cache-check, process, report.
// Per-item failures never abort the run; only feed acquisition or
// partitioning failures are fatal.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	start := r.now()

	if err := partition.Validate(r.BatchSize, r.Offset); err != nil {
		return stats, err
	}

	repos, err := r.Feed.Fetch(ctx)
	if err != nil {
		return stats, err
	}

	batch := partition.Select(repos, r.BatchSize, r.Offset, r.Log)
	if r.Limit > 0 && len(batch) > r.Limit {
		r.Log.Info("applying item limit",
			zap.Int("limit", r.Limit),
			zap.Int("assigned_repos", len(batch)))
		batch = batch[:r.Limit]
	}

	toProcess, cached := r.checkCache(ctx, batch)

	r.Log.Info("cache check complete",
		zap.Int("cached", cached),
		zap.Int("needs_processing", len(toProcess)),
		zap.Float64("cache_hit_rate", rate(cached, len(batch))))

	processed := 0
	for idx, repo := range toProcess {
		if r.ShutdownRequested() {
			r.writeCheckpoint(processed)
			r.Log.Info("shutdown complete",
				zap.Int("repos_processed", processed))
			return stats, nil
		}

		if idx > 0 && idx%progressInterval == 0 {
			r.logProgress(processed, len(toProcess), cached, stats, r.now().Sub(start))
		}

		r.runItem(ctx, repo, &stats)
		processed++
	}

	r.logFinalSummary(len(batch), cached, stats, r.now().Sub(start))
	return stats, nil
}

// checkCache partitions the batch into items needing work and skipped items.
// Descriptors missing owner/name/pushedAt cannot be looked up and are
// processed unconditionally.
func (r *Runner) checkCache(ctx context.Context, batch []models.RepositoryDescriptor) (toProcess []models.RepositoryDescriptor, cached int) {
	if r.DryRun {
		return batch, 0
	}

	for _, repo := range batch {
		owner, name, ok := repo.OwnerName()
		if !ok || repo.PushedAt == "" {
			toProcess = append(toProcess, repo)
			continue
		}

		result := r.Cache.Check(ctx, owner, name, repo.PushedAt)
		if result.NeedsProcessing {
			toProcess = append(toProcess, repo)
		} else {
			cached++
		}
	}
	return toProcess, cached
}

func (r *Runner) runItem(ctx context.Context, repo models.RepositoryDescriptor, stats *Stats) {
	if r.DryRun {
		r.Log.Info("[dry run] would process repository",
			zap.String("repo_url", repo.URL))
		stats.RecordSuccess(0)
		return
	}

	result := r.Proc.Process(ctx, repo)

	if !result.Success {
		stats.RecordFailure()
		r.Log.Warn("repository processing failed",
			zap.String("repo_url", repo.URL),
			zap.String("kind", result.Kind),
			zap.String("error", result.Error))
		return
	}

	// Summarize success counts toward stats even when the upload failed;
	// the cache marker is only written after a full summarize-and-upload
	// cycle so the repository is retried next run.
	stats.RecordSuccess(result.Duration)

	if !result.Uploaded {
		r.Log.Warn("summary not uploaded, cache entry withheld",
			zap.String("repo_url", repo.URL))
		return
	}

	owner, name, ok := repo.OwnerName()
	if !ok || repo.PushedAt == "" {
		return
	}
	r.Cache.Update(ctx, owner, name, models.CacheEntry{
		PushedAt:    repo.PushedAt,
		ProcessedAt: r.now().UTC().Format(time.RFC3339),
		Status:      models.StatusComplete,
	})
}

func (r *Runner) logProgress(processed, total, cached int, stats Stats, elapsed time.Duration) {
	eta := "calculating..."
	if processed > 0 {
		remaining := total - processed
		etaSeconds := elapsed.Seconds() * float64(remaining) / float64(processed)
		eta = formatElapsed(etaSeconds)
	}

	r.Log.Info(fmt.Sprintf("processed %d/%d (%.1f%%), cache hit: %.1f%%, elapsed: %s, ETA: %s",
		processed, total, rate(processed, total), rate(cached, processed),
		formatElapsed(elapsed.Seconds()), eta),
		zap.Int("batch_size", r.BatchSize),
		zap.Int("offset", r.Offset),
		zap.Int("processed", processed),
		zap.Int("total", total),
		zap.Int("cached", cached),
		zap.Int("successful", stats.Successful),
		zap.Int("failed", stats.Failed),
		zap.Float64("elapsed_seconds", elapsed.Seconds()))
}

func (r *Runner) logFinalSummary(total, cached int, stats Stats, elapsed time.Duration) {
	elapsedStr := formatElapsed(elapsed.Seconds())

	r.Log.Info(fmt.Sprintf("pipeline complete: %d total, %d cached (%.1f%%), %d processed, %d failed, completed in %s",
		total, cached, rate(cached, total), stats.Successful, stats.Failed, elapsedStr),
		zap.Int("batch_size", r.BatchSize),
		zap.Int("offset", r.Offset),
		zap.Int("total_repos", total),
		zap.Int("cached", cached),
		zap.Int("processed", stats.Successful),
		zap.Int("failed", stats.Failed),
		zap.Float64("average_time_seconds", stats.Average()),
		zap.Float64("elapsed_seconds", elapsed.Seconds()),
		zap.String("elapsed_formatted", elapsedStr))
}

// writeCheckpoint snapshots progress on termination. A write failure is
// logged but must never prevent exit.
func (r *Runner) writeCheckpoint(processed int) {
	path := r.CheckpointPath
	if path == "" {
		path = DefaultCheckpointPath
	}

	data, err := json.MarshalIndent(models.Checkpoint{
		ReposProcessed: processed,
		BatchSize:      r.BatchSize,
		Offset:         r.Offset,
		Timestamp:      r.now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		r.Log.Error("failed to save checkpoint",
			zap.String("state_file", path),
			zap.Error(err))
		return
	}

	r.Log.Info("state saved",
		zap.String("state_file", path),
		zap.Int("repos_processed", processed))
}

func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// formatElapsed renders a duration as "5h 47m", "15m 45s" or "45s".
func formatElapsed(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
