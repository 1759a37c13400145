// The ingest command processes a worker's partition of the feed without any
// cache coordination: every assigned repository is summarized and uploaded.
// It is the plain counterpart of the orchestrator; run N copies with
// distinct offsets for parallel execution.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"govreposcrape/cache"
	"govreposcrape/config"
	"govreposcrape/feed"
	"govreposcrape/logger"
	"govreposcrape/partition"
	"govreposcrape/processor"
	"govreposcrape/runner"
	"govreposcrape/storage"
	"govreposcrape/summarize"
)

var (
	batchSize int
	offset    int
	dryRun    bool
	feedURL   string
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Summarize repositories from the feed and upload to R2",
	Long: `Process GitHub repositories with gitingest and upload the resulting
LLM-ready summaries to R2 object storage.

Run one process per partition for parallel execution:

  ingest --batch-size=10 --offset=0
  ingest --batch-size=10 --offset=1
  ...
  ingest --batch-size=10 --offset=9`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run())
	},
}

func init() {
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 1, "total number of parallel partitions")
	rootCmd.Flags().IntVar(&offset, "offset", 0, "this worker's partition index (0 to batch-size-1)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate processing without running gitingest or uploading")
	rootCmd.Flags().StringVar(&feedURL, "feed-url", "", "override the repos.json feed URL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func run() int {
	if err := logger.Initialize("info"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	batchSize, offset = config.ResolveBatch(batchSize, offset)
	if err := partition.Validate(batchSize, offset); err != nil {
		logger.Error("invalid arguments", zap.Error(err))
		return 2
	}

	log := logger.ForOperation("gitingest-container",
		zap.String("run_id", uuid.NewString()),
		zap.Int("batch_size", batchSize),
		zap.Int("offset", offset))

	log.Info("container started", zap.Bool("dry_run", dryRun))

	// R2 is optional here: without credentials the summaries are generated
	// but not persisted, matching a local smoke-test run.
	var store storage.Uploader
	if err := cfg.R2.Validate(); err != nil {
		log.Warn("R2 upload disabled", zap.Error(err))
	} else {
		r2, err := storage.NewR2Client(cfg.R2, log)
		if err != nil {
			log.Warn("R2 upload disabled", zap.Error(err))
		} else {
			store = r2
		}
	}

	r := &runner.Runner{
		Feed:  feed.NewClient(cfg.FeedURL, log),
		Cache: cache.Disabled{},
		Proc: &processor.Processor{
			Engine: summarize.CommandEngine{},
			Store:  store,
			Log:    log,
		},
		BatchSize: batchSize,
		Offset:    offset,
		DryRun:    dryRun,
		Log:       log,
	}

	return execute(r, log)
}

// execute wires signals and runs the pipeline. SIGTERM requests cooperative
// shutdown (checkpoint between items); SIGINT exits 130 immediately.
func execute(r *runner.Runner, log *zap.Logger) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sigCh)

	go func() {
		for sig := range sigCh {
			if sig == os.Interrupt {
				log.Info("pipeline interrupted by user")
				logger.Sync()
				os.Exit(130)
			}
			log.Info("received SIGTERM, shutting down gracefully")
			r.RequestShutdown()
		}
	}()

	stats, err := r.Run(ctx)
	if err != nil {
		log.Error("pipeline failed",
			zap.Error(err),
			zap.Int("successful", stats.Successful),
			zap.Int("failed", stats.Failed))
		return 1
	}
	return 0
}
