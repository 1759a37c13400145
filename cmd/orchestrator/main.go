// The orchestrator command runs the full pipeline for one worker partition:
// fetch repos.json, skip repositories whose cache marker is current, process
// the rest, upload summaries and update the cache. A stats subcommand
// reports cache effectiveness, and an import subcommand triggers Vertex AI
// Search ingestion of summaries already landed in GCS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"govreposcrape/cache"
	"govreposcrape/config"
	"govreposcrape/feed"
	"govreposcrape/index"
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
	limit     int
	dryRun    bool
	backend   string
	feedURL   string

	importProject   string
	importLocation  string
	importDataStore string
	importURI       string
)

var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Run the full ingestion pipeline (fetch, cache, process, upload)",
	Long: `Coordinate the complete ingestion pipeline for one worker partition:
fetch repos.json, check the change-detection cache, summarize stale
repositories and upload the results.

Run one process per partition for parallel execution:

  orchestrator --batch-size=10 --offset=0
  orchestrator --batch-size=10 --offset=1
  ...
  orchestrator --batch-size=10 --offset=9`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runPipeline())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache performance statistics",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runStats())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Trigger Vertex AI Search import of summaries in GCS",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runImport())
	},
}

func init() {
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 1, "total number of parallel partitions")
	rootCmd.Flags().IntVar(&offset, "offset", 0, "this worker's partition index (0 to batch-size-1)")
	rootCmd.Flags().IntVar(&limit, "limit", 0, "cap the number of items processed (0 = no limit)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate processing without running gitingest or uploading")
	rootCmd.Flags().StringVar(&backend, "backend", "r2", "storage backend: r2 or gcs")
	rootCmd.Flags().StringVar(&feedURL, "feed-url", "", "override the repos.json feed URL")

	importCmd.Flags().StringVar(&importProject, "project", "govreposcrape", "GCP project ID")
	importCmd.Flags().StringVar(&importLocation, "location", "global", "data store location")
	importCmd.Flags().StringVar(&importDataStore, "data-store", "govreposcrape-summaries", "Discovery Engine data store ID")
	importCmd.Flags().StringVar(&importURI, "gcs-uri", "gs://govreposcrape-summaries/**/*.jsonl", "GCS source URI pattern")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func setup() (*config.Config, *zap.Logger, int) {
	if err := logger.Initialize("info"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		return nil, nil, 1
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return nil, nil, 1
	}

	log := logger.ForOperation("orchestrator",
		zap.String("run_id", uuid.NewString()))
	return cfg, log, 0
}

func runPipeline() int {
	cfg, log, code := setup()
	if code != 0 {
		return code
	}
	defer logger.Sync()

	batchSize, offset = config.ResolveBatch(batchSize, offset)
	if err := partition.Validate(batchSize, offset); err != nil {
		log.Error("invalid arguments", zap.Error(err))
		return 2
	}

	log = log.With(zap.Int("batch_size", batchSize), zap.Int("offset", offset))
	log.Info("starting pipeline orchestrator",
		zap.Bool("dry_run", dryRun),
		zap.String("backend", backend))

	store, code := buildStore(cfg, log)
	if code != 0 {
		return code
	}

	cacheClient := buildCache(cfg, log)

	r := &runner.Runner{
		Feed:  feed.NewClient(cfg.FeedURL, log),
		Cache: cacheClient,
		Proc: &processor.Processor{
			Engine: summarize.CommandEngine{},
			Store:  store,
			Log:    log,
		},
		BatchSize: batchSize,
		Offset:    offset,
		Limit:     limit,
		DryRun:    dryRun,
		Log:       log,
	}

	return execute(r, log)
}

// buildCache degrades to the disabled stub when no proxy is configured:
// caching failures must never block freshness.
func buildCache(cfg *config.Config, log *zap.Logger) cache.Client {
	if cfg.WorkerURL == "" {
		log.Warn("WORKER_URL not set, caching disabled - all repositories will be processed")
		return cache.Disabled{}
	}
	return cache.NewHTTPClient(cfg.WorkerURL, log)
}

func buildStore(cfg *config.Config, log *zap.Logger) (storage.Uploader, int) {
	if dryRun {
		return nil, 0
	}

	switch backend {
	case "r2":
		store, err := storage.NewR2Client(cfg.R2, log)
		if err != nil {
			log.Error("failed to initialize R2 storage", zap.Error(err))
			return nil, 1
		}
		return store, 0
	case "gcs":
		store, err := storage.NewGCSClient(context.Background(), cfg.GCS, log)
		if err != nil {
			log.Error("failed to initialize GCS storage", zap.Error(err))
			return nil, 1
		}
		return store, 0
	default:
		log.Error("invalid arguments", zap.String("backend", backend))
		return nil, 2
	}
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

func runStats() int {
	cfg, log, code := setup()
	if code != 0 {
		return code
	}
	defer logger.Sync()

	// Missing configuration is a pipeline error, not an argument error.
	if cfg.WorkerURL == "" {
		fmt.Fprintln(os.Stderr, "Error: WORKER_URL not set, no cache to query")
		return 1
	}

	stats := cache.NewHTTPClient(cfg.WorkerURL, log).Stats(context.Background())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Total Checks", "Hits", "Misses", "Hit Rate"})
	table.Append([]string{
		strconv.Itoa(stats.TotalChecks),
		strconv.Itoa(stats.Hits),
		strconv.Itoa(stats.Misses),
		fmt.Sprintf("%.1f%%", stats.HitRate),
	})
	table.Render()
	return 0
}

func runImport() int {
	cfg, log, code := setup()
	if code != 0 {
		return code
	}
	defer logger.Sync()

	err := index.Import(context.Background(), index.ImportConfig{
		ProjectID:       importProject,
		Location:        importLocation,
		DataStoreID:     importDataStore,
		GCSURI:          importURI,
		CredentialsFile: cfg.GCS.CredentialsFile,
	}, log)
	if err != nil {
		log.Error("import failed", zap.Error(err))
		return 1
	}
	return 0
}
