// Package index triggers Vertex AI Search ingestion of summaries already
// landed in GCS. Import is a long-running server-side operation; this client
// only starts it and polls for completion with a bounded budget.
package index

import (
	"context"
	"fmt"
	"time"

	discoveryengine "cloud.google.com/go/discoveryengine/apiv1"
	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ImportConfig identifies the target data store and the GCS source.
type ImportConfig struct {
	ProjectID   string
	Location    string
	DataStoreID string
	// GCSURI is a wildcard over the summary bucket, e.g.
	// gs://govreposcrape-summaries/**/*.jsonl
	GCSURI string
	// CredentialsFile is optional; empty uses ambient credentials.
	CredentialsFile string
}

func (c ImportConfig) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s/collections/default_collection/dataStores/%s/branches/0",
		c.ProjectID, c.Location, c.DataStoreID)
}

const (
	pollInterval = 5 * time.Second
	maxPolls     = 120
)

// Import triggers an incremental document import and polls the operation to
// completion. Polling is bounded: exhausting the budget is a terminal
// failure, not an infinite wait.
func Import(ctx context.Context, cfg ImportConfig, log *zap.Logger) error {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := discoveryengine.NewDocumentClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize Discovery Engine client: %w", err)
	}
	defer client.Close()

	op, err := client.ImportDocuments(ctx, &discoveryenginepb.ImportDocumentsRequest{
		Parent: cfg.parent(),
		Source: &discoveryenginepb.ImportDocumentsRequest_GcsSource{
			GcsSource: &discoveryenginepb.GcsSource{
				InputUris:  []string{cfg.GCSURI},
				DataSchema: "document",
			},
		},
		ReconciliationMode: discoveryenginepb.ImportDocumentsRequest_INCREMENTAL,
	})
	if err != nil {
		return fmt.Errorf("failed to trigger import: %w", err)
	}

	log.Info("import operation started",
		zap.String("operation", op.Name()),
		zap.String("gcs_uri", cfg.GCSURI))

	for poll := 0; poll < maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}

		if _, err := op.Poll(ctx); err != nil {
			return fmt.Errorf("import operation failed: %w", err)
		}
		if op.Done() {
			log.Info("import operation complete",
				zap.String("operation", op.Name()))
			return nil
		}
	}

	return fmt.Errorf("import operation %s did not complete within %s", op.Name(), time.Duration(maxPolls)*pollInterval)
}
