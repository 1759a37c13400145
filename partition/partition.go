// Package partition assigns feed entries to parallel workers without any
// coordination. Every worker sees the same feed snapshot and picks the
// entries whose index satisfies index mod batchSize == offset; for a fixed
// batch size the offsets cover the feed exactly once.
package partition

import (
	"fmt"

	"go.uber.org/zap"

	"govreposcrape/models"
)

// Validate checks a batchSize/offset pair. The constraint
// 0 <= offset < batchSize is what guarantees exactly-once coverage.
func Validate(batchSize, offset int) error {
	if batchSize < 1 {
		return fmt.Errorf("batch-size (%d) must be at least 1", batchSize)
	}
	if offset < 0 || offset >= batchSize {
		return fmt.Errorf("offset (%d) must be less than batch-size (%d)", offset, batchSize)
	}
	return nil
}

// Select returns the subset of repos owned by the worker identified by
// (batchSize, offset). batchSize=1, offset=0 selects everything.
func Select(repos []models.RepositoryDescriptor, batchSize, offset int, log *zap.Logger) []models.RepositoryDescriptor {
	assigned := make([]models.RepositoryDescriptor, 0, len(repos)/batchSize+1)
	for idx, repo := range repos {
		if idx%batchSize == offset {
			assigned = append(assigned, repo)
		}
	}

	log.Info("batch filtering complete",
		zap.Int("batch_size", batchSize),
		zap.Int("offset", offset),
		zap.Int("total_repos", len(repos)),
		zap.Int("assigned_repos", len(assigned)))

	return assigned
}
