// Package feed fetches the repos.json feed that drives each run. Every
// worker in a run must observe the same feed snapshot and ordering; that
// ordering is the only coordination mechanism between workers.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"govreposcrape/models"
	"govreposcrape/retry"
)

// DefaultURL is the published xgov-opensource-repo-scraper feed.
const DefaultURL = "https://uk-x-gov-software-community.github.io/xgov-opensource-repo-scraper/repos.json"

// Client fetches the repository feed.
type Client struct {
	url        string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a feed client for the given URL; an empty URL selects
// DefaultURL.
func NewClient(url string, log *zap.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Fetch retrieves and decodes the feed, retrying transient failures.
// A persistent failure here is fatal to the run: no per-item work is
// meaningful without the feed.
func (c *Client) Fetch(ctx context.Context) ([]models.RepositoryDescriptor, error) {
	repos, err := retry.DoValue(ctx, c.log, "feed-fetch", func() ([]models.RepositoryDescriptor, error) {
		return c.fetchOnce(ctx)
	}, retry.DefaultAttempts, retry.DefaultDelays)
	if err != nil {
		c.log.Error("failed to fetch feed after retries",
			zap.String("feed_url", c.url),
			zap.Error(err))
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	c.log.Info("fetched repositories from feed",
		zap.String("feed_url", c.url),
		zap.Int("total_repos", len(repos)))
	return repos, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]models.RepositoryDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch feed: status code %d", resp.StatusCode)
	}

	var repos []models.RepositoryDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}
	return repos, nil
}
