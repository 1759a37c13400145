// Package cache decides whether a repository needs reprocessing by comparing
// its current pushedAt against the marker stored in the Workers KV proxy.
//
// The client is deliberately fail-safe: any transport error, malformed
// response, or unexpected status degrades to "needs processing" rather than
// blocking freshness. A write failure never aborts the pipeline; the entry
// simply stays stale and the repository is reprocessed next run.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"govreposcrape/models"
)

// Check reasons.
const (
	ReasonCacheHit   = "cache-hit"
	ReasonCacheMiss  = "cache-miss"
	ReasonStaleCache = "stale-cache"
)

// CheckResult reports whether an item needs processing and why.
type CheckResult struct {
	NeedsProcessing bool
	Reason          string
	Entry           *models.CacheEntry
}

// Client is the change-detection interface the runner depends on.
type Client interface {
	Check(ctx context.Context, owner, repo, pushedAt string) CheckResult
	Update(ctx context.Context, owner, repo string, entry models.CacheEntry) bool
	Stats(ctx context.Context) models.CacheStats
}

// HTTPClient talks to the Workers KV proxy.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewHTTPClient creates a cache client for the given proxy base URL.
func NewHTTPClient(workerURL string, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: workerURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (c *HTTPClient) entryURL(owner, repo string) string {
	return fmt.Sprintf("%s/cache/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))
}

// Check looks up the marker for owner/repo. 200 means the stored pushedAt
// matches and the item can be skipped; 404 means miss or stale per the body's
// reason. Everything else is treated as a miss.
func (c *HTTPClient) Check(ctx context.Context, owner, repo, pushedAt string) CheckResult {
	miss := CheckResult{NeedsProcessing: true, Reason: ReasonCacheMiss}

	reqURL := c.entryURL(owner, repo) + "?pushedAt=" + url.QueryEscape(pushedAt)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return miss
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("cache check failed, treating as miss",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Error(err))
		return miss
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var entry models.CacheEntry
		if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
			return miss
		}
		return CheckResult{NeedsProcessing: false, Reason: ReasonCacheHit, Entry: &entry}

	case http.StatusNotFound:
		var body struct {
			Reason string `json:"reason"`
		}
		reason := ReasonCacheMiss
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Reason != "" {
			reason = body.Reason
		}
		return CheckResult{NeedsProcessing: true, Reason: reason}

	default:
		return miss
	}
}

// Update upserts the marker after a fully successful process-and-upload
// cycle. Returns false on any failure; never errors.
func (c *HTTPClient) Update(ctx context.Context, owner, repo string, entry models.CacheEntry) bool {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.entryURL(owner, repo), bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("cache update failed",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		c.log.Warn("cache update rejected",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Int("status_code", resp.StatusCode))
		return false
	}
	return true
}

// Stats fetches proxy-side hit/miss counters. Failures return a zeroed
// struct, never an error.
func (c *HTTPClient) Stats(ctx context.Context) models.CacheStats {
	var stats models.CacheStats

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cache/stats", nil)
	if err != nil {
		return stats
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return stats
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stats
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return models.CacheStats{}
	}
	return stats
}

// Disabled is the degraded client used when no proxy is configured: every
// item needs processing and marker writes are dropped.
type Disabled struct{}

func (Disabled) Check(context.Context, string, string, string) CheckResult {
	return CheckResult{NeedsProcessing: true, Reason: ReasonCacheMiss}
}

func (Disabled) Update(context.Context, string, string, models.CacheEntry) bool { return false }

func (Disabled) Stats(context.Context) models.CacheStats { return models.CacheStats{} }
