// Package models defines the core data structures used throughout the pipeline.
package models

import "strings"

// RepositoryDescriptor is one entry of the repos.json feed. The feed has
// carried both "owner" and a legacy "org" field name over time; OwnerName
// resolves the alias.
type RepositoryDescriptor struct {
	URL      string `json:"url"`
	Owner    string `json:"owner"`
	Org      string `json:"org"`
	Name     string `json:"name"`
	PushedAt string `json:"pushedAt"`
}

// OwnerName resolves the owner/repo pair for a descriptor. The "owner" field
// wins over the legacy "org" field; missing pieces are derived from the URL
// path. ok is false when no pair can be determined.
func (r RepositoryDescriptor) OwnerName() (owner, name string, ok bool) {
	owner = r.Owner
	if owner == "" {
		owner = r.Org
	}
	name = r.Name

	if owner != "" && name != "" {
		return owner, name, true
	}

	// Expected URL format: https://github.com/{owner}/{name} or {name}.git
	trimmed := strings.TrimSuffix(strings.TrimRight(r.URL, "/"), ".git")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", false
	}
	if owner == "" {
		owner = parts[len(parts)-2]
	}
	if name == "" {
		name = parts[len(parts)-1]
	}
	if owner == "" || name == "" {
		return "", "", false
	}
	return owner, name, true
}

// CacheEntry is the change-detection marker stored per owner/repo pair.
// An entry is only valid while its PushedAt equals the feed's current value.
type CacheEntry struct {
	PushedAt    string `json:"pushedAt"`
	ProcessedAt string `json:"processedAt"`
	Status      string `json:"status"`
}

// StatusComplete is the only status this pipeline ever writes.
const StatusComplete = "complete"

// ProcessingResult is the transient per-item outcome handed from the
// processor to the batch runner. Never persisted.
type ProcessingResult struct {
	RepoURL  string
	Success  bool
	Summary  string
	Error    string
	Kind     string
	Duration float64
	Uploaded bool
}

// Failure kinds surfaced on ProcessingResult.Kind.
const (
	FailureTimeout               = "timeout"
	FailureSummarizerUnavailable = "summarizer-unavailable"
	FailureSummarizerError       = "summarizer-error"
	FailureUploadError           = "upload-error"
)

// Checkpoint is the best-effort progress snapshot written on SIGTERM. It is
// an operational breadcrumb only; nothing reads it back.
type Checkpoint struct {
	ReposProcessed int    `json:"repos_processed"`
	BatchSize      int    `json:"batch_size"`
	Offset         int    `json:"offset"`
	Timestamp      string `json:"timestamp"`
}

// CacheStats mirrors the proxy's GET /cache/stats payload.
type CacheStats struct {
	TotalChecks int     `json:"totalChecks"`
	Hits        int     `json:"hits"`
	Misses      int     `json:"misses"`
	HitRate     float64 `json:"hitRate"`
}
