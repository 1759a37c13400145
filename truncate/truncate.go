// Package truncate bounds summary size before persistence. Lengths are
// measured in bytes; the cut may fall inside a multi-byte rune. That is an
// accepted approximation: byte-exact truncation of multi-byte text is out of
// scope and the downstream consumers tolerate a clipped final rune.
package truncate

import "fmt"

// MaxSummaryBytes is the primary bound applied before any upload (512KB).
const MaxSummaryBytes = 524288

// Notice is appended when a summary exceeds MaxSummaryBytes.
const Notice = "\n\n[... Summary truncated at 512KB limit ...]"

// IndexMaxBytes is the stricter bound applied by the search-index backend,
// which rejects larger documents (100KB).
const IndexMaxBytes = 102400

// Summary applies the 512KB bound. Input at or under the bound is returned
// unchanged. Re-applying to already-truncated output is not idempotent when
// the output exceeds the bound; callers truncate exactly once.
func Summary(text string) string {
	return withLimit(text, MaxSummaryBytes, Notice)
}

// ForIndex applies the 100KB index bound with a notice naming the original
// and truncated sizes.
func ForIndex(text string) string {
	if len(text) <= IndexMaxBytes {
		return text
	}
	notice := fmt.Sprintf("\n\n[... Summary truncated from %d to %d bytes for indexing ...]", len(text), IndexMaxBytes)
	return withLimit(text, IndexMaxBytes, notice)
}

func withLimit(text string, max int, notice string) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + notice
}
