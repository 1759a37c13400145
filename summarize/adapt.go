package summarize

import (
	"fmt"

	"go.uber.org/zap"
)

// SummaryProvider is the current engine result shape: a value carrying the
// digest behind a Summary accessor.
type SummaryProvider interface {
	Summary() string
}

// Pair is the older engine result shape: summary first, directory tree second.
type Pair struct {
	First  string
	Second string
}

// ExtractSummary normalizes the engine's return value to a plain string.
// The shape contract, in priority order:
//
//  1. a value with a Summary accessor,
//  2. a two-element ordered pair whose first element is the summary,
//  3. anything else is stringified.
//
// The accessor check runs first: Pair-shaped values that also expose Summary
// must resolve through the accessor.
func ExtractSummary(v any, log *zap.Logger) string {
	if p, ok := v.(SummaryProvider); ok {
		return p.Summary()
	}

	switch pair := v.(type) {
	case Pair:
		return pair.First
	case [2]string:
		return pair[0]
	case []string:
		if len(pair) == 2 {
			return pair[0]
		}
	case []any:
		if len(pair) == 2 {
			return fmt.Sprint(pair[0])
		}
	}

	if s, ok := v.(string); ok {
		return s
	}

	log.Warn("unexpected return type from summarizer",
		zap.String("result_type", fmt.Sprintf("%T", v)))
	return fmt.Sprint(v)
}
