package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatsWithoutWorkerURLIsPipelineError(t *testing.T) {
	t.Setenv("WORKER_URL", "")

	assert.Equal(t, 1, runStats())
}
