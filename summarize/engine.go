// Package summarize wraps the external gitingest engine. The engine is an
// opaque collaborator: repository URL in, LLM-ready digest out, slow and
// fallible, always invoked under the processor's timeout.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// ErrUnavailable reports that the gitingest binary is not installed in the
// container image.
var ErrUnavailable = errors.New("gitingest not installed")

// MaxFileSize bounds individual file sizes fed to the digest (512KB), keeping
// single files within LLM context limits.
const MaxFileSize = 524288

// Engine produces a digest for a repository URL. The return value's shape is
// not guaranteed stable across engine versions; see ExtractSummary.
type Engine interface {
	Ingest(ctx context.Context, repoURL string) (any, error)
}

// CommandEngine runs the gitingest CLI.
type CommandEngine struct {
	// Binary is the executable name; empty means "gitingest".
	Binary string
}

// Ingest shells out to gitingest, writing the digest to stdout.
func (e CommandEngine) Ingest(ctx context.Context, repoURL string) (any, error) {
	binary := e.Binary
	if binary == "" {
		binary = "gitingest"
	}

	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, binary, repoURL,
		"--max-size", strconv.Itoa(MaxFileSize),
		"--output", "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("gitingest failed: %w: %s", err, stderr.String())
	}

	return stdout.String(), nil
}
