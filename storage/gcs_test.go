package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"govreposcrape/config"
	"govreposcrape/truncate"
)

// newTestGCSClient points the SDK at a local fake of the JSON API. Metadata
// reads arrive as GET .../b/{bucket}/o/{object}; uploads arrive under an
// /upload/ path.
func newTestGCSClient(t *testing.T, handler http.HandlerFunc) *GCSClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGCSClient(context.Background(),
		config.GCSConfig{Bucket: "summaries"}, zap.NewNop(),
		option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	return client
}

func TestGCSUploadSkipsWhenPushedAtUnchanged(t *testing.T) {
	uploads := 0
	client := newTestGCSClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/upload/") {
			uploads++
			w.Write([]byte(`{"name":"alphagov/govuk-frontend.md","bucket":"summaries"}`))
			return
		}
		// Attrs lookup: object exists with a current marker.
		w.Write([]byte(`{"name":"alphagov/govuk-frontend.md","bucket":"summaries","metadata":{"pushedAt":"2025-01-01T00:00:00Z"}}`))
	})

	ok := client.Upload(context.Background(), "alphagov", "govuk-frontend", "fresh content",
		Metadata{PushedAt: "2025-01-01T00:00:00Z"})

	assert.True(t, ok)
	assert.Zero(t, uploads)
}

func TestGCSUploadWritesWhenPushedAtDiffers(t *testing.T) {
	uploads := 0
	client := newTestGCSClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/upload/") {
			uploads++
			w.Write([]byte(`{"name":"alphagov/govuk-frontend.md","bucket":"summaries"}`))
			return
		}
		w.Write([]byte(`{"name":"alphagov/govuk-frontend.md","bucket":"summaries","metadata":{"pushedAt":"2024-06-01T00:00:00Z"}}`))
	})

	ok := client.Upload(context.Background(), "alphagov", "govuk-frontend", "fresh content",
		Metadata{PushedAt: "2025-01-01T00:00:00Z"})

	assert.True(t, ok)
	assert.Equal(t, 1, uploads)
}

func TestGCSUploadBoundsContentToIndexLimit(t *testing.T) {
	var uploadBody []byte
	client := newTestGCSClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/upload/") {
			uploadBody, _ = io.ReadAll(r.Body)
			w.Write([]byte(`{"name":"alphagov/govuk-frontend.md","bucket":"summaries"}`))
			return
		}
		// Attrs lookup: no existing object.
		w.WriteHeader(http.StatusNotFound)
	})

	content := strings.Repeat("x", truncate.IndexMaxBytes+500)
	ok := client.Upload(context.Background(), "alphagov", "govuk-frontend", content,
		Metadata{PushedAt: "2025-01-01T00:00:00Z"})

	assert.True(t, ok)
	require.NotEmpty(t, uploadBody)
	// The media part carries the bounded text, never the oversized original.
	assert.Contains(t, string(uploadBody), truncate.ForIndex(content))
	assert.NotContains(t, string(uploadBody), content)
}
