package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"govreposcrape/models"
)

func TestFetchSuccess(t *testing.T) {
	feed := []models.RepositoryDescriptor{
		{URL: "https://github.com/alphagov/govuk-frontend", Owner: "alphagov", Name: "govuk-frontend", PushedAt: "2025-01-01T00:00:00Z"},
		{URL: "https://github.com/alphagov/whitehall", Org: "alphagov", Name: "whitehall", PushedAt: "2025-02-01T00:00:00Z"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(feed)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	repos, err := client.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, feed, repos)
}

func TestFetchRecoversFromTransientFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]models.RepositoryDescriptor{{URL: "https://github.com/o/r"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	repos, err := client.Fetch(context.Background())

	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, 2, calls)
}

func TestFetchPersistentFailureExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	_, err := client.Fetch(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestFetchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	_, err := client.Fetch(context.Background())

	assert.Error(t, err)
}

func TestNewClientDefaultsURL(t *testing.T) {
	client := NewClient("", zap.NewNop())
	assert.Equal(t, DefaultURL, client.url)
}
