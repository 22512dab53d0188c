package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/papersources"
)

func newTestClient(serverURL, apiKey string) *Client {
	cfg := Config{
		BaseURL:   serverURL,
		APIKey:    apiKey,
		Timeout:   5 * time.Second,
		RateLimit: 100,
		BurstSize: 100,
	}
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "TestClient/1.0",
	})
	return NewWithHTTPClient(cfg, httpClient)
}

func TestNew(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.config.BaseURL)
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
	assert.Equal(t, SourceName, c.Name())
	assert.False(t, c.IsConfigured())

	c = New(Config{BaseURL: "http://x/v3/", APIKey: "k"})
	assert.Equal(t, "http://x/v3", c.config.BaseURL)
	assert.True(t, c.IsConfigured())
}

func TestClient_SearchRaw(t *testing.T) {
	t.Run("forwards query with bearer credential", func(t *testing.T) {
		var got SearchRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/search/works", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"totalHits":1,"results":[{"id":1,"title":"A"}]}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, "secret")
		res, err := client.SearchRaw(context.Background(), papersources.SearchParams{Query: "graphene", Limit: 5})
		require.NoError(t, err)

		assert.Equal(t, SearchRequest{Query: "graphene", Limit: 5, Offset: 0}, got)
		assert.JSONEq(t, `{"totalHits":1,"results":[{"id":1,"title":"A"}]}`, string(res.Body))
		assert.Equal(t, SourceName, res.Source)
	})

	t.Run("default limit is ten", func(t *testing.T) {
		var got SearchRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "k").SearchRaw(context.Background(), papersources.SearchParams{Query: "q"})
		require.NoError(t, err)
		assert.Equal(t, 10, got.Limit)
	})

	t.Run("missing credential makes no request", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "").SearchRaw(context.Background(), papersources.SearchParams{Query: "q"})
		assert.True(t, errors.Is(err, domain.ErrMissingCredential))
		assert.False(t, called)
	})

	t.Run("non-200 becomes external api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "bad").SearchRaw(context.Background(), papersources.SearchParams{Query: "q"})
		require.Error(t, err)

		var apiErr *domain.ExternalAPIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "Invalid API key", apiErr.Message)
		assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	})

	t.Run("429 maps to rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "k").SearchRaw(context.Background(), papersources.SearchParams{Query: "q"})
		assert.True(t, errors.Is(err, domain.ErrRateLimited))
	})

	t.Run("invalid json body fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "k").SearchRaw(context.Background(), papersources.SearchParams{Query: "q"})
		assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestClient(server.URL, "k").SearchRaw(ctx, papersources.SearchParams{Query: "q"})
		assert.Error(t, err)
	})
}
