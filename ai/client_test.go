package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completionServer captures the last request body and replies with a
// canned chat completion.
func completionServer(t *testing.T, content string, lastReq *completionRequest) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if lastReq != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(lastReq))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
}

func failingServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestClient_Enabled(t *testing.T) {
	assert.True(t, NewClient("test-key").Enabled())
	assert.False(t, NewClient("").Enabled())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestGenerateBookDescription(t *testing.T) {
	t.Run("returns the trimmed completion", func(t *testing.T) {
		var req completionRequest
		srv := completionServer(t, "  A sweeping epic of galactic decline.  ", &req)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		got := client.GenerateBookDescription(context.Background(), "Foundation", "Isaac Asimov", "Science Fiction")

		assert.Equal(t, "A sweeping epic of galactic decline.", got)
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 150, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Foundation")
		assert.Contains(t, req.Messages[0].Content, "Isaac Asimov")
	})

	t.Run("missing names become Unknown in the prompt", func(t *testing.T) {
		var req completionRequest
		srv := completionServer(t, "ok", &req)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		client.GenerateBookDescription(context.Background(), "Foundation", "", "  ")

		assert.Contains(t, req.Messages[0].Content, "Author: Unknown")
		assert.Contains(t, req.Messages[0].Content, "Category: Unknown")
	})

	t.Run("server failure degrades to empty", func(t *testing.T) {
		srv := failingServer(t, http.StatusInternalServerError, "boom")
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		assert.Empty(t, client.GenerateBookDescription(context.Background(), "Foundation", "", ""))
	})

	t.Run("disabled client returns empty without a request", func(t *testing.T) {
		client := NewClient("")
		assert.Empty(t, client.GenerateBookDescription(context.Background(), "Foundation", "", ""))
	})
}

func TestGenerateBookSummary(t *testing.T) {
	t.Run("returns the completion", func(t *testing.T) {
		var req completionRequest
		srv := completionServer(t, "A must-read.", &req)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL), WithModel("custom-model"))
		got := client.GenerateBookSummary(context.Background(), "Foundation", "Isaac Asimov", "Science Fiction", "Psychohistory predicts the fall of an empire.")

		assert.Equal(t, "A must-read.", got)
		assert.Equal(t, "custom-model", req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 200, req.MaxTokens)
		assert.Contains(t, req.Messages[0].Content, "Psychohistory predicts")
	})

	t.Run("empty description is replaced in the prompt", func(t *testing.T) {
		var req completionRequest
		srv := completionServer(t, "ok", &req)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		client.GenerateBookSummary(context.Background(), "Foundation", "", "", "   ")

		assert.Contains(t, req.Messages[0].Content, "Description: No description")
	})

	t.Run("failures degrade to the fallback", func(t *testing.T) {
		srv := failingServer(t, http.StatusTooManyRequests, "rate limited")
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		got := client.GenerateBookSummary(context.Background(), "Foundation", "", "", "")
		assert.Equal(t, FallbackSummary, got)
	})

	t.Run("blank completion degrades to the fallback", func(t *testing.T) {
		srv := completionServer(t, "   ", nil)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		got := client.GenerateBookSummary(context.Background(), "Foundation", "", "", "")
		assert.Equal(t, FallbackSummary, got)
	})

	t.Run("disabled client returns the fallback", func(t *testing.T) {
		client := NewClient("")
		got := client.GenerateBookSummary(context.Background(), "Foundation", "", "", "")
		assert.Equal(t, FallbackSummary, got)
	})
}

func TestRecommendSimilarBooks(t *testing.T) {
	payload := `[{"title":"Dune","author":"Frank Herbert"},{"title":"Hyperion","author":"Dan Simmons"},{"title":"Ringworld","author":"Larry Niven"}]`

	t.Run("parses a clean JSON array", func(t *testing.T) {
		var req completionRequest
		srv := completionServer(t, payload, &req)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		got := client.RecommendSimilarBooks(context.Background(), "Foundation", "Isaac Asimov", "Science Fiction")

		require.Len(t, got, 3)
		assert.Equal(t, Recommendation{Title: "Dune", Author: "Frank Herbert"}, got[0])
		assert.Equal(t, 0.8, req.Temperature)
		assert.Equal(t, 300, req.MaxTokens)
	})

	t.Run("strips prose around the array", func(t *testing.T) {
		srv := completionServer(t, "Here you go:\n"+payload+"\nEnjoy!", nil)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		got := client.RecommendSimilarBooks(context.Background(), "Foundation", "", "")
		require.Len(t, got, 3)
		assert.Equal(t, "Hyperion", got[1].Title)
	})

	t.Run("malformed output yields an empty list", func(t *testing.T) {
		srv := completionServer(t, "I cannot recommend anything today.", nil)
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		got := client.RecommendSimilarBooks(context.Background(), "Foundation", "", "")
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("transport failure yields an empty list", func(t *testing.T) {
		srv := failingServer(t, http.StatusBadGateway, "upstream down")
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		assert.Empty(t, client.RecommendSimilarBooks(context.Background(), "Foundation", "", ""))
	})

	t.Run("disabled client yields an empty list", func(t *testing.T) {
		client := NewClient("")
		got := client.RecommendSimilarBooks(context.Background(), "Foundation", "", "")
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})
}

func TestComplete_ResponseHandling(t *testing.T) {
	t.Run("no choices is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := client.complete(context.Background(), "hi", 0.5, 10)
		assert.Error(t, err)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>nope</html>"))
		}))
		defer srv.Close()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := client.complete(context.Background(), "hi", 0.5, 10)
		assert.Error(t, err)
	})

	t.Run("context cancellation is an error", func(t *testing.T) {
		srv := completionServer(t, "ok", nil)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := client.complete(ctx, "hi", 0.5, 10)
		assert.Error(t, err)
	})
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare array", input: `[{"title":"x"}]`, want: `[{"title":"x"}]`},
		{name: "leading prose", input: `Sure: [{"title":"x"}]`, want: `[{"title":"x"}]`},
		{name: "trailing prose", input: `[{"title":"x"}] hope that helps`, want: `[{"title":"x"}]`},
		{name: "no array passes through", input: "no json here", want: "no json here"},
		{name: "inverted brackets pass through", input: "] oops [", want: "] oops ["},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSONArray(tc.input))
		})
	}
}
