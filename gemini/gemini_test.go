package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/kbukum/coursegen/config"
	"github.com/kbukum/coursegen/logger"
)

func newTestBackend(t *testing.T, handler http.Handler) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  srv.Client(),
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	if err != nil {
		t.Fatalf("genai.NewClient: %v", err)
	}
	return &Backend{
		client: client,
		model:  "gemini-2.0-flash",
		retry:  config.GenerationConfig{MaxRetries: 3, RetryDelayMS: 1},
		log:    logger.GetGlobalLogger().WithComponent("gemini"),
	}
}

func TestResearchRetriesTransientFailure(t *testing.T) {
	calls := 0
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		calls++
		if calls == 1 {
			http.Error(w, `{"error": {"code": 503, "message": "model overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"candidates": [{
				"content": {"parts": [{"text": "notes on the topic"}]},
				"groundingMetadata": {"groundingChunks": [
					{"web": {"uri": "https://example.com/a", "title": "A"}},
					{"web": {"uri": "https://example.com/a", "title": "A again"}}
				]}
			}]
		}`)
	}))

	res, err := backend.Research(context.Background(), "Photosynthesis")
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
	if res.Text != "notes on the topic" {
		t.Errorf("research text = %q", res.Text)
	}
	if len(res.Sources) != 1 || res.Sources[0].URL != "https://example.com/a" {
		t.Errorf("research sources = %+v, want one deduplicated entry", res.Sources)
	}
}

func TestResearchExhaustsRetries(t *testing.T) {
	calls := 0
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error": {"code": 503, "message": "model overloaded"}}`, http.StatusServiceUnavailable)
	}))

	if _, err := backend.Research(context.Background(), "Photosynthesis"); err == nil {
		t.Fatal("Research succeeded against a dead upstream")
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
}
