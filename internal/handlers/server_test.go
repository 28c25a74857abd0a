package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pep299/daily-digest/internal/config"
)

func testConfig(t *testing.T, topicsJSON string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.json")
	if err := os.WriteFile(path, []byte(topicsJSON), 0644); err != nil {
		t.Fatalf("Failed to write topics file: %v", err)
	}
	return &config.Config{
		Port:                 "8080",
		Host:                 "127.0.0.1",
		OpenAIAPIKey:         "test-key",
		OpenAIModel:          "gpt-4o-mini",
		TopicsFile:           path,
		MaxConcurrentFetches: 2,
		DigestCacheMinutes:   5,
	}
}

func newTestServer(t *testing.T, topicsJSON string) *Server {
	t.Helper()
	server, err := NewServer(testConfig(t, topicsJSON))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(server.Close)
	return server
}

const validTopics = `{
	"topics": [
		{"id": "ai", "name": "AI", "sources": [{"name": "Feed A", "url": "http://127.0.0.1:1/feed"}]},
		{"id": "dev", "name": "Dev", "sources": [{"name": "Feed B", "url": "http://127.0.0.1:1/feed"}]}
	]
}`

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, validTopics)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", response["status"])
	}
}

func TestTopicsEndpoint(t *testing.T) {
	server := newTestServer(t, validTopics)
	router := server.SetupRoutes()

	t.Run("all topics", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/config/topics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var topics config.Topics
		if err := json.Unmarshal(w.Body.Bytes(), &topics); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(topics.Topics) != 2 {
			t.Errorf("Expected 2 topics, got %d", len(topics.Topics))
		}
	})

	t.Run("filtered by topic_id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/config/topics?topic_id=dev", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var topics config.Topics
		if err := json.Unmarshal(w.Body.Bytes(), &topics); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(topics.Topics) != 1 || topics.Topics[0].ID != "dev" {
			t.Errorf("Expected only topic 'dev', got %v", topics.Topics)
		}
	})

	t.Run("unknown topic_id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/config/topics?topic_id=nope", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestTopicsFileInvalid(t *testing.T) {
	server := newTestServer(t, `{"topics": []}`)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/config/topics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 for invalid topics file, got %d", w.Code)
	}
}

func TestFetchEndpoint(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>F</title>
			<item><title>Story One</title><link>https://example.com/1</link></item>
			<item><title>Story Two</title><link>https://example.com/2</link></item>
		</channel></rss>`)
	}))
	defer feedServer.Close()

	topicsJSON := fmt.Sprintf(`{"topics": [{"id": "ai", "name": "AI", "sources": [{"name": "Feed", "url": "%s"}]}]}`, feedServer.URL)
	server := newTestServer(t, topicsJSON)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/test/fetch", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Count    int `json:"count"`
		Articles []struct {
			Title string `json:"title"`
			Topic string `json:"topic"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 2 {
		t.Errorf("Expected 2 articles, got %d", response.Count)
	}
	if len(response.Articles) != 2 || response.Articles[0].Topic != "ai" {
		t.Errorf("Expected articles attributed to topic 'ai', got %v", response.Articles)
	}
}

func TestDedupeEndpoint(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>F</title>
			<item><title>OpenAI Releases New Model</title><link>https://example.com/1</link></item>
			<item><title>OpenAI Releases a New Model Today</title><link>https://example.com/2</link></item>
		</channel></rss>`)
	}))
	defer feedServer.Close()

	topicsJSON := fmt.Sprintf(`{"topics": [{"id": "ai", "name": "AI", "sources": [{"name": "Feed", "url": "%s"}]}]}`, feedServer.URL)
	server := newTestServer(t, topicsJSON)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/test/dedupe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		TotalBefore  int `json:"total_before"`
		TotalAfter   int `json:"total_after"`
		TotalRemoved int `json:"total_removed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.TotalBefore != 2 || response.TotalAfter != 1 || response.TotalRemoved != 1 {
		t.Errorf("Expected 2 -> 1 after dedup, got %+v", response)
	}
}

func TestCacheEndpoints(t *testing.T) {
	server := newTestServer(t, validTopics)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/cache/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for cache stats, got %d", w.Code)
	}

	req = httptest.NewRequest("DELETE", "/cache/clear", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for cache clear, got %d", w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "cleared" {
		t.Errorf("Expected status 'cleared', got '%s'", response["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	server := newTestServer(t, validTopics)
	router := server.SetupRoutes()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS origin header")
	}
}
