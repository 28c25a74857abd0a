package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pep299/daily-digest/internal/dedup"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// rootHandler provides service information
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"message": "Daily Digest API",
		"status":  "healthy",
	})
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// topicsHandler returns the loaded topic configuration
func (s *Server) topicsHandler(w http.ResponseWriter, r *http.Request) {
	topics, status, err := s.topicsForRequest(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, topics)
}

// testFetchHandler triggers a live fetch and returns raw results with no
// deduplication, useful for checking feed health
func (s *Server) testFetchHandler(w http.ResponseWriter, r *http.Request) {
	topics, status, err := s.topicsForRequest(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	articles := s.fetcher.FetchAll(r.Context(), topics)

	writeJSON(w, map[string]interface{}{
		"count":    len(articles),
		"articles": articles,
	})
}

// testDedupeHandler fetches and deduplicates articles, reporting
// before/after counts per topic
func (s *Server) testDedupeHandler(w http.ResponseWriter, r *http.Request) {
	topics, status, err := s.topicsForRequest(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	articles := s.fetcher.FetchAll(r.Context(), topics)
	deduped, stats := dedup.DeduplicateWithStats(articles)

	writeJSON(w, map[string]interface{}{
		"total_before":  stats.Total,
		"total_after":   stats.Kept,
		"total_removed": stats.Removed,
		"by_topic":      stats.ByTopic,
		"articles":      deduped,
	})
}

// testSummarizeHandler runs the full pipeline and returns the digest.
// Results are cached per topic filter so repeated calls within the TTL
// do not re-fetch feeds or re-spend summarization tokens.
func (s *Server) testSummarizeHandler(w http.ResponseWriter, r *http.Request) {
	topics, status, err := s.topicsForRequest(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	cacheKey := r.URL.Query().Get("topic_id")
	if cacheKey == "" {
		cacheKey = "all"
	}

	if digest := s.digestCache.Get(r.Context(), cacheKey); digest != nil {
		writeJSON(w, digest)
		return
	}

	articles := s.fetcher.FetchAll(r.Context(), topics)
	deduped := dedup.Deduplicate(articles)
	digest := s.summarizeClient.Summarize(r.Context(), deduped, topics)

	s.digestCache.Set(r.Context(), cacheKey, digest)
	writeJSON(w, digest)
}

// notifyHandler runs the full pipeline and delivers the digest to Slack
func (s *Server) notifyHandler(w http.ResponseWriter, r *http.Request) {
	digest, err := s.ProcessAndNotify(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"topics":              len(digest.Topics),
		"articles_summarized": digest.TotalArticles,
		"generated_at":        digest.GeneratedAt,
	})
}

// cacheStatsHandler returns digest cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.digestCache.GetStats(r.Context()))
}

// cacheClearHandler clears the digest cache
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	s.digestCache.Clear(r.Context())
	writeJSON(w, map[string]string{"status": "cleared"})
}
