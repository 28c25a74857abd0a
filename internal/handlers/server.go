package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/pep299/daily-digest/internal/cache"
	"github.com/pep299/daily-digest/internal/config"
	"github.com/pep299/daily-digest/internal/dedup"
	"github.com/pep299/daily-digest/internal/feed"
	"github.com/pep299/daily-digest/internal/slack"
	"github.com/pep299/daily-digest/internal/summarize"
)

// Server holds the HTTP server and its dependencies
type Server struct {
	config          *config.Config
	fetcher         *feed.Fetcher
	summarizeClient *summarize.Client
	slackClient     *slack.Client
	digestCache     *cache.DigestCache
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:          cfg,
		fetcher:         feed.NewFetcher(cfg.MaxConcurrentFetches),
		summarizeClient: summarize.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		digestCache:     cache.NewDigestCache(time.Duration(cfg.DigestCacheMinutes) * time.Minute),
	}

	if cfg.SlackBotToken != "" {
		s.slackClient = slack.NewClient(cfg.SlackBotToken, cfg.SlackChannel)
	}

	return s, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.loggingMiddleware)

	// Service info and health
	r.HandleFunc("/", s.rootHandler).Methods("GET")
	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	// Configuration
	r.HandleFunc("/config/topics", s.topicsHandler).Methods("GET")

	// Pipeline stages, individually triggerable for feed health checks
	r.HandleFunc("/test/fetch", s.testFetchHandler).Methods("GET")
	r.HandleFunc("/test/dedupe", s.testDedupeHandler).Methods("GET")
	r.HandleFunc("/test/summarize", s.testSummarizeHandler).Methods("GET")

	// Digest delivery
	r.HandleFunc("/digest/notify", s.notifyHandler).Methods("POST")

	// Cache operations
	r.HandleFunc("/cache/stats", s.cacheStatsHandler).Methods("GET")
	r.HandleFunc("/cache/clear", s.cacheClearHandler).Methods("DELETE")

	return r
}

// topicsForRequest loads the topic configuration and applies the optional
// topic_id query filter. Returns a non-zero HTTP status on failure:
// 500 when the topics file is structurally invalid, 404 when the
// requested topic does not exist.
func (s *Server) topicsForRequest(r *http.Request) (*config.Topics, int, error) {
	topics, err := config.LoadTopics(s.config.TopicsFile)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	topicID := r.URL.Query().Get("topic_id")
	if topicID == "" {
		return topics, 0, nil
	}

	matched := topics.Find(topicID)
	if matched == nil {
		return nil, http.StatusNotFound, fmt.Errorf("topic %q not found", topicID)
	}
	return &config.Topics{Topics: []config.Topic{*matched}}, 0, nil
}

// ProcessAndNotify runs the full pipeline and delivers the digest to
// Slack when a Slack client is configured. Used by the cron scheduler,
// the CLI, and the notify endpoint.
func (s *Server) ProcessAndNotify(ctx context.Context) (*summarize.Digest, error) {
	topics, err := config.LoadTopics(s.config.TopicsFile)
	if err != nil {
		return nil, fmt.Errorf("loading topics: %w", err)
	}

	articles := s.fetcher.FetchAll(ctx, topics)
	deduped := dedup.Deduplicate(articles)
	digest := s.summarizeClient.Summarize(ctx, deduped, topics)

	if s.slackClient != nil {
		if err := s.slackClient.SendDigest(ctx, digest); err != nil {
			log.Printf("Error sending digest to Slack: %v", err)
		} else {
			log.Printf("Sent digest for %d topics to Slack", len(digest.Topics))
		}
	}

	return digest, nil
}

// Close releases background resources
func (s *Server) Close() {
	s.digestCache.Stop()
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.RequestURI, time.Since(start))
	})
}

// Cloud Function support

var (
	functionServer *Server
	functionRouter *mux.Router
	functionOnce   sync.Once
	functionErr    error
)

// HandleRequest is the entry point used by the Cloud Functions runtime.
// The server is initialized lazily on the first request.
func HandleRequest(w http.ResponseWriter, r *http.Request) {
	functionOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			functionErr = err
			return
		}
		functionServer, functionErr = NewServer(cfg)
		if functionErr == nil {
			functionRouter = functionServer.SetupRoutes()
		}
	})

	if functionErr != nil {
		log.Printf("Failed to initialize server: %v", functionErr)
		http.Error(w, "server initialization failed", http.StatusInternalServerError)
		return
	}

	functionRouter.ServeHTTP(w, r)
}
