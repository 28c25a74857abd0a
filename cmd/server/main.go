package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pep299/daily-digest/internal/config"
	"github.com/pep299/daily-digest/internal/handlers"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Daily Digest Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  OPENAI_API_KEY          OpenAI API key (required)\n")
		fmt.Printf("  TOPICS_FILE             Topic configuration file (default: topics.json)\n")
		fmt.Printf("  PORT                    Server port (default: 8080)\n")
		fmt.Printf("  HOST                    Server host (default: 0.0.0.0)\n")
		fmt.Printf("  MAX_CONCURRENT_FETCHES  Concurrent feed fetch cap (default: 10)\n")
		fmt.Printf("  DIGEST_SCHEDULE         Cron schedule for digest runs (default: 0 7 * * *)\n")
		fmt.Printf("  SLACK_BOT_TOKEN         Slack bot token for digest delivery (optional)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Daily Digest Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate topic configuration before accepting any work
	if _, err := config.LoadTopics(cfg.TopicsFile); err != nil {
		log.Fatalf("Invalid topic configuration: %v", err)
	}

	// Create server
	server, err := handlers.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer server.Close()

	// Setup routes
	router := server.SetupRoutes()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Schedule digest runs with cron
	c := cron.New()
	_, err = c.AddFunc(cfg.DigestSchedule, func() {
		log.Printf("Scheduled digest run starting")
		if _, err := server.ProcessAndNotify(ctx); err != nil {
			log.Printf("Scheduled digest run failed: %v", err)
		} else {
			log.Printf("Scheduled digest run completed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule digest runs (%q): %v", cfg.DigestSchedule, err)
	}
	c.Start()
	defer c.Stop()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	go func() {
		log.Printf("Starting server on %s:%s", cfg.Host, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down server...")

	// Cancel background tasks and stop the scheduler
	cancel()
	c.Stop()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
