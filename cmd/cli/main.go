package main

import (
	"context"
	"fmt"
	"log"

	"github.com/pep299/daily-digest/internal/config"
	"github.com/pep299/daily-digest/internal/handlers"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create server instance (contains all the clients)
	server, err := handlers.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer server.Close()

	ctx := context.Background()

	// Run the pipeline once and print the digest
	digest, err := server.ProcessAndNotify(ctx)
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}

	for _, topic := range digest.Topics {
		fmt.Printf("\n== %s (%d articles) ==\n", topic.TopicName, topic.ArticleCount)
		for _, bullet := range topic.Bullets {
			fmt.Println(bullet)
		}
	}
	fmt.Printf("\nDigest generated at %s: %d articles summarized across %d topics\n",
		digest.GeneratedAt.Format("2006-01-02 15:04 MST"), digest.TotalArticles, len(digest.Topics))
}
