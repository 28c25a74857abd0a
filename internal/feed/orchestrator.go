package feed

import (
	"context"
	"log"
	"sync"

	"github.com/pep299/daily-digest/internal/config"
)

// fetchTask is one source/topic pair to fetch
type fetchTask struct {
	source config.Source
	topic  string
}

// FetchAll fetches every source of every enabled topic concurrently and
// returns a flat, URL-deduplicated article list.
//
// In-flight requests are bounded by a single semaphore shared across all
// topics. The semaphore covers only the network I/O: the slot is released
// before the body is parsed, so slow parsing of a large feed never holds
// back other fetches. Results are merged in task-launch order (topics in
// configuration order, sources within a topic in configuration order),
// which makes the first-seen-wins URL dedup deterministic across runs.
func (f *Fetcher) FetchAll(ctx context.Context, topics *config.Topics) []Article {
	var tasks []fetchTask
	for _, topic := range topics.Enabled() {
		for _, source := range topic.Sources {
			tasks = append(tasks, fetchTask{source: source, topic: topic.ID})
		}
	}

	// Each task writes only its own slot; no other state is shared.
	results := make([][]Article, len(tasks))
	sem := make(chan struct{}, f.maxConcurrent)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task fetchTask) {
			defer wg.Done()

			sem <- struct{}{}
			body, err := f.download(ctx, task.source.URL)
			<-sem

			if err != nil {
				log.Printf("Error fetching %s (%s): %v", task.source.Name, task.source.URL, err)
				return
			}
			results[i] = f.parse(body, task.source, task.topic)
		}(i, task)
	}

	wg.Wait()

	// Flatten and deduplicate by URL, first seen wins
	seen := make(map[string]bool)
	var articles []Article
	for _, feedArticles := range results {
		for _, article := range feedArticles {
			if !seen[article.URL] {
				seen[article.URL] = true
				articles = append(articles, article)
			}
		}
	}

	log.Printf("Total unique articles fetched: %d", len(articles))
	return articles
}
