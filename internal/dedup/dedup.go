// Package dedup removes duplicate articles within each topic using exact
// URL matching and Jaccard title similarity, which catches the same story
// reported by multiple outlets. Articles are never compared across topics.
package dedup

import (
	"log"
	"strings"
	"unicode"

	"github.com/pep299/daily-digest/internal/feed"
)

// SimilarityThreshold is the Jaccard score at or above which two titles
// are considered the same story.
const SimilarityThreshold = 0.6

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "has": true,
	"have": true, "had": true, "it": true, "its": true, "this": true,
	"that": true, "by": true, "from": true, "as": true, "new": true,
	"how": true, "why": true, "what": true, "who": true, "will": true,
	"can": true, "just": true, "more": true, "up": true, "about": true,
}

// TopicStats reports per-topic before/after counts for one run
type TopicStats struct {
	Topic   string `json:"topic"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
	Removed int    `json:"removed"`
}

// Stats summarizes a deduplication run
type Stats struct {
	Total   int          `json:"total"`
	Kept    int          `json:"kept"`
	Removed int          `json:"removed"`
	ByTopic []TopicStats `json:"by_topic"`
}

// Deduplicate removes duplicate articles and returns the kept list
func Deduplicate(articles []feed.Article) []feed.Article {
	kept, _ := DeduplicateWithStats(articles)
	return kept
}

// DeduplicateWithStats removes duplicate articles using URL matching and
// Jaccard title similarity, scoped per topic. Articles are processed in
// input order and the first seen always wins, so earlier sources in the
// topic configuration are preferred over later near-duplicates. The output
// concatenates each topic's kept list in first-topic-seen order, making
// the result a deterministic function of input order.
func DeduplicateWithStats(articles []feed.Article) ([]feed.Article, Stats) {
	// Group by topic, preserving first-seen topic order
	byTopic := make(map[string][]feed.Article)
	var topicOrder []string
	for _, article := range articles {
		if _, ok := byTopic[article.Topic]; !ok {
			topicOrder = append(topicOrder, article.Topic)
		}
		byTopic[article.Topic] = append(byTopic[article.Topic], article)
	}

	stats := Stats{Total: len(articles)}
	var result []feed.Article

	for _, topic := range topicOrder {
		topicArticles := byTopic[topic]

		var kept []feed.Article
		keptURLs := make(map[string]bool)
		var keptTitleSets []map[string]bool

		for _, article := range topicArticles {
			// 1. URL deduplication (re-checked here so this stage also
			// works standalone, without the orchestrator's global pass)
			if keptURLs[article.URL] {
				continue
			}

			// 2. Title similarity
			normalized := normalizeTitle(article.Title)
			isDuplicate := false
			for _, titleSet := range keptTitleSets {
				if jaccard(normalized, titleSet) >= SimilarityThreshold {
					isDuplicate = true
					break
				}
			}
			if isDuplicate {
				continue
			}

			kept = append(kept, article)
			keptURLs[article.URL] = true
			keptTitleSets = append(keptTitleSets, normalized)
		}

		log.Printf("Topic %q: %d -> %d articles after deduplication", topic, len(topicArticles), len(kept))
		stats.ByTopic = append(stats.ByTopic, TopicStats{
			Topic:   topic,
			Before:  len(topicArticles),
			After:   len(kept),
			Removed: len(topicArticles) - len(kept),
		})
		result = append(result, kept...)
	}

	stats.Kept = len(result)
	stats.Removed = stats.Total - stats.Kept
	log.Printf("Deduplication complete: %d removed, %d remaining", stats.Removed, stats.Kept)
	return result, stats
}

// normalizeTitle lowercases a title, strips punctuation, and drops
// stopwords and single-character tokens, returning the set of meaningful
// words for Jaccard comparison.
func normalizeTitle(title string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			b.WriteRune(r)
		}
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(b.String()) {
		if !stopwords[w] && len([]rune(w)) > 1 {
			words[w] = true
		}
	}
	return words
}

// jaccard computes |intersection| / |union| of two word sets.
// Two empty sets compare as 0, never as a match.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
