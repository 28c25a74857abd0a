// Package summarize generates a bullet-point digest for each topic from
// the deduplicated article list.
package summarize

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/pep299/daily-digest/internal/config"
	"github.com/pep299/daily-digest/internal/feed"
)

const (
	// MaxArticlesPerTopic caps how many articles feed one topic's prompt
	MaxArticlesPerTopic = 10
	// maxSummaryChars clamps each article synopsis inside the prompt
	maxSummaryChars = 300
)

// TopicDigest is the generated digest for one topic
type TopicDigest struct {
	TopicID      string    `json:"topic_id"`
	TopicName    string    `json:"topic_name"`
	ArticleCount int       `json:"article_count"`
	Bullets      []string  `json:"bullets"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Digest is the full generated digest across all topics
type Digest struct {
	Topics        []TopicDigest `json:"topics"`
	GeneratedAt   time.Time     `json:"generated_at"`
	TotalArticles int           `json:"total_articles_summarized"`
}

// Client generates digests via the OpenAI chat completions API
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates a summarization client
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Summarize generates a bullet-point digest for each topic that has
// articles. Topics are processed in first-seen order over the input list.
// Provider failures are absorbed per topic: a failed topic gets a single
// fallback bullet describing the failure, and Summarize itself never
// fails the whole digest.
func (c *Client) Summarize(ctx context.Context, articles []feed.Article, topics *config.Topics) *Digest {
	byTopic := make(map[string][]feed.Article)
	var topicOrder []string
	for _, article := range articles {
		if _, ok := byTopic[article.Topic]; !ok {
			topicOrder = append(topicOrder, article.Topic)
		}
		byTopic[article.Topic] = append(byTopic[article.Topic], article)
	}

	now := time.Now().UTC()
	digest := &Digest{GeneratedAt: now}

	for _, topicID := range topicOrder {
		topicArticles := byTopic[topicID]
		trimmed := trimRecent(topicArticles, MaxArticlesPerTopic)
		topicName := topics.NameFor(topicID)

		log.Printf("Summarizing topic %q: %d articles (trimmed from %d)",
			topicID, len(trimmed), len(topicArticles))

		bullets, err := c.generateBullets(ctx, topicName, trimmed)
		if err != nil {
			log.Printf("Error summarizing topic %q: %v", topicID, err)
			bullets = []string{fmt.Sprintf("• Could not generate summary for %s: %v", topicName, err)}
		} else {
			log.Printf("Generated %d bullets for topic %q", len(bullets), topicID)
		}

		digest.Topics = append(digest.Topics, TopicDigest{
			TopicID:      topicID,
			TopicName:    topicName,
			ArticleCount: len(trimmed),
			Bullets:      bullets,
			GeneratedAt:  now,
		})
		digest.TotalArticles += len(trimmed)
	}

	return digest
}

// generateBullets calls the chat completions API for one topic
func (c *Client) generateBullets(ctx context.Context, topicName string, articles []feed.Article) ([]string, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a concise news digest writer. You write clear, factual bullet points for busy readers."),
			openai.UserMessage(buildPrompt(topicName, articles)),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(400),
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	return parseBullets(response.Choices[0].Message.Content), nil
}

// trimRecent sorts articles most-recent-first and keeps the top max.
// Articles without a publish date sort to the end. The sort is stable so
// undated articles keep their arrival order among themselves.
func trimRecent(articles []feed.Article, max int) []feed.Article {
	sorted := make([]feed.Article, len(articles))
	copy(sorted, articles)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Published, sorted[j].Published
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	if len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

// buildPrompt builds the user prompt for one topic
func buildPrompt(topicName string, articles []feed.Article) string {
	var lines []string
	for i, article := range articles {
		summary := article.Summary
		if summary == "" {
			summary = "No summary available."
		} else if runes := []rune(summary); len(runes) > maxSummaryChars {
			summary = string(runes[:maxSummaryChars])
		}
		lines = append(lines, fmt.Sprintf("%d. [%s] %s\n   %s", i+1, article.Source, article.Title, summary))
	}

	return fmt.Sprintf(`You are summarizing today's top %s news for a personal daily digest.

Here are the %d most recent articles:

%s

Write 5 concise bullet points summarizing the most important and interesting developments.
Each bullet should:
- Be 1-2 sentences max
- Focus on what actually happened or what's new
- Be written in plain English, no jargon
- Include the source name in brackets at the end, e.g. [Hacker News]

Return only the bullet points, one per line, starting each with "•"`,
		topicName, len(articles), strings.Join(lines, "\n\n"))
}

// parseBullets extracts bullet lines from the model response. When the
// model ignored the bullet format, every non-empty line is kept and
// prefixed instead.
func parseBullets(raw string) []string {
	var bullets []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "•") {
			bullets = append(bullets, line)
		}
	}

	if len(bullets) == 0 {
		for _, line := range strings.Split(raw, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				bullets = append(bullets, "• "+line)
			}
		}
	}
	return bullets
}
