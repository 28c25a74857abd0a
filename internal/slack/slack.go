package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pep299/daily-digest/internal/summarize"
)

// Client handles Slack notifications
type Client struct {
	botToken   string
	channel    string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a new Slack client
func NewClient(botToken, channel string) *Client {
	return &Client{
		botToken: botToken,
		channel:  channel,
		apiURL:   "https://slack.com/api/chat.postMessage",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ChatPostMessageRequest represents a chat.postMessage request
type ChatPostMessageRequest struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// SendDigest sends one message per topic digest to the configured channel
func (c *Client) SendDigest(ctx context.Context, digest *summarize.Digest) error {
	for _, topic := range digest.Topics {
		if err := c.sendMessage(ctx, c.formatTopicDigest(topic)); err != nil {
			return fmt.Errorf("sending digest for topic %s: %w", topic.TopicID, err)
		}
	}
	return nil
}

// SendSimpleMessage sends a plain text message to the configured channel
func (c *Client) SendSimpleMessage(ctx context.Context, text string) error {
	return c.sendMessage(ctx, text)
}

// formatTopicDigest formats one topic digest as a Slack message
func (c *Client) formatTopicDigest(topic summarize.TopicDigest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s* - %d articles (%s)\n",
		topic.TopicName, topic.ArticleCount, topic.GeneratedAt.Format("2006-01-02")))
	sb.WriteString(strings.Join(topic.Bullets, "\n"))
	return sb.String()
}

// sendMessage posts a message via the Slack chat.postMessage API
func (c *Client) sendMessage(ctx context.Context, text string) error {
	req := ChatPostMessageRequest{
		Channel:   c.channel,
		Text:      text,
		Username:  "Daily Digest",
		IconEmoji: ":newspaper:",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.botToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return nil
}
