package feed

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Article is a normalized feed entry. Articles are immutable after
// construction; Title and URL are always non-empty.
type Article struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Summary   string     `json:"summary"`
	Published *time.Time `json:"published,omitempty"` // UTC, nil when the feed provides none
	Source    string     `json:"source"`
	Topic     string     `json:"topic"`
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML removes markup tags, decodes HTML entities, and collapses
// whitespace. The transform is idempotent: applying it to already-clean
// text is a no-op.
func StripHTML(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// newArticle normalizes one raw feed item into an Article. Returns false
// when the item has no usable title or link after normalization; such
// entries are filtered input, not errors.
func newArticle(item *gofeed.Item, sourceName, topicID string) (Article, bool) {
	title := StripHTML(item.Title)
	url := strings.TrimSpace(item.Link)

	if title == "" || url == "" {
		return Article{}, false
	}

	return Article{
		Title:     title,
		URL:       url,
		Summary:   StripHTML(itemSummary(item)),
		Published: itemPublished(item),
		Source:    sourceName,
		Topic:     topicID,
	}, true
}

// itemSummary picks the synopsis text: an explicit description first,
// then the content block Atom feeds use, else empty.
func itemSummary(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// itemPublished resolves the publish instant, preferring the published
// timestamp over the updated one. gofeed leaves both nil for malformed
// dates, so unparseable values degrade to nil here without error.
func itemPublished(item *gofeed.Item) *time.Time {
	raw := item.PublishedParsed
	if raw == nil {
		raw = item.UpdatedParsed
	}
	if raw == nil {
		return nil
	}
	utc := raw.UTC()
	return &utc
}
