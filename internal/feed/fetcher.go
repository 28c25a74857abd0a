package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pep299/daily-digest/internal/config"
)

const (
	connectTimeout = 5 * time.Second
	requestTimeout = 10 * time.Second
	userAgent      = "daily-digest/1.0 (RSS Reader)"
)

// Fetcher retrieves and parses feeds
type Fetcher struct {
	httpClient    *http.Client
	maxConcurrent int
}

// NewFetcher creates a Fetcher with the given concurrency cap for FetchAll
func NewFetcher(maxConcurrent int) *Fetcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
		maxConcurrent: maxConcurrent,
	}
}

// Fetch retrieves one feed and returns its normalized articles in feed
// order. Every failure mode is logged with the source name and URL and
// converted to an empty result, so one bad feed never aborts a batch.
func (f *Fetcher) Fetch(ctx context.Context, source config.Source, topicID string) []Article {
	body, err := f.download(ctx, source.URL)
	if err != nil {
		log.Printf("Error fetching %s (%s): %v", source.Name, source.URL, err)
		return nil
	}
	return f.parse(body, source, topicID)
}

// download performs the HTTP GET and returns the raw response body.
// Redirects are followed by the default client policy.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}

// parse turns a raw feed body into normalized articles, preserving the
// order the feed presented them. A body that fails to parse outright
// gets one recovery attempt so a feed damaged partway through still
// contributes its intact entries; only a body yielding nothing at all
// is logged and treated as an empty contribution. Entries the
// normalizer rejects are skipped silently.
func (f *Fetcher) parse(body []byte, source config.Source, topicID string) []Article {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		if recovered, rerr := parseDamaged(body); rerr == nil {
			parsed, err = recovered, nil
		}
	}
	if err != nil {
		log.Printf("Malformed feed from %s (%s): %v", source.Name, source.URL, err)
		return nil
	}

	articles := make([]Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if article, ok := newArticle(item, source.Name, topicID); ok {
			articles = append(articles, article)
		}
	}

	log.Printf("Fetched %d articles from %s", len(articles), source.Name)
	return articles
}

// parseDamaged retries a body gofeed rejected. Feeds in the wild arrive
// with undefined HTML entities or cut off mid-entry; escaping stray
// ampersands and truncating to the last complete entry salvages the
// entries that made it through intact. Returns the original parse error
// when nothing can be recovered.
func parseDamaged(body []byte) (*gofeed.Feed, error) {
	repaired, ok := truncateToLastEntry(escapeBareEntities(body))
	if !ok {
		return nil, fmt.Errorf("no complete entries in body")
	}
	return gofeed.NewParser().Parse(bytes.NewReader(repaired))
}

var entityPattern = regexp.MustCompile(`&#?[a-zA-Z0-9]*;?`)

// escapeBareEntities rewrites ampersands that do not start one of XML's
// predefined or numeric entities, so HTML entities like &nbsp; survive
// as literal text instead of killing the parse.
func escapeBareEntities(body []byte) []byte {
	return entityPattern.ReplaceAllFunc(body, func(m []byte) []byte {
		s := string(m)
		switch s {
		case "&amp;", "&lt;", "&gt;", "&quot;", "&apos;":
			return m
		}
		if strings.HasPrefix(s, "&#") && strings.HasSuffix(s, ";") {
			return m
		}
		return append([]byte("&amp;"), m[1:]...)
	})
}

// truncateToLastEntry cuts the body back to its last complete RSS item
// or Atom entry and re-closes the document. Returns false when the body
// holds no complete entry at all.
func truncateToLastEntry(body []byte) ([]byte, bool) {
	closers := []struct {
		entry string
		tail  string
	}{
		{"</item>", "</channel></rss>"},
		{"</entry>", "</feed>"},
	}

	for _, c := range closers {
		i := bytes.LastIndex(body, []byte(c.entry))
		if i < 0 {
			continue
		}
		end := i + len(c.entry)
		out := make([]byte, 0, end+len(c.tail))
		out = append(out, body[:end]...)
		out = append(out, c.tail...)
		return out, true
	}
	return nil, false
}
