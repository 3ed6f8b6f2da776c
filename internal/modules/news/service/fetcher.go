package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	userAgent    = "NewsDigestBot/1.0 (+https://github.com/reshetovitsme/news-digest-bot)"
	maxFeedBytes = 10 << 20
)

// FetchResult carries the entries of one feed and how the fetch went
type FetchResult struct {
	Entries []domain.RawEntry
	Status  domain.FeedStatus
	Err     error
}

// Fetcher retrieves and parses one feed document
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) FetchResult
}

// GofeedFetcher downloads feeds over HTTP and parses RSS/Atom/JSON feeds with gofeed
type GofeedFetcher struct {
	client *http.Client
}

// NewGofeedFetcher creates a fetcher whose requests are bounded by timeout
func NewGofeedFetcher(timeout time.Duration) *GofeedFetcher {
	return &GofeedFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch never returns an error value: broken sources yield a failed result
// with no entries so the caller can keep going.
func (f *GofeedFetcher) Fetch(ctx context.Context, feedURL string) FetchResult {
	if err := validateFeedURL(feedURL); err != nil {
		return failed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return failed(oops.With("feed", feedURL).Wrap(err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return failed(oops.With("feed", feedURL, "context", "request failed").Wrap(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(oops.With("feed", feedURL, "status", resp.StatusCode).Errorf("feed returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return failed(oops.With("feed", feedURL, "context", "failed to read body").Wrap(err))
	}

	// gofeed parsers keep per-document state, so each fetch gets its own
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("RSS feed may have issues", "feed", feedURL, "error", err)
		entries := salvageEntries(data)
		if len(entries) == 0 {
			return failed(oops.With("feed", feedURL, "context", "failed to parse feed").Wrap(err))
		}
		slog.Warn("Recovered entries from malformed feed", "feed", feedURL, "entries", len(entries))
		return FetchResult{Entries: entries, Status: domain.FeedStatusOk}
	}

	entries := toRawEntries(feed.Items)

	if len(entries) == 0 {
		return FetchResult{Entries: entries, Status: domain.FeedStatusEmpty}
	}
	return FetchResult{Entries: entries, Status: domain.FeedStatusOk}
}

func toRawEntries(items []*gofeed.Item) []domain.RawEntry {
	return lo.FilterMap(items, func(item *gofeed.Item, _ int) (domain.RawEntry, bool) {
		if item == nil {
			return domain.RawEntry{}, false
		}
		return toRawEntry(item), true
	})
}

// salvageEntries parses every complete <item> or <entry> element on its own,
// wrapped in the document's header, so a truncated or broken element only
// loses itself. Elements are returned in document order.
func salvageEntries(data []byte) []domain.RawEntry {
	doc := string(data)

	tag, closing := "item", "</channel></rss>"
	if indexOpenTag(doc, "<item", 0) < 0 {
		tag, closing = "entry", "</feed>"
	}
	if strings.Contains(doc, "<rdf:RDF") {
		closing = "</rdf:RDF>"
	}

	header, blocks := completeElements(doc, tag)
	entries := make([]domain.RawEntry, 0, len(blocks))
	for _, block := range blocks {
		feed, err := gofeed.NewParser().Parse(strings.NewReader(header + block + closing))
		if err != nil {
			continue
		}
		entries = append(entries, toRawEntries(feed.Items)...)
	}
	return entries
}

// completeElements returns the text before the first tag element and every
// element of that name that has a closing tag
func completeElements(doc, tag string) (string, []string) {
	open, end := "<"+tag, "</"+tag+">"

	start := indexOpenTag(doc, open, 0)
	if start < 0 {
		return "", nil
	}
	header := doc[:start]

	var blocks []string
	for start >= 0 {
		stop := strings.Index(doc[start:], end)
		if stop < 0 {
			break
		}
		stop += start + len(end)

		// an element opened again before closing was never terminated
		if next := indexOpenTag(doc, open, start+len(open)); next >= 0 && next < stop {
			start = next
			continue
		}

		blocks = append(blocks, doc[start:stop])
		start = indexOpenTag(doc, open, stop)
	}
	return header, blocks
}

// indexOpenTag finds open (e.g. "<item") at or after from, skipping longer
// names such as "<itemref"
func indexOpenTag(doc, open string, from int) int {
	for from < len(doc) {
		i := strings.Index(doc[from:], open)
		if i < 0 {
			return -1
		}
		i += from
		if after := i + len(open); after < len(doc) {
			switch doc[after] {
			case '>', '/', ' ', '\t', '\n', '\r':
				return i
			}
		}
		from = i + len(open)
	}
	return -1
}

func failed(err error) FetchResult {
	return FetchResult{Entries: []domain.RawEntry{}, Status: domain.FeedStatusFailed, Err: err}
}

func validateFeedURL(feedURL string) error {
	u, err := url.Parse(feedURL)
	if err != nil {
		return oops.With("feed", feedURL).Wrap(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return oops.With("feed", feedURL).Errorf("feed url must be an absolute http(s) url")
	}
	return nil
}

// toRawEntry maps a gofeed item, including its media RSS extension, to a RawEntry
func toRawEntry(item *gofeed.Item) domain.RawEntry {
	entry := domain.RawEntry{
		Title:     item.Title,
		Body:      item.Description,
		Content:   item.Content,
		Link:      item.Link,
		Published: item.PublishedParsed,
		Updated:   item.UpdatedParsed,
	}

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		entry.Enclosures = append(entry.Enclosures, domain.Enclosure{URL: enc.URL, Type: enc.Type})
	}

	media, ok := item.Extensions["media"]
	if !ok {
		return entry
	}

	for _, thumb := range media["thumbnail"] {
		if u := thumb.Attrs["url"]; u != "" {
			entry.Thumbnails = append(entry.Thumbnails, u)
		}
	}
	for _, content := range media["content"] {
		if u := content.Attrs["url"]; u != "" {
			entry.MediaContents = append(entry.MediaContents, domain.Enclosure{
				URL:  u,
				Type: lo.CoalesceOrEmpty(content.Attrs["type"], content.Attrs["medium"]),
			})
		}
	}
	// media:group wraps thumbnails and contents in some feeds (YouTube, BBC)
	for _, group := range media["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				entry.Thumbnails = append(entry.Thumbnails, u)
			}
		}
		for _, content := range group.Children["content"] {
			if u := content.Attrs["url"]; u != "" {
				entry.MediaContents = append(entry.MediaContents, domain.Enclosure{
					URL:  u,
					Type: lo.CoalesceOrEmpty(content.Attrs["type"], content.Attrs["medium"]),
				})
			}
		}
	}

	return entry
}
