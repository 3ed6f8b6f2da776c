package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/news/repository"
	"github.com/samber/oops"
)

// scanMultiplier bounds how many entries of one feed are examined per run
const scanMultiplier = 3

// Aggregator runs the fetch, normalize, media and dedup pipeline over a list of feeds.
// It owns one dedup horizon and is meant for a single timeline: calls must not overlap.
type Aggregator struct {
	fetcher    Fetcher
	normalizer *Normalizer
	media      *MediaExtractor
	horizon    repository.Repository
}

func NewAggregator(fetcher Fetcher, normalizer *Normalizer, media *MediaExtractor, horizon repository.Repository) *Aggregator {
	return &Aggregator{
		fetcher:    fetcher,
		normalizer: normalizer,
		media:      media,
		horizon:    horizon,
	}
}

// ScrapeNews returns at most maxPerKeyword*len(keywords) unseen items, newest first.
// An empty slice is a valid result.
func (a *Aggregator) ScrapeNews(ctx context.Context, keywords, feeds []string, maxPerKeyword int) []domain.NewsItem {
	return a.ScrapeNewsReport(ctx, keywords, feeds, maxPerKeyword).Items
}

// ScrapeNewsReport is ScrapeNews with a per-feed account of what happened
func (a *Aggregator) ScrapeNewsReport(ctx context.Context, keywords, feeds []string, maxPerKeyword int) domain.Result {
	result := domain.Result{
		Items: []domain.NewsItem{},
		Feeds: []domain.FeedOutcome{},
	}
	if maxPerKeyword <= 0 || len(keywords) == 0 || len(feeds) == 0 {
		return result
	}

	target := maxPerKeyword * len(keywords)
	emitted := make(map[string]struct{})

	for _, feedURL := range feeds {
		if len(result.Items) >= target {
			break
		}
		if ctx.Err() != nil {
			slog.Warn("Aggregation interrupted", "feed", feedURL, "error", ctx.Err())
			break
		}

		slog.Info("Fetching RSS feed", "feed", feedURL)

		var (
			items   []domain.NewsItem
			outcome domain.FeedOutcome
		)
		err := oops.Recover(func() {
			items, outcome = a.processFeed(ctx, feedURL, keywords, maxPerKeyword, emitted)
		})
		if err != nil {
			slog.Error("Error processing RSS feed", "feed", feedURL, "error", err)
			outcome = domain.FeedOutcome{Source: feedURL, Status: domain.FeedStatusFailed, Err: err}
			items = nil
		}

		result.Feeds = append(result.Feeds, outcome)
		result.Items = append(result.Items, items...)

		slog.Info("Found relevant news items",
			"source", SourceDomain(feedURL),
			"count", len(items),
			"status", outcome.Status.String(),
		)
	}

	sortNewestFirst(result.Items)
	if len(result.Items) > target {
		result.Items = result.Items[:target]
	}

	slog.Info("Total news items found", "count", len(result.Items))
	return result
}

func (a *Aggregator) processFeed(
	ctx context.Context,
	feedURL string,
	keywords []string,
	maxPerKeyword int,
	emitted map[string]struct{},
) ([]domain.NewsItem, domain.FeedOutcome) {
	outcome := domain.FeedOutcome{
		Source:   feedURL,
		Rejected: make(map[domain.RejectReason]int),
	}

	fetched := a.fetcher.Fetch(ctx, feedURL)
	outcome.Status = fetched.Status
	outcome.Err = fetched.Err
	outcome.Entries = len(fetched.Entries)
	if fetched.Status == domain.FeedStatusFailed {
		slog.Error("Error fetching RSS feed", "feed", feedURL, "error", fetched.Err)
		return []domain.NewsItem{}, outcome
	}

	entries := fetched.Entries
	if limit := maxPerKeyword * scanMultiplier; len(entries) > limit {
		entries = entries[:limit]
	}

	local := make([]domain.NewsItem, 0, maxPerKeyword)
	for _, entry := range entries {
		item, err := a.normalizer.Normalize(entry, keywords, feedURL)
		if err != nil {
			reason := RejectionReason(err)
			outcome.Rejected[reason]++
			if reason == domain.RejectReasonFault {
				slog.Warn("Failed to process entry", "feed", feedURL, "link", entry.Link, "error", err)
			}
			continue
		}

		if !a.markNew(ctx, item.URL, emitted) {
			outcome.Rejected[domain.RejectReasonDuplicate]++
			continue
		}

		item.ImageURL = a.media.Extract(ctx, entry)
		local = append(local, item)

		if len(local) >= maxPerKeyword {
			break
		}
	}

	sortNewestFirst(local)
	outcome.Accepted = len(local)

	slog.Debug("Feed processed",
		"feed", feedURL,
		"entries", outcome.Entries,
		"accepted", outcome.Accepted,
		"rejected", outcome.Rejected,
	)
	return local, outcome
}

// markNew records url in the horizon and reports whether it was unseen.
// A failing horizon is logged and the url is treated as unseen.
func (a *Aggregator) markNew(ctx context.Context, url string, emitted map[string]struct{}) bool {
	if _, ok := emitted[url]; ok {
		return false
	}

	added, err := a.horizon.MarkIfNew(ctx, url)
	if err != nil {
		slog.Error("Dedup horizon unavailable", "url", url, "error", err)
		added = true
	}
	if added {
		emitted[url] = struct{}{}
	}
	return added
}

// ClearCache forgets every url seen so far
func (a *Aggregator) ClearCache(ctx context.Context) error {
	if err := a.horizon.Clear(ctx); err != nil {
		return oops.With("context", "clearing dedup horizon").Wrap(err)
	}
	return nil
}

// SeenCount returns the size of the dedup horizon
func (a *Aggregator) SeenCount(ctx context.Context) (int, error) {
	n, err := a.horizon.Len(ctx)
	if err != nil {
		return 0, oops.With("context", "counting dedup horizon").Wrap(err)
	}
	return n, nil
}

func sortNewestFirst(items []domain.NewsItem) {
	slices.SortStableFunc(items, func(a, b domain.NewsItem) int {
		return b.PublishedDate.Compare(a.PublishedDate)
	})
}
