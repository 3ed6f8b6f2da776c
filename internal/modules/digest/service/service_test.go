package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/digest/repository"
	newsdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	newsrepo "github.com/reshetovitsme/news-digest-bot/internal/modules/news/repository"
	newsservice "github.com/reshetovitsme/news-digest-bot/internal/modules/news/service"
	summarydomain "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	userdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/config"
	sharederrors "github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	feeds map[string][]newsdomain.RawEntry
}

func (f *fakeFetcher) Fetch(_ context.Context, feedURL string) newsservice.FetchResult {
	entries, ok := f.feeds[feedURL]
	if !ok {
		return newsservice.FetchResult{Entries: []newsdomain.RawEntry{}, Status: newsdomain.FeedStatusFailed, Err: errors.New("unreachable")}
	}
	return newsservice.FetchResult{Entries: entries, Status: newsdomain.FeedStatusOk}
}

func makeEntries(host, topic string, n int) []newsdomain.RawEntry {
	return lo.Times(n, func(i int) newsdomain.RawEntry {
		published := baseTime.Add(-time.Duration(i) * time.Hour)
		return newsdomain.RawEntry{
			Title:     fmt.Sprintf("%s story number %d from %s", topic, i, host),
			Body:      "Market commentary",
			Link:      fmt.Sprintf("https://%s/story-%d", host, i),
			Published: &published,
		}
	})
}

type fakePublisher struct {
	mu      sync.Mutex
	digests map[int64][]*domain.Digest
	texts   map[int64][]string
	failFor map[int64]bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		digests: map[int64][]*domain.Digest{},
		texts:   map[int64][]string{},
		failFor: map[int64]bool{},
	}
}

func (p *fakePublisher) PublishDigest(_ context.Context, chatID int64, digest *domain.Digest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[chatID] {
		return errors.New("chat not found")
	}
	p.digests[chatID] = append(p.digests[chatID], digest)
	return nil
}

func (p *fakePublisher) PublishText(_ context.Context, chatID int64, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[chatID] {
		return errors.New("chat not found")
	}
	p.texts[chatID] = append(p.texts[chatID], text)
	return nil
}

type fakeUsers struct {
	users map[int64]*userdomain.User
	err   error
}

func (u *fakeUsers) GetUser(_ context.Context, userID int64) (*userdomain.User, error) {
	if u.err != nil {
		return nil, u.err
	}
	user, ok := u.users[userID]
	if !ok {
		return nil, sharederrors.ErrUserNotFound
	}
	return user, nil
}

func (u *fakeUsers) GetAllUsers(context.Context) ([]*userdomain.User, error) {
	if u.err != nil {
		return nil, u.err
	}
	return lo.Values(u.users), nil
}

type fakeSummarizer struct {
	individual int
	combined   int
}

func (s *fakeSummarizer) SummarizeIndividual(_ context.Context, items []newsdomain.NewsItem) []summarydomain.Article {
	s.individual++
	return lo.Map(items, func(item newsdomain.NewsItem, _ int) summarydomain.Article {
		return summarydomain.Article{NewsItem: item, AISummary: "analysis of " + item.Title}
	})
}

func (s *fakeSummarizer) SummarizeCombined(context.Context, []newsdomain.NewsItem) string {
	s.combined++
	return "combined analysis"
}

func digestURLs(d *domain.Digest) []string {
	return lo.Map(d.Items(), func(i newsdomain.NewsItem, _ int) string { return i.URL })
}

type fixture struct {
	cfg        *config.Config
	repo       *repository.FileStorage
	users      *fakeUsers
	publisher  *fakePublisher
	summarizer *fakeSummarizer
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Keywords:          []string{"bitcoin"},
		RSSFeeds:          []string{"https://a.com/rss", "https://b.com/rss"},
		MaxNewsPerKeyword: 2,
		TelegramChatID:    -100,
		DeveloperChatID:   900,
		ScheduleTime:      "08:00",
	}
	fetcher := &fakeFetcher{feeds: map[string][]newsdomain.RawEntry{
		"https://a.com/rss":     makeEntries("a.com", "Bitcoin", 4),
		"https://b.com/rss":     makeEntries("b.com", "Bitcoin", 4),
		"https://ether.org/rss": makeEntries("ether.org", "Ethereum", 3),
	}}
	repo, err := repository.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	users := &fakeUsers{users: map[int64]*userdomain.User{}}
	summarizer := &fakeSummarizer{}
	pipeline := Pipeline{
		Fetcher:    fetcher,
		Normalizer: newsservice.NewNormalizer(),
		Media:      newsservice.NewMediaExtractor(nil),
	}

	svc := New(cfg, repo, pipeline, newsrepo.NewMemoryFactory(), users, summarizer)
	clock := baseTime.Add(2 * time.Hour)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	publisher := newFakePublisher()
	svc.SetPublisher(publisher)

	return &fixture{cfg: cfg, repo: repo, users: users, publisher: publisher, summarizer: summarizer, service: svc}
}

func TestRun_PublishesAndDedups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Run(ctx, 1, domain.Options{Mode: domain.ModePlain})
	require.NoError(t, err)
	assert.Len(t, first.Articles, 2)
	assert.Equal(t, []string{"bitcoin"}, first.Keywords)
	assert.Equal(t, domain.ModePlain, first.Mode)

	second, err := f.service.Run(ctx, 1, domain.Options{Mode: domain.ModePlain})
	require.NoError(t, err)
	assert.Len(t, second.Articles, 2)

	urls := append(digestURLs(first), digestURLs(second)...)
	assert.Len(t, lo.Uniq(urls), 4, "second run must not repeat URLs")

	require.Len(t, f.publisher.digests[1], 2)

	stored, err := f.service.GetDigests(1, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	seen, err := f.service.SeenCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, seen)
}

func TestRun_EmptyDigestIsPublishedButNotStored(t *testing.T) {
	f := newFixture(t)
	f.cfg.Keywords = []string{"dogecoin"}

	digest, err := f.service.Run(context.Background(), 1, domain.Options{})
	require.NoError(t, err)
	assert.True(t, digest.IsEmpty())
	assert.NotNil(t, digest.Articles)
	require.Len(t, f.publisher.digests[1], 1)

	stored, err := f.service.GetDigests(1, 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRun_ChatsHaveIndependentHorizons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.service.Run(ctx, 1, domain.Options{})
	require.NoError(t, err)
	b, err := f.service.Run(ctx, 2, domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, digestURLs(a), digestURLs(b))
}

func TestRun_MergesUserPreferences(t *testing.T) {
	f := newFixture(t)
	f.users.users[5] = &userdomain.User{
		ID:          5,
		Keywords:    []string{"Ethereum", "BITCOIN", "solana"},
		NewsSources: []string{"https://ether.org/rss", "https://a.com/rss"},
	}

	digest, err := f.service.Run(context.Background(), 5, domain.Options{UserID: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"bitcoin", "Ethereum", "solana"}, digest.Keywords)
	sources := lo.Uniq(lo.Map(digest.Items(), func(i newsdomain.NewsItem, _ int) string { return i.Source }))
	assert.Contains(t, sources, "ether.org")
}

func TestRun_UserLookupFailureFallsBackToConfig(t *testing.T) {
	f := newFixture(t)
	f.users.err = errors.New("database is down")

	digest, err := f.service.Run(context.Background(), 5, domain.Options{UserID: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin"}, digest.Keywords)
	assert.NotEmpty(t, digest.Articles)
}

func TestRun_SummaryModes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	individual, err := f.service.Run(ctx, 1, domain.Options{Mode: domain.ModeAiIndividual})
	require.NoError(t, err)
	require.NotEmpty(t, individual.Articles)
	for _, a := range individual.Articles {
		assert.Equal(t, "analysis of "+a.Title, a.AISummary)
	}
	assert.Empty(t, individual.Combined)

	combined, err := f.service.Run(ctx, 2, domain.Options{Mode: domain.ModeAiCombined})
	require.NoError(t, err)
	assert.Equal(t, "combined analysis", combined.Combined)
	assert.Equal(t, 1, f.summarizer.individual)
	assert.Equal(t, 1, f.summarizer.combined)
}

func TestRun_SummarizerSkippedWhenNothingFound(t *testing.T) {
	f := newFixture(t)
	f.cfg.Keywords = []string{"dogecoin"}

	digest, err := f.service.Run(context.Background(), 1, domain.Options{Mode: domain.ModeAiCombined})
	require.NoError(t, err)
	assert.Empty(t, digest.Combined)
	assert.Zero(t, f.summarizer.combined)
}

func TestRun_WithoutSummarizerFallsBackToPlain(t *testing.T) {
	f := newFixture(t)
	f.service.summarizer = nil

	digest, err := f.service.Run(context.Background(), 1, domain.Options{Mode: domain.ModeAiIndividual})
	require.NoError(t, err)
	assert.Equal(t, domain.ModePlain, digest.Mode)
	assert.NotEmpty(t, digest.Articles)
}

func TestRun_PublishFailureStillRecords(t *testing.T) {
	f := newFixture(t)
	f.publisher.failFor[1] = true

	digest, err := f.service.Run(context.Background(), 1, domain.Options{})
	require.Error(t, err)
	require.NotNil(t, digest)
	assert.NotEmpty(t, digest.Articles)

	stored, err := f.service.GetDigests(1, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRun_ReportsFailedFeeds(t *testing.T) {
	f := newFixture(t)
	f.cfg.RSSFeeds = append(f.cfg.RSSFeeds, "https://down.example/rss")
	f.cfg.Keywords = []string{"bitcoin", "x", "y"}

	digest, err := f.service.Run(context.Background(), 1, domain.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://down.example/rss"}, digest.FailedFeeds)
}

func TestClearCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Run(ctx, 1, domain.Options{})
	require.NoError(t, err)

	require.NoError(t, f.service.ClearCache(ctx, 1))
	seen, err := f.service.SeenCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, seen)

	again, err := f.service.Run(ctx, 1, domain.Options{})
	require.NoError(t, err)
	assert.Equal(t, digestURLs(first), digestURLs(again))
}

func TestNotify_RequiresPublisher(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.service.Notify(context.Background(), 3, "hello"))
	assert.Equal(t, []string{"hello"}, f.publisher.texts[3])

	f.service.SetPublisher(nil)
	assert.Error(t, f.service.Notify(context.Background(), 3, "hello"))
}
