package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/digest/repository"
	newsdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	newsrepo "github.com/reshetovitsme/news-digest-bot/internal/modules/news/repository"
	newsservice "github.com/reshetovitsme/news-digest-bot/internal/modules/news/service"
	summarydomain "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	userdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/config"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Publisher delivers digests and plain notices to a chat
type Publisher interface {
	PublishDigest(ctx context.Context, chatID int64, digest *domain.Digest) error
	PublishText(ctx context.Context, chatID int64, text string) error
}

// Summarizer attaches model analysis to news items
type Summarizer interface {
	SummarizeIndividual(ctx context.Context, items []newsdomain.NewsItem) []summarydomain.Article
	SummarizeCombined(ctx context.Context, items []newsdomain.NewsItem) string
}

// Subscribers looks up personal preferences
type Subscribers interface {
	GetUser(ctx context.Context, userID int64) (*userdomain.User, error)
	GetAllUsers(ctx context.Context) ([]*userdomain.User, error)
}

// Pipeline holds the stateless stages shared by every chat's aggregator
type Pipeline struct {
	Fetcher    newsservice.Fetcher
	Normalizer *newsservice.Normalizer
	Media      *newsservice.MediaExtractor
}

// one timeline: an aggregator and the lock serializing runs against its horizon
type chat struct {
	mu         sync.Mutex
	aggregator *newsservice.Aggregator
}

// Service builds, delivers and records digests
type Service struct {
	cfg        *config.Config
	repo       repository.Repository
	pipeline   Pipeline
	horizons   newsrepo.Factory
	users      Subscribers
	summarizer Summarizer
	publisher  Publisher
	now        func() time.Time

	mu    sync.Mutex
	chats map[int64]*chat
}

// New creates a new digest service
func New(
	cfg *config.Config,
	repo repository.Repository,
	pipeline Pipeline,
	horizons newsrepo.Factory,
	users Subscribers,
	summarizer Summarizer,
) *Service {
	return &Service{
		cfg:        cfg,
		repo:       repo,
		pipeline:   pipeline,
		horizons:   horizons,
		users:      users,
		summarizer: summarizer,
		now:        time.Now,
		chats:      make(map[int64]*chat),
	}
}

// SetPublisher sets the delivery channel
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Service) chat(chatID int64) *chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		horizon := s.horizons(scope(chatID))
		c = &chat{
			aggregator: newsservice.NewAggregator(s.pipeline.Fetcher, s.pipeline.Normalizer, s.pipeline.Media, horizon),
		}
		s.chats[chatID] = c
	}
	return c
}

func scope(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10)
}

// Run collects fresh news for the chat, summarizes it according to opts.Mode,
// publishes it and records non-empty digests. The digest is returned even when
// publishing fails.
func (s *Service) Run(ctx context.Context, chatID int64, opts domain.Options) (*domain.Digest, error) {
	mode := opts.Mode
	if !mode.IsValid() {
		mode = domain.ModePlain
	}
	if mode != domain.ModePlain && s.summarizer == nil {
		slog.Warn("Summarizer not configured, sending plain digest", "chat_id", chatID, "mode", mode)
		mode = domain.ModePlain
	}

	keywords, feeds := s.preferences(ctx, opts.UserID)

	c := s.chat(chatID)
	c.mu.Lock()
	result := c.aggregator.ScrapeNewsReport(ctx, keywords, feeds, s.cfg.MaxNewsPerKeyword)
	c.mu.Unlock()

	failed := lo.Map(result.FailedFeeds(), func(f newsdomain.FeedOutcome, _ int) string {
		return f.Source
	})

	now := s.now()
	digest := &domain.Digest{
		ID:          now.UnixNano(),
		ChatID:      chatID,
		CreatedAt:   now.UTC(),
		Keywords:    keywords,
		Mode:        mode,
		FailedFeeds: failed,
	}
	slog.Info("Digest collected", "chat_id", chatID, "items", len(result.Items), "feeds", len(feeds), "failed_feeds", len(digest.FailedFeeds))

	switch {
	case len(result.Items) == 0:
		digest.Articles = []summarydomain.Article{}
	case mode == domain.ModeAiIndividual:
		digest.Articles = s.summarizer.SummarizeIndividual(ctx, result.Items)
	case mode == domain.ModeAiCombined:
		digest.Articles = plainArticles(result.Items)
		digest.Combined = s.summarizer.SummarizeCombined(ctx, result.Items)
	default:
		digest.Articles = plainArticles(result.Items)
	}

	var publishErr error
	if s.publisher != nil {
		if err := s.publisher.PublishDigest(ctx, chatID, digest); err != nil {
			publishErr = oops.With("chat_id", chatID, "context", "failed to publish digest").Wrap(err)
		}
	}

	if !digest.IsEmpty() {
		if err := s.repo.SaveDigest(digest); err != nil {
			slog.Error("Failed to save digest", "chat_id", chatID, "digest_id", digest.ID, "error", err)
		}
	}

	return digest, publishErr
}

// preferences merges the configured keywords and feeds with the user's own
func (s *Service) preferences(ctx context.Context, userID int64) ([]string, []string) {
	keywords := append([]string{}, s.cfg.Keywords...)
	feeds := append([]string{}, s.cfg.RSSFeeds...)

	if userID != 0 && s.users != nil {
		user, err := s.users.GetUser(ctx, userID)
		switch {
		case err == nil:
			keywords = append(keywords, user.Keywords...)
			feeds = append(feeds, user.NewsSources...)
		case !stderrors.Is(err, errors.ErrUserNotFound):
			slog.Error("Failed to load user preferences", "user_id", userID, "error", err)
		}
	}

	keywords = lo.UniqBy(keywords, strings.ToLower)
	return keywords, lo.Uniq(feeds)
}

func plainArticles(items []newsdomain.NewsItem) []summarydomain.Article {
	return lo.Map(items, func(item newsdomain.NewsItem, _ int) summarydomain.Article {
		return summarydomain.Article{NewsItem: item}
	})
}

// Notify sends a plain text message through the publisher
func (s *Service) Notify(ctx context.Context, chatID int64, text string) error {
	if s.publisher == nil {
		return oops.With("chat_id", chatID).Errorf("publisher not initialized")
	}
	return s.publisher.PublishText(ctx, chatID, text)
}

// ClearCache forgets every URL already delivered to the chat
func (s *Service) ClearCache(ctx context.Context, chatID int64) error {
	c := s.chat(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggregator.ClearCache(ctx)
}

// SeenCount returns how many URLs the chat's horizon holds
func (s *Service) SeenCount(ctx context.Context, chatID int64) (int, error) {
	c := s.chat(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggregator.SeenCount(ctx)
}

// GetDigests retrieves the latest digests of a chat
func (s *Service) GetDigests(chatID int64, limit int) ([]*domain.Digest, error) {
	return s.repo.GetDigests(chatID, limit)
}

// GetRecentDigests retrieves digests created after since
func (s *Service) GetRecentDigests(chatID int64, since time.Time) ([]*domain.Digest, error) {
	return s.repo.GetRecentDigests(chatID, since)
}
