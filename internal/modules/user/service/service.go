package service

import (
	"context"
	stderrors "errors"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/user/repository"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const defaultQuote = "USDT"

var feedHint = regexp.MustCompile(`(?i)(rss|feed|xml)`)

// Service handles user business logic
type Service struct {
	repo repository.Repository
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a new user service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Touch returns the user, creating it on first contact, and refreshes last seen
func (s *Service) Touch(ctx context.Context, userID int64, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	user, err := s.repo.GetUser(ctx, userID)
	switch {
	case stderrors.Is(err, errors.ErrUserNotFound):
		user = &domain.User{
			ID:          userID,
			AddedAt:     now,
			Assets:      []string{},
			NewsSources: []string{},
			Keywords:    []string{},
		}
	case err != nil:
		return nil, err
	}

	user.LastSeen = now
	if username != "" {
		user.Username = username
	}

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, oops.With("user_id", userID).Wrap(err)
	}
	return user, nil
}

// SaveUser saves a user
func (s *Service) SaveUser(ctx context.Context, user *domain.User) error {
	return s.repo.SaveUser(ctx, user)
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// GetAllUsers retrieves all users
func (s *Service) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// RecentUsers returns users seen at or after since
func (s *Service) RecentUsers(ctx context.Context, since time.Time) ([]*domain.User, error) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(u *domain.User, _ int) bool {
		return !u.LastSeen.Before(since)
	}), nil
}

// IsAuthorized checks if a user is authorized
func (s *Service) IsAuthorized(userID int64, allowedUsers []int64) bool {
	if len(allowedUsers) == 0 {
		return true // No restrictions
	}
	return lo.Contains(allowedUsers, userID)
}

// AddAsset tracks a market pair for the user. "btc" becomes "BTC/USDT".
func (s *Service) AddAsset(ctx context.Context, userID int64, raw string) (string, bool, error) {
	symbol := NormalizeAssetSymbol(raw)
	if symbol == "" {
		return "", false, oops.With("asset", raw).Errorf("asset symbol is empty")
	}

	added, err := s.update(ctx, userID, func(u *domain.User) bool {
		if lo.Contains(u.Assets, symbol) {
			return false
		}
		u.Assets = append(u.Assets, symbol)
		return true
	})
	return symbol, added, err
}

// RemoveAsset stops tracking a market pair
func (s *Service) RemoveAsset(ctx context.Context, userID int64, raw string) (string, bool, error) {
	symbol := NormalizeAssetSymbol(raw)
	removed, err := s.update(ctx, userID, func(u *domain.User) bool {
		before := len(u.Assets)
		u.Assets = lo.Without(u.Assets, symbol)
		return len(u.Assets) != before
	})
	return symbol, removed, err
}

// AddNewsSource subscribes the user to a personal feed
func (s *Service) AddNewsSource(ctx context.Context, userID int64, raw string) (string, bool, error) {
	feedURL, err := NormalizeFeedURL(raw)
	if err != nil {
		return "", false, err
	}

	added, err := s.update(ctx, userID, func(u *domain.User) bool {
		if lo.Contains(u.NewsSources, feedURL) {
			return false
		}
		u.NewsSources = append(u.NewsSources, feedURL)
		return true
	})
	return feedURL, added, err
}

// RemoveNewsSource removes the feed matching raw after normalization, or
// failing that every feed containing raw as a substring.
func (s *Service) RemoveNewsSource(ctx context.Context, userID int64, raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	normalized, _ := NormalizeFeedURL(raw)

	return s.update(ctx, userID, func(u *domain.User) bool {
		before := len(u.NewsSources)
		if normalized != "" && lo.Contains(u.NewsSources, normalized) {
			u.NewsSources = lo.Without(u.NewsSources, normalized)
			return true
		}
		needle := strings.ToLower(raw)
		u.NewsSources = lo.Reject(u.NewsSources, func(src string, _ int) bool {
			return strings.Contains(strings.ToLower(src), needle)
		})
		return len(u.NewsSources) != before
	})
}

// AddKeyword adds a personal keyword; duplicates are detected ignoring case
func (s *Service) AddKeyword(ctx context.Context, userID int64, keyword string) (bool, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false, oops.Errorf("keyword is empty")
	}
	return s.update(ctx, userID, func(u *domain.User) bool {
		if u.HasKeyword(keyword) {
			return false
		}
		u.Keywords = append(u.Keywords, keyword)
		return true
	})
}

// RemoveKeyword removes a personal keyword, ignoring case
func (s *Service) RemoveKeyword(ctx context.Context, userID int64, keyword string) (bool, error) {
	keyword = strings.TrimSpace(keyword)
	return s.update(ctx, userID, func(u *domain.User) bool {
		before := len(u.Keywords)
		u.Keywords = lo.Reject(u.Keywords, func(k string, _ int) bool {
			return strings.EqualFold(k, keyword)
		})
		return len(u.Keywords) != before
	})
}

// update loads or creates the user, applies fn and saves only when fn reports a change
func (s *Service) update(ctx context.Context, userID int64, fn func(*domain.User) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.GetUser(ctx, userID)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		now := s.now().UTC()
		user = &domain.User{ID: userID, AddedAt: now, LastSeen: now}
	} else if err != nil {
		return false, err
	}

	if !fn(user) {
		return false, nil
	}
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return false, oops.With("user_id", userID).Wrap(err)
	}
	return true, nil
}

// NormalizeAssetSymbol upper-cases a symbol and quotes bare coins in USDT
func NormalizeAssetSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return ""
	}
	if !strings.Contains(symbol, "/") {
		symbol += "/" + defaultQuote
	}
	return symbol
}

// NormalizeFeedURL turns user input into a feed URL: https:// is added when
// the scheme is missing and /rss is appended unless the URL already looks
// like a feed.
func NormalizeFeedURL(raw string) (string, error) {
	feedURL := strings.TrimSpace(raw)
	if feedURL == "" {
		return "", oops.With("url", raw).Wrap(errors.ErrInvalidFeedURL)
	}

	lower := strings.ToLower(feedURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		feedURL = "https://" + feedURL
	}

	// the host is checked before /rss is appended so "https://" cannot become "https://rss"
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" || strings.ContainsAny(u.Host, " \t") {
		return "", oops.With("url", raw).Wrap(errors.ErrInvalidFeedURL)
	}

	if !feedHint.MatchString(feedURL) {
		if strings.HasSuffix(feedURL, "/") {
			feedURL += "rss"
		} else {
			feedURL += "/rss"
		}
	}

	return feedURL, nil
}
