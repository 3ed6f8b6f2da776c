package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/gorilla/feeds"
	digestdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/feed/domain"
	summarydomain "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const defaultDigestLimit = 20

// DigestSource reads delivered digests
type DigestSource interface {
	GetDigests(chatID int64, limit int) ([]*digestdomain.Digest, error)
}

// Service handles RSS feed generation
type Service struct {
	digests DigestSource
	limit   int
}

// New creates a new feed service
func New(digests DigestSource) *Service {
	return &Service{
		digests: digests,
		limit:   defaultDigestLimit,
	}
}

// GenerateFeed re-publishes the chat's latest digests as a feed, newest first
func (s *Service) GenerateFeed(chatID int64, baseURL string) (*feeds.Feed, error) {
	digests, err := s.digests.GetDigests(chatID, s.limit)
	if err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to get digests").Wrap(err)
	}
	if len(digests) == 0 {
		return nil, oops.With("chat_id", chatID).Wrap(errors.ErrDigestNotFound)
	}

	cfg := domain.NewFeedConfig(chatID, baseURL, digests[0].CreatedAt)
	feed := &feeds.Feed{
		Title:       cfg.Title,
		Link:        &feeds.Link{Href: cfg.Link},
		Description: fmt.Sprintf("Keyword news digests delivered to chat %d", chatID),
		Created:     digests[len(digests)-1].CreatedAt,
		Updated:     cfg.Updated,
	}

	for _, digest := range digests {
		if digest.Combined != "" {
			feed.Items = append(feed.Items, combinedItem(digest, cfg.Link))
		}
		for _, article := range digest.Articles {
			feed.Items = append(feed.Items, articleToFeedItem(digest, article))
		}
	}
	if feed.Items == nil {
		feed.Items = []*feeds.Item{}
	}

	return feed, nil
}

func articleToFeedItem(digest *digestdomain.Digest, article summarydomain.Article) *feeds.Item {
	var content strings.Builder
	if article.HasImage() {
		fmt.Fprintf(&content, `<p><img src="%s" alt=""></p>`, html.EscapeString(article.ImageURL))
	}
	fmt.Fprintf(&content, "<p>%s</p>", html.EscapeString(article.Summary))
	if article.AISummary != "" {
		fmt.Fprintf(&content, "<p><strong>AI analysis:</strong></p><p>%s</p>", html.EscapeString(article.AISummary))
	}
	fmt.Fprintf(&content, "<p>🏷️ %s • 📰 %s</p>", html.EscapeString(article.Keyword), html.EscapeString(article.Source))

	item := &feeds.Item{
		Title:       article.Title,
		Link:        &feeds.Link{Href: article.URL},
		Description: article.Summary,
		Content:     content.String(),
		Author:      &feeds.Author{Name: article.Source},
		Created:     article.PublishedDate,
		Id:          fmt.Sprintf("%d-%d-%s", digest.ChatID, digest.ID, article.URL),
	}
	if article.HasImage() {
		item.Enclosure = &feeds.Enclosure{Url: article.ImageURL, Type: "image/jpeg", Length: "0"}
	}
	return item
}

func combinedItem(digest *digestdomain.Digest, link string) *feeds.Item {
	titles := lo.Map(digest.Articles, func(a summarydomain.Article, _ int) string {
		return "<li>" + html.EscapeString(a.Title) + "</li>"
	})
	return &feeds.Item{
		Title:       fmt.Sprintf("Market analysis %s", digest.CreatedAt.Format("2006-01-02")),
		Link:        &feeds.Link{Href: link},
		Description: digest.Combined,
		Content: fmt.Sprintf("<p>%s</p><p><strong>Articles:</strong></p><ul>%s</ul>",
			html.EscapeString(digest.Combined), strings.Join(titles, "")),
		Created: digest.CreatedAt,
		Id:      fmt.Sprintf("%d-%d-combined", digest.ChatID, digest.ID),
	}
}
