package domain

import (
	"time"

	newsdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	summarydomain "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	"github.com/samber/lo"
)

// Digest is one delivery of news to a chat
type Digest struct {
	ID        int64                   `json:"id"`
	ChatID    int64                   `json:"chat_id"`
	CreatedAt time.Time               `json:"created_at"`
	Keywords  []string                `json:"keywords"`
	Mode      Mode                    `json:"mode"`
	Articles  []summarydomain.Article `json:"articles"`
	Combined  string                  `json:"combined,omitempty"`

	// FailedFeeds lists the sources that could not be fetched for this digest
	FailedFeeds []string `json:"failed_feeds,omitempty"`
}

// IsEmpty reports whether the digest carries no articles
func (d *Digest) IsEmpty() bool {
	return len(d.Articles) == 0
}

// Items returns the underlying news items in delivery order
func (d *Digest) Items() []newsdomain.NewsItem {
	return lo.Map(d.Articles, func(a summarydomain.Article, _ int) newsdomain.NewsItem {
		return a.NewsItem
	})
}

// Options tune a single digest run
type Options struct {
	Mode Mode
	// UserID selects whose personal keywords and sources are merged in; 0 means none
	UserID int64
}
