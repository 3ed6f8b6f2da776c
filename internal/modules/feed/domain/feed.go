package domain

import (
	"fmt"
	"strings"
	"time"
)

// FeedConfig represents the RSS feed published for one chat
type FeedConfig struct {
	ChatID  int64     `json:"chat_id"`
	Title   string    `json:"title"`
	Link    string    `json:"link"`
	Updated time.Time `json:"updated"`
}

// NewFeedConfig builds the feed metadata served under baseURL
func NewFeedConfig(chatID int64, baseURL string, updated time.Time) FeedConfig {
	return FeedConfig{
		ChatID:  chatID,
		Title:   fmt.Sprintf("News digest %d - RSS Feed", chatID),
		Link:    fmt.Sprintf("%s/rss/%d", strings.TrimRight(baseURL, "/"), chatID),
		Updated: updated,
	}
}
