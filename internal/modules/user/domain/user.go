package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// User represents a bot subscriber and their personal preferences
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	AddedAt     time.Time `json:"added_at"`
	LastSeen    time.Time `json:"last_seen"`
	IsAdmin     bool      `json:"is_admin"`
	Assets      []string  `json:"assets"`
	NewsSources []string  `json:"news_sources"`
	Keywords    []string  `json:"keywords"`
}

// DisplayName returns the username or a stable placeholder
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return "user_" + strconv.FormatInt(u.ID, 10)
}

// HasKeyword reports whether keyword is tracked, ignoring case
func (u *User) HasKeyword(keyword string) bool {
	return lo.ContainsBy(u.Keywords, func(k string) bool {
		return strings.EqualFold(k, keyword)
	})
}
