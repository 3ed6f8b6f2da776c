package errors

import "errors"

var (
	ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrNoKeywords      = errors.New("at least one keyword is required (KEYWORDS)")
	ErrNoFeeds         = errors.New("at least one RSS feed is required (RSS_FEEDS)")
	ErrInvalidSchedule = errors.New("schedule time must be in HH:MM format")
	ErrNotPositive     = errors.New("setting must be a positive number")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidFeedURL  = errors.New("invalid feed url")
	ErrDigestNotFound  = errors.New("digest not found")
)
