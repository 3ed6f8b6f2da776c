package config

import (
	"testing"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("KEYWORDS", "bitcoin, ethereum ,,AI")
	t.Setenv("RSS_FEEDS", "https://www.coindesk.com/arc/outboundfeeds/rss/,https://cointelegraph.com/rss")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"bitcoin", "ethereum", "AI"}, cfg.Keywords)
	assert.Len(t, cfg.RSSFeeds, 2)
	assert.Equal(t, "08:00", cfg.ScheduleTime)
	assert.Equal(t, 3, cfg.MaxNewsPerKeyword)
	assert.Equal(t, 24*time.Hour, cfg.NewsRetention())
	assert.Equal(t, 20*time.Second, cfg.FetchTimeoutDuration())
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeoutDuration())
	assert.Equal(t, 500*time.Millisecond, cfg.SendInterval())
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.CryptoSymbols)
	assert.Equal(t, StorageDriverFile, cfg.StorageDriver)
	assert.Equal(t, HorizonBackendTtl, cfg.HorizonBackend)
	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
	assert.Empty(t, cfg.AllowedUsers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_NEWS_PER_KEYWORD", "5")
	t.Setenv("SCHEDULE_TIME", "21:30")
	t.Setenv("ALLOWED_USERS", "42, 7,bogus")
	t.Setenv("HORIZON_BACKEND", "Redis")
	t.Setenv("APP_ENV", "development")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxNewsPerKeyword)
	assert.Equal(t, []int64{42, 7}, cfg.AllowedUsers)
	assert.Equal(t, HorizonBackendRedis, cfg.HorizonBackend)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.True(t, cfg.IsDebug())

	hour, minute, err := cfg.ScheduleClock()
	require.NoError(t, err)
	assert.Equal(t, 21, hour)
	assert.Equal(t, 30, minute)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("KEYWORDS", "")
	t.Setenv("RSS_FEEDS", "")

	_, err := Load()
	assert.ErrorIs(t, err, errors.ErrMissingBotToken)

	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	_, err = Load()
	assert.ErrorIs(t, err, errors.ErrNoKeywords)

	t.Setenv("KEYWORDS", "bitcoin")
	_, err = Load()
	assert.ErrorIs(t, err, errors.ErrNoFeeds)
}

func TestLoad_InvalidEnums(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidStorageDriver)
}

func validConfig() *Config {
	return &Config{
		TelegramBotToken:  "t",
		Keywords:          []string{"k"},
		RSSFeeds:          []string{"https://example.com/rss"},
		ScheduleTime:      "08:00",
		MaxNewsPerKeyword: 3,
		NewsCacheHours:    24,
		FetchTimeout:      20,
		ProbeTimeout:      5,
	}
}

func TestValidate_Schedule(t *testing.T) {
	cfg := validConfig()
	cfg.ScheduleTime = "8 o'clock"
	assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidSchedule)

	cfg.ScheduleTime = "07:05"
	assert.NoError(t, cfg.Validate())

	cfg.StorageDriver = StorageDriverPostgres
	assert.Error(t, cfg.Validate())
}

func TestValidate_PositiveSettings(t *testing.T) {
	tests := map[string]func(*Config){
		"max_news_per_keyword": func(c *Config) { c.MaxNewsPerKeyword = 0 },
		"fetch_timeout":        func(c *Config) { c.FetchTimeout = 0 },
		"probe_timeout":        func(c *Config) { c.ProbeTimeout = -1 },
		"news_cache_hours":     func(c *Config) { c.NewsCacheHours = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), errors.ErrNotPositive)
		})
	}
}

func TestLoad_RejectsZeroTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FETCH_TIMEOUT", "0")

	_, err := Load()
	assert.ErrorIs(t, err, errors.ErrNotPositive)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{}, ParseList(nil))
	assert.Equal(t, []string{"a", "b"}, ParseList(" a ,, b "))
	assert.Equal(t, []string{"a", "1"}, ParseList([]interface{}{"a", 1, " "}))
}

func TestParseAllowedUsers(t *testing.T) {
	assert.Equal(t, []int64{}, ParseAllowedUsers(""))
	assert.Equal(t, []int64{1, 2}, ParseAllowedUsers("1, 2, x"))
}
