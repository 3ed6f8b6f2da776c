package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	TelegramBotToken string  `koanf:"telegram_bot_token"`
	TelegramAPIURL   string  `koanf:"telegram_api_url"`
	TelegramChatID   int64   `koanf:"telegram_chat_id"`
	DeveloperChatID  int64   `koanf:"developer_chat_id"`
	AllowedUsers     []int64 `koanf:"allowed_users"`
	AppEnv           AppEnv  `koanf:"app_env"`
	HTTPPort         string  `koanf:"http_port"`

	StorageDriver StorageDriver `koanf:"storage_driver"`
	StoragePath   string        `koanf:"storage_path"`
	DatabaseURL   string        `koanf:"database_url"`

	HorizonBackend HorizonBackend `koanf:"horizon_backend"`
	RedisAddr      string         `koanf:"redis_addr"`
	RedisPassword  string         `koanf:"redis_password"`
	RedisDB        int            `koanf:"redis_db"`

	Keywords          []string `koanf:"keywords"`
	RSSFeeds          []string `koanf:"rss_feeds"`
	ScheduleTime      string   `koanf:"schedule_time"`
	MaxNewsPerKeyword int      `koanf:"max_news_per_keyword"`
	NewsCacheHours    int      `koanf:"news_cache_hours"`
	FetchTimeout      int      `koanf:"fetch_timeout"`
	ProbeTimeout      int      `koanf:"probe_timeout"`
	SendIntervalMs    int      `koanf:"send_interval_ms"`

	CryptoSymbols   []string `koanf:"crypto_symbols"`
	BinanceAPIURL   string   `koanf:"binance_api_url"`
	FearGreedAPIURL string   `koanf:"fear_greed_api_url"`

	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`
	GeminiAPIURL string `koanf:"gemini_api_url"`
}

var defaults = map[string]any{
	"telegram_api_url":     "https://api.telegram.org",
	"app_env":              "production",
	"http_port":            "8080",
	"storage_driver":       "file",
	"storage_path":         "./data",
	"horizon_backend":      "ttl",
	"redis_addr":           "localhost:6379",
	"schedule_time":        "08:00",
	"max_news_per_keyword": 3,
	"news_cache_hours":     24,
	"fetch_timeout":        20,
	"probe_timeout":        5,
	"send_interval_ms":     500,
	"crypto_symbols":       "BTC/USDT,ETH/USDT",
	"binance_api_url":      "https://api.binance.com",
	"fear_greed_api_url":   "https://api.alternative.me",
	"gemini_model":         "gemini-1.5-flash",
	"gemini_api_url":       "https://generativelanguage.googleapis.com/v1beta",
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	// List values may arrive as a comma-separated string (env) or as a list (file);
	// they are decoded by hand below.
	listKeys := []string{"keywords", "rss_feeds", "crypto_symbols", "allowed_users"}
	raw := lo.SliceToMap(listKeys, func(key string) (string, any) {
		return key, k.Get(key)
	})
	for _, key := range listKeys {
		k.Delete(key)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	cfg.Keywords = ParseList(raw["keywords"])
	cfg.RSSFeeds = ParseList(raw["rss_feeds"])
	cfg.CryptoSymbols = ParseList(raw["crypto_symbols"])
	cfg.AllowedUsers = parseAllowedUsersValue(raw["allowed_users"])

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	storageDriver, err := ParseStorageDriver(k.String("storage_driver"))
	if err != nil {
		return nil, oops.With("storage_driver", k.String("storage_driver")).Wrap(err)
	}
	cfg.StorageDriver = storageDriver

	horizonBackend, err := ParseHorizonBackend(k.String("horizon_backend"))
	if err != nil {
		return nil, oops.With("horizon_backend", k.String("horizon_backend")).Wrap(err)
	}
	cfg.HorizonBackend = horizonBackend

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports configuration the bot cannot start with.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return errors.ErrMissingBotToken
	}
	if len(c.Keywords) == 0 {
		return errors.ErrNoKeywords
	}
	if len(c.RSSFeeds) == 0 {
		return errors.ErrNoFeeds
	}
	if _, _, err := c.ScheduleClock(); err != nil {
		return err
	}
	// unbounded fetches or an empty digest target are never intended
	positive := []lo.Tuple2[string, int]{
		lo.T2("max_news_per_keyword", c.MaxNewsPerKeyword),
		lo.T2("fetch_timeout", c.FetchTimeout),
		lo.T2("probe_timeout", c.ProbeTimeout),
		lo.T2("news_cache_hours", c.NewsCacheHours),
	}
	if bad, found := lo.Find(positive, func(s lo.Tuple2[string, int]) bool { return s.B <= 0 }); found {
		return oops.With(bad.A, bad.B).Wrap(errors.ErrNotPositive)
	}
	if c.StorageDriver == StorageDriverPostgres && c.DatabaseURL == "" {
		return oops.Errorf("database_url is required when storage_driver is postgres")
	}
	return nil
}

// ScheduleClock returns the hour and minute of the daily delivery.
func (c *Config) ScheduleClock() (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.ScheduleTime))
	if err != nil {
		return 0, 0, oops.With("schedule_time", c.ScheduleTime).Wrap(errors.ErrInvalidSchedule)
	}
	return t.Hour(), t.Minute(), nil
}

func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Config) ProbeTimeoutDuration() time.Duration {
	return time.Duration(c.ProbeTimeout) * time.Second
}

func (c *Config) NewsRetention() time.Duration {
	return time.Duration(c.NewsCacheHours) * time.Hour
}

func (c *Config) SendInterval() time.Duration {
	return time.Duration(c.SendIntervalMs) * time.Millisecond
}

// IsDebug reports whether verbose logging should be enabled
func (c *Config) IsDebug() bool {
	return c.AppEnv == AppEnvLocal || c.AppEnv == AppEnvDevelopment
}

// ParseList turns a comma-separated string or a list value into trimmed, non-empty strings
func ParseList(v any) []string {
	var parts []string
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []interface{}:
		parts = lo.Map(val, func(item interface{}, _ int) string {
			return fmt.Sprint(item)
		})
	default:
		parts = []string{fmt.Sprint(val)}
	}

	return lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}

// ParseAllowedUsers parses comma-separated user IDs string into []int64
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}

func parseAllowedUsersValue(v any) []int64 {
	switch val := v.(type) {
	case string:
		return ParseAllowedUsers(val)
	case []interface{}:
		return lo.FilterMap(val, func(item interface{}, _ int) (int64, bool) {
			switch id := item.(type) {
			case int64:
				return id, true
			case int:
				return int64(id), true
			case float64:
				return int64(id), true
			case string:
				ids := ParseAllowedUsers(id)
				if len(ids) == 1 {
					return ids[0], true
				}
				return 0, false
			default:
				return 0, false
			}
		})
	default:
		return []int64{}
	}
}
