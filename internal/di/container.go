package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	cryptoService "github.com/reshetovitsme/news-digest-bot/internal/modules/crypto/service"
	digestRepo "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/repository"
	digestService "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/service"
	feedService "github.com/reshetovitsme/news-digest-bot/internal/modules/feed/service"
	newsRepo "github.com/reshetovitsme/news-digest-bot/internal/modules/news/repository"
	newsService "github.com/reshetovitsme/news-digest-bot/internal/modules/news/service"
	summaryService "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/service"
	usageRepo "github.com/reshetovitsme/news-digest-bot/internal/modules/usage/repository"
	usageService "github.com/reshetovitsme/news-digest-bot/internal/modules/usage/service"
	userRepo "github.com/reshetovitsme/news-digest-bot/internal/modules/user/repository"
	userService "github.com/reshetovitsme/news-digest-bot/internal/modules/user/service"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/config"
	httpServer "github.com/reshetovitsme/news-digest-bot/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/news-digest-bot/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

const (
	modelTimeout    = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register User Repository
	do.Provide(injector, func(i do.Injector) (userRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.StorageDriver == config.StorageDriverPostgres {
			repo, err := userRepo.NewPostgresStorage(context.Background(), cfg.DatabaseURL)
			if err != nil {
				return nil, oops.With("context", "failed to initialize postgres user repository").Wrap(err)
			}
			return repo, nil
		}

		repo, err := userRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize user repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Digest Repository
	do.Provide(injector, func(i do.Injector) (digestRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := digestRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize digest repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Usage Repository
	do.Provide(injector, func(i do.Injector) (usageRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := usageRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize usage repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Redis Client (only invoked by the redis horizon)
	do.Provide(injector, func(i do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return newsRepo.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	})

	// Register Horizon Factory
	do.Provide(injector, func(i do.Injector) (newsRepo.Factory, error) {
		cfg := do.MustInvoke[*config.Config](i)
		switch cfg.HorizonBackend {
		case config.HorizonBackendMemory:
			return newsRepo.NewMemoryFactory(), nil
		case config.HorizonBackendRedis:
			client, err := do.Invoke[*redis.Client](i)
			if err != nil {
				return nil, err
			}
			return newsRepo.NewRedisFactory(client, cfg.NewsRetention()), nil
		default:
			return newsRepo.NewCacheFactory(cfg.NewsRetention()), nil
		}
	})

	// Register User Service
	do.Provide(injector, func(i do.Injector) (*userService.Service, error) {
		repo := do.MustInvoke[userRepo.Repository](i)
		return userService.New(repo), nil
	})

	// Register Usage Tracker
	do.Provide(injector, func(i do.Injector) (*usageService.Tracker, error) {
		repo := do.MustInvoke[usageRepo.Repository](i)
		return usageService.New(repo)
	})

	// Register Summary Service
	do.Provide(injector, func(i do.Injector) (*summaryService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tracker := do.MustInvoke[*usageService.Tracker](i)
		return summaryService.New(cfg.GeminiAPIURL, cfg.GeminiModel, cfg.GeminiAPIKey, modelTimeout, tracker), nil
	})

	// Register Crypto Service
	do.Provide(injector, func(i do.Injector) (*cryptoService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cryptoService.New(cfg.BinanceAPIURL, cfg.FearGreedAPIURL, cfg.FetchTimeoutDuration()), nil
	})

	// Register Digest Service
	do.Provide(injector, func(i do.Injector) (*digestService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[digestRepo.Repository](i)
		horizons := do.MustInvoke[newsRepo.Factory](i)
		users := do.MustInvoke[*userService.Service](i)
		summary := do.MustInvoke[*summaryService.Service](i)

		pipeline := digestService.Pipeline{
			Fetcher:    newsService.NewGofeedFetcher(cfg.FetchTimeoutDuration()),
			Normalizer: newsService.NewNormalizer(),
			Media:      newsService.NewMediaExtractor(newsService.NewHTTPProber(cfg.ProbeTimeoutDuration())),
		}

		var summarizer digestService.Summarizer
		if summary.Enabled() {
			summarizer = summary
		} else {
			slog.Warn("GEMINI_API_KEY not set, AI summaries disabled")
		}

		return digestService.New(cfg, repo, pipeline, horizons, users, summarizer), nil
	})

	// Register Scheduler
	do.Provide(injector, func(i do.Injector) (*digestService.Scheduler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		digests := do.MustInvoke[*digestService.Service](i)
		users := do.MustInvoke[*userService.Service](i)
		tracker := do.MustInvoke[*usageService.Tracker](i)
		return digestService.NewScheduler(cfg, digests, users, tracker), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		digests := do.MustInvoke[*digestService.Service](i)
		return feedService.New(digests), nil
	})

	// Register Delivery (the sender is set once the bot exists)
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Delivery, error) {
		cfg := do.MustInvoke[*config.Config](i)
		digests := do.MustInvoke[*digestService.Service](i)
		delivery := telegramHandler.NewDelivery(nil, cfg.SendInterval())
		digests.SetPublisher(delivery)
		return delivery, nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return telegramHandler.New(
			cfg,
			do.MustInvoke[*userService.Service](i),
			do.MustInvoke[*digestService.Service](i),
			do.MustInvoke[*cryptoService.Service](i),
			do.MustInvoke[*summaryService.Service](i),
			do.MustInvoke[*usageService.Tracker](i),
			do.MustInvoke[*telegramHandler.Delivery](i),
		), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		feeds := do.MustInvoke[*feedService.Service](i)
		server := httpServer.New(cfg, feeds)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)

		// Give delivery its sender
		delivery := do.MustInvoke[*telegramHandler.Delivery](i)
		delivery.SetSender(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop the scheduler first so no delivery is cut short by a closed bot
	if scheduler, err := do.Invoke[*digestService.Scheduler](injector); err == nil && scheduler != nil {
		scheduler.Stop()
	}

	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Failed to shut down HTTP server", "error", err)
		}
	}

	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	if repo, err := do.Invoke[userRepo.Repository](injector); err == nil && repo != nil {
		if err := repo.Close(); err != nil {
			slog.Error("Failed to close user repository", "error", err)
		}
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err == nil && cfg.HorizonBackend == config.HorizonBackendRedis {
		if client, err := do.Invoke[*redis.Client](injector); err == nil {
			if err := client.Close(); err != nil {
				slog.Error("Failed to close redis client", "error", err)
			}
		}
	}

	return nil
}
