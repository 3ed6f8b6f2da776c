package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	cryptoService "github.com/reshetovitsme/news-digest-bot/internal/modules/crypto/service"
	digestDomain "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	digestService "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/service"
	summaryService "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/service"
	usageService "github.com/reshetovitsme/news-digest-bot/internal/modules/usage/service"
	userDomain "github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
	userService "github.com/reshetovitsme/news-digest-bot/internal/modules/user/service"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/config"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/samber/lo"
)

const recentWindow = 24 * time.Hour

// command is a handler body that runs after authorization and user tracking
type command func(ctx context.Context, msg *models.Message, user *userDomain.User, args []string)

// Handler handles Telegram bot interactions
type Handler struct {
	cfg            *config.Config
	userService    *userService.Service
	digestService  *digestService.Service
	cryptoService  *cryptoService.Service
	summaryService *summaryService.Service
	usage          *usageService.Tracker
	delivery       *Delivery
}

// New creates a new Telegram handler
func New(
	cfg *config.Config,
	userService *userService.Service,
	digestService *digestService.Service,
	cryptoService *cryptoService.Service,
	summaryService *summaryService.Service,
	usage *usageService.Tracker,
	delivery *Delivery,
) *Handler {
	return &Handler{
		cfg:            cfg,
		userService:    userService,
		digestService:  digestService,
		cryptoService:  cryptoService,
		summaryService: summaryService,
		usage:          usage,
		delivery:       delivery,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	commands := map[string]command{
		"start":         h.handleStart,
		"help":          h.handleHelp,
		"status":        h.handleStatus,
		"news":          h.handleNews,
		"ainews":        h.handleAINews,
		"aisummary":     h.handleAISummary,
		"crypto":        h.handleCrypto,
		"assets":        h.handleAssets,
		"addasset":      h.handleAddAsset,
		"removeasset":   h.handleRemoveAsset,
		"sources":       h.handleSources,
		"addsource":     h.handleAddSource,
		"removesource":  h.handleRemoveSource,
		"keywords":      h.handleKeywords,
		"addkeyword":    h.handleAddKeyword,
		"removekeyword": h.handleRemoveKeyword,
		"clearcache":    h.handleClearCache,
		"stats":         h.handleStats,
	}

	for name, cmd := range commands {
		b.RegisterHandlerMatchFunc(matchCommand(name), h.wrap(cmd))
	}
}

func matchCommand(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		return update.Message != nil && CommandName(update.Message.Text) == name
	}
}

// CommandName returns the command a message starts with, without the slash
// and without an @botname suffix ("/news@MyBot now" is "news")
func CommandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, _, _ := strings.Cut(fields[0][1:], "@")
	return name
}

// HandleUpdate answers messages no command matched
func (h *Handler) HandleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Chat.Type == "channel" {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		h.reply(ctx, msg.Chat.ID, "❓ Unknown command. Use /help to see what I can do.")
	}
}

func (h *Handler) wrap(cmd command) bot.HandlerFunc {
	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		h.dispatch(ctx, update, cmd)
	}
}

// dispatch checks authorization, records the user and runs cmd
func (h *Handler) dispatch(ctx context.Context, update *models.Update, cmd command) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if !h.checkAuthorization(msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, "❌ You are not authorized to use this bot.")
		return
	}

	user, err := h.userService.Touch(ctx, msg.From.ID, msg.From.Username)
	if err != nil {
		slog.Error("Failed to track user", "error", err, "user_id", msg.From.ID)
		user = &userDomain.User{ID: msg.From.ID, Username: msg.From.Username}
	}

	fields := strings.Fields(msg.Text)
	cmd(ctx, msg, user, fields[min(1, len(fields)):])
}

func (h *Handler) checkAuthorization(userID int64) bool {
	return h.userService.IsAuthorized(userID, h.cfg.AllowedUsers)
}

func (h *Handler) isAdmin(user *userDomain.User) bool {
	return user.IsAdmin || (h.cfg.DeveloperChatID != 0 && user.ID == h.cfg.DeveloperChatID)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.delivery.PublishText(ctx, chatID, text); err != nil {
		slog.Error("Failed to send reply", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	// the very first subscriber of an open bot administers it
	if len(h.cfg.AllowedUsers) == 0 && !user.IsAdmin {
		users, err := h.userService.GetAllUsers(ctx)
		if err == nil && len(users) == 1 && users[0].ID == user.ID {
			user.IsAdmin = true
			if err := h.userService.SaveUser(ctx, user); err != nil {
				slog.Error("Failed to save user", "error", err, "user_id", user.ID)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("🤖 <b>News Bot Started!</b>\n\n")
	fmt.Fprintf(&sb, "📅 Scheduled time: %s\n", html.EscapeString(h.cfg.ScheduleTime))
	fmt.Fprintf(&sb, "🔍 Keywords: %s\n", html.EscapeString(strings.Join(h.cfg.Keywords, ", ")))
	fmt.Fprintf(&sb, "🌐 Websites: %d sources\n\n", len(h.cfg.RSSFeeds))
	sb.WriteString("I'll send you news updates automatically every day!\n\n")
	sb.WriteString(commandList)

	h.reply(ctx, msg.Chat.ID, sb.String())
}

const commandList = `Available commands:
/news - Latest news for your keywords
/ainews - Latest news with AI analysis per article
/aisummary - One AI summary of the latest news
/crypto - Prices and Fear &amp; Greed index
/assets, /addasset &lt;symbol&gt;, /removeasset &lt;symbol&gt;
/sources, /addsource &lt;url&gt;, /removesource &lt;url&gt;
/keywords, /addkeyword &lt;word&gt;, /removekeyword &lt;word&gt;
/clearcache - Forget already delivered news
/status - Show bot status
/help - Show this help`

func (h *Handler) handleHelp(ctx context.Context, msg *models.Message, _ *userDomain.User, _ []string) {
	text := fmt.Sprintf("🆘 <b>News Bot Help</b>\n\n%s\n\nThe bot automatically sends news at %s daily based on your keywords.",
		commandList, html.EscapeString(h.cfg.ScheduleTime))
	h.reply(ctx, msg.Chat.ID, text)
}

func (h *Handler) handleStatus(ctx context.Context, msg *models.Message, _ *userDomain.User, _ []string) {
	seen, err := h.digestService.SeenCount(ctx, msg.Chat.ID)
	if err != nil {
		slog.Error("Failed to count delivered news", "error", err, "chat_id", msg.Chat.ID)
	}
	recent, err := h.digestService.GetRecentDigests(msg.Chat.ID, time.Now().Add(-recentWindow))
	if err != nil {
		slog.Error("Failed to load recent digests", "error", err, "chat_id", msg.Chat.ID)
	}

	aiStatus := "disabled"
	if h.summaryService != nil && h.summaryService.Enabled() {
		aiStatus = "enabled"
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Bot Status</b>\n\n")
	fmt.Fprintf(&sb, "⏰ Schedule: %s daily\n", html.EscapeString(h.cfg.ScheduleTime))
	fmt.Fprintf(&sb, "🏷️ Keywords: %s\n", html.EscapeString(strings.Join(h.cfg.Keywords, ", ")))
	fmt.Fprintf(&sb, "📰 Max news per keyword: %d\n", h.cfg.MaxNewsPerKeyword)
	fmt.Fprintf(&sb, "🕒 Cache duration: %d hours (%s)\n", h.cfg.NewsCacheHours, h.cfg.HorizonBackend)
	fmt.Fprintf(&sb, "🧠 Delivered URLs remembered: %d\n", seen)
	fmt.Fprintf(&sb, "📬 Digests in the last 24h: %d\n", len(recent))
	fmt.Fprintf(&sb, "🤖 AI summaries: %s\n", aiStatus)
	sb.WriteString("✅ Status: Running")

	h.reply(ctx, msg.Chat.ID, sb.String())
}

func (h *Handler) handleNews(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	h.usage.RecordNewsRequest(user.ID)
	h.runDigest(ctx, msg, user, digestDomain.ModePlain, "🔍 Fetching latest news...")
}

func (h *Handler) handleAINews(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	h.usage.RecordAIRequest(user.ID)
	h.runDigest(ctx, msg, user, digestDomain.ModeAiIndividual, "🤖 Fetching news and generating AI analysis...")
}

func (h *Handler) handleAISummary(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	h.usage.RecordAIRequest(user.ID)
	h.runDigest(ctx, msg, user, digestDomain.ModeAiCombined, "🤖 Generating a combined AI summary...")
}

func (h *Handler) runDigest(ctx context.Context, msg *models.Message, user *userDomain.User, mode digestDomain.Mode, notice string) {
	if mode != digestDomain.ModePlain && (h.summaryService == nil || !h.summaryService.Enabled()) {
		h.reply(ctx, msg.Chat.ID, "❌ AI summaries are not configured (GEMINI_API_KEY).")
		return
	}

	h.reply(ctx, msg.Chat.ID, notice)

	digest, err := h.digestService.Run(ctx, msg.Chat.ID, digestDomain.Options{Mode: mode, UserID: user.ID})
	if err != nil {
		slog.Error("Error delivering news", "error", err, "chat_id", msg.Chat.ID, "mode", mode)
		h.reply(ctx, msg.Chat.ID, "❌ <b>News Bot Error</b>\n\nCould not deliver the news, please try again later.")
		return
	}
	slog.Info("News sent", "chat_id", msg.Chat.ID, "mode", mode, "articles", len(digest.Articles))
}

func (h *Handler) handleCrypto(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	h.usage.RecordCryptoRequest(user.ID)

	symbols := user.Assets
	if len(symbols) == 0 {
		symbols = h.cfg.CryptoSymbols
	}
	summary := h.cryptoService.Summary(ctx, symbols)
	h.reply(ctx, msg.Chat.ID, FormatCrypto(summary))
}

func (h *Handler) handleAssets(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	h.reply(ctx, msg.Chat.ID, FormatList("💼 Your tracked assets:", user.Assets,
		"📭 No assets tracked yet.\nUse /addasset BTC to add one."))
}

func (h *Handler) handleAddAsset(ctx context.Context, msg *models.Message, user *userDomain.User, args []string) {
	if len(args) == 0 {
		h.reply(ctx, msg.Chat.ID, "Usage: /addasset &lt;symbol&gt;\nExample: /addasset BTC")
		return
	}

	symbol, added, err := h.userService.AddAsset(ctx, user.ID, args[0])
	switch {
	case err != nil:
		slog.Error("Failed to add asset", "error", err, "user_id", user.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to add asset.")
	case !added:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("ℹ️ %s is already tracked.", html.EscapeString(symbol)))
	default:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Added %s to your assets.", html.EscapeString(symbol)))
	}
}

func (h *Handler) handleRemoveAsset(ctx context.Context, msg *models.Message, user *userDomain.User, args []string) {
	if len(args) == 0 {
		h.reply(ctx, msg.Chat.ID, "Usage: /removeasset &lt;symbol&gt;")
		return
	}

	symbol, removed, err := h.userService.RemoveAsset(ctx, user.ID, args[0])
	switch {
	case err != nil:
		slog.Error("Failed to remove asset", "error", err, "user_id", user.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to remove asset.")
	case !removed:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("ℹ️ %s is not in your assets.", html.EscapeString(symbol)))
	default:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Removed %s from your assets.", html.EscapeString(symbol)))
	}
}

func (h *Handler) handleSources(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	h.reply(ctx, msg.Chat.ID, FormatList("🌐 Your news sources:", user.NewsSources,
		fmt.Sprintf("📭 No personal sources yet, using %d default feeds.\nUse /addsource &lt;url&gt; to add one.", len(h.cfg.RSSFeeds))))
}

func (h *Handler) handleAddSource(ctx context.Context, msg *models.Message, user *userDomain.User, args []string) {
	if len(args) == 0 {
		h.reply(ctx, msg.Chat.ID, "Usage: /addsource &lt;url&gt;\nExample: /addsource coindesk.com/arc/outboundfeeds/rss")
		return
	}

	feedURL, added, err := h.userService.AddNewsSource(ctx, user.ID, args[0])
	switch {
	case stderrors.Is(err, errors.ErrInvalidFeedURL):
		h.reply(ctx, msg.Chat.ID, "❌ That does not look like a valid URL.")
	case err != nil:
		slog.Error("Failed to add news source", "error", err, "user_id", user.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to add news source.")
	case !added:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("ℹ️ %s is already in your sources.", html.EscapeString(feedURL)))
	default:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Added news source:\n%s", html.EscapeString(feedURL)))
	}
}

func (h *Handler) handleRemoveSource(ctx context.Context, msg *models.Message, user *userDomain.User, args []string) {
	if len(args) == 0 {
		h.reply(ctx, msg.Chat.ID, "Usage: /removesource &lt;url&gt;")
		return
	}

	removed, err := h.userService.RemoveNewsSource(ctx, user.ID, args[0])
	switch {
	case err != nil:
		slog.Error("Failed to remove news source", "error", err, "user_id", user.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to remove news source.")
	case !removed:
		h.reply(ctx, msg.Chat.ID, "ℹ️ No matching news source found.")
	default:
		h.reply(ctx, msg.Chat.ID, "✅ News source removed.")
	}
}

func (h *Handler) handleKeywords(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏷️ <b>Default keywords:</b> %s\n\n", html.EscapeString(strings.Join(h.cfg.Keywords, ", ")))
	sb.WriteString(FormatList("🔖 Your keywords:", user.Keywords,
		"📭 No personal keywords yet.\nUse /addkeyword &lt;word&gt; to add one."))
	h.reply(ctx, msg.Chat.ID, sb.String())
}

func (h *Handler) handleAddKeyword(ctx context.Context, msg *models.Message, user *userDomain.User, args []string) {
	keyword := strings.Join(args, " ")
	if keyword == "" {
		h.reply(ctx, msg.Chat.ID, "Usage: /addkeyword &lt;word&gt;\nExample: /addkeyword ethereum")
		return
	}

	added, err := h.userService.AddKeyword(ctx, user.ID, keyword)
	switch {
	case err != nil:
		slog.Error("Failed to add keyword", "error", err, "user_id", user.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to add keyword.")
	case !added:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("ℹ️ \"%s\" is already in your keywords.", html.EscapeString(keyword)))
	default:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Added keyword \"%s\".", html.EscapeString(keyword)))
	}
}

func (h *Handler) handleRemoveKeyword(ctx context.Context, msg *models.Message, user *userDomain.User, args []string) {
	keyword := strings.Join(args, " ")
	if keyword == "" {
		h.reply(ctx, msg.Chat.ID, "Usage: /removekeyword &lt;word&gt;")
		return
	}

	removed, err := h.userService.RemoveKeyword(ctx, user.ID, keyword)
	switch {
	case err != nil:
		slog.Error("Failed to remove keyword", "error", err, "user_id", user.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to remove keyword.")
	case !removed:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("ℹ️ \"%s\" is not in your keywords.", html.EscapeString(keyword)))
	default:
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf("✅ Removed keyword \"%s\".", html.EscapeString(keyword)))
	}
}

func (h *Handler) handleClearCache(ctx context.Context, msg *models.Message, _ *userDomain.User, _ []string) {
	if err := h.digestService.ClearCache(ctx, msg.Chat.ID); err != nil {
		slog.Error("Failed to clear news cache", "error", err, "chat_id", msg.Chat.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to clear the news cache.")
		return
	}
	h.reply(ctx, msg.Chat.ID, "🧹 News cache cleared. Already delivered news can be sent again.")
}

func (h *Handler) handleStats(ctx context.Context, msg *models.Message, user *userDomain.User, _ []string) {
	if !h.isAdmin(user) {
		h.reply(ctx, msg.Chat.ID, "❌ Unauthorized")
		return
	}

	users, err := h.userService.GetAllUsers(ctx)
	if err != nil {
		slog.Error("Failed to load users", "error", err)
		h.reply(ctx, msg.Chat.ID, "❌ Failed to load statistics.")
		return
	}

	since := time.Now().Add(-recentWindow)
	recent := lo.FilterMap(users, func(u *userDomain.User, _ int) (string, bool) {
		return u.DisplayName(), !u.LastSeen.Before(since)
	})
	h.reply(ctx, msg.Chat.ID, h.usage.Report(len(users), recent))
}
