package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	digestdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	summarydomain "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

const readMoreText = "📖 Read More"

// Sender is the part of the Bot API used for delivery; *bot.Bot satisfies it
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// Delivery publishes digests and replies to Telegram chats at a bounded rate
type Delivery struct {
	sender  Sender
	limiter *rate.Limiter
}

// NewDelivery creates a delivery that waits interval between API calls
func NewDelivery(sender Sender, interval time.Duration) *Delivery {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Delivery{
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// SetSender sets the Telegram client once the bot exists
func (d *Delivery) SetSender(sender Sender) {
	d.sender = sender
}

func (d *Delivery) wait(ctx context.Context) error {
	if d.sender == nil {
		return oops.Errorf("telegram sender not initialized")
	}
	return d.limiter.Wait(ctx)
}

// PublishText sends HTML text, split into pages when it is too long. A failed
// page does not stop the following ones; the first error is returned.
func (d *Delivery) PublishText(ctx context.Context, chatID int64, text string) error {
	pages := SplitMessage(text, MessageLimit)

	var firstErr error
	failed := 0
	for _, page := range pages {
		if err := d.sendText(ctx, chatID, page, nil); err != nil {
			if ctx.Err() != nil {
				return oops.With("chat_id", chatID).Wrap(ctx.Err())
			}
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return oops.With("chat_id", chatID, "pages", len(pages), "failed_pages", failed).Wrap(firstErr)
	}
	return nil
}

// PublishDigest sends the header followed by every article. A failed article
// does not stop the rest; the call fails only when nothing could be delivered.
func (d *Delivery) PublishDigest(ctx context.Context, chatID int64, digest *digestdomain.Digest) error {
	if digest.IsEmpty() {
		return d.PublishText(ctx, chatID, NoNewsText)
	}

	if err := d.PublishText(ctx, chatID, FormatHeader(digest)); err != nil {
		return err
	}

	if digest.Mode == digestdomain.ModeAiCombined {
		return d.PublishText(ctx, chatID, FormatCombined(digest))
	}

	failed := 0
	for i, article := range digest.Articles {
		if err := d.publishArticle(ctx, chatID, article, i+1); err != nil {
			if ctx.Err() != nil {
				return oops.With("chat_id", chatID).Wrap(ctx.Err())
			}
			slog.Error("Error sending news item", "chat_id", chatID, "url", article.URL, "error", err)
			failed++
		}
	}
	if failed == len(digest.Articles) {
		return oops.With("chat_id", chatID, "articles", failed).Errorf("no article could be delivered")
	}
	return nil
}

func (d *Delivery) publishArticle(ctx context.Context, chatID int64, article summarydomain.Article, index int) error {
	caption := FormatCaption(article, index)
	markup := readMoreMarkup(article.URL)

	if article.HasImage() {
		err := d.sendPhoto(ctx, chatID, article.ImageURL, caption, markup)
		if err == nil {
			return nil
		}
		slog.Warn("Error sending photo, falling back to text", "chat_id", chatID, "image_url", article.ImageURL, "error", err)
	}
	return d.sendText(ctx, chatID, caption, markup)
}

func readMoreMarkup(url string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: readMoreText, URL: url}},
		},
	}
}

func (d *Delivery) sendPhoto(ctx context.Context, chatID int64, photoURL, caption string, markup *models.InlineKeyboardMarkup) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	_, err := d.sender.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileString{Data: photoURL},
		Caption:     caption,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to send photo").Wrap(err)
	}
	return nil
}

func (d *Delivery) sendText(ctx context.Context, chatID int64, text string, markup *models.InlineKeyboardMarkup) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	params := &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := d.sender.SendMessage(ctx, params); err != nil {
		return oops.With("chat_id", chatID, "context", "failed to send message").Wrap(err)
	}
	return nil
}
