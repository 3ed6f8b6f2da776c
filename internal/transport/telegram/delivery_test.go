package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	digestdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	summarydomain "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu        sync.Mutex
	messages  []*bot.SendMessageParams
	photos    []*bot.SendPhotoParams
	failPhoto bool
	failText  func(text string) bool
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failText != nil && s.failText(params.Text) {
		return nil, errors.New("Bad Request: chat not found")
	}
	s.messages = append(s.messages, params)
	return &models.Message{}, nil
}

func (s *fakeSender) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPhoto {
		return nil, errors.New("Bad Request: wrong file identifier")
	}
	s.photos = append(s.photos, params)
	return &models.Message{}, nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m.Text)
	}
	return out
}

func testDigest() *digestdomain.Digest {
	withImage := article("Bitcoin rally continues", "Summary one")
	withImage.ImageURL = "https://example.com/cover.jpg"
	return &digestdomain.Digest{
		ChatID:   42,
		Keywords: []string{"bitcoin"},
		Mode:     digestdomain.ModePlain,
		Articles: []summarydomain.Article{withImage, article("Ether upgrade ships", "Summary two")},
	}
}

func TestPublishDigest_PhotoAndText(t *testing.T) {
	sender := &fakeSender{}
	d := NewDelivery(sender, 0)

	require.NoError(t, d.PublishDigest(context.Background(), 42, testDigest()))

	require.Len(t, sender.photos, 1)
	photo := sender.photos[0]
	assert.Equal(t, int64(42), photo.ChatID)
	assert.Equal(t, models.ParseModeHTML, photo.ParseMode)
	assert.Equal(t, &models.InputFileString{Data: "https://example.com/cover.jpg"}, photo.Photo)
	markup, ok := photo.ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, readMoreText, markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "https://example.com/story", markup.InlineKeyboard[0][0].URL)

	texts := sender.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "2 articles found")
	assert.Contains(t, texts[1], "<b>2. Ether upgrade ships</b>")
	assert.True(t, *sender.messages[1].LinkPreviewOptions.IsDisabled)
	assert.NotNil(t, sender.messages[1].ReplyMarkup)
	assert.Nil(t, sender.messages[0].ReplyMarkup)
}

func TestPublishDigest_PhotoFallsBackToText(t *testing.T) {
	sender := &fakeSender{failPhoto: true}
	d := NewDelivery(sender, 0)

	require.NoError(t, d.PublishDigest(context.Background(), 42, testDigest()))

	assert.Empty(t, sender.photos)
	texts := sender.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[1], "<b>1. Bitcoin rally continues</b>")
}

func TestPublishDigest_Empty(t *testing.T) {
	sender := &fakeSender{}
	d := NewDelivery(sender, 0)

	require.NoError(t, d.PublishDigest(context.Background(), 42, &digestdomain.Digest{Articles: []summarydomain.Article{}}))
	assert.Equal(t, []string{NoNewsText}, sender.texts())
}

func TestPublishDigest_Combined(t *testing.T) {
	sender := &fakeSender{}
	d := NewDelivery(sender, 0)
	digest := testDigest()
	digest.Mode = digestdomain.ModeAiCombined
	digest.Combined = "Markets look strong"

	require.NoError(t, d.PublishDigest(context.Background(), 42, digest))
	assert.Empty(t, sender.photos)
	texts := sender.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "Markets look strong")
	assert.Contains(t, texts[1], `<a href="https://example.com/story">Ether upgrade ships</a>`)
}

func TestPublishDigest_Failures(t *testing.T) {
	t.Run("header fails", func(t *testing.T) {
		sender := &fakeSender{failText: func(string) bool { return true }}
		err := NewDelivery(sender, 0).PublishDigest(context.Background(), 42, testDigest())
		assert.Error(t, err)
	})

	t.Run("one article fails", func(t *testing.T) {
		sender := &fakeSender{failText: func(text string) bool { return strings.Contains(text, "Ether") }}
		err := NewDelivery(sender, 0).PublishDigest(context.Background(), 42, testDigest())
		assert.NoError(t, err)
		assert.Len(t, sender.photos, 1)
	})

	t.Run("every article fails", func(t *testing.T) {
		sender := &fakeSender{
			failPhoto: true,
			failText:  func(text string) bool { return strings.Contains(text, "<b>1.") || strings.Contains(text, "<b>2.") },
		}
		err := NewDelivery(sender, 0).PublishDigest(context.Background(), 42, testDigest())
		assert.Error(t, err)
	})

	t.Run("no sender", func(t *testing.T) {
		assert.Error(t, NewDelivery(nil, 0).PublishText(context.Background(), 42, "hi"))
	})
}

func TestPublishText_Paginates(t *testing.T) {
	sender := &fakeSender{}
	d := NewDelivery(sender, 0)

	text := strings.Repeat(strings.Repeat("x", 99)+"\n", 50) // 5000 runes
	require.NoError(t, d.PublishText(context.Background(), 42, text))

	texts := sender.texts()
	require.Len(t, texts, 2)
	for _, page := range texts {
		assert.LessOrEqual(t, len([]rune(page)), MessageLimit)
	}
	assert.Equal(t, text, strings.Join(texts, ""))
}

func TestDelivery_RateLimited(t *testing.T) {
	sender := &fakeSender{}
	d := NewDelivery(sender, 20*time.Millisecond)

	start := time.Now()
	for range 3 {
		require.NoError(t, d.PublishText(context.Background(), 42, "hi"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewDelivery(sender, time.Hour).PublishText(ctx, 42, "hi"))
}

func TestPublishText_ContinuesAfterFailedPage(t *testing.T) {
	sender := &fakeSender{failText: func(text string) bool { return strings.Contains(text, "FIRST") }}
	d := NewDelivery(sender, 0)

	tail := strings.Repeat("y", 100)
	text := strings.Repeat("x", 4000) + "FIRST\n" + tail

	err := d.PublishText(context.Background(), 42, text)
	assert.Error(t, err)
	assert.Equal(t, []string{tail}, sender.texts())
}
