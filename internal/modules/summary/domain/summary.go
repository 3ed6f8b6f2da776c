package domain

import newsdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"

const (
	// ArticleFallback replaces a per-article summary the model could not produce
	ArticleFallback = "⚠️ AI summary unavailable for this article."
	// CombinedFallback replaces a combined summary the model could not produce
	CombinedFallback = "⚠️ Unable to generate combined AI summary at this time."
)

// Article is a news item with the model's analysis attached
type Article struct {
	newsdomain.NewsItem
	AISummary string `json:"ai_summary"`
	Failed    bool   `json:"failed"`
}
