package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	cryptodomain "github.com/reshetovitsme/news-digest-bot/internal/modules/crypto/domain"
	digestdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	summarydomain "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// Telegram allows 1024 caption characters; a few are kept in reserve
	captionLimit = 1020
	// MessageLimit is the longest text Telegram accepts in one message
	MessageLimit     = 4096
	minSummaryBudget = 50
	maxTitleRunes    = 200
	ellipsis         = "..."

	NoNewsText = "No news found for your keywords today."
)

var printer = message.NewPrinter(language.English)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + ellipsis
}

// FormatHeader announces how many articles follow
func FormatHeader(digest *digestdomain.Digest) string {
	var sb strings.Builder
	title := "Daily News Update"
	switch digest.Mode {
	case digestdomain.ModeAiIndividual:
		title = "AI News Analysis"
	case digestdomain.ModeAiCombined:
		title = "AI Market Summary"
	}
	fmt.Fprintf(&sb, "📰 <b>%s</b> - %d articles found\n", title, len(digest.Articles))
	fmt.Fprintf(&sb, "Keywords: %s\n", html.EscapeString(strings.Join(digest.Keywords, ", ")))
	if n := len(digest.FailedFeeds); n > 0 {
		fmt.Fprintf(&sb, "⚠️ %d sources could not be reached\n", n)
	}
	return sb.String()
}

func buildCaption(index int, title, body, footer string) string {
	if body == "" {
		return fmt.Sprintf("<b>%d. %s</b>\n\n%s", index, title, footer)
	}
	return fmt.Sprintf("<b>%d. %s</b>\n\n%s\n\n%s", index, title, body, footer)
}

// FormatCaption renders one article as an HTML caption of at most 1020 runes.
// The summary is shortened first; when too little room is left for it only
// the title, cut to 200 runes, is kept.
func FormatCaption(article summarydomain.Article, index int) string {
	title := html.EscapeString(article.Title)
	footer := fmt.Sprintf("🏷️ <i>%s</i> • 📰 <i>%s</i>",
		html.EscapeString(article.Keyword), html.EscapeString(article.Source))

	body := article.Summary
	if article.AISummary != "" {
		body += "\n\n🤖 " + article.AISummary
	}

	caption := buildCaption(index, title, html.EscapeString(body), footer)
	if runeLen(caption) <= captionLimit {
		return caption
	}

	frame := runeLen(buildCaption(index, title, "", footer)) + 2
	budget := captionLimit - frame - len(ellipsis)
	if budget > minSummaryBudget {
		raw := []rune(body)
		// escaping may lengthen the text, so shrink until it fits
		for n := min(budget, len(raw)); n > minSummaryBudget; {
			escaped := html.EscapeString(string(raw[:n]) + ellipsis)
			caption = buildCaption(index, title, escaped, footer)
			over := runeLen(caption) - captionLimit
			if over <= 0 {
				return caption
			}
			size := runeLen(escaped)
			n = min(n-1, n*(size-over)/size)
		}
	}

	return buildCaption(index, html.EscapeString(truncateRunes(article.Title, maxTitleRunes)), "", footer)
}

// FormatCombined renders the combined analysis followed by the article list
func FormatCombined(digest *digestdomain.Digest) string {
	var sb strings.Builder
	sb.WriteString("🤖 <b>AI Market Analysis</b>\n\n")
	sb.WriteString(html.EscapeString(digest.Combined))
	sb.WriteString("\n\n📚 <b>Articles:</b>\n")
	for i, a := range digest.Articles {
		fmt.Fprintf(&sb, "%d. <a href=\"%s\">%s</a> (%s)\n", i+1,
			html.EscapeString(a.URL), html.EscapeString(a.Title), html.EscapeString(a.Source))
	}
	return sb.String()
}

// FormatCrypto renders prices and the Fear & Greed index
func FormatCrypto(summary cryptodomain.Summary) string {
	if summary.IsEmpty() {
		return "❌ Unable to fetch crypto market data right now."
	}

	var sb strings.Builder
	sb.WriteString("💰 <b>Crypto Market Update</b>\n\n")
	for _, p := range summary.Prices {
		sb.WriteString(printer.Sprintf("• <b>%s</b>: $%.2f\n", html.EscapeString(p.Symbol), p.Value))
	}
	if fg := summary.FearGreed; fg != nil {
		fmt.Fprintf(&sb, "\n%s <b>Fear &amp; Greed Index:</b> %d (%s)\n",
			fearGreedEmoji(fg.Value), fg.Value, html.EscapeString(fg.Classification))
	}
	fmt.Fprintf(&sb, "\n🕒 %s UTC", summary.Timestamp.UTC().Format("2006-01-02 15:04"))
	return sb.String()
}

func fearGreedEmoji(value int) string {
	switch {
	case value < 25:
		return "😱"
	case value < 45:
		return "😟"
	case value <= 55:
		return "😐"
	case value < 75:
		return "🙂"
	default:
		return "🤑"
	}
}

// FormatList renders a titled bullet list or the empty hint
func FormatList(title string, items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	lines := lo.Map(items, func(item string, i int) string {
		return fmt.Sprintf("%d. %s", i+1, html.EscapeString(item))
	})
	return fmt.Sprintf("<b>%s</b>\n\n%s", title, strings.Join(lines, "\n"))
}

// SplitMessage cuts text into pages of at most limit runes, preferring line breaks
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || runeLen(text) <= limit {
		return []string{text}
	}

	pages := make([]string, 0)
	rest := []rune(text)
	for len(rest) > limit {
		cut := limit
		if i := lastIndexRune(rest[:limit], '\n'); i > 0 {
			cut = i + 1
		} else if i := markupStart(rest[:limit]); i > 0 {
			cut = i
		}
		pages = append(pages, string(rest[:cut]))
		rest = rest[cut:]
	}
	if len(rest) > 0 {
		pages = append(pages, string(rest))
	}
	return pages
}

// markupStart returns where an unterminated tag or entity at the end of page
// begins, or -1 when page ends outside markup
func markupStart(page []rune) int {
	cut := -1
	if lt := lastIndexRune(page, '<'); lt > lastIndexRune(page, '>') {
		cut = lt
	}
	if amp := lastIndexRune(page, '&'); amp > lastIndexRune(page, ';') && (cut < 0 || amp < cut) {
		cut = amp
	}
	return cut
}

func lastIndexRune(r []rune, target rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == target {
			return i
		}
	}
	return -1
}
