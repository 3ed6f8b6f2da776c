package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return &Normalizer{now: func() time.Time { return fixedNow }}
}

func TestNormalize_Valid(t *testing.T) {
	published := time.Date(2024, 4, 30, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	entry := domain.RawEntry{
		Title:     "  Bitcoin   climbs past resistance ",
		Body:      "<p>Markets <b>rallied</b>\n\n today.</p>",
		Link:      "https://example.com/btc",
		Published: &published,
	}

	item, err := newTestNormalizer().Normalize(entry, []string{"bitcoin"}, "https://www.coindesk.com/rss")
	require.NoError(t, err)

	assert.Equal(t, "Bitcoin climbs past resistance", item.Title)
	assert.Equal(t, "Markets rallied today.", item.Summary)
	assert.Equal(t, "https://example.com/btc", item.URL)
	assert.Equal(t, "bitcoin", item.Keyword)
	assert.Equal(t, published.UTC(), item.PublishedDate)
	assert.Equal(t, "coindesk.com", item.Source)
	assert.Equal(t, fixedNow, item.ScrapedAt)
	assert.Empty(t, item.ImageURL)
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		entry  domain.RawEntry
		reason domain.RejectReason
	}{
		{
			name:   "empty title",
			entry:  domain.RawEntry{Title: "  ", Link: "https://example.com/a", Body: "bitcoin"},
			reason: domain.RejectReasonMissingFields,
		},
		{
			name:   "empty link",
			entry:  domain.RawEntry{Title: "Bitcoin rallies again", Body: "bitcoin"},
			reason: domain.RejectReasonMissingFields,
		},
		{
			name:   "short title",
			entry:  domain.RawEntry{Title: "Hi there", Link: "https://example.com/a", Body: "bitcoin news"},
			reason: domain.RejectReasonShortTitle,
		},
		{
			name:   "no keyword",
			entry:  domain.RawEntry{Title: "Weather is fine today", Link: "https://example.com/a", Body: "sunny"},
			reason: domain.RejectReasonNoKeyword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestNormalizer().Normalize(tt.entry, []string{"bitcoin"}, "https://example.com/rss")
			require.Error(t, err)
			assert.Equal(t, tt.reason, RejectionReason(err))
		})
	}
}

func TestNormalize_KeywordPrecedence(t *testing.T) {
	entry := domain.RawEntry{
		Title: "Beta and alpha walk into a bar",
		Link:  "https://example.com/ab",
	}

	item, err := newTestNormalizer().Normalize(entry, []string{"alpha", "beta"}, "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, "alpha", item.Keyword)

	item, err = newTestNormalizer().Normalize(entry, []string{"beta", "alpha"}, "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, "beta", item.Keyword)
}

func TestNormalize_KeywordMatchesBody(t *testing.T) {
	entry := domain.RawEntry{
		Title: "Markets update for today",
		Body:  "<div>Ethereum gas fees dropped</div>",
		Link:  "https://example.com/eth",
	}

	item, err := newTestNormalizer().Normalize(entry, []string{"  ", "ETHEREUM"}, "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, "ETHEREUM", item.Keyword)
}

func TestNormalize_Truncation(t *testing.T) {
	entry := domain.RawEntry{
		Title: "Bitcoin long read of the week",
		Body:  strings.Repeat("a", 500),
		Link:  "https://example.com/long",
	}

	item, err := newTestNormalizer().Normalize(entry, []string{"bitcoin"}, "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 200)+"...", item.Summary)
	assert.Equal(t, 203, utf8.RuneCountInString(item.Summary))
}

func TestNormalize_EmptyBodyPlaceholder(t *testing.T) {
	entry := domain.RawEntry{Title: "Bitcoin headline only", Link: "https://example.com/x"}

	item, err := newTestNormalizer().Normalize(entry, []string{"bitcoin"}, "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, "Click to read more...", item.Summary)
}

func TestNormalize_DateChain(t *testing.T) {
	updated := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	entry := domain.RawEntry{Title: "Bitcoin date fallback", Link: "https://example.com/d", Updated: &updated}

	item, err := newTestNormalizer().Normalize(entry, []string{"bitcoin"}, "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, updated, item.PublishedDate)

	entry.Updated = nil
	item, err = newTestNormalizer().Normalize(entry, []string{"bitcoin"}, "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, item.PublishedDate)
}

func TestSummarize_MultibyteRunes(t *testing.T) {
	body := strings.Repeat("é", 250)
	summary := Summarize(body)
	assert.Equal(t, 203, utf8.RuneCountInString(summary))
	assert.True(t, utf8.ValidString(summary))

	assert.Equal(t, "short", Summarize("short"))
}

func TestSourceDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.coindesk.com/arc/outboundfeeds/rss/": "coindesk.com",
		"https://cointelegraph.com/rss":                   "cointelegraph.com",
		"http://WWW.Example.org:8080/feed":                "example.org",
		"example.net/feed":                                "example.net",
		"":                                                "Unknown",
		"://broken":                                       "Unknown",
	}

	for input, want := range tests {
		assert.Equal(t, want, SourceDomain(input), input)
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "", StripHTML("   "))
	assert.Equal(t, "Hello world !", StripHTML("<p>Hello <i>world</i></p>\n\t<span>!</span>"))
	assert.Equal(t, "plain text", StripHTML("plain   text"))
}

func TestMatchKeyword_Substring(t *testing.T) {
	// no word boundaries: short keywords match inside longer words
	kw, ok := MatchKeyword("the ceo said prices would rise", []string{"AI"})
	assert.True(t, ok)
	assert.Equal(t, "AI", kw)

	_, ok = MatchKeyword("nothing relevant here", []string{"bitcoin"})
	assert.False(t, ok)
}
