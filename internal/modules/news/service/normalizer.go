package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/samber/lo"
)

const (
	minTitleLength     = 10
	summaryLength      = 200
	summaryEllipsis    = "..."
	summaryPlaceholder = "Click to read more..."
	unknownSource      = "Unknown"
)

// Normalizer turns raw feed entries into NewsItems
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize validates one entry and builds a NewsItem from it. Rejections are
// returned as *domain.Rejection. ImageURL is left empty.
func (n *Normalizer) Normalize(entry domain.RawEntry, keywords []string, sourceURI string) (item domain.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			item = domain.NewsItem{}
			err = domain.Reject(domain.RejectReasonFault, fmt.Sprint(r))
		}
	}()

	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	if title == "" || link == "" {
		return domain.NewsItem{}, domain.Reject(domain.RejectReasonMissingFields, "")
	}

	title = collapseWhitespace(title)
	body := StripHTML(entry.Body)

	if utf8.RuneCountInString(title) < minTitleLength {
		return domain.NewsItem{}, domain.Reject(domain.RejectReasonShortTitle, title)
	}

	keyword, ok := MatchKeyword(title+" "+body, keywords)
	if !ok {
		return domain.NewsItem{}, domain.Reject(domain.RejectReasonNoKeyword, "")
	}

	now := n.now().UTC()
	return domain.NewsItem{
		Title:         title,
		Summary:       Summarize(body),
		URL:           link,
		Keyword:       keyword,
		PublishedDate: publishedDate(entry, now),
		Source:        SourceDomain(sourceURI),
		ScrapedAt:     now,
	}, nil
}

// MatchKeyword returns the first keyword, in the given order, contained in text.
// Matching is a plain case-insensitive substring test, so "AI" also matches "said".
func MatchKeyword(text string, keywords []string) (string, bool) {
	haystack := strings.ToLower(text)
	return lo.Find(keywords, func(keyword string) bool {
		needle := strings.ToLower(strings.TrimSpace(keyword))
		return needle != "" && strings.Contains(haystack, needle)
	})
}

// StripHTML drops markup and collapses whitespace runs into single spaces
func StripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseWhitespace(s)
	}
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Summarize keeps the first 200 characters of body, marking truncation with "..."
func Summarize(body string) string {
	if body == "" {
		return summaryPlaceholder
	}
	if utf8.RuneCountInString(body) <= summaryLength {
		return body
	}
	return string([]rune(body)[:summaryLength]) + summaryEllipsis
}

type dateCandidate func(domain.RawEntry) *time.Time

var dateChain = []dateCandidate{
	func(e domain.RawEntry) *time.Time { return e.Published },
	func(e domain.RawEntry) *time.Time { return e.Updated },
}

func publishedDate(entry domain.RawEntry, fallback time.Time) time.Time {
	for _, candidate := range dateChain {
		if t := candidate(entry); t != nil && !t.IsZero() {
			return t.UTC()
		}
	}
	return fallback
}

type domainCandidate func(*url.URL) string

var domainChain = []domainCandidate{
	func(u *url.URL) string { return u.Hostname() },
	// scheme-less input such as "example.com/feed" parses as a path
	func(u *url.URL) string {
		if u.Scheme != "" || u.Path == "" {
			return ""
		}
		host, _, _ := strings.Cut(u.Path, "/")
		return host
	},
}

// SourceDomain returns the host of a feed URI without a leading "www.", or "Unknown"
func SourceDomain(sourceURI string) string {
	u, err := url.Parse(strings.TrimSpace(sourceURI))
	if err != nil {
		return unknownSource
	}
	for _, candidate := range domainChain {
		if host := strings.ToLower(candidate(u)); host != "" {
			return strings.TrimPrefix(host, "www.")
		}
	}
	return unknownSource
}

// RejectionReason extracts the reason from a normalization error
func RejectionReason(err error) domain.RejectReason {
	var rejection *domain.Rejection
	if errors.As(err, &rejection) {
		return rejection.Reason
	}
	return domain.RejectReasonFault
}
