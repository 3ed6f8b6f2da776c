package domain

import (
	"fmt"
	"time"
)

// NewsItem is a feed entry that passed validation and keyword matching
type NewsItem struct {
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	URL           string    `json:"url"`
	Keyword       string    `json:"keyword"`
	PublishedDate time.Time `json:"published_date"`
	Source        string    `json:"source"`
	ImageURL      string    `json:"image_url,omitempty"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// HasImage reports whether a validated image was attached
func (n NewsItem) HasImage() bool {
	return n.ImageURL != ""
}

// RawEntry is one parsed, not yet validated, feed entry
type RawEntry struct {
	Title         string
	Body          string
	Content       string
	Link          string
	Published     *time.Time
	Updated       *time.Time
	Enclosures    []Enclosure
	Thumbnails    []string
	MediaContents []Enclosure
}

// Enclosure is a media reference with its declared MIME type
type Enclosure struct {
	URL  string
	Type string
}

// Rejection is returned when an entry is filtered out during normalization
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("entry rejected: %s", r.Reason)
	}
	return fmt.Sprintf("entry rejected: %s (%s)", r.Reason, r.Detail)
}

// Reject builds a Rejection for the given reason
func Reject(reason RejectReason, detail string) *Rejection {
	return &Rejection{Reason: reason, Detail: detail}
}

// FeedOutcome records what happened to a single feed source during one run
type FeedOutcome struct {
	Source   string
	Status   FeedStatus
	Entries  int
	Accepted int
	Rejected map[RejectReason]int
	Err      error
}

// Result is the outcome of one aggregation run
type Result struct {
	Items []NewsItem
	Feeds []FeedOutcome
}

// FailedFeeds returns the sources that could not be processed
func (r Result) FailedFeeds() []FeedOutcome {
	failed := make([]FeedOutcome, 0)
	for _, f := range r.Feeds {
		if f.Status == FeedStatusFailed {
			failed = append(failed, f)
		}
	}
	return failed
}
