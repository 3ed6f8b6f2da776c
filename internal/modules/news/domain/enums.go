//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// FeedStatus describes how fetching one feed source went
// ENUM(ok,empty,failed)
type FeedStatus string

// RejectReason explains why an entry did not become a NewsItem
// ENUM(missing_fields,short_title,no_keyword,duplicate,fault)
type RejectReason string
