package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Crypto Wire</title>
    <link>https://example.com</link>
    <description>Test feed</description>
    <item>
      <title>Bitcoin breaks another record</title>
      <link>https://example.com/btc-record</link>
      <description><![CDATA[<p>BTC <b>soars</b></p>]]></description>
      <content:encoded><![CDATA[<p><img src="https://example.com/full.png"></p>]]></content:encoded>
      <pubDate>Tue, 30 Apr 2024 08:00:00 GMT</pubDate>
      <enclosure url="https://example.com/cover.jpg" type="image/jpeg" length="1024"/>
      <media:thumbnail url="https://example.com/thumb.jpg"/>
      <media:content url="https://example.com/media.png" type="image/png"/>
    </item>
    <item>
      <title>Ethereum upgrade scheduled</title>
      <link>https://example.com/eth-upgrade</link>
      <description>Plain description</description>
    </item>
  </channel>
</rss>`

// cut off in the middle of the second item
const truncatedRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Crypto Wire</title>
    <item>
      <title>Bitcoin breaks another record</title>
      <link>https://example.com/btc-record</link>
      <description>BTC soars</description>
      <media:thumbnail url="https://example.com/thumb.jpg"/>
    </item>
    <item>
      <title>Ethereum upgrade sched`

const truncatedAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Wire</title>
  <entry>
    <title>Solana network upgrade ships</title>
    <link href="https://example.com/sol"/>
    <summary>Faster blocks</summary>
  </entry>
  <entry>
    <title>Cut short`

const emptyRSS = `<?xml version="1.0"?><rss version="2.0"><channel><title>Nothing</title></channel></rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(sampleRSS))
		case "/empty":
			_, _ = w.Write([]byte(emptyRSS))
		case "/truncated":
			_, _ = w.Write([]byte(truncatedRSS))
		case "/truncated-atom":
			_, _ = w.Write([]byte(truncatedAtom))
		case "/garbage":
			_, _ = w.Write([]byte("this is not a feed"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestGofeedFetcher_Fetch(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	result := NewGofeedFetcher(5*time.Second).Fetch(context.Background(), server.URL+"/rss")
	require.NoError(t, result.Err)
	assert.Equal(t, domain.FeedStatusOk, result.Status)
	require.Len(t, result.Entries, 2)

	first := result.Entries[0]
	assert.Equal(t, "Bitcoin breaks another record", first.Title)
	assert.Equal(t, "https://example.com/btc-record", first.Link)
	assert.Contains(t, first.Body, "<b>soars</b>")
	assert.Contains(t, first.Content, "full.png")
	require.NotNil(t, first.Published)
	assert.Equal(t, time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC), first.Published.UTC())
	assert.Equal(t, []domain.Enclosure{{URL: "https://example.com/cover.jpg", Type: "image/jpeg"}}, first.Enclosures)
	assert.Equal(t, []string{"https://example.com/thumb.jpg"}, first.Thumbnails)
	assert.Equal(t, []domain.Enclosure{{URL: "https://example.com/media.png", Type: "image/png"}}, first.MediaContents)

	second := result.Entries[1]
	assert.Equal(t, "Ethereum upgrade scheduled", second.Title)
	assert.Nil(t, second.Published)
	assert.Empty(t, second.Enclosures)
}

func TestGofeedFetcher_Empty(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	result := NewGofeedFetcher(5*time.Second).Fetch(context.Background(), server.URL+"/empty")
	assert.NoError(t, result.Err)
	assert.Equal(t, domain.FeedStatusEmpty, result.Status)
	assert.Empty(t, result.Entries)
}

func TestGofeedFetcher_Failures(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	inputs := []string{
		"not a url",
		"ftp://example.com/feed",
		server.URL + "/missing",
		server.URL + "/garbage",
		"http://127.0.0.1:1/unreachable",
	}

	fetcher := NewGofeedFetcher(2 * time.Second)
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			result := fetcher.Fetch(context.Background(), input)
			assert.Equal(t, domain.FeedStatusFailed, result.Status)
			assert.Error(t, result.Err)
			assert.NotNil(t, result.Entries)
			assert.Empty(t, result.Entries)
		})
	}
}

func TestGofeedFetcher_SalvagesTruncatedFeed(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	fetcher := NewGofeedFetcher(5 * time.Second)

	result := fetcher.Fetch(context.Background(), server.URL+"/truncated")
	assert.NoError(t, result.Err)
	assert.Equal(t, domain.FeedStatusOk, result.Status)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Bitcoin breaks another record", result.Entries[0].Title)
	assert.Equal(t, "https://example.com/btc-record", result.Entries[0].Link)
	assert.Equal(t, []string{"https://example.com/thumb.jpg"}, result.Entries[0].Thumbnails)

	result = fetcher.Fetch(context.Background(), server.URL+"/truncated-atom")
	assert.Equal(t, domain.FeedStatusOk, result.Status)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Solana network upgrade ships", result.Entries[0].Title)
	assert.Equal(t, "https://example.com/sol", result.Entries[0].Link)
}

func TestCompleteElements(t *testing.T) {
	doc := `<rss><channel><itemref/><item>a</item><item>broken<item>b</item><item>c`

	header, blocks := completeElements(doc, "item")
	assert.Equal(t, "<rss><channel><itemref/>", header)
	assert.Equal(t, []string{"<item>a</item>", "<item>b</item>"}, blocks)

	header, blocks = completeElements("<rss><channel></channel></rss>", "item")
	assert.Empty(t, header)
	assert.Empty(t, blocks)
}
