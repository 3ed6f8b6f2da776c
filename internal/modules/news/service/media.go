package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// Prober checks whether a URL without a known extension serves an image
type Prober interface {
	IsImage(ctx context.Context, imageURL string) bool
}

// HTTPProber issues a HEAD request and trusts the declared content type
type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProber) IsImage(ctx context.Context, imageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("Image probe failed", "url", imageURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	return strings.HasPrefix(contentType, "image/")
}

type imageCandidate func(domain.RawEntry) string

// MediaExtractor finds a representative image for an entry
type MediaExtractor struct {
	prober     Prober
	candidates []imageCandidate
}

func NewMediaExtractor(prober Prober) *MediaExtractor {
	return &MediaExtractor{
		prober: prober,
		candidates: []imageCandidate{
			enclosureImage,
			mediaThumbnail,
			mediaContentImage,
			func(e domain.RawEntry) string { return firstImgSrc(e.Body) },
			func(e domain.RawEntry) string { return firstImgSrc(e.Content) },
		},
	}
}

// Extract returns a validated absolute image URL or "". The first candidate
// found is the only one validated; a rejected candidate means no image.
func (m *MediaExtractor) Extract(ctx context.Context, entry domain.RawEntry) (imageURL string) {
	err := oops.Recover(func() {
		imageURL = m.extract(ctx, entry)
	})
	if err != nil {
		slog.Error("Failed to extract image", "link", entry.Link, "error", err)
		return ""
	}
	return imageURL
}

func (m *MediaExtractor) extract(ctx context.Context, entry domain.RawEntry) string {
	var candidate string
	for _, find := range m.candidates {
		if candidate = strings.TrimSpace(find(entry)); candidate != "" {
			break
		}
	}
	if candidate == "" {
		return ""
	}

	candidate = repairURL(candidate, entry.Link)
	if !m.valid(ctx, candidate) {
		return ""
	}
	return candidate
}

func (m *MediaExtractor) valid(ctx context.Context, imageURL string) bool {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if HasImageExtension(imageURL) {
		return true
	}
	if m.prober == nil {
		return false
	}
	return m.prober.IsImage(ctx, imageURL)
}

// HasImageExtension reports whether the URL path, query excluded, ends in a known image extension
func HasImageExtension(imageURL string) bool {
	path, _, _ := strings.Cut(strings.ToLower(imageURL), "?")
	path, _, _ = strings.Cut(path, "#")
	return lo.SomeBy(imageExtensions, func(ext string) bool {
		return strings.HasSuffix(path, ext)
	})
}

func repairURL(imageURL, link string) string {
	switch {
	case strings.HasPrefix(imageURL, "//"):
		return "https:" + imageURL
	case strings.HasPrefix(imageURL, "/"):
		base, err := url.Parse(link)
		if err != nil || base.Host == "" {
			return imageURL
		}
		return base.Scheme + "://" + base.Host + imageURL
	default:
		return imageURL
	}
}

func enclosureImage(e domain.RawEntry) string {
	enc, ok := lo.Find(e.Enclosures, func(enc domain.Enclosure) bool {
		return strings.Contains(strings.ToLower(enc.Type), "image") && enc.URL != ""
	})
	if !ok {
		return ""
	}
	return enc.URL
}

func mediaThumbnail(e domain.RawEntry) string {
	return lo.FirstOrEmpty(e.Thumbnails)
}

func mediaContentImage(e domain.RawEntry) string {
	media, ok := lo.Find(e.MediaContents, func(mc domain.Enclosure) bool {
		return strings.Contains(strings.ToLower(mc.Type), "image") && mc.URL != ""
	})
	if !ok {
		return ""
	}
	return media.URL
}

func firstImgSrc(html string) string {
	if !strings.Contains(strings.ToLower(html), "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var src string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("src"); ok && strings.TrimSpace(v) != "" {
			src = v
			return false
		}
		return true
	})
	return src
}
