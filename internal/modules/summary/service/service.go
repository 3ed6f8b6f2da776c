package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	newsdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/summary/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// UsageRecorder receives an estimate of tokens spent and whether a model call failed
type UsageRecorder interface {
	RecordModelCall(tokens int, failed bool)
}

// Service summarizes news with the Gemini generateContent API.
// Every summary method fails closed and returns fallback text.
type Service struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
	usage   UsageRecorder
}

// New creates a new summary service. usage may be nil.
func New(baseURL, model, apiKey string, timeout time.Duration, usage UsageRecorder) *Service {
	return &Service{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		usage:   usage,
	}
}

// Enabled reports whether an API key was configured
func (s *Service) Enabled() bool {
	return s.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends one prompt and returns the model text
func (s *Service) Generate(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if s.usage != nil {
			s.usage.RecordModelCall(estimateTokens(prompt)+estimateTokens(text), err != nil)
		}
	}()

	if !s.Enabled() {
		return "", oops.Errorf("gemini api key is not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", oops.Wrap(err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, url.PathEscape(s.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", oops.With("model", s.model).Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	// kept out of the URL so transport errors never carry it
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", oops.With("model", s.model).Wrap(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", oops.With("model", s.model).Wrap(err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", oops.With("model", s.model, "status", resp.StatusCode).Wrap(err)
	}
	if resp.StatusCode >= http.StatusBadRequest || decoded.Error != nil {
		msg := strings.TrimSpace(string(payload))
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return "", oops.With("model", s.model, "status", resp.StatusCode).Errorf("gemini error: %s", msg)
	}

	texts := lo.FlatMap(decoded.Candidates, func(c candidate, _ int) []string {
		return lo.Map(c.Content.Parts, func(p part, _ int) string { return p.Text })
	})
	text = strings.TrimSpace(strings.Join(texts, ""))
	if text == "" {
		return "", oops.With("model", s.model).Errorf("gemini returned an empty response")
	}
	return text, nil
}

// SummarizeIndividual returns one Article per item, in order
func (s *Service) SummarizeIndividual(ctx context.Context, items []newsdomain.NewsItem) []domain.Article {
	articles := make([]domain.Article, 0, len(items))
	for i, item := range items {
		slog.Info("Summarizing article", "index", i+1, "total", len(items), "title", truncate(item.Title, 50))

		summary, err := s.summarizeOne(ctx, item)
		if err != nil {
			slog.Error("Error summarizing article", "index", i+1, "url", item.URL, "error", err)
			articles = append(articles, domain.Article{NewsItem: item, AISummary: domain.ArticleFallback, Failed: true})
			continue
		}
		articles = append(articles, domain.Article{NewsItem: item, AISummary: summary})
	}
	return articles
}

func (s *Service) summarizeOne(ctx context.Context, item newsdomain.NewsItem) (string, error) {
	prompt, err := IndividualPrompt(item)
	if err != nil {
		return "", err
	}
	return s.Generate(ctx, prompt)
}

// SummarizeCombined returns one analysis covering all items
func (s *Service) SummarizeCombined(ctx context.Context, items []newsdomain.NewsItem) string {
	slog.Info("Creating combined summary", "articles", len(items))

	prompt, err := CombinedPrompt(items)
	if err != nil {
		slog.Error("Error creating combined summary", "error", err)
		return domain.CombinedFallback
	}

	text, err := s.Generate(ctx, prompt)
	if err != nil {
		slog.Error("Error creating combined summary", "error", err)
		return domain.CombinedFallback
	}
	return text
}

// Ping checks that the model answers at all
func (s *Service) Ping(ctx context.Context) bool {
	text, err := s.Generate(ctx, "Hello, please respond with 'Connection successful'")
	if err != nil {
		slog.Error("Gemini connection test failed", "error", err)
		return false
	}
	return strings.Contains(strings.ToLower(text), "successful")
}

// roughly 4 characters per token for English text
func estimateTokens(s string) int {
	return len(s) / 4
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
