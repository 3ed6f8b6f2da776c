package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/crypto/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Service reads market prices from Binance and the Fear & Greed index from alternative.me
type Service struct {
	client       *http.Client
	binanceURL   string
	fearGreedURL string
	now          func() time.Time
}

// New creates a new crypto service
func New(binanceURL, fearGreedURL string, timeout time.Duration) *Service {
	return &Service{
		client:       &http.Client{Timeout: timeout},
		binanceURL:   strings.TrimRight(binanceURL, "/"),
		fearGreedURL: strings.TrimRight(fearGreedURL, "/"),
		now:          time.Now,
	}
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type fearGreedResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// MarketSymbol converts "BTC/USDT" to the exchange form "BTCUSDT"
func MarketSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
}

// FetchPrice returns the last price for a pair like "BTC/USDT"
func (s *Service) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", s.binanceURL, url.QueryEscape(MarketSymbol(symbol)))

	var ticker tickerResponse
	if err := s.getJSON(ctx, endpoint, &ticker); err != nil {
		return 0, oops.With("symbol", symbol).Wrap(err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, oops.With("symbol", symbol, "price", ticker.Price).Wrap(err)
	}
	return price, nil
}

// FetchFearGreed returns the latest limit readings of the index, newest first
func (s *Service) FetchFearGreed(ctx context.Context, limit int) ([]domain.FearGreed, error) {
	if limit <= 0 {
		limit = 1
	}
	endpoint := fmt.Sprintf("%s/fng/?limit=%d", s.fearGreedURL, limit)

	var resp fearGreedResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	readings := make([]domain.FearGreed, 0, len(resp.Data))
	for _, d := range resp.Data {
		value, err := strconv.Atoi(d.Value)
		if err != nil {
			return nil, oops.With("value", d.Value).Wrap(err)
		}
		ts, err := strconv.ParseInt(d.Timestamp, 10, 64)
		if err != nil {
			return nil, oops.With("timestamp", d.Timestamp).Wrap(err)
		}
		readings = append(readings, domain.FearGreed{
			Value:          value,
			Classification: d.ValueClassification,
			Timestamp:      time.Unix(ts, 0).UTC(),
		})
	}
	return readings, nil
}

// Summary collects prices in symbol order and the latest index reading.
// Individual failures are logged and left out of the result.
func (s *Service) Summary(ctx context.Context, symbols []string) domain.Summary {
	summary := domain.Summary{
		Prices:    []domain.Price{},
		Timestamp: s.now(),
	}

	for _, symbol := range lo.Uniq(symbols) {
		price, err := s.FetchPrice(ctx, symbol)
		if err != nil {
			slog.Error("Error fetching price", "symbol", symbol, "error", err)
			continue
		}
		if price == 0 {
			continue
		}
		summary.Prices = append(summary.Prices, domain.Price{Symbol: symbol, Value: price})
	}

	readings, err := s.FetchFearGreed(ctx, 1)
	if err != nil {
		slog.Error("Error fetching fear & greed index", "error", err)
		return summary
	}
	if len(readings) > 0 {
		summary.FearGreed = &readings[0]
	}
	return summary
}

func (s *Service) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return oops.With("url", endpoint).Wrap(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return oops.With("url", endpoint).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return oops.With("url", endpoint, "status", resp.StatusCode, "body", string(body)).
			Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return oops.With("url", endpoint).Wrap(err)
	}
	return nil
}
