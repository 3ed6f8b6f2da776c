package domain

import "time"

// DayLayout is the key format of daily counters
const DayLayout = "2006-01-02"

// DayStats holds the counters of one calendar day
type DayStats struct {
	NewsRequests   int     `json:"news_requests"`
	AIRequests     int     `json:"ai_requests"`
	CryptoRequests int     `json:"crypto_requests"`
	Users          []int64 `json:"unique_users"`
}

// Requests is the sum of all request counters
func (d DayStats) Requests() int {
	return d.NewsRequests + d.AIRequests + d.CryptoRequests
}

// Stats is the persisted usage record of the bot
type Stats struct {
	Days                map[string]*DayStats `json:"daily_stats"`
	TotalNewsRequests   int                  `json:"total_news_requests"`
	TotalAIRequests     int                  `json:"total_ai_requests"`
	TotalCryptoRequests int                  `json:"total_crypto_requests"`
	ModelCalls          int                  `json:"model_calls"`
	ModelErrors         int                  `json:"model_errors"`
	TokensUsed          int                  `json:"tokens_used"`
	LastReport          time.Time            `json:"last_report"`
}

// NewStats returns an empty record
func NewStats() *Stats {
	return &Stats{Days: make(map[string]*DayStats)}
}

// TotalRequests is the sum of all request totals
func (s *Stats) TotalRequests() int {
	return s.TotalNewsRequests + s.TotalAIRequests + s.TotalCryptoRequests
}
