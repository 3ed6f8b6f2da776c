package domain

import "time"

// Price is the last traded price of a market pair such as BTC/USDT
type Price struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

// FearGreed is one reading of the crypto Fear & Greed index (0-100)
type FearGreed struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
}

// Summary bundles prices with the latest Fear & Greed reading.
// FearGreed is nil when the index could not be fetched.
type Summary struct {
	Prices    []Price    `json:"prices"`
	FearGreed *FearGreed `json:"fear_greed,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// IsEmpty reports whether nothing could be fetched at all
func (s Summary) IsEmpty() bool {
	return len(s.Prices) == 0 && s.FearGreed == nil
}
