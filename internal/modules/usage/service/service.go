package service

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/usage/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/usage/repository"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	reportInterval = 24 * time.Hour
	trendDays      = 7
	maxRecentNames = 5
)

// Tracker counts bot usage per day and renders the developer report
type Tracker struct {
	repo    repository.Repository
	mu      sync.Mutex
	stats   *domain.Stats
	now     func() time.Time
	printer *message.Printer
}

// New loads persisted statistics and returns a tracker
func New(repo repository.Repository) (*Tracker, error) {
	stats, err := repo.Load()
	if err != nil {
		return nil, oops.With("context", "loading usage statistics").Wrap(err)
	}
	return &Tracker{
		repo:    repo,
		stats:   stats,
		now:     time.Now,
		printer: message.NewPrinter(language.English),
	}, nil
}

func (t *Tracker) RecordNewsRequest(userID int64) {
	t.record(userID, func(s *domain.Stats, d *domain.DayStats) {
		s.TotalNewsRequests++
		d.NewsRequests++
	})
}

func (t *Tracker) RecordAIRequest(userID int64) {
	t.record(userID, func(s *domain.Stats, d *domain.DayStats) {
		s.TotalAIRequests++
		d.AIRequests++
	})
}

func (t *Tracker) RecordCryptoRequest(userID int64) {
	t.record(userID, func(s *domain.Stats, d *domain.DayStats) {
		s.TotalCryptoRequests++
		d.CryptoRequests++
	})
}

// RecordModelCall accounts for one generative model call
func (t *Tracker) RecordModelCall(tokens int, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.ModelCalls++
	t.stats.TokensUsed += tokens
	if failed {
		t.stats.ModelErrors++
	}
	t.save()
}

func (t *Tracker) record(userID int64, apply func(*domain.Stats, *domain.DayStats)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.day(t.now())
	apply(t.stats, day)
	if !lo.Contains(day.Users, userID) {
		day.Users = append(day.Users, userID)
	}
	t.save()
}

func (t *Tracker) day(at time.Time) *domain.DayStats {
	key := at.Format(domain.DayLayout)
	day, ok := t.stats.Days[key]
	if !ok {
		day = &domain.DayStats{Users: []int64{}}
		t.stats.Days[key] = day
	}
	return day
}

func (t *Tracker) save() {
	if err := t.repo.Save(t.stats); err != nil {
		slog.Error("Error saving usage data", "error", err)
	}
}

// ShouldReport reports whether a day has passed since the last report
func (t *Tracker) ShouldReport() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Sub(t.stats.LastReport) >= reportInterval
}

// MarkReported records that a report was just delivered
func (t *Tracker) MarkReported() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.LastReport = t.now()
	t.save()
}

// Cleanup drops daily counters older than keepDays and returns how many were removed
func (t *Tracker) Cleanup(keepDays int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().AddDate(0, 0, -keepDays).Format(domain.DayLayout)
	stale := lo.Filter(lo.Keys(t.stats.Days), func(key string, _ int) bool {
		return key < cutoff
	})
	for _, key := range stale {
		delete(t.stats.Days, key)
	}
	if len(stale) > 0 {
		slog.Info("Cleaned up old daily stats entries", "count", len(stale))
		t.save()
	}
	return len(stale)
}

// Snapshot returns a copy of the totals without daily details
func (t *Tracker) Snapshot() domain.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := *t.stats
	snapshot.Days = nil
	return snapshot
}

type trend struct {
	avgRequests float64
	avgUsers    float64
	mostActive  string
}

func (t *Tracker) weekTrend(now time.Time) trend {
	type day struct {
		date     string
		requests int
		users    int
	}

	days := lo.Times(trendDays, func(i int) day {
		key := now.AddDate(0, 0, -i).Format(domain.DayLayout)
		stats := domain.DayStats{}
		if d, ok := t.stats.Days[key]; ok {
			stats = *d
		}
		return day{date: key, requests: stats.Requests(), users: len(stats.Users)}
	})

	most := lo.MaxBy(days, func(a, b day) bool { return a.requests > b.requests })
	return trend{
		avgRequests: float64(lo.SumBy(days, func(d day) int { return d.requests })) / trendDays,
		avgUsers:    float64(lo.SumBy(days, func(d day) int { return d.users })) / trendDays,
		mostActive:  fmt.Sprintf("%s (%d req)", most.date, most.requests),
	}
}

// Report renders the developer report as Telegram HTML
func (t *Tracker) Report(totalUsers int, recentUsers []string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	yesterday := domain.DayStats{}
	if d, ok := t.stats.Days[now.AddDate(0, 0, -1).Format(domain.DayLayout)]; ok {
		yesterday = *d
	}
	week := t.weekTrend(now)

	var sb strings.Builder
	sb.WriteString("📊 <b>Daily Bot Usage Report</b>\n\n")
	fmt.Fprintf(&sb, "📅 <b>Date:</b> %s\n\n", now.Format("2006-01-02 15:04"))

	fmt.Fprintf(&sb, "👥 <b>Total Users:</b> %d\n", totalUsers)
	fmt.Fprintf(&sb, "📰 <b>Total News Requests:</b> %d\n", t.stats.TotalNewsRequests)
	fmt.Fprintf(&sb, "🤖 <b>Total AI Requests:</b> %d\n", t.stats.TotalAIRequests)
	fmt.Fprintf(&sb, "💰 <b>Total Crypto Requests:</b> %d\n\n", t.stats.TotalCryptoRequests)

	sb.WriteString("📊 <b>Yesterday's Activity:</b>\n")
	fmt.Fprintf(&sb, "• News requests: %d\n", yesterday.NewsRequests)
	fmt.Fprintf(&sb, "• AI requests: %d\n", yesterday.AIRequests)
	fmt.Fprintf(&sb, "• Crypto requests: %d\n", yesterday.CryptoRequests)
	fmt.Fprintf(&sb, "• Active users: %d\n\n", len(yesterday.Users))

	sb.WriteString("🤖 <b>Gemini API Usage:</b>\n")
	fmt.Fprintf(&sb, "• API calls: %d\n", t.stats.ModelCalls)
	sb.WriteString(t.printer.Sprintf("• Estimated tokens: %d\n", t.stats.TokensUsed))
	fmt.Fprintf(&sb, "• Errors: %d\n\n", t.stats.ModelErrors)

	sb.WriteString("📈 <b>7-Day Trend:</b>\n")
	fmt.Fprintf(&sb, "• Avg daily requests: %.1f\n", week.avgRequests)
	fmt.Fprintf(&sb, "• Avg active users: %.1f\n", week.avgUsers)
	fmt.Fprintf(&sb, "• Most active day: %s\n\n", week.mostActive)

	if len(recentUsers) > 0 {
		names := lo.Map(lo.Slice(recentUsers, 0, maxRecentNames), func(n string, _ int) string {
			return html.EscapeString(n)
		})
		fmt.Fprintf(&sb, "👤 <b>Recent Active Users:</b> %s\n\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&sb, "🕒 <b>Report Time:</b> %s", now.Format("15:04:05"))
	return sb.String()
}
