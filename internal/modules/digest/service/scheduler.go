package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reshetovitsme/news-digest-bot/internal/modules/digest/domain"
	userdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/config"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	reportCheckInterval = time.Hour
	statsRetentionDays  = 30
	recentUsersWindow   = 24 * time.Hour
)

// Reporter produces the developer usage report
type Reporter interface {
	ShouldReport() bool
	Report(totalUsers int, recentUsers []string) string
	MarkReported()
	Cleanup(keepDays int) int
}

// Scheduler delivers the daily digest and the developer report
type Scheduler struct {
	cfg      *config.Config
	digests  *Service
	users    Subscribers
	reporter Reporter
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new daily scheduler
func NewScheduler(cfg *config.Config, digests *Service, users Subscribers, reporter Reporter) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:      cfg,
		digests:  digests,
		users:    users,
		reporter: reporter,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start announces the schedule and begins the delivery loop
func (s *Scheduler) Start(ctx context.Context) error {
	hour, minute, err := s.cfg.ScheduleClock()
	if err != nil {
		return err
	}

	if s.cfg.TelegramChatID != 0 {
		announcement := fmt.Sprintf("🚀 News bot started!\nScheduled for %s daily\nKeywords: %s\nRSS Feeds: %d sources",
			s.cfg.ScheduleTime, strings.Join(s.cfg.Keywords, ", "), len(s.cfg.RSSFeeds))
		if err := s.digests.Notify(ctx, s.cfg.TelegramChatID, announcement); err != nil {
			slog.Error("Failed to send startup message", "chat_id", s.cfg.TelegramChatID, "error", err)
		}
	}

	slog.Info("Scheduled news delivery", "time", s.cfg.ScheduleTime)

	s.wg.Add(1)
	go s.monitorLoop(hour, minute)
	return nil
}

// Stop stops the loop and waits for an in-flight delivery to finish
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) monitorLoop(hour, minute int) {
	defer s.wg.Done()

	reportTicker := time.NewTicker(reportCheckInterval)
	defer reportTicker.Stop()

	for {
		now := s.now()
		next := NextRun(now, hour, minute)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-reportTicker.C:
			timer.Stop()
			s.SendReport(s.ctx)
		case <-timer.C:
			s.RunDaily(s.ctx)
			s.SendReport(s.ctx)
		}
	}
}

// NextRun returns the first hour:minute strictly after now, in now's location
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Recipients returns the broadcast chat followed by every stored subscriber
func (s *Scheduler) Recipients(ctx context.Context) []int64 {
	chats := make([]int64, 0)
	if s.cfg.TelegramChatID != 0 {
		chats = append(chats, s.cfg.TelegramChatID)
	}

	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		slog.Error("Failed to load subscribers", "error", err)
		return chats
	}
	ids := lo.Map(users, func(u *userdomain.User, _ int) int64 { return u.ID })
	return lo.Uniq(append(chats, ids...))
}

// RunDaily sends a plain digest to every recipient; one failing chat does not stop the others
func (s *Scheduler) RunDaily(ctx context.Context) {
	slog.Info("Starting news fetch...")

	recipients := s.Recipients(ctx)
	delivered := 0
	for _, chatID := range recipients {
		if ctx.Err() != nil {
			return
		}

		err := oops.Recover(func() {
			digest, err := s.digests.Run(ctx, chatID, domain.Options{Mode: domain.ModePlain, UserID: chatID})
			if err != nil {
				slog.Error("Error in news delivery", "chat_id", chatID, "error", err)
				return
			}
			slog.Info("Found news items", "chat_id", chatID, "count", len(digest.Articles))
			delivered++
		})
		if err != nil {
			slog.Error("Panic in news delivery", "chat_id", chatID, "error", err)
		}
	}

	slog.Info("Daily delivery finished", "recipients", len(recipients), "delivered", delivered)
}

// SendReport delivers the usage report to the developer at most once per day
func (s *Scheduler) SendReport(ctx context.Context) {
	if s.reporter == nil || s.cfg.DeveloperChatID == 0 || !s.reporter.ShouldReport() {
		return
	}

	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		slog.Error("Error sending daily report", "error", err)
		return
	}

	since := s.now().Add(-recentUsersWindow)
	recent := lo.FilterMap(users, func(u *userdomain.User, _ int) (string, bool) {
		return u.DisplayName(), !u.LastSeen.Before(since)
	})

	report := s.reporter.Report(len(users), recent)
	if err := s.digests.Notify(ctx, s.cfg.DeveloperChatID, report); err != nil {
		slog.Error("Error sending daily report", "error", err)
		return
	}

	s.reporter.MarkReported()
	s.reporter.Cleanup(statsRetentionDays)
	slog.Info("Daily usage report sent to developer")
}
