package service

import (
	"context"
	"testing"
	"time"

	userdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	due      bool
	reported int
	cleaned  []int
	names    []string
}

func (r *fakeReporter) ShouldReport() bool { return r.due }

func (r *fakeReporter) Report(totalUsers int, recentUsers []string) string {
	r.names = recentUsers
	return "report"
}

func (r *fakeReporter) MarkReported() {
	r.reported++
	r.due = false
}

func (r *fakeReporter) Cleanup(keepDays int) int {
	r.cleaned = append(r.cleaned, keepDays)
	return 0
}

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2024, 5, 1, 6, 30, 0, 0, loc), time.Date(2024, 5, 1, 8, 0, 0, 0, loc)},
		{"exactly now rolls over", time.Date(2024, 5, 1, 8, 0, 0, 0, loc), time.Date(2024, 5, 2, 8, 0, 0, 0, loc)},
		{"already passed", time.Date(2024, 5, 1, 23, 59, 0, 0, loc), time.Date(2024, 5, 2, 8, 0, 0, 0, loc)},
		{"month end", time.Date(2024, 5, 31, 9, 0, 0, 0, loc), time.Date(2024, 6, 1, 8, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextRun(tt.now, 8, 0)), "got %s", NextRun(tt.now, 8, 0))
		})
	}
}

func TestScheduler_Recipients(t *testing.T) {
	f := newFixture(t)
	f.users.users[5] = &userdomain.User{ID: 5}
	f.users.users[-100] = &userdomain.User{ID: -100}

	scheduler := NewScheduler(f.cfg, f.service, f.users, nil)
	recipients := scheduler.Recipients(context.Background())

	assert.Equal(t, int64(-100), recipients[0])
	assert.ElementsMatch(t, []int64{-100, 5}, recipients)
}

func TestScheduler_RunDailyContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.users.users[5] = &userdomain.User{ID: 5}
	f.users.users[6] = &userdomain.User{ID: 6}
	f.publisher.failFor[5] = true

	scheduler := NewScheduler(f.cfg, f.service, f.users, nil)
	scheduler.RunDaily(context.Background())

	assert.Len(t, f.publisher.digests[-100], 1)
	assert.Len(t, f.publisher.digests[6], 1)
	assert.Empty(t, f.publisher.digests[5])
}

func TestScheduler_SendReport(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	f.users.users[5] = &userdomain.User{ID: 5, Username: "alice", LastSeen: now.Add(-time.Hour)}
	f.users.users[6] = &userdomain.User{ID: 6, LastSeen: now.Add(-72 * time.Hour)}

	reporter := &fakeReporter{due: true}
	scheduler := NewScheduler(f.cfg, f.service, f.users, reporter)
	scheduler.now = func() time.Time { return now }

	scheduler.SendReport(context.Background())
	scheduler.SendReport(context.Background())

	assert.Equal(t, []string{"report"}, f.publisher.texts[900])
	assert.Equal(t, 1, reporter.reported)
	assert.Equal(t, []int{30}, reporter.cleaned)
	assert.Equal(t, []string{"alice"}, reporter.names)
}

func TestScheduler_ReportNotMarkedWhenDeliveryFails(t *testing.T) {
	f := newFixture(t)
	f.publisher.failFor[900] = true

	reporter := &fakeReporter{due: true}
	scheduler := NewScheduler(f.cfg, f.service, f.users, reporter)
	scheduler.SendReport(context.Background())

	assert.Zero(t, reporter.reported)
	assert.True(t, reporter.due)
}

func TestScheduler_StartAnnouncesAndStops(t *testing.T) {
	f := newFixture(t)
	scheduler := NewScheduler(f.cfg, f.service, f.users, &fakeReporter{})

	require.NoError(t, scheduler.Start(context.Background()))
	scheduler.Stop()

	require.Len(t, f.publisher.texts[-100], 1)
	assert.Contains(t, f.publisher.texts[-100][0], "Scheduled for 08:00 daily")
	assert.Contains(t, f.publisher.texts[-100][0], "RSS Feeds: 2 sources")
}

func TestScheduler_StartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	f.cfg.ScheduleTime = "8 o'clock"

	scheduler := NewScheduler(f.cfg, f.service, f.users, nil)
	assert.Error(t, scheduler.Start(context.Background()))
}
