package scheduler

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memState is an in-memory StateStore.
type memState struct {
	m       map[string]string
	failAll bool
}

func newMemState() *memState { return &memState{m: make(map[string]string)} }

func (s *memState) GetState(key string) (string, error) {
	if s.failAll {
		return "", errors.New("storage down")
	}
	return s.m[key], nil
}

func (s *memState) SetState(key, value string) error {
	if s.failAll {
		return errors.New("storage down")
	}
	s.m[key] = value
	return nil
}

func quietLogger() *log.Logger { return log.New(&strings.Builder{}, "", 0) }

func jst(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func newTestGuard(t *testing.T, store StateStore, slot Slot) *Guard {
	t.Helper()
	g, err := NewGuard(store, slot, jst(t), quietLogger())
	require.NoError(t, err)
	return g
}

func TestGuardDue(t *testing.T) {
	loc := jst(t)
	day := func(hh, mm int) time.Time {
		return time.Date(2026, 8, 28, hh, mm, 0, 0, loc)
	}

	tests := []struct {
		name        string
		slot        Slot
		lastSuccess string
		now         time.Time
		due         bool
	}{
		{"before slot time", Slot{Name: "m", At: "07:30"}, "", day(7, 0), false},
		{"at slot time", Slot{Name: "m", At: "07:30"}, "", day(7, 30), true},
		{"after slot, no window", Slot{Name: "m", At: "07:30"}, "", day(22, 0), true},
		{"inside catch-up window", Slot{Name: "m", At: "07:30", CatchUp: 45 * time.Minute}, "", day(8, 0), true},
		{"window closed", Slot{Name: "m", At: "07:30", CatchUp: 45 * time.Minute}, "", day(8, 16), false},
		{"already succeeded today", Slot{Name: "m", At: "07:30"}, "2026-08-28", day(9, 0), false},
		{"succeeded yesterday", Slot{Name: "m", At: "07:30"}, "2026-08-27", day(9, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemState()
			if tt.lastSuccess != "" {
				store.m["last_success:m"] = tt.lastSuccess
			}
			g := newTestGuard(t, store, tt.slot)
			assert.Equal(t, tt.due, g.Due(tt.now))
		})
	}
}

func TestGuardSameDaySuppressionAfterSuccess(t *testing.T) {
	loc := jst(t)
	store := newMemState()
	g := newTestGuard(t, store, Slot{Name: "noon", At: "12:30"})

	tick1 := time.Date(2026, 8, 28, 12, 30, 10, 0, loc)
	require.True(t, g.Due(tick1))
	g.MarkSuccess(tick1)

	tick2 := tick1.Add(time.Minute)
	assert.False(t, g.Due(tick2), "second tick after a success never re-fires")

	nextDay := tick1.Add(24 * time.Hour)
	assert.True(t, g.Due(nextDay), "date rollover re-arms the slot")
}

func TestGuardFailedAttemptRetriesWithinWindow(t *testing.T) {
	loc := jst(t)
	store := newMemState()
	g := newTestGuard(t, store, Slot{Name: "noon", At: "12:30", CatchUp: time.Hour})

	tick1 := time.Date(2026, 8, 28, 12, 30, 0, 0, loc)
	require.True(t, g.Due(tick1))
	g.MarkAttempt(tick1)
	// publication failed: no MarkSuccess

	assert.True(t, g.Due(tick1.Add(time.Minute)), "attempt without success does not gate")
	assert.False(t, g.Due(tick1.Add(2*time.Hour)), "catch-up window still applies")
}

func TestGuardStorageOutageDegradesToDue(t *testing.T) {
	loc := jst(t)
	store := newMemState()
	store.failAll = true
	g := newTestGuard(t, store, Slot{Name: "m", At: "07:30"})

	now := time.Date(2026, 8, 28, 8, 0, 0, 0, loc)
	assert.True(t, g.Due(now), "unreadable state favors posting over skipping")
	g.MarkSuccess(now) // must not panic, only log
}

func TestGuardTimezoneBoundary(t *testing.T) {
	// 23:50 JST on the 28th is 14:50 UTC; the guard must compare calendar
	// days in its own timezone, not the system's.
	store := newMemState()
	store.m["last_success:m"] = "2026-08-28"
	g := newTestGuard(t, store, Slot{Name: "m", At: "06:00"})

	utc := time.Date(2026, 8, 28, 14, 50, 0, 0, time.UTC)
	assert.False(t, g.Due(utc), "still the 28th in JST")

	utcLater := time.Date(2026, 8, 28, 21, 10, 0, 0, time.UTC) // 06:10 JST on the 29th
	assert.True(t, g.Due(utcLater))
}

func TestNewGuardValidation(t *testing.T) {
	_, err := NewGuard(nil, Slot{Name: "x", At: "07:30"}, nil, nil)
	assert.Error(t, err, "store required")

	_, err = NewGuard(newMemState(), Slot{Name: "x", At: "7h30"}, nil, nil)
	assert.Error(t, err, "slot time must parse")
}

func TestRunnerMarksSuccessOnConfirmedHead(t *testing.T) {
	loc := jst(t)
	store := newMemState()
	g := newTestGuard(t, store, Slot{Name: "noon", At: "12:30"})

	calls := 0
	r := NewRunner([]Entry{{Guard: g, Job: func(ctx context.Context, slot Slot) (string, error) {
		calls++
		return "head-1", nil
	}}}, time.Minute, quietLogger())
	r.now = func() time.Time { return time.Date(2026, 8, 28, 12, 31, 0, 0, loc) }

	r.Tick(context.Background())
	r.Tick(context.Background())

	assert.Equal(t, 1, calls, "success suppresses the second tick")
	assert.Equal(t, "2026-08-28", store.m["last_success:noon"])
	assert.NotEmpty(t, store.m["last_attempt:noon"])
}

func TestRunnerPartialChainStillCountsAsSuccess(t *testing.T) {
	loc := jst(t)
	store := newMemState()
	g := newTestGuard(t, store, Slot{Name: "noon", At: "12:30"})

	r := NewRunner([]Entry{{Guard: g, Job: func(ctx context.Context, slot Slot) (string, error) {
		return "head-1", errors.New("reply 2/3 failed")
	}}}, time.Minute, quietLogger())
	r.now = func() time.Time { return time.Date(2026, 8, 28, 12, 31, 0, 0, loc) }

	r.Tick(context.Background())

	assert.Equal(t, "2026-08-28", store.m["last_success:noon"],
		"a live head post must never be duplicated by a retry")
}

func TestRunnerSlowJobCrossingMidnightRecordsTickDay(t *testing.T) {
	// The tick fires at 23:59 but the job only confirms its head post after
	// midnight. Success must be stamped with the day the guard was gated
	// on, or the next day's slot would be silently suppressed.
	loc := jst(t)
	store := newMemState()
	g := newTestGuard(t, store, Slot{Name: "night", At: "21:30"})

	clock := time.Date(2026, 8, 28, 23, 59, 0, 0, loc)
	r := NewRunner([]Entry{{Guard: g, Job: func(ctx context.Context, slot Slot) (string, error) {
		clock = time.Date(2026, 8, 29, 0, 1, 0, 0, loc)
		return "head-1", nil
	}}}, time.Minute, quietLogger())
	r.now = func() time.Time { return clock }

	r.Tick(context.Background())

	assert.Equal(t, "2026-08-28", store.m["last_success:night"])
	assert.True(t, g.Due(time.Date(2026, 8, 29, 21, 31, 0, 0, loc)),
		"the next day's slot stays armed")
}

func TestRunnerFailureLeavesSlotRetryable(t *testing.T) {
	loc := jst(t)
	store := newMemState()
	g := newTestGuard(t, store, Slot{Name: "noon", At: "12:30"})

	calls := 0
	r := NewRunner([]Entry{{Guard: g, Job: func(ctx context.Context, slot Slot) (string, error) {
		calls++
		return "", errors.New("generation outage")
	}}}, time.Minute, quietLogger())
	r.now = func() time.Time { return time.Date(2026, 8, 28, 12, 31, 0, 0, loc) }

	r.Tick(context.Background())
	r.Tick(context.Background())

	assert.Equal(t, 2, calls, "failed runs retry on later ticks")
	assert.Empty(t, store.m["last_success:noon"])
}
