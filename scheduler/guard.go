// Package scheduler holds the daily publication guard and the polling loop
// that drives the bots.
package scheduler

import (
	"fmt"
	"log"
	"time"
)

// dateLayout is the calendar-date form persisted by the guard.
const dateLayout = "2006-01-02"

// StateStore is the slice of the durable store a guard needs.
type StateStore interface {
	GetState(key string) (string, error)
	SetState(key, value string) error
}

// Slot is one scheduled publication time.
type Slot struct {
	Name string // state key component, unique per guard
	At   string // wall-clock "15:04" in the guard's timezone
	// CatchUp bounds how late after At an attempt may still fire. Zero
	// means the rest of the calendar day (a restart hours later still
	// publishes, the next day does not double up).
	CatchUp time.Duration
}

// Guard enforces at most one successful publication per slot per calendar
// day. It gates on the persisted last-success date, so a failed attempt may
// be retried by a later tick inside the catch-up window, while a recorded
// success suppresses the slot until the date rolls over.
type Guard struct {
	store  StateStore
	slot   Slot
	loc    *time.Location
	logger *log.Logger
}

// NewGuard builds a guard for one slot. loc fixes the civil timezone all
// calendar-day comparisons use.
func NewGuard(store StateStore, slot Slot, loc *time.Location, logger *log.Logger) (*Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("guard %s: store is required", slot.Name)
	}
	if _, err := time.Parse("15:04", slot.At); err != nil {
		return nil, fmt.Errorf("guard %s: invalid slot time %q: %w", slot.Name, slot.At, err)
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{store: store, slot: slot, loc: loc, logger: logger}, nil
}

// Slot returns the slot this guard watches.
func (g *Guard) Slot() Slot { return g.slot }

// Due reports whether a publication attempt should happen now: the slot time
// has passed, the catch-up window has not closed, and no success is recorded
// for today. A storage read failure degrades to "no record", favoring a
// possible duplicate over a silently skipped day.
func (g *Guard) Due(now time.Time) bool {
	now = now.In(g.loc)

	slotClock, _ := time.Parse("15:04", g.slot.At)
	slotToday := time.Date(now.Year(), now.Month(), now.Day(),
		slotClock.Hour(), slotClock.Minute(), 0, 0, g.loc)

	if now.Before(slotToday) {
		return false
	}
	if g.slot.CatchUp > 0 && now.After(slotToday.Add(g.slot.CatchUp)) {
		return false
	}

	last, err := g.store.GetState(g.successKey())
	if err != nil {
		g.logger.Printf("[guard %s] state read failed, assuming no prior success: %v", g.slot.Name, err)
		last = ""
	}
	return last != now.Format(dateLayout)
}

// MarkAttempt records that an attempt started. Attempts are informational
// (visible in status output); they do not gate re-runs.
func (g *Guard) MarkAttempt(now time.Time) {
	now = now.In(g.loc)
	if err := g.store.SetState(g.attemptKey(), now.Format(time.RFC3339)); err != nil {
		g.logger.Printf("[guard %s] attempt record failed (non-fatal): %v", g.slot.Name, err)
	}
}

// MarkSuccess records today as published, suppressing the slot until the
// date rolls over. Called once the first post of the chain is confirmed.
func (g *Guard) MarkSuccess(now time.Time) {
	now = now.In(g.loc)
	if err := g.store.SetState(g.successKey(), now.Format(dateLayout)); err != nil {
		g.logger.Printf("[guard %s] success record failed (non-fatal): %v", g.slot.Name, err)
	}
}

func (g *Guard) successKey() string { return "last_success:" + g.slot.Name }
func (g *Guard) attemptKey() string { return "last_attempt:" + g.slot.Name }
