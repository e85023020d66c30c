package entity

import (
	"fmt"
	"time"
)

// DayLayout is the storage and wire format of calendar day keys.
const DayLayout = "2006-01-02"

// Calendar converts instants into civil days of the engine's timezone so that
// bucket boundaries never flap within a day.
type Calendar struct {
	Location *time.Location
}

// NewCalendar resolves an IANA zone name; empty means UTC.
func NewCalendar(zone string) (Calendar, error) {
	if zone == "" {
		return Calendar{Location: time.UTC}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Calendar{}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return Calendar{Location: loc}, nil
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Day returns the day key of t.
func (c Calendar) Day(t time.Time) string {
	return t.In(c.loc()).Format(DayLayout)
}

// SameDay reports whether a and b fall on the same civil day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.Day(a) == c.Day(b)
}

// DaysBetween counts whole civil days from `from` to `to`.
func (c Calendar) DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.In(c.loc()).Date()
	ty, tm, td := to.In(c.loc()).Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Counters are the three outcome tallies kept per day and pool, and per session.
type Counters struct {
	Correct   int `json:"correct"`
	Hint      int `json:"hint"`
	Incorrect int `json:"incorrect"`
}

// Add increments exactly one counter.
func (c *Counters) Add(o Outcome) {
	switch o {
	case OutcomeCorrect:
		c.Correct++
	case OutcomeHintCorrect:
		c.Hint++
	case OutcomeIncorrect:
		c.Incorrect++
	}
}

// Total is the number of answers counted.
func (c Counters) Total() int { return c.Correct + c.Hint + c.Incorrect }

// DailyStat is one (learner, day, pool) row of the aggregator.
type DailyStat struct {
	LearnerID int64
	Day       string
	Pool      Pool
	Counters
}

// DailyStatRow is the per-day view over all pools served by the monthly query.
type DailyStatRow struct {
	Date   string
	Today  Counters
	Review Counters
	Weak   Counters
}

// Counters returns the tallies of one pool.
func (r *DailyStatRow) Counters(pool Pool) *Counters {
	switch pool {
	case PoolToday:
		return &r.Today
	case PoolReview:
		return &r.Review
	case PoolWeak:
		return &r.Weak
	default:
		return nil
	}
}

// Answer is one ledger entry; DailyStat counters are exactly the count of ledger rows.
type Answer struct {
	ID           int64
	LearnerID    int64
	WordID       int64
	SubmissionID string
	Pool         Pool
	Outcome      Outcome
	Day          string
	AnsweredAt   time.Time
}
