package usecase

import (
	"sort"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
)

// Review and weak recency bucket boundaries in civil days since the last study.
const (
	weekDays  = 8
	monthDays = 31
)

// Policy bundles the tunables of pool classification.
type Policy struct {
	DailyBatchSize int
	QuizBatchSize  int
	Weak           entity.WeakPolicy
	Calendar       entity.Calendar
}

// DefaultPolicy returns the stock thresholds on a UTC calendar.
func DefaultPolicy() Policy {
	return Policy{
		DailyBatchSize: 10,
		QuizBatchSize:  10,
		Weak:           entity.DefaultWeakPolicy,
		Calendar:       entity.Calendar{Location: time.UTC},
	}
}

// MenuStatus holds the counts shown on the learner's menu.
type MenuStatus struct {
	Today           int  `json:"today"`
	ReviewWeek      int  `json:"review_week"`
	ReviewMonth     int  `json:"review_month"`
	ReviewOverMonth int  `json:"review_over_month"`
	ReviewAll       int  `json:"review_all"`
	WeakMonth       int  `json:"weak_month"`
	WeakOverMonth   int  `json:"weak_over_month"`
	WeakAll         int  `json:"weak_all"`
	StudiedToday    bool `json:"studied_today"`
}

// Categorizer assigns words to pools. It is a pure function of its inputs and the
// instant passed in.
type Categorizer struct {
	policy Policy
}

// NewCategorizer builds a categorizer for the given policy.
func NewCategorizer(policy Policy) *Categorizer {
	return &Categorizer{policy: policy}
}

// Policy exposes the active policy.
func (c *Categorizer) Policy() Policy { return c.policy }

// TodayEligible reports whether a word may enter today's batch: never studied, or
// first studied on the current civil day.
func (c *Categorizer) TodayEligible(rec *entity.LearningRecord, now time.Time) bool {
	if rec == nil || rec.TotalAttempts == 0 {
		return true
	}
	return c.policy.Calendar.SameDay(rec.FirstStudiedAt, now)
}

// TodayBatch picks up to limit eligible words from an ordered catalog page.
func (c *Categorizer) TodayBatch(catalog []*entity.Word, records map[int64]*entity.LearningRecord, now time.Time, limit int) []*entity.Word {
	batch := make([]*entity.Word, 0, limit)
	for _, w := range catalog {
		if len(batch) >= limit {
			break
		}
		if c.TodayEligible(records[w.ID], now) {
			batch = append(batch, w)
		}
	}
	return batch
}

// TodayRemaining counts batch words without a successful answer today.
func (c *Categorizer) TodayRemaining(batch []*entity.Word, records map[int64]*entity.LearningRecord, now time.Time) int {
	remaining := 0
	for _, w := range batch {
		rec := records[w.ID]
		if rec == nil || rec.LastSuccessAt == nil || !c.policy.Calendar.SameDay(*rec.LastSuccessAt, now) {
			remaining++
		}
	}
	return remaining
}

// daysSince is the civil day distance between the last study and now.
func (c *Categorizer) daysSince(rec *entity.LearningRecord, now time.Time) int {
	return c.policy.Calendar.DaysBetween(rec.LastStudiedAt, now)
}

// InReview reports whether the record falls into the review bucket.
func (c *Categorizer) InReview(rec *entity.LearningRecord, period entity.Period, now time.Time) bool {
	if rec == nil || rec.TotalAttempts == 0 {
		return false
	}
	d := c.daysSince(rec, now)
	switch period {
	case entity.PeriodWeek:
		return d >= 1 && d < weekDays
	case entity.PeriodMonth:
		return d >= weekDays && d < monthDays
	case entity.PeriodOverMonth:
		return d >= monthDays
	case entity.PeriodAll:
		return d >= 1
	default:
		return false
	}
}

// InWeak reports whether the record is weak and falls into the bucket.
func (c *Categorizer) InWeak(rec *entity.LearningRecord, period entity.Period, now time.Time) bool {
	if !c.policy.Weak.IsWeak(rec) {
		return false
	}
	d := c.daysSince(rec, now)
	switch period {
	case entity.PeriodMonth:
		return d < monthDays
	case entity.PeriodOverMonth:
		return d >= monthDays
	case entity.PeriodAll:
		return true
	default:
		return false
	}
}

// ReviewBatch returns review records oldest study first, ties by word id.
func (c *Categorizer) ReviewBatch(records []*entity.LearningRecord, period entity.Period, now time.Time) []*entity.LearningRecord {
	picked := filterRecords(records, func(r *entity.LearningRecord) bool { return c.InReview(r, period, now) })
	sort.SliceStable(picked, func(i, j int) bool {
		a, b := picked[i], picked[j]
		if !a.LastStudiedAt.Equal(b.LastStudiedAt) {
			return a.LastStudiedAt.Before(b.LastStudiedAt)
		}
		return a.WordID < b.WordID
	})
	return limitRecords(picked, c.policy.QuizBatchSize)
}

// WeakBatch returns weak records lowest accuracy first, ties by word id.
func (c *Categorizer) WeakBatch(records []*entity.LearningRecord, period entity.Period, now time.Time) []*entity.LearningRecord {
	picked := filterRecords(records, func(r *entity.LearningRecord) bool { return c.InWeak(r, period, now) })
	sort.SliceStable(picked, func(i, j int) bool {
		a, b := picked[i], picked[j]
		if a.Accuracy() != b.Accuracy() {
			return a.Accuracy() < b.Accuracy()
		}
		return a.WordID < b.WordID
	})
	return limitRecords(picked, c.policy.QuizBatchSize)
}

// Status computes the menu counters. todayBatch is the day's batch from TodayBatch.
func (c *Categorizer) Status(todayBatch []*entity.Word, records []*entity.LearningRecord, studiedToday bool, now time.Time) MenuStatus {
	byWord := indexRecords(records)
	status := MenuStatus{
		Today:        c.TodayRemaining(todayBatch, byWord, now),
		StudiedToday: studiedToday,
	}
	for _, rec := range records {
		if c.InReview(rec, entity.PeriodAll, now) {
			status.ReviewAll++
			switch {
			case c.InReview(rec, entity.PeriodWeek, now):
				status.ReviewWeek++
			case c.InReview(rec, entity.PeriodMonth, now):
				status.ReviewMonth++
			default:
				status.ReviewOverMonth++
			}
		}
		if c.InWeak(rec, entity.PeriodAll, now) {
			status.WeakAll++
			if c.InWeak(rec, entity.PeriodMonth, now) {
				status.WeakMonth++
			} else {
				status.WeakOverMonth++
			}
		}
	}
	return status
}

func indexRecords(records []*entity.LearningRecord) map[int64]*entity.LearningRecord {
	out := make(map[int64]*entity.LearningRecord, len(records))
	for _, r := range records {
		out[r.WordID] = r
	}
	return out
}

func filterRecords(records []*entity.LearningRecord, keep func(*entity.LearningRecord) bool) []*entity.LearningRecord {
	out := make([]*entity.LearningRecord, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func limitRecords(records []*entity.LearningRecord, limit int) []*entity.LearningRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
