package entity

import (
	"math"
	"time"
)

// LearningRecord is the durable per-learner-per-word study history. It is created by
// the first answer for the pair and mutated exactly once per submitted answer.
type LearningRecord struct {
	LearnerID      int64
	WordID         int64
	FirstStudiedAt time.Time
	LastStudiedAt  time.Time
	LastSuccessAt  *time.Time // last correct or hint-correct answer, any pool
	TotalAttempts  int
	CorrectCount   int // matched without hint
	HintCount      int // matched with hint
}

// IncorrectCount is derived; the three outcome counters always sum to TotalAttempts.
func (r *LearningRecord) IncorrectCount() int {
	return r.TotalAttempts - r.CorrectCount - r.HintCount
}

// Accuracy is CorrectCount / TotalAttempts, or 0 when nothing was attempted.
func (r *LearningRecord) Accuracy() float64 {
	if r.TotalAttempts == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.TotalAttempts)
}

// RoundedAccuracy is Accuracy rounded to three decimals for presentation.
func (r *LearningRecord) RoundedAccuracy() float64 {
	return math.Round(r.Accuracy()*1000) / 1000
}

// Apply folds one outcome into the record. A zero record becomes the first study.
func (r *LearningRecord) Apply(outcome Outcome, at time.Time) {
	if r.TotalAttempts == 0 && r.FirstStudiedAt.IsZero() {
		r.FirstStudiedAt = at
	}
	r.LastStudiedAt = at
	r.TotalAttempts++
	switch outcome {
	case OutcomeCorrect:
		r.CorrectCount++
	case OutcomeHintCorrect:
		r.HintCount++
	}
	if outcome.IsSuccess() {
		ts := at
		r.LastSuccessAt = &ts
	}
}

// WeakPolicy holds the thresholds that make a word weak.
type WeakPolicy struct {
	MinAttempts int
	MaxAccuracy float64
}

// DefaultWeakPolicy flags words tried at least 3 times with at most 60% accuracy.
var DefaultWeakPolicy = WeakPolicy{MinAttempts: 3, MaxAccuracy: 0.6}

// IsWeak is a pure function of the record counters.
func (p WeakPolicy) IsWeak(r *LearningRecord) bool {
	if r == nil || r.TotalAttempts == 0 || r.TotalAttempts < p.MinAttempts {
		return false
	}
	return r.Accuracy() <= p.MaxAccuracy
}

// Submission is one graded answer ready to be recorded.
type Submission struct {
	LearnerID    int64
	WordID       int64
	SubmissionID string
	Pool         Pool
	Outcome      Outcome
	AnsweredAt   time.Time
	Day          string
}

// SubmissionResult is what Submit persisted. A replayed result carries the outcome
// stored for the original submission and no state was changed.
type SubmissionResult struct {
	Outcome  Outcome
	Replayed bool
}
