package entity

import (
	"fmt"
	"strings"
)

// Pool classifies which words a learner should currently study.
type Pool string

const (
	PoolToday  Pool = "today"
	PoolReview Pool = "review"
	PoolWeak   Pool = "weak"
)

// Pools lists every pool in reporting order.
var Pools = []Pool{PoolToday, PoolReview, PoolWeak}

// ParsePool converts an arbitrary string into a Pool.
func ParsePool(s string) (Pool, error) {
	switch Pool(strings.ToLower(strings.TrimSpace(s))) {
	case PoolToday:
		return PoolToday, nil
	case PoolReview:
		return PoolReview, nil
	case PoolWeak:
		return PoolWeak, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPool, s)
	}
}

// Period is a recency bucket inside the review or weak pool.
type Period string

const (
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodOverMonth Period = "over_month"
	PeriodAll       Period = "all"
)

// ParsePeriod validates a period for the given pool. An empty string means PeriodAll.
// The weak pool has no week bucket.
func ParsePeriod(pool Pool, s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PeriodAll, nil
	}
	switch pool {
	case PoolReview:
		switch p {
		case PeriodWeek, PeriodMonth, PeriodOverMonth, PeriodAll:
			return p, nil
		}
	case PoolWeak:
		switch p {
		case PeriodMonth, PeriodOverMonth, PeriodAll:
			return p, nil
		}
	case PoolToday:
		if p == PeriodAll {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q for pool %s", ErrInvalidPeriod, s, pool)
}

// Outcome is the three-way result of one answer submission.
type Outcome string

const (
	OutcomeCorrect     Outcome = "correct"
	OutcomeHintCorrect Outcome = "hint_correct"
	OutcomeIncorrect   Outcome = "incorrect"
)

// Outcomes lists every outcome.
var Outcomes = []Outcome{OutcomeCorrect, OutcomeHintCorrect, OutcomeIncorrect}

// IsSuccess reports whether the answer matched, with or without hint.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeCorrect || o == OutcomeHintCorrect
}

// ParseOutcome converts a stored outcome string.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeCorrect, OutcomeHintCorrect, OutcomeIncorrect:
		return Outcome(s), nil
	default:
		return "", fmt.Errorf("unknown outcome %q", s)
	}
}
