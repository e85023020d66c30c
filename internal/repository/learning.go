package repository

import (
	"context"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
)

// LearningRepository persists learning records, the answer ledger and daily stats.
// Submit is the only writer and applies all three in a single transaction. It
// fails with entity.ErrSubmissionConflict when a submission id is reused for a
// different word or pool.
type LearningRepository interface {
	ListRecords(ctx context.Context, learnerID int64) ([]*entity.LearningRecord, error)
	Submit(ctx context.Context, sub *entity.Submission) (*entity.SubmissionResult, error)
	// DailyStats returns rows whose day key lies in [fromDay, toDay].
	DailyStats(ctx context.Context, learnerID int64, fromDay, toDay string) ([]entity.DailyStat, error)
	ListAnswers(ctx context.Context, learnerID int64, fromDay, toDay string) ([]entity.Answer, error)
	// Shift moves every timestamp of the learner by `by` and rebuilds day keys and
	// daily stats from the shifted ledger. Development tooling only.
	Shift(ctx context.Context, learnerID int64, by time.Duration, dayOf func(time.Time) string) (int, error)
}
