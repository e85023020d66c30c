package usecase

import (
	"context"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
)

// StatsUsecase reads the daily aggregates.
type StatsUsecase interface {
	MonthlyStats(ctx context.Context, learnerID int64, year, month int) ([]entity.DailyStatRow, error)
}

// NewStatsUsecase constructs the monthly stats reader.
func NewStatsUsecase(learning repository.LearningRepository) StatsUsecase {
	return &statsUsecase{learning: learning}
}

type statsUsecase struct {
	learning repository.LearningRepository
}

// MonthlyStats returns one row per calendar day of the month, zero-filled. Day keys
// are already in the engine timezone.
func (u *statsUsecase) MonthlyStats(ctx context.Context, learnerID int64, year, month int) ([]entity.DailyStatRow, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return nil, entity.ErrInvalidMonth
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	rows := make([]entity.DailyStatRow, days)
	index := make(map[string]*entity.DailyStatRow, days)
	for i := range rows {
		rows[i].Date = first.AddDate(0, 0, i).Format(entity.DayLayout)
		index[rows[i].Date] = &rows[i]
	}

	stats, err := u.learning.DailyStats(ctx, learnerID, rows[0].Date, rows[days-1].Date)
	if err != nil {
		return nil, err
	}
	for _, s := range stats {
		row, ok := index[s.Day]
		if !ok {
			continue
		}
		if c := row.Counters(s.Pool); c != nil {
			c.Correct += s.Correct
			c.Hint += s.Hint
			c.Incorrect += s.Incorrect
		}
	}
	return rows, nil
}
