package app

import (
	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

// providePolicy builds the classification policy from the learning config section.
func providePolicy(cfg *config.Config) (usecase.Policy, error) {
	cal, err := entity.NewCalendar(cfg.Learning.Timezone)
	if err != nil {
		return usecase.Policy{}, err
	}
	return usecase.Policy{
		DailyBatchSize: cfg.Learning.DailyBatchSize,
		QuizBatchSize:  cfg.Learning.QuizBatchSize,
		Weak: entity.WeakPolicy{
			MinAttempts: cfg.Learning.WeakMinAttempts,
			MaxAccuracy: cfg.Learning.WeakMaxAccuracy,
		},
		Calendar: cal,
	}, nil
}
