package usecase

import (
	"context"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
)

// LearnerStatus summarises a learner's stored history.
type LearnerStatus struct {
	Learner       *entity.Learner
	Records       int
	Answers       int
	WeakWords     int
	LastStudiedAt *time.Time
	Today         entity.Counters
}

// MaintenanceUsecase backs the development commands.
type MaintenanceUsecase interface {
	Status(ctx context.Context, learnerID int64) (*LearnerStatus, error)
	// Shift moves the learner's history by days (negative moves it into the past).
	Shift(ctx context.Context, learnerID int64, days int) (int, error)
}

// NewMaintenanceUsecase constructs the development helpers.
func NewMaintenanceUsecase(learners repository.LearnerRepository, learning repository.LearningRepository, policy Policy) MaintenanceUsecase {
	return &maintenanceUsecase{learners: learners, learning: learning, policy: policy, clock: time.Now}
}

type maintenanceUsecase struct {
	learners repository.LearnerRepository
	learning repository.LearningRepository
	policy   Policy
	clock    func() time.Time
}

func (u *maintenanceUsecase) Status(ctx context.Context, learnerID int64) (*LearnerStatus, error) {
	learner, err := u.learners.GetByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	records, err := u.learning.ListRecords(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	answers, err := u.learning.ListAnswers(ctx, learnerID, "", "")
	if err != nil {
		return nil, err
	}

	status := &LearnerStatus{Learner: learner, Records: len(records), Answers: len(answers)}
	for _, rec := range records {
		if u.policy.Weak.IsWeak(rec) {
			status.WeakWords++
		}
		if status.LastStudiedAt == nil || rec.LastStudiedAt.After(*status.LastStudiedAt) {
			ts := rec.LastStudiedAt
			status.LastStudiedAt = &ts
		}
	}
	today := u.policy.Calendar.Day(u.clock())
	for _, a := range answers {
		if a.Day == today {
			status.Today.Add(a.Outcome)
		}
	}
	return status, nil
}

func (u *maintenanceUsecase) Shift(ctx context.Context, learnerID int64, days int) (int, error) {
	if _, err := u.learners.GetByID(ctx, learnerID); err != nil {
		return 0, err
	}
	by := time.Duration(days) * 24 * time.Hour
	return u.learning.Shift(ctx, learnerID, by, u.policy.Calendar.Day)
}
