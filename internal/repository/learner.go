package repository

import (
	"context"

	"github.com/eslsoft/vocdrill/internal/entity"
)

// LearnerRepository abstracts persistence for learner and guardian accounts.
type LearnerRepository interface {
	Create(ctx context.Context, learner *entity.Learner) (*entity.Learner, error)
	GetByID(ctx context.Context, id int64) (*entity.Learner, error)
	FindByName(ctx context.Context, name string) (*entity.Learner, error)
	List(ctx context.Context, guardianID *int64) ([]*entity.Learner, error)
	// Delete removes the learner together with records, ledger and stats.
	Delete(ctx context.Context, id int64) error
}
