package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
)

// LearnerUsecase manages accounts and guardian scoping.
type LearnerUsecase interface {
	Register(ctx context.Context, name string, role entity.Role, guardianID *int64) (*entity.Learner, error)
	Get(ctx context.Context, id int64) (*entity.Learner, error)
	FindByName(ctx context.Context, name string) (*entity.Learner, error)
	List(ctx context.Context) ([]*entity.Learner, error)
	Delete(ctx context.Context, id int64) error

	ListDependents(ctx context.Context, guardian entity.Principal) ([]*entity.Learner, error)
	AddDependent(ctx context.Context, guardian entity.Principal, name string) (*entity.Learner, error)
	RemoveDependent(ctx context.Context, guardian entity.Principal, learnerID int64) error
	// ResolveViewable returns the learner whose read-only views the principal may see:
	// itself, or one of a guardian's dependents.
	ResolveViewable(ctx context.Context, principal entity.Principal, learnerID int64) (*entity.Learner, error)
	// Authenticate confirms that the principal's account still exists with that role.
	Authenticate(ctx context.Context, principal entity.Principal) (entity.Principal, error)
}

// NewLearnerUsecase constructs the learner directory.
func NewLearnerUsecase(repo repository.LearnerRepository) LearnerUsecase {
	return &learnerUsecase{repo: repo, clock: time.Now}
}

type learnerUsecase struct {
	repo  repository.LearnerRepository
	clock func() time.Time
}

func (u *learnerUsecase) Register(ctx context.Context, name string, role entity.Role, guardianID *int64) (*entity.Learner, error) {
	l := &entity.Learner{Name: strings.TrimSpace(name), Role: role, GuardianID: guardianID, CreatedAt: u.clock()}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if guardianID != nil {
		guardian, err := u.repo.GetByID(ctx, *guardianID)
		if errors.Is(err, entity.ErrLearnerNotFound) {
			return nil, entity.ErrInvalidLearnerRef
		}
		if err != nil {
			return nil, err
		}
		if guardian.Role != entity.RoleGuardian {
			return nil, entity.ErrInvalidLearnerRef
		}
	}
	return u.repo.Create(ctx, l)
}

func (u *learnerUsecase) Get(ctx context.Context, id int64) (*entity.Learner, error) {
	if id <= 0 {
		return nil, entity.ErrLearnerNotFound
	}
	return u.repo.GetByID(ctx, id)
}

func (u *learnerUsecase) FindByName(ctx context.Context, name string) (*entity.Learner, error) {
	return u.repo.FindByName(ctx, strings.TrimSpace(name))
}

func (u *learnerUsecase) List(ctx context.Context) ([]*entity.Learner, error) {
	return u.repo.List(ctx, nil)
}

func (u *learnerUsecase) Delete(ctx context.Context, id int64) error {
	return u.repo.Delete(ctx, id)
}

func (u *learnerUsecase) ListDependents(ctx context.Context, guardian entity.Principal) ([]*entity.Learner, error) {
	if guardian.Role != entity.RoleGuardian {
		return nil, entity.ErrForbidden
	}
	return u.repo.List(ctx, &guardian.LearnerID)
}

func (u *learnerUsecase) AddDependent(ctx context.Context, guardian entity.Principal, name string) (*entity.Learner, error) {
	if guardian.Role != entity.RoleGuardian {
		return nil, entity.ErrForbidden
	}
	return u.Register(ctx, name, entity.RoleLearner, &guardian.LearnerID)
}

func (u *learnerUsecase) RemoveDependent(ctx context.Context, guardian entity.Principal, learnerID int64) error {
	if _, err := u.dependent(ctx, guardian, learnerID); err != nil {
		return err
	}
	return u.repo.Delete(ctx, learnerID)
}

func (u *learnerUsecase) ResolveViewable(ctx context.Context, principal entity.Principal, learnerID int64) (*entity.Learner, error) {
	if principal.LearnerID == learnerID {
		return u.Get(ctx, learnerID)
	}
	return u.dependent(ctx, principal, learnerID)
}

func (u *learnerUsecase) Authenticate(ctx context.Context, principal entity.Principal) (entity.Principal, error) {
	l, err := u.Get(ctx, principal.LearnerID)
	if errors.Is(err, entity.ErrLearnerNotFound) {
		return entity.Principal{}, entity.ErrUnauthenticated
	}
	if err != nil {
		return entity.Principal{}, err
	}
	if principal.Role != "" && principal.Role != l.Role {
		return entity.Principal{}, entity.ErrUnauthenticated
	}
	return entity.Principal{LearnerID: l.ID, Role: l.Role}, nil
}

// dependent hides learners outside the guardian's scope as not found.
func (u *learnerUsecase) dependent(ctx context.Context, guardian entity.Principal, learnerID int64) (*entity.Learner, error) {
	if guardian.Role != entity.RoleGuardian {
		return nil, entity.ErrForbidden
	}
	l, err := u.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if !l.IsDependentOf(guardian.LearnerID) {
		return nil, entity.ErrLearnerNotFound
	}
	return l, nil
}
