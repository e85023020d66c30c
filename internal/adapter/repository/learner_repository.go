package repository

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
)

var learnerColumns = []string{"id", "name", "role", "guardian_id", "created_at"}

type LearnerRepository struct {
	store
}

// NewLearnerRepository constructs a learner directory repository.
func NewLearnerRepository(drv *entsql.Driver) repository.LearnerRepository {
	return &LearnerRepository{store: store{drv: drv}}
}

func (r *LearnerRepository) Create(ctx context.Context, l *entity.Learner) (*entity.Learner, error) {
	created := *l
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	var guardian any
	if created.GuardianID != nil {
		guardian = *created.GuardianID
	}
	ins := r.sql().Insert("learners").
		Columns("name", "role", "guardian_id", "created_at").
		Values(created.Name, string(created.Role), guardian, created.CreatedAt)
	id, err := r.insertID(ctx, r.db(), ins)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, entity.ErrDuplicateLearner
		}
		return nil, fmt.Errorf("create learner: %w", err)
	}
	created.ID = id
	return &created, nil
}

func (r *LearnerRepository) GetByID(ctx context.Context, id int64) (*entity.Learner, error) {
	return r.getOne(ctx, entsql.EQ("id", id))
}

func (r *LearnerRepository) FindByName(ctx context.Context, name string) (*entity.Learner, error) {
	return r.getOne(ctx, entsql.EQ("name", name))
}

func (r *LearnerRepository) List(ctx context.Context, guardianID *int64) ([]*entity.Learner, error) {
	sel := r.sql().Select(learnerColumns...).From(entsql.Table("learners")).OrderBy("id")
	if guardianID != nil {
		sel.Where(entsql.EQ("guardian_id", *guardianID))
	}
	query, args := sel.Query()
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	defer rows.Close()

	learners := []*entity.Learner{}
	for rows.Next() {
		l, err := scanLearner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan learner: %w", err)
		}
		learners = append(learners, l)
	}
	return learners, rows.Err()
}

func (r *LearnerRepository) Delete(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *stdsql.Tx) error {
		for _, table := range []string{"answers", "daily_stats", "learning_records"} {
			if _, err := exec(ctx, tx, r.sql().Delete(table).Where(entsql.EQ("learner_id", id))); err != nil {
				return fmt.Errorf("delete %s of learner %d: %w", table, id, err)
			}
		}
		if _, err := exec(ctx, tx, r.sql().Update("learners").SetNull("guardian_id").Where(entsql.EQ("guardian_id", id))); err != nil {
			return fmt.Errorf("detach dependents of learner %d: %w", id, err)
		}
		n, err := exec(ctx, tx, r.sql().Delete("learners").Where(entsql.EQ("id", id)))
		if err != nil {
			return fmt.Errorf("delete learner %d: %w", id, err)
		}
		if n == 0 {
			return entity.ErrLearnerNotFound
		}
		return nil
	})
}

func (r *LearnerRepository) getOne(ctx context.Context, p *entsql.Predicate) (*entity.Learner, error) {
	query, args := r.sql().Select(learnerColumns...).
		From(entsql.Table("learners")).
		Where(p).
		Query()
	l, err := scanLearner(r.db().QueryRowContext(ctx, query, args...))
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, entity.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}
	return l, nil
}

func scanLearner(row rowScanner) (*entity.Learner, error) {
	var (
		l        entity.Learner
		role     string
		guardian stdsql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.Name, &role, &guardian, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Role = entity.Role(role)
	if guardian.Valid {
		g := guardian.Int64
		l.GuardianID = &g
	}
	return &l, nil
}
