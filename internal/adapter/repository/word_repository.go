package repository

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/samber/lo"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/infrastructure/database/types"
	"github.com/eslsoft/vocdrill/internal/repository"
)

var wordColumns = []string{"id", "target_text", "prompt_text", "reading", "alternates", "section"}

type WordRepository struct {
	store
}

// NewWordRepository constructs a catalog repository on the ent SQL driver.
func NewWordRepository(drv *entsql.Driver) repository.WordRepository {
	return &WordRepository{store: store{drv: drv}}
}

func (r *WordRepository) GetByID(ctx context.Context, id int64) (*entity.Word, error) {
	query, args := r.sql().Select(wordColumns...).
		From(entsql.Table("words")).
		Where(entsql.EQ("id", id)).
		Query()
	w, err := scanWord(r.db().QueryRowContext(ctx, query, args...))
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, entity.ErrWordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get word %d: %w", id, err)
	}
	return w, nil
}

func (r *WordRepository) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Word, error) {
	if len(ids) == 0 {
		return []*entity.Word{}, nil
	}
	sel := r.sql().Select(wordColumns...).
		From(entsql.Table("words")).
		Where(entsql.In("id", lo.ToAnySlice(lo.Uniq(ids))...)).
		OrderBy("section", "id")
	return r.queryWords(ctx, sel)
}

func (r *WordRepository) List(ctx context.Context, q *repository.ListWordQuery) ([]*entity.Word, int64, error) {
	total, err := count(ctx, r.db(), r.sql().Select(entsql.Count("*")).From(entsql.Table("words")))
	if err != nil {
		return nil, 0, fmt.Errorf("count words: %w", err)
	}

	sel := r.sql().Select(wordColumns...).
		From(entsql.Table("words")).
		OrderBy("section", "id")
	if q != nil && q.Size > 0 {
		sel.Limit(q.Size).Offset(q.Offset())
	}
	words, err := r.queryWords(ctx, sel)
	if err != nil {
		return nil, 0, err
	}
	return words, total, nil
}

func (r *WordRepository) Import(ctx context.Context, words []*entity.Word) (int, int, error) {
	var imported, skipped int
	now := time.Now().UTC()
	err := r.withTx(ctx, func(tx *stdsql.Tx) error {
		for _, w := range words {
			ins := r.sql().Insert("words").
				Columns("target_text", "prompt_text", "reading", "alternates", "section", "created_at").
				Values(w.TargetText, w.PromptText, w.Reading, types.Alternates(w.Alternates), w.Section, now).
				OnConflict(entsql.ConflictColumns("target_text", "prompt_text"), entsql.DoNothing())
			n, err := exec(ctx, tx, ins)
			if err != nil {
				return fmt.Errorf("insert word %q: %w", w.TargetText, err)
			}
			if n == 0 {
				skipped++
				continue
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return imported, skipped, nil
}

func (r *WordRepository) queryWords(ctx context.Context, sel *entsql.Selector) ([]*entity.Word, error) {
	query, args := sel.Query()
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var words []*entity.Word
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWord(row rowScanner) (*entity.Word, error) {
	var (
		w    entity.Word
		alts types.Alternates
	)
	if err := row.Scan(&w.ID, &w.TargetText, &w.PromptText, &w.Reading, &alts, &w.Section); err != nil {
		return nil, err
	}
	w.Alternates = []string(alts)
	return &w, nil
}
