package repository

import (
	"context"

	"github.com/eslsoft/vocdrill/internal/entity"
)

// ListWordQuery pages through the catalog in (section, id) order.
type ListWordQuery struct {
	Page
}

// WordRepository defines data access for the word catalog.
type WordRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Word, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.Word, error)
	List(ctx context.Context, query *ListWordQuery) ([]*entity.Word, int64, error)
	// Import inserts the batch in one transaction, skipping (target, prompt) duplicates.
	Import(ctx context.Context, words []*entity.Word) (imported, skipped int, err error)
}
