package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
	"github.com/eslsoft/vocdrill/pkg/filterexpr"
)

// Weak word sort keys.
const (
	SortByPrompt   = "prompt_text"
	SortByTarget   = "target_text"
	SortByAttempts = "total_attempts"
	SortByAccuracy = "accuracy"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

var sortKeyAliases = map[string]string{
	"":             SortByAccuracy,
	"japanese":     SortByPrompt,
	"english":      SortByTarget,
	SortByPrompt:   SortByPrompt,
	SortByTarget:   SortByTarget,
	SortByAttempts: SortByAttempts,
	SortByAccuracy: SortByAccuracy,
}

var weakWordsSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"accuracy": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "AccuracyMin",
				filterexpr.OpLTE: "AccuracyMax",
			},
		},
		"attempts": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "AttemptsMin",
				filterexpr.OpLTE: "AttemptsMax",
			},
		},
		"target": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpSW: "TargetPrefix"},
		},
		"prompt": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpSW: "PromptPrefix"},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary: SortByAccuracy,
		FallbackKey:    "id",
		Fields: map[string]filterexpr.OrderField{
			SortByPrompt:   {},
			SortByTarget:   {},
			SortByAttempts: {},
			SortByAccuracy: {},
			"id":           {},
		},
	},
}

// WeakWord is one row of the weak word table.
type WeakWord struct {
	ID            int64   `json:"id"`
	TargetText    string  `json:"target_text"`
	PromptText    string  `json:"prompt_text"`
	Reading       string  `json:"reading"`
	TotalAttempts int     `json:"total_attempts"`
	CorrectCount  int     `json:"correct_count"`
	HintCount     int     `json:"hint_count"`
	Accuracy      float64 `json:"accuracy"`

	accuracy float64
}

// WeakWordQuery carries the raw table controls.
type WeakWordQuery struct {
	SortBy string
	Order  string
	Filter string
}

// SortState tracks the table's column sort. Selecting the active key flips the
// direction; selecting another key starts ascending.
type SortState struct {
	Key   string
	Order string
}

// Toggle applies a column selection.
func (s SortState) Toggle(key string) SortState {
	if key == s.Key {
		if s.Order == OrderAsc {
			return SortState{Key: key, Order: OrderDesc}
		}
		return SortState{Key: key, Order: OrderAsc}
	}
	return SortState{Key: key, Order: OrderAsc}
}

type weakWordFilter struct {
	filter, orderBy string
}

func (f weakWordFilter) GetFilter() string  { return f.filter }
func (f weakWordFilter) GetOrderBy() string { return f.orderBy }

type weakWordParams struct {
	AccuracyMin  *float64
	AccuracyMax  *float64
	AttemptsMin  *int
	AttemptsMax  *int
	TargetPrefix *string
	PromptPrefix *string

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

func (p *weakWordParams) match(w *WeakWord) bool {
	switch {
	case p.AccuracyMin != nil && w.accuracy < *p.AccuracyMin:
		return false
	case p.AccuracyMax != nil && w.accuracy > *p.AccuracyMax:
		return false
	case p.AttemptsMin != nil && w.TotalAttempts < *p.AttemptsMin:
		return false
	case p.AttemptsMax != nil && w.TotalAttempts > *p.AttemptsMax:
		return false
	case p.TargetPrefix != nil && !strings.HasPrefix(strings.ToLower(w.TargetText), strings.ToLower(*p.TargetPrefix)):
		return false
	case p.PromptPrefix != nil && !strings.HasPrefix(w.PromptText, *p.PromptPrefix):
		return false
	}
	return true
}

// WeakWordTracker lists a learner's weak words.
type WeakWordTracker interface {
	WeakWords(ctx context.Context, learnerID int64, q *WeakWordQuery) ([]WeakWord, error)
}

// NewWeakWordTracker constructs the tracker on the given repositories.
func NewWeakWordTracker(words repository.WordRepository, learning repository.LearningRepository, policy Policy) WeakWordTracker {
	return &weakWordTracker{words: words, learning: learning, policy: policy.Weak}
}

type weakWordTracker struct {
	words    repository.WordRepository
	learning repository.LearningRepository
	policy   entity.WeakPolicy
}

func (t *weakWordTracker) WeakWords(ctx context.Context, learnerID int64, q *WeakWordQuery) ([]WeakWord, error) {
	if q == nil {
		q = &WeakWordQuery{}
	}
	params, err := bindWeakWordQuery(q)
	if err != nil {
		return nil, err
	}

	records, err := t.learning.ListRecords(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	weak := lo.Filter(records, func(r *entity.LearningRecord, _ int) bool { return t.policy.IsWeak(r) })
	words, err := t.words.ListByIDs(ctx, lo.Map(weak, func(r *entity.LearningRecord, _ int) int64 { return r.WordID }))
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(words, func(w *entity.Word) int64 { return w.ID })

	rows := make([]WeakWord, 0, len(weak))
	for _, rec := range weak {
		w, ok := byID[rec.WordID]
		if !ok {
			continue
		}
		row := WeakWord{
			ID:            w.ID,
			TargetText:    w.TargetText,
			PromptText:    w.PromptText,
			Reading:       w.Reading,
			TotalAttempts: rec.TotalAttempts,
			CorrectCount:  rec.CorrectCount,
			HintCount:     rec.HintCount,
			Accuracy:      rec.RoundedAccuracy(),
			accuracy:      rec.Accuracy(),
		}
		if params.match(&row) {
			rows = append(rows, row)
		}
	}

	less := weakWordLess(params.PrimaryKey)
	desc := params.PrimaryDesc
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(&rows[j], &rows[i])
		}
		return less(&rows[i], &rows[j])
	})
	return rows, nil
}

// bindWeakWordQuery resolves aliases and always appends the id tie-break in the
// same direction so that descending is the exact reverse of ascending.
func bindWeakWordQuery(q *WeakWordQuery) (*weakWordParams, error) {
	key, ok := sortKeyAliases[strings.ToLower(strings.TrimSpace(q.SortBy))]
	if !ok {
		return nil, fmt.Errorf("%w: sort_by %q", entity.ErrInvalidSort, q.SortBy)
	}
	order := strings.ToLower(strings.TrimSpace(q.Order))
	switch order {
	case "":
		order = OrderAsc
	case OrderAsc, OrderDesc:
	default:
		return nil, fmt.Errorf("%w: order %q", entity.ErrInvalidSort, q.Order)
	}

	var params weakWordParams
	msg := weakWordFilter{filter: q.Filter, orderBy: fmt.Sprintf("%s %s, id %s", key, order, order)}
	if err := filterexpr.Bind(msg, &params, weakWordsSchema); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidFilter, err)
	}
	return &params, nil
}

// weakWordLess orders rows ascending by key with the word id as tie-break.
func weakWordLess(key string) func(a, b *WeakWord) bool {
	cmp := func(a, b *WeakWord) int {
		switch key {
		case SortByPrompt:
			return strings.Compare(a.PromptText, b.PromptText)
		case SortByTarget:
			return strings.Compare(strings.ToLower(a.TargetText), strings.ToLower(b.TargetText))
		case SortByAttempts:
			return a.TotalAttempts - b.TotalAttempts
		default:
			switch {
			case a.accuracy < b.accuracy:
				return -1
			case a.accuracy > b.accuracy:
				return 1
			}
			return 0
		}
	}
	return func(a, b *WeakWord) bool {
		if c := cmp(a, b); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	}
}
