package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
)

const catalogPageSize = 200

// SubmissionObserver is notified once per answered submission.
type SubmissionObserver interface {
	ObserveSubmission(pool entity.Pool, outcome entity.Outcome, replayed bool)
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(entity.Pool, entity.Outcome, bool) {}

// AnswerInput is one answer as received from a client.
type AnswerInput struct {
	WordID       int64
	Answer       string
	Pool         string
	HintUsed     bool
	SubmissionID string
}

// AnswerResult is the graded answer together with the word's canonical data.
type AnswerResult struct {
	IsCorrect     bool
	Outcome       entity.Outcome
	CorrectAnswer string
	Reading       string
	SubmissionID  string
	Replayed      bool
}

// LearningUsecase serves pool contents and records answers.
type LearningUsecase interface {
	MenuStatus(ctx context.Context, learnerID int64) (*MenuStatus, error)
	ListWords(ctx context.Context, learnerID int64, pool, period string) ([]*entity.Word, error)
	SubmitAnswer(ctx context.Context, principal entity.Principal, in *AnswerInput) (*AnswerResult, error)
}

// NewLearningUsecase wires repositories with the classification policy.
func NewLearningUsecase(
	words repository.WordRepository,
	learning repository.LearningRepository,
	policy Policy,
	observer SubmissionObserver,
) LearningUsecase {
	if observer == nil {
		observer = nopObserver{}
	}
	return &learningUsecase{
		words:      words,
		learning:   learning,
		categorize: NewCategorizer(policy),
		observer:   observer,
		locks:      newKeyedMutex(),
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

type learningUsecase struct {
	words      repository.WordRepository
	learning   repository.LearningRepository
	categorize *Categorizer
	observer   SubmissionObserver
	locks      *keyedMutex
	clock      func() time.Time
	newID      func() string
}

func (u *learningUsecase) MenuStatus(ctx context.Context, learnerID int64) (*MenuStatus, error) {
	now := u.clock()
	records, err := u.learning.ListRecords(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	batch, err := u.todayBatch(ctx, indexRecords(records), now)
	if err != nil {
		return nil, err
	}
	studied, err := u.studiedToday(ctx, learnerID, now)
	if err != nil {
		return nil, err
	}
	status := u.categorize.Status(batch, records, studied, now)
	return &status, nil
}

func (u *learningUsecase) ListWords(ctx context.Context, learnerID int64, rawPool, rawPeriod string) ([]*entity.Word, error) {
	pool, err := entity.ParsePool(rawPool)
	if err != nil {
		return nil, err
	}
	period, err := entity.ParsePeriod(pool, rawPeriod)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	records, err := u.learning.ListRecords(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	switch pool {
	case entity.PoolToday:
		byWord := indexRecords(records)
		batch, err := u.todayBatch(ctx, byWord, now)
		if err != nil {
			return nil, err
		}
		cal := u.categorize.Policy().Calendar
		return lo.Filter(batch, func(w *entity.Word, _ int) bool {
			rec := byWord[w.ID]
			return rec == nil || rec.LastSuccessAt == nil || !cal.SameDay(*rec.LastSuccessAt, now)
		}), nil
	case entity.PoolReview:
		return u.wordsFor(ctx, u.categorize.ReviewBatch(records, period, now))
	default:
		return u.wordsFor(ctx, u.categorize.WeakBatch(records, period, now))
	}
}

func (u *learningUsecase) SubmitAnswer(ctx context.Context, principal entity.Principal, in *AnswerInput) (*AnswerResult, error) {
	if principal.Role != entity.RoleLearner {
		return nil, entity.ErrForbidden
	}
	if in == nil {
		return nil, entity.ErrEmptyAnswer
	}
	if err := ValidateAnswer(in.Answer); err != nil {
		return nil, err
	}
	pool, err := entity.ParsePool(in.Pool)
	if err != nil {
		return nil, err
	}
	word, err := u.words.GetByID(ctx, in.WordID)
	if err != nil {
		return nil, err
	}

	outcome := Evaluate(word, in.Answer, in.HintUsed)
	submissionID := in.SubmissionID
	if submissionID == "" {
		submissionID = u.newID()
	}

	unlock := u.locks.Lock(principal.LearnerID)
	defer unlock()

	now := u.clock()
	res, err := u.learning.Submit(ctx, &entity.Submission{
		LearnerID:    principal.LearnerID,
		WordID:       word.ID,
		SubmissionID: submissionID,
		Pool:         pool,
		Outcome:      outcome,
		AnsweredAt:   now,
		Day:          u.categorize.Policy().Calendar.Day(now),
	})
	if err != nil {
		return nil, err
	}
	u.observer.ObserveSubmission(pool, res.Outcome, res.Replayed)

	return &AnswerResult{
		IsCorrect:     res.Outcome.IsSuccess(),
		Outcome:       res.Outcome,
		CorrectAnswer: word.TargetText,
		Reading:       word.Reading,
		SubmissionID:  submissionID,
		Replayed:      res.Replayed,
	}, nil
}

// todayBatch walks the catalog in (section, id) order until the batch is full.
func (u *learningUsecase) todayBatch(ctx context.Context, records map[int64]*entity.LearningRecord, now time.Time) ([]*entity.Word, error) {
	limit := u.categorize.Policy().DailyBatchSize
	batch := make([]*entity.Word, 0, limit)
	query := &repository.ListWordQuery{Page: repository.Page{Number: 1, Size: catalogPageSize}}
	for len(batch) < limit {
		page, _, err := u.words.List(ctx, query)
		if err != nil {
			return nil, err
		}
		batch = append(batch, u.categorize.TodayBatch(page, records, now, limit-len(batch))...)
		if len(page) < catalogPageSize {
			break
		}
		query.Page = query.Next()
	}
	return batch, nil
}

func (u *learningUsecase) studiedToday(ctx context.Context, learnerID int64, now time.Time) (bool, error) {
	day := u.categorize.Policy().Calendar.Day(now)
	stats, err := u.learning.DailyStats(ctx, learnerID, day, day)
	if err != nil {
		return false, err
	}
	return lo.SomeBy(stats, func(s entity.DailyStat) bool {
		return s.Pool == entity.PoolToday && s.Correct+s.Hint > 0
	}), nil
}

// wordsFor resolves records to words keeping the record order.
func (u *learningUsecase) wordsFor(ctx context.Context, records []*entity.LearningRecord) ([]*entity.Word, error) {
	ids := lo.Map(records, func(r *entity.LearningRecord, _ int) int64 { return r.WordID })
	words, err := u.words.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(words, func(w *entity.Word) int64 { return w.ID })
	return lo.FilterMap(ids, func(id int64, _ int) (*entity.Word, bool) {
		w, ok := byID[id]
		return w, ok
	}), nil
}

// keyedMutex serialises work per learner and drops idle entries.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refMutex)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
