package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/repository"
)

type fakeWordRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]*entity.Word
}

func newFakeWordRepo(words ...*entity.Word) *fakeWordRepo {
	r := &fakeWordRepo{items: make(map[int64]*entity.Word)}
	for _, w := range words {
		copy := cloneWord(w)
		if copy.ID == 0 {
			r.seq++
			copy.ID = r.seq
		} else if copy.ID > r.seq {
			r.seq = copy.ID
		}
		r.items[copy.ID] = copy
	}
	return r
}

func (r *fakeWordRepo) GetByID(ctx context.Context, id int64) (*entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.items[id]
	if !ok {
		return nil, entity.ErrWordNotFound
	}
	return cloneWord(w), nil
}

func (r *fakeWordRepo) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Word
	for _, id := range ids {
		if w, ok := r.items[id]; ok {
			out = append(out, cloneWord(w))
		}
	}
	return out, nil
}

func (r *fakeWordRepo) List(ctx context.Context, q *repository.ListWordQuery) ([]*entity.Word, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*entity.Word, 0, len(r.items))
	for _, w := range r.items {
		all = append(all, cloneWord(w))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Section != all[j].Section {
			return all[i].Section < all[j].Section
		}
		return all[i].ID < all[j].ID
	})
	total := int64(len(all))
	if q == nil || q.Size <= 0 {
		return all, total, nil
	}
	start := q.Offset()
	if start >= len(all) {
		return []*entity.Word{}, total, nil
	}
	end := start + q.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeWordRepo) Import(ctx context.Context, words []*entity.Word) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var imported, skipped int
	for _, w := range words {
		dup := false
		for _, existing := range r.items {
			if existing.TargetText == w.TargetText && existing.PromptText == w.PromptText {
				dup = true
				break
			}
		}
		if dup {
			skipped++
			continue
		}
		r.seq++
		copy := cloneWord(w)
		copy.ID = r.seq
		r.items[copy.ID] = copy
		imported++
	}
	return imported, skipped, nil
}

func cloneWord(w *entity.Word) *entity.Word {
	if w == nil {
		return nil
	}
	copy := *w
	copy.Alternates = append([]string(nil), w.Alternates...)
	return &copy
}

type recordKey struct{ learner, word int64 }

type fakeLearningRepo struct {
	mu       sync.RWMutex
	records  map[recordKey]*entity.LearningRecord
	answers  []entity.Answer
	stats    map[string]*entity.DailyStat
	failNext error
	submits  int
}

func newFakeLearningRepo() *fakeLearningRepo {
	return &fakeLearningRepo{
		records: make(map[recordKey]*entity.LearningRecord),
		stats:   make(map[string]*entity.DailyStat),
	}
}

func (r *fakeLearningRepo) put(rec *entity.LearningRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := cloneRecord(rec)
	r.records[recordKey{rec.LearnerID, rec.WordID}] = copy
}

func (r *fakeLearningRepo) ListRecords(ctx context.Context, learnerID int64) ([]*entity.LearningRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.LearningRecord
	for k, rec := range r.records {
		if k.learner == learnerID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WordID < out[j].WordID })
	return out, nil
}

// record returns a copy of the stored record, or nil.
func (r *fakeLearningRepo) record(learnerID, wordID int64) *entity.LearningRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneRecord(r.records[recordKey{learnerID, wordID}])
}

func (r *fakeLearningRepo) Submit(ctx context.Context, sub *entity.Submission) (*entity.SubmissionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submits++
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return nil, fmt.Errorf("%w: %w", entity.ErrTransient, err)
	}
	for _, a := range r.answers {
		if a.LearnerID == sub.LearnerID && a.SubmissionID == sub.SubmissionID {
			if a.WordID != sub.WordID || a.Pool != sub.Pool {
				return nil, entity.ErrSubmissionConflict
			}
			return &entity.SubmissionResult{Outcome: a.Outcome, Replayed: true}, nil
		}
	}

	r.answers = append(r.answers, entity.Answer{
		ID: int64(len(r.answers) + 1), LearnerID: sub.LearnerID, WordID: sub.WordID,
		SubmissionID: sub.SubmissionID, Pool: sub.Pool, Outcome: sub.Outcome,
		Day: sub.Day, AnsweredAt: sub.AnsweredAt,
	})
	key := recordKey{sub.LearnerID, sub.WordID}
	rec, ok := r.records[key]
	if !ok {
		rec = &entity.LearningRecord{LearnerID: sub.LearnerID, WordID: sub.WordID}
		r.records[key] = rec
	}
	rec.Apply(sub.Outcome, sub.AnsweredAt)

	statKey := fmt.Sprintf("%d/%s/%s", sub.LearnerID, sub.Day, sub.Pool)
	stat, ok := r.stats[statKey]
	if !ok {
		stat = &entity.DailyStat{LearnerID: sub.LearnerID, Day: sub.Day, Pool: sub.Pool}
		r.stats[statKey] = stat
	}
	stat.Add(sub.Outcome)
	return &entity.SubmissionResult{Outcome: sub.Outcome}, nil
}

func (r *fakeLearningRepo) DailyStats(ctx context.Context, learnerID int64, fromDay, toDay string) ([]entity.DailyStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.DailyStat
	for _, s := range r.stats {
		if s.LearnerID == learnerID && s.Day >= fromDay && s.Day <= toDay {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Pool < out[j].Pool
	})
	return out, nil
}

func (r *fakeLearningRepo) ListAnswers(ctx context.Context, learnerID int64, fromDay, toDay string) ([]entity.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Answer
	for _, a := range r.answers {
		if a.LearnerID != learnerID {
			continue
		}
		if (fromDay != "" && a.Day < fromDay) || (toDay != "" && a.Day > toDay) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeLearningRepo) Shift(ctx context.Context, learnerID int64, by time.Duration, dayOf func(time.Time) string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, rec := range r.records {
		if k.learner != learnerID {
			continue
		}
		rec.FirstStudiedAt = rec.FirstStudiedAt.Add(by)
		rec.LastStudiedAt = rec.LastStudiedAt.Add(by)
		if rec.LastSuccessAt != nil {
			ts := rec.LastSuccessAt.Add(by)
			rec.LastSuccessAt = &ts
		}
	}
	n := 0
	for k, s := range r.stats {
		if s.LearnerID == learnerID {
			delete(r.stats, k)
		}
	}
	for i := range r.answers {
		a := &r.answers[i]
		if a.LearnerID != learnerID {
			continue
		}
		a.AnsweredAt = a.AnsweredAt.Add(by)
		a.Day = dayOf(a.AnsweredAt)
		statKey := fmt.Sprintf("%d/%s/%s", a.LearnerID, a.Day, a.Pool)
		stat, ok := r.stats[statKey]
		if !ok {
			stat = &entity.DailyStat{LearnerID: a.LearnerID, Day: a.Day, Pool: a.Pool}
			r.stats[statKey] = stat
		}
		stat.Add(a.Outcome)
		n++
	}
	return n, nil
}

func cloneRecord(rec *entity.LearningRecord) *entity.LearningRecord {
	if rec == nil {
		return nil
	}
	copy := *rec
	if rec.LastSuccessAt != nil {
		ts := *rec.LastSuccessAt
		copy.LastSuccessAt = &ts
	}
	return &copy
}

type fakeLearnerRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]*entity.Learner
}

func newFakeLearnerRepo() *fakeLearnerRepo {
	return &fakeLearnerRepo{items: make(map[int64]*entity.Learner)}
}

func (r *fakeLearnerRepo) Create(ctx context.Context, l *entity.Learner) (*entity.Learner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Name == l.Name {
			return nil, entity.ErrDuplicateLearner
		}
	}
	r.seq++
	copy := *l
	copy.ID = r.seq
	r.items[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeLearnerRepo) GetByID(ctx context.Context, id int64) (*entity.Learner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, entity.ErrLearnerNotFound
	}
	copy := *l
	return &copy, nil
}

func (r *fakeLearnerRepo) FindByName(ctx context.Context, name string) (*entity.Learner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.items {
		if l.Name == name {
			copy := *l
			return &copy, nil
		}
	}
	return nil, entity.ErrLearnerNotFound
}

func (r *fakeLearnerRepo) List(ctx context.Context, guardianID *int64) ([]*entity.Learner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*entity.Learner{}
	for _, l := range r.items {
		if guardianID != nil && (l.GuardianID == nil || *l.GuardianID != *guardianID) {
			continue
		}
		copy := *l
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeLearnerRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return entity.ErrLearnerNotFound
	}
	delete(r.items, id)
	return nil
}
