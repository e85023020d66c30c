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

var (
	recordColumns = []string{
		"learner_id", "word_id", "first_studied_at", "last_studied_at", "last_success_at",
		"total_attempts", "correct_count", "hint_count",
	}
	answerColumns    = []string{"id", "learner_id", "word_id", "submission_id", "pool", "outcome", "day", "answered_at"}
	dailyStatColumns = []string{"learner_id", "day", "pool", "correct", "hint", "incorrect"}
)

type LearningRepository struct {
	store
}

// NewLearningRepository constructs the repository backing records, ledger and daily stats.
func NewLearningRepository(drv *entsql.Driver) repository.LearningRepository {
	return &LearningRepository{store: store{drv: drv}}
}

func (r *LearningRepository) ListRecords(ctx context.Context, learnerID int64) ([]*entity.LearningRecord, error) {
	return r.listRecords(ctx, r.db(), learnerID)
}

// Submit appends the ledger row, upserts the learning record and increments the
// daily stat in one transaction. A known submission id replays the stored outcome
// when it was recorded for the same word and pool, and conflicts otherwise.
// Integrity violations other than a racing duplicate id are not reported as
// ErrTransient.
func (r *LearningRepository) Submit(ctx context.Context, sub *entity.Submission) (*entity.SubmissionResult, error) {
	var result *entity.SubmissionResult
	err := r.withTx(ctx, func(tx *stdsql.Tx) error {
		prev, err := r.findAnswer(ctx, tx, sub.LearnerID, sub.SubmissionID)
		if err != nil {
			return err
		}
		if prev != nil {
			if prev.WordID != sub.WordID || prev.Pool != sub.Pool {
				return fmt.Errorf("%w: %q was recorded for word %d in %s",
					entity.ErrSubmissionConflict, sub.SubmissionID, prev.WordID, prev.Pool)
			}
			result = &entity.SubmissionResult{Outcome: prev.Outcome, Replayed: true}
			return nil
		}

		at := sub.AnsweredAt.UTC()
		if err := r.insertAnswer(ctx, tx, sub, at); err != nil {
			return err
		}
		if err := r.upsertRecord(ctx, tx, sub, at); err != nil {
			return err
		}
		if err := r.incrementDailyStat(ctx, tx, sub); err != nil {
			return err
		}
		result = &entity.SubmissionResult{Outcome: sub.Outcome}
		return nil
	})
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, entity.ErrSubmissionConflict):
		return nil, err
	case isUniqueViolation(err):
		// a concurrent writer stored the same submission id; a retry replays it
		return nil, fmt.Errorf("%w: submit answer: %w", entity.ErrTransient, err)
	case isConstraintViolation(err):
		return nil, fmt.Errorf("submit answer: %w", err)
	default:
		return nil, fmt.Errorf("%w: submit answer: %w", entity.ErrTransient, err)
	}
}

func (r *LearningRepository) DailyStats(ctx context.Context, learnerID int64, fromDay, toDay string) ([]entity.DailyStat, error) {
	query, args := r.sql().Select(dailyStatColumns...).
		From(entsql.Table("daily_stats")).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.GTE("day", fromDay),
			entsql.LTE("day", toDay),
		)).
		OrderBy("day", "pool").
		Query()
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	stats := []entity.DailyStat{}
	for rows.Next() {
		var (
			s    entity.DailyStat
			pool string
		)
		if err := rows.Scan(&s.LearnerID, &s.Day, &pool, &s.Correct, &s.Hint, &s.Incorrect); err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		s.Pool = entity.Pool(pool)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *LearningRepository) ListAnswers(ctx context.Context, learnerID int64, fromDay, toDay string) ([]entity.Answer, error) {
	return r.listAnswers(ctx, r.db(), learnerID, fromDay, toDay)
}

func (r *LearningRepository) Shift(ctx context.Context, learnerID int64, by time.Duration, dayOf func(time.Time) string) (int, error) {
	var shifted int
	err := r.withTx(ctx, func(tx *stdsql.Tx) error {
		records, err := r.listRecords(ctx, tx, learnerID)
		if err != nil {
			return err
		}
		for _, rec := range records {
			upd := r.sql().Update("learning_records").
				Set("first_studied_at", rec.FirstStudiedAt.Add(by).UTC()).
				Set("last_studied_at", rec.LastStudiedAt.Add(by).UTC()).
				Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("word_id", rec.WordID)))
			if rec.LastSuccessAt != nil {
				upd.Set("last_success_at", rec.LastSuccessAt.Add(by).UTC())
			}
			if _, err := exec(ctx, tx, upd); err != nil {
				return fmt.Errorf("shift record %d: %w", rec.WordID, err)
			}
		}

		answers, err := r.listAnswers(ctx, tx, learnerID, "", "")
		if err != nil {
			return err
		}
		stats := map[[2]string]*entity.Counters{}
		for _, a := range answers {
			at := a.AnsweredAt.Add(by)
			day := dayOf(at)
			upd := r.sql().Update("answers").
				Set("answered_at", at.UTC()).
				Set("day", day).
				Where(entsql.EQ("id", a.ID))
			if _, err := exec(ctx, tx, upd); err != nil {
				return fmt.Errorf("shift answer %d: %w", a.ID, err)
			}
			key := [2]string{day, string(a.Pool)}
			if stats[key] == nil {
				stats[key] = &entity.Counters{}
			}
			stats[key].Add(a.Outcome)
		}

		if _, err := exec(ctx, tx, r.sql().Delete("daily_stats").Where(entsql.EQ("learner_id", learnerID))); err != nil {
			return fmt.Errorf("reset daily stats: %w", err)
		}
		for key, c := range stats {
			ins := r.sql().Insert("daily_stats").
				Columns(dailyStatColumns...).
				Values(learnerID, key[0], key[1], c.Correct, c.Hint, c.Incorrect)
			if _, err := exec(ctx, tx, ins); err != nil {
				return fmt.Errorf("rebuild daily stat %s/%s: %w", key[0], key[1], err)
			}
		}
		shifted = len(answers)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return shifted, nil
}

func (r *LearningRepository) listRecords(ctx context.Context, q querier, learnerID int64) ([]*entity.LearningRecord, error) {
	query, args := r.sql().Select(recordColumns...).
		From(entsql.Table("learning_records")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("word_id").
		Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query learning records: %w", err)
	}
	defer rows.Close()

	records := []*entity.LearningRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan learning record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *LearningRepository) findAnswer(ctx context.Context, q querier, learnerID int64, submissionID string) (*entity.Answer, error) {
	if submissionID == "" {
		return nil, nil
	}
	query, args := r.sql().Select(answerColumns...).
		From(entsql.Table("answers")).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("submission_id", submissionID))).
		Query()
	a, err := scanAnswer(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find submission %q: %w", submissionID, err)
	}
	return a, nil
}

func (r *LearningRepository) insertAnswer(ctx context.Context, tx *stdsql.Tx, sub *entity.Submission, at time.Time) error {
	ins := r.sql().Insert("answers").
		Columns("learner_id", "word_id", "submission_id", "pool", "outcome", "day", "answered_at").
		Values(sub.LearnerID, sub.WordID, sub.SubmissionID, string(sub.Pool), string(sub.Outcome), sub.Day, at)
	if _, err := exec(ctx, tx, ins); err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

func (r *LearningRepository) upsertRecord(ctx context.Context, tx *stdsql.Tx, sub *entity.Submission, at time.Time) error {
	var (
		correct, hint int
		successAt     any
	)
	switch sub.Outcome {
	case entity.OutcomeCorrect:
		correct = 1
	case entity.OutcomeHintCorrect:
		hint = 1
	}
	if sub.Outcome.IsSuccess() {
		successAt = at
	}
	ins := r.sql().Insert("learning_records").
		Columns(recordColumns...).
		Values(sub.LearnerID, sub.WordID, at, at, successAt, 1, correct, hint).
		OnConflict(
			entsql.ConflictColumns("learner_id", "word_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("last_studied_at")
				u.Add("total_attempts", 1)
				u.Add("correct_count", correct)
				u.Add("hint_count", hint)
				if sub.Outcome.IsSuccess() {
					u.SetExcluded("last_success_at")
				}
			}),
		)
	if _, err := exec(ctx, tx, ins); err != nil {
		return fmt.Errorf("upsert learning record: %w", err)
	}
	return nil
}

func (r *LearningRepository) incrementDailyStat(ctx context.Context, tx *stdsql.Tx, sub *entity.Submission) error {
	var c entity.Counters
	c.Add(sub.Outcome)
	ins := r.sql().Insert("daily_stats").
		Columns(dailyStatColumns...).
		Values(sub.LearnerID, sub.Day, string(sub.Pool), c.Correct, c.Hint, c.Incorrect).
		OnConflict(
			entsql.ConflictColumns("learner_id", "day", "pool"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.Add("correct", c.Correct)
				u.Add("hint", c.Hint)
				u.Add("incorrect", c.Incorrect)
			}),
		)
	if _, err := exec(ctx, tx, ins); err != nil {
		return fmt.Errorf("increment daily stat: %w", err)
	}
	return nil
}

func (r *LearningRepository) listAnswers(ctx context.Context, q querier, learnerID int64, fromDay, toDay string) ([]entity.Answer, error) {
	preds := []*entsql.Predicate{entsql.EQ("learner_id", learnerID)}
	if fromDay != "" {
		preds = append(preds, entsql.GTE("day", fromDay))
	}
	if toDay != "" {
		preds = append(preds, entsql.LTE("day", toDay))
	}
	query, args := r.sql().Select(answerColumns...).
		From(entsql.Table("answers")).
		Where(entsql.And(preds...)).
		OrderBy("answered_at", "id").
		Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	answers := []entity.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, *a)
	}
	return answers, rows.Err()
}

func scanRecord(row rowScanner) (*entity.LearningRecord, error) {
	var (
		rec     entity.LearningRecord
		success stdsql.NullTime
	)
	if err := row.Scan(
		&rec.LearnerID, &rec.WordID, &rec.FirstStudiedAt, &rec.LastStudiedAt, &success,
		&rec.TotalAttempts, &rec.CorrectCount, &rec.HintCount,
	); err != nil {
		return nil, err
	}
	if success.Valid {
		ts := success.Time
		rec.LastSuccessAt = &ts
	}
	return &rec, nil
}

func scanAnswer(row rowScanner) (*entity.Answer, error) {
	var (
		a             entity.Answer
		pool, outcome string
	)
	if err := row.Scan(&a.ID, &a.LearnerID, &a.WordID, &a.SubmissionID, &pool, &outcome, &a.Day, &a.AnsweredAt); err != nil {
		return nil, err
	}
	a.Pool = entity.Pool(pool)
	parsed, err := entity.ParseOutcome(outcome)
	if err != nil {
		return nil, err
	}
	a.Outcome = parsed
	return &a, nil
}
