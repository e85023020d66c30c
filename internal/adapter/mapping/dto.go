package mapping

import (
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

// Word is the learner-facing view of a catalog entry.
type Word struct {
	ID         int64  `json:"id"`
	TargetText string `json:"target_text"`
	PromptText string `json:"prompt_text"`
	Reading    string `json:"reading"`
}

func ToWord(w *entity.Word) Word {
	return Word{ID: w.ID, TargetText: w.TargetText, PromptText: w.PromptText, Reading: w.Reading}
}

func ToWords(words []*entity.Word) []Word {
	return lo.Map(words, func(w *entity.Word, _ int) Word { return ToWord(w) })
}

// ListWordsRequest selects a pool and optional period.
type ListWordsRequest struct {
	Pool   string `json:"pool"`
	Period string `json:"period,omitempty"`
}

type ListWordsResponse struct {
	Words []Word `json:"words"`
}

// AnswerRequest is one submitted answer.
type AnswerRequest struct {
	WordID       int64  `json:"word_id"`
	Answer       string `json:"answer"`
	Pool         string `json:"pool"`
	HintUsed     bool   `json:"hint_used"`
	SubmissionID string `json:"submission_id,omitempty"`
}

func (r *AnswerRequest) ToInput() *usecase.AnswerInput {
	return &usecase.AnswerInput{
		WordID:       r.WordID,
		Answer:       r.Answer,
		Pool:         r.Pool,
		HintUsed:     r.HintUsed,
		SubmissionID: r.SubmissionID,
	}
}

type AnswerResponse struct {
	IsCorrect     bool   `json:"is_correct"`
	Outcome       string `json:"outcome"`
	CorrectAnswer string `json:"correct_answer"`
	Reading       string `json:"reading"`
	SubmissionID  string `json:"submission_id"`
}

func ToAnswerResponse(r *usecase.AnswerResult) *AnswerResponse {
	return &AnswerResponse{
		IsCorrect:     r.IsCorrect,
		Outcome:       string(r.Outcome),
		CorrectAnswer: r.CorrectAnswer,
		Reading:       r.Reading,
		SubmissionID:  r.SubmissionID,
	}
}

// DailyStat is one day of the monthly report.
type DailyStat struct {
	Date   string          `json:"date"`
	Today  entity.Counters `json:"today"`
	Review entity.Counters `json:"review"`
	Weak   entity.Counters `json:"weak"`
}

func ToDailyStats(rows []entity.DailyStatRow) []DailyStat {
	return lo.Map(rows, func(r entity.DailyStatRow, _ int) DailyStat {
		return DailyStat{Date: r.Date, Today: r.Today, Review: r.Review, Weak: r.Weak}
	})
}

// MonthlyStatsRequest reads the caller's stats, or a dependent's when LearnerID is set.
type MonthlyStatsRequest struct {
	LearnerID int64 `json:"learner_id,omitempty"`
	Year      int   `json:"year"`
	Month     int   `json:"month"`
}

type MonthlyStatsResponse struct {
	Days []DailyStat `json:"days"`
}

type WeakWordsRequest struct {
	LearnerID int64  `json:"learner_id,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	Order     string `json:"order,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

func (r *WeakWordsRequest) ToQuery() *usecase.WeakWordQuery {
	return &usecase.WeakWordQuery{SortBy: r.SortBy, Order: r.Order, Filter: r.Filter}
}

type WeakWordsResponse struct {
	Words []usecase.WeakWord `json:"words"`
}

type MenuStatusRequest struct{}

// Learner is the directory view of an account.
type Learner struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	GuardianID *int64    `json:"guardian_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToLearner(l *entity.Learner) Learner {
	return Learner{ID: l.ID, Name: l.Name, Role: string(l.Role), GuardianID: l.GuardianID, CreatedAt: l.CreatedAt}
}

func ToLearners(items []*entity.Learner) []Learner {
	return lo.Map(items, func(l *entity.Learner, _ int) Learner { return ToLearner(l) })
}

type CreateLearnerRequest struct {
	Name string `json:"name"`
}

// ImportReport summarises a catalog import.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func ToImportReport(r *entity.ImportReport) *ImportReport {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return &ImportReport{Imported: r.Imported, Skipped: r.Skipped, Errors: errs}
}

// Error is the REST error body.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
