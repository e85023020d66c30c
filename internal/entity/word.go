package entity

import (
	"strings"

	"github.com/samber/lo"
)

// Word is a catalog entry: the target-language term the learner must produce,
// the native-language prompt shown to them and a phonetic reading used as hint.
type Word struct {
	ID         int64    `json:"id"`
	TargetText string   `json:"target_text"`
	PromptText string   `json:"prompt_text"`
	Reading    string   `json:"reading"`
	Alternates []string `json:"alternates,omitempty"` // accepted alternate spellings
	Section    int      `json:"section"`
}

// Normalize trims user-supplied text and drops empty or duplicate alternates.
func (w *Word) Normalize() {
	w.TargetText = strings.TrimSpace(w.TargetText)
	w.PromptText = strings.TrimSpace(w.PromptText)
	w.Reading = strings.TrimSpace(w.Reading)
	alts := lo.Map(w.Alternates, func(a string, _ int) string { return strings.TrimSpace(a) })
	alts = lo.Filter(alts, func(a string, _ int) bool { return a != "" && !strings.EqualFold(a, w.TargetText) })
	w.Alternates = lo.Uniq(alts)
}

// Validate checks the fields required for a catalog entry.
func (w *Word) Validate() error {
	if w.TargetText == "" || w.PromptText == "" {
		return ErrInvalidWord
	}
	if w.Section < 0 {
		return ErrInvalidWord
	}
	return nil
}

// AcceptedAnswers returns the canonical answer followed by its alternates.
func (w *Word) AcceptedAnswers() []string {
	return append([]string{w.TargetText}, w.Alternates...)
}

// ImportReport summarises one catalog import run.
type ImportReport struct {
	Imported int
	Skipped  int
	Errors   []string
}
