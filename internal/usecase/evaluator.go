package usecase

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/eslsoft/vocdrill/internal/entity"
)

// ValidateAnswer rejects empty or whitespace-only answers.
func ValidateAnswer(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return entity.ErrEmptyAnswer
	}
	return nil
}

// Evaluate grades an answer against the word's accepted spellings. Surrounding
// whitespace is ignored and letter case is folded; otherwise the match is exact.
func Evaluate(word *entity.Word, answer string, hintUsed bool) entity.Outcome {
	if !Matches(word, answer) {
		return entity.OutcomeIncorrect
	}
	if hintUsed {
		return entity.OutcomeHintCorrect
	}
	return entity.OutcomeCorrect
}

// Matches reports whether answer equals any accepted spelling.
func Matches(word *entity.Word, answer string) bool {
	got := normalizeAnswer(answer)
	if got == "" || word == nil {
		return false
	}
	for _, accepted := range word.AcceptedAnswers() {
		if want := normalizeAnswer(accepted); want != "" && want == got {
			return true
		}
	}
	return false
}

func normalizeAnswer(s string) string {
	// Casers carry state and are not shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(s))
}
