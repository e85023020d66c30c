package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
)

func weakFixture(t *testing.T) WeakWordTracker {
	t.Helper()
	words := newFakeWordRepo(
		&entity.Word{ID: 1, TargetText: "apple", PromptText: "りんご"},
		&entity.Word{ID: 2, TargetText: "Banana", PromptText: "バナナ"},
		&entity.Word{ID: 3, TargetText: "cherry", PromptText: "さくらんぼ"},
		&entity.Word{ID: 4, TargetText: "date", PromptText: "なつめ"},
		&entity.Word{ID: 5, TargetText: "elder", PromptText: "にわとこ"},
	)
	learning := newFakeLearningRepo()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []struct {
		id                 int64
		attempts, corrects int
	}{
		{1, 5, 1},  // 0.2
		{2, 4, 2},  // 0.5
		{3, 10, 2}, // 0.2
		{4, 5, 4},  // 0.8, strong
		{5, 2, 0},  // too few attempts
	} {
		learning.put(&entity.LearningRecord{LearnerID: 1, WordID: r.id, FirstStudiedAt: at, LastStudiedAt: at, TotalAttempts: r.attempts, CorrectCount: r.corrects})
	}
	return NewWeakWordTracker(words, learning, DefaultPolicy())
}

func ids(rows []WeakWord) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWeakWords_DefaultSort(t *testing.T) {
	rows, err := weakFixture(t).WeakWords(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	if got := ids(rows); !equalIDs(got, []int64{1, 3, 2}) {
		t.Fatalf("unexpected order %v", got)
	}
	if rows[2].Accuracy != 0.5 || rows[0].TotalAttempts != 5 {
		t.Fatalf("unexpected row %+v", rows)
	}
}

func TestWeakWords_DescendingIsExactReverse(t *testing.T) {
	tracker := weakFixture(t)
	for _, key := range []string{"accuracy", "total_attempts", "prompt_text", "target_text"} {
		asc, err := tracker.WeakWords(context.Background(), 1, &WeakWordQuery{SortBy: key, Order: "asc"})
		if err != nil {
			t.Fatalf("asc %s: %v", key, err)
		}
		desc, err := tracker.WeakWords(context.Background(), 1, &WeakWordQuery{SortBy: key, Order: "desc"})
		if err != nil {
			t.Fatalf("desc %s: %v", key, err)
		}
		a, d := ids(asc), ids(desc)
		for i := range a {
			if a[i] != d[len(d)-1-i] {
				t.Fatalf("%s: desc %v is not the reverse of asc %v", key, d, a)
			}
		}
	}
}

func TestWeakWords_Aliases(t *testing.T) {
	tracker := weakFixture(t)
	english, err := tracker.WeakWords(context.Background(), 1, &WeakWordQuery{SortBy: "english"})
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	// target text compares case-insensitively: apple, Banana, cherry.
	if got := ids(english); !equalIDs(got, []int64{1, 2, 3}) {
		t.Fatalf("unexpected english order %v", got)
	}
	japanese, err := tracker.WeakWords(context.Background(), 1, &WeakWordQuery{SortBy: "japanese"})
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	prompt, err := tracker.WeakWords(context.Background(), 1, &WeakWordQuery{SortBy: "prompt_text"})
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	if !equalIDs(ids(japanese), ids(prompt)) {
		t.Fatalf("alias should match prompt_text sort")
	}
}

func TestWeakWords_Filter(t *testing.T) {
	tracker := weakFixture(t)
	rows, err := tracker.WeakWords(context.Background(), 1, &WeakWordQuery{Filter: "accuracy >= 0.3"})
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	if got := ids(rows); !equalIDs(got, []int64{2}) {
		t.Fatalf("unexpected filtered rows %v", got)
	}
	rows, err = tracker.WeakWords(context.Background(), 1, &WeakWordQuery{Filter: `target.startsWith("ch") && attempts >= 6`})
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	if got := ids(rows); !equalIDs(got, []int64{3}) {
		t.Fatalf("unexpected filtered rows %v", got)
	}
}

func TestWeakWords_InvalidInput(t *testing.T) {
	tracker := weakFixture(t)
	cases := []struct {
		q    *WeakWordQuery
		want error
	}{
		{&WeakWordQuery{SortBy: "section"}, entity.ErrInvalidSort},
		{&WeakWordQuery{Order: "sideways"}, entity.ErrInvalidSort},
		{&WeakWordQuery{Filter: "section == 1"}, entity.ErrInvalidFilter},
		{&WeakWordQuery{Filter: "accuracy >="}, entity.ErrInvalidFilter},
	}
	for _, tc := range cases {
		if _, err := tracker.WeakWords(context.Background(), 1, tc.q); !errors.Is(err, tc.want) {
			t.Fatalf("WeakWords(%+v) = %v, want %v", tc.q, err, tc.want)
		}
	}
}

func TestSortState_Toggle(t *testing.T) {
	s := SortState{Key: SortByAccuracy, Order: OrderAsc}
	s = s.Toggle(SortByAccuracy)
	if s.Order != OrderDesc {
		t.Fatalf("same key should flip to desc, got %+v", s)
	}
	s = s.Toggle(SortByAccuracy)
	if s.Order != OrderAsc {
		t.Fatalf("same key should flip back, got %+v", s)
	}
	s = s.Toggle(SortByTarget)
	if s != (SortState{Key: SortByTarget, Order: OrderAsc}) {
		t.Fatalf("new key should start ascending, got %+v", s)
	}
}
