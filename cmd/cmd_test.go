package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/usecase"
	"github.com/eslsoft/vocdrill/internal/usecase/session"
)

type evaluatingSubmitter struct {
	words map[int64]*entity.Word
}

func (s evaluatingSubmitter) SubmitAnswer(_ context.Context, _ entity.Principal, in *usecase.AnswerInput) (*usecase.AnswerResult, error) {
	w := s.words[in.WordID]
	outcome := usecase.Evaluate(w, in.Answer, in.HintUsed)
	return &usecase.AnswerResult{
		IsCorrect:     outcome.IsSuccess(),
		Outcome:       outcome,
		CorrectAnswer: w.TargetText,
		Reading:       w.Reading,
		SubmissionID:  in.SubmissionID,
	}, nil
}

func quizWords() []*entity.Word {
	return []*entity.Word{
		{ID: 1, TargetText: "dog", PromptText: "犬", Reading: "ドッグ"},
		{ID: 2, TargetText: "cat", PromptText: "猫", Reading: "キャット"},
	}
}

func newQuizSession(words []*entity.Word) *session.Session {
	byID := make(map[int64]*entity.Word, len(words))
	for _, w := range words {
		byID[w.ID] = w
	}
	return session.New(entity.Principal{LearnerID: 1, Role: entity.RoleLearner}, entity.PoolToday, words, evaluatingSubmitter{words: byID})
}

func Test_runQuiz(t *testing.T) {
	s := newQuizSession(quizWords())
	var out bytes.Buffer

	score, err := runQuiz(context.Background(), strings.NewReader("?\ndog\n\nmouse\n"), &out, s)
	if err != nil {
		t.Fatal(err)
	}
	want := entity.Counters{Hint: 1, Incorrect: 1}
	if score != want {
		t.Fatalf("score = %+v, want %+v", score, want)
	}
	if s.Phase() != session.PhaseComplete {
		t.Fatalf("phase = %s", s.Phase())
	}
	for _, line := range []string{
		"[1/2] 犬 > ",
		"提示: ドッグ",
		"△ 正确 (使用了提示)",
		"请输入答案",
		"× 错误, 正确答案: cat (キャット)",
		"结果: 正确 0, 提示 1, 错误 1",
	} {
		if !strings.Contains(out.String(), line) {
			t.Fatalf("output missing %q:\n%s", line, out.String())
		}
	}
}

func Test_runQuiz_stopsAtEOF(t *testing.T) {
	s := newQuizSession(quizWords())
	var out bytes.Buffer

	score, err := runQuiz(context.Background(), strings.NewReader("DOG\n"), &out, s)
	if err != nil {
		t.Fatal(err)
	}
	if score.Correct != 1 || score.Total() != 1 {
		t.Fatalf("score = %+v", score)
	}
	if s.Phase() != session.PhaseActive {
		t.Fatalf("phase = %s, want active", s.Phase())
	}
}

func Test_normalizeTables(t *testing.T) {
	got := normalizeTables([]string{" Words ", "", "learning_records"})
	if len(got) != 2 || got[0] != "words" || got[1] != "learning_records" {
		t.Fatalf("got %v", got)
	}
	if normalizeTables([]string{" ", ""}) != nil {
		t.Fatal("expected nil for blank input")
	}
}

func Test_prepareCachePath(t *testing.T) {
	dir := t.TempDir()
	url := "https://example.com/words.csv"

	base, path, cached, err := prepareCachePath(url, dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if base != dir || cached || filepath.Dir(path) != dir {
		t.Fatalf("unexpected: base=%s path=%s cached=%v", base, path, cached)
	}
	if err := os.WriteFile(path, []byte("english,japanese\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, again, cached, _ := prepareCachePath(url, dir, false); !cached || again != path {
		t.Fatalf("expected cache hit at %s", path)
	}
	if _, _, cached, _ := prepareCachePath(url, dir, true); cached {
		t.Fatal("no-cache must bypass the cached file")
	}
}

func Test_fetchCatalog(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("english,japanese,english_katakana\ndog,犬,ドッグ\n"))
	}))
	defer srv.Close()
	dir := t.TempDir()

	path, err := fetchCatalog(context.Background(), srv.URL, dir, false)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "dog,犬") {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := fetchCatalog(context.Background(), srv.URL, dir, false); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one download, got %d", hits.Load())
	}
}

func Test_cliProgress(t *testing.T) {
	var out bytes.Buffer
	p := newCLIProgress(&out)
	p.StartTable("answers", 40)
	for i := 0; i < 40; i++ {
		p.Increment("answers", 1)
	}
	p.FinishTable("answers")

	got := out.String()
	if !strings.HasPrefix(got, "开始导出 answers (共 40 行)\n") {
		t.Fatalf("unexpected start line:\n%s", got)
	}
	if !strings.Contains(got, "完成导出 answers: 40/40 行") {
		t.Fatalf("missing finish line:\n%s", got)
	}
}

func Test_printStatus(t *testing.T) {
	last := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	st := &usecase.LearnerStatus{
		Learner:       &entity.Learner{ID: 3, Name: "ann", Role: entity.RoleLearner},
		Records:       12,
		Answers:       30,
		WeakWords:     2,
		LastStudiedAt: &last,
		Today:         entity.Counters{Correct: 4, Hint: 1, Incorrect: 2},
	}
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	policy := usecase.DefaultPolicy()
	policy.Calendar = entity.Calendar{Location: tokyo}

	var out bytes.Buffer
	printStatus(&out, st, policy)
	for _, line := range []string{
		"学习者: ann (id=3, role=learner)",
		"学习记录: 12 词, 作答 30 次, 薄弱词 2",
		"最近学习: 2025-06-03 00:30:00",
		"今日作答: 正确 4, 提示 1, 错误 2",
	} {
		if !strings.Contains(out.String(), line) {
			t.Fatalf("output missing %q:\n%s", line, out.String())
		}
	}
}

func Test_backupStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dump.jsonl.gz")
	s := newBackupStream(path, false)
	if !s.gzip || s.stdio() {
		t.Fatalf("unexpected stream %+v", s)
	}

	w, closeOut, err := s.create(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("{\"table\":\"words\"}\n")); err != nil {
		t.Fatal(err)
	}
	if err := closeOut(); err != nil {
		t.Fatal(err)
	}

	r, closeIn, err := s.open(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer closeIn()
	var got bytes.Buffer
	if _, err := got.ReadFrom(r); err != nil {
		t.Fatal(err)
	}
	if got.String() != "{\"table\":\"words\"}\n" {
		t.Fatalf("round trip = %q", got.String())
	}

	if std := newBackupStream("-", false); !std.stdio() || std.gzip {
		t.Fatalf("unexpected stdio stream %+v", std)
	}
}
