package connectrpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocdrill/internal/adapter/mapping"
	"github.com/eslsoft/vocdrill/internal/adapter/repository"
	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/infrastructure/auth"
	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
	"github.com/eslsoft/vocdrill/internal/infrastructure/database"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

type fixture struct {
	server   *httptest.Server
	issuer   *auth.Issuer
	learner  *entity.Learner
	guardian *entity.Learner
	kid      *entity.Learner
	stranger *entity.Learner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	drv, cleanup, err := database.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name), false, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NoError(t, database.Migrate(ctx, drv))

	words := repository.NewWordRepository(drv)
	learning := repository.NewLearningRepository(drv)
	_, _, err = words.Import(ctx, []*entity.Word{
		{TargetText: "apple", PromptText: "りんご", Reading: "アップル", Section: 1},
		{TargetText: "book", PromptText: "本", Reading: "ブック", Section: 1},
	})
	require.NoError(t, err)

	policy := usecase.DefaultPolicy()
	learners := usecase.NewLearnerUsecase(repository.NewLearnerRepository(drv))
	f := &fixture{}
	f.learner, err = learners.Register(ctx, "ann", entity.RoleLearner, nil)
	require.NoError(t, err)
	f.guardian, err = learners.Register(ctx, "pat", entity.RoleGuardian, nil)
	require.NoError(t, err)
	f.kid, err = learners.AddDependent(ctx, entity.Principal{LearnerID: f.guardian.ID, Role: entity.RoleGuardian}, "kim")
	require.NoError(t, err)
	f.stranger, err = learners.Register(ctx, "sam", entity.RoleGuardian, nil)
	require.NoError(t, err)

	f.issuer = auth.NewIssuer(&config.Config{Auth: config.AuthConfig{Secret: "test", Issuer: "vocdrill", TokenTTL: time.Hour}})
	svc := NewLearningServiceServer(
		usecase.NewLearningUsecase(words, learning, policy, nil),
		usecase.NewStatsUsecase(learning),
		usecase.NewWeakWordTracker(words, learning, policy),
		learners,
	)
	path, handler := NewLearningServiceHandler(svc,
		connect.WithInterceptors(NewAuthInterceptor(auth.NewAuthenticator(f.issuer, learners))))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) token(t *testing.T, l *entity.Learner) string {
	t.Helper()
	tk, err := f.issuer.Issue(entity.Principal{LearnerID: l.ID, Role: l.Role})
	require.NoError(t, err)
	return "Bearer " + tk
}

func call[Req, Res any](t *testing.T, f *fixture, procedure, token string, msg *Req) (*Res, error) {
	t.Helper()
	client := connect.NewClient[Req, Res](f.server.Client(), f.server.URL+procedure, WithJSON())
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", token)
	}
	resp, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func TestLearningService_SubmitFlow(t *testing.T) {
	f := newFixture(t)
	tk := f.token(t, f.learner)

	status, err := call[mapping.MenuStatusRequest, usecase.MenuStatus](t, f, GetMenuStatusProcedure, tk, &mapping.MenuStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, status.Today)
	assert.False(t, status.StudiedToday)

	list, err := call[mapping.ListWordsRequest, mapping.ListWordsResponse](t, f, ListWordsProcedure, tk, &mapping.ListWordsRequest{Pool: "today"})
	require.NoError(t, err)
	require.Len(t, list.Words, 2)

	ans, err := call[mapping.AnswerRequest, mapping.AnswerResponse](t, f, SubmitAnswerProcedure, tk,
		&mapping.AnswerRequest{WordID: list.Words[0].ID, Answer: " APPLE ", Pool: "today"})
	require.NoError(t, err)
	assert.True(t, ans.IsCorrect)
	assert.Equal(t, "correct", ans.Outcome)
	assert.Equal(t, "apple", ans.CorrectAnswer)
	assert.NotEmpty(t, ans.SubmissionID)

	status, err = call[mapping.MenuStatusRequest, usecase.MenuStatus](t, f, GetMenuStatusProcedure, tk, &mapping.MenuStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, status.Today)
	assert.True(t, status.StudiedToday)

	now := time.Now().UTC()
	stats, err := call[mapping.MonthlyStatsRequest, mapping.MonthlyStatsResponse](t, f, GetMonthlyStatsProcedure, tk,
		&mapping.MonthlyStatsRequest{Year: now.Year(), Month: int(now.Month())})
	require.NoError(t, err)
	require.Len(t, stats.Days, time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day())
	assert.Equal(t, 1, stats.Days[now.Day()-1].Today.Correct)
}

func TestLearningService_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := call[mapping.MenuStatusRequest, usecase.MenuStatus](t, f, GetMenuStatusProcedure, "", &mapping.MenuStatusRequest{})
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = call[mapping.AnswerRequest, mapping.AnswerResponse](t, f, SubmitAnswerProcedure, f.token(t, f.learner),
		&mapping.AnswerRequest{WordID: 1, Answer: "  ", Pool: "today"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[mapping.AnswerRequest, mapping.AnswerResponse](t, f, SubmitAnswerProcedure, f.token(t, f.guardian),
		&mapping.AnswerRequest{WordID: 1, Answer: "apple", Pool: "today"})
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = call[mapping.ListWordsRequest, mapping.ListWordsResponse](t, f, ListWordsProcedure, f.token(t, f.learner),
		&mapping.ListWordsRequest{Pool: "weak", Period: "week"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestLearningService_GuardianViews(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	_, err := call[mapping.MonthlyStatsRequest, mapping.MonthlyStatsResponse](t, f, GetMonthlyStatsProcedure, f.token(t, f.guardian),
		&mapping.MonthlyStatsRequest{LearnerID: f.kid.ID, Year: now.Year(), Month: int(now.Month())})
	require.NoError(t, err)

	_, err = call[mapping.MonthlyStatsRequest, mapping.MonthlyStatsResponse](t, f, GetMonthlyStatsProcedure, f.token(t, f.stranger),
		&mapping.MonthlyStatsRequest{LearnerID: f.kid.ID, Year: now.Year(), Month: int(now.Month())})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	weak, err := call[mapping.WeakWordsRequest, mapping.WeakWordsResponse](t, f, ListWeakWordsProcedure, f.token(t, f.guardian),
		&mapping.WeakWordsRequest{LearnerID: f.kid.ID, SortBy: "english", Order: "desc"})
	require.NoError(t, err)
	assert.Empty(t, weak.Words)

	_, err = call[mapping.WeakWordsRequest, mapping.WeakWordsResponse](t, f, ListWeakWordsProcedure, f.token(t, f.learner),
		&mapping.WeakWordsRequest{SortBy: "section"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
