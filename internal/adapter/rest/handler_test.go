package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sirupsen/logrus"
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
	learners usecase.LearnerUsecase
	learner  *entity.Learner
	guardian *entity.Learner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	drv, cleanup, err := database.Open("sqlite3", fmt.Sprintf("file:rest_%s?mode=memory&cache=shared&_fk=1", name), false, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NoError(t, database.Migrate(ctx, drv))

	words := repository.NewWordRepository(drv)
	learning := repository.NewLearningRepository(drv)
	policy := usecase.DefaultPolicy()

	f := &fixture{learners: usecase.NewLearnerUsecase(repository.NewLearnerRepository(drv))}
	f.learner, err = f.learners.Register(ctx, "ann", entity.RoleLearner, nil)
	require.NoError(t, err)
	f.guardian, err = f.learners.Register(ctx, "pat", entity.RoleGuardian, nil)
	require.NoError(t, err)
	f.issuer = auth.NewIssuer(&config.Config{Auth: config.AuthConfig{Secret: "test", Issuer: "vocdrill", TokenTTL: time.Hour}})

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewHandler(
		usecase.NewLearningUsecase(words, learning, policy, nil),
		usecase.NewStatsUsecase(learning),
		usecase.NewWeakWordTracker(words, learning, policy),
		f.learners,
		usecase.NewCatalogUsecase(words),
		auth.NewAuthenticator(f.issuer, f.learners),
		logger,
	)
	mux := runtime.NewServeMux()
	require.NoError(t, h.Register(mux))
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, who *entity.Learner, method, path, contentType, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if who != nil {
		tk, err := f.issuer.Issue(entity.Principal{LearnerID: who.ID, Role: who.Role})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tk)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestREST_LearningFlow(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, f.guardian, http.MethodPost, "/api/admin/import-words", "text/csv",
		"english,japanese,english_katakana,section\napple,りんご,アップル,1\nbook,本,ブック,1\n")
	require.Equal(t, http.StatusOK, code, string(body))
	var report mapping.ImportReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 2, report.Imported)

	code, body = f.do(t, f.learner, http.MethodGet, "/api/learning/today", "", "")
	require.Equal(t, http.StatusOK, code)
	var words []mapping.Word
	require.NoError(t, json.Unmarshal(body, &words))
	require.Len(t, words, 2)
	assert.Equal(t, "apple", words[0].TargetText)

	code, body = f.do(t, f.learner, http.MethodPost, "/api/learning/answer", "application/json",
		fmt.Sprintf(`{"word_id":%d,"answer":"Apple","pool":"today","hint_used":true}`, words[0].ID))
	require.Equal(t, http.StatusOK, code, string(body))
	var ans mapping.AnswerResponse
	require.NoError(t, json.Unmarshal(body, &ans))
	assert.True(t, ans.IsCorrect)
	assert.Equal(t, "hint_correct", ans.Outcome)
	assert.Equal(t, "アップル", ans.Reading)

	code, body = f.do(t, f.learner, http.MethodGet, "/api/learning/menu-status", "", "")
	require.Equal(t, http.StatusOK, code)
	var status usecase.MenuStatus
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, 1, status.Today)
	assert.True(t, status.StudiedToday)

	now := time.Now().UTC()
	code, body = f.do(t, f.learner, http.MethodGet, fmt.Sprintf("/api/learning/stats?year=%d&month=%d", now.Year(), now.Month()), "", "")
	require.Equal(t, http.StatusOK, code)
	var days []mapping.DailyStat
	require.NoError(t, json.Unmarshal(body, &days))
	assert.Equal(t, 1, days[now.Day()-1].Today.Hint)

	code, _ = f.do(t, f.learner, http.MethodGet, "/api/learning/weak-words?sort_by=accuracy&order=desc", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestREST_Errors(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		who    *entity.Learner
		method string
		path   string
		body   string
		want   int
	}{
		{"no token", nil, http.MethodGet, "/api/learning/menu-status", "", http.StatusUnauthorized},
		{"bad period", f.learner, http.MethodGet, "/api/learning/weak?period=week", "", http.StatusBadRequest},
		{"empty answer", f.learner, http.MethodPost, "/api/learning/answer", `{"word_id":1,"answer":" ","pool":"today"}`, http.StatusBadRequest},
		{"unknown word", f.learner, http.MethodPost, "/api/learning/answer", `{"word_id":99,"answer":"x","pool":"today"}`, http.StatusNotFound},
		{"guardian answers", f.guardian, http.MethodPost, "/api/learning/answer", `{"word_id":1,"answer":"x","pool":"today"}`, http.StatusForbidden},
		{"bad month", f.learner, http.MethodGet, "/api/learning/stats?year=2025&month=13", "", http.StatusBadRequest},
		{"bad sort", f.learner, http.MethodGet, "/api/learning/weak-words?sort_by=section", "", http.StatusBadRequest},
		{"learner imports", f.learner, http.MethodPost, "/api/admin/import-words", "target_text,prompt_text\na,b\n", http.StatusForbidden},
		{"learner lists dependents", f.learner, http.MethodGet, "/api/guardian/learners", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := f.do(t, tc.who, tc.method, tc.path, "application/json", tc.body)
			assert.Equal(t, tc.want, code, string(body))
			var e mapping.Error
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestREST_GuardianRoutes(t *testing.T) {
	f := newFixture(t)
	stranger, err := f.learners.Register(context.Background(), "sam", entity.RoleGuardian, nil)
	require.NoError(t, err)

	code, body := f.do(t, f.guardian, http.MethodPost, "/api/guardian/learners", "application/json", `{"name":"kim"}`)
	require.Equal(t, http.StatusCreated, code, string(body))
	var kid mapping.Learner
	require.NoError(t, json.Unmarshal(body, &kid))
	assert.Equal(t, "learner", kid.Role)
	require.NotNil(t, kid.GuardianID)

	code, body = f.do(t, f.guardian, http.MethodGet, "/api/guardian/learners", "", "")
	require.Equal(t, http.StatusOK, code)
	var list []mapping.Learner
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	now := time.Now().UTC()
	statsPath := fmt.Sprintf("/api/guardian/learners/%d/stats?year=%d&month=%d", kid.ID, now.Year(), now.Month())
	code, _ = f.do(t, f.guardian, http.MethodGet, statsPath, "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, stranger, http.MethodGet, statsPath, "", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, f.guardian, http.MethodGet, fmt.Sprintf("/api/guardian/learners/%d/weak-words", kid.ID), "", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, stranger, http.MethodDelete, fmt.Sprintf("/api/guardian/learners/%d", kid.ID), "", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(t, f.guardian, http.MethodDelete, fmt.Sprintf("/api/guardian/learners/%d", kid.ID), "", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = f.do(t, f.guardian, http.MethodGet, statsPath, "", "")
	assert.Equal(t, http.StatusNotFound, code)
}
