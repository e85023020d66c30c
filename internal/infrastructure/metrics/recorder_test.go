package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocdrill/internal/entity"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.ObserveSubmission(entity.PoolToday, entity.OutcomeCorrect, false)
	r.ObserveSubmission(entity.PoolToday, entity.OutcomeCorrect, false)
	r.ObserveSubmission(entity.PoolWeak, entity.OutcomeIncorrect, false)
	r.ObserveSubmission(entity.PoolToday, entity.OutcomeCorrect, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.submissions.WithLabelValues("today", "correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.submissions.WithLabelValues("weak", "incorrect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.replays.WithLabelValues("today")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vocdrill_learning_submissions_total{outcome="correct",pool="today"} 2`)
	assert.Contains(t, string(body), `vocdrill_learning_submissions_total{outcome="hint_correct",pool="review"} 0`)
	assert.Contains(t, string(body), `vocdrill_learning_submission_replays_total{pool="weak"} 0`)
}

func TestRecorderStartsEverySeries(t *testing.T) {
	r := NewRecorder()
	want := len(entity.Pools) * len(entity.Outcomes)
	assert.Equal(t, want, testutil.CollectAndCount(r.submissions))
	assert.Equal(t, len(entity.Pools), testutil.CollectAndCount(r.replays))
}
