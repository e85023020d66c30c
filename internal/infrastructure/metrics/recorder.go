package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eslsoft/vocdrill/internal/entity"
)

// Recorder counts graded submissions per pool and outcome.
type Recorder struct {
	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	replays     *prometheus.CounterVec
}

// NewRecorder registers the learning collectors on a private registry. Every
// pool and outcome series starts at zero.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocdrill",
			Subsystem: "learning",
			Name:      "submissions_total",
			Help:      "Answers recorded, by pool and outcome.",
		}, []string{"pool", "outcome"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocdrill",
			Subsystem: "learning",
			Name:      "submission_replays_total",
			Help:      "Submissions answered from the ledger without changing state.",
		}, []string{"pool"}),
	}
	for _, pool := range entity.Pools {
		r.replays.WithLabelValues(string(pool))
		for _, outcome := range entity.Outcomes {
			r.submissions.WithLabelValues(string(pool), string(outcome))
		}
	}
	reg.MustRegister(
		r.submissions,
		r.replays,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveSubmission implements the learning usecase observer.
func (r *Recorder) ObserveSubmission(pool entity.Pool, outcome entity.Outcome, replayed bool) {
	if replayed {
		r.replays.WithLabelValues(string(pool)).Inc()
		return
	}
	r.submissions.WithLabelValues(string(pool), string(outcome)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
