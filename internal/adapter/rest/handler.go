package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"

	"github.com/eslsoft/vocdrill/internal/adapter/mapping"
	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/infrastructure/auth"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

const maxImportBytes = 10 << 20

// endpoint handles an authenticated request and returns the response body.
type endpoint func(ctx context.Context, p entity.Principal, r *http.Request, params map[string]string) (any, error)

// Handler serves the JSON API on a grpc-gateway mux.
type Handler struct {
	learning usecase.LearningUsecase
	stats    usecase.StatsUsecase
	weak     usecase.WeakWordTracker
	learners usecase.LearnerUsecase
	catalog  usecase.CatalogUsecase
	authn    *auth.Authenticator
	logger   logrus.FieldLogger

	marshaler runtime.Marshaler
}

func NewHandler(
	learning usecase.LearningUsecase,
	stats usecase.StatsUsecase,
	weak usecase.WeakWordTracker,
	learners usecase.LearnerUsecase,
	catalog usecase.CatalogUsecase,
	authn *auth.Authenticator,
	logger logrus.FieldLogger,
) *Handler {
	return &Handler{
		learning:  learning,
		stats:     stats,
		weak:      weak,
		learners:  learners,
		catalog:   catalog,
		authn:     authn,
		logger:    logger,
		marshaler: &runtime.JSONBuiltin{},
	}
}

// Register mounts every route on the mux.
func (h *Handler) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method, pattern string
		status          int
		fn              endpoint
	}{
		{http.MethodGet, "/api/learning/menu-status", http.StatusOK, h.menuStatus},
		{http.MethodGet, "/api/learning/today", http.StatusOK, h.poolWords(entity.PoolToday)},
		{http.MethodGet, "/api/learning/review", http.StatusOK, h.poolWords(entity.PoolReview)},
		{http.MethodGet, "/api/learning/weak", http.StatusOK, h.poolWords(entity.PoolWeak)},
		{http.MethodPost, "/api/learning/answer", http.StatusOK, h.submitAnswer},
		{http.MethodGet, "/api/learning/stats", http.StatusOK, h.monthlyStats},
		{http.MethodGet, "/api/learning/weak-words", http.StatusOK, h.weakWords},
		{http.MethodGet, "/api/guardian/learners", http.StatusOK, h.listDependents},
		{http.MethodPost, "/api/guardian/learners", http.StatusCreated, h.addDependent},
		{http.MethodDelete, "/api/guardian/learners/{id}", http.StatusNoContent, h.removeDependent},
		{http.MethodGet, "/api/guardian/learners/{id}/stats", http.StatusOK, h.monthlyStats},
		{http.MethodGet, "/api/guardian/learners/{id}/weak-words", http.StatusOK, h.weakWords},
		{http.MethodPost, "/api/admin/import-words", http.StatusOK, h.importWords},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, h.wrap(rt.status, rt.fn)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) wrap(status int, fn endpoint) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		ctx := r.Context()
		p, err := h.authn.Authenticate(ctx, r.Header.Get("Authorization"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		ctx = auth.WithPrincipal(ctx, p)

		body, err := fn(ctx, p, r.WithContext(ctx), params)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.write(w, status, body)
	}
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	if status == http.StatusNoContent || body == nil {
		w.WriteHeader(status)
		return
	}
	data, err := h.marshaler.Marshal(body)
	if err != nil {
		h.logger.WithError(err).Error("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", h.marshaler.ContentType(body))
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := mapping.Code(err)
	msg := err.Error()
	if code == codes.Internal {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		msg = "internal error"
	}
	h.write(w, mapping.HTTPStatus(err), &mapping.Error{Code: code.String(), Message: msg})
}

func (h *Handler) menuStatus(ctx context.Context, p entity.Principal, _ *http.Request, _ map[string]string) (any, error) {
	return h.learning.MenuStatus(ctx, p.LearnerID)
}

func (h *Handler) poolWords(pool entity.Pool) endpoint {
	return func(ctx context.Context, p entity.Principal, r *http.Request, _ map[string]string) (any, error) {
		words, err := h.learning.ListWords(ctx, p.LearnerID, string(pool), r.URL.Query().Get("period"))
		if err != nil {
			return nil, err
		}
		return mapping.ToWords(words), nil
	}
}

func (h *Handler) submitAnswer(ctx context.Context, p entity.Principal, r *http.Request, _ map[string]string) (any, error) {
	var req mapping.AnswerRequest
	if err := h.marshaler.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, entity.ErrEmptyAnswer
	}
	res, err := h.learning.SubmitAnswer(ctx, p, req.ToInput())
	if err != nil {
		return nil, err
	}
	return mapping.ToAnswerResponse(res), nil
}

func (h *Handler) monthlyStats(ctx context.Context, p entity.Principal, r *http.Request, params map[string]string) (any, error) {
	learnerID, err := h.target(ctx, p, params)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	year, yerr := strconv.Atoi(q.Get("year"))
	month, merr := strconv.Atoi(q.Get("month"))
	if yerr != nil || merr != nil {
		return nil, entity.ErrInvalidMonth
	}
	rows, err := h.stats.MonthlyStats(ctx, learnerID, year, month)
	if err != nil {
		return nil, err
	}
	return mapping.ToDailyStats(rows), nil
}

func (h *Handler) weakWords(ctx context.Context, p entity.Principal, r *http.Request, params map[string]string) (any, error) {
	learnerID, err := h.target(ctx, p, params)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	return h.weak.WeakWords(ctx, learnerID, &usecase.WeakWordQuery{
		SortBy: q.Get("sort_by"),
		Order:  q.Get("order"),
		Filter: q.Get("filter"),
	})
}

func (h *Handler) listDependents(ctx context.Context, p entity.Principal, _ *http.Request, _ map[string]string) (any, error) {
	items, err := h.learners.ListDependents(ctx, p)
	if err != nil {
		return nil, err
	}
	return mapping.ToLearners(items), nil
}

func (h *Handler) addDependent(ctx context.Context, p entity.Principal, r *http.Request, _ map[string]string) (any, error) {
	var req mapping.CreateLearnerRequest
	if err := h.marshaler.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, entity.ErrInvalidLearner
	}
	l, err := h.learners.AddDependent(ctx, p, req.Name)
	if err != nil {
		return nil, err
	}
	out := mapping.ToLearner(l)
	return &out, nil
}

func (h *Handler) removeDependent(ctx context.Context, p entity.Principal, _ *http.Request, params map[string]string) (any, error) {
	id, err := pathID(params)
	if err != nil {
		return nil, err
	}
	return nil, h.learners.RemoveDependent(ctx, p, id)
}

func (h *Handler) importWords(ctx context.Context, p entity.Principal, r *http.Request, _ map[string]string) (any, error) {
	if p.Role != entity.RoleGuardian {
		return nil, entity.ErrForbidden
	}
	report, err := h.catalog.ImportWords(ctx, http.MaxBytesReader(nil, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, entity.ErrInvalidWord
		}
		return nil, err
	}
	return mapping.ToImportReport(report), nil
}

// target is the learner a read-only view addresses: the caller, or the {id} path
// parameter resolved through guardian scoping.
func (h *Handler) target(ctx context.Context, p entity.Principal, params map[string]string) (int64, error) {
	if _, ok := params["id"]; !ok {
		return p.LearnerID, nil
	}
	id, err := pathID(params)
	if err != nil {
		return 0, err
	}
	l, err := h.learners.ResolveViewable(ctx, p, id)
	if err != nil {
		return 0, err
	}
	return l.ID, nil
}

func pathID(params map[string]string) (int64, error) {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, entity.ErrLearnerNotFound
	}
	return id, nil
}
