package connectrpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/eslsoft/vocdrill/internal/adapter/mapping"
	"github.com/eslsoft/vocdrill/internal/infrastructure/auth"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

// LearningServiceName is the fully-qualified name of the learning service.
const LearningServiceName = "vocdrill.learning.v1.LearningService"

// Procedure paths of the learning service.
const (
	GetMenuStatusProcedure   = "/" + LearningServiceName + "/GetMenuStatus"
	ListWordsProcedure       = "/" + LearningServiceName + "/ListWords"
	SubmitAnswerProcedure    = "/" + LearningServiceName + "/SubmitAnswer"
	GetMonthlyStatsProcedure = "/" + LearningServiceName + "/GetMonthlyStats"
	ListWeakWordsProcedure   = "/" + LearningServiceName + "/ListWeakWords"
)

type LearningServiceServer struct {
	learning usecase.LearningUsecase
	stats    usecase.StatsUsecase
	weak     usecase.WeakWordTracker
	learners usecase.LearnerUsecase
}

func NewLearningServiceServer(
	learning usecase.LearningUsecase,
	stats usecase.StatsUsecase,
	weak usecase.WeakWordTracker,
	learners usecase.LearnerUsecase,
) *LearningServiceServer {
	return &LearningServiceServer{learning: learning, stats: stats, weak: weak, learners: learners}
}

func (s *LearningServiceServer) GetMenuStatus(ctx context.Context, _ *connect.Request[mapping.MenuStatusRequest]) (*connect.Response[usecase.MenuStatus], error) {
	p, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	status, err := s.learning.MenuStatus(ctx, p.LearnerID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(status), nil
}

func (s *LearningServiceServer) ListWords(ctx context.Context, req *connect.Request[mapping.ListWordsRequest]) (*connect.Response[mapping.ListWordsResponse], error) {
	p, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	words, err := s.learning.ListWords(ctx, p.LearnerID, req.Msg.Pool, req.Msg.Period)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&mapping.ListWordsResponse{Words: mapping.ToWords(words)}), nil
}

func (s *LearningServiceServer) SubmitAnswer(ctx context.Context, req *connect.Request[mapping.AnswerRequest]) (*connect.Response[mapping.AnswerResponse], error) {
	p, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	res, err := s.learning.SubmitAnswer(ctx, p, req.Msg.ToInput())
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(mapping.ToAnswerResponse(res)), nil
}

func (s *LearningServiceServer) GetMonthlyStats(ctx context.Context, req *connect.Request[mapping.MonthlyStatsRequest]) (*connect.Response[mapping.MonthlyStatsResponse], error) {
	learnerID, err := s.viewable(ctx, req.Msg.LearnerID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	rows, err := s.stats.MonthlyStats(ctx, learnerID, req.Msg.Year, req.Msg.Month)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&mapping.MonthlyStatsResponse{Days: mapping.ToDailyStats(rows)}), nil
}

func (s *LearningServiceServer) ListWeakWords(ctx context.Context, req *connect.Request[mapping.WeakWordsRequest]) (*connect.Response[mapping.WeakWordsResponse], error) {
	learnerID, err := s.viewable(ctx, req.Msg.LearnerID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	rows, err := s.weak.WeakWords(ctx, learnerID, req.Msg.ToQuery())
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&mapping.WeakWordsResponse{Words: rows}), nil
}

// viewable resolves the learner a read-only view targets; zero means the caller.
func (s *LearningServiceServer) viewable(ctx context.Context, learnerID int64) (int64, error) {
	p, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return 0, err
	}
	if learnerID == 0 {
		return p.LearnerID, nil
	}
	l, err := s.learners.ResolveViewable(ctx, p, learnerID)
	if err != nil {
		return 0, err
	}
	return l.ID, nil
}

// NewLearningServiceHandler builds the HTTP handler serving every procedure of the
// learning service and returns the path to mount it on.
func NewLearningServiceHandler(svc *LearningServiceServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	readOnly := append(opts[:len(opts):len(opts)], connect.WithIdempotency(connect.IdempotencyNoSideEffects))

	mux := http.NewServeMux()
	mux.Handle(GetMenuStatusProcedure, connect.NewUnaryHandler(GetMenuStatusProcedure, svc.GetMenuStatus, readOnly...))
	mux.Handle(ListWordsProcedure, connect.NewUnaryHandler(ListWordsProcedure, svc.ListWords, readOnly...))
	mux.Handle(SubmitAnswerProcedure, connect.NewUnaryHandler(SubmitAnswerProcedure, svc.SubmitAnswer, opts...))
	mux.Handle(GetMonthlyStatsProcedure, connect.NewUnaryHandler(GetMonthlyStatsProcedure, svc.GetMonthlyStats, readOnly...))
	mux.Handle(ListWeakWordsProcedure, connect.NewUnaryHandler(ListWeakWordsProcedure, svc.ListWeakWords, readOnly...))
	return "/" + LearningServiceName + "/", mux
}

// NewAuthInterceptor authenticates every call from its Authorization header.
func NewAuthInterceptor(a *auth.Authenticator) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			p, err := a.Authenticate(ctx, req.Header().Get("Authorization"))
			if err != nil {
				return nil, mapping.ToConnectError(err)
			}
			return next(auth.WithPrincipal(ctx, p), req)
		}
	}
}
