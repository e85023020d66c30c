// Package session drives one quiz run over a batch of words.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

// Phase is the current step of a session.
type Phase int

const (
	PhaseActive    Phase = iota // waiting for an answer to the current word
	PhaseEvaluated              // answer graded, feedback shown
	PhaseComplete               // no words left
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseEvaluated:
		return "evaluated"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

var (
	ErrWrongPhase         = errors.New("operation not valid in current phase")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// Submitter records an answer durably.
type Submitter interface {
	SubmitAnswer(ctx context.Context, principal entity.Principal, in *usecase.AnswerInput) (*usecase.AnswerResult, error)
}

// Session is safe for concurrent use; the durable write happens outside the lock.
type Session struct {
	mu        sync.Mutex
	principal entity.Principal
	pool      entity.Pool
	words     []*entity.Word
	submitter Submitter

	index        int
	phase        Phase
	hintUsed     bool
	inFlight     bool
	submissionID string
	last         *usecase.AnswerResult
	score        entity.Counters
}

// New starts a session over words. An empty batch is complete immediately.
func New(principal entity.Principal, pool entity.Pool, words []*entity.Word, submitter Submitter) *Session {
	s := &Session{
		principal:    principal,
		pool:         pool,
		words:        words,
		submitter:    submitter,
		submissionID: uuid.NewString(),
	}
	if len(words) == 0 {
		s.phase = PhaseComplete
	}
	return s
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Current returns the word being asked and its 1-based position, or nil when complete.
func (s *Session) Current() (*entity.Word, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseComplete {
		return nil, len(s.words), len(s.words)
	}
	return s.words[s.index], s.index + 1, len(s.words)
}

// Hint reveals the reading of the current word and marks the answer as hinted.
// It is refused once the answer has been handed to the submitter.
func (s *Session) Hint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return "", ErrWrongPhase
	}
	if s.inFlight {
		return "", ErrSubmissionInFlight
	}
	s.hintUsed = true
	return s.words[s.index].Reading, nil
}

// Submit grades an answer. The local score only changes after the durable write
// succeeded; on error the session stays active and the answer may be retried.
func (s *Session) Submit(ctx context.Context, answer string) (*usecase.AnswerResult, error) {
	s.mu.Lock()
	if s.phase != PhaseActive {
		s.mu.Unlock()
		return nil, ErrWrongPhase
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if err := usecase.ValidateAnswer(answer); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	in := &usecase.AnswerInput{
		WordID:       s.words[s.index].ID,
		Answer:       answer,
		Pool:         string(s.pool),
		HintUsed:     s.hintUsed,
		SubmissionID: s.submissionID,
	}
	s.inFlight = true
	s.mu.Unlock()

	res, err := s.submitter.SubmitAnswer(ctx, s.principal, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return nil, err
	}
	s.score.Add(res.Outcome)
	s.last = res
	s.phase = PhaseEvaluated
	return res, nil
}

// Last returns the most recent graded answer.
func (s *Session) Last() *usecase.AnswerResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Advance moves past the evaluated word.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEvaluated {
		return ErrWrongPhase
	}
	s.index++
	s.hintUsed = false
	s.submissionID = uuid.NewString()
	if s.index >= len(s.words) {
		s.phase = PhaseComplete
		return nil
	}
	s.phase = PhaseActive
	return nil
}

// Score returns the session's local tally.
func (s *Session) Score() entity.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}
