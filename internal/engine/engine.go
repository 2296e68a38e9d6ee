// Package engine runs interrogation sessions: it turns a case definition and
// an append-only conversation log into disclosure-gated prompts, calls the
// language model, and scores the final verdict.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jkorri/gumshoe/internal/analysis"
	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrCaseNotFound         = errors.NewSentinel("case not found")
	ErrSessionNotFound      = errors.NewSentinel("session not found")
	ErrSessionClosed        = errors.NewSentinel("session is finished")
	ErrAuthRequired         = errors.NewSentinel("case requires a logged-in player")
	ErrNoCharacterAvailable = errors.NewSentinel("case has no characters to question")
	ErrGenerationFailed     = errors.NewSentinel("language generation failed")
	ErrInvalidVerdict       = errors.NewSentinel("verdict payload is invalid")
	ErrPersistenceFailed    = errors.NewSentinel("storing the session state failed")
)

// CaseStore supplies immutable case documents. Missing cases are reported
// with repositories.ErrNotFound.
type CaseStore interface {
	Get(ctx context.Context, caseID string) (models.Case, error)
}

// SessionStore persists session records. Put must replace the whole record
// (status and log together) in one atomic write. FinishWithResult must store
// the result and the finished session atomically: a partial finish would
// leave the session impossible to ever finish with a verdict, because the
// store accepts only one result per session.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Get(ctx context.Context, sessionID string) (models.Session, error)
	Put(ctx context.Context, session models.Session) error
	FinishWithResult(ctx context.Context, session models.Session, result models.Result) error
}

// Generator is the language generation service.
type Generator interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Analyzer is the external skill-analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Response, error)
}

// Engine orchestrates interrogation sessions. Case documents are read-only
// and freely shared; the session record is the only mutable state and every
// read-modify-write on it runs under the per-session lock.
type Engine struct {
	cases    CaseStore
	sessions SessionStore
	ai       Generator
	analyzer Analyzer
	logger   *slog.Logger
	locks    keyedMutex
}

func New(
	cases CaseStore,
	sessions SessionStore,
	ai Generator,
	analyzer Analyzer,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cases:    cases,
		sessions: sessions,
		ai:       ai,
		analyzer: analyzer,
		logger:   logger.With("source", "Engine"),
	}
}

// persistenceFailed marks a storage write failure so callers can detect it
// with errors.Is while keeping the underlying cause.
func persistenceFailed(err error) error {
	return errors.Join(ErrPersistenceFailed, err)
}

// keyedMutex serializes work per key. An unguarded read-JSON/mutate/write
// cycle on the session log can lose turns under concurrent asks; holding the
// session's lock for the whole read-modify-write closes that race.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns the unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
