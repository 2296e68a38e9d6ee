package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/repositories"
)

// Start creates a session in PLAYING state with an empty conversation log.
// playerID is nil for anonymous play; member-only cases reject anonymous
// players with ErrAuthRequired.
func (e *Engine) Start(ctx context.Context, caseID string, playerID *string) (string, error) {
	c, err := e.cases.Get(ctx, caseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", errors.Wrap(ErrCaseNotFound, "start session", slog.String("case_id", caseID))
		}
		return "", errors.Wrap(err, "load case")
	}

	if c.Access == models.AccessMember && playerID == nil {
		return "", errors.Wrap(ErrAuthRequired, "start session", slog.String("case_id", caseID))
	}

	session := models.Session{
		ID:       uuid.NewString(),
		CaseID:   c.ID,
		PlayerID: playerID,
		Status:   models.StatusPlaying,
	}
	if err = e.sessions.Create(ctx, session); err != nil {
		return "", persistenceFailed(err)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "session started",
		slog.String("session_id", session.ID), slog.String("case_id", c.ID))
	return session.ID, nil
}

// FinishExplicit transitions PLAYING to FINISHED without producing a result.
// It is used when a player abandons the game and is idempotent on sessions
// that are already finished.
func (e *Engine) FinishExplicit(ctx context.Context, sessionID string) error {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errors.Wrap(ErrSessionNotFound, "finish session", slog.String("session_id", sessionID))
		}
		return errors.Wrap(err, "load session")
	}

	if session.Status == models.StatusFinished {
		return nil
	}

	session.Status = models.StatusFinished
	if err = e.sessions.Put(ctx, session); err != nil {
		return persistenceFailed(err)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "session abandoned", slog.String("session_id", sessionID))
	return nil
}
