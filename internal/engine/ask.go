package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/prompt"
	"github.com/jkorri/gumshoe/internal/repositories"
	"github.com/jkorri/gumshoe/internal/trigger"
)

// Ask runs one interrogation turn: detect triggers in the question, build
// the disclosure-gated prompts, call the model and append the paired turn.
//
// The whole read-generate-append cycle holds the session lock so concurrent
// asks on one session cannot interleave into duplicate turn numbers or lost
// updates. On any failure nothing is appended.
func (e *Engine) Ask(ctx context.Context, sessionID, characterName, playerText string) (string, error) {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", errors.Wrap(ErrSessionNotFound, "ask", slog.String("session_id", sessionID))
		}
		return "", errors.Wrap(err, "load session")
	}
	if session.Status != models.StatusPlaying {
		return "", errors.Wrap(ErrSessionClosed, "ask", slog.String("session_id", sessionID))
	}

	c, err := e.cases.Get(ctx, session.CaseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", errors.Wrap(ErrCaseNotFound, "ask", slog.String("case_id", session.CaseID))
		}
		return "", errors.Wrap(err, "load case")
	}

	character, err := resolveCharacter(c, characterName)
	if err != nil {
		return "", err
	}

	meta := trigger.Detect(playerText, c)

	messages := prompt.Messages(c, character, session.Turns, playerText)
	answer, err := e.ai.Complete(ctx, messages)
	if err != nil {
		return "", errors.Join(ErrGenerationFailed, err)
	}
	// Guarded here and not only in the client: no generator may append a
	// turn where the character says nothing.
	if answer == "" {
		return "", errors.Wrap(ErrGenerationFailed, "empty answer", slog.String("session_id", sessionID))
	}

	now := time.Now().Unix()
	session.AppendTurn(
		models.Utterance{
			Speaker:       models.SpeakerPlayer,
			CharacterID:   character.ID,
			CharacterName: character.Name,
			Message:       prompt.Tag(character.Name, playerText),
			Meta:          meta,
			Timestamp:     now,
		},
		models.Utterance{
			Speaker:       models.SpeakerCharacter,
			CharacterID:   character.ID,
			CharacterName: character.Name,
			Message:       answer,
			Meta:          trigger.Echo(meta),
			Timestamp:     now,
		},
	)

	if err = e.sessions.Put(ctx, session); err != nil {
		return "", persistenceFailed(err)
	}

	e.logger.LogAttrs(ctx, slog.LevelDebug, "turn completed",
		slog.String("session_id", sessionID),
		slog.String("character", character.Name),
		slog.Int("turn", len(session.Turns)),
		slog.String("level", string(meta.Level)))

	return answer, nil
}

// resolveCharacter finds the addressed character by display name. An unknown
// name falls back to the case's first character so a minor name mismatch
// keeps the conversation moving; only a case with no characters at all is an
// error.
func resolveCharacter(c models.Case, name string) (models.Character, error) {
	if ch, ok := c.CharacterByName(name); ok {
		return ch, nil
	}
	if len(c.Characters) > 0 {
		return c.Characters[0], nil
	}
	return models.Character{}, errors.Wrap(ErrNoCharacterAvailable, "resolve character", slog.String("case_id", c.ID))
}

// Log returns the session's conversation log.
func (e *Engine) Log(ctx context.Context, sessionID string) ([]models.Turn, error) {
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.Wrap(ErrSessionNotFound, "read log", slog.String("session_id", sessionID))
		}
		return nil, errors.Wrap(err, "load session")
	}
	return session.Turns, nil
}
