package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jkorri/gumshoe/internal/engine"
	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestEngine_Ask(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "I was polishing the silver, detective."}
	fixture := newTestEngine(t, gen, &fakeAnalyzer{})
	sessionID := startSession(t, fixture, "knife-case")

	answer, err := fixture.engine.Ask(context.Background(), sessionID, "Bertil Borg",
		"Where were you with the knife at 14:00?")
	require.NoError(t, err)
	require.Equal(t, "I was polishing the silver, detective.", answer)

	session, err := fixture.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, session.Turns, 1)

	turn := session.Turns[0]
	require.Equal(t, 1, turn.Number)
	require.Equal(t, models.SpeakerPlayer, turn.Player.Speaker)
	require.Equal(t, "[to Bertil Borg] Where were you with the knife at 14:00?", turn.Player.Message)
	require.Equal(t, models.SpeakerCharacter, turn.Character.Speaker)
	require.Equal(t, answer, turn.Character.Message)

	// The evidence keyword fired, so the question carries L3 with the fired
	// ids and the answer echoes the level only.
	require.Equal(t, models.LevelEvidence, turn.Player.Meta.Level)
	require.Equal(t, []string{"e1"}, turn.Player.Meta.FiredEvidenceIDs)
	require.Equal(t, []string{"14:00"}, turn.Player.Meta.FiredTimes)
	require.Equal(t, models.LevelEvidence, turn.Character.Meta.Level)
	require.Empty(t, turn.Character.Meta.FiredEvidenceIDs)

	// The model saw both system prompts and the tagged question.
	require.Len(t, gen.calls, 1)
	messages := gen.calls[0]
	require.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	require.Equal(t, openai.ChatMessageRoleSystem, messages[1].Role)
	require.Equal(t, "[to Bertil Borg] Where were you with the knife at 14:00?", messages[len(messages)-1].Content)
}

func TestEngine_Ask_turnNumbering(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "hmm."}
	fixture := newTestEngine(t, gen, &fakeAnalyzer{})
	sessionID := startSession(t, fixture, "knife-case")

	for i := 1; i <= 5; i++ {
		_, err := fixture.engine.Ask(context.Background(), sessionID, "Aino Aalto", fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	session, err := fixture.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, session.Turns, 5)
	for i, turn := range session.Turns {
		require.Equal(t, i+1, turn.Number)
	}
}

// Two concurrent asks on one session must not produce duplicate turn
// numbers or lose an update.
func TestEngine_Ask_concurrent(t *testing.T) {
	t.Parallel()

	const askers = 16

	gen := &fakeGenerator{reply: "let me think."}
	fixture := newTestEngine(t, gen, &fakeAnalyzer{})
	sessionID := startSession(t, fixture, "knife-case")

	var wg sync.WaitGroup
	for i := range askers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fixture.engine.Ask(context.Background(), sessionID, "Aino Aalto", fmt.Sprintf("question %d", i))
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	session, err := fixture.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, session.Turns, askers)

	seen := make(map[int]bool, askers)
	for i, turn := range session.Turns {
		require.Equal(t, i+1, turn.Number, "turn numbers must be gapless")
		require.False(t, seen[turn.Number], "turn number %d duplicated", turn.Number)
		seen[turn.Number] = true
	}
}

func TestEngine_Ask_characterFallback(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "who, me?"}
	fixture := newTestEngine(t, gen, &fakeAnalyzer{})
	sessionID := startSession(t, fixture, "knife-case")

	_, err := fixture.engine.Ask(context.Background(), sessionID, "No Such Person", "hello?")
	require.NoError(t, err)

	session, err := fixture.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, "Aino Aalto", session.Turns[0].Character.CharacterName,
		"unknown names fall back to the first character")
}

func TestEngine_Ask_errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		fixture := newTestEngine(t, &fakeGenerator{reply: "x"}, &fakeAnalyzer{})
		_, err := fixture.engine.Ask(context.Background(), "nonexistent", "Aino Aalto", "hello")
		require.ErrorIs(t, err, engine.ErrSessionNotFound)
	})

	t.Run("generation failure appends nothing", func(t *testing.T) {
		t.Parallel()
		gen := &fakeGenerator{err: errors.NewSentinel("model unreachable")}
		fixture := newTestEngine(t, gen, &fakeAnalyzer{})
		sessionID := startSession(t, fixture, "knife-case")

		_, err := fixture.engine.Ask(context.Background(), sessionID, "Aino Aalto", "hello")
		require.ErrorIs(t, err, engine.ErrGenerationFailed)

		session, err := fixture.sessions.Get(context.Background(), sessionID)
		require.NoError(t, err)
		require.Empty(t, session.Turns, "failed ask must not mutate the log")
	})

	t.Run("empty answer appends nothing", func(t *testing.T) {
		t.Parallel()
		fixture := newTestEngine(t, &fakeGenerator{reply: ""}, &fakeAnalyzer{})
		sessionID := startSession(t, fixture, "knife-case")

		_, err := fixture.engine.Ask(context.Background(), sessionID, "Aino Aalto", "hello")
		require.ErrorIs(t, err, engine.ErrGenerationFailed)

		session, err := fixture.sessions.Get(context.Background(), sessionID)
		require.NoError(t, err)
		require.Empty(t, session.Turns, "a character never answers with nothing")
	})

	t.Run("finished session is closed", func(t *testing.T) {
		t.Parallel()
		fixture := newTestEngine(t, &fakeGenerator{reply: "x"}, &fakeAnalyzer{})
		sessionID := startSession(t, fixture, "knife-case")
		require.NoError(t, fixture.engine.FinishExplicit(context.Background(), sessionID))

		_, err := fixture.engine.Ask(context.Background(), sessionID, "Aino Aalto", "hello")
		require.ErrorIs(t, err, engine.ErrSessionClosed)

		session, err := fixture.sessions.Get(context.Background(), sessionID)
		require.NoError(t, err)
		require.Empty(t, session.Turns)
	})
}
