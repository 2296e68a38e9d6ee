package engine_test

import (
	"context"
	"io"
	"testing"

	"github.com/jkorri/gumshoe/internal/analysis"
	"github.com/jkorri/gumshoe/internal/engine"
	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/repositories"
	"github.com/jkorri/gumshoe/internal/sqlite"
	"github.com/jkorri/gumshoe/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

// fakeGenerator answers with a canned reply or error.
type fakeGenerator struct {
	reply string
	err   error
	// calls records the message lists sent to the model.
	calls [][]openai.ChatCompletionMessage
}

func (g *fakeGenerator) Complete(_ context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	g.calls = append(g.calls, messages)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// fakeAnalyzer scripts responses per requested engine.
type fakeAnalyzer struct {
	primarySkills  map[string]any
	primaryErr     error
	fallbackSkills map[string]any
	fallbackErr    error
	engines        []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, req analysis.Request) (analysis.Response, error) {
	a.engines = append(a.engines, req.Engine)
	switch req.Engine {
	case analysis.EnginePrimary:
		if a.primaryErr != nil {
			return analysis.Response{}, a.primaryErr
		}
		return analysis.Response{Skills: a.primarySkills, Engine: req.Engine}, nil
	case analysis.EngineFallback:
		if a.fallbackErr != nil {
			return analysis.Response{}, a.fallbackErr
		}
		return analysis.Response{Skills: a.fallbackSkills, Engine: req.Engine}, nil
	}
	return analysis.Response{}, errors.New("unknown engine")
}

type testFixture struct {
	engine   *engine.Engine
	cases    *repositories.CaseRepository
	sessions *repositories.SessionRepository
	results  *repositories.ResultRepository
}

// newTestEngine wires an engine against a fresh in-memory database seeded
// with the standard test case.
func newTestEngine(t *testing.T, gen engine.Generator, analyzer engine.Analyzer) testFixture {
	t.Helper()

	dbs, err := sqlite.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})

	logger := testhelpers.NewLogger(io.Discard)
	caseRepo := repositories.NewCaseRepository(dbs, logger)
	sessionRepo := repositories.NewSessionRepository(dbs, logger)
	resultRepo := repositories.NewResultRepository(dbs, logger)

	require.NoError(t, caseRepo.Put(context.Background(), knifeCase()))
	require.NoError(t, caseRepo.Put(context.Background(), models.Case{
		ID:     "members-only",
		Title:  "The Locked Archive",
		Access: models.AccessMember,
		Characters: []models.Character{
			{ID: "a1", Name: "Archivist"},
		},
		Answer: models.Answer{Culprit: "a1"},
	}))

	return testFixture{
		engine:   engine.New(caseRepo, sessionRepo, gen, analyzer, logger),
		cases:    caseRepo,
		sessions: sessionRepo,
		results:  resultRepo,
	}
}

// knifeCase is the scenario from the scoring and trigger tests: character A
// is innocent, character B is the culprit with the 14:00-15:00 alibi.
func knifeCase() models.Case {
	return models.Case{
		ID:      "knife-case",
		Title:   "The Kitchen Incident",
		Summary: "The cook was found dead in the pantry.",
		Characters: []models.Character{
			{ID: "c1", Name: "Aino Aalto", Alibi: models.Alibi{Location: "garden", Time: "13:00-16:00", Detail: "pruning roses"}},
			{ID: "c2", Name: "Bertil Borg", Alibi: models.Alibi{Location: "kitchen", Time: "14:00–15:00", Detail: "polishing silver"}},
		},
		Evidence: []models.Evidence{
			{ID: "e1", Name: "bloody knife", Description: "a kitchen knife with blood on the handle", Keywords: []string{"knife"}},
		},
		Timeline: []models.TimelineEvent{
			{Time: "14:00", Event: "a scream is heard"},
		},
		Locations: []models.Location{{Name: "kitchen"}},
		Answer:    models.Answer{Culprit: "c2"},
	}
}

func startSession(t *testing.T, fixture testFixture, caseID string) string {
	t.Helper()
	sessionID, err := fixture.engine.Start(context.Background(), caseID, nil)
	require.NoError(t, err)
	return sessionID
}
