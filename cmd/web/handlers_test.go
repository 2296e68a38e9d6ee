package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/jkorri/gumshoe/internal/analysis"
	"github.com/jkorri/gumshoe/internal/engine"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/repositories"
	"github.com/jkorri/gumshoe/internal/sqlite"
	"github.com/jkorri/gumshoe/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type cannedGenerator struct {
	reply string
}

func (g cannedGenerator) Complete(_ context.Context, _ []openai.ChatCompletionMessage) (string, error) {
	return g.reply, nil
}

type cannedAnalyzer struct {
	skills map[string]any
}

func (a cannedAnalyzer) Analyze(_ context.Context, req analysis.Request) (analysis.Response, error) {
	return analysis.Response{Skills: a.skills, Engine: req.Engine}, nil
}

// newTestServer wires the application against an in-memory database with one
// seeded case and returns a server with a cookie-carrying client.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	dbs, err := sqlite.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})

	logger := testhelpers.NewLogger(io.Discard)
	cases := repositories.NewCaseRepository(dbs, logger)
	sessions := repositories.NewSessionRepository(dbs, logger)
	results := repositories.NewResultRepository(dbs, logger)

	require.NoError(t, cases.Put(context.Background(), models.Case{
		ID:      "villa",
		Title:   "Murder at the Villa",
		Summary: "The host was found dead after dinner.",
		Characters: []models.Character{
			{ID: "c1", Name: "Greta Lind", Alibi: models.Alibi{Location: "terrace", Time: "21:00", Detail: "smoking"}},
			{ID: "c2", Name: "Otto Berg", Alibi: models.Alibi{Location: "cellar", Time: "21:00", Detail: "fetching wine"}},
		},
		Evidence: []models.Evidence{
			{ID: "e1", Name: "wine glass", Description: "a shattered wine glass", Keywords: []string{"glass"}},
		},
		Answer: models.Answer{Culprit: "c2"},
	}))

	app := application{
		logger:         logger,
		engine:         engine.New(cases, sessions, cannedGenerator{reply: "I saw nothing, detective."}, cannedAnalyzer{skills: map[string]any{"logic": 70}}, logger),
		results:        results,
		sessionManager: scs.New(),
	}

	server := httptest.NewServer(app.routes())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return server, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestAPI_fullGame(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	// Health check.
	resp, err := client.Get(server.URL + "/api/healthy")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Start a session.
	resp = postJSON(t, client, server.URL+"/api/game/session/start", map[string]any{"caseId": "villa"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decodeBody(t, resp, &started)
	require.NotEmpty(t, started.SessionID)

	// Ask a question.
	resp = postJSON(t, client, server.URL+"/api/game/ask", map[string]any{
		"sessionId":     started.SessionID,
		"characterName": "Otto Berg",
		"userText":      "What about the broken glass?",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var asked struct {
		Answer string `json:"answer"`
	}
	decodeBody(t, resp, &asked)
	require.Equal(t, "I saw nothing, detective.", asked.Answer)

	// The log shows the tagged question and the answer.
	resp, err = client.Get(server.URL + "/api/game/session/" + started.SessionID + "/log")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var log struct {
		Turns []models.Turn `json:"turns"`
	}
	decodeBody(t, resp, &log)
	require.Len(t, log.Turns, 1)
	require.Equal(t, "[to Otto Berg] What about the broken glass?", log.Turns[0].Player.Message)
	require.Equal(t, models.LevelEvidence, log.Turns[0].Player.Meta.Level)

	// Submit the verdict.
	resp = postJSON(t, client, server.URL+"/api/game/result", map[string]any{
		"sessionId": started.SessionID,
		"answer":    map[string]any{"culprit": "Otto Berg"},
		"timings":   map[string]any{"durationSeconds": 120},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var submitted struct {
		ResultID string `json:"resultId"`
		Correct  bool   `json:"correct"`
	}
	decodeBody(t, resp, &submitted)
	require.True(t, submitted.Correct)

	// Read the result back.
	resp, err = client.Get(server.URL + "/api/game/result/" + submitted.ResultID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result models.Result
	decodeBody(t, resp, &result)
	require.Equal(t, started.SessionID, result.SessionID)
	require.Equal(t, 70, result.Skills.Logic)
	require.Equal(t, int64(120), result.DurationSeconds)
	require.NotNil(t, result.PlayerID, "the cookie session supplies an anonymous player id")

	// The finished session rejects further questions.
	resp = postJSON(t, client, server.URL+"/api/game/ask", map[string]any{
		"sessionId":     started.SessionID,
		"characterName": "Otto Berg",
		"userText":      "One more thing.",
	})
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_errorStatuses(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		payload    any
		wantStatus int
	}{
		{
			name:       "start with unknown case",
			method:     http.MethodPost,
			path:       "/api/game/session/start",
			payload:    map[string]any{"caseId": "nonexistent"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "start without case id",
			method:     http.MethodPost,
			path:       "/api/game/session/start",
			payload:    map[string]any{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ask on unknown session",
			method:     http.MethodPost,
			path:       "/api/game/ask",
			payload:    map[string]any{"sessionId": "nonexistent", "userText": "hello"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "ask without text",
			method:     http.MethodPost,
			path:       "/api/game/ask",
			payload:    map[string]any{"sessionId": "whatever"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "log of unknown session",
			method:     http.MethodGet,
			path:       "/api/game/session/nonexistent/log",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown result",
			method:     http.MethodGet,
			path:       "/api/game/result/nonexistent",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "finish unknown session",
			method:     http.MethodPost,
			path:       "/api/game/session/nonexistent/finish",
			payload:    map[string]any{},
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			var err error
			if tt.method == http.MethodGet {
				resp, err = client.Get(server.URL + tt.path)
				require.NoError(t, err)
			} else {
				resp = postJSON(t, client, server.URL+tt.path, tt.payload)
			}
			require.NoError(t, resp.Body.Close())
			require.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAPI_explicitFinish(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	resp := postJSON(t, client, server.URL+"/api/game/session/start", map[string]any{"caseId": "villa"})
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decodeBody(t, resp, &started)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/game/session/"+started.SessionID+"/finish", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Submitting a verdict afterwards conflicts.
	resp = postJSON(t, client, server.URL+"/api/game/result", map[string]any{
		"sessionId": started.SessionID,
		"answer":    map[string]any{"culprit": "c2"},
	})
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}
