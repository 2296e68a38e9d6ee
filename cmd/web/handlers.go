package main

import (
	"net/http"

	"github.com/jkorri/gumshoe/internal/analysis"
	"github.com/jkorri/gumshoe/internal/contexthelpers"
)

type startSessionRequest struct {
	CaseID string `json:"caseId"`
}

type startSessionResponse struct {
	SessionID string `json:"sessionId"`
}

func (app *application) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.CaseID == "" {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	sessionID, err := app.engine.Start(r.Context(), req.CaseID, contexthelpers.PlayerID(r.Context()))
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusCreated, startSessionResponse{SessionID: sessionID})
}

type askRequest struct {
	SessionID     string `json:"sessionId"`
	CharacterName string `json:"characterName"`
	UserText      string `json:"userText"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (app *application) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.UserText == "" {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	answer, err := app.engine.Ask(r.Context(), req.SessionID, req.CharacterName, req.UserText)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, askResponse{Answer: answer})
}

type submitResultRequest struct {
	SessionID string         `json:"sessionId"`
	Answer    map[string]any `json:"answer"`
	Skills    map[string]any `json:"skills"`
	Timings   struct {
		DurationSeconds int64 `json:"durationSeconds"`
	} `json:"timings"`
}

type submitResultResponse struct {
	ResultID string `json:"resultId"`
	Correct  bool   `json:"correct"`
}

func (app *application) submitResult(w http.ResponseWriter, r *http.Request) {
	var req submitResultRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	result, err := app.engine.Finish(r.Context(), req.SessionID, req.Answer, req.Skills,
		analysis.Timings{DurationSeconds: req.Timings.DurationSeconds})
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusCreated, submitResultResponse{
		ResultID: result.ID,
		Correct:  result.Correct,
	})
}

func (app *application) sessionLog(w http.ResponseWriter, r *http.Request) {
	turns, err := app.engine.Log(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, map[string]any{"turns": turns})
}

func (app *application) gameResult(w http.ResponseWriter, r *http.Request) {
	result, err := app.results.Get(r.Context(), r.PathValue("resultID"))
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, result)
}

func (app *application) finishSession(w http.ResponseWriter, r *http.Request) {
	if err := app.engine.FinishExplicit(r.Context(), r.PathValue("sessionID")); err != nil {
		app.gameError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
