package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave, app.identifyPlayer, commonContext)

	mux.Handle("POST /api/game/session/start", session.ThenFunc(app.startSession))
	mux.Handle("POST /api/game/ask", session.ThenFunc(app.ask))
	mux.Handle("POST /api/game/result", session.ThenFunc(app.submitResult))
	mux.Handle("GET /api/game/session/{sessionID}/log", session.ThenFunc(app.sessionLog))
	mux.Handle("GET /api/game/result/{resultID}", session.ThenFunc(app.gameResult))
	mux.Handle("POST /api/game/session/{sessionID}/finish", session.ThenFunc(app.finishSession))

	mux.HandleFunc("GET /api/healthy", app.healthy)

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
