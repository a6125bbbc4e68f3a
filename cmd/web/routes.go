package main

import (
	"github.com/justinas/alice"
	"github.com/myrjola/heartcollector/ui"
	"io/fs"
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(ui.Files, "static")
	if err != nil {
		// The static directory is embedded at compile time.
		panic(err)
	}
	fileServer := http.FileServerFS(static)
	mux.Handle("GET /static/", cacheForeverHeaders(http.StripPrefix("/static", fileServer)))
	mux.HandleFunc("GET /api/healthy", app.healthy)

	session := alice.New(app.sessionManager.LoadAndSave, app.noSurf, app.gameSession, commonContext)

	mux.Handle("GET /{$}", session.ThenFunc(app.home))
	mux.Handle("GET /results", session.ThenFunc(app.results))
	mux.Handle("POST /game/start", session.ThenFunc(app.startGame))
	mux.Handle("POST /game/collect/{index}", session.ThenFunc(app.collectItem))
	mux.Handle("POST /game/reset", session.ThenFunc(app.resetGame))
	mux.Handle("POST /game/play-again", session.ThenFunc(app.playAgain))
	mux.Handle("GET /game/certificate.pdf", session.ThenFunc(app.certificate))
	mux.Handle("GET /api/game", session.ThenFunc(app.gameState))

	// The event stream outlives the timeout handler and must not rewrite the session cookie.
	top := http.NewServeMux()
	top.Handle("GET /game/events",
		alice.New(app.serverSentEventMiddleware, app.existingGameSession).ThenFunc(app.gameEvents))
	top.Handle("/", timeoutHandler(mux, defaultTimeout))

	return alice.New(app.recoverPanic, app.logRequest, app.rateLimit, app.secureHeaders).Then(top)
}
