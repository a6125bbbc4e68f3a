package main

import (
	"github.com/myrjola/heartcollector/internal/contexthelpers"
	"github.com/myrjola/heartcollector/internal/errors"
	"log/slog"
	"net/http"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", method), slog.String("uri", uri), slog.Any("formdata", r.Form))
	http.Error(w, http.StatusText(status), status)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound)
}

// game returns the game of the browser session making the request.
func (app *application) game(r *http.Request) *gameEntry {
	return app.games.get(contexthelpers.GameID(r.Context()))
}

// actionDone finishes a game action. htmx requests get their updates from the event stream, plain form posts are
// redirected back to the game.
func (app *application) actionDone(w http.ResponseWriter, r *http.Request) {
	if app.htmx.NewHandler(w, r).IsHxRequest() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
