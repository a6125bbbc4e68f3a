package main

import (
	"bytes"
	"github.com/myrjola/heartcollector/internal/certificate"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"net/http"
	"strconv"
)

// certificate responds with a PDF certificate of the session's completed round.
func (app *application) certificate(w http.ResponseWriter, r *http.Request) {
	entry := app.game(r)
	snapshot, err := entry.ctrl.Snapshot(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "snapshot"))
		return
	}
	if snapshot.Result == nil {
		app.notFound(w, r)
		return
	}

	message := entry.currentMessage()
	if message == "" {
		message = app.cfg.Theme.SpecialMessage
	}
	buf := new(bytes.Buffer)
	if err = certificate.Render(buf, certificate.Certificate{
		Collected:  snapshot.Result.Collected,
		Total:      snapshot.Result.Total,
		Elapsed:    game.FormatElapsed(snapshot.Result.Elapsed),
		FinishedAt: snapshot.Result.FinishedAt,
		Message:    message,
	}); err != nil {
		app.serverError(w, r, errors.Wrap(err, "render certificate"))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="heart-collector-certificate.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
