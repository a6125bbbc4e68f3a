package main

import (
	"fmt"
	"github.com/myrjola/heartcollector/internal/contexthelpers"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// fragmentEvent is the event name the htmx SSE extension swaps on.
const fragmentEvent = "fragment"

// writeEvent writes a server-sent event. Every line of data gets its own data field.
func writeEvent(w io.Writer, event string, data string) error {
	var sb strings.Builder
	sb.WriteString("event: ")
	sb.WriteString(event)
	sb.WriteString("\n")
	for _, line := range strings.Split(data, "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// gameEvents streams the fragments of the session's game. The first event synchronises the whole screen.
func (app *application) gameEvents(w http.ResponseWriter, r *http.Request) {
	var (
		ctx         = r.Context()
		gameID      = contexthelpers.GameID(ctx)
		entry       = app.games.get(gameID)
		rc          = http.NewResponseController(w)
		events      <-chan string
		unsubscribe func()
		initial     string
	)

	// The server timeouts would cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		app.serverError(w, r, errors.Wrap(err, "clear write deadline"))
		return
	}
	if err := rc.SetReadDeadline(time.Time{}); err != nil {
		app.serverError(w, r, errors.Wrap(err, "clear read deadline"))
		return
	}

	// Subscribing inside Observe guarantees that no fragment falls between the snapshot and the subscription.
	err := entry.ctrl.Observe(ctx, func(s game.Snapshot) {
		events, unsubscribe = app.hub.Subscribe(gameID)
		initial = app.fragments.render("sync-fragment", newBoardView(s, app.cfg, entry.currentMessage()).WithOOB())
	})
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "observe game"))
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err = app.sendEvent(w, rc, initial); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelDebug, "event stream closed", errors.SlogError(err))
		return
	}
	app.logger.LogAttrs(ctx, slog.LevelDebug, "event stream opened")

	keepAlive := time.NewTicker(app.keepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			app.logger.LogAttrs(ctx, slog.LevelDebug, "event stream closed by client")
			return
		case <-keepAlive.C:
			app.games.touch(gameID)
			if _, err = fmt.Fprint(w, ": keepalive\n\n"); err == nil {
				err = rc.Flush()
			}
		case fragment, ok := <-events:
			if !ok {
				// Lagging behind or shutting down. The browser reconnects and synchronises again.
				app.logger.LogAttrs(ctx, slog.LevelDebug, "event stream dropped")
				return
			}
			err = app.sendEvent(w, rc, fragment)
		}
		if err != nil {
			app.logger.LogAttrs(ctx, slog.LevelDebug, "event stream closed", errors.SlogError(err))
			return
		}
	}
}

func (app *application) sendEvent(w io.Writer, rc *http.ResponseController, fragment string) error {
	if err := writeEvent(w, fragmentEvent, fragment); err != nil {
		return errors.Wrap(err, "write event")
	}
	if err := rc.Flush(); err != nil {
		return errors.Wrap(err, "flush event")
	}
	return nil
}
