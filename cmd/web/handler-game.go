package main

import (
	"encoding/json"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

func (app *application) startGame(w http.ResponseWriter, r *http.Request) {
	if err := app.game(r).ctrl.Start(r.Context()); err != nil {
		app.serverError(w, r, errors.Wrap(err, "start game"))
		return
	}
	app.actionDone(w, r)
}

func (app *application) collectItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	if err = app.game(r).ctrl.Collect(r.Context(), index); err != nil {
		app.serverError(w, r, errors.Wrap(err, "collect item", slog.Int("index", index)))
		return
	}
	app.actionDone(w, r)
}

func (app *application) resetGame(w http.ResponseWriter, r *http.Request) {
	if err := app.game(r).ctrl.Reset(r.Context()); err != nil {
		app.serverError(w, r, errors.Wrap(err, "reset game"))
		return
	}
	app.actionDone(w, r)
}

func (app *application) playAgain(w http.ResponseWriter, r *http.Request) {
	if err := app.game(r).ctrl.PlayAgain(r.Context()); err != nil {
		app.serverError(w, r, errors.Wrap(err, "play again"))
		return
	}
	app.actionDone(w, r)
}

type itemResponse struct {
	Index     int     `json:"index"`
	Collected bool    `json:"collected"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type resultResponse struct {
	Collected  int       `json:"collected"`
	Total      int       `json:"total"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type gameStateResponse struct {
	Phase            string          `json:"phase"`
	Collected        int             `json:"collected"`
	Total            int             `json:"total"`
	Percent          int             `json:"percent"`
	Elapsed          string          `json:"elapsed"`
	PlayAgainOffered bool            `json:"play_again_offered"`
	Items            []itemResponse  `json:"items"`
	Result           *resultResponse `json:"result,omitempty"`
}

func newGameStateResponse(s game.Snapshot) gameStateResponse {
	resp := gameStateResponse{
		Phase:            s.Phase.String(),
		Collected:        s.Collected,
		Total:            s.Total,
		Percent:          s.Percent,
		Elapsed:          s.Elapsed,
		PlayAgainOffered: s.PlayAgainOffered,
		Items:            make([]itemResponse, len(s.Items)),
		Result:           nil,
	}
	for i, item := range s.Items {
		resp.Items[i] = itemResponse{
			Index:     item.Index,
			Collected: item.Collected,
			X:         item.Position.X,
			Y:         item.Position.Y,
		}
	}
	if s.Result != nil {
		resp.Result = &resultResponse{
			Collected:  s.Result.Collected,
			Total:      s.Result.Total,
			ElapsedMS:  s.Result.Elapsed.Milliseconds(),
			StartedAt:  s.Result.StartedAt.UTC(),
			FinishedAt: s.Result.FinishedAt.UTC(),
		}
	}
	return resp
}

// gameState responds with the state of the session's game as JSON.
func (app *application) gameState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := app.game(r).ctrl.Snapshot(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "snapshot"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err = json.NewEncoder(w).Encode(newGameStateResponse(snapshot)); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "encode game state", errors.SlogError(err))
	}
}
