package main

import (
	"github.com/myrjola/heartcollector/internal/errors"
	"net/http"
)

const bestRoundsLimit = 10

type resultsTemplateData struct {
	Count  int
	Rounds []roundView
}

// results lists the fastest completed rounds.
func (app *application) results(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rounds, err := app.rounds.Best(ctx, bestRoundsLimit)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "best rounds"))
		return
	}
	var count int
	if count, err = app.rounds.Count(ctx); err != nil {
		app.serverError(w, r, errors.Wrap(err, "count rounds"))
		return
	}

	data := resultsTemplateData{
		Count:  count,
		Rounds: make([]roundView, len(rounds)),
	}
	for i, round := range rounds {
		data.Rounds[i] = newRoundView(i+1, round.Collected, round.Total, round.Elapsed, round.FinishedAt)
	}

	app.render(w, r, http.StatusOK, "results", data)
}
