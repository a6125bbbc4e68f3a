package main

import (
	"net/http"
)

type homeTemplateData struct {
	Board boardView
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	entry := app.game(r)
	snapshot, err := entry.ctrl.Snapshot(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := homeTemplateData{
		Board: newBoardView(snapshot, app.cfg, entry.currentMessage()),
	}

	app.render(w, r, http.StatusOK, "home", data)
}
