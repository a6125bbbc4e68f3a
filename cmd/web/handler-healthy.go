package main

import (
	"encoding/json"
	"net/http"
)

// healthResponse reports the number of games kept in memory next to the status.
type healthResponse struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Games: app.games.len()})
}
