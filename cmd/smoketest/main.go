package main

import (
	"context"
	"github.com/myrjola/heartcollector/internal/e2etest"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/logging"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// PlayRound plays a full round like a player would and checks that the result shows up everywhere.
func PlayRound(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second) //nolint:mnd // a default round reveals for a second
	defer cancel()

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get front page")
	}
	if doc.Find("#heart-container").Length() != 1 {
		return errors.New("front page has no board")
	}

	var stream *e2etest.EventStream
	if stream, err = client.Events(ctx); err != nil {
		return errors.Wrap(err, "open event stream")
	}
	defer func() {
		_ = stream.Close()
	}()
	if _, err = stream.Next(); err != nil {
		return errors.Wrap(err, "read sync event")
	}

	var state e2etest.GameState
	if state, err = client.PlayRound(ctx); err != nil {
		return errors.Wrap(err, "play round")
	}
	if state.Phase != "completed" || state.Collected != state.Total {
		return errors.New("round did not complete",
			slog.String("phase", state.Phase), slog.Int("collected", state.Collected))
	}
	if _, err = stream.NextMatching("You collected every heart!"); err != nil {
		return errors.Wrap(err, "wait for completion event")
	}

	var resp *http.Response
	if resp, err = client.Get(ctx, "/game/certificate.pdf"); err != nil {
		return errors.Wrap(err, "get certificate")
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("certificate not available", slog.Int("status", resp.StatusCode))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the base URL or hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname|url>")
		os.Exit(1)
	}

	var (
		url    = os.Args[1]
		client *e2etest.Client
		err    error
	)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	ctx = logging.WithAttrs(ctx, slog.String("url", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = PlayRound(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error playing round", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
