package main

import (
	"context"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/logging"
	"github.com/myrjola/heartcollector/internal/models"
	"github.com/myrjola/heartcollector/internal/random"
	"log/slog"
	"sync"
	"time"
)

// roundCompletedTimeout bounds the database write and the celebration message of a finished round.
const roundCompletedTimeout = 15 * time.Second

// gameEntry is a game kept in memory for one browser session.
type gameEntry struct {
	id   string
	ctrl *game.Controller
	done chan struct{}

	mu       sync.Mutex
	lastSeen time.Time
	// round increments on every completion so that a slow celebration message is not shown on a later round.
	round   int
	message string
}

// completed starts a new round and clears the celebration message of the previous one.
func (e *gameEntry) completed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.round++
	e.message = ""
	return e.round
}

// setMessage stores the celebration message of round and reports whether it is still the current round.
func (e *gameEntry) setMessage(round int, message string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if round != e.round {
		return false
	}
	e.message = message
	return true
}

func (e *gameEntry) currentMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// gameRegistry keeps a game controller per browser session and evicts the ones nobody has touched in a while.
type gameRegistry struct {
	mu          sync.Mutex
	games       map[string]*gameEntry
	newGame     func(entry *gameEntry) *game.Controller
	idleTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func newGameRegistry(
	newGame func(entry *gameEntry) *game.Controller,
	idleTimeout time.Duration,
	logger *slog.Logger,
) *gameRegistry {
	return &gameRegistry{
		mu:          sync.Mutex{},
		games:       make(map[string]*gameEntry),
		newGame:     newGame,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// get returns the game with id, creating and starting it if needed, and marks it as seen.
func (g *gameRegistry) get(id string) *gameEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	if entry, ok := g.games[id]; ok {
		entry.touch(g.now())
		return entry
	}

	entry := &gameEntry{
		id:       id,
		ctrl:     nil,
		done:     make(chan struct{}),
		mu:       sync.Mutex{},
		lastSeen: g.now(),
		round:    0,
		message:  "",
	}
	entry.ctrl = g.newGame(entry)
	go func() {
		defer close(entry.done)
		entry.ctrl.Run(context.Background())
	}()
	g.games[id] = entry
	g.logger.LogAttrs(context.Background(), slog.LevelDebug, "created game", slog.String("game_id", id))
	return entry
}

// touch keeps the game with id alive.
func (g *gameRegistry) touch(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.games[id]; ok {
		entry.touch(g.now())
	}
}

func (e *gameEntry) touch(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = now
}

func (e *gameEntry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

func (g *gameRegistry) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.games)
}

// evictIdle stops and forgets the games not seen within the idle timeout and returns how many were evicted.
func (g *gameRegistry) evictIdle() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	evicted := 0
	for id, entry := range g.games {
		if now.Sub(entry.idleSince()) < g.idleTimeout {
			continue
		}
		entry.ctrl.Stop()
		delete(g.games, id)
		evicted++
	}
	return evicted
}

// startJanitor evicts idle games periodically until ctx is cancelled.
func (g *gameRegistry) startJanitor(ctx context.Context) {
	interval := max(g.idleTimeout/2, time.Second) //nolint:mnd // twice per timeout is fine-grained enough
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := g.evictIdle(); evicted > 0 {
				g.logger.LogAttrs(ctx, slog.LevelDebug, "evicted idle games",
					slog.Int("evicted", evicted), slog.Int("remaining", g.len()))
			}
		}
	}
}

// stopAll stops every game and waits for the controller loops to exit.
func (g *gameRegistry) stopAll() {
	g.mu.Lock()
	entries := make([]*gameEntry, 0, len(g.games))
	for id, entry := range g.games {
		entries = append(entries, entry)
		delete(g.games, id)
	}
	g.mu.Unlock()

	for _, entry := range entries {
		entry.ctrl.Stop()
		<-entry.done
	}
}

// newGame creates the controller of entry. The presenter publishes on the hub topic of the game.
func (app *application) newGame(entry *gameEntry) *game.Controller {
	logger := app.logger.With(slog.String("game_id", entry.id))
	presenter := newWebPresenter(
		func(fragment string) { app.hub.Publish(entry.id, fragment) },
		app.fragments,
		app.cfg,
		random.Global,
	)
	return game.NewController(app.cfg.Config, presenter,
		game.WithLogger(logger),
		game.WithCompletionHook(func(result game.Result) { app.roundCompleted(entry, result) }),
	)
}

// roundCompleted records the round and publishes a celebration message. It runs on the controller loop so the slow
// parts happen in the background.
func (app *application) roundCompleted(entry *gameEntry, result game.Result) {
	round := entry.completed()
	app.background.Add(1)
	go func() {
		defer app.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), roundCompletedTimeout)
		defer cancel()
		ctx = logging.WithAttrs(ctx, slog.String("game_id", entry.id))

		if _, err := app.rounds.Record(ctx, models.Round{
			ID:         0,
			GameID:     entry.id,
			Collected:  result.Collected,
			Total:      result.Total,
			Elapsed:    result.Elapsed,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
		}); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "failed to record round", errors.SlogError(err))
		}

		message, err := app.celebrator.Celebrate(ctx, result.Collected, game.FormatElapsed(result.Elapsed))
		if err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "no celebration message", errors.SlogError(err))
			return
		}
		if message == "" || !entry.setMessage(round, message) {
			return
		}
		view := newBoardView(game.Snapshot{Phase: game.PhaseCompleted}, app.cfg, message).WithOOB() //nolint:exhaustruct // only the message is rendered
		if fragment := app.fragments.render("message", view); fragment != "" {
			app.hub.Publish(entry.id, fragment)
		}
	}()
}
