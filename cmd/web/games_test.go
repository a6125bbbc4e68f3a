package main

import (
	"context"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
	"time"
)

func newTestRegistry(idleTimeout time.Duration) (*gameRegistry, *time.Time) {
	now := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)
	registry := newGameRegistry(func(_ *gameEntry) *game.Controller {
		return game.NewController(game.DefaultConfig(), game.NopPresenter{})
	}, idleTimeout, testhelpers.NewLogger(io.Discard))
	registry.now = func() time.Time { return now }
	return registry, &now
}

func Test_gameRegistry_get(t *testing.T) {
	registry, _ := newTestRegistry(time.Minute)
	t.Cleanup(registry.stopAll)

	first := registry.get("a")
	require.Same(t, first, registry.get("a"))
	require.NotSame(t, first, registry.get("b"))
	require.Equal(t, 2, registry.len())
}

func Test_gameRegistry_evictIdle(t *testing.T) {
	registry, now := newTestRegistry(time.Minute)
	t.Cleanup(registry.stopAll)

	idle := registry.get("idle")
	registry.get("busy")

	*now = now.Add(45 * time.Second)
	registry.touch("busy")
	require.Zero(t, registry.evictIdle())

	*now = now.Add(30 * time.Second)
	require.Equal(t, 1, registry.evictIdle())
	require.Equal(t, 1, registry.len())

	select {
	case <-idle.done:
	case <-time.After(time.Second):
		t.Fatal("evicted controller loop did not exit")
	}
	_, err := idle.ctrl.Snapshot(context.Background())
	require.ErrorIs(t, err, game.ErrStopped)

	// A returning player gets a fresh game.
	require.NotSame(t, idle, registry.get("idle"))
}

func Test_gameRegistry_stopAll(t *testing.T) {
	registry, _ := newTestRegistry(time.Minute)
	entries := []*gameEntry{registry.get("a"), registry.get("b")}

	registry.stopAll()

	assert.Zero(t, registry.len())
	for _, entry := range entries {
		select {
		case <-entry.done:
		default:
			t.Fatal("stopAll returned before the controller loop exited")
		}
	}
}

func Test_gameEntry_message(t *testing.T) {
	entry := &gameEntry{}
	round := entry.completed()
	require.True(t, entry.setMessage(round, "well done"))
	require.Equal(t, "well done", entry.currentMessage())

	next := entry.completed()
	require.Empty(t, entry.currentMessage())
	require.False(t, entry.setMessage(round, "late"), "message of an earlier round")
	require.True(t, entry.setMessage(next, "again"))
}
