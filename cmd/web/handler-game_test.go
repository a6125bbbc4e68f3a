package main

import (
	"context"
	"github.com/myrjola/heartcollector/internal/e2etest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"strings"
	"testing"
)

func Test_application_playRound(t *testing.T) {
	server := startTestServer(t, nil)
	ctx := context.Background()
	client := server.Client()

	state, err := client.PlayRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, "completed", state.Phase)
	assert.Equal(t, 3, state.Collected)
	assert.Equal(t, 100, state.Percent)

	state, err = client.WaitForState(ctx, func(s e2etest.GameState) bool { return s.PlayAgainOffered })
	require.NoError(t, err)
	assert.Equal(t, "completed", state.Phase)

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("button.play-again").Length())
	assert.Contains(t, doc.Find("#special-message").Text(), "You collected every heart!")
	assert.Equal(t, "3", strings.TrimSpace(doc.Find("#hearts-collected-display").Text()))

	require.NoError(t, client.Do(ctx, "/game/play-again"))
	state, err = client.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "active", state.Phase)
	assert.Equal(t, 0, state.Collected)
	assert.False(t, state.PlayAgainOffered)
}

func Test_application_actionsOutOfTurn(t *testing.T) {
	server := startTestServer(t, nil)
	ctx := context.Background()
	client := server.Client()

	// Collecting and playing again are ignored before the game starts.
	require.NoError(t, client.Collect(ctx, 0))
	require.NoError(t, client.Do(ctx, "/game/play-again"))
	state, err := client.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idle", state.Phase)
	assert.Equal(t, 0, state.Collected)

	require.NoError(t, client.Do(ctx, "/game/start"))
	state, err = client.WaitForState(ctx, func(s e2etest.GameState) bool { return len(s.Items) == s.Total })
	require.NoError(t, err)

	// Starting again keeps the running round.
	require.NoError(t, client.Collect(ctx, 0))
	require.NoError(t, client.Do(ctx, "/game/start"))
	require.NoError(t, client.Collect(ctx, 0))
	require.NoError(t, client.Collect(ctx, 7))
	state, err = client.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "active", state.Phase)
	assert.Equal(t, 1, state.Collected)
	assert.Equal(t, 33, state.Percent)
	assert.True(t, state.Items[0].Collected)

	resp, err := client.Post(ctx, "/game/collect/first")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_application_reset(t *testing.T) {
	server := startTestServer(t, nil)
	ctx := context.Background()
	client := server.Client()

	require.NoError(t, client.Do(ctx, "/game/start"))
	_, err := client.WaitForState(ctx, func(s e2etest.GameState) bool { return len(s.Items) == s.Total })
	require.NoError(t, err)
	require.NoError(t, client.Collect(ctx, 1))

	require.NoError(t, client.Do(ctx, "/game/reset"))
	state, err := client.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idle", state.Phase)
	assert.Equal(t, 0, state.Collected)
	assert.Empty(t, state.Items)
	assert.Equal(t, "00:00", state.Elapsed)
}

func Test_application_separatePlayers(t *testing.T) {
	server := startTestServer(t, nil)
	ctx := context.Background()

	alice := server.Client()
	bob, err := server.NewClient()
	require.NoError(t, err)

	require.NoError(t, alice.Do(ctx, "/game/start"))
	aliceState, err := alice.State(ctx)
	require.NoError(t, err)
	bobState, err := bob.State(ctx)
	require.NoError(t, err)

	assert.Equal(t, "active", aliceState.Phase)
	assert.Equal(t, "idle", bobState.Phase)
}

func Test_application_csrf(t *testing.T) {
	server := startTestServer(t, nil)
	ctx := context.Background()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL()+"/game/start", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_application_certificate(t *testing.T) {
	server := startTestServer(t, nil)
	ctx := context.Background()
	client := server.Client()

	resp, err := client.Get(ctx, "/game/certificate.pdf")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode, "no certificate before a round is completed")

	_, err = client.PlayRound(ctx)
	require.NoError(t, err)

	resp, err = client.Get(ctx, "/game/certificate.pdf")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	head := make([]byte, 4)
	_, err = io.ReadFull(resp.Body, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func Test_application_rateLimit(t *testing.T) {
	server := startTestServer(t, map[string]string{"HEARTS_RATE_LIMIT": "1"})
	ctx := context.Background()

	// The burst of one was used up by the readiness check.
	var limited bool
	for range 5 {
		resp, err := server.Client().Get(ctx, "/api/healthy")
		require.NoError(t, err)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "expected a request to be rate limited")
}
