package main

import (
	"context"
	"github.com/myrjola/heartcollector/internal/e2etest"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

var testEnv = map[string]string{
	"HEARTS_ADDR":        "localhost:0",
	"HEARTS_SQLITE_URL":  ":memory:",
	"HEARTS_PPROF_ADDR":  "",
	"HEARTS_GAME_CONFIG": "testdata/fast.yaml",
	"HEARTS_RATE_LIMIT":  "0",
}

func lookupEnv(overrides map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if value, ok := overrides[key]; ok {
			return value, true
		}
		value, ok := testEnv[key]
		return value, ok
	}
}

// startTestServer starts a server for the duration of the test.
func startTestServer(t *testing.T, overrides map[string]string) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv(overrides), run)
	require.NoError(t, err)
	return server
}
