package contexthelpers

import (
	"context"
)

// GameID returns the ID of the game bound to the request's browser session or an empty string.
func GameID(ctx context.Context) string {
	gameID, ok := ctx.Value(gameIDContextKey).(string)
	if !ok {
		return ""
	}

	return gameID
}

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(currentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}

func CSPNonce(ctx context.Context) string {
	nonce, ok := ctx.Value(cspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return nonce
}
