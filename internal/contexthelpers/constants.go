package contexthelpers

type contextKey string

const gameIDContextKey = contextKey("gameID")
const currentPathContextKey = contextKey("currentPath")
const csrfTokenContextKey = contextKey("csrfToken")
const cspNonceContextKey = contextKey("cspNonce")
