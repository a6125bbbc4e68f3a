package main

import (
	"net/http"
	"time"
)

// timeoutBody is served without the templates because the handler that timed out may still hold them. It has no
// scripts since the page gets no CSP nonce.
const timeoutBody = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Heart Collector is busy</title><link rel="stylesheet" href="/static/game.css"></head>
<body>
<main class="special-message">
<h1>💔 That took too long</h1>
<p>The game did not answer in time. Your hearts are safe.</p>
<p><a class="certificate" href="/">Back to the game</a></p>
</main>
</body>
</html>
`

// timeoutHandler answers 503 Service Unavailable when h misses the deadline. The deadline is a little shorter than
// the server's write timeout so that the player gets the page before the connection is closed.
func timeoutHandler(h http.Handler, writeTimeout time.Duration) http.Handler {
	const headroom = 500 * time.Millisecond
	return http.TimeoutHandler(h, writeTimeout-headroom, timeoutBody)
}
