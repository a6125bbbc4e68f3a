package main

import (
	"fmt"
	"github.com/justinas/nosurf"
	"github.com/myrjola/heartcollector/internal/contexthelpers"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/logging"
	"github.com/myrjola/heartcollector/internal/random"
	"log/slog"
	"net/http"
)

const (
	cspNonceLength    = 24
	gameIDLength      = 24
	gameIDSessionKey  = "gameID"
	unpkgScriptSource = "https://unpkg.com"
)

func (app *application) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce, err := random.Letters(cspNonceLength)
		if err != nil {
			app.serverError(w, r, errors.Wrap(err, "generate csp nonce"))
			return
		}
		r = contexthelpers.SetCSPNonce(r, nonce)

		w.Header().Set("Content-Security-Policy",
			fmt.Sprintf(`default-src 'self'; script-src 'nonce-%s' 'strict-dynamic' %s; style-src 'self' 'unsafe-inline'; `+
				`object-src 'none'; base-uri 'none'; frame-ancestors 'none';`, nonce, unpkgScriptSource))
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")

		next.ServeHTTP(w, r)
	})
}

func cacheForeverHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "received request",
			slog.String("proto", proto), slog.String("method", method), slog.String("uri", uri))

		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// rateLimit rejects requests above the configured rate with 429 Too Many Requests.
func (app *application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.limiter.Allow() {
			app.clientError(w, r, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// gameSession makes sure the browser session has a game and puts its id in the request context.
func (app *application) gameSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		ctx := r.Context()
		gameID := app.sessionManager.GetString(ctx, gameIDSessionKey)
		if gameID == "" {
			if gameID, err = random.Letters(gameIDLength); err != nil {
				app.serverError(w, r, errors.Wrap(err, "generate game id"))
				return
			}
			app.sessionManager.Put(ctx, gameIDSessionKey, gameID)
		}

		next.ServeHTTP(w, withGameID(r, gameID))
	})
}

// existingGameSession is like gameSession but responds with 404 Not Found when the session has no game yet.
func (app *application) existingGameSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gameID := app.sessionManager.GetString(r.Context(), gameIDSessionKey)
		if gameID == "" {
			app.notFound(w, r)
			return
		}

		next.ServeHTTP(w, withGameID(r, gameID))
	})
}

func withGameID(r *http.Request, gameID string) *http.Request {
	r = contexthelpers.SetGameID(r, gameID)
	return r.WithContext(logging.WithAttrs(r.Context(), slog.String("game_id", gameID)))
}

// serverSentEventMiddleware makes our session library scs work with Server Sent Events (SSE).
// Use this instead of app.sessionManager.LoadAndSave.
// See https://github.com/alexedwards/scs/issues/141#issuecomment-1807075358
func (app *application) serverSentEventMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		cookie, err := r.Cookie(app.sessionManager.Cookie.Name)
		if err == nil {
			token = cookie.Value
		}
		ctx, err := app.sessionManager.Load(r.Context(), token)
		if err != nil {
			app.serverError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = contexthelpers.SetCurrentPath(r, r.URL.Path)
		r = contexthelpers.SetCSRFToken(r, nosurf.Token(r))
		next.ServeHTTP(w, r)
	})
}

// noSurf implements CSRF protection using https://github.com/justinas/nosurf
func (app *application) noSurf(next http.Handler) http.Handler {
	csrfHandler := nosurf.New(next)
	csrfHandler.SetBaseCookie(http.Cookie{
		HttpOnly: true,
		Path:     "/",
		Secure:   app.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "csrf check failed", errors.SlogError(nosurf.Reason(r)))
		app.clientError(w, r, http.StatusBadRequest)
	}))

	return csrfHandler
}
