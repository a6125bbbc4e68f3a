// Package pprofserver exposes the runtime profiles on a separate listener that is never routed to the public.
package pprofserver

import (
	"context"
	"github.com/myrjola/heartcollector/internal/errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"time"
)

// LogAddrKey is the key used to log the pprof address. It differs from the main server's key on purpose so that
// tooling scraping the logs for the public address doesn't pick up the profiler.
const LogAddrKey = "pprof_addr"

func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

func newServer(logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	Handle(mux)
	return &http.Server{
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}
}

// Launch starts a pprof server listening on addr. Keep addr on a loopback interface such as localhost:6060.
//
// The server shuts down when ctx is cancelled. An empty addr disables the server.
func Launch(ctx context.Context, addr string, logger *slog.Logger) error {
	if addr == "" {
		logger.LogAttrs(ctx, slog.LevelDebug, "pprof server disabled")
		return nil
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "pprof listen", slog.String("addr", addr))
	}
	srv := newServer(logger)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting pprof server", slog.String(LogAddrKey, listener.Addr().String()))

	go func() {
		if serveErr := srv.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			logger.LogAttrs(ctx, slog.LevelError, "pprof server stopped", errors.SlogError(serveErr))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "error shutting down pprof server", errors.SlogError(shutdownErr))
		}
	}()
	return nil
}
