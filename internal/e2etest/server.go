package e2etest

import (
	"context"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/logging"
	"io"
	"log/slog"
)

// LogAddrKey is the log attribute the server uses for the address it listens on.
const LogAddrKey = "addr"

// RunFunc has the signature of the run function of cmd/web. lookupEnv behaves like [os.LookupEnv].
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a running server under test.
type Server struct {
	url    string
	client *Client
	cancel context.CancelFunc
	done   chan error
}

// StartServer runs the server in the background and returns once it answers on /api/healthy. The address is picked
// up from the first log record carrying [LogAddrKey], which allows listening on localhost:0.
//
// Server logs go to logSink, usually [io.Discard]. The server stops when ctx is cancelled or on [Server.Shutdown].
func StartServer(
	ctx context.Context,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run RunFunc,
) (*Server, error) {
	ctx, cancel := context.WithCancel(ctx)

	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, logger, lookupEnv)
	}()

	var addr string
	select {
	case err := <-done:
		cancel()
		if err == nil {
			err = errors.New("server exited without listening")
		}
		return nil, errors.Wrap(err, "server stopped before it was ready")
	case <-ctx.Done():
		cancel()
		return nil, errors.Wrap(ctx.Err(), "wait for server address")
	case addr = <-addrCh:
	}

	serverURL := "http://" + addr
	client, err := NewClient(serverURL)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "new client")
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		cancel()
		return nil, errors.Wrap(err, "wait for ready")
	}
	return &Server{
		url:    serverURL,
		client: client,
		cancel: cancel,
		done:   done,
	}, nil
}

// Client is the player shared by a test.
func (s *Server) Client() *Client {
	return s.client
}

// NewClient returns a client with its own cookie jar, which makes it a separate player.
func (s *Server) NewClient() (*Client, error) {
	return NewClient(s.url)
}

func (s *Server) URL() string {
	return s.url
}

// Shutdown stops the server and waits until run returns. It returns the error of run, if any, or the context error
// when ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for shutdown")
	}
}
