package main

import (
	"context"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/donseba/go-htmx"
	"github.com/joho/godotenv"
	"github.com/myrjola/heartcollector/internal/ai"
	"github.com/myrjola/heartcollector/internal/broker"
	"github.com/myrjola/heartcollector/internal/config"
	"github.com/myrjola/heartcollector/internal/envstruct"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/logging"
	"github.com/myrjola/heartcollector/internal/pprofserver"
	"github.com/myrjola/heartcollector/internal/repositories"
	"github.com/myrjola/heartcollector/internal/sqlite"
	"golang.org/x/time/rate"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

type application struct {
	logger         *slog.Logger
	cfg            config.Config
	sessionManager *scs.SessionManager
	htmx           *htmx.HTMX
	hub            *broker.Hub[string, string]
	fragments      *fragmentRenderer
	games          *gameRegistry
	rounds         *repositories.RoundRepository
	celebrator     ai.Celebrator
	limiter        *rate.Limiter
	secureCookies  bool
	keepAlive      time.Duration
	// background tracks work started by finished rounds so that shutdown can wait for it.
	background sync.WaitGroup
}

type serverConfig struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"HEARTS_ADDR" envDefault:"localhost:4000"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"HEARTS_SQLITE_URL" envDefault:"./heartcollector.sqlite"`
	// PprofAddr is the address for the pprof server. Empty disables it.
	PprofAddr string `env:"HEARTS_PPROF_ADDR" envDefault:"localhost:6060"`
	// GameConfig is the path to a YAML file with game settings. Empty uses the defaults.
	GameConfig string `env:"HEARTS_GAME_CONFIG" envDefault:""`
	// RateLimit is the number of requests per second the server accepts. Zero disables the limit.
	RateLimit int `env:"HEARTS_RATE_LIMIT" envDefault:"50"`
	// SessionLifetime is how long a browser keeps its game.
	SessionLifetime time.Duration `env:"HEARTS_SESSION_LIFETIME" envDefault:"12h"`
	// GameIdleTimeout is how long an untouched game stays in memory.
	GameIdleTimeout time.Duration `env:"HEARTS_GAME_IDLE_TIMEOUT" envDefault:"30m"`
	// SecureCookies marks the session and CSRF cookies Secure. Enable it behind TLS.
	SecureCookies bool `env:"HEARTS_SECURE_COOKIES" envDefault:"false"`
	// OpenAIAPIKey enables generated celebration messages. Empty uses the configured special message.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:""`
}

const (
	hubBuffer             = 64
	sessionCleanup        = 24 * time.Hour
	maxKeepAliveInterval  = 15 * time.Second
	keepAlivesPerIdleTime = 3
)

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		err     error
		cfg     serverConfig
		gameCfg config.Config
		db      *sqlite.Database
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if gameCfg, err = config.Load(cfg.GameConfig); err != nil {
		return errors.Wrap(err, "load game config")
	}
	if cfg.GameIdleTimeout <= 0 {
		return errors.New("game idle timeout must be positive", slog.Duration("timeout", cfg.GameIdleTimeout))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err = pprofserver.Launch(ctx, cfg.PprofAddr, logger); err != nil {
		return errors.Wrap(err, "launch pprof server")
	}

	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "error closing db", errors.SlogError(closeErr))
		}
	}()

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(db.ReadWrite.DB, sessionCleanup)
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Secure = cfg.SecureCookies

	var fragments *template.Template
	if fragments, err = parseFragments(); err != nil {
		return errors.Wrap(err, "parse fragments")
	}

	hub := broker.NewHub[string, string](hubBuffer)
	go hub.Start()
	defer hub.Stop()

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	var celebrator ai.Celebrator = ai.Static(gameCfg.Theme.SpecialMessage)
	if cfg.OpenAIAPIKey != "" {
		celebrator = ai.WithFallback(ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), celebrator, logger)
	}

	app := &application{
		logger:         logger,
		cfg:            gameCfg,
		sessionManager: sessionManager,
		htmx:           htmx.New(),
		hub:            hub,
		fragments:      &fragmentRenderer{templates: fragments, logger: logger},
		games:          nil,
		rounds:         repositories.NewRoundRepository(db, logger),
		celebrator:     celebrator,
		limiter:        rate.NewLimiter(limit, max(cfg.RateLimit, 1)),
		secureCookies:  cfg.SecureCookies,
		keepAlive:      min(maxKeepAliveInterval, cfg.GameIdleTimeout/keepAlivesPerIdleTime),
		background:     sync.WaitGroup{},
	}
	app.games = newGameRegistry(app.newGame, cfg.GameIdleTimeout, logger)
	go app.games.startJanitor(ctx)
	defer app.background.Wait()
	defer app.games.stopAll()

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug, true)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
