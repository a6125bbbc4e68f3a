// dbcheck opens a copy of the production database, which migrates it to the current schema, and checks that the
// recorded rounds survived.
package main

import (
	"context"
	"github.com/myrjola/heartcollector/internal/envstruct"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/logging"
	"github.com/myrjola/heartcollector/internal/repositories"
	"github.com/myrjola/heartcollector/internal/sqlite"
	"log/slog"
	"os"
	"time"
)

type checkConfig struct {
	SqliteURL string        `env:"HEARTS_SQLITE_URL"`
	Timeout   time.Duration `env:"HEARTS_DBCHECK_TIMEOUT" envDefault:"5s"`
}

func check(ctx context.Context, logger *slog.Logger) (err error) {
	var cfg checkConfig
	if err = envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	rounds := repositories.NewRoundRepository(db, logger)
	count, err := rounds.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "count rounds")
	}
	if count == 0 {
		return errors.New("no rounds found, the migration likely lost them")
	}
	best, err := rounds.Best(ctx, 1)
	if err != nil {
		return errors.Wrap(err, "best round")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "rounds survived",
		slog.Int("count", count), slog.Duration("best", best[0].Elapsed))
	return nil
}

func main() {
	start := time.Now()
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug, false)
	ctx := context.Background()
	if err := check(ctx, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "database check failed", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "database check passed 🙌", slog.Duration("duration", time.Since(start)))
}
