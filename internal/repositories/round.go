package repositories

import (
	"context"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/models"
	"github.com/myrjola/heartcollector/internal/sqlite"
	"log/slog"
	"time"
)

type RoundRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewRoundRepository(db *sqlite.Database, logger *slog.Logger) *RoundRepository {
	return &RoundRepository{
		db:     db,
		logger: logger.With("source", "RoundRepository"),
	}
}

// roundRow mirrors the rounds table. Times are stored as Unix milliseconds.
type roundRow struct {
	ID         int64  `db:"id"`
	GameID     string `db:"game_id"`
	Collected  int    `db:"collected"`
	Total      int    `db:"total"`
	ElapsedMS  int64  `db:"elapsed_ms"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
}

func (row roundRow) model() models.Round {
	return models.Round{
		ID:         row.ID,
		GameID:     row.GameID,
		Collected:  row.Collected,
		Total:      row.Total,
		Elapsed:    time.Duration(row.ElapsedMS) * time.Millisecond,
		StartedAt:  time.UnixMilli(row.StartedAt).UTC(),
		FinishedAt: time.UnixMilli(row.FinishedAt).UTC(),
	}
}

// Record stores a completed round and returns it with its assigned ID.
func (r *RoundRepository) Record(ctx context.Context, round models.Round) (models.Round, error) {
	row := roundRow{
		ID:         0,
		GameID:     round.GameID,
		Collected:  round.Collected,
		Total:      round.Total,
		ElapsedMS:  round.Elapsed.Milliseconds(),
		StartedAt:  round.StartedAt.UnixMilli(),
		FinishedAt: round.FinishedAt.UnixMilli(),
	}
	stmt := `INSERT INTO rounds (game_id, collected, total, elapsed_ms, started_at, finished_at)
VALUES (:game_id, :collected, :total, :elapsed_ms, :started_at, :finished_at)`
	result, err := r.db.ReadWrite.NamedExecContext(ctx, stmt, row)
	if err != nil {
		return models.Round{}, errors.Wrap(err, "insert round", slog.String("game_id", round.GameID))
	}
	if row.ID, err = result.LastInsertId(); err != nil {
		return models.Round{}, errors.Wrap(err, "read round ID")
	}
	return row.model(), nil
}

// Best returns up to limit rounds ordered from fastest to slowest. Ties go to the earlier finish.
func (r *RoundRepository) Best(ctx context.Context, limit int) ([]models.Round, error) {
	var rows []roundRow
	stmt := `SELECT id, game_id, collected, total, elapsed_ms, started_at, finished_at
FROM rounds
ORDER BY elapsed_ms, finished_at, id
LIMIT ?`
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, stmt, limit); err != nil {
		return nil, errors.Wrap(err, "select best rounds", slog.Int("limit", limit))
	}
	rounds := make([]models.Round, 0, len(rows))
	for _, row := range rows {
		rounds = append(rounds, row.model())
	}
	return rounds, nil
}

// Get returns the round with id. The boolean is false when no such round exists.
func (r *RoundRepository) Get(ctx context.Context, id int64) (models.Round, bool, error) {
	var rows []roundRow
	stmt := `SELECT id, game_id, collected, total, elapsed_ms, started_at, finished_at FROM rounds WHERE id = ?`
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, stmt, id); err != nil {
		return models.Round{}, false, errors.Wrap(err, "select round", slog.Int64("id", id))
	}
	if len(rows) == 0 {
		return models.Round{}, false, nil
	}
	return rows[0].model(), true, nil
}

// Count returns the number of recorded rounds.
func (r *RoundRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.ReadOnly.GetContext(ctx, &count, `SELECT COUNT(*) FROM rounds`); err != nil {
		return 0, errors.Wrap(err, "count rounds")
	}
	return count, nil
}
