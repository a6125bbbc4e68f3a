// Package play runs the game in the terminal.
package play

import (
	"context"
	"fmt"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/myrjola/heartcollector/internal/config"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/logging"
	"github.com/myrjola/heartcollector/internal/models"
	"github.com/myrjola/heartcollector/internal/random"
	"github.com/myrjola/heartcollector/internal/repositories"
	"github.com/myrjola/heartcollector/internal/sqlite"
	"github.com/myrjola/heartcollector/internal/tui"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"
)

var Group = &cobra.Group{
	ID:    "game",
	Title: "Game",
}

const (
	effectBuffer  = 256
	recordTimeout = 5 * time.Second
	// gameID identifies rounds played in the terminal in the shared rounds table.
	gameID = "terminal"
)

func init() {
	for _, cmd := range []*cobra.Command{Play, Results} {
		cmd.Flags().String("sqlite-url", os.Getenv("HEARTS_SQLITE_URL"),
			"SQLite database for recorded rounds, empty disables recording")
	}
	Play.Flags().String("config", os.Getenv("HEARTS_GAME_CONFIG"), "path to a YAML file with game settings")
	Play.Flags().String("log", "", "file to write logs to, the terminal belongs to the game")
	Results.Flags().Int("limit", 10, "number of rounds to list") //nolint:mnd // a top ten
}

var Play = &cobra.Command{
	Use:     "play",
	GroupID: "game",
	Short:   "Play a round",
	Long:    `Plays Heart Collector in the terminal. Click the hearts or type their numbers to collect them.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		sqliteURL, _ := cmd.Flags().GetString("sqlite-url")
		logPath, _ := cmd.Flags().GetString("log")

		cfg, err := config.Load(configPath)
		if err != nil {
			return errors.Wrap(err, "load config")
		}

		var logSink io.Writer = io.Discard
		if logPath != "" {
			var logFile *os.File
			if logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err != nil { //nolint:mnd // rw for owner
				return errors.Wrap(err, "open log file", slog.String("path", logPath))
			}
			defer func() { _ = logFile.Close() }()
			logSink = logFile
		}
		logger := logging.NewLogger(logSink, slog.LevelDebug, false)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return play(ctx, cfg, sqliteURL, logger)
	},
}

func play(ctx context.Context, cfg config.Config, sqliteURL string, logger *slog.Logger) error {
	var rounds *repositories.RoundRepository
	if sqliteURL != "" {
		db, err := sqlite.NewDatabase(ctx, sqliteURL, logger)
		if err != nil {
			return errors.Wrap(err, "open db", slog.String("url", sqliteURL))
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.LogAttrs(ctx, slog.LevelError, "error closing db", errors.SlogError(closeErr))
			}
		}()
		rounds = repositories.NewRoundRepository(db, logger)
	}

	var recording sync.WaitGroup
	presenter := tui.NewPresenter(effectBuffer)
	ctrl := game.NewController(cfg.Config, presenter,
		game.WithLogger(logger),
		game.WithCompletionHook(func(result game.Result) {
			if rounds == nil {
				return
			}
			recording.Add(1)
			go func() {
				defer recording.Done()
				record(rounds, result, logger)
			}()
		}),
	)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		ctrl.Run(ctx)
	}()
	defer func() {
		presenter.Close()
		ctrl.Stop()
		<-loopDone
		recording.Wait()
	}()

	model := tui.New(ctrl, presenter.Effects(), cfg, random.Global)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run program")
	}
	return nil
}

func record(rounds *repositories.RoundRepository, result game.Result, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if _, err := rounds.Record(ctx, models.Round{
		ID:         0,
		GameID:     gameID,
		Collected:  result.Collected,
		Total:      result.Total,
		Elapsed:    result.Elapsed,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to record round", errors.SlogError(err))
	}
}

var (
	headerStyle = tui.Title.PaddingRight(2) //nolint:mnd // column gap
	cellStyle   = tui.Value.PaddingRight(2) //nolint:mnd // column gap
)

var Results = &cobra.Command{
	Use:     "results",
	GroupID: "game",
	Short:   "List the fastest rounds",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sqliteURL, _ := cmd.Flags().GetString("sqlite-url")
		limit, _ := cmd.Flags().GetInt("limit")
		if sqliteURL == "" {
			return errors.New("no database, set --sqlite-url or HEARTS_SQLITE_URL")
		}
		logger := logging.NewLogger(os.Stderr, slog.LevelWarn, false)
		db, err := sqlite.NewDatabase(cmd.Context(), sqliteURL, logger)
		if err != nil {
			return errors.Wrap(err, "open db", slog.String("url", sqliteURL))
		}
		defer func() { _ = db.Close() }()

		best, err := repositories.NewRoundRepository(db, logger).Best(cmd.Context(), limit)
		if err != nil {
			return errors.Wrap(err, "best rounds")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), resultsTable(best))
		return err
	},
}

func resultsTable(rounds []models.Round) string {
	if len(rounds) == 0 {
		return tui.Help.Render("No rounds yet. Run play to collect some hearts!")
	}
	columns := [][]string{{"#"}, {"Time"}, {"Hearts"}, {"Finished"}}
	for i, round := range rounds {
		columns[0] = append(columns[0], strconv.Itoa(i+1))
		columns[1] = append(columns[1], game.FormatElapsed(round.Elapsed))
		columns[2] = append(columns[2], fmt.Sprintf("%d / %d", round.Collected, round.Total))
		columns[3] = append(columns[3], round.FinishedAt.Local().Format("2 Jan 2006 15:04"))
	}
	rendered := make([]string, len(columns))
	for i, column := range columns {
		rendered[i] = lipgloss.JoinVertical(lipgloss.Left,
			append([]string{headerStyle.Render(column[0])}, renderAll(cellStyle, column[1:])...)...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderAll(style lipgloss.Style, values []string) []string {
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = style.Render(v)
	}
	return rendered
}
