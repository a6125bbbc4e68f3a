package game

import (
	"github.com/myrjola/heartcollector/internal/errors"
	"log/slog"
	"time"
)

var ErrInvalidConfig = errors.NewSentinel("invalid game config")

// Board is the area items are revealed in, in pixels. Margin keeps revealed items away from the right and
// bottom edges so that they are never clipped.
type Board struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Margin float64 `yaml:"margin"`
}

// Config tunes a game session.
type Config struct {
	// TotalItems is the number of items to collect.
	TotalItems int `yaml:"total_items"`
	// RevealInterval staggers the appearance of consecutive items.
	RevealInterval time.Duration `yaml:"reveal_interval"`
	// TickInterval is how often the elapsed time display refreshes.
	TickInterval time.Duration `yaml:"tick_interval"`
	// FadeDuration is how long a collected item animates before it is removed.
	FadeDuration time.Duration `yaml:"fade_duration"`
	// PlayAgainDelay is how long after completion the play again affordance is offered.
	PlayAgainDelay time.Duration `yaml:"play_again_delay"`
	Board          Board         `yaml:"board"`
}

func DefaultConfig() Config {
	return Config{
		TotalItems:     10,                     //nolint:mnd // ten hearts
		RevealInterval: 100 * time.Millisecond, //nolint:mnd // 100ms
		TickInterval:   time.Second,
		FadeDuration:   300 * time.Millisecond, //nolint:mnd // 300ms
		PlayAgainDelay: 2 * time.Second,        //nolint:mnd // 2s
		Board: Board{
			Width:  600, //nolint:mnd // px
			Height: 400, //nolint:mnd // px
			Margin: 40,  //nolint:mnd // px
		},
	}
}

// Validate reports the first setting that would make the game unplayable.
func (c Config) Validate() error {
	switch {
	case c.TotalItems <= 0:
		return errors.Wrap(ErrInvalidConfig, "total items must be positive", slog.Int("total_items", c.TotalItems))
	case c.RevealInterval < 0:
		return errors.Wrap(ErrInvalidConfig, "reveal interval must not be negative",
			slog.Duration("reveal_interval", c.RevealInterval))
	case c.TickInterval <= 0:
		return errors.Wrap(ErrInvalidConfig, "tick interval must be positive",
			slog.Duration("tick_interval", c.TickInterval))
	case c.FadeDuration < 0:
		return errors.Wrap(ErrInvalidConfig, "fade duration must not be negative",
			slog.Duration("fade_duration", c.FadeDuration))
	case c.PlayAgainDelay < 0:
		return errors.Wrap(ErrInvalidConfig, "play again delay must not be negative",
			slog.Duration("play_again_delay", c.PlayAgainDelay))
	case c.Board.Margin < 0 || c.Board.Width <= 2*c.Board.Margin || c.Board.Height <= 2*c.Board.Margin:
		return errors.Wrap(ErrInvalidConfig, "board must be larger than twice its margin",
			slog.Float64("width", c.Board.Width),
			slog.Float64("height", c.Board.Height),
			slog.Float64("margin", c.Board.Margin))
	}
	return nil
}
