// Package config loads the game tuning and theme from YAML.
package config

import (
	"bytes"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"os"
)

var ErrInvalidConfig = errors.NewSentinel("invalid config")

// Theme is the presentation vocabulary shared by the web and terminal front ends.
type Theme struct {
	// ItemGlyph is rendered for every uncollected item.
	ItemGlyph string `yaml:"item_glyph"`
	// CelebrationGlyphs are rained down when a session completes.
	CelebrationGlyphs []string `yaml:"celebration_glyphs"`
	// CelebrationPieces is how many glyphs are rained down.
	CelebrationPieces int `yaml:"celebration_pieces"`
	// CelebrationColors tint the celebration glyphs.
	CelebrationColors []string `yaml:"celebration_colors"`
	// SpecialMessage is shown on the completion screen when no generated message is available.
	SpecialMessage string `yaml:"special_message"`
	// Placeholder is shown on an empty board after a reset.
	Placeholder string `yaml:"placeholder"`
}

// Config is the root of the YAML document. Game settings live at the top level next to the theme.
type Config struct {
	game.Config `yaml:",inline"`
	Theme       Theme `yaml:"theme"`
}

func DefaultTheme() Theme {
	return Theme{
		ItemGlyph:         "💖",
		CelebrationGlyphs: []string{"💖", "💕", "💝", "💗", "💓", "❤️", "🧡", "💛", "💚", "💙", "💜"},
		CelebrationPieces: 50, //nolint:mnd // a generous shower
		CelebrationColors: []string{"#ff4081", "#ff6b9d", "#ff9800", "#4CAF50", "#2196F3"},
		SpecialMessage:    "You found every heart. Thank you for playing, you made someone smile today!",
		Placeholder:       `Click "Play Again" to start a new game!`,
	}
}

// Default returns the configuration used when no YAML file is given.
func Default() Config {
	return Config{
		Config: game.DefaultConfig(),
		Theme:  DefaultTheme(),
	}
}

// Parse reads YAML from r on top of the defaults so that a document only has to name the settings it changes.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration from the YAML file at path. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file", slog.String("path", path))
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, errors.Wrap(err, "parse config file", slog.String("path", path))
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	switch {
	case c.Theme.ItemGlyph == "":
		return errors.Wrap(ErrInvalidConfig, "theme item glyph must not be empty")
	case len(c.Theme.CelebrationGlyphs) == 0:
		return errors.Wrap(ErrInvalidConfig, "theme needs at least one celebration glyph")
	case c.Theme.CelebrationPieces < 0:
		return errors.Wrap(ErrInvalidConfig, "celebration pieces must not be negative",
			slog.Int("celebration_pieces", c.Theme.CelebrationPieces))
	}
	return nil
}
