// Package celebrate tries out the celebration of a finished round without playing one.
package celebrate

import (
	"context"
	"fmt"
	"github.com/myrjola/heartcollector/internal/ai"
	"github.com/myrjola/heartcollector/internal/certificate"
	"github.com/myrjola/heartcollector/internal/config"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/logging"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"time"
)

var Group = &cobra.Group{
	ID:    "celebrate",
	Title: "Celebration",
}

const messageTimeout = 30 * time.Second

func init() {
	for _, cmd := range []*cobra.Command{Message, Certificate} {
		cmd.Flags().Int("collected", game.DefaultConfig().TotalItems, "number of collected hearts")
		cmd.Flags().Duration("elapsed", 42*time.Second, "time taken") //nolint:mnd // a decent round
	}
	Certificate.Flags().String("out", "./certificate.pdf", "path to generated certificate")
	Certificate.Flags().String("message", config.DefaultTheme().SpecialMessage, "closing line of the certificate")
}

var Message = &cobra.Command{
	Use:     "message",
	GroupID: "celebrate",
	Short:   "Generate a celebration message",
	Long:    `Asks the chat completion model for a celebration message. Needs OPENAI_API_KEY.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return errors.New("OPENAI_API_KEY not set")
		}
		collected, _ := cmd.Flags().GetInt("collected")
		elapsed, _ := cmd.Flags().GetDuration("elapsed")

		ctx, cancel := context.WithTimeout(cmd.Context(), messageTimeout)
		defer cancel()
		logger := logging.NewLogger(os.Stderr, slog.LevelWarn, false)
		celebrator := ai.WithFallback(
			ai.NewClient(apiKey, os.Getenv("OPENAI_BASE_URL")),
			ai.Static(config.DefaultTheme().SpecialMessage),
			logger,
		)
		message, err := celebrator.Celebrate(ctx, collected, game.FormatElapsed(elapsed))
		if err != nil {
			return errors.Wrap(err, "celebrate")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
		return err
	},
}

var Certificate = &cobra.Command{
	Use:     "certificate",
	GroupID: "celebrate",
	Short:   "Render a certificate",
	Long:    `Renders the PDF certificate a player gets after collecting every heart`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		collected, _ := cmd.Flags().GetInt("collected")
		elapsed, _ := cmd.Flags().GetDuration("elapsed")
		message, _ := cmd.Flags().GetString("message")
		outPath, _ := cmd.Flags().GetString("out")

		file, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "create certificate file", slog.String("path", outPath))
		}
		defer func(file *os.File) {
			_ = file.Close()
		}(file)

		if err = certificate.Render(file, certificate.Certificate{
			Collected:  collected,
			Total:      collected,
			Elapsed:    game.FormatElapsed(elapsed),
			FinishedAt: time.Now(),
			Message:    message,
		}); err != nil {
			return errors.Wrap(err, "render certificate")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
		return err
	},
}
