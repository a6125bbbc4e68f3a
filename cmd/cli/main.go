package main

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/myrjola/heartcollector/cmd/cli/celebrate"
	"github.com/myrjola/heartcollector/cmd/cli/play"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/spf13/cobra"
	"io/fs"
	"os"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(play.Group)
	rootCmd.AddCommand(play.Play)
	rootCmd.AddCommand(play.Results)
	rootCmd.AddGroup(celebrate.Group)
	rootCmd.AddCommand(celebrate.Message)
	rootCmd.AddCommand(celebrate.Certificate)
}

var rootCmd = &cobra.Command{
	Use:  "heartcollector-cli",
	Long: `Play Heart Collector in the terminal and work with recorded rounds`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
