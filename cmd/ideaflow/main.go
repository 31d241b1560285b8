package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ideaflow",
	Short: "IdeaFlow - startup idea generator",
	Long: `IdeaFlow turns a topic into startup ideas, then drills into any one of them
with a market analysis, related topics and an illustration.

Run "ideaflow serve" to start the HTTP API and the Slack bot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 6, "Number of ideas (3, 6, 9 or 12)")

	rootCmd.AddCommand(serveCmd, generateCmd, trendingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
