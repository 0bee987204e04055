package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/app"
	"github.com/abhisek/lingua/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "lingua",
	Short:         "Adaptive content engine for language practice",
	Long:          "Lingua picks practice content for each learner, tracks CEFR levels per skill, and caches generated exercises across users.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command. Cancelling ctx aborts in-flight work.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides database.dsn and LINGUA_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides LINGUA_CONFIG env var)")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(levelCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration using --config (highest priority), then
// LINGUA_CONFIG, then defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// openApp loads configuration and wires the engine. Callers must Close it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, _ := cmd.Flags().GetString("db")
	return app.New(cmd.Context(), cfg, app.Options{DBPath: dbPath})
}
