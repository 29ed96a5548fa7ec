package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kalike-app/kalike/internal/app"
	"github.com/kalike-app/kalike/internal/platform/envutil"
	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "kalike",
	Short: "Kannada learning backend",
	Long:  "Kalike serves Kannada lessons, gamified progression and spoken role-play simulations.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv()
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides KALIKE_DB env var)")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog YAML (overrides KALIKE_CATALOG; default embedded)")
	rootCmd.PersistentFlags().String("tracks", "", "Lesson tracks YAML (overrides KALIKE_TRACKS; default embedded)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rehearseCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDotEnv reads .env from the working directory when present.
// Variables already set in the environment win.
func loadDotEnv() error {
	path := envutil.String("KALIKE_ENV_FILE", ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then KALIKE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", err
			}
		}
		return p, nil
	}
	return store.DefaultDBPath()
}

// resolveOptions gathers the flag and env overrides shared by serve and
// rehearse.
func resolveOptions(cmd *cobra.Command) (app.Options, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return app.Options{}, fmt.Errorf("resolve DB path: %w", err)
	}
	return app.Options{
		DBPath:      dbPath,
		CatalogPath: flagOrEnv(cmd, "catalog", "KALIKE_CATALOG"),
		TracksPath:  flagOrEnv(cmd, "tracks", "KALIKE_TRACKS"),
		Version:     version,
	}, nil
}

func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return envutil.String(env, "")
}

func newLogger() (*logger.Logger, error) {
	log, err := logger.New(envutil.String("KALIKE_ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}
