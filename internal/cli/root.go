package cli

import (
	"fmt"

	"github.com/jordannaegle/mnemo/internal/config"
	"github.com/jordannaegle/mnemo/internal/engine"
	"github.com/jordannaegle/mnemo/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mnemo",
	Short: "Persistent, confidence-weighted memory for AI conversations",
	Long:  "Mnemo stores scoped facts, preferences, and instructions, serves them back as conversation context, and ages out what goes stale.",
}

var configPath string

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.mnemo/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadConfig resolves the config file path and loads it.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Default(), err
		}
	}
	return config.Load(path)
}

// openEngine opens the database from config and wraps it in an engine.
// The caller must Close the returned DB.
func openEngine() (*store.DB, *engine.Engine, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, cfg, err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, cfg, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("open database: %w", err)
	}

	eng := engine.New(db, engine.Options{
		DuplicateBoost:    cfg.Engine.DuplicateBoost,
		DefaultConfidence: cfg.Engine.DefaultConfidence,
		DefaultDecayRate:  cfg.Engine.DefaultDecayRate,
		DefaultMaxTokens:  cfg.Engine.DefaultMaxTokens,
	})
	return db, eng, cfg, nil
}
