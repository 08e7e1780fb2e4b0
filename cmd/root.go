package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"recall/engine/internal/config"
	"recall/engine/internal/graphstore"
	"recall/engine/internal/learner"
)

var (
	graphDBFlag   string
	learnerDBFlag string
	debugFlag     bool

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Graph-backed spaced repetition engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := log.InfoLevel
		if debugFlag || cfg.Debug {
			level = log.DebugLevel
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		})
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&graphDBFlag, "graph-db", "", "Path to the graph database")
	rootCmd.PersistentFlags().StringVar(&learnerDBFlag, "learner-db", "", "Path to the learner database")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

const (
	graphDBName   = ".recall-graph.db"
	learnerDBName = ".recall-learner.db"
)

// discoverGraphDB finds the graph database using priority: env > flag > walk-up > XDG fallback.
// The graph store is created by `recall import`, so an existing file is required.
func discoverGraphDB() (string, error) {
	if cfg.GraphDBPath != "" {
		return cfg.GraphDBPath, nil
	}
	if graphDBFlag != "" {
		return graphDBFlag, nil
	}
	if path, ok := walkUp(graphDBName); ok {
		return path, nil
	}
	if path, ok := xdgPath(graphDBName); ok {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s found (set RECALL_GRAPH_DB, use --graph-db, or run from a directory containing %s)", graphDBName, graphDBName)
}

// discoverLearnerDB resolves the learner database path. Unlike the graph store
// it is created on first use, so a missing file is not an error.
func discoverLearnerDB() (string, error) {
	if cfg.LearnerDBPath != "" {
		return cfg.LearnerDBPath, nil
	}
	if learnerDBFlag != "" {
		return learnerDBFlag, nil
	}
	if path, ok := walkUp(learnerDBName); ok {
		return path, nil
	}
	if path, ok := xdgPath(learnerDBName); ok {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("creating data directory: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("cannot resolve learner database path (set RECALL_LEARNER_DB or use --learner-db)")
}

func walkUp(name string) (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func xdgPath(name string) (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".local", "share", "recall", name), true
}

func openGraphStore() (*graphstore.DB, error) {
	path, err := discoverGraphDB()
	if err != nil {
		return nil, err
	}
	return graphstore.Open(path)
}

func openLearnerStore() (*learner.DB, error) {
	path, err := discoverLearnerDB()
	if err != nil {
		return nil, err
	}
	return learner.Open(path)
}
