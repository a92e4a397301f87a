package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arbor/internal/config"
)

var configPath string

// rootCmd is the entry point for all arbor commands.
var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is a hierarchical page CMS",
	Long: `Arbor serves a tree of content pages with regions, translations,
navigation helpers and embedded applications.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "arbor.yaml", "path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(treeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func newLogger(level string) (*zap.Logger, error) {
	var l zap.AtomicLevel
	switch level {
	case "debug":
		l = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		l = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		l = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		l = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logConf := zap.NewProductionConfig()
	logConf.Level = l
	logger, err := logConf.Build()
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}
	return logger, nil
}
