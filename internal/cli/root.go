package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitriid/svx/config"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	srcPath   string
	namespace string
)

var rootCmd = &cobra.Command{
	Use:   "svx",
	Short: "svx - single-file component compiler",
	Long: `svx compiles single-file component documents (markup with an embedded
code block and an embedded stylesheet block) into loadable render units
and one aggregated project stylesheet.

Example usage:
  svx compile                 # Compile all components once
  svx watch                   # Compile, then recompile on file changes`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if srcPath != "" {
			cfg.Source.Path = srcPath
		}
		if namespace != "" {
			cfg.Source.Namespace = namespace
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./svx.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&srcPath, "path", "p", "", "source directory (overrides source.path)")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "component namespace (overrides source.namespace)")
}

func newLogger() *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
