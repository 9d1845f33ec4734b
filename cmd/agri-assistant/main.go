package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	agriassistant "github.com/menta2k/agri-assistant"
	"github.com/menta2k/agri-assistant/internal/config"
	"github.com/menta2k/agri-assistant/internal/utils"
)

var (
	// Global flags
	configPath string
	verbose    bool
	model      string
	output     string

	cfg    *config.Config
	logger *zap.Logger
)

// skipConfig marks commands that run without a loaded configuration
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Use:   "agri-assistant",
	Short: "AgriAI Namibia - soil analysis and pest identification from photos",
	Long: `agri-assistant helps Namibian farmers understand their land.

Upload a photo of a soil sample to learn its type, estimated pH and which
crops suit it, or a photo of an insect to find out whether it threatens your
crops and how to control it. Analyses are performed by a Gemini vision model;
the API key is read from the API_KEY environment variable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}

		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			if errors.Is(err, config.ErrMissingAPIKey) {
				return fmt.Errorf("%w: export API_KEY=<your Gemini API key>", err)
			}
			return err
		}
		if model != "" {
			cfg.Gemini.Model = model
		}

		logger, err = buildLogger(cfg.Log)
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

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version",
	Annotations: map[string]string{skipConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("agri-assistant %s\n", agriassistant.GetVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/agri-assistant/config.json if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Gemini model to use (overrides config and GEMINI_MODEL)")

	rootCmd.AddCommand(serveCmd, soilCmd, pestCmd, configCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the --config flag or the default path when that
// file exists. An empty result means environment and defaults only.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if p := config.GetConfigPath(); utils.FileExists(p) {
		return p
	}
	return ""
}

func buildLogger(lc config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
