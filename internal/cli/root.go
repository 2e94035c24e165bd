package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/config"
	"github.com/ppiankov/specguard/internal/logging"
)

var (
	rootDir   string
	logLevel  string
	logFormat string

	// settings is loaded once per process by loadSettings.
	settings *config.Config
	logger   = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides config")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text|json)")
}

var rootCmd = &cobra.Command{
	Use:   "specguard",
	Short: "Check a codebase against the rules declared in its guides",
	Long: "Evaluates the compliance rules declared in guide frontmatter\n" +
		"(context/references/*.md, specs/**/*.md) against the project tree,\n" +
		"records waivers for accepted failures, and writes compliance-report.md.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger = logging.Init(os.Stderr, logging.ParseLevel(level), logFormat == "json")
		return nil
	},
}

// exitError ends the process with code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// projectRoot returns the absolute project root.
func projectRoot() string {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return rootDir
	}
	return abs
}

func loadSettings() (*config.Config, error) {
	if settings != nil {
		return settings, nil
	}
	cfg, err := config.Load(projectRoot())
	if err != nil {
		return nil, err
	}
	settings = cfg
	return cfg, nil
}
