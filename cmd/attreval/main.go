package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/henderiw/attreval/pkg/config"
	"github.com/henderiw/attreval/pkg/distance"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logFormat  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "attreval",
		Short:         "Compare time-varying attributes and summarise their distances",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), verbose, logFormat)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML file with metric defaults")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	cmd.AddCommand(newCompareCmd(), newMetricsCmd())
	return cmd
}

// setupLogging configures the standard logger. LOG_LEVEL selects the level
// unless --verbose is given.
func setupLogging(w io.Writer, verbose bool, format string) error {
	log.SetOutput(w)
	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	level := log.InfoLevel
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		l, err := log.ParseLevel(env)
		if err != nil {
			return fmt.Errorf("LOG_LEVEL: %w", err)
		}
		level = l
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return nil
}

// loadRegistry returns a registry with the built-in metrics and the
// defaults of the config file, if any.
func loadRegistry(path string) (*distance.Registry, *config.Config, error) {
	reg := distance.NewRegistry()
	if path == "" {
		return reg, config.Empty(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Apply(reg); err != nil {
		return nil, nil, fmt.Errorf("applying %s: %w", path, err)
	}
	log.WithField("config", path).Debug("loaded config")
	return reg, cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
