package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ewilliams-labs/vibecover/internal/config"
	"github.com/ewilliams-labs/vibecover/internal/logging"
)

// cliFlags are the persistent flags shared by every subcommand.
type cliFlags struct {
	configPath string
	addr       string
	logLevel   string
	logFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}

	root := &cobra.Command{
		Use:          "vibecover",
		Short:        "Turn a Spotify playlist into AI-generated cover art",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCommand(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "optional YAML file with non-secret settings")
	pf.StringVar(&f.addr, "addr", "", "listen address (overrides ADDR)")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&f.logFile, "log-file", "", "rotated log file path (overrides LOG_FILE)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serveCommand(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "check-config",
			Short: "Report which credentials and settings are configured",
			RunE: func(cmd *cobra.Command, args []string) error {
				return checkConfigCommand(cmd, f)
			},
		},
	)
	return root
}

// loadConfig reads configuration and applies any flags the user set.
func loadConfig(fs *pflag.FlagSet, f *cliFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if fs.Changed("addr") {
		cfg.Addr = f.addr
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("log-file") {
		cfg.LogFile = f.logFile
	}
	return cfg, nil
}

func serveCommand(cmd *cobra.Command, f *cliFlags) error {
	cfg, err := loadConfig(cmd.Flags(), f)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.Development(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return serve(cmd.Context(), cfg, logger)
}

func checkConfigCommand(cmd *cobra.Command, f *cliFlags) error {
	cfg, err := loadConfig(cmd.Flags(), f)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	creds := cfg.Credentials

	rows := []struct{ key, value string }{
		{config.EnvSpotifyClientID, logging.Redact(creds.SpotifyClientID)},
		{config.EnvSpotifyClientSecret, logging.Redact(creds.SpotifyClientSecret)},
		{config.EnvGoogleAPIKey, logging.Redact(creds.GoogleAPIKey)},
		{config.EnvOpenRouterAPIKey, logging.Redact(creds.OpenRouterAPIKey)},
		{"ADDR", cfg.Addr},
		{"GEMINI_MODEL", orDefault(cfg.GeminiModel)},
		{"IMAGE_MODEL", orDefault(cfg.ImageModel)},
		{"IMAGE_COUNT", fmt.Sprint(cfg.ImageCount)},
		{"ENV", cfg.Env},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%-22s %s\n", r.key, r.value)
	}

	if err := creds.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(out, "configuration complete")
	return nil
}

func orDefault(v string) string {
	if v == "" {
		return "(default)"
	}
	return v
}
