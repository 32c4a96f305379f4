package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/newsdesk"
	"github.com/eringen/newsdesk/views"
)

type rootFlags struct {
	env       string
	envFile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "newsdesk",
		Short:         "Server-rendered news publishing site",
		Long:          "newsdesk serves a news site with categories, trending articles, likes and comments, plus an admin dashboard for authoring.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), flags.logLevel, flags.logFormat))
			return newsdesk.LoadDotEnv(flags.env, flags.envFile)
		},
	}
	root.PersistentFlags().StringVar(&flags.env, "env", newsdesk.EnvOr("APP_ENV", "production"), "environment name; a missing .env file is fatal only for \"local\"")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "path to the .env file (ENV_PATH overrides)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", newsdesk.EnvOr("LOG_LEVEL", "info"), "debug, info, warn or error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", newsdesk.EnvOr("LOG_FORMAT", "text"), "text or json")

	root.AddCommand(newServeCmd(), newSeedCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr, staticDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newsdesk.ConfigFromEnv()
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := newsdesk.New(cfg, views.Default(),
				newsdesk.WithLogger(slog.Default()),
				newsdesk.WithStaticDir(staticDir),
			)
			defer func() {
				if err := app.Close(); err != nil {
					slog.Error("close", "error", err)
				}
			}()
			return app.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	cmd.Flags().StringVar(&staticDir, "static", "public", "static asset and upload directory")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsdesk %s\n", version)
		},
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
