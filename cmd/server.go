package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rain-app/reservations-web/internal/config"
	"github.com/rain-app/reservations-web/internal/rainapi"
	"github.com/rain-app/reservations-web/internal/web"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the reservation pages web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			setupLogger(cfg)

			log.Info().
				Str("env", cfg.Env).
				Str("addr", cfg.ListenAddr).
				Str("backend", cfg.RainHost).
				Msg("starting rainweb")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv := &web.Server{
				API:      rainapi.New(cfg.RainHost, cfg.RainAPIKey, cfg.APITimeout),
				Sessions: web.NewWizardSessions(cfg.CookieHashKey, cfg.CookieBlockKey),
				BaseURL:  cfg.BaseURL,
			}

			err = web.Start(ctx, cfg.ListenAddr, srv.Routes())
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
}

func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}
