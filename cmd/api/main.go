package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"avalon-server/internal/server"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	cfg := server.DefaultConfig()
	cobra.CheckErr(newCmd(&cfg).Execute())
}

func newCmd(cfg *server.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("AVALON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "avalon-server",
		Short:         "A websocket lobby and referee for Avalon-style hidden-role games.",
		Args:          cobra.ExactArgs(0),
		Version:       server.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), *cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: AVALON_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: AVALON_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "externally reachable base URL, used in join QR codes (env: AVALON_PUBLIC_URL)")
	fs.IntVar(&cfg.MinPlayers, "min-players", cfg.MinPlayers, "seats required before a game can start (env: AVALON_MIN_PLAYERS)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "max inbound frames per connection per window (env: AVALON_RATE_LIMIT)")
	fs.DurationVar(&cfg.RateWindow, "rate-window", cfg.RateWindow, "rate limit window (env: AVALON_RATE_WINDOW)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging (env: AVALON_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, v.GetString(f.Name))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("avalon-server v{{.Version}}\n")

	return cmd
}

func run(ctx context.Context, cfg server.Config) error {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	httpServer := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return err
	}

	log.Info().Msg("graceful shutdown complete")
	return nil
}
