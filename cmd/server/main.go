package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/recruit/internal/adapters/http"
	"github.com/dkeye/recruit/internal/adapters/discord"
	wsgateway "github.com/dkeye/recruit/internal/adapters/signal"
	"github.com/dkeye/recruit/internal/app"
	"github.com/dkeye/recruit/internal/config"
	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/form"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var env, file string
	cmd := &cobra.Command{
		Use:   "recruit",
		Short: "Party recruitment bot",
		Long: `recruit posts recruitment messages with one join button per role,
keeps the roster within each role's quota and optionally opens a voice
room for the party.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if env != "" {
				_ = os.Setenv("CONFIG_ENV", env)
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, file)
		},
	}
	cmd.Flags().StringVarP(&env, "env", "e", "", "config environment, selects config/config.<env>.yaml")
	cmd.Flags().StringVarP(&file, "config", "c", "", "config file path (overrides --env)")
	return cmd
}

func serve(ctx context.Context, file string) error {
	// Initialize zerolog global logger early so config loading can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var (
		cfg *config.Config
		err error
	)
	if file != "" {
		cfg, err = config.LoadFile(file)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return err
	}
	zerolog.SetGlobalLevel(cfg.Level())

	store := app.NewStore()
	metrics := app.NewMetrics()
	r := app.NewRouter(store, metrics)
	r.Allocator = core.Allocator{Policy: cfg.MovePolicy()}
	r.Renderer = core.Renderer{RoleStyles: cfg.RoleStyles()}
	r.Forms = form.Collector{Roles: cfg.RoleQuotas()}

	g, ctx := errgroup.WithContext(ctx)
	deps := router.Deps{Store: store, Metrics: metrics}

	switch cfg.Gateway {
	case config.GatewayDiscord:
		bot, err := discord.New(cfg.Discord.Token)
		if err != nil {
			return err
		}
		r.Gateway = bot.Gateway()
		r.TargetChannel = cfg.Discord.TargetChannelID
		bot.Bind(r)
		g.Go(func() error { return bot.Run(ctx) })
	case config.GatewayWeb:
		ws := wsgateway.NewGateway(wsgateway.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			Limiter:    wsgateway.NewActorRateLimiter(cfg.Limits.Events, cfg.Limits.Interval),
		})
		r.Gateway = ws
		ws.Bind(r)
		deps.Signal = ws
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRouter(ctx, cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info().Str("addr", addr).Str("gateway", cfg.Gateway).Msg("recruit server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
