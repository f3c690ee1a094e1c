package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/domain-offers/internal/challenge"
	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/dispatcher"
	httpSrv "github.com/jmehdipour/domain-offers/internal/http"
	"github.com/jmehdipour/domain-offers/internal/logger"
	"github.com/jmehdipour/domain-offers/internal/service/relay"
	"github.com/jmehdipour/domain-offers/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log := logger.New(cfg.Log)
		defer func() { _ = log.Sync() }()

		shutdownTracing, err := tracing.Init(cmd.Context(), cfg.Tracing)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Warn("tracing shutdown", zap.Error(err))
			}
		}()

		// per-attempt deadlines come from the dispatcher
		disp := dispatcher.NewDispatcher(dispatcher.BuildProviders(cfg, &http.Client{}), cfg.Delivery.AttemptTimeout, log)
		if len(disp.Providers()) == 0 {
			log.Warn("no email provider configured, inquiries will only be logged")
		} else {
			log.Info("email providers", zap.Strings("priority", dispatcher.Names(disp.Providers())))
		}
		verifier := challenge.NewTurnstile(cfg.Challenge, nil, log)
		svc := relay.New(cfg.Site, verifier, disp, log)

		server := httpSrv.NewServer(cfg, svc, log)

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting http", zap.String("addr", cfg.HTTP.Addr), zap.String("domain", cfg.Site.DomainName))
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
				return err
			}
		}

		timeout := cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return server.Shutdown(ctx)
	},
}
