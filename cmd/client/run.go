package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/quiz-client/internal/httpapi"
	"github.com/DoyleJ11/quiz-client/internal/hub"
	"github.com/DoyleJ11/quiz-client/internal/session"
	"github.com/DoyleJ11/quiz-client/internal/theme"
	"github.com/DoyleJ11/quiz-client/internal/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the quiz backend and serve the UI bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd)
	},
}

func runClient(cmd *cobra.Command) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.close()
	cfg, log := d.cfg, d.log

	target, err := transport.Target(cfg.Origin, cfg.Port)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d.themes.Resolve(ctx, theme.None)

	dialer := transport.NewWebsocketDialer()
	factory := func(ctx context.Context) *session.Session {
		return session.New(ctx, session.Options{
			Target:        target,
			Dialer:        dialer,
			Logger:        log,
			NotifyTimeout: cfg.NotifyTimeout,
		})
	}
	h := hub.NewHub(ctx, factory, log)
	defer h.Shutdown()

	srv := &http.Server{
		Addr:              cfg.UIAddr,
		Handler:           httpapi.SetupRoutes(h, d.themes, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.UIAddr), zap.String("target", target))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
