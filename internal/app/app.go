package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"team-sso/internal/config"

	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

type App struct {
	httpServer *http.Server
	cleanup    func() error
	log        *zap.SugaredLogger
}

func New(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*App, error) {
	router, cleanup, err := setupHTTP(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return &App{
		httpServer: server,
		cleanup:    cleanup,
		log:        log,
	}, nil
}

// Run serves until Shutdown is called.
func (a *App) Run() error {
	a.log.Infow("http server listening", "addr", a.httpServer.Addr)
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
