package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/qgatssdev/nika/actions"
	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/service"
)

// Server interface
type Server interface {
	Listen() error
}

type server struct {
	config  config.Config
	actions *actions.Actions
	HTTP    *http.Server
}

// NewServer constructor
func NewServer(cfg config.Config, srv *service.Service) Server {
	userActions := actions.NewActions(cfg, srv)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.API.Port),
		Handler:           NewRouter(cfg, userActions),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer.SetKeepAlivesEnabled(cfg.Server.API.KeepAlive)
	return &server{
		config:  cfg,
		actions: userActions,
		HTTP:    httpServer,
	}
}

// Listen serves http requests until the process receives a termination signal
func (srv *server) Listen() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(srv.ListenToRequests)
	group.Go(func() error {
		<-ctx.Done()
		log.Info().Str("section", "server").Str("app_event", "terminate").Msg("Shutting down services")
		return srv.closeApp(srv.config.Server.API.ShutdownTimeout)
	})
	return group.Wait()
}

// ListenToRequests blocks until the http server is closed
func (srv *server) ListenToRequests() error {
	log.Info().Str("worker", "http_listen_to_requests").Str("addr", srv.HTTP.Addr).Str("action", "start").Msg("HTTP Listen to requests - started")
	defer log.Info().Str("worker", "http_listen_to_requests").Str("action", "stop").Msg("HTTP Listen to requests - stopped")

	if err := srv.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (srv *server) closeApp(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	// define a timeout in which the graceful shutdown procedure should happen before forcing the shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.HTTP.Shutdown(ctx); err != nil {
		log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to shutdown HTTP server")
		return err
	}
	log.Info().Str("section", "server").Str("app_event", "terminate").Str("state", "complete").Msg("HTTP server stopped")
	return nil
}
