package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gwdata/internal/platform/config"
	"gwdata/internal/platform/logger"
	phttp "gwdata/internal/platform/net/http"
	"gwdata/internal/platform/net/middleware"
	"gwdata/internal/services/api"
)

func main() {
	root := config.New()
	srvCfg := root.Prefix("GWDATA_SERVE_")

	logger.Init(logger.FromEnv())
	l := logger.Named("serve")

	srv := phttp.NewServer(srvCfg, func(m *chi.Mux) {
		m.Use(chimw.RequestID)
		m.Use(middleware.RecoverJSON)
		m.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{srvCfg.MayString("CORS_ORIGIN", "*")},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
			MaxAge:         300,
		}))
		m.Use(middleware.AccessLog(middleware.AccessLogOptions{
			Slow: srvCfg.MayDuration("SLOW_REQUEST", 2*time.Second),
		}))
	})

	api.Register(srv.Mux(), api.Deps{
		ServiceName: "gwdata-serve",
		StartedAt:   time.Now(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case <-ctx.Done():
		l.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("shutdown failed")
		}
	case err := <-errc:
		if err != nil {
			l.Fatal().Err(err).Msg("http server stopped")
		}
	}
}
