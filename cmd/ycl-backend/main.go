package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
	"github.com/yourconsultingltd/ycl-backend/internal/database"
	"github.com/yourconsultingltd/ycl-backend/internal/handler"
	"github.com/yourconsultingltd/ycl-backend/internal/logger"
	"github.com/yourconsultingltd/ycl-backend/internal/repository"
	"github.com/yourconsultingltd/ycl-backend/internal/router"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/service"
)

const DefaultContextTimeout = 30

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if cfg.Primary.Env != "local" {
		ctx, cancel := context.WithTimeout(context.Background(), database.DatabasePingTimeout)
		err := database.Migrate(ctx, &log, cfg)
		cancel()
		switch {
		case errors.Is(err, database.ErrUnavailable):
			// Applied by the monitor once the database answers.
			log.Warn().Err(err).Msg("database unreachable, migrations deferred")
		case err != nil:
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)
	services := service.NewServices(srv, repos)
	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)
	srv.StartMonitor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
