// Package server composes the application's shared dependencies and owns
// their lifecycle.
//
// It holds:
//   - configuration and the loggers (with the optional New Relic application)
//   - the database pool and its connectivity monitor
//   - the redis client, shared by the job queue and the health check
//   - the email client and the background job service
//   - upload storage
//   - the http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
	"github.com/yourconsultingltd/ycl-backend/internal/database"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/email"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/job"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/storage"
	loggerPkg "github.com/yourconsultingltd/ycl-backend/internal/logger"
)

const redisPingTimeout = 5 * time.Second

// Server is the application container. It is not the HTTP server itself;
// that one is created by SetupHTTPServer.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	DB      *database.Database
	Redis   *redis.Client
	Email   *email.Client
	Job     *job.JobService
	Storage storage.Storage

	httpServer  *http.Server
	stopMonitor context.CancelFunc
	monitorDone chan struct{}
}

// New initializes the dependencies.
//
// Unreachable backing services don't stop start-up: the database comes up
// disconnected and is picked up by the monitor, redis is dialed lazily, and
// a missing mail key leaves notifications disabled. Only configuration
// errors and an unusable upload store fail here.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, notifications will queue once it is back")
	}

	files, err := storage.New(ctx, cfg.Uploads)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	emailClient := email.NewClient(cfg, logger)
	if !emailClient.Configured() {
		logger.Warn().Msg("email is not configured, notifications are disabled")
	}

	jobService := job.NewJobService(logger, redisClient, emailClient)
	if err := jobService.Start(); err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to start job service: %w", err)
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Email:         emailClient,
		Job:           jobService,
		Storage:       files,
	}, nil
}

// StartMonitor watches database connectivity in the background, applying
// pending migrations whenever the database comes back.
func (s *Server) StartMonitor() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopMonitor = cancel
	s.monitorDone = make(chan struct{})

	checks := s.Config.Observability.HealthChecks

	go func() {
		defer close(s.monitorDone)
		s.DB.Monitor(ctx, checks.Interval, checks.Timeout, func(ctx context.Context) error {
			return database.Migrate(ctx, s.Logger, s.Config)
		})
	}()
}

// SetupHTTPServer creates the http.Server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start serves HTTP until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, drains in-flight ones, then stops the
// monitor and the workers and closes redis and the database. Every step
// runs even if an earlier one fails; the errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.stopMonitor != nil {
		s.stopMonitor()
		<-s.monitorDone
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
