// Package database owns the PostgreSQL connection pool that backs the
// document store.
//
// It handles:
//   - building a DSN from config
//   - creating a pgx connection pool (pgxpool)
//   - wiring query tracing/logging (pgx tracelog, New Relic nrpgx5)
//   - tracking connectivity so the service can run degraded while the
//     database is unreachable
package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
	loggerConfig "github.com/yourconsultingltd/ycl-backend/internal/logger"
)

// ErrUnavailable is returned by the store when the database can't be reached.
// Callers treat it as "not connected" rather than as a failed write.
var ErrUnavailable = errors.New("database unavailable")

// Database wraps the pgx pool together with its connectivity state.
type Database struct {
	Pool      *pgxpool.Pool
	log       *zerolog.Logger
	connected atomic.Bool
}

// multiTracer fans pgx trace callbacks out to several tracers, since
// ConnConfig only has a single Tracer slot.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// DatabasePingTimeout bounds the start-up ping.
const DatabasePingTimeout = 10 * time.Second

// DSN builds the postgres URL for cfg. The password is escaped so
// characters like ':' or '@' can't break the URL.
func DSN(cfg config.DatabaseConfig) string {
	hostPort := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		hostPort,
		cfg.Name,
		cfg.SSLMode,
	)
}

// New creates the pool and pings it once.
//
// An unreachable database is not an error: the pool is returned in the
// disconnected state and Monitor brings it back once the server answers.
// Only a malformed configuration fails here.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	pgxPoolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	pgxPoolConfig.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	pgxPoolConfig.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second

	if loggerService.GetApplication() != nil {
		pgxPoolConfig.ConnConfig.Tracer = nrpgx5.NewTracer()
	}

	// SQL logging is far too noisy outside a developer machine.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: tracelog.LogLevel(loggerConfig.GetPgxTraceLogLevel(globalLevel)),
		}

		if pgxPoolConfig.ConnConfig.Tracer != nil {
			pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
				tracers: []any{pgxPoolConfig.ConnConfig.Tracer, localTracer},
			}
		} else {
			pgxPoolConfig.ConnConfig.Tracer = localTracer
		}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	db := &Database{
		Pool: pool,
		log:  logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("database unreachable, continuing without persistence")
		return db, nil
	}

	db.connected.Store(true)
	logger.Info().Msg("connected to the database")

	return db, nil
}

// Connected reports whether the last connectivity check succeeded.
func (db *Database) Connected() bool {
	return db != nil && db.connected.Load()
}

// Ping checks the database without touching the connectivity state; only
// Monitor flips it, after the reconnect hook has run.
func (db *Database) Ping(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return ErrUnavailable
	}
	return db.Pool.Ping(ctx)
}

// Monitor pings the database every interval until ctx is done. When the
// database comes back after being unreachable, onReconnect is run (used to
// apply pending migrations); if it fails the database stays marked down
// and the next tick retries.
func (db *Database) Monitor(ctx context.Context, interval, timeout time.Duration, onReconnect func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		wasConnected := db.Connected()

		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err := db.Ping(pingCtx)
		cancel()

		switch {
		case err != nil && wasConnected:
			db.connected.Store(false)
			db.log.Error().Err(err).Msg("lost connection to the database")
		case err == nil && !wasConnected:
			if onReconnect != nil {
				if err := onReconnect(ctx); err != nil {
					db.log.Error().Err(err).Msg("database reachable but reconnect hook failed")
					continue
				}
			}
			db.connected.Store(true)
			db.log.Info().Msg("reconnected to the database")
		}
	}
}

// IsConnectionError reports whether err means the server could not be
// reached, as opposed to a query the server rejected. Deadlines and network
// timeouts count as unreachable.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Close closes the pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	db.connected.Store(false)
	db.Pool.Close()
	return nil
}
