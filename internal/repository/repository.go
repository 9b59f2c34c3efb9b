// Package repository persists submissions in PostgreSQL.
//
// Each submission table keeps the posted document verbatim in a JSONB
// column next to the few columns the server owns. Every repository checks
// the store's connectivity first and reports database.ErrUnavailable
// instead of attempting a write against a database that is known to be down.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourconsultingltd/ycl-backend/internal/database"
)

// DBTX is the subset of *pgxpool.Pool the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatusProbe reports whether the database is currently reachable.
type StatusProbe interface {
	Connected() bool
}

type store struct {
	db    DBTX
	probe StatusProbe
}

func (s store) available() error {
	if s.probe != nil && !s.probe.Connected() {
		return database.ErrUnavailable
	}
	return nil
}

// wrap tags connection failures with ErrUnavailable so callers can fall back
// to degraded behavior; other errors keep the driver error for sqlerr.
func wrap(op string, err error) error {
	if database.IsConnectionError(err) {
		return fmt.Errorf("%s: %w: %v", op, database.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
