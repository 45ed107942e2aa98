// Package postgres implements the repository interfaces on PostgreSQL via
// pgx. Every repository takes a database.DBTX so tests can pass pgxmock.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// execer is satisfied by both a pool and a pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
