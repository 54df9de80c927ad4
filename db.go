package dbsession

import (
	"context"
	"database/sql"
)

// Conn is the connection a Session owns. *sql.Conn satisfies it.
type Conn interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Connector hands out a dedicated connection. *sql.DB satisfies it.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

var (
	_ Conn      = (*sql.Conn)(nil)
	_ Connector = (*sql.DB)(nil)
)
