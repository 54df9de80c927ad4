// Package dbsession wraps one database connection with transaction control,
// parameterized commands and mapping of result rows into Go values.
//
// A Session is not safe for concurrent use. Close it on every path:
//
//	s, err := dbsession.Open(ctx, db)
//	if err != nil {
//		return err
//	}
//	defer s.Close(ctx)
package dbsession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TechXTT/dbsession/internal/bind"
	"github.com/TechXTT/dbsession/internal/plugin"
	"github.com/TechXTT/dbsession/pkg/record"
)

// Dynamic result types.
type (
	Row     = record.Row
	Value   = record.Value
	Field   = record.Field
	Fielder = record.Fielder
)

// Hooks observe every command a Session runs.
type Hooks = plugin.Hooks

// BindStyle controls how @Name parameters reach the driver.
type BindStyle = bind.Style

const (
	BindNamed    = bind.Named
	BindQuestion = bind.Question
	BindDollar   = bind.Dollar
)

// Session owns one connection, at most one transaction and the commands
// prepared on them.
type Session struct {
	id     string
	conn   Conn
	logger *slog.Logger
	style  BindStyle
	hooks  Hooks

	tx         *sql.Tx
	txCommands []*command
	commands   []*command
	closed     bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for session lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBindStyle sets how parameters are passed to the driver. The default,
// BindNamed, passes sql.NamedArg values and leaves the text untouched.
func WithBindStyle(style BindStyle) Option {
	return func(s *Session) { s.style = style }
}

// WithHooks installs command hooks.
func WithHooks(h Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

// Open acquires a dedicated connection from c and starts a Session on it.
func Open(ctx context.Context, c Connector, opts ...Option) (*Session, error) {
	conn, err := c.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	return New(ctx, conn, opts...)
}

// New starts a Session on an already acquired connection, which it then owns.
// The connection is pinged; on failure it is closed and the error returned.
func New(ctx context.Context, conn Conn, opts ...Option) (*Session, error) {
	s := &Session{
		id:     uuid.NewString(),
		conn:   conn,
		logger: slog.New(slog.DiscardHandler),
		style:  BindNamed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("session", s.id))

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s.logger.DebugContext(ctx, "session opened", slog.String("bind_style", s.style.String()))
	return s, nil
}

// ID identifies the session in log output.
func (s *Session) ID() string { return s.id }

// InTransaction reports whether a transaction is active.
func (s *Session) InTransaction() bool { return s.tx != nil }

// BeginTransaction starts a transaction. It does nothing when one is already
// active; transactions do not nest. sql.LevelDefault leaves the isolation
// level to the driver.
//
// The transaction is rolled back by database/sql if ctx is canceled before
// it ends.
func (s *Session) BeginTransaction(ctx context.Context, level sql.IsolationLevel) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, &sql.TxOptions{Isolation: level})
	if err != nil {
		return err
	}
	s.tx = tx
	s.txCommands = nil
	s.logger.DebugContext(ctx, "transaction started", slog.String("isolation", level.String()))
	return nil
}

// CommitTransaction commits the active transaction and releases the commands
// created during it. It does nothing when no transaction is active. A failed
// commit is returned as reported by the driver; the transaction is gone
// either way.
func (s *Session) CommitTransaction(ctx context.Context) error {
	return s.endTransaction(ctx, "committed", (*sql.Tx).Commit)
}

// RollbackTransaction rolls back the active transaction and releases the
// commands created during it. It does nothing when no transaction is active.
func (s *Session) RollbackTransaction(ctx context.Context) error {
	return s.endTransaction(ctx, "rolled back", (*sql.Tx).Rollback)
}

func (s *Session) endTransaction(ctx context.Context, verb string, end func(*sql.Tx) error) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	err := end(s.tx)
	released := len(s.txCommands)
	relErrs := releaseAll(s.txCommands)
	s.txCommands = nil
	s.tx = nil
	if err != nil {
		// The driver error is returned as is; release failures are only logged.
		s.logger.DebugContext(ctx, "transaction end failed",
			slog.String("want", verb),
			slog.Int("released", released),
			slog.Any("error", err),
			slog.Any("release_error", errors.Join(relErrs...)))
		return err
	}
	s.logger.DebugContext(ctx, "transaction "+verb, slog.Int("released", released))
	return errors.Join(relErrs...)
}

// Execute runs a command that returns no rows and reports the number of rows
// it affected.
func (s *Session) Execute(ctx context.Context, query string, params ...Param) (n int64, err error) {
	cmd, args, done, err := s.newCommand(ctx, query, params)
	if err != nil {
		return 0, err
	}
	defer func() { done(err) }()

	res, err := cmd.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close releases the transaction commands, rolls back an active
// transaction, releases the remaining commands and closes the connection,
// in that order. Calling it again does nothing.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	errs := releaseAll(s.txCommands)
	s.txCommands = nil
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		s.tx = nil
	}
	errs = append(errs, releaseAll(s.commands)...)
	released := len(s.commands)
	s.commands = nil
	if err := s.conn.Close(); err != nil {
		errs = append(errs, err)
	}

	s.logger.DebugContext(ctx, "session closed", slog.Int("released", released))
	return errors.Join(errs...)
}

// newCommand rewrites query for the bind style, runs the before hook, and
// prepares a tracked statement on the active transaction or the connection.
// done must be called with the command's outcome.
func (s *Session) newCommand(ctx context.Context, query string, params []Param) (*command, []any, func(error), error) {
	if s.closed {
		return nil, nil, nil, ErrSessionClosed
	}
	text, args, err := bind.Rewrite(query, s.style, params)
	if err != nil {
		return nil, nil, nil, err
	}

	start := time.Now()
	done := func(err error) {
		if s.hooks != nil {
			s.hooks.AfterCommand(ctx, text, time.Since(start), err)
		}
	}
	if s.hooks != nil {
		if err := s.hooks.BeforeCommand(ctx, text, args); err != nil {
			return nil, nil, nil, err
		}
	}

	var stmt *sql.Stmt
	if s.tx != nil {
		stmt, err = s.tx.PrepareContext(ctx, text)
	} else {
		stmt, err = s.conn.PrepareContext(ctx, text)
	}
	if err != nil {
		done(err)
		return nil, nil, nil, err
	}

	cmd := &command{stmt: stmt, text: text}
	if s.tx != nil {
		s.txCommands = append(s.txCommands, cmd)
	} else {
		s.commands = append(s.commands, cmd)
	}
	return cmd, args, done, nil
}
