// Package runtime opens databases and sessions from a config.Config.
package runtime

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/TechXTT/dbsession"
	"github.com/TechXTT/dbsession/internal/bind"
	"github.com/TechXTT/dbsession/pkg/config"
)

// DriverName maps a configured driver, including aliases, to the name it is
// registered under with database/sql.
func DriverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pq":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

// NormalizeDSN applies per-driver defaults: postgres:// URLs without an
// sslmode get sslmode=disable, MySQL DSNs always get parseTime=true.
func NormalizeDSN(driverName, dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("DSN is empty")
	}
	switch driverName {
	case "postgres", "pgx":
		if (strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")) && !strings.Contains(dsn, "sslmode=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn = dsn + sep + "sslmode=disable"
		}
	case "mysql":
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		mc.ParseTime = true
		dsn = mc.FormatDSN()
	}
	return dsn, nil
}

// Open opens the database described by cfg. The pool is not pinged; sessions
// ping the connection they acquire.
func Open(cfg *config.Config) (*sql.DB, error) {
	name, err := DriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := NormalizeDSN(name, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if name == "pgx" {
		pc, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid pgx DSN: %w", err)
		}
		return stdlib.OpenDB(*pc), nil
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// BindStyle resolves the configured bind style; "auto" picks one for the
// driver.
func BindStyle(cfg *config.Config) (dbsession.BindStyle, error) {
	if cfg.BindStyle == "" || strings.EqualFold(cfg.BindStyle, "auto") {
		name, err := DriverName(cfg.Driver)
		if err != nil {
			return dbsession.BindNamed, err
		}
		return bind.StyleFor(name), nil
	}
	return bind.ParseStyle(cfg.BindStyle)
}

// SessionOptions maps cfg to session options.
func SessionOptions(cfg *config.Config, logger *slog.Logger) ([]dbsession.Option, error) {
	style, err := BindStyle(cfg)
	if err != nil {
		return nil, err
	}
	return []dbsession.Option{
		dbsession.WithBindStyle(style),
		dbsession.WithLogger(logger),
	}, nil
}
