package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TechXTT/dbsession"
	"github.com/TechXTT/dbsession/internal/plugin"
	"github.com/TechXTT/dbsession/pkg/config"
	"github.com/TechXTT/dbsession/pkg/runtime"
)

// connect loads the configuration and opens a session. The returned release
// func closes the session and the database; call it exactly once.
func connect(cmd *cobra.Command, opts *rootOptions) (*dbsession.Session, func(), error) {
	ctx := cmd.Context()
	cfg, err := config.Load(opts.cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, opts.verbose)
	if err != nil {
		return nil, nil, err
	}
	if cfg.File != "" {
		logger.Debug("using config file", slog.String("path", cfg.File))
	}

	db, err := runtime.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	sopts, err := runtime.SessionOptions(cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if opts.verbose {
		sopts = append(sopts, dbsession.WithHooks(plugin.LogHooks(logger)))
	}

	s, err := dbsession.Open(ctx, db, sopts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	release := func() {
		if err := s.Close(ctx); err != nil {
			logger.Warn("failed to close session", slog.String("error", err.Error()))
		}
		_ = db.Close()
	}
	return s, release, nil
}

func newLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
