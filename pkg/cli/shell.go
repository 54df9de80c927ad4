package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/TechXTT/dbsession"
)

const (
	shellPrompt     = "dbsession> "
	shellContPrompt = "       ...> "
)

// lineReader is the part of *readline.Instance the shell loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// NewShellCmd builds the `shell` command.
func NewShellCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with transaction control",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unknown format %q (want table, json or csv)", format)
			}
			s, release, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			defer release()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          shellPrompt,
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
				AutoComplete:    shellCompleter(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize shell: %w", err)
			}
			defer func() { _ = rl.Close() }()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "dbsession %s (session %s)\n", Version, s.ID())
			_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
			return runShell(cmd.Context(), s, rl, out, cmd.ErrOrStderr(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json|csv)")
	return cmd
}

func historyFile() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".dbsession_history")
}

func shellCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".begin",
			readline.PcItem("read-uncommitted"),
			readline.PcItem("read-committed"),
			readline.PcItem("repeatable-read"),
			readline.PcItem("serializable"),
		),
		readline.PcItem(".commit"),
		readline.PcItem(".rollback"),
		readline.PcItem(".status"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

// runShell reads statements until .quit or EOF. Statements may span lines
// and end with a semicolon. Errors are printed and the loop goes on.
func runShell(ctx context.Context, s *dbsession.Session, rl lineReader, out, errOut io.Writer, format string) error {
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(shellPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			quit, err := shellCommand(ctx, s, line, out)
			if err != nil {
				_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			rl.SetPrompt(shellContPrompt)
			continue
		}
		rl.SetPrompt(shellPrompt)

		stmt := strings.TrimSpace(strings.TrimSuffix(buf.String(), ";"))
		buf.Reset()
		if err := runStatement(ctx, s, stmt, out, format); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	}
}

// shellCommand handles one dot-command; quit reports whether the shell
// should exit.
func shellCommand(ctx context.Context, s *dbsession.Session, line string, out io.Writer) (quit bool, err error) {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true, nil
	case ".help":
		printShellHelp(out)
	case ".status":
		state := "no transaction"
		if s.InTransaction() {
			state = "in transaction"
		}
		_, _ = fmt.Fprintf(out, "session %s: %s\n", s.ID(), state)
	case ".begin":
		level := sql.LevelDefault
		if len(parts) > 1 {
			if level, err = parseIsolation(parts[1]); err != nil {
				return false, err
			}
		}
		if s.InTransaction() {
			_, _ = fmt.Fprintln(out, "already in a transaction")
			return false, nil
		}
		if err := s.BeginTransaction(ctx, level); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(out, "BEGIN")
	case ".commit":
		if err := s.CommitTransaction(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(out, "COMMIT")
	case ".rollback":
		if err := s.RollbackTransaction(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(out, "ROLLBACK")
	default:
		return false, fmt.Errorf("unknown command: %s (type .help for commands)", parts[0])
	}
	return false, nil
}

func runStatement(ctx context.Context, s *dbsession.Session, stmt string, out io.Writer, format string) error {
	if returnsRows(stmt) {
		rows, err := dbsession.Query[dbsession.Row](ctx, s, stmt)
		if err != nil {
			return err
		}
		return renderRows(out, rows, format)
	}
	n, err := s.Execute(ctx, stmt)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%d row(s) affected\n", n)
	return nil
}

// returnsRows guesses from the leading keyword whether stmt produces rows.
func returnsRows(stmt string) bool {
	stmt = strings.TrimLeft(stmt, " \t\r\n(")
	for strings.HasPrefix(stmt, "--") {
		if i := strings.IndexByte(stmt, '\n'); i >= 0 {
			stmt = strings.TrimLeft(stmt[i+1:], " \t\r\n(")
		} else {
			return false
		}
	}
	word := stmt
	if i := strings.IndexAny(stmt, " \t\r\n(;"); i >= 0 {
		word = stmt[:i]
	}
	switch strings.ToUpper(word) {
	case "SELECT", "WITH", "VALUES", "PRAGMA", "SHOW", "EXPLAIN", "DESCRIBE", "TABLE":
		return true
	}
	return false
}

func parseIsolation(s string) (sql.IsolationLevel, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch norm {
	case "default":
		return sql.LevelDefault, nil
	case "readuncommitted":
		return sql.LevelReadUncommitted, nil
	case "readcommitted":
		return sql.LevelReadCommitted, nil
	case "writecommitted":
		return sql.LevelWriteCommitted, nil
	case "repeatableread":
		return sql.LevelRepeatableRead, nil
	case "snapshot":
		return sql.LevelSnapshot, nil
	case "serializable":
		return sql.LevelSerializable, nil
	case "linearizable":
		return sql.LevelLinearizable, nil
	}
	return sql.LevelDefault, fmt.Errorf("unknown isolation level %q", s)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .begin [level]  Start a transaction (read-committed, serializable, ...)
  .commit         Commit the active transaction
  .rollback       Roll back the active transaction
  .status         Show whether a transaction is active
  .help           Show this help message
  .quit / .exit   Exit the shell

Statements end with a semicolon (;) and may span several lines.
SELECT, WITH, VALUES, PRAGMA, SHOW and EXPLAIN print rows; anything else
prints the number of rows affected.
`
	_, _ = fmt.Fprintln(w, help)
}
