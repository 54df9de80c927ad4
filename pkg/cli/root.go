// Package cli implements the dbsession command line.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "v0.1.0"

// rootOptions holds the persistent flags that are not config keys.
type rootOptions struct {
	cfgFile string
	verbose bool
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	}
}

// NewRootCmd builds the top-level `dbsession` command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "dbsession",
		Short: "Run SQL through a single-connection session",
		Long: `dbsession runs statements, queries and scalar lookups over one database
connection, optionally inside a transaction.

Parameters are written as @Name in the statement and passed with --param:
  dbsession exec "INSERT INTO people (name) VALUES (@Name)" --param Name=Alice`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default: ./dbsession.yaml)")
	pf.String("driver", "", "database driver (postgres|pgx|mysql|sqlite)")
	pf.String("dsn", "", `data source name, or env("NAME")`)
	pf.String("bind-style", "", "parameter style (auto|named|question|dollar)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log every command")

	root.AddCommand(NewExecCmd(opts))
	root.AddCommand(NewQueryCmd(opts))
	root.AddCommand(NewScalarCmd(opts))
	root.AddCommand(NewShellCmd(opts))
	root.AddCommand(NewVersionCmd())
	return root
}
