package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

// NewExecCmd builds the `exec` command.
func NewExecCmd(opts *rootOptions) *cobra.Command {
	var (
		pf     paramFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "exec SQL",
		Short: "Run a statement and print the number of rows affected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.params()
			if err != nil {
				return err
			}
			s, release, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			defer release()

			ctx := cmd.Context()
			if dryRun {
				if err := s.BeginTransaction(ctx, sql.LevelDefault); err != nil {
					return err
				}
			}
			n, err := s.Execute(ctx, args[0], params...)
			if dryRun {
				if rbErr := s.RollbackTransaction(ctx); err == nil {
					err = rbErr
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%d row(s) affected\n", n)
			if dryRun {
				_, _ = fmt.Fprintln(out, "(dry run: rolled back)")
			}
			return nil
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run inside a transaction and roll it back")
	return cmd
}
