package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TechXTT/dbsession"
)

// NewQueryCmd builds the `query` command.
func NewQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		pf     paramFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a query and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unknown format %q (want table, json or csv)", format)
			}
			params, err := pf.params()
			if err != nil {
				return err
			}
			s, release, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			defer release()

			rows, err := dbsession.Query[dbsession.Row](cmd.Context(), s, args[0], params...)
			if err != nil {
				return err
			}
			return renderRows(cmd.OutOrStdout(), rows, format)
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json|csv)")
	return cmd
}

// NewScalarCmd builds the `scalar` command.
func NewScalarCmd(opts *rootOptions) *cobra.Command {
	var pf paramFlags
	cmd := &cobra.Command{
		Use:   "scalar SQL",
		Short: "Run a query and print the first column of its first row",
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

			v, err := dbsession.Scalar[dbsession.Value](cmd.Context(), s, args[0], params...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	pf.register(cmd.Flags())
	return cmd
}
