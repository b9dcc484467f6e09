package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Read the server registry audit log"}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			logs, err := c.AuditLogs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printOutput(cmd, logs)
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "number of entries (server default when 0)")

	diff := &cobra.Command{
		Use:   "diff <id>",
		Short: "Show what an audit entry changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			d, err := c.AuditDiff(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if f, _ := cmd.Flags().GetString("output"); f == "json" {
				return printJSON(cmd.OutOrStdout(), d)
			}
			fmt.Fprint(cmd.OutOrStdout(), d.Unified)
			fmt.Fprintf(cmd.OutOrStdout(), "+%d -%d\n", d.Added, d.Removed)
			return nil
		},
	}

	cmd.AddCommand(list, diff)
	return cmd
}
