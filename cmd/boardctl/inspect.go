package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/redisboard/pkg/client"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "inspect", Short: "Inspect a server"}
	cmd.AddCommand(newInspectStatsCmd())
	cmd.AddCommand(newInspectSlowlogCmd())
	cmd.AddCommand(newInspectDBsCmd())
	cmd.AddCommand(newInspectKeyCmd())
	return cmd
}

func newInspectStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <server-id>",
		Short: "Show live server stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			st, err := c.Stats(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printOutput(cmd, st)
		},
	}
}

func newInspectSlowlogCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "slowlog <server-id>",
		Short: "Show the latest slow log entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			entries, err := c.Slowlog(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			return printOutput(cmd, entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of entries (server default when 0)")
	return cmd
}

func newInspectDBsCmd() *cobra.Command {
	var (
		q       client.DatabasesQuery
		filters []string
	)
	cmd := &cobra.Command{
		Use:   "dbs <server-id>",
		Short: "Summarize databases and scan one page of keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			q.Filters, err = parseFilters(filters)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			dbs, err := c.Databases(cmd.Context(), id, q)
			if err != nil {
				return err
			}
			return printOutput(cmd, dbs)
		},
	}
	cmd.Flags().IntVar(&q.DB, "db", -1, "database to scan (-1 lets the key count decide)")
	cmd.Flags().Uint64Var(&q.Cursor, "cursor", 0, "scan cursor")
	cmd.Flags().Int64Var(&q.Count, "count", 0, "scan count hint")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "scan filter as name=value, e.g. match=user:* or type=hash")
	return cmd
}

func newInspectKeyCmd() *cobra.Command {
	var (
		db     int
		cursor uint64
		count  int64
	)
	cmd := &cobra.Command{
		Use:   "key <server-id> <key>",
		Short: "Show a key and one page of its value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			k, err := c.Key(cmd.Context(), id, db, args[1], cursor, count)
			if err != nil {
				return err
			}
			return printOutput(cmd, k)
		},
	}
	cmd.Flags().IntVar(&db, "db", 0, "database")
	cmd.Flags().Uint64Var(&cursor, "cursor", 0, "value page cursor")
	cmd.Flags().Int64Var(&count, "count", 0, "value page size")
	return cmd
}

func parseFilters(in []string) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for _, f := range in {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q, want name=value", f)
		}
		switch k {
		case "db", "cursor", "count":
			return nil, fmt.Errorf("filter %q is reserved, use --%s", k, k)
		}
		out[k] = v
	}
	return out, nil
}
