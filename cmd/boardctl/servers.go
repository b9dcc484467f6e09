package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/redisboard/internal/api/schema"
)

func newServersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "servers", Short: "Manage registered servers"}
	cmd.AddCommand(newServersListCmd())
	cmd.AddCommand(newServersAddCmd())
	cmd.AddCommand(newServersRmCmd())
	return cmd
}

func newServersListCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			list, err := c.Servers(cmd.Context(), label)
			if err != nil {
				return err
			}
			return printOutput(cmd, list)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "only servers with this label")
	return cmd
}

func newServersAddCmd() *cobra.Command {
	var in schema.ServerInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			s, err := c.AddServer(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printOutput(cmd, s)
		},
	}
	cmd.Flags().StringVar(&in.Label, "label", "", "display label")
	cmd.Flags().StringVar(&in.Host, "host", "", "host name, or a unix socket path starting with /")
	cmd.Flags().IntVar(&in.Port, "port", 6379, "port")
	cmd.Flags().StringVar(&in.Username, "username", "", "ACL user name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cobra.CheckErr(cmd.MarkFlagRequired("host"))
	return cmd
}

func newServersRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a server",
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
			if err := c.DeleteServer(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed server %d\n", id)
			return nil
		},
	}
}
