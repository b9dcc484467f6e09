package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/redisboard/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := v.GetString("jwt-secret")
			if secret == "" {
				return errors.New("jwt-secret must be set")
			}
			sub := v.GetString("sub")
			if sub == "" {
				return errors.New("--sub is required")
			}
			tok, err := auth.NewJWT(secret, v.GetDuration("ttl")).Generate(sub)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("sub", "", "user the token is issued to")
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime (0 for none)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret")
	return cmd
}
