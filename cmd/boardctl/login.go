package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/faciam-dev/redisboard/pkg/client"
	"github.com/faciam-dev/redisboard/pkg/config"
)

func newLoginCmd() *cobra.Command {
	var nonInteractive bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save API endpoint and token into ~/.boardctl/config.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			prof, _ := cmd.Flags().GetString("profile")
			if prof == "" {
				prof = "default"
			}

			url, _ := cmd.Flags().GetString("api-url")
			tok, _ := cmd.Flags().GetString("token")
			if !nonInteractive {
				in := bufio.NewReader(cmd.InOrStdin())
				if url == "" {
					url = prompt(cmd.OutOrStdout(), in, "API URL", cfg.Profiles[prof].APIURL)
				}
				if tok == "" {
					tok = promptSecret(cmd.OutOrStdout(), in, "Token (Bearer, empty for anonymous)")
				}
			}
			if url == "" {
				return fmt.Errorf("api-url is required (provide the flag or use interactive mode)")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if _, err := client.New(url, client.WithToken(tok)).Servers(ctx, ""); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			cp := cfg.Profiles[prof]
			cp.Name = prof
			cp.APIURL = url
			cp.Token = tok
			cfg.Profiles[prof] = cp
			cfg.Active = prof
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in. Active profile: %s\n", prof)
			return nil
		},
	}
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting")
	return cmd
}

func prompt(w io.Writer, in *bufio.Reader, label, def string) string {
	fmt.Fprintf(w, "%s [%s]: ", label, def)
	s, err := in.ReadString('\n')
	if err != nil && s == "" {
		return def
	}
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// promptSecret reads without echo from a terminal and falls back to a plain
// line read otherwise.
func promptSecret(w io.Writer, in *bufio.Reader, label string) string {
	fmt.Fprintf(w, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, _ := term.ReadPassword(fd)
		fmt.Fprintln(w)
		return strings.TrimSpace(string(b))
	}
	s, _ := in.ReadString('\n')
	return strings.TrimSpace(s)
}
