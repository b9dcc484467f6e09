package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/redisboard/internal/permission"
	"github.com/faciam-dev/redisboard/internal/server"
)

func newOpenAPICmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Write the OpenAPI document of the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, api := server.New(server.Deps{Gate: permission.Open()})
			data, err := json.MarshalIndent(api.OpenAPI(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal openapi: %w", err)
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(filepath.Clean(out), data, 0o600)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout when empty)")
	return cmd
}
