package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Resolved is the endpoint a command talks to.
type Resolved struct {
	APIURL   string
	Token    string
	Profile  string
	Insecure bool // from the profile only
}

// Resolve picks the API URL and token: flag, then environment, then the
// active (or --profile) profile. The token may be empty when the server
// assumes an anonymous user.
func Resolve(cmd *cobra.Command) (Resolved, error) {
	flagURL, _ := cmd.Root().PersistentFlags().GetString("api-url")
	flagToken, _ := cmd.Root().PersistentFlags().GetString("token")

	envURL := os.Getenv("BOARDCTL_API_URL")
	envToken := os.Getenv("BOARDCTL_TOKEN")

	cfg, err := Load()
	if err != nil {
		return Resolved{}, err
	}
	prof := cfg.Active
	if p, _ := cmd.Root().PersistentFlags().GetString("profile"); p != "" {
		prof = p
	}
	cp := cfg.Profiles[prof]

	url := firstNonEmpty(flagURL, envURL, cp.APIURL)
	tok := firstNonEmpty(flagToken, envToken, cp.Token)
	if url == "" {
		return Resolved{}, fmt.Errorf("API URL not set (flag/env/config)")
	}

	return Resolved{
		APIURL:   url,
		Token:    tok,
		Profile:  prof,
		Insecure: cp.Insecure,
	}, nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
