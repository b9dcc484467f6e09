package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/faciam-dev/redisboard/internal/api/schema"
	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/redisconn"
	"github.com/faciam-dev/redisboard/pkg/client"
	"github.com/faciam-dev/redisboard/pkg/config"
)

func newClient(cmd *cobra.Command) (*client.Client, error) {
	r, err := config.Resolve(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(r.APIURL,
		client.WithToken(r.Token),
		client.WithInsecure(r.Insecure),
		client.WithTimeout(30*time.Second),
	), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid server id %q", s)
	}
	return id, nil
}

// printOutput prints v as JSON or as a table depending on --output.
func printOutput(cmd *cobra.Command, v any) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(w, v)
	}
	switch x := v.(type) {
	case []schema.Server:
		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"ID", "Name", "Address", "User", "Password", "Updated"})
		for _, s := range x {
			tw.Append([]string{
				strconv.FormatInt(s.ID, 10), s.Name, address(s), s.Username,
				strconv.FormatBool(s.HasPassword), s.UpdatedAt.Format(time.RFC3339),
			})
		}
		tw.Render()
	case schema.Server:
		fmt.Fprintf(w, "%d %s (%s)\n", x.ID, x.Name, address(x))
	case schema.Stats:
		printStats(w, x)
	case schema.Databases:
		printDatabases(w, x)
	case inspect.KeyDetail:
		printKey(w, x)
	case []redisconn.SlowlogEntry:
		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"ID", "Time", "Duration", "Command", "Client"})
		for _, e := range x {
			tw.Append([]string{
				strconv.FormatInt(e.ID, 10), e.Time.Format(time.RFC3339), e.Duration.String(),
				strings.Join(e.Args, " "), e.ClientAddr,
			})
		}
		tw.Render()
	case []schema.AuditLog:
		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"ID", "Time", "Actor", "Action", "Server"})
		for _, e := range x {
			tw.Append([]string{e.ID, e.CreatedAt.Format(time.RFC3339), e.Actor, e.Action, strconv.FormatInt(e.ServerID, 10)})
		}
		tw.Render()
	default:
		return printJSON(w, v)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func address(s schema.Server) string {
	if strings.HasPrefix(s.Host, "/") {
		return s.Host
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func printStats(w io.Writer, st schema.Stats) {
	fmt.Fprintf(w, "%s: %s\n", st.Server.Name, st.Status)
	if !st.Up {
		return
	}
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Version", "Role", "Mode", "Memory", "Clients", "CPU sys/user"})
	tw.Append([]string{
		st.Version, st.Role, st.Mode,
		fmt.Sprintf("%s (peak %s)", st.UsedMemoryHuman, st.PeakMemoryHuman),
		fmt.Sprintf("%d (%d blocked)", st.ConnectedClients, st.BlockedClients),
		fmt.Sprintf("%.2fs / %.2fs", st.CPUSys, st.CPUUser),
	})
	tw.Render()
}

func printDatabases(w io.Writer, d schema.Databases) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"DB", "Keys", "Expires", "Scanned", "Next cursor"})
	for _, s := range d.Summaries {
		next := ""
		if s.Page != nil {
			next = strconv.FormatUint(s.Page.NextCursor, 10)
		}
		tw.Append([]string{
			strconv.Itoa(s.ID), strconv.FormatInt(s.Keys, 10), strconv.FormatInt(s.Expires, 10),
			strconv.FormatBool(s.ScanEnabled), next,
		})
	}
	tw.Render()
	for _, s := range d.Summaries {
		if s.Page == nil {
			continue
		}
		fmt.Fprintf(w, "\ndb%d:\n", s.ID)
		for _, k := range s.Page.Keys {
			fmt.Fprintf(w, "  %s\n", inspect.DisplayKey(k))
		}
	}
}

func printKey(w io.Writer, k inspect.KeyDetail) {
	ttl := "none"
	if k.TTL != nil {
		ttl = (time.Duration(*k.TTL) * time.Second).String()
	}
	fmt.Fprintf(w, "%s (db%d) type=%s encoding=%s size=%d ttl=%s\n", k.Display, k.DB, k.Type, k.Encoding, k.Size, ttl)
	if k.Page == nil {
		fmt.Fprintln(w, string(k.Value))
		return
	}
	tw := tablewriter.NewWriter(w)
	switch k.Type {
	case inspect.TypeList:
		tw.SetHeader([]string{"Index", "Value"})
		for _, it := range k.Page.Items {
			tw.Append([]string{strconv.FormatInt(it.Index, 10), it.Value})
		}
	case inspect.TypeHash:
		tw.SetHeader([]string{"Field", "Value"})
		for _, it := range k.Page.Items {
			tw.Append([]string{it.Field, it.Value})
		}
	case inspect.TypeZSet:
		tw.SetHeader([]string{"Score", "Value"})
		for _, it := range k.Page.Items {
			tw.Append([]string{strconv.FormatFloat(it.Score, 'g', -1, 64), it.Value})
		}
	default:
		tw.SetHeader([]string{"Value"})
		for _, it := range k.Page.Items {
			tw.Append([]string{it.Value})
		}
	}
	tw.Render()
	if k.Page.NextCursor != 0 {
		fmt.Fprintf(w, "next cursor: %d\n", k.Page.NextCursor)
	}
}
