package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/faciam-dev/redisboard/internal/api/schema"
	"github.com/faciam-dev/redisboard/internal/inspect"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOARDCTL_API_URL", "")
	t.Setenv("BOARDCTL_TOKEN", "")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestServersList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]schema.Server{
			{ID: 1, Name: "cache", Host: "10.0.0.1", Port: 6379, UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			{ID: 2, Name: "local", Host: "/tmp/redis.sock", HasPassword: true},
		})
	}))
	defer srv.Close()

	out, err := run(t, "servers", "list", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	for _, want := range []string{"10.0.0.1:6379", "/tmp/redis.sock", "cache", "2024-01-02T03:04:05Z"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectKeyJSON(t *testing.T) {
	ttl := int64(30)
	detail := inspect.KeyDetail{
		DB: 1, Display: "user:1", Escaped: "user%3A1", Type: inspect.TypeHash, Size: 1, TTL: &ttl,
		Page: &inspect.ValuePage{Items: []inspect.Item{{Field: "name", Value: "ann"}}, Count: 100},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/servers/4/databases/1/key" || r.URL.Query().Get("name") != "user:1" {
			t.Fatalf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(detail)
	}))
	defer srv.Close()

	out, err := run(t, "inspect", "key", "4", "user:1", "--db", "1", "--api-url", srv.URL, "-o", "json")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	var got inspect.KeyDetail
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if diff := cmp.Diff(detail, got); diff != "" {
		t.Fatalf("key diff (-want +got)\n%s", diff)
	}
}

func TestMissingAPIURL(t *testing.T) {
	if _, err := run(t, "servers", "list", "--api-url", ""); err == nil {
		t.Fatal("expected error without API URL")
	}
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"match=user:*", "type=hash", "match=order:*"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]string{"match": "order:*", "type": "hash"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filters diff (-want +got)\n%s", diff)
	}
	for _, bad := range []string{"nope", "=x", "cursor=5"} {
		if _, err := parseFilters([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
