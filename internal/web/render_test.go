package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/servers"
)

func TestRenderRunsCallbacksAfterRender(t *testing.T) {
	rd, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	var events []string
	row := NewServerRow(servers.Server{ID: 3, Label: "cache"}, true, func() inspect.ServerStats {
		events = append(events, "stats")
		return inspect.ServerStats{Up: true, Version: "7.2.0", UsedMemoryHuman: "1M"}
	})
	resp := NewResponse("servers.html", ServersPage{Rows: []*ServerRow{row}})
	resp.AddPostRenderCallback(func() { events = append(events, "close") })

	w := httptest.NewRecorder()
	if err := rd.Render(w, resp); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Join(events, ",") != "stats,close" {
		t.Fatalf("events = %v", events)
	}
	body := w.Body.String()
	for _, want := range []string{"cache", "UP", "7.2.0", `href="/servers/3/inspect/"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body misses %q:\n%s", want, body)
		}
	}
}

func TestRenderFailureStillRunsCallbacks(t *testing.T) {
	rd, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	closed := false
	resp := NewResponse("missing.html", nil)
	resp.AddPostRenderCallback(func() { closed = true })
	w := httptest.NewRecorder()
	if err := rd.Render(w, resp); err == nil {
		t.Fatal("expected error")
	}
	if !closed || w.Code != http.StatusInternalServerError {
		t.Fatalf("closed=%v code=%d", closed, w.Code)
	}
}

func TestRenderInspectAndKey(t *testing.T) {
	rd, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	q := url.Values{"match": {"user:*"}}
	page := InspectPage{
		Server: servers.Server{ID: 1, Host: "10.0.0.1", Port: 6379},
		Stats:  inspect.ServerStats{Up: true},
		Databases: inspect.Databases{Summaries: []inspect.DatabaseSummary{
			{ID: 0, Keys: 2, ScanEnabled: true, Page: &inspect.ScanPage{Keys: []string{"user:1", "a b"}, NextCursor: 17}},
			{ID: 4, Keys: 5000},
		}},
		Query: q,
	}
	w := httptest.NewRecorder()
	if err := rd.Render(w, NewResponse("inspect.html", page)); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := w.Body.String()
	for _, want := range []string{
		`href="/servers/1/inspect/0/key/user:1"`,
		`href="/servers/1/inspect/0/key/a%20b"`,
		`href="/servers/1/inspect/0/17/?match=user%3A%2A"`,
		"Too many keys",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body misses %q:\n%s", want, body)
		}
	}

	ttl := int64(60)
	kp := KeyPage{
		Server: page.Server,
		Key: inspect.KeyDetail{DB: 0, Name: "l", Display: "l", Type: inspect.TypeList, Size: 3, TTL: &ttl,
			Page: &inspect.ValuePage{Items: []inspect.Item{{Index: 0, Value: "x"}}, NextCursor: 1}},
	}
	w = httptest.NewRecorder()
	if err := rd.Render(w, NewResponse("key.html", kp)); err != nil {
		t.Fatalf("render: %v", err)
	}
	body = w.Body.String()
	for _, want := range []string{"1m0s", `href="/servers/1/inspect/0/1/key/l"`, "<td>x</td>"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body misses %q:\n%s", want, body)
		}
	}
}

func TestURLs(t *testing.T) {
	if got := InspectURL(2, -1, 0, nil); got != "/servers/2/inspect/" {
		t.Fatalf("overview = %s", got)
	}
	if got := InspectURL(2, 3, 0, url.Values{"type": {"hash"}}); got != "/servers/2/inspect/3/?type=hash" {
		t.Fatalf("db = %s", got)
	}
	if got := KeyURL(2, 0, "a/b\x00", 5); got != "/servers/2/inspect/0/5/key/a%2Fb%00" {
		t.Fatalf("key = %s", got)
	}
}
