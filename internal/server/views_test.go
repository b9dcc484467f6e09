package server

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/faciam-dev/redisboard/internal/audit"
	"github.com/faciam-dev/redisboard/internal/auth"
	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/permission"
	"github.com/faciam-dev/redisboard/internal/redisconn"
	"github.com/faciam-dev/redisboard/internal/servers"
	"github.com/faciam-dev/redisboard/internal/web"
)

type infoSession struct {
	*redisconn.Conn
}

func (s *infoSession) Info(ctx context.Context, sections ...string) (redisconn.Info, error) {
	if err := s.Conn.Ping(ctx); err != nil {
		return nil, err
	}
	return redisconn.ParseInfo("redis_version:7.2.0\nused_memory_human:1M\nconnected_clients:1\ndb0:keys=3,expires=0,avg_ttl=0\n"), nil
}

type testEnv struct {
	srv      *httptest.Server
	store    *miniredis.Miniredis
	id       int64
	jwt      *auth.JWT
	sessions *[]*infoSession
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	repo := &servers.Repo{DB: db, Driver: "sqlite3"}
	if err := repo.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	rec := &audit.Recorder{DB: db, Driver: "sqlite3"}
	if err := rec.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	store := miniredis.RunT(t)
	port, _ := strconv.Atoi(store.Port())
	id, err := repo.Create(ctx, servers.Server{Label: "local", Host: store.Host(), Port: port})
	if err != nil {
		t.Fatal(err)
	}
	store.Set("greeting", "hello")
	store.Set("a/b c", "x")
	store.Set("bin\xff", "y")

	gate, err := permission.NewGate(&permission.Policy{Rules: []permission.Rule{
		{Subject: "admin", Servers: []string{"*"}, Actions: []string{"*"}},
		{Subject: "viewer", Servers: []string{"*"}, Actions: []string{"view"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	rd, err := web.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	var sessions []*infoSession
	p := &redisconn.Provider{DialTimeout: time.Second}
	j := auth.NewJWT("secret", time.Minute)
	h, _ := New(Deps{
		Servers:  repo,
		Recorder: rec,
		Gate:     gate,
		Open: func(s servers.Server) inspect.Session {
			c := &infoSession{Conn: p.Open(s.Endpoint())}
			sessions = append(sessions, c)
			return c
		},
		Inspect:       &inspect.Service{Threshold: 100},
		JWT:           j,
		AnonymousUser: "admin",
		Renderer:      rd,
	})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &testEnv{srv: ts, store: store, id: id, jwt: j, sessions: &sessions}
}

func (e *testEnv) get(t *testing.T, path, user string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if user != "" {
		tok, err := e.jwt.Generate(user)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func (e *testEnv) assertClosed(t *testing.T) {
	t.Helper()
	for i, s := range *e.sessions {
		if s.Opened() && !s.Closed() {
			t.Fatalf("session %d left open", i)
		}
	}
}

func (e *testEnv) base() string {
	return "/servers/" + strconv.FormatInt(e.id, 10) + "/inspect/"
}

func TestServerList(t *testing.T) {
	e := newEnv(t)
	code, body := e.get(t, "/servers/", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	for _, want := range []string{"local", "UP", "7.2.0", `href="` + e.base() + `"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body misses %q:\n%s", want, body)
		}
	}
	if len(*e.sessions) != 1 {
		t.Fatalf("sessions = %d", len(*e.sessions))
	}
	e.assertClosed(t)

	_, body = e.get(t, "/servers/", "viewer")
	if strings.Contains(body, "Inspect</a>") {
		t.Fatal("viewer offered an inspect link")
	}
}

func TestInspectPage(t *testing.T) {
	e := newEnv(t)
	code, body := e.get(t, e.base(), "")
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	for _, want := range []string{
		`href="` + e.base() + `0/key/greeting"`,
		`href="` + e.base() + `0/key/a%2Fb%20c"`,
		`href="` + e.base() + `0/key/bin%FF"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body misses %q:\n%s", want, body)
		}
	}
	e.assertClosed(t)

	code, body = e.get(t, e.base()+"0/?match=greet*", "")
	if code != http.StatusOK || strings.Contains(body, "key/other") || !strings.Contains(body, "key/greeting") {
		t.Fatalf("status = %d: %s", code, body)
	}
	code, body = e.get(t, e.base()+"5/", "")
	if code != http.StatusOK || !strings.Contains(body, "db5") || !strings.Contains(body, "0 keys") {
		t.Fatalf("empty database page: %d %s", code, body)
	}
	e.assertClosed(t)
}

func TestKeyPage(t *testing.T) {
	e := newEnv(t)
	code, body := e.get(t, e.base()+"0/key/greeting", "")
	if code != http.StatusOK || !strings.Contains(body, "hello") {
		t.Fatalf("status = %d: %s", code, body)
	}
	code, body = e.get(t, e.base()+"0/key/a%2Fb%20c", "")
	if code != http.StatusOK || !strings.Contains(body, "<pre>x</pre>") {
		t.Fatalf("escaped key: %d %s", code, body)
	}
	code, body = e.get(t, e.base()+"0/key/bin%FF", "")
	if code != http.StatusOK || !strings.Contains(body, "<pre>y</pre>") {
		t.Fatalf("binary key: %d %s", code, body)
	}
	code, body = e.get(t, e.base()+"0/key/nope", "")
	if code != http.StatusNotFound || !strings.Contains(body, "Key is gone.") {
		t.Fatalf("missing key: %d %s", code, body)
	}
	e.assertClosed(t)
}

func TestInspectDenied(t *testing.T) {
	e := newEnv(t)
	code, body := e.get(t, e.base(), "viewer")
	if code != http.StatusForbidden || strings.Contains(body, "greeting") {
		t.Fatalf("status = %d: %s", code, body)
	}
	if len(*e.sessions) != 0 {
		t.Fatal("connection opened for a denied request")
	}
	code, _ = e.get(t, "/servers/999/inspect/", "")
	if code != http.StatusNotFound {
		t.Fatalf("unknown server status = %d", code)
	}
	code, _ = e.get(t, "/servers/", "mallory")
	if code != http.StatusOK {
		t.Fatalf("listing status = %d", code)
	}
}

func TestAPIAndMetricsRoutes(t *testing.T) {
	e := newEnv(t)
	code, body := e.get(t, "/v1/servers", "")
	if code != http.StatusOK || !strings.Contains(body, `"label":"local"`) {
		t.Fatalf("api: %d %s", code, body)
	}
	code, body = e.get(t, "/v1/servers/"+strconv.FormatInt(e.id, 10)+"/databases/0/key?name=nope", "")
	if code != http.StatusNotFound || !strings.Contains(body, "Key is gone.") {
		t.Fatalf("api key: %d %s", code, body)
	}
	code, body = e.get(t, "/metrics", "")
	if code != http.StatusOK || !strings.Contains(body, "rb_http_requests_total") {
		t.Fatalf("metrics: %d", code)
	}
	e.assertClosed(t)
}
