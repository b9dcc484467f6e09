package audit

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/faciam-dev/redisboard/internal/servers"
)

func newRecorder(t *testing.T) *Recorder {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	r := &Recorder{DB: db, Driver: "sqlite3"}
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return r
}

func TestWriteList(t *testing.T) {
	r := newRecorder(t)
	ctx := context.Background()
	before := &servers.Server{ID: 1, Label: "cache", Host: "10.0.0.1", Port: 6379, Password: "s3cret"}
	after := *before
	after.Port = 6380
	if err := r.Write(ctx, "alice", ActionCreate, 1, nil, before); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Write(ctx, "alice", ActionUpdate, 1, before, &after); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := r.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	for _, e := range entries {
		if strings.Contains(e.BeforeJSON+e.AfterJSON, "s3cret") {
			t.Fatalf("password leaked into %+v", e)
		}
		if len(e.ID) != 36 || e.Actor != "alice" || e.ServerID != 1 {
			t.Fatalf("entry = %+v", e)
		}
	}
	var upd Entry
	for _, e := range entries {
		if e.Action == ActionUpdate {
			upd = e
		}
	}
	got, err := r.Get(ctx, upd.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	d := DiffOf(got)
	if d.Added != 1 || d.Removed != 1 || !strings.Contains(d.Unified, `+  "port": 6380`) {
		t.Fatalf("diff = %+v", d)
	}
	if _, err := r.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("get missing: %v", err)
	}
}

func TestNilRecorderWrite(t *testing.T) {
	var r *Recorder
	if err := r.Write(context.Background(), "a", ActionDelete, 1, nil, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestListPostgresPlaceholder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery(`SELECT .* FROM rb_audit_logs ORDER BY created_at DESC, id DESC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor", "action", "server_id", "before_json", "after_json", "created_at"}))
	r := &Recorder{DB: db, Driver: "postgres"}
	entries, err := r.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
