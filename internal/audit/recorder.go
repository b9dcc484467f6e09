// Package audit records changes made to the server registry.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/faciam-dev/redisboard/internal/servers"
	"github.com/faciam-dev/redisboard/pkg/util"
)

// Actions recorded for servers.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ErrNotFound is returned when an entry id is unknown.
var ErrNotFound = errors.New("audit entry not found")

// Entry is one recorded change.
type Entry struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	ServerID   int64     `json:"serverId"`
	BeforeJSON string    `json:"before,omitempty"`
	AfterJSON  string    `json:"after,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// snapshot is the persisted form of a server. The password itself is never
// written.
type snapshot struct {
	Label       string `json:"label"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	HasPassword bool   `json:"hasPassword"`
}

func encode(s *servers.Server) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(snapshot{
		Label:       s.Label,
		Host:        s.Host,
		Port:        s.Port,
		Username:    s.Username,
		HasPassword: s.Password != "",
	})
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Recorder writes and reads audit entries.
type Recorder struct {
	DB          *sql.DB
	Driver      string
	TablePrefix string
}

func (r *Recorder) table() string {
	if r.TablePrefix == "" {
		return "rb_audit_logs"
	}
	return r.TablePrefix + "audit_logs"
}

func (r *Recorder) q(s string) string {
	return util.Rebind(r.Driver, fmt.Sprintf(s, r.table()))
}

// Migrate creates the audit table when missing.
func (r *Recorder) Migrate(ctx context.Context) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("recorder not initialized")
	}
	ts := "TIMESTAMP"
	if r.Driver == "mysql" {
		ts = "DATETIME(6)"
	}
	ddl := `CREATE TABLE IF NOT EXISTS %s (
		id CHAR(36) PRIMARY KEY,
		actor VARCHAR(255) NOT NULL,
		action VARCHAR(32) NOT NULL,
		server_id BIGINT NOT NULL,
		before_json TEXT,
		after_json TEXT,
		created_at ` + ts + ` NOT NULL
	)`
	_, err := r.DB.ExecContext(ctx, fmt.Sprintf(ddl, r.table()))
	return err
}

// Write records a change of server id by actor. before is nil for creations
// and after is nil for deletions. A nil Recorder records nothing.
func (r *Recorder) Write(ctx context.Context, actor, action string, id int64, before, after *servers.Server) error {
	if r == nil || r.DB == nil {
		return nil
	}
	b, err := encode(before)
	if err != nil {
		return err
	}
	a, err := encode(after)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		r.q("INSERT INTO %s (id, actor, action, server_id, before_json, after_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		uuid.NewString(), actor, action, id, b, a, time.Now().UTC())
	return err
}

const columns = "id, actor, action, server_id, before_json, after_json, created_at"

// List returns the newest entries first, at most limit of them.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("recorder not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, r.q("SELECT "+columns+" FROM %s ORDER BY created_at DESC, id DESC LIMIT ?"), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry with id.
func (r *Recorder) Get(ctx context.Context, id string) (Entry, error) {
	if r == nil || r.DB == nil {
		return Entry{}, fmt.Errorf("recorder not initialized")
	}
	e, err := scan(r.DB.QueryRowContext(ctx, r.q("SELECT "+columns+" FROM %s WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Entry, error) {
	var (
		e             Entry
		before, after sql.NullString
		created       any
	)
	if err := row.Scan(&e.ID, &e.Actor, &e.Action, &e.ServerID, &before, &after, &created); err != nil {
		return Entry{}, err
	}
	e.BeforeJSON = before.String
	e.AfterJSON = after.String
	t, err := parseTime(created)
	if err != nil {
		return Entry{}, err
	}
	e.CreatedAt = t
	return e, nil
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTime(string(t))
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unsupported time format %q", t)
	default:
		return time.Time{}, fmt.Errorf("unsupported time type %T", v)
	}
}
