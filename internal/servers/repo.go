package servers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/faciam-dev/redisboard/pkg/crypto"
	"github.com/faciam-dev/redisboard/pkg/util"
)

// Repo manages server records.
type Repo struct {
	DB          *sql.DB
	Driver      string
	TablePrefix string
	// Cipher seals passwords at rest. Servers without a password can be
	// stored without one.
	Cipher *crypto.Cipher
}

func (r *Repo) prefix() string {
	if r.TablePrefix != "" {
		return r.TablePrefix
	}
	return "rb_"
}

func (r *Repo) table() string {
	return r.prefix() + "servers"
}

func (r *Repo) q(s string) string {
	return util.Rebind(r.Driver, fmt.Sprintf(s, r.table()))
}

func (r *Repo) check() error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("repo not initialized")
	}
	return nil
}

// Migrate creates the servers table when missing.
func (r *Repo) Migrate(ctx context.Context) error {
	if err := r.check(); err != nil {
		return err
	}
	var ddl string
	switch r.Driver {
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			label VARCHAR(255) NOT NULL DEFAULT '',
			host VARCHAR(255) NOT NULL,
			port INTEGER NOT NULL DEFAULT 6379,
			username VARCHAR(255) NOT NULL DEFAULT '',
			password_enc BYTEA,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`
	case "mysql":
		ddl = `CREATE TABLE IF NOT EXISTS %s (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			label VARCHAR(255) NOT NULL DEFAULT '',
			host VARCHAR(255) NOT NULL,
			port INT NOT NULL DEFAULT 6379,
			username VARCHAR(255) NOT NULL DEFAULT '',
			password_enc VARBINARY(1024),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL DEFAULT '',
			host TEXT NOT NULL,
			port INTEGER NOT NULL DEFAULT 6379,
			username TEXT NOT NULL DEFAULT '',
			password_enc BLOB,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`
	}
	_, err := r.DB.ExecContext(ctx, fmt.Sprintf(ddl, r.table()))
	return err
}

func (r *Repo) seal(password string) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	return r.Cipher.Encrypt([]byte(password))
}

// Create inserts a new server and returns its ID.
func (r *Repo) Create(ctx context.Context, s Server) (int64, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	enc, err := r.seal(s.Password)
	if err != nil {
		return 0, fmt.Errorf("seal password: %w", err)
	}
	if s.Port == 0 && !s.IsUnix() {
		s.Port = DefaultPort
	}
	now := time.Now().UTC()
	q := r.q("INSERT INTO %s (label, host, port, username, password_enc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	args := []any{s.Label, s.Host, s.Port, s.Username, enc, now, now}
	if r.Driver == "postgres" {
		var id int64
		if err := r.DB.QueryRowContext(ctx, q+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const columns = "id, label, host, port, username, password_enc, created_at, updated_at"

// List returns servers ordered by label, host and port.
func (r *Repo) List(ctx context.Context, f Filter) ([]Server, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	q := "SELECT " + columns + " FROM %s"
	var args []any
	if f.Label != "" {
		q += " WHERE label = ?"
		args = append(args, f.Label)
	}
	q += " ORDER BY label, host, port"
	rows, err := r.DB.QueryContext(ctx, r.q(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Server
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Get fetches a server by ID.
func (r *Repo) Get(ctx context.Context, id int64) (Server, error) {
	if err := r.check(); err != nil {
		return Server{}, err
	}
	row := r.DB.QueryRowContext(ctx, r.q("SELECT "+columns+" FROM %s WHERE id = ?"), id)
	s, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Server{}, ErrNotFound
	}
	return s, err
}

// Update replaces the attributes of an existing server. An empty password
// keeps the stored one unless clearPassword is set.
func (r *Repo) Update(ctx context.Context, s Server, clearPassword bool) error {
	if err := r.check(); err != nil {
		return err
	}
	if s.Port == 0 && !s.IsUnix() {
		s.Port = DefaultPort
	}
	now := time.Now().UTC()
	var (
		res sql.Result
		err error
	)
	switch {
	case s.Password != "":
		enc, serr := r.seal(s.Password)
		if serr != nil {
			return fmt.Errorf("seal password: %w", serr)
		}
		res, err = r.DB.ExecContext(ctx, r.q("UPDATE %s SET label = ?, host = ?, port = ?, username = ?, password_enc = ?, updated_at = ? WHERE id = ?"),
			s.Label, s.Host, s.Port, s.Username, enc, now, s.ID)
	case clearPassword:
		res, err = r.DB.ExecContext(ctx, r.q("UPDATE %s SET label = ?, host = ?, port = ?, username = ?, password_enc = NULL, updated_at = ? WHERE id = ?"),
			s.Label, s.Host, s.Port, s.Username, now, s.ID)
	default:
		res, err = r.DB.ExecContext(ctx, r.q("UPDATE %s SET label = ?, host = ?, port = ?, username = ?, updated_at = ? WHERE id = ?"),
			s.Label, s.Host, s.Port, s.Username, now, s.ID)
	}
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes a server.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	if err := r.check(); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, r.q("DELETE FROM %s WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repo) scan(row scanner) (Server, error) {
	var (
		s                Server
		enc              []byte
		created, updated any
	)
	if err := row.Scan(&s.ID, &s.Label, &s.Host, &s.Port, &s.Username, &enc, &created, &updated); err != nil {
		return Server{}, err
	}
	var err error
	if s.CreatedAt, err = parseSQLTime(created); err != nil {
		return Server{}, fmt.Errorf("created_at: %w", err)
	}
	if s.UpdatedAt, err = parseSQLTime(updated); err != nil {
		return Server{}, fmt.Errorf("updated_at: %w", err)
	}
	if len(enc) > 0 {
		plain, err := r.Cipher.Decrypt(enc)
		if err != nil {
			return Server{}, fmt.Errorf("open password of server %d: %w", s.ID, err)
		}
		s.Password = string(plain)
	}
	return s, nil
}
