package inspect

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/faciam-dev/redisboard/internal/redisconn"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T) (*miniredis.Miniredis, *redisconn.Conn) {
	t.Helper()
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	p := &redisconn.Provider{DialTimeout: time.Second, ReadTimeout: time.Second}
	c := p.Open(redisconn.Endpoint{Host: s.Host(), Port: port})
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func fill(t *testing.T, s *miniredis.Miniredis, db int, fn func(ctx context.Context, c *redis.Client)) {
	t.Helper()
	c := redis.NewClient(&redis.Options{Addr: s.Addr(), DB: db})
	defer c.Close()
	fn(context.Background(), c)
}

// stubConn overrides selected commands of an embedded connection.
type stubConn struct {
	Conn
	info    string
	infoErr error
	slowlog []redisconn.SlowlogEntry
	typ     string
	ranged  []string
}

func (c *stubConn) Info(ctx context.Context, sections ...string) (redisconn.Info, error) {
	if c.infoErr != nil {
		return nil, c.infoErr
	}
	return redisconn.ParseInfo(c.info), nil
}

func (c *stubConn) Slowlog(ctx context.Context, n int64) ([]redisconn.SlowlogEntry, error) {
	if int64(len(c.slowlog)) > n {
		return c.slowlog[:n], nil
	}
	return c.slowlog, nil
}

func (c *stubConn) Type(ctx context.Context, db int, key string) (string, error) {
	if c.typ != "" {
		return c.typ, nil
	}
	return c.Conn.Type(ctx, db, key)
}

func (c *stubConn) Range(ctx context.Context, db int, key string, start, stop int64) ([]string, error) {
	if c.ranged != nil {
		return c.ranged, nil
	}
	return c.Conn.Range(ctx, db, key, start, stop)
}

func intp(i int) *int { return &i }
