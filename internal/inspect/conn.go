// Package inspect implements the read-only inspection of store instances:
// server stats, database summaries with keyspace scanning, and key details.
package inspect

import (
	"context"

	"github.com/faciam-dev/redisboard/internal/redisconn"
)

// Conn is the store connection used by inspection. *redisconn.Conn
// implements it.
type Conn interface {
	Info(ctx context.Context, sections ...string) (redisconn.Info, error)
	ClientList(ctx context.Context) ([]redisconn.ClientInfo, error)
	Slowlog(ctx context.Context, n int64) ([]redisconn.SlowlogEntry, error)
	Exists(ctx context.Context, db int, key string) (bool, error)
	Scan(ctx context.Context, db int, a redisconn.ScanArgs) ([]string, uint64, error)
	Type(ctx context.Context, db int, key string) (string, error)
	TTL(ctx context.Context, db int, key string) (int64, error)
	Encoding(ctx context.Context, db int, key string) (string, error)
	MemoryUsage(ctx context.Context, db int, key string) (int64, error)
	Len(ctx context.Context, db int, key, typ string) (int64, error)
	Get(ctx context.Context, db int, key string) ([]byte, bool, error)
	Range(ctx context.Context, db int, key string, start, stop int64) ([]string, error)
	ScanMembers(ctx context.Context, db int, key, typ string, cursor uint64, count int64) ([]string, uint64, error)
}

// Session is a Conn owned by one request, closed when the request is done.
type Session interface {
	Conn
	Close() error
}

var _ Session = (*redisconn.Conn)(nil)
