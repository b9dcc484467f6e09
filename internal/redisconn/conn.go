package redisconn

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("connection closed")

// Endpoint holds the parameters needed to reach a store instance.
type Endpoint struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Addr returns the dial address; hosts starting with "/" are unix sockets.
func (e Endpoint) Addr() string {
	if strings.HasPrefix(e.Host, "/") {
		return e.Host
	}
	port := e.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// Provider opens connections to endpoints.
type Provider struct {
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// Open returns a connection to ep. Nothing is dialed until the first command.
func (p *Provider) Open(ep Endpoint) *Conn {
	opts := &redis.Options{
		Addr:     ep.Addr(),
		Username: ep.Username,
		Password: ep.Password,
		PoolSize: 1,
		// failures are surfaced to the requester as-is
		MaxRetries: -1,
	}
	if strings.HasPrefix(ep.Host, "/") {
		opts.Network = "unix"
	}
	if p != nil {
		opts.DialTimeout = p.DialTimeout
		opts.ReadTimeout = p.ReadTimeout
		opts.WriteTimeout = p.ReadTimeout
	}
	return &Conn{opts: opts}
}

// Conn is a single store connection owned by one request. It is not safe
// for concurrent use.
type Conn struct {
	opts   *redis.Options
	client *redis.Client
	conn   *redis.Conn
	db     int
	closed bool
}

// Opened reports whether the connection has been dialed.
func (c *Conn) Opened() bool { return c.conn != nil }

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool { return c.closed }

// session returns the underlying connection with db selected. A negative db
// keeps the current selection.
func (c *Conn) session(ctx context.Context, db int) (*redis.Conn, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.conn == nil {
		c.client = redis.NewClient(c.opts)
		c.conn = c.client.Conn()
		c.db = c.opts.DB
	}
	if db >= 0 && db != c.db {
		if err := c.conn.Select(ctx, db).Err(); err != nil {
			return nil, err
		}
		c.db = db
	}
	return c.conn, nil
}

// Close releases the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	if c.conn != nil {
		err = c.conn.Close()
	}
	if c.client != nil {
		if cerr := c.client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Ping checks that the server answers.
func (c *Conn) Ping(ctx context.Context) error {
	rc, err := c.session(ctx, -1)
	if err != nil {
		return err
	}
	return rc.Ping(ctx).Err()
}

// Info runs INFO for the given sections.
func (c *Conn) Info(ctx context.Context, sections ...string) (Info, error) {
	rc, err := c.session(ctx, -1)
	if err != nil {
		return nil, err
	}
	raw, err := rc.Info(ctx, sections...).Result()
	if err != nil {
		return nil, err
	}
	return ParseInfo(raw), nil
}

// ClientList runs CLIENT LIST.
func (c *Conn) ClientList(ctx context.Context) ([]ClientInfo, error) {
	rc, err := c.session(ctx, -1)
	if err != nil {
		return nil, err
	}
	raw, err := rc.ClientList(ctx).Result()
	if err != nil {
		return nil, err
	}
	return ParseClientList(raw), nil
}

// Slowlog returns the n most recent slow log entries.
func (c *Conn) Slowlog(ctx context.Context, n int64) ([]SlowlogEntry, error) {
	rc, err := c.session(ctx, -1)
	if err != nil {
		return nil, err
	}
	logs, err := rc.SlowLogGet(ctx, n).Result()
	if err != nil {
		return nil, err
	}
	out := make([]SlowlogEntry, len(logs))
	for i, l := range logs {
		out[i] = SlowlogEntry{
			ID:         l.ID,
			Time:       l.Time,
			Duration:   l.Duration,
			Args:       l.Args,
			ClientAddr: l.ClientAddr,
			ClientName: l.ClientName,
		}
	}
	return out, nil
}

// Exists reports whether key is present in db.
func (c *Conn) Exists(ctx context.Context, db int, key string) (bool, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return false, err
	}
	n, err := rc.Exists(ctx, key).Result()
	return n > 0, err
}

// ScanArgs are the arguments of one SCAN step.
type ScanArgs struct {
	Cursor uint64
	// Count of 0 leaves the batch size to the server.
	Count int64
	Match string
	Type  string
}

// Scan runs a single SCAN step on db.
func (c *Conn) Scan(ctx context.Context, db int, a ScanArgs) ([]string, uint64, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return nil, 0, err
	}
	if a.Type != "" {
		return rc.ScanType(ctx, a.Cursor, a.Match, a.Count, a.Type).Result()
	}
	return rc.Scan(ctx, a.Cursor, a.Match, a.Count).Result()
}

// Type returns the type of key, "none" when missing.
func (c *Conn) Type(ctx context.Context, db int, key string) (string, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return "", err
	}
	return rc.Type(ctx, key).Result()
}

// TTL returns the remaining time to live in seconds: -1 without expiry,
// -2 when the key is missing.
func (c *Conn) TTL(ctx context.Context, db int, key string) (int64, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return 0, err
	}
	return rc.Do(ctx, "TTL", key).Int64()
}

// Encoding returns OBJECT ENCODING for key.
func (c *Conn) Encoding(ctx context.Context, db int, key string) (string, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return "", err
	}
	return rc.ObjectEncoding(ctx, key).Result()
}

// MemoryUsage returns MEMORY USAGE for key in bytes.
func (c *Conn) MemoryUsage(ctx context.Context, db int, key string) (int64, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return 0, err
	}
	return rc.MemoryUsage(ctx, key).Result()
}

// Len returns the length of key according to its type.
func (c *Conn) Len(ctx context.Context, db int, key, typ string) (int64, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return 0, err
	}
	switch typ {
	case "string":
		return rc.StrLen(ctx, key).Result()
	case "list":
		return rc.LLen(ctx, key).Result()
	case "set":
		return rc.SCard(ctx, key).Result()
	case "zset":
		return rc.ZCard(ctx, key).Result()
	case "hash":
		return rc.HLen(ctx, key).Result()
	case "stream":
		return rc.XLen(ctx, key).Result()
	default:
		return 0, nil
	}
}

// Get returns a string value. ok is false when the key does not exist.
func (c *Conn) Get(ctx context.Context, db int, key string) ([]byte, bool, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return nil, false, err
	}
	b, err := rc.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Range returns list elements between start and stop inclusive.
func (c *Conn) Range(ctx context.Context, db int, key string, start, stop int64) ([]string, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return nil, err
	}
	return rc.LRange(ctx, key, start, stop).Result()
}

// ScanMembers runs one HSCAN, SSCAN or ZSCAN step depending on typ. Hash and
// sorted set replies alternate field (or member) and value (or score).
func (c *Conn) ScanMembers(ctx context.Context, db int, key, typ string, cursor uint64, count int64) ([]string, uint64, error) {
	rc, err := c.session(ctx, db)
	if err != nil {
		return nil, 0, err
	}
	switch typ {
	case "hash":
		return rc.HScan(ctx, key, cursor, "", count).Result()
	case "set":
		return rc.SScan(ctx, key, cursor, "", count).Result()
	case "zset":
		return rc.ZScan(ctx, key, cursor, "", count).Result()
	default:
		return nil, 0, errors.New("type " + typ + " has no member scan")
	}
}
