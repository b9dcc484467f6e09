// Package client is a REST client for the redisboard JSON API.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/faciam-dev/redisboard/internal/api/schema"
	"github.com/faciam-dev/redisboard/internal/audit"
	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/redisconn"
)

// Error is a non-2xx answer of the API.
type Error struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Title)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// Client talks to one API endpoint.
type Client struct {
	base string
	http *resty.Client
}

type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(tok string) Option {
	return func(c *Client) {
		if tok != "" {
			c.http.SetAuthToken(tok)
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithInsecure disables TLS certificate verification.
func WithInsecure(on bool) Option {
	return func(c *Client) {
		if on {
			c.http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
		}
	}
}

// New returns a Client for the given base URL.
func New(base string, opts ...Option) *Client {
	c := &Client{base: strings.TrimSuffix(base, "/"), http: resty.New()}
	c.http.SetError(&Error{})
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) url(format string, args ...any) string {
	return c.base + fmt.Sprintf(format, args...)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	if e, ok := resp.Error().(*Error); ok && (e.Title != "" || e.Detail != "") {
		if e.Status == 0 {
			e.Status = resp.StatusCode()
		}
		return e
	}
	return &Error{Status: resp.StatusCode(), Title: http.StatusText(resp.StatusCode())}
}

// Servers lists registered servers, optionally filtered by label.
func (c *Client) Servers(ctx context.Context, label string) ([]schema.Server, error) {
	var out []schema.Server
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if label != "" {
		req.SetQueryParam("label", label)
	}
	return out, check(req.Get(c.url("/v1/servers")))
}

// Server fetches one server.
func (c *Client) Server(ctx context.Context, id int64) (schema.Server, error) {
	var out schema.Server
	err := check(c.http.R().SetContext(ctx).SetResult(&out).Get(c.url("/v1/servers/%d", id)))
	return out, err
}

// AddServer registers a server.
func (c *Client) AddServer(ctx context.Context, in schema.ServerInput) (schema.Server, error) {
	var out schema.Server
	err := check(c.http.R().SetContext(ctx).SetBody(in).SetResult(&out).Post(c.url("/v1/servers")))
	return out, err
}

// UpdateServer replaces the settings of a server.
func (c *Client) UpdateServer(ctx context.Context, id int64, in schema.ServerInput) (schema.Server, error) {
	var out schema.Server
	err := check(c.http.R().SetContext(ctx).SetBody(in).SetResult(&out).Put(c.url("/v1/servers/%d", id)))
	return out, err
}

// DeleteServer removes a server.
func (c *Client) DeleteServer(ctx context.Context, id int64) error {
	return check(c.http.R().SetContext(ctx).Delete(c.url("/v1/servers/%d", id)))
}

// Stats fetches the live stats of a server.
func (c *Client) Stats(ctx context.Context, id int64) (schema.Stats, error) {
	var out schema.Stats
	err := check(c.http.R().SetContext(ctx).SetResult(&out).Get(c.url("/v1/servers/%d/stats", id)))
	return out, err
}

// Clients lists the connections of a server.
func (c *Client) Clients(ctx context.Context, id int64) ([]redisconn.ClientInfo, error) {
	var out []redisconn.ClientInfo
	err := check(c.http.R().SetContext(ctx).SetResult(&out).Get(c.url("/v1/servers/%d/clients", id)))
	return out, err
}

// Slowlog fetches the latest slow log entries.
func (c *Client) Slowlog(ctx context.Context, id int64, limit int) ([]redisconn.SlowlogEntry, error) {
	var out []redisconn.SlowlogEntry
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	return out, check(req.Get(c.url("/v1/servers/%d/slowlog", id)))
}

// DatabasesQuery selects the databases view. DB < 0 means every database.
type DatabasesQuery struct {
	DB      int
	Cursor  uint64
	Count   int64
	Filters map[string]string
}

// Databases fetches database summaries and, where enabled, a scan page.
func (c *Client) Databases(ctx context.Context, id int64, q DatabasesQuery) (schema.Databases, error) {
	var out schema.Databases
	req := c.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("db", strconv.Itoa(q.DB)).
		SetQueryParam("cursor", strconv.FormatUint(q.Cursor, 10)).
		SetQueryParam("count", strconv.FormatInt(q.Count, 10))
	for k, v := range q.Filters {
		req.SetQueryParam(k, v)
	}
	return out, check(req.Get(c.url("/v1/servers/%d/databases", id)))
}

// Key fetches one key and a page of its value.
func (c *Client) Key(ctx context.Context, id int64, db int, name string, cursor uint64, count int64) (inspect.KeyDetail, error) {
	var out inspect.KeyDetail
	req := c.http.R().SetContext(ctx).SetResult(&out).
		SetQueryParam("name", name).
		SetQueryParam("cursor", strconv.FormatUint(cursor, 10)).
		SetQueryParam("count", strconv.FormatInt(count, 10))
	return out, check(req.Get(c.url("/v1/servers/%d/databases/%d/key", id, db)))
}

// AuditLogs lists the latest audit entries.
func (c *Client) AuditLogs(ctx context.Context, limit int) ([]schema.AuditLog, error) {
	var out []schema.AuditLog
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	return out, check(req.Get(c.url("/v1/audit-logs")))
}

// AuditDiff fetches the before/after diff of an audit entry.
func (c *Client) AuditDiff(ctx context.Context, id string) (audit.Diff, error) {
	var out audit.Diff
	err := check(c.http.R().SetContext(ctx).SetResult(&out).Get(c.url("/v1/audit-logs/%s/diff", id)))
	return out, err
}
