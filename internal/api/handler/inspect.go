package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/redisboard/internal/api/schema"
	"github.com/faciam-dev/redisboard/internal/auth"
	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/logger"
	"github.com/faciam-dev/redisboard/internal/metrics"
	"github.com/faciam-dev/redisboard/internal/permission"
	"github.com/faciam-dev/redisboard/internal/redisconn"
	"github.com/faciam-dev/redisboard/internal/servers"
)

// Opener returns a lazily connecting session for a server.
type Opener func(s servers.Server) inspect.Session

// Dial returns an Opener backed by p.
func Dial(p *redisconn.Provider) Opener {
	return func(s servers.Server) inspect.Session { return p.Open(s.Endpoint()) }
}

// InspectHandler serves read-only inspection of registered servers.
type InspectHandler struct {
	Repo    *servers.Repo
	Gate    *permission.Gate
	Open    Opener
	Inspect *inspect.Service
}

type statsOutput struct{ Body schema.Stats }

type clientsOutput struct{ Body []redisconn.ClientInfo }

type slowlogInput struct {
	ID    int64 `path:"id"`
	Limit int64 `query:"limit" minimum:"0"`
}
type slowlogOutput struct{ Body []redisconn.SlowlogEntry }

type databasesInput struct {
	ID     int64  `path:"id"`
	DB     int    `query:"db" default:"-1" doc:"Database to scan; -1 lets the key count decide"`
	Cursor uint64 `query:"cursor"`
	Count  int64  `query:"count" minimum:"0"`

	filters map[string]string
}

// Resolve captures every other query parameter as a scan filter.
func (in *databasesInput) Resolve(ctx huma.Context) []error {
	in.filters = map[string]string{}
	u := ctx.URL()
	for k, vs := range u.Query() {
		switch k {
		case "db", "cursor", "count":
			continue
		}
		if len(vs) > 0 {
			in.filters[k] = vs[len(vs)-1]
		}
	}
	return nil
}

type databasesOutput struct{ Body schema.Databases }

type keyInput struct {
	ID     int64  `path:"id"`
	DB     int    `path:"db" minimum:"0"`
	Name   string `query:"name" required:"true" doc:"Key name"`
	Cursor uint64 `query:"cursor"`
	Count  int64  `query:"count" minimum:"0"`
}
type keyOutput struct{ Body inspect.KeyDetail }

// RegisterInspect registers inspection endpoints.
func RegisterInspect(api huma.API, h *InspectHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "getServerStats",
		Method:      http.MethodGet,
		Path:        "/v1/servers/{id}/stats",
		Summary:     "Server status, memory, clients and keyspace",
		Tags:        []string{"Inspect"},
	}, h.stats)
	huma.Register(api, huma.Operation{
		OperationID: "listServerClients",
		Method:      http.MethodGet,
		Path:        "/v1/servers/{id}/clients",
		Summary:     "Connected clients",
		Tags:        []string{"Inspect"},
	}, h.clients)
	huma.Register(api, huma.Operation{
		OperationID: "getServerSlowlog",
		Method:      http.MethodGet,
		Path:        "/v1/servers/{id}/slowlog",
		Summary:     "Slow log entries",
		Tags:        []string{"Inspect"},
	}, h.slowlog)
	huma.Register(api, huma.Operation{
		OperationID: "listServerDatabases",
		Method:      http.MethodGet,
		Path:        "/v1/servers/{id}/databases",
		Summary:     "Database summaries with one scan step each",
		Description: "Query parameters other than db, cursor and count are forwarded as scan filters (match, type).",
		Tags:        []string{"Inspect"},
	}, h.databases)
	huma.Register(api, huma.Operation{
		OperationID: "getServerKey",
		Method:      http.MethodGet,
		Path:        "/v1/servers/{id}/databases/{db}/key",
		Summary:     "Key details with one value page",
		Tags:        []string{"Inspect"},
	}, h.key)
}

// session loads the server, checks act and opens a session the caller must
// close.
func (h *InspectHandler) session(ctx context.Context, id int64, act string) (servers.Server, inspect.Session, error) {
	s, err := h.Repo.Get(ctx, id)
	if err != nil {
		return servers.Server{}, nil, registryErr(err)
	}
	user := auth.UserFromContext(ctx)
	allowed := h.Gate.CanView(user, id)
	if act == permission.ActInspect {
		allowed = h.Gate.CanInspect(user, id)
	}
	if !allowed {
		return servers.Server{}, nil, huma.Error403Forbidden("You can't inspect this server.")
	}
	return s, h.Open(s), nil
}

func closeSession(s servers.Server, c inspect.Session) {
	if err := c.Close(); err != nil {
		logger.L.Warn("close store connection", "server", s.ID, "err", err)
	}
}

func storeErr(s servers.Server, err error) error {
	if errors.Is(err, inspect.ErrNotFound) {
		return huma.Error404NotFound("Key is gone.")
	}
	metrics.ConnErrors.WithLabelValues(strconv.FormatInt(s.ID, 10)).Inc()
	logger.L.Error("store command", "server", s.ID, "err", err)
	return huma.Error502BadGateway("store unavailable", err)
}

func (h *InspectHandler) stats(ctx context.Context, in *idParam) (*statsOutput, error) {
	s, c, err := h.session(ctx, in.ID, permission.ActView)
	if err != nil {
		return nil, err
	}
	defer closeSession(s, c)
	st := h.Inspect.Stats(ctx, c)
	return &statsOutput{Body: schema.Stats{Server: toSchema(s), Status: st.Status(), ServerStats: st}}, nil
}

func (h *InspectHandler) clients(ctx context.Context, in *idParam) (*clientsOutput, error) {
	s, c, err := h.session(ctx, in.ID, permission.ActInspect)
	if err != nil {
		return nil, err
	}
	defer closeSession(s, c)
	list, err := h.Inspect.Clients(ctx, c)
	if err != nil {
		return nil, storeErr(s, err)
	}
	return &clientsOutput{Body: list}, nil
}

func (h *InspectHandler) slowlog(ctx context.Context, in *slowlogInput) (*slowlogOutput, error) {
	s, c, err := h.session(ctx, in.ID, permission.ActInspect)
	if err != nil {
		return nil, err
	}
	defer closeSession(s, c)
	entries, err := h.Inspect.Slowlog(ctx, c, in.Limit)
	if err != nil {
		return nil, storeErr(s, err)
	}
	return &slowlogOutput{Body: entries}, nil
}

func (h *InspectHandler) databases(ctx context.Context, in *databasesInput) (*databasesOutput, error) {
	s, c, err := h.session(ctx, in.ID, permission.ActInspect)
	if err != nil {
		return nil, err
	}
	defer closeSession(s, c)
	req := inspect.DatabasesRequest{Cursor: in.Cursor, Count: in.Count, Filters: in.filters}
	if in.DB >= 0 {
		db := in.DB
		req.DB = &db
	}
	st := h.Inspect.Stats(ctx, c)
	dbs, err := h.Inspect.Databases(ctx, c, st, req)
	if err != nil {
		return nil, storeErr(s, err)
	}
	if dbs.Summaries == nil {
		dbs.Summaries = []inspect.DatabaseSummary{}
	}
	return &databasesOutput{Body: schema.Databases{Server: toSchema(s), Filters: in.filters, Databases: dbs}}, nil
}

func (h *InspectHandler) key(ctx context.Context, in *keyInput) (*keyOutput, error) {
	s, c, err := h.session(ctx, in.ID, permission.ActInspect)
	if err != nil {
		return nil, err
	}
	defer closeSession(s, c)
	feat, err := h.Inspect.Features(ctx, c)
	if err != nil {
		logger.L.Debug("server features unavailable", "server", s.ID, "err", err)
	}
	d, err := h.Inspect.Key(ctx, c, feat, inspect.KeyRequest{DB: in.DB, Key: in.Name, Cursor: in.Cursor, Count: in.Count})
	if err != nil {
		return nil, storeErr(s, err)
	}
	return &keyOutput{Body: d}, nil
}
