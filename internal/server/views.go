package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/faciam-dev/redisboard/internal/api/handler"
	"github.com/faciam-dev/redisboard/internal/auth"
	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/logger"
	"github.com/faciam-dev/redisboard/internal/metrics"
	"github.com/faciam-dev/redisboard/internal/permission"
	"github.com/faciam-dev/redisboard/internal/servers"
	"github.com/faciam-dev/redisboard/internal/web"
)

// views serves the HTML pages. Every page opens its own store connections
// and closes them once the page has been rendered.
type views struct {
	servers *servers.Repo
	gate    *permission.Gate
	open    handler.Opener
	inspect *inspect.Service
	render  *web.Renderer
}

func (v *views) routes(r chi.Router) {
	r.Get("/servers", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/servers/", http.StatusMovedPermanently)
	})
	r.Get("/servers/", v.serverList)
	r.Route("/servers/{serverID}/inspect", func(r chi.Router) {
		r.Get("/", v.inspectPage)
		r.Get("/{db}/", v.inspectPage)
		r.Get("/{db}/{cursor}/", v.inspectPage)
		r.Get("/{db}/key/*", v.keyPage)
		r.Get("/{db}/{cursor}/key/*", v.keyPage)
		r.Get("/{db}/{cursor}/{count}/key/*", v.keyPage)
	})
}

func closeSession(s servers.Server, c inspect.Session) {
	if err := c.Close(); err != nil {
		logger.L.Warn("close store connection", "server", s.ID, "err", err)
	}
}

func (v *views) serverList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	label := r.URL.Query().Get("label")
	all, err := v.servers.List(ctx, servers.Filter{})
	if err != nil {
		logger.L.Error("list servers", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := web.ServersPage{User: user, Label: label}
	seen := map[string]bool{}
	var sessions []inspect.Session
	var owners []servers.Server
	for _, s := range all {
		if !v.gate.CanView(user, s.ID) {
			continue
		}
		if s.Label != "" && !seen[s.Label] {
			seen[s.Label] = true
			page.Labels = append(page.Labels, s.Label)
		}
		if label != "" && s.Label != label {
			continue
		}
		c := v.open(s)
		sessions = append(sessions, c)
		owners = append(owners, s)
		page.Rows = append(page.Rows, web.NewServerRow(s, v.gate.CanInspect(user, s.ID), func() inspect.ServerStats {
			st := v.inspect.Stats(ctx, c)
			if !st.Up {
				metrics.ConnErrors.WithLabelValues(strconv.FormatInt(s.ID, 10)).Inc()
			}
			return st
		}))
	}
	sort.Strings(page.Labels)

	resp := web.NewResponse("servers.html", page)
	resp.AddPostRenderCallback(func() {
		for i, c := range sessions {
			closeSession(owners[i], c)
		}
	})
	if err := v.render.Render(w, resp); err != nil {
		logger.L.Error("render server list", "err", err)
	}
}

// server resolves the serverID route parameter and checks that the caller
// may inspect it. It writes the error response itself.
func (v *views) server(w http.ResponseWriter, r *http.Request) (servers.Server, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "serverID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return servers.Server{}, false
	}
	s, err := v.servers.Get(r.Context(), id)
	if errors.Is(err, servers.ErrNotFound) {
		http.NotFound(w, r)
		return servers.Server{}, false
	}
	if err != nil {
		logger.L.Error("get server", "server", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return servers.Server{}, false
	}
	if !v.gate.CanInspect(auth.UserFromContext(r.Context()), id) {
		http.Error(w, "You can't inspect this server.", http.StatusForbidden)
		return servers.Server{}, false
	}
	return s, true
}

type routeArgs struct {
	db     *int
	cursor uint64
	count  int64
}

func parseRoute(r *http.Request) (routeArgs, error) {
	var a routeArgs
	if s := chi.URLParam(r, "db"); s != "" {
		db, err := strconv.Atoi(s)
		if err != nil || db < 0 {
			return a, errors.New("invalid database")
		}
		a.db = &db
	}
	if s := chi.URLParam(r, "cursor"); s != "" {
		c, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return a, errors.New("invalid cursor")
		}
		a.cursor = c
	}
	if s := chi.URLParam(r, "count"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return a, errors.New("invalid count")
		}
		a.count = n
	}
	return a, nil
}

// filters returns the query string as scan filters; repeated parameters
// keep their last value.
func filters(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}
	return out
}

func (v *views) inspectPage(w http.ResponseWriter, r *http.Request) {
	srv, ok := v.server(w, r)
	if !ok {
		return
	}
	args, err := parseRoute(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	c := v.open(srv)
	defer closeSession(srv, c)
	resp := web.NewResponse("inspect.html", nil)
	resp.AddPostRenderCallback(func() { closeSession(srv, c) })

	st := v.inspect.Stats(ctx, c)
	if !st.Up {
		metrics.ConnErrors.WithLabelValues(strconv.FormatInt(srv.ID, 10)).Inc()
	}
	dbs, err := v.inspect.Databases(ctx, c, st, inspect.DatabasesRequest{
		DB:      args.db,
		Cursor:  args.cursor,
		Count:   args.count,
		Filters: filters(r),
	})
	if err != nil {
		logger.L.Warn("inspect databases", "server", srv.ID, "err", err)
		metrics.ConnErrors.WithLabelValues(strconv.FormatInt(srv.ID, 10)).Inc()
		st.Up = false
		st.Error = err.Error()
		dbs = inspect.Databases{}
	}
	resp.Data = web.InspectPage{Server: srv, Stats: st, Databases: dbs, Query: r.URL.Query()}
	if err := v.render.Render(w, resp); err != nil {
		logger.L.Error("render inspect page", "server", srv.ID, "err", err)
	}
}

// keyFromPath returns the key following "/key/" in the escaped path. The
// numeric segments before it cannot contain that marker and the escaped key
// has no raw slash, so the first occurrence is the right one.
func keyFromPath(r *http.Request) (string, error) {
	p := r.URL.EscapedPath()
	i := strings.Index(p, "/key/")
	if i < 0 {
		return "", errors.New("missing key")
	}
	return inspect.UnescapeKey(p[i+len("/key/"):])
}

func (v *views) keyPage(w http.ResponseWriter, r *http.Request) {
	srv, ok := v.server(w, r)
	if !ok {
		return
	}
	args, err := parseRoute(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	key, err := keyFromPath(r)
	if err != nil {
		http.Error(w, "invalid key", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	c := v.open(srv)
	defer closeSession(srv, c)
	resp := web.NewResponse("key.html", nil)
	resp.AddPostRenderCallback(func() { closeSession(srv, c) })

	feat, err := v.inspect.Features(ctx, c)
	if err != nil {
		logger.L.Debug("server features unavailable", "server", srv.ID, "err", err)
	}
	d, err := v.inspect.Key(ctx, c, feat, inspect.KeyRequest{DB: *args.db, Key: key, Cursor: args.cursor, Count: args.count})
	if errors.Is(err, inspect.ErrNotFound) {
		http.Error(w, "Key is gone.", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Warn("inspect key", "server", srv.ID, "db", *args.db, "err", err)
		metrics.ConnErrors.WithLabelValues(strconv.FormatInt(srv.ID, 10)).Inc()
		http.Error(w, "store unavailable", http.StatusBadGateway)
		return
	}
	resp.Data = web.KeyPage{Server: srv, Key: d, Query: r.URL.Query()}
	if err := v.render.Render(w, resp); err != nil {
		logger.L.Error("render key page", "server", srv.ID, "err", err)
	}
}
