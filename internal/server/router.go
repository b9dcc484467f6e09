// Package server wires the HTTP surface: the JSON API, the HTML views and
// the metrics endpoint.
package server

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faciam-dev/redisboard/internal/api/handler"
	"github.com/faciam-dev/redisboard/internal/audit"
	"github.com/faciam-dev/redisboard/internal/auth"
	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/permission"
	"github.com/faciam-dev/redisboard/internal/server/middleware"
	"github.com/faciam-dev/redisboard/internal/servers"
	"github.com/faciam-dev/redisboard/internal/web"
)

// Version is reported in the OpenAPI document.
var Version = "dev"

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Servers        *servers.Repo
	Recorder       *audit.Recorder
	Gate           *permission.Gate
	Open           handler.Opener
	Inspect        *inspect.Service
	JWT            *auth.JWT
	AnonymousUser  string
	AllowedOrigins []string
	Renderer       *web.Renderer
}

// New builds the router and registers every route. The handler serves all
// of them; the API describes the JSON part.
func New(d Deps) (http.Handler, huma.API) {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Metrics)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/servers/", http.StatusFound)
	})

	var api huma.API
	r.Group(func(r chi.Router) {
		r.Use(auth.Identify(d.JWT, d.AnonymousUser))
		api = humachi.New(r, huma.DefaultConfig("redisboard API", Version))

		handler.RegisterServers(api, &handler.ServerHandler{Repo: d.Servers, Recorder: d.Recorder, Gate: d.Gate})
		handler.RegisterInspect(api, &handler.InspectHandler{Repo: d.Servers, Gate: d.Gate, Open: d.Open, Inspect: d.Inspect})
		handler.RegisterAudit(api, &handler.AuditHandler{Recorder: d.Recorder, Gate: d.Gate})

		if d.Renderer != nil {
			v := &views{servers: d.Servers, gate: d.Gate, open: d.Open, inspect: d.Inspect, render: d.Renderer}
			v.routes(r)
		}
	})
	return r, api
}
