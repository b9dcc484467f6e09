package web

import (
	"net/url"
	"sync"

	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/servers"
)

// ServerRow is one line of the server listing. Its stats are collected on
// first use, while the page renders.
type ServerRow struct {
	Server     servers.Server
	CanInspect bool

	collect func() inspect.ServerStats
	once    sync.Once
	stats   inspect.ServerStats
}

// NewServerRow returns a row whose stats come from collect.
func NewServerRow(s servers.Server, canInspect bool, collect func() inspect.ServerStats) *ServerRow {
	return &ServerRow{Server: s, CanInspect: canInspect, collect: collect}
}

// Stats returns the row's stats, collecting them once.
func (r *ServerRow) Stats() inspect.ServerStats {
	r.once.Do(func() {
		if r.collect != nil {
			r.stats = r.collect()
		}
	})
	return r.stats
}

// ServersPage is the server listing.
type ServersPage struct {
	User   string
	Label  string
	Labels []string
	Rows   []*ServerRow
}

// InspectPage shows the databases of a server.
type InspectPage struct {
	Server    servers.Server
	Stats     inspect.ServerStats
	Databases inspect.Databases
	Query     url.Values
}

// KeyPage shows a single key.
type KeyPage struct {
	Server servers.Server
	Key    inspect.KeyDetail
	Query  url.Values
}
