// Package poller periodically refreshes the per-server gauges.
package poller

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/metrics"
	"github.com/faciam-dev/redisboard/internal/redisconn"
	"github.com/faciam-dev/redisboard/internal/servers"
)

// Lister returns the registered servers.
type Lister interface {
	List(ctx context.Context, f servers.Filter) ([]servers.Server, error)
}

// Poller collects stats of every registered server.
type Poller struct {
	Servers  Lister
	Provider *redisconn.Provider
	Inspect  *inspect.Service
	Logger   *slog.Logger
}

func (p *Poller) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Start schedules a poll every interval and returns the running scheduler.
func (p *Poller) Start(interval time.Duration) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		p.Poll(ctx)
	}); err != nil {
		return nil, err
	}
	s.StartAsync()
	return s, nil
}

// Poll refreshes the gauges once. Each server gets its own connection, closed
// before the next one is opened.
func (p *Poller) Poll(ctx context.Context) {
	list, err := p.Servers.List(ctx, servers.Filter{})
	if err != nil {
		p.log().Error("list servers", "err", err)
		return
	}
	for _, srv := range list {
		p.pollOne(ctx, srv)
	}
}

func (p *Poller) pollOne(ctx context.Context, srv servers.Server) {
	label := strconv.FormatInt(srv.ID, 10)
	c := p.Provider.Open(srv.Endpoint())
	defer c.Close()
	st := p.Inspect.Stats(ctx, c)
	if !st.Up {
		metrics.ConnErrors.WithLabelValues(label).Inc()
		metrics.ServerUp.WithLabelValues(label).Set(0)
		p.log().Warn("server down", "server", srv.String(), "err", st.Error)
		return
	}
	metrics.ServerUp.WithLabelValues(label).Set(1)
	metrics.ServerMemory.WithLabelValues(label).Set(float64(st.UsedMemory))
	metrics.ServerClients.WithLabelValues(label).Set(float64(st.ConnectedClients))
	metrics.ServerKeys.WithLabelValues(label).Set(float64(st.TotalKeys()))
}
