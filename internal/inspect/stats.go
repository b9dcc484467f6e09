package inspect

import (
	"context"
	"fmt"
	"time"

	"github.com/faciam-dev/redisboard/internal/redisconn"
)

// ServerStats is a snapshot of a server taken from INFO and SLOWLOG.
type ServerStats struct {
	Up    bool   `json:"up"`
	Error string `json:"error,omitempty"`

	Version       string `json:"version,omitempty"`
	Mode          string `json:"mode,omitempty"`
	Role          string `json:"role,omitempty"`
	OS            string `json:"os,omitempty"`
	UptimeSeconds int64  `json:"uptimeSeconds"`

	UsedMemory      int64  `json:"usedMemory"`
	UsedMemoryHuman string `json:"usedMemoryHuman,omitempty"`
	PeakMemoryHuman string `json:"peakMemoryHuman,omitempty"`
	MaxMemoryHuman  string `json:"maxMemoryHuman,omitempty"`

	ConnectedClients int64 `json:"connectedClients"`
	BlockedClients   int64 `json:"blockedClients"`

	CPUSys  float64 `json:"cpuSys"`
	CPUUser float64 `json:"cpuUser"`

	Keyspace map[int]redisconn.Keyspace `json:"keyspace"`
	Slowlog  []redisconn.SlowlogEntry   `json:"slowlog"`
	Features Features                   `json:"features"`
}

// Stats collects a snapshot. Connection or command failures mark the server
// down instead of failing; the slow log is optional.
func (s *Service) Stats(ctx context.Context, c Conn) ServerStats {
	info, err := c.Info(ctx)
	if err != nil {
		s.log().Infow("server unavailable", "err", err)
		return ServerStats{Error: err.Error(), Keyspace: map[int]redisconn.Keyspace{}}
	}
	st := ServerStats{
		Up:               true,
		Version:          info.Get("redis_version"),
		Mode:             info.Get("redis_mode"),
		Role:             info.Get("role"),
		OS:               info.Get("os"),
		UptimeSeconds:    info.Int("uptime_in_seconds"),
		UsedMemory:       info.Int("used_memory"),
		UsedMemoryHuman:  info.Get("used_memory_human"),
		PeakMemoryHuman:  info.Get("used_memory_peak_human"),
		MaxMemoryHuman:   info.Get("maxmemory_human"),
		ConnectedClients: info.Int("connected_clients"),
		BlockedClients:   info.Int("blocked_clients"),
		CPUSys:           info.Float("used_cpu_sys"),
		CPUUser:          info.Float("used_cpu_user"),
		Keyspace:         info.Keyspace(),
		Features:         FeaturesFor(info.Get("redis_version")),
	}
	if n := s.slowlogSize(); n > 0 {
		logs, err := c.Slowlog(ctx, n)
		if err != nil {
			s.log().Debugw("slowlog unavailable", "err", err)
		} else {
			st.Slowlog = logs
		}
	}
	return st
}

// Status returns "UP" or "DOWN".
func (st ServerStats) Status() string {
	if st.Up {
		return "UP"
	}
	return "DOWN"
}

// Memory summarizes memory usage, e.g. "1.00M (peak 2.00M)".
func (st ServerStats) Memory() string {
	if !st.Up {
		return "n/a"
	}
	if st.PeakMemoryHuman == "" {
		return st.UsedMemoryHuman
	}
	return fmt.Sprintf("%s (peak %s)", st.UsedMemoryHuman, st.PeakMemoryHuman)
}

// Clients summarizes connected and blocked clients.
func (st ServerStats) Clients() string {
	if !st.Up {
		return "n/a"
	}
	return fmt.Sprintf("%d (%d blocked)", st.ConnectedClients, st.BlockedClients)
}

// CPU summarizes consumed CPU time.
func (st ServerStats) CPU() string {
	if !st.Up {
		return "n/a"
	}
	return fmt.Sprintf("sys %.2fs / user %.2fs", st.CPUSys, st.CPUUser)
}

// Uptime returns the uptime as a duration.
func (st ServerStats) Uptime() time.Duration {
	return time.Duration(st.UptimeSeconds) * time.Second
}

// TotalKeys sums keys over all databases.
func (st ServerStats) TotalKeys() int64 {
	var n int64
	for _, ks := range st.Keyspace {
		n += ks.Keys
	}
	return n
}

// KeyCounts returns the number of keys per database.
func (st ServerStats) KeyCounts() map[int]int64 {
	out := make(map[int]int64, len(st.Keyspace))
	for id, ks := range st.Keyspace {
		out[id] = ks.Keys
	}
	return out
}

// Clients returns the connected clients of the server.
func (s *Service) Clients(ctx context.Context, c Conn) ([]redisconn.ClientInfo, error) {
	return c.ClientList(ctx)
}

// Slowlog returns up to n slow log entries; n <= 0 uses the configured size.
func (s *Service) Slowlog(ctx context.Context, c Conn, n int64) ([]redisconn.SlowlogEntry, error) {
	if n <= 0 {
		n = s.slowlogSize()
	}
	return c.Slowlog(ctx, n)
}
