package redisconn

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Info holds INFO fields keyed by name; section headers are dropped.
type Info map[string]string

// ParseInfo parses the reply of INFO.
func ParseInfo(raw string) Info {
	info := Info{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		info[k] = v
	}
	return info
}

// Get returns the raw value of key.
func (i Info) Get(key string) string { return i[key] }

// Int returns key as an integer, 0 when absent or malformed.
func (i Info) Int(key string) int64 {
	n, _ := strconv.ParseInt(i[key], 10, 64)
	return n
}

// Float returns key as a float, 0 when absent or malformed.
func (i Info) Float(key string) float64 {
	f, _ := strconv.ParseFloat(i[key], 64)
	return f
}

// Keyspace describes one database line of the keyspace section.
type Keyspace struct {
	Keys    int64 `json:"keys"`
	Expires int64 `json:"expires"`
	AvgTTL  int64 `json:"avgTtl"`
}

// Keyspace returns the per-database counts found in dbN entries.
func (i Info) Keyspace() map[int]Keyspace {
	out := map[int]Keyspace{}
	for k, v := range i {
		if !strings.HasPrefix(k, "db") {
			continue
		}
		id, err := strconv.Atoi(k[2:])
		if err != nil {
			continue
		}
		var ks Keyspace
		for _, part := range strings.Split(v, ",") {
			name, val, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			n, _ := strconv.ParseInt(val, 10, 64)
			switch name {
			case "keys":
				ks.Keys = n
			case "expires":
				ks.Expires = n
			case "avg_ttl":
				ks.AvgTTL = n
			}
		}
		out[id] = ks
	}
	return out
}

// DatabaseIDs returns the keys of m in ascending order.
func DatabaseIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ClientInfo is one line of CLIENT LIST.
type ClientInfo struct {
	ID     int64             `json:"id"`
	Addr   string            `json:"addr"`
	Name   string            `json:"name"`
	Age    int64             `json:"age"`
	Idle   int64             `json:"idle"`
	Flags  string            `json:"flags"`
	DB     int               `json:"db"`
	Cmd    string            `json:"cmd"`
	User   string            `json:"user"`
	Fields map[string]string `json:"fields"`
}

// ParseClientList parses the reply of CLIENT LIST.
func ParseClientList(raw string) []ClientInfo {
	var out []ClientInfo
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ci := ClientInfo{Fields: map[string]string{}}
		for _, f := range strings.Fields(line) {
			k, v, _ := strings.Cut(f, "=")
			ci.Fields[k] = v
		}
		ci.ID, _ = strconv.ParseInt(ci.Fields["id"], 10, 64)
		ci.Addr = ci.Fields["addr"]
		ci.Name = ci.Fields["name"]
		ci.Age, _ = strconv.ParseInt(ci.Fields["age"], 10, 64)
		ci.Idle, _ = strconv.ParseInt(ci.Fields["idle"], 10, 64)
		ci.Flags = ci.Fields["flags"]
		ci.DB, _ = strconv.Atoi(ci.Fields["db"])
		ci.Cmd = ci.Fields["cmd"]
		ci.User = ci.Fields["user"]
		out = append(out, ci)
	}
	return out
}

// SlowlogEntry is one SLOWLOG GET entry.
type SlowlogEntry struct {
	ID         int64         `json:"id"`
	Time       time.Time     `json:"time"`
	Duration   time.Duration `json:"duration"`
	Args       []string      `json:"args"`
	ClientAddr string        `json:"clientAddr"`
	ClientName string        `json:"clientName"`
}
