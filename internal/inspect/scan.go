package inspect

import (
	"context"
	"strconv"

	"github.com/faciam-dev/redisboard/internal/metrics"
	"github.com/faciam-dev/redisboard/internal/redisconn"
)

// ScanPage is the result of a single scan step.
type ScanPage struct {
	Keys       []string `json:"keys"`
	NextCursor uint64   `json:"nextCursor"`
	Count      int64    `json:"count"`
}

// Done reports whether the scan has completed a full cycle.
func (p ScanPage) Done() bool { return p.NextCursor == 0 }

// Filter names understood by Scan. Other filters are ignored.
const (
	FilterMatch   = "match"
	FilterPattern = "pattern"
	FilterType    = "type"
	FilterCount   = "count"
)

// ScanArgs maps a cursor, count and caller filters onto the store's scan
// arguments. A count of 0 falls back to a "count" filter, then to the store
// default.
func ScanArgs(cursor uint64, count int64, filters map[string]string) redisconn.ScanArgs {
	a := redisconn.ScanArgs{Cursor: cursor, Count: count}
	if a.Count == 0 {
		if n, err := strconv.ParseInt(filters[FilterCount], 10, 64); err == nil && n > 0 {
			a.Count = n
		}
	}
	a.Match = filters[FilterMatch]
	if a.Match == "" {
		a.Match = filters[FilterPattern]
	}
	a.Type = filters[FilterType]
	return a
}

// Scan runs one step of the keyspace scan of db. The returned cursor must
// be passed back unchanged to continue; the caller decides whether to loop.
// Servers without SCAN TYPE get the type filter applied per key.
func (s *Service) Scan(ctx context.Context, c Conn, feat Features, db int, cursor uint64, count int64, filters map[string]string) (ScanPage, error) {
	a := ScanArgs(cursor, count, filters)
	wantType := a.Type
	if !feat.ScanType {
		a.Type = ""
	}
	keys, next, err := c.Scan(ctx, db, a)
	if err != nil {
		return ScanPage{}, err
	}
	if wantType != "" && a.Type == "" {
		keys, err = filterByType(ctx, c, db, keys, wantType)
		if err != nil {
			return ScanPage{}, err
		}
	}
	metrics.ScanSteps.Inc()
	metrics.ScannedKeys.Add(float64(len(keys)))
	s.log().Debugw("scan", "db", db, "cursor", cursor, "next", next, "keys", len(keys))
	if keys == nil {
		keys = []string{}
	}
	return ScanPage{Keys: keys, NextCursor: next, Count: a.Count}, nil
}

func filterByType(ctx context.Context, c Conn, db int, keys []string, typ string) ([]string, error) {
	out := keys[:0]
	for _, k := range keys {
		t, err := c.Type(ctx, db, k)
		if err != nil {
			return nil, err
		}
		if t == typ {
			out = append(out, k)
		}
	}
	return out, nil
}
