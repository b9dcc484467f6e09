package inspect

import (
	"context"
	"sort"

	"github.com/faciam-dev/redisboard/internal/metrics"
)

// DatabaseSummary describes one database on the inspection page.
type DatabaseSummary struct {
	ID          int       `json:"id"`
	Keys        int64     `json:"keys"`
	Expires     int64     `json:"expires"`
	ScanEnabled bool      `json:"scanEnabled"`
	Cursor      uint64    `json:"cursor"`
	Page        *ScanPage `json:"page,omitempty"`
}

// Decision names the outcome of SelectSummaries.
type Decision string

const (
	DecisionExplicit   Decision = "explicit"
	DecisionEager      Decision = "eager"
	DecisionCountsOnly Decision = "counts_only"
)

// SelectSummaries decides which databases get scanned. An explicit database
// is always scanned, even when it has no entry in counts. Otherwise every
// database is scanned when the total key count is below threshold, and none
// is scanned from threshold upwards. Summaries are ordered by database id.
func SelectSummaries(counts map[int]int64, explicit *int, threshold int64) ([]DatabaseSummary, Decision) {
	if explicit != nil {
		return []DatabaseSummary{{ID: *explicit, Keys: counts[*explicit], ScanEnabled: true}}, DecisionExplicit
	}
	var total int64
	ids := make([]int, 0, len(counts))
	for id, n := range counts {
		total += n
		ids = append(ids, id)
	}
	sort.Ints(ids)
	scan := total < threshold
	out := make([]DatabaseSummary, len(ids))
	for i, id := range ids {
		out[i] = DatabaseSummary{ID: id, Keys: counts[id], ScanEnabled: scan}
	}
	if scan {
		return out, DecisionEager
	}
	return out, DecisionCountsOnly
}

// DatabasesRequest carries the caller's inspection parameters.
type DatabasesRequest struct {
	DB      *int
	Cursor  uint64
	Count   int64
	Filters map[string]string
}

// Databases is the result of Service.Databases.
type Databases struct {
	Summaries []DatabaseSummary `json:"databases"`
	Active    *DatabaseSummary  `json:"active,omitempty"`
	Decision  Decision          `json:"decision,omitempty"`
}

// Databases builds the database summaries of a server and scans the enabled
// ones. When the stats are unavailable the result is empty.
func (s *Service) Databases(ctx context.Context, c Conn, st ServerStats, req DatabasesRequest) (Databases, error) {
	if !st.Up {
		return Databases{}, nil
	}
	summaries, decision := SelectSummaries(st.KeyCounts(), req.DB, s.threshold())
	metrics.SummaryDecisions.WithLabelValues(string(decision)).Inc()
	s.log().Debugw("database summaries", "decision", decision, "databases", len(summaries), "total", st.TotalKeys())

	for i := range summaries {
		d := &summaries[i]
		d.Expires = st.Keyspace[d.ID].Expires
		if !d.ScanEnabled {
			continue
		}
		page, err := s.Scan(ctx, c, st.Features, d.ID, req.Cursor, req.Count, req.Filters)
		if err != nil {
			return Databases{}, err
		}
		d.Cursor = req.Cursor
		d.Page = &page
	}
	res := Databases{Summaries: summaries, Decision: decision}
	if req.DB != nil {
		res.Active = &res.Summaries[0]
	}
	return res, nil
}
