package inspect

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

func TestScanArgs(t *testing.T) {
	a := ScanArgs(7, 0, map[string]string{"pattern": "user:*", "count": "25", "unknown": "x"})
	if a.Cursor != 7 || a.Count != 25 || a.Match != "user:*" || a.Type != "" {
		t.Fatalf("args = %+v", a)
	}
	a = ScanArgs(0, 10, map[string]string{"match": "a*", "pattern": "b*", "count": "25", "type": "hash"})
	if a.Count != 10 || a.Match != "a*" || a.Type != "hash" {
		t.Fatalf("args = %+v", a)
	}
	a = ScanArgs(0, 0, map[string]string{"count": "bogus"})
	if a.Count != 0 {
		t.Fatalf("count = %d, want store default", a.Count)
	}
}

func seedMixed(t *testing.T) (*Service, Conn) {
	t.Helper()
	s, c := newStore(t)
	fill(t, s, 2, func(ctx context.Context, rc *redis.Client) {
		rc.Set(ctx, "user:1", "a", 0)
		rc.Set(ctx, "user:2", "b", 0)
		rc.RPush(ctx, "queue", "x", "y")
		rc.HSet(ctx, "user:profile", "name", "n")
	})
	return &Service{}, c
}

func sorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}

func TestScanFilters(t *testing.T) {
	svc, c := seedMixed(t)
	ctx := context.Background()
	feat := Features{ScanType: true}

	page, err := svc.Scan(ctx, c, feat, 2, 0, 0, map[string]string{"match": "user:*"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if diff := cmp.Diff([]string{"user:1", "user:2", "user:profile"}, sorted(page.Keys)); diff != "" {
		t.Fatalf("match mismatch (-want +got):\n%s", diff)
	}

	page, err = svc.Scan(ctx, c, feat, 2, 0, 0, map[string]string{"match": "user:*", "type": "string"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if diff := cmp.Diff([]string{"user:1", "user:2"}, sorted(page.Keys)); diff != "" {
		t.Fatalf("type mismatch (-want +got):\n%s", diff)
	}
}

func TestScanTypeFallback(t *testing.T) {
	svc, c := seedMixed(t)
	page, err := svc.Scan(context.Background(), c, Features{}, 2, 0, 0, map[string]string{"type": "list"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if diff := cmp.Diff([]string{"queue"}, page.Keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestScanIsRepeatable(t *testing.T) {
	svc, c := seedMixed(t)
	ctx := context.Background()
	first, err := svc.Scan(ctx, c, Features{ScanType: true}, 2, 0, 0, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	second, err := svc.Scan(ctx, c, Features{ScanType: true}, 2, 0, 0, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("scan not repeatable (-first +second):\n%s", diff)
	}
	if len(first.Keys) != 4 || !first.Done() {
		t.Fatalf("page = %+v", first)
	}
}

func TestScanEmptyDatabase(t *testing.T) {
	_, c := newStore(t)
	page, err := (&Service{}).Scan(context.Background(), c, Features{ScanType: true}, 9, 0, 0, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if page.Keys == nil || len(page.Keys) != 0 || page.NextCursor != 0 {
		t.Fatalf("page = %+v", page)
	}
}
