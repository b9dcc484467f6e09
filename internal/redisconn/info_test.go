package redisconn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleInfo = "# Server\r\nredis_version:7.2.4\r\nredis_mode:standalone\r\nuptime_in_seconds:3600\r\n\r\n" +
	"# Clients\r\nconnected_clients:3\r\nblocked_clients:1\r\n\r\n" +
	"# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nused_memory_peak_human:2.00M\r\n\r\n" +
	"# CPU\r\nused_cpu_sys:1.50\r\nused_cpu_user:2.25\r\n\r\n" +
	"# Keyspace\r\ndb0:keys=50,expires=2,avg_ttl=100\r\ndb3:keys=30,expires=0,avg_ttl=0\r\n"

func TestParseInfo(t *testing.T) {
	info := ParseInfo(sampleInfo)
	if info.Get("redis_version") != "7.2.4" {
		t.Fatalf("version = %q", info.Get("redis_version"))
	}
	if info.Int("connected_clients") != 3 {
		t.Fatalf("clients = %d", info.Int("connected_clients"))
	}
	if info.Float("used_cpu_user") != 2.25 {
		t.Fatalf("cpu = %v", info.Float("used_cpu_user"))
	}
	want := map[int]Keyspace{
		0: {Keys: 50, Expires: 2, AvgTTL: 100},
		3: {Keys: 30},
	}
	if diff := cmp.Diff(want, info.Keyspace()); diff != "" {
		t.Fatalf("keyspace (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 3}, DatabaseIDs(info.Keyspace())); diff != "" {
		t.Fatalf("ids (-want +got)\n%s", diff)
	}
}

func TestParseClientList(t *testing.T) {
	raw := "id=3 addr=127.0.0.1:50000 laddr=127.0.0.1:6379 fd=8 name=web age=10 idle=2 flags=N db=1 cmd=client|list user=default\n" +
		"id=4 addr=127.0.0.1:50001 name= age=1 idle=1 flags=N db=0 cmd=get user=default\n"
	got := ParseClientList(raw)
	if len(got) != 2 {
		t.Fatalf("got %d clients", len(got))
	}
	if got[0].ID != 3 || got[0].Name != "web" || got[0].DB != 1 || got[0].Cmd != "client|list" {
		t.Fatalf("client 0 = %#v", got[0])
	}
	if got[1].Name != "" || got[1].Fields["fd"] != "" {
		t.Fatalf("client 1 = %#v", got[1])
	}
}
