package redis

import (
	"testing"
	"time"
)

func TestKey_DistinguishesIdentityAndCaptureTime(t *testing.T) {
	ts := time.Date(2026, 3, 10, 12, 0, 0, 500, time.UTC)

	if got, want := Key("alice", ts), "dedup:location:alice:"+"1773144000000000500"; got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
	if Key("alice", ts) == Key("bob", ts) {
		t.Fatalf("keys for different identities collide")
	}
	if Key("alice", ts) == Key("alice", ts.Add(time.Nanosecond)) {
		t.Fatalf("keys for different capture times collide")
	}
	if Key("alice", ts) != Key("alice", ts.In(time.FixedZone("x", 3600))) {
		t.Fatalf("key must not depend on location")
	}
}

func TestNewDedupChecker_DefaultTTL(t *testing.T) {
	if d := NewDedupChecker(nil, 0); d.ttl != defaultDedupTTL {
		t.Fatalf("ttl = %v, want %v", d.ttl, defaultDedupTTL)
	}
}
