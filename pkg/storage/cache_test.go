package storage

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestKeyUsesPrefix(t *testing.T) {
	cache := NewSnapshotCache(unreachableClient(), time.Minute, "")
	if got := cache.key("v1|y=0"); got != "dashboard:v1|y=0" {
		t.Fatalf("unexpected key %q", got)
	}

	cache = NewSnapshotCache(unreachableClient(), time.Minute, "hc")
	if got := cache.key("v1"); got != "hc:v1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestUnavailableRedisReturnsErrors(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	cache := NewSnapshotCache(client, time.Minute, "test")

	var dst map[string]int
	found, err := cache.Get(context.Background(), "k", &dst)
	if err == nil || found {
		t.Fatalf("expected error on get, got found=%v err=%v", found, err)
	}
	if err := cache.Set(context.Background(), "k", map[string]int{"a": 1}); err == nil {
		t.Fatal("expected error on set")
	}
}
