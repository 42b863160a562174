package cache

import (
	"context"
	"testing"
	"time"
)

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	if err := c.Set(ctx, KeyFoodList, []byte("x"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if b, ok, err := c.Get(ctx, KeyFoodList); ok || b != nil || err != nil {
		t.Fatalf("get: b=%q ok=%v err=%v", b, ok, err)
	}
	if err := c.Del(ctx, KeyFoodList); err != nil {
		t.Fatalf("del: %v", err)
	}
}

func TestRedis_UnreachableReturnsError(t *testing.T) {
	rdb := NewRedisClient("127.0.0.1:1")
	defer rdb.Close()
	c := NewRedis(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, ok, err := c.Get(ctx, KeyFoodList); err == nil || ok {
		t.Fatalf("expected error, ok=%v err=%v", ok, err)
	}
}
