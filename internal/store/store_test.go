package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"sentry-link/internal/dispatcher"
)

type configStore interface {
	dispatcher.ConfigStore
	All(ctx context.Context) (map[dispatcher.ConfigKey]string, error)
}

func newRedisStore(t *testing.T) (*RedisConfigStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := InitRedis(context.Background(), mr.Addr(), 0)
	if err != nil {
		t.Fatalf("InitRedis() error = %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisConfigStore(rdb, "sentry-01"), mr
}

func TestConfigStores(t *testing.T) {
	rs, _ := newRedisStore(t)
	stores := map[string]configStore{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, dispatcher.KeyWifiSSID); ok || err != nil {
				t.Fatalf("Get on empty store = %v, %v", ok, err)
			}
			if err := s.Set(ctx, dispatcher.KeyWifiSSID, "HomeNet"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, dispatcher.KeyWifiSSID, "Office"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, dispatcher.KeyAPIEndpoint, ""); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, ok, err := s.Get(ctx, dispatcher.KeyWifiSSID)
			if err != nil || !ok || got != "Office" {
				t.Errorf("Get(ssid) = %q, %v, %v", got, ok, err)
			}
			if _, ok, _ := s.Get(ctx, dispatcher.KeyAPIEndpoint); !ok {
				t.Error("empty value not stored")
			}

			all, err := s.All(ctx)
			if err != nil || len(all) != 2 {
				t.Errorf("All() = %v, %v", all, err)
			}
		})
	}
}

func TestRedisConfigStoreLayout(t *testing.T) {
	s, mr := newRedisStore(t)
	if err := s.Set(context.Background(), dispatcher.KeyWifiPassword, "hunter2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := mr.HGet("sentry:sentry-01:config", "wifi_password"); got != "hunter2" {
		t.Errorf("hash field = %q, want hunter2", got)
	}
}

func TestRedisConfigStoreDown(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.Close()
	if err := s.Set(context.Background(), dispatcher.KeyWifiSSID, "x"); err == nil {
		t.Error("Set() with redis down returned nil error")
	}
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := InitRedis(context.Background(), addr, 0); err == nil {
		t.Error("InitRedis() want error for closed server")
	}
}
