package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sgp-controller/internal/config"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"ok":true}` {
		t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{0, 1}); ok {
		t.Fatal("short payload decoded")
	}
}

func TestCacheKeySeparatesSessions(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	c1, _ := newContext(http.MethodGet, "/api/historico/all/1")
	c2, _ := newContext(http.MethodGet, "/api/historico/all/2")
	c1.SetPath("/api/historico/all/:id")
	c2.SetPath("/api/historico/all/:id")
	k1, k2 := cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c2)
	if k1 == k2 {
		t.Fatal("different sessions share a cache key")
	}
	if !strings.HasPrefix(k1, "cache:") {
		t.Fatalf("key %q lacks prefix", k1)
	}
}

func TestTagCacheAccumulates(t *testing.T) {
	c, _ := newContext(http.MethodPut, "/")
	TagCache(c, SessionTag(3))
	TagCache(c, SessionsTag)
	tags := cacheTags(c)
	if len(tags) != 2 || tags[0] != "session:3" || tags[1] != "sessions" {
		t.Fatalf("tags = %v", tags)
	}
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	called := 0
	next := func(c echo.Context) error {
		called++
		return c.String(http.StatusOK, "ok")
	}
	c, rec := newContext(http.MethodGet, "/x")
	if err := NewRedisCache(config.CacheConfig{Enabled: true}, nil)(next)(c); err != nil {
		t.Fatal(err)
	}
	if err := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil)(next)(c); err != nil {
		t.Fatal(err)
	}
	if called != 2 || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("called=%d X-Cache=%q", called, rec.Header().Get("X-Cache"))
	}
}

func TestUnreachableRedisDegrades(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	cacheCfg := config.CacheConfig{Enabled: true, Methods: []string{"GET"}, Prefix: "cache", TTL: time.Second}
	rlCfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}

	c, rec := newContext(http.MethodGet, "/x")
	h := NewTokenBucket(rlCfg, rdb)(NewRedisCache(cacheCfg, rdb)(next))
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("X-Cache = %q", rec.Header().Get("X-Cache"))
	}
}

func TestBuildRateKey(t *testing.T) {
	c, _ := newContext(http.MethodPut, "/api/banco/saque")
	c.SetPath("/api/banco/saque")
	cases := map[string]string{
		"ip":       "rl:ip:10.0.0.7",
		"route":    "rl:route:PUT /api/banco/saque",
		"global":   "rl:global",
		"ip_route": "rl:ip:10.0.0.7:route:PUT /api/banco/saque",
		"":         "rl:ip:10.0.0.7:route:PUT /api/banco/saque",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Errorf("%q: got %q, want %q", strategy, got, want)
		}
	}
}

func TestAsInt64(t *testing.T) {
	for _, v := range []interface{}{int64(4), 4, float64(4), "4"} {
		if asInt64(v) != 4 {
			t.Fatalf("asInt64(%#v) = %d", v, asInt64(v))
		}
	}
}

func TestTagKeysPairs(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	got := tagKeys(cfg, []string{SessionTag(4), SessionsTag})
	want := []string{"cache:tag:session:4", "cache:inv:session:4", "cache:tag:sessions", "cache:inv:sessions"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tagKeys = %v", got)
	}
	if d := stampTTL(config.CacheConfig{TTL: time.Second}); d != time.Minute {
		t.Fatalf("stampTTL = %s", d)
	}
}

// TestReadOverlappingWriteIsNotCached needs a disposable Redis; set
// REDIS_TEST_ADDR to run it.
func TestReadOverlappingWriteIsNotCached(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	cfg := config.CacheConfig{
		Enabled: true, Methods: []string{"GET"}, KeyStrategy: "route_query", TTL: time.Minute,
		Prefix: fmt.Sprintf("cachetest%d", time.Now().UnixNano()),
	}
	mw := NewRedisCache(cfg, rdb)

	reading := make(chan struct{})
	release := make(chan struct{})
	slowRead := mw(func(c echo.Context) error {
		TagCache(c, SessionTag(1))
		close(reading)
		<-release
		return c.String(http.StatusOK, "saldo antigo")
	})
	write := mw(func(c echo.Context) error {
		TagCache(c, SessionTag(1))
		return c.String(http.StatusOK, "ok")
	})
	read := mw(func(c echo.Context) error {
		TagCache(c, SessionTag(1))
		return c.String(http.StatusOK, "saldo novo")
	})

	rc, _ := newContext(http.MethodGet, "/api/historico/all/1")
	key := cacheKeyFrom(cfg, rc)
	done := make(chan error, 1)
	go func() { done <- slowRead(rc) }()
	<-reading
	wc, _ := newContext(http.MethodPut, "/api/banco/deposito")
	if err := write(wc); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if n := rdb.Exists(ctx, key).Val(); n != 0 {
		t.Fatal("read that overlapped a write was cached")
	}

	c, _ := newContext(http.MethodGet, "/api/historico/all/1")
	if err := read(c); err != nil {
		t.Fatal(err)
	}
	if n := rdb.Exists(ctx, key).Val(); n != 1 {
		t.Fatal("fresh read was not cached")
	}
	wc, _ = newContext(http.MethodPut, "/api/banco/deposito")
	if err := write(wc); err != nil {
		t.Fatal(err)
	}
	if n := rdb.Exists(ctx, key).Val(); n != 0 {
		t.Fatal("write did not evict the cached read")
	}
}
