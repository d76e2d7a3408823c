package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sgp-controller/internal/config"
)

// SessionsTag marks responses that depend on the list of sessions.
const SessionsTag = "sessions"

const cacheTagsKey = "cache_tags"

// SessionTag marks responses that depend on one session's state.
func SessionTag(id int64) string { return fmt.Sprintf("session:%d", id) }

// TagCache attaches tags to the current request.  On a cached read the
// stored response is indexed under each tag; on a successful write every
// response indexed under the tags is evicted.
func TagCache(c echo.Context, tags ...string) {
	existing, _ := c.Get(cacheTagsKey).([]string)
	c.Set(cacheTagsKey, append(existing, tags...))
}

func cacheTags(c echo.Context) []string {
	tags, _ := c.Get(cacheTagsKey).([]string)
	return tags
}

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size < cw.limit {
		remain := cw.limit - cw.size
		if cw.limit <= 0 {
			cw.buf.Write(b)
		} else if remain > 0 {
			if int64(len(b)) <= remain {
				cw.buf.Write(b)
			} else {
				cw.buf.Write(b[:remain])
			}
		}
		cw.size += int64(len(b))
	}
	return cw.ResponseWriter.Write(b)
}

// Build a stable cache key honoring prefix/strategy.  The route strategies
// use the concrete URL path so two sessions never share an entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	method := r.Method
	path := r.URL.Path
	query := r.URL.RawQuery

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = append(parts, "route", path)
	case "method_route":
		parts = append(parts, "method", method, "route", path)
	case "method_route_query":
		parts = append(parts, "method", method, "route", path, "q", query)
	default: // "route_query"
		parts = append(parts, "route", path, "q", query)
	}

	tail := strings.Join(parts[1:], ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", parts[0], sum[:])
}

func tagKey(cfg config.CacheConfig, tag string) string {
	return cfg.Prefix + ":tag:" + tag
}

// stampKey holds the Redis server time, in microseconds, of the last
// write that invalidated tag.
func stampKey(cfg config.CacheConfig, tag string) string {
	return cfg.Prefix + ":inv:" + tag
}

// tagKeys lays out, for each tag, its member set key followed by its
// stamp key.  Both scripts below walk KEYS in these pairs.
func tagKeys(cfg config.CacheConfig, tags []string) []string {
	out := make([]string, 0, 2*len(tags))
	for _, tag := range tags {
		out = append(out, tagKey(cfg, tag), stampKey(cfg, tag))
	}
	return out
}

// storeScript caches a response unless one of its tags was invalidated
// at or after the read started.  KEYS[1] is the response key, then tag
// pairs; ARGV is payload, ttl in ms, read start in microseconds.
var storeScript = redis.NewScript(`
local start = tonumber(ARGV[3])
for i = 2, #KEYS, 2 do
	local stamp = redis.call('GET', KEYS[i + 1])
	if stamp and tonumber(stamp) >= start then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
for i = 2, #KEYS, 2 do
	redis.call('SADD', KEYS[i], KEYS[1])
	redis.call('PEXPIRE', KEYS[i], ARGV[2])
end
return 1
`)

// invalidateScript stamps every tag with the server time and evicts the
// responses indexed under it.  KEYS are tag pairs; ARGV[1] is how long
// the stamp is kept, in ms.
var invalidateScript = redis.NewScript(`
local t = redis.call('TIME')
local now = t[1] .. string.format('%06d', tonumber(t[2]))
for i = 1, #KEYS, 2 do
	redis.call('SET', KEYS[i + 1], now, 'PX', ARGV[1])
	local members = redis.call('SMEMBERS', KEYS[i])
	for _, k in ipairs(members) do
		redis.call('DEL', k)
	end
	redis.call('DEL', KEYS[i])
end
return 1
`)

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	total := 4 + 4 + len(hdrJSON) + len(body)
	out := make([]byte, total)
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if 8+hlen > len(bs) || hlen < 0 {
		return 0, nil, nil, false
	}
	var hdr http.Header
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	} else {
		hdr = make(http.Header)
	}
	body = bs[8+hlen:]
	return status, hdr, body, true
}

// NewRedisCache caches read responses (headers and body) in Redis and
// evicts them when a write touches the same tags.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Cacheable(c.Request().Method) {
				return invalidateAfter(cfg, rdb, next, c)
			}

			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil && len(bs) >= 8 {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			c.Response().Header().Set("X-Cache", "MISS")
			// A miss remembers when it started reading so that a write
			// committing meanwhile keeps the stale result out of the cache.
			started, err := rdb.Time(ctx).Result()
			if err != nil {
				log.WithError(err).Warn("cache clock unavailable")
				return next(c)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}

			hdr := make(http.Header, len(c.Response().Header()))
			for k, vals := range c.Response().Header() {
				vv := make([]string, len(vals))
				copy(vv, vals)
				hdr[k] = vv
			}
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			// The client already has its response; store under a fresh context.
			bg, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			keys := append([]string{key}, tagKeys(cfg, cacheTags(c))...)
			stored, err := storeScript.Run(bg, rdb, keys, payload, ttl.Milliseconds(), started.UnixMicro()).Int()
			if err != nil {
				log.WithError(err).Warn("cache store failed")
			} else if stored == 0 {
				log.WithField("path", c.Request().URL.Path).Debug("cache store skipped after concurrent write")
			}
			return nil
		}
	}
}

// invalidateAfter runs a write and, if it succeeded, evicts every cached
// response indexed under the request's tags.
func invalidateAfter(cfg config.CacheConfig, rdb *redis.Client, next echo.HandlerFunc, c echo.Context) error {
	err := next(c)
	status := c.Response().Status
	if err != nil || status < 200 || status >= 300 {
		return err
	}
	tags := cacheTags(c)
	if len(tags) == 0 {
		return nil
	}
	bg, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if ierr := invalidateScript.Run(bg, rdb, tagKeys(cfg, tags), stampTTL(cfg).Milliseconds()).Err(); ierr != nil {
		log.WithError(ierr).WithField("tags", tags).Warn("cache invalidation failed")
	}
	return nil
}

// stampTTL keeps invalidation stamps for at least as long as a cached
// response lives, and never less than a minute.
func stampTTL(cfg config.CacheConfig) time.Duration {
	if cfg.TTL > time.Minute {
		return cfg.TTL
	}
	return time.Minute
}
