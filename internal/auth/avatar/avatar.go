// Package avatar picks best-effort avatar URLs for teams and users. Nothing
// here returns an error: every failure degrades to a placeholder image.
package avatar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cachePrefix = "avatar:"

// Cache remembers lookup results per domain.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

type Resolver struct {
	log            *zap.SugaredLogger
	client         *http.Client
	lookupURL      string
	placeholderURL string
	salt           string
	cache          Cache
	cacheTTL       time.Duration
}

type Options struct {
	LookupURL      string
	PlaceholderURL string
	Salt           string
	Timeout        time.Duration
	Cache          Cache
	CacheTTL       time.Duration
}

func New(opts Options, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		log:            log.Named("avatar"),
		client:         &http.Client{Timeout: opts.Timeout},
		lookupURL:      strings.TrimRight(opts.LookupURL, "/"),
		placeholderURL: strings.TrimRight(opts.PlaceholderURL, "/"),
		salt:           opts.Salt,
		cache:          opts.Cache,
		cacheTTL:       opts.CacheTTL,
	}
}

// TeamAvatar returns the logo lookup URL for domain when the lookup service
// has one, otherwise a placeholder keyed by the hashed domain.
func (r *Resolver) TeamAvatar(ctx context.Context, domain, teamName string) string {
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, cachePrefix+domain); ok {
			return cached
		}
	}

	avatarURL := r.placeholder(domain, initials(teamName, 1))
	if logo := r.lookupURL + "/" + domain; r.lookupURL != "" && r.exists(ctx, logo) {
		avatarURL = logo
	}

	if r.cache != nil {
		r.cache.Set(ctx, cachePrefix+domain, avatarURL, r.cacheTTL)
	}
	return avatarURL
}

// UserAvatar returns a placeholder keyed by the hashed subject.
func (r *Resolver) UserAvatar(subject, name string) string {
	return r.placeholder(subject, initials(name, 2))
}

func (r *Resolver) placeholder(key, text string) string {
	sum := sha256.Sum256([]byte(r.salt + key))
	return fmt.Sprintf("%s/avatar/%s/%s.png", r.placeholderURL, hex.EncodeToString(sum[:]), text)
}

func (r *Resolver) exists(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debugw("logo lookup failed", "url", target, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func initials(name string, n int) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) == 0 {
		return "_"
	}
	if len(runes) < n {
		n = len(runes)
	}
	return string(runes[:n])
}

// RedisCache stores lookup results in Redis. Errors are logged and
// treated as cache misses.
type RedisCache struct {
	client  *redis.Client
	log     *zap.SugaredLogger
	timeout time.Duration
}

func NewRedisCache(client *redis.Client, log *zap.SugaredLogger) *RedisCache {
	return &RedisCache{
		client:  client,
		log:     log.Named("avatar.cache"),
		timeout: 250 * time.Millisecond,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("avatar cache get failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warnw("avatar cache set failed", "key", key, "error", err)
	}
}
