// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

var ErrCacheFailed = errors.New("CACHE_FAILED")

const (
	KeyPrefix  = "cxagent:response:"
	DefaultTTL = time.Hour
)

// ResponseCache stores successful agent responses in Redis, keyed by the
// normalized request and the generation mode that produced them.
type ResponseCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewResponseCache(client redis.Cmdable, ttl time.Duration, log logger.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		client: client,
		ttl:    ttl,
		logger: logger.ForComponent(log, "cache"),
	}
}

// Key derives the cache key. The prompt is case- and whitespace-normalized
// so trivially different spellings share an entry.
func Key(req models.AgentCreateRequest, mode string) string {
	prompt := strings.Join(strings.Fields(strings.ToLower(req.UserPrompt)), " ")
	sum := sha256.Sum256([]byte(strings.Join([]string{prompt, req.Language, req.Platform, mode}, "|")))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached response. A miss is reported as (nil, false, nil).
func (c *ResponseCache) Get(ctx context.Context, req models.AgentCreateRequest, mode string) (*models.AgentCreateResponse, bool, error) {
	key := Key(req, mode)

	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get: %v", ErrCacheFailed, err)
	}

	var resp models.AgentCreateResponse
	if err := sonic.Unmarshal(val, &resp); err != nil {
		// A corrupt entry is treated as a miss and removed.
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		c.client.Del(ctx, key)
		return nil, false, nil
	}

	c.logger.Debug("cache hit", map[string]interface{}{"key": key})
	return &resp, true, nil
}

// Set stores resp. Failed responses are never cached.
func (c *ResponseCache) Set(ctx context.Context, req models.AgentCreateRequest, mode string, resp *models.AgentCreateResponse) error {
	if resp == nil || !resp.Success {
		return nil
	}

	data, err := sonic.Marshal(resp)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrCacheFailed, err)
	}

	if err := c.client.Set(ctx, Key(req, mode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrCacheFailed, err)
	}
	return nil
}
