package notify

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrThrottled is returned when the outbound mail budget is exhausted.
var ErrThrottled = errors.New("mail rate limit reached")

// Throttle decides whether another email may be sent now.
type Throttle interface {
	Allow(ctx context.Context) (bool, error)
}

const throttleScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// DefaultThrottleKey is shared by every process sending through the same relay.
const DefaultThrottleKey = "hirezaa:mail:sent"

// RedisThrottle is a fixed-window counter shared across server and CLI
// processes, so a bulk shortlist run from the CLI and one from the API draw
// from the same budget.
type RedisThrottle struct {
	client *redis.Client
	script *redis.Script
	key    string
	limit  int
	window time.Duration
}

// NewRedisThrottle allows limit sends per window. A nil client or a
// non-positive limit disables throttling.
func NewRedisThrottle(client *redis.Client, limit int, window time.Duration) *RedisThrottle {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisThrottle{
		client: client,
		script: redis.NewScript(throttleScript),
		key:    DefaultThrottleKey,
		limit:  limit,
		window: window,
	}
}

// Allow implements Throttle. Redis errors are returned to the caller rather
// than treated as permission to send.
func (t *RedisThrottle) Allow(ctx context.Context) (bool, error) {
	if t == nil || t.client == nil || t.limit <= 0 {
		return true, nil
	}
	ttl := t.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	allowed, err := t.script.Run(ctx, t.client, []string{t.key}, ttl, t.limit).Int64()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}
