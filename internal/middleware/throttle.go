package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// ThrottleConfig sets the request budgets. Rates are per minute per key.
type ThrottleConfig struct {
	AnonPerMinute int
	UserPerMinute int
	Burst         int
	// IdleTTL is how long an unused bucket is kept. Defaults to three minutes.
	IdleTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttler keeps one token bucket per caller: the user id when
// authenticated, the client IP otherwise. Idle buckets are swept lazily on
// access, so no goroutine is needed.
type Throttler struct {
	cfg       ThrottleConfig
	anon      rate.Limit
	user      rate.Limit
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func NewThrottler(cfg ThrottleConfig) *Throttler {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Throttler{
		cfg:      cfg,
		anon:     perMinute(cfg.AnonPerMinute),
		user:     perMinute(cfg.UserPerMinute),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func perMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}

// Allow spends one token from key's bucket.
func (t *Throttler) Allow(key string, limit rate.Limit) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) > t.cfg.IdleTTL {
		for k, v := range t.visitors {
			if now.Sub(v.lastSeen) > t.cfg.IdleTTL {
				delete(t.visitors, k)
			}
		}
		t.lastSweep = now
	}

	v, ok := t.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(limit, t.cfg.Burst)}
		t.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Len reports how many buckets are tracked.
func (t *Throttler) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.visitors)
}

// Handler throttles identified callers with the user budget and everyone
// else, including callers whose credentials were rejected, with the
// anonymous budget.
func (t *Throttler) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, limit := "ip:"+c.IP(), t.anon
		if ident, ok := IdentityFrom(c); ok {
			key, limit = "user:"+ident.UserID, t.user
		}

		if !t.Allow(key, limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Request was throttled.",
			})
		}
		return c.Next()
	}
}
