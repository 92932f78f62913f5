package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Messages returned when a login is throttled.
const (
	MsgTooManyAttempts = "Too many login attempts"
	MsgAccountLocked   = "Account temporarily locked"
)

// loginCounter 是 LoginGuard 用到的 Redis 子集。
type loginCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginGuard 限制登录频率并在连续失败后短暂锁定账号。零值表示不限制。
type LoginGuard struct {
	RateLimit     int64
	RateWindow    time.Duration
	LockThreshold int64
	LockTTL       time.Duration
}

func rateKey(ip, email string) string { return "rate:login:" + ip + ":" + email }
func lockKey(email string) string { return "lock:login:" + email }
func failKey(email string) string { return "lock:login:fail:" + email }

// admit 返回拒绝原因；空字符串表示放行。Redis 出错时放行，登录不依赖 Redis 可用。
func (g LoginGuard) admit(ctx context.Context, rdb loginCounter, ip, email string) string {
	if g.RateLimit > 0 {
		count, err := bump(ctx, rdb, rateKey(ip, email), g.RateWindow)
		if err == nil && count > g.RateLimit {
			return MsgTooManyAttempts
		}
	}
	if ttl, err := rdb.TTL(ctx, lockKey(email)).Result(); err == nil && ttl > 0 {
		return MsgAccountLocked
	}
	return ""
}

// failed 记录一次失败；达到阈值后锁定 LockTTL。
func (g LoginGuard) failed(ctx context.Context, rdb loginCounter, email string) error {
	if g.LockThreshold <= 0 {
		return nil
	}
	count, err := bump(ctx, rdb, failKey(email), g.LockTTL)
	if err != nil {
		return err
	}
	if count >= g.LockThreshold {
		return rdb.Set(ctx, lockKey(email), "1", g.LockTTL).Err()
	}
	return nil
}

func (g LoginGuard) succeeded(ctx context.Context, rdb loginCounter, email string) {
	_ = rdb.Del(ctx, failKey(email)).Err()
}

// bump 自增计数，首次出现时设置过期时间，形成固定窗口。
func bump(ctx context.Context, rdb loginCounter, key string, window time.Duration) (int64, error) {
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 && window > 0 {
		_ = rdb.Expire(ctx, key, window).Err()
	}
	return count, nil
}
