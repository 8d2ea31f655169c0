package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// 单个客户端条目的闲置回收阈值
const limiterIdleTTL = 10 * time.Minute

// clientLimiter 单客户端限流条目
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware 限流中间件
// 按客户端 IP 各自限流,单个批量调用方打满配额不影响其他租户的操作。
// 条目闲置超过 limiterIdleTTL 在下一次访问时顺带回收
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*clientLimiter)
		lastScan = time.Now()
	)

	return func(c *gin.Context) {
		key := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastScan) > limiterIdleTTL {
			for ip, cl := range limiters {
				if now.Sub(cl.lastSeen) > limiterIdleTTL {
					delete(limiters, ip)
				}
			}
			lastScan = now
		}

		cl, ok := limiters[key]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			limiters[key] = cl
		}
		cl.lastSeen = now
		allowed := cl.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Code:    429,
				Message: "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
