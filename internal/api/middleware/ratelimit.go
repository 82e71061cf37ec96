package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"andesgo/intake/internal/config"
	"andesgo/intake/internal/models"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTimeout     = 30 * time.Minute
)

// clientLimiter stores rate limiters for one client on one endpoint.
type clientLimiter struct {
	softLimiter *rate.Limiter
	hardLimiter *rate.Limiter
	lastSeen    time.Time
}

// RateLimiterMiddleware applies two token buckets per client and endpoint.
// Exhausting the hard bucket is a 429; exhausting the soft bucket asks the
// client to solve a captcha (418) unless it already has.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
	limits  models.EndpointLimits
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware. limits
// overrides the configured soft bucket for individual routes.
func NewRateLimiterMiddleware(cfg *config.Config, limits models.EndpointLimits) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		limits:  limits,
	}
	go rm.cleanupClients()
	return rm
}

// EndpointKey is the key used in models.EndpointLimits.
func EndpointKey(method, fullPath string) string {
	return method + " " + fullPath
}

func clientIdentifier(c *gin.Context) string {
	return c.ClientIP() + "|" + c.GetHeader("X-BFP") + "|" + c.GetHeader("X-SPA")
}

func (rm *RateLimiterMiddleware) getClientLimiter(key string, soft, hard models.RateLimitConfig) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, exists := rm.clients[key]
	if !exists {
		limiter = &clientLimiter{
			softLimiter: rate.NewLimiter(rate.Limit(soft.TokenRefillRate), soft.BucketSize),
			hardLimiter: rate.NewLimiter(rate.Limit(hard.TokenRefillRate), hard.BucketSize),
		}
		rm.clients[key] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter
}

func (rm *RateLimiterMiddleware) cleanupClients() {
	for {
		time.Sleep(limiterCleanupInterval)
		if n := rm.evictIdle(time.Now()); n > 0 {
			log.Printf("Rate limiter cleanup removed %d old client entries.", n)
		}
	}
}

// evictIdle drops limiters not used since limiterIdleTimeout before now.
func (rm *RateLimiterMiddleware) evictIdle(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for id, client := range rm.clients {
		if now.Sub(client.lastSeen) > limiterIdleTimeout {
			delete(rm.clients, id)
			count++
		}
	}
	return count
}

// Limit creates the Gin middleware handler. It must run after CaptchaMiddleware.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := EndpointKey(c.Request.Method, c.FullPath())

		soft := models.RateLimitConfig{BucketSize: rm.cfg.RateLimitSoftBucketSize, TokenRefillRate: rm.cfg.RateLimitSoftRefillRate}
		hard := models.RateLimitConfig{BucketSize: rm.cfg.RateLimitHardBucketSize, TokenRefillRate: rm.cfg.RateLimitHardRefillRate}
		if override, ok := rm.limits[endpoint]; ok {
			soft = override
		}

		clientKey := clientIdentifier(c)
		limiter := rm.getClientLimiter(clientKey+"|"+endpoint, soft, hard)

		if !limiter.hardLimiter.Allow() {
			log.Printf("Hard rate limit exceeded for client: %s on %s", clientKey, endpoint)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		if !c.GetBool(ContextKeyIsHumanVerified) && !limiter.softLimiter.Allow() {
			log.Printf("Soft rate limit exceeded for client: %s on %s (captcha required)", clientKey, endpoint)
			c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"error": "Captcha validation required"})
			return
		}

		c.Next()
	}
}
