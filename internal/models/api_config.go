package models

// RateLimitConfig holds token bucket parameters.
type RateLimitConfig struct {
	BucketSize      int `json:"bucket_size"`
	TokenRefillRate int `json:"token_refill_rate"` // Tokens per second
}

// EndpointLimits overrides the default soft limit for specific routes,
// keyed by "METHOD /full/path" as registered with gin.
type EndpointLimits map[string]RateLimitConfig
