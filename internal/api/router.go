package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"andesgo/intake/internal/api/handlers"
	"andesgo/intake/internal/api/middleware"
	"andesgo/intake/internal/auth"
	"andesgo/intake/internal/captcha"
	"andesgo/intake/internal/config"
	"andesgo/intake/internal/email"
	"andesgo/intake/internal/models"
	"andesgo/intake/internal/services"
)

// HealthServiceName is reported by GET /v1/health.
const HealthServiceName = "AndesGO Email Service"

// Intake routes registered under /v1 that get their own soft rate limit.
const (
	pathStorageBookings = "/v1/storage-bookings"
	pathMailboxRequests = "/v1/mailbox-requests"
	pathShoppingQuotes  = "/v1/shopping-quotes"
)

// IntakeLimits applies the intake bucket from cfg to the three submission routes.
func IntakeLimits(cfg *config.Config) models.EndpointLimits {
	limit := models.RateLimitConfig{BucketSize: cfg.IntakeRateLimitBucketSize, TokenRefillRate: cfg.IntakeRateLimitRefillRate}
	return models.EndpointLimits{
		middleware.EndpointKey(http.MethodPost, pathStorageBookings): limit,
		middleware.EndpointKey(http.MethodPost, pathMailboxRequests): limit,
		middleware.EndpointKey(http.MethodPost, pathShoppingQuotes):  limit,
	}
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, intake services.IIntakeService, directory services.IStoreDirectory, captchaVerifier captcha.ITurnstileVerifier) *gin.Engine {
	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg, IntakeLimits(cfg))

	// Order matters: the limiter reads the captcha result.
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigin))
	r.Use(middleware.CaptchaMiddleware(cfg, captchaVerifier))
	r.Use(rateLimiter.Limit())

	intakeHandler := handlers.NewIntakeHandler(intake)
	restConfigHandler := handlers.NewRestConfigHandler(cfg, intake)
	restStoreHandler := handlers.NewRestStoreHandler(directory)
	operatorHandler := handlers.NewOperatorHandler(cfg, intake)

	v1 := r.Group("/v1")
	{
		v1.POST("/storage-bookings", intakeHandler.CreateStorageBooking)
		v1.GET("/storage-bookings/quote", intakeHandler.QuoteStorageBooking)
		v1.POST("/mailbox-requests", intakeHandler.CreateMailboxRequest)
		v1.POST("/shopping-quotes", intakeHandler.CreateShoppingQuote)

		v1.GET("/stores", restStoreHandler.ListStores)
		v1.GET("/config", restConfigHandler.GetPublicConfig)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "OK",
				"service":   HealthServiceName,
				"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			})
		})

		v1.POST("/operator/login", operatorHandler.Login)

		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.GET("/requests", operatorHandler.ListRequests)
			adminRequired.GET("/requests/:id", operatorHandler.GetRequest)
		}
	}

	return r
}

// mockMailbox is the part of the Redis client used to read captured emails.
type mockMailbox interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ServiceDeps are the collaborators of the service API. Mailbox is nil when
// mock services are off; Templates may be backed by defaults only.
type ServiceDeps struct {
	Mailbox   mockMailbox
	Templates services.IEmailTemplateService
}

// SetupServiceRouter configures and returns the service Gin engine.
func SetupServiceRouter(cfg *config.Config, deps ServiceDeps, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				log.Println("Shutdown signal sent successfully.")
			default:
				log.Println("Shutdown channel already signaled or blocked.")
			}

		case "getTestEmail":
			getTestEmail(c, deps.Mailbox, req.Arguments)

		case "issueOperatorToken":
			token, err := auth.GenerateJWT(auth.OperatorSubject, true, cfg.JwtSecret, cfg.JwtTTL)
			if err != nil {
				log.Printf("Service API: failed to issue operator token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": token})

		case "hashOperatorPassword":
			var args []string
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 1 || args[0] == "" {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [password]"})
				return
			}
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				log.Printf("Service API: failed to hash operator password: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to hash password"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": hash})

		case "saveEmailTemplate":
			var args []models.EmailTemplate
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 1 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [template]"})
				return
			}
			templateCall(c, deps.Templates.SaveTemplate(c.Request.Context(), &args[0]))

		case "deleteEmailTemplate":
			var args []string
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [templateId, locale]"})
				return
			}
			templateCall(c, deps.Templates.DeleteTemplate(c.Request.Context(), args[0], args[1]))

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

func templateCall(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, services.ErrTemplateStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	}
}

// getTestEmail polls Redis briefly for the captured message of
// arguments [tag, email] and deletes it once read.
func getTestEmail(c *gin.Context, mailbox mockMailbox, arguments json.RawMessage) {
	if mailbox == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Mock services are disabled"})
		return
	}
	var args []string
	if err := json.Unmarshal(arguments, &args); err != nil || len(args) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [tag, email]"})
		return
	}
	redisKey := email.MockEmailKey(args[1], args[0])

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var emailJsonData string
	found := false
	for i := 0; i < 10; i++ {
		data, err := mailbox.Get(ctx, redisKey).Result()
		if err == nil {
			emailJsonData = data
			found = true
			mailbox.Del(ctx, redisKey)
			break
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
		return
	}

	var emailData map[string]interface{}
	if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
		log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})
}
