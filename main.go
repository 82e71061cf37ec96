package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"andesgo/intake/internal/api"
	"andesgo/intake/internal/cache"
	"andesgo/intake/internal/captcha"
	"andesgo/intake/internal/config"
	"andesgo/intake/internal/db"
	"andesgo/intake/internal/email"
	"andesgo/intake/internal/events"
	"andesgo/intake/internal/pricing"
	"andesgo/intake/internal/services"
	"andesgo/intake/internal/storage"
	"andesgo/intake/internal/store"
	"andesgo/intake/internal/tasks"
	"andesgo/intake/internal/validation"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (attachment archiving), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// MongoDB is optional: it backs the record store and template overrides.
	var mongoDb *mongo.Database
	if cfg.MongoURI != "" {
		mongoClient, database, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		mongoDb = database
		defer func() {
			if err := db.DisconnectDB(mongoClient); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() {
			if err := cache.DisconnectRedis(redisClient); err != nil {
				log.Printf("Error disconnecting from Redis: %v", err)
			}
		}()
	} else if cfg.MockServices {
		log.Fatalf("MOCK_SERVICES requires REDIS_ADDR")
	}

	recordStore, closeStore, err := openRecordStore(context.Background(), cfg, mongoDb)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer closeStore()

	emailSender, err := buildEmailSender(cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize email sender: %v", err)
	}

	emailTemplateService := services.NewEmailTemplateService(mongoDb)

	// S3 archive, needed by the background worker and to decide whether
	// the API enqueues archive tasks at all.
	var archive storage.IS3Storage
	if cfg.AwsS3Bucket != "" {
		archive, err = storage.NewS3Storage(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	}

	var listeners []services.AcceptanceListener
	var taskClient *asynq.Client
	if redisClient != nil && archive != nil {
		taskClient = tasks.NewClient(redisClient)
		defer taskClient.Close()
		listeners = append(listeners, tasks.NewAttachmentArchiver(taskClient))
	}
	if cfg.RabbitURL != "" {
		publisher, err := events.Connect(cfg.RabbitURL, cfg.RabbitExchange, cfg.AppName)
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
		defer publisher.Close()
		listeners = append(listeners, publisher)
	}

	composer := services.NewNotificationComposer(cfg, emailTemplateService, time.Now)
	dispatcher := services.NewNotificationDispatcher(cfg, emailSender, composer)
	intakeService := services.NewIntakeService(
		validation.New(cfg.AttachmentMaxBytes()),
		pricing.NewQuoter(ratesFromConfig(cfg)),
		composer,
		dispatcher,
		recordStore,
		time.Now,
		cfg.MailSendTimeout,
		listeners...,
	)

	var wg sync.WaitGroup

	shutdownChan := make(chan struct{}, 1)

	serviceDeps := api.ServiceDeps{Templates: emailTemplateService}
	if cfg.MockServices {
		serviceDeps.Mailbox = redisClient
	}
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(cfg, serviceDeps, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Printf("Service API listening on :%s\n", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API ListenAndServe error: %v", err)
		}
		fmt.Println("Service API server stopped.")
	}()

	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		fmt.Println("Starting main API server...")
		mainApiRouter := api.SetupRouter(cfg, intakeService, services.NewStoreDirectory(), captcha.NewTurnstileVerifier(cfg))
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: mainApiRouter,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("Main API listening on :%s\n", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Main API ListenAndServe error: %v", err)
			}
			fmt.Println("Main API server stopped.")
		}()
	}

	bgMode := func() {
		if redisClient == nil || archive == nil {
			log.Println("Background worker disabled: REDIS_ADDR and AWS_S3_BUCKET are both required.")
			return
		}
		fmt.Println("Starting background worker...")
		srv, mux := tasks.SetupServer(redisClient, tasks.NewTaskProcessor(cfg, archive))
		if err := srv.Start(mux); err != nil {
			log.Fatalf("Background task server error: %v", err)
		}
		backgroundTaskSrv = srv
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)
	case <-shutdownChan:
		fmt.Println("\nShutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	fmt.Println("Shutting down Service API server...")
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Service API server shutdown error: %v", err)
	}

	if mainApiSrv != nil {
		fmt.Println("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Main API server shutdown error: %v", err)
		}
	}

	if backgroundTaskSrv != nil {
		fmt.Println("Shutting down Background Task server...")
		backgroundTaskSrv.Shutdown()
	}

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}

func ratesFromConfig(cfg *config.Config) pricing.Rates {
	return pricing.Rates{
		HourlyRate:              cfg.HourlyRate,
		HourlyCap:               cfg.HourlyCap,
		DailyRate:               cfg.DailyRate,
		WeeklyRate:              cfg.WeeklyRate,
		LongStayDays:            cfg.LongStayDays,
		LongStayDiscountPercent: cfg.LongStayDiscountPercent,
	}
}

// openRecordStore returns the configured backend and a func releasing it.
func openRecordStore(ctx context.Context, cfg *config.Config, mongoDb *mongo.Database) (store.RecordStore, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case "memory":
		log.Println("Using in-memory record store. Records are lost on restart.")
		return store.NewMemoryStore(), noop, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.SqlitePath)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("Using SQLite record store at %s", cfg.SqlitePath)
		return s, closeLogged("SQLite store", s), nil
	case "mongo":
		if mongoDb == nil {
			return nil, noop, errors.New("mongo store selected without a database")
		}
		s, err := store.NewMongoStore(ctx, mongoDb)
		if err != nil {
			return nil, noop, err
		}
		log.Println("Using MongoDB record store.")
		return s, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func closeLogged(name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Printf("Error closing %s: %v", name, err)
		}
	}
}

// buildEmailSender picks the primary transport and adds the optional file log.
// With MOCK_SERVICES the Redis sink replaces the real provider entirely.
func buildEmailSender(cfg *config.Config, redisClient *redis.Client) (email.Sender, error) {
	var primary email.Sender
	switch {
	case cfg.MockServices:
		if redisClient == nil {
			return nil, errors.New("mock email sender needs Redis")
		}
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		primary = email.NewRedisSender(redisClient, cfg)
	case cfg.MailProvider == "resend":
		log.Println("Using Resend email sender.")
		primary = email.NewResendSender(cfg)
	default:
		log.Println("Using SMTP email sender.")
		primary = email.NewSMTPSender(cfg)
	}

	compositeSender := email.NewCompositeEmailSender(primary)
	if cfg.LogEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(cfg.LogEmailsPath, cfg)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS='%s'): %v. Proceeding without file logging.", cfg.LogEmailsPath, err)
		} else {
			compositeSender.AddSender(fileSender)
			log.Println("File email logger added to composite sender.")
		}
	}
	return compositeSender, nil
}
