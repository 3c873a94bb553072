package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/lchampz/saas-bakery/internal/api"
	"github.com/lchampz/saas-bakery/internal/assistant"
	"github.com/lchampz/saas-bakery/internal/auth"
	"github.com/lchampz/saas-bakery/internal/config"
	"github.com/lchampz/saas-bakery/internal/database"
	"github.com/lchampz/saas-bakery/internal/events"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
	"github.com/lchampz/saas-bakery/internal/services"
	"github.com/lchampz/saas-bakery/internal/utils"
)

const (
	redisKeyPrefix    = "bakery:"
	kafkaGroupID      = "bakery-ws"
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	// a missing .env is normal in production
	envErr := godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envErr != nil {
		log.Info("ℹ️ No .env file, using process environment")
	} else {
		log.Info("✅ Environment loaded from .env")
	}
	log.Info("📋 Database configured", "url", redactURL(cfg.DatabaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("❌ Database connection failed", "error", err)
	}
	defer database.Close(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("❌ Migration failed", "error", err)
	}
	log.Info("✅ Database migrations completed")

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := models.InitDefaultUsers(db, []models.DefaultAccount{
			{Email: cfg.AdminEmail, Password: cfg.AdminPassword, Role: models.RoleAdmin},
		})
		if err != nil {
			log.Warn("⚠️ Default admin not created", "error", err)
		} else if created > 0 {
			log.Info("👤 Default admin created", "email", cfg.AdminEmail)
		}
	}

	// Redis is optional: without it caches and rate limits stay in process
	var redisClient *redis.Client
	var cache services.Cache = services.NewMemoryCache()
	if cfg.RedisURL != "" || len(cfg.RedisSentinelAddrs) > 0 {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL, cfg.RedisSentinelAddrs, cfg.RedisMasterName, log)
		if err != nil {
			log.Warn("⚠️ Redis connection failed, continuing without Redis", "error", err)
			redisClient = nil
		} else {
			defer database.CloseRedis(redisClient)
			cache = utils.NewRedisClient(redisClient, redisKeyPrefix)
		}
	}

	hub := api.NewHub(log)
	go hub.Run(ctx)

	// with Kafka every instance publishes to the topic and relays it to its own
	// dashboards; without it events go straight to the local hub
	var publisher events.Publisher = events.NewHubPublisher(hub)
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kcfg := events.KafkaConfig{
			Brokers:  brokers,
			Topic:    cfg.KafkaStockTopic,
			Username: cfg.KafkaUsername,
			Password: cfg.KafkaPassword,
			CACert:   cfg.KafkaCACert,
		}
		kafkaPublisher := events.NewKafkaPublisher(kcfg, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		consumer := events.NewConsumer(kcfg, kafkaGroupID, hub, log)
		defer consumer.Close()
		go consumer.Run(ctx)
		log.Info("📡 Kafka stock events enabled", "brokers", brokers, "topic", kcfg.Topic)
	} else {
		log.Info("ℹ️ KAFKA_BROKERS not set, stock events stay in process")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	productService := services.NewProductService(db, log)
	productService.SetCache(cache)

	recipeService := services.NewRecipeService(db, log)
	recipeService.SetCache(cache)
	recipeService.SetPublisher(publisher)

	purchaseService := services.NewPurchaseService(db, log)
	purchaseService.SetCache(cache)
	purchaseService.SetPublisher(publisher)

	reportService := services.NewReportService(db, recipeService.Ledger(), log)
	reportService.SetCache(cache, cfg.ReportCacheTTL)

	recipeAssistant := assistant.New(cfg.AI, log)
	log.Info("🤖 Recipe assistant ready", "provider", recipeAssistant.Provider())

	ifoodService := services.NewIFoodService(cache, log)
	ifoodService.SetPublisher(publisher)

	svc := api.Services{
		Auth:      services.NewAuthService(db, tokens, log),
		Products:  productService,
		Recipes:   recipeService,
		Suppliers: services.NewSupplierService(db, log),
		Purchases: purchaseService,
		Reports:   reportService,
		Exports:   services.NewExportService(db, log),
		Backup:    services.NewBackupService(db, log),
		AIRecipes: services.NewAIRecipeService(db, recipeAssistant, recipeService, log),
		IFood:     ifoodService,
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(svc, api.RouterConfig{
		Tokens:      tokens,
		FrontendURL: cfg.FrontendURL,
		Redis:       redisClient,
		Hub:         hub,
		RateLimit:   true,
	}, log)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info("🚀 Server starting", "port", cfg.ServerPort, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("❌ Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("❌ Graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// redactURL hides the credentials of a connection URL
func redactURL(raw string) string {
	at := strings.Index(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || scheme > at {
		return raw
	}
	return raw[:scheme+3] + "***@" + raw[at+1:]
}
