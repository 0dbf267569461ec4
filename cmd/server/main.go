package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/RutamBhagat/automated-price-tracking/internal/cache"
	h "github.com/RutamBhagat/automated-price-tracking/internal/http"
	"github.com/RutamBhagat/automated-price-tracking/internal/notifier"
	"github.com/RutamBhagat/automated-price-tracking/internal/repository"
	"github.com/RutamBhagat/automated-price-tracking/internal/scheduler"
	"github.com/RutamBhagat/automated-price-tracking/internal/scraper"
	s "github.com/RutamBhagat/automated-price-tracking/internal/service"
)

type Config struct {
	HTTPPort string

	DB repository.Credentials

	RedisAddr     string
	RedisPassword string

	ScraperAPIURL string
	ScraperAPIKey string

	NotifyMode     string // "smtp" or "kafka"
	SMTP           notifier.SMTPConfig
	AlertRecipient string
	KafkaBrokers   []string
	KafkaTopic     string

	DropThreshold decimal.Decimal
	CheckInterval time.Duration

	RequestTimeout  time.Duration
	CheckTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		DB: repository.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              getEnvInt("POSTGRES_PORT", 5432),
			User:              getEnv("POSTGRES_USER", "postgres"),
			Password:          getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:            getEnv("POSTGRES_DB", "price_tracker"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "internal/repository/migrations"),
		},
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		ScraperAPIURL: getEnv("SCRAPER_API_URL", "https://api.firecrawl.dev/v1/scrape"),
		ScraperAPIKey: getEnv("SCRAPER_API_KEY", ""),
		NotifyMode:    getEnv("NOTIFY_MODE", "smtp"),
		SMTP: notifier.SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		AlertRecipient:  getEnv("ALERT_RECIPIENT", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:      getEnv("KAFKA_ALERT_TOPIC", "price-drop-alerts"),
		DropThreshold:   getEnvDecimal("PRICE_DROP_THRESHOLD", "0.05"),
		CheckInterval:   getEnvDuration("CHECK_INTERVAL", 6*time.Hour),
		RequestTimeout:  30 * time.Second,
		CheckTimeout:    10 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Fatalf("invalid %s: %v", key, err)
		}
		return parsed
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			log.Fatalf("invalid %s: %v", key, err)
		}
		return parsed
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	raw := getEnv(key, defaultValue)
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return parsed
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := loadConfig()

	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to postgres at %s:%d", cfg.DB.Host, cfg.DB.Port)

	ctx := context.Background()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	recordCache := cache.NewRedisCache(redisClient)
	scraperClient := scraper.NewClient(cfg.ScraperAPIURL, cfg.ScraperAPIKey)

	var alertNotifier notifier.Notifier
	switch cfg.NotifyMode {
	case "kafka":
		alertNotifier = notifier.NewKafkaNotifier(cfg.KafkaTopic, cfg.KafkaBrokers...)
	case "smtp":
		alertNotifier = notifier.NewSMTPNotifier(cfg.SMTP)
	default:
		log.Fatalf("unknown NOTIFY_MODE %q, want smtp or kafka", cfg.NotifyMode)
	}

	// One lock set for every history writer, so Track and check cycles for
	// the same URL are serialized.
	locks := s.NewURLLocks()
	productService := s.NewProductService(repo, recordCache, scraperClient, locks)
	checker := s.NewPriceChecker(repo, recordCache, scraperClient, alertNotifier, s.CheckerConfig{
		DropThreshold: cfg.DropThreshold,
		Recipient:     cfg.AlertRecipient,
	}, locks)

	productHandler := h.NewProductHandler(productService, cfg.RequestTimeout)
	checkHandler := h.NewCheckHandler(checker, cfg.CheckTimeout)
	router := h.NewRouter(productHandler, checkHandler, cfg.CheckTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.CheckTimeout,
		IdleTimeout:  60 * time.Second,
	}

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("price checks scheduled every %s", cfg.CheckInterval)
		scheduler.New(checker, cfg.CheckInterval).Run(schedulerCtx)
	}()

	go func() {
		log.Printf("Price tracker listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	wg.Wait()

	log.Println("server exited")
}
