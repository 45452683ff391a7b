package main

import (
	"complaintportal/backend/internal/api/handler"
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/eventhub"
	"complaintportal/backend/internal/localization"
	"complaintportal/backend/internal/notify"
	"complaintportal/backend/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Database and Redis connections established.")
	return db, rdb
}

// setupNotifier returns a Telegram notifier when a bot token and chat are configured.
func setupNotifier(cfg *config.Config) (notify.Notifier, func()) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		log.Println("INFO: Telegram notifications disabled")
		return notify.Nop{}, func() {}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Printf("WARN: Telegram bot unavailable, notifications disabled: %v", err)
		return notify.Nop{}, func() {}
	}
	loc, err := localization.Open(cfg.LocalesDir, cfg.Language)
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	n := notify.NewTelegramNotifier(bot, cfg.TelegramChatID, loc, cfg.Language)
	n.Run()
	log.Printf("INFO: Telegram notifications go to chat %d as @%s", cfg.TelegramChatID, bot.Self.UserName)
	return n, n.Close
}

func main() {
	log.Println("Starting complaint portal backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)
	if err := s.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := eventhub.NewHub()
	go hub.Run(ctx)
	events := s.SubscribeToEvents(ctx)
	defer events.Close()
	hub.StartPubSubListener(ctx, events)

	notifier, closeNotifier := setupNotifier(cfg)
	defer closeNotifier()

	h := handler.NewHandler(s, hub, notifier, cfg)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        h.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("INFO: listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: graceful shutdown failed: %v", err)
	}
}
