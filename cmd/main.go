package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	aihandler "github.com/Jamolkhon5/dealdesk/internal/ai/copilot/handler"
	"github.com/Jamolkhon5/dealdesk/internal/cache"
	"github.com/Jamolkhon5/dealdesk/internal/config"
	"github.com/Jamolkhon5/dealdesk/internal/handler"
	"github.com/Jamolkhon5/dealdesk/internal/repository"
	"github.com/Jamolkhon5/dealdesk/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.NewConfig(".env")
	if err != nil {
		log.Fatal(err)
	}

	// Подключение к базе данных
	dbURL := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.PgHost, cfg.PgPort, cfg.PgUser, cfg.PgPassword, cfg.PgName)

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := repository.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		log.Fatal(err)
	}

	// Файловое хранилище
	store, err := storage.NewStore(context.Background(), storage.Config{
		Bucket:   cfg.S3Bucket,
		Region:   cfg.S3Region,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Кеш опционален: без REDIS_ADDR работаем напрямую с базой
	c := cache.New(cfg.RedisAddr, cfg.RedisPassword)
	if !c.Enabled() {
		log.Println("Redis is not configured, caching disabled")
	}

	h := handler.NewHandler(repo, store, c)
	copilot := aihandler.NewCopilotHandler(repo, cfg.MistralApiKey, cfg.ModelName)

	// Настройка роутера
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	h.RegisterRoutes(r)
	copilot.RegisterRoutes(r)

	// Настройка и запуск сервера
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}
