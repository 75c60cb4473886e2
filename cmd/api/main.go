package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/kafka"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/auth"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/catalog"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/order"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/payment"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/user"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)
	userHandler.RegisterRoutes(router)

	authService := auth.NewService(userRepo, jwtSecret)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Catalog ─────────────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)
	catalogHandler.RegisterRoutes(router)

	// ── Payment gateway ─────────────────────────────────────
	// The credential lives on the adapter instance and is injected below.
	gateway := payment.NewStripeGateway(
		os.Getenv("STRIPE_SECRET_KEY"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
		os.Getenv("STRIPE_API_BASE"),
	)

	// ── Notification dispatcher ─────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := os.Getenv("KAFKA_TOPIC_NOTIFICATIONS")
	if topic == "" {
		topic = kafka.TopicNotifications
	}
	producer := kafka.NewProducer(splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")), topic, 256)
	producer.Start(ctx)

	rdb := redisx.New(getenv("REDIS_ADDR", "localhost:6379"))

	// ── Orders ──────────────────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(
		orderRepo,
		gateway,
		userRepo,
		order.NewKafkaNotifier(producer),
		order.NewRedisDeduper(rdb),
	)
	orderHandler := order.NewHandler(orderService)

	// Webhook: signed payload, no user auth.
	orderHandler.RegisterWebhookRoutes(router, gateway)

	// Authenticated surface.
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret))
		orderHandler.RegisterRoutes(r)
		userHandler.RegisterProtectedRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			orderHandler.RegisterAdminRoutes(r)
			catalogHandler.RegisterAdminRoutes(r)
		})
	})

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		fmt.Printf("Order API server starting on :%s\n", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("server shutdown:", err)
	}

	// Stop the dispatcher after the server so in-flight handlers can still
	// enqueue; cancellation flushes the inbox before the process exits.
	cancel()
	producer.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
