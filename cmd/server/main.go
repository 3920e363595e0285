package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/skillyboy/agrolinker/internal/config"
	"github.com/skillyboy/agrolinker/internal/handler"
	"github.com/skillyboy/agrolinker/internal/payment"
	"github.com/skillyboy/agrolinker/internal/repository"
	"github.com/skillyboy/agrolinker/internal/service"
	"github.com/skillyboy/agrolinker/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	thriftRepo := repository.NewThriftRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	// Initialize services
	thriftService := service.NewThriftService(thriftRepo, payment.DefaultRegistry())
	loanService := service.NewLoanService(loanRepo, redisClient)

	thriftHandler := handler.NewThriftHandler(thriftService)
	loanHandler := handler.NewLoanHandler(loanService)
	webhookHandler := handler.NewWebhookHandler(loanService, cfg)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(thriftHandler, loanHandler, webhookHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      response.LoggingMiddleware(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	thriftHandler *handler.ThriftHandler,
	loanHandler *handler.LoanHandler,
	webhookHandler *handler.WebhookHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health checks
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Thrift groups
	api.HandleFunc("/thrift/groups", thriftHandler.CreateGroup).Methods("POST")
	api.HandleFunc("/thrift/groups/{groupId}/join", thriftHandler.JoinGroup).Methods("POST")
	api.HandleFunc("/thrift/groups/{groupId}/members", thriftHandler.GetMembers).Methods("GET")
	api.HandleFunc("/thrift/groups/{groupId}/contributions", thriftHandler.RecordContribution).Methods("POST")
	api.HandleFunc("/thrift/groups/{groupId}/pot", thriftHandler.GetPot).Methods("GET")
	api.HandleFunc("/thrift/groups/{groupId}/payouts", thriftHandler.ExecutePayout).Methods("POST")
	api.HandleFunc("/thrift/contributions/{contributionId}/verify", thriftHandler.VerifyContribution).Methods("POST")
	api.HandleFunc("/thrift/payouts/{payoutId}/disburse", thriftHandler.DisbursePayout).Methods("POST")

	// Loans
	api.HandleFunc("/loans/apply", loanHandler.Apply).Methods("POST")
	api.HandleFunc("/loans/repay", webhookHandler.RecordRepayment).Methods("POST")
	api.HandleFunc("/loans/{reference}/outstanding", loanHandler.GetOutstanding).Methods("GET")
	api.HandleFunc("/loans/{reference}/schedule", loanHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/loans/{reference}/repayments", loanHandler.GetRepayments).Methods("GET")
	api.HandleFunc("/loans/{reference}/approve", loanHandler.Approve).Methods("POST")
	api.HandleFunc("/loans/{reference}/reject", loanHandler.Reject).Methods("POST")
	api.HandleFunc("/loans/{reference}/disburse", loanHandler.Disburse).Methods("POST")
	api.HandleFunc("/loans/{reference}/default", loanHandler.MarkDefaulted).Methods("POST")
	api.HandleFunc("/farmers/{farmerId}/loans", loanHandler.GetHistory).Methods("GET")

	return router
}
