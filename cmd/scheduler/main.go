package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/skillyboy/agrolinker/internal/config"
	"github.com/skillyboy/agrolinker/internal/repository"
	"github.com/skillyboy/agrolinker/internal/service"
)

func main() {
	log.Println("Starting loan scheduler...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	loanRepo := repository.NewLoanRepository(db)
	loanService := service.NewLoanService(loanRepo, nil)

	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetSchedulerLocation()))

	setupCronJobs(c, loanService)

	c.Start()
	log.Println("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, loanService *service.LoanService) {
	// Daily job to mark overdue installments (runs at midnight)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		log.Println("Running daily overdue installment job...")
		markOverdueInstallments(loanService)
	})
	if err != nil {
		log.Printf("Error scheduling overdue installment job: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}

func markOverdueInstallments(loanService *service.LoanService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	updated, err := loanService.MarkOverdueInstallments(ctx)
	if err != nil {
		log.Printf("Overdue installment job failed: %v", err)
		return
	}

	log.Printf("Marked %d installments overdue", updated)
}
