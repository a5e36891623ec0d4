// Command allocator creates the month allocations for every payment-enabled
// child. Meant to run from cron at the start of each month; safe to re-run,
// existing allocations are skipped.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"carepay/config"
	"carepay/internal/database"
	"carepay/internal/refdata"
	"carepay/internal/repository"
	"carepay/internal/service"
	"carepay/pkg/chek"
)

func main() {
	monthFlag := flag.String("month", "", "target month as YYYY-MM (default: current month)")
	dryRun := flag.Bool("dry-run", false, "report what would be created without writing")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	month := time.Now()
	if *monthFlag != "" {
		parsed, err := time.Parse("2006-01", *monthFlag)
		if err != nil {
			log.Fatalf("invalid -month %q: %v", *monthFlag, err)
		}
		month = parsed
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	source := refdata.NewStaticSource()
	if path := os.Getenv("REFDATA_PATH"); path != "" {
		if err := source.LoadFile(path); err != nil {
			log.Fatalf("reference data: %v", err)
		}
	}

	allocationRepo := repository.NewAllocationRepository(db)
	careDayRepo := repository.NewCareDayRepository(db)
	lumpSumRepo := repository.NewLumpSumRepository(db)
	rateRepo := repository.NewRateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	chekClient := chek.NewClient(cfg.Chek.BaseURL, cfg.Chek.AccountID, cfg.Chek.APIKey, cfg.Chek.WriteKey)
	paymentSvc := service.NewPaymentService(cfg, allocationRepo, careDayRepo, lumpSumRepo, paymentRepo, settingsRepo, chekClient, source)
	allocationSvc, err := service.NewAllocationService(cfg, allocationRepo, careDayRepo, lumpSumRepo, rateRepo, source, paymentSvc)
	if err != nil {
		log.Fatalf("allocation service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result := allocationSvc.CreateAllocationsForMonth(ctx, month, *dryRun)
	for _, err := range result.Errors {
		log.Printf("allocation error: %v", err)
	}
	log.Printf("done: %d created, %d skipped, %d errors", result.Created, result.Skipped, len(result.Errors))
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
