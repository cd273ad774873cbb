package main

import (
	"context"
	"log"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/workflow"
)

// Nightly job: recompute overdue flags and risk labels over the active loan
// book. Meant to run as a scheduled Cloud Run job; the sweep itself takes a
// redis lock so overlapping invocations do not double-scan.
func main() {
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	summary, err := workflow.RefreshAllOverdueLoans(ctx, time.Now())
	if err != nil {
		log.Fatalf("overdue refresh: %v", err)
	}
	log.Printf("scanned %d active loans: %v", summary.LoansScanned, summary.ByRiskLabel)
}
