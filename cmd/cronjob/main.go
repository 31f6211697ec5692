package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rentstock-backend/internal/app"
	"rentstock-backend/internal/config"
	"rentstock-backend/internal/jobs"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile-failed-transfers', 'issue-period-transfers', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rentstock Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()
	if err := app.ResolveSecrets(ctx, cfg); err != nil {
		logger.Error("Failed to resolve secrets", "error", err)
		log.Fatalf("Failed to resolve secrets: %v", err)
	}

	container, err := app.New(ctx, cfg, logger.Get())
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer container.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(
		&jobs.Repositories{
			Orgs:    container.Store.OrganizationRepository,
			Periods: container.Store.PeriodRepository,
			Leases:  container.Store.LeaseRepository,
		},
		container.Ledger,
		&jobs.Services{
			Registry:  container.Registry,
			Detector:  container.Detector,
			Shortfall: container.Shortfall,
		},
		cfg,
		logger.Get(),
	)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			container.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once; it reports false for an unknown job name
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	if jobName == "all" {
		jobRunner.RunAll()
		return true
	}
	job, ok := jobRunner.Job(jobName)
	if !ok {
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		for _, j := range jobRunner.Jobs() {
			fmt.Printf("  - %s (%s)\n", j.Name, j.Schedule)
		}
		fmt.Printf("  - all\n")
		return false
	}
	job.Run()
	return true
}
