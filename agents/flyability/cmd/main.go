package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"flyticker/agents/flyability"
	"flyticker/shared/config"
	"flyticker/shared/email"
	"flyticker/shared/monitoring"
	"flyticker/shared/scheduler"
	"flyticker/shared/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	monitor := monitoring.NewMonitor()
	agent := flyability.NewFlyabilityAgent(cfg, monitor)
	s := scheduler.New(cfg, agent, monitor)

	mode := ""
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "--once":
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}

		store := storage.NewStore(cfg.Storage.DataDir, cfg.Storage.EphemeralDir)
		if batch, err := store.LoadEvaluations(); err == nil {
			fmt.Println()
			fmt.Println(flyability.FormatReport(batch, cfg.Forecast.FlightHoursStart, cfg.Forecast.FlightHoursEnd))
		}

	case "--serve":
		// Dashboard API only, no cron. Useful behind a separate scheduler.
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		store := storage.NewStore(cfg.Storage.DataDir, cfg.Storage.EphemeralDir)
		availability := flyability.NewAvailability(cfg, store, agent)
		web := flyability.NewWebServer(cfg, availability, email.NewNotifier(&cfg.Email))
		web.Start()

		fmt.Printf("Serving dashboard API on port %d...\n", cfg.Web.Port)
		<-ctx.Done()

	default:
		fmt.Println("Starting scheduler...")
		if err := s.Start(ctx); err != nil {
			log.Fatalf("Scheduler failed: %v", err)
		}
	}
}
