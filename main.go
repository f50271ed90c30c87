package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/dnldd/transitperf/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleTermination(ctx, cancel)

	dashboardCfg := service.DashboardConfig{
		BackendURL:      cfg.BackendURL,
		DataFilepath:    cfg.DataFilepath,
		Route:           cfg.Route,
		Stop:            cfg.Stop,
		Destination:     cfg.Destination,
		Category:        cfg.Category,
		Period:          cfg.Period,
		Watch:           cfg.Watch,
		ArchiveEndpoint: cfg.ArchiveEndpoint,
		ArchiveUser:     cfg.ArchiveUser,
		ArchivePass:     cfg.ArchivePass,
		History:         cfg.History,
		Output:          os.Stdout,
	}
	dashboard, err := service.NewDashboard(ctx, &dashboardCfg)
	if err != nil {
		log.Printf("creating dashboard service: %v", err)
		return
	}

	err = dashboard.Run(ctx)
	if err != nil {
		log.Printf("running dashboard service: %v", err)
	}
}
