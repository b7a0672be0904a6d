// Command traffic-sim streams simulated traffic around the host seed
// position over WebSocket and accepts reset commands.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unklstewy/ads-bsim/internal/auth"
	"github.com/unklstewy/ads-bsim/internal/logging"
	"github.com/unklstewy/ads-bsim/internal/server"
	"github.com/unklstewy/ads-bsim/pkg/config"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
	"github.com/unklstewy/ads-bsim/pkg/sim"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCloser, err := logging.Setup(cfg.Logging, logging.Options{Console: true})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	// Traffic is placed around where the host starts
	center := coordinates.Geographic{
		Latitude:  cfg.Host.Latitude,
		Longitude: cfg.Host.Longitude,
	}

	log.Println("✈️  ADS-BSIM traffic simulator")
	log.Printf("   %d aircraft within ±%.1f° of %.4f, %.4f (seed %d)",
		cfg.Traffic.Count, cfg.Traffic.SpreadDeg, center.Latitude, center.Longitude, cfg.Traffic.Seed)

	if cfg.Auth.Enabled {
		log.Printf("🔒 Reset requires an operator token (%d operators)", len(cfg.Auth.Operators))
	}

	srv := server.New(sim.NewTraffic(cfg.Traffic, center), cfg.Traffic.Server, server.Options{
		ResetMessage: sim.TrafficResetMessage,
		Auth:         auth.FromConfig(cfg.Auth),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
