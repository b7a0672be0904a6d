// Command host-sim streams the simulated host (ownship) aircraft over
// WebSocket and accepts reset commands.
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

	log.Println("🛩️  ADS-BSIM host simulator")
	log.Printf("   Seed: %.4f, %.4f  FL%03.0f  %0.f kt  heading %03.0f  (%s turn)",
		cfg.Host.Latitude, cfg.Host.Longitude, cfg.Host.Altitude/100,
		cfg.Host.Speed, cfg.Host.Heading, cfg.Host.TurnPolicy)

	if cfg.Auth.Enabled {
		log.Printf("🔒 Reset requires an operator token (%d operators)", len(cfg.Auth.Operators))
	}

	srv := server.New(sim.NewHost(cfg.Host), cfg.Host.Server, server.Options{
		ResetMessage: sim.HostResetMessage,
		Auth:         auth.FromConfig(cfg.Auth),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
