// Command scope is a terminal radar scope for the host and traffic
// simulator streams.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/ads-bsim/internal/db"
	"github.com/unklstewy/ads-bsim/internal/logging"
	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/bullseye"
	"github.com/unklstewy/ads-bsim/pkg/config"
	"github.com/unklstewy/ads-bsim/pkg/store"
	"github.com/unklstewy/ads-bsim/pkg/view"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The terminal belongs to the display; log to a file only
	logCloser, err := logging.Setup(cfg.Logging, logging.Options{
		DefaultFile: logging.DefaultFile("scope.log"),
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var bullseyes bullseye.Store
	if bs, closer, err := db.OpenBullseyeStore(ctx, cfg); err != nil {
		log.Printf("⚠️  Bullseye unavailable: %v", err)
	} else {
		bullseyes = bs
		defer closer.Close()
	}

	tracks := store.New(cfg.Client.BreadcrumbCount)
	controller := view.NewController(cfg.Client.Zoom, 80, 48)

	m := model{
		store:        tracks,
		view:         controller,
		bullseyes:    bullseyes,
		hostReset:    adsb.NewResetClient(cfg.Client.HostResetURL, cfg.Client.Token),
		trafficReset: adsb.NewResetClient(cfg.Client.TrafficResetURL, cfg.Client.Token),
		conn:         make(map[string]adsb.ConnectionState),
		zoom:         cfg.Client.Zoom,
		now:          time.Now(),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	retry := adsb.RetryConfig{
		MaxRetries:   -1,
		InitialDelay: time.Duration(cfg.Client.ReconnectInitialMillis) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Client.ReconnectMaxMillis) * time.Millisecond,
		Multiplier:   2.0,
	}
	streams := []struct {
		name   string
		url    string
		handle adsb.FrameHandler
	}{
		{"host", cfg.Client.HostStreamURL, tracks.HandleHostFrame},
		{"traffic", cfg.Client.TrafficStreamURL, tracks.HandleTrafficFrame},
	}
	for _, st := range streams {
		name := st.name
		client := adsb.NewStreamClient(st.url,
			adsb.WithRetry(retry),
			adsb.WithStateCallback(func(s adsb.ConnectionState) {
				p.Send(connMsg{stream: name, state: s})
			}),
		)
		go func(handle adsb.FrameHandler) {
			if err := client.Run(ctx, handle); err != nil && ctx.Err() == nil {
				log.Printf("❌ %s stream stopped: %v", name, err)
			}
		}(st.handle)
	}

	sub := tracks.Subscribe()
	defer sub.Unsubscribe()
	go func() {
		for snap := range sub.C {
			p.Send(snapshotMsg(snap))
		}
	}()

	log.Printf("🛰️  Scope started (host %s, traffic %s)", cfg.Client.HostStreamURL, cfg.Client.TrafficStreamURL)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Println("👋 Scope stopped")
}
