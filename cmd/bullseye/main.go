// Command bullseye edits the saved bullseye reference used by the scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/unklstewy/ads-bsim/internal/db"
	"github.com/unklstewy/ads-bsim/internal/logging"
	"github.com/unklstewy/ads-bsim/pkg/bullseye"
	"github.com/unklstewy/ads-bsim/pkg/config"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	printOnly := flag.Bool("print", false, "Print the saved bullseye and store status, then exit")
	listProfiles := flag.Bool("profiles", false, "List bullseye profiles (PostgreSQL store) and exit")
	deleteProfile := flag.String("delete", "", "Delete a bullseye profile (PostgreSQL store) and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	batch := *printOnly || *listProfiles || *deleteProfile != ""
	logCloser, err := logging.Setup(cfg.Logging, logging.Options{
		Console:     batch,
		DefaultFile: logging.DefaultFile("bullseye.log"),
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closer, err := db.OpenBullseyeStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open bullseye store: %v", err)
	}
	defer closer.Close()

	if *listProfiles || *deleteProfile != "" {
		repo, ok := store.(*db.BullseyeRepository)
		if !ok {
			log.Fatalf("Profiles need the %q bullseye store", config.BullseyeStorePostgres)
		}
		if *deleteProfile != "" {
			if err := repo.Delete(ctx, *deleteProfile); err != nil {
				log.Fatalf("Failed to delete profile: %v", err)
			}
			fmt.Printf("Deleted profile %q\n", *deleteProfile)
			return
		}
		if err := printProfiles(ctx, repo); err != nil {
			log.Fatalf("Failed to list profiles: %v", err)
		}
		return
	}

	saved, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load bullseye: %v", err)
	}

	if *printOnly {
		if err := printBullseye(saved); err != nil {
			log.Fatalf("Failed to print bullseye: %v", err)
		}
		if repo, ok := store.(*db.BullseyeRepository); ok {
			printDatabaseStatus(ctx, repo.DB())
		}
		return
	}

	ref, err := initialReference(saved, cfg.Host)
	if err != nil {
		log.Fatalf("Failed to build initial bullseye: %v", err)
	}

	cancel()
	if err := NewEditor(store, ref).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initialReference returns the saved bullseye, or the host seed position
// when nothing has been saved.
func initialReference(saved *bullseye.Reference, host config.HostConfig) (bullseye.Reference, error) {
	if saved != nil {
		return *saved, nil
	}
	return bullseye.NewReference(bullseye.FormatDecimalMinutes, coordinates.Geographic{
		Latitude:  host.Latitude,
		Longitude: host.Longitude,
	})
}

func printBullseye(saved *bullseye.Reference) error {
	if saved == nil {
		fmt.Println("No bullseye saved")
		return nil
	}
	p, err := saved.Point()
	if err != nil {
		return err
	}
	fmt.Printf("%s  (%.6f, %.6f)\n", saved, p.Latitude, p.Longitude)
	return nil
}

func printProfiles(ctx context.Context, repo *db.BullseyeRepository) error {
	profiles, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No bullseye profiles")
		return nil
	}
	for _, p := range profiles {
		marker := " "
		if p.Profile == repo.Profile() {
			marker = "*"
		}
		fmt.Printf("%s %-16s %s  (updated %s)\n", marker, p.Profile, p.Reference, p.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func printDatabaseStatus(ctx context.Context, database *db.DB) {
	if !db.HealthCheck(ctx, database) {
		fmt.Println("Database: unhealthy")
		return
	}
	stats, err := database.GetStats(ctx)
	if err != nil {
		fmt.Printf("Database: healthy (stats unavailable: %v)\n", err)
		return
	}
	fmt.Printf("Database: healthy, %v profiles, %v open connections, %v in use\n",
		stats["bullseye_profiles"], stats["open_connections"], stats["in_use"])
}
