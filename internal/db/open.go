package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/bullseye"
	"github.com/unklstewy/ads-bsim/pkg/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBullseyeStore returns the bullseye backend selected in cfg and a
// closer for any connection it opened. The PostgreSQL backend creates its
// schema on first use.
func OpenBullseyeStore(ctx context.Context, cfg *config.Config) (bullseye.Store, io.Closer, error) {
	switch cfg.Bullseye.Store {
	case config.BullseyeStorePostgres:
		database, err := ReconnectWithRetry(ctx, cfg.Database, 3, time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bullseye database: %w", err)
		}
		if err := database.InitSchema(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		repo := NewBullseyeRepository(database, cfg.Bullseye.Profile)
		log.Printf("🎯 Bullseye profile %q in PostgreSQL %s/%s", repo.Profile(), cfg.Database.Host, cfg.Database.Database)
		return repo, database, nil

	case config.BullseyeStoreFile, "":
		fs, err := bullseye.NewFileStore(cfg.Bullseye.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bullseye file: %w", err)
		}
		log.Printf("🎯 Bullseye file %s", fs.Path())
		return fs, nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown bullseye store %q", cfg.Bullseye.Store)
	}
}
