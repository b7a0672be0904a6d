package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/config"
)

// ReconnectWithRetry connects to the database with exponential backoff.
//
// Parameters:
//   - cfg: Database configuration
//   - maxRetries: Maximum number of reconnection attempts (0 = infinite)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or error if all retries exhausted
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	retry := adsb.RetryConfig{
		MaxRetries:   maxRetries - 1,
		InitialDelay: initialDelay,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
	}
	if maxRetries <= 0 {
		retry.MaxRetries = -1
	}

	attempt := 0
	db, err := adsb.RetryWithBackoffResult(ctx, retry, func() (*DB, error) {
		attempt++
		log.Printf("Database connection attempt %d...", attempt)

		db, err := Connect(ctx, cfg)
		if err != nil {
			log.Printf("Connection failed: %v", err)
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		log.Printf("Failed to connect after %d attempts", attempt)
		return nil, err
	}

	log.Println("✓ Database connected")
	return db, nil
}

// HealthCheck reports whether the database answers a trivial query.
func HealthCheck(ctx context.Context, db *DB) bool {
	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		log.Printf("Health check failed - query error: %v", err)
		return false
	}

	if result != 1 {
		log.Printf("Health check failed - unexpected result: %d", result)
		return false
	}

	return true
}

// WithRetry executes a database operation, retrying only connection failures.
func WithRetry(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * time.Second
			log.Printf("Database operation failed (attempt %d/%d): %v (retry in %v)",
				attempt+1, maxRetries+1, err, waitTime)

			timer := time.NewTimer(waitTime)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return lastErr
}

var connErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"eof",
	"timeout",
}

// IsConnectionError reports whether err looks like a lost or refused
// connection rather than a query failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
