package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/bullseye"
)

// BullseyeProfile is a stored bullseye row.
type BullseyeProfile struct {
	ID        int
	Profile   string
	Reference bullseye.Reference
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BullseyeRepository keeps one bullseye per profile name. It implements
// bullseye.Store for a single profile.
type BullseyeRepository struct {
	db      *DB
	profile string
}

var _ bullseye.Store = (*BullseyeRepository)(nil)

// storeRetries is how often Load and Save retry after a lost connection.
const storeRetries = 2

// NewBullseyeRepository creates a repository bound to profile.
func NewBullseyeRepository(db *DB, profile string) *BullseyeRepository {
	if profile == "" {
		profile = "default"
	}
	return &BullseyeRepository{db: db, profile: profile}
}

// Profile returns the profile name the repository reads and writes.
func (r *BullseyeRepository) Profile() string {
	return r.profile
}

// DB returns the underlying connection.
func (r *BullseyeRepository) DB() *DB {
	return r.db
}

// Load returns the bullseye for the profile, or nil if none is saved.
// Connection failures are retried.
func (r *BullseyeRepository) Load(ctx context.Context) (*bullseye.Reference, error) {
	var p *BullseyeProfile
	err := WithRetry(ctx, func() error {
		var err error
		p, err = r.Get(ctx, r.profile)
		return err
	}, storeRetries)
	if err != nil || p == nil {
		return nil, err
	}
	return &p.Reference, nil
}

// Save validates ref and upserts it for the profile. Connection failures
// are retried.
func (r *BullseyeRepository) Save(ctx context.Context, ref bullseye.Reference) error {
	ref = normalizeReference(ref)
	if err := ref.Validate(); err != nil {
		return err
	}
	return WithRetry(ctx, func() error { return r.upsert(ctx, ref) }, storeRetries)
}

func (r *BullseyeRepository) upsert(ctx context.Context, ref bullseye.Reference) error {
	query := `
		INSERT INTO bullseye_profiles (profile, format, latitude, longitude, lat_direction, lon_direction)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (profile) DO UPDATE SET
			format = EXCLUDED.format,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			lat_direction = EXCLUDED.lat_direction,
			lon_direction = EXCLUDED.lon_direction,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		r.profile,
		ref.Format,
		ref.Latitude,
		ref.Longitude,
		ref.LatDirection,
		ref.LonDirection,
	)
	if err != nil {
		return fmt.Errorf("failed to save bullseye: %w", err)
	}

	return nil
}

// Get returns a stored profile, or nil if it does not exist.
func (r *BullseyeRepository) Get(ctx context.Context, profile string) (*BullseyeProfile, error) {
	query := `
		SELECT id, profile, format, latitude, longitude, lat_direction, lon_direction, created_at, updated_at
		FROM bullseye_profiles
		WHERE profile = $1
	`

	var p BullseyeProfile
	err := r.db.QueryRowContext(ctx, query, profile).Scan(
		&p.ID,
		&p.Profile,
		&p.Reference.Format,
		&p.Reference.Latitude,
		&p.Reference.Longitude,
		&p.Reference.LatDirection,
		&p.Reference.LonDirection,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bullseye profile: %w", err)
	}

	return &p, nil
}

// List returns every stored profile ordered by name.
func (r *BullseyeRepository) List(ctx context.Context) ([]BullseyeProfile, error) {
	query := `
		SELECT id, profile, format, latitude, longitude, lat_direction, lon_direction, created_at, updated_at
		FROM bullseye_profiles
		ORDER BY profile ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bullseye profiles: %w", err)
	}
	defer rows.Close()

	var profiles []BullseyeProfile
	for rows.Next() {
		var p BullseyeProfile
		err := rows.Scan(
			&p.ID,
			&p.Profile,
			&p.Reference.Format,
			&p.Reference.Latitude,
			&p.Reference.Longitude,
			&p.Reference.LatDirection,
			&p.Reference.LonDirection,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bullseye profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// Delete removes a profile.
func (r *BullseyeRepository) Delete(ctx context.Context, profile string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bullseye_profiles WHERE profile = $1`, profile)
	if err != nil {
		return fmt.Errorf("failed to delete bullseye profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("bullseye profile %q not found", profile)
	}

	return nil
}

// normalizeReference trims input and upper-cases hemispheres to satisfy the
// table constraints.
func normalizeReference(ref bullseye.Reference) bullseye.Reference {
	ref.Latitude = strings.TrimSpace(ref.Latitude)
	ref.Longitude = strings.TrimSpace(ref.Longitude)
	ref.LatDirection = strings.ToUpper(strings.TrimSpace(ref.LatDirection))
	ref.LonDirection = strings.ToUpper(strings.TrimSpace(ref.LonDirection))
	return ref
}
