package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Turn policies accepted by HostConfig.TurnPolicy.
const (
	TurnPolicyContinuous = "continuous"
	TurnPolicyLegs       = "legs"
)

// Bullseye store backends accepted by BullseyeConfig.Store.
const (
	BullseyeStoreFile     = "file"
	BullseyeStorePostgres = "postgres"
)

// Config represents the complete application configuration.
// The same file is shared by both simulators and the client tools.
type Config struct {
	Host     HostConfig     `json:"host"`
	Traffic  TrafficConfig  `json:"traffic"`
	Client   ClientConfig   `json:"client"`
	Bullseye BullseyeConfig `json:"bullseye"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig contains the listen addresses of one simulator service.
type ServerConfig struct {
	// BindHost is the server bind address (default: "0.0.0.0")
	BindHost string `json:"bind_host"`

	// StreamPort serves the WebSocket position stream
	StreamPort string `json:"stream_port"`

	// ControlPort serves /reset, /health and /metrics
	ControlPort string `json:"control_port"`

	// AllowedOrigins is passed to the CORS middleware
	AllowedOrigins []string `json:"allowed_origins"`

	// ResetsPerMinute limits POST /reset (0 = unlimited)
	ResetsPerMinute float64 `json:"resets_per_minute"`
}

// HostConfig configures the host (ownship) simulator.
type HostConfig struct {
	Server ServerConfig `json:"server"`

	// TickMillis is the update period in milliseconds (default: 100)
	TickMillis int `json:"tick_millis"`

	// Initial state restored on start and on reset
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`

	// TurnPolicy is "continuous" (constant left turn) or "legs"
	TurnPolicy string `json:"turn_policy"`

	// TurnRateDegPerSec is the left turn rate used by both policies
	TurnRateDegPerSec float64 `json:"turn_rate_deg_per_sec"`

	// StraightLegSeconds and TurnLegSeconds drive the "legs" policy
	StraightLegSeconds float64 `json:"straight_leg_seconds"`
	TurnLegSeconds     float64 `json:"turn_leg_seconds"`
}

// TrafficConfig configures the traffic simulator.
type TrafficConfig struct {
	Server ServerConfig `json:"server"`

	// TickMillis is the update period in milliseconds (default: 1000)
	TickMillis int `json:"tick_millis"`

	// Count is the number of simulated aircraft (ids AC1..ACn)
	Count int `json:"count"`

	// Seed for the random source; 0 picks a time based seed
	Seed int64 `json:"seed"`

	// SpreadDeg is the half width of the placement box around the host seed
	SpreadDeg float64 `json:"spread_deg"`

	// Altitude and speed ranges for placement
	MinAltitude float64 `json:"min_altitude"`
	MaxAltitude float64 `json:"max_altitude"`
	MinSpeed    float64 `json:"min_speed"`
	MaxSpeed    float64 `json:"max_speed"`

	// DriftProbabilityPerSecond scales the chance of a heading change by elapsed time
	DriftProbabilityPerSecond float64 `json:"drift_probability_per_second"`

	// MaxDriftDeg bounds a single heading change
	MaxDriftDeg float64 `json:"max_drift_deg"`
}

// ClientConfig configures the scope client.
type ClientConfig struct {
	// HostStreamURL is the WebSocket URL of the host simulator
	HostStreamURL string `json:"host_stream_url"`

	// TrafficStreamURL is the WebSocket URL of the traffic simulator
	TrafficStreamURL string `json:"traffic_stream_url"`

	// HostResetURL and TrafficResetURL are the POST /reset endpoints
	HostResetURL    string `json:"host_reset_url"`
	TrafficResetURL string `json:"traffic_reset_url"`

	// BreadcrumbCount is the initial trail length (0 disables)
	BreadcrumbCount int `json:"breadcrumb_count"`

	// Zoom is the initial map zoom level
	Zoom float64 `json:"zoom"`

	// ReconnectInitialMillis and ReconnectMaxMillis bound the reconnect backoff
	ReconnectInitialMillis int `json:"reconnect_initial_millis"`
	ReconnectMaxMillis     int `json:"reconnect_max_millis"`

	// Token is sent as a bearer token with reset requests
	Token string `json:"token,omitempty"`
}

// BullseyeConfig selects where the bullseye reference is persisted.
type BullseyeConfig struct {
	// Store is "file" or "postgres"
	Store string `json:"store"`

	// Path of the JSON file for the file store (default: user config dir)
	Path string `json:"path"`

	// Profile keys the row in the postgres store
	Profile string `json:"profile"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver is the database driver (postgres)
	Driver string `json:"driver"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// AuthConfig guards the reset endpoints.
type AuthConfig struct {
	// Enabled requires a bearer token on POST /reset
	Enabled bool `json:"enabled"`

	// JWTSecret signs issued tokens (should be loaded from environment)
	JWTSecret string `json:"jwt_secret"`

	// TokenHours is the token lifetime
	TokenHours int `json:"token_hours"`

	// Operators maps usernames to bcrypt password hashes
	Operators map[string]string `json:"operators"`

	// Admins lists operators granted the admin role
	Admins []string `json:"admins,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// File enables a rotating log file in addition to stderr
	File string `json:"file"`

	// MaxSizeMB, MaxBackups and MaxAgeDays control rotation
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal over the defaults so partial files keep sane values
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the simulators cannot run with.
func (c *Config) Validate() error {
	switch c.Host.TurnPolicy {
	case TurnPolicyContinuous, TurnPolicyLegs:
	default:
		return fmt.Errorf("invalid host turn_policy %q", c.Host.TurnPolicy)
	}
	if c.Host.TickMillis <= 0 || c.Traffic.TickMillis <= 0 {
		return fmt.Errorf("tick_millis must be positive")
	}
	if c.Traffic.Count < 0 {
		return fmt.Errorf("traffic count must not be negative")
	}
	if c.Traffic.MaxAltitude < c.Traffic.MinAltitude || c.Traffic.MaxSpeed < c.Traffic.MinSpeed {
		return fmt.Errorf("traffic ranges must have max >= min")
	}
	switch c.Bullseye.Store {
	case BullseyeStoreFile, BullseyeStorePostgres:
	default:
		return fmt.Errorf("invalid bullseye store %q", c.Bullseye.Store)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth enabled without jwt_secret")
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			Server: ServerConfig{
				BindHost:        "0.0.0.0",
				StreamPort:      "8080",
				ControlPort:     "8090",
				AllowedOrigins:  []string{"*"},
				ResetsPerMinute: 30,
			},
			TickMillis:         100,
			Latitude:           36.8529,
			Longitude:          -76.9214,
			Altitude:           25000,
			Speed:              300,
			Heading:            270,
			TurnPolicy:         TurnPolicyContinuous,
			TurnRateDegPerSec:  3.0,
			StraightLegSeconds: 60,
			TurnLegSeconds:     30,
		},
		Traffic: TrafficConfig{
			Server: ServerConfig{
				BindHost:        "0.0.0.0",
				StreamPort:      "8081",
				ControlPort:     "8091",
				AllowedOrigins:  []string{"*"},
				ResetsPerMinute: 30,
			},
			TickMillis:                1000,
			Count:                     50,
			SpreadDeg:                 6,
			MinAltitude:               5000,
			MaxAltitude:               40000,
			MinSpeed:                  250,
			MaxSpeed:                  450,
			DriftProbabilityPerSecond: 0.05,
			MaxDriftDeg:               30,
		},
		Client: ClientConfig{
			HostStreamURL:          "ws://localhost:8080/",
			TrafficStreamURL:       "ws://localhost:8081/",
			HostResetURL:           "http://localhost:8090/reset",
			TrafficResetURL:        "http://localhost:8091/reset",
			BreadcrumbCount:        10,
			Zoom:                   7,
			ReconnectInitialMillis: 500,
			ReconnectMaxMillis:     10000,
		},
		Bullseye: BullseyeConfig{
			Store:   BullseyeStoreFile,
			Profile: "default",
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "adsbsim",
			Username:     "adsbsim",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Auth: AuthConfig{
			Enabled:    false,
			TokenHours: 24,
			Operators:  map[string]string{},
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("ADS_BSIM_HOST_STREAM_PORT"); port != "" {
		c.Host.Server.StreamPort = port
	}
	if port := os.Getenv("ADS_BSIM_HOST_CONTROL_PORT"); port != "" {
		c.Host.Server.ControlPort = port
	}
	if port := os.Getenv("ADS_BSIM_TRAFFIC_STREAM_PORT"); port != "" {
		c.Traffic.Server.StreamPort = port
	}
	if port := os.Getenv("ADS_BSIM_TRAFFIC_CONTROL_PORT"); port != "" {
		c.Traffic.Server.ControlPort = port
	}
	if seed := os.Getenv("ADS_BSIM_TRAFFIC_SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			c.Traffic.Seed = v
		}
	}
	if dbPassword := os.Getenv("ADS_BSIM_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if secret := os.Getenv("ADS_BSIM_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if token := os.Getenv("ADS_BSIM_TOKEN"); token != "" {
		c.Client.Token = token
	}
}
