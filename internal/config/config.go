package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nfrund/roomchat/internal/domain"
)

// Provider exposes read-only access to the application configuration.
// Components depend on this interface rather than the concrete Config so
// tests can supply partial fakes.
type Provider interface {
	GetDBURL() string
	GetDBUser() string
	GetDBPass() string
	GetDBNs() string
	GetDBDb() string
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration

	GetServerAddr() string
	GetSessionSecret() string

	GetRegistrationKey() string
	GetSummaryAPIKey() string
	GetSummaryModel() string
	GetSummaryBaseURL() string
	GetSummaryRatePerMinute() int

	GetNotificationTTL() time.Duration
	GetDisplayLocation() *time.Location
	GetRooms() []domain.Room
}

const (
	defaultServerAddr       = ":8080"
	defaultQueryTimeout     = 5 * time.Second
	defaultExecuteTimeout   = 10 * time.Second
	defaultSummaryModel     = "gemini-1.5-flash"
	defaultSummaryBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultSummaryRate      = 10
	defaultNotificationTTL  = 4 * time.Second
	defaultRoomsFile        = "rooms.toml"
	devSessionSecretWarning = "SESSION_SECRET not set, using an insecure development secret"
)

// Config holds all configuration for the application.
type Config struct {
	DBUrl            string
	DBNs             string
	DBDb             string
	DBUser           string
	DBPass           string
	DBQueryTimeout   time.Duration
	DBExecuteTimeout time.Duration

	ServerAddr    string
	SessionSecret string

	// RegistrationKey gates who may create accounts. It is a shared secret
	// handed out of band, not an authorization system.
	RegistrationKey string

	SummaryAPIKey        string
	SummaryModel         string
	SummaryBaseURL       string
	SummaryRatePerMinute int

	NotificationTTL time.Duration
	DisplayLocation *time.Location
	RoomsFile       string
	Rooms           []domain.Room
}

// ErrMissingDatabaseConfig is returned when the SurrealDB connection settings are absent.
var ErrMissingDatabaseConfig = errors.New("required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set")

// New loads configuration from environment variables, reading a .env file
// first when one exists, and loads the rooms registry from ROOMS_FILE.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	rooms, err := LoadRooms(OSFs(), cfg.RoomsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms from %s: %w", cfg.RoomsFile, err)
	}
	cfg.Rooms = rooms
	return cfg, nil
}

// FromEnv builds a Config from the current process environment without
// touching the filesystem. Rooms are left empty.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBUrl:  os.Getenv("SURREAL_URL"),
		DBUser: os.Getenv("SURREAL_USER"),
		DBPass: os.Getenv("SURREAL_PASS"),
		DBNs:   os.Getenv("SURREAL_NS"),
		DBDb:   os.Getenv("SURREAL_DB"),

		ServerAddr:    envOr("SERVER_ADDR", defaultServerAddr),
		SessionSecret: os.Getenv("SESSION_SECRET"),

		RegistrationKey: os.Getenv("REGISTRATION_KEY"),
		SummaryAPIKey:   os.Getenv("SUMMARY_API_KEY"),
		SummaryModel:    envOr("SUMMARY_MODEL", defaultSummaryModel),
		SummaryBaseURL:  envOr("SUMMARY_BASE_URL", defaultSummaryBaseURL),
		RoomsFile:       envOr("ROOMS_FILE", defaultRoomsFile),
	}

	if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
		return nil, ErrMissingDatabaseConfig
	}

	var err error
	if cfg.DBQueryTimeout, err = envDuration("DB_QUERY_TIMEOUT", defaultQueryTimeout); err != nil {
		return nil, err
	}
	if cfg.DBExecuteTimeout, err = envDuration("DB_EXECUTE_TIMEOUT", defaultExecuteTimeout); err != nil {
		return nil, err
	}
	if cfg.NotificationTTL, err = envDuration("NOTIFICATION_TTL", defaultNotificationTTL); err != nil {
		return nil, err
	}
	if cfg.SummaryRatePerMinute, err = envInt("SUMMARY_RATE_PER_MINUTE", defaultSummaryRate); err != nil {
		return nil, err
	}

	cfg.DisplayLocation = time.UTC
	if tz := os.Getenv("DISPLAY_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", tz, err)
		}
		cfg.DisplayLocation = loc
	}

	if cfg.SessionSecret == "" {
		log.Println(devSessionSecretWarning)
		cfg.SessionSecret = "insecure-development-session-secret"
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func (c *Config) GetDBURL() string                   { return c.DBUrl }
func (c *Config) GetDBUser() string                  { return c.DBUser }
func (c *Config) GetDBPass() string                  { return c.DBPass }
func (c *Config) GetDBNs() string                    { return c.DBNs }
func (c *Config) GetDBDb() string                    { return c.DBDb }
func (c *Config) GetDBQueryTimeout() time.Duration   { return c.DBQueryTimeout }
func (c *Config) GetDBExecuteTimeout() time.Duration { return c.DBExecuteTimeout }
func (c *Config) GetServerAddr() string              { return c.ServerAddr }
func (c *Config) GetSessionSecret() string           { return c.SessionSecret }
func (c *Config) GetRegistrationKey() string         { return c.RegistrationKey }
func (c *Config) GetSummaryAPIKey() string           { return c.SummaryAPIKey }
func (c *Config) GetSummaryModel() string            { return c.SummaryModel }
func (c *Config) GetSummaryBaseURL() string          { return c.SummaryBaseURL }
func (c *Config) GetSummaryRatePerMinute() int       { return c.SummaryRatePerMinute }
func (c *Config) GetNotificationTTL() time.Duration  { return c.NotificationTTL }

// GetDisplayLocation returns the zone used to format message timestamps.
func (c *Config) GetDisplayLocation() *time.Location {
	if c.DisplayLocation == nil {
		return time.UTC
	}
	return c.DisplayLocation
}

// GetRooms returns a copy of the static room registry.
func (c *Config) GetRooms() []domain.Room {
	rooms := make([]domain.Room, len(c.Rooms))
	copy(rooms, c.Rooms)
	return rooms
}
