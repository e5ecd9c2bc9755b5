// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Store       StoreConfig
	NATS        NATSConfig
	Proximity   ProximityConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// StoreConfig selects and configures the record store
type StoreConfig struct {
	Driver   string
	Mongo    MongoConfig
	Database DatabaseConfig
	Memory   MemoryConfig
}

// MongoConfig holds document database configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DatabaseConfig holds PostGIS database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// MemoryConfig holds in-memory store configuration
type MemoryConfig struct {
	SeedFile string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	Enabled        bool
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	SubjectPrefix  string
}

// ProximityConfig holds the per-collection query profiles
type ProximityConfig struct {
	QueryTimeout  time.Duration
	Alerts        CollectionConfig
	Posts         CollectionConfig
	Vets          CollectionConfig
	VetsEmergency CollectionConfig
}

// CollectionConfig holds radius and paging bounds for one collection
type CollectionConfig struct {
	DefaultRadiusKm float64
	MinRadiusKm     float64
	MaxRadiusKm     float64
	DefaultLimit    int
	MaxLimit        int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string
	Development bool
}

// Load loads configuration from a .env file, environment variables and an
// optional YAML profile file named by SAFETAILS_CONFIG
func Load() (Config, error) {
	// A missing .env file is normal outside development
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			Mongo: MongoConfig{
				URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
				Database:       getEnv("MONGO_DB", "safetails"),
				ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 15*time.Second),
			},
			Database: DatabaseConfig{
				Host:         getEnv("DB_HOST", "localhost"),
				Port:         getEnvAsInt("DB_PORT", 5432),
				User:         getEnv("DB_USER", "postgres"),
				Password:     getEnv("DB_PASSWORD", "postgres"),
				Database:     getEnv("DB_NAME", "safetails"),
				MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
				MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
				MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
				SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			},
			Memory: MemoryConfig{
				SeedFile: getEnv("MEMORY_SEED_FILE", ""),
			},
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled:        getEnvAsBool("NATS_ENABLED", true),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			SubjectPrefix:  getEnv("NATS_SUBJECT_PREFIX", "safetails"),
		},
		Proximity: ProximityConfig{
			QueryTimeout: getEnvAsDuration("QUERY_TIMEOUT", 0),
			Alerts: CollectionConfig{
				DefaultRadiusKm: getEnvAsFloat("ALERTS_DEFAULT_RADIUS_KM", 10),
				MinRadiusKm:     getEnvAsFloat("ALERTS_MIN_RADIUS_KM", 1),
				MaxRadiusKm:     getEnvAsFloat("ALERTS_MAX_RADIUS_KM", 100),
				DefaultLimit:    getEnvAsInt("ALERTS_DEFAULT_LIMIT", 10),
				MaxLimit:        getEnvAsInt("ALERTS_MAX_LIMIT", 100),
			},
			Posts: CollectionConfig{
				DefaultRadiusKm: getEnvAsFloat("POSTS_DEFAULT_RADIUS_KM", 10),
				MinRadiusKm:     getEnvAsFloat("POSTS_MIN_RADIUS_KM", 1),
				MaxRadiusKm:     getEnvAsFloat("POSTS_MAX_RADIUS_KM", 100),
				DefaultLimit:    getEnvAsInt("POSTS_DEFAULT_LIMIT", 20),
				MaxLimit:        getEnvAsInt("POSTS_MAX_LIMIT", 100),
			},
			Vets: CollectionConfig{
				DefaultRadiusKm: getEnvAsFloat("VETS_DEFAULT_RADIUS_KM", 50),
				MinRadiusKm:     getEnvAsFloat("VETS_MIN_RADIUS_KM", 1),
				MaxRadiusKm:     getEnvAsFloat("VETS_MAX_RADIUS_KM", 200),
				DefaultLimit:    getEnvAsInt("VETS_DEFAULT_LIMIT", 20),
				MaxLimit:        getEnvAsInt("VETS_MAX_LIMIT", 100),
			},
			VetsEmergency: CollectionConfig{
				DefaultRadiusKm: getEnvAsFloat("VETS_EMERGENCY_DEFAULT_RADIUS_KM", 100),
				MinRadiusKm:     getEnvAsFloat("VETS_EMERGENCY_MIN_RADIUS_KM", 1),
				MaxRadiusKm:     getEnvAsFloat("VETS_EMERGENCY_MAX_RADIUS_KM", 200),
				DefaultLimit:    getEnvAsInt("VETS_EMERGENCY_DEFAULT_LIMIT", 20),
				MaxLimit:        getEnvAsInt("VETS_EMERGENCY_MAX_LIMIT", 100),
			},
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if path := getEnv("SAFETAILS_CONFIG", ""); path != "" {
		if err := applyProfileFile(&config.Proximity, path); err != nil {
			return config, err
		}
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	switch config.Store.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	if config.Proximity.QueryTimeout < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}

	collections := map[string]CollectionConfig{
		"alerts":        config.Proximity.Alerts,
		"posts":         config.Proximity.Posts,
		"vets":          config.Proximity.Vets,
		"vetsEmergency": config.Proximity.VetsEmergency,
	}
	for name, c := range collections {
		if err := c.validate(); err != nil {
			return fmt.Errorf("%s profile: %w", name, err)
		}
	}

	return nil
}

func (c CollectionConfig) validate() error {
	if c.MinRadiusKm <= 0 {
		return fmt.Errorf("min radius must be positive")
	}
	if c.MinRadiusKm > c.MaxRadiusKm {
		return fmt.Errorf("min radius %v exceeds max radius %v", c.MinRadiusKm, c.MaxRadiusKm)
	}
	if c.DefaultRadiusKm < c.MinRadiusKm || c.DefaultRadiusKm > c.MaxRadiusKm {
		return fmt.Errorf("default radius %v outside [%v,%v]", c.DefaultRadiusKm, c.MinRadiusKm, c.MaxRadiusKm)
	}
	if c.DefaultLimit < 1 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("limits must satisfy 1 <= default (%d) <= max (%d)", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
