package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Maps     MapsConfig
	Auth     AuthConfig
	AMQP     AMQPConfig
	Dispatch DispatchConfig
	Ride     RideConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the ride store backend.
type StoreConfig struct {
	Backend string // "postgres" or "memory"
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// MapsConfig holds Google Maps Platform configuration.
type MapsConfig struct {
	APIKey          string // Empty disables remote geocoding and routing.
	AverageSpeedKmh float64
}

// AuthConfig holds access token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// AMQPConfig holds the RabbitMQ event mirror configuration.
type AMQPConfig struct {
	URL      string // Empty disables the mirror.
	Exchange string
}

// DispatchConfig holds driver search and fan-out settings.
type DispatchConfig struct {
	RadiusMeters        float64
	CarpoolRadiusMeters float64
	Concurrency         int
	DeliveryTimeout     time.Duration
	Workers             int
	QueueSize           int
	LockTTL             time.Duration
	PresenceTTL         time.Duration
}

// RideConfig holds ride lifecycle settings.
type RideConfig struct {
	Currency       string
	RequestTTL     time.Duration // Zero disables expiry.
	ExpiryInterval time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "postgres"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ride_hailing"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getIntEnv("REDIS_DB", 0),
			PoolSize:    getIntEnv("REDIS_POOL_SIZE", 20),
			DialTimeout: getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout: getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ride-hailing-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Maps: MapsConfig{
			APIKey:          getEnv("GOOGLE_MAPS_API_KEY", ""),
			AverageSpeedKmh: getFloatEnv("ROUTE_AVERAGE_SPEED_KMH", 25),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "ride.events"),
		},
		Dispatch: DispatchConfig{
			RadiusMeters:        getFloatEnv("DISPATCH_RADIUS_METERS", 20000),
			CarpoolRadiusMeters: getFloatEnv("DISPATCH_CARPOOL_RADIUS_METERS", 20000),
			Concurrency:         getIntEnv("DISPATCH_CONCURRENCY", 16),
			DeliveryTimeout:     getDurationEnv("DISPATCH_DELIVERY_TIMEOUT", 3*time.Second),
			Workers:             getIntEnv("DISPATCH_WORKERS", 4),
			QueueSize:           getIntEnv("DISPATCH_QUEUE_SIZE", 1024),
			LockTTL:             getDurationEnv("DISPATCH_LOCK_TTL", 5*time.Minute),
			PresenceTTL:         getDurationEnv("DRIVER_PRESENCE_TTL", 2*time.Minute),
		},
		Ride: RideConfig{
			Currency:       getEnv("FARE_CURRENCY", "INR"),
			RequestTTL:     getDurationEnv("RIDE_REQUEST_TTL", 0),
			ExpiryInterval: getDurationEnv("RIDE_EXPIRY_INTERVAL", 0),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
