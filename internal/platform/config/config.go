package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string

	// Persistence selects the storage adapter: "postgres", "mongo" or
	// "memory".
	Persistence   string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string

	JWTSecret  string
	ConsulAddr string

	EnableOutboxRelay   string
	RelayBatchSize      int
	EnableNotifications bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "shora"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	persistence := strings.TrimSpace(strings.ToLower(os.Getenv("PERSISTENCE")))
	if persistence == "" {
		persistence = "memory"
	}

	database := os.Getenv("MONGO_DATABASE")
	if database == "" {
		database = "shora"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,

		Persistence:   persistence,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: database,

		JWTSecret:  os.Getenv("JWT_SECRET"),
		ConsulAddr: os.Getenv("CONSUL_ADDR"),

		EnableOutboxRelay:   os.Getenv("ENABLE_OUTBOX_RELAY"),
		RelayBatchSize:      envInt("RELAY_BATCH_SIZE", 100),
		EnableNotifications: envBool("ENABLE_NOTIFICATIONS", true),
	}, nil
}

// RelayEnabled treats the blank value as on; the relay is part of normal
// operation and is only switched off explicitly.
func (c Config) RelayEnabled() bool {
	raw := strings.TrimSpace(strings.ToLower(c.EnableOutboxRelay))
	if raw == "" {
		return true
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
