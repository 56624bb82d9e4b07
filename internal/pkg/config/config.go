package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// Platform selects the shell the app runs in: "web" or "native".
	// Native enables local notification scheduling and push registration.
	Platform string `env:"PLATFORM, default=web"`

	// PublicBaseURL is the externally reachable origin, used to build
	// public media URLs.
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`

	// RoleDebounce is the quiet window between a role-table change event
	// and the re-resolution query.
	RoleDebounce time.Duration `env:"ROLE_DEBOUNCE, default=500ms"`

	// FeedPrefix namespaces the realtime feed's pub/sub channels.
	FeedPrefix string `env:"FEED_PREFIX, default=changes"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
