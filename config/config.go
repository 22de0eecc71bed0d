package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Cache backends for the per-customer local cart slot.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
)

type Config struct {
	Port           string        `env:"PORT,default=8080"`
	APIBaseURL     string        `env:"API_BASE_URL,default=http://localhost:3000/api"`
	APITimeout     time.Duration `env:"API_TIMEOUT,default=10s"`
	SyncTimeout    time.Duration `env:"SYNC_TIMEOUT,default=10s"`
	JWTSecret      string        `env:"JWT_SECRET,default=your_secret_key"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS,default=*"`

	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL,default=15m"`

	CacheBackend   string        `env:"CACHE_BACKEND,default=memory"`
	CacheTTL       time.Duration `env:"CACHE_TTL,default=168h"`
	LookupCacheTTL time.Duration `env:"LOOKUP_CACHE_TTL,default=5m"`

	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	MongoURI string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB,default=foodcart"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=1"`
}

// Load reads .env if present and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Info("no .env file found; using system environment")
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case CacheMemory, CacheRedis, CacheMongo:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if c.Port != "" && c.Port[0] != ':' {
		c.Port = ":" + c.Port
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
