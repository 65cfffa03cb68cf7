package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"
)

// Config is the process configuration, read from the environment (and a
// .env file when present).
type Config struct {
	Port     string
	LogLevel string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret []byte

	GenerationURL   string
	GenerationModel string
	RouteURL        string
	RemoteTimeout   time.Duration

	SessionTTL        time.Duration
	GeneratePerMinute int
	ShareBaseURL      string
	CORSOrigins       []string
}

func Default() *Config {
	return &Config{
		Port:              ":8080",
		LogLevel:          "info",
		MongoURI:          "mongodb://localhost:27017",
		MongoDB:           "tripboard",
		RedisAddr:         "localhost:6379",
		JWTSecret:         []byte("your_secret_key"),
		GenerationModel:   "default",
		RemoteTimeout:     30 * time.Second,
		SessionTTL:        24 * time.Hour,
		GeneratePerMinute: 5,
		ShareBaseURL:      "http://localhost:8080/itineraries",
		CORSOrigins:       []string{"*"},
	}
}

// Load reads .env (if any) and the environment on top of the defaults.
// Values that fail to parse keep their default and are reported on logger.
func Load(logger arbor.ILogger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("No .env file found; using system environment")
	}
	return FromEnv(os.Getenv, logger)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string, logger arbor.ILogger) *Config {
	cfg := Default()

	if port := getenv("PORT"); port != "" {
		if port[0] != ':' {
			port = ":" + port
		}
		cfg.Port = port
	}
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))
	setString(&cfg.MongoURI, getenv("MONGO_URI"))
	setString(&cfg.MongoDB, getenv("MONGO_DB"))
	setString(&cfg.RedisAddr, getenv("REDIS_ADDR"))
	setString(&cfg.RedisPassword, getenv("REDIS_PASSWORD"))
	setString(&cfg.GenerationURL, getenv("GENERATION_URL"))
	setString(&cfg.GenerationModel, getenv("GENERATION_MODEL"))
	setString(&cfg.RouteURL, getenv("ROUTE_URL"))
	setString(&cfg.ShareBaseURL, getenv("SHARE_BASE_URL"))

	if secret := getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		logger.Warn().Msg("JWT_SECRET not set; using development secret")
	}

	setInt(&cfg.RedisDB, "REDIS_DB", getenv("REDIS_DB"), logger)
	setInt(&cfg.GeneratePerMinute, "GENERATE_PER_MINUTE", getenv("GENERATE_PER_MINUTE"), logger)
	setDuration(&cfg.RemoteTimeout, "REMOTE_TIMEOUT", getenv("REMOTE_TIMEOUT"), logger)
	setDuration(&cfg.SessionTTL, "SESSION_TTL", getenv("SESSION_TTL"), logger)

	if origins := getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, key, v string, logger arbor.ILogger) {
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn().Str("key", key).Str("value", v).Msg("Invalid integer; keeping default")
		return
	}
	*dst = n
}

func setDuration(dst *time.Duration, key, v string, logger arbor.ILogger) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn().Str("key", key).Str("value", v).Msg("Invalid duration; keeping default")
		return
	}
	*dst = d
}
